package wallet

import (
	"crypto/ecdsa"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
)

// Credential is a transient signing identity rehydrated from a
// decrypted private key. It lives for the duration of a single order
// execution: callers must Destroy it on every exit path so the key
// material does not outlive the call.
//
// WARNING: never log or persist the private key. The only durable form
// of the key is the vault-encrypted secret.
type Credential struct {
	priv *ecdsa.PrivateKey
	addr common.Address
}

// FromPrivateKeyHex builds a Credential from a hex-encoded secp256k1
// private key ("0x1234..." or "1234...", 64 hex chars).
func FromPrivateKeyHex(hexKey string) (*Credential, error) {
	hexKey = strings.TrimPrefix(hexKey, "0x")
	priv, err := crypto.HexToECDSA(hexKey)
	if err != nil {
		return nil, fmt.Errorf("wallet: parse private key: %w", err)
	}

	pub, ok := priv.Public().(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("wallet: public key is not ECDSA")
	}

	return &Credential{
		priv: priv,
		addr: crypto.PubkeyToAddress(*pub),
	}, nil
}

// Address returns the Ethereum address derived from the key.
// Safe to call after Destroy.
func (c *Credential) Address() common.Address {
	return c.addr
}

// SignDigest signs a 32-byte digest and returns the signature in
// [R || S || V] format (65 bytes).
func (c *Credential) SignDigest(digest []byte) ([]byte, error) {
	if c.priv == nil {
		return nil, fmt.Errorf("wallet: credential destroyed")
	}
	if len(digest) != 32 {
		return nil, fmt.Errorf("wallet: digest must be 32 bytes, got %d", len(digest))
	}
	sig, err := crypto.Sign(digest, c.priv)
	if err != nil {
		return nil, fmt.Errorf("wallet: sign: %w", err)
	}
	return sig, nil
}

// Destroy zeroes the private scalar and drops the key. Idempotent.
// The credential can no longer sign afterwards.
func (c *Credential) Destroy() {
	if c == nil || c.priv == nil {
		return
	}
	bits := c.priv.D.Bits()
	for i := range bits {
		bits[i] = 0
	}
	c.priv = nil
}

// VerifyDigest reports whether signature was produced over digest by
// the key behind addr.
func VerifyDigest(addr common.Address, digest, signature []byte) bool {
	if len(signature) != 65 || len(digest) != 32 {
		return false
	}
	pubBytes, err := crypto.Ecrecover(digest, signature)
	if err != nil {
		return false
	}
	pub, err := crypto.UnmarshalPubkey(pubBytes)
	if err != nil {
		return false
	}
	return crypto.PubkeyToAddress(*pub) == addr
}
