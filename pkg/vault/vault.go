package vault

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Vault performs authenticated encryption of secret material (wallet
// private keys) with a process-wide 32-byte master key.
//
// Stored secrets use the format "<iv-hex>:<authTag-hex>:<ciphertext-hex>"
// with a 16-byte IV and a 16-byte GCM tag. The layout is fixed: any
// secret already persisted in this format must keep decrypting.
type Vault struct {
	aead cipher.AEAD
}

const (
	// MasterKeySize is the required master key length (AES-256).
	MasterKeySize = 32
	// ivSize is the GCM nonce length. 16 bytes, not the GCM default of
	// 12, to stay compatible with the stored-secret format.
	ivSize = 16

	secretDelimiter = ":"
	secretParts     = 3
)

var (
	// ErrMalformedSecret reports a stored secret that does not split into
	// exactly three hex parts with a 16-byte IV and 16-byte tag.
	ErrMalformedSecret = errors.New("vault: malformed secret")

	// ErrAuthentication reports a ciphertext whose authentication tag did
	// not verify. The secret was tampered with or encrypted under a
	// different master key; no plaintext is ever returned on this path.
	ErrAuthentication = errors.New("vault: authentication failed")
)

// New creates a Vault from a raw 32-byte master key.
// Any other key length is a configuration error and rejected up front.
func New(masterKey []byte) (*Vault, error) {
	if len(masterKey) != MasterKeySize {
		return nil, fmt.Errorf("vault: master key must be %d bytes, got %d", MasterKeySize, len(masterKey))
	}
	block, err := aes.NewCipher(masterKey)
	if err != nil {
		return nil, fmt.Errorf("vault: init cipher: %w", err)
	}
	aead, err := cipher.NewGCMWithNonceSize(block, ivSize)
	if err != nil {
		return nil, fmt.Errorf("vault: init gcm: %w", err)
	}
	return &Vault{aead: aead}, nil
}

// Encrypt seals plaintext under a fresh random 16-byte IV and returns
// the delimited hex triple.
func (v *Vault) Encrypt(plaintext string) (string, error) {
	iv := make([]byte, ivSize)
	if _, err := rand.Read(iv); err != nil {
		return "", fmt.Errorf("vault: read iv: %w", err)
	}

	sealed := v.aead.Seal(nil, iv, []byte(plaintext), nil)

	// Seal appends the tag to the ciphertext; the stored format keeps
	// them as separate fields.
	tagStart := len(sealed) - v.aead.Overhead()
	ciphertext, tag := sealed[:tagStart], sealed[tagStart:]

	return strings.Join([]string{
		hex.EncodeToString(iv),
		hex.EncodeToString(tag),
		hex.EncodeToString(ciphertext),
	}, secretDelimiter), nil
}

// Decrypt opens a stored secret and returns the plaintext.
// It fails with ErrMalformedSecret when the input does not match the
// three-part hex layout, and with ErrAuthentication when the tag does
// not verify.
func (v *Vault) Decrypt(secret string) (string, error) {
	parts := strings.Split(secret, secretDelimiter)
	if len(parts) != secretParts {
		return "", fmt.Errorf("%w: expected %d parts, got %d", ErrMalformedSecret, secretParts, len(parts))
	}

	iv, err := hex.DecodeString(parts[0])
	if err != nil {
		return "", fmt.Errorf("%w: invalid iv hex: %v", ErrMalformedSecret, err)
	}
	if len(iv) != ivSize {
		return "", fmt.Errorf("%w: iv must be %d bytes, got %d", ErrMalformedSecret, ivSize, len(iv))
	}

	tag, err := hex.DecodeString(parts[1])
	if err != nil {
		return "", fmt.Errorf("%w: invalid tag hex: %v", ErrMalformedSecret, err)
	}
	if len(tag) != v.aead.Overhead() {
		return "", fmt.Errorf("%w: tag must be %d bytes, got %d", ErrMalformedSecret, v.aead.Overhead(), len(tag))
	}

	ciphertext, err := hex.DecodeString(parts[2])
	if err != nil {
		return "", fmt.Errorf("%w: invalid ciphertext hex: %v", ErrMalformedSecret, err)
	}

	sealed := append(ciphertext, tag...)
	plaintext, err := v.aead.Open(nil, iv, sealed, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrAuthentication, err)
	}
	return string(plaintext), nil
}
