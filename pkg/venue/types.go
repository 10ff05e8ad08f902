package venue

import (
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"
)

// Side of an order from the taker's perspective.
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Valid reports whether s is one of the two accepted sides.
func (s Side) Valid() bool { return s == SideBuy || s == SideSell }

// OrderRequest is the wire format the venue accepts. Price and Size
// are fixed-point integers scaled by 10^6 from their decimal values.
type OrderRequest struct {
	TokenID   string `json:"tokenId"`
	Price     int64  `json:"price"`
	Size      int64  `json:"size"`
	Side      Side   `json:"side"`
	Nonce     int64  `json:"nonce"`
	ClientID  string `json:"clientId"`
	Owner     string `json:"owner"`
	Signature string `json:"signature"`
}

// Digest returns the keccak256 hash of the canonical order encoding.
// Every signed field participates; Signature does not.
func (r OrderRequest) Digest() []byte {
	canonical := fmt.Sprintf("%s|%d|%d|%s|%d|%s|%s",
		r.TokenID, r.Price, r.Size, r.Side, r.Nonce, r.ClientID, r.Owner)
	return crypto.Keccak256([]byte(canonical))
}

type orderResponse struct {
	OrderID string `json:"orderID"`
}
