package api

// REST request/response types. The HTTP layer is thin glue over the
// vault, the credential store, and the order executor; it carries no
// logic of its own.

// RegisterKeyRequest carries a plaintext private key to encrypt and
// store. The plaintext never leaves the handler.
type RegisterKeyRequest struct {
	PrivateKey string `json:"privateKey"`
}

// SubmitOrderRequest is a desired trade in decimal venue units.
type SubmitOrderRequest struct {
	TokenID string `json:"tokenId"`
	Price   string `json:"price"`
	Size    string `json:"size"`
	Side    string `json:"side"` // "BUY" or "SELL"
	Market  string `json:"market"`
}

// ErrorResponse is the uniform error body.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
