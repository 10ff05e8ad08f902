package storage

import "fmt"

// Pebble key schema.
// Prefix-based so per-user queries are range scans:
//
//   key:<userID>                     → vault-encrypted private key
//   trade:<userID>:<timestamp>:<id>  → executed trade record
//
// Timestamps are zero-padded to 20 digits so lexicographic order is
// chronological order.
const (
	prefixCredential = "key:"
	prefixTrade      = "trade:"
)

func credentialKey(userID string) []byte {
	return []byte(prefixCredential + userID)
}

// tradeKey formats "trade:{userID}:{timestamp}:{orderID}".
func tradeKey(userID string, timestamp int64, orderID string) []byte {
	return []byte(fmt.Sprintf("%s%s:%020d:%s", prefixTrade, userID, timestamp, orderID))
}

// tradePrefix covers all trades of one user.
func tradePrefix(userID string) []byte {
	return []byte(fmt.Sprintf("%s%s:", prefixTrade, userID))
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
