// Package storage persists user credentials (vault-encrypted, never
// plaintext) and executed-trade history in Pebble.
package storage

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cockroachdb/pebble"

	"github.com/tradevault/relay/pkg/relay"
)

// TradeRecord is a trade event plus the time it was recorded.
type TradeRecord struct {
	relay.TradeEvent
	Timestamp int64 `json:"timestamp"` // Unix milliseconds
}

// Store wraps a Pebble database.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	db, err := pebble.Open(path, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("storage: open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// SaveEncryptedKey stores a user's encrypted private key. The value is
// the vault triple as-is; this layer never sees plaintext keys.
func (s *Store) SaveEncryptedKey(userID, encryptedKey string) error {
	if err := s.db.Set(credentialKey(userID), []byte(encryptedKey), pebble.Sync); err != nil {
		return fmt.Errorf("storage: save key for %s: %w", userID, err)
	}
	return nil
}

// LoadEncryptedKey returns the stored encrypted key for userID, with
// found=false when the user has no registered key.
func (s *Store) LoadEncryptedKey(userID string) (string, bool, error) {
	val, closer, err := s.db.Get(credentialKey(userID))
	if err == pebble.ErrNotFound {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("storage: load key for %s: %w", userID, err)
	}
	defer closer.Close()
	return string(val), true, nil
}

// RecordTrade appends an executed trade to the user's history.
// NoSync: trade history is best-effort, losing the tail on a crash is
// acceptable.
func (s *Store) RecordTrade(ev relay.TradeEvent) error {
	rec := TradeRecord{TradeEvent: ev, Timestamp: time.Now().UnixMilli()}
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("storage: marshal trade: %w", err)
	}
	key := tradeKey(rec.UserID, rec.Timestamp, rec.OrderID)
	if err := s.db.Set(key, data, pebble.NoSync); err != nil {
		return fmt.Errorf("storage: save trade %s: %w", rec.OrderID, err)
	}
	return nil
}

// LoadRecentTrades returns up to limit trades for userID, most recent
// first.
func (s *Store) LoadRecentTrades(userID string, limit int) ([]TradeRecord, error) {
	prefix := tradePrefix(userID)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("storage: iterate trades: %w", err)
	}
	defer iter.Close()

	var trades []TradeRecord
	for iter.Last(); iter.Valid() && len(trades) < limit; iter.Prev() {
		var rec TradeRecord
		if err := json.Unmarshal(iter.Value(), &rec); err != nil {
			continue // skip invalid entries
		}
		trades = append(trades, rec)
	}
	return trades, nil
}
