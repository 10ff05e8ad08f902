package executor

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"github.com/tradevault/relay/pkg/util"
)

// NonceAllocator hands out venue nonces, one counter per signing
// credential keyed by its address. Nonces are strictly increasing per
// credential and never regress below the current wall-clock millis, so
// concurrent orders for the same credential can never collide and a
// restart resumes above anything issued before it.
type NonceAllocator struct {
	clock util.Clock

	mu   sync.Mutex
	last map[common.Address]int64
}

// NewNonceAllocator creates an allocator seeded from clock.
func NewNonceAllocator(clock util.Clock) *NonceAllocator {
	return &NonceAllocator{
		clock: clock,
		last:  make(map[common.Address]int64),
	}
}

// Next returns the next nonce for addr.
func (a *NonceAllocator) Next(addr common.Address) int64 {
	a.mu.Lock()
	defer a.mu.Unlock()

	n := a.last[addr] + 1
	if now := a.clock.Now().UnixMilli(); now > n {
		n = now
	}
	a.last[addr] = n
	return n
}
