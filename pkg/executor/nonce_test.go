package executor

import (
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) set(t time.Time) {
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

var (
	addrA = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	addrB = common.HexToAddress("0x00000000000000000000000000000000000000bb")
)

func TestNonce_SeededFromClock(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	a := NewNonceAllocator(clock)

	if got := a.Next(addrA); got != 1_700_000_000_000 {
		t.Errorf("first nonce = %d, want clock millis", got)
	}
}

func TestNonce_NeverRegresses(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	a := NewNonceAllocator(clock)

	first := a.Next(addrA)

	// Clock jumps backwards; nonces must keep increasing anyway.
	clock.set(time.UnixMilli(1_600_000_000_000))
	second := a.Next(addrA)
	if second != first+1 {
		t.Errorf("nonce after clock regression = %d, want %d", second, first+1)
	}

	// Clock jumps ahead; allocator follows it.
	clock.set(time.UnixMilli(1_800_000_000_000))
	third := a.Next(addrA)
	if third != 1_800_000_000_000 {
		t.Errorf("nonce after clock jump = %d, want clock millis", third)
	}
}

func TestNonce_PerCredentialCounters(t *testing.T) {
	clock := &fakeClock{now: time.UnixMilli(1_700_000_000_000)}
	a := NewNonceAllocator(clock)

	na := a.Next(addrA)
	nb := a.Next(addrB)
	if na != nb {
		t.Errorf("independent credentials should both seed from the clock: %d vs %d", na, nb)
	}
}

// 1000 concurrent calls for the same credential must yield 1000
// distinct nonces, strictly increasing once ordered.
func TestNonce_ConcurrentUniqueness(t *testing.T) {
	const calls = 1000

	a := NewNonceAllocator(&fakeClock{now: time.UnixMilli(1_700_000_000_000)})

	nonces := make([]int64, calls)
	var wg sync.WaitGroup
	for i := 0; i < calls; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			nonces[i] = a.Next(addrA)
		}(i)
	}
	wg.Wait()

	sort.Slice(nonces, func(i, j int) bool { return nonces[i] < nonces[j] })
	for i := 1; i < calls; i++ {
		if nonces[i] <= nonces[i-1] {
			t.Fatalf("nonces not strictly increasing at %d: %d then %d", i, nonces[i-1], nonces[i])
		}
	}
}
