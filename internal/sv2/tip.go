package sv2

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// TipTracker holds the process-wide best prev-hash and the wall-clock time it
// last changed. It is the shared state consulted by cache pruning and by
// workers deciding whether a template advertises a new tip.
type TipTracker struct {
	mu            sync.Mutex
	bestPrevHash  chainhash.Hash
	lastBlockTime time.Time
}

// NewTipTracker returns a tracker seeded with the zero hash; callers should
// call Seed once a real tip is known at startup.
func NewTipTracker() *TipTracker {
	return &TipTracker{}
}

// Seed sets the initial best prev-hash and last-block-time without requiring
// the hash to differ from the current value, used once at dispatcher startup.
func (t *TipTracker) Seed(prevHash chainhash.Hash, when time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.bestPrevHash = prevHash
	t.lastBlockTime = when
}

// Observe updates the tracker if prevHash differs from the current best
// prev-hash, and reports whether it changed.
func (t *TipTracker) Observe(prevHash chainhash.Hash, when time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.bestPrevHash == prevHash {
		return false
	}
	t.bestPrevHash = prevHash
	t.lastBlockTime = when
	return true
}

// BestPrevHash returns the current best prev-hash.
func (t *TipTracker) BestPrevHash() chainhash.Hash {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.bestPrevHash
}

// LastBlockTime returns the last time the best prev-hash changed.
func (t *TipTracker) LastBlockTime() time.Time {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.lastBlockTime
}
