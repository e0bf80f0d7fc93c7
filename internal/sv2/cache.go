package sv2

import (
	"sync"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

// pruneGrace is how long a cache entry survives after the last observed tip
// change even if its prev-hash no longer matches the current best one. It
// gives a client that just found a block a window to still request its
// transaction data.
const pruneGrace = 10 * time.Second

type cacheEntry struct {
	id       uint64
	template Template
	prevHash chainhash.Hash
}

// TemplateCache maps template ids to the template handle they were issued
// for. It is pruned by prev-hash once the pruning grace window has elapsed.
// Safe for concurrent use; guards its own map with an internal mutex.
type TemplateCache struct {
	mu      sync.Mutex
	entries map[uint64]cacheEntry
}

// NewTemplateCache returns an empty cache.
func NewTemplateCache() *TemplateCache {
	return &TemplateCache{entries: make(map[uint64]cacheEntry)}
}

// Insert records a template under id. Inserting an id that already exists is
// a programmer error since ids are monotonic and assigned once.
func (c *TemplateCache) Insert(id uint64, tmpl Template, prevHash chainhash.Hash) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[id] = cacheEntry{id: id, template: tmpl, prevHash: prevHash}
}

// Lookup returns the template stored under id, if any.
func (c *TemplateCache) Lookup(id uint64) (Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return nil, false
	}
	return e.template, true
}

// PrevHash returns the prev-hash recorded for id, if the entry exists.
func (c *TemplateCache) PrevHash(id uint64) (chainhash.Hash, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[id]
	if !ok {
		return chainhash.Hash{}, false
	}
	return e.prevHash, true
}

// Len reports the number of cached entries, used for status reporting.
func (c *TemplateCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Prune removes every entry whose prev-hash differs from bestPrevHash, unless
// we are still within the pruning grace window of lastBlockTime.
func (c *TemplateCache) Prune(bestPrevHash chainhash.Hash, lastBlockTime time.Time) {
	if time.Since(lastBlockTime) <= pruneGrace {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, e := range c.entries {
		if e.prevHash != bestPrevHash {
			delete(c.entries, id)
		}
	}
}
