package sv2

import (
	"context"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

func TestTemplateCacheInsertLookup(t *testing.T) {
	c := NewTemplateCache()
	var prev chainhash.Hash
	prev[0] = 1
	c.Insert(1, fakeTemplate{}, prev)

	if _, ok := c.Lookup(1); !ok {
		t.Fatalf("expected entry 1 to be present")
	}
	if _, ok := c.Lookup(2); ok {
		t.Fatalf("expected entry 2 to be absent")
	}
	if got := c.Len(); got != 1 {
		t.Fatalf("expected len 1, got %d", got)
	}
}

func TestTemplateCachePruneWithinGraceIsNoop(t *testing.T) {
	c := NewTemplateCache()
	var oldPrev, newPrev chainhash.Hash
	oldPrev[0] = 1
	newPrev[0] = 2
	c.Insert(1, fakeTemplate{}, oldPrev)

	c.Prune(newPrev, time.Now())
	if _, ok := c.Lookup(1); !ok {
		t.Fatalf("entry should survive prune within grace window")
	}
}

func TestTemplateCachePruneRemovesStalePrevHash(t *testing.T) {
	c := NewTemplateCache()
	var oldPrev, newPrev chainhash.Hash
	oldPrev[0] = 1
	newPrev[0] = 2
	c.Insert(1, fakeTemplate{}, oldPrev)
	c.Insert(2, fakeTemplate{}, newPrev)

	c.Prune(newPrev, time.Now().Add(-pruneGrace-time.Second))

	if _, ok := c.Lookup(1); ok {
		t.Fatalf("entry with stale prev-hash should have been pruned")
	}
	if _, ok := c.Lookup(2); !ok {
		t.Fatalf("entry matching best prev-hash should survive prune")
	}
}

// fakeTemplate is a minimal Template used by sv2 package tests that don't
// care about block contents.
type fakeTemplate struct{}

func (fakeTemplate) BlockHeader() wire.BlockHeader         { return wire.BlockHeader{} }
func (fakeTemplate) CoinbaseTx() *wire.MsgTx                { return wire.NewMsgTx(wire.TxVersion) }
func (fakeTemplate) CoinbaseMerklePath() []chainhash.Hash   { return nil }
func (fakeTemplate) WitnessCommitmentIndex() int            { return -1 }
func (fakeTemplate) Block() *wire.MsgBlock                  { return wire.NewMsgBlock(&wire.BlockHeader{}) }
func (fakeTemplate) Height() int64                          { return 0 }
func (fakeTemplate) WaitNext(ctx context.Context, opts BlockWaitOptions) (Template, error) {
	return nil, nil
}
