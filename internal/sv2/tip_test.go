package sv2

import (
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func TestTipTrackerObserveOnlyOnChange(t *testing.T) {
	tr := NewTipTracker()
	var h1, h2 chainhash.Hash
	h1[0] = 1
	h2[0] = 2

	now := time.Now()
	tr.Seed(h1, now)

	if changed := tr.Observe(h1, now.Add(time.Second)); changed {
		t.Fatalf("observing the same prev-hash should not report a change")
	}
	if tr.LastBlockTime() != now {
		t.Fatalf("last block time should be unchanged after a no-op observe")
	}

	later := now.Add(time.Minute)
	if changed := tr.Observe(h2, later); !changed {
		t.Fatalf("observing a new prev-hash should report a change")
	}
	if tr.BestPrevHash() != h2 {
		t.Fatalf("best prev-hash should be updated")
	}
	if !tr.LastBlockTime().Equal(later) {
		t.Fatalf("last block time should be updated on change")
	}
}
