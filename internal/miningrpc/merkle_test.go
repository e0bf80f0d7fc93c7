package miningrpc

import (
	"testing"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
)

func TestBuildCoinbaseMerklePathSingleTx(t *testing.T) {
	var h chainhash.Hash
	h[0] = 0xab
	path := buildCoinbaseMerklePath([]chainhash.Hash{h})
	if len(path) != 1 {
		t.Fatalf("expected a single branch hash, got %d", len(path))
	}
	if path[0] != h {
		t.Fatalf("expected branch to equal the lone sibling hash")
	}
}

func TestBuildCoinbaseMerklePathEmpty(t *testing.T) {
	if path := buildCoinbaseMerklePath(nil); path != nil {
		t.Fatalf("expected nil path for a coinbase-only block, got %v", path)
	}
}

func TestBuildCoinbaseMerklePathOddCount(t *testing.T) {
	var a, b, c chainhash.Hash
	a[0], b[0], c[0] = 1, 2, 3
	path := buildCoinbaseMerklePath([]chainhash.Hash{a, b, c})
	if len(path) != 2 {
		t.Fatalf("expected 2 branch levels for 4 leaves (3 txs + coinbase), got %d", len(path))
	}
}
