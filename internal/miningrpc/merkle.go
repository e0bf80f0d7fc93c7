package miningrpc

import (
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// buildCoinbaseMerklePath returns the merkle branch hashes needed to recompute
// the block's merkle root from the coinbase transaction alone, given the
// hashes of every other transaction in the block (in block order, coinbase
// excluded). The coinbase is always leaf 0.
func buildCoinbaseMerklePath(txHashes []chainhash.Hash) []chainhash.Hash {
	if len(txHashes) == 0 {
		return nil
	}

	leaves := make([]chainhash.Hash, 1, len(txHashes)+1)
	leaves[0] = chainhash.Hash{} // coinbase placeholder, value unused
	leaves = append(leaves, txHashes...)

	idx := 0 // coinbase position
	var path []chainhash.Hash

	for len(leaves) > 1 {
		if len(leaves)%2 == 1 {
			leaves = append(leaves, leaves[len(leaves)-1])
		}
		siblingIdx := idx ^ 1
		path = append(path, leaves[siblingIdx])

		next := make([]chainhash.Hash, 0, len(leaves)/2)
		for i := 0; i < len(leaves); i += 2 {
			next = append(next, hashPair(leaves[i], leaves[i+1]))
		}
		idx /= 2
		leaves = next
	}

	return path
}

func hashPair(a, b chainhash.Hash) chainhash.Hash {
	var buf [64]byte
	copy(buf[:32], a[:])
	copy(buf[32:], b[:])
	return chainhash.DoubleHashH(buf[:])
}

// txHashesExcludingCoinbase extracts the wire-level tx hashes of every transaction in block
// order, excluding the coinbase (index 0).
func txHashesExcludingCoinbase(block *wire.MsgBlock) []chainhash.Hash {
	if len(block.Transactions) <= 1 {
		return nil
	}
	hashes := make([]chainhash.Hash, 0, len(block.Transactions)-1)
	for _, tx := range block.Transactions[1:] {
		hashes = append(hashes, tx.TxHash())
	}
	return hashes
}
