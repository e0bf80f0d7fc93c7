package miningrpc

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"

	"sv2tpd/internal/sv2"
)

// rpcTemplate is the concrete sv2.Template backing RPCMining. Each call to
// CreateNewBlock or WaitNext that produces a newer candidate returns a fresh
// rpcTemplate rather than mutating an existing one.
type rpcTemplate struct {
	mining         *RPCMining
	block          *wire.MsgBlock
	merklePath     []chainhash.Hash
	totalFee       int64
	reservedWeight uint32
	height         int64
}

func (t *rpcTemplate) BlockHeader() wire.BlockHeader { return t.block.Header }

func (t *rpcTemplate) CoinbaseTx() *wire.MsgTx { return t.block.Transactions[0] }

func (t *rpcTemplate) CoinbaseMerklePath() []chainhash.Hash { return t.merklePath }

// WitnessCommitmentIndex reports -1: this adapter does not add a BIP141
// witness commitment output, leaving that to the downstream consumer that
// replaces the coinbase outputs before submission.
func (t *rpcTemplate) WitnessCommitmentIndex() int { return -1 }

func (t *rpcTemplate) Block() *wire.MsgBlock { return t.block }

// Height reports the block height getblocktemplate assigned this candidate.
func (t *rpcTemplate) Height() int64 { return t.height }

// WaitNext polls getblocktemplate until either the tip changes or the
// cumulative fee total rises by at least opts.FeeThreshold satoshis, honoring
// opts.Timeout and ctx cancellation. A nil, nil return means neither
// condition was met before the wait ended.
func (t *rpcTemplate) WaitNext(ctx context.Context, opts sv2.BlockWaitOptions) (sv2.Template, error) {
	waitCtx := ctx
	var cancel context.CancelFunc
	if opts.Timeout > 0 {
		waitCtx, cancel = context.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-waitCtx.Done():
			return nil, nil
		case <-ticker.C:
		}

		candidate, err := t.mining.CreateNewBlock(waitCtx, sv2.BlockCreateOptions{UseMempool: true, BlockReservedWeight: t.reservedWeight})
		if err != nil {
			continue
		}
		next := candidate.(*rpcTemplate)

		if next.block.Header.PrevBlock != t.block.Header.PrevBlock {
			return next, nil
		}
		if next.totalFee-t.totalFee >= opts.FeeThreshold {
			return next, nil
		}
	}
}
