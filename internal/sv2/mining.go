// Package sv2 implements the template-provider side of the Stratum v2
// Template Distribution sub-protocol: the per-client template lifecycle,
// the shared template cache, and the dispatcher that drives both.
package sv2

import (
	"context"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// MaxMoney mirrors Bitcoin's maximum supply in satoshis, used as an
// effectively-infinite fee threshold when a worker only wants to be woken by
// a new tip.
const MaxMoney int64 = 21_000_000 * 100_000_000

// Tip describes the chain tip observed by WaitTipChanged.
type Tip struct {
	Hash   chainhash.Hash
	Height int64
}

// BlockCreateOptions parametrizes CreateNewBlock.
type BlockCreateOptions struct {
	UseMempool          bool
	BlockReservedWeight uint32
}

// BlockWaitOptions parametrizes Template.WaitNext.
type BlockWaitOptions struct {
	// FeeThreshold is the minimum additional fee total, in satoshis, that
	// justifies returning a new template absent a tip change.
	FeeThreshold int64
	// Timeout, if non-zero, bounds how long WaitNext may block.
	Timeout time.Duration
}

// Template is an opaque candidate block handle produced by the Mining
// interface. Implementations must be safe to read concurrently; WaitNext is
// the only mutating-in-effect call and it returns a new handle rather than
// mutating the receiver.
type Template interface {
	BlockHeader() wire.BlockHeader
	CoinbaseTx() *wire.MsgTx
	CoinbaseMerklePath() []chainhash.Hash
	WitnessCommitmentIndex() int
	Block() *wire.MsgBlock
	// Height is the block height this template extends the chain to, used
	// only for audit-log bookkeeping (see internal/audit).
	Height() int64

	// WaitNext blocks until a newer template is available, the timeout
	// elapses, or ctx is cancelled. A nil, nil return means "no newer
	// template" (timeout or cancellation) and callers must tolerate it as a
	// routine occurrence, not an error.
	WaitNext(ctx context.Context, opts BlockWaitOptions) (Template, error)
}

// Mining is the external block-assembly interface this engine consumes. The
// concrete implementation lives outside this package (see internal/miningrpc
// for a JSON-RPC-backed adapter); this package only depends on the contract.
type Mining interface {
	// WaitTipChanged blocks until the chain tip differs from known, or ctx is
	// cancelled. A nil, nil return signals cancellation/shutdown.
	WaitTipChanged(ctx context.Context, known chainhash.Hash) (*Tip, error)
	IsInitialBlockDownload() bool
	CreateNewBlock(ctx context.Context, opts BlockCreateOptions) (Template, error)
	// SubmitSolution forwards a found solution to the node, using tmpl (the
	// cache entry the template id resolved to) to recover the rest of the
	// block's transactions. It is invoked with no TP-owned locks held.
	SubmitSolution(ctx context.Context, tmpl Template, version int32, timestamp uint32, nonce uint32, coinbaseTx *wire.MsgTx) error
}
