package sv2

import (
	"context"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"sv2tpd/internal/metrics"
)

// Options configures a TemplateProvider engine.
type Options struct {
	FeeCheckInterval time.Duration
	FeeDelta         int64
	IsTest           bool
	// SkipIBDWait lets the dispatcher proceed without waiting for the node
	// to leave initial block download, for chains where we may be the only
	// miner (signet).
	SkipIBDWait bool
	// Metrics receives engine events. Defaults to metrics.NoopRecorder.
	Metrics metrics.Recorder
}

// TemplateProvider is the template-distribution engine: the dispatcher and
// per-client workers, the shared template cache and tip tracker, and the
// RequestTransactionData/SubmitSolution handlers. It implements
// EventsInterface so a Connman can deliver client messages directly to it.
type TemplateProvider struct {
	mining  Mining
	connman Connman
	opts    Options

	cache *TemplateCache
	tip   *TipTracker

	nextID atomic.Uint64

	workersMu sync.Mutex
	workers   map[uint64]struct{}

	interrupt atomic.Bool
	cancel    context.CancelFunc
	wg        sync.WaitGroup

	// auditFn, if set, is invoked in its own goroutine after a solution has
	// been successfully forwarded to the Mining interface. OnSubmitSolution
	// never calls it inline and never waits on it: it may block on a slow
	// audit store without affecting the connection's reader goroutine or any
	// subsequent protocol message.
	auditFn func(templateID uint64, height int64, blockHash chainhash.Hash)
}

// SetAuditHook installs a callback invoked after each successfully forwarded
// SubmitSolution, for operator-visibility logging (see internal/audit). It is
// never required for correctness of the protocol engine, and it is always
// called off the protocol path, so it is free to block.
func (tp *TemplateProvider) SetAuditHook(fn func(templateID uint64, height int64, blockHash chainhash.Hash)) {
	tp.auditFn = fn
}

// New constructs a TemplateProvider bound to the given Mining and Connman
// implementations.
func New(mining Mining, connman Connman, opts Options) *TemplateProvider {
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoopRecorder{}
	}
	return &TemplateProvider{
		mining:  mining,
		connman: connman,
		opts:    opts,
		cache:   NewTemplateCache(),
		tip:     NewTipTracker(),
		workers: make(map[uint64]struct{}),
	}
}

// CacheLen reports the current template cache size, for status reporting.
func (tp *TemplateProvider) CacheLen() int { return tp.cache.Len() }

// ConnectedClients reports the number of clients the Connman currently
// tracks, for status reporting.
func (tp *TemplateProvider) ConnectedClients() int {
	n := 0
	tp.connman.ForEachClient(func(*Client) { n++ })
	return n
}

// BestPrevHash reports the current best prev-hash, for status reporting.
func (tp *TemplateProvider) BestPrevHash() chainhash.Hash { return tp.tip.BestPrevHash() }

// LastBlockTime reports the last observed tip-change time, for status
// reporting.
func (tp *TemplateProvider) LastBlockTime() time.Time { return tp.tip.LastBlockTime() }

// Run starts the Connman listener and the dispatcher, and blocks until ctx is
// cancelled or Stop is called.
func (tp *TemplateProvider) Run(ctx context.Context, host string, port uint16) error {
	if err := tp.connman.Start(tp, host, port); err != nil {
		return err
	}

	runCtx, cancel := context.WithCancel(ctx)
	tp.cancel = cancel

	tp.wg.Add(1)
	go func() {
		defer tp.wg.Done()
		tp.runDispatcher(runCtx)
	}()

	<-runCtx.Done()
	tp.Stop()
	return nil
}

// Stop signals shutdown and waits for the dispatcher and all per-client
// workers to return.
func (tp *TemplateProvider) Stop() {
	if !tp.interrupt.CompareAndSwap(false, true) {
		tp.wg.Wait()
		return
	}
	if tp.cancel != nil {
		tp.cancel()
	}
	tp.connman.Interrupt()
	tp.wg.Wait()
	tp.connman.StopThreads()
}

func (tp *TemplateProvider) shuttingDown() bool { return tp.interrupt.Load() }

// runDispatcher implements C5: startup wait, IBD wait, then the main loop of
// spawning per-client workers and periodically pruning the template cache.
func (tp *TemplateProvider) runDispatcher(ctx context.Context) {
	var zero chainhash.Hash
	tip, err := tp.mining.WaitTipChanged(ctx, zero)
	if err != nil {
		log.Printf("sv2: dispatcher: initial WaitTipChanged failed: %v", err)
		return
	}
	if tip == nil {
		// Shutdown raced us before a tip ever appeared.
		return
	}
	tp.tip.Seed(tip.Hash, time.Now())

	if !tp.opts.SkipIBDWait {
		for !tp.shuttingDown() && tp.mining.IsInitialBlockDownload() {
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
		}
	}

	for !tp.shuttingDown() {
		tp.connman.ForEachClient(func(c *Client) {
			if !c.CoinbaseOutputConstraintsReceived() {
				return
			}
			tp.maybeSpawnWorker(ctx, c.ID)
		})

		select {
		case <-ctx.Done():
			return
		case <-time.After(100 * time.Millisecond):
		}

		before := tp.cache.Len()
		tp.cache.Prune(tp.tip.BestPrevHash(), tp.tip.LastBlockTime())
		after := tp.cache.Len()
		tp.opts.Metrics.PruneRun(before - after)
		tp.opts.Metrics.CacheSize(after)
	}
}

// maybeSpawnWorker spawns a worker for clientID unless one already exists.
// Spawning is at-most-once per client id for the life of that client.
func (tp *TemplateProvider) maybeSpawnWorker(ctx context.Context, clientID uint64) {
	tp.workersMu.Lock()
	if _, exists := tp.workers[clientID]; exists {
		tp.workersMu.Unlock()
		return
	}
	tp.workers[clientID] = struct{}{}
	tp.workersMu.Unlock()

	tp.wg.Add(1)
	go func() {
		defer tp.wg.Done()
		tp.runClientWorker(ctx, clientID)
	}()
}

// runClientWorker implements C6: the per-client template lifecycle.
func (tp *TemplateProvider) runClientWorker(ctx context.Context, clientID uint64) {
	feeTimer := NewFeeTimer(tp.opts.FeeCheckInterval)

	var current Template
	var currentPrevHash chainhash.Hash

	for !tp.shuttingDown() && ctx.Err() == nil {
		if current == nil {
			client, ok := tp.connman.GetClientByID(clientID)
			if !ok {
				return
			}
			blockReservedWeight := 2000 + client.CoinbaseTxOutputsSize()*4

			tmpl, err := tp.mining.CreateNewBlock(ctx, BlockCreateOptions{
				UseMempool:          true,
				BlockReservedWeight: blockReservedWeight,
			})
			if err != nil {
				log.Printf("sv2: worker %d: CreateNewBlock failed: %v", clientID, err)
				return
			}

			prevHash := tmpl.BlockHeader().PrevBlock
			if tp.tip.Observe(prevHash, time.Now()) {
				tp.opts.Metrics.TipChanged()
			}

			id := tp.nextID.Add(1)

			client, ok = tp.connman.GetClientByID(clientID)
			if !ok {
				return
			}
			if !SendWork(client, id, tmpl, true) {
				client.MarkDisconnect()
				return
			}
			tp.opts.Metrics.TemplateIssued()
			tp.opts.Metrics.MessageSent(MsgTypeNewTemplate)
			tp.opts.Metrics.MessageSent(MsgTypeSetNewPrevHash)

			feeTimer.Reset()
			tp.cache.Insert(id, tmpl, prevHash)

			current = tmpl
			currentPrevHash = prevHash
			continue
		}

		isTest := tp.opts.IsTest
		checkFees := isTest || feeTimer.Trigger()

		opts := BlockWaitOptions{}
		if checkFees {
			opts.FeeThreshold = tp.opts.FeeDelta
			if isTest {
				opts.Timeout = time.Second
			}
		} else {
			opts.FeeThreshold = MaxMoney
			opts.Timeout = tp.opts.FeeCheckInterval
		}

		next, err := current.WaitNext(ctx, opts)
		if err != nil {
			log.Printf("sv2: worker %d: WaitNext failed: %v", clientID, err)
			return
		}

		if _, ok := tp.connman.GetClientByID(clientID); !ok {
			return
		}

		if next != nil {
			newPrevHash := next.BlockHeader().PrevBlock
			futureTemplate := newPrevHash != currentPrevHash
			if futureTemplate {
				if tp.tip.Observe(newPrevHash, time.Now()) {
					tp.opts.Metrics.TipChanged()
				}
			}

			id := tp.nextID.Add(1)

			client, ok := tp.connman.GetClientByID(clientID)
			if !ok {
				return
			}
			if !SendWork(client, id, next, futureTemplate) {
				client.MarkDisconnect()
				return
			}
			tp.opts.Metrics.TemplateIssued()
			tp.opts.Metrics.MessageSent(MsgTypeNewTemplate)
			if futureTemplate {
				tp.opts.Metrics.MessageSent(MsgTypeSetNewPrevHash)
			}

			feeTimer.Reset()
			tp.cache.Insert(id, next, newPrevHash)

			current = next
			currentPrevHash = newPrevHash
		}

		if isTest {
			time.Sleep(50 * time.Millisecond)
		}
	}
}
