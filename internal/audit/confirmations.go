package audit

import (
	"context"
	"log"
	"time"
)

// confirmationsSource is the node-facing lookup the watcher needs. Satisfied
// by *miningrpc.RPCMining; kept narrow here to avoid an import cycle (audit
// has no business depending on the rest of miningrpc).
type confirmationsSource interface {
	BlockConfirmations(ctx context.Context, blockHash string) (int, error)
}

// ConfirmWatch periodically checks pending submissions against the node and
// updates their confirmation counts and terminal status.
type ConfirmWatch struct {
	store    *Store
	source   confirmationsSource
	required int
	interval time.Duration
}

// NewConfirmWatch builds a watcher that marks a submission confirmed once it
// has at least required confirmations, or orphan once the node reports it
// unknown.
func NewConfirmWatch(store *Store, source confirmationsSource, required int) *ConfirmWatch {
	return &ConfirmWatch{
		store:    store,
		source:   source,
		required: required,
		interval: 30 * time.Second,
	}
}

// Start begins polling in a goroutine; the returned function stops it.
func (w *ConfirmWatch) Start() func() {
	stop := make(chan struct{})
	go func() {
		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				w.checkOnce()
			case <-stop:
				return
			}
		}
	}()
	return func() { close(stop) }
}

func (w *ConfirmWatch) checkOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pending, err := w.store.PendingSubmissions(ctx, 50)
	if err != nil {
		log.Printf("audit: confirm watch: list pending: %v", err)
		return
	}
	for _, p := range pending {
		confs, err := w.source.BlockConfirmations(ctx, p.BlockHash)
		if err != nil {
			continue
		}
		status := p.Status
		switch {
		case confs < 0:
			status = "orphan"
		case confs >= w.required:
			status = "confirmed"
		}
		if status == p.Status && confs == p.Confirmations {
			continue
		}
		if err := w.store.UpdateConfirmations(ctx, p.BlockHash, confs, status); err != nil {
			log.Printf("audit: confirm watch: update %s: %v", p.BlockHash, err)
		}
	}
}
