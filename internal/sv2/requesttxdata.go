package sv2

import (
	"context"
	"log"
	"time"

	"github.com/btcsuite/btcd/wire"
)

// OnRequestTransactionData implements EventsInterface. It answers a client's
// request for a template's full transaction set, or reports why it cannot.
func (tp *TemplateProvider) OnRequestTransactionData(client *Client, msg RequestTransactionDataMsg) {
	tmpl, ok := tp.cache.Lookup(msg.TemplateID)
	if !ok {
		client.Enqueue(RequestTransactionDataErrorMsg{
			TemplateID: msg.TemplateID,
			ErrorCode:  ErrTemplateIDNotFound,
		})
		return
	}

	block := tmpl.Block()
	prevHash := block.Header.PrevBlock
	if prevHash != tp.tip.BestPrevHash() {
		client.Enqueue(RequestTransactionDataErrorMsg{
			TemplateID: msg.TemplateID,
			ErrorCode:  ErrStaleTemplateID,
		})
		return
	}

	client.Enqueue(RequestTransactionDataSuccessMsg{
		TemplateID:          msg.TemplateID,
		WitnessReserveValue: witnessReserveValue(block.Transactions[0]),
		Transactions:        block.Transactions[1:],
	})
}

// witnessReserveValue returns the first witness stack item of a coinbase
// input, or an empty slice if the coinbase carries no witness.
func witnessReserveValue(coinbase *wire.MsgTx) []byte {
	if len(coinbase.TxIn) == 0 || len(coinbase.TxIn[0].Witness) == 0 {
		return []byte{}
	}
	return coinbase.TxIn[0].Witness[0]
}

// OnSubmitSolution implements EventsInterface. It forwards a found solution
// to the Mining interface with no locks held, and is otherwise best-effort:
// an unknown template id is logged and ignored rather than disconnecting the
// client.
func (tp *TemplateProvider) OnSubmitSolution(msg SubmitSolutionMsg) {
	tmpl, ok := tp.cache.Lookup(msg.TemplateID)
	if !ok {
		log.Printf("sv2: submit solution for unknown template id %d", msg.TemplateID)
		return
	}

	if err := tp.mining.SubmitSolution(context.Background(), tmpl, msg.Version, msg.HeaderTimestamp, msg.HeaderNonce, msg.CoinbaseTx); err != nil {
		log.Printf("sv2: submit solution for template id %d failed: %v", msg.TemplateID, err)
		tp.opts.Metrics.SolutionSubmitted(false)
		return
	}
	tp.opts.Metrics.SolutionSubmitted(true)

	if tp.auditFn != nil {
		header := tmpl.BlockHeader()
		header.Version = msg.Version
		header.Timestamp = time.Unix(int64(msg.HeaderTimestamp), 0)
		header.Nonce = msg.HeaderNonce
		blockHash := header.BlockHash()

		// Fire-and-forget: the audit store may be slow or unreachable, but
		// that must never delay this client's reader goroutine or any
		// protocol message that follows.
		go tp.auditFn(msg.TemplateID, tmpl.Height(), blockHash)
	}
}
