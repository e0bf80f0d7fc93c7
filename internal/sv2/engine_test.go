package sv2

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
)

// spawningMining hands a worker a single template matching the seeded tip
// and never offers a newer one (WaitNext on the resulting blockTemplate
// always returns nil, nil), so a test can assert on exactly one round of
// messages without racing the worker loop.
type spawningMining struct {
	prevHash chainhash.Hash
}

func (m *spawningMining) WaitTipChanged(ctx context.Context, known chainhash.Hash) (*Tip, error) {
	return &Tip{Hash: m.prevHash}, nil
}

func (m *spawningMining) IsInitialBlockDownload() bool { return false }

func (m *spawningMining) CreateNewBlock(ctx context.Context, opts BlockCreateOptions) (Template, error) {
	return blockTemplate{block: newTestBlock(m.prevHash)}, nil
}

func (m *spawningMining) SubmitSolution(ctx context.Context, tmpl Template, version int32, timestamp uint32, nonce uint32, coinbaseTx *wire.MsgTx) error {
	return nil
}

// testConnman is a minimal in-memory Connman for exercising the dispatcher
// and worker loops without any network I/O.
type testConnman struct {
	mu      sync.Mutex
	clients map[uint64]*Client
}

func newTestConnman() *testConnman {
	return &testConnman{clients: make(map[uint64]*Client)}
}

func (c *testConnman) add(client *Client) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.clients[client.ID] = client
}

func (c *testConnman) Start(handler EventsInterface, host string, port uint16) error { return nil }

func (c *testConnman) ForEachClient(fn func(*Client)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, cl := range c.clients {
		fn(cl)
	}
}

func (c *testConnman) GetClientByID(id uint64) (*Client, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cl, ok := c.clients[id]
	return cl, ok
}

func (c *testConnman) Interrupt()   {}
func (c *testConnman) StopThreads() {}

func TestDispatcherSpawnsWorkerAndSendsInitialTemplate(t *testing.T) {
	var prev chainhash.Hash
	prev[0] = 0x42

	connman := newTestConnman()
	client := NewClient(1)
	client.SetCoinbaseOutputConstraints(0)
	connman.add(client)

	mining := &spawningMining{prevHash: prev}
	tp := New(mining, connman, Options{FeeCheckInterval: time.Hour, IsTest: true, SkipIBDWait: true})

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	tp.runDispatcher(ctx)
	tp.wg.Wait()

	msgs := client.DrainOutbound()
	if len(msgs) < 2 {
		t.Fatalf("expected at least a NewTemplate and a SetNewPrevHash, got %d messages", len(msgs))
	}
	nt, ok := msgs[0].(NewTemplateMsg)
	if !ok {
		t.Fatalf("expected first message to be NewTemplateMsg, got %T", msgs[0])
	}
	if !nt.FutureTemplate {
		t.Fatalf("expected the first template ever sent to a client to be a future template")
	}
	if _, ok := msgs[1].(SetNewPrevHashMsg); !ok {
		t.Fatalf("expected second message to be SetNewPrevHashMsg, got %T", msgs[1])
	}
}
