package sv2

import "sync"

// Client is the subset of connection state the engine needs. Connman
// implementations own the rest (transport, handshake state, read/write
// goroutines); this struct is the contract between Connman and the engine.
type Client struct {
	ID uint64

	mu sync.Mutex

	// CoinbaseOutputConstraintsReceived is set once the client has sent its
	// CoinbaseOutputConstraints message. The dispatcher only spawns a worker
	// for clients where this is true.
	coinbaseOutputConstraintsReceived bool
	// CoinbaseTxOutputsSize is the additional coinbase output byte budget
	// the client asked for.
	coinbaseTxOutputsSize uint32

	disconnectFlag bool
	sendMessages   []Message
}

// NewClient constructs a Client with the given id. Connman implementations
// call this when a connection completes its handshake.
func NewClient(id uint64) *Client {
	return &Client{ID: id}
}

// SetCoinbaseOutputConstraints records a received CoinbaseOutputConstraints
// message. Called by Connman's message-routing code, under the client mutex.
func (c *Client) SetCoinbaseOutputConstraints(outputsSize uint32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.coinbaseOutputConstraintsReceived = true
	c.coinbaseTxOutputsSize = outputsSize
}

// CoinbaseOutputConstraintsReceived reports whether the client has declared
// its coinbase output constraints yet.
func (c *Client) CoinbaseOutputConstraintsReceived() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coinbaseOutputConstraintsReceived
}

// CoinbaseTxOutputsSize returns the additional coinbase output size the
// client requested.
func (c *Client) CoinbaseTxOutputsSize() uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.coinbaseTxOutputsSize
}

// Enqueue appends a message to the client's outbound queue. It never fails
// from the caller's point of view (the contract reserves a bool return on
// SendWork for a future optimistic-send implementation, not for this call).
func (c *Client) Enqueue(msg Message) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sendMessages = append(c.sendMessages, msg)
}

// DrainOutbound removes and returns all currently queued messages. Called by
// Connman's writer goroutine.
func (c *Client) DrainOutbound() []Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.sendMessages) == 0 {
		return nil
	}
	out := c.sendMessages
	c.sendMessages = nil
	return out
}

// MarkDisconnect flags the client as a disconnect candidate. Connman closes
// the underlying socket once queued messages have drained.
func (c *Client) MarkDisconnect() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.disconnectFlag = true
}

// Disconnecting reports whether the client has been marked for disconnect.
func (c *Client) Disconnecting() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.disconnectFlag
}

// EventsInterface receives parsed Template Distribution messages from a
// Connman implementation. RequestTransactionData and SubmitSolution are the
// only two a client can send that this core must react to.
type EventsInterface interface {
	OnRequestTransactionData(client *Client, msg RequestTransactionDataMsg)
	OnSubmitSolution(msg SubmitSolutionMsg)
}

// Connman is the contract the engine relies on for transport: accepting
// connections, tracking clients, and delivering their outbound queues. The
// Noise handshake, framing and encryption live entirely inside an
// implementation of this interface; the engine never touches bytes.
type Connman interface {
	Start(handler EventsInterface, host string, port uint16) error
	ForEachClient(fn func(*Client))
	GetClientByID(id uint64) (*Client, bool)
	Interrupt()
	StopThreads()
}
