package sv2

import (
	"bufio"
	"crypto/tls"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"sv2tpd/internal/metrics"
)

// TCPConnman is a concrete Connman implementation: a TLS-optional TCP accept
// loop with one reader and one writer goroutine per connection. Framing is a
// 4-byte big-endian length prefix followed by a JSON-encoded envelope; this
// stands in for the real Noise-encrypted binary framing the Stratum v2
// transport specifies, which is explicitly out of scope for this engine.
// Swapping in a real Noise transport means replacing only readFrame /
// writeFrame below, not anything in engine.go.
type TCPConnman struct {
	tlsCertPath string
	tlsKeyPath  string
	metrics     metrics.Recorder

	listener net.Listener

	mu       sync.Mutex
	shutting bool

	wg sync.WaitGroup

	nextClientID atomic.Uint64

	clientsMu sync.RWMutex
	clients   map[uint64]*connmanClient
}

type connmanClient struct {
	*Client
	conn    net.Conn
	writeMu sync.Mutex
}

// NewTCPConnman constructs a TCPConnman. TLS is enabled when both paths are
// non-empty. rec may be nil, in which case metrics.NoopRecorder is used.
func NewTCPConnman(tlsCertPath, tlsKeyPath string, rec metrics.Recorder) *TCPConnman {
	if rec == nil {
		rec = metrics.NoopRecorder{}
	}
	return &TCPConnman{
		tlsCertPath: tlsCertPath,
		tlsKeyPath:  tlsKeyPath,
		metrics:     rec,
		clients:     make(map[uint64]*connmanClient),
	}
}

// Start begins listening and accepting connections. Each accepted connection
// is handshaken (trivially, since framing here is plaintext JSON) and
// registered before its reader/writer goroutines start.
func (cm *TCPConnman) Start(handler EventsInterface, host string, port uint16) error {
	addr := fmt.Sprintf("%s:%d", host, port)

	var ln net.Listener
	var err error
	if cm.tlsCertPath != "" && cm.tlsKeyPath != "" {
		cert, certErr := tls.LoadX509KeyPair(cm.tlsCertPath, cm.tlsKeyPath)
		if certErr != nil {
			return fmt.Errorf("load tls keys: %w", certErr)
		}
		ln, err = tls.Listen("tcp", addr, &tls.Config{Certificates: []tls.Certificate{cert}})
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		log.Printf("sv2: connman listening on %s (TLS)", addr)
	} else {
		ln, err = net.Listen("tcp", addr)
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		log.Printf("sv2: connman listening on %s (no TLS)", addr)
	}

	cm.mu.Lock()
	cm.listener = ln
	cm.shutting = false
	cm.mu.Unlock()

	cm.wg.Add(1)
	go cm.acceptLoop(handler)
	return nil
}

func (cm *TCPConnman) acceptLoop(handler EventsInterface) {
	defer cm.wg.Done()
	for {
		conn, err := cm.listener.Accept()
		if err != nil {
			if cm.isShutting() {
				return
			}
			log.Printf("sv2: accept error: %v", err)
			continue
		}
		cm.wg.Add(1)
		go func(c net.Conn) {
			defer cm.wg.Done()
			cm.handleConn(handler, c)
		}(conn)
	}
}

func (cm *TCPConnman) isShutting() bool {
	cm.mu.Lock()
	defer cm.mu.Unlock()
	return cm.shutting
}

func (cm *TCPConnman) handleConn(handler EventsInterface, conn net.Conn) {
	defer conn.Close()

	id := cm.nextClientID.Add(1)
	cc := &connmanClient{Client: NewClient(id), conn: conn}

	cm.clientsMu.Lock()
	cm.clients[id] = cc
	cm.clientsMu.Unlock()
	cm.metrics.ClientConnected()

	defer func() {
		cm.clientsMu.Lock()
		delete(cm.clients, id)
		cm.clientsMu.Unlock()
		cm.metrics.ClientDisconnected()
	}()

	done := make(chan struct{})
	var writerWG sync.WaitGroup
	writerWG.Add(1)
	go func() {
		defer writerWG.Done()
		cm.writeLoop(cc, done)
	}()

	cm.readLoop(handler, cc)
	close(done)
	writerWG.Wait()
}

func (cm *TCPConnman) readLoop(handler EventsInterface, cc *connmanClient) {
	r := bufio.NewReader(cc.conn)
	for {
		env, err := readFrame(r)
		if err != nil {
			if err != io.EOF {
				log.Printf("sv2: client %d: read error: %v", cc.ID, err)
			}
			return
		}
		cm.dispatch(handler, cc, env)
	}
}

func (cm *TCPConnman) writeLoop(cc *connmanClient, done <-chan struct{}) {
	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			msgs := cc.DrainOutbound()
			for _, m := range msgs {
				if err := writeFrame(cc, m); err != nil {
					log.Printf("sv2: client %d: write error: %v", cc.ID, err)
					cc.MarkDisconnect()
					_ = cc.conn.Close()
					return
				}
			}
			if cc.Disconnecting() {
				_ = cc.conn.Close()
				return
			}
		}
	}
}

// frameEnvelope is the JSON wire shape for a single message, carrying enough
// of a type tag to route decoding without a shared schema registry.
type frameEnvelope struct {
	Type    uint8           `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func readFrame(r *bufio.Reader) (frameEnvelope, error) {
	var lenBuf [4]byte
	if _, err := io.ReadFull(r, lenBuf[:]); err != nil {
		return frameEnvelope{}, err
	}
	n := binary.BigEndian.Uint32(lenBuf[:])
	buf := make([]byte, n)
	if _, err := io.ReadFull(r, buf); err != nil {
		return frameEnvelope{}, err
	}
	var env frameEnvelope
	if err := json.Unmarshal(buf, &env); err != nil {
		return frameEnvelope{}, fmt.Errorf("decode frame: %w", err)
	}
	return env, nil
}

func writeFrame(cc *connmanClient, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}
	env := frameEnvelope{Type: msg.Type(), Payload: payload}
	buf, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("encode frame: %w", err)
	}

	cc.writeMu.Lock()
	defer cc.writeMu.Unlock()

	var lenBuf [4]byte
	binary.BigEndian.PutUint32(lenBuf[:], uint32(len(buf)))
	if _, err := cc.conn.Write(lenBuf[:]); err != nil {
		return err
	}
	_, err = cc.conn.Write(buf)
	return err
}

func (cm *TCPConnman) dispatch(handler EventsInterface, cc *connmanClient, env frameEnvelope) {
	switch env.Type {
	case MsgTypeCoinbaseOutputConstraints:
		var m CoinbaseOutputConstraintsMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			log.Printf("sv2: client %d: bad CoinbaseOutputConstraints: %v", cc.ID, err)
			return
		}
		cc.SetCoinbaseOutputConstraints(m.CoinbaseOutputMaxAdditionalSize)
	case MsgTypeRequestTransactionData:
		var m RequestTransactionDataMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			log.Printf("sv2: client %d: bad RequestTransactionData: %v", cc.ID, err)
			return
		}
		handler.OnRequestTransactionData(cc.Client, m)
	case MsgTypeSubmitSolution:
		var m SubmitSolutionMsg
		if err := json.Unmarshal(env.Payload, &m); err != nil {
			log.Printf("sv2: client %d: bad SubmitSolution: %v", cc.ID, err)
			return
		}
		handler.OnSubmitSolution(m)
	default:
		log.Printf("sv2: client %d: unexpected message type 0x%02x", cc.ID, env.Type)
	}
}

// ForEachClient iterates the currently connected clients under a read lock.
func (cm *TCPConnman) ForEachClient(fn func(*Client)) {
	cm.clientsMu.RLock()
	defer cm.clientsMu.RUnlock()
	for _, cc := range cm.clients {
		fn(cc.Client)
	}
}

// GetClientByID looks up a client by id under the client table lock.
func (cm *TCPConnman) GetClientByID(id uint64) (*Client, bool) {
	cm.clientsMu.RLock()
	defer cm.clientsMu.RUnlock()
	cc, ok := cm.clients[id]
	if !ok {
		return nil, false
	}
	return cc.Client, true
}

// Interrupt marks the listener as shutting down and closes it, unblocking
// the accept loop.
func (cm *TCPConnman) Interrupt() {
	cm.mu.Lock()
	cm.shutting = true
	if cm.listener != nil {
		_ = cm.listener.Close()
	}
	cm.mu.Unlock()
}

// StopThreads waits for the accept loop and all connection handlers to
// return.
func (cm *TCPConnman) StopThreads() {
	cm.wg.Wait()
}
