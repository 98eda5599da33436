// Package network implements the byte-stream connection to a game server
// and the consumer loop that frames and dispatches its messages.
package network

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/protocol"
)

// State is the lifecycle state of a Connection.
type State int32

const (
	StateIdle State = iota
	StateConnecting
	StateConnected
	StateError
)

var stateStrings = map[State]string{
	StateIdle:       "idle",
	StateConnecting: "connecting",
	StateConnected:  "connected",
	StateError:      "error",
}

func (s State) String() string {
	if str, ok := stateStrings[s]; ok {
		return str
	}
	return "unknown"
}

// MarshalJSON serializes State as a JSON string (e.g. "connected").
func (s State) MarshalJSON() ([]byte, error) {
	return []byte(`"` + s.String() + `"`), nil
}

// Role is the server a connection talks to.
type Role string

const (
	RoleLogin Role = "login"
	RoleChar  Role = "char"
	RoleMap   Role = "map"
)

// ServerInfo identifies the server to connect to.
type ServerInfo struct {
	Hostname string              `json:"hostname"`
	Port     int                 `json:"port"`
	Type     protocol.ServerType `json:"type"`
	Role     Role                `json:"role"`
}

// Addr returns host:port.
func (s ServerInfo) Addr() string {
	return net.JoinHostPort(s.Hostname, strconv.Itoa(s.Port))
}

// Options tunes connection behaviour.
type Options struct {
	ConnectTimeout    time.Duration
	WriteTimeout      time.Duration
	BufferLimit       int
	BackpressureDelay time.Duration
	NetworkSleep      time.Duration
	ReadChunk         int
}

// DefaultOptions returns the stock connection options.
func DefaultOptions() Options {
	return Options{
		ConnectTimeout:    10 * time.Second,
		WriteTimeout:      100 * time.Millisecond,
		BufferLimit:       930000,
		BackpressureDelay: 100 * time.Millisecond,
		ReadChunk:         64 * 1024,
	}
}

// StateFunc observes state transitions. msg carries the error text for
// StateError.
type StateFunc func(info ServerInfo, state State, msg string)

// Connection owns one TCP socket plus its inbound and outbound buffers.
// A receive goroutine is the only writer of inbound bytes; the consumer
// is the only caller of Skip. A Connection is single-use: reconnecting
// means creating a new one.
type Connection struct {
	opts    Options
	info    ServerInfo
	logger  zerolog.Logger
	onState StateFunc
	dial    func(ctx context.Context, network, addr string) (net.Conn, error)

	state atomic.Int32

	flushMu sync.Mutex

	mu           sync.Mutex
	conn         net.Conn
	in           []byte
	out          []byte
	toSkip       int
	errMsg       string
	started      bool
	connectedAt  time.Time
	lastActivity time.Time

	stopCh   chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

// NewConnection creates an idle Connection for info.
func NewConnection(info ServerInfo, opts Options, onState StateFunc) *Connection {
	def := DefaultOptions()
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = def.ConnectTimeout
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = def.WriteTimeout
	}
	if opts.BufferLimit <= 0 {
		opts.BufferLimit = def.BufferLimit
	}
	if opts.BackpressureDelay <= 0 {
		opts.BackpressureDelay = def.BackpressureDelay
	}
	if opts.ReadChunk <= 0 {
		opts.ReadChunk = def.ReadChunk
	}
	dialer := &net.Dialer{Timeout: opts.ConnectTimeout}
	return &Connection{
		opts:    opts,
		info:    info,
		onState: onState,
		dial:    dialer.DialContext,
		logger: log.With().
			Str("component", "connection").
			Str("role", string(info.Role)).
			Str("server", info.Addr()).
			Logger(),
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Info returns the server this connection targets.
func (c *Connection) Info() ServerInfo { return c.info }

// State returns the current state.
func (c *Connection) State() State { return State(c.state.Load()) }

func (c *Connection) setState(s State, msg string) {
	if State(c.state.Swap(int32(s))) == s {
		return
	}
	c.logger.Debug().Str("state", s.String()).Msg("connection state changed")
	if c.onState != nil {
		c.onState(c.info, s, msg)
	}
}

func (c *Connection) setError(msg string) {
	c.mu.Lock()
	c.errMsg = msg
	c.mu.Unlock()
	c.logger.Error().Msg(msg)
	c.setState(StateError, msg)
}

// Err returns the last error message.
func (c *Connection) Err() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errMsg
}

// Connect dials the server within the connect timeout and starts the
// receive goroutine. A Disconnect while dialing cancels the dial.
func (c *Connection) Connect(ctx context.Context) error {
	if c.info.Hostname == "" {
		c.setError("Empty address given to Network::connect()!")
		return fmt.Errorf("empty hostname")
	}

	c.mu.Lock()
	if c.started {
		c.mu.Unlock()
		return fmt.Errorf("connection to %s already used", c.info.Addr())
	}
	c.started = true
	c.mu.Unlock()

	c.setState(StateConnecting, "")
	c.logger.Info().Msg("connecting")

	dialCtx, cancel := context.WithCancel(ctx)
	go func() {
		select {
		case <-c.stopCh:
			cancel()
		case <-dialCtx.Done():
		}
	}()
	conn, err := c.dial(dialCtx, "tcp", c.info.Addr())
	cancel()
	if err != nil {
		close(c.done)
		if c.stopped() {
			return fmt.Errorf("connection to %s stopped while connecting", c.info.Addr())
		}
		c.setError(fmt.Sprintf("Unable to connect to server %s: %v", c.info.Addr(), err))
		return fmt.Errorf("failed to connect to %s: %w", c.info.Addr(), err)
	}
	if tcp, ok := conn.(*net.TCPConn); ok {
		tcp.SetNoDelay(true)
	}

	// stop reads c.conn under mu after closing stopCh, so either it sees
	// the socket or we see the stop here.
	now := time.Now()
	c.mu.Lock()
	if c.stopped() {
		c.mu.Unlock()
		conn.Close()
		close(c.done)
		return fmt.Errorf("connection to %s stopped while connecting", c.info.Addr())
	}
	c.conn = conn
	c.connectedAt = now
	c.lastActivity = now
	c.mu.Unlock()

	c.setState(StateConnected, "")
	c.logger.Info().Msg("connected")

	go c.receive()
	return nil
}

// receive appends socket bytes to the inbound buffer until the socket
// fails or the connection is stopped.
func (c *Connection) receive() {
	defer close(c.done)

	buf := make([]byte, c.opts.ReadChunk)
	for {
		if c.overLimit() {
			select {
			case <-c.stopCh:
				return
			case <-time.After(c.opts.BackpressureDelay):
				continue
			}
		}

		n, err := c.conn.Read(buf)
		if n > 0 {
			c.feed(buf[:n])
		}
		if err != nil {
			select {
			case <-c.stopCh:
				return
			default:
			}
			if errors.Is(err, io.EOF) {
				c.setError("Connection closed by server")
			} else {
				c.setError(fmt.Sprintf("Error in socket receive: %v", err))
			}
			return
		}
	}
}

func (c *Connection) stopped() bool {
	select {
	case <-c.stopCh:
		return true
	default:
		return false
	}
}

func (c *Connection) overLimit() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.in) > c.opts.BufferLimit
}

func (c *Connection) feed(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.toSkip > 0 {
		if c.toSkip >= len(data) {
			c.toSkip -= len(data)
			return
		}
		data = data[c.toSkip:]
		c.toSkip = 0
	}
	c.in = append(c.in, data...)
	c.lastActivity = time.Now()
}

// Buffered returns the unconsumed inbound bytes. The slice stays valid
// until the bytes it covers are skipped.
func (c *Connection) Buffered() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.in[:len(c.in):len(c.in)]
}

// Skip discards n bytes from the front of the inbound buffer. Skipping
// more than is buffered discards the excess from bytes not yet received.
func (c *Connection) Skip(n int) {
	if n <= 0 {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	if n > len(c.in) {
		c.toSkip += n - len(c.in)
		c.in = nil
		return
	}
	c.in = c.in[n:]
	if len(c.in) == 0 {
		c.in = nil
	}
}

// Send queues data for the next Flush. If the queue grows past the buffer
// limit it is flushed right away, or dropped when not connected.
func (c *Connection) Send(data []byte) {
	c.mu.Lock()
	c.out = append(c.out, data...)
	over := len(c.out) > c.opts.BufferLimit
	c.mu.Unlock()

	if !over {
		return
	}
	if c.State() == StateConnected {
		if err := c.Flush(); err != nil {
			c.logger.Warn().Err(err).Msg("failed to flush oversized send buffer")
		}
		return
	}
	c.mu.Lock()
	dropped := len(c.out)
	c.out = nil
	c.mu.Unlock()
	c.logger.Warn().Int("bytes", dropped).Msg("dropped send buffer while not connected")
}

// Pending returns the number of queued outbound bytes.
func (c *Connection) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.out)
}

// Flush writes queued output. A write that times out keeps the unsent
// tail for the next call. The write runs without holding mu, so Send and
// the receive goroutine are not blocked by a slow socket.
func (c *Connection) Flush() error {
	c.flushMu.Lock()
	defer c.flushMu.Unlock()

	c.mu.Lock()
	if len(c.out) == 0 || c.conn == nil || c.State() != StateConnected {
		c.mu.Unlock()
		return nil
	}
	conn := c.conn
	pending := append([]byte(nil), c.out...)
	c.mu.Unlock()

	conn.SetWriteDeadline(time.Now().Add(c.opts.WriteTimeout))
	n, err := conn.Write(pending)

	// Bytes queued by Send during the write stay behind the written ones.
	c.mu.Lock()
	if n > len(c.out) {
		n = len(c.out)
	}
	c.out = c.out[n:]
	if len(c.out) == 0 {
		c.out = nil
	}
	if n > 0 {
		c.lastActivity = time.Now()
	}
	c.mu.Unlock()

	if err == nil {
		return nil
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		c.logger.Debug().Int("written", n).Msg("send deferred")
		return nil
	}
	c.setError(fmt.Sprintf("Error in socket send: %v", err))
	return fmt.Errorf("failed to write to %s: %w", c.info.Addr(), err)
}

// stop closes the socket and waits for the receive goroutine. It reports
// whether this call did the work.
func (c *Connection) stop() bool {
	first := false
	c.stopOnce.Do(func() {
		first = true
		close(c.stopCh)
		c.mu.Lock()
		conn := c.conn
		started := c.started
		c.mu.Unlock()
		if conn != nil {
			conn.Close()
		}
		if started {
			<-c.done
		}
	})
	return first
}

// Abort tears the connection down and leaves it in the error state.
func (c *Connection) Abort(reason string) {
	c.setError(reason)
	c.stop()
}

// Disconnect stops the receive goroutine and closes the socket. It is
// safe to call more than once; an error state is kept for inspection.
func (c *Connection) Disconnect() {
	if !c.stop() {
		return
	}
	if c.State() != StateError {
		c.setState(StateIdle, "")
	}
	c.logger.Info().Msg("disconnected")
	if c.opts.NetworkSleep > 0 {
		time.Sleep(c.opts.NetworkSleep)
	}
}

// ConnectedAt returns the time the socket was opened.
func (c *Connection) ConnectedAt() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connectedAt
}

// LastActivity returns the time of the last read or write.
func (c *Connection) LastActivity() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastActivity
}
