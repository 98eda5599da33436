// Package session owns one client session: the protocol context, the
// dispatch router, the live server connection and the game state the
// Recv handlers feed.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/eathena"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/limiter"
	"github.com/manawire-project/manawire/internal/metrics"
	"github.com/manawire-project/manawire/internal/network"
	"github.com/manawire-project/manawire/internal/protocol"
	"github.com/manawire-project/manawire/internal/tmwa"
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrThrottled    = errors.New("packet throttled")
)

// Session is the central orchestrator of a client: it negotiates the
// protocol, switches between login, char and map servers and runs the
// consumer loop.
type Session struct {
	id     string
	cfg    *config.Config
	bus    *events.EventBus
	logger zerolog.Logger

	proto    *protocol.Context
	catalog  *dispatch.Catalog
	router   *dispatch.Router
	network  *network.Network
	registry *network.ConnectionRegistry
	limiter  *limiter.Limiter
	counters *metrics.Counters
	world    *game.World
	env      *game.Env

	mu        sync.RWMutex
	conn      *network.Connection
	startedAt time.Time
}

// New builds a session from the server section of cfg. bus and reg may
// be nil.
func New(cfg *config.Config, bus *events.EventBus, reg prometheus.Registerer) (*Session, error) {
	server := cfg.GetServer()

	st, err := protocol.ParseServerType(server.Type)
	if err != nil {
		return nil, err
	}
	if st == protocol.ServerManaServ {
		return nil, fmt.Errorf("server type %s is not supported", st)
	}
	flavor, err := protocol.ParseFlavor(server.Flavor)
	if err != nil {
		return nil, err
	}
	if st == protocol.ServerTmwAthena {
		flavor = protocol.FlavorMain
	}
	v := protocol.Version{Flavor: flavor, Number: server.PacketVersion}

	s := &Session{
		id:        uuid.New().String(),
		cfg:       cfg,
		bus:       bus,
		proto:     protocol.NewContext(st, v),
		catalog:   dispatch.NewCatalog(),
		router:    dispatch.NewRouter(),
		registry:  network.NewConnectionRegistry(),
		limiter:   limiter.New(),
		counters:  metrics.New(reg, cfg.Metrics.Namespace),
		startedAt: time.Now(),
	}
	s.logger = log.With().Str("component", "session").Str("session", s.id).Logger()

	if err := s.proto.SetEncoding(server.StringEncoding); err != nil {
		return nil, err
	}

	s.catalog.Register(protocol.ServerTmwAthena, tmwa.Table)
	s.catalog.Register(protocol.ServerEAthena, eathena.Table)

	s.world = game.NewWorld(bus, game.Hooks{
		ServerVersion: s.proto.SetServerVersion,
		Negotiate:     s.UpdateProtocol,
	})
	s.env = game.NewEnv(s.world)
	s.network = network.NewNetwork(s.router, s.proto, s.env, s.counters, bus, s.id)

	s.initLimiter()

	if err := s.useTable(v); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Session) initLimiter() {
	limits := s.cfg.PacketLimits
	s.limiter.SetEnabled(limits.Enabled)
	if !limits.Enabled || limits.File == "" {
		return
	}
	if err := s.limiter.Load(limits.File); err != nil {
		s.logger.Warn().Err(err).Str("path", limits.File).Msg("failed to load packet limits, using defaults")
	}
}

func (s *Session) useTable(v protocol.Version) error {
	table, err := s.catalog.Table(s.proto.Snapshot().ServerType, v)
	if err != nil {
		return err
	}
	s.router.Use(table)
	return nil
}

// UpdateProtocol installs version v and swaps in the matching dispatch
// table. Messages framed after the call use the new sizes and handlers.
// If no table can be built for v the current version stays in effect.
func (s *Session) UpdateProtocol(v protocol.Version) {
	family := s.proto.Snapshot().ServerType
	if family == protocol.ServerTmwAthena {
		v.Flavor = protocol.FlavorMain
	}
	table, err := s.catalog.Table(family, v)
	if err != nil {
		s.logger.Error().Err(err).Str("version", v.String()).Msg("failed to switch dispatch table")
		return
	}
	st := s.proto.Update(v)
	s.router.Use(table)

	s.logger.Info().
		Str("flavor", v.Flavor.String()).
		Int("version", v.Number).
		Int("item_id_len", st.ItemIDLen).
		Msg("protocol negotiated")

	if s.bus != nil {
		s.bus.Emit(context.Background(), events.Event{
			Type:   events.EventProtocolNegotiated,
			Source: "session",
			Payload: events.ProtocolNegotiatedPayload{
				ServerType: st.ServerType.String(),
				Flavor:     v.Flavor.String(),
				Version:    v.Number,
				ItemIDLen:  st.ItemIDLen,
				Handlers:   s.router.Table().Len(),
			},
		})
	}
}

func (s *Session) connectionOptions() network.Options {
	n := s.cfg.GetNetwork()
	return network.Options{
		ConnectTimeout: time.Duration(n.ConnectTimeoutSec) * time.Second,
		WriteTimeout:   time.Duration(n.WriteTimeoutMs) * time.Millisecond,
		BufferLimit:    n.BufferLimit,
		NetworkSleep:   time.Duration(n.NetworkSleepMs) * time.Millisecond,
	}
}

func (s *Session) onState(info network.ServerInfo, state network.State, msg string) {
	if state == network.StateError {
		s.world.Notify("connection_error", msg)
	}
	if s.bus == nil {
		return
	}
	s.bus.Emit(context.Background(), events.Event{
		Type:   events.EventConnectionState,
		Source: "session",
		Payload: events.ConnectionStatePayload{
			Role:  string(info.Role),
			Host:  info.Hostname,
			Port:  info.Port,
			State: state.String(),
			Error: msg,
		},
	})
}

// Connect opens the configured login server.
func (s *Session) Connect(ctx context.Context) error {
	server := s.cfg.GetServer()
	return s.SwitchServer(ctx, network.ServerInfo{
		Hostname: server.Hostname,
		Port:     server.Port,
		Type:     s.proto.Snapshot().ServerType,
		Role:     network.RoleLogin,
	})
}

// SwitchServer closes the current connection and opens a new one to info.
// The protocol context and dispatch table carry over.
func (s *Session) SwitchServer(ctx context.Context, info network.ServerInfo) error {
	s.mu.Lock()
	old := s.conn
	s.conn = nil
	s.mu.Unlock()
	if old != nil {
		s.registry.Unregister(old.Info().Role)
	}

	conn := network.NewConnection(info, s.connectionOptions(), s.onState)
	s.registry.Register(conn)
	if err := conn.Connect(ctx); err != nil {
		s.registry.Unregister(info.Role)
		return err
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	if info.Role == network.RoleLogin {
		s.send(conn, s.serverVersionRequest())
	}
	return nil
}

func (s *Session) serverVersionRequest() []byte {
	st := s.proto.Snapshot()
	if st.ServerType == protocol.ServerEAthena {
		return eathena.ServerVersionRequest(st)
	}
	return tmwa.ServerVersionRequest(st)
}

// Connection returns the live connection, or nil.
func (s *Session) Connection() *network.Connection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conn
}

// Tick dispatches every complete buffered message and flushes queued
// output. It returns the number of messages dispatched.
func (s *Session) Tick() (int, error) {
	conn := s.Connection()
	if conn == nil {
		return 0, nil
	}
	n, err := s.network.DispatchMessages(conn)
	if err != nil {
		return n, err
	}
	return n, conn.Flush()
}

// Run ticks the session every dispatch interval until ctx is cancelled.
func (s *Session) Run(ctx context.Context) error {
	tick := time.Duration(s.cfg.GetNetwork().DispatchTickMs) * time.Millisecond
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	s.logger.Info().Dur("tick", tick).Msg("session loop started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info().Msg("session loop stopped")
			return ctx.Err()
		case <-ticker.C:
			if _, err := s.Tick(); err != nil {
				s.logger.Debug().Err(err).Msg("tick failed")
			}
		}
	}
}

// Disconnect closes every connection.
func (s *Session) Disconnect() {
	s.mu.Lock()
	s.conn = nil
	s.mu.Unlock()
	s.registry.CloseAll()
}

func (s *Session) send(conn *network.Connection, data []byte) {
	conn.Send(data)
	s.counters.IncOut(len(data))
}

// Send queues a prebuilt message on the live connection.
func (s *Session) Send(data []byte) error {
	conn := s.Connection()
	if conn == nil || conn.State() != network.StateConnected {
		return ErrNotConnected
	}
	s.send(conn, data)
	return nil
}

// Say sends text to public chat, subject to the chat packet limit.
func (s *Session) Say(text string) error {
	conn := s.Connection()
	if conn == nil || conn.State() != network.StateConnected {
		return ErrNotConnected
	}
	if !s.limiter.Limit(limiter.PacketChat) {
		return ErrThrottled
	}

	st := s.proto.Snapshot()
	nick := s.cfg.GetServer().CharacterName
	var data []byte
	if st.ServerType == protocol.ServerEAthena {
		data = eathena.ChatMessage(st, nick, text)
	} else {
		data = tmwa.ChatMessage(st, nick, text)
	}
	s.send(conn, data)
	return nil
}

// ConnStatus describes one registered connection.
type ConnStatus struct {
	Role        network.Role  `json:"role"`
	Server      string        `json:"server"`
	State       network.State `json:"state"`
	Error       string        `json:"error,omitempty"`
	ConnectedAt time.Time     `json:"connected_at"`
	Buffered    int           `json:"buffered"`
	Pending     int           `json:"pending"`
}

// Status is a point-in-time summary of the session.
type Status struct {
	ID          string           `json:"id"`
	StartedAt   time.Time        `json:"started_at"`
	Protocol    protocol.State   `json:"protocol"`
	Handlers    int              `json:"handlers"`
	Connections []ConnStatus     `json:"connections"`
	Counters    metrics.Snapshot `json:"counters"`
	World       game.Snapshot    `json:"world"`
}

// Status returns the current session summary including up to chat
// recent chat lines.
func (s *Session) Status(chat int) Status {
	status := Status{
		ID:        s.id,
		StartedAt: s.startedAt,
		Protocol:  *s.proto.Snapshot(),
		Counters:  s.counters.Snapshot(),
		World:     s.world.Snapshot(chat),
	}
	if t := s.router.Table(); t != nil {
		status.Handlers = t.Len()
	}
	for role, conn := range s.registry.GetAll() {
		status.Connections = append(status.Connections, ConnStatus{
			Role:        role,
			Server:      conn.Info().Addr(),
			State:       conn.State(),
			Error:       conn.Err(),
			ConnectedAt: conn.ConnectedAt(),
			Buffered:    len(conn.Buffered()),
			Pending:     conn.Pending(),
		})
	}
	return status
}

// ID returns the session id attached to logs and journal rows.
func (s *Session) ID() string { return s.id }

// StartedAt returns the session creation time.
func (s *Session) StartedAt() time.Time { return s.startedAt }

// World returns the game state fed by the Recv handlers.
func (s *Session) World() *game.World { return s.world }

// Counters returns the packet counters.
func (s *Session) Counters() *metrics.Counters { return s.counters }

// Limiter returns the outbound packet limiter.
func (s *Session) Limiter() *limiter.Limiter { return s.limiter }

// Registry returns the per-role connection registry.
func (s *Session) Registry() *network.ConnectionRegistry { return s.registry }

// Protocol returns the current protocol state.
func (s *Session) Protocol() *protocol.State { return s.proto.Snapshot() }

// Table returns the active dispatch table.
func (s *Session) Table() *dispatch.Table { return s.router.Table() }

// Catalog returns the table catalog for offline inspection.
func (s *Session) Catalog() *dispatch.Catalog { return s.catalog }
