package network

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/metrics"
	"github.com/manawire-project/manawire/internal/protocol"
)

// Network is the consumer side of a Connection: it frames buffered bytes
// into messages, dispatches them in arrival order and skips each by its
// declared length.
type Network struct {
	router    *dispatch.Router
	proto     *protocol.Context
	env       *game.Env
	counters  *metrics.Counters
	bus       *events.EventBus
	sessionID string
	logger    zerolog.Logger
}

// NewNetwork creates a Network. bus may be nil.
func NewNetwork(router *dispatch.Router, proto *protocol.Context, env *game.Env,
	counters *metrics.Counters, bus *events.EventBus, sessionID string) *Network {
	if counters == nil {
		counters = metrics.New(nil, "")
	}
	return &Network{
		router:    router,
		proto:     proto,
		env:       env,
		counters:  counters,
		bus:       bus,
		sessionID: sessionID,
		logger:    log.With().Str("component", "network").Str("session", sessionID).Logger(),
	}
}

func (n *Network) emit(t events.EventType, p events.PacketDiagnosticPayload) {
	if n.bus == nil {
		return
	}
	p.SessionID = n.sessionID
	n.bus.Emit(context.Background(), events.Event{
		Type:    t,
		Source:  "network",
		Payload: p,
	})
}

// DispatchMessages handles every complete message buffered on conn and
// returns how many were dispatched. A framing error aborts conn and is
// returned; the stream cannot be realigned after one.
func (n *Network) DispatchMessages(conn *Connection) (int, error) {
	count := 0
	for {
		table := n.router.Table()
		if table == nil {
			return count, nil
		}

		msg, err := protocol.Frame(conn.Buffered(), table.Sizes(), n.proto.Snapshot())
		if err != nil {
			n.framingError(conn, err)
			return count, err
		}
		if msg == nil {
			return count, nil
		}

		n.counters.IncIn(msg.Length())
		start := time.Now()
		if n.router.Dispatch(n.env, msg) {
			n.counters.ObserveDispatch(time.Since(start))
		} else {
			n.counters.Unknown(msg.ID())
			n.logger.Warn().
				Str("opcode", hex(msg.ID())).
				Int("length", msg.Length()).
				Msg("unimplemented packet")
			n.emit(events.EventUnknownPacket, events.PacketDiagnosticPayload{
				Opcode: msg.ID(),
				Length: msg.Length(),
			})
		}
		if msg.Short() {
			n.counters.ShortRead(msg.ID())
			n.emit(events.EventShortRead, events.PacketDiagnosticPayload{
				Opcode:     msg.ID(),
				Length:     msg.Length(),
				ShortReads: msg.ShortReads(),
			})
		}

		conn.Skip(msg.Length())
		count++
	}
}

func (n *Network) framingError(conn *Connection, err error) {
	n.counters.FramingError()
	p := events.PacketDiagnosticPayload{Detail: err.Error()}
	if pe, ok := protocol.IsProtocolError(err); ok {
		p.Opcode = pe.Opcode
		p.Length = pe.Length
	}
	n.logger.Error().Err(err).Msg("framing error, disconnecting")
	n.emit(events.EventFramingError, p)
	conn.Abort("Protocol error: " + err.Error())
}

func hex(op uint16) string {
	return fmt.Sprintf("0x%04x", op)
}
