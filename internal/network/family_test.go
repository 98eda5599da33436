package network

import (
	"encoding/binary"
	"testing"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/eathena"
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/metrics"
	"github.com/manawire-project/manawire/internal/protocol"
	"github.com/manawire-project/manawire/internal/tmwa"
)

// fixedPacket returns an n-byte message of op with the payload starting at
// offset 2 and the rest zeroed.
func fixedPacket(op uint16, n int, payload ...byte) []byte {
	out := make([]byte, n)
	binary.LittleEndian.PutUint16(out, op)
	copy(out[2:], payload)
	return out
}

type familyRun struct {
	conn     *Connection
	net      *Network
	world    *game.World
	counters *metrics.Counters
}

func newFamilyRun(t *testing.T, family protocol.ServerType, v protocol.Version, table *dispatch.Table) *familyRun {
	t.Helper()
	r := &familyRun{world: game.NewWorld(nil, game.Hooks{})}

	router := dispatch.NewRouter()
	router.Use(table)

	r.counters = metrics.New(prometheus.NewRegistry(), "test")
	proto := protocol.NewContext(family, v)
	r.net = NewNetwork(router, proto, game.NewEnv(r.world), r.counters, nil, "test-session")
	r.conn = NewConnection(ServerInfo{Hostname: "127.0.0.1", Port: 1}, Options{}, nil)
	return r
}

// turn is a 0x009c being direction change to server facing 6 (right).
var turn = fixedPacket(0x009c, 9, 0x07, 0, 0, 0, 0, 0, 6)

func TestEAthenaTableSkipsUnhandledTraffic(t *testing.T) {
	tests := []struct {
		name      string
		v         protocol.Version
		unhandled [][]byte
	}{
		{
			name: "re skips zero exp",
			v:    protocol.Version{Flavor: protocol.FlavorRe, Number: 20180704},
			unhandled: [][]byte{
				fixedPacket(0x0080, 7, 1, 0, 0, 0, 1),
				fixedPacket(eathena.SmsgPlayerGetExp2, 18),
				fixedPacket(eathena.SmsgSkillCasting, 24),
			},
		},
		{
			name: "zero skips int32 exp",
			v:    protocol.Version{Flavor: protocol.FlavorZero, Number: 20181114},
			unhandled: [][]byte{
				fixedPacket(eathena.SmsgPlayerGetExp, 14),
				fixedPacket(eathena.SmsgBeingHP, 10),
				fixedPacket(0x0a36, 7),
			},
		},
		{
			name: "main old skips newer layouts",
			v:    protocol.Version{Flavor: protocol.FlavorMain, Number: 20080910},
			unhandled: [][]byte{
				fixedPacket(eathena.SmsgPlayerHeal2, 8),
				fixedPacket(eathena.SmsgSkillCasting3, 25),
				fixedPacket(eathena.SmsgBeingHP2, 14),
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			r := newFamilyRun(t, protocol.ServerEAthena, tt.v, eathena.Table(tt.v))
			for _, data := range tt.unhandled {
				r.conn.feed(data)
			}
			r.conn.feed(turn)

			n, err := r.net.DispatchMessages(r.conn)
			if err != nil {
				t.Fatalf("DispatchMessages() error = %v", err)
			}
			if want := len(tt.unhandled) + 1; n != want {
				t.Errorf("dispatched %d messages, want %d", n, want)
			}
			if r.conn.State() == StateError {
				t.Errorf("connection aborted: %s", r.conn.Err())
			}
			s := r.counters.Snapshot()
			if s.Unknown != int64(len(tt.unhandled)) || s.FramingErrors != 0 {
				t.Errorf("Unknown = %d FramingErrors = %d, want %d, 0", s.Unknown, s.FramingErrors, len(tt.unhandled))
			}
			if b, ok := r.world.Being(7); !ok || b.Dir != protocol.DirRight {
				t.Errorf("message after skipped traffic not handled: %+v, %v", b, ok)
			}
			if left := len(r.conn.Buffered()); left != 0 {
				t.Errorf("buffer holds %d bytes, want 0", left)
			}
		})
	}
}

func TestTmwAthenaTableSkipsUnhandledTraffic(t *testing.T) {
	v := protocol.Version{Flavor: protocol.FlavorMain}
	r := newFamilyRun(t, protocol.ServerTmwAthena, v, tmwa.Table(v))

	unhandled := [][]byte{
		fixedPacket(0x0080, 7, 1, 0, 0, 0, 1),
		fixedPacket(0x0078, 54),
		{0x09, 0x01, 0x06, 0x00, 0xaa, 0xbb},
	}
	for _, data := range unhandled {
		r.conn.feed(data)
	}
	r.conn.feed(turn)

	n, err := r.net.DispatchMessages(r.conn)
	if err != nil {
		t.Fatalf("DispatchMessages() error = %v", err)
	}
	if n != len(unhandled)+1 {
		t.Errorf("dispatched %d messages, want %d", n, len(unhandled)+1)
	}
	if s := r.counters.Snapshot(); s.Unknown != int64(len(unhandled)) || s.FramingErrors != 0 {
		t.Errorf("Unknown = %d FramingErrors = %d, want %d, 0", s.Unknown, s.FramingErrors, len(unhandled))
	}
	if b, ok := r.world.Being(7); !ok || b.Dir != protocol.DirRight {
		t.Errorf("message after skipped traffic not handled: %+v, %v", b, ok)
	}
}
