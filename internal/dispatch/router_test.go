package dispatch

import (
	"testing"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

const (
	opShared   = 0x0100
	opMainOnly = 0x0200
	opZeroOnly = 0x0300
)

type recorder struct {
	calls []string
}

func (r *recorder) handler(name string) HandlerFunc {
	return func(env *game.Env, msg *protocol.Message) {
		r.calls = append(r.calls, name)
	}
}

func testCatalog(rec *recorder) *Catalog {
	c := NewCatalog()
	c.Register(protocol.ServerEAthena, func(v protocol.Version) *Table {
		t := NewTable(protocol.ServerEAthena, v, protocol.SizeTable{
			opShared:   protocol.Fixed(2),
			opMainOnly: protocol.Fixed(2),
			opZeroOnly: protocol.Fixed(2),
		})
		t.Register(opShared, "shared", rec.handler("shared"))
		switch v.Flavor {
		case protocol.FlavorZero:
			t.Register(opZeroOnly, "zero", rec.handler("zero"))
		default:
			t.Register(opMainOnly, "main", rec.handler("main"))
		}
		return t
	})
	return c
}

func msg(op uint16) *protocol.Message {
	return protocol.NewMessage(op, []byte{byte(op), byte(op >> 8)}, protocol.FixedHeaderLen, nil)
}

func TestDispatchExclusivity(t *testing.T) {
	rec := &recorder{}
	cat := testCatalog(rec)
	router := NewRouter()
	env := &game.Env{}

	use := func(v protocol.Version) {
		t.Helper()
		tbl, err := cat.Table(protocol.ServerEAthena, v)
		if err != nil {
			t.Fatalf("Table() error = %v", err)
		}
		router.Use(tbl)
	}

	use(protocol.Version{Flavor: protocol.FlavorMain, Number: 20150000})
	if !router.Dispatch(env, msg(opMainOnly)) {
		t.Error("main handler not dispatched under main")
	}
	if router.Dispatch(env, msg(opZeroOnly)) {
		t.Error("zero-only opcode dispatched under main")
	}

	use(protocol.Version{Flavor: protocol.FlavorZero, Number: 20180000})
	if router.Dispatch(env, msg(opMainOnly)) {
		t.Error("main-only opcode dispatched under zero")
	}
	if !router.Dispatch(env, msg(opZeroOnly)) {
		t.Error("zero handler not dispatched under zero")
	}

	use(protocol.Version{Flavor: protocol.FlavorMain, Number: 20150000})
	if !router.Dispatch(env, msg(opMainOnly)) {
		t.Error("main handler not restored after switching back")
	}
	if !router.Dispatch(env, msg(opShared)) {
		t.Error("shared handler not dispatched")
	}

	want := []string{"main", "zero", "main", "shared"}
	if len(rec.calls) != len(want) {
		t.Fatalf("calls = %v, want %v", rec.calls, want)
	}
	for i := range want {
		if rec.calls[i] != want[i] {
			t.Errorf("call %d = %s, want %s", i, rec.calls[i], want[i])
		}
	}
}

func TestRegisterLastWins(t *testing.T) {
	rec := &recorder{}
	tbl := NewTable(protocol.ServerTmwAthena, protocol.Version{}, nil)
	tbl.Register(opShared, "first", rec.handler("first"))
	tbl.Register(opShared, "second", rec.handler("second"))

	if tbl.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", tbl.Len())
	}
	router := NewRouter()
	router.Use(tbl)
	router.Dispatch(&game.Env{}, msg(opShared))
	if len(rec.calls) != 1 || rec.calls[0] != "second" {
		t.Errorf("calls = %v, want [second]", rec.calls)
	}
}

func TestCatalogCachesTables(t *testing.T) {
	cat := testCatalog(&recorder{})
	v := protocol.Version{Flavor: protocol.FlavorRe, Number: 20180704}
	a, _ := cat.Table(protocol.ServerEAthena, v)
	b, _ := cat.Table(protocol.ServerEAthena, v)
	if a != b {
		t.Error("Table() rebuilt a cached table")
	}
	if _, err := cat.Table(protocol.ServerManaServ, v); err == nil {
		t.Error("Table() for unregistered family error = nil")
	}
}

func TestDispatchRecoversPanic(t *testing.T) {
	tbl := NewTable(protocol.ServerTmwAthena, protocol.Version{}, nil)
	tbl.Register(opShared, "bad", func(env *game.Env, msg *protocol.Message) {
		var s *game.World
		s.Notify("x", "y")
	})
	router := NewRouter()
	router.Use(tbl)
	if !router.Dispatch(&game.Env{}, msg(opShared)) {
		t.Error("Dispatch() = false for a panicking handler")
	}
}

func TestDispatchWithoutTable(t *testing.T) {
	if NewRouter().Dispatch(&game.Env{}, msg(opShared)) {
		t.Error("Dispatch() = true with no table")
	}
}
