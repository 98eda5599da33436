// Package dispatch routes framed messages to Recv handlers. A Table is
// built once per server family and protocol version; the Router swaps
// whole tables when the protocol is renegotiated.
package dispatch

import (
	"sort"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// HandlerFunc decodes one message and feeds the result into env.
type HandlerFunc func(env *game.Env, msg *protocol.Message)

// Handler is a registered handler with its diagnostic name.
type Handler struct {
	Name string
	Fn   HandlerFunc
}

// Entry describes one registered opcode.
type Entry struct {
	Opcode uint16 `json:"opcode"`
	Name   string `json:"name"`
	Size   int    `json:"size"`
}

// Table is an immutable-after-build opcode map plus the size table used
// to frame messages for it.
type Table struct {
	Family   protocol.ServerType
	Version  protocol.Version
	sizes    protocol.SizeTable
	handlers map[uint16]Handler
}

// NewTable creates an empty table.
func NewTable(family protocol.ServerType, v protocol.Version, sizes protocol.SizeTable) *Table {
	if sizes == nil {
		sizes = protocol.SizeTable{}
	}
	return &Table{
		Family:   family,
		Version:  v,
		sizes:    sizes,
		handlers: make(map[uint16]Handler),
	}
}

// Register maps op to fn. Registering an opcode twice keeps the last handler.
// Tables must not be modified once handed to a Router.
func (t *Table) Register(op uint16, name string, fn HandlerFunc) {
	t.handlers[op] = Handler{Name: name, Fn: fn}
}

// Lookup returns the handler for op.
func (t *Table) Lookup(op uint16) (Handler, bool) {
	h, ok := t.handlers[op]
	return h, ok
}

// Sizes returns the size table.
func (t *Table) Sizes() protocol.SizeTable {
	return t.sizes
}

// Len returns the number of registered handlers.
func (t *Table) Len() int {
	return len(t.handlers)
}

// Entries lists the registered handlers ordered by opcode, with sizes at
// the given item id width.
func (t *Table) Entries(itemIDLen int) []Entry {
	out := make([]Entry, 0, len(t.handlers))
	for op, h := range t.handlers {
		out = append(out, Entry{
			Opcode: op,
			Name:   h.Name,
			Size:   t.sizes.Size(op, itemIDLen),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Opcode < out[j].Opcode })
	return out
}
