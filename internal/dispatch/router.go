package dispatch

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// BuildFunc builds the table for one family at a given protocol version.
type BuildFunc func(v protocol.Version) *Table

type tableKey struct {
	family protocol.ServerType
	flavor protocol.Flavor
	number int
}

// Catalog builds and caches tables per family and version.
type Catalog struct {
	mu       sync.Mutex
	builders map[protocol.ServerType]BuildFunc
	tables   map[tableKey]*Table
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		builders: make(map[protocol.ServerType]BuildFunc),
		tables:   make(map[tableKey]*Table),
	}
}

// Register installs the builder for a server family.
func (c *Catalog) Register(family protocol.ServerType, build BuildFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.builders[family] = build
	for k := range c.tables {
		if k.family == family {
			delete(c.tables, k)
		}
	}
}

// Table returns the table for family at version v, building it on first use.
func (c *Catalog) Table(family protocol.ServerType, v protocol.Version) (*Table, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key := tableKey{family: family, flavor: v.Flavor, number: v.Number}
	if t, ok := c.tables[key]; ok {
		return t, nil
	}
	build, ok := c.builders[family]
	if !ok {
		return nil, fmt.Errorf("no dispatch table for server type %s", family)
	}
	t := build(v)
	c.tables[key] = t

	log.Debug().
		Str("component", "dispatch").
		Str("family", family.String()).
		Str("version", v.String()).
		Int("handlers", t.Len()).
		Msg("built dispatch table")
	return t, nil
}

// Router holds the active table.
type Router struct {
	table atomic.Pointer[Table]
}

// NewRouter creates a Router with no active table.
func NewRouter() *Router {
	return &Router{}
}

// Use makes t the active table.
func (r *Router) Use(t *Table) {
	r.table.Store(t)
}

// Table returns the active table, or nil.
func (r *Router) Table() *Table {
	return r.table.Load()
}

// Dispatch runs the handler registered for msg. It reports false when the
// active table has no handler for the opcode. A panicking handler is
// logged and counts as handled.
func (r *Router) Dispatch(env *game.Env, msg *protocol.Message) (handled bool) {
	t := r.table.Load()
	if t == nil {
		return false
	}
	h, ok := t.Lookup(msg.ID())
	if !ok {
		return false
	}

	defer func() {
		if rec := recover(); rec != nil {
			log.Error().
				Str("component", "dispatch").
				Uint16("opcode", msg.ID()).
				Str("handler", h.Name).
				Interface("panic", rec).
				Msg("handler panicked")
			handled = true
		}
	}()
	h.Fn(env, msg)
	return true
}
