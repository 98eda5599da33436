package protocol

import (
	"fmt"
	"strings"
	"sync/atomic"

	"golang.org/x/text/encoding/charmap"
)

// ItemIDWideVersion is the first Renewal packet version that sends
// item ids as 4 bytes.
const ItemIDWideVersion = 20180704

// Flavor is one of the mutually exclusive protocol variants spoken by
// EAthena-family servers.
type Flavor int

const (
	FlavorMain Flavor = iota
	FlavorRe
	FlavorZero
)

var flavorStrings = map[Flavor]string{
	FlavorMain: "main",
	FlavorRe:   "re",
	FlavorZero: "zero",
}

func (f Flavor) String() string {
	if s, ok := flavorStrings[f]; ok {
		return s
	}
	return "unknown"
}

// MarshalJSON serializes Flavor as a JSON string (e.g. "re").
func (f Flavor) MarshalJSON() ([]byte, error) {
	return []byte(`"` + f.String() + `"`), nil
}

// ParseFlavor maps a config name to a Flavor. "renewal" is accepted for Re.
func ParseFlavor(name string) (Flavor, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "main":
		return FlavorMain, nil
	case "re", "renewal":
		return FlavorRe, nil
	case "zero":
		return FlavorZero, nil
	}
	return FlavorMain, fmt.Errorf("unknown protocol flavor %q", name)
}

// Version is a negotiated protocol version. Only one flavor is active at
// a time, so the per-flavor accessors return zero for the inactive ones.
type Version struct {
	Flavor Flavor `json:"flavor"`
	Number int    `json:"number"`
}

// Main returns the Main packet version, or 0 when another flavor is active.
func (v Version) Main() int {
	if v.Flavor == FlavorMain {
		return v.Number
	}
	return 0
}

// Re returns the Renewal packet version, or 0 when another flavor is active.
func (v Version) Re() int {
	if v.Flavor == FlavorRe {
		return v.Number
	}
	return 0
}

// Zero returns the Zero packet version, or 0 when another flavor is active.
func (v Version) Zero() int {
	if v.Flavor == FlavorZero {
		return v.Number
	}
	return 0
}

// AtLeast reports whether the active version number is >= n, whatever
// the flavor. Handlers gate optional trailing fields with it.
func (v Version) AtLeast(n int) bool {
	return v.Number >= n
}

// ItemIDLen returns the item id wire width implied by v.
func (v Version) ItemIDLen() int {
	if v.Re() >= ItemIDWideVersion {
		return ItemIDWide
	}
	return ItemIDNarrow
}

func (v Version) String() string {
	return fmt.Sprintf("%s/%d", v.Flavor, v.Number)
}

// State is an immutable snapshot of the negotiated protocol parameters.
// A Message captures the State current at framing time.
type State struct {
	ServerType    ServerType `json:"server_type"`
	Version       Version    `json:"version"`
	ServerVersion int        `json:"server_version"`
	ItemIDLen     int        `json:"item_id_len"`
	Encoding      string     `json:"encoding"`

	charset *charmap.Charmap
}

// Charset returns the legacy string charset, or nil for UTF-8.
func (s *State) Charset() *charmap.Charmap {
	return s.charset
}

// Context holds the protocol version state of one client session.
// Readers see a consistent State; writers replace it wholesale.
type Context struct {
	state atomic.Pointer[State]
}

// NewContext creates a Context for the given server type and version.
func NewContext(serverType ServerType, v Version) *Context {
	c := &Context{}
	c.state.Store(&State{
		ServerType: serverType,
		Version:    v,
		ItemIDLen:  v.ItemIDLen(),
	})
	return c
}

// Snapshot returns the current state. The returned value must not be modified.
func (c *Context) Snapshot() *State {
	return c.state.Load()
}

// Update installs a new protocol version and recomputes the item id width.
func (c *Context) Update(v Version) *State {
	next := *c.state.Load()
	next.Version = v
	next.ItemIDLen = v.ItemIDLen()
	c.state.Store(&next)
	return &next
}

// SetServerVersion records the server build number reported during login.
func (c *Context) SetServerVersion(n int) {
	next := *c.state.Load()
	next.ServerVersion = n
	c.state.Store(&next)
}

// SetEncoding selects the charset used to decode fixed-length strings.
// An empty name or "utf-8" means strings are passed through as-is.
func (c *Context) SetEncoding(name string) error {
	cm, err := LookupCharset(name)
	if err != nil {
		return err
	}
	next := *c.state.Load()
	next.Encoding = strings.ToLower(strings.TrimSpace(name))
	next.charset = cm
	c.state.Store(&next)
	return nil
}
