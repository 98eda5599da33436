// Package protocol implements the binary message layer shared by the
// TmwAthena and EAthena server families: framing of the inbound byte
// stream, bounds-checked field reads and outbound message building.
// All multi-byte fields are little-endian on the wire.
package protocol

import (
	"fmt"
	"strings"
)

// Message header layout.
const (
	OpcodeSize     = 2
	LengthSize     = 2
	FixedHeaderLen = OpcodeSize              // [opcode]
	VarHeaderLen   = OpcodeSize + LengthSize // [opcode][length]
	MaxMessageSize = 65535
)

// Size table sentinels.
const (
	SizeUnknown  = 0  // opcode has no known layout
	SizeVariable = -1 // length-prefixed message
)

// Item id widths.
const (
	ItemIDNarrow = 2
	ItemIDWide   = 4
)

// BeingID identifies a game entity (player, monster, NPC) on the wire.
type BeingID uint32

// ItemID identifies an item definition. Its wire width depends on the
// negotiated protocol version.
type ItemID int32

// ServerType identifies a server family.
type ServerType int

const (
	ServerUnknown ServerType = iota
	ServerTmwAthena
	ServerEAthena
	ServerManaServ
)

var serverTypeStrings = map[ServerType]string{
	ServerUnknown:   "unknown",
	ServerTmwAthena: "tmwathena",
	ServerEAthena:   "eathena",
	ServerManaServ:  "manaserv",
}

// String returns the lower-case config name of the server type.
func (t ServerType) String() string {
	if s, ok := serverTypeStrings[t]; ok {
		return s
	}
	return "unknown"
}

// MarshalJSON serializes ServerType as a JSON string (e.g. "eathena").
func (t ServerType) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.String() + `"`), nil
}

// ParseServerType maps a config name to a ServerType. "tmwa" and
// "evol" are accepted aliases.
func ParseServerType(name string) (ServerType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "tmwathena", "tmwa":
		return ServerTmwAthena, nil
	case "eathena", "evol", "hercules":
		return ServerEAthena, nil
	case "manaserv":
		return ServerManaServ, nil
	}
	return ServerUnknown, fmt.Errorf("unknown server type %q", name)
}
