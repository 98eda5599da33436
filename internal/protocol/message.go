package protocol

import (
	"bytes"
	"encoding/binary"

	"github.com/rs/zerolog/log"
)

// Message is a read cursor over exactly one framed message. It borrows
// its bytes from the connection buffer and must not be used after the
// buffer has been skipped past it.
//
// Every ReadX call is bounds-checked against the declared length: a read
// that does not fit returns the zero value, clamps the cursor to the end
// and marks the message short. The label argument only feeds trace
// logging.
type Message struct {
	id         uint16
	data       []byte
	pos        int
	short      bool
	shortReads int
	state      *State
}

// NewMessage creates a Message over data (the complete message including
// its header) with the cursor placed after headerLen bytes.
func NewMessage(id uint16, data []byte, headerLen int, st *State) *Message {
	if st == nil {
		st = &State{ItemIDLen: ItemIDNarrow}
	}
	if headerLen > len(data) {
		headerLen = len(data)
	}
	return &Message{
		id:    id,
		data:  data,
		pos:   headerLen,
		state: st,
	}
}

// ID returns the opcode.
func (m *Message) ID() uint16 { return m.id }

// Length returns the declared length, header included.
func (m *Message) Length() int { return len(m.data) }

// Pos returns the cursor position from the start of the message.
func (m *Message) Pos() int { return m.pos }

// Remaining returns the number of unread bytes.
func (m *Message) Remaining() int { return len(m.data) - m.pos }

// Short reports whether any read ran past the declared length.
func (m *Message) Short() bool { return m.short }

// ShortReads returns how many reads ran past the declared length.
func (m *Message) ShortReads() int { return m.shortReads }

// State returns the protocol state captured when the message was framed.
func (m *Message) State() *State { return m.state }

// Version returns the negotiated protocol version.
func (m *Message) Version() Version { return m.state.Version }

// ServerVersion returns the server build number reported during login.
func (m *Message) ServerVersion() int { return m.state.ServerVersion }

// Raw returns the message bytes. The slice aliases the connection buffer.
func (m *Message) Raw() []byte { return m.data }

func (m *Message) take(n int, label string) ([]byte, bool) {
	if n < 0 || n > len(m.data)-m.pos {
		m.markShort(n, label)
		return nil, false
	}
	b := m.data[m.pos : m.pos+n]
	m.pos += n
	return b, true
}

func (m *Message) markShort(n int, label string) {
	m.shortReads++
	ev := log.Debug()
	if !m.short {
		ev = log.Warn()
	}
	m.short = true
	ev.Str("component", "protocol").
		Uint16("opcode", m.id).
		Str("field", label).
		Int("want", n).
		Int("pos", m.pos).
		Int("length", len(m.data)).
		Msg("short read")
	m.pos = len(m.data)
}

func (m *Message) trace(label string, value interface{}) {
	ev := log.Trace()
	if !ev.Enabled() {
		return
	}
	ev.Str("component", "protocol").
		Uint16("opcode", m.id).
		Str("field", label).
		Interface("value", value).
		Int("pos", m.pos).
		Msg("read")
}

// ReadUInt8 reads one unsigned byte.
func (m *Message) ReadUInt8(label string) uint8 {
	b, ok := m.take(1, label)
	if !ok {
		return 0
	}
	m.trace(label, b[0])
	return b[0]
}

// ReadInt8 reads one signed byte.
func (m *Message) ReadInt8(label string) int8 {
	b, ok := m.take(1, label)
	if !ok {
		return 0
	}
	m.trace(label, int8(b[0]))
	return int8(b[0])
}

// ReadUInt16 reads a little-endian uint16.
func (m *Message) ReadUInt16(label string) uint16 {
	b, ok := m.take(2, label)
	if !ok {
		return 0
	}
	v := binary.LittleEndian.Uint16(b)
	m.trace(label, v)
	return v
}

// ReadInt16 reads a little-endian int16.
func (m *Message) ReadInt16(label string) int16 {
	b, ok := m.take(2, label)
	if !ok {
		return 0
	}
	v := int16(binary.LittleEndian.Uint16(b))
	m.trace(label, v)
	return v
}

// ReadUInt32 reads a little-endian uint32.
func (m *Message) ReadUInt32(label string) uint32 {
	b, ok := m.take(4, label)
	if !ok {
		return 0
	}
	v := binary.LittleEndian.Uint32(b)
	m.trace(label, v)
	return v
}

// ReadInt32 reads a little-endian int32.
func (m *Message) ReadInt32(label string) int32 {
	b, ok := m.take(4, label)
	if !ok {
		return 0
	}
	v := int32(binary.LittleEndian.Uint32(b))
	m.trace(label, v)
	return v
}

// ReadUInt64 reads a little-endian uint64.
func (m *Message) ReadUInt64(label string) uint64 {
	b, ok := m.take(8, label)
	if !ok {
		return 0
	}
	v := binary.LittleEndian.Uint64(b)
	m.trace(label, v)
	return v
}

// ReadInt64 reads a little-endian int64.
func (m *Message) ReadInt64(label string) int64 {
	b, ok := m.take(8, label)
	if !ok {
		return 0
	}
	v := int64(binary.LittleEndian.Uint64(b))
	m.trace(label, v)
	return v
}

// ReadBeingID reads a 4-byte being id.
func (m *Message) ReadBeingID(label string) BeingID {
	b, ok := m.take(4, label)
	if !ok {
		return 0
	}
	v := BeingID(binary.LittleEndian.Uint32(b))
	m.trace(label, v)
	return v
}

// ReadItemID reads an item id whose width (2 or 4 bytes) comes from the
// negotiated protocol state.
func (m *Message) ReadItemID(label string) ItemID {
	if m.state.ItemIDLen == ItemIDWide {
		return ItemID(m.ReadInt32(label))
	}
	return ItemID(m.ReadUInt16(label))
}

// ReadCoordinates reads a packed 3-byte x/y/direction field. An invalid
// server facing is logged and becomes 0.
func (m *Message) ReadCoordinates(label string) Coordinates {
	b, ok := m.take(3, label)
	if !ok {
		return Coordinates{}
	}
	p := DecodePosition([3]byte{b[0], b[1], b[2]})
	dir, valid := FromServerDirection(p.Dir)
	if !valid {
		log.Warn().
			Str("component", "protocol").
			Uint16("opcode", m.id).
			Str("field", label).
			Uint8("direction", p.Dir).
			Msg("invalid direction")
	}
	c := Coordinates{X: p.X, Y: p.Y, Dir: dir}
	m.trace(label, c)
	return c
}

// ReadCoordinatePair reads a packed 5-byte source/destination field.
func (m *Message) ReadCoordinatePair(label string) Move {
	b, ok := m.take(5, label)
	if !ok {
		return Move{}
	}
	mv := DecodeMove([5]byte{b[0], b[1], b[2], b[3], b[4]})
	m.trace(label, mv)
	return mv
}

// ReadString reads a fixed-length string of n bytes and trims it at the
// first NUL. A negative n reads the length as an int16 first.
func (m *Message) ReadString(n int, label string) string {
	if n < 0 {
		n = int(m.ReadInt16(label + " len"))
	}
	b, ok := m.take(n, label)
	if !ok {
		return ""
	}
	if i := bytes.IndexByte(b, 0); i >= 0 {
		b = b[:i]
	}
	s := decodeString(m.state.charset, b)
	m.trace(label, s)
	return s
}

// ReadRawString is ReadString, except that a non-empty part hidden after
// the first NUL is kept and appended after a "|".
func (m *Message) ReadRawString(n int, label string) string {
	if n < 0 {
		n = int(m.ReadInt16(label + " len"))
	}
	b, ok := m.take(n, label)
	if !ok {
		return ""
	}
	i := bytes.IndexByte(b, 0)
	if i < 0 {
		s := decodeString(m.state.charset, b)
		m.trace(label, s)
		return s
	}
	s := decodeString(m.state.charset, b[:i])
	hidden := b[i+1:]
	if j := bytes.IndexByte(hidden, 0); j >= 0 {
		hidden = hidden[:j]
	}
	if len(hidden) > 0 {
		s += "|" + decodeString(m.state.charset, hidden)
	}
	m.trace(label, s)
	return s
}

// ReadRemainingString reads the rest of the message as a string.
func (m *Message) ReadRemainingString(label string) string {
	return m.ReadString(m.Remaining(), label)
}

// ReadBytes returns a copy of the next n bytes.
func (m *Message) ReadBytes(n int, label string) []byte {
	b, ok := m.take(n, label)
	if !ok {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	m.trace(label, n)
	return out
}

// Skip advances the cursor by n bytes.
func (m *Message) Skip(n int, label string) {
	if _, ok := m.take(n, label); ok {
		m.trace(label, n)
	}
}
