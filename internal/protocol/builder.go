package protocol

import (
	"encoding/binary"
	"fmt"
)

// MessageOut builds one outbound message. Variable-size messages reserve
// the length field on creation and have it patched by Build.
type MessageOut struct {
	id       uint16
	buf      []byte
	variable bool
	state    *State
}

// NewMessageOut starts a fixed-size message.
func NewMessageOut(id uint16, st *State) *MessageOut {
	return newMessageOut(id, st, false)
}

// NewVarMessageOut starts a length-prefixed message.
func NewVarMessageOut(id uint16, st *State) *MessageOut {
	return newMessageOut(id, st, true)
}

func newMessageOut(id uint16, st *State, variable bool) *MessageOut {
	if st == nil {
		st = &State{ItemIDLen: ItemIDNarrow}
	}
	b := &MessageOut{
		id:       id,
		buf:      make([]byte, 0, 32),
		variable: variable,
		state:    st,
	}
	b.buf = binary.LittleEndian.AppendUint16(b.buf, id)
	if variable {
		b.buf = append(b.buf, 0, 0)
	}
	return b
}

// ID returns the opcode.
func (b *MessageOut) ID() uint16 { return b.id }

// Len returns the current size of the message, header included.
func (b *MessageOut) Len() int { return len(b.buf) }

// WriteUInt8 writes a single byte.
func (b *MessageOut) WriteUInt8(v uint8) *MessageOut {
	b.buf = append(b.buf, v)
	return b
}

// WriteInt8 writes a signed byte.
func (b *MessageOut) WriteInt8(v int8) *MessageOut {
	b.buf = append(b.buf, byte(v))
	return b
}

// WriteUInt16 writes a uint16 in little-endian order.
func (b *MessageOut) WriteUInt16(v uint16) *MessageOut {
	b.buf = binary.LittleEndian.AppendUint16(b.buf, v)
	return b
}

// WriteInt16 writes an int16 in little-endian order.
func (b *MessageOut) WriteInt16(v int16) *MessageOut {
	return b.WriteUInt16(uint16(v))
}

// WriteUInt32 writes a uint32 in little-endian order.
func (b *MessageOut) WriteUInt32(v uint32) *MessageOut {
	b.buf = binary.LittleEndian.AppendUint32(b.buf, v)
	return b
}

// WriteInt32 writes an int32 in little-endian order.
func (b *MessageOut) WriteInt32(v int32) *MessageOut {
	return b.WriteUInt32(uint32(v))
}

// WriteInt64 writes an int64 in little-endian order.
func (b *MessageOut) WriteInt64(v int64) *MessageOut {
	b.buf = binary.LittleEndian.AppendUint64(b.buf, uint64(v))
	return b
}

// WriteBeingID writes a 4-byte being id.
func (b *MessageOut) WriteBeingID(id BeingID) *MessageOut {
	return b.WriteUInt32(uint32(id))
}

// WriteItemID writes an item id at the negotiated width.
func (b *MessageOut) WriteItemID(id ItemID) *MessageOut {
	if b.state.ItemIDLen == ItemIDWide {
		return b.WriteInt32(int32(id))
	}
	return b.WriteUInt16(uint16(id))
}

// WriteCoordinates writes a packed 3-byte position.
func (b *MessageOut) WriteCoordinates(p Position) *MessageOut {
	enc := EncodePosition(p)
	b.buf = append(b.buf, enc[:]...)
	return b
}

// WriteString writes s into exactly n bytes, truncating or padding with
// NULs. A negative n writes an int16 length followed by the bytes of s.
func (b *MessageOut) WriteString(s string, n int) *MessageOut {
	data := encodeString(b.state.charset, s)
	if n < 0 {
		b.WriteInt16(int16(len(data)))
		b.buf = append(b.buf, data...)
		return b
	}
	if len(data) > n {
		data = data[:n]
	}
	b.buf = append(b.buf, data...)
	for i := len(data); i < n; i++ {
		b.buf = append(b.buf, 0)
	}
	return b
}

// WriteBytes writes raw bytes.
func (b *MessageOut) WriteBytes(data []byte) *MessageOut {
	b.buf = append(b.buf, data...)
	return b
}

// Build returns the finished message bytes.
func (b *MessageOut) Build() []byte {
	if b.variable {
		binary.LittleEndian.PutUint16(b.buf[OpcodeSize:], uint16(len(b.buf)))
	}
	return b.buf
}

// String returns a hex dump of the message for debugging.
func (b *MessageOut) String() string {
	return fmt.Sprintf("MessageOut[0x%04x %d bytes]: %x", b.id, len(b.buf), b.buf)
}
