package protocol

import (
	"encoding/binary"
	"fmt"
)

// SizeEntry describes the wire size of one opcode. ItemIDs counts the
// item id fields in a fixed-size layout; each one adds two bytes when
// item ids are 4 bytes wide.
type SizeEntry struct {
	Size    int
	ItemIDs int
}

// Fixed returns a fixed-size entry.
func Fixed(size int) SizeEntry { return SizeEntry{Size: size} }

// FixedItems returns a fixed-size entry carrying n item id fields, with
// size measured at the narrow item id width.
func FixedItems(size, n int) SizeEntry { return SizeEntry{Size: size, ItemIDs: n} }

// Variable returns a length-prefixed entry.
func Variable() SizeEntry { return SizeEntry{Size: SizeVariable} }

// SizeTable maps opcodes to their wire size.
type SizeTable map[uint16]SizeEntry

// Size returns the total message size for op at the given item id width,
// SizeVariable for length-prefixed messages, or SizeUnknown.
func (t SizeTable) Size(op uint16, itemIDLen int) int {
	e, ok := t[op]
	if !ok {
		return SizeUnknown
	}
	if e.Size <= 0 {
		return e.Size
	}
	if itemIDLen > ItemIDNarrow {
		return e.Size + e.ItemIDs*(itemIDLen-ItemIDNarrow)
	}
	return e.Size
}

// Clone returns a copy of t.
func (t SizeTable) Clone() SizeTable {
	out := make(SizeTable, len(t))
	for op, e := range t {
		out[op] = e
	}
	return out
}

// With returns a copy of t with the entries of overlay applied on top.
func (t SizeTable) With(overlay SizeTable) SizeTable {
	out := t.Clone()
	for op, e := range overlay {
		out[op] = e
	}
	return out
}

// PeekOpcode returns the opcode at the head of buf.
func PeekOpcode(buf []byte) (uint16, bool) {
	if len(buf) < OpcodeSize {
		return 0, false
	}
	return binary.LittleEndian.Uint16(buf), true
}

// Frame extracts the message at the head of buf. It returns (nil, nil)
// when buf holds only part of a message. The returned Message aliases buf.
//
// An opcode without a known size, or a variable length smaller than the
// header, is a *ProtocolError: the stream cannot be realigned after it.
func Frame(buf []byte, sizes SizeTable, st *State) (*Message, error) {
	op, ok := PeekOpcode(buf)
	if !ok {
		return nil, nil
	}
	itemIDLen := ItemIDNarrow
	if st != nil {
		itemIDLen = st.ItemIDLen
	}

	size := sizes.Size(op, itemIDLen)
	switch {
	case size == SizeVariable:
		if len(buf) < VarHeaderLen {
			return nil, nil
		}
		length := int(binary.LittleEndian.Uint16(buf[OpcodeSize:]))
		if length < VarHeaderLen {
			return nil, NewError(ErrCodeFraming, op, length,
				fmt.Sprintf("declared length below header size %d", VarHeaderLen))
		}
		if len(buf) < length {
			return nil, nil
		}
		return NewMessage(op, buf[:length], VarHeaderLen, st), nil

	case size == SizeUnknown:
		return nil, NewError(ErrCodeUnknownSize, op, 0, "no size known for opcode")

	case size < FixedHeaderLen:
		return nil, NewError(ErrCodeFraming, op, size, "size table entry below header size")

	case size > MaxMessageSize:
		return nil, NewError(ErrCodeTooLarge, op, size, "size table entry exceeds maximum")
	}

	if len(buf) < size {
		return nil, nil
	}
	return NewMessage(op, buf[:size], FixedHeaderLen, st), nil
}
