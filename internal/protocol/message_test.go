package protocol

import (
	"testing"
)

func fixedMessage(payload ...byte) *Message {
	data := append([]byte{0x01, 0x00}, payload...)
	return NewMessage(0x0001, data, FixedHeaderLen, nil)
}

func TestReadIntegersLittleEndian(t *testing.T) {
	m := fixedMessage(
		0xff,
		0xfe,
		0x34, 0x12,
		0xfe, 0xff,
		0x78, 0x56, 0x34, 0x12,
		0xff, 0xff, 0xff, 0xff,
		0x08, 0x07, 0x06, 0x05, 0x04, 0x03, 0x02, 0x01,
	)
	if v := m.ReadUInt8("u8"); v != 0xff {
		t.Errorf("ReadUInt8() = %d, want 255", v)
	}
	if v := m.ReadInt8("i8"); v != -2 {
		t.Errorf("ReadInt8() = %d, want -2", v)
	}
	if v := m.ReadUInt16("u16"); v != 0x1234 {
		t.Errorf("ReadUInt16() = 0x%x, want 0x1234", v)
	}
	if v := m.ReadInt16("i16"); v != -2 {
		t.Errorf("ReadInt16() = %d, want -2", v)
	}
	if v := m.ReadUInt32("u32"); v != 0x12345678 {
		t.Errorf("ReadUInt32() = 0x%x, want 0x12345678", v)
	}
	if v := m.ReadInt32("i32"); v != -1 {
		t.Errorf("ReadInt32() = %d, want -1", v)
	}
	if v := m.ReadInt64("i64"); v != 0x0102030405060708 {
		t.Errorf("ReadInt64() = 0x%x, want 0x0102030405060708", v)
	}
	if m.Remaining() != 0 || m.Short() {
		t.Errorf("Remaining() = %d Short() = %v, want 0 false", m.Remaining(), m.Short())
	}
}

func TestReadCursorMonotonic(t *testing.T) {
	m := fixedMessage(make([]byte, 20)...)
	reads := []struct {
		name  string
		width int
		read  func()
	}{
		{"u8", 1, func() { m.ReadUInt8("a") }},
		{"u16", 2, func() { m.ReadUInt16("b") }},
		{"u32", 4, func() { m.ReadUInt32("c") }},
		{"coords", 3, func() { m.ReadCoordinates("d") }},
		{"pair", 5, func() { m.ReadCoordinatePair("e") }},
		{"string", 4, func() { m.ReadString(4, "f") }},
		{"u64", 8, func() { m.ReadUInt64("g") }},
		{"u8 past end", 1, func() { m.ReadUInt8("h") }},
	}

	prev := m.Pos()
	for _, r := range reads {
		fits := m.Remaining() >= r.width
		r.read()
		if m.Pos() < prev {
			t.Fatalf("%s: cursor moved backwards %d -> %d", r.name, prev, m.Pos())
		}
		if m.Pos() > m.Length() {
			t.Fatalf("%s: cursor %d past length %d", r.name, m.Pos(), m.Length())
		}
		if fits && m.Pos()-prev != r.width {
			t.Errorf("%s: advanced %d bytes, want %d", r.name, m.Pos()-prev, r.width)
		}
		prev = m.Pos()
	}
	if !m.Short() {
		t.Error("Short() = false after reading past the end")
	}
}

func TestShortReadReturnsZero(t *testing.T) {
	tests := []struct {
		name string
		read func(m *Message) interface{}
		want interface{}
	}{
		{"u8", func(m *Message) interface{} { return m.ReadUInt8("x") }, uint8(0)},
		{"i16", func(m *Message) interface{} { return m.ReadInt16("x") }, int16(0)},
		{"u32", func(m *Message) interface{} { return m.ReadUInt32("x") }, uint32(0)},
		{"i64", func(m *Message) interface{} { return m.ReadInt64("x") }, int64(0)},
		{"being", func(m *Message) interface{} { return m.ReadBeingID("x") }, BeingID(0)},
		{"item", func(m *Message) interface{} { return m.ReadItemID("x") }, ItemID(0)},
		{"coords", func(m *Message) interface{} { return m.ReadCoordinates("x") }, Coordinates{}},
		{"pair", func(m *Message) interface{} { return m.ReadCoordinatePair("x") }, Move{}},
		{"string", func(m *Message) interface{} { return m.ReadString(24, "x") }, ""},
		{"raw string", func(m *Message) interface{} { return m.ReadRawString(24, "x") }, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := fixedMessage(0xaa)
			m.ReadUInt8("first")
			if got := tt.read(m); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
			if !m.Short() {
				t.Error("Short() = false")
			}
			if m.Pos() != m.Length() {
				t.Errorf("Pos() = %d, want clamped to %d", m.Pos(), m.Length())
			}
		})
	}
}

func TestReadCoordinatesConvertsDirection(t *testing.T) {
	tests := []struct {
		raw  uint8
		want Direction
	}{
		{0, DirDown},
		{3, DirUp | DirLeft},
		{5, DirUp | DirRight},
		{8, DirRight},
		{9, 0},
		{15, 0},
	}
	for _, tt := range tests {
		enc := EncodePosition(Position{X: 153, Y: 87, Dir: tt.raw})
		m := fixedMessage(enc[:]...)
		got := m.ReadCoordinates("position")
		want := Coordinates{X: 153, Y: 87, Dir: tt.want}
		if got != want {
			t.Errorf("ReadCoordinates(dir %d) = %+v, want %+v", tt.raw, got, want)
		}
		if m.Short() {
			t.Errorf("dir %d: Short() = true", tt.raw)
		}
	}
}

func TestShortReadCountsEveryRead(t *testing.T) {
	m := fixedMessage(1)
	m.ReadUInt32("a")
	m.ReadUInt32("b")
	m.ReadUInt8("c")
	if m.ShortReads() != 3 {
		t.Errorf("ShortReads() = %d, want 3", m.ShortReads())
	}
}

func TestReadItemIDWidth(t *testing.T) {
	tests := []struct {
		name    string
		version Version
		width   int
		payload []byte
		want    ItemID
	}{
		{"re at threshold", Version{FlavorRe, 20180704}, 4, []byte{0xa0, 0x86, 0x01, 0x00}, 100000},
		{"re above threshold", Version{FlavorRe, 20200101}, 4, []byte{0x01, 0x00, 0x01, 0x00}, 65537},
		{"re below threshold", Version{FlavorRe, 20180703}, 2, []byte{0xf5, 0x01, 0xff, 0xff}, 501},
		{"main new", Version{FlavorMain, 20190000}, 2, []byte{0xf5, 0x01, 0xff, 0xff}, 501},
		{"zero new", Version{FlavorZero, 20190000}, 2, []byte{0xf5, 0x01, 0xff, 0xff}, 501},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			ctx := NewContext(ServerEAthena, Version{})
			st := ctx.Update(tt.version)
			if st.ItemIDLen != tt.width {
				t.Fatalf("ItemIDLen = %d, want %d", st.ItemIDLen, tt.width)
			}
			data := append([]byte{0x01, 0x00}, tt.payload...)
			m := NewMessage(0x0001, data, FixedHeaderLen, ctx.Snapshot())
			if got := m.ReadItemID("item"); got != tt.want {
				t.Errorf("ReadItemID() = %d, want %d", got, tt.want)
			}
			if adv := m.Pos() - FixedHeaderLen; adv != tt.width {
				t.Errorf("cursor advanced %d, want %d", adv, tt.width)
			}
		})
	}
}

func TestReadString(t *testing.T) {
	m := fixedMessage('a', 'b', 0, 'x', 'y', 0, 'c', 'd', 'e')
	if s := m.ReadString(5, "name"); s != "ab" {
		t.Errorf("ReadString() = %q, want %q", s, "ab")
	}
	if m.Pos() != 7 {
		t.Errorf("Pos() = %d, want 7", m.Pos())
	}
	if s := m.ReadRemainingString("rest"); s != "cde" {
		t.Errorf("ReadRemainingString() = %q, want %q", s, "cde")
	}
}

func TestReadStringLengthPrefixed(t *testing.T) {
	m := fixedMessage(3, 0, 'f', 'o', 'o', 'z')
	if s := m.ReadString(-1, "msg"); s != "foo" {
		t.Errorf("ReadString(-1) = %q, want %q", s, "foo")
	}
	if m.Remaining() != 1 {
		t.Errorf("Remaining() = %d, want 1", m.Remaining())
	}
}

func TestReadRawStringHiddenPart(t *testing.T) {
	tests := []struct {
		name    string
		payload []byte
		want    string
	}{
		{"no nul", []byte("hello"), "hello"},
		{"trailing nuls", []byte{'h', 'i', 0, 0, 0}, "hi"},
		{"hidden part", []byte{'h', 'i', 0, 'x', 'y'}, "hi|xy"},
		{"hidden part terminated", []byte{'h', 'i', 0, 'x', 0}, "hi|x"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			m := fixedMessage(tt.payload...)
			if got := m.ReadRawString(len(tt.payload), "chat"); got != tt.want {
				t.Errorf("ReadRawString() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestReadStringCharset(t *testing.T) {
	ctx := NewContext(ServerTmwAthena, Version{})
	if err := ctx.SetEncoding("windows-1252"); err != nil {
		t.Fatalf("SetEncoding() error = %v", err)
	}
	data := []byte{0x01, 0x00, 'c', 'a', 'f', 0xe9}
	m := NewMessage(0x0001, data, FixedHeaderLen, ctx.Snapshot())
	if s := m.ReadString(4, "word"); s != "café" {
		t.Errorf("ReadString() = %q, want %q", s, "café")
	}

	if err := ctx.SetEncoding("ebcdic"); err == nil {
		t.Error("SetEncoding(ebcdic) error = nil, want error")
	}
}

func TestReadBytesCopies(t *testing.T) {
	data := []byte{0x01, 0x00, 1, 2, 3}
	m := NewMessage(0x0001, data, FixedHeaderLen, nil)
	b := m.ReadBytes(3, "blob")
	b[0] = 9
	if data[2] != 1 {
		t.Error("ReadBytes() result aliases the message buffer")
	}
}
