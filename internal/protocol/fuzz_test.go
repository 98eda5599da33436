package protocol

import "testing"

// FuzzMessageReads frames arbitrary input and decodes every message with
// a fixed sequence of reads. Nothing may panic and the cursor must stay
// within the message.
func FuzzMessageReads(f *testing.F) {
	f.Add([]byte{0x0C, 0x02, 0x08, 0x00, 0xDE, 0xAD, 0xBE, 0xEF})
	f.Add([]byte{0x02, 0x00, 1, 2, 3, 4, 5, 6})
	f.Add([]byte{0x0C, 0x02, 0xff, 0xff})
	f.Add([]byte{0x03, 0x00, 0xf5, 0x01})

	f.Fuzz(func(t *testing.T, data []byte) {
		for _, st := range []*State{{ItemIDLen: ItemIDNarrow}, {ItemIDLen: ItemIDWide}} {
			off := 0
			for off < len(data) {
				msg, err := Frame(data[off:], testSizes, st)
				if err != nil || msg == nil {
					break
				}
				msg.ReadUInt8("a")
				msg.ReadItemID("b")
				msg.ReadCoordinatePair("c")
				msg.ReadString(-1, "d")
				msg.ReadRawString(8, "e")
				msg.ReadInt64("f")
				msg.ReadCoordinates("g")
				msg.ReadRemainingString("h")
				if msg.Pos() > msg.Length() {
					t.Fatalf("cursor %d past length %d", msg.Pos(), msg.Length())
				}
				off += msg.Length()
			}
		}
	})
}
