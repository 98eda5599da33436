package tmwa

import (
	"encoding/binary"
	"testing"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

type fixture struct {
	world   *game.World
	env     *game.Env
	version int
}

func newFixture() *fixture {
	f := &fixture{}
	f.world = game.NewWorld(nil, game.Hooks{
		ServerVersion: func(v int) { f.version = v },
	})
	f.env = game.NewEnv(f.world)
	return f
}

// deliver frames data with the TmwAthena sizes and runs its handler.
func (f *fixture) deliver(t *testing.T, data []byte) *protocol.Message {
	t.Helper()
	table := Table(protocol.Version{})
	msg, err := protocol.Frame(data, table.Sizes(), nil)
	if err != nil {
		t.Fatalf("Frame() error = %v", err)
	}
	if msg == nil {
		t.Fatalf("Frame() = nil for %d bytes", len(data))
	}
	h, ok := table.Lookup(msg.ID())
	if !ok {
		t.Fatalf("no handler for 0x%04x", msg.ID())
	}
	h.Fn(f.env, msg)
	return msg
}

func varMessage(op uint16, payload []byte) []byte {
	out := make([]byte, 4, 4+len(payload))
	binary.LittleEndian.PutUint16(out, op)
	binary.LittleEndian.PutUint16(out[2:], uint16(4+len(payload)))
	return append(out, payload...)
}

func TestSizesFromPacketLengths(t *testing.T) {
	sizes := Sizes()
	tests := []struct {
		op   uint16
		want int
	}{
		{0x0000, 10},
		{0x0061, 50},
		{SmsgUpdateHost, protocol.SizeVariable},
		{SmsgConnectionProblem, 3},
		{SmsgWalkResponse, 12},
		{SmsgBeingChangeDirection, 9},
		{SmsgPlayerSkillUp, 11},
		{SmsgBeingIPResponse, 10},
		{0x0221, 122},
		{SmsgServerVersionResponse, 10},
		{SmsgUpdateHost2, protocol.SizeVariable},
		{0x0001, protocol.SizeUnknown},
		{0x008f, protocol.SizeUnknown},
	}
	for _, tt := range tests {
		if got := sizes.Size(tt.op, protocol.ItemIDNarrow); got != tt.want {
			t.Errorf("Size(0x%04x) = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestEveryHandlerHasSize(t *testing.T) {
	table := Table(protocol.Version{})
	for _, e := range table.Entries(protocol.ItemIDNarrow) {
		if e.Size == protocol.SizeUnknown {
			t.Errorf("handler %q for 0x%04x has no size", e.Name, e.Opcode)
		}
	}
}

func TestServerVersionEvol(t *testing.T) {
	f := newFixture()
	f.deliver(t, []byte{0x31, 0x75, 0xff, 'E', 'V', 'L', 0x05, 0, 0, 0x0b})

	snap := f.world.Snapshot(0)
	if snap.Options != 5 || snap.ServerVersion != 11 {
		t.Errorf("options = %d server version = %d, want 5 11", snap.Options, snap.ServerVersion)
	}
	if f.version != 11 {
		t.Errorf("hook saw version %d, want 11", f.version)
	}
}

func TestServerVersionLegacy(t *testing.T) {
	f := newFixture()
	msg := f.deliver(t, []byte{0x31, 0x75, 0x03, 0, 0, 0, 0xaa, 0xbb, 0xcc, 0xdd})

	snap := f.world.Snapshot(0)
	if snap.Options != 3 || snap.ServerVersion != 0 {
		t.Errorf("options = %d server version = %d, want 3 0", snap.Options, snap.ServerVersion)
	}
	if msg.Short() || msg.Remaining() != 0 {
		t.Errorf("short = %v remaining = %d", msg.Short(), msg.Remaining())
	}
}

func TestConnectionProblemReasons(t *testing.T) {
	tests := []struct {
		code byte
		want string
	}{
		{0, "Authentication failed."},
		{1, "No servers available."},
		{2, "This account is already logged in."},
		{3, "Speed hack detected."},
		{8, "Duplicated login."},
		{42, "Unknown connection error."},
	}
	for _, tt := range tests {
		f := newFixture()
		f.deliver(t, []byte{0x81, 0x00, tt.code})
		if got := f.world.Snapshot(0).Problem; got != tt.want {
			t.Errorf("code %d: problem = %q, want %q", tt.code, got, tt.want)
		}
	}
}

func TestUpdateHost(t *testing.T) {
	f := newFixture()
	f.deliver(t, varMessage(SmsgUpdateHost, []byte("http://updates.example/\x00")))
	if got := f.world.Snapshot(0).UpdateHost; got != "http://updates.example/" {
		t.Errorf("update host = %q", got)
	}
}

func TestBeingChangeDirection(t *testing.T) {
	f := newFixture()
	// direction 2 (left in server numbering) with junk in the high nibble
	f.deliver(t, []byte{0x9c, 0x00, 0x39, 0x30, 0, 0, 0, 0, 0xf2})

	b, ok := f.world.Being(12345)
	if !ok {
		t.Fatal("being 12345 not tracked")
	}
	if b.Dir != protocol.DirLeft {
		t.Errorf("dir = %d, want %d", b.Dir, protocol.DirLeft)
	}
}

func TestWalkResponse(t *testing.T) {
	f := newFixture()
	move := protocol.Move{SrcX: 10, SrcY: 20, DstX: 11, DstY: 22}
	enc := protocol.EncodeMove(move)
	data := []byte{0x87, 0x00, 0x10, 0x27, 0, 0}
	data = append(data, enc[:]...)
	data = append(data, 0)
	f.deliver(t, data)

	p := f.world.PlayerState()
	if p.Dest != move || p.WalkTick != 10000 {
		t.Errorf("dest = %+v tick = %d", p.Dest, p.WalkTick)
	}
}

func TestPlayerSkills(t *testing.T) {
	f := newFixture()
	entry := func(id, level, rng uint16, up byte) []byte {
		e := make([]byte, skillEntryLen)
		binary.LittleEndian.PutUint16(e[0:], id)
		binary.LittleEndian.PutUint16(e[6:], level)
		binary.LittleEndian.PutUint16(e[10:], rng)
		e[36] = up
		return e
	}
	payload := append(entry(1, 9, 0, 0), entry(340, 2, 5, 1)...)
	f.deliver(t, varMessage(SmsgPlayerSkills, payload))

	s, ok := f.world.Skill(340)
	if !ok || s.Level != 2 || s.Range != 5 || !s.Upgradable {
		t.Errorf("skill 340 = %+v, %v", s, ok)
	}
	if s, _ := f.world.Skill(1); s.Level != 9 {
		t.Errorf("skill 1 level = %d, want 9", s.Level)
	}
}

func TestChatSplitsSender(t *testing.T) {
	f := newFixture()
	being := []byte{0x01, 0x00, 0x00, 0x00}
	f.deliver(t, varMessage(SmsgBeingChat, append(being, []byte("Alice : hello there\x00")...)))
	f.deliver(t, varMessage(SmsgPlayerChat, []byte("Me : hi\x00")))
	f.deliver(t, varMessage(SmsgGMChat, []byte("server restart\x00")))

	nick := make([]byte, 24)
	copy(nick, "Bob")
	f.deliver(t, varMessage(SmsgWhisper, append(nick, []byte("psst\x00")...)))

	chat := f.world.Snapshot(10).RecentChat
	if len(chat) != 4 {
		t.Fatalf("chat lines = %d, want 4", len(chat))
	}
	want := []game.ChatLine{
		{Channel: game.ChannelBeing, From: "Alice", Text: "hello there", BeingID: 1},
		{Channel: game.ChannelPlayer, From: "Me", Text: "hi"},
		{Channel: game.ChannelGM, Text: "server restart"},
		{Channel: game.ChannelWhisper, From: "Bob", Text: "psst"},
	}
	for i := range want {
		if chat[i] != want[i] {
			t.Errorf("chat[%d] = %+v, want %+v", i, chat[i], want[i])
		}
	}
}

func TestEmptyWhisperIgnored(t *testing.T) {
	f := newFixture()
	nick := make([]byte, 24)
	copy(nick, "Bob")
	f.deliver(t, varMessage(SmsgWhisper, nick))
	if n := len(f.world.Snapshot(10).RecentChat); n != 0 {
		t.Errorf("chat lines = %d, want 0", n)
	}
}

func TestTruncatedVariableMessageIsShort(t *testing.T) {
	f := newFixture()
	msg := f.deliver(t, varMessage(SmsgBeingChat, []byte{0x02, 0x00}))
	if !msg.Short() {
		t.Error("being chat without a full id is not short")
	}
	if msg.Pos() != msg.Length() {
		t.Errorf("Pos() = %d, want clamp at %d", msg.Pos(), msg.Length())
	}
}

func TestOutboundMessages(t *testing.T) {
	if got := ServerVersionRequest(nil); len(got) != 2 || binary.LittleEndian.Uint16(got) != CmsgServerVersionRequest {
		t.Errorf("ServerVersionRequest() = %x", got)
	}
	chat := ChatMessage(nil, "Me", "hi")
	if binary.LittleEndian.Uint16(chat) != CmsgChatMessage {
		t.Errorf("opcode = %04x", binary.LittleEndian.Uint16(chat))
	}
	if n := int(binary.LittleEndian.Uint16(chat[2:])); n != len(chat) || n != 4+len("Me : hi")+1 {
		t.Errorf("declared length = %d, len = %d", n, len(chat))
	}
	if chat[len(chat)-1] != 0 {
		t.Error("chat line not NUL terminated")
	}
	if got := ClientPing(nil, 7); len(got) != 6 {
		t.Errorf("ClientPing() = %d bytes, want 6", len(got))
	}
}
