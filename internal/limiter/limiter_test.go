package limiter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter() (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Unix(1000, 0)}
	l := New()
	l.now = clock.now
	return l, clock
}

func TestLimitConsumesAndRefills(t *testing.T) {
	l, clock := newTestLimiter()

	if !l.Limit(PacketChat) {
		t.Fatal("first chat not allowed")
	}
	if l.Limit(PacketChat) {
		t.Error("second chat allowed inside the interval")
	}

	clock.advance(100 * time.Millisecond)
	if l.Check(PacketChat) {
		t.Error("Check() allowed chat after 100ms, interval is 150ms")
	}
	clock.advance(51 * time.Millisecond)
	if !l.Check(PacketChat) {
		t.Error("Check() denied chat after 151ms")
	}
	if !l.Limit(PacketChat) {
		t.Error("Limit() denied chat after 151ms")
	}
}

func TestCheckDoesNotConsume(t *testing.T) {
	l, _ := newTestLimiter()
	for i := 0; i < 3; i++ {
		if !l.Check(PacketWhisper) {
			t.Fatalf("Check() #%d = false", i)
		}
	}
	if !l.Limit(PacketWhisper) {
		t.Error("Limit() denied after only checks")
	}
}

func TestTypesAreIndependent(t *testing.T) {
	l, _ := newTestLimiter()
	l.Limit(PacketChat)
	if !l.Limit(PacketEmote) {
		t.Error("emote throttled by chat")
	}
}

func TestZeroIntervalNeverThrottles(t *testing.T) {
	l, _ := newTestLimiter()
	for i := 0; i < 10; i++ {
		if !l.Limit(PacketNpcNext) {
			t.Fatalf("npc_next throttled on call %d", i)
		}
	}
}

func TestDisabledAllowsEverything(t *testing.T) {
	l, _ := newTestLimiter()
	l.SetEnabled(false)
	l.Limit(PacketSit)
	if !l.Limit(PacketSit) {
		t.Error("Limit() throttled while disabled")
	}
}

func TestInvalidType(t *testing.T) {
	l, _ := newTestLimiter()
	if l.Check(PacketType(99)) || l.Limit(PacketType(-1)) {
		t.Error("invalid packet type allowed")
	}
	if err := l.SetTicks(PacketType(99), 1); err == nil {
		t.Error("SetTicks() on invalid type error = nil")
	}
}

func TestLoadMissingWritesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits", "packetlimiter.txt")
	l := New()
	if err := l.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile() error = %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != int(packetTypeCount)+1 {
		t.Fatalf("file has %d lines, want %d", len(lines), packetTypeCount+1)
	}
	if lines[0] != "5" || lines[1] != "15" || lines[12] != "1800" {
		t.Errorf("file = %q", lines)
	}
}

func TestLoadVersionOneSkipsDropAndNpcNext(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packetlimiter.txt")
	content := "1\n20\n21\n22\n23\n24\n25\n26\n27\n28\n29\n30\n31\n32\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	l := New()
	if err := l.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got := l.Ticks(PacketChat); got != 20 {
		t.Errorf("chat = %d, want 20", got)
	}
	if got := l.Ticks(PacketDrop); got != 5 {
		t.Errorf("drop = %d, want default 5", got)
	}
	if got := l.Ticks(PacketNpcNext); got != 0 {
		t.Errorf("npc_next = %d, want default 0", got)
	}
	if got := l.Ticks(PacketWhisper); got != 32 {
		t.Errorf("whisper = %d, want 32", got)
	}

	data, _ := os.ReadFile(path)
	if !strings.HasPrefix(string(data), "5\n20\n") {
		t.Errorf("outdated file not rewritten: %q", data)
	}
}

func TestLoadShortFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "packetlimiter.txt")
	os.WriteFile(path, []byte("5\n40\n"), 0644)

	l := New()
	if err := l.Load(path); err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if l.Ticks(PacketChat) != 40 || l.Ticks(PacketPickup) != 15 {
		t.Errorf("chat = %d pickup = %d", l.Ticks(PacketChat), l.Ticks(PacketPickup))
	}
}

func TestParsePacketType(t *testing.T) {
	for _, pt := range Types() {
		got, err := ParsePacketType(pt.String())
		if err != nil || got != pt {
			t.Errorf("ParsePacketType(%q) = %v, %v", pt.String(), got, err)
		}
	}
	if _, err := ParsePacketType("dance"); err == nil {
		t.Error("ParsePacketType(dance) error = nil")
	}
}
