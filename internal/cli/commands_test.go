package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	"github.com/manawire-project/manawire/internal/config"
	"github.com/manawire-project/manawire/internal/db"
	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/limiter"
	"github.com/manawire-project/manawire/internal/session"
)

type stubJournal struct{}

func (stubJournal) Recent(int, string) ([]db.Entry, error) {
	return []db.Entry{{Kind: "unknown_packet", Opcode: 0x0abc, Length: 6, CreatedAt: time.Now()}}, nil
}

func (stubJournal) TopUnknown(int) ([]db.OpcodeCount, error) {
	return []db.OpcodeCount{{Opcode: 0x0abc, Count: 12, Last: time.Now()}}, nil
}

func newTestCLI(t *testing.T, input string) (*CLI, *bytes.Buffer) {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.PacketLimits.File = ""
	sess, err := session.New(cfg, nil, nil)
	if err != nil {
		t.Fatalf("session.New() error = %v", err)
	}
	var out bytes.Buffer
	return NewCLI(cfg, nil, sess, stubJournal{}, strings.NewReader(input), &out), &out
}

func run(t *testing.T, input string) string {
	t.Helper()
	c, out := newTestCLI(t, input)
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	c.Start(ctx)
	return out.String()
}

func TestCommands(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"help\n", []string{"limits [type n]", "disconnect"}},
		{"status\n", []string{"tmwathena", "No connections"}},
		{"counters\n", []string{"DIRECTION", "Framing errors: 0"}},
		{"protocol\n", []string{"OPCODE", "0x7531"}},
		{"limits\n", []string{"whisper", "TICKS"}},
		{"journal 5\n", []string{"unknown_packet", "0x0abc"}},
		{"unknown\n", []string{"0x0abc", "12"}},
		{"say hello\n", []string{"Error: not connected"}},
		{"bogus\n", []string{"Unknown command: 'bogus'"}},
	}
	for _, tt := range tests {
		got := run(t, tt.input)
		for _, w := range tt.want {
			if !strings.Contains(got, w) {
				t.Errorf("%q output missing %q:\n%s", strings.TrimSpace(tt.input), w, got)
			}
		}
	}
}

func TestSetLimit(t *testing.T) {
	c, out := newTestCLI(t, "")
	if err := c.execute(context.Background(), "limits", []string{"emote", "300"}); err != nil {
		t.Fatalf("limits error = %v", err)
	}
	typ, _ := limiter.ParsePacketType("emote")
	if got := c.session.Limiter().Ticks(typ); got != 300 {
		t.Errorf("emote ticks = %d, want 300", got)
	}
	if !strings.Contains(out.String(), "emote = 300") {
		t.Errorf("output = %q", out.String())
	}

	if err := c.execute(context.Background(), "limits", []string{"emote"}); err == nil {
		t.Error("limits with one argument error = nil")
	}
	if err := c.execute(context.Background(), "limits", []string{"warp", "1"}); err == nil {
		t.Error("limits with unknown type error = nil")
	}
}

func TestQuitEmitsShutdown(t *testing.T) {
	c, _ := newTestCLI(t, "")
	bus := events.NewEventBus()
	defer bus.Stop()
	c.eventBus = bus

	got := make(chan struct{}, 1)
	bus.Subscribe(events.EventShutdown, "test", func(context.Context, events.Event) error {
		got <- struct{}{}
		return nil
	})

	c.execute(context.Background(), "quit", nil)
	select {
	case <-got:
	case <-time.After(2 * time.Second):
		t.Fatal("shutdown event not emitted")
	}
}

func TestFormatSize(t *testing.T) {
	for size, want := range map[int]string{-1: "var", 0: "?", 26: "26"} {
		if got := FormatSize(size); got != want {
			t.Errorf("FormatSize(%d) = %q, want %q", size, got, want)
		}
	}
	var buf bytes.Buffer
	RenderHandlers(&buf, []dispatch.Entry{{Opcode: 0x0081, Name: "connection problem", Size: 3}})
	if !strings.Contains(buf.String(), "0x0081") {
		t.Errorf("RenderHandlers output = %q", buf.String())
	}
}
