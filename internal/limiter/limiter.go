// Package limiter throttles outbound packets per action type so the
// client never floods servers that kick on bursts.
package limiter

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// PacketType is a throttled outbound action. The numbering is the line
// order of the limits file.
type PacketType int

const (
	PacketChat PacketType = iota
	PacketPickup
	PacketDrop
	PacketNpcNext
	PacketNpcTalk
	PacketNpcInput
	PacketEmote
	PacketSit
	PacketDirection
	PacketAttack
	PacketStopAttack
	PacketOnlineList
	PacketWhisper
	packetTypeCount
)

var packetTypeNames = [...]string{
	"chat", "pickup", "drop", "npc_next", "npc_talk", "npc_input", "emote",
	"sit", "direction", "attack", "stop_attack", "online_list", "whisper",
}

func (p PacketType) String() string {
	if p < 0 || p >= packetTypeCount {
		return "unknown"
	}
	return packetTypeNames[p]
}

// ParsePacketType maps a name such as "whisper" to its PacketType.
func ParsePacketType(name string) (PacketType, error) {
	for i, n := range packetTypeNames {
		if n == name {
			return PacketType(i), nil
		}
	}
	return 0, fmt.Errorf("unknown packet type %q", name)
}

// Types returns every PacketType in file order.
func Types() []PacketType {
	out := make([]PacketType, packetTypeCount)
	for i := range out {
		out[i] = PacketType(i)
	}
	return out
}

// Tick is the unit of the limits file.
const Tick = 10 * time.Millisecond

// FileVersion is written on the first line of the limits file. Older
// files are rewritten after loading.
const FileVersion = 5

// DefaultTicks returns the stock minimum interval per type in ticks.
func DefaultTicks() map[PacketType]int {
	return map[PacketType]int{
		PacketChat:       15,
		PacketPickup:     15,
		PacketDrop:       5,
		PacketNpcNext:    0,
		PacketNpcTalk:    60,
		PacketNpcInput:   100,
		PacketEmote:      15,
		PacketSit:        100,
		PacketDirection:  50,
		PacketAttack:     12,
		PacketStopAttack: 12,
		PacketOnlineList: 1800,
		PacketWhisper:    35,
	}
}

// Limiter allows one packet of each type per configured interval.
// A zero interval never throttles.
type Limiter struct {
	mu       sync.Mutex
	ticks    [packetTypeCount]int
	limiters [packetTypeCount]*rate.Limiter
	enabled  bool
	now      func() time.Time
	logger   zerolog.Logger
}

// New creates a Limiter with the default intervals.
func New() *Limiter {
	l := &Limiter{
		enabled: true,
		now:     time.Now,
		logger:  log.With().Str("component", "limiter").Logger(),
	}
	for t, ticks := range DefaultTicks() {
		l.setLocked(t, ticks)
	}
	return l
}

func newRateLimiter(ticks int) *rate.Limiter {
	if ticks <= 0 {
		return rate.NewLimiter(rate.Inf, 1)
	}
	return rate.NewLimiter(rate.Every(time.Duration(ticks)*Tick), 1)
}

func (l *Limiter) setLocked(t PacketType, ticks int) {
	if ticks < 0 {
		ticks = 0
	}
	l.ticks[t] = ticks
	l.limiters[t] = newRateLimiter(ticks)
}

// SetTicks changes the interval of t and resets its state.
func (l *Limiter) SetTicks(t PacketType, ticks int) error {
	if t < 0 || t >= packetTypeCount {
		return fmt.Errorf("unknown packet type %d", t)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.setLocked(t, ticks)
	return nil
}

// Ticks returns the interval of t in ticks.
func (l *Limiter) Ticks(t PacketType) int {
	if t < 0 || t >= packetTypeCount {
		return 0
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.ticks[t]
}

// SetEnabled turns throttling on or off. While off every packet is allowed.
func (l *Limiter) SetEnabled(on bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.enabled = on
}

// Check reports whether a packet of type t may be sent now, without
// consuming the allowance.
func (l *Limiter) Check(t PacketType) bool {
	if t < 0 || t >= packetTypeCount {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return true
	}
	return l.limiters[t].TokensAt(l.now()) >= 1
}

// Limit reports whether a packet of type t may be sent now and, if so,
// consumes the allowance.
func (l *Limiter) Limit(t PacketType) bool {
	if t < 0 || t >= packetTypeCount {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.enabled {
		return true
	}
	return l.limiters[t].AllowN(l.now(), 1)
}

// Load reads intervals from path. A missing file is created with the
// current values; an outdated one is rewritten after loading.
func (l *Limiter) Load(path string) error {
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		l.logger.Info().Str("path", path).Msg("packet limits file not found, writing defaults")
		return l.Save(path)
	}
	if err != nil {
		return fmt.Errorf("failed to open packet limits file: %w", err)
	}

	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		f.Close()
		return nil
	}
	ver, _ := strconv.Atoi(strings.TrimSpace(scanner.Text()))

	l.mu.Lock()
	for t := PacketType(0); t < packetTypeCount; t++ {
		if !scanner.Scan() {
			break
		}
		if ver == 1 && (t == PacketDrop || t == PacketNpcNext) {
			continue
		}
		ticks, err := strconv.Atoi(strings.TrimSpace(scanner.Text()))
		if err != nil {
			l.logger.Warn().Str("type", t.String()).Str("value", scanner.Text()).Msg("invalid packet limit")
			continue
		}
		l.setLocked(t, ticks)
	}
	l.mu.Unlock()
	f.Close()

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("failed to read packet limits file: %w", err)
	}
	if ver < FileVersion {
		return l.Save(path)
	}
	return nil
}

// Save writes the current intervals to path.
func (l *Limiter) Save(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create packet limits directory: %w", err)
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d\n", FileVersion)
	l.mu.Lock()
	for _, ticks := range l.ticks {
		fmt.Fprintf(&b, "%d\n", ticks)
	}
	l.mu.Unlock()

	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("failed to write packet limits file: %w", err)
	}
	return nil
}
