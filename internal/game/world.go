package game

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/manawire-project/manawire/internal/events"
	"github.com/manawire-project/manawire/internal/protocol"
)

const chatHistory = 100

// Being is the tracked state of a remote being.
type Being struct {
	ID     protocol.BeingID   `json:"id"`
	Job    int                `json:"job,omitempty"`
	X      int                `json:"x"`
	Y      int                `json:"y"`
	Dir    protocol.Direction `json:"dir"`
	HP     int                `json:"hp"`
	MaxHP  int                `json:"max_hp"`
	Effect int                `json:"effect"`
	IP     uint32             `json:"ip,omitempty"`
}

// Player is the tracked state of the local character.
type Player struct {
	Dest     protocol.Move   `json:"dest"`
	WalkTick uint32          `json:"walk_tick"`
	Exp      int64           `json:"exp"`
	Equipped map[int]int     `json:"equipped"`
	LastHeal int             `json:"last_heal"`
	LastMVP  protocol.ItemID `json:"last_mvp,omitempty"`
	Removed  int             `json:"removed_items"`
}

// Hooks connects login-time results back to the session.
type Hooks struct {
	ServerVersion func(version int)
	Negotiate     func(v protocol.Version)
}

// World is an in-memory game state that implements every sink. It logs
// each update and republishes user-visible ones on the event bus.
type World struct {
	mu        sync.RWMutex
	bus       *events.EventBus
	hooks     Hooks
	logger    zerolog.Logger
	beings    map[protocol.BeingID]*Being
	player    Player
	skills    map[int]Skill
	cooldowns map[int]int
	chat      []ChatLine
	failures  []SkillFailure

	options       int
	serverVersion int
	updateHost    string
	problem       string
}

// NewWorld creates a World. bus may be nil.
func NewWorld(bus *events.EventBus, hooks Hooks) *World {
	return &World{
		bus:       bus,
		hooks:     hooks,
		logger:    log.With().Str("component", "world").Logger(),
		beings:    make(map[protocol.BeingID]*Being),
		player:    Player{Equipped: make(map[int]int)},
		skills:    make(map[int]Skill),
		cooldowns: make(map[int]int),
	}
}

func (w *World) emit(t events.EventType, payload interface{}) {
	if w.bus == nil {
		return
	}
	w.bus.Emit(context.Background(), events.Event{
		Type:    t,
		Source:  "world",
		Payload: payload,
	})
}

func (w *World) being(id protocol.BeingID) *Being {
	b, ok := w.beings[id]
	if !ok {
		b = &Being{ID: id}
		w.beings[id] = b
	}
	return b
}

// SetDirection implements ActorSink.
func (w *World) SetDirection(id protocol.BeingID, dir protocol.Direction) {
	w.mu.Lock()
	w.being(id).Dir = dir
	w.mu.Unlock()
	w.logger.Debug().Uint32("being", uint32(id)).Uint8("dir", uint8(dir)).Msg("being direction")
}

// SetPosition implements ActorSink.
func (w *World) SetPosition(id protocol.BeingID, job int, pos protocol.Coordinates) {
	w.mu.Lock()
	b := w.being(id)
	b.Job = job
	b.X, b.Y = int(pos.X), int(pos.Y)
	b.Dir = pos.Dir
	w.mu.Unlock()
	w.logger.Debug().
		Uint32("being", uint32(id)).
		Int("job", job).
		Uint16("x", pos.X).
		Uint16("y", pos.Y).
		Uint8("dir", uint8(pos.Dir)).
		Msg("being position")
}

// SetHP implements ActorSink.
func (w *World) SetHP(id protocol.BeingID, hp, maxHP int) {
	w.mu.Lock()
	b := w.being(id)
	b.HP, b.MaxHP = hp, maxHP
	w.mu.Unlock()
	w.logger.Debug().Uint32("being", uint32(id)).Int("hp", hp).Int("max_hp", maxHP).Msg("being hp")
}

// SkillCasting implements ActorSink.
func (w *World) SkillCasting(c SkillCast) {
	w.logger.Debug().
		Uint32("source", uint32(c.Source)).
		Uint32("target", uint32(c.Target)).
		Int("skill", c.SkillID).
		Int("cast_ms", c.CastTime).
		Msg("skill casting")
}

// SpecialEffect implements ActorSink.
func (w *World) SpecialEffect(id protocol.BeingID, effect int) {
	w.mu.Lock()
	w.being(id).Effect = effect
	w.mu.Unlock()
	w.logger.Debug().Uint32("being", uint32(id)).Int("effect", effect).Msg("special effect")
}

// BeingIP implements ActorSink.
func (w *World) BeingIP(id protocol.BeingID, ip uint32) {
	w.mu.Lock()
	w.being(id).IP = ip
	w.mu.Unlock()
}

// WalkResponse implements LocalPlayerSink.
func (w *World) WalkResponse(tick uint32, move protocol.Move) {
	w.mu.Lock()
	w.player.Dest = move
	w.player.WalkTick = tick
	w.mu.Unlock()
	w.logger.Debug().
		Uint16("src_x", move.SrcX).Uint16("src_y", move.SrcY).
		Uint16("dst_x", move.DstX).Uint16("dst_y", move.DstY).
		Msg("walk response")
}

// Heal implements LocalPlayerSink.
func (w *World) Heal(stat, amount int) {
	w.mu.Lock()
	w.player.LastHeal = amount
	w.mu.Unlock()
	w.logger.Debug().Int("stat", stat).Int("amount", amount).Msg("player heal")
}

// GainExp implements LocalPlayerSink.
func (w *World) GainExp(g ExpGain) {
	w.mu.Lock()
	w.player.Exp += g.Amount
	w.mu.Unlock()
	w.logger.Debug().Int64("exp", g.Amount).Int("kind", g.Kind).Bool("quest", g.FromQuest).Msg("exp gained")
}

// InventoryRemove implements LocalPlayerSink.
func (w *World) InventoryRemove(index, amount int) {
	w.mu.Lock()
	w.player.Removed += amount
	w.mu.Unlock()
	w.logger.Debug().Int("index", index).Int("amount", amount).Msg("inventory remove")
}

// Equip implements LocalPlayerSink.
func (w *World) Equip(index, wear, sprite int, ok bool) {
	if !ok {
		w.Notify("equip_failed", "Unable to equip.")
		return
	}
	w.mu.Lock()
	w.player.Equipped[wear] = index
	w.mu.Unlock()
}

// Unequip implements LocalPlayerSink.
func (w *World) Unequip(index, wear int, ok bool) {
	if !ok {
		w.Notify("unequip_failed", "Unable to unequip.")
		return
	}
	w.mu.Lock()
	delete(w.player.Equipped, wear)
	w.mu.Unlock()
}

// MVPItem implements LocalPlayerSink.
func (w *World) MVPItem(item protocol.ItemID) {
	w.mu.Lock()
	w.player.LastMVP = item
	w.mu.Unlock()
	w.Notify("mvp_item", fmt.Sprintf("You got MVP item %d.", item))
}

// SetSkills implements SkillSink.
func (w *World) SetSkills(skills []Skill) {
	w.mu.Lock()
	w.skills = make(map[int]Skill, len(skills))
	for _, s := range skills {
		w.skills[s.ID] = s
	}
	w.mu.Unlock()
	w.logger.Debug().Int("count", len(skills)).Msg("skill list")
}

// AddSkill implements SkillSink.
func (w *World) AddSkill(s Skill) {
	w.mu.Lock()
	w.skills[s.ID] = s
	w.mu.Unlock()
}

// SkillUp implements SkillSink.
func (w *World) SkillUp(id, level, sp, rng int, upgradable bool) {
	w.mu.Lock()
	s := w.skills[id]
	s.ID, s.Level, s.SP, s.Range, s.Upgradable = id, level, sp, rng, upgradable
	w.skills[id] = s
	w.mu.Unlock()
}

// SkillFailed implements SkillSink.
func (w *World) SkillFailed(f SkillFailure) {
	w.mu.Lock()
	w.failures = append(w.failures, f)
	w.mu.Unlock()
	w.logger.Debug().Int("skill", f.SkillID).Int("reason", f.Reason).Msg("skill failed")
	if txt := SkillFailureText(f); txt != "" {
		w.Notify("skill_failed", txt)
	}
}

// Cooldown implements SkillSink.
func (w *World) Cooldown(id int, durationMs int) {
	w.mu.Lock()
	w.cooldowns[id] = durationMs
	w.mu.Unlock()
}

// Chat implements ChatSink.
func (w *World) Chat(line ChatLine) {
	w.mu.Lock()
	w.chat = append(w.chat, line)
	if len(w.chat) > chatHistory {
		w.chat = w.chat[len(w.chat)-chatHistory:]
	}
	w.mu.Unlock()

	w.logger.Info().Str("channel", string(line.Channel)).Str("from", line.From).Msg(line.Text)
	w.emit(events.EventChat, events.ChatPayload{
		Channel: string(line.Channel),
		From:    line.From,
		Text:    line.Text,
	})
}

// Notify implements Notifier.
func (w *World) Notify(kind, text string) {
	w.logger.Info().Str("kind", kind).Msg(text)
	w.emit(events.EventNotify, events.NotifyPayload{Kind: kind, Text: text, Level: "info"})
}

// ServerVersion implements LoginSink.
func (w *World) ServerVersion(options, version int) {
	w.mu.Lock()
	w.options, w.serverVersion = options, version
	w.mu.Unlock()

	w.logger.Info().Int("options", options).Int("server_version", version).Msg("server version")
	if w.hooks.ServerVersion != nil {
		w.hooks.ServerVersion(version)
	}
	w.emit(events.EventServerVersion, events.ServerVersionPayload{Options: options, ServerVersion: version})
}

// UpdateHost implements LoginSink.
func (w *World) UpdateHost(host string) {
	w.mu.Lock()
	w.updateHost = host
	w.mu.Unlock()
	w.logger.Info().Str("host", host).Msg("update host")
	w.emit(events.EventUpdateHost, events.UpdateHostPayload{Host: host})
}

// ConnectionProblem implements LoginSink.
func (w *World) ConnectionProblem(code int, reason string) {
	w.mu.Lock()
	w.problem = reason
	w.mu.Unlock()
	w.logger.Warn().Int("code", code).Msg(reason)
	w.emit(events.EventConnectionProblem, events.ConnectionProblemPayload{Code: code, Reason: reason})
}

// NegotiateProtocol implements LoginSink.
func (w *World) NegotiateProtocol(v protocol.Version) {
	w.logger.Info().Str("version", v.String()).Msg("server announced protocol version")
	if w.hooks.Negotiate != nil {
		w.hooks.Negotiate(v)
	}
}

// Snapshot is a read-only summary of the world for status displays.
type Snapshot struct {
	Beings        int        `json:"beings"`
	Skills        int        `json:"skills"`
	Exp           int64      `json:"exp"`
	Options       int        `json:"options"`
	ServerVersion int        `json:"server_version"`
	UpdateHost    string     `json:"update_host,omitempty"`
	Problem       string     `json:"problem,omitempty"`
	RecentChat    []ChatLine `json:"recent_chat"`
}

// Snapshot returns a copy of the summary state. At most n chat lines are included.
func (w *World) Snapshot(n int) Snapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()

	chat := w.chat
	if n >= 0 && len(chat) > n {
		chat = chat[len(chat)-n:]
	}
	return Snapshot{
		Beings:        len(w.beings),
		Skills:        len(w.skills),
		Exp:           w.player.Exp,
		Options:       w.options,
		ServerVersion: w.serverVersion,
		UpdateHost:    w.updateHost,
		Problem:       w.problem,
		RecentChat:    append([]ChatLine(nil), chat...),
	}
}

// Being returns a copy of a tracked being.
func (w *World) Being(id protocol.BeingID) (Being, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	b, ok := w.beings[id]
	if !ok {
		return Being{}, false
	}
	return *b, true
}

// Skill returns a tracked skill.
func (w *World) Skill(id int) (Skill, bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	s, ok := w.skills[id]
	return s, ok
}

// PlayerState returns a copy of the local player state.
func (w *World) PlayerState() Player {
	w.mu.RLock()
	defer w.mu.RUnlock()
	p := w.player
	p.Equipped = make(map[int]int, len(w.player.Equipped))
	for k, v := range w.player.Equipped {
		p.Equipped[k] = v
	}
	return p
}

// Cooldowns returns a copy of the skill cooldowns in milliseconds.
func (w *World) Cooldowns() map[int]int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	out := make(map[int]int, len(w.cooldowns))
	for k, v := range w.cooldowns {
		out[k] = v
	}
	return out
}

// SkillFailures returns the recorded skill failures.
func (w *World) SkillFailures() []SkillFailure {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return append([]SkillFailure(nil), w.failures...)
}
