// Package game defines the collaborators that Recv handlers feed decoded
// values into. Handlers only see these interfaces, bundled in Env.
package game

import (
	"github.com/manawire-project/manawire/internal/protocol"
)

// ChatChannel identifies where a chat line came from.
type ChatChannel string

const (
	ChannelPlayer  ChatChannel = "player"
	ChannelBeing   ChatChannel = "being"
	ChannelWhisper ChatChannel = "whisper"
	ChannelGM      ChatChannel = "gm"
)

// ChatLine is one decoded chat message.
type ChatLine struct {
	Channel ChatChannel
	From    string
	Text    string
	BeingID protocol.BeingID
	Admin   bool
}

// SkillCast describes a skill being cast by one being at another.
type SkillCast struct {
	Source   protocol.BeingID
	Target   protocol.BeingID
	X, Y     int
	SkillID  int
	Property int
	CastTime int
	Dispose  bool
}

// Skill is one entry of the local player's skill list.
type Skill struct {
	ID         int
	Inf        int
	Inf2       int
	Level      int
	SP         int
	Range      int
	Name       string
	Upgradable bool
}

// SkillFailure describes a rejected skill use.
type SkillFailure struct {
	SkillID int
	BType   protocol.ItemID
	ItemID  protocol.ItemID
	Success bool
	Reason  int
}

// ExpGain is experience granted to the local player.
type ExpGain struct {
	Source    protocol.BeingID
	Amount    int64
	Kind      int
	FromQuest bool
}

// ActorSink receives updates about beings other than the local player.
type ActorSink interface {
	SetDirection(id protocol.BeingID, dir protocol.Direction)
	SetPosition(id protocol.BeingID, job int, pos protocol.Coordinates)
	SetHP(id protocol.BeingID, hp, maxHP int)
	SkillCasting(cast SkillCast)
	SpecialEffect(id protocol.BeingID, effect int)
	BeingIP(id protocol.BeingID, ip uint32)
}

// LocalPlayerSink receives updates about the controlled character.
type LocalPlayerSink interface {
	WalkResponse(tick uint32, move protocol.Move)
	Heal(stat, amount int)
	GainExp(gain ExpGain)
	InventoryRemove(index, amount int)
	Equip(index, wear, sprite int, ok bool)
	Unequip(index, wear int, ok bool)
	MVPItem(item protocol.ItemID)
}

// SkillSink stands in for the skill dialog.
type SkillSink interface {
	SetSkills(skills []Skill)
	AddSkill(skill Skill)
	SkillUp(id, level, sp, rng int, upgradable bool)
	SkillFailed(f SkillFailure)
	Cooldown(id int, durationMs int)
}

// ChatSink receives decoded chat lines.
type ChatSink interface {
	Chat(line ChatLine)
}

// Notifier receives user-facing notifications.
type Notifier interface {
	Notify(kind, text string)
}

// LoginSink receives connection handshake results.
type LoginSink interface {
	ServerVersion(options, version int)
	UpdateHost(host string)
	ConnectionProblem(code int, reason string)
	NegotiateProtocol(v protocol.Version)
}

// Env is the capability bundle passed to every handler.
type Env struct {
	Actors ActorSink
	Player LocalPlayerSink
	Skills SkillSink
	Chat   ChatSink
	Notify Notifier
	Login  LoginSink
}

// NewEnv returns an Env backed entirely by w.
func NewEnv(w *World) *Env {
	return &Env{
		Actors: w,
		Player: w,
		Skills: w,
		Chat:   w,
		Notify: w,
		Login:  w,
	}
}
