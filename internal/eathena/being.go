package eathena

import (
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

func processBeingChangeDirection(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	msg.ReadInt16("head direction")
	dir, ok := protocol.FromServerDirection(msg.ReadUInt8("player direction") & 0x0f)
	if !ok {
		return
	}
	env.Actors.SetDirection(id, dir)
}

func processBeingFakeName(env *game.Env, msg *protocol.Message) {
	if msg.Version().AtLeast(versionFakeNameType) {
		msg.ReadUInt8("object type")
	}
	id := msg.ReadBeingID("npc id")
	msg.Skip(8, "unused")
	job := msg.ReadInt16("class")
	msg.Skip(30, "unused")
	pos := msg.ReadCoordinates("position")
	msg.ReadUInt8("sx")
	msg.ReadUInt8("sy")
	msg.Skip(3, "unused")
	env.Actors.SetPosition(id, int(job), pos)
}

func processSkillCasting(env *game.Env, msg *protocol.Message) {
	var c game.SkillCast
	c.Source = msg.ReadBeingID("src id")
	c.Target = msg.ReadBeingID("dst id")
	c.X = int(msg.ReadInt16("dst x"))
	c.Y = int(msg.ReadInt16("dst y"))
	c.SkillID = int(msg.ReadInt16("skill id"))
	c.Property = int(msg.ReadInt32("property"))
	c.CastTime = int(msg.ReadInt32("cast time"))
	if msg.Version().AtLeast(versionCastDispose) {
		c.Dispose = msg.ReadInt8("disposable") != 0
	}
	env.Actors.SkillCasting(c)
}

func processBeingHP(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	var hp, maxHP int
	if msg.Version().AtLeast(versionBeingHP32) {
		hp = int(msg.ReadInt32("hp"))
		maxHP = int(msg.ReadInt32("max hp"))
	} else {
		hp = int(msg.ReadInt16("hp"))
		maxHP = int(msg.ReadInt16("max hp"))
	}
	env.Actors.SetHP(id, hp, maxHP)
}

func processMonsterHP(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("monster id")
	hp := msg.ReadInt32("hp")
	maxHP := msg.ReadInt32("max hp")
	env.Actors.SetHP(id, int(hp), int(maxHP))
}

func processBeingSpecialEffect(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	effect := msg.ReadInt32("effect type")
	env.Actors.SpecialEffect(id, int(effect))
}
