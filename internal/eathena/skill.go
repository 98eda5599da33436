package eathena

import (
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

func processSkillCoolDown(env *game.Env, msg *protocol.Message) {
	id := msg.ReadInt16("skill id")
	duration := msg.ReadInt32("duration")
	env.Skills.Cooldown(int(id), int(duration))
}

func processSkillCoolDownList(env *game.Env, msg *protocol.Message) {
	withTotal := msg.Version().AtLeast(versionCoolDownTotal)
	entry := 6
	if withTotal {
		entry = 10
	}
	count := (msg.Length() - protocol.VarHeaderLen) / entry
	for i := 0; i < count; i++ {
		id := msg.ReadInt16("skill id")
		if withTotal {
			msg.ReadInt32("total")
		}
		duration := msg.ReadInt32("duration")
		env.Skills.Cooldown(int(id), int(duration))
	}
}

// readSkill reads the common part of a skill entry. Servers that report a
// server version also send inf2.
func readSkill(msg *protocol.Message, withInf2 bool) game.Skill {
	var s game.Skill
	s.ID = int(msg.ReadInt16("skill id"))
	s.Inf = int(msg.ReadInt32("inf"))
	if withInf2 {
		s.Inf2 = int(msg.ReadInt32("inf2"))
	}
	s.Level = int(msg.ReadInt16("skill level"))
	s.SP = int(msg.ReadInt16("sp"))
	s.Range = int(msg.ReadInt16("range"))
	s.Name = msg.ReadString(24, "skill name")
	s.Upgradable = msg.ReadUInt8("up flag") != 0
	return s
}

func processPlayerSkills(env *game.Env, msg *protocol.Message) {
	withInf2 := msg.ServerVersion() > 0
	entry := 37
	if withInf2 {
		entry = 41
	}
	count := (msg.Length() - protocol.VarHeaderLen) / entry
	skills := make([]game.Skill, 0, count)
	for i := 0; i < count; i++ {
		skills = append(skills, readSkill(msg, withInf2))
	}
	env.Skills.SetSkills(skills)
}

func processSkillAdd(env *game.Env, msg *protocol.Message) {
	env.Skills.AddSkill(readSkill(msg, false))
}

func processSkillFailed(env *game.Env, msg *protocol.Message) {
	var f game.SkillFailure
	f.SkillID = int(msg.ReadInt16("skill id"))
	f.BType = msg.ReadItemID("btype")
	f.ItemID = msg.ReadItemID("item id")
	f.Success = msg.ReadUInt8("success") != 0
	f.Reason = int(msg.ReadUInt8("reason"))
	env.Skills.SkillFailed(f)
}
