package tmwa

import (
	"strconv"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// InventoryOffset is added by the server to every inventory index.
const InventoryOffset = 2

// skillEntryLen is the size of one entry in SmsgPlayerSkills.
const skillEntryLen = 37

func processPlayerStatUpdate(env *game.Env, msg *protocol.Message) {
	stat := msg.ReadInt16("type")
	value := msg.ReadInt32("value")
	env.Player.Heal(int(stat), int(value))
}

func processPlayerInventoryRemove(env *game.Env, msg *protocol.Message) {
	index := int(msg.ReadInt16("index")) - InventoryOffset
	amount := msg.ReadInt16("amount")
	env.Player.InventoryRemove(index, int(amount))
}

func processPlayerEquip(env *game.Env, msg *protocol.Message) {
	index := int(msg.ReadInt16("index")) - InventoryOffset
	wear := msg.ReadInt16("wear location")
	ok := msg.ReadUInt8("flag")
	env.Player.Equip(index, int(wear), 0, ok != 0)
}

func processPlayerUnequip(env *game.Env, msg *protocol.Message) {
	index := int(msg.ReadInt16("index")) - InventoryOffset
	wear := msg.ReadInt16("wear location")
	ok := msg.ReadUInt8("flag")
	env.Player.Unequip(index, int(wear), ok != 0)
}

func processMVP(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	env.Notify.Notify("mvp_player", "MVP player "+strconv.FormatUint(uint64(id), 10))
}

func processPlayerSkills(env *game.Env, msg *protocol.Message) {
	count := (msg.Length() - protocol.VarHeaderLen) / skillEntryLen
	skills := make([]game.Skill, 0, count)
	for i := 0; i < count; i++ {
		var s game.Skill
		s.ID = int(msg.ReadInt16("skill id"))
		s.Inf = int(msg.ReadInt16("inf"))
		msg.Skip(2, "skill pool flags")
		s.Level = int(msg.ReadInt16("skill level"))
		s.SP = int(msg.ReadInt16("sp"))
		s.Range = int(msg.ReadInt16("range"))
		msg.Skip(24, "unused")
		s.Upgradable = msg.ReadInt8("up flag") != 0
		skills = append(skills, s)
	}
	env.Skills.SetSkills(skills)
}

func processPlayerSkillUp(env *game.Env, msg *protocol.Message) {
	id := msg.ReadInt16("skill id")
	level := msg.ReadInt16("skill level")
	sp := msg.ReadInt16("sp")
	rng := msg.ReadInt16("range")
	up := msg.ReadInt8("up flag")
	env.Skills.SkillUp(int(id), int(level), int(sp), int(rng), up != 0)
}

func processSkillFailed(env *game.Env, msg *protocol.Message) {
	var f game.SkillFailure
	f.SkillID = int(msg.ReadInt16("skill id"))
	f.BType = protocol.ItemID(msg.ReadInt16("bskill"))
	msg.ReadInt16("btype")
	f.Success = msg.ReadInt8("success") != 0
	f.Reason = int(msg.ReadInt8("reason"))
	env.Skills.SkillFailed(f)
}
