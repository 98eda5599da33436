package eathena

import (
	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/protocol"
)

// Table builds the dispatch table for v. Opcodes whose layout belongs to
// another flavor or packet version keep their size but get no handler, so
// they are skipped as unknown.
func Table(v protocol.Version) *dispatch.Table {
	t := dispatch.NewTable(protocol.ServerEAthena, v, Sizes(v))

	t.Register(SmsgServerVersionResponse, "server version", processServerVersion)
	t.Register(SmsgConnectionProblem, "connection problem", processConnectionProblem)

	t.Register(SmsgBeingChangeDirection, "being change direction", processBeingChangeDirection)
	t.Register(SmsgBeingFakeName, "being fake name", processBeingFakeName)
	t.Register(SmsgMonsterHP, "monster hp", processMonsterHP)
	t.Register(SmsgBeingSpecialEffect, "being special effect", processBeingSpecialEffect)
	if v.AtLeast(versionCastDispose) {
		t.Register(SmsgSkillCasting3, "skill casting", processSkillCasting)
	} else {
		t.Register(SmsgSkillCasting, "skill casting", processSkillCasting)
	}
	if v.AtLeast(versionBeingHP32) {
		t.Register(SmsgBeingHP2, "being hp", processBeingHP)
	} else {
		t.Register(SmsgBeingHP, "being hp", processBeingHP)
	}

	t.Register(SmsgWalkResponse, "walk response", processWalkResponse)
	if v.AtLeast(versionHeal32) {
		t.Register(SmsgPlayerHeal2, "player heal", processPlayerHeal)
	} else {
		t.Register(SmsgPlayerHeal, "player heal", processPlayerHeal)
	}
	if v.Flavor == protocol.FlavorZero {
		t.Register(SmsgPlayerGetExp2, "player get exp", processPlayerGetExp64)
	} else {
		t.Register(SmsgPlayerGetExp, "player get exp", processPlayerGetExp)
	}
	t.Register(SmsgPlayerInventoryRemove, "player inventory remove", processPlayerInventoryRemove)
	t.Register(SmsgPlayerEquip, "player equip", processPlayerEquip)
	t.Register(SmsgPlayerUnequip, "player unequip", processPlayerUnequip)
	t.Register(SmsgMVPItem, "mvp item", processMVPItem)

	t.Register(SmsgSkillCoolDown, "skill cooldown", processSkillCoolDown)
	t.Register(SmsgSkillCoolDownList, "skill cooldown list", processSkillCoolDownList)
	t.Register(SmsgPlayerSkills, "player skills", processPlayerSkills)
	t.Register(SmsgSkillAdd, "skill add", processSkillAdd)
	t.Register(SmsgSkillFailed, "skill failed", processSkillFailed)

	t.Register(SmsgBeingChat, "being chat", processBeingChat)
	t.Register(SmsgPlayerChat, "player chat", processPlayerChat)
	t.Register(SmsgWhisper, "whisper", processWhisper)
	t.Register(SmsgGMChat, "gm chat", processGMChat)
	return t
}
