package tmwa

import (
	"github.com/manawire-project/manawire/internal/dispatch"
	"github.com/manawire-project/manawire/internal/protocol"
)

// Table builds the TmwAthena dispatch table. TmwAthena has a single
// layout, so v is only recorded on the table.
func Table(v protocol.Version) *dispatch.Table {
	t := dispatch.NewTable(protocol.ServerTmwAthena, v, Sizes())

	t.Register(SmsgServerVersionResponse, "server version", processServerVersion)
	t.Register(SmsgUpdateHost, "update host", processUpdateHost)
	t.Register(SmsgUpdateHost2, "update host 2", processUpdateHost)
	t.Register(SmsgConnectionProblem, "connection problem", processConnectionProblem)
	t.Register(SmsgServerPing, "server ping", processServerPing)

	t.Register(SmsgBeingChangeDirection, "being change direction", processBeingChangeDirection)
	t.Register(SmsgBeingSelfEffect, "being self effect", processBeingSelfEffect)
	t.Register(SmsgBeingIPResponse, "being ip response", processBeingIPResponse)
	t.Register(SmsgWalkResponse, "walk response", processWalkResponse)

	t.Register(SmsgPlayerStatUpdate1, "player stat update 1", processPlayerStatUpdate)
	t.Register(SmsgPlayerStatUpdate2, "player stat update 2", processPlayerStatUpdate)
	t.Register(SmsgPlayerInventoryRem, "player inventory remove", processPlayerInventoryRemove)
	t.Register(SmsgPlayerEquip, "player equip", processPlayerEquip)
	t.Register(SmsgPlayerUnequip, "player unequip", processPlayerUnequip)
	t.Register(SmsgMVP, "mvp", processMVP)
	t.Register(SmsgPlayerSkills, "player skills", processPlayerSkills)
	t.Register(SmsgPlayerSkillUp, "player skill up", processPlayerSkillUp)
	t.Register(SmsgSkillFailed, "skill failed", processSkillFailed)

	t.Register(SmsgBeingChat, "being chat", processBeingChat)
	t.Register(SmsgPlayerChat, "player chat", processPlayerChat)
	t.Register(SmsgWhisper, "whisper", processWhisper)
	t.Register(SmsgGMChat, "gm chat", processGMChat)
	return t
}
