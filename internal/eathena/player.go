package eathena

import (
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

func processPlayerGetExp(env *game.Env, msg *protocol.Message) {
	var g game.ExpGain
	g.Source = msg.ReadBeingID("player id")
	g.Amount = int64(msg.ReadInt32("exp amount"))
	g.Kind = int(msg.ReadInt16("exp type"))
	g.FromQuest = msg.ReadInt16("is from quest") != 0
	env.Player.GainExp(g)
}

// processPlayerGetExp64 is the Zero layout with a 64-bit amount.
func processPlayerGetExp64(env *game.Env, msg *protocol.Message) {
	var g game.ExpGain
	g.Source = msg.ReadBeingID("player id")
	g.Amount = msg.ReadInt64("exp amount")
	g.Kind = int(msg.ReadInt16("exp type"))
	g.FromQuest = msg.ReadInt16("is from quest") != 0
	env.Player.GainExp(g)
}

func processWalkResponse(env *game.Env, msg *protocol.Message) {
	tick := msg.ReadUInt32("tick")
	move := msg.ReadCoordinatePair("move path")
	msg.ReadUInt8("(sx<<4) | (sy&0x0f)")
	env.Player.WalkResponse(tick, move)
}

func processPlayerHeal(env *game.Env, msg *protocol.Message) {
	stat := msg.ReadInt16("var id")
	var amount int
	if msg.Version().AtLeast(versionHeal32) {
		amount = int(msg.ReadInt32("value"))
	} else {
		amount = int(msg.ReadInt16("value"))
	}
	env.Player.Heal(int(stat), amount)
}

func processPlayerInventoryRemove(env *game.Env, msg *protocol.Message) {
	index := int(msg.ReadInt16("index")) - InventoryOffset
	amount := msg.ReadInt16("amount")
	env.Player.InventoryRemove(index, int(amount))
}

func processPlayerEquip(env *game.Env, msg *protocol.Message) {
	index := int(msg.ReadInt16("index")) - InventoryOffset
	wear := msg.ReadInt32("wear location")
	sprite := msg.ReadInt16("sprite")
	result := msg.ReadUInt8("result")
	env.Player.Equip(index, int(wear), int(sprite), result == 0)
}

func processPlayerUnequip(env *game.Env, msg *protocol.Message) {
	index := int(msg.ReadInt16("index")) - InventoryOffset
	wear := msg.ReadInt32("wear location")
	result := msg.ReadUInt8("result")
	env.Player.Unequip(index, int(wear), result == 0)
}

func processMVPItem(env *game.Env, msg *protocol.Message) {
	env.Player.MVPItem(msg.ReadItemID("item id"))
}
