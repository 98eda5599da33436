package tmwa

import (
	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

func processBeingChangeDirection(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	msg.ReadInt16("unused")
	raw := msg.ReadUInt8("direction") & 0x0f
	dir, ok := protocol.FromServerDirection(raw)
	if !ok {
		return
	}
	env.Actors.SetDirection(id, dir)
}

func processBeingSelfEffect(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	effect := msg.ReadInt32("effect type")
	env.Actors.SpecialEffect(id, int(effect))
}

func processBeingIPResponse(env *game.Env, msg *protocol.Message) {
	id := msg.ReadBeingID("being id")
	ip := msg.ReadUInt32("ip address")
	env.Actors.BeingIP(id, ip)
}

func processWalkResponse(env *game.Env, msg *protocol.Message) {
	tick := msg.ReadUInt32("tick")
	move := msg.ReadCoordinatePair("move path")
	msg.ReadUInt8("unused")
	env.Player.WalkResponse(tick, move)
}
