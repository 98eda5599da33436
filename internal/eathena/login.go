package eathena

import (
	"bytes"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// processServerVersion handles 0x7531. Evol/Hercules servers send the
// marker followed by a server version int32 and, when the server knows
// it, the packet version and flavor to switch to. Anything else is a
// plain options word.
func processServerVersion(env *game.Env, msg *protocol.Message) {
	raw := msg.Raw()
	hdr := protocol.VarHeaderLen
	if len(raw) < hdr+len(evolMarker) || !bytes.Equal(raw[hdr:hdr+len(evolMarker)], evolMarker[:]) {
		options := msg.ReadInt32("options")
		env.Login.ServerVersion(int(options), 0)
		return
	}

	msg.Skip(len(evolMarker), "evol marker")
	version := msg.ReadInt32("server version")
	env.Login.ServerVersion(0, int(version))

	if msg.Remaining() < 5 {
		return
	}
	number := msg.ReadInt32("packet version")
	flavor := protocol.Flavor(msg.ReadUInt8("flavor"))
	if flavor > protocol.FlavorZero || number <= 0 {
		return
	}
	env.Login.NegotiateProtocol(protocol.Version{Flavor: flavor, Number: int(number)})
}

func processConnectionProblem(env *game.Env, msg *protocol.Message) {
	code := int(msg.ReadInt8("error"))
	env.Login.ConnectionProblem(code, game.ConnectionProblemText(code))
}
