package tmwa

import (
	"bytes"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// processServerVersion decodes the 8-byte payload of 0x7531. Evol servers
// open it with a marker and carry a one byte server version; older
// servers send a plain options word and no version.
func processServerVersion(env *game.Env, msg *protocol.Message) {
	raw := msg.Raw()
	hdr := protocol.FixedHeaderLen
	if len(raw) >= hdr+len(evolMarker) && bytes.Equal(raw[hdr:hdr+len(evolMarker)], evolMarker[:]) {
		msg.Skip(len(evolMarker), "evol marker")
		options := msg.ReadUInt8("options")
		msg.Skip(2, "unused")
		version := msg.ReadUInt8("server version")
		env.Login.ServerVersion(int(options), int(version))
		return
	}
	options := msg.ReadInt32("options")
	msg.Skip(4, "unused")
	env.Login.ServerVersion(int(options), 0)
}

func processUpdateHost(env *game.Env, msg *protocol.Message) {
	host := msg.ReadString(msg.Length()-protocol.VarHeaderLen, "host")
	env.Login.UpdateHost(host)
}

func processConnectionProblem(env *game.Env, msg *protocol.Message) {
	code := int(msg.ReadInt8("error"))
	env.Login.ConnectionProblem(code, game.ConnectionProblemText(code))
}

func processServerPing(env *game.Env, msg *protocol.Message) {
	msg.ReadInt32("tick")
}
