package tmwa

import (
	"github.com/manawire-project/manawire/internal/protocol"
)

// ServerVersionRequest asks the login server for SmsgServerVersionResponse.
func ServerVersionRequest(st *protocol.State) []byte {
	return protocol.NewMessageOut(CmsgServerVersionRequest, st).Build()
}

// ChatMessage sends text to public chat. The server expects the line
// prefixed with the speaker's name and NUL terminated.
func ChatMessage(st *protocol.State, nick, text string) []byte {
	line := nick + " : " + text
	return protocol.NewVarMessageOut(CmsgChatMessage, st).
		WriteString(line, len(line)+1).
		Build()
}

// MapLoaded tells the map server the client finished loading the map.
func MapLoaded(st *protocol.State) []byte {
	return protocol.NewMessageOut(CmsgMapLoaded, st).Build()
}

// ClientPing carries the client tick.
func ClientPing(st *protocol.State, tick uint32) []byte {
	return protocol.NewMessageOut(CmsgClientPing, st).WriteUInt32(tick).Build()
}

// ClientQuit leaves the map server.
func ClientQuit(st *protocol.State) []byte {
	return protocol.NewMessageOut(CmsgClientQuit, st).WriteInt16(0).Build()
}
