package eathena

import "github.com/manawire-project/manawire/internal/protocol"

// ServerVersionRequest asks an Evol/Hercules login server for
// SmsgServerVersionResponse.
func ServerVersionRequest(st *protocol.State) []byte {
	return protocol.NewMessageOut(CmsgServerVersionRequest, st).Build()
}

// ChatMessage sends a "nick : text" line to public chat, NUL terminated.
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
