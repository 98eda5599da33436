// Package tmwa implements the TmwAthena packet family: its size table,
// the Recv handlers and the table builder registered with the dispatch
// catalog.
package tmwa

// Server to client opcodes.
const (
	SmsgServerVersionResponse uint16 = 0x7531 // Server version and feature options
	SmsgUpdateHost            uint16 = 0x0063 // Update host URL (login server)
	SmsgUpdateHost2           uint16 = 0x7534 // Update host URL (late handshake)
	SmsgConnectionProblem     uint16 = 0x0081 // Login/char/map refusal code
	SmsgServerPing            uint16 = 0x007f // Server tick

	SmsgBeingChangeDirection uint16 = 0x009c // Being turned
	SmsgBeingSelfEffect      uint16 = 0x019b // Effect played on a being
	SmsgBeingIPResponse      uint16 = 0x020c // IP of a being (GM only)
	SmsgWalkResponse         uint16 = 0x0087 // Local player walk acknowledged

	SmsgPlayerStatUpdate1  uint16 = 0x00b0 // Stat id + int32 value
	SmsgPlayerStatUpdate2  uint16 = 0x00b1 // Stat id + int32 value (zeny, exp)
	SmsgPlayerInventoryRem uint16 = 0x00af // Inventory index + amount removed
	SmsgPlayerEquip        uint16 = 0x00aa // Equip result
	SmsgPlayerUnequip      uint16 = 0x00ac // Unequip result
	SmsgMVP                uint16 = 0x010c // MVP announcement (being id)
	SmsgPlayerSkills       uint16 = 0x010f // Full skill list, 37-byte entries
	SmsgPlayerSkillUp      uint16 = 0x010e // One skill changed
	SmsgSkillFailed        uint16 = 0x0110 // Skill use rejected
	SmsgBeingChat          uint16 = 0x008d // Public chat of another being
	SmsgPlayerChat         uint16 = 0x008e // Public chat echoed to the local player
	SmsgWhisper            uint16 = 0x0097 // Whisper received
	SmsgGMChat             uint16 = 0x009a // GM broadcast
)

// Client to server opcodes.
const (
	CmsgServerVersionRequest uint16 = 0x7530 // Ask for SmsgServerVersionResponse
	CmsgChatMessage          uint16 = 0x008c // Public chat line
	CmsgMapLoaded            uint16 = 0x007d // Map finished loading
	CmsgClientPing           uint16 = 0x007e // Client tick
	CmsgClientQuit           uint16 = 0x018a // Leave the map server
)

// evolMarker opens a server version response from an Evol server.
var evolMarker = [4]byte{0xff, 'E', 'V', 'L'}
