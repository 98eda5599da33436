// Package eathena implements the EAthena/Hercules packet family. Its
// layouts differ by flavor (Main, Re, Zero) and by packet version, so
// Table builds one dispatch table per negotiated Version.
package eathena

// Server to client opcodes.
const (
	SmsgServerVersionResponse uint16 = 0x7531 // Server version, optional packet version and flavor
	SmsgConnectionProblem     uint16 = 0x0081 // Login/char/map refusal code

	SmsgBeingChangeDirection uint16 = 0x009c // Being turned
	SmsgBeingFakeName        uint16 = 0x0078 // Nameless npc placed on the map
	SmsgSkillCasting         uint16 = 0x013e // Skill cast started (before 20091124)
	SmsgSkillCasting3        uint16 = 0x07fb // Skill cast started, disposable flag
	SmsgBeingHP              uint16 = 0x0106 // Party member HP, int16 values
	SmsgBeingHP2             uint16 = 0x080e // Party member HP, int32 values
	SmsgMonsterHP            uint16 = 0x0977 // Monster HP bar
	SmsgBeingSpecialEffect   uint16 = 0x01f3 // Effect played on a being

	SmsgPlayerGetExp  uint16 = 0x07f6 // Exp gained, int32 amount (Main, Re)
	SmsgPlayerGetExp2 uint16 = 0x0acc // Exp gained, int64 amount (Zero)
	SmsgWalkResponse  uint16 = 0x0087 // Local player walk acknowledged
	SmsgPlayerHeal    uint16 = 0x013d // HP/SP recovery, int16 value
	SmsgPlayerHeal2   uint16 = 0x0a27 // HP/SP recovery, int32 value

	SmsgSkillCoolDown     uint16 = 0x043d // One skill cooldown
	SmsgSkillCoolDownList uint16 = 0x043e // Cooldowns after login
	SmsgPlayerSkills      uint16 = 0x010f // Full skill list
	SmsgSkillAdd          uint16 = 0x0111 // One skill learned
	SmsgSkillFailed       uint16 = 0x0110 // Skill use rejected
	SmsgMVPItem           uint16 = 0x010a // MVP reward item

	SmsgPlayerInventoryRemove uint16 = 0x00af // Inventory index + amount removed
	SmsgPlayerEquip           uint16 = 0x0999 // Equip result
	SmsgPlayerUnequip         uint16 = 0x099a // Unequip result

	SmsgBeingChat  uint16 = 0x008d // Public chat of another being
	SmsgPlayerChat uint16 = 0x008e // Public chat echoed to the local player
	SmsgWhisper    uint16 = 0x0097 // Whisper received
	SmsgGMChat     uint16 = 0x009a // GM broadcast
)

// Client to server opcodes.
const (
	CmsgServerVersionRequest uint16 = 0x7530 // Ask for SmsgServerVersionResponse
	CmsgChatMessage          uint16 = 0x00f3 // Public chat line
	CmsgMapLoaded            uint16 = 0x007d // Map finished loading
)

// Packet versions that change a layout.
const (
	versionFakeNameType  = 20071106
	versionWhisperAdmin  = 20091104
	versionCastDispose   = 20091124
	versionBeingHP32     = 20100126
	versionCoolDownTotal = 20120604
	versionHeal32        = 20150513
)

// Inventory indexes on the wire are offset by this much.
const InventoryOffset = 2

var evolMarker = [4]byte{0xff, 'E', 'V', 'L'}
