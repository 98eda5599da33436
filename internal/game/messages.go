package game

import "strconv"

// ConnectionProblemText maps a login/char/map refusal code to the text
// shown to the player.
func ConnectionProblemText(code int) string {
	switch code {
	case 0:
		return "Authentication failed."
	case 1:
		return "No servers available."
	case 2:
		return "This account is already logged in."
	case 3:
		return "Speed hack detected."
	case 8:
		return "Duplicated login."
	default:
		return "Unknown connection error."
	}
}

// Basic skill ids and failure reasons carried by skill failed messages.
const (
	skillBasic   = 0x0001
	skillWarp    = 0x001b
	skillSteal   = 0x0032
	skillEnvenom = 0x0034

	bskillTrade      = 0x0000
	bskillEmote      = 0x0001
	bskillSit        = 0x0002
	bskillCreateChat = 0x0003
	bskillJoinParty  = 0x0004
	bskillShout      = 0x0005
)

var basicSkillText = map[int]string{
	bskillTrade:      "Trade failed!",
	bskillEmote:      "Emote failed!",
	bskillSit:        "Sit failed!",
	bskillCreateChat: "Chat creating failed!",
	bskillJoinParty:  "Could not join party!",
	bskillShout:      "Cannot shout!",
}

var failReasonText = []string{
	"You have not yet reached a high enough lvl!",
	"Insufficient HP!",
	"Insufficient SP!",
	"You have no memos!",
	"You cannot do that right now!",
	"Seems you need more money... ;-)",
	"You cannot use this skill with that kind of weapon!",
	"You need another red gem!",
	"You need another blue gem!",
	"You're carrying to much to do this!",
}

// SkillFailureText renders a skill failure. Failures of skills other
// than the basic one return an empty string unless they have fixed text.
func SkillFailureText(f SkillFailure) string {
	if !f.Success && f.SkillID == skillBasic {
		txt, ok := basicSkillText[int(f.BType)]
		if !ok {
			txt = "Skill " + strconv.Itoa(int(f.BType)) + " failed!"
		}
		if f.Reason >= 0 && f.Reason < len(failReasonText) {
			return txt + " " + failReasonText[f.Reason]
		}
		return txt + " Huh? What's that?"
	}
	switch f.SkillID {
	case skillWarp:
		return "Warp failed..."
	case skillSteal:
		return "Could not steal anything..."
	case skillEnvenom:
		return "Poison had no effect..."
	}
	return ""
}
