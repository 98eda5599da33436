package eathena

import (
	"strings"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// gmColorPrefixes are colour tags some servers put in front of GM
// broadcasts. At most one is removed.
var gmColorPrefixes = []string{"ssss", "eulb"}

func splitSender(line string) (from, text string) {
	if i := strings.Index(line, " : "); i >= 0 {
		return line[:i], strings.TrimSpace(line[i+3:])
	}
	return "", strings.TrimSpace(line)
}

func processPlayerChat(env *game.Env, msg *protocol.Message) {
	n := msg.Length() - protocol.VarHeaderLen
	if n <= 0 {
		return
	}
	from, text := splitSender(msg.ReadRawString(n, "message"))
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelPlayer, From: from, Text: text})
}

func processGMChat(env *game.Env, msg *protocol.Message) {
	n := msg.Length() - protocol.VarHeaderLen
	if n <= 0 {
		return
	}
	text := msg.ReadRawString(n, "message")
	for _, p := range gmColorPrefixes {
		if rest, ok := strings.CutPrefix(text, p); ok {
			text = rest
			break
		}
	}
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelGM, Text: text})
}

func processWhisper(env *game.Env, msg *protocol.Message) {
	withAdmin := msg.Version().AtLeast(versionWhisperAdmin)
	header := 28
	if withAdmin {
		header += 4
	}
	n := msg.Length() - header
	nick := msg.ReadString(24, "nick")
	admin := false
	if withAdmin {
		admin = msg.ReadInt32("admin flag") != 0
	}
	if n <= 0 {
		return
	}
	text := msg.ReadString(n, "message")
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelWhisper, From: nick, Text: text, Admin: admin})
}

func processBeingChat(env *game.Env, msg *protocol.Message) {
	n := msg.Length() - 8
	id := msg.ReadBeingID("being id")
	if n <= 0 {
		return
	}
	from, text := splitSender(msg.ReadRawString(n, "message"))
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelBeing, From: from, Text: text, BeingID: id})
}
