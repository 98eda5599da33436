package tmwa

import (
	"strings"

	"github.com/manawire-project/manawire/internal/game"
	"github.com/manawire-project/manawire/internal/protocol"
)

// splitSender splits a "name : text" chat line. A line without the
// separator has no sender.
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

func processBeingChat(env *game.Env, msg *protocol.Message) {
	n := msg.Length() - 8
	id := msg.ReadBeingID("being id")
	if n <= 0 {
		return
	}
	from, text := splitSender(msg.ReadRawString(n, "message"))
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelBeing, From: from, Text: text, BeingID: id})
}

func processWhisper(env *game.Env, msg *protocol.Message) {
	n := msg.Length() - 28
	nick := msg.ReadString(24, "nick")
	if n <= 0 {
		return
	}
	text := msg.ReadString(n, "message")
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelWhisper, From: nick, Text: text})
}

func processGMChat(env *game.Env, msg *protocol.Message) {
	n := msg.Length() - protocol.VarHeaderLen
	if n <= 0 {
		return
	}
	text := msg.ReadRawString(n, "message")
	env.Chat.Chat(game.ChatLine{Channel: game.ChannelGM, Text: text})
}
