package telegram

import (
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const enginePrefix = "engine:"

func makeEngineKeyboard() tgbotapi.InlineKeyboardMarkup {
	azure := tgbotapi.NewInlineKeyboardButtonData("Azure OpenAI", enginePrefix+"azure")
	gemini := tgbotapi.NewInlineKeyboardButtonData("Gemini", enginePrefix+"gemini")
	return tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(azure, gemini))
}

func (r *Router) sendEngineChoice(chatID int64, current string) {
	msg := tgbotapi.NewMessage(chatID, "Current chat engine: "+current+"\nPick another one or use /engine <name>.")
	msg.ReplyMarkup = makeEngineKeyboard()
	if _, err := r.Bot.Send(msg); err != nil {
		r.log().WithError(err).Warn("send engine keyboard")
	}
}

func (r *Router) handleCallback(cb tgbotapi.CallbackQuery) {
	_, _ = r.Bot.Request(tgbotapi.NewCallback(cb.ID, "")) // ack
	if cb.Message == nil {
		return
	}
	cid := cb.Message.Chat.ID
	name, ok := strings.CutPrefix(cb.Data, enginePrefix)
	if !ok || r.Engines == nil {
		return
	}
	// drop the keyboard so the choice cannot be pressed twice
	edit := tgbotapi.NewEditMessageReplyMarkup(cid, cb.Message.MessageID, tgbotapi.InlineKeyboardMarkup{
		InlineKeyboard: [][]tgbotapi.InlineKeyboardButton{},
	})
	_, _ = r.Bot.Send(edit)
	r.switchEngine(cid, name)
}
