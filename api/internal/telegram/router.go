// Package telegram is the chat front-end over the service clients: text
// commands for translation, language detection, moderation and chat, and
// photos for Read OCR.
package telegram

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/language"
	"azure-playground/api/internal/media"
	"azure-playground/api/internal/store"
	"azure-playground/api/internal/vision"
)

// Bot is the part of *tgbotapi.BotAPI the router talks to.
type Bot interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

type Translator interface {
	TranslateText(ctx context.Context, text, from, to string) (string, error)
}

type LanguageDetector interface {
	DetectLanguage(ctx context.Context, texts []string, countryHint string) (*language.Batch, error)
}

type SafetyAnalyzer interface {
	AnalyzeText(ctx context.Context, opt contentsafety.TextOptions) (*contentsafety.TextResult, error)
}

type Reader interface {
	Read(ctx context.Context, img media.Image, language string, interval time.Duration) (*vision.ReadResult, error)
}

const (
	maxReply       = 3900
	defaultTimeout = 3 * time.Minute
	maxPhotoBytes  = 20 << 20
)

// Router dispatches updates. Services left nil answer "not configured".
type Router struct {
	Bot        Bot
	Translator Translator
	Language   LanguageDetector
	Safety     SafetyAnalyzer
	Vision     Reader
	Engines    *chat.Engines
	Journal    *store.Journal
	Log        *logrus.Entry

	// Debounce is how long photos of one album are collected before OCR.
	Debounce     time.Duration
	ReadInterval time.Duration
	Timeout      time.Duration

	batches sync.Map // batch key -> *photoBatch
	engine  sync.Map // chatID -> engine name
}

// New returns a router with the timing defaults and a non-nil logger. Set the
// service fields before the first update; they are read concurrently.
func New(bot Bot, engines *chat.Engines, log *logrus.Entry) *Router {
	if log == nil {
		log = logrus.NewEntry(logrus.StandardLogger())
	}
	return &Router{
		Bot:          bot,
		Engines:      engines,
		Log:          log,
		Debounce:     defaultDebounce,
		ReadInterval: defaultReadInterval,
		Timeout:      defaultTimeout,
	}
}

var fallbackLog = logrus.NewEntry(logrus.StandardLogger())

// log never writes to r, so handlers on many goroutines can share a Router
// built without New.
func (r *Router) log() *logrus.Entry {
	if r.Log == nil {
		return fallbackLog
	}
	return r.Log
}

func (r *Router) timeout() time.Duration {
	if r.Timeout > 0 {
		return r.Timeout
	}
	return defaultTimeout
}

// HandleUpdate handles one update synchronously, except photos, which are
// batched and recognized after the debounce window.
func (r *Router) HandleUpdate(ctx context.Context, upd tgbotapi.Update) {
	if upd.CallbackQuery != nil {
		r.handleCallback(*upd.CallbackQuery)
		return
	}
	if upd.Message == nil {
		return
	}
	msg := upd.Message
	switch {
	case msg.IsCommand():
		ctx, cancel := context.WithTimeout(ctx, r.timeout())
		defer cancel()
		r.HandleCommand(ctx, msg)
	case len(msg.Photo) > 0:
		r.acceptPhoto(ctx, msg)
	case strings.TrimSpace(msg.Text) != "":
		r.send(msg.Chat.ID, "Send a command or a photo. /help lists what I can do.")
	}
}

func (r *Router) HandleCommand(ctx context.Context, msg *tgbotapi.Message) {
	cid := msg.Chat.ID
	args := strings.TrimSpace(msg.CommandArguments())
	switch msg.Command() {
	case "start", "help":
		r.send(cid, helpText)
	case "health":
		r.send(cid, "OK")
	case "translate":
		r.onTranslate(ctx, cid, args)
	case "detect":
		r.onDetect(ctx, cid, args)
	case "moderate":
		r.onModerate(ctx, cid, args)
	case "ask":
		r.onAsk(ctx, cid, args)
	case "engine":
		r.onEngine(cid, args)
	default:
		r.send(cid, "Unknown command. /help lists what I can do.")
	}
}

const helpText = `Send a photo and I will reply with the recognized text. Several photos sent together are read as one page.

Commands:
/translate <lang> <text> - translate text, e.g. /translate fr Good morning
/detect <text> - detect the language
/moderate <text> - content safety severities
/ask <prompt> - ask the chat model
/engine [azure|gemini] - show or switch the chat model
/health - liveness check`

func (r *Router) send(chatID int64, text string) {
	if _, err := r.Bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		r.log().WithError(err).WithField("chat_id", chatID).Warn("send message")
	}
}

// SendResult sends text under a heading, clipped to fit one message.
func (r *Router) SendResult(chatID int64, heading, text string) {
	r.send(chatID, heading+"\n\n"+clipReply(text))
}

func (r *Router) SendError(chatID int64, op string, err error) {
	r.log().WithError(err).WithFields(logrus.Fields{"chat_id": chatID, "op": op}).Warn("command failed")
	r.send(chatID, fmt.Sprintf("%s failed: %v", op, err))
}

func clipReply(s string) string {
	rs := []rune(s)
	if len(rs) <= maxReply {
		return s
	}
	return string(rs[:maxReply]) + "…"
}
