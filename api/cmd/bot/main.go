package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/config"
	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/httpserver"
	"azure-playground/api/internal/language"
	"azure-playground/api/internal/logging"
	"azure-playground/api/internal/store"
	"azure-playground/api/internal/telegram"
	"azure-playground/api/internal/translator"
	"azure-playground/api/internal/vision"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logging.New(cfg.LogLevel, "bot")
	if err := cfg.Telegram.Validate(); err != nil {
		log.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := tgbotapi.NewBotAPI(cfg.Telegram.BotToken)
	if err != nil {
		log.WithError(err).Fatal("telegram login")
	}
	log.WithField("user", bot.Self.UserName).Info("authorized")

	r := router(cfg, bot, log)
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()
		r.Journal = store.NewJournal(db, "bot", log)
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("ok"))
	addr := ":" + cfg.Port

	if base := strings.TrimSpace(cfg.Telegram.WebhookURL); base != "" {
		path := telegram.WebhookPath(bot.Token)
		wh, err := tgbotapi.NewWebhook(strings.TrimRight(base, "/") + path)
		if err != nil {
			log.WithError(err).Fatal("webhook url")
		}
		wh.DropPendingUpdates = true
		if _, err := bot.Request(wh); err != nil {
			log.WithError(err).Fatal("set webhook")
		}
		mux.Handle(path, r.WebhookHandler(ctx, bot))
		log.Info("webhook mode")
		if err := httpserver.Run(ctx, addr, mux, log); err != nil {
			log.WithError(err).Fatal("bot stopped")
		}
		return
	}

	// polling needs no webhook; drop a stale one or getUpdates is refused
	if _, err := bot.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		log.WithError(err).Warn("delete webhook")
	}
	go func() {
		if err := httpserver.Run(ctx, addr, mux, log); err != nil {
			log.WithError(err).Error("health server stopped")
		}
	}()
	log.Info("polling mode")
	telegram.Poll(ctx, bot, log, func(upd tgbotapi.Update) { r.HandleUpdate(ctx, upd) })
}

func router(cfg *config.Config, bot *tgbotapi.BotAPI, log *logrus.Entry) *telegram.Router {
	r := telegram.New(bot, chat.NewEngines(cfg, log), log)
	if c := cfg.Translator; c.Validate() == nil {
		r.Translator = translator.New(c.Endpoint, c.Key, c.Region, log)
	}
	if c := cfg.Language; c.Validate() == nil {
		r.Language = language.New(c.Endpoint, c.Key, log)
	}
	if c := cfg.ContentSafety; c.Validate() == nil {
		r.Safety = contentsafety.New(c.Endpoint, c.Key, log)
	}
	if c := cfg.Vision; c.Validate() == nil {
		r.Vision = vision.New(c.Endpoint, c.Key, log)
	}
	return r
}
