package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"azure-playground/api/internal/chat"
	"azure-playground/api/internal/config"
	"azure-playground/api/internal/contentsafety"
	"azure-playground/api/internal/handle"
	"azure-playground/api/internal/httpserver"
	"azure-playground/api/internal/language"
	"azure-playground/api/internal/logging"
	"azure-playground/api/internal/moderator"
	"azure-playground/api/internal/store"
	"azure-playground/api/internal/translator"
	"azure-playground/api/internal/vision"
)

const cacheTTL = 24 * time.Hour

func main() {
	cfg, err := config.Load()
	if err != nil {
		logrus.Fatal(err)
	}
	log := logging.New(cfg.LogLevel, "gateway")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	d := deps(cfg, log)
	if dsn := strings.TrimSpace(cfg.DatabaseURL); dsn != "" {
		db, err := store.Open(ctx, dsn)
		if err != nil {
			log.WithError(err).Fatal("open database")
		}
		defer db.Close()
		d.Cache = store.NewCacheRepo(db)
		d.CacheTTL = cacheTTL
		d.Journal = store.NewJournal(db, "gateway", log)
		log.WithField("dialect", db.Dialect).Info("journal and cache enabled")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", httpserver.Healthz("ok"))
	handle.New(d).Routes(mux)

	if err := httpserver.Run(ctx, ":"+cfg.Port, mux, log); err != nil {
		log.WithError(err).Fatal("gateway stopped")
	}
}

// deps builds a client for every service that has credentials. The others
// stay nil and their routes answer 503.
func deps(cfg *config.Config, log *logrus.Entry) handle.Deps {
	d := handle.Deps{Log: log, Engines: chat.NewEngines(cfg, log)}
	if c := cfg.Translator; c.Validate() == nil {
		d.Translator = translator.New(c.Endpoint, c.Key, c.Region, log)
	}
	if c := cfg.Language; c.Validate() == nil {
		d.Language = language.New(c.Endpoint, c.Key, log)
	}
	if c := cfg.ContentSafety; c.Validate() == nil {
		d.Safety = contentsafety.New(c.Endpoint, c.Key, log)
	}
	if c := cfg.Moderator; c.Validate() == nil {
		d.Moderator = moderator.New(c.Endpoint, c.Key, log)
	}
	if c := cfg.Vision; c.Validate() == nil {
		d.Vision = vision.New(c.Endpoint, c.Key, log)
	}
	for name, on := range map[string]bool{
		"translator": d.Translator != nil, "language": d.Language != nil,
		"contentsafety": d.Safety != nil, "moderator": d.Moderator != nil, "vision": d.Vision != nil,
	} {
		log.WithField("service", name).WithField("enabled", on).Debug("gateway route")
	}
	return d
}
