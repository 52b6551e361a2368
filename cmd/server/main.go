package main

import (
	"context"

	"github.com/emberhq/ember-api/internal/app"
	"github.com/emberhq/ember-api/internal/cache"
	"github.com/emberhq/ember-api/internal/config"
	"github.com/emberhq/ember-api/internal/db"
	"github.com/emberhq/ember-api/internal/logger"
	"github.com/emberhq/ember-api/internal/server"
	"github.com/emberhq/ember-api/internal/service/auth"
	"github.com/emberhq/ember-api/internal/service/chat"
	"github.com/emberhq/ember-api/internal/service/discover"
	"github.com/emberhq/ember-api/internal/service/match"
	"github.com/emberhq/ember-api/internal/service/moderation"
	"github.com/emberhq/ember-api/internal/service/premium"
	"github.com/emberhq/ember-api/internal/service/profile"
	"github.com/emberhq/ember-api/internal/service/swipe"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L() // slog.Logger pointer

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		return
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(context.Background()); err != nil {
		log.Error("failed to connect to redis", "err", err)
		return
	}

	appCtx := app.New(cfg, database, redisCache, log)

	registrars := []server.Registrar{
		auth.NewRegistrar(appCtx),
		swipe.NewRegistrar(appCtx),
		discover.NewRegistrar(appCtx),
		profile.NewRegistrar(appCtx),
		match.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
		moderation.NewRegistrar(appCtx),
		premium.NewRegistrar(appCtx),
	}

	if cfg.App.Env == "development" {
		if err := db.SeedTestData(database); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	addr := cfg.HTTP.Host + ":" + cfg.HTTP.Port
	log.Info("starting HTTP server", "addr", addr)

	if err := server.StartHTTPServer(cfg, registrars...); err != nil {
		log.Error("failed to start HTTP server", "err", err)
	}
}
