package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/cache"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/db"
	"github.com/coolmes833/swapskills/internal/logger"
	"github.com/coolmes833/swapskills/internal/match"
	"github.com/coolmes833/swapskills/internal/repository"
	"github.com/coolmes833/swapskills/internal/seed"
	"github.com/coolmes833/swapskills/internal/server"
	"github.com/coolmes833/swapskills/internal/service/account"
	"github.com/coolmes833/swapskills/internal/service/chat"
	"github.com/coolmes833/swapskills/internal/service/matching"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Init DB
	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	// Init Redis
	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		log.Error("failed to connect to redis", "err", err)
		os.Exit(1)
	}
	defer redisCache.Close()

	store, err := app.NewStore(cfg, database, redisCache, log)
	if err != nil {
		log.Error("failed to open document store", "err", err)
		os.Exit(1)
	}

	appCtx := app.New(cfg, database, redisCache, store, log)

	if cfg.App.ENV == "development" {
		if _, err := seed.Demo(ctx, repository.NewUserRepository(database), appCtx.Matcher, 10, log); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	srv := server.New(cfg, log, appCtx.Tokens,
		account.NewRegistrar(appCtx),
		matching.NewRegistrar(appCtx),
		chat.NewRegistrar(appCtx),
	)
	sweeper := match.NewSweeper(appCtx.Matcher, cfg.Match.SweepInterval, log.With("component", "sweeper"))

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return srv.Run(ctx) })
	g.Go(func() error { return sweeper.Run(ctx) })

	if err := g.Wait(); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
