package main

import (
	"context"
	"flag"
	"os"

	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/cache"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/db"
	"github.com/coolmes833/swapskills/internal/logger"
	"github.com/coolmes833/swapskills/internal/repository"
	"github.com/coolmes833/swapskills/internal/seed"
)

func main() {
	users := flag.Int("users", 10, "number of demo accounts")
	flag.Parse()

	// Load configuration
	cfg := config.New()
	logger.InitFromConfig(cfg)
	log := logger.L()
	ctx := context.Background()

	database, err := db.NewDB(cfg)
	if err != nil {
		log.Error("failed to init db", "err", err)
		os.Exit(1)
	}

	var rdb *cache.RedisCache
	if cfg.Store.Notifier == "redis" {
		rdb = cache.NewRedisCache(cfg)
		if err := rdb.Ping(ctx); err != nil {
			log.Warn("redis unavailable, seeding without notifications", "err", err)
			rdb = nil
		} else {
			defer rdb.Close()
		}
	}

	store, err := app.NewStore(cfg, database, rdb, log)
	if err != nil {
		log.Error("failed to open document store", "err", err)
		os.Exit(1)
	}
	appCtx := app.New(cfg, database, rdb, store, log)

	res, err := seed.Demo(ctx, repository.NewUserRepository(database), appCtx.Matcher, *users, log)
	if err != nil {
		log.Error("failed to seed", "err", err)
		os.Exit(1)
	}
	log.Info("seeding completed", "users", len(res.Users), "matches", res.Matches, "pending", res.Pending)
}
