package app

import (
	"log/slog"

	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/cache"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/docstore"
	"github.com/coolmes833/swapskills/internal/match"
)

// AppContext holds shared dependencies (DB, Redis, Logger, etc.)
type AppContext struct {
	Config     *config.Config
	DB         *gorm.DB
	RedisCache *cache.RedisCache
	Logger     *slog.Logger

	// Store holds interest records, repairs and chat threads.
	Store   docstore.Store
	Matcher *match.Service
	Tokens  *auth.Tokens
}

// New creates a new AppContext and the match service on top of store.
func New(cfg *config.Config, db *gorm.DB, rdb *cache.RedisCache, store docstore.Store, logger *slog.Logger) *AppContext {
	return &AppContext{
		Config:     cfg,
		DB:         db,
		RedisCache: rdb,
		Logger:     logger,
		Store:      store,
		Matcher:    match.NewService(store, logger.With("component", "match"), match.OptionsFromConfig(cfg)),
		Tokens:     auth.NewTokens(cfg),
	}
}
