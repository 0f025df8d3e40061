package app

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/cache"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/docstore"
)

// NewStore opens the document store selected by cfg.Store.
func NewStore(cfg *config.Config, database *gorm.DB, rdb *cache.RedisCache, log *slog.Logger) (docstore.Store, error) {
	switch cfg.Store.Driver {
	case "memory":
		return docstore.NewMemoryStore(), nil
	case "sql", "":
		var notifier docstore.Notifier = docstore.NewLocalNotifier()
		if cfg.Store.Notifier == "redis" && rdb != nil {
			notifier = rdb
		}
		return docstore.NewSQLStore(database, notifier, log.With("component", "docstore"))
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
