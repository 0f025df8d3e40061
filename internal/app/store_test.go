package app_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/docstore"
	"github.com/coolmes833/swapskills/internal/logger"
)

func TestNewStore(t *testing.T) {
	database, err := gorm.Open(sqlite.Open("file:newstore?mode=memory&cache=shared"), &gorm.Config{})
	require.NoError(t, err)

	cfg := &config.Config{}
	cfg.Store.Driver = "memory"
	s, err := app.NewStore(cfg, database, nil, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &docstore.MemoryStore{}, s)

	cfg.Store.Driver = "sql"
	cfg.Store.Notifier = "redis" // falls back to local without a cache
	s, err = app.NewStore(cfg, database, nil, logger.Discard())
	require.NoError(t, err)
	assert.IsType(t, &docstore.SQLStore{}, s)

	cfg.Store.Driver = "mongo"
	_, err = app.NewStore(cfg, database, nil, logger.Discard())
	assert.Error(t, err)
}
