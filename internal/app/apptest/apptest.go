// Package apptest builds a fully wired AppContext for service tests:
// in-memory SQLite, miniredis and an in-memory document store.
package apptest

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/coolmes833/swapskills/internal/app"
	"github.com/coolmes833/swapskills/internal/auth"
	"github.com/coolmes833/swapskills/internal/cache"
	"github.com/coolmes833/swapskills/internal/config"
	"github.com/coolmes833/swapskills/internal/db"
	"github.com/coolmes833/swapskills/internal/docstore"
	"github.com/coolmes833/swapskills/internal/logger"
)

// Env is an AppContext plus handles on its fakes.
type Env struct {
	*app.AppContext
	Redis *miniredis.Miniredis
}

// New spins up an isolated environment for t. Everything is torn down on cleanup.
func New(t *testing.T) *Env {
	t.Helper()

	// In-memory SQLite, one per test
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	database, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		NowFunc:                func() time.Time { return time.Now().UTC().Truncate(time.Millisecond) },
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)
	sqlDB, err := database.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.Migrate(database))

	// Fake Redis
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	cfg := config.New()
	cfg.Redis.Addr = mr.Addr()
	cfg.Auth.Secret = "test-secret"
	cfg.Match.RetryAttempts = 2
	cfg.Match.RetryInterval = time.Millisecond
	cfg.Match.ReofferRevoked = true

	redisCache := cache.NewRedisCache(cfg)
	t.Cleanup(func() { redisCache.Close() })

	appCtx := app.New(cfg, database, redisCache, docstore.NewMemoryStore(), logger.Discard())
	return &Env{AppContext: appCtx, Redis: mr}
}

// User creates an account with a complete profile and returns its id.
func (e *Env) User(t *testing.T, name string, skills ...string) string {
	t.Helper()
	if len(skills) == 0 {
		skills = []string{"Go"}
	}
	u := &db.User{
		ID:           "id-" + strings.ToLower(name),
		Email:        strings.ToLower(name) + "@example.com",
		PasswordHash: "x",
		Name:         name,
		Description:  "I am " + name,
		Skills:       skills,
	}
	require.NoError(t, e.DB.Create(u).Error)
	return u.ID
}

// As returns a context carrying userID's session, as the auth interceptor would.
func As(userID string) context.Context {
	return auth.WithSession(context.Background(), auth.Session{UserID: userID})
}
