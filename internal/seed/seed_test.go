package seed_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolmes833/swapskills/internal/app/apptest"
	"github.com/coolmes833/swapskills/internal/logger"
	"github.com/coolmes833/swapskills/internal/repository"
	"github.com/coolmes833/swapskills/internal/seed"
)

func TestDemo(t *testing.T) {
	ctx := context.Background()
	env := apptest.New(t)
	repo := repository.NewUserRepository(env.DB)

	res, err := seed.Demo(ctx, repo, env.Matcher, 6, logger.Discard())
	require.NoError(t, err)
	assert.Len(t, res.Users, 6)
	assert.GreaterOrEqual(t, res.Matches, 1)

	u, err := repo.GetByEmail(ctx, "user1@example.com")
	require.NoError(t, err)
	assert.True(t, u.ProfileComplete())

	// every match is symmetric
	for _, id := range res.Users {
		v, err := env.Matcher.CurrentView(ctx, id)
		require.NoError(t, err)
		for _, m := range v.Matched {
			ok, err := env.Matcher.CanChat(ctx, id, m.TargetID)
			require.NoError(t, err)
			assert.True(t, ok)
		}
	}

	// reseeding reuses the accounts
	again, err := seed.Demo(ctx, repo, env.Matcher, 6, logger.Discard())
	require.NoError(t, err)
	assert.Equal(t, res.Users, again.Users)
}
