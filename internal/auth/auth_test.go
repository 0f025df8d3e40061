package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coolmes833/swapskills/internal/config"
)

func testTokens(t *testing.T) *Tokens {
	t.Helper()
	cfg := config.New()
	cfg.Auth.Secret = "test-secret"
	cfg.Auth.TokenTTL = time.Hour
	return NewTokens(cfg)
}

func TestTokens_RoundTrip(t *testing.T) {
	tokens := testTokens(t)

	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	s, err := tokens.Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "user-1", s.UserID)
}

func TestTokens_Expired(t *testing.T) {
	tokens := testTokens(t)
	raw, err := tokens.Issue("user-1")
	require.NoError(t, err)

	tokens.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err = tokens.Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokens_WrongSecret(t *testing.T) {
	raw, err := testTokens(t).Issue("user-1")
	require.NoError(t, err)

	other := testTokens(t)
	other.secret = []byte("another")
	_, err = other.Parse(raw)
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestTokens_Garbage(t *testing.T) {
	_, err := testTokens(t).Parse("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthenticated)
}

func TestSessionContext(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, ErrUnauthenticated)

	_, err = FromContext(WithSession(context.Background(), Session{UserID: "  "}))
	assert.ErrorIs(t, err, ErrUnauthenticated)

	s, err := FromContext(WithSession(context.Background(), Session{UserID: "u"}))
	require.NoError(t, err)
	assert.Equal(t, "u", s.UserID)
}
