package auth

import (
	"context"
	"errors"
	"strings"
)

// ErrUnauthenticated is returned when a call carries no valid session.
var ErrUnauthenticated = errors.New("unauthenticated")

// ErrInvalidCredentials is returned when sign-in fails.
var ErrInvalidCredentials = errors.New("invalid credentials")

// Session identifies the caller of a matching operation. It is passed
// explicitly into every call instead of being read from ambient state.
type Session struct {
	UserID string
}

// Validate reports ErrUnauthenticated for an empty session.
func (s Session) Validate() error {
	if strings.TrimSpace(s.UserID) == "" {
		return ErrUnauthenticated
	}
	return nil
}

type sessionKey struct{}

// WithSession stores the session on ctx.
func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey{}, s)
}

// FromContext returns the session stored by WithSession.
func FromContext(ctx context.Context) (Session, error) {
	s, ok := ctx.Value(sessionKey{}).(Session)
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}
