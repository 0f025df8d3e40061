package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/coolmes833/swapskills/internal/config"
)

// Tokens issues and verifies signed session tokens (HS256).
type Tokens struct {
	secret []byte
	issuer string
	ttl    time.Duration
	now    func() time.Time
}

func NewTokens(cfg *config.Config) *Tokens {
	return &Tokens{
		secret: []byte(cfg.Auth.Secret),
		issuer: cfg.Auth.Issuer,
		ttl:    cfg.Auth.TokenTTL,
		now:    time.Now,
	}
}

// Issue returns a token whose subject is the user id.
func (t *Tokens) Issue(userID string) (string, error) {
	now := t.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		Issuer:    t.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(t.ttl)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Parse verifies the token and returns the session it carries.
// Any verification failure is reported as ErrUnauthenticated.
func (t *Tokens) Parse(raw string) (Session, error) {
	claims := &jwt.RegisteredClaims{}
	_, err := jwt.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return t.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(t.issuer),
		jwt.WithTimeFunc(t.now),
	)
	if err != nil {
		return Session{}, errors.Join(ErrUnauthenticated, err)
	}

	s := Session{UserID: claims.Subject}
	if err := s.Validate(); err != nil {
		return Session{}, err
	}
	return s, nil
}
