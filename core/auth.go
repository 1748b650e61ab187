package core

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var ErrUnauthenticated = errors.New("unauthenticated")

type Session struct {
	Username  string    `json:"username"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type AuthStore interface {
	// NewSession verifies the credentials and issues a session token.
	// It returns ErrBadCredentials if the pair does not match a user.
	NewSession(ctx context.Context, username, password string) (*Session, error)

	// Session validates a token and returns the session it represents.
	// It returns ErrUnauthenticated for expired or malformed tokens.
	Session(ctx context.Context, token string) (*Session, error)
}

// TokenAuth issues and verifies stateless JWT sessions backed by the user
// store for credential checks. Sign-out is purely client-side (the cookie is
// cleared); tokens remain valid until they expire.
type TokenAuth struct {
	userStore UserStore
	secret    []byte
	tokenExp  time.Duration
}

type AuthOption func(*TokenAuth)

func WithTokenExp(exp time.Duration) AuthOption {
	return func(a *TokenAuth) {
		a.tokenExp = exp
	}
}

func NewTokenAuth(userStore UserStore, secret []byte, opts ...AuthOption) *TokenAuth {
	auth := &TokenAuth{
		userStore: userStore,
		secret:    secret,
		tokenExp:  time.Hour * 24,
	}
	for _, opt := range opts {
		opt(auth)
	}
	return auth
}

func (a *TokenAuth) NewSession(ctx context.Context, username, password string) (*Session, error) {
	user, err := a.userStore.GetUserByUsername(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("get user by username: %w", err)
	}
	if user == nil {
		return nil, ErrBadCredentials
	}

	ok, err := a.userStore.ComparePassword(ctx, username, password)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrBadCredentials
		}
		return nil, fmt.Errorf("compare password: %w", err)
	}
	if !ok {
		return nil, ErrBadCredentials
	}

	token, exp, err := NewToken(user.Username, a.tokenExp, a.secret)
	if err != nil {
		return nil, fmt.Errorf("creating token: %w", err)
	}

	return &Session{Username: user.Username, Token: token, ExpiresAt: exp}, nil
}

func (a *TokenAuth) Session(ctx context.Context, token string) (*Session, error) {
	claims, err := VerifyToken(token, a.secret)
	if err != nil {
		return nil, ErrUnauthenticated
	}
	return &Session{
		Username:  claims.Username,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}
