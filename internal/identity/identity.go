package identity

import (
	"context"
	"errors"
)

// ErrNoUserSignedIn is returned when the auth service has no confirmed
// session for the caller. Account deletion falls back to the
// unconfirmed-user path on this error.
var ErrNoUserSignedIn = errors.New("no user signed in")

// ErrInvalidToken is returned by token verification.
var ErrInvalidToken = errors.New("invalid access token")

// Session identifies the signed-in caller.
type Session struct {
	UserID      string
	AccessToken string
}

// Authenticator owns the external auth identity of the signed-in user.
type Authenticator interface {
	DeleteCurrentUser(ctx context.Context, session Session) error
}

// UnconfirmedUserDeleter removes an auth identity that never completed signup.
type UnconfirmedUserDeleter interface {
	DeleteUnconfirmedUser(ctx context.Context, userID string) error
}

// TokenVerifier resolves an access token to the auth user id.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}
