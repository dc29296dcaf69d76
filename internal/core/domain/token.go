package domain

import (
	"context"
	"time"
)

// AccessToken is a scoped bearer token for one user's source access.
type AccessToken struct {
	// UserID is the user the token is scoped to.
	UserID string

	// Token is the bearer value.
	Token string

	// Scopes are the granted scopes, sorted.
	Scopes []string

	// Expiry is when the token stops being valid.
	Expiry time.Time
}

// Expired reports whether the token is past its expiry at the given time.
func (t AccessToken) Expired(now time.Time) bool {
	return !t.Expiry.IsZero() && now.After(t.Expiry)
}

type tokenCtxKey struct{}

// WithAccessToken attaches a task-scoped access token to the context.
// The processor fetches a fresh token per task and source clients read
// it back; tokens never leak between tasks of different users this way.
func WithAccessToken(ctx context.Context, t AccessToken) context.Context {
	return context.WithValue(ctx, tokenCtxKey{}, t)
}

// AccessTokenFrom extracts the task-scoped access token, if any.
func AccessTokenFrom(ctx context.Context) (AccessToken, bool) {
	t, ok := ctx.Value(tokenCtxKey{}).(AccessToken)
	return t, ok
}
