package driven

import (
	"context"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
)

// CredentialsStore persists per-user offline-access credentials.
// The orchestrator polls it to discover provisioning changes.
type CredentialsStore interface {
	// ListProvisioned returns the IDs of users holding valid
	// offline-access credentials.
	ListProvisioned(ctx context.Context) ([]string, error)

	// RefreshToken returns the stored refresh token for a user.
	// Returns domain.ErrNotProvisioned if the user has none.
	RefreshToken(ctx context.Context, userID string) (string, error)

	// Revoke removes a user's credentials.
	Revoke(ctx context.Context, userID string) error

	// Save stores or replaces a user's refresh token.
	Save(ctx context.Context, userID, refreshToken string) error

	// Close releases resources.
	Close() error
}

// TokenProvider exchanges stored credentials for scoped access tokens.
//
// Hot-path processor fetches must request a fresh token per task;
// implementations may cache only background tokens, keyed by
// userID + sorted scopes.
type TokenProvider interface {
	// Token returns a scoped access token for the user. Returns
	// domain.ErrNotProvisioned (checked with errors.Is) when the user
	// has no valid offline-access grant, so callers can skip or stop
	// gracefully instead of treating it as a failure.
	Token(ctx context.Context, userID string, scopes []string) (domain.AccessToken, error)
}
