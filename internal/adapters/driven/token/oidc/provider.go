// Package oidc exchanges stored refresh tokens for scoped access
// tokens against an OpenID Connect token endpoint.
//
// Two request classes share one provider. Hot-path requests (the
// processor fetching a document) always hit the token endpoint so a
// mid-task revocation is honoured immediately. Background requests
// (scanner listings, verification) may reuse a cached token until
// shortly before expiry; the cache is keyed by user ID plus the sorted
// scope set, never by user alone.
package oidc

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/halcyon-labs/nextfind/internal/core/domain"
	"github.com/halcyon-labs/nextfind/internal/core/ports/driven"
	"github.com/halcyon-labs/nextfind/internal/logger"
)

// Ensure both provider views implement the interface.
var (
	_ driven.TokenProvider = (*Provider)(nil)
	_ driven.TokenProvider = (*CachedProvider)(nil)
)

// expirySlack refreshes cached tokens this long before they expire so
// a token never goes stale mid-request.
const expirySlack = 30 * time.Second

// Config holds the OIDC client settings.
type Config struct {
	// TokenURL is the token endpoint of the identity provider.
	TokenURL string

	// ClientID and ClientSecret authenticate this service as an OAuth
	// client.
	ClientID     string
	ClientSecret string
}

// Provider performs an uncached refresh-token grant per call.
type Provider struct {
	conf  *oauth2.Config
	store driven.CredentialsStore
}

// NewProvider creates an uncached token provider reading refresh
// tokens from the credentials store.
func NewProvider(cfg Config, store driven.CredentialsStore) *Provider {
	return &Provider{
		conf: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL},
		},
		store: store,
	}
}

// Token exchanges the user's stored refresh token for an access token
// carrying the requested scopes. domain.ErrNotProvisioned propagates
// unchanged so callers can classify it with errors.Is.
func (p *Provider) Token(ctx context.Context, userID string, scopes []string) (domain.AccessToken, error) {
	refresh, err := p.store.RefreshToken(ctx, userID)
	if err != nil {
		return domain.AccessToken{}, err
	}

	sorted := sortedScopes(scopes)

	conf := *p.conf
	conf.Scopes = sorted

	tok, err := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: refresh}).Token()
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && retrieveErr.ErrorCode == "invalid_grant" {
			// The grant was revoked upstream. Drop the stale refresh
			// token so the orchestrator stops scheduling this user.
			if revokeErr := p.store.Revoke(ctx, userID); revokeErr != nil {
				logger.Warn("revoking stale credentials for %s: %v", userID, revokeErr)
			}
			return domain.AccessToken{}, fmt.Errorf("user %s: %w", userID, domain.ErrNotProvisioned)
		}
		return domain.AccessToken{}, fmt.Errorf("token exchange for %s: %w", userID, err)
	}

	return domain.AccessToken{
		UserID: userID,
		Token:  tok.AccessToken,
		Scopes: sorted,
		Expiry: tok.Expiry,
	}, nil
}

// CachedProvider wraps a provider with an expiry-aware cache for
// background requests.
type CachedProvider struct {
	inner driven.TokenProvider
	now   func() time.Time

	mu    sync.Mutex
	cache map[string]domain.AccessToken
}

// NewCachedProvider wraps a token provider with a background cache.
func NewCachedProvider(inner driven.TokenProvider) *CachedProvider {
	return &CachedProvider{
		inner: inner,
		now:   time.Now,
		cache: make(map[string]domain.AccessToken),
	}
}

// Token returns a cached token when one is still comfortably within
// its lifetime, otherwise fetches and caches a fresh one.
func (c *CachedProvider) Token(ctx context.Context, userID string, scopes []string) (domain.AccessToken, error) {
	sorted := sortedScopes(scopes)
	key := userID + "|" + strings.Join(sorted, " ")

	c.mu.Lock()
	cached, ok := c.cache[key]
	c.mu.Unlock()
	if ok && !cached.Expired(c.now().Add(expirySlack)) {
		return cached, nil
	}

	tok, err := c.inner.Token(ctx, userID, sorted)
	if err != nil {
		return domain.AccessToken{}, err
	}

	c.mu.Lock()
	c.cache[key] = tok
	c.mu.Unlock()
	return tok, nil
}

// Invalidate drops all cached tokens for a user, across every scope
// set. Called when a user is deprovisioned.
func (c *CachedProvider) Invalidate(userID string) {
	prefix := userID + "|"
	c.mu.Lock()
	defer c.mu.Unlock()
	for key := range c.cache {
		if strings.HasPrefix(key, prefix) {
			delete(c.cache, key)
		}
	}
}

// sortedScopes copies and sorts the scope set so cache keys and token
// requests are order-independent.
func sortedScopes(scopes []string) []string {
	sorted := make([]string, len(scopes))
	copy(sorted, scopes)
	sort.Strings(sorted)
	return sorted
}
