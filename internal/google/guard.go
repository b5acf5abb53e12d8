package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/oauth2"
)

// defaultTokenTTL is applied when the provider omits expires_in on refresh.
const defaultTokenTTL = time.Hour

// ErrAuthExpired indicates that the access token is expired and could not be
// refreshed. The scan cannot proceed and the user must re-run the consent flow.
// This error is never retried.
var ErrAuthExpired = errors.New("google: authorization expired")

// TokenRefresher exchanges a refresh token for a fresh access token.
// The default implementation talks to the Google OAuth endpoint; tests
// substitute a fake.
type TokenRefresher interface {
	Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error)
}

// oauthRefresher refreshes tokens through an oauth2.Config token source.
type oauthRefresher struct {
	conf *oauth2.Config
}

func (r *oauthRefresher) Refresh(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	// Force the token source to consider the access token unusable so it
	// issues a refresh call instead of handing the stale token back.
	stale := &oauth2.Token{
		RefreshToken: token.RefreshToken,
		Expiry:       time.Unix(1, 0),
	}
	return r.conf.TokenSource(ctx, stale).Token()
}

// Guard tracks access-token validity and drives refresh before expiry.
// It is constructed per scan and holds no shared mutable state.
type Guard struct {
	refresher TokenRefresher
	logger    *slog.Logger
	now       func() time.Time
}

// NewGuard creates a Guard that refreshes tokens through the given OAuth config.
func NewGuard(conf *oauth2.Config, logger *slog.Logger) *Guard {
	return NewGuardWithRefresher(&oauthRefresher{conf: conf}, logger)
}

// NewGuardWithRefresher creates a Guard with a custom refresher. Used by tests.
func NewGuardWithRefresher(refresher TokenRefresher, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		refresher: refresher,
		logger:    logger,
		now:       time.Now,
	}
}

// EnsureValid returns a token that is usable for outbound Gmail calls.
// A token with a future expiry is returned unchanged. An expired or
// expiry-less token is refreshed through the provider; if no refresh token is
// present or the provider rejects it, ErrAuthExpired is returned and the scan
// must abort without retrying.
func (g *Guard) EnsureValid(ctx context.Context, token *oauth2.Token) (*oauth2.Token, error) {
	if token == nil {
		return nil, fmt.Errorf("%w: no token supplied", ErrAuthExpired)
	}

	if token.AccessToken != "" && !token.Expiry.IsZero() && token.Expiry.After(g.now()) {
		return token, nil
	}

	if token.RefreshToken == "" {
		return nil, fmt.Errorf("%w: expired token has no refresh token", ErrAuthExpired)
	}

	g.logger.Debug("access token expired, refreshing")

	fresh, err := g.refresher.Refresh(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAuthExpired, err)
	}

	if fresh.Expiry.IsZero() {
		fresh.Expiry = g.now().Add(defaultTokenTTL)
	}
	if fresh.RefreshToken == "" {
		// Providers often omit the refresh token on refresh responses;
		// keep the one we already have so the caller can persist it.
		fresh.RefreshToken = token.RefreshToken
	}

	g.logger.Info("access token refreshed", slog.Time("expires_at", fresh.Expiry))
	return fresh, nil
}
