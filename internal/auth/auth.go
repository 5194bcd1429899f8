// Package auth verifies the shared admin secret and mints sessions.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"time"

	"github.com/harlan/vitrin/internal/apperr"
	"github.com/harlan/vitrin/internal/ratelimit"
	"github.com/harlan/vitrin/internal/session"
)

// Defaults for the login rate limit window.
const (
	DefaultMaxAttempts = 5
	DefaultWindow      = time.Minute
)

// Authenticator gates the constant-time secret comparison behind the
// rate limiter and issues session tokens on success.
type Authenticator struct {
	secret      string
	limiter     *ratelimit.Limiter
	sessions    *session.Manager
	logger      *slog.Logger
	maxAttempts int
	window      time.Duration
}

// New creates an Authenticator. maxAttempts/window fall back to the
// package defaults when zero.
func New(secret string, limiter *ratelimit.Limiter, sessions *session.Manager, logger *slog.Logger, maxAttempts int, window time.Duration) *Authenticator {
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if window <= 0 {
		window = DefaultWindow
	}
	return &Authenticator{
		secret:      secret,
		limiter:     limiter,
		sessions:    sessions,
		logger:      logger,
		maxAttempts: maxAttempts,
		window:      window,
	}
}

// LoginResult is returned on successful authentication.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
}

// Login checks the rate limit for clientIP, then compares provided
// against the configured secret in constant time. The limiter runs
// first so lockout cannot be bypassed by racing requests; the
// comparison uses fixed-length SHA-256 digests so equality never
// short-circuits on a prefix match.
//
// The returned error is one of apperr.ErrRateLimited (with the limiter
// result available via RetryAfter), apperr.ErrMisconfiguredSecret, or
// apperr.ErrUnauthorized. Callers must present ErrMisconfiguredSecret
// identically to ErrUnauthorized.
func (a *Authenticator) Login(clientIP, provided string) (*LoginResult, ratelimit.Result, error) {
	key := "login:" + clientIP
	res := a.limiter.Check(key, a.maxAttempts, a.window)
	if !res.Allowed {
		a.logger.Warn("login rate limited",
			slog.String("ip", clientIP),
			slog.Duration("retry_after", res.RetryAfter))
		return nil, res, apperr.ErrRateLimited
	}

	if a.secret == "" {
		a.logger.Error("admin secret is not configured; rejecting login",
			slog.String("ip", clientIP))
		return nil, res, apperr.ErrMisconfiguredSecret
	}

	want := sha256.Sum256([]byte(a.secret))
	got := sha256.Sum256([]byte(provided))
	if subtle.ConstantTimeCompare(want[:], got[:]) != 1 {
		a.logger.Warn("login failed", slog.String("ip", clientIP))
		return nil, res, apperr.ErrUnauthorized
	}

	// Successful auth clears earlier failures for this client.
	a.limiter.Reset(key)

	token, expires, err := a.sessions.Issue()
	if err != nil {
		return nil, res, fmt.Errorf("issue session: %w", err)
	}
	a.logger.Info("admin login", slog.String("ip", clientIP))
	return &LoginResult{Token: token, ExpiresAt: expires}, res, nil
}
