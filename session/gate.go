// Package session tracks the authenticated identity and gates every
// data-bearing view behind it.
package session

import (
	"context"
	"log/slog"
	"sync"

	"ciaan/models"
)

// API is the slice of the transport the gate needs.
type API interface {
	CheckSession(ctx context.Context) (models.User, error)
	Login(ctx context.Context, emailID, password string) (models.User, error)
	Logout(ctx context.Context) error
}

// Gate owns the local identity. Any component that sees an authorization
// failure hands the error to AuthFailed; the gate clears the identity and
// delivers the redirect signal exactly once per failure, no matter how many
// concurrent requests hit a 401 at the same time.
type Gate struct {
	mu         sync.Mutex
	api        API
	log        *slog.Logger
	identity   *models.User
	lastError  string
	redirected bool
	onRedirect func()
}

func New(api API, logger *slog.Logger) *Gate {
	if logger == nil {
		logger = slog.Default()
	}
	return &Gate{api: api, log: logger}
}

// OnRedirect registers the "go to login" signal handler.
func (g *Gate) OnRedirect(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onRedirect = fn
}

// Identity returns the current identity, if any.
func (g *Gate) Identity() (models.User, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.identity == nil {
		return models.User{}, false
	}
	return *g.identity, true
}

// Check refreshes the identity from the service. An authorization failure
// leaves the gate unauthenticated and is routed through AuthFailed like any
// other 401.
func (g *Gate) Check(ctx context.Context) error {
	user, err := g.api.CheckSession(ctx)
	if err != nil {
		g.AuthFailed(err)
		return err
	}
	g.mu.Lock()
	g.identity = &user
	g.redirected = false
	g.lastError = ""
	g.mu.Unlock()
	return nil
}

// Login authenticates. On failure the identity stays unset and the error is
// kept for display via LastError rather than crashing past the call site.
func (g *Gate) Login(ctx context.Context, emailID, password string) error {
	user, err := g.api.Login(ctx, emailID, password)
	if err != nil {
		message := err.Error()
		if models.IsUnauthorized(err) {
			message = "Invalid email or password"
		}
		g.mu.Lock()
		g.lastError = message
		g.mu.Unlock()
		return err
	}
	g.mu.Lock()
	g.identity = &user
	g.redirected = false
	g.lastError = ""
	g.mu.Unlock()
	return nil
}

// LastError returns the login error kept for display, if any.
func (g *Gate) LastError() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastError
}

// Logout clears the identity unconditionally. A failed remote logout is
// logged, never user-visible; the local transition happens either way.
func (g *Gate) Logout(ctx context.Context) {
	if err := g.api.Logout(ctx); err != nil {
		g.log.Warn("remote logout failed", slog.String("error", err.Error()))
	}
	g.mu.Lock()
	g.identity = nil
	g.mu.Unlock()
}

// AuthFailed routes an operation error through the gate. It reports whether
// the error was an authorization failure; if so the identity is cleared and
// the redirect signal fires, at most once until a successful re-login.
func (g *Gate) AuthFailed(err error) bool {
	if !models.IsUnauthorized(err) {
		return false
	}
	g.mu.Lock()
	g.identity = nil
	fire := !g.redirected
	g.redirected = true
	fn := g.onRedirect
	g.mu.Unlock()

	if fire {
		g.log.Info("session invalid, redirecting to login")
		if fn != nil {
			fn()
		}
	}
	return true
}
