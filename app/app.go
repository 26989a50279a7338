// Package app wires the session gate, feed store, comment cache, mutation
// coordinators and profile store into one client engine with a shared
// lifecycle.
package app

import (
	"context"
	"log/slog"

	"ciaan/client"
	"ciaan/comments"
	"ciaan/config"
	"ciaan/feed"
	"ciaan/mutate"
	"ciaan/profile"
	"ciaan/session"
)

// App is the assembled client engine. All stores share one transport (and
// so one session cookie) and one gate; there is no ambient global state.
type App struct {
	Client    *client.Client
	Gate      *session.Gate
	Feed      *feed.Store
	Comments  *comments.Cache
	Mutations *mutate.Coordinator

	Profile          *profile.Store
	ProfileMutations *mutate.Coordinator

	log *slog.Logger
}

func New(cfg *config.Config, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	api, err := client.New(cfg, logger)
	if err != nil {
		return nil, err
	}

	gate := session.New(api, logger)
	store := feed.NewStore(api, gate, cfg.PageSize, logger)
	cache := comments.NewCache(api, gate, logger)
	coordinator := mutate.NewCoordinator(api, gate, store, cache, cfg.LikeDedupe, logger)

	profileStore := profile.NewStore(api, gate, logger)
	profileCoordinator := mutate.NewCoordinator(api, gate, profileStore, nil, cfg.LikeDedupe, logger)

	// Per-post transient state lives exactly as long as the page window.
	store.OnPageChange(func() {
		cache.Reset()
		coordinator.ResetDrafts()
	})

	return &App{
		Client:           api,
		Gate:             gate,
		Feed:             store,
		Comments:         cache,
		Mutations:        coordinator,
		Profile:          profileStore,
		ProfileMutations: profileCoordinator,
		log:              logger,
	}, nil
}

// Start checks the session and, when authenticated, loads the first feed
// page. The returned error is the check error; an unauthenticated start is
// the caller's cue to show the login view.
func (a *App) Start(ctx context.Context) error {
	if err := a.Gate.Check(ctx); err != nil {
		return err
	}
	return a.Feed.LoadPage(ctx, 1)
}

// Login authenticates and brings the feed up on page 1.
func (a *App) Login(ctx context.Context, emailID, password string) error {
	if err := a.Gate.Login(ctx, emailID, password); err != nil {
		return err
	}
	a.Feed.RefreshLiked()
	return a.Feed.LoadPage(ctx, 1)
}

// Logout clears the session locally regardless of the remote result and
// tears down the feed view.
func (a *App) Logout(ctx context.Context) {
	a.Gate.Logout(ctx)
	a.Comments.Reset()
	a.Mutations.ResetDrafts()
}

// Close tears down the engine; in-flight responses are discarded.
func (a *App) Close() {
	a.Feed.Close()
}
