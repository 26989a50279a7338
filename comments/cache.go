// Package comments caches per-post comment threads, loaded lazily on first
// expansion and kept for the lifetime of the current page window.
package comments

import (
	"context"
	"log/slog"
	"sync"

	"ciaan/models"
)

// API is the slice of the transport the cache needs.
type API interface {
	Comments(ctx context.Context, postID string) ([]models.Comment, error)
}

// Session is the slice of the session gate the cache needs.
type Session interface {
	AuthFailed(err error) bool
}

// Thread is the UI-facing state of one post's comments. Loading and Loaded
// are distinct so an indicator can show without implying empty content; an
// empty Items with Loaded set is the valid "no comments" terminal state.
type Thread struct {
	Expanded bool
	Loaded   bool
	Loading  bool
	Items    []models.Comment
}

type thread struct {
	expanded bool
	loaded   bool
	loading  bool
	items    []models.Comment
}

// Cache holds the threads for the current page window. Reset discards
// everything wholesale on page change; responses from before a reset are
// ignored.
type Cache struct {
	mu      sync.Mutex
	api     API
	gate    Session
	log     *slog.Logger
	threads map[string]*thread
	gen     uint64
}

func NewCache(api API, gate Session, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{api: api, gate: gate, log: logger, threads: make(map[string]*thread)}
}

// Expand makes a thread visible and fetches it if it has never been loaded
// in this page window. Repeated expand/collapse cycles never re-fetch.
func (c *Cache) Expand(ctx context.Context, postID string) error {
	c.mu.Lock()
	t := c.ensureLocked(postID)
	t.expanded = true
	if t.loaded || t.loading {
		c.mu.Unlock()
		return nil
	}
	t.loading = true
	gen := c.gen
	c.mu.Unlock()

	items, err := c.api.Comments(ctx, postID)

	c.mu.Lock()
	if gen != c.gen {
		// page window changed while loading; the thread is gone
		c.mu.Unlock()
		return nil
	}
	t.loading = false
	if err != nil {
		c.mu.Unlock()
		if c.gate != nil && c.gate.AuthFailed(err) {
			return err
		}
		c.log.Error("comment load failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return err
	}
	t.loaded = true
	t.items = items
	c.mu.Unlock()
	return nil
}

// Collapse hides a thread without discarding loaded comments.
func (c *Cache) Collapse(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.threads[postID]; ok {
		t.expanded = false
	}
}

// Thread returns a snapshot of a post's thread state.
func (c *Cache) Thread(postID string) Thread {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.threads[postID]
	if !ok {
		return Thread{}
	}
	return Thread{
		Expanded: t.expanded,
		Loaded:   t.loaded,
		Loading:  t.loading,
		Items:    append([]models.Comment(nil), t.items...),
	}
}

// Prepend inserts a freshly added comment at the head of a loaded thread.
// Threads are ordered newest-first.
func (c *Cache) Prepend(postID string, comment models.Comment) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.threads[postID]
	if !ok || !t.loaded {
		return
	}
	t.items = append([]models.Comment{comment}, t.items...)
}

// Reset discards all thread state. Called on page change.
func (c *Cache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.threads = make(map[string]*thread)
}

func (c *Cache) ensureLocked(postID string) *thread {
	t, ok := c.threads[postID]
	if !ok {
		t = &thread{}
		c.threads[postID] = t
	}
	return t
}
