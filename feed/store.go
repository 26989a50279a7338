// Package feed holds the single materialized page of the post feed and its
// pagination metadata. Exactly one page window exists at a time: changing
// page discards the previous window and re-fetches.
package feed

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ciaan/models"
)

// API is the slice of the transport the store needs.
type API interface {
	Feed(ctx context.Context, page, limit int) (models.FeedResponse, error)
	CreatePost(ctx context.Context, title, content string) error
}

// Session is the slice of the session gate the store needs.
type Session interface {
	Identity() (models.User, bool)
	AuthFailed(err error) bool
}

// Window is the currently materialized slice of the feed.
type Window struct {
	PageNumber int
	PageSize   int
	TotalPages int
	TotalPosts int
	HasNext    bool
	HasPrev    bool
	Items      []models.Post
}

// Showing returns the 1-based bounds of the "showing X-Y of Z" summary line.
func (w Window) Showing() (from, to int) {
	if w.TotalPosts == 0 {
		return 0, 0
	}
	from = (w.PageNumber-1)*w.PageSize + 1
	to = w.PageNumber * w.PageSize
	if to > w.TotalPosts {
		to = w.TotalPosts
	}
	return from, to
}

// Draft is the transient new-post form state.
type Draft struct {
	Title   string
	Content string
}

// Store orchestrates page loads and owns the window. In-flight responses are
// tagged with a generation counter: only the most recently issued request may
// mutate state, and nothing mutates state after Close.
type Store struct {
	mu       sync.Mutex
	api      API
	gate     Session
	log      *slog.Logger
	pageSize int

	window  Window
	liked   map[string]bool
	loading bool
	gen     uint64
	closed  bool

	draft      Draft
	createOpen bool

	scrollToTop  func()
	onPageChange func()
}

func NewStore(api API, gate Session, pageSize int, logger *slog.Logger) *Store {
	if pageSize <= 0 {
		pageSize = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		api:      api,
		gate:     gate,
		log:      logger,
		pageSize: pageSize,
		liked:    make(map[string]bool),
	}
}

// OnScrollToTop registers the cosmetic scroll side effect fired after a
// successful page change.
func (s *Store) OnScrollToTop(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scrollToTop = fn
}

// OnPageChange registers the teardown hook fired when the window moves to a
// different page number. Per-post transient state (comment threads, drafts)
// is destroyed wholesale there.
func (s *Store) OnPageChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPageChange = fn
}

// Window returns a snapshot of the current page window.
func (s *Store) Window() Window {
	s.mu.Lock()
	defer s.mu.Unlock()
	w := s.window
	w.Items = append([]models.Post(nil), s.window.Items...)
	return w
}

// Loading reports whether a page load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// Post returns the post with the given id from the current window.
func (s *Store) Post(id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.window.Items {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// Liked reports whether the current identity likes the given post, derived
// from the post's membership set on every window or identity change.
func (s *Store) Liked(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.liked[id]
}

// LoadPage fetches page n and installs it as the window. A response that
// arrives after a newer request, or after Close, is discarded without
// touching state; a fetch failure leaves the previous window in place.
func (s *Store) LoadPage(ctx context.Context, n int) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.gen++
	gen := s.gen
	s.loading = true
	limit := s.pageSize
	s.mu.Unlock()

	resp, err := s.api.Feed(ctx, n, limit)

	s.mu.Lock()
	if s.closed || gen != s.gen {
		s.mu.Unlock()
		return nil
	}
	s.loading = false
	if err != nil {
		s.mu.Unlock()
		if s.gate.AuthFailed(err) {
			return err
		}
		s.log.Error("feed load failed", slog.Int("page", n), slog.String("error", err.Error()))
		return err
	}

	pageChanged := s.window.PageNumber != 0 && s.window.PageNumber != n
	s.window = Window{
		PageNumber: n,
		PageSize:   limit,
		TotalPages: resp.Pagination.TotalPages,
		TotalPosts: resp.Pagination.TotalPosts,
		HasNext:    resp.Pagination.HasNext,
		HasPrev:    resp.Pagination.HasPrev,
		Items:      resp.Posts,
	}
	s.recomputeLikedLocked()
	hook := s.onPageChange
	s.mu.Unlock()

	if pageChanged && hook != nil {
		hook()
	}
	return nil
}

// GoToPage is a no-op unless n is in range and differs from the current
// page. On success the scroll-to-top side effect fires.
func (s *Store) GoToPage(ctx context.Context, n int) error {
	s.mu.Lock()
	current := s.window.PageNumber
	total := s.window.TotalPages
	scroll := s.scrollToTop
	s.mu.Unlock()

	if n < 1 || n > total || n == current {
		return nil
	}
	if err := s.LoadPage(ctx, n); err != nil {
		return err
	}
	if scroll != nil {
		scroll()
	}
	return nil
}

// OpenCreate opens the new-post affordance.
func (s *Store) OpenCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createOpen = true
}

// CloseCreate closes the affordance and destroys the draft.
func (s *Store) CloseCreate() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createOpen = false
	s.draft = Draft{}
}

// CreateOpen reports whether the new-post affordance is open.
func (s *Store) CreateOpen() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createOpen
}

// SetDraft updates the new-post draft.
func (s *Store) SetDraft(title, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.draft = Draft{Title: title, Content: content}
}

// Draft returns the new-post draft.
func (s *Store) Draft() Draft {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft
}

// CreatePost publishes the draft. Empty title or content after trimming is
// rejected before any request is sent. On success the draft is cleared, the
// affordance closed, and page 1 re-fetched: a new post invalidates the whole
// pagination window under newest-first ordering.
func (s *Store) CreatePost(ctx context.Context) error {
	s.mu.Lock()
	title := strings.TrimSpace(s.draft.Title)
	content := strings.TrimSpace(s.draft.Content)
	s.mu.Unlock()

	if title == "" || content == "" {
		return models.NewValidationError("Title and content are required")
	}

	if err := s.api.CreatePost(ctx, title, content); err != nil {
		if s.gate.AuthFailed(err) {
			return err
		}
		s.log.Error("create post failed", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.draft = Draft{}
	s.createOpen = false
	s.mu.Unlock()

	return s.LoadPage(ctx, 1)
}

// ApplyLike overwrites a post's like count and membership from a like
// response. Never incremental: the response is the sole source of truth.
func (s *Store) ApplyLike(postID string, likeCount int, isLiked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	userID := ""
	if s.gate != nil {
		if user, ok := s.gate.Identity(); ok {
			userID = user.ID
		}
	}
	for i := range s.window.Items {
		p := &s.window.Items[i]
		if p.ID != postID {
			continue
		}
		p.LikeCount = likeCount
		if userID != "" {
			p.LikedBy = removeID(p.LikedBy, userID)
			if isLiked {
				p.LikedBy = append(p.LikedBy, userID)
			}
		}
		s.liked[postID] = isLiked
		return
	}
}

// ApplyUpdate replaces a post's title, content and updatedAt from an
// authoritative update response.
func (s *Store) ApplyUpdate(post models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.window.Items {
		if s.window.Items[i].ID != post.ID {
			continue
		}
		s.window.Items[i].Title = post.Title
		s.window.Items[i].Content = post.Content
		s.window.Items[i].UpdatedAt = post.UpdatedAt
		return
	}
}

// IncrementComments bumps a post's comment counter by one after a
// successful comment add. Comment count has no cheap refresh call, so this
// is the one true optimistic increment in the engine.
func (s *Store) IncrementComments(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.window.Items {
		if s.window.Items[i].ID == postID {
			s.window.Items[i].CommentCount++
			return
		}
	}
}

// RemovePost drops a post from the window in place. Pagination totals are
// accepted as briefly stale until the next page load.
func (s *Store) RemovePost(postID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.window.Items[:0]
	for _, p := range s.window.Items {
		if p.ID != postID {
			items = append(items, p)
		}
	}
	s.window.Items = items
	delete(s.liked, postID)
}

// RefreshLiked recomputes the derived like membership, needed when the
// identity changes under an existing window.
func (s *Store) RefreshLiked() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recomputeLikedLocked()
}

// Close tears the store down. Any in-flight response is discarded and no
// further state changes occur.
func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

func (s *Store) recomputeLikedLocked() {
	s.liked = make(map[string]bool, len(s.window.Items))
	userID := ""
	if s.gate != nil {
		if user, ok := s.gate.Identity(); ok {
			userID = user.ID
		}
	}
	if userID == "" {
		return
	}
	for _, p := range s.window.Items {
		if p.LikedByUser(userID) {
			s.liked[p.ID] = true
		}
	}
}

// removeID builds a fresh slice so membership rewrites never touch a backing
// array shared with Window snapshots.
func removeID(ids []string, id string) []string {
	out := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}
