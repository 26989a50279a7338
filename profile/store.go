// Package profile holds the state of one user's profile view: their
// identity plus their posts. It satisfies mutate.Feed so the coordinator
// can drive edits and deletes on the profile's post list with the same
// semantics as the feed.
package profile

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ciaan/models"
)

// API is the slice of the transport the store needs.
type API interface {
	Profile(ctx context.Context, userID string) (models.ProfileResponse, error)
	UpdateProfile(ctx context.Context, bio string) (models.User, error)
}

// Session is the slice of the session gate the store needs.
type Session interface {
	Identity() (models.User, bool)
	AuthFailed(err error) bool
}

// Store is the profile view state. An unknown user is a terminal NotFound
// state, rendered explicitly rather than as an empty or loading view.
type Store struct {
	mu   sync.Mutex
	api  API
	gate Session
	log  *slog.Logger

	userID   string
	user     *models.User
	posts    []models.Post
	notFound bool
	loading  bool
	gen      uint64

	bioDraft   string
	editingBio bool
}

func NewStore(api API, gate Session, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{api: api, gate: gate, log: logger}
}

// Load fetches the profile for userID. A stale response (superseded by a
// newer Load) is discarded.
func (s *Store) Load(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.gen++
	gen := s.gen
	s.loading = true
	s.mu.Unlock()

	resp, err := s.api.Profile(ctx, userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return nil
	}
	s.loading = false
	if err != nil {
		if models.IsNotFound(err) {
			s.userID = userID
			s.user = nil
			s.posts = nil
			s.notFound = true
			return err
		}
		if s.gate.AuthFailed(err) {
			return err
		}
		s.log.Error("profile load failed", slog.String("user_id", userID), slog.String("error", err.Error()))
		return err
	}

	s.userID = userID
	s.user = &resp.User
	s.posts = resp.Posts
	s.notFound = false
	s.bioDraft = resp.User.Bio
	return nil
}

// User returns the loaded profile identity.
func (s *Store) User() (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return models.User{}, false
	}
	return *s.user, true
}

// Posts returns a snapshot of the profile's posts.
func (s *Store) Posts() []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.Post(nil), s.posts...)
}

// NotFound reports the terminal "profile not found" state.
func (s *Store) NotFound() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notFound
}

// Loading reports whether a profile load is in flight.
func (s *Store) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// IsSelf reports whether the loaded profile belongs to the current identity.
func (s *Store) IsSelf() bool {
	s.mu.Lock()
	user := s.user
	s.mu.Unlock()
	if user == nil {
		return false
	}
	me, ok := s.gate.Identity()
	return ok && me.ID == user.ID
}

// BeginEditBio enters bio edit mode, seeding the draft from the loaded bio.
func (s *Store) BeginEditBio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user != nil {
		s.bioDraft = s.user.Bio
	}
	s.editingBio = true
}

// SetBioDraft updates the bio draft.
func (s *Store) SetBioDraft(bio string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bioDraft = bio
}

// BioDraft returns the bio draft.
func (s *Store) BioDraft() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bioDraft
}

// CancelEditBio leaves bio edit mode without saving.
func (s *Store) CancelEditBio() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.editingBio = false
}

// EditingBio reports whether the bio editor is open.
func (s *Store) EditingBio() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.editingBio
}

// UpdateBio saves the bio draft, then re-fetches the whole profile rather
// than trusting the PUT response. On failure the editor stays open with the
// draft intact.
func (s *Store) UpdateBio(ctx context.Context) error {
	s.mu.Lock()
	bio := strings.TrimSpace(s.bioDraft)
	userID := s.userID
	s.mu.Unlock()

	if _, err := s.api.UpdateProfile(ctx, bio); err != nil {
		if s.gate.AuthFailed(err) {
			return err
		}
		s.log.Error("profile update failed", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.editingBio = false
	s.mu.Unlock()
	return s.Load(ctx, userID)
}

// Post returns the post with the given id from the profile list.
func (s *Store) Post(id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

// ApplyLike overwrites a post's like count and membership from a response.
func (s *Store) ApplyLike(id string, likeCount int, isLiked bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	me, ok := s.gate.Identity()
	for i := range s.posts {
		p := &s.posts[i]
		if p.ID != id {
			continue
		}
		p.LikeCount = likeCount
		if ok {
			// fresh slice so Posts snapshots never share the backing array
			filtered := make([]string, 0, len(p.LikedBy))
			for _, v := range p.LikedBy {
				if v != me.ID {
					filtered = append(filtered, v)
				}
			}
			if isLiked {
				filtered = append(filtered, me.ID)
			}
			p.LikedBy = filtered
		}
		return
	}
}

// ApplyUpdate replaces a post's title, content and updatedAt from a
// response.
func (s *Store) ApplyUpdate(post models.Post) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID != post.ID {
			continue
		}
		s.posts[i].Title = post.Title
		s.posts[i].Content = post.Content
		s.posts[i].UpdatedAt = post.UpdatedAt
		return
	}
}

// IncrementComments bumps a post's comment counter by one.
func (s *Store) IncrementComments(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.posts {
		if s.posts[i].ID == id {
			s.posts[i].CommentCount++
			return
		}
	}
}

// RemovePost drops a post from the profile list in place.
func (s *Store) RemovePost(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	posts := s.posts[:0]
	for _, p := range s.posts {
		if p.ID != id {
			posts = append(posts, p)
		}
	}
	s.posts = posts
}
