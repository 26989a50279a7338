package stubserver

import (
	"sync"
	"time"

	"ciaan/models"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type userRecord struct {
	user         models.User
	passwordHash []byte
}

type postRecord struct {
	post     models.Post
	comments []models.Comment // newest first
}

// Store is the in-memory data layer behind the stub API. The feed is
// newest-first; comments within a post are newest-first.
type Store struct {
	mu      sync.Mutex
	users   map[string]*userRecord
	byEmail map[string]string
	posts   []*postRecord
	now     func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:   make(map[string]*userRecord),
		byEmail: make(map[string]string),
		now:     time.Now,
	}
}

// CreateUser registers a user. ok is false when the email is taken.
func (s *Store) CreateUser(firstName, lastName, emailID, password string) (models.User, bool) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return models.User{}, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[emailID]; taken {
		return models.User{}, false
	}
	user := models.User{
		ID:        uuid.NewString(),
		FirstName: firstName,
		LastName:  lastName,
		EmailID:   emailID,
	}
	s.users[user.ID] = &userRecord{user: user, passwordHash: hash}
	s.byEmail[emailID] = user.ID
	return user, true
}

// Authenticate checks credentials.
func (s *Store) Authenticate(emailID, password string) (models.User, bool) {
	s.mu.Lock()
	id, ok := s.byEmail[emailID]
	var rec *userRecord
	if ok {
		rec = s.users[id]
	}
	s.mu.Unlock()
	if rec == nil {
		return models.User{}, false
	}
	if bcrypt.CompareHashAndPassword(rec.passwordHash, []byte(password)) != nil {
		return models.User{}, false
	}
	return rec.user, true
}

// UserByID looks a user up.
func (s *Store) UserByID(id string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[id]
	if !ok {
		return models.User{}, false
	}
	return rec.user, true
}

// UpdateBio replaces a user's bio.
func (s *Store) UpdateBio(userID, bio string) (models.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.users[userID]
	if !ok {
		return models.User{}, false
	}
	rec.user.Bio = bio
	return rec.user, true
}

// CreatePost prepends a post to the feed.
func (s *Store) CreatePost(author models.User, title, content string) models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	post := models.Post{
		ID:        uuid.NewString(),
		Title:     title,
		Content:   content,
		Author:    author,
		CreatedAt: now,
		UpdatedAt: now,
	}
	s.posts = append([]*postRecord{{post: post}}, s.posts...)
	return post
}

// FeedPage returns one page of the newest-first feed with its pagination
// metadata.
func (s *Store) FeedPage(page, limit int) ([]models.Post, models.Pagination) {
	s.mu.Lock()
	defer s.mu.Unlock()
	total := len(s.posts)
	totalPages := 0
	if limit > 0 {
		totalPages = (total + limit - 1) / limit
	}

	start := (page - 1) * limit
	end := start + limit
	if start > total {
		start = total
	}
	if end > total {
		end = total
	}

	items := make([]models.Post, 0, end-start)
	for _, rec := range s.posts[start:end] {
		items = append(items, rec.post)
	}
	return items, models.Pagination{
		CurrentPage: page,
		TotalPages:  totalPages,
		TotalPosts:  total,
		HasNext:     page < totalPages,
		HasPrev:     page > 1,
	}
}

// PostByID looks a post up.
func (s *Store) PostByID(id string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findLocked(id)
	if rec == nil {
		return models.Post{}, false
	}
	return rec.post, true
}

// PostsByAuthor returns a user's posts, newest first.
func (s *Store) PostsByAuthor(userID string) []models.Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	var posts []models.Post
	for _, rec := range s.posts {
		if rec.post.Author.ID == userID {
			posts = append(posts, rec.post)
		}
	}
	return posts
}

// UpdatePost replaces title and content and bumps updatedAt.
func (s *Store) UpdatePost(id, title, content string) (models.Post, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findLocked(id)
	if rec == nil {
		return models.Post{}, false
	}
	rec.post.Title = title
	rec.post.Content = content
	rec.post.UpdatedAt = s.now()
	return rec.post, true
}

// DeletePost removes a post.
func (s *Store) DeletePost(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, rec := range s.posts {
		if rec.post.ID == id {
			s.posts = append(s.posts[:i], s.posts[i+1:]...)
			return true
		}
	}
	return false
}

// ToggleLike flips userID's membership in a post's like set and returns the
// new authoritative count and membership.
func (s *Store) ToggleLike(postID, userID string) (likeCount int, isLiked bool, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findLocked(postID)
	if rec == nil {
		return 0, false, false
	}
	for i, id := range rec.post.LikedBy {
		if id == userID {
			rec.post.LikedBy = append(rec.post.LikedBy[:i], rec.post.LikedBy[i+1:]...)
			rec.post.LikeCount = len(rec.post.LikedBy)
			return rec.post.LikeCount, false, true
		}
	}
	rec.post.LikedBy = append(rec.post.LikedBy, userID)
	rec.post.LikeCount = len(rec.post.LikedBy)
	return rec.post.LikeCount, true, true
}

// Comments returns a post's comments, newest first.
func (s *Store) Comments(postID string) ([]models.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findLocked(postID)
	if rec == nil {
		return nil, false
	}
	return append([]models.Comment(nil), rec.comments...), true
}

// AddComment prepends a comment to a post's thread and bumps its counter.
func (s *Store) AddComment(postID string, author models.User, content string) (models.Comment, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec := s.findLocked(postID)
	if rec == nil {
		return models.Comment{}, false
	}
	comment := models.Comment{
		ID:        uuid.NewString(),
		Author:    author,
		Content:   content,
		CreatedAt: s.now(),
	}
	rec.comments = append([]models.Comment{comment}, rec.comments...)
	rec.post.CommentCount = len(rec.comments)
	return comment, true
}

func (s *Store) findLocked(id string) *postRecord {
	for _, rec := range s.posts {
		if rec.post.ID == id {
			return rec
		}
	}
	return nil
}
