// Package mutate coordinates post and comment mutations against the service.
// Each mutation kind has its own, deliberately distinct reconciliation
// strategy: like-toggle replaces local state from the response, comment-add
// is a true optimistic increment, edit replaces from the response, delete
// removes in place.
package mutate

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"ciaan/models"
)

// API is the slice of the transport the coordinator needs.
type API interface {
	ToggleLike(ctx context.Context, postID string) (models.LikeResponse, error)
	AddComment(ctx context.Context, postID, content string) (models.Comment, error)
	UpdatePost(ctx context.Context, postID, title, content string) (models.Post, error)
	DeletePost(ctx context.Context, postID string) error
}

// Feed is the post collection the coordinator mutates. Both the feed store
// and the profile store satisfy it.
type Feed interface {
	Post(id string) (models.Post, bool)
	ApplyLike(id string, likeCount int, isLiked bool)
	ApplyUpdate(post models.Post)
	IncrementComments(id string)
	RemovePost(id string)
}

// Threads receives successfully added comments.
type Threads interface {
	Prepend(postID string, comment models.Comment)
}

// Session is the slice of the session gate the coordinator needs.
type Session interface {
	Identity() (models.User, bool)
	AuthFailed(err error) bool
}

// EditDraft is the transient per-post edit form state.
type EditDraft struct {
	Title   string
	Content string
}

// Coordinator applies local-first updates and reconciles them against
// server responses. Drafts are keyed by post id and scoped to the current
// page window; ResetDrafts destroys them wholesale on page change.
type Coordinator struct {
	mu      sync.Mutex
	api     API
	gate    Session
	feed    Feed
	threads Threads
	log     *slog.Logger

	// dedupeLikes selects between the two like-toggle concurrency policies:
	// drop a toggle while one is in flight, or allow concurrent toggles and
	// let the newest request's response win.
	dedupeLikes  bool
	likeGen      map[string]uint64
	likeInFlight map[string]int

	commentDrafts map[string]string
	edits         map[string]EditDraft

	confirm func(prompt string) bool
}

func NewCoordinator(api API, gate Session, feed Feed, threads Threads, dedupeLikes bool, logger *slog.Logger) *Coordinator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Coordinator{
		api:           api,
		gate:          gate,
		feed:          feed,
		threads:       threads,
		log:           logger,
		dedupeLikes:   dedupeLikes,
		likeGen:       make(map[string]uint64),
		likeInFlight:  make(map[string]int),
		commentDrafts: make(map[string]string),
		edits:         make(map[string]EditDraft),
	}
}

// SetConfirm registers the synchronous yes/no gate asked before a delete.
// Deletes are refused until one is registered.
func (c *Coordinator) SetConfirm(fn func(prompt string) bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.confirm = fn
}

// ToggleLike is a single round trip; the response is the sole source of
// truth for the new count and membership, never an increment. With
// concurrent toggles on one post, only the most recently issued request's
// response is applied.
func (c *Coordinator) ToggleLike(ctx context.Context, postID string) error {
	c.mu.Lock()
	if c.dedupeLikes && c.likeInFlight[postID] > 0 {
		c.mu.Unlock()
		return nil
	}
	c.likeInFlight[postID]++
	c.likeGen[postID]++
	gen := c.likeGen[postID]
	c.mu.Unlock()

	resp, err := c.api.ToggleLike(ctx, postID)

	c.mu.Lock()
	c.likeInFlight[postID]--
	stale := gen != c.likeGen[postID]
	c.mu.Unlock()

	if err != nil {
		if c.gate.AuthFailed(err) {
			return err
		}
		c.log.Error("like toggle failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return err
	}
	if stale {
		return nil
	}
	c.feed.ApplyLike(postID, resp.LikeCount, resp.IsLiked)
	return nil
}

// SetCommentDraft stores the typed comment text for a post.
func (c *Coordinator) SetCommentDraft(postID, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commentDrafts[postID] = content
}

// CommentDraft returns the typed comment text for a post.
func (c *Coordinator) CommentDraft(postID string) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commentDrafts[postID]
}

// AddComment submits the post's comment draft. Empty content after trimming
// is rejected before any request. On success the comment is prepended to
// the loaded thread, the post's counter incremented by exactly one, and the
// draft cleared; on failure the draft is preserved so typed text survives.
func (c *Coordinator) AddComment(ctx context.Context, postID string) (models.Comment, error) {
	c.mu.Lock()
	content := strings.TrimSpace(c.commentDrafts[postID])
	c.mu.Unlock()

	if content == "" {
		return models.Comment{}, models.NewValidationError("Comment content is required")
	}

	comment, err := c.api.AddComment(ctx, postID, content)
	if err != nil {
		if c.gate.AuthFailed(err) {
			return models.Comment{}, err
		}
		c.log.Error("add comment failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return models.Comment{}, err
	}

	if c.threads != nil {
		c.threads.Prepend(postID, comment)
	}
	c.feed.IncrementComments(postID)

	c.mu.Lock()
	delete(c.commentDrafts, postID)
	c.mu.Unlock()
	return comment, nil
}

// BeginEdit enters edit mode for a post, seeding the draft from the current
// local copy.
func (c *Coordinator) BeginEdit(postID string) bool {
	post, ok := c.feed.Post(postID)
	if !ok {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.edits[postID] = EditDraft{Title: post.Title, Content: post.Content}
	return true
}

// SetEditDraft updates the edit draft for a post already in edit mode.
func (c *Coordinator) SetEditDraft(postID, title, content string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.edits[postID]; ok {
		c.edits[postID] = EditDraft{Title: title, Content: content}
	}
}

// Editing returns the edit draft and whether the post is in edit mode.
func (c *Coordinator) Editing(postID string) (EditDraft, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.edits[postID]
	return d, ok
}

// CancelEdit leaves edit mode and destroys the draft.
func (c *Coordinator) CancelEdit(postID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.edits, postID)
}

// UpdatePost submits the edit draft. On success the local post's title,
// content and updatedAt are replaced from the response and edit mode exits.
// On failure edit mode stays open with the user's edits intact and the
// error is returned for inline display.
func (c *Coordinator) UpdatePost(ctx context.Context, postID string) error {
	c.mu.Lock()
	draft, ok := c.edits[postID]
	c.mu.Unlock()
	if !ok {
		return models.NewValidationError("post is not being edited")
	}

	title := strings.TrimSpace(draft.Title)
	content := strings.TrimSpace(draft.Content)
	if title == "" || content == "" {
		return models.NewValidationError("Title and content are required")
	}

	post, err := c.api.UpdatePost(ctx, postID, title, content)
	if err != nil {
		if c.gate.AuthFailed(err) {
			return err
		}
		c.log.Error("update post failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return err
	}

	c.feed.ApplyUpdate(post)
	c.mu.Lock()
	delete(c.edits, postID)
	c.mu.Unlock()
	return nil
}

// DeletePost removes a post. The invoking identity must be the post's
// author; a mismatch is rejected locally with zero network calls. The
// confirm gate runs before the request fires, and a coordinator without a
// registered confirm function refuses the delete outright. On success the
// post is removed from the window in place, with no re-fetch.
func (c *Coordinator) DeletePost(ctx context.Context, postID string) error {
	post, ok := c.feed.Post(postID)
	if !ok {
		return models.NewNotFoundError("Post", postID)
	}
	user, authed := c.gate.Identity()
	if !authed || user.ID != post.Author.ID {
		return models.NewForbiddenError("You can only delete your own posts")
	}

	c.mu.Lock()
	confirm := c.confirm
	c.mu.Unlock()
	if confirm == nil || !confirm("Are you sure you want to delete this post?") {
		return nil
	}

	if err := c.api.DeletePost(ctx, postID); err != nil {
		if c.gate.AuthFailed(err) {
			return err
		}
		c.log.Error("delete post failed", slog.String("post_id", postID), slog.String("error", err.Error()))
		return err
	}

	c.feed.RemovePost(postID)
	c.mu.Lock()
	delete(c.edits, postID)
	delete(c.commentDrafts, postID)
	c.mu.Unlock()
	return nil
}

// ResetDrafts destroys all per-post transient state. Called on page change.
func (c *Coordinator) ResetDrafts() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.commentDrafts = make(map[string]string)
	c.edits = make(map[string]EditDraft)
}
