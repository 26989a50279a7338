package mutate

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"ciaan/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeGate struct {
	user     models.User
	authed   bool
	failures int
}

func (g *fakeGate) Identity() (models.User, bool) { return g.user, g.authed }

func (g *fakeGate) AuthFailed(err error) bool {
	if models.IsUnauthorized(err) {
		g.failures++
		return true
	}
	return false
}

// fakeFeed is a minimal post collection recording applied mutations.
type fakeFeed struct {
	mu    sync.Mutex
	posts []models.Post
	liked map[string]bool
}

func newFakeFeed(posts ...models.Post) *fakeFeed {
	return &fakeFeed{posts: posts, liked: make(map[string]bool)}
}

func (f *fakeFeed) Post(id string) (models.Post, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.posts {
		if p.ID == id {
			return p, true
		}
	}
	return models.Post{}, false
}

func (f *fakeFeed) ApplyLike(id string, likeCount int, isLiked bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].LikeCount = likeCount
		}
	}
	f.liked[id] = isLiked
}

func (f *fakeFeed) ApplyUpdate(post models.Post) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == post.ID {
			f.posts[i].Title = post.Title
			f.posts[i].Content = post.Content
			f.posts[i].UpdatedAt = post.UpdatedAt
		}
	}
}

func (f *fakeFeed) IncrementComments(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.posts {
		if f.posts[i].ID == id {
			f.posts[i].CommentCount++
		}
	}
}

func (f *fakeFeed) RemovePost(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	posts := f.posts[:0]
	for _, p := range f.posts {
		if p.ID != id {
			posts = append(posts, p)
		}
	}
	f.posts = posts
}

type fakeThreads struct {
	mu        sync.Mutex
	prepended map[string][]models.Comment
}

func newFakeThreads() *fakeThreads {
	return &fakeThreads{prepended: make(map[string][]models.Comment)}
}

func (f *fakeThreads) Prepend(postID string, c models.Comment) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prepended[postID] = append([]models.Comment{c}, f.prepended[postID]...)
}

type fakeAPI struct {
	mu           sync.Mutex
	likeCalls    int
	commentCalls int
	updateCalls  int
	deleteCalls  int
	likeFn       func(postID string) (models.LikeResponse, error)
	commentFn    func(postID, content string) (models.Comment, error)
	updateFn     func(postID, title, content string) (models.Post, error)
	deleteErr    error
}

func (f *fakeAPI) ToggleLike(_ context.Context, postID string) (models.LikeResponse, error) {
	f.mu.Lock()
	f.likeCalls++
	f.mu.Unlock()
	if f.likeFn != nil {
		return f.likeFn(postID)
	}
	return models.LikeResponse{}, nil
}

func (f *fakeAPI) AddComment(_ context.Context, postID, content string) (models.Comment, error) {
	f.mu.Lock()
	f.commentCalls++
	f.mu.Unlock()
	if f.commentFn != nil {
		return f.commentFn(postID, content)
	}
	return models.Comment{Content: content}, nil
}

func (f *fakeAPI) UpdatePost(_ context.Context, postID, title, content string) (models.Post, error) {
	f.mu.Lock()
	f.updateCalls++
	f.mu.Unlock()
	if f.updateFn != nil {
		return f.updateFn(postID, title, content)
	}
	return models.Post{ID: postID, Title: title, Content: content}, nil
}

func (f *fakeAPI) DeletePost(context.Context, string) error {
	f.mu.Lock()
	f.deleteCalls++
	f.mu.Unlock()
	return f.deleteErr
}

func TestToggleLikeIsPureOverwrite(t *testing.T) {
	api := &fakeAPI{likeFn: func(string) (models.LikeResponse, error) {
		return models.LikeResponse{LikeCount: 5, IsLiked: true}, nil
	}}
	feed := newFakeFeed(models.Post{ID: "a", LikeCount: 4})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	require.NoError(t, c.ToggleLike(context.Background(), "a"))

	post, _ := feed.Post("a")
	assert.Equal(t, 5, post.LikeCount, "response values, not 4+1 arithmetic")
	assert.True(t, feed.liked["a"])
}

func TestToggleLikeDedupeInFlight(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	api := &fakeAPI{likeFn: func(string) (models.LikeResponse, error) {
		close(entered)
		<-release
		return models.LikeResponse{LikeCount: 1, IsLiked: true}, nil
	}}
	feed := newFakeFeed(models.Post{ID: "a"})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), true, testLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() { defer wg.Done(); _ = c.ToggleLike(context.Background(), "a") }()
	<-entered

	require.NoError(t, c.ToggleLike(context.Background(), "a"), "second press is a no-op")
	close(release)
	wg.Wait()

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 1, api.likeCalls)
}

func TestToggleLikeNewestRequestWins(t *testing.T) {
	releases := map[int]chan struct{}{1: make(chan struct{}), 2: make(chan struct{})}
	responses := map[int]models.LikeResponse{
		1: {LikeCount: 1, IsLiked: true},
		2: {LikeCount: 0, IsLiked: false},
	}
	entered := make(chan struct{}, 2)
	call := 0
	var mu sync.Mutex
	api := &fakeAPI{likeFn: func(string) (models.LikeResponse, error) {
		mu.Lock()
		call++
		n := call
		mu.Unlock()
		entered <- struct{}{}
		<-releases[n]
		return responses[n], nil
	}}
	feed := newFakeFeed(models.Post{ID: "a", LikeCount: 9})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	var wg sync.WaitGroup
	wg.Add(2)
	go func() { defer wg.Done(); _ = c.ToggleLike(context.Background(), "a") }()
	<-entered
	go func() { defer wg.Done(); _ = c.ToggleLike(context.Background(), "a") }()
	<-entered

	// second (newest) response lands first, then the first straggles in
	close(releases[2])
	assert.Eventually(t, func() bool {
		post, _ := feed.Post("a")
		return post.LikeCount == 0
	}, time.Second, time.Millisecond)
	close(releases[1])
	wg.Wait()

	post, _ := feed.Post("a")
	assert.Equal(t, 0, post.LikeCount, "stale first response discarded")
	assert.False(t, feed.liked["a"])
}

func TestAddCommentOptimisticIncrement(t *testing.T) {
	api := &fakeAPI{commentFn: func(postID, content string) (models.Comment, error) {
		return models.Comment{ID: "c9", Content: content}, nil
	}}
	feed := newFakeFeed(models.Post{ID: "a", CommentCount: 2})
	threads := newFakeThreads()
	c := NewCoordinator(api, &fakeGate{}, feed, threads, false, testLogger())

	c.SetCommentDraft("a", "  nice post  ")
	comment, err := c.AddComment(context.Background(), "a")
	require.NoError(t, err)

	post, _ := feed.Post("a")
	assert.Equal(t, 3, post.CommentCount, "exactly one increment")
	require.Len(t, threads.prepended["a"], 1)
	assert.Equal(t, "c9", threads.prepended["a"][0].ID)
	assert.Equal(t, "nice post", comment.Content)
	assert.Empty(t, c.CommentDraft("a"), "draft cleared on success")
}

func TestAddCommentEmptyDraftIsNoOp(t *testing.T) {
	api := &fakeAPI{}
	feed := newFakeFeed(models.Post{ID: "a", CommentCount: 2})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	c.SetCommentDraft("a", "   ")
	_, err := c.AddComment(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, models.IsValidation(err))

	api.mu.Lock()
	defer api.mu.Unlock()
	assert.Equal(t, 0, api.commentCalls)
	post, _ := feed.Post("a")
	assert.Equal(t, 2, post.CommentCount)
}

func TestAddCommentFailurePreservesDraft(t *testing.T) {
	api := &fakeAPI{commentFn: func(string, string) (models.Comment, error) {
		return models.Comment{}, models.NewInternalError(assert.AnError)
	}}
	feed := newFakeFeed(models.Post{ID: "a", CommentCount: 2})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	c.SetCommentDraft("a", "typed text")
	_, err := c.AddComment(context.Background(), "a")
	require.Error(t, err)

	assert.Equal(t, "typed text", c.CommentDraft("a"), "typed text survives failure")
	post, _ := feed.Post("a")
	assert.Equal(t, 2, post.CommentCount, "no half-applied increment")
}

func TestUpdatePostReplacesFromResponse(t *testing.T) {
	updatedAt := time.Now().Add(time.Hour)
	api := &fakeAPI{updateFn: func(postID, title, content string) (models.Post, error) {
		return models.Post{ID: postID, Title: "Server Title", Content: "server content", UpdatedAt: updatedAt}, nil
	}}
	feed := newFakeFeed(models.Post{ID: "a", Title: "Old", Content: "old"})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	require.True(t, c.BeginEdit("a"))
	draft, editing := c.Editing("a")
	require.True(t, editing)
	assert.Equal(t, "Old", draft.Title, "draft seeded from local copy")

	c.SetEditDraft("a", "New", "new content")
	require.NoError(t, c.UpdatePost(context.Background(), "a"))

	post, _ := feed.Post("a")
	assert.Equal(t, "Server Title", post.Title, "response is authoritative")
	assert.Equal(t, updatedAt, post.UpdatedAt)
	_, editing = c.Editing("a")
	assert.False(t, editing, "edit mode exits on success")
}

func TestUpdatePostFailureKeepsEditsOpen(t *testing.T) {
	api := &fakeAPI{updateFn: func(string, string, string) (models.Post, error) {
		return models.Post{}, models.NewInternalError(assert.AnError)
	}}
	feed := newFakeFeed(models.Post{ID: "a", Title: "Old"})
	c := NewCoordinator(api, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	require.True(t, c.BeginEdit("a"))
	c.SetEditDraft("a", "My Edit", "my content")
	require.Error(t, c.UpdatePost(context.Background(), "a"))

	draft, editing := c.Editing("a")
	assert.True(t, editing, "edit mode stays open")
	assert.Equal(t, "My Edit", draft.Title, "edits intact")
	post, _ := feed.Post("a")
	assert.Equal(t, "Old", post.Title)
}

func TestDeletePostRejectsNonAuthorLocally(t *testing.T) {
	api := &fakeAPI{}
	feed := newFakeFeed(models.Post{ID: "a", Author: models.User{ID: "someone-else"}})
	gate := &fakeGate{user: models.User{ID: "me"}, authed: true}
	c := NewCoordinator(api, gate, feed, newFakeThreads(), false, testLogger())

	err := c.DeletePost(context.Background(), "a")
	require.Error(t, err)
	assert.True(t, models.IsForbidden(err))

	api.mu.Lock()
	assert.Equal(t, 0, api.deleteCalls, "zero network calls")
	api.mu.Unlock()
	_, ok := feed.Post("a")
	assert.True(t, ok, "post stays in the list")
}

func TestDeletePostRequiresConfirmRegistration(t *testing.T) {
	api := &fakeAPI{}
	feed := newFakeFeed(models.Post{ID: "a", Author: models.User{ID: "me"}})
	gate := &fakeGate{user: models.User{ID: "me"}, authed: true}
	c := NewCoordinator(api, gate, feed, newFakeThreads(), false, testLogger())

	require.NoError(t, c.DeletePost(context.Background(), "a"))

	api.mu.Lock()
	assert.Equal(t, 0, api.deleteCalls, "no confirm gate registered, no request")
	api.mu.Unlock()
	_, ok := feed.Post("a")
	assert.True(t, ok)
}

func TestDeletePostConfirmGate(t *testing.T) {
	api := &fakeAPI{}
	feed := newFakeFeed(models.Post{ID: "a", Author: models.User{ID: "me"}})
	gate := &fakeGate{user: models.User{ID: "me"}, authed: true}
	c := NewCoordinator(api, gate, feed, newFakeThreads(), false, testLogger())
	c.SetConfirm(func(string) bool { return false })

	require.NoError(t, c.DeletePost(context.Background(), "a"))

	api.mu.Lock()
	assert.Equal(t, 0, api.deleteCalls, "declined confirmation sends nothing")
	api.mu.Unlock()
	_, ok := feed.Post("a")
	assert.True(t, ok)
}

func TestDeletePostRemovesInPlace(t *testing.T) {
	api := &fakeAPI{}
	feed := newFakeFeed(models.Post{ID: "a", Author: models.User{ID: "me"}}, models.Post{ID: "b"})
	gate := &fakeGate{user: models.User{ID: "me"}, authed: true}
	c := NewCoordinator(api, gate, feed, newFakeThreads(), false, testLogger())
	c.SetConfirm(func(string) bool { return true })

	require.NoError(t, c.DeletePost(context.Background(), "a"))

	_, ok := feed.Post("a")
	assert.False(t, ok)
	_, ok = feed.Post("b")
	assert.True(t, ok)
	api.mu.Lock()
	assert.Equal(t, 1, api.deleteCalls)
	api.mu.Unlock()
}

func TestResetDraftsDestroysPerPostState(t *testing.T) {
	feed := newFakeFeed(models.Post{ID: "a", Title: "T"})
	c := NewCoordinator(&fakeAPI{}, &fakeGate{}, feed, newFakeThreads(), false, testLogger())

	c.SetCommentDraft("a", "typed")
	require.True(t, c.BeginEdit("a"))
	c.ResetDrafts()

	assert.Empty(t, c.CommentDraft("a"))
	_, editing := c.Editing("a")
	assert.False(t, editing)
}
