package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"ciaan/models"
)

// RegisterRequest is the body of POST /user/register.
type RegisterRequest struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	EmailID   string `json:"emailId"`
	Password  string `json:"password"`
}

// CheckSession asks the service whether the cookie in the jar still maps to
// an authenticated identity.
func (c *Client) CheckSession(ctx context.Context) (models.User, error) {
	var resp models.UserResponse
	if err := c.do(ctx, http.MethodGet, "/user/check", nil, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Login authenticates and stores the session cookie in the jar.
func (c *Client) Login(ctx context.Context, emailID, password string) (models.User, error) {
	body := map[string]string{"emailId": emailID, "password": password}
	var resp models.UserResponse
	if err := c.do(ctx, http.MethodPost, "/user/login", body, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Register creates an account and logs it in.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (models.User, error) {
	var resp models.UserResponse
	if err := c.do(ctx, http.MethodPost, "/user/register", req, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}

// Logout invalidates the session server-side. Callers clear local identity
// regardless of the result.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/user/logout", nil, nil)
}

// Feed fetches one page of posts. The t parameter is a cache-buster the
// service's CDN configuration expects.
func (c *Client) Feed(ctx context.Context, page, limit int) (models.FeedResponse, error) {
	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))
	query.Set("t", strconv.FormatInt(time.Now().UnixMilli(), 10))

	var resp models.FeedResponse
	if err := c.do(ctx, http.MethodGet, "/post/feed?"+query.Encode(), nil, &resp); err != nil {
		return models.FeedResponse{}, err
	}
	return resp, nil
}

// CreatePost publishes a new post. The response body carries nothing the
// client uses; the feed is re-fetched afterwards instead.
func (c *Client) CreatePost(ctx context.Context, title, content string) error {
	body := map[string]string{"title": title, "content": content}
	return c.do(ctx, http.MethodPost, "/post/create", body, nil)
}

// ToggleLike flips the caller's like on a post and returns the authoritative
// new count and membership.
func (c *Client) ToggleLike(ctx context.Context, postID string) (models.LikeResponse, error) {
	var resp models.LikeResponse
	path := fmt.Sprintf("/post/%s/like", url.PathEscape(postID))
	if err := c.do(ctx, http.MethodPost, path, nil, &resp); err != nil {
		return models.LikeResponse{}, err
	}
	return resp, nil
}

// Comments lists a post's comments, newest first.
func (c *Client) Comments(ctx context.Context, postID string) ([]models.Comment, error) {
	var resp models.CommentsResponse
	path := fmt.Sprintf("/post/%s/comments", url.PathEscape(postID))
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}
	return resp.Comments, nil
}

// AddComment posts a comment and returns the stored comment.
func (c *Client) AddComment(ctx context.Context, postID, content string) (models.Comment, error) {
	var resp models.CommentResponse
	path := fmt.Sprintf("/post/%s/comment", url.PathEscape(postID))
	if err := c.do(ctx, http.MethodPost, path, map[string]string{"content": content}, &resp); err != nil {
		return models.Comment{}, err
	}
	return resp.Comment, nil
}

// UpdatePost replaces a post's title and content and returns the stored post.
func (c *Client) UpdatePost(ctx context.Context, postID, title, content string) (models.Post, error) {
	var resp models.PostResponse
	path := "/post/" + url.PathEscape(postID)
	body := map[string]string{"title": title, "content": content}
	if err := c.do(ctx, http.MethodPut, path, body, &resp); err != nil {
		return models.Post{}, err
	}
	return resp.Post, nil
}

// DeletePost removes a post.
func (c *Client) DeletePost(ctx context.Context, postID string) error {
	return c.do(ctx, http.MethodDelete, "/post/"+url.PathEscape(postID), nil, nil)
}

// Profile fetches a user's identity and posts.
func (c *Client) Profile(ctx context.Context, userID string) (models.ProfileResponse, error) {
	var resp models.ProfileResponse
	path := "/users/profile/" + url.PathEscape(userID)
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return models.ProfileResponse{}, err
	}
	return resp, nil
}

// UpdateProfile updates the logged-in user's bio and returns the stored user.
func (c *Client) UpdateProfile(ctx context.Context, bio string) (models.User, error) {
	var resp models.UserResponse
	if err := c.do(ctx, http.MethodPut, "/users/profileupdate", map[string]string{"bio": bio}, &resp); err != nil {
		return models.User{}, err
	}
	return resp.User, nil
}
