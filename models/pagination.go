package models

// Pagination is the metadata block the service returns alongside a feed page.
type Pagination struct {
	CurrentPage int  `json:"currentPage"`
	TotalPages  int  `json:"totalPages"`
	TotalPosts  int  `json:"totalPosts"`
	HasNext     bool `json:"hasNext"`
	HasPrev     bool `json:"hasPrev"`
}

// FeedResponse is the body of GET /post/feed.
type FeedResponse struct {
	Posts      []Post     `json:"posts"`
	Pagination Pagination `json:"pagination"`
}

// LikeResponse is the body of POST /post/:id/like. It is the sole source of
// truth for the new count and membership; the client never increments
// speculatively.
type LikeResponse struct {
	LikeCount int  `json:"likeCount"`
	IsLiked   bool `json:"isLiked"`
}

// CommentsResponse is the body of GET /post/:id/comments.
type CommentsResponse struct {
	Comments []Comment `json:"comments"`
}

// CommentResponse is the body of POST /post/:id/comment.
type CommentResponse struct {
	Comment Comment `json:"comment"`
}

// PostResponse is the body of PUT /post/:id.
type PostResponse struct {
	Post Post `json:"post"`
}

// UserResponse is the body of GET /user/check and POST /user/login.
type UserResponse struct {
	User User `json:"user"`
}

// ProfileResponse is the body of GET /users/profile/:userId.
type ProfileResponse struct {
	User  User   `json:"user"`
	Posts []Post `json:"posts"`
}
