package models

import "time"

// Post is a feed entry. Like and comment counters are server-authoritative
// and mirrored locally for display; LikedBy carries the membership set the
// liked state is derived from.
type Post struct {
	ID           string    `json:"_id"`
	Title        string    `json:"title"`
	Content      string    `json:"content"`
	Author       User      `json:"author"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	LikeCount    int       `json:"likeCount"`
	CommentCount int       `json:"commentCount"`
	LikedBy      []string  `json:"likedBy,omitempty"`
}

// Edited reports whether the post has been modified since creation.
func (p Post) Edited() bool {
	return !p.UpdatedAt.IsZero() && !p.UpdatedAt.Equal(p.CreatedAt)
}

// LikedByUser reports whether userID appears in the post's like membership.
func (p Post) LikedByUser(userID string) bool {
	for _, id := range p.LikedBy {
		if id == userID {
			return true
		}
	}
	return false
}
