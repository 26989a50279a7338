package models

import "time"

// Comment belongs to exactly one post. Threads are ordered newest-first.
type Comment struct {
	ID        string    `json:"_id"`
	Author    User      `json:"author"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
}
