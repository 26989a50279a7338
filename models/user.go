// Package models contains the wire-level data structures exchanged with the
// CIAAN service and shared across the client engine.
package models

// User is an authenticated identity or a post/comment author.
type User struct {
	ID        string `json:"_id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName,omitempty"`
	EmailID   string `json:"emailId"`
	Bio       string `json:"bio,omitempty"`
}

// DisplayName returns "First Last", or just the first name when the last
// name is absent.
func (u User) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}
