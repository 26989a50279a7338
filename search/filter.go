// Package search derives a display subset of the loaded page. It is a pure
// projection: no network traffic, no store mutation, only the posts already
// fetched.
package search

import (
	"strings"

	"ciaan/models"
)

// Filter returns the posts matching query by case-insensitive substring
// against title, content, author first name, author last name, and the
// "first last" concatenation. An empty query matches everything.
func Filter(posts []models.Post, query string) []models.Post {
	q := strings.ToLower(query)
	matched := make([]models.Post, 0, len(posts))
	for _, p := range posts {
		if matches(p, q) {
			matched = append(matched, p)
		}
	}
	return matched
}

func matches(p models.Post, q string) bool {
	if q == "" {
		return true
	}
	first := strings.ToLower(p.Author.FirstName)
	last := strings.ToLower(p.Author.LastName)
	return strings.Contains(strings.ToLower(p.Title), q) ||
		strings.Contains(strings.ToLower(p.Content), q) ||
		strings.Contains(first, q) ||
		strings.Contains(last, q) ||
		strings.Contains(first+" "+last, q)
}
