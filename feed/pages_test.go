package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func page(n int) PageItem { return PageItem{Page: n} }
func gap() PageItem       { return PageItem{Ellipsis: true} }

func TestPageNumbers(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		expected []PageItem
	}{
		{
			name:     "first page of ten",
			current:  1,
			total:    10,
			expected: []PageItem{page(1), page(2), page(3), page(4), page(5), gap(), page(10)},
		},
		{
			name:     "last page of ten",
			current:  10,
			total:    10,
			expected: []PageItem{page(1), gap(), page(6), page(7), page(8), page(9), page(10)},
		},
		{
			name:     "middle page of ten",
			current:  5,
			total:    10,
			expected: []PageItem{page(1), gap(), page(3), page(4), page(5), page(6), page(7), gap(), page(10)},
		},
		{
			name:     "no gap when window touches the edge",
			current:  3,
			total:    6,
			expected: []PageItem{page(1), page(2), page(3), page(4), page(5), page(6)},
		},
		{
			name:     "single page",
			current:  1,
			total:    1,
			expected: []PageItem{page(1)},
		},
		{
			name:     "three pages",
			current:  2,
			total:    3,
			expected: []PageItem{page(1), page(2), page(3)},
		},
		{
			name:     "second page of ten keeps five-wide window",
			current:  2,
			total:    10,
			expected: []PageItem{page(1), page(2), page(3), page(4), page(5), gap(), page(10)},
		},
		{
			name:     "ninth page of ten",
			current:  9,
			total:    10,
			expected: []PageItem{page(1), gap(), page(6), page(7), page(8), page(9), page(10)},
		},
		{
			name:     "page four of ten pins page one without ellipsis",
			current:  4,
			total:    10,
			expected: []PageItem{page(1), page(2), page(3), page(4), page(5), page(6), gap(), page(10)},
		},
		{
			name:     "no pages",
			current:  0,
			total:    0,
			expected: nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, PageNumbers(tt.current, tt.total))
		})
	}
}
