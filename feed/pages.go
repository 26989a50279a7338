package feed

// PageItem is one pagination control: either a page number or an ellipsis
// standing in for a gap.
type PageItem struct {
	Page     int
	Ellipsis bool
}

// PageNumbers renders the deterministic page-button window: up to five
// numbers centered on the current page, clamped to [1, total], with page 1
// and the last page pinned at the edges behind an ellipsis when a gap
// remains.
func PageNumbers(current, total int) []PageItem {
	if total < 1 {
		return nil
	}

	start := current - 2
	if start < 1 {
		start = 1
	}
	end := current + 2
	if end > total {
		end = total
	}

	if end-start < 4 && total > 5 {
		switch {
		case current <= 3:
			end = 5
			if end > total {
				end = total
			}
		case current >= total-2:
			start = total - 4
			if start < 1 {
				start = 1
			}
		}
	}

	var items []PageItem
	if start > 1 {
		items = append(items, PageItem{Page: 1})
		if start > 2 {
			items = append(items, PageItem{Ellipsis: true})
		}
	}
	for i := start; i <= end; i++ {
		items = append(items, PageItem{Page: i})
	}
	if end < total {
		if end < total-1 {
			items = append(items, PageItem{Ellipsis: true})
		}
		items = append(items, PageItem{Page: total})
	}
	return items
}

// PageNumbers on the store uses the current window.
func (s *Store) PageNumbers() []PageItem {
	w := s.Window()
	return PageNumbers(w.PageNumber, w.TotalPages)
}
