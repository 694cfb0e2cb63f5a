// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package nav tracks the currently viewed page.
package nav

// Navigator holds the current page index. Until the page count is known,
// forward navigation is unbounded; once it is known every move is clamped
// to [0, count-1].
type Navigator struct {
	current int
	count   int
	known   bool
}

// Current returns the zero-based index of the viewed page.
func (n *Navigator) Current() int { return n.current }

// PageCount returns the page count and whether it is known.
func (n *Navigator) PageCount() (int, bool) { return n.count, n.known }

// SetPageCount records the document's page count and re-clamps the current
// page. A count below one is treated as unknown.
func (n *Navigator) SetPageCount(count int) {
	if count < 1 {
		n.count, n.known = 0, false
		return
	}
	n.count, n.known = count, true
	n.current = n.clamp(n.current)
}

// GoTo moves to page index i, clamped to the valid range. It reports
// whether the current page changed.
func (n *Navigator) GoTo(i int) bool {
	next := n.clamp(i)
	if next == n.current {
		return false
	}
	n.current = next
	return true
}

// Next advances one page.
func (n *Navigator) Next() bool { return n.GoTo(n.current + 1) }

// Previous goes back one page; it is a no-op on the first page.
func (n *Navigator) Previous() bool { return n.GoTo(n.current - 1) }

// Reset returns to the first page and forgets the page count.
func (n *Navigator) Reset() {
	*n = Navigator{}
}

func (n *Navigator) clamp(i int) int {
	if n.known && i > n.count-1 {
		i = n.count - 1
	}
	if i < 0 {
		i = 0
	}
	return i
}
