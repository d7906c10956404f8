// Package viewport maps a scroll position onto the rows that have to be
// drawn for a fixed row height, the way list virtualization does.
package viewport

// Window is the half-open range [Start, End) of row indexes to draw.
type Window struct {
	Start int
	End   int
}

func (w Window) Len() int {
	if w.End <= w.Start {
		return 0
	}
	return w.End - w.Start
}

func (w Window) Contains(i int) bool {
	return i >= w.Start && i < w.End
}

// MaxScroll is the largest offset that still fills the viewport.
func MaxScroll(itemCount, rowHeight, viewportHeight int) int {

	if rowHeight <= 0 {
		rowHeight = 1
	}

	limit := itemCount*rowHeight - viewportHeight
	if limit < 0 {
		return 0
	}
	return limit
}

// VisibleRange returns the rows intersecting [scrollOffset, scrollOffset+viewportHeight)
// widened by overscan rows on both sides and clamped to [0, itemCount).
func VisibleRange(scrollOffset, viewportHeight, rowHeight, itemCount, overscan int) Window {

	if itemCount <= 0 || viewportHeight <= 0 {
		return Window{}
	}

	if rowHeight <= 0 {
		rowHeight = 1
	}
	if overscan < 0 {
		overscan = 0
	}

	scrollOffset = clamp(scrollOffset, 0, MaxScroll(itemCount, rowHeight, viewportHeight))

	first := scrollOffset / rowHeight
	// exclusive, rounds partially visible rows in
	last := (scrollOffset + viewportHeight + rowHeight - 1) / rowHeight

	return Window{
		Start: clamp(first-overscan, 0, itemCount),
		End:   clamp(last+overscan, 0, itemCount),
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
