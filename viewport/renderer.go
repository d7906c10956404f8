package viewport

import "github.com/dot5enko/simple-record-grid/schema"

type RowState uint8

const (
	Unresolved RowState = iota
	Pending
	Resolved
	// Failed is a placeholder whose page fetch failed and waits for a retry
	Failed
)

func (s RowState) String() string {
	switch s {
	case Unresolved:
		return "unresolved"
	case Pending:
		return "pending"
	case Resolved:
		return "resolved"
	case Failed:
		return "failed"
	default:
		return ""
	}
}

// Dataset is the read side of a paged dataset the renderer draws from.
type Dataset interface {
	Len() int
	HasMore() bool
	RowAt(i int) (schema.Record, bool)

	PageOf(rowIndex int) int
	Pending(pageIndex int) bool
	Err() error
}

// Slot is one drawn row: either a resolved record or a placeholder.
type Slot struct {
	Index int
	// Top is the absolute offset of the row inside the scrolled content
	Top   int
	State RowState
	Row   schema.Record
}

func (s Slot) Placeholder() bool {
	return s.State != Resolved
}

type Config struct {
	RowHeight int
	Overscan  int
}

// AccessFunc receives the highest row index a render touched.
type AccessFunc func(index int)

type Renderer struct {
	cfg      Config
	data     Dataset
	onAccess AccessFunc
}

func NewRenderer(data Dataset, cfg Config, onAccess AccessFunc) *Renderer {

	if cfg.RowHeight <= 0 {
		cfg.RowHeight = 1
	}
	if cfg.Overscan < 0 {
		cfg.Overscan = 0
	}

	return &Renderer{
		cfg:      cfg,
		data:     data,
		onAccess: onAccess,
	}
}

func (r *Renderer) RowHeight() int {
	return r.cfg.RowHeight
}

// ItemCount is the number of drawable rows: every resolved row plus one
// placeholder while more rows exist.
func (r *Renderer) ItemCount() int {

	rows := r.data.Len()

	if r.data.HasMore() {
		return rows + 1
	}
	return rows
}

// ContentHeight is the full height of the scrolled content.
func (r *Renderer) ContentHeight() int {
	return r.ItemCount() * r.cfg.RowHeight
}

func (r *Renderer) ClampOffset(offset, viewportHeight int) int {
	return clamp(offset, 0, MaxScroll(r.ItemCount(), r.cfg.RowHeight, viewportHeight))
}

func (r *Renderer) Window(scrollOffset, viewportHeight int) Window {
	return VisibleRange(scrollOffset, viewportHeight, r.cfg.RowHeight, r.ItemCount(), r.cfg.Overscan)
}

// StateOf reports where the row is in its unresolved -> pending -> resolved life.
func (r *Renderer) StateOf(i int) RowState {

	if i < r.data.Len() {
		return Resolved
	}

	if r.data.Pending(r.data.PageOf(i)) {
		return Pending
	}

	if r.data.Err() != nil {
		return Failed
	}

	return Unresolved
}

// Render returns the rows to draw for the scroll position, in index order.
// Rows that are not fetched yet come back as placeholders; the render never
// waits for data.
func (r *Renderer) Render(scrollOffset, viewportHeight int) []Slot {

	window := r.Window(scrollOffset, viewportHeight)

	if window.Len() == 0 {
		return nil
	}

	slots := make([]Slot, 0, window.Len())

	for i := window.Start; i < window.End; i++ {

		slot := Slot{
			Index: i,
			Top:   i * r.cfg.RowHeight,
		}

		if row, ok := r.data.RowAt(i); ok {
			slot.State = Resolved
			slot.Row = row
		} else {
			slot.State = r.StateOf(i)
		}

		slots = append(slots, slot)
	}

	if r.onAccess != nil {
		r.onAccess(window.End - 1)
	}

	return slots
}
