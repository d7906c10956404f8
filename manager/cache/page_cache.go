package cache

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/google/uuid"
	"github.com/shestakovda/errx"
)

var (
	ErrOutOfOrder = errx.New("page appended out of order")
	ErrStale      = errx.New("page belongs to a discarded dataset")
)

// PageCache owns every resolved page of one dataset and exposes them as a
// single flattened row sequence. Pages are appended strictly in index order
// starting at 1; Invalidate drops everything and starts a new generation.
type PageCache struct {
	locker sync.RWMutex

	generation uuid.UUID
	created    time.Time

	pages []*pageEntry
	// offsets[i] is the number of rows before pages[i]
	offsets  []int
	rowCount int

	header schema.Header

	total      int
	totalKnown bool
	exhausted  bool

	pending map[int]struct{}

	// 0 keeps every page resident
	maxResident int

	reads   atomic.Int64
	unpacks atomic.Int64
}

func NewPageCache(maxResidentPages int) *PageCache {

	c := &PageCache{
		pending:     map[int]struct{}{},
		maxResident: maxResidentPages,
	}

	c.generation = newGeneration()
	c.created = time.Now()

	return c
}

func newGeneration() uuid.UUID {
	uid, err := uuid.NewV7()
	if err != nil {
		return uuid.New()
	}
	return uid
}

func (c *PageCache) Generation() uuid.UUID {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return c.generation
}

// AppendPage stores the page as the next one of the current generation.
func (c *PageCache) AppendPage(page schema.Page) error {

	c.locker.Lock()
	defer c.locker.Unlock()

	return c.appendLocked(page)
}

// AppendResultFor turns a fetch result into the next page of the given
// generation. Header and total are taken from the result in the same step.
func (c *PageCache) AppendResultFor(generation uuid.UUID, index, pageSize int, res schema.FetchResult) (schema.Page, error) {

	c.locker.Lock()
	defer c.locker.Unlock()

	if generation != c.generation {
		return schema.Page{}, ErrStale.WithDebug(errx.Debug{"page": index})
	}

	page := res.ToPage(index, pageSize, c.rowCount)

	if appendErr := c.appendLocked(page); appendErr != nil {
		return schema.Page{}, appendErr
	}

	if res.Header != nil {
		c.header = append(schema.Header{}, res.Header...)
	}

	c.total = res.Total
	c.totalKnown = res.TotalKnown

	if c.totalKnown && c.rowCount >= c.total {
		c.exhausted = true
	}

	return page, nil
}

func (c *PageCache) appendLocked(page schema.Page) error {

	expected := len(c.pages) + 1

	if page.Index != expected {
		return ErrOutOfOrder.WithDebug(errx.Debug{
			"expected": expected,
			"got":      page.Index,
		})
	}

	if c.exhausted {
		return ErrOutOfOrder.WithDebug(errx.Debug{
			"expected": "none, dataset is complete",
			"got":      page.Index,
		})
	}

	rows := make([]schema.Record, len(page.Rows))
	copy(rows, page.Rows)

	c.pages = append(c.pages, &pageEntry{
		index:    page.Index,
		isLast:   page.IsLast,
		rowCount: len(rows),
		rows:     rows,
	})
	c.offsets = append(c.offsets, c.rowCount)
	c.rowCount += len(rows)

	delete(c.pending, page.Index)

	if page.IsLast || (c.totalKnown && c.rowCount >= c.total) {
		c.exhausted = true
	}

	return nil
}

func (c *PageCache) Total() (int, bool) {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return c.total, c.totalKnown
}

func (c *PageCache) Header() schema.Header {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return append(schema.Header{}, c.header...)
}

// HasMore is true until the last page arrives or the known total is reached.
func (c *PageCache) HasMore() bool {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return !c.exhausted
}

func (c *PageCache) Len() int {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return c.rowCount
}

func (c *PageCache) Pages() int {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return len(c.pages)
}

// NextIndex is the index the next appended page must carry.
func (c *PageCache) NextIndex() int {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return len(c.pages) + 1
}

// PageOf maps a row index to the page index that holds or will hold it.
func (c *PageCache) PageOf(rowIndex int) int {

	c.locker.RLock()
	defer c.locker.RUnlock()

	if rowIndex < c.rowCount {
		return c.pages[c.entryIdx(rowIndex)].index
	}

	return len(c.pages) + 1
}

// RowAt returns the record at the flattened index.
func (c *PageCache) RowAt(i int) (schema.Record, bool) {

	c.reads.Add(1)

	c.locker.RLock()

	if i < 0 || i >= c.rowCount {
		c.locker.RUnlock()
		return nil, false
	}

	pos := c.entryIdx(i)
	entry := c.pages[pos]

	if !entry.isPacked() {
		row := entry.rows[i-c.offsets[pos]]
		c.locker.RUnlock()
		return row, true
	}

	c.locker.RUnlock()

	return c.rowFromPacked(i)
}

func (c *PageCache) rowFromPacked(i int) (schema.Record, bool) {

	c.locker.Lock()
	defer c.locker.Unlock()

	// the dataset could have been invalidated between the locks
	if i >= c.rowCount {
		return nil, false
	}

	pos := c.entryIdx(i)
	entry := c.pages[pos]

	if entry.isPacked() {
		if err := entry.unpack(); err != nil {
			slog.Error("unable to unpack cached page", "page", entry.index, "err", err.Error())
			return nil, false
		}
		c.unpacks.Add(1)
	}

	return entry.rows[i-c.offsets[pos]], true
}

// entryIdx expects the read lock and a valid row index
func (c *PageCache) entryIdx(i int) int {
	return sort.Search(len(c.offsets), func(p int) bool {
		return c.offsets[p] > i
	}) - 1
}

// FlattenedRows concatenates every resolved page in fetch order. It fails
// when a packed page cannot be restored.
func (c *PageCache) FlattenedRows() ([]schema.Record, error) {

	c.locker.RLock()
	defer c.locker.RUnlock()

	result := make([]schema.Record, 0, c.rowCount)

	for _, entry := range c.pages {
		rows, err := entry.unpacked()
		if err != nil {
			slog.Error("unable to unpack cached page", "page", entry.index, "err", err.Error())
			return nil, fmt.Errorf("unable to flatten rows: %s", err.Error())
		}
		result = append(result, rows...)
	}

	return result, nil
}

// Reserve marks the next page pending and returns it together with the
// generation the fetch belongs to.
func (c *PageCache) Reserve() (uuid.UUID, int, bool) {

	c.locker.Lock()
	defer c.locker.Unlock()

	index := len(c.pages) + 1

	if !c.markLocked(index) {
		return uuid.Nil, 0, false
	}

	return c.generation, index, true
}

func (c *PageCache) markLocked(index int) bool {

	if index != len(c.pages)+1 || c.exhausted {
		return false
	}

	if _, busy := c.pending[index]; busy {
		return false
	}

	c.pending[index] = struct{}{}
	return true
}

// ClearPendingFor drops the marker only if the generation is still current
// and reports whether it was.
func (c *PageCache) ClearPendingFor(generation uuid.UUID, index int) bool {
	c.locker.Lock()
	defer c.locker.Unlock()

	if generation != c.generation {
		return false
	}

	delete(c.pending, index)
	return true
}

func (c *PageCache) Pending(index int) bool {
	c.locker.RLock()
	defer c.locker.RUnlock()

	_, ok := c.pending[index]
	return ok
}

func (c *PageCache) InFlight() bool {
	c.locker.RLock()
	defer c.locker.RUnlock()

	return len(c.pending) > 0
}

// Invalidate discards every page and pending marker and returns the new
// generation. Results of fetches issued before are rejected afterwards.
func (c *PageCache) Invalidate() uuid.UUID {

	c.locker.Lock()
	defer c.locker.Unlock()

	c.pages = nil
	c.offsets = nil
	c.rowCount = 0
	c.total = 0
	c.totalKnown = false
	c.exhausted = false
	c.pending = map[int]struct{}{}

	c.generation = newGeneration()
	c.created = time.Now()

	return c.generation
}

// Compact packs pages far from the given row window once more than
// maxResident pages are held unpacked. Pages overlapping the window always
// stay resident.
func (c *PageCache) Compact(firstRow, lastRow int) {

	c.locker.Lock()
	defer c.locker.Unlock()

	if c.maxResident <= 0 || len(c.pages) <= c.maxResident {
		return
	}

	if lastRow < firstRow {
		firstRow, lastRow = lastRow, firstRow
	}

	firstPage := c.pageIdxClamped(firstRow)
	lastPage := c.pageIdxClamped(lastRow)
	center := (firstPage + lastPage) / 2

	order := make([]int, len(c.pages))
	for i := range order {
		order[i] = i
	}

	sort.SliceStable(order, func(a, b int) bool {
		return distance(order[a], center) < distance(order[b], center)
	})

	budget := c.maxResident
	if window := lastPage - firstPage + 1; window > budget {
		budget = window
	}

	for rank, idx := range order {
		entry := c.pages[idx]
		inWindow := idx >= firstPage && idx <= lastPage

		if rank < budget || inWindow {
			continue
		}

		if err := entry.pack(); err != nil {
			slog.Error("unable to pack cached page", "page", entry.index, "err", err.Error())
		}
	}
}

// pageIdxClamped expects the lock; returns a position in c.pages
func (c *PageCache) pageIdxClamped(row int) int {

	if row < 0 {
		return 0
	}

	if row >= c.rowCount {
		return len(c.pages) - 1
	}

	return c.entryIdx(row)
}

func distance(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}

func (c *PageCache) Stats() CacheStats {

	c.locker.RLock()
	defer c.locker.RUnlock()

	stats := CacheStats{
		Generation: c.generation,
		Created:    c.created,
		Pages:      len(c.pages),
		Rows:       c.rowCount,
		Reads:      c.reads.Load(),
		Unpacks:    c.unpacks.Load(),
	}

	for _, entry := range c.pages {
		if entry.isPacked() {
			stats.PackedPages++
			stats.PackedBytes += len(entry.packed)
		}
	}

	return stats
}
