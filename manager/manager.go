package manager

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dot5enko/simple-record-grid/debounce"
	"github.com/dot5enko/simple-record-grid/manager/cache"
	"github.com/dot5enko/simple-record-grid/manager/loader"
	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/dot5enko/simple-record-grid/source"
	"github.com/dot5enko/simple-record-grid/viewport"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultPageSize  = 50
	DefaultRowHeight = 1
	DefaultOverscan  = 3
)

type ManagerConfig struct {
	PageSize int

	RowHeight int
	Overscan  int

	// pages kept unpacked in memory, 0 keeps all of them
	MaxResidentPages int
	// packing waits until renders stop for this long, 0 packs on every render
	CompactDelay time.Duration
}

func (c ManagerConfig) withDefaults() ManagerConfig {

	if c.PageSize <= 0 {
		c.PageSize = DefaultPageSize
	}
	if c.RowHeight <= 0 {
		c.RowHeight = DefaultRowHeight
	}
	if c.Overscan < 0 {
		c.Overscan = 0
	}
	if c.CompactDelay < 0 {
		c.CompactDelay = 0
	}

	return c
}

// Manager owns one paged dataset: the pages fetched so far, the fetch in
// flight and the renderer reading them. It is the only writer of the cache.
type Manager struct {
	config ManagerConfig

	src source.Source

	pages    *cache.PageCache
	trigger  loader.Trigger
	renderer *viewport.Renderer

	loadGroup singleflight.Group

	// nil when pages are packed right away
	compactor *debounce.Debouncer

	// highest row index the last render touched
	lastAccess atomic.Int64
}

// Ticket is a reserved page fetch of one dataset generation.
type Ticket struct {
	Generation uuid.UUID
	Page       int
}

func New(src source.Source, config ManagerConfig) *Manager {

	config = config.withDefaults()

	m := &Manager{
		config: config,
		src:    src,
		pages:  cache.NewPageCache(config.MaxResidentPages),
	}

	m.trigger.Reset(m.pages.Generation())

	if config.MaxResidentPages > 0 && config.CompactDelay > 0 {
		m.compactor = debounce.New(config.CompactDelay)
	}

	m.renderer = viewport.NewRenderer(m, viewport.Config{
		RowHeight: config.RowHeight,
		Overscan:  config.Overscan,
	}, m.noteAccess)

	return m
}

func (m *Manager) Config() ManagerConfig {
	return m.config
}

func (m *Manager) Renderer() *viewport.Renderer {
	return m.renderer
}

func (m *Manager) noteAccess(index int) {
	m.lastAccess.Store(int64(index))
}

// Visible renders the rows for the scroll position and packs pages far from
// them when compaction is enabled. With CompactDelay only the last render of
// a burst is packed for.
func (m *Manager) Visible(scrollOffset, viewportHeight int) []viewport.Slot {

	slots := m.renderer.Render(scrollOffset, viewportHeight)

	if m.config.MaxResidentPages > 0 && len(slots) > 0 {
		m.compact(slots[0].Index, slots[len(slots)-1].Index)
	}

	return slots
}

func (m *Manager) compact(firstRow, lastRow int) {

	if m.compactor == nil {
		m.pages.Compact(firstRow, lastRow)
		return
	}

	m.compactor.Call(func() {
		m.pages.Compact(firstRow, lastRow)
	})
}

// Close drops a packing pass that has not started yet.
func (m *Manager) Close() {
	if m.compactor != nil {
		m.compactor.Stop()
	}
}

// Pull reserves the next page if the last render reached the end of the
// resolved rows.
func (m *Manager) Pull() (Ticket, bool) {
	return m.Request(int(m.lastAccess.Load()))
}

// Invalidate discards the dataset. Fetches issued before are ignored when
// they settle; the header is kept until the next page replaces it.
func (m *Manager) Invalidate() uuid.UUID {

	generation := m.pages.Invalidate()

	m.trigger.Reset(generation)
	m.lastAccess.Store(0)

	slog.Info("dataset invalidated", "generation", generation.String())

	return generation
}

// Retry clears a failed fetch so the next Request may start it again.
func (m *Manager) Retry() bool {

	retried := m.trigger.Retry()
	if retried {
		slog.Info("retrying failed page fetch", "next_page", m.pages.NextIndex())
	}

	return retried
}

func (m *Manager) Header() schema.Header {
	return m.pages.Header()
}

func (m *Manager) Len() int {
	return m.pages.Len()
}

func (m *Manager) HasMore() bool {
	return m.pages.HasMore()
}

func (m *Manager) RowAt(i int) (schema.Record, bool) {
	return m.pages.RowAt(i)
}

// Rows returns every resolved row in order.
func (m *Manager) Rows() ([]schema.Record, error) {
	return m.pages.FlattenedRows()
}

func (m *Manager) PageOf(rowIndex int) int {
	return m.pages.PageOf(rowIndex)
}

func (m *Manager) Pending(pageIndex int) bool {
	return m.pages.Pending(pageIndex)
}

func (m *Manager) InFlight() bool {
	return m.pages.InFlight()
}

// Err is the fetch failure waiting for Retry, if any.
func (m *Manager) Err() error {
	return m.trigger.Err()
}

// Loading is true until the first page of the current generation settles
// successfully.
func (m *Manager) Loading() bool {
	return m.pages.Pages() == 0 && m.pages.HasMore()
}

func (m *Manager) Stats() cache.CacheStats {
	return m.pages.Stats()
}
