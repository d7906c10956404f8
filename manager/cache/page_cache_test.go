package cache

import (
	"fmt"
	"testing"

	"github.com/dot5enko/simple-record-grid/schema"
	"github.com/shestakovda/errx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makePage(index, size, offset int, last bool) schema.Page {

	rows := make([]schema.Record, size)
	for i := range rows {
		rows[i] = schema.Record{"id": fmt.Sprint(offset + i + 1)}
	}

	return schema.Page{Rows: rows, Index: index, IsLast: last}
}

// appendNext reserves the next page and stores res as it, the way a fetch does
func appendNext(t *testing.T, c *PageCache, pageSize int, res schema.FetchResult) schema.Page {

	gen, index, ok := c.Reserve()
	require.True(t, ok, "next page can be reserved")

	page, err := c.AppendResultFor(gen, index, pageSize, res)
	require.NoError(t, err)

	return page
}

func flatten(t *testing.T, c *PageCache) []schema.Record {

	rows, err := c.FlattenedRows()
	require.NoError(t, err)

	return rows
}

func TestConcatenationLaw(t *testing.T) {

	for _, pageSize := range []int{1, 3, 50} {
		for pageCount := 1; pageCount <= 6; pageCount++ {

			c := NewPageCache(0)
			expected := 0

			for p := 1; p <= pageCount; p++ {
				size := pageSize
				if p%2 == 0 {
					size = pageSize / 2
				}
				require.NoError(t, c.AppendPage(makePage(p, size, expected, false)))
				expected += size
			}

			rows := flatten(t, c)
			require.Len(t, rows, expected, "page size %d, pages %d", pageSize, pageCount)
			require.Equal(t, expected, c.Len())

			for i, row := range rows {
				assert.Equal(t, fmt.Sprint(i+1), row["id"])

				direct, ok := c.RowAt(i)
				require.True(t, ok)
				assert.Equal(t, row, direct)
			}
		}
	}
}

func TestOutOfOrder(t *testing.T) {

	c := NewPageCache(0)

	err := c.AppendPage(makePage(2, 10, 0, false))
	require.Error(t, err)
	assert.True(t, errx.Is(err, ErrOutOfOrder))

	require.NoError(t, c.AppendPage(makePage(1, 10, 0, false)))

	err = c.AppendPage(makePage(1, 10, 0, false))
	assert.True(t, errx.Is(err, ErrOutOfOrder))

	assert.Equal(t, 10, c.Len())
}

func TestScenarioThreePages(t *testing.T) {

	c := NewPageCache(0)

	sizes := []int{50, 50, 20}
	hasMore := []bool{true, true, false}
	lengths := []int{50, 100, 120}

	for i, size := range sizes {
		res := schema.FetchResult{Rows: makePage(i+1, size, i*50, false).Rows, Total: 120, TotalKnown: true}

		page := appendNext(t, c, 50, res)
		assert.Equal(t, i+1, page.Index)

		assert.Equal(t, hasMore[i], c.HasMore(), "after page %d", i+1)
		assert.Equal(t, lengths[i], len(flatten(t, c)))
	}

	err := c.AppendPage(makePage(4, 1, 120, false))
	assert.True(t, errx.Is(err, ErrOutOfOrder))
}

func TestHasMoreMonotonic(t *testing.T) {

	c := NewPageCache(0)
	require.True(t, c.HasMore())

	require.NoError(t, c.AppendPage(makePage(1, 5, 0, true)))
	require.False(t, c.HasMore())

	_, _, ok := c.Reserve()
	assert.False(t, ok, "a complete dataset reserves nothing")
	assert.False(t, c.HasMore())

	c.Invalidate()
	assert.True(t, c.HasMore())
	assert.Zero(t, c.Len())
}

func TestEmptyDataset(t *testing.T) {

	c := NewPageCache(0)

	res := schema.FetchResult{Rows: []schema.Record{}, Total: 0, TotalKnown: true}
	page := appendNext(t, c, 50, res)
	assert.True(t, page.IsLast)

	assert.False(t, c.HasMore())
	assert.Zero(t, c.Len())
	assert.Empty(t, flatten(t, c))

	_, ok := c.RowAt(0)
	assert.False(t, ok)
}

func TestPendingMarkers(t *testing.T) {

	c := NewPageCache(0)

	assert.False(t, c.InFlight())

	gen, index, ok := c.Reserve()
	require.True(t, ok)
	assert.Equal(t, 1, index)

	_, _, ok = c.Reserve()
	assert.False(t, ok, "a pending page cannot be reserved twice")
	assert.True(t, c.InFlight())
	assert.True(t, c.Pending(1))

	require.NoError(t, c.AppendPage(makePage(1, 10, 0, false)))
	assert.False(t, c.InFlight())

	gen, index, ok = c.Reserve()
	require.True(t, ok)
	assert.Equal(t, 2, index, "resolved pages are never refetched")

	assert.True(t, c.ClearPendingFor(gen, index))
	assert.False(t, c.InFlight())
}

func TestStaleGeneration(t *testing.T) {

	c := NewPageCache(0)

	before, _, ok := c.Reserve()
	require.True(t, ok)

	after := c.Invalidate()
	require.NotEqual(t, before, after)
	assert.False(t, c.InFlight())

	res := schema.FetchResult{Rows: makePage(1, 10, 0, false).Rows}

	_, err := c.AppendResultFor(before, 1, 10, res)
	assert.True(t, errx.Is(err, ErrStale))
	assert.Zero(t, c.Len())

	gen, index, ok := c.Reserve()
	require.True(t, ok)
	assert.Equal(t, after, gen)

	assert.False(t, c.ClearPendingFor(before, index))
	assert.True(t, c.Pending(1), "stale clear must not touch the new generation")

	_, err = c.AppendResultFor(after, index, 10, res)
	require.NoError(t, err)
	assert.Equal(t, 10, c.Len())
}

func TestPageOf(t *testing.T) {

	c := NewPageCache(0)
	require.NoError(t, c.AppendPage(makePage(1, 50, 0, false)))
	require.NoError(t, c.AppendPage(makePage(2, 50, 50, false)))

	assert.Equal(t, 1, c.PageOf(0))
	assert.Equal(t, 1, c.PageOf(49))
	assert.Equal(t, 2, c.PageOf(50))
	assert.Equal(t, 3, c.PageOf(100))
}

func TestCompaction(t *testing.T) {

	c := NewPageCache(2)

	for p := 1; p <= 6; p++ {
		require.NoError(t, c.AppendPage(makePage(p, 20, (p-1)*20, false)))
	}

	c.Compact(100, 110)

	stats := c.Stats()
	assert.Equal(t, 6, stats.Pages)
	assert.Equal(t, 4, stats.PackedPages)
	assert.Positive(t, stats.PackedBytes)

	// packed pages read back with identical content
	row, ok := c.RowAt(5)
	require.True(t, ok)
	assert.Equal(t, "6", row["id"])
	assert.Equal(t, int64(1), c.Stats().Unpacks)

	rows := flatten(t, c)
	require.Len(t, rows, 120)
	for i, r := range rows {
		assert.Equal(t, fmt.Sprint(i+1), r["id"])
	}
}

func TestFlattenedRowsReportsBrokenPage(t *testing.T) {

	c := NewPageCache(1)

	for p := 1; p <= 3; p++ {
		require.NoError(t, c.AppendPage(makePage(p, 10, (p-1)*10, false)))
	}

	c.Compact(25, 29)
	require.True(t, c.pages[0].isPacked())

	c.pages[0].packed = []byte("not an lz4 frame")

	rows, err := c.FlattenedRows()
	assert.Error(t, err)
	assert.Nil(t, rows)

	row, ok := c.RowAt(25)
	require.True(t, ok, "resident pages stay readable")
	assert.Equal(t, "26", row["id"])
}

func TestCompactionDisabled(t *testing.T) {

	c := NewPageCache(0)

	for p := 1; p <= 4; p++ {
		require.NoError(t, c.AppendPage(makePage(p, 5, (p-1)*5, false)))
	}

	c.Compact(0, 1)
	assert.Zero(t, c.Stats().PackedPages)
}

func TestReserve(t *testing.T) {

	c := NewPageCache(0)

	gen, index, ok := c.Reserve()
	require.True(t, ok)
	assert.Equal(t, c.Generation(), gen)
	assert.Equal(t, 1, index)

	_, _, ok = c.Reserve()
	assert.False(t, ok, "the next page is already pending")

	assert.True(t, c.ClearPendingFor(gen, index))

	_, index, ok = c.Reserve()
	require.True(t, ok)
	assert.Equal(t, 1, index)
}

func TestAppendResultFor(t *testing.T) {

	c := NewPageCache(0)

	gen, index, ok := c.Reserve()
	require.True(t, ok)

	res := schema.FetchResult{
		Header:     schema.Header{"id"},
		Rows:       makePage(1, 50, 0, false).Rows,
		Total:      70,
		TotalKnown: true,
	}

	page, err := c.AppendResultFor(gen, index, 50, res)
	require.NoError(t, err)
	assert.False(t, page.IsLast)
	assert.True(t, c.HasMore())
	assert.Equal(t, schema.Header{"id"}, c.Header())
	assert.False(t, c.InFlight())

	gen, index, ok = c.Reserve()
	require.True(t, ok)

	res.Rows = makePage(2, 20, 50, false).Rows

	page, err = c.AppendResultFor(gen, index, 50, res)
	require.NoError(t, err)
	assert.True(t, page.IsLast)
	assert.False(t, c.HasMore())

	total, known := c.Total()
	assert.Equal(t, 70, total)
	assert.True(t, known)

	_, err = c.AppendResultFor(c.Invalidate(), 1, 50, res)
	assert.NoError(t, err, "a fresh generation accepts page 1")

	_, err = c.AppendResultFor(gen, 2, 50, res)
	assert.True(t, errx.Is(err, ErrStale))
}
