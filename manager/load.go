package manager

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/dot5enko/simple-record-grid/manager/cache"
	"github.com/shestakovda/errx"
)

// Request applies the load-more policy for the row the host wants to show
// and reserves the next page when a fetch is due. At most one page is
// reserved at a time.
func (m *Manager) Request(requestedIndex int) (Ticket, bool) {

	if !m.trigger.ShouldLoad(requestedIndex, m.pages.Len(), m.pages.HasMore(), m.pages.InFlight()) {
		return Ticket{}, false
	}

	generation, page, ok := m.pages.Reserve()
	if !ok {
		return Ticket{}, false
	}

	return Ticket{Generation: generation, Page: page}, true
}

// Load fetches the reserved page and appends it. Concurrent loads of the
// same ticket share one request. A result for an invalidated dataset is
// dropped without error.
func (m *Manager) Load(ctx context.Context, ticket Ticket) error {

	key := fmt.Sprintf("%s:%d", ticket.Generation.String(), ticket.Page)

	_, err, _ := m.loadGroup.Do(key, func() (any, error) {
		return nil, m.load(ctx, ticket)
	})

	return err
}

func (m *Manager) load(ctx context.Context, ticket Ticket) error {

	started := time.Now()

	res, fetchErr := m.src.FetchPage(ctx, ticket.Page, m.config.PageSize)
	if fetchErr != nil {

		// the trigger drops the failure if Invalidate ran after the clear
		if m.pages.ClearPendingFor(ticket.Generation, ticket.Page) && m.trigger.Fail(ticket.Generation, fetchErr) {
			slog.Error("page fetch failed", "page", ticket.Page, "err", fetchErr.Error())
			return fetchErr
		}

		slog.Debug("ignoring failure of a discarded fetch", "page", ticket.Page)
		return nil
	}

	page, appendErr := m.pages.AppendResultFor(ticket.Generation, ticket.Page, m.config.PageSize, res)
	if appendErr != nil {

		if errx.Is(appendErr, cache.ErrStale) {
			slog.Debug("dropping page of a discarded dataset", "page", ticket.Page)
			return nil
		}

		m.pages.ClearPendingFor(ticket.Generation, ticket.Page)
		return fmt.Errorf("unable to append page %d: %s", ticket.Page, appendErr.Error())
	}

	slog.Info("page loaded",
		"page", page.Index,
		"rows", page.Len(),
		"last", page.IsLast,
		"total_rows", m.pages.Len(),
		"took", time.Since(started).String(),
	)

	return nil
}

// LoadMore is Request followed by Load. It reports whether a page was fetched.
func (m *Manager) LoadMore(ctx context.Context, requestedIndex int) (bool, error) {

	ticket, ok := m.Request(requestedIndex)
	if !ok {
		return false, nil
	}

	if err := m.Load(ctx, ticket); err != nil {
		return false, err
	}

	return true, nil
}

// LoadAll fetches pages until the dataset is complete, maxPages is reached
// or a fetch fails. maxPages <= 0 means no limit.
func (m *Manager) LoadAll(ctx context.Context, maxPages int) error {

	for loaded := 0; maxPages <= 0 || loaded < maxPages; loaded++ {

		fetched, err := m.LoadMore(ctx, m.pages.Len())
		if err != nil {
			return err
		}
		if !fetched {
			return nil
		}
	}

	return nil
}
