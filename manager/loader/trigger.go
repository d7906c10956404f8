// Package loader decides when the next page of a dataset has to be fetched.
package loader

import (
	"sync"

	"github.com/google/uuid"
)

// ShouldLoad is the load-more policy: fetch when the requested row is the
// last resolved one or beyond, more rows exist and nothing is in flight.
func ShouldLoad(requestedIndex, rowCount int, hasMore, inFlight bool) bool {
	return requestedIndex >= rowCount-1 && hasMore && !inFlight
}

// Trigger applies ShouldLoad and remembers the last failed fetch of the
// current dataset generation. While a failure is recorded no new fetch is
// started; only Retry or Reset clears it.
type Trigger struct {
	lock       sync.Mutex
	generation uuid.UUID
	failed     error
}

func (t *Trigger) ShouldLoad(requestedIndex, rowCount int, hasMore, inFlight bool) bool {

	t.lock.Lock()
	defer t.lock.Unlock()

	if t.failed != nil {
		return false
	}

	return ShouldLoad(requestedIndex, rowCount, hasMore, inFlight)
}

// Fail records err for the generation the fetch was issued for. A failure of
// a generation replaced by Reset is dropped; the result reports whether err
// was recorded.
func (t *Trigger) Fail(generation uuid.UUID, err error) bool {
	if err == nil {
		return false
	}

	t.lock.Lock()
	defer t.lock.Unlock()

	if generation != t.generation {
		return false
	}

	t.failed = err
	return true
}

// Err is the failure the renderer should show next to the placeholder rows.
func (t *Trigger) Err() error {
	t.lock.Lock()
	defer t.lock.Unlock()

	return t.failed
}

// Retry clears a recorded failure and reports whether there was one.
func (t *Trigger) Retry() bool {

	t.lock.Lock()
	defer t.lock.Unlock()

	had := t.failed != nil
	t.failed = nil

	return had
}

// Reset starts a new generation without a recorded failure.
func (t *Trigger) Reset(generation uuid.UUID) {

	t.lock.Lock()
	defer t.lock.Unlock()

	t.generation = generation
	t.failed = nil
}
