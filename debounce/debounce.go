// Package debounce delays an action until its input has been quiet for a
// while. Debouncer does it with timers, Sequence does it for event loops
// that schedule their own ticks.
package debounce

import (
	"sync"
	"sync/atomic"
	"time"
)

type Debouncer struct {
	delay time.Duration

	locker  sync.Mutex
	timer   *time.Timer
	pending func()
}

func New(delay time.Duration) *Debouncer {
	return &Debouncer{delay: delay}
}

// Call schedules fn after the delay. A later Call within the delay replaces
// fn and restarts the wait.
func (d *Debouncer) Call(fn func()) {

	d.locker.Lock()
	defer d.locker.Unlock()

	if d.timer != nil {
		d.timer.Stop()
	}

	d.pending = fn

	var timer *time.Timer
	timer = time.AfterFunc(d.delay, func() {

		d.locker.Lock()
		if d.timer != timer {
			d.locker.Unlock()
			return
		}
		run := d.pending
		d.pending = nil
		d.timer = nil
		d.locker.Unlock()

		if run != nil {
			run()
		}
	})
	d.timer = timer
}

// Stop drops the scheduled call, if any.
func (d *Debouncer) Stop() {

	d.locker.Lock()
	defer d.locker.Unlock()

	if d.timer != nil {
		d.timer.Stop()
		d.timer = nil
	}
	d.pending = nil
}

// Sequence hands out tokens; only the latest one is current. A host tags a
// delayed message with Next and drops it on arrival unless Current.
type Sequence struct {
	last atomic.Uint64
}

func (s *Sequence) Next() uint64 {
	return s.last.Add(1)
}

func (s *Sequence) Current(id uint64) bool {
	return s.last.Load() == id
}
