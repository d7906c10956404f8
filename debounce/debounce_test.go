package debounce

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLatestCallWins(t *testing.T) {

	d := New(30 * time.Millisecond)

	var calls atomic.Int32
	var last atomic.Int32

	for i := 1; i <= 5; i++ {
		value := int32(i)
		d.Call(func() {
			calls.Add(1)
			last.Store(value)
		})
	}

	require.Eventually(t, func() bool { return calls.Load() == 1 }, time.Second, 5*time.Millisecond)

	time.Sleep(60 * time.Millisecond)

	assert.EqualValues(t, 1, calls.Load())
	assert.EqualValues(t, 5, last.Load())
}

func TestStop(t *testing.T) {

	d := New(10 * time.Millisecond)

	var calls atomic.Int32
	d.Call(func() { calls.Add(1) })
	d.Stop()

	time.Sleep(40 * time.Millisecond)
	assert.Zero(t, calls.Load())
}

func TestSequence(t *testing.T) {

	var seq Sequence

	first := seq.Next()
	assert.True(t, seq.Current(first))

	second := seq.Next()
	assert.False(t, seq.Current(first))
	assert.True(t, seq.Current(second))
}
