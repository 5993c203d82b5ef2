// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestWheel() (*TimingWheel, *TestingTimer) {
	timer := NewTestingTimer()
	return WithTesting(timer), timer
}

func TestBasicTimeout(t *testing.T) {
	w, timer := newTestWheel()
	var fired Counter

	_, err := w.Register(100, fired.Inc(), false)
	assert.NoError(t, err)

	timer.Advance(99 * time.Millisecond)
	assert.NoError(t, w.Tick())
	assert.Equal(t, 0, fired.Value())

	timer.Advance(1 * time.Millisecond)
	assert.NoError(t, w.Tick())
	assert.Equal(t, 1, fired.Value())
	assert.True(t, w.IsEmpty())
}

func TestLayerCrossing(t *testing.T) {
	w, timer := newTestWheel()
	var fired Counter

	_, err := w.Register(64, fired.Inc(), false)
	assert.NoError(t, err)

	timer.Advance(63 * time.Millisecond)
	assert.NoError(t, w.Tick())
	assert.Equal(t, 0, fired.Value())

	timer.Advance(1 * time.Millisecond)
	assert.NoError(t, w.Tick())
	assert.Equal(t, 1, fired.Value())
}

func TestInterval(t *testing.T) {
	w, timer := newTestWheel()
	var fired Counter

	_, err := w.Register(10, fired.Inc(), true)
	assert.NoError(t, err)

	for i := 0; i < 5; i++ {
		timer.Advance(10 * time.Millisecond)
		assert.NoError(t, w.Tick())
		assert.False(t, w.IsEmpty())
	}
	assert.Equal(t, 5, fired.Value())
}

func TestConcurrentDeadlines(t *testing.T) {
	w, timer := newTestWheel()
	log := make(Log, 0, 3)

	_, err := w.Register(5, log.Log("A"), false)
	assert.NoError(t, err)
	_, err = w.Register(5, log.Log("B"), false)
	assert.NoError(t, err)
	_, err = w.Register(5, log.Log("C"), false)
	assert.NoError(t, err)

	timer.Advance(5 * time.Millisecond)
	assert.NoError(t, w.Tick())

	assert.Equal(t, Log{"A", "B", "C"}, log)
}

func TestRefresh(t *testing.T) {
	w, timer := newTestWheel()
	var fired Counter

	id, err := w.Register(100, fired.Inc(), false)
	assert.NoError(t, err)

	timer.Advance(50 * time.Millisecond)
	assert.NoError(t, w.Tick())
	w.Refresh(id)

	timer.Advance(50 * time.Millisecond)
	assert.NoError(t, w.Tick())
	assert.Equal(t, 0, fired.Value())

	timer.Advance(50 * time.Millisecond)
	assert.NoError(t, w.Tick())
	assert.Equal(t, 1, fired.Value())
}

func TestUnregisterBeforeFire(t *testing.T) {
	w, timer := newTestWheel()
	var fired Counter

	id, err := w.Register(100, fired.Inc(), false)
	assert.NoError(t, err)

	timer.Advance(50 * time.Millisecond)
	assert.NoError(t, w.Tick())
	w.Unregister(id)

	timer.Advance(50 * time.Millisecond)
	assert.NoError(t, w.Tick())

	assert.Equal(t, 0, fired.Value())
	assert.True(t, w.IsEmpty())
	assert.Equal(t, 0, w.refCount)
}

func TestRefUnref(t *testing.T) {
	w, _ := newTestWheel()

	a, err := w.Register(100, func() error { return nil }, false)
	assert.NoError(t, err)
	b, err := w.Register(200, func() error { return nil }, false)
	assert.NoError(t, err)

	w.ClearRef(a)
	assert.False(t, w.IsRefEmpty())

	w.ClearRef(b)
	assert.True(t, w.IsRefEmpty())
}

func TestDeepDeadline(t *testing.T) {
	w, timer := newTestWheel()
	var fired Counter

	_, err := w.Register(64*64+3, fired.Inc(), false)
	assert.NoError(t, err)

	timer.Advance((64*64 + 3) * time.Millisecond)
	assert.NoError(t, w.Tick())

	assert.Equal(t, 1, fired.Value())
	assert.Empty(t, w.layers)
}

func TestFiredHook(t *testing.T) {
	w, timer := newTestWheel()

	// hookz dispatches handlers asynchronously (observability.go), so the
	// event must be awaited rather than read from a variable written
	// racily by another goroutine.
	fired := make(chan FireEvent, 1)
	err := w.OnFired(func(_ context.Context, ev FireEvent) error {
		fired <- ev
		return nil
	})
	assert.NoError(t, err)

	id, err := w.Register(10, func() error { return nil }, false)
	assert.NoError(t, err)

	timer.Advance(10 * time.Millisecond)
	assert.NoError(t, w.Tick())

	select {
	case got := <-fired:
		assert.Equal(t, id, got.TaskID)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for OnFired hook delivery")
	}
}

func TestInvalidDelay(t *testing.T) {
	w, _ := newTestWheel()

	_, err := w.Register(nan(), func() error { return nil }, false)
	assert.ErrorIs(t, err, ErrInvalidDelay)
}

func nan() float64 {
	var zero float64
	return zero / zero
}

// ----------------------------------------- Log -----------------------------------------

// Log is a simple callback that appends a string to a slice, used to
// assert on firing order.
type Log []string

func (l *Log) Log(s string) Callback {
	return func() error {
		*l = append(*l, s)
		return nil
	}
}

// ----------------------------------------- Counter -----------------------------------------

// Counter is a simple callback that counts how many times it fired.
type Counter int

func (c *Counter) Value() int {
	return int(*c)
}

func (c *Counter) Inc() Callback {
	return func() error {
		*c++
		return nil
	}
}
