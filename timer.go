// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import (
	"time"

	"github.com/zoobzio/clockz"
)

// Timer is a monotonic millisecond source. Now reports elapsed milliseconds
// since the last Reset; Reset rebases the timer to zero. The wheel restarts
// its timer (and its ClockHands) from zero every time it goes idle, so a
// Timer only ever needs to track elapsed time since its last reset, not
// wall-clock time itself.
type Timer interface {
	Now() uint64
	Reset()
}

// SystemTimer is a Timer backed by a real wall clock. It wraps a
// clockz.Clock rather than time.Now directly so that it, too, can be
// swapped for a fake in integration tests that exercise code built on top
// of the wheel without needing the wheel's own TestingTimer.
type SystemTimer struct {
	clock     clockz.Clock
	startedAt time.Time
}

// NewSystemTimer returns a SystemTimer backed by the real clock.
func NewSystemTimer() *SystemTimer {
	return (&SystemTimer{clock: clockz.RealClock}).reset()
}

// WithClock overrides the underlying clock. Mainly useful for tests that
// want a real SystemTimer's millisecond-rounding behavior driven by a fake
// clock rather than wall time.
func (t *SystemTimer) WithClock(clock clockz.Clock) *SystemTimer {
	t.clock = clock
	return t.reset()
}

func (t *SystemTimer) reset() *SystemTimer {
	t.startedAt = t.clock.Now()
	return t
}

// Now implements Timer.
func (t *SystemTimer) Now() uint64 {
	return uint64(t.clock.Now().Sub(t.startedAt).Milliseconds())
}

// Reset implements Timer.
func (t *SystemTimer) Reset() {
	t.reset()
}

// TestingTimer is a Timer driven entirely by test code via Advance. It
// wraps a clockz fake clock, the same Clock-shaped fake (Now, After) the
// rest of the corpus builds its fakes on, rather than a bespoke counter.
type TestingTimer struct {
	clock     *clockz.FakeClock
	startedAt time.Time
}

// NewTestingTimer returns a TestingTimer parked at virtual time zero.
func NewTestingTimer() *TestingTimer {
	clock := clockz.NewFakeClock()
	return &TestingTimer{clock: clock, startedAt: clock.Now()}
}

// Advance moves the virtual clock forward by d and lets any fake-clock
// waiters observe it before returning.
func (t *TestingTimer) Advance(d time.Duration) {
	t.clock.Advance(d)
	t.clock.BlockUntilReady()
}

// Now implements Timer.
func (t *TestingTimer) Now() uint64 {
	return uint64(t.clock.Now().Sub(t.startedAt).Milliseconds())
}

// Reset implements Timer.
func (t *TestingTimer) Reset() {
	t.startedAt = t.clock.Now()
}
