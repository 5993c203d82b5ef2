// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import (
	"context"
	"math"
	"strconv"
	"time"
)

// TimingWheel is a hierarchical timing wheel: a radix-64 decomposition of
// deadlines into per-layer buckets, cascaded down one layer at a time as
// the logical clock advances. It implements setTimeout/setInterval
// semantics at millisecond granularity.
//
// A TimingWheel is single-threaded by design: every exported method here
// assumes exclusive access, with one exception documented on Tick. Embed it
// in a single-threaded event loop, or serialize access externally.
type TimingWheel struct {
	tasks      map[TaskID]*task
	layers     []*bucketLayer
	timer      Timer
	clockHands *ClockHands
	pool       *handPool
	observer   *observer
	refCount   int
	lastID     TaskID
}

// New returns a TimingWheel bound to a real monotonic timer.
func New() *TimingWheel {
	return withTimer(NewSystemTimer())
}

// WithTesting returns a TimingWheel bound to a caller-owned virtual timer,
// for deterministic tests that drive time via TestingTimer.Advance.
func WithTesting(t *TestingTimer) *TimingWheel {
	return withTimer(t)
}

func withTimer(t Timer) *TimingWheel {
	pool := newHandPool(bufferPoolSizeFromEnv())
	return &TimingWheel{
		tasks:      make(map[TaskID]*task),
		timer:      t,
		clockHands: newClockHands(pool, 0),
		pool:       pool,
		observer:   newObserver(),
	}
}

// IsEmpty reports whether the wheel currently holds no tasks.
func (w *TimingWheel) IsEmpty() bool {
	return len(w.tasks) == 0
}

// IsRefEmpty reports whether no currently-filed task is refed.
func (w *TimingWheel) IsRefEmpty() bool {
	return w.refCount == 0
}

// HasRef reports whether id is filed and refed.
func (w *TimingWheel) HasRef(id TaskID) bool {
	t, ok := w.tasks[id]
	return ok && t.refed
}

// SetRef marks id as refed, if present and not already refed. No-op
// otherwise.
func (w *TimingWheel) SetRef(id TaskID) {
	t, ok := w.tasks[id]
	if !ok || t.refed {
		return
	}
	t.refed = true
	w.refCount++
}

// ClearRef marks id as unrefed, if present and currently refed. No-op
// otherwise.
func (w *TimingWheel) ClearRef(id TaskID) {
	t, ok := w.tasks[id]
	if !ok || !t.refed {
		return
	}
	t.refed = false
	w.refCount--
}

// Register schedules callback to fire delayMS milliseconds from now, once
// (isInterval false) or repeatedly every delayMS (isInterval true). delayMS
// must be a finite number; NaN or +/-Inf returns ErrInvalidDelay. Any other
// value is clamped to [minDelayMS, maxDelayMS].
func (w *TimingWheel) Register(delayMS float64, callback Callback, isInterval bool) (TaskID, error) {
	if math.IsNaN(delayMS) || math.IsInf(delayMS, 0) {
		return 0, ErrInvalidDelay
	}

	delay := clampDelay(delayMS)

	if len(w.tasks) == 0 {
		w.timer.Reset()
		w.clockHands.Reset()
	}

	id := w.lastID
	w.lastID++

	t := newTask(w.pool, id, w.timer.Now(), delay, callback, isInterval)
	w.file(t)
	w.observer.onRegister()
	return id, nil
}

// Unregister cancels id. The task's bucket entry becomes a tombstone,
// discarded without invoking its callback the next time its bucket drops
// down; no bucket scan happens here. No-op if id is unknown.
func (w *TimingWheel) Unregister(id TaskID) {
	if w.unfile(id) {
		w.observer.onCancel(id)
	}
}

// Refresh re-arms id's deadline to timer.Now()+delay and re-files it. No-op
// if id is unknown.
func (w *TimingWheel) Refresh(id TaskID) {
	t, ok := w.tasks[id]
	if !ok {
		return
	}
	t.setScheduledAt(w.pool, w.timer.Now())
	w.file(t)
}

// file grows the layer stack to accommodate t's decomposition length,
// records t in the task table, and inserts it into its layer's bucket.
func (w *TimingWheel) file(t *task) {
	layerIdx := t.layerSize()
	for len(w.layers) < layerIdx {
		w.layers = append(w.layers, newBucketLayer(len(w.layers)))
	}

	if _, existed := w.tasks[t.id]; !existed && t.refed {
		w.refCount++
	}
	w.tasks[t.id] = t

	w.layers[layerIdx-1].insert(t)
}

// unfile removes id from the task table, decrementing refCount if it was
// refed. Returns whether id was present.
func (w *TimingWheel) unfile(id TaskID) bool {
	t, ok := w.tasks[id]
	if !ok {
		return false
	}
	delete(w.tasks, id)
	if t.refed {
		w.refCount--
	}
	return true
}

// clampDelay clamps a validated (non-NaN, non-Inf) delay into
// [minDelayMS, maxDelayMS].
func clampDelay(delayMS float64) uint64 {
	switch {
	case delayMS < minDelayMS:
		return minDelayMS
	case delayMS > maxDelayMS:
		return maxDelayMS
	default:
		return uint64(delayMS)
	}
}

// Tick advances the wheel to timer.Now(), executing every task that
// becomes due along the way. It is not safe to call Tick recursively (e.g.
// from within a callback); doing so is undefined behavior. Register,
// Unregister, SetRef, ClearRef, and Refresh, however, may all be called
// from within a callback.
func (w *TimingWheel) Tick() error {
	now := w.timer.Now()
	ctx, span := w.observer.tracer.StartSpan(context.Background(), SpanTick)
	defer span.Finish()

	ticks := 0
	fired := 0
	for w.clockHands.AdvanceUntil(now) {
		ticks++
		due := w.dropdown(ctx)
		if due == nil {
			continue
		}

		n, err := w.executeDue(due)
		fired += n
		if err != nil {
			span.SetTag(TagTicks, strconv.Itoa(ticks))
			span.SetTag(TagFired, strconv.Itoa(fired))
			return err
		}

		if len(w.tasks) == 0 {
			w.layers = w.layers[:0]
			break
		}
	}

	span.SetTag(TagTicks, strconv.Itoa(ticks))
	span.SetTag(TagFired, strconv.Itoa(fired))
	w.observer.setGauges(len(w.tasks), w.refCount, len(w.layers))
	return nil
}

// dropdown performs one logical millisecond's cascade: walking layers from
// highest to lowest, redistributing any carried-down tasks into the
// current layer and then promoting the bucket at the clock's current hand
// for that layer. The slice returned is whatever surfaces at layer 0 —
// the tasks due this tick. A child span is opened only when more than one
// layer is actually walked, so the common single-layer tick stays cheap.
func (w *TimingWheel) dropdown(ctx context.Context) []*task {
	var carry []*task

	if len(w.layers) > 1 {
		_, span := w.observer.tracer.StartSpan(ctx, SpanCascade)
		span.SetTag(TagLayer, strconv.Itoa(len(w.layers)-1))
		defer func() {
			span.SetTag(TagCascaded, strconv.Itoa(len(carry)))
			span.Finish()
		}()
	}

	for i := len(w.layers) - 1; i >= 0; i-- {
		layer := w.layers[i]
		if layer.isEmpty() && carry == nil {
			continue
		}

		for _, t := range carry {
			layer.insert(t)
		}

		idx, ok := w.clockHands.At(i)
		if !ok {
			carry = nil
			continue
		}
		carry = layer.dropdown(idx)
	}

	w.reduceLayers()
	return carry
}

// Start spins up a goroutine that calls Tick once per millisecond, the
// wheel's own granularity, until ctx is canceled or the returned
// CancelFunc is invoked. It exists for callers that don't already embed
// the wheel in their own event loop.
//
// The wheel has no internal locking: once Start is running, Register,
// Unregister, Refresh, SetRef, and ClearRef must only be called from
// Start's own goroutine (e.g. from within a callback), never from another
// goroutine or a time.AfterFunc, and the wheel must not also be Ticked
// from elsewhere. Calling them from outside Start's goroutine races with
// its Tick calls on the task table and layer stack. A caller that needs
// to register from multiple goroutines must not use Start at all, and
// should instead drive Tick itself from whichever single goroutine also
// calls Register/Unregister.
func (w *TimingWheel) Start(ctx context.Context) context.CancelFunc {
	ctx, cancel := context.WithCancel(ctx)

	ticker := time.NewTicker(time.Millisecond)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = w.Tick() //nolint:errcheck
			case <-ctx.Done():
				return
			}
		}
	}()

	return cancel
}

// reduceLayers pops trailing empty layers so len(layers) tracks one past
// the highest occupied layer. Only called after a full cascade pass
// completes, never mid-walk.
func (w *TimingWheel) reduceLayers() {
	for len(w.layers) > 0 && w.layers[len(w.layers)-1].isEmpty() {
		w.layers = w.layers[:len(w.layers)-1]
	}
}

// executeDue runs every task in due, in bucket-insertion order, and returns
// how many callbacks ran, the failing one included. A callback error aborts
// the rest: the remaining due tasks are removed from the table unfired.
func (w *TimingWheel) executeDue(due []*task) (int, error) {
	fired := 0
	now := w.clockHands.Timestamp()

	for i, t := range due {
		if t.executeAt != now {
			continue
		}

		if !w.unfile(t.id) {
			w.observer.onTombstone()
			continue
		}

		if t.isInterval {
			t.setScheduledAt(w.pool, now)
			w.file(t)
		}

		w.observer.onFire(t.id, t.isInterval)
		fired++
		if err := t.callback(); err != nil {
			// The rest of due is dropped: remove its tasks from the table
			// without firing them.
			for _, rest := range due[i+1:] {
				if rest.executeAt == now {
					w.unfile(rest.id)
				}
			}
			return fired, &CallbackFailure{TaskID: t.id, Err: err}
		}
	}

	return fired, nil
}
