// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

// Package emit bridges TimingWheel firings onto a typed pub/sub bus. Where
// wheel.Register hands a single callback a single task, emit publishes a
// typed event that any number of subscribers can independently receive,
// for fan-out delivery.
//
// Scheduler inherits the wheel's single-threaded contract: Next/At/After/
// Every and Scheduler.Tick must all be driven from the same goroutine, the
// host's event loop. Unlike the teacher package this one is bridging from,
// Scheduler does not spin up its own ticking goroutine, since the wheel it
// wraps carries no internal locking.
package emit

import (
	"context"
	"math"
	"sync/atomic"
	"time"

	"github.com/kelindar/event"

	wheel "github.com/qwp0905/timingwheel"
)

// Scheduler is the default wheel used to emit events. Call Scheduler.Tick
// from the host's event loop to drive it forward.
var Scheduler = wheel.New()

// ----------------------------------------- Forward Event -----------------------------------------

// signal represents a forwarded event.
type signal[T event.Event] struct {
	Time    time.Time     // The time at which the event was emitted
	Elapsed time.Duration // The time elapsed since the schedule call
	Data    T
}

// Type returns the type of the event.
func (e signal[T]) Type() uint32 {
	return e.Data.Type()
}

// ----------------------------------------- Error Event -----------------------------------------

// fault represents an error event.
type fault struct {
	error
	About any // The context of the error
}

// Type returns the type of the event.
func (e fault) Type() uint32 {
	return math.MaxUint32
}

// ----------------------------------------- Timer Event -----------------------------------------

var nextTimerID uint32 = 1 << 30

// Timer represents a Timer event.
type Timer struct {
	ID uint32
}

// Type returns the type of the event.
func (e Timer) Type() uint32 {
	return e.ID
}

// ----------------------------------------- Subscribe -----------------------------------------

// On subscribes to an event, the type of the event will be automatically
// inferred from the provided type. Must be constant for this to work.
func On[T event.Event](handler func(event T, now time.Time, elapsed time.Duration) error) context.CancelFunc {
	return event.Subscribe[signal[T]](event.Default, func(m signal[T]) {
		if err := handler(m.Data, m.Time, m.Elapsed); err != nil {
			Error(err, m.Data)
		}
	})
}

// OnType subscribes to an event with the specified event type.
func OnType[T event.Event](eventType uint32, handler func(event T, now time.Time, elapsed time.Duration) error) context.CancelFunc {
	return event.SubscribeTo[signal[T]](event.Default, eventType, func(m signal[T]) {
		if err := handler(m.Data, m.Time, m.Elapsed); err != nil {
			Error(err, m.Data)
		}
	})
}

// OnError subscribes to an error event.
func OnError(handler func(err error, about any)) context.CancelFunc {
	return event.Subscribe[fault](event.Default, func(m fault) {
		handler(m.error, m.About)
	})
}

// OnEvery creates a timer that fires every interval and calls the handler.
func OnEvery(handler func(now time.Time, elapsed time.Duration) error, interval time.Duration) context.CancelFunc {
	id := atomic.AddUint32(&nextTimerID, 1)
	if id >= (math.MaxUint32 - 1) {
		panic("emit: too many timers created")
	}

	onType := OnType[Timer](id, func(_ Timer, now time.Time, elapsed time.Duration) error {
		return handler(now, elapsed)
	})
	onEvery := Every(Timer{ID: id}, interval)

	return func() {
		onEvery()
		onType()
	}
}

// ----------------------------------------- Publish -----------------------------------------

// Next writes an event during the next tick.
func Next[T event.Event](ev T) {
	schedule(ev, 0, false)
}

// At writes an event at a specific time.
func At[T event.Event](ev T, at time.Time) {
	schedule(ev, time.Until(at), false)
}

// After writes an event after a delay.
func After[T event.Event](ev T, after time.Duration) {
	schedule(ev, after, false)
}

// Every writes an event at interval boundaries, starting at the first one.
// Returns a cancel function that unregisters the underlying wheel task.
func Every[T event.Event](ev T, interval time.Duration) context.CancelFunc {
	return schedule(ev, interval, true)
}

// EveryAt writes an event at interval boundaries, with the first firing
// scheduled at startTime and every firing after that interval apart.
func EveryAt[T event.Event](ev T, interval time.Duration, startTime time.Time) context.CancelFunc {
	return scheduleOffset(ev, interval, time.Until(startTime))
}

// EveryAfter writes an event at interval boundaries, with the first firing
// scheduled after delay and every firing after that interval apart.
func EveryAfter[T event.Event](ev T, interval time.Duration, delay time.Duration) context.CancelFunc {
	return scheduleOffset(ev, interval, delay)
}

// Error writes an error event.
func Error(err error, about any) {
	event.Publish(event.Default, fault{
		error: err,
		About: about,
	})
}

// ----------------------------------------- Scheduling -----------------------------------------

// publish stamps ev with the current time and elapsed duration since
// startedAt, and publishes it on the default event bus.
func publish[T event.Event](ev T, startedAt time.Time) {
	now := time.Now()
	event.Publish(event.Default, signal[T]{
		Data:    ev,
		Time:    now,
		Elapsed: now.Sub(startedAt),
	})
}

// schedule registers ev on Scheduler, delay from now, once or as a
// recurring task sharing that same spacing on every firing.
func schedule[T event.Event](ev T, delay time.Duration, isInterval bool) context.CancelFunc {
	startedAt := time.Now()
	cb := func() error {
		publish(ev, startedAt)
		return nil
	}

	id, err := Scheduler.Register(float64(delay.Milliseconds()), cb, isInterval)
	if err != nil {
		Error(err, ev)
		return func() {}
	}
	return func() { Scheduler.Unregister(id) }
}

// scheduleOffset registers ev whose first firing is offset from now and
// whose every subsequent firing is interval apart. Since wheel.Register's
// own interval rearm always reuses the delay a task was first given, the
// first firing is a one-shot that, on completion, registers the true
// recurring task.
func scheduleOffset[T event.Event](ev T, interval time.Duration, offset time.Duration) context.CancelFunc {
	startedAt := time.Now()
	var recurringID wheel.TaskID
	canceled := false

	recurring := func() error {
		publish(ev, startedAt)
		return nil
	}

	firstFire := func() error {
		publish(ev, startedAt)
		if canceled {
			return nil
		}
		id, err := Scheduler.Register(float64(interval.Milliseconds()), recurring, true)
		if err != nil {
			return err
		}
		recurringID = id
		return nil
	}

	firstID, err := Scheduler.Register(float64(offset.Milliseconds()), firstFire, false)
	if err != nil {
		Error(err, ev)
		return func() {}
	}

	return func() {
		canceled = true
		Scheduler.Unregister(firstID)
		Scheduler.Unregister(recurringID)
	}
}
