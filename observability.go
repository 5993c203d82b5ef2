// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import (
	"context"
	"time"

	"github.com/zoobzio/hookz"
	"github.com/zoobzio/metricz"
	"github.com/zoobzio/tracez"
)

// Observability constants for the wheel. Named the same way across
// metrics/spans/tags/hook-events, following the reference corpus's
// connector-level observability convention.
const (
	// Metrics.
	MetricTasksRegisteredTotal = metricz.Key("wheel.tasks.registered.total")
	MetricTasksFiredTotal      = metricz.Key("wheel.tasks.fired.total")
	MetricTasksCanceledTotal   = metricz.Key("wheel.tasks.canceled.total")
	MetricTombstonesTotal      = metricz.Key("wheel.tasks.tombstones.total")
	MetricTasksActive          = metricz.Key("wheel.tasks.active")
	MetricRefCount             = metricz.Key("wheel.ref.count")
	MetricLayersDepth          = metricz.Key("wheel.layers.depth")

	// Spans.
	SpanTick     = tracez.Key("wheel.tick")
	SpanCascade  = tracez.Key("wheel.cascade")
	TagTicks     = tracez.Tag("wheel.ticks_advanced")
	TagFired     = tracez.Tag("wheel.tasks_fired")
	TagLayer     = tracez.Tag("wheel.layer")
	TagCascaded  = tracez.Tag("wheel.tasks_cascaded")

	// Hook event keys.
	EventFired              = hookz.Key("wheel.fired")
	EventCanceled           = hookz.Key("wheel.canceled")
	EventTombstoneDiscarded = hookz.Key("wheel.tombstone")
)

// FireEvent is emitted on the observer's hook bus whenever a task fires, is
// canceled, or surfaces as a tombstone. Handlers are dispatched by hookz
// asynchronously, off the Tick hot path.
type FireEvent struct {
	TaskID     TaskID
	IsInterval bool
	At         time.Time
}

// observer bundles the metrics registry, tracer, and hook bus attached to a
// TimingWheel. It is ambient engineering surface, not part of the
// scheduling algorithm: a wheel works identically with every hook a no-op.
type observer struct {
	metrics *metricz.Registry
	tracer  *tracez.Tracer
	hooks   *hookz.Hooks[FireEvent]
}

func newObserver() *observer {
	metrics := metricz.New()
	metrics.Counter(MetricTasksRegisteredTotal)
	metrics.Counter(MetricTasksFiredTotal)
	metrics.Counter(MetricTasksCanceledTotal)
	metrics.Counter(MetricTombstonesTotal)
	metrics.Gauge(MetricTasksActive)
	metrics.Gauge(MetricRefCount)
	metrics.Gauge(MetricLayersDepth)

	return &observer{
		metrics: metrics,
		tracer:  tracez.New(),
		hooks:   hookz.New[FireEvent](),
	}
}

func (o *observer) onRegister() {
	o.metrics.Counter(MetricTasksRegisteredTotal).Inc()
}

func (o *observer) onCancel(id TaskID) {
	o.metrics.Counter(MetricTasksCanceledTotal).Inc()
	_ = o.hooks.Emit(context.Background(), EventCanceled, FireEvent{TaskID: id, At: time.Now()}) //nolint:errcheck
}

func (o *observer) onTombstone() {
	o.metrics.Counter(MetricTombstonesTotal).Inc()
	_ = o.hooks.Emit(context.Background(), EventTombstoneDiscarded, FireEvent{}) //nolint:errcheck
}

func (o *observer) onFire(id TaskID, isInterval bool) {
	o.metrics.Counter(MetricTasksFiredTotal).Inc()
	_ = o.hooks.Emit(context.Background(), EventFired, FireEvent{ //nolint:errcheck
		TaskID:     id,
		IsInterval: isInterval,
		At:         time.Now(),
	})
}

func (o *observer) setGauges(active, refCount, layersDepth int) {
	o.metrics.Gauge(MetricTasksActive).Set(float64(active))
	o.metrics.Gauge(MetricRefCount).Set(float64(refCount))
	o.metrics.Gauge(MetricLayersDepth).Set(float64(layersDepth))
}

// OnFired registers a handler invoked whenever a task fires (one-shot or
// interval). See hookz for dispatch semantics.
func (w *TimingWheel) OnFired(handler func(context.Context, FireEvent) error) error {
	_, err := w.observer.hooks.Hook(EventFired, handler)
	return err
}

// OnCanceled registers a handler invoked whenever a filed task is
// unregistered, whether refed or not.
func (w *TimingWheel) OnCanceled(handler func(context.Context, FireEvent) error) error {
	_, err := w.observer.hooks.Hook(EventCanceled, handler)
	return err
}

// OnTombstoneDiscarded registers a handler invoked whenever a cascade
// surfaces a bucket entry whose task has already been removed from the
// table.
func (w *TimingWheel) OnTombstoneDiscarded(handler func(context.Context, FireEvent) error) error {
	_, err := w.observer.hooks.Hook(EventTombstoneDiscarded, handler)
	return err
}

// Metrics returns the wheel's metrics registry.
func (w *TimingWheel) Metrics() *metricz.Registry {
	return w.observer.metrics
}

// Tracer returns the wheel's tracer.
func (w *TimingWheel) Tracer() *tracez.Tracer {
	return w.observer.tracer
}

// Close releases the wheel's tracer and hook bus. The wheel itself remains
// usable; Close only tears down observability plumbing.
func (w *TimingWheel) Close() error {
	w.observer.tracer.Close()
	w.observer.hooks.Close()
	return nil
}
