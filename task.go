// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

// TaskID identifies a registered task. It is widened to 64 bits relative to
// the 32-bit id the original binding exposed to its host runtime: see the
// id-overflow discussion in DESIGN.md. Ids are never reused while a wheel
// instance is alive.
type TaskID uint64

// Callback is the unit of work a Task fires. It is invoked at most once per
// firing, synchronously, from within Tick. A non-nil return value aborts
// the in-progress Tick and is surfaced as a *CallbackFailure.
type Callback func() error

// task is a registered unit: an id, an absolute deadline, the cached radix
// decomposition of that deadline, and the interval/ref bookkeeping flags.
type task struct {
	id         TaskID
	executeAt  uint64 // scheduledAt + delay
	delay      uint64 // >= minDelayMS
	hands      *handVector
	handsLen   int
	callback   Callback
	isInterval bool
	refed      bool
}

// newTask builds a task whose deadline is scheduledAt+delay, decomposing
// that deadline into its radix-64 digits immediately.
func newTask(pool *handPool, id TaskID, scheduledAt, delay uint64, callback Callback, isInterval bool) *task {
	t := &task{
		id:         id,
		delay:      delay,
		callback:   callback,
		isInterval: isInterval,
		refed:      true,
	}
	t.setScheduledAt(pool, scheduledAt)
	return t
}

// setScheduledAt rewrites the task's deadline and decomposition, releasing
// the previous hand vector back to the pool. Used both for initial
// construction and for refresh/interval re-arming.
func (t *task) setScheduledAt(pool *handPool, scheduledAt uint64) {
	if t.hands != nil {
		pool.release(t.hands)
	}
	t.executeAt = scheduledAt + t.delay
	t.hands, t.handsLen = decompose(pool, t.executeAt)
}

// bucketIndex returns the radix digit this task occupies at layerIndex.
func (t *task) bucketIndex(layerIndex int) int {
	return t.hands[layerIndex]
}

// layerSize reports the layer this task currently belongs to, 1-based (the
// layer index itself is layerSize()-1).
func (t *task) layerSize() int {
	return t.handsLen
}

// decompose computes the little-endian base-64 digit sequence of t, with
// trailing zeros trimmed: L(t) is 0 when t == 0, else floor(log64 t)+1.
func decompose(pool *handPool, t uint64) (*handVector, int) {
	hands := pool.acquire()
	length := 0
	current := t
	for length < maxLayers {
		if current == 0 {
			break
		}
		hands[length] = int(current & layerMask)
		current >>= layerBits
		length++
	}
	return hands, length
}
