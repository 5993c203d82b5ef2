// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

// ClockHands is a radix-64 odometer representing the wheel's current
// logical time as a vector of per-layer bucket indices, kept in lock-step
// with its plain integer timestamp.
type ClockHands struct {
	pool      *handPool
	hands     *handVector
	len       int
	timestamp uint64
}

// newClockHands builds the decomposition of an absolute timestamp.
func newClockHands(pool *handPool, timestamp uint64) *ClockHands {
	c := &ClockHands{pool: pool}
	c.setTimestamp(timestamp)
	return c
}

func (c *ClockHands) setTimestamp(timestamp uint64) {
	if c.hands != nil {
		c.pool.release(c.hands)
	}
	c.timestamp = timestamp
	c.hands, c.len = decompose(c.pool, timestamp)
}

// Timestamp returns the current logical time, in milliseconds.
func (c *ClockHands) Timestamp() uint64 {
	return c.timestamp
}

// Len reports how many layers the clock currently spans.
func (c *ClockHands) Len() int {
	return c.len
}

// At returns the bucket index at layer i, or (0, false) if i is beyond the
// clock's current length.
func (c *ClockHands) At(i int) (int, bool) {
	if i >= c.len {
		return 0, false
	}
	return c.hands[i], true
}

// Reset zeroes both the length and the timestamp, restarting the odometer
// from zero. Called whenever the wheel goes idle.
func (c *ClockHands) Reset() {
	c.len = 0
	c.timestamp = 0
	if c.hands != nil {
		*c.hands = handVector{}
	}
}

// AdvanceUntil increments the logical clock by exactly one millisecond and
// carry-propagates through the hand vector, provided the clock has not
// already caught up to target. It returns false once timestamp >= target,
// so the caller loops "for clockHands.AdvanceUntil(now) { ... }" to drive
// the pump forward tick by tick.
func (c *ClockHands) AdvanceUntil(target uint64) bool {
	if c.timestamp >= target {
		return false
	}

	c.timestamp++
	for i := 0; i < c.len; i++ {
		if c.hands[i] < layerMask {
			c.hands[i]++
			return true
		}
		c.hands[i] = 0
	}

	c.hands[c.len] = 1
	c.len++
	return true
}
