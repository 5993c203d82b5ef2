// Copyright (c) Roman Atachiants and contributors. All rights reserved.
// Licensed under the MIT license. See LICENSE file in the project root

package wheel

import "time"

// Default is a process-wide TimingWheel bound to the real clock, for
// callers that don't need a dedicated instance. Like the wheel itself,
// Default is not safe for concurrent use: Tick it from a single goroutine.
var Default = New()

// SetTimeout schedules callback to fire once after delay, on Default. It
// mirrors the host-runtime setTimeout name for callers porting JS-shaped
// scheduling code.
func SetTimeout(delay time.Duration, callback Callback) (TaskID, error) {
	return Default.Register(float64(delay.Milliseconds()), callback, false)
}

// SetInterval schedules callback to fire repeatedly every delay, on
// Default.
func SetInterval(delay time.Duration, callback Callback) (TaskID, error) {
	return Default.Register(float64(delay.Milliseconds()), callback, true)
}

// ClearTimeout cancels a timeout registered with SetTimeout. Alias of
// Unregister; no-op if id already fired or was never valid.
func ClearTimeout(id TaskID) {
	Default.Unregister(id)
}

// ClearInterval cancels an interval registered with SetInterval. Alias of
// Unregister.
func ClearInterval(id TaskID) {
	Default.Unregister(id)
}
