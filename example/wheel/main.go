package main

import (
	"context"
	"fmt"
	"time"

	wheel "github.com/qwp0905/timingwheel"
)

func main() {
	// The wheel carries no internal locking: every call below runs on this
	// one goroutine, including the ticks that drive it forward. Register
	// and Unregister must never be called concurrently with Tick from
	// another goroutine.
	tw := wheel.New()

	tw.OnFired(func(_ context.Context, ev wheel.FireEvent) error { //nolint:errcheck
		fmt.Printf("fired task %d interval=%v at %s\n", ev.TaskID, ev.IsInterval, ev.At.Format(time.RFC3339Nano))
		return nil
	})

	// Fire once, one second from now.
	tw.Register(float64(time.Second.Milliseconds()), func() error { //nolint:errcheck
		fmt.Println("one-shot timeout fired")
		return nil
	}, false)

	// Fire every 250ms.
	id, _ := tw.Register(float64((250 * time.Millisecond).Milliseconds()), func() error { //nolint:errcheck
		fmt.Println("interval tick")
		return nil
	}, true)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	cutoff := time.NewTimer(2 * time.Second)
	defer cutoff.Stop()

	for {
		select {
		case <-ticker.C:
			tw.Tick() //nolint:errcheck
		case <-cutoff.C:
			// Cancel the interval from the same goroutine that ticks.
			tw.Unregister(id)
		case <-ctx.Done():
			return
		}
	}
}
