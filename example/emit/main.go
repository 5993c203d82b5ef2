package main

import (
	"context"
	"fmt"
	"time"

	"github.com/qwp0905/timingwheel/emit"
)

// Message is a custom event type.
type Message struct {
	Text string
}

// Type returns the type of the event for the dispatcher.
func (Message) Type() uint32 {
	return 0x1
}

func main() {
	// Subscribe and handle the event. Subscription dispatch runs on the
	// event bus's own goroutines, independent of emit.Scheduler.
	unsubscribe := emit.On[Message](func(ev Message, now time.Time, elapsed time.Duration) error {
		fmt.Printf("Received '%s' at %02d.%03d, elapsed=%v\n",
			ev.Text, now.Second(), now.UnixMilli()%1000, elapsed)
		return nil
	})
	defer unsubscribe() // Remember to unsubscribe when done.

	// emit.Scheduler carries no internal goroutine: every Next/At/After/
	// Every call and every Tick below run on this one goroutine.
	emit.Next(Message{Text: "Hello, World!"})
	stopEvery := emit.Every(Message{Text: "Are we there yet?"}, 500*time.Millisecond)
	defer stopEvery()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	ticker := time.NewTicker(time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			emit.Scheduler.Tick() //nolint:errcheck
		case <-ctx.Done():
			return
		}
	}
}
