package supervisor

import (
	"log"
	"sync/atomic"
	"time"
)

// drainWindow is how long Emit waits for a slow consumer before a full
// channel costs an event.
const drainWindow = 100 * time.Millisecond

// eventEmitter fans supervisor events out to one consumer (the monitor
// TUI or a test). Emission never blocks the supervisor for longer than
// drainWindow: executor lifecycles must not stall behind a stuck
// renderer, so under sustained backpressure events are counted and
// dropped rather than queued without bound.
type eventEmitter struct {
	events  chan Event
	dropped atomic.Uint64
}

func newEventEmitter(bufferSize int) *eventEmitter {
	return &eventEmitter{
		events: make(chan Event, bufferSize),
	}
}

// Emit delivers an event, stamping it if the caller did not. A full
// buffer gets one drainWindow of grace; after that the event is dropped
// and the drop counter advances.
func (e *eventEmitter) Emit(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	select {
	case e.events <- event:
		return
	default:
	}

	select {
	case e.events <- event:
	case <-time.After(drainWindow):
		count := e.dropped.Add(1)
		// Log sparsely; a wedged consumer would otherwise flood the log.
		if count%10 == 1 {
			log.Printf("[supervisor] event channel full, dropped %s event (total dropped: %d)", event.Type, count)
		}
	}
}

// DroppedCount returns how many events have been dropped under load.
func (e *eventEmitter) DroppedCount() uint64 {
	return e.dropped.Load()
}

// Events returns the consumer side of the event stream.
func (e *eventEmitter) Events() <-chan Event {
	return e.events
}

// Close closes the event stream. Only call after all emitters stopped.
func (e *eventEmitter) Close() {
	close(e.events)
}
