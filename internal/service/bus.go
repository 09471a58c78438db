package service

import (
	"sync"
	"time"
)

// Change kinds published by a MapViewModel.
const (
	ChangeViewport  = "viewport"
	ChangeSelection = "selection"
	ChangeClosed    = "closed"
)

// closedDelivery bounds how long Publish waits on a full subscriber for a
// ChangeClosed event, the only event that ends a screen's stream.
var closedDelivery = time.Second

// Event reports a state write on one screen.
type Event struct {
	Screen string // screen ID
	Kind   string // ChangeViewport, ChangeSelection or ChangeClosed
}

// EventBus is a simple fan-out pub/sub for view-model change events.
type EventBus struct {
	mu   sync.RWMutex
	subs map[chan Event]string
}

// NewEventBus creates a new event bus.
func NewEventBus() *EventBus {
	return &EventBus{subs: make(map[chan Event]string)}
}

// Publish sends an event to every subscriber of its screen. Slow subscribers
// miss viewport and selection events; a ChangeClosed event waits up to
// closedDelivery for buffer space.
func (b *EventBus) Publish(e Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch, screen := range b.subs {
		if screen != "" && screen != e.Screen {
			continue
		}
		if e.Kind == ChangeClosed {
			timer := time.NewTimer(closedDelivery)
			select {
			case ch <- e:
			case <-timer.C:
			}
			timer.Stop()
			continue
		}
		select {
		case ch <- e:
		default:
			// subscriber too slow, skip
		}
	}
}

// Subscribe returns a buffered channel receiving events for screen.
// An empty screen subscribes to every screen.
func (b *EventBus) Subscribe(screen string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	b.subs[ch] = screen
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *EventBus) Unsubscribe(ch chan Event) {
	b.mu.Lock()
	if _, ok := b.subs[ch]; ok {
		delete(b.subs, ch)
		close(ch)
	}
	b.mu.Unlock()
}

// Subscribers returns the current subscriber count.
func (b *EventBus) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}
