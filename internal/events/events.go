// Package events carries checklist and progress changes to whoever displays
// or reacts to them.
package events

import (
	"sync"
	"time"
)

type Type string

const (
	ChecklistGenerated Type = "checklist_generated"
	ChecklistUpdated   Type = "checklist_updated"
	ChecklistExpired   Type = "checklist_expired"
	ChecklistCompleted Type = "checklist_completed"
	ProgressChanged    Type = "progress_changed"
)

type Event struct {
	Type        Type      `json:"type"`
	ChecklistID string    `json:"checklist_id,omitempty"`
	At          time.Time `json:"at"`
}

type Handler func(Event)

// Bus delivers events synchronously to every subscriber, in subscription
// order. Handlers must not block.
type Bus struct {
	mu       sync.RWMutex
	next     int
	handlers map[int]Handler
	order    []int
}

func NewBus() *Bus {
	return &Bus{handlers: make(map[int]Handler)}
}

// Subscribe registers h and returns a function that removes it.
func (b *Bus) Subscribe(h Handler) (unsubscribe func()) {
	b.mu.Lock()
	id := b.next
	b.next++
	b.handlers[id] = h
	b.order = append(b.order, id)
	b.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.handlers, id)
			for i, v := range b.order {
				if v == id {
					b.order = append(b.order[:i], b.order[i+1:]...)
					break
				}
			}
			b.mu.Unlock()
		})
	}
}

// Publish stamps ev if needed and hands it to every subscriber.
func (b *Bus) Publish(ev Event) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	b.mu.RLock()
	hs := make([]Handler, 0, len(b.order))
	for _, id := range b.order {
		hs = append(hs, b.handlers[id])
	}
	b.mu.RUnlock()

	for _, h := range hs {
		h(ev)
	}
}

// SubscriberCount returns the number of registered handlers.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.handlers)
}
