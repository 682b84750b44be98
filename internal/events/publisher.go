package events

import (
	"context"
	"sync"
)

// Publisher delivers events to whoever is listening
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// NoOpPublisher is a publisher that does nothing (for testing or when no
// transport is configured)
type NoOpPublisher struct{}

// Publish does nothing
func (NoOpPublisher) Publish(ctx context.Context, event Event) {}

// MultiPublisher fans an event out to several publishers in order
type MultiPublisher []Publisher

// Publish forwards the event to every publisher
func (m MultiPublisher) Publish(ctx context.Context, event Event) {
	for _, p := range m {
		if p != nil {
			p.Publish(ctx, event)
		}
	}
}

// RecordingPublisher keeps every published event, used by tests
type RecordingPublisher struct {
	mu     sync.Mutex
	Events []Event
}

// Publish records the event
func (r *RecordingPublisher) Publish(ctx context.Context, event Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, event)
}

// Types returns the type of every recorded event in order
func (r *RecordingPublisher) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
