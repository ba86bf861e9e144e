package analytics

import (
	"context"
	"sync"
)

type recordedEvent struct {
	Name    string
	Payload Payload
}

// recorder is a Sink that keeps every event in memory.
type recorder struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (r *recorder) Record(_ context.Context, name string, payload Payload) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, recordedEvent{Name: name, Payload: payload})
}

func (r *recorder) depths() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, ev := range r.events {
		if ev.Name == EventScrollDepth {
			out = append(out, ev.Payload["depth"].(int))
		}
	}
	return out
}
