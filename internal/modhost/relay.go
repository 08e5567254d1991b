package modhost

import (
	"sync"

	"github.com/annel0/sandbox-world/internal/world"
)

// Relay собирает события, порождённые вызовами модов, до следующего
// сброса в основную очередь симуляции.
type Relay struct {
	mu     sync.Mutex
	events []world.Event
}

// Emit реализует world.Emitter
func (r *Relay) Emit(e world.Event) {
	r.mu.Lock()
	r.events = append(r.events, e)
	r.mu.Unlock()
}

// Flush переносит накопленные события в dst в порядке поступления
func (r *Relay) Flush(dst world.Emitter) int {
	r.mu.Lock()
	events := r.events
	r.events = nil
	r.mu.Unlock()

	for _, e := range events {
		dst.Emit(e)
	}
	return len(events)
}

// Len возвращает число ожидающих событий
func (r *Relay) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}
