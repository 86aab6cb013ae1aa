package booking

import "sync"

// DecisionGate serializes decision handling per booking ID. Concurrent
// requests for different bookings proceed independently; requests for the
// same booking queue so exactly one observes the pending state.
type DecisionGate struct {
	mu      sync.Mutex
	entries map[string]*gateEntry
}

type gateEntry struct {
	mu   sync.Mutex
	refs int
}

func NewDecisionGate() *DecisionGate {
	return &DecisionGate{entries: make(map[string]*gateEntry)}
}

// Acquire blocks until the caller holds the lock for id and returns the
// release function. Entries are dropped once the last holder releases, so
// the map does not grow with the booking table.
func (g *DecisionGate) Acquire(id string) func() {
	g.mu.Lock()
	entry, ok := g.entries[id]
	if !ok {
		entry = &gateEntry{}
		g.entries[id] = entry
	}
	entry.refs++
	g.mu.Unlock()

	entry.mu.Lock()

	var once sync.Once
	return func() {
		once.Do(func() {
			entry.mu.Unlock()
			g.mu.Lock()
			entry.refs--
			if entry.refs == 0 {
				delete(g.entries, id)
			}
			g.mu.Unlock()
		})
	}
}
