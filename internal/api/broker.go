package api

import "sync"

// Event is one message on a plan's event stream.
type Event struct {
	Type string         `json:"type"`
	Data map[string]any `json:"data"`
}

// Terminal reports whether no further events follow e on its stream.
func (e Event) Terminal() bool {
	return e.Type == eventPlanCompleted || e.Type == eventPlanFailed
}

// EventBroker fans plan events out to stream subscribers.
type EventBroker interface {
	Subscribe(planID string) chan Event
	Unsubscribe(planID string, ch chan Event)
	Publish(planID string, evt Event)
}

// Broker is the in-process EventBroker.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan Event]struct{} // planID -> subscribers
}

func NewBroker() *Broker {
	return &Broker{subs: map[string]map[chan Event]struct{}{}}
}

func (b *Broker) Subscribe(planID string) chan Event {
	ch := make(chan Event, 16)
	b.mu.Lock()
	if b.subs[planID] == nil {
		b.subs[planID] = map[chan Event]struct{}{}
	}
	b.subs[planID][ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

func (b *Broker) Unsubscribe(planID string, ch chan Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	m := b.subs[planID]
	if _, ok := m[ch]; !ok {
		return
	}
	delete(m, ch)
	if len(m) == 0 {
		delete(b.subs, planID)
	}
	close(ch)
}

// Publish never blocks; slow subscribers miss events.
func (b *Broker) Publish(planID string, evt Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[planID] {
		select {
		case ch <- evt:
		default:
		}
	}
}
