package memory

import (
	"context"
	"sync"

	"savekeep/internal/app/ports"
)

// Publisher records events in order. With a limit it keeps only the most
// recent events, which is what hosts without a broker use.
type Publisher struct {
	mu     sync.Mutex
	limit  int
	events []ports.Event
}

func NewPublisher() *Publisher {
	return &Publisher{}
}

// NewBoundedPublisher keeps at most limit events. limit <= 0 means unbounded.
func NewBoundedPublisher(limit int) *Publisher {
	return &Publisher{limit: limit}
}

func (p *Publisher) Publish(_ context.Context, event ports.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	if p.limit > 0 && len(p.events) > p.limit {
		n := copy(p.events, p.events[len(p.events)-p.limit:])
		clear(p.events[n:])
		p.events = p.events[:n]
	}
	return nil
}

func (p *Publisher) Events() []ports.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]ports.Event, len(p.events))
	copy(out, p.events)
	return out
}

func (p *Publisher) Count(eventType string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := 0
	for _, e := range p.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}
