package collab

import (
	"context"
	"sync"
	"time"

	"savekeep/internal/app/ports"
)

// DialogueBridge hands dialogue assets to the client through the event
// publisher. The client reports completion back to the owning sequencer.
type DialogueBridge struct {
	sequence  string
	publisher ports.EventPublisher
	now       func() time.Time

	mu      sync.Mutex
	current string
}

func NewDialogueBridge(sequence string, publisher ports.EventPublisher) *DialogueBridge {
	return &DialogueBridge{sequence: sequence, publisher: publisher, now: time.Now}
}

func (d *DialogueBridge) StartDialogue(ctx context.Context, asset string) error {
	d.mu.Lock()
	d.current = asset
	d.mu.Unlock()
	if d.publisher == nil {
		return nil
	}
	return d.publisher.Publish(ctx, ports.Event{
		Type:       ports.EventDialogueStarted,
		OccurredAt: d.now().UTC(),
		Payload:    map[string]any{"sequence": d.sequence, "asset": asset},
	})
}

// Current is the last asset started, or "" once cleared.
func (d *DialogueBridge) Current() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.current
}

func (d *DialogueBridge) Clear() {
	d.mu.Lock()
	d.current = ""
	d.mu.Unlock()
}
