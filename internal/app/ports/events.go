package ports

import (
	"context"
	"time"
)

const (
	EventSequenceFinished = "sequence.finished"
	EventSequenceAborted  = "sequence.aborted"
	EventDialogueStarted  = "dialogue.started"
	EventStepStarted      = "step.started"
	EventGameSaved        = "game.saved"
)

type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Payload    map[string]any `json:"payload"`
}

type EventPublisher interface {
	Publish(ctx context.Context, event Event) error
}
