package ports

import (
	"context"
	"time"
)

type StepOutcome int

const (
	StepSucceeded StepOutcome = iota
	StepFailed
)

func (o StepOutcome) String() string {
	if o == StepSucceeded {
		return "succeeded"
	}
	return "failed"
}

// LevelStep is one externally defined unit of gameplay. Play delivers exactly
// one outcome on the returned channel for each activation.
type LevelStep interface {
	Name() string
	Play(ctx context.Context) <-chan StepOutcome
}

type Dialogue interface {
	StartDialogue(ctx context.Context, asset string) error
}

type ScreenEffect interface {
	Obscuring() bool
	// BeginReveal starts the reveal and returns how long it takes.
	BeginReveal() time.Duration
}
