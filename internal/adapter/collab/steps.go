package collab

import (
	"context"
	"errors"
	"sort"
	"sync"

	"savekeep/internal/app/ports"
	"savekeep/pkg/logger"
)

var (
	ErrStepNotFound   = errors.New("level step not found")
	ErrStepNotPlaying = errors.New("level step is not playing")
)

// RemoteStep is a level step whose outcome is reported from outside the
// process, typically by the game client over HTTP.
type RemoteStep struct {
	id string

	mu      sync.Mutex
	pending chan ports.StepOutcome
}

func (s *RemoteStep) Name() string {
	return s.id
}

// Play arms the step. A previous activation that never got an outcome is
// dropped.
func (s *RemoteStep) Play(context.Context) <-chan ports.StepOutcome {
	ch := make(chan ports.StepOutcome, 1)
	s.mu.Lock()
	s.pending = ch
	s.mu.Unlock()
	return ch
}

func (s *RemoteStep) Playing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pending != nil
}

func (s *RemoteStep) report(outcome ports.StepOutcome) error {
	s.mu.Lock()
	ch := s.pending
	s.pending = nil
	s.mu.Unlock()
	if ch == nil {
		return ErrStepNotPlaying
	}
	ch <- outcome
	return nil
}

type StepRegistry struct {
	mu    sync.Mutex
	steps map[string]*RemoteStep
}

func NewStepRegistry() *StepRegistry {
	return &StepRegistry{steps: map[string]*RemoteStep{}}
}

// Step returns the step with the given id, creating it on first use.
func (r *StepRegistry) Step(id string) *RemoteStep {
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.steps[id]; ok {
		return s
	}
	s := &RemoteStep{id: id}
	r.steps[id] = s
	return s
}

func (r *StepRegistry) Report(id string, outcome ports.StepOutcome) error {
	r.mu.Lock()
	s, ok := r.steps[id]
	r.mu.Unlock()
	if !ok {
		return ErrStepNotFound
	}
	if err := s.report(outcome); err != nil {
		return err
	}
	logger.Component("collab.steps").WithField("level_step", id).WithField("outcome", outcome.String()).
		Info("level step outcome reported")
	return nil
}

func (r *StepRegistry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.steps))
	for id := range r.steps {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
