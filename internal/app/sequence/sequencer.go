package sequence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"

	"savekeep/internal/app/ports"
	"savekeep/internal/domain/conditions"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

const DefaultPollInterval = 500 * time.Millisecond

var (
	ErrInvalidConfig  = errors.New("invalid sequence config")
	ErrAlreadyStarted = errors.New("sequence already started")
)

type State string

const (
	StateIdle      State = "idle"
	StateGated     State = "gated"
	StateRunning   State = "running"
	StateSucceeded State = "succeeded"
	StateFailed    State = "failed"
	StateEnded     State = "ended"
	StateSkipped   State = "skipped"
)

type Config struct {
	Name      string
	Condition string
	Necessary []string
	Steps     []ports.LevelStep

	// Dialogue assets indexed by step. Empty entries and missing indexes
	// mean no beat.
	BeforeStep []string
	AfterStep  []string
	OnFail     string

	DialogueDelay time.Duration
	PollInterval  time.Duration

	IgnoreOtherConditions bool
	IgnoreSelfCondition   bool

	Board      *conditions.Board
	Dialogue   ports.Dialogue
	Effect     ports.ScreenEffect
	Publisher  ports.EventPublisher
	OnFinished func()
}

type Status struct {
	Name      string `json:"name"`
	State     State  `json:"state"`
	Step      int    `json:"step"`
	StepCount int    `json:"step_count"`
	Condition string `json:"condition"`
}

// Sequencer runs an ordered list of level steps once its gate opens and
// marks its own condition true when every step succeeded.
type Sequencer struct {
	cfg     Config
	started atomic.Bool

	mu            sync.Mutex
	state         State
	cursor        int
	dialogueEnded chan struct{}
}

func New(cfg Config) (*Sequencer, error) {
	if strings.TrimSpace(cfg.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", ErrInvalidConfig)
	}
	if strings.TrimSpace(cfg.Condition) == "" {
		return nil, fmt.Errorf("%w: %s: condition is required", ErrInvalidConfig, cfg.Name)
	}
	if cfg.Board == nil {
		return nil, fmt.Errorf("%w: %s: board is required", ErrInvalidConfig, cfg.Name)
	}
	for i, step := range cfg.Steps {
		if step == nil {
			return nil, fmt.Errorf("%w: %s: step %d is nil", ErrInvalidConfig, cfg.Name, i)
		}
	}
	if cfg.Dialogue == nil && hasDialogue(cfg) {
		return nil, fmt.Errorf("%w: %s: dialogue assets configured without a dialogue collaborator", ErrInvalidConfig, cfg.Name)
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = DefaultPollInterval
	}
	return &Sequencer{cfg: cfg, state: StateIdle, cursor: -1}, nil
}

func hasDialogue(cfg Config) bool {
	if cfg.OnFail != "" {
		return true
	}
	for _, assets := range [][]string{cfg.BeforeStep, cfg.AfterStep} {
		for _, a := range assets {
			if a != "" {
				return true
			}
		}
	}
	return false
}

func (s *Sequencer) Name() string {
	return s.cfg.Name
}

func (s *Sequencer) log() *logrus.Entry {
	return logger.Component("sequence").WithField("sequence", s.cfg.Name)
}

func (s *Sequencer) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{
		Name:      s.cfg.Name,
		State:     s.state,
		Step:      s.cursor,
		StepCount: len(s.cfg.Steps),
		Condition: s.cfg.Condition,
	}
}

func (s *Sequencer) setState(state State, cursor int) {
	s.mu.Lock()
	s.state = state
	s.cursor = cursor
	s.mu.Unlock()
	s.log().WithFields(logrus.Fields{"state": state, "step": cursor}).Debug("sequence transition")
}

// Run drives one activation on the calling goroutine. It returns nil once the
// sequence ended or was skipped, and ctx.Err() when cancelled first.
func (s *Sequencer) Run(ctx context.Context) error {
	if !s.started.CompareAndSwap(false, true) {
		return fmt.Errorf("%w: %s", ErrAlreadyStarted, s.cfg.Name)
	}
	if !s.cfg.IgnoreSelfCondition && s.cfg.Board.Get(s.cfg.Condition) {
		s.setState(StateSkipped, -1)
		s.log().Info("condition already met, skipping sequence")
		return nil
	}

	s.setState(StateGated, -1)
	if err := s.waitGate(ctx); err != nil {
		return err
	}

	for i, step := range s.cfg.Steps {
		s.setState(StateRunning, i)
		if err := s.enterStep(ctx, i); err != nil {
			return err
		}
		outcome, err := s.play(ctx, i, step)
		if err != nil {
			return err
		}
		if outcome == ports.StepFailed {
			s.setState(StateFailed, i)
			if s.cfg.OnFail != "" {
				if err := s.dialogueBeat(ctx, s.cfg.OnFail); err != nil {
					return err
				}
			}
			s.setState(StateEnded, i)
			s.publish(ctx, ports.EventSequenceAborted, map[string]any{"step": i})
			return nil
		}

		s.setState(StateSucceeded, i)
		if asset := assetAt(s.cfg.AfterStep, i); asset != "" {
			if err := s.dialogueBeat(ctx, asset); err != nil {
				return err
			}
		}
	}

	s.finish(ctx)
	return nil
}

func (s *Sequencer) gateOpen() bool {
	if s.cfg.IgnoreOtherConditions {
		return true
	}
	if s.cfg.Board.Get(s.cfg.Condition) {
		return false
	}
	return s.cfg.Board.All(s.cfg.Necessary...)
}

// waitGate re-checks the gate on every tick and on every board change.
func (s *Sequencer) waitGate(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.PollInterval)
	defer ticker.Stop()
	for {
		changed := s.cfg.Board.Changed()
		if s.gateOpen() {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		case <-changed:
		}
	}
}

func (s *Sequencer) enterStep(ctx context.Context, i int) error {
	if s.cfg.Effect != nil && s.cfg.Effect.Obscuring() {
		if err := sleep(ctx, s.cfg.Effect.BeginReveal()); err != nil {
			return err
		}
	}
	if err := sleep(ctx, s.cfg.DialogueDelay); err != nil {
		return err
	}
	if asset := assetAt(s.cfg.BeforeStep, i); asset != "" {
		return s.dialogueBeat(ctx, asset)
	}
	return nil
}

func (s *Sequencer) play(ctx context.Context, i int, step ports.LevelStep) (ports.StepOutcome, error) {
	s.log().WithFields(logrus.Fields{"step": i, "level_step": step.Name()}).Info("starting level step")
	s.publish(ctx, ports.EventStepStarted, map[string]any{"step": i, "level_step": step.Name()})

	select {
	case outcome, ok := <-step.Play(ctx):
		if !ok {
			s.log().WithField("step", i).Warn("level step closed without an outcome, treating as failed")
			return ports.StepFailed, nil
		}
		return outcome, nil
	case <-ctx.Done():
		return ports.StepFailed, ctx.Err()
	}
}

// dialogueBeat waits the pacing delay, starts the dialogue, blocks until
// NotifyDialogueEnded, then waits the delay again.
func (s *Sequencer) dialogueBeat(ctx context.Context, asset string) error {
	if err := sleep(ctx, s.cfg.DialogueDelay); err != nil {
		return err
	}

	done := make(chan struct{})
	s.mu.Lock()
	s.dialogueEnded = done
	s.mu.Unlock()

	if err := s.cfg.Dialogue.StartDialogue(ctx, asset); err != nil {
		s.mu.Lock()
		s.dialogueEnded = nil
		s.mu.Unlock()
		s.log().WithField("asset", asset).WithError(err).Warn("start dialogue failed, continuing")
		return ctx.Err()
	}

	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return sleep(ctx, s.cfg.DialogueDelay)
}

// NotifyDialogueEnded releases the pending dialogue wait. Calls with no
// dialogue in flight are ignored.
func (s *Sequencer) NotifyDialogueEnded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dialogueEnded != nil {
		close(s.dialogueEnded)
		s.dialogueEnded = nil
	}
}

func (s *Sequencer) finish(ctx context.Context) {
	s.cfg.Board.Set(s.cfg.Condition, true)
	s.setState(StateEnded, len(s.cfg.Steps))
	s.log().Info("sequence finished")
	s.publish(ctx, ports.EventSequenceFinished, nil)
	if s.cfg.OnFinished != nil {
		s.cfg.OnFinished()
	}
}

func (s *Sequencer) publish(ctx context.Context, eventType string, payload map[string]any) {
	if s.cfg.Publisher == nil {
		return
	}
	if payload == nil {
		payload = map[string]any{}
	}
	payload["sequence"] = s.cfg.Name
	payload["condition"] = s.cfg.Condition
	ev := ports.Event{Type: eventType, OccurredAt: time.Now().UTC(), Payload: payload}
	if err := s.cfg.Publisher.Publish(ctx, ev); err != nil {
		s.log().WithError(err).WithField("event", eventType).Warn("publish event failed")
	}
}

// LoadFrom restores the self and necessary conditions from the record.
// Skipped sequences keep the board as is.
func (s *Sequencer) LoadFrom(record progress.Record) {
	if s.Status().State == StateSkipped {
		return
	}
	s.cfg.Board.Set(s.cfg.Condition, record.ConditionOr(s.cfg.Condition, false))
	for _, name := range s.cfg.Necessary {
		s.cfg.Board.Set(name, record.ConditionOr(name, false))
	}
}

// SaveInto contributes only the self condition.
func (s *Sequencer) SaveInto(record *progress.Record) {
	record.SetCondition(s.cfg.Condition, s.cfg.Board.Get(s.cfg.Condition))
}

func assetAt(assets []string, i int) string {
	if i < 0 || i >= len(assets) {
		return ""
	}
	return assets[i]
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
