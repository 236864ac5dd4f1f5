package nats

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"savekeep/internal/app/ports"
)

type fakeConn struct {
	subjects []string
	payloads [][]byte
	err      error
}

func (c *fakeConn) Publish(subject string, data []byte) error {
	if c.err != nil {
		return c.err
	}
	c.subjects = append(c.subjects, subject)
	c.payloads = append(c.payloads, data)
	return nil
}

func TestPublisher_SubjectAndBody(t *testing.T) {
	fc := &fakeConn{}
	p := &Publisher{conn: fc, prefix: "game"}
	ev := ports.Event{
		Type:       ports.EventSequenceFinished,
		OccurredAt: time.Date(2026, time.January, 2, 3, 4, 5, 0, time.UTC),
		Payload:    map[string]any{"sequence": "intro"},
	}
	if err := p.Publish(context.Background(), ev); err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(fc.subjects) != 1 || fc.subjects[0] != "game.sequence.finished" {
		t.Fatalf("unexpected subjects: %v", fc.subjects)
	}
	var got ports.Event
	if err := json.Unmarshal(fc.payloads[0], &got); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if got.Type != ev.Type || got.Payload["sequence"] != "intro" || !got.OccurredAt.Equal(ev.OccurredAt) {
		t.Fatalf("body mismatch: got=%+v want=%+v", got, ev)
	}
}

func TestPublisher_WrapsConnError(t *testing.T) {
	wantErr := errors.New("no responders")
	p := &Publisher{conn: &fakeConn{err: wantErr}, prefix: "game"}
	if err := p.Publish(context.Background(), ports.Event{Type: "x"}); !errors.Is(err, wantErr) {
		t.Fatalf("expected wrapped conn error, got %v", err)
	}
}

func TestPublisher_CancelledContext(t *testing.T) {
	fc := &fakeConn{}
	p := &Publisher{conn: fc, prefix: "game"}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.Publish(ctx, ports.Event{Type: "x"}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(fc.subjects) != 0 {
		t.Fatalf("nothing should be published after cancel")
	}
}

func TestNewPublisher_RequiresURL(t *testing.T) {
	if _, err := NewPublisher(Config{}); err == nil {
		t.Fatalf("expected error without url or conn")
	}
}
