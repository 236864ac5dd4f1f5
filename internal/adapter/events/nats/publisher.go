package nats

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	natsgo "github.com/nats-io/nats.go"

	"savekeep/internal/app/ports"
)

const DefaultSubjectPrefix = "savekeep"

type Config struct {
	URL           string
	SubjectPrefix string
	// Conn is used as is when set and is not closed by the publisher.
	Conn *natsgo.Conn
}

type conn interface {
	Publish(subject string, data []byte) error
}

// Publisher sends each event as JSON on <prefix>.<event type>.
type Publisher struct {
	conn     conn
	nc       *natsgo.Conn
	prefix   string
	ownsConn bool
}

func NewPublisher(cfg Config) (*Publisher, error) {
	prefix := strings.TrimSuffix(strings.TrimSpace(cfg.SubjectPrefix), ".")
	if prefix == "" {
		prefix = DefaultSubjectPrefix
	}
	if cfg.Conn != nil {
		return &Publisher{conn: cfg.Conn, nc: cfg.Conn, prefix: prefix}, nil
	}
	if cfg.URL == "" {
		return nil, errors.New("nats publisher: url is required")
	}
	nc, err := natsgo.Connect(cfg.URL, natsgo.Name("savekeep"))
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Publisher{conn: nc, nc: nc, prefix: prefix, ownsConn: true}, nil
}

func (p *Publisher) Subject(eventType string) string {
	return p.prefix + "." + eventType
}

func (p *Publisher) Publish(ctx context.Context, event ports.Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.Type, err)
	}
	if err := p.conn.Publish(p.Subject(event.Type), data); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

func (p *Publisher) Close() error {
	if p.ownsConn && p.nc != nil {
		return p.nc.Drain()
	}
	return nil
}
