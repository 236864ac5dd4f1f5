package progress

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"
)

var ErrEmptyPayload = errors.New("empty record payload")

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// Record is the aggregate every participant reads from and writes into.
// An absent condition means "not yet set"; callers pick the default.
type Record struct {
	Conditions     map[string]bool `json:"conditions"`
	PlayerPosition *Position       `json:"player_position,omitempty"`
	LastUpdated    time.Time       `json:"last_updated"`
	Version        int64           `json:"version"`
	SaveID         string          `json:"save_id,omitempty"`
}

func NewRecord() Record {
	return Record{Conditions: map[string]bool{}}
}

func (r Record) Copy() Record {
	out := r
	out.Conditions = make(map[string]bool, len(r.Conditions))
	for k, v := range r.Conditions {
		out.Conditions[k] = v
	}
	if r.PlayerPosition != nil {
		pos := *r.PlayerPosition
		out.PlayerPosition = &pos
	}
	return out
}

func (r Record) Condition(name string) (value bool, ok bool) {
	value, ok = r.Conditions[name]
	return value, ok
}

func (r Record) ConditionOr(name string, fallback bool) bool {
	if v, ok := r.Conditions[name]; ok {
		return v
	}
	return fallback
}

func (r *Record) SetCondition(name string, value bool) {
	if name == "" {
		return
	}
	if r.Conditions == nil {
		r.Conditions = map[string]bool{}
	}
	r.Conditions[name] = value
}

func Encode(r Record) ([]byte, error) {
	if r.Conditions == nil {
		r.Conditions = map[string]bool{}
	}
	b, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return b, nil
}

// Decode parses a payload produced by Encode. Truncated or otherwise invalid
// payloads are rejected whole.
func Decode(b []byte) (Record, error) {
	if len(bytes.TrimSpace(b)) == 0 {
		return Record{}, ErrEmptyPayload
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	var r Record
	if err := dec.Decode(&r); err != nil {
		return Record{}, fmt.Errorf("decode record: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Record{}, errors.New("decode record: trailing data")
	}
	if r.Conditions == nil {
		r.Conditions = map[string]bool{}
	}
	return r, nil
}
