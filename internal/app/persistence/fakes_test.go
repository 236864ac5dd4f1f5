package persistence

import (
	"context"
	"sync"

	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
)

type countingStore struct {
	mu       sync.Mutex
	records  map[string]progress.Record
	loads    int
	saves    int
	deletes  int
	lists    int
	loadErr  error
	saveErr  error
	listErr  error
	lastSave progress.Record
}

func newCountingStore() *countingStore {
	return &countingStore{records: map[string]progress.Record{}}
}

func (s *countingStore) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loads + s.saves + s.deletes + s.lists
}

func (s *countingStore) Load(_ context.Context, profileID string) (progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.loads++
	if s.loadErr != nil {
		return progress.Record{}, s.loadErr
	}
	rec, ok := s.records[profileID]
	if !ok {
		return progress.Record{}, ports.ErrNotFound
	}
	return rec.Copy(), nil
}

func (s *countingStore) Save(_ context.Context, record progress.Record, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.saves++
	if s.saveErr != nil {
		return s.saveErr
	}
	s.records[profileID] = record.Copy()
	s.lastSave = record.Copy()
	return nil
}

func (s *countingStore) Delete(_ context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deletes++
	if _, ok := s.records[profileID]; !ok {
		return ports.ErrNotFound
	}
	delete(s.records, profileID)
	return nil
}

func (s *countingStore) ListAll(context.Context) (map[string]progress.Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lists++
	if s.listErr != nil {
		return nil, s.listErr
	}
	out := make(map[string]progress.Record, len(s.records))
	for id, rec := range s.records {
		out[id] = rec.Copy()
	}
	return out, nil
}

// flagParticipant owns a single condition.
type flagParticipant struct {
	name   string
	value  bool
	loads  int
	saves  int
	seenOK bool
}

func (p *flagParticipant) LoadFrom(record progress.Record) {
	p.loads++
	p.value, p.seenOK = record.Condition(p.name)
}

func (p *flagParticipant) SaveInto(record *progress.Record) {
	p.saves++
	record.SetCondition(p.name, p.value)
}

type locatorParticipant struct {
	flagParticipant
	pos progress.Position
	has bool
}

func (p *locatorParticipant) Position() (progress.Position, bool) {
	return p.pos, p.has
}

type recordingMetrics struct {
	loads   []string
	saves   []string
	deletes []bool
}

func (m *recordingMetrics) RecordLoad(result string) { m.loads = append(m.loads, result) }
func (m *recordingMetrics) RecordSave(result string) { m.saves = append(m.saves, result) }
func (m *recordingMetrics) RecordDelete(ok bool)     { m.deletes = append(m.deletes, ok) }

type recordingPublisher struct {
	events []ports.Event
}

func (p *recordingPublisher) Publish(_ context.Context, ev ports.Event) error {
	p.events = append(p.events, ev)
	return nil
}
