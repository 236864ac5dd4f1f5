package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

// Store keeps encoded records in memory so each Load hands out an independent copy.
type Store struct {
	mu       sync.RWMutex
	payloads map[string][]byte
	codec    payload.Codec
}

func NewStore() *Store {
	return NewStoreWithCodec(payload.Plain())
}

func NewStoreWithCodec(codec payload.Codec) *Store {
	return &Store{payloads: make(map[string][]byte), codec: codec}
}

func (s *Store) Load(_ context.Context, profileID string) (progress.Record, error) {
	s.mu.RLock()
	b, ok := s.payloads[profileID]
	s.mu.RUnlock()
	if !ok {
		return progress.Record{}, ports.ErrNotFound
	}
	rec, err := s.codec.Decode(b)
	if err != nil {
		logger.Component("repo.memory").WithField("profile_id", profileID).WithError(err).
			Warn("corrupt profile data, treating as missing")
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrCorruptData, err)
	}
	return rec, nil
}

func (s *Store) Save(_ context.Context, record progress.Record, profileID string) error {
	if err := ports.ValidateProfileID(profileID); err != nil {
		return err
	}
	b, err := s.codec.Encode(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	s.mu.Lock()
	s.payloads[profileID] = b
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, profileID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.payloads[profileID]; !ok {
		return ports.ErrNotFound
	}
	delete(s.payloads, profileID)
	return nil
}

func (s *Store) ListAll(ctx context.Context) (map[string]progress.Record, error) {
	out := map[string]progress.Record{}
	for _, id := range s.ProfileIDs() {
		rec, err := s.Load(ctx, id)
		if err != nil {
			continue
		}
		out[id] = rec
	}
	return out, nil
}

func (s *Store) ProfileIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, 0, len(s.payloads))
	for id := range s.payloads {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// SeedRaw stores bytes verbatim, bypassing encoding.
func (s *Store) SeedRaw(profileID string, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads[profileID] = append([]byte(nil), raw...)
}

// Raw returns the stored bytes for a profile.
func (s *Store) Raw(profileID string) ([]byte, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	b, ok := s.payloads[profileID]
	if !ok {
		return nil, false
	}
	return append([]byte(nil), b...), true
}
