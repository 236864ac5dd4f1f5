package redisrepo

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

const DefaultPrefix = "savekeep:"

type Config struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	// Client overrides Addr/Password/DB when set.
	Client redis.UniversalClient
	Codec  payload.Codec
}

// Store keeps one key per profile plus a set indexing the known profile ids.
type Store struct {
	client redis.UniversalClient
	prefix string
	codec  payload.Codec
}

func NewStore(cfg Config) (*Store, error) {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	client := cfg.Client
	if client == nil {
		if cfg.Addr == "" {
			return nil, errors.New("redis store: addr is required")
		}
		client = redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB})
	}
	return &Store{client: client, prefix: prefix, codec: cfg.Codec}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) recordKey(profileID string) string {
	return s.prefix + "profile:" + profileID
}

func (s *Store) indexKey() string {
	return s.prefix + "profiles"
}

func (s *Store) Load(ctx context.Context, profileID string) (progress.Record, error) {
	b, err := s.client.Get(ctx, s.recordKey(profileID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return progress.Record{}, ports.ErrNotFound
		}
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	rec, err := s.codec.Decode(b)
	if err != nil {
		logger.Component("repo.redis").WithField("profile_id", profileID).WithError(err).
			Warn("corrupt profile data, treating as missing")
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrCorruptData, err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, record progress.Record, profileID string) error {
	if err := ports.ValidateProfileID(profileID); err != nil {
		return err
	}
	b, err := s.codec.Encode(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	_, err = s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, s.recordKey(profileID), b, 0)
		p.SAdd(ctx, s.indexKey(), profileID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, profileID string) error {
	var del *redis.IntCmd
	_, err := s.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, s.recordKey(profileID))
		p.SRem(ctx, s.indexKey(), profileID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	if del.Val() == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) (map[string]progress.Record, error) {
	ids, err := s.client.SMembers(ctx, s.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	sort.Strings(ids)
	out := make(map[string]progress.Record, len(ids))
	for _, id := range ids {
		rec, err := s.Load(ctx, id)
		if err != nil {
			logger.Component("repo.redis").WithField("profile_id", id).WithError(err).
				Warn("skipping unreadable profile")
			continue
		}
		out[id] = rec
	}
	return out, nil
}
