// Package sqlite provides a SQLite-backed profile store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/adapter/repo/sqlite/migrations"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

// Store persists one encoded record per profile row.
type Store struct {
	sqlDB *sql.DB
	codec payload.Codec
}

// Open opens the database at path and applies embedded migrations.
func Open(path string, codec payload.Codec) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}
	path = filepath.Clean(path)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create sqlite dir: %w", err)
	}
	dsn := path + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(FULL)"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if err := applyMigrations(context.Background(), sqlDB, migrations.FS); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	return &Store{sqlDB: sqlDB, codec: codec}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *Store) Load(ctx context.Context, profileID string) (progress.Record, error) {
	var raw []byte
	err := s.sqlDB.QueryRowContext(ctx, `SELECT payload FROM profile_records WHERE profile_id = ?`, profileID).Scan(&raw)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return progress.Record{}, ports.ErrNotFound
		}
		return progress.Record{}, fmt.Errorf("%w: select profile: %v", ports.ErrIOFailure, err)
	}
	rec, err := s.codec.Decode(raw)
	if err != nil {
		logger.Component("repo.sqlite").WithField("profile_id", profileID).WithError(err).
			Warn("corrupt profile data, treating as missing")
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrCorruptData, err)
	}
	return rec, nil
}

func (s *Store) Save(ctx context.Context, record progress.Record, profileID string) error {
	if err := ports.ValidateProfileID(profileID); err != nil {
		return err
	}
	raw, err := s.codec.Encode(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	_, err = s.sqlDB.ExecContext(ctx,
		`INSERT INTO profile_records (profile_id, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(profile_id) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		profileID, raw, time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("%w: upsert profile: %v", ports.ErrIOFailure, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, profileID string) error {
	res, err := s.sqlDB.ExecContext(ctx, `DELETE FROM profile_records WHERE profile_id = ?`, profileID)
	if err != nil {
		return fmt.Errorf("%w: delete profile: %v", ports.ErrIOFailure, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%w: delete profile: %v", ports.ErrIOFailure, err)
	}
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) (map[string]progress.Record, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT profile_id, payload FROM profile_records ORDER BY profile_id`)
	if err != nil {
		return nil, fmt.Errorf("%w: list profiles: %v", ports.ErrIOFailure, err)
	}
	defer rows.Close()

	out := map[string]progress.Record{}
	for rows.Next() {
		var id string
		var raw []byte
		if err := rows.Scan(&id, &raw); err != nil {
			return nil, fmt.Errorf("%w: scan profile: %v", ports.ErrIOFailure, err)
		}
		rec, err := s.codec.Decode(raw)
		if err != nil {
			logger.Component("repo.sqlite").WithField("profile_id", id).WithError(err).
				Warn("skipping unreadable profile")
			continue
		}
		out[id] = rec
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: iterate profiles: %v", ports.ErrIOFailure, err)
	}
	return out, nil
}
