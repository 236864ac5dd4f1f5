package file

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

const DefaultFileName = "data.game"

type Config struct {
	Root     string
	FileName string
	Codec    payload.Codec
}

// Store keeps one file per profile at <Root>/<profileID>/<FileName>.
type Store struct {
	root     string
	fileName string
	codec    payload.Codec
	log      *logrus.Entry
}

func NewStore(cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Root) == "" {
		return nil, errors.New("storage root is required")
	}
	if strings.TrimSpace(cfg.FileName) == "" {
		cfg.FileName = DefaultFileName
	}
	if strings.ContainsAny(cfg.FileName, `/\`) {
		return nil, fmt.Errorf("invalid file name %q", cfg.FileName)
	}
	return &Store{
		root:     filepath.Clean(cfg.Root),
		fileName: cfg.FileName,
		codec:    cfg.Codec,
		log:      logger.Component("repo.file"),
	}, nil
}

func (s *Store) Encrypted() bool {
	return s.codec.Encrypted()
}

func (s *Store) path(profileID string) string {
	return filepath.Join(s.root, profileID, s.fileName)
}

func (s *Store) Load(ctx context.Context, profileID string) (progress.Record, error) {
	if err := ctx.Err(); err != nil {
		return progress.Record{}, err
	}
	if err := ports.ValidateProfileID(profileID); err != nil {
		return progress.Record{}, err
	}
	path := s.path(profileID)
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return progress.Record{}, ports.ErrNotFound
		}
		return progress.Record{}, fmt.Errorf("%w: read %s: %v", ports.ErrIOFailure, path, err)
	}
	rec, err := s.codec.Decode(b)
	if err != nil {
		s.log.WithFields(logrus.Fields{"profile_id": profileID, "path": path}).WithError(err).
			Warn("corrupt profile data, treating as missing")
		return progress.Record{}, fmt.Errorf("%w: %v", ports.ErrCorruptData, err)
	}
	return rec, nil
}

// Save writes to a temp file in the profile directory and renames it over
// the previous artifact, so a crash never leaves a half-written record.
func (s *Store) Save(ctx context.Context, record progress.Record, profileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ports.ValidateProfileID(profileID); err != nil {
		return err
	}
	b, err := s.codec.Encode(record)
	if err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}

	dir := filepath.Join(s.root, profileID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("%w: create profile dir: %v", ports.ErrIOFailure, err)
	}
	if err := writeAtomic(dir, s.fileName, b); err != nil {
		return fmt.Errorf("%w: %v", ports.ErrIOFailure, err)
	}
	return nil
}

func writeAtomic(dir, name string, b []byte) error {
	tmp, err := os.CreateTemp(dir, name+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := true
	defer func() {
		if cleanup {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(b); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, filepath.Join(dir, name)); err != nil {
		return fmt.Errorf("rename temp file: %w", err)
	}
	cleanup = false
	syncDir(dir)
	return nil
}

// syncDir is best effort; not every platform supports fsync on directories.
func syncDir(dir string) {
	d, err := os.Open(dir)
	if err != nil {
		return
	}
	_ = d.Sync()
	_ = d.Close()
}

func (s *Store) Delete(ctx context.Context, profileID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := ports.ValidateProfileID(profileID); err != nil {
		return err
	}
	dir := filepath.Join(s.root, profileID)
	if _, err := os.Stat(dir); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return ports.ErrNotFound
		}
		return fmt.Errorf("%w: stat %s: %v", ports.ErrIOFailure, dir, err)
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("%w: remove %s: %v", ports.ErrIOFailure, dir, err)
	}
	return nil
}

func (s *Store) ListAll(ctx context.Context) (map[string]progress.Record, error) {
	out := map[string]progress.Record{}
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return out, nil
		}
		return nil, fmt.Errorf("%w: read root: %v", ports.ErrIOFailure, err)
	}
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		id := e.Name()
		rec, err := s.Load(ctx, id)
		if err != nil {
			if !errors.Is(err, ports.ErrNotFound) || errors.Is(err, ports.ErrCorruptData) {
				s.log.WithField("profile_id", id).WithError(err).Warn("skipping unreadable profile")
			}
			continue
		}
		out[id] = rec
	}
	return out, nil
}
