package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
)

func openTempStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "profiles.db"), payload.Plain())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func putRaw(t *testing.T, s *Store, profileID string, raw []byte) {
	t.Helper()
	_, err := s.sqlDB.Exec(
		`INSERT OR REPLACE INTO profile_records (profile_id, payload, updated_at) VALUES (?, ?, ?)`,
		profileID, raw, time.Now().UTC().UnixMilli())
	if err != nil {
		t.Fatalf("put raw: %v", err)
	}
}

func sampleRecord() progress.Record {
	return progress.Record{
		Conditions:  map[string]bool{"met_guide": true},
		LastUpdated: time.Date(2026, time.April, 9, 18, 0, 0, 0, time.UTC),
		Version:     5,
		SaveID:      "s-5",
	}
}

func TestOpenRequiresPath(t *testing.T) {
	if _, err := Open("", payload.Plain()); err == nil {
		t.Fatal("expected empty path error")
	}
}

func TestOpen_MigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "profiles.db")
	first, err := Open(path, payload.Plain())
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	_ = first.Close()
	second, err := Open(path, payload.Plain())
	if err != nil {
		t.Fatalf("second open: %v", err)
	}
	_ = second.Close()
}

func TestStore_RoundTripAndOverwrite(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	in := sampleRecord()
	if err := s.Save(ctx, in, "save"); err != nil {
		t.Fatalf("save: %v", err)
	}
	in.SetCondition("met_guide", false)
	in.Version = 6
	if err := s.Save(ctx, in, "save"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
	got, err := s.Load(ctx, "save")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(in, got); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}

func TestStore_MissingAndCorruptReadAsNotFound(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	if _, err := s.Load(ctx, "never"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	putRaw(t, s, "broken", []byte(`{"conditions":{"a":tr`))
	if _, err := s.Load(ctx, "broken"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected corrupt row to read as not found, got %v", err)
	}
	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if _, ok := all["broken"]; ok {
		t.Fatalf("expected corrupt row to be skipped by ListAll")
	}
}

func TestStore_DeleteAndIsolation(t *testing.T) {
	s := openTempStore(t)
	ctx := context.Background()
	_ = s.Save(ctx, sampleRecord(), "a")
	_ = s.Save(ctx, sampleRecord(), "b")
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	got, err := s.Load(ctx, "b")
	if err != nil {
		t.Fatalf("load b: %v", err)
	}
	if diff := cmp.Diff(sampleRecord(), got); diff != "" {
		t.Fatalf("profile b changed (-want +got):\n%s", diff)
	}
}

func TestStore_SealedPayloadHidesConditions(t *testing.T) {
	codec, err := payload.New(true, "correct horse")
	if err != nil {
		t.Fatalf("new codec: %v", err)
	}
	s, err := Open(filepath.Join(t.TempDir(), "profiles.db"), codec)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	rec := sampleRecord()
	rec.SetCondition("secret_flag", true)
	if err := s.Save(context.Background(), rec, "save"); err != nil {
		t.Fatalf("save: %v", err)
	}
	var raw []byte
	if err := s.sqlDB.QueryRow(`SELECT payload FROM profile_records WHERE profile_id = ?`, "save").Scan(&raw); err != nil {
		t.Fatalf("read raw: %v", err)
	}
	if strings.Contains(string(raw), "secret_flag") {
		t.Fatalf("stored payload leaks plaintext: %s", raw)
	}
	got, err := s.Load(context.Background(), "save")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if diff := cmp.Diff(rec, got); diff != "" {
		t.Fatalf("record mismatch (-want +got):\n%s", diff)
	}
}
