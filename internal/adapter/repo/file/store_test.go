package file

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"savekeep/internal/adapter/repo/payload"
	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
)

func sampleRecord() progress.Record {
	return progress.Record{
		Conditions:     map[string]bool{"level_1_done": true, "level_2_done": false},
		PlayerPosition: &progress.Position{X: 3, Y: 4},
		LastUpdated:    time.Date(2026, time.February, 1, 12, 30, 0, 0, time.UTC),
		Version:        2,
		SaveID:         "8a4f",
	}
}

func newTestStore(t *testing.T, sealed bool) *Store {
	t.Helper()
	cfg := Config{Root: t.TempDir(), FileName: "data.game"}
	if sealed {
		codec, err := payload.New(true, "correct horse battery staple")
		if err != nil {
			t.Fatalf("new codec: %v", err)
		}
		cfg.Codec = codec
	}
	s, err := NewStore(cfg)
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	return s
}

func TestNewStore_RequiresRoot(t *testing.T) {
	if _, err := NewStore(Config{}); err == nil {
		t.Fatalf("expected error for empty root")
	}
	if _, err := NewStore(Config{Root: t.TempDir(), FileName: "a/b"}); err == nil {
		t.Fatalf("expected error for nested file name")
	}
}

func TestStore_RoundTrip(t *testing.T) {
	for _, sealed := range []bool{false, true} {
		s := newTestStore(t, sealed)
		ctx := context.Background()
		in := sampleRecord()
		for _, id := range []string{"save", "test", "slot-2"} {
			if err := s.Save(ctx, in, id); err != nil {
				t.Fatalf("sealed=%v save %s: %v", sealed, id, err)
			}
			got, err := s.Load(ctx, id)
			if err != nil {
				t.Fatalf("sealed=%v load %s: %v", sealed, id, err)
			}
			if diff := cmp.Diff(in, got); diff != "" {
				t.Fatalf("sealed=%v round trip mismatch (-want +got):\n%s", sealed, diff)
			}
		}
	}
}

func TestStore_SealedFileIsNotPlainJSON(t *testing.T) {
	s := newTestStore(t, true)
	if err := s.Save(context.Background(), sampleRecord(), "save"); err != nil {
		t.Fatalf("save: %v", err)
	}
	b, err := os.ReadFile(s.path("save"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if bytes.Contains(b, []byte("level_1_done")) {
		t.Fatalf("sealed file leaks plaintext: %s", b)
	}
}

func TestStore_MissingAndTruncatedYieldNotFound(t *testing.T) {
	for _, sealed := range []bool{false, true} {
		s := newTestStore(t, sealed)
		ctx := context.Background()
		_, missingErr := s.Load(ctx, "never")
		if !errors.Is(missingErr, ports.ErrNotFound) {
			t.Fatalf("sealed=%v expected ErrNotFound for missing, got %v", sealed, missingErr)
		}

		if err := s.Save(ctx, sampleRecord(), "save"); err != nil {
			t.Fatalf("save: %v", err)
		}
		b, err := os.ReadFile(s.path("save"))
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if err := os.WriteFile(s.path("save"), b[:len(b)/2], 0o644); err != nil {
			t.Fatalf("truncate: %v", err)
		}
		_, truncErr := s.Load(ctx, "save")
		if !errors.Is(truncErr, ports.ErrNotFound) {
			t.Fatalf("sealed=%v expected truncated to read as not found, got %v", sealed, truncErr)
		}
	}
}

func TestStore_WrongKeyReadsAsCorrupt(t *testing.T) {
	root := t.TempDir()
	a, _ := payload.New(true, "one")
	b, _ := payload.New(true, "two")
	writer, _ := NewStore(Config{Root: root, Codec: a})
	reader, _ := NewStore(Config{Root: root, Codec: b})
	if err := writer.Save(context.Background(), sampleRecord(), "save"); err != nil {
		t.Fatalf("save: %v", err)
	}
	if _, err := reader.Load(context.Background(), "save"); !errors.Is(err, ports.ErrCorruptData) {
		t.Fatalf("expected ErrCorruptData, got %v", err)
	}
}

func TestStore_ProfileIsolation(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()
	if err := s.Save(ctx, sampleRecord(), "b"); err != nil {
		t.Fatalf("save b: %v", err)
	}
	before, _ := os.ReadFile(s.path("b"))

	other := sampleRecord()
	other.SetCondition("level_2_done", true)
	if err := s.Save(ctx, other, "a"); err != nil {
		t.Fatalf("save a: %v", err)
	}
	after, _ := os.ReadFile(s.path("b"))
	if !bytes.Equal(before, after) {
		t.Fatalf("saving a changed b")
	}
}

func TestStore_SaveLeavesNoTempFiles(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Save(ctx, sampleRecord(), "save"); err != nil {
			t.Fatalf("save %d: %v", i, err)
		}
	}
	entries, err := os.ReadDir(filepath.Join(s.root, "save"))
	if err != nil {
		t.Fatalf("read dir: %v", err)
	}
	if len(entries) != 1 || entries[0].Name() != "data.game" {
		names := make([]string, 0, len(entries))
		for _, e := range entries {
			names = append(names, e.Name())
		}
		t.Fatalf("unexpected files after save: %v", names)
	}
}

func TestStore_DeleteAndListAll(t *testing.T) {
	s := newTestStore(t, false)
	ctx := context.Background()
	_ = s.Save(ctx, sampleRecord(), "a")
	_ = s.Save(ctx, sampleRecord(), "b")
	if err := os.MkdirAll(filepath.Join(s.root, "empty"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	all, err := s.ListAll(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("expected 2 profiles, got %d", len(all))
	}
	if err := s.Delete(ctx, "a"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, "a"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Load(ctx, "a"); !errors.Is(err, ports.ErrNotFound) {
		t.Fatalf("expected deleted profile to be gone, got %v", err)
	}
}

func TestStore_ListAllOnMissingRoot(t *testing.T) {
	s, err := NewStore(Config{Root: filepath.Join(t.TempDir(), "nope")})
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	all, err := s.ListAll(context.Background())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no profiles, got %d", len(all))
	}
}

func TestStore_RejectsPathLikeProfileIDs(t *testing.T) {
	s := newTestStore(t, false)
	if err := s.Save(context.Background(), sampleRecord(), "../escape"); !errors.Is(err, ports.ErrInvalidProfileID) {
		t.Fatalf("expected ErrInvalidProfileID, got %v", err)
	}
}
