package ports

import (
	"context"

	"savekeep/internal/domain/progress"
)

// ProfileStore is the durable backend behind profiles. One record per profile id.
type ProfileStore interface {
	// Load returns ErrNotFound (or ErrCorruptData) when no usable record exists.
	Load(ctx context.Context, profileID string) (progress.Record, error)
	// Save replaces the profile's record atomically.
	Save(ctx context.Context, record progress.Record, profileID string) error
	Delete(ctx context.Context, profileID string) error
	// ListAll skips entries that cannot be decoded.
	ListAll(ctx context.Context) (map[string]progress.Record, error)
}
