package persistence

import (
	"time"

	"savekeep/internal/app/ports"
)

const (
	DefaultOverrideProfileID = "test"
	DefaultStandardProfileID = "save"
)

type Options struct {
	Disabled            bool
	InitializeIfMissing bool
	OverrideProfile     bool
	OverrideProfileID   string
	StandardProfileID   string

	// BackendFactory builds the default backend. It is called again by
	// UseDefaultBackend and ResetDefaults.
	BackendFactory func() ports.ProfileStore
	Registry       *Registry
	Metrics        ports.PersistenceMetrics
	Publisher      ports.EventPublisher
	Now            func() time.Time
}

func (o Options) withDefaults() Options {
	if o.OverrideProfileID == "" {
		o.OverrideProfileID = DefaultOverrideProfileID
	}
	if o.StandardProfileID == "" {
		o.StandardProfileID = DefaultStandardProfileID
	}
	if o.Registry == nil {
		o.Registry = NewRegistry()
	}
	if o.Metrics == nil {
		o.Metrics = noopMetrics{}
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

type noopMetrics struct{}

func (noopMetrics) RecordLoad(string) {}
func (noopMetrics) RecordSave(string) {}
func (noopMetrics) RecordDelete(bool) {}

type LoadResult string

const (
	LoadOK          LoadResult = "ok"
	LoadInitialized LoadResult = "initialized"
	LoadNoSave      LoadResult = "no_save"
	LoadDisabled    LoadResult = "disabled"
)

type SaveResult string

const (
	SaveOK       SaveResult = "ok"
	SaveSkipped  SaveResult = "skipped"
	SaveNoRecord SaveResult = "no_record"
	SaveFailed   SaveResult = "failed"
)

type LoadedMode string

const (
	ModeNormal  LoadedMode = "normal"
	ModeGallery LoadedMode = "gallery"
)

func ParseLoadedMode(raw string) (LoadedMode, bool) {
	switch LoadedMode(raw) {
	case ModeNormal, ModeGallery:
		return LoadedMode(raw), true
	default:
		return "", false
	}
}
