package persistence

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"savekeep/internal/app/ports"
	"savekeep/internal/domain/progress"
	"savekeep/pkg/logger"
)

// Orchestrator owns the in-memory record for the active profile and moves it
// between the registered participants and the storage backend.
type Orchestrator struct {
	opts Options

	mu           sync.Mutex
	store        ports.ProfileStore
	activeID     string
	record       *progress.Record
	participants []ports.Participant
	mode         LoadedMode
}

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{opts: opts.withDefaults(), mode: ModeNormal}
	o.store = o.defaultStore()
	o.activeID = o.selectionPolicy()
	return o
}

func (o *Orchestrator) log() *logrus.Entry {
	return logger.Component("persistence").WithField("profile_id", o.activeID)
}

func (o *Orchestrator) defaultStore() ports.ProfileStore {
	if o.opts.BackendFactory == nil {
		return nil
	}
	return o.opts.BackendFactory()
}

func (o *Orchestrator) selectionPolicy() string {
	if o.opts.OverrideProfile {
		return o.opts.OverrideProfileID
	}
	return o.opts.StandardProfileID
}

func (o *Orchestrator) Disabled() bool {
	return o.opts.Disabled
}

func (o *Orchestrator) Registry() *Registry {
	return o.opts.Registry
}

func (o *Orchestrator) SetActiveProfile(ctx context.Context, profileID string) LoadResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeID = profileID
	return o.loadLocked(ctx)
}

func (o *Orchestrator) SetDefaultProfile(ctx context.Context) LoadResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.activeID = o.selectionPolicy()
	return o.loadLocked(ctx)
}

func (o *Orchestrator) ActiveProfile() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.activeID
}

// NewGame replaces the in-memory record with a fresh one. Nothing is written.
func (o *Orchestrator) NewGame() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.newGameLocked()
}

func (o *Orchestrator) newGameLocked() {
	rec := progress.NewRecord()
	o.record = &rec
}

func (o *Orchestrator) LoadGame(ctx context.Context) LoadResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.loadLocked(ctx)
}

// SceneLoaded is the hook for a scene or level becoming active.
func (o *Orchestrator) SceneLoaded(ctx context.Context) LoadResult {
	return o.LoadGame(ctx)
}

func (o *Orchestrator) loadLocked(ctx context.Context) LoadResult {
	result := o.doLoad(ctx)
	o.opts.Metrics.RecordLoad(string(result))
	return result
}

func (o *Orchestrator) doLoad(ctx context.Context) LoadResult {
	if o.opts.Disabled {
		return LoadDisabled
	}
	o.participants = o.opts.Registry.Participants()

	rec, found := o.fetch(ctx)
	if !found {
		if o.opts.InitializeIfMissing {
			o.log().Info("no save data found, initializing new game")
			o.newGameLocked()
			return LoadInitialized
		}
		o.log().Info("no save data found, a new game needs to be started")
		return LoadNoSave
	}

	o.record = &rec
	for _, p := range o.participants {
		p.LoadFrom(rec.Copy())
	}
	return LoadOK
}

func (o *Orchestrator) fetch(ctx context.Context) (progress.Record, bool) {
	if o.store == nil {
		o.log().Error("no storage backend configured")
		return progress.Record{}, false
	}
	rec, err := o.store.Load(ctx, o.activeID)
	if err == nil {
		return rec, true
	}
	if !errors.Is(err, ports.ErrNotFound) {
		o.log().WithError(err).Error("load profile failed")
	}
	return progress.Record{}, false
}

func (o *Orchestrator) SaveGame(ctx context.Context) SaveResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	result := o.doSave(ctx)
	o.opts.Metrics.RecordSave(string(result))
	return result
}

func (o *Orchestrator) doSave(ctx context.Context) SaveResult {
	if o.opts.Disabled || o.mode == ModeGallery {
		return SaveSkipped
	}
	if o.record == nil {
		o.log().WithError(ports.ErrNoActiveRecord).Warn("no data found, a new game needs to be started before saving")
		return SaveNoRecord
	}
	if o.store == nil {
		o.log().Error("no storage backend configured")
		return SaveFailed
	}

	next := o.record.Copy()
	for _, p := range o.participants {
		p.SaveInto(&next)
	}
	next.LastUpdated = o.opts.Now().UTC()
	next.Version++
	next.SaveID = uuid.NewString()

	if err := o.store.Save(ctx, next, o.activeID); err != nil {
		o.log().WithError(err).Error("save profile failed")
		return SaveFailed
	}
	o.record = &next
	o.publish(ctx, ports.Event{
		Type:       ports.EventGameSaved,
		OccurredAt: next.LastUpdated,
		Payload: map[string]any{
			"profile_id": o.activeID,
			"version":    next.Version,
			"save_id":    next.SaveID,
		},
	})
	return SaveOK
}

func (o *Orchestrator) publish(ctx context.Context, ev ports.Event) {
	if o.opts.Publisher == nil {
		return
	}
	if err := o.opts.Publisher.Publish(ctx, ev); err != nil {
		o.log().WithError(err).WithField("event", ev.Type).Warn("publish event failed")
	}
}

// Snapshot returns what a save would write right now, including the player
// position when a participant can report one. Neither the live record nor
// the backend is touched.
func (o *Orchestrator) Snapshot(_ context.Context) (progress.Record, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.record == nil {
		return progress.Record{}, false
	}
	snap := o.record.Copy()
	for _, p := range o.participants {
		p.SaveInto(&snap)
	}
	for _, p := range o.participants {
		loc, ok := p.(ports.Locator)
		if !ok {
			continue
		}
		if pos, ok := loc.Position(); ok {
			snap.PlayerPosition = &pos
			break
		}
	}
	return snap, true
}

// DeleteProfile removes the profile's data. The override profile is
// re-selected when overriding is on, otherwise the active profile is kept.
// When reload is set the active profile is loaded again.
func (o *Orchestrator) DeleteProfile(ctx context.Context, profileID string, reload bool) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.deleteLocked(ctx, profileID, reload)
}

func (o *Orchestrator) deleteLocked(ctx context.Context, profileID string, reload bool) bool {
	ok := true
	if o.store == nil {
		o.log().Error("no storage backend configured")
		ok = false
	} else if err := o.store.Delete(ctx, profileID); err != nil {
		logger.Component("persistence").WithField("profile_id", profileID).WithError(err).
			Error("delete profile failed")
		ok = false
	}
	o.opts.Metrics.RecordDelete(ok)

	prev := o.activeID
	if o.opts.OverrideProfile {
		o.activeID = o.opts.OverrideProfileID
	}
	// The live record belongs to prev and must not be saved under another id.
	if profileID == prev || o.activeID != prev {
		o.record = nil
	}
	if reload {
		o.loadLocked(ctx)
	}
	return ok
}

func (o *Orchestrator) DeleteActiveProfile(ctx context.Context) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.activeID == "" {
		return false
	}
	return o.deleteLocked(ctx, o.activeID, false)
}

// AllProfiles lists every stored profile. Backend errors yield an empty map.
func (o *Orchestrator) AllProfiles(ctx context.Context) map[string]progress.Record {
	o.mu.Lock()
	store := o.store
	o.mu.Unlock()
	if store == nil {
		return map[string]progress.Record{}
	}
	all, err := store.ListAll(ctx)
	if err != nil {
		logger.Component("persistence").WithError(err).Error("list profiles failed")
		return map[string]progress.Record{}
	}
	return all
}

func (o *Orchestrator) SetBackend(store ports.ProfileStore) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store = store
}

func (o *Orchestrator) UseDefaultBackend() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store = o.defaultStore()
}

func (o *Orchestrator) SetLoadedMode(mode LoadedMode) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mode = mode
}

func (o *Orchestrator) LoadedMode() LoadedMode {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mode
}

// ResetDefaults restores the default backend, the default profile and the
// normal mode, then loads.
func (o *Orchestrator) ResetDefaults(ctx context.Context) LoadResult {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.store = o.defaultStore()
	o.mode = ModeNormal
	o.activeID = o.selectionPolicy()
	return o.loadLocked(ctx)
}

func (o *Orchestrator) HasRecord() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.record != nil
}

func (o *Orchestrator) Record() (progress.Record, bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.record == nil {
		return progress.Record{}, false
	}
	return o.record.Copy(), true
}
