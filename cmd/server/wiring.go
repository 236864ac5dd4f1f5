package main

import (
	"context"
	"fmt"

	"savekeep/internal/adapter/collab"
	eventsmem "savekeep/internal/adapter/events/memory"
	eventsnats "savekeep/internal/adapter/events/nats"
	"savekeep/internal/adapter/repo/file"
	gormrepo "savekeep/internal/adapter/repo/gorm"
	"savekeep/internal/adapter/repo/memory"
	"savekeep/internal/adapter/repo/payload"
	redisrepo "savekeep/internal/adapter/repo/redis"
	sqliterepo "savekeep/internal/adapter/repo/sqlite"
	"savekeep/internal/app/persistence"
	"savekeep/internal/app/ports"
	"savekeep/internal/app/sequence"
	"savekeep/internal/config"
	"savekeep/internal/domain/conditions"
	"savekeep/pkg/logger"
)

// recentEventLimit bounds the in-memory event log used when no broker is set.
const recentEventLimit = 256

type closer func() error

func noopCloser() error { return nil }

func buildBackend(ctx context.Context, cfg config.Config) (ports.ProfileStore, closer, error) {
	codec, err := payload.New(cfg.UseEncryption, cfg.EncryptionKey)
	if err != nil {
		return nil, nil, fmt.Errorf("build payload codec: %w", err)
	}
	switch cfg.Backend {
	case config.BackendMemory:
		return memory.NewStoreWithCodec(codec), noopCloser, nil
	case config.BackendFile:
		store, err := file.NewStore(file.Config{Root: cfg.DataDir, FileName: cfg.FileName, Codec: codec})
		if err != nil {
			return nil, nil, fmt.Errorf("open file store: %w", err)
		}
		return store, noopCloser, nil
	case config.BackendSQLite:
		store, err := sqliterepo.Open(cfg.SQLitePath, codec)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.BackendPostgres:
		db, err := gormrepo.OpenPostgres(cfg.DBDSN)
		if err != nil {
			return nil, nil, err
		}
		if err := gormrepo.ApplyMigrations(ctx, db); err != nil {
			return nil, nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, nil, fmt.Errorf("postgres handle: %w", err)
		}
		return gormrepo.NewProfileRepo(db, codec), sqlDB.Close, nil
	case config.BackendRedis:
		store, err := redisrepo.NewStore(redisrepo.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
			Codec:    codec,
		})
		if err != nil {
			return nil, nil, err
		}
		if err := store.Ping(ctx); err != nil {
			_ = store.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return store, store.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}

func buildPublisher(cfg config.Config) (ports.EventPublisher, closer, error) {
	if cfg.NATSURL == "" {
		return eventsmem.NewBoundedPublisher(recentEventLimit), noopCloser, nil
	}
	pub, err := eventsnats.NewPublisher(eventsnats.Config{URL: cfg.NATSURL, SubjectPrefix: cfg.NATSSubjectPrefix})
	if err != nil {
		return nil, nil, err
	}
	return pub, pub.Close, nil
}

type sequenceDeps struct {
	Board     *conditions.Board
	Steps     *collab.StepRegistry
	Effect    ports.ScreenEffect
	Publisher ports.EventPublisher
	Registry  *persistence.Registry
	// OnFinished is called with the sequence name when it completes.
	OnFinished func(name string)
}

type builtSequence struct {
	Sequencer *sequence.Sequencer
	Dialogue  *collab.DialogueBridge
}

// buildSequences creates one sequencer per definition and registers each as
// a persistence participant.
func buildSequences(defs []config.SequenceDef, cfg config.Config, deps sequenceDeps) ([]builtSequence, error) {
	out := make([]builtSequence, 0, len(defs))
	for _, def := range defs {
		steps := make([]ports.LevelStep, 0, len(def.Steps))
		for _, id := range def.Steps {
			steps = append(steps, deps.Steps.Step(id))
		}
		bridge := collab.NewDialogueBridge(def.Name, deps.Publisher)
		name := def.Name
		var onFinished func()
		if deps.OnFinished != nil {
			onFinished = func() { deps.OnFinished(name) }
		}
		seq, err := sequence.New(sequence.Config{
			Name:                  def.Name,
			Condition:             def.Condition,
			Necessary:             def.Necessary,
			Steps:                 steps,
			BeforeStep:            def.BeforeStep,
			AfterStep:             def.AfterStep,
			OnFail:                def.OnFail,
			DialogueDelay:         cfg.DialogueDelay,
			PollInterval:          cfg.PollInterval,
			IgnoreOtherConditions: def.IgnoreOtherConditions,
			IgnoreSelfCondition:   def.IgnoreSelfCondition,
			Board:                 deps.Board,
			Dialogue:              bridge,
			Effect:                deps.Effect,
			Publisher:             deps.Publisher,
			OnFinished:            onFinished,
		})
		if err != nil {
			return nil, err
		}
		deps.Registry.Register(seq)
		out = append(out, builtSequence{Sequencer: seq, Dialogue: bridge})
		logger.Component("server").WithField("sequence", def.Name).WithField("steps", len(steps)).
			Info("sequence registered")
	}
	return out, nil
}
