package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cloudwego/hertz/pkg/app/server"
	"golang.org/x/sync/errgroup"

	"savekeep/internal/adapter/collab"
	eventsmem "savekeep/internal/adapter/events/memory"
	httpadapter "savekeep/internal/adapter/http"
	metricsinmem "savekeep/internal/adapter/metrics/inmemory"
	"savekeep/internal/app/persistence"
	"savekeep/internal/app/ports"
	"savekeep/internal/config"
	"savekeep/internal/domain/conditions"
	"savekeep/pkg/logger"
)

func main() {
	logger.Init()
	log := logger.Component("server")

	cfg, err := config.Load()
	if err != nil {
		log.WithError(err).Fatal("load config")
	}
	defs, err := config.LoadSequences(cfg.SequencesFile)
	if err != nil {
		log.WithError(err).Fatal("load sequences")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := buildBackend(ctx, cfg)
	if err != nil {
		log.WithError(err).WithField("backend", cfg.Backend).Fatal("open storage backend")
	}
	defer closeStore()
	publisher, closePublisher, err := buildPublisher(cfg)
	if err != nil {
		log.WithError(err).Fatal("connect event publisher")
	}
	defer closePublisher()

	kpiRecorder := metricsinmem.NewRecorder()
	board := conditions.NewBoard()
	registry := persistence.NewRegistry()

	var host persistence.Host
	orch, _ := host.Initialize(persistence.Options{
		Disabled:            cfg.Disabled,
		InitializeIfMissing: cfg.InitializeIfMissing,
		OverrideProfile:     cfg.OverrideProfile,
		OverrideProfileID:   cfg.OverrideProfileID,
		StandardProfileID:   cfg.StandardProfileID,
		BackendFactory:      func() ports.ProfileStore { return store },
		Registry:            registry,
		Metrics:             kpiRecorder,
		Publisher:           publisher,
		Now:                 time.Now,
	})

	steps := collab.NewStepRegistry()
	sequences, err := buildSequences(defs, cfg, sequenceDeps{
		Board:     board,
		Steps:     steps,
		Effect:    collab.NewTimedFade(cfg.FadeDuration),
		Publisher: publisher,
		Registry:  registry,
		OnFinished: func(name string) {
			result := orch.SaveGame(ctx)
			log.WithField("sequence", name).WithField("save_result", result).Info("checkpoint after sequence")
		},
	})
	if err != nil {
		log.WithError(err).Fatal("build sequences")
	}

	result := orch.SetDefaultProfile(ctx)
	log.WithField("profile_id", orch.ActiveProfile()).WithField("load_result", result).Info("profile loaded")

	entries := make(map[string]httpadapter.SequenceEntry, len(sequences))
	for _, s := range sequences {
		entries[s.Sequencer.Name()] = httpadapter.SequenceEntry{Sequencer: s.Sequencer, Dialogue: s.Dialogue}
	}
	h := httpadapter.Handler{
		Persistence: orch,
		Board:       board,
		Sequences:   entries,
		Steps:       steps,
		KPI:         kpiRecorder,
	}
	if recent, ok := publisher.(*eventsmem.Publisher); ok {
		h.Events = recent
	}

	s := server.Default(server.WithHostPorts(cfg.HTTPAddr))
	h.RegisterRoutes(s)

	g, gctx := errgroup.WithContext(ctx)
	for _, built := range sequences {
		seq := built.Sequencer
		g.Go(func() error {
			if err := seq.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		return s.Run()
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.Shutdown(shutdownCtx)
	})

	log.WithField("addr", cfg.HTTPAddr).WithField("backend", cfg.Backend).Info("savekeep server listening")
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Error("server stopped")
	}
}
