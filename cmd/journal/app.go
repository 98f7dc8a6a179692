package main

import (
	"context"
	"fmt"
	"time"

	"github.com/sumalravindran/My-journal-new/internal/activity"
	"github.com/sumalravindran/My-journal-new/internal/chat"
	"github.com/sumalravindran/My-journal-new/internal/config"
	"github.com/sumalravindran/My-journal-new/internal/consolidate"
	"github.com/sumalravindran/My-journal-new/internal/extract"
	"github.com/sumalravindran/My-journal-new/internal/llm"
	"github.com/sumalravindran/My-journal-new/internal/logging"
	"github.com/sumalravindran/My-journal-new/internal/materialize"
	"github.com/sumalravindran/My-journal-new/internal/profiling"
	"github.com/sumalravindran/My-journal-new/internal/store"
)

// app is the wired journal: config, record store, activity log and the
// consolidation manager
type app struct {
	cfg        config.Config
	gateway    store.Gateway
	closeStore func() error
	activity   *activity.Log
	profiler   *profiling.Profiler
	manager    *consolidate.Manager
}

type appOptions struct {
	configPath string
	statePath  string
	store      string
	// withModel wires the extraction client; it needs an API key
	withModel bool
}

func newApp(opts appOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if opts.statePath != "" {
		cfg.StatePath = opts.statePath
	}
	if opts.store != "" {
		cfg.Store = opts.store
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	gateway, closeStore, err := store.Open(cfg.Store, cfg.StatePath)
	if err != nil {
		return nil, err
	}
	a := &app{
		cfg:        cfg,
		gateway:    gateway,
		closeStore: closeStore,
		activity:   activity.New(cfg.StatePath),
	}

	if opts.withModel {
		if err := cfg.RequireAPIKey(); err != nil {
			closeStore()
			return nil, err
		}
		loc, _ := cfg.Location()
		ext := extract.New(llm.NewClient(cfg.Model.BaseURL, cfg.Model.APIKey), cfg.RetryPolicy(), cfg.Model.Primary, cfg.Model.Fallback)
		ext.ContextLimit = cfg.Consolidation.ContextMessages

		mat := materialize.New()
		mat.Location = loc

		level, _ := profiling.ParseLevel(cfg.Profile)
		prof, err := profiling.New(level, cfg.ProfilePath())
		if err != nil {
			closeStore()
			return nil, err
		}
		a.profiler = prof

		a.manager = consolidate.NewManager(consolidate.Config{
			Chats:        chat.NewStore(cfg.StatePath),
			Extractor:    ext,
			Materializer: mat,
			Gateway:      gateway,
			Activity:     a.activity,
			Profiler:     prof,
			Debounce:     cfg.Consolidation.Debounce,
			LeaveTimeout: cfg.Consolidation.LeaveTimeout,
			OnRefresh: func(stream chat.StreamID, out materialize.Output) {
				logging.Debug("main", "[%s] refresh after batch %s", stream, out.BatchID)
			},
		})
	}

	logging.Debug("main", "state=%s store=%s model=%s", cfg.StatePath, cfg.Store, cfg.Model.Primary)
	return a, nil
}

// shutdown force-flushes every open stream, bounded by the leave timeout,
// then releases the store
func (a *app) shutdown() {
	if a.manager != nil {
		ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Consolidation.LeaveTimeout+time.Second)
		for stream, res := range a.manager.LeaveAll(ctx) {
			logging.Info("main", "[%s] final flush: %s", stream, res)
		}
		cancel()
		a.manager.Close()
	}
	if err := a.profiler.Close(); err != nil {
		logging.Warn("main", "failed to close profile log: %v", err)
	}
	if err := a.closeStore(); err != nil {
		logging.Warn("main", "failed to close store: %v", err)
	}
}

func (a *app) session(stream string) (*consolidate.Session, error) {
	if a.manager == nil {
		return nil, fmt.Errorf("consolidation is not configured")
	}
	return a.manager.Session(chat.StreamID(stream))
}
