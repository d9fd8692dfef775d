// Package app wires the pipeline together and owns the run lifecycle.
package app

import (
	"context"
	"sync"
	"time"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	"github.com/brunobezerra-pd/jira-daily/internal/deliver"
	"github.com/brunobezerra-pd/jira-daily/internal/jira"
	"github.com/brunobezerra-pd/jira-daily/internal/narrative"
	"github.com/brunobezerra-pd/jira-daily/internal/snapshot"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// App holds the wired collaborators for one tracker instance.
type App struct {
	log logx.Logger

	// runMu serializes runs; scheduled invocations that would overlap a
	// running cycle are skipped, not queued.
	runMu sync.Mutex

	mu     sync.RWMutex
	cfg    *config.Config
	search jira.Searcher
	sum    narrative.Summarizer
	hook   *deliver.Webhook

	store snapshot.Store
}

func New(cfg *config.Config, log logx.Logger) (*App, error) {
	if log.IsZero() {
		log = logx.Nop()
	}

	store, err := snapshot.Open(snapshot.Config{
		Driver:      cfg.Snapshot.Driver,
		Path:        cfg.Snapshot.Path,
		BusyTimeout: parseDuration(cfg.Snapshot.BusyTimeout),
	}, log)
	if err != nil {
		return nil, err
	}

	a := &App{log: log, store: store}
	a.apply(cfg)
	return a, nil
}

// Apply swaps run settings (daemon-mode config reload). The snapshot store
// is deliberately not reopened: moving state mid-flight would silently fork
// the diff baseline.
func (a *App) Apply(cfg *config.Config) {
	a.apply(cfg)
	a.log.Info("run settings applied")
}

func (a *App) apply(cfg *config.Config) {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.cfg = cfg
	a.search = jira.NewClient(cfg.Jira, a.log)
	a.hook = deliver.NewWebhook(cfg.Webhook, a.log)
	if cfg.Narrative != nil && cfg.Narrative.Enabled {
		a.sum = narrative.NewClient(*cfg.Narrative, a.log)
	} else {
		a.sum = nil
	}
}

func (a *App) Close() error {
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

// RunOnce executes one snapshot-diff-notify cycle. It blocks until any
// in-flight cycle finishes first.
func (a *App) RunOnce(ctx context.Context) error {
	a.runMu.Lock()
	defer a.runMu.Unlock()
	return a.run(ctx)
}

// TryRunOnce is the scheduled entry point: it skips instead of piling up
// behind a slow run.
func (a *App) TryRunOnce(ctx context.Context) {
	if !a.runMu.TryLock() {
		a.log.Warn("previous run still in progress, skipping")
		return
	}
	defer a.runMu.Unlock()
	if err := a.run(ctx); err != nil {
		a.log.Error("scheduled run failed", logx.Err(err))
	}
}

func parseDuration(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0
	}
	return d
}
