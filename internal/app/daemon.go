package app

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/brunobezerra-pd/jira-daily/internal/config"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// RunDaemon schedules runs on the configured cron expression and blocks
// until ctx is done. The config file is watched; a valid change re-applies
// logging and run settings between runs (the schedule itself is fixed for
// the life of the process).
func (a *App) RunDaemon(ctx context.Context, mgr *config.Manager, logSvc *logx.Service) error {
	a.mu.RLock()
	sched := a.cfg.Schedule
	a.mu.RUnlock()

	loc := time.Local
	if sched.Timezone != "" {
		l, err := time.LoadLocation(sched.Timezone)
		if err != nil {
			a.log.Warn("invalid timezone, using local", logx.String("timezone", sched.Timezone), logx.Err(err))
		} else {
			loc = l
		}
	}

	c := cron.New(cron.WithLocation(loc))
	if _, err := c.AddFunc(sched.Cron, func() { a.TryRunOnce(ctx) }); err != nil {
		return err
	}

	// Config reloads: re-apply logging and run settings.
	sub := mgr.Subscribe(1)
	defer mgr.Unsubscribe(sub)
	go func() {
		if err := mgr.Watch(ctx); err != nil && ctx.Err() == nil {
			a.log.Warn("config watch stopped", logx.Err(err))
		}
	}()

	c.Start()
	a.log.Info("daemon started", logx.String("cron", sched.Cron), logx.String("timezone", loc.String()))

	for {
		select {
		case <-ctx.Done():
			stop := c.Stop() // lets an in-flight job finish
			<-stop.Done()
			return nil
		case cfg, ok := <-sub:
			if !ok {
				return nil
			}
			if logSvc != nil {
				logSvc.Apply(logx.Config{
					Level:   cfg.Logging.Level,
					Console: cfg.Logging.Console,
					File: logx.FileConfig{
						Enabled: cfg.Logging.File.Enabled,
						Path:    cfg.Logging.File.Path,
					},
				})
			}
			a.Apply(cfg)
		}
	}
}
