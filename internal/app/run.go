package app

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/brunobezerra-pd/jira-daily/internal/diff"
	"github.com/brunobezerra-pd/jira-daily/internal/jira"
	"github.com/brunobezerra-pd/jira-daily/internal/normalize"
	"github.com/brunobezerra-pd/jira-daily/internal/report"
	"github.com/brunobezerra-pd/jira-daily/internal/snapshot"
	logx "github.com/brunobezerra-pd/jira-daily/pkg/logx"
)

// run is one full cycle: load snapshot, query, normalize, classify, build,
// chunk, deliver, persist. Callers hold runMu.
func (a *App) run(ctx context.Context) error {
	a.mu.RLock()
	cfg := a.cfg
	search := a.search
	sum := a.sum
	hook := a.hook
	a.mu.RUnlock()

	started := time.Now()
	log := a.log.With(logx.String("run_id", uuid.NewString()))
	log.Info("run started", logx.String("project", cfg.Jira.ProjectKey))

	prev, err := a.store.Load(ctx)
	if err != nil {
		// Drivers degrade to empty themselves; this is a defensive path.
		log.Warn("snapshot load failed, starting empty", logx.Err(err))
		prev = snapshot.Snapshot{}
	}

	window := cfg.WindowDuration()
	sprintRaw := a.fetch(ctx, log, search, "sprint", jira.SprintItemsQuery(cfg.Jira.ProjectKey, cfg.Jira.MaxResults))
	backlogRaw := a.fetch(ctx, log, search, "backlog", jira.BacklogItemsQuery(cfg.Jira.ProjectKey, window, cfg.Jira.MaxResults))
	epicsRaw := a.fetch(ctx, log, search, "epics", jira.EpicsQuery(cfg.Jira.ProjectKey, window, cfg.Jira.MaxResults))

	// Merge issue queries by key, earlier queries winning, input order kept.
	seen := make(map[string]bool, len(sprintRaw)+len(backlogRaw))
	var records []normalize.Record
	for _, raw := range append(append([]normalize.RawRecord{}, sprintRaw...), backlogRaw...) {
		rec := normalize.Normalize(raw, cfg.Jira.Domain)
		if rec.Key == "" || seen[rec.Key] {
			continue
		}
		seen[rec.Key] = true
		records = append(records, rec)
	}

	res := diff.Classify(records, prev)

	// Grouping entities: new when unseen in the previous snapshot. They are
	// tracked in the snapshot too, without overwriting issue entries.
	var newGroups []normalize.Record
	for _, raw := range epicsRaw {
		rec := normalize.Normalize(raw, cfg.Jira.Domain)
		if rec.Key == "" {
			continue
		}
		if _, ok := res.Next[rec.Key]; !ok {
			res.Next[rec.Key] = snapshot.EntryFor(rec)
		}
		if _, was := prev[rec.Key]; !was && normalize.IsGroup(raw) {
			newGroups = append(newGroups, rec)
		}
	}

	total := res.TotalChanges(len(newGroups))
	log.Info("classified",
		logx.Int("records", len(records)),
		logx.Int("new_in_sprint", len(res.NewInBucket)),
		logx.Int("new_backlog", len(res.NewBacklog)),
		logx.Int("changed", len(res.Changed)),
		logx.Int("new_epics", len(newGroups)),
	)

	if total == 0 {
		log.Info("nenhuma mudança detectada, nada a enviar")
		return a.persist(ctx, log, res.Next, started)
	}

	narrativeText := ""
	if sum != nil {
		s, err := sum.Summarize(ctx, res, newGroups)
		if err != nil {
			log.Warn("narrative generation failed, falling back to listings", logx.Err(err))
			narrativeText = report.NarrativeFailed
		} else {
			narrativeText = s
		}
	}

	blocks := report.Build(report.BuildInput{
		Title:       cfg.Report.Title,
		Now:         time.Now(),
		NewGroups:   newGroups,
		NewInBucket: res.NewInBucket,
		NewBacklog:  res.NewBacklog,
		Changed:     res.Changed,
		Narrative:   narrativeText,
	})
	pages := report.Chunk(blocks, report.HeaderBlockCount, cfg.Report.MaxBlocksPerPage)

	sent := hook.SendPages(ctx, pages)
	if sent < len(pages) {
		log.Warn("some pages were not delivered", logx.Int("sent", sent), logx.Int("pages", len(pages)))
	}

	return a.persist(ctx, log, res.Next, started)
}

// fetch tolerates per-query failures: a broken query is logged and treated
// as an empty result set, never aborting the run.
func (a *App) fetch(ctx context.Context, log logx.Logger, search jira.Searcher, name string, q jira.Query) []normalize.RawRecord {
	raw, err := search.Search(ctx, q)
	if err != nil {
		log.Error("query failed, treating as empty", logx.String("query", name), logx.Err(err))
		return nil
	}
	log.Debug("query done", logx.String("query", name), logx.Int("results", len(raw)))
	return raw
}

// persist always runs, even after delivery failures: the snapshot is built
// entirely in memory and committed exactly once per run.
func (a *App) persist(ctx context.Context, log logx.Logger, next snapshot.Snapshot, started time.Time) error {
	if err := a.store.Save(ctx, next); err != nil {
		log.Error("snapshot save failed", logx.Err(err))
		return err
	}
	log.Info("run finished", logx.Int("tracked_keys", len(next)), logx.Duration("took", time.Since(started)))
	return nil
}
