// Package pipeline sequences one ingestion run: every source goes through
// fetch → normalize → persist → backup independently, and the accumulated run
// log is flushed to the backup store at the very end no matter how the run
// went.
package pipeline

import (
	"context"
	"fmt"
	"time"

	"foreclosure-ingest/models"
	"foreclosure-ingest/scraper"
	"foreclosure-ingest/services"
	"foreclosure-ingest/storage"
	"foreclosure-ingest/utils"
)

// Stage names the steps of one source's run, in order. A failed fetch
// short-circuits straight to the backup stage with an empty listing set.
type Stage string

const (
	StageFetching    Stage = "fetching"
	StageNormalizing Stage = "normalizing"
	StagePersisting  Stage = "persisting"
	StageBackingUp   Stage = "backing-up"
	StageDone        Stage = "done"
)

// SourceResult records what happened to one source during the run.
type SourceResult struct {
	Provider   string
	RawCount   int
	Listings   []models.Listing
	Dropped    int
	FetchErr   error
	PersistErr error
	BackupErr  error
}

// Orchestrator drives all sources through the pipeline. Sources are mutually
// independent: each runs its own stage sequence, and a failure in one never
// prevents another from starting or completing.
type Orchestrator struct {
	sources    []scraper.Source
	normalizer *services.Normalizer
	store      storage.ListingUpserter
	backup     storage.SnapshotStore
	summary    *services.SummaryService
	runlog     *utils.RunLog

	criteria       models.Criteria
	maxConcurrency int
	rateLimitMs    int
}

// New creates an Orchestrator over the given sources and sinks.
func New(
	sources []scraper.Source,
	normalizer *services.Normalizer,
	store storage.ListingUpserter,
	backup storage.SnapshotStore,
	runlog *utils.RunLog,
	criteria models.Criteria,
	maxConcurrency, rateLimitMs int,
) *Orchestrator {
	return &Orchestrator{
		sources:        sources,
		normalizer:     normalizer,
		store:          store,
		backup:         backup,
		summary:        services.NewSummaryService(),
		runlog:         runlog,
		criteria:       criteria,
		maxConcurrency: maxConcurrency,
		rateLimitMs:    rateLimitMs,
	}
}

// Run executes one batch run and returns the per-source results. The run-log
// flush happens in a deferred block so that even a panic somewhere above
// still produces a diagnosable log artifact in the backup store.
func (o *Orchestrator) Run(ctx context.Context) []SourceResult {
	started := time.Now()
	o.runlog.Logf("[run] starting ingestion: %d sources, concurrency %d",
		len(o.sources), o.maxConcurrency)

	defer o.flushLog(started)

	results := make([]SourceResult, len(o.sources))
	pool := utils.NewWorkerPool(o.maxConcurrency, o.rateLimitMs)
	for i, src := range o.sources {
		i, src := i, src
		pool.Submit(func() {
			results[i] = o.runSource(ctx, src)
		})
	}
	pool.Wait()

	var all []models.Listing
	for _, r := range results {
		all = append(all, r.Listings...)
	}
	o.summary.Log(o.summary.Generate(all), o.runlog)
	o.runlog.Logf("[run] finished in %s", time.Since(started).Round(time.Millisecond))

	return results
}

// runSource walks one source through its stage sequence. Every stage failure
// is contained here: logged, recorded in the result, and the remaining
// meaningful stages still attempted. The backup stage always runs, even on a
// fetch failure, so every source leaves an auditable snapshot.
func (o *Orchestrator) runSource(ctx context.Context, src scraper.Source) (result SourceResult) {
	result.Provider = src.Name()
	result.Listings = []models.Listing{}

	defer func() {
		if r := recover(); r != nil {
			o.runlog.Errorf("[run] %s: panic recovered: %v", src.Name(), r)
			if result.FetchErr == nil {
				result.FetchErr = fmt.Errorf("panic: %v", r)
			}
		}
	}()

	// Fetching. The adapter classifies and logs its own failures; an error
	// here means this source contributes nothing this run.
	raw, err := src.Fetch(ctx, o.criteria)
	if err != nil {
		result.FetchErr = err
	}
	result.RawCount = len(raw)

	// Normalizing + Persisting are skipped when there is nothing to work on.
	if len(raw) > 0 {
		listings, dropped := o.normalizer.NormalizeBatch(src.Name(), raw)
		result.Listings = listings
		result.Dropped = dropped
		if dropped > 0 {
			o.runlog.Errorf("[%s] %s: dropped %d records without a stable natural key",
				StageNormalizing, src.Name(), dropped)
		}

		if len(listings) > 0 {
			if err := o.store.Upsert(ctx, listings); err != nil {
				result.PersistErr = err
				o.runlog.Errorf("[%s] %s: %v", StagePersisting, src.Name(), err)
			} else {
				o.runlog.Logf("[%s] %s: upserted %d listings",
					StagePersisting, src.Name(), len(listings))
			}
		}
	}

	// BackingUp runs regardless of persistence outcome; the two sinks are
	// deliberately decoupled.
	if err := o.backup.Snapshot(ctx, src.Name(), result.Listings); err != nil {
		result.BackupErr = err
		o.runlog.Errorf("[%s] %s: %v", StageBackingUp, src.Name(), err)
	} else {
		o.runlog.Logf("[%s] %s: snapshot of %d listings stored",
			StageBackingUp, src.Name(), len(result.Listings))
	}

	o.runlog.Logf("[%s] %s: raw=%d normalized=%d dropped=%d",
		StageDone, src.Name(), result.RawCount, len(result.Listings), result.Dropped)
	return result
}

// flushLog stores the accumulated run log as one artifact. It uses its own
// deadline rather than the run context so a cancelled run still flushes.
func (o *Orchestrator) flushLog(started time.Time) {
	if r := recover(); r != nil {
		o.runlog.Errorf("[run] panic reached the orchestrator: %v", r)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	name := "run_" + started.Format("2006-01-02T150405")
	if err := o.backup.PutLog(ctx, name, o.runlog.Render()); err != nil {
		// Nothing left to do but say so on the console.
		o.runlog.Errorf("[run] log flush failed: %v", err)
	}
}
