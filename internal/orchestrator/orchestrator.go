// Package orchestrator drives the ingestion cycle: live feed discovery,
// historical provider fetches, article processing, taxonomy maintenance and
// gap backfill, in that order, on a fixed interval.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"quotewire/internal/config"
	"quotewire/internal/fetcher"
	"quotewire/internal/models"
	"quotewire/internal/notify"
	"quotewire/internal/providers"
	"quotewire/internal/storage"
	"quotewire/internal/taxonomy"
)

// SourceDisableThreshold is the consecutive-failure count at which a live
// source is auto-disabled. Stricter than the provider threshold since live
// feeds are expected to be reliable.
const SourceDisableThreshold = 3

type Orchestrator struct {
	store        storage.Storage
	fetcher      *fetcher.Fetcher
	framework    *providers.Framework
	taxonomy     *taxonomy.Service
	materializer *taxonomy.Materializer
	notifier     notify.Notifier
	cfg          *config.Config

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu        sync.RWMutex
	isRunning bool
	started   bool
	lastRun   *time.Time
	interval  time.Duration
}

func New(store storage.Storage, f *fetcher.Fetcher, framework *providers.Framework, tax *taxonomy.Service, mat *taxonomy.Materializer, notifier notify.Notifier, cfg *config.Config) *Orchestrator {
	ctx, cancel := context.WithCancel(context.Background())
	return &Orchestrator{
		store:        store,
		fetcher:      f,
		framework:    framework,
		taxonomy:     tax,
		materializer: mat,
		notifier:     notifier,
		cfg:          cfg,
		ctx:          ctx,
		cancel:       cancel,
		interval:     cfg.FetchInterval,
	}
}

func (o *Orchestrator) Start() {
	o.mu.Lock()
	if o.started {
		o.mu.Unlock()
		return
	}
	o.started = true
	o.mu.Unlock()

	log.Printf("[orchestrator] starting: interval=%v", o.interval)

	o.wg.Add(1)
	go o.cycleLoop()
}

func (o *Orchestrator) Stop() {
	o.mu.Lock()
	if !o.started {
		o.mu.Unlock()
		return
	}
	o.started = false
	o.mu.Unlock()

	log.Println("[orchestrator] stopping...")
	o.cancel()
	o.wg.Wait()
	log.Println("[orchestrator] stopped")
}

func (o *Orchestrator) cycleLoop() {
	defer o.wg.Done()

	ticker := time.NewTicker(o.currentInterval())
	defer ticker.Stop()

	// Run immediately on start. Each cycle may pick up a new interval from
	// the persisted settings, so the ticker is reset after every run.
	o.runCycle()
	ticker.Reset(o.currentInterval())

	for {
		select {
		case <-ticker.C:
			o.runCycle()
			ticker.Reset(o.currentInterval())
		case <-o.ctx.Done():
			return
		}
	}
}

func (o *Orchestrator) currentInterval() time.Duration {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.interval
}

// applyInterval adopts the persisted fetch interval so admin changes take
// effect on the next tick without a restart.
func (o *Orchestrator) applyInterval(settings *models.Settings) {
	next := time.Duration(settings.FetchIntervalMinutes) * time.Minute
	if next <= 0 {
		return
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if next != o.interval {
		log.Printf("[orchestrator] interval changed: %v -> %v", o.interval, next)
		o.interval = next
	}
}

// RunCycle triggers a cycle outside the schedule. It is rejected while a
// cycle is already in flight.
func (o *Orchestrator) RunCycle() error {
	o.mu.RLock()
	busy := o.isRunning
	o.mu.RUnlock()
	if busy {
		return fmt.Errorf("a cycle is already running")
	}
	go o.runCycle()
	return nil
}

func (o *Orchestrator) Status() models.CycleStatus {
	o.mu.RLock()
	defer o.mu.RUnlock()

	status := models.CycleStatus{
		Running:  o.isRunning,
		Interval: o.interval.String(),
		LastRun:  o.lastRun,
	}
	if o.lastRun != nil && o.started {
		next := o.lastRun.Add(o.interval)
		status.NextRun = &next
	}
	return status
}

func (o *Orchestrator) runCycle() {
	o.mu.Lock()
	if o.isRunning {
		o.mu.Unlock()
		log.Println("[orchestrator] cycle skipped: previous cycle still running")
		return
	}
	o.isRunning = true
	o.mu.Unlock()

	start := time.Now()
	defer func() {
		o.mu.Lock()
		o.isRunning = false
		now := time.Now()
		o.lastRun = &now
		o.mu.Unlock()
	}()

	// Settings are re-read every cycle so admin changes apply without a
	// restart.
	settings, err := o.store.GetSettings()
	if err != nil {
		log.Printf("[orchestrator] failed to load settings, using config defaults: %v", err)
		settings = o.cfg.DefaultSettings()
	}
	o.applyInterval(settings)

	summary := models.CycleSummary{StartedAt: start}

	summary.SourcesPolled, summary.ArticlesFound = o.pollSources(settings)

	if settings.HistoricalEnabled {
		fetched, err := o.framework.RunAll(o.ctx, settings.HistoricalPerProvider)
		if err != nil {
			log.Printf("[orchestrator] historical phase failed: %v", err)
		}
		summary.HistoricalFetched = fetched
	}

	processed, quotes := o.processPending(settings)
	summary.ArticlesProcessed = processed
	summary.QuotesExtracted = len(quotes)

	o.maintainTaxonomy(settings, processed)

	if settings.BackfillEnabled {
		day, err := o.runBackfill(settings)
		if err != nil {
			log.Printf("[orchestrator] backfill phase failed: %v", err)
		}
		summary.BackfillDay = day
	}

	summary.Elapsed = time.Since(start).Round(time.Millisecond).String()
	log.Printf("[orchestrator] cycle completed: sources=%d found=%d historical=%d processed=%d quotes=%d elapsed=%s",
		summary.SourcesPolled, summary.ArticlesFound, summary.HistoricalFetched,
		summary.ArticlesProcessed, summary.QuotesExtracted, summary.Elapsed)

	if o.notifier != nil {
		o.notifier.CycleCompleted(summary)
		o.notifier.QuotesPublished(quotes)
	}
}

// pollSources runs live discovery: parse each enabled source's feed, insert
// the candidates, and track per-source health.
func (o *Orchestrator) pollSources(settings *models.Settings) (polled, found int) {
	sources, err := o.store.ListSources(true)
	if err != nil {
		log.Printf("[orchestrator] failed to list sources: %v", err)
		return 0, 0
	}

	window := time.Duration(settings.LookbackHours) * time.Hour
	for i := range sources {
		source := &sources[i]
		candidates, err := o.fetcher.FetchCandidates(o.ctx, source, window)
		if err != nil {
			o.recordSourceFailure(source, err)
			continue
		}
		polled++

		if err := o.store.ResetSourceFailures(source.ID); err != nil {
			log.Printf("[orchestrator] failed to reset failures for source %d: %v", source.ID, err)
		}

		for _, candidate := range candidates {
			published := candidate.PublishedAt
			article := models.Article{
				URL:         candidate.URL,
				Title:       candidate.Title,
				SourceID:    &source.ID,
				PublishedAt: &published,
			}
			inserted, err := o.store.InsertArticle(&article)
			if err != nil {
				log.Printf("[orchestrator] failed to insert article %s: %v", candidate.URL, err)
				continue
			}
			if inserted {
				found++
			}
		}
	}

	log.Printf("[orchestrator] live discovery completed: polled=%d found=%d", polled, found)
	return polled, found
}

func (o *Orchestrator) recordSourceFailure(source *models.Source, cause error) {
	log.Printf("[orchestrator] source poll failed: source=%s error=%v", source.Name, cause)

	count, err := o.store.RecordSourceFailure(source.ID)
	if err != nil {
		log.Printf("[orchestrator] failed to record failure for source %d: %v", source.ID, err)
		return
	}
	if count >= SourceDisableThreshold {
		if err := o.store.SetSourceEnabled(source.ID, false); err != nil {
			log.Printf("[orchestrator] failed to disable source %d: %v", source.ID, err)
			return
		}
		source.ConsecutiveFailures = count
		source.Enabled = false
		log.Printf("[orchestrator] source disabled after %d consecutive failures: %s", count, source.Name)
		if o.notifier != nil {
			o.notifier.SourceDisabled(*source)
		}
	}
}

// processPending runs the extraction pipeline over pending articles, live and
// historical batches capped independently per origin.
func (o *Orchestrator) processPending(settings *models.Settings) (int, []models.Quote) {
	processed := 0
	var quotes []models.Quote

	for _, batch := range []struct {
		historical bool
		cap        int
	}{
		{false, settings.ArticlesPerSource},
		{true, settings.HistoricalPerProvider},
	} {
		pending, err := o.store.PendingArticles(batch.historical, batch.cap)
		if err != nil {
			log.Printf("[orchestrator] failed to load pending articles (historical=%v): %v", batch.historical, err)
			continue
		}
		for i := range pending {
			select {
			case <-o.ctx.Done():
				return processed, quotes
			default:
			}
			extracted, err := o.fetcher.ProcessArticle(o.ctx, &pending[i])
			if err != nil {
				log.Printf("[orchestrator] article processing failed: url=%s error=%v", pending[i].URL, err)
				continue
			}
			processed++
			quotes = append(quotes, extracted...)
		}
	}

	log.Printf("[orchestrator] processing completed: articles=%d quotes=%d", processed, len(quotes))
	return processed, quotes
}

// maintainTaxonomy rebuilds the topic materialization and runs batch
// evolution. Skipped when the cycle was a no-op and the materialized set is
// already populated.
func (o *Orchestrator) maintainTaxonomy(settings *models.Settings, processed int) {
	if processed == 0 {
		count, err := o.store.CountQuoteTopics()
		if err == nil && count > 0 {
			return
		}
	}

	start := time.Now()
	if linked, err := o.materializer.RebuildAll(); err != nil {
		log.Printf("[orchestrator] materialization failed: %v", err)
	} else {
		log.Printf("[orchestrator] materialization completed: links=%d elapsed=%v", linked, time.Since(start))
	}

	result, err := o.taxonomy.RunEvolution(settings.EvolutionLookbackDays)
	if err != nil {
		log.Printf("[orchestrator] evolution failed: %v", err)
		return
	}
	log.Printf("[orchestrator] evolution completed: promoted=%d alias_candidates=%d", result.Promoted, result.AliasCandidates)
}
