package orchestrator

import (
	"fmt"
	"log"
	"time"

	"quotewire/internal/models"
)

const (
	// backfillScanDays is how far back the gap scan looks.
	backfillScanDays = 90

	// backfillWindow is the fetch window centered on the target day. Wider
	// than a day because feeds rarely align on midnight boundaries.
	backfillWindow = 36 * time.Hour
)

// runBackfill fills at most one coverage gap per cycle: a day in the scan
// range with no visible quotes and no prior attempt. Attempts are permanent,
// so a day is tried exactly once regardless of outcome. Returns the day that
// was attempted, or empty when there was no gap.
func (o *Orchestrator) runBackfill(settings *models.Settings) (string, error) {
	day, err := o.findGapDay()
	if err != nil {
		return "", err
	}
	if day == "" {
		return "", nil
	}

	// The attempt row is written before any fetching so a crash mid-fill
	// still burns the day.
	if err := o.store.CreateBackfillAttempt(day); err != nil {
		return "", fmt.Errorf("failed to record backfill attempt for %s: %v", day, err)
	}

	log.Printf("[orchestrator] backfill started: day=%s", day)
	found, processed, err := o.fillDay(day, settings.BackfillPerCycle)
	if err != nil {
		o.store.UpdateBackfillAttempt(day, models.BackfillFailed, found, processed, err.Error())
		return day, err
	}

	if err := o.store.UpdateBackfillAttempt(day, models.BackfillCompleted, found, processed, ""); err != nil {
		return day, err
	}
	log.Printf("[orchestrator] backfill completed: day=%s found=%d processed=%d", day, found, processed)
	return day, nil
}

// findGapDay scans backwards from yesterday and returns the most recent day
// with neither visible quotes nor a prior attempt.
func (o *Orchestrator) findGapDay() (string, error) {
	since := time.Now().AddDate(0, 0, -backfillScanDays)
	covered, err := o.store.VisibleQuoteDays(since)
	if err != nil {
		return "", fmt.Errorf("failed to load quote coverage: %v", err)
	}

	for offset := 1; offset <= backfillScanDays; offset++ {
		day := time.Now().AddDate(0, 0, -offset).Format("2006-01-02")
		if covered[day] {
			continue
		}
		attempted, err := o.store.HasBackfillAttempt(day)
		if err != nil {
			return "", err
		}
		if !attempted {
			return day, nil
		}
	}
	return "", nil
}

// fillDay fetches a window around the target day from every enabled source,
// keeps only items published on that exact day, and processes up to cap of
// them inline.
func (o *Orchestrator) fillDay(day string, cap int) (found, processed int, err error) {
	target, err := time.Parse("2006-01-02", day)
	if err != nil {
		return 0, 0, err
	}
	center := target.Add(12 * time.Hour)
	from := center.Add(-backfillWindow / 2)
	to := center.Add(backfillWindow / 2)

	sources, err := o.store.ListSources(true)
	if err != nil {
		return 0, 0, err
	}

	for i := range sources {
		source := &sources[i]
		candidates, err := o.fetcher.FetchWindow(o.ctx, source, from, to)
		if err != nil {
			log.Printf("[orchestrator] backfill fetch failed: source=%s error=%v", source.Name, err)
			continue
		}

		for _, candidate := range candidates {
			if candidate.PublishedAt.Format("2006-01-02") != day {
				continue
			}
			found++
			if processed >= cap {
				continue
			}

			published := candidate.PublishedAt
			article := models.Article{
				URL:         candidate.URL,
				Title:       candidate.Title,
				SourceID:    &source.ID,
				PublishedAt: &published,
			}
			inserted, err := o.store.InsertArticle(&article)
			if err != nil || !inserted {
				continue
			}
			if _, err := o.fetcher.ProcessArticle(o.ctx, &article); err != nil {
				log.Printf("[orchestrator] backfill processing failed: url=%s error=%v", article.URL, err)
				continue
			}
			processed++
		}
	}
	return found, processed, nil
}
