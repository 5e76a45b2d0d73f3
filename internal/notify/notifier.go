// Package notify is the fire-and-forget event port the orchestrator writes
// to after a cycle: operator alerts for auto-disabled origins, cycle
// summaries, and newly produced quotes for real-time subscribers. A failing
// or absent notifier never blocks scheduling.
package notify

import (
	"log"

	"quotewire/internal/models"
)

type Notifier interface {
	SourceDisabled(source models.Source)
	ProviderDisabled(provider models.HistoricalProvider)
	CycleCompleted(summary models.CycleSummary)
	QuotesPublished(quotes []models.Quote)
}

// LogNotifier writes every event to the process log.
type LogNotifier struct{}

func (LogNotifier) SourceDisabled(source models.Source) {
	log.Printf("[notify] source disabled: id=%d domain=%s failures=%d", source.ID, source.Domain, source.ConsecutiveFailures)
}

func (LogNotifier) ProviderDisabled(provider models.HistoricalProvider) {
	log.Printf("[notify] provider disabled: key=%s failures=%d last_error=%q", provider.Key, provider.ConsecutiveFailures, provider.LastError)
}

func (LogNotifier) CycleCompleted(summary models.CycleSummary) {
	log.Printf("[notify] cycle completed: processed=%d quotes=%d elapsed=%s", summary.ArticlesProcessed, summary.QuotesExtracted, summary.Elapsed)
}

func (LogNotifier) QuotesPublished(quotes []models.Quote) {
	log.Printf("[notify] quotes published: count=%d", len(quotes))
}

// Multi fans events out to several notifiers.
type Multi []Notifier

func (m Multi) SourceDisabled(source models.Source) {
	for _, n := range m {
		n.SourceDisabled(source)
	}
}

func (m Multi) ProviderDisabled(provider models.HistoricalProvider) {
	for _, n := range m {
		n.ProviderDisabled(provider)
	}
}

func (m Multi) CycleCompleted(summary models.CycleSummary) {
	for _, n := range m {
		n.CycleCompleted(summary)
	}
}

func (m Multi) QuotesPublished(quotes []models.Quote) {
	for _, n := range m {
		n.QuotesPublished(quotes)
	}
}
