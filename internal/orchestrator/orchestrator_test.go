package orchestrator

import (
	"fmt"
	"testing"
	"time"

	"quotewire/internal/config"
	"quotewire/internal/models"
	"quotewire/internal/taxonomy"
)

// recordingNotifier captures operator alerts.
type recordingNotifier struct {
	disabledSources []int64
}

func (r *recordingNotifier) SourceDisabled(s models.Source) {
	r.disabledSources = append(r.disabledSources, s.ID)
}
func (r *recordingNotifier) ProviderDisabled(models.HistoricalProvider) {}
func (r *recordingNotifier) CycleCompleted(models.CycleSummary)         {}
func (r *recordingNotifier) QuotesPublished([]models.Quote)             {}

func TestRunCycleRejectedWhileBusy(t *testing.T) {
	o := &Orchestrator{}
	o.isRunning = true

	if err := o.RunCycle(); err == nil {
		t.Error("Expected RunCycle to be rejected while a cycle is in flight")
	}
}

func TestSourceDisabledAtFailureThreshold(t *testing.T) {
	store := newTestStorage(t)
	notifier := &recordingNotifier{}
	o := &Orchestrator{store: store, notifier: notifier}

	source := models.Source{Name: "Example", Domain: "example.com", FeedURL: "https://example.com/rss", Enabled: true}
	if _, err := store.CreateSource(&source); err != nil {
		t.Fatalf("Failed to create source: %v", err)
	}

	cause := fmt.Errorf("feed unreachable")
	for i := 0; i < SourceDisableThreshold-1; i++ {
		o.recordSourceFailure(&source, cause)
	}

	// One failure short of the threshold: still enabled, nobody alerted.
	sources, err := store.ListSources(false)
	if err != nil {
		t.Fatalf("Failed to list sources: %v", err)
	}
	if !sources[0].Enabled {
		t.Fatalf("Expected source enabled after %d failures", SourceDisableThreshold-1)
	}
	if len(notifier.disabledSources) != 0 {
		t.Errorf("Expected no notifications below the threshold, got %v", notifier.disabledSources)
	}

	o.recordSourceFailure(&source, cause)

	sources, err = store.ListSources(false)
	if err != nil {
		t.Fatalf("Failed to list sources: %v", err)
	}
	if sources[0].Enabled {
		t.Errorf("Expected source disabled at failure %d", SourceDisableThreshold)
	}
	if sources[0].ConsecutiveFailures != SourceDisableThreshold {
		t.Errorf("Expected %d failures recorded, got %d", SourceDisableThreshold, sources[0].ConsecutiveFailures)
	}
	if len(notifier.disabledSources) != 1 || notifier.disabledSources[0] != source.ID {
		t.Errorf("Expected one disable notification for source %d, got %v", source.ID, notifier.disabledSources)
	}
}

func TestApplyIntervalFromSettings(t *testing.T) {
	o := &Orchestrator{interval: 5 * time.Minute}

	o.applyInterval(&models.Settings{FetchIntervalMinutes: 9})
	if got := o.currentInterval(); got != 9*time.Minute {
		t.Errorf("Expected interval 9m after settings change, got %v", got)
	}

	// Zero and negative values are ignored rather than stalling the loop.
	o.applyInterval(&models.Settings{FetchIntervalMinutes: 0})
	if got := o.currentInterval(); got != 9*time.Minute {
		t.Errorf("Expected invalid interval ignored, got %v", got)
	}
}

func TestRunCycleAdoptsPersistedInterval(t *testing.T) {
	store := newTestStorage(t)
	if err := store.UpdateSetting("fetch_interval_minutes", "7"); err != nil {
		t.Fatalf("Failed to update setting: %v", err)
	}

	cfg := &config.Config{FetchInterval: 5 * time.Minute}
	o := New(store, nil, nil, taxonomy.NewService(store), taxonomy.NewMaterializer(store), nil, cfg)
	defer o.cancel()

	o.runCycle()

	if status := o.Status(); status.Interval != "7m0s" {
		t.Errorf("Expected interval adopted from settings, got %q", status.Interval)
	}
}

func TestStatusReportsNextRun(t *testing.T) {
	last := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	o := &Orchestrator{interval: 30 * time.Minute}

	status := o.Status()
	if status.Running {
		t.Error("Expected idle status")
	}
	if status.NextRun != nil {
		t.Error("Expected no next run before the loop has started")
	}

	o.started = true
	o.lastRun = &last
	status = o.Status()
	if status.LastRun == nil || !status.LastRun.Equal(last) {
		t.Errorf("Expected last run %v, got %v", last, status.LastRun)
	}
	if status.NextRun == nil || !status.NextRun.Equal(last.Add(30*time.Minute)) {
		t.Errorf("Expected next run 30m after last, got %v", status.NextRun)
	}
	if status.Interval != "30m0s" {
		t.Errorf("Expected interval string 30m0s, got %q", status.Interval)
	}
}
