package providers

import (
	"context"
	"errors"
	"testing"
	"time"

	"quotewire/internal/models"
	"quotewire/internal/notify"
	"quotewire/internal/ratelimit"
	"quotewire/internal/storage"
)

func newTestStorage(t *testing.T) storage.Storage {
	t.Helper()

	store, err := storage.NewSQLiteStorage(t.TempDir())
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestFramework(t *testing.T, store storage.Storage, notifier notify.Notifier) *Framework {
	t.Helper()
	return NewFramework(store, ratelimit.NewWithOptions(0, 2), notifier)
}

// fakeProvider returns canned articles or a canned error, and counts calls.
type fakeProvider struct {
	key      string
	articles []models.FetchedArticle
	err      error
	calls    int
}

func (f *fakeProvider) Key() string  { return f.key }
func (f *fakeProvider) Name() string { return "Fake " + f.key }

func (f *fakeProvider) FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	cursor["page"] = cursor.Int("page", 0) + 1
	if len(f.articles) > limit {
		return f.articles[:limit], nil
	}
	return f.articles, nil
}

func (f *fakeProvider) TestConnection(ctx context.Context) (string, error) {
	return "ok", f.err
}

// recordingNotifier captures disable events.
type recordingNotifier struct {
	disabled []string
}

func (r *recordingNotifier) SourceDisabled(models.Source) {}
func (r *recordingNotifier) ProviderDisabled(p models.HistoricalProvider) {
	r.disabled = append(r.disabled, p.Key)
}
func (r *recordingNotifier) CycleCompleted(models.CycleSummary) {}
func (r *recordingNotifier) QuotesPublished([]models.Quote)    {}

func TestRunAllInsertsAndAdvancesCursor(t *testing.T) {
	store := newTestStorage(t)
	framework := newTestFramework(t, store, &recordingNotifier{})

	published := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	provider := &fakeProvider{
		key: "fake",
		articles: []models.FetchedArticle{
			{URL: "https://archive.example/1", Title: "One", PublishedAt: &published},
			{URL: "https://archive.example/2", Title: "Two", FullText: "prefetched body"},
			{URL: ""}, // skipped
		},
	}
	if err := framework.Register(provider); err != nil {
		t.Fatalf("Failed to register provider: %v", err)
	}

	inserted, err := framework.RunAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("RunAll returned error: %v", err)
	}
	if inserted != 2 {
		t.Errorf("Expected 2 articles inserted, got %d", inserted)
	}

	record, err := store.GetProvider("fake")
	if err != nil {
		t.Fatalf("Failed to get provider: %v", err)
	}
	if record.Status != models.ProviderWorking {
		t.Errorf("Expected status working, got %q", record.Status)
	}
	if record.TotalFetched != 2 {
		t.Errorf("Expected total_fetched 2, got %d", record.TotalFetched)
	}
	if page, ok := record.Cursor["page"].(float64); !ok || page != 1 {
		t.Errorf("Expected advanced cursor persisted, got %v", record.Cursor)
	}

	pending, err := store.PendingArticles(true, 10)
	if err != nil {
		t.Fatalf("Failed to select pending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("Expected 2 pending historical articles, got %d", len(pending))
	}
	for _, a := range pending {
		if a.ProviderKey != "fake" {
			t.Errorf("Expected provider key stamped, got %q", a.ProviderKey)
		}
	}

	// A second run re-fetches the same URLs; nothing new is inserted but the
	// cursor keeps advancing.
	inserted, err = framework.RunAll(context.Background(), 10)
	if err != nil {
		t.Fatalf("Second RunAll returned error: %v", err)
	}
	if inserted != 0 {
		t.Errorf("Expected duplicate URLs skipped, got %d inserted", inserted)
	}
	record, _ = store.GetProvider("fake")
	if page, _ := record.Cursor["page"].(float64); page != 2 {
		t.Errorf("Expected cursor advanced to 2, got %v", record.Cursor["page"])
	}
}

func TestRunAllDisablesAfterConsecutiveFailures(t *testing.T) {
	store := newTestStorage(t)
	notifier := &recordingNotifier{}
	framework := newTestFramework(t, store, notifier)

	failing := &fakeProvider{key: "broken", err: errors.New("upstream down")}
	healthy := &fakeProvider{key: "healthy", articles: []models.FetchedArticle{{URL: "https://ok.example/1"}}}
	if err := framework.Register(failing); err != nil {
		t.Fatalf("Failed to register provider: %v", err)
	}
	if err := framework.Register(healthy); err != nil {
		t.Fatalf("Failed to register provider: %v", err)
	}

	for i := 0; i < DisableThreshold; i++ {
		if _, err := framework.RunAll(context.Background(), 5); err != nil {
			t.Fatalf("RunAll returned error: %v", err)
		}
	}

	record, err := store.GetProvider("broken")
	if err != nil {
		t.Fatalf("Failed to get provider: %v", err)
	}
	if record.Enabled {
		t.Error("Expected provider disabled at the failure threshold")
	}
	if record.ConsecutiveFailures != DisableThreshold {
		t.Errorf("Expected %d failures recorded, got %d", DisableThreshold, record.ConsecutiveFailures)
	}
	if len(notifier.disabled) != 1 || notifier.disabled[0] != "broken" {
		t.Errorf("Expected one disable notification for broken, got %v", notifier.disabled)
	}

	// The failing provider never prevented the healthy one from fetching.
	if healthy.calls != DisableThreshold {
		t.Errorf("Expected healthy provider called every cycle, got %d", healthy.calls)
	}

	// A disabled provider is skipped on subsequent runs.
	before := failing.calls
	if _, err := framework.RunAll(context.Background(), 5); err != nil {
		t.Fatalf("RunAll returned error: %v", err)
	}
	if failing.calls != before {
		t.Error("Expected disabled provider not to be called")
	}
}

func TestRegisterRejectsDuplicateKey(t *testing.T) {
	store := newTestStorage(t)
	framework := newTestFramework(t, store, nil)

	if err := framework.Register(&fakeProvider{key: "dup"}); err != nil {
		t.Fatalf("First registration failed: %v", err)
	}
	if err := framework.Register(&fakeProvider{key: "dup"}); err == nil {
		t.Error("Expected duplicate registration to fail")
	}
}

func TestCursorAccessors(t *testing.T) {
	// Values arrive as float64 after a JSON round-trip.
	cursor := Cursor{"page": float64(3), "before": float64(1700000000), "resume_key": "abc"}

	if got := cursor.Int("page", 0); got != 3 {
		t.Errorf("Int(page) = %d", got)
	}
	if got := cursor.Int("missing", 7); got != 7 {
		t.Errorf("Int(missing) = %d, want default", got)
	}
	if got := cursor.Int64("before", 0); got != 1700000000 {
		t.Errorf("Int64(before) = %d", got)
	}
	if got := cursor.String("resume_key"); got != "abc" {
		t.Errorf("String(resume_key) = %q", got)
	}
	if got := cursor.String("page"); got != "" {
		t.Errorf("String on non-string = %q, want empty", got)
	}
}
