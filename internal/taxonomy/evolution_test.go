package taxonomy

import (
	"testing"

	"quotewire/internal/models"
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

func queueEntity(t *testing.T, svc *Service, name string, times int) {
	t.Helper()
	for i := 0; i < times; i++ {
		if err := svc.QueueNewKeyword(models.ExtractedEntity{Name: name, Type: "person"}); err != nil {
			t.Fatalf("Failed to queue entity %q: %v", name, err)
		}
	}
}

func TestEvolutionPromotesAtThreshold(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	queueEntity(t, svc, "Recurring Person", 3)
	queueEntity(t, svc, "Rare Person", 2)

	result, err := svc.RunEvolution(7)
	if err != nil {
		t.Fatalf("RunEvolution returned error: %v", err)
	}
	if result.Promoted != 1 {
		t.Errorf("Expected exactly the 3-occurrence entity promoted, got %d", result.Promoted)
	}

	promoted, err := store.ListSuggestions(models.SuggestionNewKeyword, models.SuggestionPending, 0)
	if err != nil {
		t.Fatalf("Failed to list suggestions: %v", err)
	}
	batch := 0
	for _, sug := range promoted {
		if sug.Source == models.SourceBatchEvolution {
			batch++
			if sug.Normalized != "recurring person" {
				t.Errorf("Unexpected batch promotion: %q", sug.Normalized)
			}
			if sug.Occurrences != 3 {
				t.Errorf("Expected promotion to carry occurrence count 3, got %d", sug.Occurrences)
			}
		}
	}
	if batch != 1 {
		t.Errorf("Expected one batch-sourced suggestion, got %d", batch)
	}

	// Re-running finds the prior promotion already pending and adds nothing.
	again, err := svc.RunEvolution(7)
	if err != nil {
		t.Fatalf("Second RunEvolution returned error: %v", err)
	}
	if again.Promoted != 0 {
		t.Errorf("Expected idempotent re-run, got %d new promotions", again.Promoted)
	}
}

func TestEvolutionSkipsNamesAlreadyLive(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	queueEntity(t, svc, "Someone New", 3)
	// Name goes live between queueing and the evolution pass.
	if _, err := store.CreateKeyword("Someone New", "someone new"); err != nil {
		t.Fatalf("Failed to create keyword: %v", err)
	}

	result, err := svc.RunEvolution(7)
	if err != nil {
		t.Fatalf("RunEvolution returned error: %v", err)
	}
	if result.Promoted != 0 {
		t.Errorf("Expected live name not to be promoted, got %d", result.Promoted)
	}
}

func TestEvolutionFlagsAliasCandidates(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	keywordID, err := store.CreateKeyword("Donald Trump", "donald trump")
	if err != nil {
		t.Fatalf("Failed to create keyword: %v", err)
	}

	article := models.Article{URL: "https://example.com/alias"}
	if _, err := store.InsertArticle(&article); err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	for i := 0; i < 2; i++ {
		quote := models.Quote{ArticleID: article.ID, Text: "q", Visible: true}
		if _, err := store.InsertQuote(&quote); err != nil {
			t.Fatalf("Failed to insert quote: %v", err)
		}
		if err := store.LinkQuoteKeyword(quote.ID, keywordID, models.ConfidenceMedium); err != nil {
			t.Fatalf("Failed to link keyword: %v", err)
		}
	}

	result, err := svc.RunEvolution(7)
	if err != nil {
		t.Fatalf("RunEvolution returned error: %v", err)
	}
	if result.AliasCandidates != 1 {
		t.Errorf("Expected one alias candidate at 2 medium links, got %d", result.AliasCandidates)
	}

	sugs, err := store.ListSuggestions(models.SuggestionKeywordAlias, models.SuggestionPending, 0)
	if err != nil {
		t.Fatalf("Failed to list suggestions: %v", err)
	}
	if len(sugs) != 1 || sugs[0].Source != models.SourceConfidenceReview {
		t.Fatalf("Expected one confidence-review suggestion, got %+v", sugs)
	}

	again, err := svc.RunEvolution(7)
	if err != nil {
		t.Fatalf("Second RunEvolution returned error: %v", err)
	}
	if again.AliasCandidates != 0 {
		t.Errorf("Expected idempotent re-run, got %d new candidates", again.AliasCandidates)
	}
}
