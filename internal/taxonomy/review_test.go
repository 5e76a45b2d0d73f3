package taxonomy

import (
	"testing"

	"quotewire/internal/models"
)

func TestApproveNewKeyword(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	queueEntity(t, svc, "Jane Doe", 1)
	sug, err := store.GetPendingSuggestion(models.SuggestionNewKeyword, "jane doe")
	if err != nil || sug == nil {
		t.Fatalf("Expected pending suggestion, got %v (%v)", sug, err)
	}

	if err := svc.Approve(sug.ID, nil); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	kw, err := store.GetKeywordByNormalized("jane doe")
	if err != nil {
		t.Fatalf("Failed to look up keyword: %v", err)
	}
	if kw == nil {
		t.Fatal("Expected approved keyword to be live")
	}
	if kw.Name != "Jane Doe" {
		t.Errorf("Expected canonical name from payload, got %q", kw.Name)
	}

	resolved, err := store.GetSuggestion(sug.ID)
	if err != nil {
		t.Fatalf("Failed to get suggestion: %v", err)
	}
	if resolved.Status != models.SuggestionApproved {
		t.Errorf("Expected status approved, got %q", resolved.Status)
	}

	// A resolved suggestion cannot be approved again.
	if err := svc.Approve(sug.ID, nil); err == nil {
		t.Error("Expected second approval to fail")
	}
}

func TestApproveWithEditedPayload(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	queueEntity(t, svc, "J. Doe", 1)
	sug, err := store.GetPendingSuggestion(models.SuggestionNewKeyword, "j. doe")
	if err != nil || sug == nil {
		t.Fatalf("Expected pending suggestion, got %v (%v)", sug, err)
	}

	edited := &models.SuggestionPayload{Name: "Jane Doe", Aliases: []string{"J. Doe"}}
	if err := svc.Approve(sug.ID, edited); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	kw, err := store.GetKeywordByNormalized("jane doe")
	if err != nil || kw == nil {
		t.Fatalf("Expected edited name to be live, got %v (%v)", kw, err)
	}
	aliases, err := store.ListAliases()
	if err != nil {
		t.Fatalf("Failed to list aliases: %v", err)
	}
	if len(aliases) != 1 || aliases[0].Normalized != "j. doe" {
		t.Errorf("Expected declared alias to be created, got %+v", aliases)
	}

	resolved, err := store.GetSuggestion(sug.ID)
	if err != nil {
		t.Fatalf("Failed to get suggestion: %v", err)
	}
	if resolved.Status != models.SuggestionEdited {
		t.Errorf("Expected status edited, got %q", resolved.Status)
	}
}

func TestApproveNewTopicWithKeywords(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	created, err := store.CreateSuggestion(&models.TaxonomySuggestion{
		Type:       models.SuggestionNewTopic,
		Normalized: "climate summit",
		Payload: models.SuggestionPayload{
			Name:     "Climate Summit",
			Keywords: []string{"Climate", "Emissions"},
			Aliases:  []string{"COP Summit"},
		},
		Source: models.SourceExtraction,
	})
	if err != nil || !created {
		t.Fatalf("Failed to create suggestion: created=%v err=%v", created, err)
	}
	sug, err := store.GetPendingSuggestion(models.SuggestionNewTopic, "climate summit")
	if err != nil || sug == nil {
		t.Fatalf("Expected pending suggestion, got %v (%v)", sug, err)
	}

	if err := svc.Approve(sug.ID, nil); err != nil {
		t.Fatalf("Approve returned error: %v", err)
	}

	topic, err := store.GetTopicByName("climate summit")
	if err != nil || topic == nil {
		t.Fatalf("Expected topic live, got %v (%v)", topic, err)
	}
	if topic.Status != models.TopicActive {
		t.Errorf("Expected active topic, got %q", topic.Status)
	}
	ids, err := store.TopicKeywordIDs(topic.ID)
	if err != nil {
		t.Fatalf("Failed to read topic keywords: %v", err)
	}
	if len(ids) != 2 {
		t.Errorf("Expected 2 joined keywords, got %d", len(ids))
	}
	// Alias lookup resolves to the same topic.
	byAlias, err := store.GetTopicByName("cop summit")
	if err != nil || byAlias == nil || byAlias.ID != topic.ID {
		t.Errorf("Expected alias lookup to resolve the topic, got %v (%v)", byAlias, err)
	}
}

func TestRejectHasNoSideEffects(t *testing.T) {
	store := newTestStorage(t)
	svc := NewService(store)

	queueEntity(t, svc, "Nobody Special", 1)
	sug, err := store.GetPendingSuggestion(models.SuggestionNewKeyword, "nobody special")
	if err != nil || sug == nil {
		t.Fatalf("Expected pending suggestion, got %v (%v)", sug, err)
	}

	if err := svc.Reject(sug.ID); err != nil {
		t.Fatalf("Reject returned error: %v", err)
	}

	kw, err := store.GetKeywordByNormalized("nobody special")
	if err != nil {
		t.Fatalf("Failed to look up keyword: %v", err)
	}
	if kw != nil {
		t.Error("Expected rejection to leave the vocabulary untouched")
	}
	resolved, err := store.GetSuggestion(sug.ID)
	if err != nil {
		t.Fatalf("Failed to get suggestion: %v", err)
	}
	if resolved.Status != models.SuggestionRejected {
		t.Errorf("Expected status rejected, got %q", resolved.Status)
	}
}
