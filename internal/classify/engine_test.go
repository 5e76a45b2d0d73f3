package classify

import (
	"testing"
	"time"

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

// recordingSink captures vocabulary misses without touching storage.
type recordingSink struct {
	keywords []string
	topics   []string
}

func (r *recordingSink) QueueNewKeyword(entity models.ExtractedEntity) error {
	r.keywords = append(r.keywords, entity.Name)
	return nil
}

func (r *recordingSink) QueueNewTopic(name string) error {
	r.topics = append(r.topics, name)
	return nil
}

func TestNormalize(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Donald Trump", "donald trump"},
		{"  Angela   Merkel ", "angela merkel"},
		{"François Hollande", "francois hollande"},
		{"Müller", "muller"},
		{"", ""},
	}
	for _, c := range cases {
		if got := Normalize(c.in); got != c.want {
			t.Errorf("Normalize(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestSlugify(t *testing.T) {
	if got := Slugify("2024 US Election"); got != "2024-us-election" {
		t.Errorf("Slugify returned %q", got)
	}
}

func TestTierForScore(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{1.0, models.ConfidenceHigh},
		{0.95, models.ConfidenceHigh},
		{0.94999, models.ConfidenceMedium},
		{0.85, models.ConfidenceMedium},
		{0.84999, models.ConfidenceLow},
		{0.0, models.ConfidenceLow},
	}
	for _, c := range cases {
		if got := TierForScore(c.score); got != c.want {
			t.Errorf("TierForScore(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestClassifyQuoteFuzzyMatch(t *testing.T) {
	store := newTestStorage(t)
	sink := &recordingSink{}
	engine := NewEngine(store, sink)

	trumpID, err := store.CreateKeyword("Donald Trump", "donald trump")
	if err != nil {
		t.Fatalf("Failed to create keyword: %v", err)
	}
	if _, err := store.CreateKeyword("Angela Merkel", "angela merkel"); err != nil {
		t.Fatalf("Failed to create keyword: %v", err)
	}

	quote := insertQuote(t, store, nil)

	result, err := engine.ClassifyQuote(quote, []models.ExtractedEntity{
		{Name: "Donld Trump"},  // typo, should fuzzy-match
		{Name: "Donald Trump"}, // exact, deduplicated against the typo
		{Name: "Zaphod Beeblebrox"},
	}, nil)
	if err != nil {
		t.Fatalf("ClassifyQuote returned error: %v", err)
	}

	if len(result.Matches) != 2 {
		t.Fatalf("Expected 2 matches, got %d", len(result.Matches))
	}
	for _, m := range result.Matches {
		if m.KeywordID != trumpID {
			t.Errorf("Expected match against Donald Trump, got keyword %d", m.KeywordID)
		}
		if m.Similarity < MediumThreshold {
			t.Errorf("Expected similarity above the medium threshold, got %v", m.Similarity)
		}
	}

	if len(result.Unmatched) != 1 || result.Unmatched[0].Name != "Zaphod Beeblebrox" {
		t.Errorf("Expected one unmatched entity, got %+v", result.Unmatched)
	}
	if len(sink.keywords) != 1 || sink.keywords[0] != "Zaphod Beeblebrox" {
		t.Errorf("Expected unmatched entity queued as suggestion, got %v", sink.keywords)
	}

	// The duplicate match produced exactly one link row.
	ids, err := store.QuoteKeywordIDs(quote.ID)
	if err != nil {
		t.Fatalf("Failed to read quote keywords: %v", err)
	}
	if len(ids) != 1 || ids[0] != trumpID {
		t.Errorf("Expected a single keyword link, got %v", ids)
	}
}

func TestClassifyQuoteTopicResolution(t *testing.T) {
	store := newTestStorage(t)
	engine := NewEngine(store, &recordingSink{})

	keywordID, err := store.CreateKeyword("Election", "election")
	if err != nil {
		t.Fatalf("Failed to create keyword: %v", err)
	}

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	topicID, err := store.CreateTopic("2024 Election", "2024 election", "2024-election", models.TopicActive, &start, &end)
	if err != nil {
		t.Fatalf("Failed to create topic: %v", err)
	}
	if err := store.AddTopicKeyword(topicID, keywordID); err != nil {
		t.Fatalf("Failed to link topic keyword: %v", err)
	}

	inWindow := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	quote := insertQuote(t, store, &inWindow)
	result, err := engine.ClassifyQuote(quote, []models.ExtractedEntity{{Name: "Election"}}, nil)
	if err != nil {
		t.Fatalf("ClassifyQuote returned error: %v", err)
	}
	if result.TopicsLinked != 1 {
		t.Errorf("Expected in-window quote to link the topic, got %d links", result.TopicsLinked)
	}

	outside := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	late := insertQuote(t, store, &outside)
	result, err = engine.ClassifyQuote(late, []models.ExtractedEntity{{Name: "Election"}}, nil)
	if err != nil {
		t.Fatalf("ClassifyQuote returned error: %v", err)
	}
	if result.TopicsLinked != 0 {
		t.Errorf("Expected out-of-window quote to be excluded, got %d links", result.TopicsLinked)
	}

	// An undated quote passes date filtering entirely.
	undated := insertQuote(t, store, nil)
	result, err = engine.ClassifyQuote(undated, []models.ExtractedEntity{{Name: "Election"}}, nil)
	if err != nil {
		t.Fatalf("ClassifyQuote returned error: %v", err)
	}
	if result.TopicsLinked != 1 {
		t.Errorf("Expected undated quote to pass the date window, got %d links", result.TopicsLinked)
	}
}

func TestClassifyQuoteDirectTopicNames(t *testing.T) {
	store := newTestStorage(t)
	sink := &recordingSink{}
	engine := NewEngine(store, sink)

	if _, err := store.CreateTopic("Climate Summit", "climate summit", "climate-summit", models.TopicActive, nil, nil); err != nil {
		t.Fatalf("Failed to create topic: %v", err)
	}

	quote := insertQuote(t, store, nil)
	result, err := engine.ClassifyQuote(quote, nil, []string{"Climate Summit", "Unknown Saga"})
	if err != nil {
		t.Fatalf("ClassifyQuote returned error: %v", err)
	}
	if result.TopicsLinked != 1 {
		t.Errorf("Expected exact topic name to link, got %d", result.TopicsLinked)
	}
	if len(sink.topics) != 1 || sink.topics[0] != "Unknown Saga" {
		t.Errorf("Expected unknown topic name queued, got %v", sink.topics)
	}
}

func TestTopicAllowsDate(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2024, 12, 31, 0, 0, 0, 0, time.UTC)
	topic := &models.Topic{StartDate: &start, EndDate: &end}

	inside := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	before := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)

	if !TopicAllowsDate(topic, &inside) {
		t.Error("Expected in-window date to pass")
	}
	if TopicAllowsDate(topic, &before) {
		t.Error("Expected pre-window date to fail")
	}
	if !TopicAllowsDate(topic, nil) {
		t.Error("Expected nil date to pass")
	}
	if !TopicAllowsDate(&models.Topic{}, &before) {
		t.Error("Expected unwindowed topic to accept any date")
	}
}

func insertQuote(t *testing.T, store storage.Storage, quotedAt *time.Time) *models.Quote {
	t.Helper()

	article := models.Article{URL: "https://example.com/" + time.Now().Format("150405.000000000")}
	if _, err := store.InsertArticle(&article); err != nil {
		t.Fatalf("Failed to insert article: %v", err)
	}
	quote := models.Quote{ArticleID: article.ID, Text: "something said", Visible: true, QuotedAt: quotedAt}
	if _, err := store.InsertQuote(&quote); err != nil {
		t.Fatalf("Failed to insert quote: %v", err)
	}
	return &quote
}
