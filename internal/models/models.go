package models

import (
	"time"
)

// Article lifecycle statuses
const (
	ArticlePending    = "pending"
	ArticleProcessing = "processing"
	ArticleCompleted  = "completed"
	ArticleFailed     = "failed"
	ArticleNoQuotes   = "no_quotes"
)

// Historical provider statuses
const (
	ProviderWorking  = "working"
	ProviderFailed   = "failed"
	ProviderDisabled = "disabled"
	ProviderUnknown  = "unknown"
)

// Confidence tiers for keyword matches
const (
	ConfidenceHigh   = "high"
	ConfidenceMedium = "medium"
	ConfidenceLow    = "low"
)

// Taxonomy suggestion types
const (
	SuggestionNewKeyword   = "new_keyword"
	SuggestionNewTopic     = "new_topic"
	SuggestionKeywordAlias = "keyword_alias"
	SuggestionTopicKeyword = "topic_keyword"
	SuggestionTopicAlias   = "topic_alias"
)

// Taxonomy suggestion provenance
const (
	SourceExtraction       = "extraction"
	SourceBatchEvolution   = "batch_evolution"
	SourceConfidenceReview = "confidence_review"
)

// Taxonomy suggestion statuses
const (
	SuggestionPending  = "pending"
	SuggestionApproved = "approved"
	SuggestionRejected = "rejected"
	SuggestionEdited   = "edited"
)

// Topic statuses
const (
	TopicActive   = "active"
	TopicArchived = "archived"
	TopicDraft    = "draft"
)

// Backfill attempt statuses
const (
	BackfillProcessing = "processing"
	BackfillCompleted  = "completed"
	BackfillFailed     = "failed"
)

// Source is a live, polled content origin (an RSS/Atom feed on a domain).
type Source struct {
	ID                  int64     `json:"id"`
	Name                string    `json:"name"`
	Domain              string    `json:"domain"`
	FeedURL             string    `json:"feed_url"`
	Enabled             bool      `json:"enabled"`
	TopStory            bool      `json:"top_story"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// HistoricalProvider is the persisted record for one registered archival
// adapter. The cursor document is provider-private pagination state and is
// read and written only by the owning adapter.
type HistoricalProvider struct {
	ID                  int64          `json:"id"`
	Key                 string         `json:"key"`
	Name                string         `json:"name"`
	Enabled             bool           `json:"enabled"`
	Status              string         `json:"status"`
	ConsecutiveFailures int            `json:"consecutive_failures"`
	TotalFetched        int64          `json:"total_fetched"`
	LastError           string         `json:"last_error,omitempty"`
	Cursor              map[string]any `json:"cursor,omitempty"`
	UpdatedAt           time.Time      `json:"updated_at"`
}

// Article is a unit of fetched content. Exactly one of SourceID or
// ProviderKey is set, depending on whether the article came from a live feed
// or an archival provider. FullText holds prefetched content for archival
// items that arrive with their body already attached.
type Article struct {
	ID          int64      `json:"id"`
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	SourceID    *int64     `json:"source_id,omitempty"`
	ProviderKey string     `json:"provider_key,omitempty"`
	Status      string     `json:"status"`
	FullText    string     `json:"-"`
	FailReason  string     `json:"fail_reason,omitempty"`
	Language    string     `json:"language,omitempty"`
	QuoteCount  int        `json:"quote_count"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// Quote is one extracted statement from an article. QuotedAt is the quote's
// effective date (the article's published date) and drives temporal topic
// scoping; it may be null for undated archival content.
type Quote struct {
	ID        int64      `json:"id"`
	ArticleID int64      `json:"article_id"`
	Text      string     `json:"text"`
	Speaker   string     `json:"speaker,omitempty"`
	Visible   bool       `json:"visible"`
	QuotedAt  *time.Time `json:"quoted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
}

// Keyword is a canonical named entity in the vocabulary.
type Keyword struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Normalized string    `json:"normalized"`
	CreatedAt  time.Time `json:"created_at"`
}

// KeywordAlias maps a surface form to exactly one keyword.
type KeywordAlias struct {
	ID         int64  `json:"id"`
	KeywordID  int64  `json:"keyword_id"`
	Alias      string `json:"alias"`
	Normalized string `json:"normalized"`
}

// Topic is a thematic grouping of keywords, optionally time-scoped with an
// inclusive [StartDate, EndDate] window.
type Topic struct {
	ID         int64      `json:"id"`
	Name       string     `json:"name"`
	Normalized string     `json:"normalized"`
	Slug       string     `json:"slug"`
	Status     string     `json:"status"`
	StartDate  *time.Time `json:"start_date,omitempty"`
	EndDate    *time.Time `json:"end_date,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// QuoteKeyword links a quote to a keyword with a confidence tier. Unique per
// (quote, keyword) pair.
type QuoteKeyword struct {
	QuoteID    int64  `json:"quote_id"`
	KeywordID  int64  `json:"keyword_id"`
	Confidence string `json:"confidence"`
}

// SuggestionPayload is the structured body of a taxonomy suggestion.
type SuggestionPayload struct {
	Name       string   `json:"name"`
	EntityType string   `json:"entity_type,omitempty"`
	KeywordID  int64    `json:"keyword_id,omitempty"`
	TopicID    int64    `json:"topic_id,omitempty"`
	Aliases    []string `json:"aliases,omitempty"`
	Keywords   []string `json:"keywords,omitempty"`
}

// TaxonomySuggestion is a proposed vocabulary change awaiting review. At most
// one pending suggestion may exist per (type, normalized name).
type TaxonomySuggestion struct {
	ID          int64             `json:"id"`
	Type        string            `json:"type"`
	Normalized  string            `json:"normalized"`
	Payload     SuggestionPayload `json:"payload"`
	Source      string            `json:"source"`
	Status      string            `json:"status"`
	Occurrences int               `json:"occurrences"`
	CreatedAt   time.Time         `json:"created_at"`
	LastSeen    time.Time         `json:"last_seen"`
	ResolvedAt  *time.Time        `json:"resolved_at,omitempty"`
}

// BackfillAttempt records one calendar day ever attempted for gap-filling.
// The row is written before processing starts, so a day is never retried
// regardless of outcome.
type BackfillAttempt struct {
	ID        int64     `json:"id"`
	Day       string    `json:"day"` // YYYY-MM-DD
	Status    string    `json:"status"`
	Found     int       `json:"found"`
	Processed int       `json:"processed"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Candidate is a discovered feed item before persistence.
type Candidate struct {
	URL         string    `json:"url"`
	Title       string    `json:"title"`
	PublishedAt time.Time `json:"published_at"`
}

// FetchedArticle is one item returned by a historical provider. FullText and
// PublishedAt are optional; Label names the provider batch it came from.
type FetchedArticle struct {
	URL         string     `json:"url"`
	Title       string     `json:"title"`
	FullText    string     `json:"full_text,omitempty"`
	PublishedAt *time.Time `json:"published_at,omitempty"`
	Label       string     `json:"label,omitempty"`
}

// ExtractedEntity is a candidate named entity attached to an extracted quote.
type ExtractedEntity struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// ExtractedQuote is one item produced by the extraction collaborator for an
// article. Entities feed fuzzy classification; Keywords and Topics are the
// collaborator's own vocabulary suggestions and feed the auto-approval path.
type ExtractedQuote struct {
	Text     string            `json:"text"`
	Speaker  string            `json:"speaker,omitempty"`
	Entities []ExtractedEntity `json:"entities,omitempty"`
	Keywords []string          `json:"keywords,omitempty"`
	Topics   []string          `json:"topics,omitempty"`
}

// CycleStatus describes the orchestrator's schedule state.
type CycleStatus struct {
	Running  bool       `json:"running"`
	Interval string     `json:"interval"`
	LastRun  *time.Time `json:"last_run,omitempty"`
	NextRun  *time.Time `json:"next_run,omitempty"`
}

// CycleSummary is the per-cycle report broadcast to subscribers.
type CycleSummary struct {
	StartedAt         time.Time `json:"started_at"`
	Elapsed           string    `json:"elapsed"`
	SourcesPolled     int       `json:"sources_polled"`
	ArticlesFound     int       `json:"articles_found"`
	HistoricalFetched int       `json:"historical_fetched"`
	ArticlesProcessed int       `json:"articles_processed"`
	QuotesExtracted   int       `json:"quotes_extracted"`
	BackfillDay       string    `json:"backfill_day,omitempty"`
}

// Settings are the persisted orchestration knobs. They are seeded from the
// environment on first start and re-read at the top of every cycle so admin
// changes take effect without a restart.
type Settings struct {
	FetchIntervalMinutes  int  `json:"fetch_interval_minutes"`
	ArticlesPerSource     int  `json:"articles_per_source"`
	LookbackHours         int  `json:"lookback_hours"`
	HistoricalEnabled     bool `json:"historical_enabled"`
	HistoricalPerProvider int  `json:"historical_per_provider"`
	BackfillEnabled       bool `json:"backfill_enabled"`
	BackfillPerCycle      int  `json:"backfill_per_cycle"`
	EvolutionLookbackDays int  `json:"evolution_lookback_days"`
}
