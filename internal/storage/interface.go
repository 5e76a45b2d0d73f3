package storage

import (
	"time"

	"quotewire/internal/models"
)

// Storage defines the durable store consumed by the pipeline. Inserts that
// hit a unique constraint are idempotent no-ops, not errors.
type Storage interface {
	// Sources
	ListSources(enabledOnly bool) ([]models.Source, error)
	GetSource(id int64) (*models.Source, error)
	CreateSource(s *models.Source) (bool, error)
	SetSourceEnabled(id int64, enabled bool) error
	RecordSourceFailure(id int64) (int, error)
	ResetSourceFailures(id int64) error

	// Historical providers
	ListProviders(enabledOnly bool) ([]models.HistoricalProvider, error)
	GetProvider(key string) (*models.HistoricalProvider, error)
	RegisterProvider(key, name string) error
	SetProviderEnabled(key string, enabled bool) error
	RecordProviderFailure(key, lastError string) (int, error)
	RecordProviderSuccess(key string, fetched int) error
	SaveProviderCursor(key string, cursor map[string]any) error

	// Articles
	InsertArticle(a *models.Article) (bool, error)
	GetArticle(id int64) (*models.Article, error)
	PendingArticles(historical bool, perOriginCap int) ([]models.Article, error)
	SetArticleStatus(id int64, status, reason string) error
	FinishArticle(id int64, status, language string, quoteCount int) error

	// Quotes
	InsertQuote(q *models.Quote) (int64, error)
	RecentQuotes(limit int) ([]models.Quote, error)
	VisibleQuoteDays(since time.Time) (map[string]bool, error)

	// Vocabulary
	ListKeywords() ([]models.Keyword, error)
	ListAliases() ([]models.KeywordAlias, error)
	GetKeywordByNormalized(normalized string) (*models.Keyword, error)
	CreateKeyword(name, normalized string) (int64, error)
	CreateKeywordAlias(keywordID int64, alias, normalized string) error
	ListTopics(status string) ([]models.Topic, error)
	GetTopic(id int64) (*models.Topic, error)
	GetTopicByName(normalized string) (*models.Topic, error)
	CreateTopic(name, normalized, slug, status string, start, end *time.Time) (int64, error)
	CreateTopicAlias(topicID int64, alias, normalized string) error
	AddTopicKeyword(topicID, keywordID int64) error
	TopicKeywordIDs(topicID int64) ([]int64, error)
	TopicsForKeywords(keywordIDs []int64) ([]models.Topic, error)

	// Classification links
	LinkQuoteKeyword(quoteID, keywordID int64, confidence string) error
	LinkQuoteTopic(quoteID, topicID int64) error
	QuoteKeywordIDs(quoteID int64) ([]int64, error)
	KeywordsWithMediumLinks(min int) (map[int64]int, error)

	// Topic materialization
	ClearQuoteTopics() error
	ClearQuoteTopicsForTopic(topicID int64) error
	InsertQuoteTopics(topicID int64, quoteIDs []int64) error
	CountQuoteTopics() (int, error)
	VisibleQuoteIDsForKeywords(keywordIDs []int64, start, end *time.Time) ([]int64, error)

	// Taxonomy suggestions
	CreateSuggestion(s *models.TaxonomySuggestion) (bool, error)
	GetSuggestion(id int64) (*models.TaxonomySuggestion, error)
	GetPendingSuggestion(suggestionType, normalized string) (*models.TaxonomySuggestion, error)
	ListSuggestions(suggestionType, status string, limit int) ([]models.TaxonomySuggestion, error)
	ResolveSuggestion(id int64, status string) error
	PendingExtractionSuggestions(suggestionType string, since time.Time) ([]models.TaxonomySuggestion, error)

	// Gap backfill bookkeeping
	HasBackfillAttempt(day string) (bool, error)
	CreateBackfillAttempt(day string) error
	UpdateBackfillAttempt(day, status string, found, processed int, errMsg string) error
	ListBackfillAttempts(limit int) ([]models.BackfillAttempt, error)

	// Persisted orchestration knobs
	SeedSettings(defaults map[string]string) error
	GetSettings() (*models.Settings, error)
	UpdateSetting(key, value string) error

	Close() error
}
