// Package classify matches extracted entities against the keyword vocabulary
// and resolves temporally-scoped topic membership for each quote.
package classify

import (
	"fmt"
	"log"
	"time"

	"quotewire/internal/models"
	"quotewire/internal/storage"

	"github.com/xrash/smetrics"
)

// Confidence tier boundaries on Jaro-Winkler similarity.
const (
	HighThreshold   = 0.95
	MediumThreshold = 0.85
)

// SuggestionSink receives vocabulary misses discovered during
// classification. Implemented by the taxonomy service.
type SuggestionSink interface {
	QueueNewKeyword(entity models.ExtractedEntity) error
	QueueNewTopic(name string) error
}

// Match is one accepted entity-to-keyword resolution.
type Match struct {
	KeywordID  int64
	Keyword    string
	Entity     string
	Similarity float64
	Confidence string
}

// Result reports a single quote's classification.
type Result struct {
	Matches      []Match
	Review       []Match // medium-tier matches flagged for human review
	Unmatched    []models.ExtractedEntity
	TopicsLinked int
}

type Engine struct {
	store storage.Storage
	sink  SuggestionSink
}

func NewEngine(store storage.Storage, sink SuggestionSink) *Engine {
	return &Engine{store: store, sink: sink}
}

// TierForScore classifies a similarity score: >=0.95 high, >=0.85 medium,
// below that unmatched (reported as low).
func TierForScore(score float64) string {
	switch {
	case score >= HighThreshold:
		return models.ConfidenceHigh
	case score >= MediumThreshold:
		return models.ConfidenceMedium
	default:
		return models.ConfidenceLow
	}
}

type candidate struct {
	keywordID  int64
	keyword    string
	normalized string
}

func (e *Engine) loadCandidates() ([]candidate, error) {
	keywords, err := e.store.ListKeywords()
	if err != nil {
		return nil, fmt.Errorf("failed to load keywords: %v", err)
	}
	aliases, err := e.store.ListAliases()
	if err != nil {
		return nil, fmt.Errorf("failed to load aliases: %v", err)
	}

	names := make(map[int64]string, len(keywords))
	candidates := make([]candidate, 0, len(keywords)+len(aliases))
	for _, k := range keywords {
		names[k.ID] = k.Name
		candidates = append(candidates, candidate{keywordID: k.ID, keyword: k.Name, normalized: k.Normalized})
	}
	for _, a := range aliases {
		candidates = append(candidates, candidate{keywordID: a.KeywordID, keyword: names[a.KeywordID], normalized: a.Normalized})
	}
	return candidates, nil
}

// matchEntity resolves one entity against the candidate set: exact match on
// normalized form first (similarity 1.0), then the best Jaro-Winkler score
// over every canonical name and alias with no pruning.
func matchEntity(normalized string, candidates []candidate) (candidate, float64) {
	var best candidate
	bestScore := -1.0
	for _, c := range candidates {
		if c.normalized == normalized {
			return c, 1.0
		}
		score := smetrics.JaroWinkler(normalized, c.normalized, 0.7, 4)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}
	return best, bestScore
}

// ClassifyQuote links a quote's entities to keywords, queues suggestions for
// misses, and resolves topic membership for the accepted matches. QuotedAt
// is the quote's effective date and drives temporal topic scoping.
func (e *Engine) ClassifyQuote(quote *models.Quote, entities []models.ExtractedEntity, topicNames []string) (*Result, error) {
	candidates, err := e.loadCandidates()
	if err != nil {
		return nil, err
	}

	result := &Result{}
	linked := make(map[int64]bool)

	for _, entity := range entities {
		normalized := Normalize(entity.Name)
		if normalized == "" {
			continue
		}

		var best candidate
		score := -1.0
		if len(candidates) > 0 {
			best, score = matchEntity(normalized, candidates)
		}

		tier := TierForScore(score)
		if tier == models.ConfidenceLow {
			result.Unmatched = append(result.Unmatched, entity)
			if e.sink != nil {
				if err := e.sink.QueueNewKeyword(entity); err != nil {
					log.Printf("[classify] warning: failed to queue keyword suggestion for %q: %v", entity.Name, err)
				}
			}
			continue
		}

		match := Match{
			KeywordID:  best.keywordID,
			Keyword:    best.keyword,
			Entity:     entity.Name,
			Similarity: score,
			Confidence: tier,
		}
		if !linked[best.keywordID] {
			if err := e.store.LinkQuoteKeyword(quote.ID, best.keywordID, tier); err != nil {
				return nil, fmt.Errorf("failed to link keyword %d: %v", best.keywordID, err)
			}
			linked[best.keywordID] = true
		}
		result.Matches = append(result.Matches, match)
		if tier == models.ConfidenceMedium {
			result.Review = append(result.Review, match)
		}
	}

	// Keyword-driven topic resolution over the matched set.
	if len(linked) > 0 {
		keywordIDs := make([]int64, 0, len(linked))
		for id := range linked {
			keywordIDs = append(keywordIDs, id)
		}
		n, err := e.ResolveTopics(quote, keywordIDs)
		if err != nil {
			return nil, err
		}
		result.TopicsLinked += n
	}

	// Direct topic-name matching is exact-or-nothing and independent of the
	// keyword path.
	for _, name := range topicNames {
		normalized := Normalize(name)
		if normalized == "" {
			continue
		}
		topic, err := e.store.GetTopicByName(normalized)
		if err != nil {
			return nil, err
		}
		if topic == nil || topic.Status != models.TopicActive {
			if e.sink != nil {
				if err := e.sink.QueueNewTopic(name); err != nil {
					log.Printf("[classify] warning: failed to queue topic suggestion for %q: %v", name, err)
				}
			}
			continue
		}
		if !TopicAllowsDate(topic, quote.QuotedAt) {
			continue
		}
		if err := e.store.LinkQuoteTopic(quote.ID, topic.ID); err != nil {
			return nil, fmt.Errorf("failed to link topic %d: %v", topic.ID, err)
		}
		result.TopicsLinked++
	}

	return result, nil
}

// ResolveTopics links the quote to every active topic joined to any of the
// given keywords whose date window admits the quote's effective date.
func (e *Engine) ResolveTopics(quote *models.Quote, keywordIDs []int64) (int, error) {
	topics, err := e.store.TopicsForKeywords(keywordIDs)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve topics: %v", err)
	}

	linked := 0
	for _, topic := range topics {
		if !TopicAllowsDate(&topic, quote.QuotedAt) {
			continue
		}
		if err := e.store.LinkQuoteTopic(quote.ID, topic.ID); err != nil {
			return linked, fmt.Errorf("failed to link topic %d: %v", topic.ID, err)
		}
		linked++
	}
	return linked, nil
}

// TopicAllowsDate applies the topic's inclusive date window. A quote with no
// effective date skips date filtering entirely and passes.
func TopicAllowsDate(topic *models.Topic, date *time.Time) bool {
	if date == nil {
		return true
	}
	if topic.StartDate != nil && date.Before(*topic.StartDate) {
		return false
	}
	if topic.EndDate != nil && date.After(*topic.EndDate) {
		return false
	}
	return true
}
