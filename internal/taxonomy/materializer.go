package taxonomy

import (
	"fmt"
	"log"
	"time"

	"quotewire/internal/models"
	"quotewire/internal/storage"
)

// Materializer rebuilds the derived quote_topics cache from the
// source-of-truth link tables. The cache may be fully discarded and
// regenerated at any time; two consecutive rebuilds with no intervening data
// change produce identical link counts.
type Materializer struct {
	store storage.Storage
}

func NewMaterializer(store storage.Storage) *Materializer {
	return &Materializer{store: store}
}

// RebuildAll clears the cache and re-derives membership for every active
// topic. Returns the total number of links written.
func (m *Materializer) RebuildAll() (int, error) {
	start := time.Now()

	if err := m.store.ClearQuoteTopics(); err != nil {
		return 0, fmt.Errorf("failed to clear quote topics: %v", err)
	}

	topics, err := m.store.ListTopics(models.TopicActive)
	if err != nil {
		return 0, fmt.Errorf("failed to list topics: %v", err)
	}

	total := 0
	for _, topic := range topics {
		n, err := m.deriveTopic(&topic)
		if err != nil {
			return total, err
		}
		total += n
	}

	log.Printf("[taxonomy] materialize completed: topics=%d links=%d elapsed=%v", len(topics), total, time.Since(start))
	return total, nil
}

// RebuildTopic re-derives membership for a single topic, leaving every other
// topic's links untouched.
func (m *Materializer) RebuildTopic(topicID int64) (int, error) {
	topic, err := m.store.GetTopic(topicID)
	if err != nil {
		return 0, err
	}
	if err := m.store.ClearQuoteTopicsForTopic(topicID); err != nil {
		return 0, fmt.Errorf("failed to clear topic %d links: %v", topicID, err)
	}
	if topic.Status != models.TopicActive {
		return 0, nil
	}
	return m.deriveTopic(topic)
}

// deriveTopic computes membership as the visible quotes whose linked
// keywords intersect the topic's keywords, within the topic's date window.
func (m *Materializer) deriveTopic(topic *models.Topic) (int, error) {
	keywordIDs, err := m.store.TopicKeywordIDs(topic.ID)
	if err != nil {
		return 0, err
	}
	if len(keywordIDs) == 0 {
		return 0, nil
	}

	quoteIDs, err := m.store.VisibleQuoteIDsForKeywords(keywordIDs, topic.StartDate, topic.EndDate)
	if err != nil {
		return 0, err
	}
	if err := m.store.InsertQuoteTopics(topic.ID, quoteIDs); err != nil {
		return 0, err
	}
	return len(quoteIDs), nil
}
