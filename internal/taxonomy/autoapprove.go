package taxonomy

import (
	"fmt"
	"log"

	"quotewire/internal/classify"
	"quotewire/internal/models"
)

// AutoApprove is the per-quote fast path run immediately after one quote's
// own extraction. Each of the quote's own suggested keyword/topic strings is
// resolved in priority order: an existing live entry, then a pending
// extraction-sourced suggestion (approved and materialized on the spot),
// else created directly. The resolved keyword is linked at high confidence
// and topic resolution runs over the newly linked keywords, so a quote's own
// vocabulary is never left dangling in pending state.
func (s *Service) AutoApprove(quote *models.Quote, keywords, topics []string, engine *classify.Engine) error {
	var linkedKeywords []int64

	for _, name := range keywords {
		keywordID, err := s.resolveKeyword(name)
		if err != nil {
			log.Printf("[taxonomy] warning: failed to resolve keyword %q: %v", name, err)
			continue
		}
		if keywordID == 0 {
			continue
		}
		if err := s.store.LinkQuoteKeyword(quote.ID, keywordID, models.ConfidenceHigh); err != nil {
			return fmt.Errorf("failed to link keyword %d: %v", keywordID, err)
		}
		linkedKeywords = append(linkedKeywords, keywordID)
	}

	for _, name := range topics {
		topicID, err := s.resolveTopic(name)
		if err != nil {
			log.Printf("[taxonomy] warning: failed to resolve topic %q: %v", name, err)
			continue
		}
		if topicID == 0 {
			continue
		}
		topic, err := s.store.GetTopic(topicID)
		if err != nil {
			return err
		}
		if !classify.TopicAllowsDate(topic, quote.QuotedAt) {
			continue
		}
		if err := s.store.LinkQuoteTopic(quote.ID, topicID); err != nil {
			return fmt.Errorf("failed to link topic %d: %v", topicID, err)
		}
	}

	if len(linkedKeywords) > 0 && engine != nil {
		if _, err := engine.ResolveTopics(quote, linkedKeywords); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) resolveKeyword(name string) (int64, error) {
	normalized := classify.Normalize(name)
	if normalized == "" {
		return 0, nil
	}

	if kw, err := s.store.GetKeywordByNormalized(normalized); err != nil {
		return 0, err
	} else if kw != nil {
		return kw.ID, nil
	}

	if sug, err := s.store.GetPendingSuggestion(models.SuggestionNewKeyword, normalized); err != nil {
		return 0, err
	} else if sug != nil {
		if err := s.Approve(sug.ID, nil); err != nil {
			return 0, err
		}
		kw, err := s.store.GetKeywordByNormalized(normalized)
		if err != nil {
			return 0, err
		}
		if kw != nil {
			return kw.ID, nil
		}
		// Payload name may normalize differently from the extracted string;
		// fall through and create under the extracted form.
	}

	return s.store.CreateKeyword(name, normalized)
}

func (s *Service) resolveTopic(name string) (int64, error) {
	normalized := classify.Normalize(name)
	if normalized == "" {
		return 0, nil
	}

	if topic, err := s.store.GetTopicByName(normalized); err != nil {
		return 0, err
	} else if topic != nil {
		return topic.ID, nil
	}

	if sug, err := s.store.GetPendingSuggestion(models.SuggestionNewTopic, normalized); err != nil {
		return 0, err
	} else if sug != nil {
		if err := s.Approve(sug.ID, nil); err != nil {
			return 0, err
		}
		topic, err := s.store.GetTopicByName(normalized)
		if err != nil {
			return 0, err
		}
		if topic != nil {
			return topic.ID, nil
		}
	}

	return s.store.CreateTopic(name, normalized, classify.Slugify(name), models.TopicActive, nil, nil)
}
