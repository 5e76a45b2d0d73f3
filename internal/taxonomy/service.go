// Package taxonomy grows and maintains the keyword/topic vocabulary:
// queueing suggestions for classification misses, promoting recurring misses
// into reviewable proposals, resolving reviews, and the per-quote
// auto-approval fast path.
package taxonomy

import (
	"fmt"

	"quotewire/internal/classify"
	"quotewire/internal/models"
	"quotewire/internal/storage"
)

type Service struct {
	store storage.Storage
}

func NewService(store storage.Storage) *Service {
	return &Service{store: store}
}

// QueueNewKeyword records an unmatched entity as a pending new-keyword
// suggestion. A name already live in the vocabulary is never queued; a
// repeat sighting bumps the existing pending suggestion's occurrence count.
func (s *Service) QueueNewKeyword(entity models.ExtractedEntity) error {
	normalized := classify.Normalize(entity.Name)
	if normalized == "" {
		return nil
	}

	existing, err := s.store.GetKeywordByNormalized(normalized)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = s.store.CreateSuggestion(&models.TaxonomySuggestion{
		Type:       models.SuggestionNewKeyword,
		Normalized: normalized,
		Payload:    models.SuggestionPayload{Name: entity.Name, EntityType: entity.Type},
		Source:     models.SourceExtraction,
	})
	return err
}

// QueueNewTopic records an unmatched topic-name string as a pending
// new-topic suggestion.
func (s *Service) QueueNewTopic(name string) error {
	normalized := classify.Normalize(name)
	if normalized == "" {
		return nil
	}

	existing, err := s.store.GetTopicByName(normalized)
	if err != nil {
		return err
	}
	if existing != nil {
		return nil
	}

	_, err = s.store.CreateSuggestion(&models.TaxonomySuggestion{
		Type:       models.SuggestionNewTopic,
		Normalized: normalized,
		Payload:    models.SuggestionPayload{Name: name},
		Source:     models.SourceExtraction,
	})
	return err
}

// materializeKeyword creates the keyword and any declared aliases from a
// suggestion payload and returns the keyword id.
func (s *Service) materializeKeyword(payload models.SuggestionPayload) (int64, error) {
	name := payload.Name
	normalized := classify.Normalize(name)
	if normalized == "" {
		return 0, fmt.Errorf("keyword payload has no name")
	}

	id, err := s.store.CreateKeyword(name, normalized)
	if err != nil {
		return 0, err
	}
	for _, alias := range payload.Aliases {
		aliasNorm := classify.Normalize(alias)
		if aliasNorm == "" || aliasNorm == normalized {
			continue
		}
		if err := s.store.CreateKeywordAlias(id, alias, aliasNorm); err != nil {
			return 0, err
		}
	}
	return id, nil
}

// materializeTopic creates the topic, its declared aliases, and joins any
// declared keywords (created if absent), returning the topic id.
func (s *Service) materializeTopic(payload models.SuggestionPayload) (int64, error) {
	name := payload.Name
	normalized := classify.Normalize(name)
	if normalized == "" {
		return 0, fmt.Errorf("topic payload has no name")
	}

	id, err := s.store.CreateTopic(name, normalized, classify.Slugify(name), models.TopicActive, nil, nil)
	if err != nil {
		return 0, err
	}
	for _, alias := range payload.Aliases {
		aliasNorm := classify.Normalize(alias)
		if aliasNorm == "" {
			continue
		}
		if err := s.store.CreateTopicAlias(id, alias, aliasNorm); err != nil {
			return 0, err
		}
	}
	for _, kw := range payload.Keywords {
		kwNorm := classify.Normalize(kw)
		if kwNorm == "" {
			continue
		}
		kwID, err := s.store.CreateKeyword(kw, kwNorm)
		if err != nil {
			return 0, err
		}
		if err := s.store.AddTopicKeyword(id, kwID); err != nil {
			return 0, err
		}
	}
	return id, nil
}
