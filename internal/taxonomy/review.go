package taxonomy

import (
	"fmt"

	"quotewire/internal/classify"
	"quotewire/internal/models"
)

// Approve materializes a pending suggestion into the live vocabulary and
// marks it approved, or edited when the reviewer supplied replacement data.
// Approval never retroactively reclassifies already-processed quotes.
func (s *Service) Approve(id int64, edited *models.SuggestionPayload) error {
	sug, err := s.store.GetSuggestion(id)
	if err != nil {
		return err
	}
	if sug.Status != models.SuggestionPending {
		return fmt.Errorf("suggestion %d is %s, not pending", id, sug.Status)
	}

	payload := sug.Payload
	status := models.SuggestionApproved
	if edited != nil {
		payload = *edited
		status = models.SuggestionEdited
	}

	switch sug.Type {
	case models.SuggestionNewKeyword:
		if _, err := s.materializeKeyword(payload); err != nil {
			return err
		}
	case models.SuggestionNewTopic:
		if _, err := s.materializeTopic(payload); err != nil {
			return err
		}
	case models.SuggestionKeywordAlias:
		keywordID := payload.KeywordID
		if keywordID == 0 {
			kw, err := s.store.GetKeywordByNormalized(classify.Normalize(payload.Name))
			if err != nil {
				return err
			}
			if kw == nil {
				return fmt.Errorf("suggestion %d targets unknown keyword %q", id, payload.Name)
			}
			keywordID = kw.ID
		}
		for _, alias := range payload.Aliases {
			aliasNorm := classify.Normalize(alias)
			if aliasNorm == "" {
				continue
			}
			if err := s.store.CreateKeywordAlias(keywordID, alias, aliasNorm); err != nil {
				return err
			}
		}
	case models.SuggestionTopicKeyword:
		topicID := payload.TopicID
		if topicID == 0 {
			topic, err := s.store.GetTopicByName(classify.Normalize(payload.Name))
			if err != nil {
				return err
			}
			if topic == nil {
				return fmt.Errorf("suggestion %d targets unknown topic %q", id, payload.Name)
			}
			topicID = topic.ID
		}
		for _, kw := range payload.Keywords {
			kwNorm := classify.Normalize(kw)
			if kwNorm == "" {
				continue
			}
			kwID, err := s.store.CreateKeyword(kw, kwNorm)
			if err != nil {
				return err
			}
			if err := s.store.AddTopicKeyword(topicID, kwID); err != nil {
				return err
			}
		}
	case models.SuggestionTopicAlias:
		topicID := payload.TopicID
		if topicID == 0 {
			topic, err := s.store.GetTopicByName(classify.Normalize(payload.Name))
			if err != nil {
				return err
			}
			if topic == nil {
				return fmt.Errorf("suggestion %d targets unknown topic %q", id, payload.Name)
			}
			topicID = topic.ID
		}
		for _, alias := range payload.Aliases {
			aliasNorm := classify.Normalize(alias)
			if aliasNorm == "" {
				continue
			}
			if err := s.store.CreateTopicAlias(topicID, alias, aliasNorm); err != nil {
				return err
			}
		}
	default:
		return fmt.Errorf("suggestion %d has unknown type %q", id, sug.Type)
	}

	return s.store.ResolveSuggestion(id, status)
}

// Reject marks a pending suggestion rejected with no vocabulary side
// effects.
func (s *Service) Reject(id int64) error {
	sug, err := s.store.GetSuggestion(id)
	if err != nil {
		return err
	}
	if sug.Status != models.SuggestionPending {
		return fmt.Errorf("suggestion %d is %s, not pending", id, sug.Status)
	}
	return s.store.ResolveSuggestion(id, models.SuggestionRejected)
}
