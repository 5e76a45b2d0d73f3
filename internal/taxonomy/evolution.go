package taxonomy

import (
	"fmt"
	"log"
	"time"

	"quotewire/internal/models"
)

const (
	// PromotionThreshold is the occurrence count at which a recurring
	// unmatched entity is promoted to a batch suggestion.
	PromotionThreshold = 3

	// AliasReviewThreshold is the medium-confidence link count at which a
	// keyword is proposed for alias expansion.
	AliasReviewThreshold = 2
)

// EvolutionResult summarizes one batch evolution run.
type EvolutionResult struct {
	Promoted        int `json:"promoted"`
	AliasCandidates int `json:"alias_candidates"`
}

// RunEvolution promotes recurring classification misses into reviewable
// proposals. Both passes are idempotent: a re-run finds the prior
// suggestions already pending and creates nothing new.
func (s *Service) RunEvolution(lookbackDays int) (*EvolutionResult, error) {
	if lookbackDays <= 0 {
		lookbackDays = 7
	}
	since := time.Now().AddDate(0, 0, -lookbackDays)
	result := &EvolutionResult{}

	// (a) Recurring unmatched entities: any pending extraction-sourced
	// new-keyword suggestion reaching the occurrence threshold within the
	// window becomes a batch proposal, unless its name went live meanwhile.
	pending, err := s.store.PendingExtractionSuggestions(models.SuggestionNewKeyword, since)
	if err != nil {
		return nil, fmt.Errorf("failed to load pending suggestions: %v", err)
	}
	for _, sug := range pending {
		if sug.Occurrences < PromotionThreshold {
			continue
		}
		live, err := s.store.GetKeywordByNormalized(sug.Normalized)
		if err != nil {
			return nil, err
		}
		if live != nil {
			continue
		}
		created, err := s.store.CreateSuggestion(&models.TaxonomySuggestion{
			Type:        models.SuggestionNewKeyword,
			Normalized:  sug.Normalized,
			Payload:     sug.Payload,
			Source:      models.SourceBatchEvolution,
			Occurrences: sug.Occurrences,
		})
		if err != nil {
			return nil, err
		}
		if created {
			result.Promoted++
			log.Printf("[taxonomy] evolution promoted: name=%q occurrences=%d", sug.Payload.Name, sug.Occurrences)
		}
	}

	// (b) Alias expansion: keywords accumulating medium-confidence links are
	// flagged so a reviewer can bless the recurring near-miss spellings.
	mediumCounts, err := s.store.KeywordsWithMediumLinks(AliasReviewThreshold)
	if err != nil {
		return nil, fmt.Errorf("failed to load medium-link counts: %v", err)
	}
	if len(mediumCounts) > 0 {
		keywords, err := s.store.ListKeywords()
		if err != nil {
			return nil, err
		}
		byID := make(map[int64]models.Keyword, len(keywords))
		for _, k := range keywords {
			byID[k.ID] = k
		}
		for keywordID, count := range mediumCounts {
			kw, ok := byID[keywordID]
			if !ok {
				continue
			}
			created, err := s.store.CreateSuggestion(&models.TaxonomySuggestion{
				Type:        models.SuggestionKeywordAlias,
				Normalized:  kw.Normalized,
				Payload:     models.SuggestionPayload{Name: kw.Name, KeywordID: keywordID},
				Source:      models.SourceConfidenceReview,
				Occurrences: count,
			})
			if err != nil {
				return nil, err
			}
			if created {
				result.AliasCandidates++
			}
		}
	}

	return result, nil
}
