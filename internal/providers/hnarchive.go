package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quotewire/internal/models"
)

const hnSearchURL = "https://hn.algolia.com/api/v1/search_by_date"

// HNArchiveProvider walks the Algolia Hacker News archive backwards in time.
// The cursor stores the oldest created_at seen so each fetch continues where
// the previous one stopped.
type HNArchiveProvider struct {
	client *http.Client
}

func NewHNArchiveProvider() *HNArchiveProvider {
	return &HNArchiveProvider{client: newHTTPClient()}
}

func (p *HNArchiveProvider) Key() string  { return "hnarchive" }
func (p *HNArchiveProvider) Name() string { return "Hacker News Archive" }

type hnResponse struct {
	Hits []struct {
		ObjectID  string `json:"objectID"`
		Title     string `json:"title"`
		URL       string `json:"url"`
		CreatedAt int64  `json:"created_at_i"`
		StoryText string `json:"story_text"`
	} `json:"hits"`
}

func (p *HNArchiveProvider) FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error) {
	before := cursor.Int64("before", time.Now().Unix())

	query := url.Values{}
	query.Set("tags", "story")
	query.Set("numericFilters", fmt.Sprintf("created_at_i<%d", before))
	query.Set("hitsPerPage", fmt.Sprintf("%d", limit))

	var resp hnResponse
	if err := getJSON(ctx, p.client, hnSearchURL+"?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("hn archive query failed: %v", err)
	}

	var articles []models.FetchedArticle
	oldest := before
	for _, hit := range resp.Hits {
		if hit.CreatedAt > 0 && hit.CreatedAt < oldest {
			oldest = hit.CreatedAt
		}
		link := hit.URL
		if link == "" {
			// Text posts live on HN itself.
			link = "https://news.ycombinator.com/item?id=" + hit.ObjectID
		}
		published := time.Unix(hit.CreatedAt, 0).UTC()
		articles = append(articles, models.FetchedArticle{
			URL:         link,
			Title:       hit.Title,
			FullText:    hit.StoryText,
			PublishedAt: &published,
		})
	}

	if len(resp.Hits) > 0 {
		cursor["before"] = oldest
	}
	return articles, nil
}

func (p *HNArchiveProvider) TestConnection(ctx context.Context) (string, error) {
	var resp hnResponse
	err := getJSON(ctx, p.client, hnSearchURL+"?tags=story&hitsPerPage=1", &resp)
	if err != nil {
		return "", err
	}
	return "Algolia search API reachable", nil
}
