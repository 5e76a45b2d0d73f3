package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quotewire/internal/models"
)

const gdeltDocURL = "https://api.gdeltproject.org/api/v2/doc/doc"

// Search terms rotated across cycles so repeated fetches surface different
// slices of the news graph.
var gdeltSearchTerms = []string{
	`"said"`,
	`"told reporters"`,
	`"according to"`,
	`"announced"`,
	`"in a statement"`,
}

// GDELTProvider queries the GDELT DOC 2.0 article list API. GDELT has no
// pagination token, so the cursor rotates through search terms instead.
type GDELTProvider struct {
	client *http.Client
}

func NewGDELTProvider() *GDELTProvider {
	return &GDELTProvider{client: newHTTPClient()}
}

func (p *GDELTProvider) Key() string  { return "gdelt" }
func (p *GDELTProvider) Name() string { return "GDELT Project" }

type gdeltResponse struct {
	Articles []struct {
		URL      string `json:"url"`
		Title    string `json:"title"`
		SeenDate string `json:"seendate"`
		Language string `json:"language"`
	} `json:"articles"`
}

func (p *GDELTProvider) FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error) {
	idx := cursor.Int("term_index", 0) % len(gdeltSearchTerms)

	query := url.Values{}
	query.Set("query", gdeltSearchTerms[idx]+" sourcelang:english")
	query.Set("mode", "artlist")
	query.Set("format", "json")
	query.Set("sort", "datedesc")
	query.Set("maxrecords", fmt.Sprintf("%d", limit))

	var resp gdeltResponse
	if err := getJSON(ctx, p.client, gdeltDocURL+"?"+query.Encode(), &resp); err != nil {
		return nil, fmt.Errorf("gdelt query failed: %v", err)
	}

	var articles []models.FetchedArticle
	for _, a := range resp.Articles {
		if a.URL == "" {
			continue
		}
		var published *time.Time
		if ts, err := time.Parse("20060102T150405Z", a.SeenDate); err == nil {
			published = &ts
		}
		articles = append(articles, models.FetchedArticle{
			URL:         a.URL,
			Title:       a.Title,
			PublishedAt: published,
		})
	}

	cursor["term_index"] = (idx + 1) % len(gdeltSearchTerms)
	return articles, nil
}

func (p *GDELTProvider) TestConnection(ctx context.Context) (string, error) {
	var resp gdeltResponse
	err := getJSON(ctx, p.client, gdeltDocURL+"?query=test&mode=artlist&format=json&maxrecords=1", &resp)
	if err != nil {
		return "", err
	}
	return "DOC 2.0 API reachable", nil
}
