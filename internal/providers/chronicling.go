package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quotewire/internal/models"
)

const chroniclingBaseURL = "https://chroniclingamerica.loc.gov"

// ChroniclingProvider walks the Library of Congress Chronicling America
// newspaper-page search. Pages carry full OCR text, so downstream extraction
// can skip the network fetch entirely.
type ChroniclingProvider struct {
	client *http.Client
}

func NewChroniclingProvider() *ChroniclingProvider {
	return &ChroniclingProvider{client: newHTTPClient()}
}

func (p *ChroniclingProvider) Key() string  { return "chronicling" }
func (p *ChroniclingProvider) Name() string { return "Chronicling America" }

type chroniclingResponse struct {
	TotalItems int `json:"totalItems"`
	Items      []struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Date   string `json:"date"`
		OCRENG string `json:"ocr_eng"`
	} `json:"items"`
}

func (p *ChroniclingProvider) FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error) {
	page := cursor.Int("page", 1)

	query := url.Values{}
	query.Set("format", "json")
	query.Set("rows", fmt.Sprintf("%d", limit))
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("andtext", "said")
	query.Set("sort", "date")

	var resp chroniclingResponse
	endpoint := chroniclingBaseURL + "/search/pages/results/?" + query.Encode()
	if err := getJSON(ctx, p.client, endpoint, &resp); err != nil {
		return nil, fmt.Errorf("chronicling america query failed: %v", err)
	}

	var articles []models.FetchedArticle
	for _, item := range resp.Items {
		if item.ID == "" {
			continue
		}
		var published *time.Time
		if ts, err := time.Parse("20060102", item.Date); err == nil {
			published = &ts
		}
		articles = append(articles, models.FetchedArticle{
			URL:         chroniclingBaseURL + strings.TrimSuffix(item.ID, "/") + "/",
			Title:       item.Title,
			FullText:    item.OCRENG,
			PublishedAt: published,
		})
	}

	if len(resp.Items) == 0 {
		cursor["page"] = 1
	} else {
		cursor["page"] = page + 1
	}
	return articles, nil
}

func (p *ChroniclingProvider) TestConnection(ctx context.Context) (string, error) {
	var resp chroniclingResponse
	err := getJSON(ctx, p.client, chroniclingBaseURL+"/search/pages/results/?format=json&rows=1", &resp)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("search index reachable, %d items", resp.TotalItems), nil
}
