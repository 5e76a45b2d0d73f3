package providers

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"quotewire/internal/models"
	"quotewire/internal/storage"
)

const commonCrawlIndexURL = "https://index.commoncrawl.org/CC-MAIN-2024-33-index"

// CommonCrawlProvider pages through a Common Crawl CDX index for the domains
// of the configured sources. The index responds with newline-delimited JSON,
// one capture per line. The cursor tracks the page inside the current domain
// and rotates domains when a page comes back empty.
type CommonCrawlProvider struct {
	store  storage.Storage
	client *http.Client
}

func NewCommonCrawlProvider(store storage.Storage) *CommonCrawlProvider {
	return &CommonCrawlProvider{store: store, client: newHTTPClient()}
}

func (p *CommonCrawlProvider) Key() string  { return "commoncrawl" }
func (p *CommonCrawlProvider) Name() string { return "Common Crawl" }

type commonCrawlRecord struct {
	URL       string `json:"url"`
	Timestamp string `json:"timestamp"`
	Status    string `json:"status"`
	MIME      string `json:"mime"`
}

func (p *CommonCrawlProvider) FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error) {
	sources, err := p.store.ListSources(true)
	if err != nil {
		return nil, err
	}
	if len(sources) == 0 {
		return nil, nil
	}

	idx := cursor.Int("domain_index", 0) % len(sources)
	page := cursor.Int("page", 0)
	domain := sources[idx].Domain

	query := url.Values{}
	query.Set("url", domain+"/*")
	query.Set("output", "json")
	query.Set("page", fmt.Sprintf("%d", page))
	query.Set("pageSize", "1")
	query.Set("limit", fmt.Sprintf("%d", limit))

	records, err := p.fetchRecords(ctx, commonCrawlIndexURL+"?"+query.Encode())
	if err != nil {
		return nil, fmt.Errorf("common crawl query failed: %v", err)
	}

	var articles []models.FetchedArticle
	for _, record := range records {
		if record.URL == "" || record.Status != "200" || record.MIME != "text/html" {
			continue
		}
		var published *time.Time
		if ts, err := time.Parse("20060102150405", record.Timestamp); err == nil {
			published = &ts
		}
		articles = append(articles, models.FetchedArticle{
			URL:         record.URL,
			PublishedAt: published,
		})
	}

	if len(records) == 0 {
		cursor["page"] = 0
		cursor["domain_index"] = (idx + 1) % len(sources)
	} else {
		cursor["page"] = page + 1
		cursor["domain_index"] = idx
	}
	return articles, nil
}

// fetchRecords reads an NDJSON response line by line. A 404 means the page is
// past the end of the index, which is an empty result rather than an error.
func (p *CommonCrawlProvider) fetchRecords(ctx context.Context, endpoint string) ([]commonCrawlRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "quotewire/1.0")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("request returned %s: %s", resp.Status, string(body))
	}

	var records []commonCrawlRecord
	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var record commonCrawlRecord
		if err := json.Unmarshal(line, &record); err != nil {
			continue
		}
		records = append(records, record)
	}
	return records, scanner.Err()
}

func (p *CommonCrawlProvider) TestConnection(ctx context.Context) (string, error) {
	records, err := p.fetchRecords(ctx, commonCrawlIndexURL+"?url=example.com&output=json&limit=1")
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("index reachable, %d sample records", len(records)), nil
}
