package providers

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"quotewire/internal/models"
	"quotewire/internal/storage"
)

const waybackCDXURL = "https://web.archive.org/cdx/search/cdx"

// WaybackProvider pages through the Internet Archive CDX index for the
// domains of the configured sources. The cursor holds the CDX resume key and
// the index of the domain currently being walked; when a domain is exhausted
// the provider rotates to the next one.
type WaybackProvider struct {
	store  storage.Storage
	client *http.Client
}

func NewWaybackProvider(store storage.Storage) *WaybackProvider {
	return &WaybackProvider{store: store, client: newHTTPClient()}
}

func (p *WaybackProvider) Key() string  { return "wayback" }
func (p *WaybackProvider) Name() string { return "Internet Archive Wayback Machine" }

func (p *WaybackProvider) FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error) {
	domains, err := p.domains()
	if err != nil {
		return nil, err
	}
	if len(domains) == 0 {
		return nil, nil
	}

	idx := cursor.Int("domain_index", 0) % len(domains)
	domain := domains[idx]

	query := url.Values{}
	query.Set("url", domain+"/*")
	query.Set("output", "json")
	query.Set("limit", fmt.Sprintf("%d", limit))
	query.Set("filter", "statuscode:200")
	query.Set("collapse", "urlkey")
	query.Set("showResumeKey", "true")
	if resume := cursor.String("resume_key"); resume != "" {
		query.Set("resumeKey", resume)
	}

	var rows [][]string
	if err := getJSON(ctx, p.client, waybackCDXURL+"?"+query.Encode(), &rows); err != nil {
		return nil, fmt.Errorf("wayback cdx query failed: %v", err)
	}

	// Row layout: header row, capture rows, then an empty row followed by
	// the resume key when more results remain.
	var articles []models.FetchedArticle
	resumeKey := ""
	for i, row := range rows {
		if i == 0 {
			continue
		}
		if len(row) == 0 {
			if i+1 < len(rows) && len(rows[i+1]) > 0 {
				resumeKey = rows[i+1][0]
			}
			break
		}
		if len(row) < 3 {
			continue
		}
		timestamp, original := row[1], row[2]
		published := parseWaybackTimestamp(timestamp)
		articles = append(articles, models.FetchedArticle{
			URL:         fmt.Sprintf("https://web.archive.org/web/%s/%s", timestamp, original),
			PublishedAt: published,
		})
	}

	if resumeKey != "" {
		cursor["resume_key"] = resumeKey
		cursor["domain_index"] = idx
	} else {
		// Domain exhausted, rotate to the next one and start over.
		delete(cursor, "resume_key")
		cursor["domain_index"] = (idx + 1) % len(domains)
	}
	return articles, nil
}

func (p *WaybackProvider) TestConnection(ctx context.Context) (string, error) {
	var rows [][]string
	err := getJSON(ctx, p.client, waybackCDXURL+"?url=example.com&output=json&limit=1", &rows)
	if err != nil {
		return "", err
	}
	return "CDX index reachable", nil
}

func (p *WaybackProvider) domains() ([]string, error) {
	sources, err := p.store.ListSources(true)
	if err != nil {
		return nil, err
	}
	var domains []string
	for _, s := range sources {
		if s.Domain != "" {
			domains = append(domains, s.Domain)
		}
	}
	return domains, nil
}

func parseWaybackTimestamp(ts string) *time.Time {
	parsed, err := time.Parse("20060102150405", ts)
	if err != nil {
		return nil
	}
	return &parsed
}
