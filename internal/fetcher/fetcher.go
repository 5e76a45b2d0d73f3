// Package fetcher turns live feeds into candidate articles and runs the
// per-article fetch/extract/classify pipeline.
package fetcher

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"quotewire/internal/classify"
	"quotewire/internal/extract"
	"quotewire/internal/models"
	"quotewire/internal/ratelimit"
	"quotewire/internal/storage"
	"quotewire/internal/taxonomy"

	"github.com/mmcdole/gofeed"
	"github.com/pemistahl/lingua-go"
)

const (
	feedTimeout       = 15 * time.Second
	extractionTimeout = 20 * time.Second

	// Extracted text shorter than this is a content-quality failure.
	minContentLength = 200
)

// Hosts that wrap the true article URL behind a redirect.
var aggregatorHosts = map[string]bool{
	"news.google.com":      true,
	"feedproxy.google.com": true,
	"feeds.feedburner.com": true,
	"apple.news":           true,
}

type Fetcher struct {
	store     storage.Storage
	limiter   *ratelimit.Limiter
	extractor extract.Extractor
	engine    *classify.Engine
	taxonomy  *taxonomy.Service
	parser    *gofeed.Parser
	client    *http.Client
	detector  lingua.LanguageDetector
}

func New(store storage.Storage, limiter *ratelimit.Limiter, extractor extract.Extractor, engine *classify.Engine, tax *taxonomy.Service) *Fetcher {
	detector := lingua.NewLanguageDetectorBuilder().
		FromLanguages(
			lingua.English, lingua.German, lingua.French, lingua.Spanish,
			lingua.Italian, lingua.Portuguese, lingua.Dutch, lingua.Russian,
		).
		Build()

	return &Fetcher{
		store:     store,
		limiter:   limiter,
		extractor: extractor,
		engine:    engine,
		taxonomy:  tax,
		parser:    gofeed.NewParser(),
		client:    &http.Client{Timeout: feedTimeout},
		detector:  detector,
	}
}

// FetchCandidates parses a source's feed and returns items inside the
// lookback window whose resolved host belongs to the source's domain. No
// persistence happens here.
func (f *Fetcher) FetchCandidates(ctx context.Context, source *models.Source, window time.Duration) ([]models.Candidate, error) {
	now := time.Now()
	return f.fetchWindow(ctx, source, now.Add(-window), now.Add(time.Hour))
}

// FetchWindow is FetchCandidates with an explicit time range; backfill uses
// it to target a historical window.
func (f *Fetcher) FetchWindow(ctx context.Context, source *models.Source, from, to time.Time) ([]models.Candidate, error) {
	return f.fetchWindow(ctx, source, from, to)
}

func (f *Fetcher) fetchWindow(ctx context.Context, source *models.Source, from, to time.Time) ([]models.Candidate, error) {
	release, err := f.limiter.Acquire(ctx, source.Domain)
	if err != nil {
		return nil, err
	}

	fetchCtx, cancel := context.WithTimeout(ctx, feedTimeout)
	feed, err := f.parser.ParseURLWithContext(source.FeedURL, fetchCtx)
	cancel()
	release()
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed %s: %v", source.FeedURL, err)
	}

	var candidates []models.Candidate
	for _, item := range feed.Items {
		if item.Link == "" || item.PublishedParsed == nil {
			continue
		}
		published := *item.PublishedParsed
		if published.Before(from) || published.After(to) {
			continue
		}

		resolved := f.resolveURL(ctx, item.Link)
		parsed, err := url.Parse(resolved)
		if err != nil || parsed.Hostname() == "" {
			continue
		}
		if !HostMatchesDomain(parsed.Hostname(), source.Domain) {
			continue
		}

		candidates = append(candidates, models.Candidate{
			URL:         resolved,
			Title:       strings.TrimSpace(item.Title),
			PublishedAt: published,
		})
	}
	return candidates, nil
}

// resolveURL unwraps aggregator links to the true origin URL: a `url=` query
// parameter when present, otherwise by following redirects for known
// aggregator hosts.
func (f *Fetcher) resolveURL(ctx context.Context, link string) string {
	parsed, err := url.Parse(link)
	if err != nil {
		return link
	}
	parsed.Fragment = ""

	if wrapped := parsed.Query().Get("url"); wrapped != "" {
		if inner, err := url.Parse(wrapped); err == nil && inner.IsAbs() {
			return wrapped
		}
	}

	if aggregatorHosts[strings.ToLower(parsed.Hostname())] {
		reqCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		req, err := http.NewRequestWithContext(reqCtx, http.MethodHead, parsed.String(), nil)
		if err == nil {
			if resp, err := f.client.Do(req); err == nil {
				resp.Body.Close()
				return resp.Request.URL.String()
			}
		}
	}

	return parsed.String()
}

// HostMatchesDomain reports whether host is the domain itself or one of its
// subdomains.
func HostMatchesDomain(host, domain string) bool {
	host = strings.ToLower(host)
	domain = strings.ToLower(domain)
	return host == domain || strings.HasSuffix(host, "."+domain)
}

// ProcessArticle runs one article through the extraction fallback chain, the
// AI collaborator, and classification. The returned quotes are the newly
// extracted items; a content-quality failure marks the article failed and
// returns no error.
func (f *Fetcher) ProcessArticle(ctx context.Context, article *models.Article) ([]models.Quote, error) {
	if err := f.store.SetArticleStatus(article.ID, models.ArticleProcessing, ""); err != nil {
		return nil, err
	}

	domain, err := f.effectiveDomain(article)
	if err != nil {
		f.store.SetArticleStatus(article.ID, models.ArticleFailed, err.Error())
		return nil, err
	}

	text, err := f.extractContent(ctx, article, domain)
	if err != nil {
		f.store.SetArticleStatus(article.ID, models.ArticleFailed, err.Error())
		return nil, err
	}
	if len(text) < minContentLength {
		reason := fmt.Sprintf("extracted content too short (%d chars)", len(text))
		f.store.SetArticleStatus(article.ID, models.ArticleFailed, reason)
		return nil, nil
	}

	language := f.detectLanguage(text)

	extractCtx, cancel := context.WithTimeout(ctx, extractionTimeout)
	extracted, err := f.extractor.ExtractQuotes(extractCtx, extract.Request{
		URL:         article.URL,
		Title:       article.Title,
		Text:        text,
		PublishedAt: article.PublishedAt,
	})
	cancel()
	if err != nil {
		f.store.SetArticleStatus(article.ID, models.ArticleFailed, fmt.Sprintf("extraction failed: %v", err))
		return nil, err
	}

	var quotes []models.Quote
	for _, item := range extracted {
		quote := models.Quote{
			ArticleID: article.ID,
			Text:      item.Text,
			Speaker:   item.Speaker,
			Visible:   true,
			QuotedAt:  article.PublishedAt,
		}
		if _, err := f.store.InsertQuote(&quote); err != nil {
			log.Printf("[fetcher] failed to insert quote for article %d: %v", article.ID, err)
			continue
		}

		if _, err := f.engine.ClassifyQuote(&quote, item.Entities, item.Topics); err != nil {
			log.Printf("[fetcher] classification failed for quote %d: %v", quote.ID, err)
		}
		if err := f.taxonomy.AutoApprove(&quote, item.Keywords, item.Topics, f.engine); err != nil {
			log.Printf("[fetcher] auto-approval failed for quote %d: %v", quote.ID, err)
		}
		quotes = append(quotes, quote)
	}

	status := models.ArticleCompleted
	if len(quotes) == 0 {
		status = models.ArticleNoQuotes
	}
	if err := f.store.FinishArticle(article.ID, status, language, len(quotes)); err != nil {
		return quotes, err
	}
	return quotes, nil
}

// effectiveDomain resolves the rate-limit origin: the linked source's domain
// when present, otherwise the URL's host (backfilled and historical items).
func (f *Fetcher) effectiveDomain(article *models.Article) (string, error) {
	if article.SourceID != nil {
		source, err := f.store.GetSource(*article.SourceID)
		if err == nil {
			return source.Domain, nil
		}
	}
	parsed, err := url.Parse(article.URL)
	if err != nil || parsed.Hostname() == "" {
		return "", fmt.Errorf("cannot determine domain for %q", article.URL)
	}
	return parsed.Hostname(), nil
}

func (f *Fetcher) detectLanguage(text string) string {
	sample := text
	if len(sample) > 1000 {
		sample = sample[:1000]
	}
	if language, exists := f.detector.DetectLanguageOf(sample); exists {
		return strings.ToLower(language.IsoCode639_1().String())
	}
	return ""
}
