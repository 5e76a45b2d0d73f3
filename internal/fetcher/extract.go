package fetcher

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"quotewire/internal/models"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"
)

// extractContent runs the three-step fallback chain under the origin's rate
// limit: prefetched full text, the readability extractor, then a plain DOM
// paragraph scrape. Returns whatever the longest successful step produced;
// the caller enforces the minimum-length policy.
func (f *Fetcher) extractContent(ctx context.Context, article *models.Article, domain string) (string, error) {
	if len(article.FullText) >= minContentLength {
		return article.FullText, nil
	}

	release, err := f.limiter.Acquire(ctx, domain)
	if err != nil {
		return "", err
	}
	defer release()

	text := ""
	if parsed, err := readability.FromURL(article.URL, feedTimeout); err == nil {
		text = strings.TrimSpace(parsed.TextContent)
	}
	if len(text) >= minContentLength {
		return text, nil
	}

	fallback, err := f.domExtract(ctx, article.URL)
	if err != nil {
		if text != "" {
			return text, nil
		}
		return "", fmt.Errorf("content extraction failed: %v", err)
	}
	if len(fallback) > len(text) {
		return fallback, nil
	}
	return text, nil
}

// domExtract is the last-resort extractor: fetch the page and join the
// paragraph text under the most article-like container.
func (f *Fetcher) domExtract(ctx context.Context, articleURL string) (string, error) {
	reqCtx, cancel := context.WithTimeout(ctx, feedTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, articleURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", "quotewire/1.0")

	resp, err := f.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch returned %s", resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	for _, selector := range []string{"article p", "main p", "body p"} {
		var parts []string
		doc.Find(selector).Each(func(_ int, sel *goquery.Selection) {
			if t := strings.TrimSpace(sel.Text()); t != "" {
				parts = append(parts, t)
			}
		})
		text := strings.Join(parts, "\n\n")
		if len(text) >= minContentLength {
			return text, nil
		}
	}
	return "", fmt.Errorf("no readable paragraphs found")
}
