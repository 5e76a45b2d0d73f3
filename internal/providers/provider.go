// Package providers implements the pluggable historical-provider framework:
// a uniform contract wrapping archival data sources behind one interface,
// each holding opaque cursor state.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"quotewire/internal/models"
)

// Cursor is a provider-private pagination document. Shape varies per
// provider (page index, resume key, rotating search terms); the framework
// only loads and persists it.
type Cursor map[string]any

func (c Cursor) Int(key string, defaultVal int) int {
	switch v := c[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	}
	return defaultVal
}

func (c Cursor) Int64(key string, defaultVal int64) int64 {
	switch v := c[key].(type) {
	case float64:
		return int64(v)
	case int64:
		return v
	case int:
		return int64(v)
	}
	return defaultVal
}

func (c Cursor) String(key string) string {
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Provider is the plugin contract. FetchArticles advances the provider's
// cursor in place; the framework persists it afterwards.
type Provider interface {
	Key() string
	Name() string
	FetchArticles(ctx context.Context, limit int, cursor Cursor) ([]models.FetchedArticle, error)
	TestConnection(ctx context.Context) (string, error)
}

// getJSON fetches a URL and decodes the JSON response body into v.
func getJSON(ctx context.Context, client *http.Client, rawURL string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "quotewire/1.0")
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("request returned %s: %s", resp.Status, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: 15 * time.Second}
}
