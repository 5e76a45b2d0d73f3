package fetcher

import (
	"context"
	"net/http"
	"testing"
	"time"

	"quotewire/internal/models"
)

func TestHostMatchesDomain(t *testing.T) {
	cases := []struct {
		host   string
		domain string
		want   bool
	}{
		{"example.com", "example.com", true},
		{"www.example.com", "example.com", true},
		{"news.example.com", "example.com", true},
		{"EXAMPLE.COM", "example.com", true},
		{"badexample.com", "example.com", false},
		{"example.com.evil.net", "example.com", false},
		{"other.org", "example.com", false},
	}
	for _, c := range cases {
		if got := HostMatchesDomain(c.host, c.domain); got != c.want {
			t.Errorf("HostMatchesDomain(%q, %q) = %v, want %v", c.host, c.domain, got, c.want)
		}
	}
}

func TestResolveURLUnwrapsQueryParameter(t *testing.T) {
	f := &Fetcher{client: &http.Client{Timeout: time.Second}}

	link := "https://news.aggregator.example/rss/item?url=https%3A%2F%2Fexample.com%2Fstory&guid=42"
	resolved := f.resolveURL(context.Background(), link)
	if resolved != "https://example.com/story" {
		t.Errorf("Expected wrapped URL unwrapped, got %q", resolved)
	}
}

func TestResolveURLKeepsPlainLinks(t *testing.T) {
	f := &Fetcher{client: &http.Client{Timeout: time.Second}}

	link := "https://example.com/story?page=2#section"
	resolved := f.resolveURL(context.Background(), link)
	// Fragments are stripped, everything else kept.
	if resolved != "https://example.com/story?page=2" {
		t.Errorf("Expected fragment stripped only, got %q", resolved)
	}
}

func TestResolveURLIgnoresRelativeWrappedValue(t *testing.T) {
	f := &Fetcher{client: &http.Client{Timeout: time.Second}}

	link := "https://example.com/story?url=%2Frelative%2Fpath"
	resolved := f.resolveURL(context.Background(), link)
	if resolved != link {
		t.Errorf("Expected relative url= value ignored, got %q", resolved)
	}
}

func TestEffectiveDomainFallsBackToURLHost(t *testing.T) {
	f := &Fetcher{}

	article := &models.Article{URL: "https://web.archive.org/web/2024/https://example.com/x", ProviderKey: "wayback"}
	domain, err := f.effectiveDomain(article)
	if err != nil {
		t.Fatalf("effectiveDomain returned error: %v", err)
	}
	if domain != "web.archive.org" {
		t.Errorf("Expected URL host as rate-limit origin, got %q", domain)
	}

	if _, err := f.effectiveDomain(&models.Article{URL: "not a url", ProviderKey: "x"}); err == nil {
		t.Error("Expected error for unparseable URL")
	}
}
