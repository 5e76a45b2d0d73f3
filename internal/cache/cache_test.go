package cache

import (
	"testing"
	"time"

	"quotewire/internal/models"
)

func TestCacheManager_GetSet(t *testing.T) {
	cacheManager := NewManager(5 * time.Minute)

	// The API caches recent-quote responses under a per-limit key.
	key := "quotes:recent:20"
	quotes := []models.Quote{
		{ID: 1, Text: "first quote", Speaker: "Someone"},
		{ID: 2, Text: "second quote"},
	}

	cacheManager.Set(key, quotes, 30*time.Second)

	cached, found := cacheManager.Get(key)
	if !found {
		t.Fatal("Expected to find cached quotes")
	}
	got, ok := cached.([]models.Quote)
	if !ok {
		t.Fatal("Failed to type assert cached quotes")
	}
	if len(got) != 2 || got[0].Text != "first quote" {
		t.Errorf("Expected cached quotes returned intact, got %v", got)
	}

	// A different limit is a different key.
	if _, found := cacheManager.Get("quotes:recent:50"); found {
		t.Error("Expected distinct keys per limit")
	}
}

func TestCacheManager_Delete(t *testing.T) {
	cacheManager := NewManager(5 * time.Minute)

	key := "quotes:recent:20"
	cacheManager.Set(key, []models.Quote{{ID: 1, Text: "x"}}, 30*time.Second)

	if _, found := cacheManager.Get(key); !found {
		t.Error("Expected to find cached value before deletion")
	}

	cacheManager.Delete(key)

	if _, found := cacheManager.Get(key); found {
		t.Error("Expected cached value to be deleted")
	}
}

func TestCacheManager_Flush(t *testing.T) {
	cacheManager := NewManager(5 * time.Minute)

	// A vocabulary approval invalidates every cached quote listing at once.
	cacheManager.Set("quotes:recent:20", []models.Quote{{ID: 1}}, 30*time.Second)
	cacheManager.Set("quotes:recent:50", []models.Quote{{ID: 1}, {ID: 2}}, 30*time.Second)

	if cacheManager.ItemCount() != 2 {
		t.Errorf("Expected 2 cached entries, got %d", cacheManager.ItemCount())
	}

	cacheManager.Flush()

	if cacheManager.ItemCount() != 0 {
		t.Errorf("Expected empty cache after flush, got %d entries", cacheManager.ItemCount())
	}
	if _, found := cacheManager.Get("quotes:recent:20"); found {
		t.Error("Expected quote listings flushed")
	}
}

func TestCacheManager_Expiry(t *testing.T) {
	cacheManager := NewManager(5 * time.Minute)

	cacheManager.Set("quotes:recent:20", []models.Quote{{ID: 1}}, 20*time.Millisecond)

	if _, found := cacheManager.Get("quotes:recent:20"); !found {
		t.Error("Expected entry live before its TTL")
	}

	time.Sleep(50 * time.Millisecond)

	if _, found := cacheManager.Get("quotes:recent:20"); found {
		t.Error("Expected entry expired after its TTL")
	}
}
