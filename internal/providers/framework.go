package providers

import (
	"context"
	"fmt"
	"log"
	"sort"
	"time"

	"quotewire/internal/models"
	"quotewire/internal/notify"
	"quotewire/internal/ratelimit"
	"quotewire/internal/storage"
)

// DisableThreshold is the consecutive-failure count at which a provider is
// auto-disabled. Archival sources get more slack than live feeds.
const DisableThreshold = 5

// Framework treats all registered providers uniformly: load cursor, fetch,
// upsert articles, persist cursor and health. One provider failing never
// aborts the others.
type Framework struct {
	store    storage.Storage
	limiter  *ratelimit.Limiter
	notifier notify.Notifier
	registry map[string]Provider
}

func NewFramework(store storage.Storage, limiter *ratelimit.Limiter, notifier notify.Notifier) *Framework {
	return &Framework{
		store:    store,
		limiter:  limiter,
		notifier: notifier,
		registry: make(map[string]Provider),
	}
}

// Register adds a provider to the registry and ensures its persisted record
// exists. Registration happens once at process start.
func (f *Framework) Register(p Provider) error {
	key := p.Key()
	if _, exists := f.registry[key]; exists {
		return fmt.Errorf("provider %q already registered", key)
	}
	if err := f.store.RegisterProvider(key, p.Name()); err != nil {
		return err
	}
	f.registry[key] = p
	return nil
}

func (f *Framework) Get(key string) (Provider, bool) {
	p, ok := f.registry[key]
	return p, ok
}

// Keys returns registered provider keys in stable order.
func (f *Framework) Keys() []string {
	keys := make([]string, 0, len(f.registry))
	for key := range f.registry {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// RunAll fetches from every enabled provider, returning the number of new
// articles inserted across all of them.
func (f *Framework) RunAll(ctx context.Context, perProviderLimit int) (int, error) {
	records, err := f.store.ListProviders(true)
	if err != nil {
		return 0, fmt.Errorf("failed to list providers: %v", err)
	}

	total := 0
	for _, record := range records {
		provider, ok := f.registry[record.Key]
		if !ok {
			log.Printf("[providers] skipping %q: enabled in store but not registered", record.Key)
			continue
		}
		inserted, err := f.runOne(ctx, provider, &record, perProviderLimit)
		if err != nil {
			f.recordFailure(&record, err)
			continue
		}
		total += inserted
	}
	return total, nil
}

func (f *Framework) runOne(ctx context.Context, provider Provider, record *models.HistoricalProvider, limit int) (int, error) {
	cursor := Cursor(record.Cursor)
	if cursor == nil {
		cursor = Cursor{}
	}

	release, err := f.limiter.Acquire(ctx, record.Key)
	if err != nil {
		return 0, err
	}
	start := time.Now()
	items, err := provider.FetchArticles(ctx, limit, cursor)
	release()
	if err != nil {
		return 0, err
	}

	inserted := 0
	for _, item := range items {
		if item.URL == "" {
			continue
		}
		article := models.Article{
			URL:         item.URL,
			Title:       item.Title,
			ProviderKey: record.Key,
			FullText:    item.FullText,
			PublishedAt: item.PublishedAt,
		}
		ok, err := f.store.InsertArticle(&article)
		if err != nil {
			log.Printf("[providers] %s: failed to insert %s: %v", record.Key, item.URL, err)
			continue
		}
		if ok {
			inserted++
		}
	}

	if err := f.store.RecordProviderSuccess(record.Key, inserted); err != nil {
		return inserted, err
	}
	if err := f.store.SaveProviderCursor(record.Key, cursor); err != nil {
		return inserted, err
	}

	log.Printf("[providers] fetch completed: provider=%s returned=%d inserted=%d elapsed=%v",
		record.Key, len(items), inserted, time.Since(start))
	return inserted, nil
}

func (f *Framework) recordFailure(record *models.HistoricalProvider, cause error) {
	log.Printf("[providers] fetch failed: provider=%s error=%v", record.Key, cause)

	count, err := f.store.RecordProviderFailure(record.Key, cause.Error())
	if err != nil {
		log.Printf("[providers] failed to record failure for %s: %v", record.Key, err)
		return
	}
	if count >= DisableThreshold {
		if err := f.store.SetProviderEnabled(record.Key, false); err != nil {
			log.Printf("[providers] failed to disable %s: %v", record.Key, err)
			return
		}
		record.ConsecutiveFailures = count
		record.LastError = cause.Error()
		record.Enabled = false
		record.Status = models.ProviderDisabled
		if f.notifier != nil {
			f.notifier.ProviderDisabled(*record)
		}
	}
}
