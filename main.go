// Copyright (c) 2026 quotewire authors
// Licensed under the MIT License

package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"quotewire/internal/api"
	"quotewire/internal/cache"
	"quotewire/internal/classify"
	"quotewire/internal/config"
	"quotewire/internal/extract"
	"quotewire/internal/fetcher"
	"quotewire/internal/models"
	"quotewire/internal/notify"
	"quotewire/internal/orchestrator"
	"quotewire/internal/providers"
	"quotewire/internal/ratelimit"
	"quotewire/internal/storage"
	"quotewire/internal/taxonomy"

	_ "quotewire/docs"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize cache for hot data
	cacheManager := cache.NewManager(cfg.CacheTTL)

	// Initialize persistent storage
	store, err := storage.NewStorage(cfg.DataDir)
	if err != nil {
		log.Fatal("Failed to initialize storage:", err)
	}
	defer store.Close()

	// Seed persisted settings and any configured sources
	if err := store.SeedSettings(cfg.SettingsDefaults()); err != nil {
		log.Printf("Warning: failed to seed settings: %v", err)
	}
	for _, seed := range cfg.Sources {
		created, err := store.CreateSource(&models.Source{
			Name:     seed.Name,
			Domain:   seed.Domain,
			FeedURL:  seed.FeedURL,
			Enabled:  true,
			TopStory: seed.TopStory,
		})
		if err != nil {
			log.Printf("Warning: failed to seed source %s: %v", seed.Name, err)
		} else if created {
			log.Printf("Seeded source: %s (%s)", seed.Name, seed.Domain)
		}
	}

	// Notification port: structured log always, Telegram and websocket
	// subscribers when configured.
	hub := notify.NewHub()
	notifier := notify.Multi{notify.LogNotifier{}, hub}
	if cfg.TelegramToken != "" && cfg.TelegramChatID != "" {
		notifier = append(notifier, notify.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID))
	}

	// Pipeline components
	limiter := ratelimit.New()
	tax := taxonomy.NewService(store)
	engine := classify.NewEngine(store, tax)
	materializer := taxonomy.NewMaterializer(store)

	var extractor extract.Extractor
	if cfg.OpenAIKey != "" {
		extractor = extract.NewOpenAIExtractor(cfg.OpenAIKey, cfg.OpenAIModel)
	} else {
		log.Printf("Warning: OPENAI_API_KEY not set, article processing will fail until configured")
		extractor = extract.NewOpenAIExtractor("", cfg.OpenAIModel)
	}

	f := fetcher.New(store, limiter, extractor, engine, tax)

	// Historical providers
	framework := providers.NewFramework(store, limiter, notifier)
	for _, p := range []providers.Provider{
		providers.NewWaybackProvider(store),
		providers.NewGDELTProvider(),
		providers.NewChroniclingProvider(),
		providers.NewCommonCrawlProvider(store),
		providers.NewHNArchiveProvider(),
	} {
		if err := framework.Register(p); err != nil {
			log.Fatalf("Failed to register provider %s: %v", p.Key(), err)
		}
	}

	// Cycle orchestrator
	orch := orchestrator.New(store, f, framework, tax, materializer, notifier, cfg)
	orch.Start()

	// Admin API server
	server := api.NewServer(store, orch, framework, tax, hub, cacheManager, cfg)

	log.Printf("Starting quotewire server on port %d", cfg.Port)
	log.Printf("Data directory: %s", cfg.DataDir)
	log.Printf("Cycle interval: %v", cfg.FetchInterval)
	log.Printf("Historical providers enabled: %v", cfg.HistoricalEnabled)

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-sigChan
		log.Println("Received shutdown signal, stopping services...")
		orch.Stop()
		cancel()
	}()

	if err := server.StartWithContext(ctx); err != nil && err != context.Canceled {
		log.Fatal("Failed to start server:", err)
	}
}
