package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quotewire/internal/models"

	"gopkg.in/yaml.v3"
)

// SeedSource is one live feed origin declared in the seed file.
type SeedSource struct {
	Name     string `yaml:"name"`
	Domain   string `yaml:"domain"`
	FeedURL  string `yaml:"feed_url"`
	TopStory bool   `yaml:"top_story"`
}

// SecurityConfig represents API security configuration
type SecurityConfig struct {
	EnableRateLimit       bool
	RateLimitPerSecond    float64
	RateLimitBurst        int
	EnableCORS            bool
	AllowedOrigins        []string
	EnableSecurityHeaders bool
	MaxRequestSize        int64
	EnableRequestID       bool
}

type Config struct {
	Port          int
	DataDir       string
	LogLevel      string
	CacheTTL      time.Duration
	EnableSwagger bool
	Security      SecurityConfig

	// Orchestration defaults; persisted to the settings table on first start
	// and re-read by the orchestrator each cycle.
	FetchInterval         time.Duration
	ArticlesPerSource     int
	LookbackHours         int
	HistoricalEnabled     bool
	HistoricalPerProvider int
	BackfillEnabled       bool
	BackfillPerCycle      int
	EvolutionLookbackDays int

	// Extraction collaborator
	OpenAIKey   string
	OpenAIModel string

	// Operator notifications
	TelegramToken  string
	TelegramChatID string

	// Seed sources loaded from SOURCES_FILE (YAML), inserted if absent.
	Sources []SeedSource
}

func Load() *Config {
	cfg := &Config{
		Port:          getEnvAsInt("PORT", 8080),
		DataDir:       getEnv("DATA_DIR", "./data"),
		LogLevel:      getEnv("LOG_LEVEL", "info"),
		CacheTTL:      getEnvAsDuration("CACHE_TTL", 5*time.Minute),
		EnableSwagger: getEnvAsBool("ENABLE_SWAGGER", true),
		Security:      loadSecurityConfig(),

		FetchInterval:         time.Duration(getEnvAsInt("FETCH_INTERVAL_MINUTES", 5)) * time.Minute,
		ArticlesPerSource:     getEnvAsInt("ARTICLES_PER_SOURCE", 10),
		LookbackHours:         getEnvAsInt("LOOKBACK_HOURS", 24),
		HistoricalEnabled:     getEnvAsBool("HISTORICAL_ENABLED", false),
		HistoricalPerProvider: getEnvAsInt("HISTORICAL_PER_PROVIDER", 5),
		BackfillEnabled:       getEnvAsBool("BACKFILL_ENABLED", false),
		BackfillPerCycle:      getEnvAsInt("BACKFILL_PER_CYCLE", 5),
		EvolutionLookbackDays: getEnvAsInt("EVOLUTION_LOOKBACK_DAYS", 7),

		OpenAIKey:   getEnv("OPENAI_API_KEY", ""),
		OpenAIModel: getEnv("OPENAI_MODEL", "gpt-4o-mini"),

		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),
	}

	if path := getEnv("SOURCES_FILE", ""); path != "" {
		sources, err := LoadSeedSources(path)
		if err != nil {
			// Seed file problems should not prevent startup; sources can
			// also be created through the admin API.
			fmt.Fprintf(os.Stderr, "warning: failed to load sources file %s: %v\n", path, err)
		} else {
			cfg.Sources = sources
		}
	}

	return cfg
}

func loadSecurityConfig() SecurityConfig {
	return SecurityConfig{
		EnableRateLimit:       getEnvAsBool("ENABLE_RATE_LIMIT", true),
		RateLimitPerSecond:    getEnvAsFloat("RATE_LIMIT_PER_SECOND", 10.0),
		RateLimitBurst:        getEnvAsInt("RATE_LIMIT_BURST", 20),
		EnableCORS:            getEnvAsBool("ENABLE_CORS", true),
		AllowedOrigins:        getEnvAsStringSlice("ALLOWED_ORIGINS", []string{"*"}),
		EnableSecurityHeaders: getEnvAsBool("ENABLE_SECURITY_HEADERS", true),
		MaxRequestSize:        getEnvAsInt64("MAX_REQUEST_SIZE", 10<<20), // 10MB
		EnableRequestID:       getEnvAsBool("ENABLE_REQUEST_ID", true),
	}
}

// LoadSeedSources parses a YAML seed file of live sources.
func LoadSeedSources(path string) ([]SeedSource, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc struct {
		Sources []SeedSource `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid sources file: %v", err)
	}

	var sources []SeedSource
	for _, s := range doc.Sources {
		s.Domain = strings.ToLower(strings.TrimSpace(s.Domain))
		s.FeedURL = strings.TrimSpace(s.FeedURL)
		if s.Domain == "" || s.FeedURL == "" {
			continue
		}
		if s.Name == "" {
			s.Name = s.Domain
		}
		sources = append(sources, s)
	}
	return sources, nil
}

func getEnv(key string, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.Atoi(val); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(key); val != "" {
		if duration, err := time.ParseDuration(val); err == nil {
			return duration
		}
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if boolVal, err := strconv.ParseBool(val); err == nil {
			return boolVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if floatVal, err := strconv.ParseFloat(val, 64); err == nil {
			return floatVal
		}
	}
	return defaultVal
}

func getEnvAsInt64(key string, defaultVal int64) int64 {
	if val := os.Getenv(key); val != "" {
		if intVal, err := strconv.ParseInt(val, 10, 64); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsStringSlice(key string, defaultVal []string) []string {
	if val := os.Getenv(key); val != "" {
		parts := strings.Split(val, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}
		return parts
	}
	return defaultVal
}

// DefaultSettings returns the orchestration knobs as a Settings record, used
// when the persisted settings cannot be read.
func (c *Config) DefaultSettings() *models.Settings {
	return &models.Settings{
		FetchIntervalMinutes:  int(c.FetchInterval / time.Minute),
		ArticlesPerSource:     c.ArticlesPerSource,
		LookbackHours:         c.LookbackHours,
		HistoricalEnabled:     c.HistoricalEnabled,
		HistoricalPerProvider: c.HistoricalPerProvider,
		BackfillEnabled:       c.BackfillEnabled,
		BackfillPerCycle:      c.BackfillPerCycle,
		EvolutionLookbackDays: c.EvolutionLookbackDays,
	}
}

// SettingsDefaults returns the orchestration knobs as the string map seeded
// into the settings table on first start.
func (c *Config) SettingsDefaults() map[string]string {
	return map[string]string{
		"fetch_interval_minutes":  strconv.Itoa(int(c.FetchInterval / time.Minute)),
		"articles_per_source":     strconv.Itoa(c.ArticlesPerSource),
		"lookback_hours":          strconv.Itoa(c.LookbackHours),
		"historical_enabled":      strconv.FormatBool(c.HistoricalEnabled),
		"historical_per_provider": strconv.Itoa(c.HistoricalPerProvider),
		"backfill_enabled":        strconv.FormatBool(c.BackfillEnabled),
		"backfill_per_cycle":      strconv.Itoa(c.BackfillPerCycle),
		"evolution_lookback_days": strconv.Itoa(c.EvolutionLookbackDays),
	}
}
