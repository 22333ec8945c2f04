package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration
type Config struct {
	App        App        `mapstructure:"app"`
	AI         AI         `mapstructure:"ai"`
	Sources    Sources    `mapstructure:"sources"`
	Extraction Extraction `mapstructure:"extraction"`
	Enrichment Enrichment `mapstructure:"enrichment"`
	Repository Repository `mapstructure:"repository"`
	Logging    Logging    `mapstructure:"logging"`
}

// App holds general application configuration
type App struct {
	Debug      bool   `mapstructure:"debug"`
	DataDir    string `mapstructure:"data_dir"`
	ConfigFile string `mapstructure:"config_file"`
}

// AI holds AI/LLM configuration
type AI struct {
	Gemini GeminiConfig `mapstructure:"gemini"`
}

// GeminiConfig holds Google Gemini configuration
type GeminiConfig struct {
	APIKey        string  `mapstructure:"api_key"`
	Model         string  `mapstructure:"model"`
	FallbackModel string  `mapstructure:"fallback_model"`
	Timeout       string  `mapstructure:"timeout"`
	MaxTokens     int32   `mapstructure:"max_tokens"`
	Temperature   float32 `mapstructure:"temperature"`
}

// Sources holds fetch orchestration configuration
type Sources struct {
	AdapterTimeout  string       `mapstructure:"adapter_timeout"`
	MaxFailures     int          `mapstructure:"max_failures"` // Consecutive failures before an adapter is skipped
	MaxArticleAgeH  int          `mapstructure:"max_article_age_h"`
	UserAgent       string       `mapstructure:"user_agent"`
	PrepTitleFilter string       `mapstructure:"prep_title_filter"` // Regex for coaching/prep article titles to drop
	Feeds           []FeedConfig `mapstructure:"feeds"`
}

// FeedConfig describes one RSS/Atom feed to register as a source adapter.
type FeedConfig struct {
	Name     string `mapstructure:"name"`
	Site     string `mapstructure:"site"`
	Section  string `mapstructure:"section"`
	URL      string `mapstructure:"url"`
	CacheTTL string `mapstructure:"cache_ttl"` // Empty or zero disables caching for this feed
}

// Extraction holds content extraction configuration
type Extraction struct {
	Timeout        string `mapstructure:"timeout"`
	MaxConcurrency int    `mapstructure:"max_concurrency"`
	MinContentLen  int    `mapstructure:"min_content_len"`
	MinTitleLen    int    `mapstructure:"min_title_len"`
	MaxContentLen  int    `mapstructure:"max_content_len"`
	MinQuality     float64 `mapstructure:"min_quality"`
}

// Enrichment holds two-pass enrichment configuration
type Enrichment struct {
	BatchSize          int       `mapstructure:"batch_size"`
	RelevanceThreshold int       `mapstructure:"relevance_threshold"`
	SelectionTarget    int       `mapstructure:"selection_target"`
	CardConcurrency    int       `mapstructure:"card_concurrency"`
	MustKnowSources    []string  `mapstructure:"must_know_sources"` // "site/section" pairs that bypass the threshold
	Keywords           []string  `mapstructure:"keywords"`          // Heuristic fallback scorer keyword list
}

// Repository holds persistence configuration
type Repository struct {
	Path    string `mapstructure:"path"`
	Timeout string `mapstructure:"timeout"`
}

// Logging holds logging configuration
type Logging struct {
	Level string `mapstructure:"level"`
}

var globalConfig *Config

// Load loads the configuration from various sources
func Load(configFile string) (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}

	// Load .env file if it exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(".env"); err != nil {
			fmt.Printf("Warning: Error loading .env file: %v\n", err)
		}
	}

	// Configure viper
	if configFile != "" {
		viper.SetConfigFile(configFile)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("$HOME")
		viper.SetConfigName(".currents")
		viper.SetConfigType("yaml")
	}

	// Set defaults
	setDefaults()

	// Bind environment variables
	bindEnvironmentVariables()

	// Enable automatic environment variable reading
	viper.SetEnvPrefix("CURRENTS")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read config file if it exists
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	// Unmarshal into struct
	config := &Config{}
	if err := viper.Unmarshal(config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	// Apply post-processing
	if err := postProcessConfig(config); err != nil {
		return nil, fmt.Errorf("error post-processing config: %w", err)
	}

	// Validate configuration
	if err := validateConfig(config); err != nil {
		return nil, err
	}

	globalConfig = config
	return config, nil
}

// Get returns the global configuration, loading it if necessary
func Get() *Config {
	if globalConfig == nil {
		config, err := Load("")
		if err != nil {
			panic(fmt.Sprintf("Failed to load configuration: %v", err))
		}
		return config
	}
	return globalConfig
}

// setDefaults sets default configuration values
func setDefaults() {
	// App defaults
	viper.SetDefault("app.debug", false)
	viper.SetDefault("app.data_dir", ".currents")

	// AI defaults
	viper.SetDefault("ai.gemini.model", "gemini-2.0-flash")
	viper.SetDefault("ai.gemini.fallback_model", "gemini-1.5-flash")
	viper.SetDefault("ai.gemini.timeout", "60s")
	viper.SetDefault("ai.gemini.max_tokens", 8192)
	viper.SetDefault("ai.gemini.temperature", 0.3)

	// Sources defaults
	viper.SetDefault("sources.adapter_timeout", "30s")
	viper.SetDefault("sources.max_failures", 3)
	viper.SetDefault("sources.max_article_age_h", 36)
	viper.SetDefault("sources.user_agent", "Currents/1.0")
	viper.SetDefault("sources.prep_title_filter",
		`(?i)UPSC\s+(Key|Essentials|Weekly|Prelims\s*Ready|Quiz|Simplified)`)
	viper.SetDefault("sources.feeds", []map[string]any{
		{"name": "indianexpress-explained", "site": "indianexpress", "section": "explained",
			"url": "https://indianexpress.com/section/explained/feed/", "cache_ttl": "15m"},
		{"name": "indianexpress-editorials", "site": "indianexpress", "section": "editorials",
			"url": "https://indianexpress.com/section/opinion/editorials/feed/", "cache_ttl": "15m"},
		{"name": "hindu-editorial", "site": "hindu", "section": "editorial",
			"url": "https://www.thehindu.com/opinion/editorial/feeder/default.rss", "cache_ttl": "15m"},
		{"name": "hindu-opinion", "site": "hindu", "section": "opinion",
			"url": "https://www.thehindu.com/opinion/op-ed/feeder/default.rss", "cache_ttl": "15m"},
	})

	// Extraction defaults
	viper.SetDefault("extraction.timeout", "20s")
	viper.SetDefault("extraction.max_concurrency", 5)
	viper.SetDefault("extraction.min_content_len", 100)
	viper.SetDefault("extraction.min_title_len", 8)
	viper.SetDefault("extraction.max_content_len", 50000)
	viper.SetDefault("extraction.min_quality", 0.2)

	// Enrichment defaults
	viper.SetDefault("enrichment.batch_size", 10)
	viper.SetDefault("enrichment.relevance_threshold", 55)
	viper.SetDefault("enrichment.selection_target", 30)
	viper.SetDefault("enrichment.card_concurrency", 3)
	viper.SetDefault("enrichment.must_know_sources", []string{
		"indianexpress/explained",
		"indianexpress/editorials",
		"hindu/editorial",
		"hindu/opinion",
	})
	viper.SetDefault("enrichment.keywords", []string{
		"government", "policy", "india", "parliament", "economy",
		"ministry", "scheme", "reform", "budget", "constitution",
		"supreme court", "bill", "act", "international", "environment",
		"climate", "technology", "defence", "agriculture", "election",
	})

	// Repository defaults
	viper.SetDefault("repository.path", ".currents/articles.db")
	viper.SetDefault("repository.timeout", "5s")

	// Logging defaults
	viper.SetDefault("logging.level", "info")
}

// bindEnvironmentVariables sets up flexible environment variable binding
func bindEnvironmentVariables() {
	// Gemini API key - support multiple formats
	bindEnvKeys("ai.gemini.api_key", []string{
		"GEMINI_API_KEY",
		"GOOGLE_GEMINI_API_KEY",
		"GOOGLE_AI_API_KEY",
	})

	bindEnvKeys("repository.path", []string{
		"CURRENTS_DB_PATH",
	})

	bindEnvKeys("app.debug", []string{
		"DEBUG",
		"CURRENTS_DEBUG",
	})

	bindEnvKeys("logging.level", []string{
		"CURRENTS_LOG_LEVEL",
		"LOG_LEVEL",
	})
}

// bindEnvKeys binds the first found environment variable to a viper key
func bindEnvKeys(viperKey string, envKeys []string) {
	for _, envKey := range envKeys {
		if value := os.Getenv(envKey); value != "" {
			viper.Set(viperKey, value)
			return
		}
	}
}

// postProcessConfig applies post-processing to configuration values
func postProcessConfig(config *Config) error {
	if config.App.DataDir != "" {
		config.App.DataDir = expandPath(config.App.DataDir)
	}
	if config.Repository.Path != "" {
		config.Repository.Path = expandPath(config.Repository.Path)
	}

	// Validate durations
	durations := map[string]string{
		"ai.gemini.timeout":       config.AI.Gemini.Timeout,
		"sources.adapter_timeout": config.Sources.AdapterTimeout,
		"extraction.timeout":      config.Extraction.Timeout,
		"repository.timeout":      config.Repository.Timeout,
	}

	for key, duration := range durations {
		if duration != "" {
			if _, err := time.ParseDuration(duration); err != nil {
				return fmt.Errorf("invalid duration for %s: %s", key, duration)
			}
		}
	}

	return nil
}

// expandPath expands ~ and environment variables in paths
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return path
		}
		return filepath.Join(home, path[2:])
	}
	return os.ExpandEnv(path)
}

// validateConfig ensures required configuration is present
func validateConfig(config *Config) error {
	var errors []string

	if config.Enrichment.BatchSize <= 0 {
		errors = append(errors, "enrichment.batch_size must be positive")
	}
	if config.Enrichment.RelevanceThreshold < 0 || config.Enrichment.RelevanceThreshold > 100 {
		errors = append(errors, "enrichment.relevance_threshold must be in [0,100]")
	}
	if config.Extraction.MaxConcurrency <= 0 {
		errors = append(errors, "extraction.max_concurrency must be positive")
	}
	if config.Repository.Path == "" {
		errors = append(errors, "repository.path is required")
	}

	if len(errors) > 0 {
		return fmt.Errorf("configuration errors:\n- %s", strings.Join(errors, "\n- "))
	}

	return nil
}

// AdapterTimeout returns the per-adapter fetch timeout as a duration.
func (s Sources) AdapterTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(s.AdapterTimeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// CacheTTLDuration returns the feed cache TTL, or zero when caching is off.
func (f FeedConfig) CacheTTLDuration() time.Duration {
	d, err := time.ParseDuration(f.CacheTTL)
	if err != nil {
		return 0
	}
	return d
}

// TimeoutDuration returns the per-strategy extraction timeout as a duration.
func (e Extraction) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(e.Timeout)
	if err != nil {
		return 20 * time.Second
	}
	return d
}

// MustKnowSet parses the configured "site/section" pairs into a lookup set.
func (e Enrichment) MustKnowSet() map[string]bool {
	set := make(map[string]bool, len(e.MustKnowSources))
	for _, pair := range e.MustKnowSources {
		set[strings.ToLower(strings.TrimSpace(pair))] = true
	}
	return set
}

// Convenience getters for commonly used configuration values
func GetApp() App               { return Get().App }
func GetAI() AI                 { return Get().AI }
func GetSources() Sources       { return Get().Sources }
func GetExtraction() Extraction { return Get().Extraction }
func GetEnrichment() Enrichment { return Get().Enrichment }
func GetRepository() Repository { return Get().Repository }
func GetLogging() Logging       { return Get().Logging }

// Specific convenience getters for frequently accessed values
func GetGeminiAPIKey() string { return Get().AI.Gemini.APIKey }
func GetGeminiModel() string  { return Get().AI.Gemini.Model }
func IsDebugMode() bool       { return Get().App.Debug }

// Reset clears the global configuration (useful for testing)
func Reset() {
	globalConfig = nil
	viper.Reset()
}
