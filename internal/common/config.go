package common

import (
	"fmt"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/pelletier/go-toml/v2"
)

// Duration decodes TOML duration strings ("60s", "1m30s") via
// time.ParseDuration. go-toml/v2 only maps strings onto types that
// implement encoding.TextUnmarshaler, which time.Duration does not.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", string(text), err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) String() string { return time.Duration(d).String() }

// Std returns the value as a plain time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config represents the application configuration
type Config struct {
	Environment string        `toml:"environment"` // "development" or "production"
	Logging     LoggingConfig `toml:"logging"`
	Storage     StorageConfig `toml:"storage"`
	Monitor     MonitorConfig `toml:"monitor"`
	Sources     SourcesConfig `toml:"sources"`
	Quotes      QuotesConfig  `toml:"quotes"`
	Crawler     CrawlerConfig `toml:"crawler"`
}

type LoggingConfig struct {
	Level  string   `toml:"level" validate:"oneof=debug info warn error"`
	Output []string `toml:"output"` // "stdout", "file"
}

type StorageConfig struct {
	Type     string         `toml:"type" validate:"oneof=badger postgres"`
	Badger   BadgerConfig   `toml:"badger"`
	Postgres PostgresConfig `toml:"postgres"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
}

type PostgresConfig struct {
	Host     string `toml:"host"`
	Port     int    `toml:"port"`
	Database string `toml:"database"`
	User     string `toml:"user"`
	Password string `toml:"password"`
	SSLMode  string `toml:"ssl_mode"`
	MaxConns int    `toml:"max_conns"`
}

// MonitorConfig controls the background ingestion loop.
type MonitorConfig struct {
	Enabled  bool     `toml:"enabled"`
	Interval Duration `toml:"interval" validate:"min=1s"` // Sleep between cycles
	MaxPages int      `toml:"max_pages" validate:"min=1"` // Listing pages per source per cycle
}

// SourcesConfig enables/disables individual news wire adapters.
type SourcesConfig struct {
	PRNewswire    SourceConfig `toml:"prnewswire"`
	Accesswire    SourceConfig `toml:"accesswire"`
	GlobeNewswire SourceConfig `toml:"globenewswire"`
	Finviz        SourceConfig `toml:"finviz"`
}

type SourceConfig struct {
	Enabled  bool   `toml:"enabled"`
	BaseURL  string `toml:"base_url"`  // Override for testing; empty uses the adapter default
	MaxPages int    `toml:"max_pages"` // Override for this source; 0 uses monitor.max_pages
}

// QuotesConfig configures the market data provider and batch enricher.
type QuotesConfig struct {
	BaseURL     string   `toml:"base_url"`
	APIKey      string   `toml:"api_key"`
	RateLimit   int      `toml:"rate_limit" validate:"min=1"` // Requests per second
	Workers     int      `toml:"workers" validate:"min=1"`    // Concurrent in-flight enrichment requests
	MaxRetries  int      `toml:"max_retries" validate:"min=1"`
	RetryDelay  Duration `toml:"retry_delay"`
	HTTPTimeout Duration `toml:"http_timeout"`
}

// CrawlerConfig contains shared HTTP scraping configuration.
type CrawlerConfig struct {
	UserAgent      string   `toml:"user_agent"`
	RequestTimeout Duration `toml:"request_timeout"`
	RequestDelay   Duration `toml:"request_delay"` // Polite delay between listing pages per domain
	MaxRetries     int      `toml:"max_retries" validate:"min=1"`
	RetryDelay     Duration `toml:"retry_delay"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 " +
	"(KHTML, like Gecko) Chrome/134.0.0.0 Safari/537.36"

// NewDefaultConfig returns configuration defaults. Every value can be
// overridden by config files and FLOATWATCH_* environment variables.
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		Storage: StorageConfig{
			Type: "badger",
			Badger: BadgerConfig{
				Path: "./data/floatwatch",
			},
			Postgres: PostgresConfig{
				Host:     "localhost",
				Port:     5432,
				Database: "floatwatch",
				User:     "floatwatch",
				SSLMode:  "prefer",
				MaxConns: 4,
			},
		},
		Monitor: MonitorConfig{
			Enabled:  true,
			Interval: Duration(60 * time.Second),
			MaxPages: 3,
		},
		Sources: SourcesConfig{
			PRNewswire:    SourceConfig{Enabled: true},
			Accesswire:    SourceConfig{Enabled: true},
			GlobeNewswire: SourceConfig{Enabled: true},
			Finviz:        SourceConfig{Enabled: false}, // Screener adapter is opt-in: heavy request volume
		},
		Quotes: QuotesConfig{
			RateLimit:   10,
			Workers:     5,
			MaxRetries:  3,
			RetryDelay:  Duration(time.Second),
			HTTPTimeout: Duration(30 * time.Second),
		},
		Crawler: CrawlerConfig{
			UserAgent:      defaultUserAgent,
			RequestTimeout: Duration(30 * time.Second),
			RequestDelay:   Duration(time.Second),
			MaxRetries:     3,
			RetryDelay:     Duration(time.Second),
		},
	}
}

// LoadFromFiles loads configuration with priority: defaults -> file1 -> file2
// -> ... -> env. Later files override earlier files.
func LoadFromFiles(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	for i, path := range paths {
		if path == "" {
			continue
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s (file %d of %d): %w", path, i+1, len(paths), err)
		}
	}

	applyEnvOverrides(config)

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks structural constraints on the loaded configuration.
func (c *Config) Validate() error {
	v := validator.New()
	// Expose Duration fields as time.Duration so tags like min=1s apply.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(Duration); ok {
			return time.Duration(d)
		}
		return nil
	}, Duration(0))
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("FLOATWATCH_ENV"); env != "" {
		config.Environment = env
	} else if env := os.Getenv("GO_ENV"); env != "" {
		config.Environment = env
	}

	// Logging
	if level := os.Getenv("FLOATWATCH_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}
	if output := os.Getenv("FLOATWATCH_LOG_OUTPUT"); output != "" {
		outputs := []string{}
		for _, o := range strings.Split(output, ",") {
			if trimmed := strings.TrimSpace(o); trimmed != "" {
				outputs = append(outputs, trimmed)
			}
		}
		if len(outputs) > 0 {
			config.Logging.Output = outputs
		}
	}

	// Storage
	if storageType := os.Getenv("FLOATWATCH_STORAGE_TYPE"); storageType != "" {
		config.Storage.Type = storageType
	}
	if badgerPath := os.Getenv("FLOATWATCH_BADGER_PATH"); badgerPath != "" {
		config.Storage.Badger.Path = badgerPath
	}
	if host := os.Getenv("FLOATWATCH_PG_HOST"); host != "" {
		config.Storage.Postgres.Host = host
	}
	if port := os.Getenv("FLOATWATCH_PG_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Storage.Postgres.Port = p
		}
	}
	if db := os.Getenv("FLOATWATCH_PG_DATABASE"); db != "" {
		config.Storage.Postgres.Database = db
	}
	if user := os.Getenv("FLOATWATCH_PG_USER"); user != "" {
		config.Storage.Postgres.User = user
	}
	if pass := os.Getenv("FLOATWATCH_PG_PASSWORD"); pass != "" {
		config.Storage.Postgres.Password = pass
	}

	// Monitor
	if interval := os.Getenv("FLOATWATCH_MONITOR_INTERVAL"); interval != "" {
		if d, err := time.ParseDuration(interval); err == nil {
			config.Monitor.Interval = Duration(d)
		}
	}
	if maxPages := os.Getenv("FLOATWATCH_MONITOR_MAX_PAGES"); maxPages != "" {
		if mp, err := strconv.Atoi(maxPages); err == nil {
			config.Monitor.MaxPages = mp
		}
	}

	// Quotes
	if apiKey := os.Getenv("FLOATWATCH_QUOTES_API_KEY"); apiKey != "" {
		config.Quotes.APIKey = apiKey
	}
	if baseURL := os.Getenv("FLOATWATCH_QUOTES_BASE_URL"); baseURL != "" {
		config.Quotes.BaseURL = baseURL
	}
	if workers := os.Getenv("FLOATWATCH_QUOTES_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil {
			config.Quotes.Workers = w
		}
	}

	// Crawler
	if userAgent := os.Getenv("FLOATWATCH_CRAWLER_USER_AGENT"); userAgent != "" {
		config.Crawler.UserAgent = userAgent
	}
	if timeout := os.Getenv("FLOATWATCH_CRAWLER_REQUEST_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil {
			config.Crawler.RequestTimeout = Duration(d)
		}
	}
	if delay := os.Getenv("FLOATWATCH_CRAWLER_REQUEST_DELAY"); delay != "" {
		if d, err := time.ParseDuration(delay); err == nil {
			config.Crawler.RequestDelay = Duration(d)
		}
	}
}

// MaxPagesFor resolves the listing page budget for one source.
func (c *Config) MaxPagesFor(source SourceConfig) int {
	if source.MaxPages > 0 {
		return source.MaxPages
	}
	return c.Monitor.MaxPages
}
