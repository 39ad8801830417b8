package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/storescan/zepto-scraper/internal/domain"
	"github.com/storescan/zepto-scraper/internal/usecase"
)

// Config holds all configuration for the scraper
type Config struct {
	API     APIConfig     `mapstructure:"api"`
	Session SessionConfig `mapstructure:"session"`
	Scrape  ScrapeConfig  `mapstructure:"scrape"`
	Report  ReportConfig  `mapstructure:"report"`
	Log     LogConfig     `mapstructure:"log"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Sentry  SentryConfig  `mapstructure:"sentry"`
}

// APIConfig holds search API transport configuration
type APIConfig struct {
	BaseURL            string            `mapstructure:"base_url"`
	SearchPath         string            `mapstructure:"search_path"`
	Timeout            time.Duration     `mapstructure:"timeout"`
	InsecureSkipVerify bool              `mapstructure:"insecure_skip_verify"`
	RequestsPerSecond  float64           `mapstructure:"requests_per_second"`
	Burst              int               `mapstructure:"burst"`
	Headers            map[string]string `mapstructure:"headers"`
}

// SessionConfig holds the credentials copied from a logged-in browser session
type SessionConfig struct {
	XSRFToken        string `mapstructure:"xsrf_token"`
	CSRFSecret       string `mapstructure:"csrf_secret"`
	RequestSignature string `mapstructure:"request_signature"`
	Timezone         string `mapstructure:"timezone"`
	DeviceID         string `mapstructure:"device_id"`
	SessionID        string `mapstructure:"session_id"`
}

// ScrapeConfig holds what to scrape and how politely
type ScrapeConfig struct {
	Stores     []domain.Store     `mapstructure:"stores"`
	Queries    []string           `mapstructure:"queries"`
	PageSize   int                `mapstructure:"page_size"`
	MaxPages   int                `mapstructure:"max_pages"`
	PagePause  usecase.SleepRange `mapstructure:"page_pause"`
	QueryPause usecase.SleepRange `mapstructure:"query_pause"`
	StorePause usecase.SleepRange `mapstructure:"store_pause"`
}

// ReportConfig holds report output configuration
type ReportConfig struct {
	OutputDir  string `mapstructure:"output_dir"`
	FilePrefix string `mapstructure:"file_prefix"`
}

// LogConfig holds logger configuration
type LogConfig struct {
	Environment string `mapstructure:"environment"` // "dev" or "prod"
	Level       string `mapstructure:"level"`
}

// MetricsConfig holds metrics export configuration
type MetricsConfig struct {
	Textfile string `mapstructure:"textfile"`
}

// SentryConfig holds error reporting configuration
type SentryConfig struct {
	DSN         string `mapstructure:"dsn"`
	Environment string `mapstructure:"environment"`
}

// Load loads configuration from .env, environment variables and config files
func Load() (*Config, error) {
	if err := loadEnvFile(".env"); err != nil {
		return nil, err
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/zepto-scraper/")

	// ZEPTO_SCRAPE_MAX_PAGES -> scrape.max_pages
	v.SetEnvPrefix("ZEPTO")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return &config, nil
}

// loadEnvFile loads variables from path without overriding ones already set
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("stat %s: %w", path, err)
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// setDefaults sets default configuration values
func setDefaults(v *viper.Viper) {
	// API defaults
	v.SetDefault("api.base_url", "https://bff-gateway.zepto.com")
	v.SetDefault("api.search_path", "/user-search-service/api/v3/search")
	v.SetDefault("api.timeout", "20s")
	v.SetDefault("api.insecure_skip_verify", false)
	v.SetDefault("api.requests_per_second", 0)
	v.SetDefault("api.burst", 1)
	v.SetDefault("api.headers", defaultHeaders())

	// Session defaults are empty; the values come from DevTools
	v.SetDefault("session.xsrf_token", "")
	v.SetDefault("session.csrf_secret", "")
	v.SetDefault("session.request_signature", "")
	v.SetDefault("session.timezone", "")
	v.SetDefault("session.device_id", "")
	v.SetDefault("session.session_id", "")

	// Scrape defaults
	v.SetDefault("scrape.stores", []map[string]any{
		{"id": "7e5a1821-59ed-4d8a-8431-a3705afb22d2", "name": "Active-Store"},
	})
	v.SetDefault("scrape.queries", DefaultQueries)
	v.SetDefault("scrape.page_size", 30)
	v.SetDefault("scrape.max_pages", usecase.DefaultMaxPages)
	v.SetDefault("scrape.page_pause.min", "1.5s")
	v.SetDefault("scrape.page_pause.max", "3s")
	v.SetDefault("scrape.query_pause.min", "750ms")
	v.SetDefault("scrape.query_pause.max", "1.5s")
	v.SetDefault("scrape.store_pause.min", "2s")
	v.SetDefault("scrape.store_pause.max", "4s")

	// Report defaults
	v.SetDefault("report.output_dir", ".")
	v.SetDefault("report.file_prefix", "zepto_bangalore_all_stores")

	// Log defaults
	v.SetDefault("log.environment", "dev")
	v.SetDefault("log.level", "")

	// Optional integrations
	v.SetDefault("metrics.textfile", "")
	v.SetDefault("sentry.dsn", "")
	v.SetDefault("sentry.environment", "")
}

// defaultHeaders are the browser and app headers the web client sends
func defaultHeaders() map[string]string {
	return map[string]string{
		"accept":           "application/json, text/plain, */*",
		"accept-language":  "en-US,en;q=0.9",
		"origin":           "https://www.zepto.com",
		"referer":          "https://www.zepto.com/",
		"user-agent":       "Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:147.0) Gecko/20100101 Firefox/147.0",
		"appVersion":       "14.16.0",
		"app_version":      "14.16.0",
		"platform":         "WEB",
		"tenant":           "ZEPTO",
		"app_sub_platform": "WEB",
		"marketplace_type": "SUPER_SAVER",
		"source":           "DIRECT",
		"auth_revamp_flow": "v2",
		"X-WITHOUT-BEARER": "true",
		"auth_from_cookie": "true",
	}
}

// DefaultQueries covers the common grocery categories; the API rejects single letters
var DefaultQueries = []string{
	// dairy and breakfast
	"milk", "bread", "butter", "cheese", "paneer", "curd", "yogurt",
	"eggs", "ghee", "cream", "dahi",
	// beverages
	"tea", "coffee", "juice", "water", "cold drink", "coke", "pepsi",
	"energy drink", "soda", "milk shake",
	// snacks and packaged food
	"biscuit", "chips", "namkeen", "chocolate", "candy", "cookies",
	"noodles", "pasta", "maggi", "sauce", "ketchup", "mayo",
	// staples
	"rice", "atta", "flour", "dal", "pulses", "oil", "salt", "sugar",
	"spices", "masala", "pickle", "chutney", "papad",
	// fresh produce
	"vegetables", "fruits", "potato", "onion", "tomato", "banana",
	"apple", "orange", "leafy", "carrot",
	// personal care
	"shampoo", "soap", "toothpaste", "facewash", "detergent",
	"handwash", "sanitizer", "tissue", "napkin",
	// household
	"cleaner", "dishwash", "floor cleaner", "toilet cleaner",
	"mosquito", "incense", "candle",
	// baby care
	"diaper", "baby food", "baby care", "wipes",
	// health
	"medicine", "vitamins", "protein", "supplements",
	// frozen
	"ice cream", "frozen food", "frozen vegetables",
	// bakery and sweets
	"cake", "pastry", "sweets", "mithai", "cookies",
	// meat and seafood
	"chicken", "fish", "meat", "seafood", "prawns",
	// pets
	"pet food", "dog food", "cat food",
	// pharmacy
	"paracetamol", "bandage", "thermometer",
	// broad
	"organic", "healthy", "fresh", "instant", "ready to eat",
}

// validate checks the loaded configuration
func validate(config *Config) error {
	if config.API.BaseURL == "" {
		return fmt.Errorf("API base URL is required (set ZEPTO_API_BASE_URL)")
	}

	if len(config.Scrape.Stores) == 0 {
		return fmt.Errorf("at least one store is required in scrape.stores")
	}
	for i, s := range config.Scrape.Stores {
		if s.ID == "" || s.Name == "" {
			return fmt.Errorf("scrape.stores[%d] needs both id and name", i)
		}
	}

	if len(config.Scrape.Queries) == 0 {
		return fmt.Errorf("at least one search query is required in scrape.queries")
	}
	if config.Scrape.PageSize <= 0 {
		return fmt.Errorf("scrape.page_size must be positive, got: %d", config.Scrape.PageSize)
	}
	if config.Scrape.MaxPages <= 0 {
		return fmt.Errorf("scrape.max_pages must be positive, got: %d", config.Scrape.MaxPages)
	}

	ranges := map[string]usecase.SleepRange{
		"page_pause":  config.Scrape.PagePause,
		"query_pause": config.Scrape.QueryPause,
		"store_pause": config.Scrape.StorePause,
	}
	for name, r := range ranges {
		if r.Min < 0 || r.Max < r.Min {
			return fmt.Errorf("scrape.%s must satisfy 0 <= min <= max, got: %s..%s", name, r.Min, r.Max)
		}
	}

	if config.API.Timeout <= 0 {
		return fmt.Errorf("api.timeout must be positive, got: %s", config.API.Timeout)
	}
	if config.API.RequestsPerSecond < 0 {
		return fmt.Errorf("api.requests_per_second must not be negative")
	}

	if config.Log.Environment != "dev" && config.Log.Environment != "prod" {
		return fmt.Errorf("log environment must be 'dev' or 'prod', got: %s", config.Log.Environment)
	}

	return nil
}

// RequestHeaders returns the static headers merged with the session credentials.
// Empty session values are left out.
func (c *Config) RequestHeaders() map[string]string {
	headers := make(map[string]string, len(c.API.Headers)+8)
	for k, v := range c.API.Headers {
		headers[k] = v
	}

	session := []struct{ key, value string }{
		{"x-xsrf-token", c.Session.XSRFToken},
		{"x-csrf-secret", c.Session.CSRFSecret},
		{"request-signature", c.Session.RequestSignature},
		{"x-timezone", c.Session.Timezone},
		{"deviceId", c.Session.DeviceID},
		{"device_id", c.Session.DeviceID},
		{"sessionId", c.Session.SessionID},
		{"session_id", c.Session.SessionID},
	}
	for _, h := range session {
		if h.value != "" {
			headers[h.key] = h.value
		}
	}
	return headers
}

// MissingCredentials lists the session values that are not set
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Session.XSRFToken == "" {
		missing = append(missing, "session.xsrf_token")
	}
	if c.Session.RequestSignature == "" {
		missing = append(missing, "session.request_signature")
	}
	return missing
}
