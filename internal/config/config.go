package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"gopkg.in/yaml.v3"
)

// Source kinds.
const (
	SourceStorefront  = "storefront"
	SourceWooCommerce = "woocommerce"
)

// Database drivers.
const (
	DriverRedis  = "redis"
	DriverBadger = "badger"
)

// Config holds the perfun sync configuration.
type Config struct {
	Source     SourceConfig     `yaml:"source"`
	Reference  ReferenceConfig  `yaml:"reference"`
	Database   DatabaseConfig   `yaml:"database"`
	Storage    StorageConfig    `yaml:"storage"`
	Embedding  EmbeddingConfig  `yaml:"embedding"`
	Pipeline   PipelineConfig   `yaml:"pipeline"`
	Bestseller BestsellerConfig `yaml:"bestseller"`
	Ops        OpsConfig        `yaml:"ops"`
	Logging    LoggingConfig    `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// SourceConfig describes where raw product records come from.
type SourceConfig struct {
	Kind           string `yaml:"kind"` // storefront, woocommerce (default: storefront)
	SiteURL        string `yaml:"site_url"`
	SitemapURL     string `yaml:"sitemap_url"` // default: {site_url}/product-sitemap.xml
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	PageSize       int    `yaml:"page_size"`
	RequestDelayMs int    `yaml:"request_delay_ms"`
	TimeoutSec     int    `yaml:"timeout_sec"`
	MaxRetries     int    `yaml:"max_retries"`
	UserAgent      string `yaml:"user_agent"`
}

// ReferenceConfig points at the reference fragrance dataset.
type ReferenceConfig struct {
	Path string `yaml:"path"`
}

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	Driver           string   `yaml:"driver"` // redis, badger (default: redis)
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	DB               int      `yaml:"db"`
	Path             string   `yaml:"path"` // badger data directory
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// StorageConfig holds storage settings.
type StorageConfig struct {
	KeyPrefix string `yaml:"key_prefix"`
}

// EmbeddingConfig holds embedding settings.
type EmbeddingConfig struct {
	APIKey        string       `yaml:"api_key"`
	BaseURL       string       `yaml:"base_url"`
	Model         string       `yaml:"model"`
	Dimensions    int          `yaml:"dimensions"`
	MinTextLength int          `yaml:"min_text_length"`
	Cache         bool         `yaml:"cache"`
	Budget        BudgetConfig `yaml:"budget"`
}

// BudgetConfig holds token budget settings.
type BudgetConfig struct {
	DailyTokenLimit   int64  `yaml:"daily_token_limit"`   // 0 = unlimited
	MonthlyTokenLimit int64  `yaml:"monthly_token_limit"` // 0 = unlimited
	Action            string `yaml:"action"`              // "reject" | "warn" (default)
}

// PipelineConfig holds batch settings.
type PipelineConfig struct {
	BatchSize int `yaml:"batch_size"`
}

// BestsellerConfig controls bestseller tagging.
type BestsellerConfig struct {
	LookbackDays       int     `yaml:"lookback_days"`
	TopN               int     `yaml:"top_n"`
	ExcludedProductIDs []int64 `yaml:"excluded_product_ids"`
	Tag                string  `yaml:"tag"`
}

// OpsConfig holds the metrics/health listener settings. Port 0 disables it.
type OpsConfig struct {
	Port        int      `yaml:"port"`
	ShutdownSec int      `yaml:"shutdown_timeout_sec"`
	APIKeys     []string `yaml:"api_keys"` // protect /metrics; empty = open
}

// Load reads configuration from a YAML file by environment name (local, dev, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	return Parse(data)
}

// Parse decodes raw YAML, expanding ${VAR} references, then applies
// defaults and validates.
func Parse(data []byte) (Config, error) {
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = SourceStorefront
	}
	c.Source.SiteURL = strings.TrimRight(c.Source.SiteURL, "/")
	if c.Source.SitemapURL == "" && c.Source.SiteURL != "" {
		c.Source.SitemapURL = c.Source.SiteURL + "/product-sitemap.xml"
	}
	if c.Source.PageSize <= 0 {
		c.Source.PageSize = 50
	}
	if c.Source.RequestDelayMs <= 0 {
		if c.Source.Kind == SourceWooCommerce {
			c.Source.RequestDelayMs = 500
		} else {
			c.Source.RequestDelayMs = 1000
		}
	}
	if c.Source.TimeoutSec <= 0 {
		c.Source.TimeoutSec = 30
	}
	if c.Source.MaxRetries <= 0 {
		c.Source.MaxRetries = 3
	}
	if c.Source.UserAgent == "" {
		c.Source.UserAgent = "Mozilla/5.0 (compatible; perfun-sync/1.0)"
	}
	if c.Database.Driver == "" {
		c.Database.Driver = DriverRedis
	}
	if c.Database.ReadinessTimeout <= 0 {
		c.Database.ReadinessTimeout = 10
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "perfun:"
	}
	if c.Embedding.Model == "" {
		c.Embedding.Model = "text-embedding-3-small"
	}
	if c.Embedding.MinTextLength <= 0 {
		c.Embedding.MinTextLength = 10
	}
	if c.Pipeline.BatchSize <= 0 {
		c.Pipeline.BatchSize = 10
	}
	if c.Bestseller.LookbackDays <= 0 {
		c.Bestseller.LookbackDays = 30
	}
	if c.Bestseller.TopN <= 0 {
		c.Bestseller.TopN = 10
	}
	if c.Bestseller.Tag == "" {
		c.Bestseller.Tag = "[BESTSELLER]"
	}
	if c.Ops.ShutdownSec <= 0 {
		c.Ops.ShutdownSec = 5
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	switch c.Source.Kind {
	case SourceStorefront:
		if c.Source.SitemapURL == "" {
			return fmt.Errorf("source.site_url or source.sitemap_url is required for %q", c.Source.Kind)
		}
	case SourceWooCommerce:
		if c.Source.SiteURL == "" {
			return fmt.Errorf("source.site_url is required for %q", c.Source.Kind)
		}
		if c.Source.ConsumerKey == "" || c.Source.ConsumerSecret == "" {
			return fmt.Errorf("source.consumer_key and source.consumer_secret are required for %q", c.Source.Kind)
		}
	default:
		return fmt.Errorf("source.kind must be %q or %q, got %q", SourceStorefront, SourceWooCommerce, c.Source.Kind)
	}

	switch c.Database.Driver {
	case DriverRedis:
		if len(c.Database.Addrs) == 0 {
			return fmt.Errorf("database.addrs is required")
		}
	case DriverBadger:
		if c.Database.Path == "" {
			return fmt.Errorf("database.path is required for badger")
		}
	default:
		return fmt.Errorf("database.driver must be %q or %q, got %q", DriverRedis, DriverBadger, c.Database.Driver)
	}

	switch c.Embedding.Budget.Action {
	case "", "warn", "reject":
		// ok
	default:
		return fmt.Errorf(
			"embedding.budget.action must be \"warn\" or \"reject\", got %q",
			c.Embedding.Budget.Action,
		)
	}

	if c.Ops.Port < 0 || c.Ops.Port > 65535 {
		return fmt.Errorf("ops.port must be between 0 and 65535, got %d", c.Ops.Port)
	}
	return nil
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// Relative to the source file, for tests and `go run` from subdirectories.
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1])
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
