// Package config loads and validates crawler configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/JakeFAU/floorplan-crawler/internal/crawler"
	"github.com/JakeFAU/floorplan-crawler/internal/extract"
)

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Auth    AuthConfig    `mapstructure:"auth"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	HTTP    HTTPConfig    `mapstructure:"http"`
	Output  OutputConfig  `mapstructure:"output"`
	Storage StorageConfig `mapstructure:"storage"`
	DB      DBConfig      `mapstructure:"db"`
	PubSub  PubSubConfig  `mapstructure:"pubsub"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                   int `mapstructure:"port"`
	ShutdownTimeoutSeconds int `mapstructure:"shutdown_timeout_seconds"`
}

// AuthConfig guards the crawl trigger with a shared key.
type AuthConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	APIKey  string `mapstructure:"api_key"`
}

// CrawlerConfig governs the seed list and the crawl pipeline.
type CrawlerConfig struct {
	SeedURLs           []string `mapstructure:"seed_urls"`
	MaxConcurrent      int      `mapstructure:"max_concurrent"`
	APIBaseURL         string   `mapstructure:"api_base_url"`
	ProjectLinkXPath   string   `mapstructure:"project_link_xpath"`
	KeyParam           string   `mapstructure:"key_param"`
	UserAgent          string   `mapstructure:"user_agent"`
	RespectRobots      bool     `mapstructure:"respect_robots"`
	RateLimitPerDomain float64  `mapstructure:"rate_limit_per_domain"`
	RateLimitBurst     int      `mapstructure:"rate_limit_burst"`
}

// HTTPConfig configures the shared HTTP client.
type HTTPConfig struct {
	TimeoutSeconds int `mapstructure:"timeout_seconds"`
	MaxBodyBytes   int `mapstructure:"max_body_bytes"`
}

// OutputConfig locates the result CSV.
type OutputConfig struct {
	CSVPath string `mapstructure:"csv_path"`
}

// StorageConfig sets the optional GCS export target.
type StorageConfig struct {
	GCSBucket   string `mapstructure:"gcs_bucket"`
	Prefix      string `mapstructure:"prefix"`
	ContentType string `mapstructure:"content_type"`
}

// DBConfig controls the optional Postgres mirror.
type DBConfig struct {
	DSN      string `mapstructure:"dsn"`
	Table    string `mapstructure:"table"`
	MaxConns int32  `mapstructure:"max_conns"`
}

// PubSubConfig holds metadata for publish-subscribe notifications.
type PubSubConfig struct {
	ProjectID string `mapstructure:"project_id"`
	TopicName string `mapstructure:"topic_name"`
	DryRun    bool   `mapstructure:"dry_run"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("CRAWLER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8000)
	v.SetDefault("server.shutdown_timeout_seconds", 10)
	v.SetDefault("auth.enabled", false)
	v.SetDefault("crawler.seed_urls", DefaultSeedURLs)
	v.SetDefault("crawler.max_concurrent", 3)
	v.SetDefault("crawler.api_base_url", crawler.DefaultAPIBase)
	v.SetDefault("crawler.project_link_xpath", extract.DefaultProjectLinkXPath)
	v.SetDefault("crawler.key_param", extract.DefaultKeyParam)
	v.SetDefault("crawler.user_agent", "floorplan-crawler/0.1")
	v.SetDefault("crawler.respect_robots", false)
	v.SetDefault("crawler.rate_limit_per_domain", 0)
	v.SetDefault("crawler.rate_limit_burst", 1)
	v.SetDefault("http.timeout_seconds", 30)
	v.SetDefault("http.max_body_bytes", 0)
	v.SetDefault("output.csv_path", "files/download-csv.csv")
	v.SetDefault("storage.prefix", "floorplans")
	v.SetDefault("storage.content_type", "text/csv; charset=utf-8")
	v.SetDefault("pubsub.topic_name", "floorplan-projects")
	v.SetDefault("pubsub.dry_run", false)
	v.SetDefault("db.table", "projects")
	v.SetDefault("db.max_conns", 4)
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.Crawler.MaxConcurrent <= 0 {
		return fmt.Errorf("crawler.max_concurrent must be > 0")
	}
	if !crawler.IsValidURL(c.Crawler.APIBaseURL) {
		return fmt.Errorf("crawler.api_base_url must be an absolute url")
	}
	if c.Crawler.RateLimitPerDomain < 0 {
		return fmt.Errorf("crawler.rate_limit_per_domain must be >= 0")
	}
	if c.HTTP.TimeoutSeconds <= 0 {
		return fmt.Errorf("http.timeout_seconds must be > 0")
	}
	if strings.TrimSpace(c.Output.CSVPath) == "" {
		return fmt.Errorf("output.csv_path is required")
	}
	if (c.PubSub.ProjectID != "" || c.PubSub.DryRun) && c.PubSub.TopicName == "" {
		return fmt.Errorf("pubsub.topic_name must be set when pubsub.project_id or pubsub.dry_run is set")
	}
	if c.Auth.Enabled && c.Auth.APIKey == "" {
		return fmt.Errorf("auth.api_key must be set when auth is enabled")
	}
	return nil
}

// HTTPTimeout converts the HTTP timeout into a duration.
func (c Config) HTTPTimeout() time.Duration {
	return time.Duration(c.HTTP.TimeoutSeconds) * time.Second
}

// ShutdownTimeout converts the server shutdown grace period into a duration.
func (c Config) ShutdownTimeout() time.Duration {
	if c.Server.ShutdownTimeoutSeconds <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Server.ShutdownTimeoutSeconds) * time.Second
}
