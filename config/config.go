package config

import (
	"log"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Database   DatabaseConfig   `yaml:"database"`
	YoSmart    YoSmartConfig    `yaml:"yosmart"`
	Poller     PollerConfig     `yaml:"poller"`
	Push       PushConfig       `yaml:"push"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int     `yaml:"port"`
	RateLimitPerSec float64 `yaml:"rate_limit_per_sec"`
	CacheTTLSeconds int     `yaml:"cache_ttl_seconds"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "postgres" or "sqlite"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
}

// YoSmartConfig holds the vendor API credentials and endpoints.
type YoSmartConfig struct {
	UAID           string        `yaml:"uaid"`
	SecretKey      string        `yaml:"secret_key"`
	TokenURL       string        `yaml:"token_url"`
	APIURL         string        `yaml:"api_url"`
	ProductionURL  string        `yaml:"production_url"`
	TimeoutSeconds int           `yaml:"timeout_seconds"`
	Timeout        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PollerConfig controls the once-per-minute schedule driver.
type PollerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	TickSeconds int           `yaml:"tick_seconds"`
	Tick        time.Duration `yaml:"-"` // Ignored by YAML parser
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size int `yaml:"size"`
}

// Default YoSmart Open API V2 endpoints.
const (
	DefaultTokenURL      = "https://api.yosmart.com/open/yolink/token"
	DefaultAPIURL        = "https://api.yosmart.com/open/yolink/v2/api"
	DefaultProductionURL = "https://api.yosmart.com/open/production/v2/api"
)

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if cfg.YoSmart.TokenURL == "" {
		cfg.YoSmart.TokenURL = DefaultTokenURL
	}
	if cfg.YoSmart.APIURL == "" {
		cfg.YoSmart.APIURL = DefaultAPIURL
	}
	if cfg.YoSmart.ProductionURL == "" {
		cfg.YoSmart.ProductionURL = DefaultProductionURL
	}
	if cfg.YoSmart.TimeoutSeconds <= 0 {
		cfg.YoSmart.TimeoutSeconds = 10
	}
	cfg.YoSmart.Timeout = time.Duration(cfg.YoSmart.TimeoutSeconds) * time.Second

	if cfg.Poller.TickSeconds <= 0 {
		cfg.Poller.TickSeconds = 60
	}
	cfg.Poller.Tick = time.Duration(cfg.Poller.TickSeconds) * time.Second

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "postgres"
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Printf("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}

	return &cfg, nil
}
