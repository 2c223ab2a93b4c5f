package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gt=0,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"30s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"30s"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"2s"`
		CORS            bool          `yaml:"cors" default:"true"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
		Digest struct {
			Enabled   bool          `yaml:"enabled"`
			Topic     string        `yaml:"topic" default:"eeg.log-digest"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			MaxUnique int           `yaml:"max_unique" default:"100"`
		} `yaml:"digest"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool   `yaml:"enabled" default:"true"`
		Path    string `yaml:"path" default:"/metrics"`
	} `yaml:"metrics"`
	Analysis struct {
		SampleRate       float64 `yaml:"sample_rate" default:"256" validate:"gt=0"`
		UploadLimitBytes int64   `yaml:"upload_limit_bytes" default:"33554432" validate:"gt=0"`
	} `yaml:"analysis"`
	Store struct {
		Backend string `yaml:"backend" default:"sqlite" validate:"oneof=sqlite clickhouse"`
		SQLite  struct {
			Path        string        `yaml:"path" default:"data/neuroband.db"`
			BusyTimeout time.Duration `yaml:"busy_timeout" default:"5s"`
		} `yaml:"sqlite"`
		ClickHouse struct {
			Host             string        `yaml:"host" default:"localhost"`
			Port             int           `yaml:"port" default:"9000"`
			Database         string        `yaml:"database" default:"default"`
			User             string        `yaml:"user" default:"default"`
			Password         string        `yaml:"password"`
			Table            string        `yaml:"table" default:"eeg_signals"`
			UseHTTP          bool          `yaml:"use_http"`
			DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
			ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
			MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
		} `yaml:"clickhouse"`
	} `yaml:"store"`
	Cache struct {
		Backend string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis"`
		TTL     time.Duration `yaml:"ttl" default:"10m"`
		Key     string        `yaml:"key" default:"neuroband:latest_result"`
		Redis   struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Events struct {
		Enabled     bool          `yaml:"enabled"`
		Brokers     []string      `yaml:"brokers"`
		Topic       string        `yaml:"topic" default:"eeg.ingested"`
		Compression string        `yaml:"compression" default:"gzip" validate:"oneof=gzip snappy lz4 zstd"`
		MaxAttempts int           `yaml:"max_attempts" default:"3"`
		Timeout     time.Duration `yaml:"timeout" default:"10s"`
	} `yaml:"events"`
	RateLimit struct {
		Enabled      bool    `yaml:"enabled" default:"true"`
		Burst        float64 `yaml:"burst" default:"10"`
		RefillPerSec float64 `yaml:"refill_per_sec" default:"2"`
	} `yaml:"ratelimit"`
}

var validate = validator.New()

// Load reads a YAML file, fills unset fields from `default` tags and validates the result.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML bytes the same way Load does.
func Parse(b []byte) (*Config, error) {
	var c Config
	if err := defaults.Set(&c); err != nil {
		return nil, fmt.Errorf("config defaults: %w", err)
	}
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return &c, nil
}

// LoadWithEnv loads config from YAML and overrides with environment variables.
func LoadWithEnv(path string) (*Config, error) {
	c, err := Load(path)
	if err != nil {
		return nil, err
	}
	if err := c.applyEnv(os.Getenv); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv(getenv func(string) string) error {
	if v := getenv("NEUROBAND_ENV"); v != "" {
		c.Environment = v
	}
	if v := getenv("STORE_BACKEND"); v != "" {
		c.Store.Backend = v
	}
	if v := getenv("SQLITE_PATH"); v != "" {
		c.Store.SQLite.Path = v
	}
	if v := getenv("CLICKHOUSE_HOST"); v != "" {
		c.Store.ClickHouse.Host = v
	}
	if v := getenv("KAFKA_BROKERS"); v != "" {
		c.Events.Brokers = strings.Split(v, ",")
		c.Events.Enabled = true
	}
	if v := getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
		c.Cache.Backend = "redis"
	}
	if v := getenv("HTTP_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("HTTP_PORT: %w", err)
		}
		c.Server.Port = port
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Events.Enabled && len(c.Events.Brokers) == 0 {
		return fmt.Errorf("events.brokers is required when events are enabled")
	}
	if c.Log.Digest.Enabled && !c.Events.Enabled {
		return fmt.Errorf("log.digest needs events enabled to publish")
	}
	return nil
}

// BodyLimit renders the server-wide request cap for echo's BodyLimit middleware. It leaves
// headroom over the CSV limit for multipart framing.
func (c *Config) BodyLimit() string {
	return strconv.FormatInt(c.Analysis.UploadLimitBytes/1024+1024, 10) + "K"
}
