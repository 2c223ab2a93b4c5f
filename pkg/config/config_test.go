package config

import (
	"errors"
	"io/fs"
	"path/filepath"
	"testing"
	"time"
)

func TestParseAppliesDefaults(t *testing.T) {
	c, err := Parse([]byte("server:\n  port: 9090\n"))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if c.Server.Port != 9090 {
		t.Fatalf("port = %d", c.Server.Port)
	}
	if c.Analysis.SampleRate != 256 {
		t.Fatalf("sample rate default = %v", c.Analysis.SampleRate)
	}
	if c.Store.Backend != "sqlite" || c.Store.SQLite.Path == "" {
		t.Fatalf("store defaults = %+v", c.Store)
	}
	if c.Events.Topic != "eeg.ingested" || c.Log.Digest.Topic != "eeg.log-digest" {
		t.Fatalf("topic defaults = %q / %q", c.Events.Topic, c.Log.Digest.Topic)
	}
	if c.Cache.TTL != 10*time.Minute {
		t.Fatalf("cache ttl = %v", c.Cache.TTL)
	}
}

func TestParseRejectsInvalid(t *testing.T) {
	cases := map[string]string{
		"unknown backend":       "store:\n  backend: postgres\n",
		"bad sample rate":       "analysis:\n  sample_rate: 0\n",
		"bad log level":         "log:\n  level: loud\n",
		"events without broker": "events:\n  enabled: true\n",
		"digest without events": "log:\n  digest:\n    enabled: true\n",
		"malformed yaml":        "server: [\n",
	}
	for name, in := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := Parse([]byte(in)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
}

func TestApplyEnv(t *testing.T) {
	c, err := Parse(nil)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	env := map[string]string{
		"NEUROBAND_ENV": "production",
		"STORE_BACKEND": "clickhouse",
		"KAFKA_BROKERS": "k1:9092,k2:9092",
		"REDIS_ADDR":    "cache:6379",
		"HTTP_PORT":     "8181",
	}
	if err := c.applyEnv(func(k string) string { return env[k] }); err != nil {
		t.Fatalf("apply env: %v", err)
	}
	if c.Environment != "production" || c.Store.Backend != "clickhouse" || c.Server.Port != 8181 {
		t.Fatalf("overrides not applied: %+v", c)
	}
	if !c.Events.Enabled || len(c.Events.Brokers) != 2 {
		t.Fatalf("brokers = %v enabled=%v", c.Events.Brokers, c.Events.Enabled)
	}
	if c.Cache.Backend != "redis" || c.Cache.Redis.Addr != "cache:6379" {
		t.Fatalf("redis override = %+v", c.Cache)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("validate: %v", err)
	}

	if err := c.applyEnv(func(k string) string {
		if k == "HTTP_PORT" {
			return "eighty"
		}
		return ""
	}); err == nil {
		t.Fatalf("expected HTTP_PORT error")
	}
}

func TestLoadShippedConfig(t *testing.T) {
	c, err := Load(filepath.Join("..", "..", "config", "config.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if c.Server.Port != 8080 || c.Store.Backend != "sqlite" {
		t.Fatalf("unexpected config %+v", c.Server)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("expected not-exist error, got %v", err)
	}
}

func TestBodyLimit(t *testing.T) {
	c, _ := Parse(nil)
	if got := c.BodyLimit(); got != "33792K" {
		t.Fatalf("body limit = %s", got)
	}
}
