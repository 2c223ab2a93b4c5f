package clickhouse

import (
	"strings"
	"testing"
	"time"
)

func TestBuildDSN(t *testing.T) {
	dsn := BuildDSN(ClientConfig{
		Host:        "ch",
		Port:        9000,
		Database:    "eeg",
		User:        "u",
		Password:    "p@ss",
		DialTimeout: 2 * time.Second,
		MaxExecTime: 30 * time.Second,
	})
	if !strings.HasPrefix(dsn, "clickhouse://u:p%40ss@ch:9000/eeg?") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
	for _, want := range []string{"dial_timeout=2s", "max_execution_time=30"} {
		if !strings.Contains(dsn, want) {
			t.Fatalf("dsn %q missing %q", dsn, want)
		}
	}
}

func TestBuildDSNHTTP(t *testing.T) {
	dsn := BuildDSN(ClientConfig{Host: "ch", Port: 8123, Database: "default", UseHTTP: true})
	if !strings.HasPrefix(dsn, "http://") {
		t.Fatalf("unexpected dsn %q", dsn)
	}
}
