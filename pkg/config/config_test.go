// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.URL != "http://localhost:8000" {
		t.Errorf("expected default backend url, got %s", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 60*time.Second {
		t.Errorf("expected default timeout 60s, got %s", cfg.Backend.Timeout)
	}
	if cfg.Web.Addr != ":8088" {
		t.Errorf("expected default web addr :8088, got %s", cfg.Web.Addr)
	}
	if cfg.Cache.TTLContexts != 5*time.Minute {
		t.Errorf("expected contexts TTL 5m, got %s", cfg.Cache.TTLContexts)
	}
	if cfg.Log.Level != "info" || cfg.Log.Format != "text" {
		t.Errorf("unexpected log defaults: %+v", cfg.Log)
	}
}

func TestLoadEnv(t *testing.T) {
	t.Setenv("KUBEBEAVER_BACKEND_URL", "http://beaver.internal:9000")
	t.Setenv("KUBEBEAVER_LOG_LEVEL", "debug")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Backend.URL != "http://beaver.internal:9000" {
		t.Errorf("expected backend url from env, got %s", cfg.Backend.URL)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("expected log level from env, got %s", cfg.Log.Level)
	}
}

func TestLoadFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	content := `
backend:
  url: http://api:8000
  timeout: 30s
web:
  addr: ":9999"
cache:
  ttl_resources: 10s
`
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	cfg, err := Load(configPath)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Backend.URL != "http://api:8000" {
		t.Errorf("expected backend url from file, got %s", cfg.Backend.URL)
	}
	if cfg.Backend.Timeout != 30*time.Second {
		t.Errorf("expected timeout 30s, got %s", cfg.Backend.Timeout)
	}
	if cfg.Web.Addr != ":9999" {
		t.Errorf("expected web addr from file, got %s", cfg.Web.Addr)
	}
	if cfg.Cache.TTLResources != 10*time.Second {
		t.Errorf("expected resources TTL 10s, got %s", cfg.Cache.TTLResources)
	}
	// Untouched keys keep their defaults.
	if cfg.Cache.TTLContexts != 5*time.Minute {
		t.Errorf("expected default contexts TTL, got %s", cfg.Cache.TTLContexts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Errorf("expected error for missing config file")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"relative url", func(c *Config) { c.Backend.URL = "localhost:8000/api" }},
		{"empty url", func(c *Config) { c.Backend.URL = "" }},
		{"zero timeout", func(c *Config) { c.Backend.Timeout = 0 }},
		{"zero retries", func(c *Config) { c.Backend.RetryAttempts = 0 }},
		{"bad exporter", func(c *Config) { c.Telemetry.Exporter = "jaeger" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load("")
			if err != nil {
				t.Fatalf("Load failed: %v", err)
			}
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
