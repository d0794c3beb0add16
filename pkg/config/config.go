// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

// Package config loads KubeBeaver UI settings from defaults, an optional
// YAML file and KUBEBEAVER_-prefixed environment variables, in that order.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

type Config struct {
	Backend   BackendConfig   `koanf:"backend"`
	Web       WebConfig       `koanf:"web"`
	Cache     CacheConfig     `koanf:"cache"`
	Log       LogConfig       `koanf:"log"`
	Telemetry TelemetryConfig `koanf:"telemetry"`
}

// BackendConfig points the UI at the KubeBeaver API service.
type BackendConfig struct {
	URL           string        `koanf:"url"`
	Timeout       time.Duration `koanf:"timeout"`
	RetryAttempts int           `koanf:"retry_attempts"`
}

type WebConfig struct {
	Addr string `koanf:"addr"`
}

// CacheConfig holds the TTLs for the cascading picker queries. They mirror
// the backend's own cache windows so the two layers age out together.
type CacheConfig struct {
	TTLContexts   time.Duration `koanf:"ttl_contexts"`
	TTLNamespaces time.Duration `koanf:"ttl_namespaces"`
	TTLResources  time.Duration `koanf:"ttl_resources"`
}

type LogConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"` // json, text
}

type TelemetryConfig struct {
	Exporter     string `koanf:"exporter"` // stdout, otlp, none
	OTLPEndpoint string `koanf:"otlp_endpoint"`
	OTLPInsecure bool   `koanf:"otlp_insecure"`
}

func Load(path string) (*Config, error) {
	k := koanf.New(".")

	// Defaults
	k.Set("backend.url", "http://localhost:8000")
	k.Set("backend.timeout", "60s")
	k.Set("backend.retry_attempts", 3)
	k.Set("web.addr", ":8088")
	k.Set("cache.ttl_contexts", "5m")
	k.Set("cache.ttl_namespaces", "2m")
	k.Set("cache.ttl_resources", "30s")
	k.Set("log.level", "info")
	k.Set("log.format", "text")
	k.Set("telemetry.exporter", "none")

	// 1. Load from file
	if path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, err
		}
	}

	// 2. Load from ENV (KUBEBEAVER_BACKEND_URL -> backend.url)
	if err := k.Load(env.Provider("KUBEBEAVER_", ".", func(s string) string {
		return strings.Replace(strings.ToLower(
			strings.TrimPrefix(s, "KUBEBEAVER_")), "_", ".", -1)
	}), nil); err != nil {
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values that would only fail later at request time.
func (c *Config) Validate() error {
	u, err := url.Parse(c.Backend.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("backend.url %q is not an absolute URL", c.Backend.URL)
	}
	if c.Backend.Timeout <= 0 {
		return fmt.Errorf("backend.timeout must be positive, got %s", c.Backend.Timeout)
	}
	if c.Backend.RetryAttempts < 1 {
		return fmt.Errorf("backend.retry_attempts must be >= 1, got %d", c.Backend.RetryAttempts)
	}
	switch c.Telemetry.Exporter {
	case "", "none", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry.exporter must be none, stdout or otlp, got %q", c.Telemetry.Exporter)
	}
	return nil
}
