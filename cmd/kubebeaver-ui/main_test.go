// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"testing"
	"time"
)

func TestParseGlobalFlags(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want globalFlags
		rest []string
		err  bool
	}{
		{
			name: "no args",
			args: nil,
			want: globalFlags{},
		},
		{
			name: "command only",
			args: []string{"serve"},
			want: globalFlags{},
			rest: []string{"serve"},
		},
		{
			name: "flags before command",
			args: []string{"--backend", "http://api:8000", "--addr=:9000", "--timeout", "10s", "status"},
			want: globalFlags{BackendURL: "http://api:8000", WebAddr: ":9000", Timeout: 10 * time.Second},
			rest: []string{"status"},
		},
		{
			name: "json flag",
			args: []string{"--json", "status"},
			want: globalFlags{JSON: true},
			rest: []string{"status"},
		},
		{
			name: "missing value",
			args: []string{"--backend"},
			err:  true,
		},
		{
			name: "bad timeout",
			args: []string{"--timeout", "soon"},
			err:  true,
		},
		{
			name: "unknown flag",
			args: []string{"--verbose"},
			err:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, rest, err := parseGlobalFlags(tt.args)
			if tt.err {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.BackendURL != tt.want.BackendURL || got.WebAddr != tt.want.WebAddr ||
				got.Timeout != tt.want.Timeout || got.JSON != tt.want.JSON {
				t.Errorf("flags = %+v, want %+v", got, tt.want)
			}
			if len(rest) != len(tt.rest) {
				t.Errorf("rest = %v, want %v", rest, tt.rest)
			}
		})
	}
}

func TestLoadConfigFlagOverrides(t *testing.T) {
	cfg, err := loadConfig(globalFlags{
		BackendURL: "http://backend:9999",
		WebAddr:    ":7070",
		Timeout:    15 * time.Second,
	})
	if err != nil {
		t.Fatalf("loadConfig: %v", err)
	}
	if cfg.Backend.URL != "http://backend:9999" {
		t.Errorf("backend url = %q", cfg.Backend.URL)
	}
	if cfg.Web.Addr != ":7070" {
		t.Errorf("web addr = %q", cfg.Web.Addr)
	}
	if cfg.Backend.Timeout != 15*time.Second {
		t.Errorf("timeout = %s", cfg.Backend.Timeout)
	}
}

func TestLoadConfigRejectsBadOverride(t *testing.T) {
	if _, err := loadConfig(globalFlags{BackendURL: "not a url"}); err == nil {
		t.Fatal("expected validation error for relative backend url")
	}
}

func TestCheckHTTP(t *testing.T) {
	if checkHTTP("not a url") {
		t.Error("garbage should not be reachable")
	}
	if checkHTTP("http://127.0.0.1:1") {
		t.Error("unbound port should not be reachable")
	}
}
