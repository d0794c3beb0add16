// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, path, addr string) {
	t.Helper()
	content := "web:\n  addr: \"" + addr + "\"\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	// Push the mtime forward explicitly so coarse filesystem timestamps
	// cannot hide the rewrite from the poller.
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("failed to bump mtime: %v", err)
	}
}

func TestWatcherDetectsChanges(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("web:\n  addr: \":7001\"\n"), 0644); err != nil {
		t.Fatalf("failed to write initial config: %v", err)
	}

	watcher, err := NewWatcher(configPath, WithWatchInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	changes := make(chan *Config, 1)
	watcher.OnChange(func(cfg *Config) {
		changes <- cfg
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	watcher.Start(ctx)
	defer watcher.Stop()

	if watcher.Config().Web.Addr != ":7001" {
		t.Errorf("expected initial addr :7001, got %q", watcher.Config().Web.Addr)
	}

	writeConfig(t, configPath, ":7002")

	select {
	case newCfg := <-changes:
		if newCfg.Web.Addr != ":7002" {
			t.Errorf("expected addr :7002 after reload, got %q", newCfg.Web.Addr)
		}
	case <-time.After(2 * time.Second):
		t.Error("timeout waiting for config change notification")
	}

	if watcher.Config().Web.Addr != ":7002" {
		t.Errorf("expected Config() to return reloaded config")
	}
}

func TestWatcherKeepsOldConfigOnBadReload(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "config.yaml")
	if err := os.WriteFile(configPath, []byte("web:\n  addr: \":7001\"\n"), 0644); err != nil {
		t.Fatalf("failed to write initial config: %v", err)
	}

	watcher, err := NewWatcher(configPath, WithWatchInterval(20*time.Millisecond))
	if err != nil {
		t.Fatalf("failed to create watcher: %v", err)
	}

	called := false
	watcher.OnChange(func(*Config) { called = true })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watcher.Start(ctx)
	defer watcher.Stop()

	// A reload that fails validation must not replace the config.
	bad := "backend:\n  url: \"\"\n"
	if err := os.WriteFile(configPath, []byte(bad), 0644); err != nil {
		t.Fatalf("failed to write bad config: %v", err)
	}
	future := time.Now().Add(2 * time.Second)
	if err := os.Chtimes(configPath, future, future); err != nil {
		t.Fatalf("failed to bump mtime: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	if called {
		t.Errorf("listener must not fire for a failed reload")
	}
	if watcher.Config().Web.Addr != ":7001" {
		t.Errorf("expected old config retained, got %q", watcher.Config().Web.Addr)
	}
}
