// Copyright 2026 © The KubeBeaver Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/fgbona/kubebeaver-sub000/pkg/client"
	"github.com/fgbona/kubebeaver-sub000/pkg/config"
	kbmcp "github.com/fgbona/kubebeaver-sub000/pkg/mcp"
	"github.com/fgbona/kubebeaver-sub000/pkg/resilience"
	"github.com/fgbona/kubebeaver-sub000/pkg/telemetry"
)

const version = "dev"

type globalFlags struct {
	ConfigPath string
	BackendURL string
	WebAddr    string
	Timeout    time.Duration
	JSON       bool
	Help       bool
}

type statusResult struct {
	Version          string `json:"version"`
	BackendURL       string `json:"backend_url"`
	BackendReachable bool   `json:"backend_reachable"`
	BackendStatus    string `json:"backend_status,omitempty"`
	KubeConnected    bool   `json:"kube_connected"`
	LLMConfigured    bool   `json:"llm_configured"`
	LLMProvider      string `json:"llm_provider,omitempty"`
	Error            string `json:"error,omitempty"`
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	global, args, err := parseGlobalFlags(os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if global.Help || len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := loadConfig(global)
	if err != nil {
		fatal(err)
	}

	switch args[0] {
	case "serve":
		ensureNoArgs(args[1:])
		runServe(ctx, global, cfg)
	case "status":
		ensureNoArgs(args[1:])
		runStatus(ctx, global, cfg)
	case "mcp":
		runMCP(ctx, cfg, args[1:])
	case "config":
		runConfig(cfg, args[1:])
	case "version":
		ensureNoArgs(args[1:])
		fmt.Println(version)
	case "help":
		printUsage()
	default:
		fatal(fmt.Errorf("unknown command %q", args[0]))
	}
}

func parseGlobalFlags(args []string) (globalFlags, []string, error) {
	flags := globalFlags{
		ConfigPath: getenv("KUBEBEAVER_CONFIG", ""),
	}

	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			return flags, args[i+1:], nil
		}
		if !strings.HasPrefix(arg, "-") {
			return flags, args[i:], nil
		}
		switch {
		case arg == "-h" || arg == "--help":
			flags.Help = true
			return flags, nil, nil
		case arg == "--json":
			flags.JSON = true
		case arg == "--config":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --config")
			}
			flags.ConfigPath = args[i+1]
			i++
		case strings.HasPrefix(arg, "--config="):
			flags.ConfigPath = strings.TrimPrefix(arg, "--config=")
		case arg == "--backend":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --backend")
			}
			flags.BackendURL = args[i+1]
			i++
		case strings.HasPrefix(arg, "--backend="):
			flags.BackendURL = strings.TrimPrefix(arg, "--backend=")
		case arg == "--addr":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --addr")
			}
			flags.WebAddr = args[i+1]
			i++
		case strings.HasPrefix(arg, "--addr="):
			flags.WebAddr = strings.TrimPrefix(arg, "--addr=")
		case arg == "--timeout":
			if i+1 >= len(args) {
				return flags, nil, fmt.Errorf("missing value for --timeout")
			}
			value, err := time.ParseDuration(args[i+1])
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
			i++
		case strings.HasPrefix(arg, "--timeout="):
			value, err := time.ParseDuration(strings.TrimPrefix(arg, "--timeout="))
			if err != nil {
				return flags, nil, fmt.Errorf("invalid --timeout: %w", err)
			}
			flags.Timeout = value
		default:
			return flags, nil, fmt.Errorf("unknown global flag %q", arg)
		}
	}
	return flags, nil, nil
}

// loadConfig loads the file/env config, then lets CLI flags win.
func loadConfig(flags globalFlags) (*config.Config, error) {
	cfg, err := config.Load(flags.ConfigPath)
	if err != nil {
		return nil, err
	}
	if flags.BackendURL != "" {
		cfg.Backend.URL = flags.BackendURL
	}
	if flags.WebAddr != "" {
		cfg.Web.Addr = flags.WebAddr
	}
	if flags.Timeout > 0 {
		cfg.Backend.Timeout = flags.Timeout
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newBackendClient(cfg *config.Config, metrics *telemetry.UIMetrics) *client.Client {
	retry := resilience.DefaultRetryConfig().WithMaxAttempts(cfg.Backend.RetryAttempts)
	return client.New(cfg.Backend.URL,
		client.WithTimeout(cfg.Backend.Timeout),
		client.WithRetry(retry),
		client.WithMetrics(metrics),
	)
}

func runStatus(ctx context.Context, flags globalFlags, cfg *config.Config) {
	result := statusResult{
		Version:          version,
		BackendURL:       cfg.Backend.URL,
		BackendReachable: checkHTTP(cfg.Backend.URL),
	}

	ctx, cancel := context.WithTimeout(ctx, cfg.Backend.Timeout)
	defer cancel()
	backend := newBackendClient(cfg, nil)
	health, err := backend.Health(ctx)
	if err != nil {
		result.Error = err.Error()
	} else {
		result.BackendStatus = health.Status
		result.KubeConnected = health.KubeConnected
		result.LLMConfigured = health.LLMConfigured
		result.LLMProvider = health.LLMProvider
	}

	if flags.JSON {
		printJSON(result)
		return
	}
	fmt.Printf("KubeBeaver UI: %s\n", result.Version)
	fmt.Printf("Backend: %s (reachable=%t)\n", result.BackendURL, result.BackendReachable)
	if result.Error != "" {
		fmt.Printf("Health: error: %s\n", result.Error)
		return
	}
	fmt.Printf("Health: %s (kube=%t llm=%t", result.BackendStatus, result.KubeConnected, result.LLMConfigured)
	if result.LLMProvider != "" {
		fmt.Printf(" provider=%s", result.LLMProvider)
	}
	fmt.Println(")")
}

func runServe(ctx context.Context, flags globalFlags, cfg *config.Config) {
	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)

	shutdown, err := telemetry.Init("kubebeaver-ui", version, telemetry.Config{
		Exporter:     cfg.Telemetry.Exporter,
		OTLPEndpoint: cfg.Telemetry.OTLPEndpoint,
		OTLPInsecure: cfg.Telemetry.OTLPInsecure,
	})
	if err != nil {
		fatal(err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdown(shutdownCtx)
	}()

	metrics, err := telemetry.NewUIMetrics(ctx)
	if err != nil {
		logger.Warn("metrics disabled", "error", err)
	}

	// Live log-level changes when a config file is in play.
	if flags.ConfigPath != "" {
		watcher, err := config.NewWatcher(flags.ConfigPath, config.WithWatchLogger(logger))
		if err != nil {
			logger.Warn("config watcher disabled", "error", err)
		} else {
			watcher.OnChange(func(updated *config.Config) {
				telemetry.ConfigureSlog(os.Stderr, updated.Log.Level, updated.Log.Format)
			})
			watcher.Start(ctx)
		}
	}

	runWeb(ctx, cfg, logger, metrics)
}

func runMCP(ctx context.Context, cfg *config.Config, args []string) {
	transport := "stdio"
	addr := ":8090"
	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "--http":
			transport = "http"
		case args[i] == "--addr":
			if i+1 >= len(args) {
				fatal(fmt.Errorf("missing value for --addr"))
			}
			addr = args[i+1]
			i++
		case strings.HasPrefix(args[i], "--addr="):
			addr = strings.TrimPrefix(args[i], "--addr=")
		default:
			fatal(fmt.Errorf("unknown mcp flag %q", args[i]))
		}
	}

	logger := telemetry.ConfigureSlog(os.Stderr, cfg.Log.Level, cfg.Log.Format)
	backend := newBackendClient(cfg, nil)

	srv := kbmcp.NewServer("kubebeaver", version)
	kbmcp.RegisterTools(srv, backend)

	if transport == "http" {
		logger.Info("mcp server listening", "addr", addr)
		go func() {
			<-ctx.Done()
			os.Exit(0)
		}()
		if err := srv.ServeHTTP(addr); err != nil {
			fatal(err)
		}
		return
	}
	if err := srv.ServeStdio(); err != nil {
		fatal(err)
	}
}

func runConfig(cfg *config.Config, args []string) {
	if len(args) == 0 || args[0] != "show" {
		fatal(fmt.Errorf("usage: kubebeaver-ui config show"))
	}
	ensureNoArgs(args[1:])
	payload, err := yaml.Marshal(cfg)
	if err != nil {
		fatal(err)
	}
	fmt.Print(string(payload))
}

func checkHTTP(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return false
	}
	host := parsed.Host
	if !strings.Contains(host, ":") {
		if parsed.Scheme == "https" {
			host += ":443"
		} else {
			host += ":80"
		}
	}
	conn, err := net.DialTimeout("tcp", host, 500*time.Millisecond)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}

func printJSON(value any) {
	payload, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		fatal(err)
	}
	fmt.Println(string(payload))
}

func printUsage() {
	fmt.Print(`KubeBeaver UI

Usage:
  kubebeaver-ui [global flags] <command> [args]

Global flags:
  --config <path>      Path to config file (YAML)
  --backend <url>      KubeBeaver backend base URL (default http://localhost:8000)
  --addr <addr>        Web listen address (default :8088)
  --timeout <dur>      Backend request timeout (default 60s)
  --json               JSON output

Commands:
  serve                Run the web dashboard
  status               Probe the backend health endpoint
  mcp [--http] [--addr <addr>]
                       Serve troubleshooting tools over MCP (stdio by default)
  config show          Print the effective configuration
  version
`)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}

func ensureNoArgs(args []string) {
	if len(args) > 0 {
		fatal(fmt.Errorf("unexpected args: %v", args))
	}
}

func getenv(key, fallback string) string {
	value := strings.TrimSpace(os.Getenv(key))
	if value == "" {
		return fallback
	}
	return value
}
