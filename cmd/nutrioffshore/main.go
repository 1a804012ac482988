// NutriOffShore is a conversational nutrition assistant for offshore
// platform workers.
//
// It exposes an HTTP API with a tool-calling agent backed by OpenRouter,
// profile and meal-log resources, and JWT authentication. Configuration
// is loaded from a single YAML file discovered automatically (see
// [config.DefaultSearchPaths]).
//
// Usage:
//
//	nutrioffshore serve            Start the API server
//	nutrioffshore init [dir]       Write a starter config.yaml
//	nutrioffshore version          Print version and build information
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/tadeuscofield/NutriOffShore/internal/agent"
	"github.com/tadeuscofield/NutriOffShore/internal/api"
	"github.com/tadeuscofield/NutriOffShore/internal/buildinfo"
	"github.com/tadeuscofield/NutriOffShore/internal/config"
	"github.com/tadeuscofield/NutriOffShore/internal/llm"
	"github.com/tadeuscofield/NutriOffShore/internal/store"
	"github.com/tadeuscofield/NutriOffShore/internal/tools"
)

// main constructs the OS-level environment (context, stdio, argv) and
// delegates immediately to [run], keeping os.Exit and os.Args out of
// the application logic so the lifecycle can be driven from tests.
func main() {
	ctx := context.Background()

	if err := run(ctx, os.Stdout, os.Stderr, os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", err)
		os.Exit(1)
	}
}

// run parses arguments by hand. The flag package relies on package-level
// globals, which makes it impossible to call run() concurrently from
// tests, and the argument surface here is small.
func run(ctx context.Context, stdout io.Writer, stderr io.Writer, args []string) error {
	var configPath string
	var outputFmt string
	var command string
	var cmdArgs []string

	for i := 0; i < len(args); i++ {
		switch {
		case args[i] == "-config" && i+1 < len(args):
			configPath = args[i+1]
			i++
		case strings.HasPrefix(args[i], "-config="):
			configPath = strings.TrimPrefix(args[i], "-config=")
		case (args[i] == "-o" || args[i] == "--output") && i+1 < len(args):
			outputFmt = args[i+1]
			i++
		case args[i] == "-h" || args[i] == "-help" || args[i] == "--help":
			return printUsage(stdout)
		case !strings.HasPrefix(args[i], "-") && command == "":
			command = args[i]
		default:
			if command != "" {
				cmdArgs = append(cmdArgs, args[i])
			} else {
				return fmt.Errorf("unknown flag: %s", args[i])
			}
		}
	}

	if outputFmt == "" {
		outputFmt = "text"
	}
	if outputFmt != "text" && outputFmt != "json" {
		return fmt.Errorf("unknown output format: %q (expected text or json)", outputFmt)
	}

	switch command {
	case "serve":
		return runServe(ctx, stdout, configPath)
	case "init":
		dir := "."
		if len(cmdArgs) > 0 {
			dir = cmdArgs[0]
		}
		return runInit(stdout, dir)
	case "version":
		return runVersion(stdout, outputFmt)
	case "":
		return printUsage(stdout)
	default:
		return fmt.Errorf("unknown command: %s", command)
	}
}

func printUsage(w io.Writer) error {
	fmt.Fprintln(w, "Usage: nutrioffshore [-config path] <command>")
	fmt.Fprintln(w, "")
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  serve         Start the API server")
	fmt.Fprintln(w, "  init [dir]    Write a starter config.yaml")
	fmt.Fprintln(w, "  version       Print version and build information")
	return nil
}

func runVersion(w io.Writer, outputFmt string) error {
	info := buildinfo.Info()
	if outputFmt == "json" {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(info)
	}
	fmt.Fprintln(w, buildinfo.String())
	for _, k := range []string{"version", "git_commit", "git_branch", "build_time", "go_version", "os", "arch"} {
		if v, ok := info[k]; ok {
			fmt.Fprintf(w, "  %-12s %s\n", k+":", v)
		}
	}
	return nil
}

// starterConfig is written by the init command. The OpenRouter key is
// expanded from the environment at load time.
const starterConfig = `listen:
  port: 8080

database:
  path: nutrioffshore.db

openrouter:
  api_key: ${OPENROUTER_API_KEY}
  model: google/gemma-3-27b-it:free
  base_url: https://openrouter.ai/api/v1
  timeout_seconds: 60

agent:
  max_tool_rounds: 8
  history_token_budget: 12000
  max_tokens: 8192
  stream_max_tokens: 4096

auth:
  enabled: false
  jwt_secret: ${NUTRI_JWT_SECRET}
  token_expiry_minutes: 480

log_level: info
log_format: json
`

// runInit writes a starter config file without overwriting an existing
// one.
func runInit(w io.Writer, dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, []byte(starterConfig), 0600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Fprintf(w, "wrote %s\n", path)
	fmt.Fprintln(w, "Set OPENROUTER_API_KEY (or edit openrouter.api_key) before serving.")
	return nil
}

func runServe(ctx context.Context, stdout io.Writer, configPath string) error {
	// .env is optional; environment variables referenced by the config
	// file may come from it.
	_ = godotenv.Load()

	logger := newLogger(stdout, slog.LevelInfo, "text")
	logger.Info("starting NutriOffShore", "version", buildinfo.Version, "commit", buildinfo.GitCommit, "built", buildinfo.BuildTime)

	cfgPath, err := config.FindConfig(configPath)
	if err != nil {
		return err
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config %s: %w", cfgPath, err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cfgPath, err)
	}

	// Reconfigure the logger now that the desired level and format are
	// known. The initial text logger covers only the startup banner.
	{
		level := slog.LevelInfo
		if cfg.LogLevel != "" {
			parsed, err := config.ParseLogLevel(cfg.LogLevel)
			if err != nil {
				return fmt.Errorf("invalid config %s: %w", cfgPath, err)
			}
			level = parsed
		}
		logger = newLogger(stdout, level, cfg.LogFormat)
	}

	logger.Info("config loaded",
		"path", cfgPath,
		"port", cfg.Listen.Port,
		"model", cfg.OpenRouter.Model,
		"auth_enabled", cfg.Auth.Enabled,
	)

	st, err := store.Open(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("open database %s: %w", cfg.Database.Path, err)
	}
	defer st.Close()
	logger.Info("database opened", "path", cfg.Database.Path)

	registry := tools.NewRegistry(st, logger)

	client := llm.NewOpenRouterClient(
		cfg.OpenRouter.BaseURL,
		cfg.OpenRouter.APIKey,
		cfg.OpenRouter.Model,
		time.Duration(cfg.OpenRouter.TimeoutSeconds)*time.Second,
		logger,
	)

	service := agent.New(client, registry, st, cfg.Agent, logger)
	server := api.NewServer(cfg, service, st, logger)

	// SIGINT/SIGTERM cancel the context and trigger graceful shutdown.
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		_ = server.Shutdown(context.Background())
	}()

	if err := server.Start(ctx); err != nil {
		if ctx.Err() == nil {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("NutriOffShore stopped")
	return nil
}

// newLogger creates a structured logger writing to w at the given level
// and format. Format must be "text" or "json"; any other value defaults
// to text.
func newLogger(w io.Writer, level slog.Level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: config.ReplaceLogLevelNames,
	}
	var handler slog.Handler
	if format == "json" {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return slog.New(handler)
}
