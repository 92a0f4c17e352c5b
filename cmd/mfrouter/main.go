// Package main is the entry point for the microfrontend router.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/vyrodovalexey/mfrouter/internal/config"
	"github.com/vyrodovalexey/mfrouter/internal/observability"
)

// Version information (set at build time).
var (
	version   = "dev"
	buildTime = "unknown"
	gitCommit = "unknown"
)

// cliFlags holds command line flags.
type cliFlags struct {
	configPath  string
	logLevel    string
	logFormat   string
	showVersion bool
}

func main() {
	flags := parseFlags(os.Args[1:])

	if flags.showVersion {
		printVersion()
		return
	}

	logger := initLogger(flags)
	defer func() { _ = logger.Sync() }()

	cfg := loadAndValidateConfig(flags.configPath, logger)

	app, err := initApplication(cfg, logger)
	if err != nil {
		logger.Fatal("failed to initialize router", observability.Error(err))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	runRouter(context.Background(), app, flags.configPath, sigCh)
}

// parseFlags parses command line flags. Environment variables supply
// the defaults.
func parseFlags(args []string) cliFlags {
	fs := flag.NewFlagSet("mfrouter", flag.ExitOnError)
	configPath := fs.String("config", getEnvOrDefault("MFROUTER_CONFIG_PATH", ""),
		"Path to configuration file (optional, ROUTES and BINDINGS may be set in the environment)")
	logLevel := fs.String("log-level", getEnvOrDefault("MFROUTER_LOG_LEVEL", "info"),
		"Log level (debug, info, warn, error)")
	logFormat := fs.String("log-format", getEnvOrDefault("MFROUTER_LOG_FORMAT", "json"),
		"Log format (json, console)")
	showVersion := fs.Bool("version", false, "Show version information")
	_ = fs.Parse(args)

	return cliFlags{
		configPath:  *configPath,
		logLevel:    *logLevel,
		logFormat:   *logFormat,
		showVersion: *showVersion,
	}
}

// printVersion prints version information.
func printVersion() {
	fmt.Printf("mfrouter version %s\n", version)
	fmt.Printf("  Build time: %s\n", buildTime)
	fmt.Printf("  Git commit: %s\n", gitCommit)
}

// initLogger initializes the logger.
func initLogger(flags cliFlags) observability.Logger {
	logger, err := observability.NewLogger(observability.LogConfig{
		Level:  flags.logLevel,
		Format: flags.logFormat,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	observability.SetGlobalLogger(logger)
	return logger
}

// loadAndValidateConfig resolves the configuration from the optional
// file and the environment. Any error is fatal.
func loadAndValidateConfig(configPath string, logger observability.Logger) *config.Config {
	logger.Info("starting mfrouter",
		observability.String("version", version),
		observability.String("config", configPath),
	)

	cfg, err := config.Resolve(configPath, os.LookupEnv, logger)
	if err != nil {
		logger.Fatal("invalid configuration", observability.Error(err))
	}

	logger.Info("configuration loaded",
		observability.Int("routes", len(cfg.Routes)),
		observability.Int("bindings", len(cfg.Bindings)),
		observability.Int("asset_prefixes", len(cfg.AssetPrefixes)),
		observability.Bool("smooth_transitions", cfg.SmoothTransitions),
	)

	return cfg
}
