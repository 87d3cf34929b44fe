package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const (
	defaultAutosaveInterval = 2 * time.Minute
	defaultAutosaveKeep     = 20
)

type Config struct {
	DBPath           string
	MetricsAddr      string
	AutosaveInterval time.Duration
	AutosaveKeep     int
	NetworkPath      string
}

func LoadConfig(args []string) (Config, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return Config{}, fmt.Errorf("failed to get cwd: %w", err)
	}

	defaultDBPath := filepath.Join(cwd, "grenlin.db")

	dbPath := envOrDefault("GRENLIN_DB_PATH", defaultDBPath)
	metricsAddr := os.Getenv("GRENLIN_METRICS_ADDR")
	autosaveInterval := defaultAutosaveInterval
	if env := os.Getenv("GRENLIN_AUTOSAVE_INTERVAL"); env != "" {
		parsed, err := time.ParseDuration(env)
		if err != nil {
			return Config{}, fmt.Errorf("invalid GRENLIN_AUTOSAVE_INTERVAL: %w", err)
		}
		autosaveInterval = parsed
	}

	flagSet := flag.NewFlagSet("grenlin", flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagDB := flagSet.String("db", dbPath, "path to the workspace SQLite database")
	flagMetrics := flagSet.String("metrics-addr", metricsAddr, "address for the /metrics listener (empty = off)")
	flagAutosave := flagSet.String("autosave-interval", autosaveInterval.String(), "autosave interval (0 = off)")
	flagKeep := flagSet.Int("autosave-keep", defaultAutosaveKeep, "autosave snapshots to keep per network")

	if err := flagSet.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			flagSet.SetOutput(os.Stdout)
			flagSet.PrintDefaults()
			return Config{}, err
		}
		return Config{}, err
	}

	autosaveParsed, err := time.ParseDuration(*flagAutosave)
	if err != nil {
		return Config{}, fmt.Errorf("invalid autosave interval: %w", err)
	}

	config := Config{
		DBPath:           resolvePath(*flagDB, cwd),
		MetricsAddr:      strings.TrimSpace(*flagMetrics),
		AutosaveInterval: autosaveParsed,
		AutosaveKeep:     *flagKeep,
	}

	if rest := flagSet.Args(); len(rest) > 0 {
		config.NetworkPath = resolvePath(rest[0], cwd)
	}

	if config.AutosaveKeep <= 0 {
		return Config{}, errors.New("autosave-keep must be positive")
	}

	return config, nil
}

func envOrDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func resolvePath(path, cwd string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(cwd, path)
}
