// Package commands implements the metalens subcommands.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/metalens/internal/config"
	"github.com/leapstack-labs/metalens/internal/executor"
	"github.com/leapstack-labs/metalens/internal/lineage"
	"github.com/leapstack-labs/metalens/internal/metastore"
)

// currentConfig is set by the root command after config loading.
var currentConfig *config.Config

// SetConfig stores the loaded configuration for command access.
func SetConfig(cfg *config.Config) {
	currentConfig = cfg
}

// getConfig returns the loaded configuration, loading defaults if the
// root command hasn't run (direct command construction in tests).
func getConfig() *config.Config {
	if currentConfig != nil {
		return currentConfig
	}
	cfg, err := config.Load("", nil)
	if err != nil {
		cfg = &config.Config{}
		cfg.ApplyDefaults()
	}
	return cfg
}

// newLogger builds the CLI logger. Verbose enables debug output.
func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// runtime bundles the wired pipeline for one command invocation.
type runtime struct {
	exec     executor.Executor
	resolver *metastore.Resolver
	service  *lineage.Service
	logger   *slog.Logger
}

// newRuntime opens the warehouse connection and wires the pipeline
// from config.
func newRuntime(cfg *config.Config) (*runtime, error) {
	if err := cfg.Target.Validate(); err != nil {
		return nil, err
	}
	logger := newLogger(cfg.Verbose)

	exec, err := executor.Open(cfg.Target.ExecutorConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("opening warehouse connection: %w", err)
	}

	resolver := metastore.NewResolver(exec, cfg.Target.Database, cfg.Target.Schema, cfg.Collections, logger)
	fetcher := metastore.NewProcessFetcher(exec, cfg.Target.Database, cfg.Target.Schema, cfg.Fetch.PageSize, logger)
	service := lineage.NewService(resolver, fetcher, cfg.Cache.TTL, cfg.Cache.MaxEntries, logger)

	return &runtime{
		exec:     exec,
		resolver: resolver,
		service:  service,
		logger:   logger,
	}, nil
}

func (r *runtime) Close() {
	if err := r.exec.Close(); err != nil {
		r.logger.Warn("closing warehouse connection", "error", err)
	}
}
