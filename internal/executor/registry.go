package executor

import (
	"database/sql"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
)

// Config holds connection settings for opening an executor.
type Config struct {
	// Type selects the registered driver ("duckdb", "postgres").
	Type string

	// Database is the file path for file-based engines (":memory:"
	// for in-memory DuckDB) or the database name for network engines.
	Database string

	// Schema is the default schema holding the entity tables.
	Schema string

	// Network settings, unused by file-based engines.
	Host     string
	Port     int
	User     string
	Password string

	// Options carries driver-specific parameters.
	Options map[string]string
}

// DSNBuilder turns a Config into a driver DSN.
type DSNBuilder func(cfg Config) (driverName, dsn string, err error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]DSNBuilder)
)

// Register adds a driver's DSN builder to the registry. Driver packages
// call this from init().
func Register(name string, build DSNBuilder) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = build
}

// ListDrivers returns all registered driver names, sorted.
func ListDrivers() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// UnknownDriverError is returned when Open is asked for an unregistered
// driver type.
type UnknownDriverError struct {
	Type      string
	Available []string
}

func (e *UnknownDriverError) Error() string {
	return fmt.Sprintf("unknown executor type %q\nAvailable types: %v\nHint: check target.type in metalens.yaml", e.Type, e.Available)
}

// Open builds a DSN for cfg.Type and opens a SQLExecutor over it.
func Open(cfg Config, logger *slog.Logger) (*SQLExecutor, error) {
	registryMu.RLock()
	build, ok := registry[strings.ToLower(cfg.Type)]
	registryMu.RUnlock()
	if !ok {
		return nil, &UnknownDriverError{Type: cfg.Type, Available: ListDrivers()}
	}

	driverName, dsn, err := build(cfg)
	if err != nil {
		return nil, fmt.Errorf("building DSN for %s: %w", cfg.Type, err)
	}

	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("opening %s connection: %w", cfg.Type, err)
	}
	return NewSQLExecutor(db, logger), nil
}
