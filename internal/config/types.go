// Package config provides configuration types and loading for metalens.
// It is decoupled from CLI concerns so the HTTP server and other tools
// can load project configuration directly.
package config

import (
	"fmt"
	"time"

	"github.com/leapstack-labs/metalens/internal/executor"
	"github.com/leapstack-labs/metalens/internal/metastore"
)

// TargetConfig holds warehouse connection settings.
type TargetConfig struct {
	Type string `koanf:"type"` // duckdb, postgres

	// Database is the file path for DuckDB or the database name for
	// network engines.
	Database string `koanf:"database"`

	// Schema is the schema holding the entity tables.
	Schema string `koanf:"schema"`

	Host     string `koanf:"host"`
	Port     int    `koanf:"port"`
	User     string `koanf:"user"`
	Password string `koanf:"password"`

	Options map[string]string `koanf:"options"`
}

// Validate checks the target against the executor driver registry.
func (t *TargetConfig) Validate() error {
	if t.Type == "" {
		return fmt.Errorf("target type is required")
	}
	for _, name := range executor.ListDrivers() {
		if name == t.Type {
			return nil
		}
	}
	return &executor.UnknownDriverError{Type: t.Type, Available: executor.ListDrivers()}
}

// ExecutorConfig converts the target into an executor.Config.
func (t *TargetConfig) ExecutorConfig() executor.Config {
	return executor.Config{
		Type:     t.Type,
		Database: t.Database,
		Schema:   t.Schema,
		Host:     t.Host,
		Port:     t.Port,
		User:     t.User,
		Password: t.Password,
		Options:  t.Options,
	}
}

// CacheConfig sizes the lineage graph cache.
type CacheConfig struct {
	TTL        time.Duration `koanf:"ttl"`
	MaxEntries int           `koanf:"max_entries"`
}

// FetchConfig tunes process fetching.
type FetchConfig struct {
	// PageSize caps processes returned per direction.
	PageSize int `koanf:"page_size"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port int `koanf:"port"`
}

// Config is the full metalens configuration.
type Config struct {
	Target TargetConfig `koanf:"target"`

	// Collections is the ordered list of entity tables probed during
	// resolution. Order is the collision tie-break.
	Collections []string `koanf:"collections"`

	Cache  CacheConfig  `koanf:"cache"`
	Fetch  FetchConfig  `koanf:"fetch"`
	Server ServerConfig `koanf:"server"`

	Verbose      bool   `koanf:"verbose"`
	OutputFormat string `koanf:"output"`
}

// ApplyDefaults fills zero values with package defaults.
func (c *Config) ApplyDefaults() {
	if len(c.Collections) == 0 {
		c.Collections = append([]string(nil), metastore.DefaultCollections...)
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = 5 * time.Minute
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 20
	}
	if c.Fetch.PageSize == 0 {
		c.Fetch.PageSize = metastore.DefaultPageSize
	}
	if c.Server.Port == 0 {
		c.Server.Port = 8435
	}
	if c.OutputFormat == "" {
		c.OutputFormat = "text"
	}
	if c.Target.Type == "" {
		c.Target.Type = "duckdb"
	}
	if c.Target.Schema == "" {
		c.Target.Schema = "main"
	}
}
