package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "duckdb", cfg.Target.Type)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 20, cfg.Cache.MaxEntries)
	assert.Equal(t, 10, cfg.Fetch.PageSize)
	assert.Equal(t, "text", cfg.OutputFormat)
	assert.Contains(t, cfg.Collections, "TABLE_ENTITY")
	assert.Contains(t, cfg.Collections, "DASHBOARD_ENTITY")
}

func TestLoad_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "metalens.yaml")
	content := `
target:
  type: postgres
  host: warehouse.internal
  database: mdlh
  schema: PUBLIC
collections:
  - TABLE_ENTITY
  - GLOSSARY_ENTITY
cache:
  ttl: 90s
  max_entries: 5
fetch:
  page_size: 25
`
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0o644))

	cfg, err := Load(cfgPath, nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "warehouse.internal", cfg.Target.Host)
	assert.Equal(t, "PUBLIC", cfg.Target.Schema)
	assert.Equal(t, []string{"TABLE_ENTITY", "GLOSSARY_ENTITY"}, cfg.Collections)
	assert.Equal(t, 90*time.Second, cfg.Cache.TTL)
	assert.Equal(t, 5, cfg.Cache.MaxEntries)
	assert.Equal(t, 25, cfg.Fetch.PageSize)
}

func TestLoad_EnvOverride(t *testing.T) {
	t.Setenv("METALENS_TARGET__TYPE", "postgres")
	t.Setenv("METALENS_TARGET__HOST", "env-host")

	cfg, err := Load("", nil)
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Target.Type)
	assert.Equal(t, "env-host", cfg.Target.Host)
}

func TestLoad_FlagsWin(t *testing.T) {
	t.Setenv("METALENS_VERBOSE", "false")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.Bool("verbose", false, "")
	require.NoError(t, flags.Parse([]string{"--verbose"}))

	cfg, err := Load("", flags)
	require.NoError(t, err)
	assert.True(t, cfg.Verbose, "changed flags override env")
}

func TestLoad_MissingConfigFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), nil)
	assert.Error(t, err)
}

func TestTargetConfig_Validate(t *testing.T) {
	valid := TargetConfig{Type: "duckdb"}
	assert.NoError(t, valid.Validate())

	assert.Error(t, (&TargetConfig{}).Validate())
	assert.Error(t, (&TargetConfig{Type: "oracle"}).Validate())
}
