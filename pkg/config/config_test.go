package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Server.Port)
	assert.Equal(t, SourceFile, cfg.Catalog.Source)
	assert.Equal(t, "data", cfg.Catalog.DataDir)
	assert.Equal(t, "russian", cfg.Normalizer.Language)
	assert.Equal(t, 500, cfg.Normalizer.CacheSize)
	assert.False(t, cfg.Redis.Enabled)
	assert.False(t, cfg.Kafka.Enabled)
}

func TestLoad_FileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := `
server:
  port: 8100
  readTimeout: 3s
catalog:
  dataDir: /srv/catalog
normalizer:
  cacheSize: 2048
redis:
  enabled: true
  cacheTTL: 1m
`
	require.NoError(t, os.WriteFile(path, []byte(yml), 0o644))

	t.Setenv("TS_SERVER_PORT", "8200")
	t.Setenv("TS_KAFKA_BROKERS", "k1:9092,k2:9092")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8200, cfg.Server.Port)
	assert.Equal(t, 3*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, 10*time.Second, cfg.Server.WriteTimeout)
	assert.Equal(t, "/srv/catalog", cfg.Catalog.DataDir)
	assert.Equal(t, 2048, cfg.Normalizer.CacheSize)
	assert.True(t, cfg.Redis.Enabled)
	assert.Equal(t, time.Minute, cfg.Redis.CacheTTL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_LegacyDataDirEnv(t *testing.T) {
	t.Setenv("THEMESEARCHER_DATA_DIR", "/opt/themes")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/opt/themes", cfg.Catalog.DataDir)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown source", func(c *Config) { c.Catalog.Source = "s3" }},
		{"empty data dir", func(c *Config) { c.Catalog.DataDir = "" }},
		{"zero cache", func(c *Config) { c.Normalizer.CacheSize = 0 }},
		{"no language", func(c *Config) { c.Normalizer.Language = "" }},
		{"bad port", func(c *Config) { c.Server.Port = 70000 }},
		{"kafka without topic", func(c *Config) {
			c.Kafka.Enabled = true
			c.Kafka.Topics.QueryEvents = ""
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := defaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}

	assert.NoError(t, defaultConfig().Validate())
}

func TestPostgresDSN(t *testing.T) {
	cfg := defaultConfig().Postgres
	assert.Equal(t,
		"host=localhost port=5432 user=themesearcher password=localdev dbname=themesearcher sslmode=disable",
		cfg.DSN(),
	)
}
