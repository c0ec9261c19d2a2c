package config_test

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/niksmo/shopwave/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	t.Run("Full", func(t *testing.T) {
		path := writeConfig(t, `
log_level: debug
log_format: pretty
http_server_addr: ":9000"
sql_db: "postgres://u:p@db:5432/shop"
state_dir: "/tmp/sessions"
catalog:
  source: kafka
  api_base_url: "http://backend/api"
  page_size: 50
  refresh_interval: 30s
  suggest_limit: 5
broker:
  seed_brokers: ["k1:9092", "k2:9092"]
  schema_registry_urls: ["http://sr:8081"]
  topics:
    catalog: catalog
    availability: availability
  consumers:
    catalog_group: catalog-group
    availability_group: availability-group
`)
		cfg, err := config.LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
		assert.Equal(t, config.LogFormatPretty, cfg.LogFormat)
		assert.Equal(t, ":9000", cfg.HTTPServerAddr)
		assert.Equal(t, config.SourceKafka, cfg.Catalog.Source)
		assert.Equal(t, 50, cfg.Catalog.PageSize)
		assert.Equal(t, 30*time.Second, cfg.Catalog.RefreshInterval)
		assert.Equal(t, 5, cfg.Catalog.SuggestLimit)
		assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Broker.SeedBrokers)
		assert.Equal(t, "availability-group", cfg.Broker.Consumers.AvailabilityGroup)
		assert.True(t, cfg.Broker.Enabled())
	})

	t.Run("Defaults", func(t *testing.T) {
		path := writeConfig(t, `
catalog:
  api_base_url: "http://backend/api"
`)
		cfg, err := config.LoadFile(path)
		require.NoError(t, err)

		assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
		assert.Equal(t, config.LogFormatJSON, cfg.LogFormat)
		assert.Equal(t, config.SourceStatic, cfg.Catalog.Source)
		assert.Equal(t, 8, cfg.Catalog.SuggestLimit)
		assert.Zero(t, cfg.Catalog.RefreshInterval)
		assert.False(t, cfg.Broker.Enabled())
	})

	t.Run("UnknownKey", func(t *testing.T) {
		path := writeConfig(t, `
catalog:
  api_base_url: "http://backend/api"
unknown_key: 1
`)
		_, err := config.LoadFile(path)
		assert.Error(t, err)
	})

	t.Run("Invalid", func(t *testing.T) {
		path := writeConfig(t, `
log_format: xml
catalog:
  source: sql
  suggest_limit: 0
broker:
  seed_brokers: ["k1:9092"]
`)
		_, err := config.LoadFile(path)
		require.Error(t, err)
		for _, msg := range []string{
			"log_format",
			"sql_db",
			"catalog.api_base_url",
			"catalog.suggest_limit",
			"broker.schema_registry_urls",
		} {
			assert.ErrorContains(t, err, msg)
		}
	})

	t.Run("PartialTLS", func(t *testing.T) {
		path := writeConfig(t, `
catalog:
  api_base_url: "http://backend/api"
broker:
  tls:
    ca_file: /certs/ca.pem
`)
		_, err := config.LoadFile(path)
		require.Error(t, err)
		assert.ErrorContains(t, err, "broker.tls")
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := config.LoadFile(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.Error(t, err)
	})
}
