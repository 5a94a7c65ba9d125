package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFromFile_AppliesDefaults(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "")
	path := writeConfig(t, `
app:
  name: rental-aggregator
workers:
  search-properties:
    enabled: true
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultMCPServerURL, cfg.Apify.MCPServerURL)
	assert.Equal(t, DefaultAPIBaseURL, cfg.Apify.APIBaseURL)
	assert.Equal(t, 15*time.Second, GetDuration(cfg.Apify.PollInterval))
	assert.Equal(t, 9*time.Minute, GetDuration(cfg.Apify.MaxPollDuration))
	assert.Equal(t, 100, cfg.Apify.DatasetLimit)
	assert.Equal(t, 3, cfg.Apify.StatusFailureLimit)
	assert.Empty(t, cfg.Apify.Token)

	w := cfg.Workers["search-properties"]
	assert.Equal(t, 5, w.MaxJobsActive)
	assert.Equal(t, cfg.Apify.SearchTimeout, w.Timeout)
}

func TestLoadFromFile_TokenFromEnvironment(t *testing.T) {
	t.Setenv("APIFY_TOKEN", "secret-token")
	path := writeConfig(t, "app:\n  name: test\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "secret-token", cfg.Apify.Token)
}

func TestLoadFromFile_ExpandsPlaceholders(t *testing.T) {
	t.Setenv("TEST_REDIS_ADDR", "localhost:6390")
	path := writeConfig(t, `
cache:
  enabled: true
database:
  redis:
    address: ${TEST_REDIS_ADDR}
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, "localhost:6390", cfg.Database.Redis.Address)
}

func TestLoadFromFile_ValidationFailures(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"camunda without broker", "camunda:\n  enabled: true\n"},
		{"postgres sink without host", "storage:\n  postgres_enabled: true\n"},
		{"elasticsearch sink without nodes", "storage:\n  elasticsearch_enabled: true\n"},
		{"cache without redis", "cache:\n  enabled: true\n"},
		{"interval longer than budget", "apify:\n  poll_interval: 60000\n  max_poll_duration: 1000\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFromFile(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestGetWorkerConfig_Fallback(t *testing.T) {
	cfg := &Config{Apify: ApifyConfig{SearchTimeout: 1000}}
	w := GetWorkerConfig(cfg, "missing")
	assert.True(t, w.Enabled)
	assert.Equal(t, 1000, w.Timeout)
	assert.True(t, IsWorkerEnabled(cfg, "missing"))

	cfg.Workers = map[string]WorkerConfig{"off": {Enabled: false}}
	assert.False(t, IsWorkerEnabled(cfg, "off"))
}

func TestElasticsearchAddresses(t *testing.T) {
	assert.Equal(t, []string{"http://es:9200"}, ElasticsearchConfig{URL: "http://es:9200"}.GetAddresses())
	assert.Equal(t, []string{"a", "b"}, ElasticsearchConfig{Addresses: []string{"a", "b"}, URL: "c"}.GetAddresses())
	assert.Nil(t, ElasticsearchConfig{}.GetAddresses())
}
