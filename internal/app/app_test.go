package app

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-aggregator/internal/common/config"
	apperrors "rental-aggregator/internal/common/errors"
	"rental-aggregator/internal/common/logger"
)

func testConfig(t *testing.T) *config.Config {
	return &config.Config{
		Apify: config.ApifyConfig{
			MCPServerURL:       "http://127.0.0.1:1",
			APIBaseURL:         "http://127.0.0.1:1",
			InvokeTimeout:      1000,
			PollInterval:       10,
			MaxPollDuration:    100,
			StatusFailureLimit: 1,
			SearchTimeout:      1000,
			DatasetLimit:       10,
			RequestTimeout:     1000,
		},
		Tools: config.ToolsConfig{RegistryPath: filepath.Join(t.TempDir(), "missing.json")},
		Cache: config.CacheConfig{TTL: 60000, Prefix: "test:dataset"},
	}
}

func TestBuild_WithoutStores(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t), nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NotNil(t, a.Orchestrator)
	assert.NotEmpty(t, a.Registry.Tools)
	assert.NoError(t, a.Ready(context.Background()))
}

func TestBuild_MissingTokenSurfacesPerSearch(t *testing.T) {
	a, err := Build(context.Background(), testConfig(t), nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	props, err := a.Orchestrator.Search(context.Background(), "jupri_zillow_scraper", map[string]interface{}{})
	assert.Nil(t, props)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeConfiguration))
}

func TestBuild_WithCache(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Database.Redis = config.RedisConfig{Address: mr.Addr(), PoolSize: 2}

	a, err := Build(context.Background(), cfg, nil, logger.NewTestLogger(t))
	require.NoError(t, err)
	defer a.Close()

	assert.NoError(t, a.Ready(context.Background()))

	mr.Close()
	assert.Error(t, a.Ready(context.Background()))
}

func TestBuild_UnreachableCache(t *testing.T) {
	cfg := testConfig(t)
	cfg.Cache.Enabled = true
	cfg.Database.Redis = config.RedisConfig{Address: "127.0.0.1:1", PoolSize: 1}

	_, err := Build(context.Background(), cfg, nil, logger.NewTestLogger(t))
	assert.Error(t, err)
}
