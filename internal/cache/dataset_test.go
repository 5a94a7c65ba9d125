package cache

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

func TestDatasetCache_RoundTripWithMiniredis(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	c := NewDatasetCache(client, "", 0, logger.NewTestLogger(t))
	ctx := context.Background()

	_, found, err := c.Get(ctx, "ds-1")
	require.NoError(t, err)
	assert.False(t, found)

	records := []models.RawRecord{{"title": "A", "price": 1200}}
	require.NoError(t, c.Set(ctx, "ds-1", records))
	assert.True(t, mr.Exists("aggregator:dataset:ds-1"))
	assert.Equal(t, DefaultTTL, mr.TTL("aggregator:dataset:ds-1"))

	got, found, err := c.Get(ctx, "ds-1")
	require.NoError(t, err)
	require.True(t, found)
	require.Len(t, got, 1)
	assert.Equal(t, "A", got[0].Text("title"))
	assert.Equal(t, json.Number("1200"), got[0]["price"])
}

func TestDatasetCache_CorruptEntryIsAMiss(t *testing.T) {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	defer mr.Close()
	require.NoError(t, mr.Set("p:ds-2", "not json"))

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	_, found, err := NewDatasetCache(client, "p", time.Minute, logger.NewNoOpLogger()).Get(context.Background(), "ds-2")
	require.NoError(t, err)
	assert.False(t, found)
	assert.False(t, mr.Exists("p:ds-2"))
}

func TestDatasetCache_SetUsesTTL(t *testing.T) {
	client, mock := redismock.NewClientMock()
	records := []models.RawRecord{{"title": "B"}}
	data, _ := json.Marshal(records)

	mock.ExpectSet("p:ds-3", data, 10*time.Minute).SetVal("OK")

	c := NewDatasetCache(client, "p", 10*time.Minute, logger.NewNoOpLogger())
	require.NoError(t, c.Set(context.Background(), "ds-3", records))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatasetCache_GetError(t *testing.T) {
	client, mock := redismock.NewClientMock()
	mock.ExpectGet("p:ds-4").SetErr(errors.New("connection refused"))

	_, found, err := NewDatasetCache(client, "p", time.Minute, logger.NewNoOpLogger()).Get(context.Background(), "ds-4")
	assert.Error(t, err)
	assert.False(t, found)
	assert.NoError(t, mock.ExpectationsWereMet())
}
