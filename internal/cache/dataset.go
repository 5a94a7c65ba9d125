// Package cache keeps fetched dataset items in Redis. A finished dataset never
// changes, so entries are keyed by dataset id alone.
package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/common/metrics"
	"rental-aggregator/internal/models"
)

const (
	DefaultPrefix = "aggregator:dataset"
	DefaultTTL    = time.Hour
)

type DatasetCache struct {
	redis  *redis.Client
	prefix string
	ttl    time.Duration
	logger logger.Logger
}

func NewDatasetCache(client *redis.Client, prefix string, ttl time.Duration, log logger.Logger) *DatasetCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &DatasetCache{redis: client, prefix: prefix, ttl: ttl, logger: log}
}

func (c *DatasetCache) Key(datasetID string) string {
	return c.prefix + ":" + datasetID
}

// Get returns the cached records for datasetID. found is false on a miss.
func (c *DatasetCache) Get(ctx context.Context, datasetID string) ([]models.RawRecord, bool, error) {
	val, err := c.redis.Get(ctx, c.Key(datasetID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.DatasetCacheLookups.WithLabelValues("miss").Inc()
		return nil, false, nil
	}
	if err != nil {
		metrics.DatasetCacheLookups.WithLabelValues("error").Inc()
		return nil, false, fmt.Errorf("dataset cache get: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader(val))
	dec.UseNumber()
	var records []models.RawRecord
	if err := dec.Decode(&records); err != nil {
		metrics.DatasetCacheLookups.WithLabelValues("error").Inc()
		c.logger.Warn("Discarding undecodable cache entry", map[string]interface{}{
			"dataset_id": datasetID,
			"error":      err.Error(),
		})
		c.redis.Del(ctx, c.Key(datasetID))
		return nil, false, nil
	}

	metrics.DatasetCacheLookups.WithLabelValues("hit").Inc()
	return records, true, nil
}

func (c *DatasetCache) Set(ctx context.Context, datasetID string, records []models.RawRecord) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("dataset cache encode: %w", err)
	}
	if err := c.redis.Set(ctx, c.Key(datasetID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("dataset cache set: %w", err)
	}
	return nil
}
