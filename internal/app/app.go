// Package app assembles the search pipeline and its optional backing stores from configuration.
package app

import (
	"context"
	"fmt"

	"rental-aggregator/internal/apify"
	"rental-aggregator/internal/cache"
	"rental-aggregator/internal/common/config"
	"rental-aggregator/internal/common/database"
	apphttp "rental-aggregator/internal/common/http"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/common/observability"
	"rental-aggregator/internal/mcp"
	"rental-aggregator/internal/normalize"
	"rental-aggregator/internal/pipeline"
	"rental-aggregator/internal/storage"
	"rental-aggregator/pkg/registry"
)

// App owns the orchestrator and every connection opened for it.
type App struct {
	Orchestrator *pipeline.Orchestrator
	Registry     *registry.ToolRegistry

	redis    *database.RedisClient
	postgres *database.PostgresClient
	es       *database.ElasticsearchClient
	logger   logger.Logger
}

// Build wires the invoker, poller, fetcher, cache and sinks described by cfg.
// Stores that are disabled in cfg are left out; obs may be nil.
func Build(ctx context.Context, cfg *config.Config, obs *observability.Observability, log logger.Logger) (*App, error) {
	reg, err := registry.LoadOrDefault(cfg.Tools.RegistryPath)
	if err != nil {
		return nil, fmt.Errorf("load tool registry: %w", err)
	}

	a := &App{Registry: reg, logger: log}

	invoker := mcp.NewClient(mcp.Config{
		BaseURL: cfg.Apify.MCPServerURL,
		Token:   cfg.Apify.Token,
		Timeout: config.GetDuration(cfg.Apify.InvokeTimeout),
	}, apphttp.NewClient(0), log)

	rest := apify.NewClient(cfg.Apify.APIBaseURL, cfg.Apify.Token,
		apphttp.NewClient(config.GetDuration(cfg.Apify.RequestTimeout)), log)

	poller := apify.NewPoller(rest, apify.PollerConfig{
		Interval:     config.GetDuration(cfg.Apify.PollInterval),
		MaxDuration:  config.GetDuration(cfg.Apify.MaxPollDuration),
		FailureLimit: cfg.Apify.StatusFailureLimit,
	}, log)

	deps := pipeline.Deps{
		Invoker:       invoker,
		Poller:        poller,
		Fetcher:       rest,
		Normalizer:    normalize.NewNormalizer(log),
		Registry:      reg,
		Observability: obs,
	}

	if cfg.Cache.Enabled {
		a.redis = database.NewRedis(cfg.Database.Redis)
		if err := a.redis.Ping(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("redis: %w", err)
		}
		deps.Cache = cache.NewDatasetCache(a.redis.Client, cfg.Cache.Prefix, config.GetDuration(cfg.Cache.TTL), log)
	}

	sinks, err := a.openSinks(ctx, cfg)
	if err != nil {
		a.Close()
		return nil, err
	}
	if len(sinks) > 0 {
		deps.Sink = storage.NewMultiSink(sinks...)
	}

	orch, err := pipeline.New(pipeline.Config{
		Token:         cfg.Apify.Token,
		SearchTimeout: config.GetDuration(cfg.Apify.SearchTimeout),
		DatasetLimit:  cfg.Apify.DatasetLimit,
	}, deps, log)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("build pipeline: %w", err)
	}
	a.Orchestrator = orch

	log.Info("search pipeline ready", map[string]interface{}{
		"tools":    len(reg.Tools),
		"cache":    deps.Cache != nil,
		"sinks":    len(sinks),
		"mcpURL":   apphttp.RedactToken(cfg.Apify.MCPServerURL, cfg.Apify.Token),
		"hasToken": cfg.Apify.Token != "",
	})
	return a, nil
}

func (a *App) openSinks(ctx context.Context, cfg *config.Config) ([]storage.ListingSink, error) {
	var sinks []storage.ListingSink

	if cfg.Storage.PostgresEnabled {
		pg, err := database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return nil, err
		}
		a.postgres = pg
		if err := pg.Ping(ctx); err != nil {
			return nil, fmt.Errorf("postgres: %w", err)
		}
		store := storage.NewPostgresStore(pg.DB, cfg.Storage.Table)
		if err := store.EnsureSchema(ctx); err != nil {
			return nil, err
		}
		sinks = append(sinks, store)
	}

	if cfg.Storage.ElasticsearchEnabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		a.es = es
		if err := es.Ping(ctx); err != nil {
			return nil, fmt.Errorf("elasticsearch: %w", err)
		}
		sinks = append(sinks, storage.NewElasticsearchStore(es.Client, cfg.Storage.Index))
	}

	return sinks, nil
}

// Ready pings every store that was opened.
func (a *App) Ready(ctx context.Context) error {
	if a.redis != nil {
		if err := a.redis.Ping(ctx); err != nil {
			return fmt.Errorf("redis: %w", err)
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Ping(ctx); err != nil {
			return fmt.Errorf("postgres: %w", err)
		}
	}
	if a.es != nil {
		if err := a.es.Ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

func (a *App) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", map[string]interface{}{"error": err})
		}
	}
	if a.postgres != nil {
		if err := a.postgres.Close(); err != nil {
			a.logger.Warn("closing postgres", map[string]interface{}{"error": err})
		}
	}
}
