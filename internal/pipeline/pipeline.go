// Package pipeline runs a property search end to end: invoke the tool, wait for
// its run, fetch and normalize the dataset, and dedupe the listings.
package pipeline

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	apperrors "rental-aggregator/internal/common/errors"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/common/metrics"
	"rental-aggregator/internal/common/observability"
	"rental-aggregator/internal/common/validation"
	"rental-aggregator/internal/dedupe"
	"rental-aggregator/internal/models"
	"rental-aggregator/internal/normalize"
	"rental-aggregator/internal/storage"
	"rental-aggregator/pkg/registry"
)

const (
	DefaultSearchTimeout = 10 * time.Minute
	DefaultDatasetLimit  = 100

	outcomeOK            = "ok"
	outcomeEmpty         = "empty"
	outcomeDegraded      = "degraded"
	outcomeMisconfigured = "misconfigured"
)

type Invoker interface {
	Invoke(ctx context.Context, toolName string, args map[string]interface{}) (models.JobHandle, error)
}

type RunPoller interface {
	PollUntilDone(ctx context.Context, runID string) (string, error)
}

type RecordFetcher interface {
	FetchRecords(ctx context.Context, datasetID string, limit int) ([]models.RawRecord, error)
}

type DatasetCache interface {
	Get(ctx context.Context, datasetID string) ([]models.RawRecord, bool, error)
	Set(ctx context.Context, datasetID string, records []models.RawRecord) error
}

type Config struct {
	Token         string
	SearchTimeout time.Duration
	DatasetLimit  int
}

// Deps are the collaborators of an Orchestrator. Registry, Cache, Sink and
// Observability are optional.
type Deps struct {
	Invoker       Invoker
	Poller        RunPoller
	Fetcher       RecordFetcher
	Normalizer    *normalize.Normalizer
	Registry      *registry.ToolRegistry
	Cache         DatasetCache
	Sink          storage.ListingSink
	Observability *observability.Observability
}

type Orchestrator struct {
	config    Config
	deps      Deps
	validator *validation.SchemaValidator
	obs       *observability.Observability
	logger    logger.Logger
}

func New(config Config, deps Deps, log logger.Logger) (*Orchestrator, error) {
	if config.SearchTimeout <= 0 {
		config.SearchTimeout = DefaultSearchTimeout
	}
	if config.DatasetLimit <= 0 {
		config.DatasetLimit = DefaultDatasetLimit
	}
	if deps.Registry == nil {
		deps.Registry = registry.Default()
	}
	if deps.Normalizer == nil {
		deps.Normalizer = normalize.NewNormalizer(log)
	}
	obs := deps.Observability
	if obs == nil {
		obs = observability.NewNoop()
	}

	validator := validation.NewSchemaValidator()
	for _, tool := range deps.Registry.Tools {
		if err := validator.Register(tool.BackendName, tool.InputSchema); err != nil {
			return nil, err
		}
	}

	return &Orchestrator{
		config:    config,
		deps:      deps,
		validator: validator,
		obs:       obs,
		logger:    log,
	}, nil
}

// Search runs one tool and returns its deduplicated listings. Only a missing
// credential is reported as an error; every other failure is logged and yields an
// empty, non-nil result.
func (o *Orchestrator) Search(ctx context.Context, toolName string, args map[string]interface{}) ([]models.UnifiedProperty, error) {
	if err := o.checkCredential(toolName); err != nil {
		return nil, err
	}

	props, _, _ := o.execute(ctx, toolName, args)
	return props, nil
}

// SearchAll runs every request concurrently. A failing source contributes nothing
// and never cancels its siblings; duplicates across sources are removed after all
// of them have settled.
func (o *Orchestrator) SearchAll(ctx context.Context, requests []models.SearchRequest) ([]models.UnifiedProperty, []models.SourceResult, error) {
	for _, req := range requests {
		if err := o.checkCredential(req.ToolName); err != nil {
			return nil, nil, err
		}
	}

	var (
		g        errgroup.Group
		mu       sync.Mutex
		combined []models.UnifiedProperty
		sources  = make([]models.SourceResult, len(requests))
	)

	for i, req := range requests {
		g.Go(func() error {
			props, backend, err := o.execute(ctx, req.ToolName, req.ToolInput)

			result := models.SourceResult{ToolName: req.ToolName, Backend: backend, Count: len(props)}
			if err != nil {
				result.Error = err.Error()
			}

			mu.Lock()
			combined = append(combined, props...)
			sources[i] = result
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	unique := dedupe.Dedupe(combined)
	o.logger.Info("Multi-source search completed", map[string]interface{}{
		"sources":  len(requests),
		"combined": len(combined),
		"unique":   len(unique),
	})
	return unique, sources, nil
}

func (o *Orchestrator) checkCredential(toolName string) error {
	if o.config.Token != "" {
		return nil
	}
	metrics.SearchesTotal.WithLabelValues(toolName, outcomeMisconfigured).Inc()
	o.logger.Error("Search rejected: API token not configured", map[string]interface{}{
		"tool": toolName,
	})
	return apperrors.NewConfigurationError("APIFY_TOKEN is not set")
}

// execute is the sequential invoke → poll → fetch → normalize → dedupe chain for
// one tool. The returned slice is never nil.
func (o *Orchestrator) execute(ctx context.Context, toolName string, args map[string]interface{}) ([]models.UnifiedProperty, string, error) {
	start := time.Now()
	backend := o.deps.Registry.Resolve(toolName)
	log := o.logger.With(map[string]interface{}{
		"tool":    toolName,
		"backend": backend,
	})

	metrics.SearchesActive.WithLabelValues(backend).Inc()
	defer metrics.SearchesActive.WithLabelValues(backend).Dec()

	ctx, cancel := context.WithTimeout(ctx, o.config.SearchTimeout)
	defer cancel()

	ctx, span := o.obs.StartSpan(ctx, "property.search",
		attribute.String("tool", toolName),
		attribute.String("backend", backend),
	)

	props, err := o.run(ctx, backend, args, log)

	outcome := outcomeOK
	switch {
	case err != nil:
		outcome = outcomeDegraded
		log.Warn("Search degraded to empty result", map[string]interface{}{
			"error_code":  string(apperrors.CodeOf(err)),
			"error":       err.Error(),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		props = []models.UnifiedProperty{}
	case len(props) == 0:
		outcome = outcomeEmpty
	}
	if err == nil {
		log.Info("Search completed", map[string]interface{}{
			"count":       len(props),
			"duration_ms": time.Since(start).Milliseconds(),
		})
	}

	observability.EndSpan(span, err)
	metrics.SearchesTotal.WithLabelValues(backend, outcome).Inc()
	o.obs.RecordSearch(ctx, backend, outcome, time.Since(start))
	return props, backend, err
}

func (o *Orchestrator) run(ctx context.Context, backend string, args map[string]interface{}, log logger.Logger) ([]models.UnifiedProperty, error) {
	if tool, ok := o.deps.Registry.Find(backend); ok && !tool.Enabled {
		return nil, apperrors.NewUnknownToolError(backend + " (disabled)")
	}

	result, err := o.validator.Validate(backend, args)
	if err != nil {
		return nil, apperrors.NewInvalidArgumentsError(backend, []string{err.Error()})
	}
	if !result.Valid {
		return nil, apperrors.NewInvalidArgumentsError(backend, result.Messages())
	}

	var handle models.JobHandle
	err = o.stage(ctx, backend, "invoke", func(ctx context.Context) error {
		log.Info("Tool invoked", nil)
		var err error
		handle, err = o.deps.Invoker.Invoke(ctx, backend, args)
		return err
	})
	if err != nil {
		return nil, err
	}

	datasetID := handle.DatasetID
	if handle.RunID != "" {
		err = o.stage(ctx, backend, "poll", func(ctx context.Context) error {
			log.Info("Polling run", map[string]interface{}{"run_id": handle.RunID})
			id, err := o.deps.Poller.PollUntilDone(ctx, handle.RunID)
			if err == nil && id != "" {
				datasetID = id
			}
			return err
		})
		if err != nil {
			return nil, err
		}
	}
	if datasetID == "" {
		return nil, apperrors.NewProtocolError("no dataset id available after invocation")
	}

	var records []models.RawRecord
	err = o.stage(ctx, backend, "fetch", func(ctx context.Context) error {
		var err error
		records, err = o.fetch(ctx, datasetID, log)
		return err
	})
	if err != nil {
		return nil, err
	}
	metrics.RecordsTotal.WithLabelValues(backend, "fetched").Add(float64(len(records)))
	log.Info("Records fetched", map[string]interface{}{
		"dataset_id": datasetID,
		"count":      len(records),
	})

	var props []models.UnifiedProperty
	_ = o.stage(ctx, backend, "normalize", func(context.Context) error {
		props = o.deps.Normalizer.Normalize(records, backend)
		return nil
	})
	metrics.RecordsTotal.WithLabelValues(backend, "normalized").Add(float64(len(props)))

	unique := dedupe.Dedupe(props)
	metrics.RecordsTotal.WithLabelValues(backend, "deduplicated").Add(float64(len(unique)))
	log.Info("Properties deduplicated", map[string]interface{}{
		"normalized": len(props),
		"unique":     len(unique),
	})

	o.store(ctx, backend, unique, log)
	return unique, nil
}

func (o *Orchestrator) fetch(ctx context.Context, datasetID string, log logger.Logger) ([]models.RawRecord, error) {
	if o.deps.Cache != nil {
		records, found, err := o.deps.Cache.Get(ctx, datasetID)
		if err != nil {
			log.Warn("Dataset cache lookup failed", map[string]interface{}{"error": err.Error()})
		}
		if found {
			log.Debug("Dataset served from cache", map[string]interface{}{"dataset_id": datasetID})
			return records, nil
		}
	}

	records, err := o.deps.Fetcher.FetchRecords(ctx, datasetID, o.config.DatasetLimit)
	if err != nil {
		return nil, err
	}

	if o.deps.Cache != nil {
		if err := o.deps.Cache.Set(ctx, datasetID, records); err != nil {
			log.Warn("Dataset cache write failed", map[string]interface{}{"error": err.Error()})
		}
	}
	return records, nil
}

func (o *Orchestrator) store(ctx context.Context, backend string, props []models.UnifiedProperty, log logger.Logger) {
	if o.deps.Sink == nil || len(props) == 0 {
		return
	}
	err := o.stage(ctx, backend, "store", func(ctx context.Context) error {
		return o.deps.Sink.Store(ctx, backend, props)
	})
	if err != nil {
		log.Warn("Storing listings failed", map[string]interface{}{
			"sink":  o.deps.Sink.Name(),
			"error": err.Error(),
		})
	}
}

// stage wraps fn in a span and records its duration.
func (o *Orchestrator) stage(ctx context.Context, backend, name string, fn func(ctx context.Context) error) error {
	start := time.Now()
	ctx, span := o.obs.StartSpan(ctx, "property.search."+name, attribute.String("backend", backend))
	err := fn(ctx)
	observability.EndSpan(span, err)
	metrics.StageDuration.WithLabelValues(backend, name).Observe(time.Since(start).Seconds())
	return err
}
