package searchallsources

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rental-aggregator/internal/common/errors"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
	searchproperties "rental-aggregator/internal/workers/search/search-properties"
)

const (
	TaskType = "search-all-sources"
)

var (
	ErrNilInput    = errors.New("input cannot be nil")
	ErrNoSearches  = errors.New("at least one search is required")
	ErrMissingTool = errors.New("every search needs a toolName")
)

// Searcher fans a set of tool searches out concurrently and merges them.
type Searcher interface {
	SearchAll(ctx context.Context, requests []models.SearchRequest) ([]models.UnifiedProperty, []models.SourceResult, error)
}

type Handler struct {
	config   *Config
	searcher Searcher
	onError  *apperrors.ErrorHandler
	logger   logger.Logger
}

func NewHandler(config *Config, searcher Searcher, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		searcher: searcher,
		onError:  apperrors.NewErrorHandler(log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		parseErr := apperrors.NewParseError("job variables", err)
		h.onError.HandleJobError(context.Background(), client, job, parseErr)
		return parseErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		if errors.Is(err, ErrNilInput) ||
			errors.Is(err, ErrNoSearches) ||
			errors.Is(err, ErrMissingTool) {
			err = apperrors.NewInvalidArgumentsError(TaskType, []string{err.Error()})
		}
		// a missing credential is thrown as CONFIGURATION_ERROR
		h.onError.HandleJobError(context.Background(), client, job, err)
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}
	if len(input.Searches) == 0 {
		return nil, ErrNoSearches
	}
	for _, s := range input.Searches {
		if s.ToolName == "" {
			return nil, ErrMissingTool
		}
	}

	searches := input.Searches
	if h.config.MaxSearches > 0 && len(searches) > h.config.MaxSearches {
		h.logger.Warn("too many searches, extra ones dropped", map[string]interface{}{
			"requested": len(searches),
			"max":       h.config.MaxSearches,
		})
		searches = searches[:h.config.MaxSearches]
	}

	props, results, err := h.searcher.SearchAll(ctx, searches)
	if err != nil {
		return nil, err
	}

	summary := searchproperties.BuildOutput(props)
	out := &Output{
		Success:       summary.Success,
		Properties:    summary.Properties,
		Count:         summary.Count,
		Message:       summary.Message,
		Sources:       summary.Sources,
		SourceResults: results,
	}
	if out.Count > 0 {
		out.Message = fmt.Sprintf("Found %d properties across %d sources", out.Count, len(results))
	}

	h.logger.Info("multi-source search completed", map[string]interface{}{
		"searches": len(searches),
		"count":    out.Count,
	})
	return out, nil
}

func (h *Handler) completeJob(client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err,
		})
		return
	}
	if _, err = cmd.Send(context.Background()); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
