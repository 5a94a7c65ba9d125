package searchproperties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	apperrors "rental-aggregator/internal/common/errors"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

const (
	TaskType = "search-properties"
)

var (
	ErrNilInput        = errors.New("input cannot be nil")
	ErrMissingToolName = errors.New("toolName is required")
)

// Searcher runs one tool search end to end.
type Searcher interface {
	Search(ctx context.Context, toolName string, args map[string]interface{}) ([]models.UnifiedProperty, error)
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
		if errors.Is(err, ErrNilInput) || errors.Is(err, ErrMissingToolName) {
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
	if input.ToolName == "" {
		return nil, ErrMissingToolName
	}

	props, err := h.searcher.Search(ctx, input.ToolName, input.ToolInput)
	if err != nil {
		return nil, err
	}

	return BuildOutput(props), nil
}

// BuildOutput summarizes a property list the way callers expect it.
func BuildOutput(props []models.UnifiedProperty) *Output {
	if props == nil {
		props = []models.UnifiedProperty{}
	}
	out := &Output{
		Success:    true,
		Properties: props,
		Count:      len(props),
		Sources:    sources(props),
	}
	if len(props) == 0 {
		out.Message = "No properties found matching the search criteria"
	} else {
		out.Message = fmt.Sprintf("Found %d properties", len(props))
	}
	return out
}

func sources(props []models.UnifiedProperty) []string {
	seen := make(map[string]bool)
	out := []string{}
	for _, p := range props {
		if p.Source == "" || seen[p.Source] {
			continue
		}
		seen[p.Source] = true
		out = append(out, p.Source)
	}
	sort.Strings(out)
	return out
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
	_, err = cmd.Send(context.Background())
	if err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
