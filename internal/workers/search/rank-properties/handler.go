package rankproperties

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

const (
	TaskType = "rank-properties"
)

const (
	priceMatchPoints    = 10
	bedroomsMatchPoints = 5
	imagesPoints        = 2
)

var (
	ErrNilInput = errors.New("input cannot be nil")
)

type Handler struct {
	config *Config
	logger logger.Logger
}

func NewHandler(config *Config, log logger.Logger) *Handler {
	return &Handler{
		config: config,
		logger: log.WithFields(map[string]interface{}{"taskType": TaskType}),
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		err = fmt.Errorf("parse input: %w", err)
		h.failJob(client, job, "PARSE_ERROR", err.Error())
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.failJob(client, job, "RANKING_FAILED", err.Error())
		return err
	}

	h.completeJob(client, job, output)
	return nil
}

func (h *Handler) execute(_ context.Context, input *Input) (*Output, error) {
	if input == nil {
		return nil, ErrNilInput
	}

	start := time.Now()

	ranked := make([]RankedProperty, 0, len(input.Properties))
	for _, p := range input.Properties {
		ranked = append(ranked, RankedProperty{
			UnifiedProperty: p,
			Score:           Score(p, input.MaxPrice, input.Bedrooms),
		})
	}

	// equal scores keep their incoming order
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	if h.config.MaxItems > 0 && len(ranked) > h.config.MaxItems {
		ranked = ranked[:h.config.MaxItems]
	}

	h.logger.Info("ranking completed", map[string]interface{}{
		"inputCount":  len(input.Properties),
		"outputCount": len(ranked),
		"durationMs":  time.Since(start).Milliseconds(),
	})

	return &Output{RankedProperties: ranked, Count: len(ranked)}, nil
}

// Score rates one listing against the caller's budget and bedroom count.
func Score(p models.UnifiedProperty, maxPrice float64, bedrooms *int) int {
	score := 0
	if maxPrice > 0 && p.PriceNumeric <= maxPrice {
		score += priceMatchPoints
	}
	if bedrooms != nil && p.Bedrooms == *bedrooms {
		score += bedroomsMatchPoints
	}
	if len(p.Images) > 0 {
		score += imagesPoints
	}
	return score
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

func (h *Handler) failJob(client worker.JobClient, job entities.Job, errorCode, errorMessage string) {
	h.logger.Error("job failed", map[string]interface{}{
		"jobKey":       job.Key,
		"errorCode":    errorCode,
		"errorMessage": errorMessage,
	})

	_, err := client.NewThrowErrorCommand().
		JobKey(job.Key).
		ErrorCode(errorCode).
		ErrorMessage(errorMessage).
		Send(context.Background())
	if err != nil {
		h.logger.Error("failed to throw error", map[string]interface{}{
			"error": err,
		})
	}
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
