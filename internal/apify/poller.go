package apify

import (
	"context"
	"time"

	apperrors "rental-aggregator/internal/common/errors"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/common/metrics"
	"rental-aggregator/internal/models"
)

const (
	DefaultPollInterval       = 15 * time.Second
	DefaultMaxPollDuration    = 9 * time.Minute
	DefaultStatusFailureLimit = 3
)

// RunGetter is satisfied by Client.
type RunGetter interface {
	GetRun(ctx context.Context, runID string) (*Run, error)
}

type PollerConfig struct {
	Interval     time.Duration
	MaxDuration  time.Duration
	FailureLimit int
}

// Poller waits for a run to reach a terminal status.
type Poller struct {
	runs   RunGetter
	config PollerConfig
	logger logger.Logger
	sleep  func(ctx context.Context, d time.Duration) error
	now    func() time.Time
}

func NewPoller(runs RunGetter, config PollerConfig, log logger.Logger) *Poller {
	if config.Interval <= 0 {
		config.Interval = DefaultPollInterval
	}
	if config.MaxDuration <= 0 {
		config.MaxDuration = DefaultMaxPollDuration
	}
	if config.FailureLimit <= 0 {
		config.FailureLimit = DefaultStatusFailureLimit
	}
	return &Poller{
		runs:   runs,
		config: config,
		logger: log,
		sleep:  sleepContext,
		now:    time.Now,
	}
}

// WithClock swaps the sleep and time sources, for tests.
func (p *Poller) WithClock(sleep func(ctx context.Context, d time.Duration) error, now func() time.Time) *Poller {
	cp := *p
	cp.sleep = sleep
	cp.now = now
	return &cp
}

// PollUntilDone returns the dataset id of runID once it succeeds. The id is empty
// when the status payload carries none. A failed run, repeated status-fetch
// failures and an exhausted time budget are all errors.
func (p *Poller) PollUntilDone(ctx context.Context, runID string) (string, error) {
	start := p.now()
	failures := 0
	attempt := 0

	for {
		elapsed := p.now().Sub(start)
		if elapsed >= p.config.MaxDuration {
			return "", apperrors.NewPollTimeoutError(runID, elapsed)
		}
		attempt++

		run, err := p.runs.GetRun(ctx, runID)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", apperrors.NewTimeoutError("poll run "+runID, p.now().Sub(start), ctx.Err())
			}
			failures++
			metrics.PollAttempts.WithLabelValues("error").Inc()
			p.logger.Warn("Run status fetch failed", map[string]interface{}{
				"run_id":   runID,
				"attempt":  attempt,
				"failures": failures,
				"error":    err.Error(),
			})
			if failures >= p.config.FailureLimit {
				if apperrors.IsCode(err, apperrors.ErrCodeTransport) {
					return "", err
				}
				return "", apperrors.NewTransportError("run status fetch", err)
			}

		default:
			failures = 0
			metrics.PollAttempts.WithLabelValues(string(run.Status)).Inc()
			p.logger.Debug("Run status", map[string]interface{}{
				"run_id":     runID,
				"attempt":    attempt,
				"status":     string(run.Status),
				"dataset_id": run.DefaultDatasetID,
			})

			if run.Status == models.RunStatusSucceeded {
				p.logger.Info("Run succeeded", map[string]interface{}{
					"run_id":     runID,
					"dataset_id": run.DefaultDatasetID,
					"attempts":   attempt,
				})
				return run.DefaultDatasetID, nil
			}
			if run.Status.Failed() {
				return "", apperrors.NewRunFailedError(runID, string(run.Status))
			}
		}

		if err := p.sleep(ctx, p.config.Interval); err != nil {
			return "", apperrors.NewTimeoutError("poll run "+runID, p.now().Sub(start), err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
