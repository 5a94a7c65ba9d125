// Package apify reads run status and dataset items from the Apify REST API.
package apify

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	apperrors "rental-aggregator/internal/common/errors"
	apphttp "rental-aggregator/internal/common/http"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

const (
	DefaultBaseURL      = "https://api.apify.com/v2"
	DefaultDatasetLimit = 100
)

// Run is the subset of an actor run the pipeline needs.
type Run struct {
	ID               string           `json:"id"`
	Status           models.RunStatus `json:"status"`
	DefaultDatasetID string           `json:"defaultDatasetId"`
}

type runEnvelope struct {
	Data *Run `json:"data"`
}

type Client struct {
	baseURL string
	token   string
	http    *apphttp.Client
	logger  logger.Logger
}

func NewClient(baseURL, token string, httpClient *apphttp.Client, log logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if httpClient == nil {
		httpClient = apphttp.NewClient(0)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    httpClient,
		logger:  log,
	}
}

// GetRun fetches the current state of runID.
func (c *Client) GetRun(ctx context.Context, runID string) (*Run, error) {
	endpoint := fmt.Sprintf("%s/actor-runs/%s?token=%s",
		c.baseURL, url.PathEscape(runID), url.QueryEscape(c.token))

	var env runEnvelope
	if err := c.http.GetJSON(ctx, endpoint, "run status fetch", &env); err != nil {
		return nil, err
	}
	if env.Data == nil {
		return nil, apperrors.NewProtocolError("run status response has no data object")
	}
	return env.Data, nil
}

// FetchRecords reads up to limit clean items from datasetID. Items that are not
// JSON objects are dropped.
func (c *Client) FetchRecords(ctx context.Context, datasetID string, limit int) ([]models.RawRecord, error) {
	if limit <= 0 {
		limit = DefaultDatasetLimit
	}

	q := url.Values{}
	q.Set("token", c.token)
	q.Set("format", "json")
	q.Set("clean", "true")
	q.Set("limit", strconv.Itoa(limit))
	endpoint := fmt.Sprintf("%s/datasets/%s/items?%s", c.baseURL, url.PathEscape(datasetID), q.Encode())

	c.logger.Debug("Fetching dataset items", map[string]interface{}{
		"dataset_id": datasetID,
		"url":        apphttp.RedactToken(endpoint, url.QueryEscape(c.token)),
	})

	var items []interface{}
	if err := c.http.GetJSON(ctx, endpoint, "dataset fetch", &items); err != nil {
		return nil, err
	}

	records := make([]models.RawRecord, 0, len(items))
	for _, item := range items {
		if rec := models.AsRecord(item); rec != nil {
			records = append(records, rec)
		}
	}
	if dropped := len(items) - len(records); dropped > 0 {
		c.logger.Warn("Dropped non-object dataset items", map[string]interface{}{
			"dataset_id": datasetID,
			"dropped":    dropped,
		})
	}
	return records, nil
}
