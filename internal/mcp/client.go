package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	apperrors "rental-aggregator/internal/common/errors"
	apphttp "rental-aggregator/internal/common/http"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

const DefaultInvokeTimeout = 10 * time.Minute

type Config struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client invokes MCP tools. Each Invoke opens its own SSE session, so a Client is
// safe for concurrent use.
type Client struct {
	config Config
	http   *apphttp.Client
	logger logger.Logger
	newID  func() string
}

// NewClient builds an invoker. httpClient must not impose a total request timeout,
// since the event stream stays open for the whole invocation.
func NewClient(config Config, httpClient *apphttp.Client, log logger.Logger) *Client {
	if config.Timeout <= 0 {
		config.Timeout = DefaultInvokeTimeout
	}
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	if httpClient == nil {
		httpClient = apphttp.NewClient(0)
	}
	return &Client{
		config: config,
		http:   httpClient,
		logger: log,
		newID:  func() string { return requestIDPrefix + uuid.NewString() },
	}
}

type streamItem struct {
	event Event
	err   error
}

// Invoke calls toolName with args and waits for the result that identifies the
// remote run. The event stream is closed on every return path.
func (c *Client) Invoke(ctx context.Context, toolName string, args map[string]interface{}) (models.JobHandle, error) {
	if c.config.Token == "" {
		return models.JobHandle{}, apperrors.NewConfigurationError("APIFY_TOKEN is not set")
	}
	if args == nil {
		args = map[string]interface{}{}
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	requestID := c.newID()
	log := c.logger.With(map[string]interface{}{
		"tool":       toolName,
		"request_id": requestID,
	})

	sseURL := fmt.Sprintf("%s/sse?token=%s", c.config.BaseURL, url.QueryEscape(c.config.Token))
	log.Info("Opening MCP event stream", map[string]interface{}{
		"url": apphttp.RedactToken(sseURL, url.QueryEscape(c.config.Token)),
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sseURL, nil)
	if err != nil {
		return models.JobHandle{}, apperrors.NewTransportError("open event stream", err)
	}
	req.Header.Set("Accept", acceptEventStream)
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.http.Do(req)
	if err != nil {
		return models.JobHandle{}, c.streamError(ctx, "open event stream", err)
	}
	defer resp.Body.Close()

	if err := apphttp.CheckStatus(resp); err != nil {
		return models.JobHandle{}, apperrors.NewTransportError("open event stream", err)
	}

	items := make(chan streamItem)
	done := make(chan struct{})
	defer close(done)
	go readEvents(resp.Body, items, done)

	posted := false
	for {
		var item streamItem
		select {
		case <-ctx.Done():
			log.Warn("MCP invocation timed out", map[string]interface{}{
				"posted": posted,
			})
			return models.JobHandle{}, c.streamError(ctx, "await tool result", ctx.Err())
		case item = <-items:
		}

		if item.err != nil {
			if ctx.Err() != nil {
				return models.JobHandle{}, c.streamError(ctx, "await tool result", ctx.Err())
			}
			if item.err == io.EOF || item.err == io.ErrUnexpectedEOF {
				return models.JobHandle{}, apperrors.NewProtocolError("event stream ended before a result was received")
			}
			return models.JobHandle{}, apperrors.NewTransportError("read event stream", item.err)
		}

		switch item.event.Name {
		case eventEndpoint:
			if posted {
				continue
			}
			sessionID, err := parseSessionID(item.event.Data)
			if err != nil {
				return models.JobHandle{}, err
			}
			log.Debug("MCP session established", map[string]interface{}{
				"session_id": sessionID,
			})
			if err := c.postToolCall(ctx, sessionID, requestID, toolName, args); err != nil {
				if ctx.Err() != nil {
					return models.JobHandle{}, c.streamError(ctx, "post tool call", ctx.Err())
				}
				return models.JobHandle{}, err
			}
			posted = true

		case eventMessage:
			handle, matched, err := c.handleMessage(item.event.Data, requestID, log)
			if !matched {
				continue
			}
			if err != nil {
				return models.JobHandle{}, err
			}
			log.Info("MCP tool returned job handle", map[string]interface{}{
				"run_id":     handle.RunID,
				"dataset_id": handle.DatasetID,
			})
			return handle, nil
		}
	}
}

// handleMessage decodes one stream message. matched is false for messages that
// belong to other requests or cannot be decoded.
func (c *Client) handleMessage(data, requestID string, log logger.Logger) (models.JobHandle, bool, error) {
	var msg Response
	if err := json.Unmarshal([]byte(data), &msg); err != nil {
		log.Debug("Ignoring undecodable stream message", map[string]interface{}{
			"error": err.Error(),
		})
		return models.JobHandle{}, false, nil
	}
	if !msg.MatchesID(requestID) {
		return models.JobHandle{}, false, nil
	}

	if msg.Error != nil {
		return models.JobHandle{}, true, apperrors.NewProtocolError(
			fmt.Sprintf("tool returned error %d: %s", msg.Error.Code, msg.Error.Message))
	}
	if len(msg.Result) == 0 {
		return models.JobHandle{}, true, apperrors.NewProtocolError("response has neither result nor error")
	}

	dec := json.NewDecoder(bytes.NewReader(msg.Result))
	dec.UseNumber()
	var result map[string]interface{}
	if err := dec.Decode(&result); err != nil {
		return models.JobHandle{}, true, apperrors.NewProtocolError("result is not an object: " + err.Error())
	}

	handle, err := ExtractHandle(result)
	if err != nil {
		log.Warn("Could not read run information from tool result", map[string]interface{}{
			"error": err.Error(),
		})
	}
	if !handle.Valid() {
		return models.JobHandle{}, true, apperrors.NewProtocolError("result missing pollable identifiers")
	}
	return handle, true, nil
}

func (c *Client) postToolCall(ctx context.Context, sessionID, requestID, toolName string, args map[string]interface{}) error {
	body, err := json.Marshal(Request{
		JSONRPC: jsonRPCVersion,
		ID:      requestID,
		Method:  methodToolsCall,
		Params:  ToolCallParams{Name: toolName, Arguments: args},
	})
	if err != nil {
		return apperrors.NewInvalidArgumentsError(toolName, []string{err.Error()})
	}

	messageURL := fmt.Sprintf("%s/message?token=%s&session_id=%s",
		c.config.BaseURL, url.QueryEscape(c.config.Token), url.QueryEscape(sessionID))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, messageURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewTransportError("post tool call", err)
	}
	req.Header.Set("Content-Type", contentTypeJSON)

	resp, err := c.http.Do(req)
	if err != nil {
		return apperrors.NewTransportError("post tool call", err)
	}
	defer resp.Body.Close()

	if err := apphttp.CheckStatus(resp); err != nil {
		return apperrors.NewTransportError("post tool call", err)
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func (c *Client) streamError(ctx context.Context, operation string, err error) error {
	if ctx.Err() == context.DeadlineExceeded {
		return apperrors.NewTimeoutError(operation, c.config.Timeout, err)
	}
	return apperrors.NewTransportError(operation, err)
}

func parseSessionID(endpoint string) (string, error) {
	_, after, found := strings.Cut(endpoint, sessionIDMarker)
	sessionID, _, _ := strings.Cut(after, "&")
	sessionID = strings.TrimSpace(sessionID)
	if !found || sessionID == "" {
		return "", apperrors.NewProtocolError("endpoint event carries no session id: " + endpoint)
	}
	return sessionID, nil
}

// readEvents feeds items until the stream fails or done is closed.
func readEvents(body io.Reader, items chan<- streamItem, done <-chan struct{}) {
	reader := newEventReader(body)
	for {
		ev, err := reader.Next()
		select {
		case items <- streamItem{event: ev, err: err}:
		case <-done:
			return
		}
		if err != nil {
			return
		}
	}
}
