package http

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	apperrors "rental-aggregator/internal/common/errors"
)

// maxErrorBody caps how much of a failed response body ends up in an error.
const maxErrorBody = 512

type Client struct {
	httpClient *http.Client
}

// NewClient returns a client whose requests are bounded by timeout. Zero means no bound,
// which streaming callers rely on.
func NewClient(timeout time.Duration) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout}}
}

// NewClientWithTransport is NewClient with a custom round tripper.
func NewClientWithTransport(timeout time.Duration, rt http.RoundTripper) *Client {
	return &Client{httpClient: &http.Client{Timeout: timeout, Transport: rt}}
}

func (c *Client) Do(req *http.Request) (*http.Response, error) {
	return c.httpClient.Do(req)
}

// GetJSON issues a GET and decodes a JSON body into out. Network failures and
// non-2xx statuses come back as TransportError, undecodable bodies as ParseError.
func (c *Client) GetJSON(ctx context.Context, url, operation string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return apperrors.NewTransportError(operation, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewTransportError(operation, err)
	}
	defer resp.Body.Close()

	if err := CheckStatus(resp); err != nil {
		return apperrors.NewTransportError(operation, err)
	}

	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return apperrors.NewParseError(operation+" response", err)
	}
	return nil
}

// CheckStatus turns a non-2xx response into an error carrying a prefix of the body.
func CheckStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
}

// RedactToken hides a credential embedded in a URL before it is logged.
func RedactToken(s, token string) string {
	if token == "" {
		return s
	}
	return strings.ReplaceAll(s, token, "<TOKEN_HIDDEN>")
}
