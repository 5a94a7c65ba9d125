package apify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "rental-aggregator/internal/common/errors"
	"rental-aggregator/internal/common/logger"
	"rental-aggregator/internal/models"
)

func TestGetRun(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/actor-runs/run-7", r.URL.Path)
		assert.Equal(t, "tok", r.URL.Query().Get("token"))
		_, _ = w.Write([]byte(`{"data":{"id":"run-7","status":"RUNNING","defaultDatasetId":"ds-7"}}`))
	}))
	defer server.Close()

	c := NewClient(server.URL+"/v2", "tok", nil, logger.NewTestLogger(t))
	run, err := c.GetRun(context.Background(), "run-7")
	require.NoError(t, err)
	assert.Equal(t, models.RunStatusRunning, run.Status)
	assert.Equal(t, "ds-7", run.DefaultDatasetID)
}

func TestGetRun_MissingData(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"type":"record-not-found"}}`))
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "tok", nil, logger.NewNoOpLogger()).GetRun(context.Background(), "x")
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeProtocol))
}

func TestFetchRecords(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/datasets/ds-1/items", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "tok", q.Get("token"))
		assert.Equal(t, "json", q.Get("format"))
		assert.Equal(t, "true", q.Get("clean"))
		assert.Equal(t, "25", q.Get("limit"))
		_, _ = w.Write([]byte(`[{"title":"A","price":1200},"stray",{"title":"B"},null]`))
	}))
	defer server.Close()

	records, err := NewClient(server.URL, "tok", nil, logger.NewTestLogger(t)).FetchRecords(context.Background(), "ds-1", 25)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "A", records[0].Text("title"))
	assert.Equal(t, "1200", records[0].Text("price"))
}

func TestFetchRecords_DefaultLimitAndErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "100", r.URL.Query().Get("limit"))
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer server.Close()

	_, err := NewClient(server.URL, "tok", nil, logger.NewNoOpLogger()).FetchRecords(context.Background(), "ds-1", 0)
	assert.True(t, apperrors.IsCode(err, apperrors.ErrCodeTransport))
}
