package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCode_MatchesThroughWrapping(t *testing.T) {
	base := NewRunFailedError("run-1", "FAILED")
	wrapped := fmt.Errorf("poll: %w", base)

	assert.True(t, IsCode(wrapped, ErrCodeRunFailed))
	assert.False(t, IsCode(wrapped, ErrCodePollTimeout))
	assert.False(t, IsCode(nil, ErrCodeRunFailed))
	assert.Equal(t, ErrCodeRunFailed, CodeOf(wrapped))
}

func TestCodeOf_PlainError(t *testing.T) {
	assert.Equal(t, ErrCodeInternal, CodeOf(stderrors.New("boom")))
}

func TestTransportError_UnwrapsCause(t *testing.T) {
	cause := stderrors.New("connection refused")
	err := NewTransportError("status fetch", cause)

	assert.True(t, stderrors.Is(err, cause))
	assert.Contains(t, err.Error(), "TRANSPORT_ERROR")
	assert.Contains(t, err.Error(), "connection refused")
	assert.True(t, err.Retryable)
}

func TestAsStandard(t *testing.T) {
	std := AsStandard(stderrors.New("boom"))
	require.NotNil(t, std)
	assert.Equal(t, ErrCodeInternal, std.Code)

	orig := NewConfigurationError("APIFY_TOKEN is not set")
	assert.Same(t, orig, AsStandard(fmt.Errorf("wrap: %w", orig)))
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
		wantCode    string
	}{
		{"transport is retried", NewTransportError("fetch", stderrors.New("x")), 3, "TRANSPORT_ERROR"},
		{"poll timeout retried once", NewPollTimeoutError("r", 9*time.Minute), 1, "POLL_TIMEOUT"},
		{"configuration is terminal", NewConfigurationError("missing token"), 0, "CONFIGURATION_ERROR"},
		{"run failure is terminal", NewRunFailedError("r", "ABORTED"), 0, "RUN_FAILED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, tt.wantCode, b.Code)
			assert.Equal(t, tt.wantRetries, b.Retries)

			vars := b.ToErrorVariables()
			assert.Equal(t, tt.wantCode, vars["errorCode"])
			assert.Equal(t, tt.wantCode, vars["originalErrorCode"])
		})
	}
}

func TestGetErrorCategory(t *testing.T) {
	assert.Equal(t, "NETWORK", GetErrorCategory(ErrCodeTimeout))
	assert.Equal(t, "RUN", GetErrorCategory(ErrCodeRunFailed))
	assert.Equal(t, "VALIDATION", GetErrorCategory(ErrCodeInvalidArguments))
	assert.Equal(t, "OTHER", GetErrorCategory(ErrCodeInternal))
}
