// Package errors provides the error taxonomy shared by the search pipeline
// and the BPMN conversion used by the job workers.
package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

const (
	ErrCodeConfiguration    ErrorCode = "CONFIGURATION_ERROR"
	ErrCodeTransport        ErrorCode = "TRANSPORT_ERROR"
	ErrCodeProtocol         ErrorCode = "PROTOCOL_ERROR"
	ErrCodeTimeout          ErrorCode = "TIMEOUT_ERROR"
	ErrCodeRunFailed        ErrorCode = "RUN_FAILED"
	ErrCodePollTimeout      ErrorCode = "POLL_TIMEOUT"
	ErrCodeParse            ErrorCode = "PARSE_ERROR"
	ErrCodeInvalidArguments ErrorCode = "INVALID_TOOL_ARGUMENTS"
	ErrCodeUnknownTool      ErrorCode = "UNKNOWN_TOOL"
	ErrCodeInternal         ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Cause     error                  `json:"-"`
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.Cause
}

// Is matches another *StandardError by code, so errors.Is(err, &StandardError{Code: c}) works.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Cause:     cause,
		Timestamp: time.Now().UTC(),
	}
}

// NewConfigurationError reports missing or unusable configuration, typically the API credential.
func NewConfigurationError(details string) *StandardError {
	return newError(ErrCodeConfiguration, "Configuration error", details, false, nil)
}

// NewTransportError wraps a network failure or a non-success HTTP status.
func NewTransportError(operation string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeTransport, fmt.Sprintf("Transport failure during %s", operation), details, true, err)
}

// NewProtocolError reports a malformed or unexpected message from the tool backend.
func NewProtocolError(details string) *StandardError {
	return newError(ErrCodeProtocol, "Protocol error", details, false, nil)
}

// NewTimeoutError reports that operation did not finish within its bound.
func NewTimeoutError(operation string, after time.Duration, err error) *StandardError {
	e := newError(ErrCodeTimeout, fmt.Sprintf("%s timed out after %s", operation, after), "", true, err)
	if err != nil {
		e.Details = err.Error()
	}
	return e
}

// NewRunFailedError reports a run that ended in a terminal failure status.
func NewRunFailedError(runID, status string) *StandardError {
	e := newError(ErrCodeRunFailed, "Run did not succeed", fmt.Sprintf("run %s finished with status %s", runID, status), false, nil)
	e.Metadata = map[string]interface{}{"runId": runID, "status": status}
	return e
}

// NewPollTimeoutError reports that a run was still not terminal when polling gave up.
func NewPollTimeoutError(runID string, waited time.Duration) *StandardError {
	e := newError(ErrCodePollTimeout, "Run did not finish in time", fmt.Sprintf("run %s still pending after %s", runID, waited), true, nil)
	e.Metadata = map[string]interface{}{"runId": runID}
	return e
}

// NewParseError wraps a payload decoding failure.
func NewParseError(what string, err error) *StandardError {
	details := ""
	if err != nil {
		details = err.Error()
	}
	return newError(ErrCodeParse, fmt.Sprintf("Unable to parse %s", what), details, false, err)
}

// NewInvalidArgumentsError reports tool arguments that fail the tool's input schema.
func NewInvalidArgumentsError(tool string, problems []string) *StandardError {
	e := newError(ErrCodeInvalidArguments, fmt.Sprintf("Invalid arguments for tool %s", tool), strings.Join(problems, "; "), false, nil)
	e.Metadata = map[string]interface{}{"tool": tool}
	return e
}

// NewUnknownToolError reports a tool name missing from the registry.
func NewUnknownToolError(tool string) *StandardError {
	return newError(ErrCodeUnknownTool, "Unknown tool", tool, false, nil)
}

// ==========================
// 4. Inspection Helpers
// ==========================

// CodeOf returns the code of the first StandardError in err's chain, or ErrCodeInternal.
func CodeOf(err error) ErrorCode {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr.Code
	}
	return ErrCodeInternal
}

// IsCode reports whether err carries the given code anywhere in its chain.
func IsCode(err error, code ErrorCode) bool {
	if err == nil {
		return false
	}
	return stderrors.Is(err, &StandardError{Code: code})
}

// AsStandard converts any error into a StandardError, keeping the original as cause.
func AsStandard(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// ==========================
// 5. Error Conversion to BPMN
// ==========================

// GetRetryCount returns the recommended job retry count for a code.
func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeTransport:
		return 3
	case ErrCodeTimeout, ErrCodePollTimeout:
		return 1
	default:
		return 0
	}
}

// ConvertToBPMNError converts a StandardError to a BPMNError for Camunda.
func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

// GetErrorCategory groups codes by the pipeline stage that produces them.
func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeConfiguration:
		return "CONFIGURATION"
	case ErrCodeTransport, ErrCodeTimeout:
		return "NETWORK"
	case ErrCodeProtocol, ErrCodeParse:
		return "PROTOCOL"
	case ErrCodeRunFailed, ErrCodePollTimeout:
		return "RUN"
	case ErrCodeInvalidArguments, ErrCodeUnknownTool:
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
