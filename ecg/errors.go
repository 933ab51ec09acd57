package ecg

import (
	"encoding/json"
	"errors"
	"fmt"
)

// ErrorKind classifies a pipeline failure. The kind travels across the
// isolated-execution boundary as JSON and is the only machine-readable part
// of a failure payload.
type ErrorKind string

const (
	KindInvalidImageFormat  ErrorKind = "InvalidImageFormat"
	KindDigitizationFailure ErrorKind = "DigitizationFailure"
	KindModelLoadFailure    ErrorKind = "ModelLoadFailure"
	KindInferenceTimeout    ErrorKind = "InferenceTimeout"
	KindMalformedOutput     ErrorKind = "MalformedOutput"

	// KindInternal covers failures that fit no contract category.
	KindInternal ErrorKind = "Internal"
)

// PipelineError is the typed error surfaced for any failed job. It never
// accompanies a partially populated PredictionResult.
type PipelineError struct {
	Kind    ErrorKind `json:"error_kind"`
	Message string    `json:"message"`
	cause   error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *PipelineError) Unwrap() error {
	return e.cause
}

// NewPipelineError builds a typed error with no underlying cause.
func NewPipelineError(kind ErrorKind, message string) *PipelineError {
	return &PipelineError{Kind: kind, Message: message}
}

// WrapError attaches a kind to an underlying error while preserving it for
// errors.Is / errors.As chains.
func WrapError(kind ErrorKind, err error) *PipelineError {
	return &PipelineError{Kind: kind, Message: err.Error(), cause: err}
}

// KindOf extracts the error kind from any error chain, defaulting to
// KindInternal for untyped failures.
func KindOf(err error) ErrorKind {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindInternal
}

// MarshalErrorPayload renders the structured failure payload written to the
// output channel when a job fails.
func MarshalErrorPayload(err error) []byte {
	payload := PipelineError{Kind: KindOf(err), Message: err.Error()}
	var pe *PipelineError
	if errors.As(err, &pe) {
		payload.Message = pe.Message
	}
	data, merr := json.Marshal(payload)
	if merr != nil {
		return []byte(`{"error_kind":"Internal","message":"failed to encode error payload"}`)
	}
	return data
}

// ParseErrorPayload decodes a failure payload emitted by an isolated
// execution. It returns false when the bytes are not a typed error.
func ParseErrorPayload(data []byte) (*PipelineError, bool) {
	var payload PipelineError
	if err := json.Unmarshal(data, &payload); err != nil || payload.Kind == "" {
		return nil, false
	}
	return &payload, true
}
