package models

import (
	"errors"
	"fmt"
)

// Code identifies one of the caller-visible failure classes. Everything
// else (cache races, eviction) is handled internally and never surfaces.
type Code string

const (
	CodeEmptyInput       Code = "empty_input"
	CodeModelUnavailable Code = "model_unavailable"
	CodeInferenceTimeout Code = "inference_timeout"
	CodeMalformedInput   Code = "malformed_input"
)

// DetectionError carries a taxonomy code plus a human-readable reason.
// All four codes are terminal for the current request; the pipeline never
// substitutes a default probability on failure.
type DetectionError struct {
	Code   Code
	Reason string
	Err    error
}

func (e *DetectionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Reason)
}

func (e *DetectionError) Unwrap() error {
	return e.Err
}

func EmptyInput(reason string) *DetectionError {
	return &DetectionError{Code: CodeEmptyInput, Reason: reason}
}

func ModelUnavailable(reason string, err error) *DetectionError {
	return &DetectionError{Code: CodeModelUnavailable, Reason: reason, Err: err}
}

func InferenceTimeout(reason string) *DetectionError {
	return &DetectionError{Code: CodeInferenceTimeout, Reason: reason}
}

func MalformedInput(reason string) *DetectionError {
	return &DetectionError{Code: CodeMalformedInput, Reason: reason}
}

// CodeOf returns the taxonomy code of err, or "" for untyped errors.
func CodeOf(err error) Code {
	var de *DetectionError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}
