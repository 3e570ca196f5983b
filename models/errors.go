package models

import (
	"errors"
	"fmt"
)

// ValidationError names the draft field that broke an entry invariant.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
}

func NewValidationError(field, reason string) ValidationError {
	return ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err (or anything it wraps) is a ValidationError.
func IsValidationError(err error) bool {
	var ve ValidationError
	return errors.As(err, &ve)
}

// AnalysisErrorKind is the machine readable failure class of an image analysis.
type AnalysisErrorKind string

const (
	InvalidInput   AnalysisErrorKind = "invalid_input"
	ServiceFailure AnalysisErrorKind = "service_failure"
)

// AnalysisError is returned by the image analysis adapter. InvalidInput means
// no external call was made; ServiceFailure carries the transport or parse cause.
type AnalysisError struct {
	Kind    AnalysisErrorKind
	Message string
	Cause   error
}

func (e *AnalysisError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *AnalysisError) Unwrap() error { return e.Cause }

func NewInvalidInput(message string) *AnalysisError {
	return &AnalysisError{Kind: InvalidInput, Message: message}
}

func NewServiceFailure(message string, cause error) *AnalysisError {
	return &AnalysisError{Kind: ServiceFailure, Message: message, Cause: cause}
}

func analysisKind(err error) (AnalysisErrorKind, bool) {
	var ae *AnalysisError
	if errors.As(err, &ae) {
		return ae.Kind, true
	}
	return "", false
}

func IsInvalidInput(err error) bool {
	k, ok := analysisKind(err)
	return ok && k == InvalidInput
}

func IsServiceFailure(err error) bool {
	k, ok := analysisKind(err)
	return ok && k == ServiceFailure
}
