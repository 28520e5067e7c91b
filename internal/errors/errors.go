// Package errors provides the structured errors returned by the ingestion
// pipeline. Every failure carries the phase that produced it and a category
// used for logging and metrics.
package errors

import (
	stderrors "errors"
	"fmt"
	"maps"
	"time"
)

// Sentinel errors callers can match with errors.Is.
var (
	ErrDatasetNotFound     = stderrors.New("dataset not found")
	ErrMalformedAnnotation = stderrors.New("malformed annotation")
	ErrTableAlreadyExists  = stderrors.New("table already exists")
	ErrUnsupportedArchive  = stderrors.New("unsupported archive format")
	ErrInvalidRequest      = stderrors.New("invalid request")
)

// Phase names the pipeline step an error originated from.
type Phase string

const (
	PhaseRequest   Phase = "request"
	PhaseStage     Phase = "stage"
	PhasePartition Phase = "partition"
	PhaseTabulate  Phase = "tabulate"
	PhaseRegister  Phase = "register"
	PhaseWrite     Phase = "write"
	PhaseUnknown   Phase = "unknown"
)

// ErrorCategory groups errors for logging and metrics labels.
type ErrorCategory string

const (
	CategoryNotFound   ErrorCategory = "not-found"
	CategoryValidation ErrorCategory = "validation"
	CategoryConflict   ErrorCategory = "conflict"
	CategoryFileIO     ErrorCategory = "file-io"
	CategoryFileParse  ErrorCategory = "file-parsing"
	CategoryDatabase   ErrorCategory = "database"
	CategoryNetwork    ErrorCategory = "network"
	CategoryGeneric    ErrorCategory = "generic"
)

// IngestError wraps an error with the phase and category it belongs to.
type IngestError struct {
	Err       error
	Phase     Phase
	Category  ErrorCategory
	Context   map[string]any
	Timestamp time.Time
}

// Error implements the error interface.
func (ie *IngestError) Error() string {
	if ie.Err == nil {
		return fmt.Sprintf("%s: unknown error", ie.Phase)
	}
	return fmt.Sprintf("%s: %s", ie.Phase, ie.Err.Error())
}

// Unwrap exposes the wrapped error to errors.Is / errors.As.
func (ie *IngestError) Unwrap() error {
	return ie.Err
}

// GetContext returns a copy of the context map.
func (ie *IngestError) GetContext() map[string]any {
	if ie.Context == nil {
		return nil
	}
	out := make(map[string]any, len(ie.Context))
	maps.Copy(out, ie.Context)
	return out
}

// ErrorBuilder provides a fluent interface for creating ingestion errors
type ErrorBuilder struct {
	err      error
	phase    Phase
	category ErrorCategory
	context  map[string]any
}

// New starts building an IngestError around err.
func New(err error) *ErrorBuilder {
	return &ErrorBuilder{err: err}
}

// Phase sets the pipeline phase.
func (eb *ErrorBuilder) Phase(phase Phase) *ErrorBuilder {
	eb.phase = phase
	return eb
}

// Category sets the error category.
func (eb *ErrorBuilder) Category(category ErrorCategory) *ErrorBuilder {
	eb.category = category
	return eb
}

// Context adds a key/value pair describing the failure.
func (eb *ErrorBuilder) Context(key string, value any) *ErrorBuilder {
	if eb.context == nil {
		eb.context = make(map[string]any)
	}
	eb.context[key] = value
	return eb
}

// Build creates the IngestError. Missing phase and category are inferred
// from the wrapped error where possible.
func (eb *ErrorBuilder) Build() *IngestError {
	ie := &IngestError{
		Err:       eb.err,
		Phase:     eb.phase,
		Category:  eb.category,
		Context:   eb.context,
		Timestamp: time.Now(),
	}

	// Keep the innermost phase when re-wrapping an IngestError.
	var inner *IngestError
	if stderrors.As(eb.err, &inner) {
		if ie.Phase == "" {
			ie.Phase = inner.Phase
		}
		if ie.Category == "" {
			ie.Category = inner.Category
		}
	}

	if ie.Phase == "" {
		ie.Phase = PhaseUnknown
	}
	if ie.Category == "" {
		ie.Category = detectCategory(eb.err)
	}
	return ie
}

func detectCategory(err error) ErrorCategory {
	switch {
	case err == nil:
		return CategoryGeneric
	case stderrors.Is(err, ErrDatasetNotFound):
		return CategoryNotFound
	case stderrors.Is(err, ErrMalformedAnnotation):
		return CategoryFileParse
	case stderrors.Is(err, ErrTableAlreadyExists):
		return CategoryConflict
	case stderrors.Is(err, ErrUnsupportedArchive), stderrors.Is(err, ErrInvalidRequest):
		return CategoryValidation
	default:
		return CategoryGeneric
	}
}

// PhaseOf returns the phase recorded on err, or PhaseUnknown.
func PhaseOf(err error) Phase {
	var ie *IngestError
	if As(err, &ie) {
		return ie.Phase
	}
	return PhaseUnknown
}

// CategoryOf returns the category recorded on err, falling back to detection.
func CategoryOf(err error) ErrorCategory {
	var ie *IngestError
	if As(err, &ie) {
		return ie.Category
	}
	return detectCategory(err)
}

// Is wraps the standard library errors.Is.
func Is(err, target error) bool {
	return stderrors.Is(err, target)
}

// As wraps the standard library errors.As.
func As(err error, target any) bool {
	return stderrors.As(err, target)
}
