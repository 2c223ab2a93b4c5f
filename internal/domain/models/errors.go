package models

import (
	"errors"
	"fmt"
)

// ErrNoSignal is returned when the store holds no signal yet.
var ErrNoSignal = errors.New("no signal stored")

// ErrorKind classifies pipeline failures.
type ErrorKind string

const (
	KindParse    ErrorKind = "parse"
	KindAnalysis ErrorKind = "analysis"
	KindStorage  ErrorKind = "storage"
)

// PipelineError is the tagged error returned by the ingestion pipeline.
type PipelineError struct {
	Kind ErrorKind
	Op   string
	Err  error
}

func (e *PipelineError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("%s error: %s: %v", e.Kind, e.Op, e.Err)
	}
	return fmt.Sprintf("%s error: %v", e.Kind, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// ParseError wraps err as a parse failure.
func ParseError(op string, err error) error {
	return &PipelineError{Kind: KindParse, Op: op, Err: err}
}

// ParseErrorf builds a parse failure from a format string.
func ParseErrorf(op, format string, a ...any) error {
	return ParseError(op, fmt.Errorf(format, a...))
}

// AnalysisError wraps err as an analysis failure.
func AnalysisError(op string, err error) error {
	return &PipelineError{Kind: KindAnalysis, Op: op, Err: err}
}

// AnalysisErrorf builds an analysis failure from a format string.
func AnalysisErrorf(op, format string, a ...any) error {
	return AnalysisError(op, fmt.Errorf(format, a...))
}

// StorageError wraps err as a storage failure.
func StorageError(op string, err error) error {
	return &PipelineError{Kind: KindStorage, Op: op, Err: err}
}

// KindOf returns the kind of the first PipelineError in err's chain.
func KindOf(err error) (ErrorKind, bool) {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind, true
	}
	return "", false
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind ErrorKind) bool {
	k, ok := KindOf(err)
	return ok && k == kind
}
