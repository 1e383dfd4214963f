package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resource.
	ErrNotFound = errors.New("not found")
	// ErrSkippableRecord signals a source record that cannot be processed.
	// The record is dropped and the run continues.
	ErrSkippableRecord = errors.New("skippable record")
	// ErrBatchPersist signals a failed batch submission to the knowledge base.
	ErrBatchPersist = errors.New("batch persist failed")
	// ErrFatalCollector signals that the product source is unreachable as a whole.
	ErrFatalCollector = errors.New("fatal collector error")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limited")
	// ErrEmbeddingQuotaExceeded signals an exhausted embedding budget.
	ErrEmbeddingQuotaExceeded = errors.New("embedding quota exceeded")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// SkipError explains why a single source record was skipped.
type SkipError struct {
	Ref    string // URL or external id, whichever is known
	Reason string
	Err    error
}

func (e *SkipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("skip %s: %s: %v", e.Ref, e.Reason, e.Err)
	}
	return fmt.Sprintf("skip %s: %s", e.Ref, e.Reason)
}

// Is matches ErrSkippableRecord.
func (e *SkipError) Is(target error) bool { return target == ErrSkippableRecord }

func (e *SkipError) Unwrap() error { return e.Err }

// NewSkip creates a skippable record error.
func NewSkip(ref, reason string, err error) error {
	return &SkipError{Ref: ref, Reason: reason, Err: err}
}

// SkipReason returns the reason label of a skippable error, or "error"
// for anything else. Used as a metric label.
func SkipReason(err error) string {
	var se *SkipError
	if errors.As(err, &se) {
		return se.Reason
	}
	return "error"
}
