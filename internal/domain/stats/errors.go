package stats

import (
	"errors"
	"fmt"
)

// Sentinel error kinds for the engine. Callers classify failures with errors.Is.
var (
	ErrDataSource  = errors.New("data source error")
	ErrNotFound    = errors.New("not found")
	ErrComputation = errors.New("computation error")
)

// DataSourceError wraps a failed read from the score-record source.
type DataSourceError struct {
	Op  string
	Err error
}

func (e *DataSourceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

// Unwrap exposes the underlying source failure.
func (e *DataSourceError) Unwrap() error { return e.Err }

// Is matches ErrDataSource.
func (e *DataSourceError) Is(target error) bool { return target == ErrDataSource }

// NotFoundError is returned when a class-scoped query matches no records.
type NotFoundError struct {
	ClassID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no data found for class_id: %d", e.ClassID)
}

// Is matches ErrNotFound.
func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// ComputationError reports an invariant violation in engine parameters.
type ComputationError struct {
	Reason string
}

func (e *ComputationError) Error() string {
	return "computation error: " + e.Reason
}

// Is matches ErrComputation.
func (e *ComputationError) Is(target error) bool { return target == ErrComputation }

func computationErrorf(format string, args ...any) error {
	return &ComputationError{Reason: fmt.Sprintf(format, args...)}
}
