package fyp

import (
	"errors"
	"fmt"
)

var (
	// ErrStagePanic is returned when a pipeline stage panics.
	ErrStagePanic = errors.New("pipeline stage panicked")

	// ErrSourcePanic is returned when a data source query panics.
	ErrSourcePanic = errors.New("data source panicked")

	// ErrNoCandidates is returned when the candidate pool is empty because
	// sources failed.
	ErrNoCandidates = errors.New("no candidates available")
)

// fetchSafely calls fn and converts a panic into ErrSourcePanic. Fetches run
// on their own goroutines, out of reach of the stage-level recover.
func fetchSafely[T any](fn func() (T, error)) (result T, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%w: %v", ErrSourcePanic, r)
		}
	}()
	return fn()
}
