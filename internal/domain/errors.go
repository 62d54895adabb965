package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound signals a missing entity.
	ErrNotFound = errors.New("not found")
	// ErrInvalidQuery signals a structurally invalid query (bad type filter, empty text).
	ErrInvalidQuery = errors.New("invalid query")
	// ErrBatchTooLarge signals a batch with more queries than the configured maximum.
	ErrBatchTooLarge = errors.New("batch too large")
	// ErrTimeout signals a query that did not finish within the batch budget.
	ErrTimeout = errors.New("timeout")
	// ErrLoad signals a failed gazetteer load.
	ErrLoad = errors.New("load failed")
	// ErrNoEntities signals a load that accepted zero entities.
	ErrNoEntities = errors.New("no entities loaded")
	// ErrNotReady signals that no generation has been built yet.
	ErrNotReady = errors.New("index not ready")
)

// LoadError wraps ErrLoad with the rows skipped per reason.
type LoadError struct {
	Skipped map[string]int
	Err     error
}

func (e *LoadError) Error() string {
	var b strings.Builder
	b.WriteString(ErrLoad.Error())
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	if len(e.Skipped) > 0 {
		reasons := make([]string, 0, len(e.Skipped))
		for r := range e.Skipped {
			reasons = append(reasons, r)
		}
		sort.Strings(reasons)
		b.WriteString(" (skipped:")
		for _, r := range reasons {
			fmt.Fprintf(&b, " %s=%d", r, e.Skipped[r])
		}
		b.WriteString(")")
	}
	return b.String()
}

// Is makes errors.Is(err, ErrLoad) hold for every LoadError.
func (e *LoadError) Is(target error) bool { return target == ErrLoad }

func (e *LoadError) Unwrap() error { return e.Err }

// NewLoadError creates a load error with a copy of the skip counters.
func NewLoadError(err error, skipped map[string]int) error {
	cp := make(map[string]int, len(skipped))
	for k, v := range skipped {
		cp[k] = v
	}
	return &LoadError{Skipped: cp, Err: err}
}
