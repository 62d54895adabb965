package reconcile

import (
	"time"

	"github.com/kailas-cloud/georecon/internal/generation"
)

// GenerationSource returns the generation to serve. Nil means nothing is loaded yet.
type GenerationSource interface {
	Current() *generation.Generation
}

// Observer receives batch and query outcomes.
type Observer interface {
	BatchDone(size int, duration time.Duration, err error)
	QueryDone(status string, candidates int)
}
