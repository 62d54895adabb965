package reload

import (
	"context"
	"time"

	"github.com/kailas-cloud/georecon/internal/generation"
)

// Builder produces a fresh generation from the configured data source.
type Builder interface {
	Build(ctx context.Context) (*generation.Generation, error)
}

// Swapper holds the active generation.
type Swapper interface {
	Current() *generation.Generation
	Swap(g *generation.Generation) *generation.Generation
}

// Retirer releases external resources of a replaced generation.
type Retirer interface {
	Retire(ctx context.Context, genID string) error
}

// Observer receives reload outcomes.
type Observer interface {
	ReloadDone(g *generation.Generation, duration time.Duration, err error)
}
