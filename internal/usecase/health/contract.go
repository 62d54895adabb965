package health

import (
	"context"

	"github.com/kailas-cloud/georecon/internal/generation"
)

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// GenerationSource returns the active generation.
type GenerationSource interface {
	Current() *generation.Generation
}
