package georecon

import "github.com/kailas-cloud/georecon/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound      = domain.ErrNotFound
	ErrInvalidQuery  = domain.ErrInvalidQuery
	ErrBatchTooLarge = domain.ErrBatchTooLarge
	ErrTimeout       = domain.ErrTimeout
	ErrNotReady      = domain.ErrNotReady
	ErrLoad          = domain.ErrLoad
	ErrNoEntities    = domain.ErrNoEntities
)
