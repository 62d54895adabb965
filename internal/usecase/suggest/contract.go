package suggest

import "github.com/kailas-cloud/georecon/internal/generation"

// GenerationSource returns the generation to serve. Nil means nothing is loaded yet.
type GenerationSource interface {
	Current() *generation.Generation
}
