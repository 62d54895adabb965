// Package generation bundles one loaded entity set with its index.
// A Generation never changes; reloads build a new one and swap it into a Holder.
package generation

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
	"github.com/kailas-cloud/georecon/internal/searchindex"
)

// Resolver turns entity ids into full records.
type Resolver interface {
	GetByID(ctx context.Context, id string) (entity.Entity, error)
	GetMany(ctx context.Context, ids []string) ([]entity.Entity, error)
}

// Publisher copies a generation's records into an external store and returns
// a resolver reading them back.
type Publisher interface {
	Publish(ctx context.Context, genID string, store *entitystore.Store) (Resolver, error)
	Retire(ctx context.Context, genID string) error
}

// Generation is an immutable (index, resolver) pair.
type Generation struct {
	id        string
	source    string
	createdAt time.Time
	index     *searchindex.Index
	resolver  Resolver
	stats     entitystore.Stats
	external  bool
}

// ID returns the generation id.
func (g *Generation) ID() string { return g.id }

// Source describes where the records came from.
func (g *Generation) Source() string { return g.source }

// CreatedAt returns the build time.
func (g *Generation) CreatedAt() time.Time { return g.createdAt }

// Index returns the search index.
func (g *Generation) Index() *searchindex.Index { return g.index }

// Resolver returns the record resolver.
func (g *Generation) Resolver() Resolver { return g.resolver }

// Stats returns the load statistics.
func (g *Generation) Stats() entitystore.Stats { return g.stats }

// External reports whether records are served from an external store.
func (g *Generation) External() bool { return g.external }

// Len returns the number of entities.
func (g *Generation) Len() int { return g.index.Len() }

// BuildOptions configures Build.
type BuildOptions struct {
	SourceName string
	SizeHint   int
	Publisher  Publisher // nil keeps records in memory
}

// Build loads src, indexes it and, with a Publisher, moves the records out of process.
func Build(ctx context.Context, src entitystore.Source, opts BuildOptions) (*Generation, error) {
	store, stats, err := entitystore.Load(ctx, src, opts.SizeHint)
	if err != nil {
		return nil, err
	}
	return FromStore(ctx, store, stats, opts)
}

// FromStore wraps an already loaded store.
func FromStore(ctx context.Context, store *entitystore.Store, stats entitystore.Stats, opts BuildOptions) (*Generation, error) {
	g := &Generation{
		id:        uuid.NewString(),
		source:    opts.SourceName,
		createdAt: time.Now(),
		index:     searchindex.Build(store),
		resolver:  store,
		stats:     stats,
	}
	if opts.Publisher != nil {
		r, err := opts.Publisher.Publish(ctx, g.id, store)
		if err != nil {
			return nil, fmt.Errorf("publish generation %s: %w", g.id, err)
		}
		g.resolver = r
		g.external = true
	}
	return g, nil
}

// Holder owns the active generation pointer.
type Holder struct {
	current atomic.Pointer[Generation]
}

// NewHolder creates a holder, optionally with an initial generation.
func NewHolder(g *Generation) *Holder {
	h := &Holder{}
	if g != nil {
		h.current.Store(g)
	}
	return h
}

// Current returns the active generation or nil before the first load.
func (h *Holder) Current() *Generation { return h.current.Load() }

// Swap activates g and returns the previous generation.
func (h *Holder) Swap(g *Generation) *Generation { return h.current.Swap(g) }
