// Package entitystore holds the validated gazetteer records of one load generation.
// A Store is built once by a Builder and is read-only afterwards.
package entitystore

import (
	"context"
	"fmt"
	"iter"

	"github.com/kailas-cloud/georecon/internal/domain"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

// Source streams raw rows into emit. Returning an error from emit stops the stream.
type Source interface {
	Read(ctx context.Context, emit func(entity.RawRow) error) error
}

// Stats describes the outcome of a load.
type Stats struct {
	RowsRead int
	Accepted int
	Skipped  map[string]int
}

// SkippedTotal returns the number of rejected rows.
func (s Stats) SkippedTotal() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// Store is an immutable, concurrency-safe set of entities.
type Store struct {
	entities []entity.Entity
	byID     map[string]int32
}

// Builder accumulates rows into a Store.
type Builder struct {
	entities []entity.Entity
	byID     map[string]int32
	stats    Stats
	finished bool
}

// NewBuilder creates a builder. sizeHint preallocates storage when known.
func NewBuilder(sizeHint int) *Builder {
	if sizeHint < 0 {
		sizeHint = 0
	}
	return &Builder{
		entities: make([]entity.Entity, 0, sizeHint),
		byID:     make(map[string]int32, sizeHint),
		stats:    Stats{Skipped: make(map[string]int)},
	}
}

// Add validates one row. Invalid rows are counted by reason and skipped.
// It reports whether the row was accepted.
func (b *Builder) Add(row entity.RawRow) bool {
	b.stats.RowsRead++
	e, reason := entity.FromRow(row)
	if reason != "" {
		b.stats.Skipped[reason]++
		return false
	}
	return b.AddEntity(e)
}

// AddEntity adds an already validated entity. Duplicate ids are skipped.
func (b *Builder) AddEntity(e entity.Entity) bool {
	if _, dup := b.byID[e.ID()]; dup {
		b.stats.Skipped[entity.SkipDuplicateID]++
		return false
	}
	b.byID[e.ID()] = int32(len(b.entities)) //nolint:gosec // bounded by gazetteer size
	b.entities = append(b.entities, e)
	b.stats.Accepted++
	return true
}

// Stats returns the counters accumulated so far.
func (b *Builder) Stats() Stats {
	cp := b.stats
	cp.Skipped = make(map[string]int, len(b.stats.Skipped))
	for k, v := range b.stats.Skipped {
		cp.Skipped[k] = v
	}
	return cp
}

// Finish seals the builder. A store with zero entities cannot serve and yields a LoadError.
func (b *Builder) Finish() (*Store, Stats, error) {
	if b.finished {
		return nil, Stats{}, fmt.Errorf("builder already finished")
	}
	b.finished = true
	stats := b.Stats()
	if len(b.entities) == 0 {
		return nil, stats, domain.NewLoadError(domain.ErrNoEntities, stats.Skipped)
	}
	s := &Store{entities: b.entities, byID: b.byID}
	b.entities, b.byID = nil, nil
	return s, stats, nil
}

// Load streams src through a builder.
func Load(ctx context.Context, src Source, sizeHint int) (*Store, Stats, error) {
	b := NewBuilder(sizeHint)
	err := src.Read(ctx, func(row entity.RawRow) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		b.Add(row)
		return nil
	})
	if err != nil {
		stats := b.Stats()
		return nil, stats, domain.NewLoadError(fmt.Errorf("read source: %w", err), stats.Skipped)
	}
	return b.Finish()
}

// Len returns the number of entities.
func (s *Store) Len() int { return len(s.entities) }

// At returns the entity at load position i.
func (s *Store) At(i int) *entity.Entity { return &s.entities[i] }

// GetByID returns the entity with the given id.
func (s *Store) GetByID(_ context.Context, id string) (entity.Entity, error) {
	i, ok := s.byID[id]
	if !ok {
		return entity.Entity{}, fmt.Errorf("entity %s: %w", id, domain.ErrNotFound)
	}
	return s.entities[i], nil
}

// GetMany resolves ids in order. Unknown ids are omitted.
func (s *Store) GetMany(_ context.Context, ids []string) ([]entity.Entity, error) {
	out := make([]entity.Entity, 0, len(ids))
	for _, id := range ids {
		if i, ok := s.byID[id]; ok {
			out = append(out, s.entities[i])
		}
	}
	return out, nil
}

// AllIDs returns a restartable sequence of ids in load order.
func (s *Store) AllIDs() iter.Seq[string] {
	return func(yield func(string) bool) {
		for i := range s.entities {
			if !yield(s.entities[i].ID()) {
				return
			}
		}
	}
}

// Entities returns a sequence over all entities in load order.
func (s *Store) Entities() iter.Seq2[int, *entity.Entity] {
	return func(yield func(int, *entity.Entity) bool) {
		for i := range s.entities {
			if !yield(i, &s.entities[i]) {
				return
			}
		}
	}
}
