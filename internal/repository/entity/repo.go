// Package entity publishes generation records to Redis/Valkey hashes and
// resolves them back for candidate building.
package entity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kailas-cloud/georecon/internal/db"
	"github.com/kailas-cloud/georecon/internal/domain"
	domentity "github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
	"github.com/kailas-cloud/georecon/internal/generation"
)

// DefaultKeyPrefix namespaces every key written by the repository.
const DefaultKeyPrefix = "georecon"

// DefaultRetireTTL is how long a replaced generation stays readable. Batches
// pinned to it before the swap must finish within this window.
const DefaultRetireTTL = 5 * time.Minute

const (
	publishChunk = 500
	expireChunk  = 1000
)

// store is the consumer interface for entity records (ISP).
type store interface {
	HSetMulti(ctx context.Context, items []db.HashSetItem) error
	HGetAll(ctx context.Context, key string) (map[string]string, error)
	HGetAllMulti(ctx context.Context, keys []string) ([]map[string]string, error)
	Scan(ctx context.Context, pattern string) ([]string, error)
	Set(ctx context.Context, key string, value []byte) error
	ExpireMulti(ctx context.Context, keys []string, ttl time.Duration) error
}

// Compile-time check: Repo implements generation.Publisher.
var _ generation.Publisher = (*Repo)(nil)

// Repo implements generation.Publisher on top of a hash store.
type Repo struct {
	store  store
	prefix string
	ttl    time.Duration
}

// New creates an entity repository. A non-positive retireTTL takes
// DefaultRetireTTL; retired keys are never deleted outright.
func New(s store, prefix string, retireTTL time.Duration) *Repo {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	if retireTTL <= 0 {
		retireTTL = DefaultRetireTTL
	}
	return &Repo{store: s, prefix: strings.TrimSuffix(prefix, ":"), ttl: retireTTL}
}

// Publish writes every record of the store under the generation's key space
// and marks the generation active.
func (r *Repo) Publish(ctx context.Context, genID string, es *entitystore.Store) (generation.Resolver, error) {
	items := make([]db.HashSetItem, 0, min(publishChunk, es.Len()))
	for _, e := range es.Entities() {
		items = append(items, db.HashSetItem{Key: r.entityKey(genID, e.ID()), Fields: e.ToRow()})
		if len(items) == publishChunk {
			if err := r.store.HSetMulti(ctx, items); err != nil {
				return nil, fmt.Errorf("hset entities: %w", err)
			}
			items = items[:0]
		}
	}
	if err := r.store.HSetMulti(ctx, items); err != nil {
		return nil, fmt.Errorf("hset entities: %w", err)
	}
	if err := r.store.Set(ctx, r.activeKey(), []byte(genID)); err != nil {
		return nil, fmt.Errorf("set active generation: %w", err)
	}
	return &Resolver{repo: r, genID: genID}, nil
}

// Retire expires every key of a generation after the retire TTL.
func (r *Repo) Retire(ctx context.Context, genID string) error {
	keys, err := r.store.Scan(ctx, r.entityKey(genID, "*"))
	if err != nil {
		return fmt.Errorf("scan generation %s: %w", genID, err)
	}
	for start := 0; start < len(keys); start += expireChunk {
		chunk := keys[start:min(start+expireChunk, len(keys))]
		if err := r.store.ExpireMulti(ctx, chunk, r.ttl); err != nil {
			return fmt.Errorf("retire generation %s: %w", genID, err)
		}
	}
	return nil
}

func (r *Repo) entityKey(genID, id string) string {
	return fmt.Sprintf("%s:%s:e:%s", r.prefix, genID, id)
}

func (r *Repo) activeKey() string {
	return r.prefix + ":active"
}

// Resolver reads one published generation.
type Resolver struct {
	repo  *Repo
	genID string
}

// GetByID returns a record or domain.ErrNotFound.
func (rv *Resolver) GetByID(ctx context.Context, id string) (domentity.Entity, error) {
	key := rv.repo.entityKey(rv.genID, id)
	m, err := rv.repo.store.HGetAll(ctx, key)
	if err != nil {
		return domentity.Entity{}, fmt.Errorf("hgetall %s: %w", key, err)
	}
	if len(m) == 0 {
		return domentity.Entity{}, fmt.Errorf("entity %s: %w", id, domain.ErrNotFound)
	}
	return parseHash(key, m)
}

// GetMany returns the records found for ids in input order; misses are omitted.
func (rv *Resolver) GetMany(ctx context.Context, ids []string) ([]domentity.Entity, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = rv.repo.entityKey(rv.genID, id)
	}
	hashes, err := rv.repo.store.HGetAllMulti(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("hgetall entities: %w", err)
	}
	out := make([]domentity.Entity, 0, len(hashes))
	for i, m := range hashes {
		if len(m) == 0 {
			continue
		}
		e, err := parseHash(keys[i], m)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, nil
}

func parseHash(key string, m map[string]string) (domentity.Entity, error) {
	e, reason := domentity.FromRow(domentity.RawRow(m))
	if reason != "" {
		return domentity.Entity{}, fmt.Errorf("corrupt record %s: %s", key, reason)
	}
	return e, nil
}
