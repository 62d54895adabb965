package suggest

import (
	"context"
	"fmt"
	"strings"

	"github.com/kailas-cloud/georecon/internal/domain"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/generation"
)

// Limits for suggest requests.
const (
	DefaultLimit = 10
	MaxLimit     = 50
)

// EntityItem is one entity autocomplete entry.
type EntityItem struct {
	ID          string
	Name        string
	Description string
	Type        entity.Type
}

// TypeItem is one type autocomplete entry.
type TypeItem struct {
	Type  entity.Type
	Count int
}

// ClassCount is a declared feature class with its entity count.
type ClassCount struct {
	Class entity.FeatureClass
	Count int
}

// Service serves autocomplete, entity views and type listings.
type Service struct {
	gens GenerationSource
}

// New creates a suggest service.
func New(gens GenerationSource) *Service {
	return &Service{gens: gens}
}

func (s *Service) current() (*generation.Generation, error) {
	g := s.gens.Current()
	if g == nil {
		return nil, fmt.Errorf("no generation loaded: %w", domain.ErrNotReady)
	}
	return g, nil
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	return min(limit, MaxLimit)
}

// Entities returns entities whose names start with prefix, most populous first.
func (s *Service) Entities(ctx context.Context, prefix string, typeFilters []string, limit int) ([]EntityItem, error) {
	g, err := s.current()
	if err != nil {
		return nil, err
	}
	filters := make([]string, 0, len(typeFilters))
	for _, raw := range typeFilters {
		f, err := entity.ParseFilter(raw)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)
		}
		filters = append(filters, f)
	}

	ords := g.Index().SuggestEntities(prefix, filters, clampLimit(limit))
	if len(ords) == 0 {
		return []EntityItem{}, nil
	}
	ids := make([]string, len(ords))
	for i, o := range ords {
		ids[i] = g.Index().ID(o)
	}
	ents, err := g.Resolver().GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("resolve suggestions: %w", err)
	}

	out := make([]EntityItem, 0, len(ents))
	for i := range ents {
		out = append(out, EntityItem{
			ID:          ents[i].ID(),
			Name:        ents[i].DisplayName(),
			Description: Describe(&ents[i]),
			Type:        ents[i].Type(),
		})
	}
	return out, nil
}

// Types returns types matching prefix, most frequent first.
func (s *Service) Types(_ context.Context, prefix string, limit int) ([]TypeItem, error) {
	g, err := s.current()
	if err != nil {
		return nil, err
	}
	tcs := g.Index().SuggestTypes(prefix, clampLimit(limit))
	out := make([]TypeItem, len(tcs))
	for i, tc := range tcs {
		out[i] = TypeItem{Type: tc.Type, Count: tc.Count}
	}
	return out, nil
}

// Classes returns every declared feature class with its entity count in the
// active generation. Counts are zero before the first load.
func (s *Service) Classes(_ context.Context) []ClassCount {
	var counts map[entity.FeatureClass]int
	if g := s.gens.Current(); g != nil {
		counts = g.Index().ClassCounts()
	}
	out := make([]ClassCount, 0, len(entity.Classes()))
	for _, c := range entity.Classes() {
		out = append(out, ClassCount{Class: c, Count: counts[c]})
	}
	return out
}

// Entity returns the full record of id.
func (s *Service) Entity(ctx context.Context, id string) (entity.Entity, error) {
	g, err := s.current()
	if err != nil {
		return entity.Entity{}, err
	}
	e, err := g.Resolver().GetByID(ctx, id)
	if err != nil {
		return entity.Entity{}, fmt.Errorf("get entity: %w", err)
	}
	return e, nil
}

// Describe renders a one-line description: type label and location codes.
func Describe(e *entity.Entity) string {
	parts := []string{e.Type().Name()}
	var loc []string
	if a1 := e.AdminCodes()[0]; a1 != "" {
		loc = append(loc, a1)
	}
	if cc := e.CountryCode(); cc != "" {
		loc = append(loc, cc)
	}
	if len(loc) > 0 {
		parts = append(parts, strings.Join(loc, ", "))
	}
	if p := e.Population(); p > 0 {
		parts = append(parts, fmt.Sprintf("pop. %d", p))
	}
	return strings.Join(parts, " · ")
}
