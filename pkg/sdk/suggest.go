package georecon

import (
	"context"
	"fmt"
	"time"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

// SuggestEntities returns entities whose names start with prefix, most
// populous first. types restricts the result to type filter prefixes.
func (e *Engine) SuggestEntities(ctx context.Context, prefix string, types []string, limit int) (_ []Suggestion, err error) {
	start := time.Now()
	defer func() { e.obs.observe("suggest_entities", start, err) }()

	items, err := e.suggest.Entities(ctx, prefix, types, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest entities: %w", err)
	}
	out := make([]Suggestion, len(items))
	for i, it := range items {
		out[i] = Suggestion{ID: it.ID, Name: it.Name, Description: it.Description, Type: typeFromDomain(it.Type)}
	}
	return out, nil
}

// SuggestTypes returns types whose id, code or class label starts with
// prefix, most frequent first.
func (e *Engine) SuggestTypes(ctx context.Context, prefix string, limit int) (_ []TypeSuggestion, err error) {
	start := time.Now()
	defer func() { e.obs.observe("suggest_types", start, err) }()

	items, err := e.suggest.Types(ctx, prefix, limit)
	if err != nil {
		return nil, fmt.Errorf("suggest types: %w", err)
	}
	out := make([]TypeSuggestion, len(items))
	for i, it := range items {
		out[i] = TypeSuggestion{Type: typeFromDomain(it.Type), Count: it.Count}
	}
	return out, nil
}

// Entity returns the full record of id or ErrNotFound.
func (e *Engine) Entity(ctx context.Context, id string) (_ Entity, err error) {
	start := time.Now()
	defer func() { e.obs.observe("entity", start, err) }()

	ent, err := e.suggest.Entity(ctx, id)
	if err != nil {
		return Entity{}, err
	}
	return entityFromDomain(&ent), nil
}

func entityFromDomain(ent *entity.Entity) Entity {
	out := Entity{
		ID:             ent.ID(),
		Name:           ent.DisplayName(),
		ASCIIName:      ent.ASCIIName(),
		AlternateNames: ent.AlternateNames(),
		Type:           typeFromDomain(ent.Type()),
		Country:        ent.CountryCode(),
		Admin:          ent.AdminCodes(),
		Population:     ent.Population(),
	}
	if c := ent.Coordinates(); c != nil {
		out.Coordinates = &Coordinates{Lat: c.Latitude, Lon: c.Longitude}
	}
	return out
}
