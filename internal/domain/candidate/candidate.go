package candidate

import "github.com/kailas-cloud/georecon/internal/domain/entity"

// Score bounds.
const (
	MinScore = 0
	MaxScore = 100
)

// Candidate is a scored match of a query against one entity.
type Candidate struct {
	entityID    string
	name        string
	entityType  entity.Type
	score       int
	match       bool
	countryCode string
	population  int64
}

// New creates a candidate from an entity and its score. The score is clamped to 0..100.
func New(e *entity.Entity, name string, score int) Candidate {
	if name == "" {
		name = e.DisplayName()
	}
	return Candidate{
		entityID:    e.ID(),
		name:        name,
		entityType:  e.Type(),
		score:       clamp(score),
		countryCode: e.CountryCode(),
		population:  e.Population(),
	}
}

func clamp(s int) int {
	if s < MinScore {
		return MinScore
	}
	if s > MaxScore {
		return MaxScore
	}
	return s
}

// EntityID returns the matched entity id.
func (c *Candidate) EntityID() string { return c.entityID }

// Name returns the display name of the entity.
func (c *Candidate) Name() string { return c.name }

// Type returns the entity type.
func (c *Candidate) Type() entity.Type { return c.entityType }

// Score returns the similarity score, 0..100.
func (c *Candidate) Score() int { return c.score }

// Match reports whether the candidate is an unambiguous auto-match.
func (c *Candidate) Match() bool { return c.match }

// SetMatch sets the auto-match flag.
func (c *Candidate) SetMatch(m bool) { c.match = m }

// CountryCode returns the entity country code.
func (c *Candidate) CountryCode() string { return c.countryCode }

// Population returns the entity population.
func (c *Candidate) Population() int64 { return c.population }
