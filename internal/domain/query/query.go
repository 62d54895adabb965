package query

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

// Query limits.
const (
	// MaxTextLength is the maximum allowed query text length in bytes.
	MaxTextLength = 1024
	DefaultLimit  = 5
	MaxLimit      = 50
	// MaxTypeFilters bounds the number of type prefixes per query.
	MaxTypeFilters = 16
)

// Property is a per-query property constraint. Parsed and carried, not scored.
type Property struct {
	PID    string
	Values []string
}

// Query is a validated reconciliation query.
type Query struct {
	text        string
	typeFilters []string
	limit       int
	properties  []Property
}

// New validates and normalizes a query.
// limit <= 0 takes defaultLimit; anything above maxLimit is clamped.
func New(text string, typeFilters []string, limit int, properties []Property) (Query, error) {
	return NewWithLimits(text, typeFilters, limit, properties, DefaultLimit, MaxLimit)
}

// NewWithLimits is New with configurable default and cap.
func NewWithLimits(
	text string, typeFilters []string, limit int, properties []Property,
	defaultLimit, maxLimit int,
) (Query, error) {
	if len(text) > MaxTextLength {
		return Query{}, fmt.Errorf("query text too long (max %d bytes)", MaxTextLength)
	}
	if len(typeFilters) > MaxTypeFilters {
		return Query{}, fmt.Errorf("too many type filters (max %d)", MaxTypeFilters)
	}

	var filters []string
	seen := make(map[string]struct{}, len(typeFilters))
	for _, raw := range typeFilters {
		f, err := entity.ParseFilter(raw)
		if err != nil {
			return Query{}, err
		}
		if _, dup := seen[f]; dup {
			continue
		}
		seen[f] = struct{}{}
		filters = append(filters, f)
	}

	if defaultLimit <= 0 {
		defaultLimit = DefaultLimit
	}
	if maxLimit <= 0 {
		maxLimit = MaxLimit
	}
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}

	return Query{
		text:        strings.TrimSpace(text),
		typeFilters: filters,
		limit:       limit,
		properties:  properties,
	}, nil
}

// Text returns the search text.
func (q *Query) Text() string { return q.text }

// TypeFilters returns the normalized type prefixes (empty = no filter).
func (q *Query) TypeFilters() []string { return q.typeFilters }

// Limit returns the maximum number of candidates.
func (q *Query) Limit() int { return q.limit }

// Properties returns the property constraints.
func (q *Query) Properties() []Property { return q.properties }
