package entity

import (
	"fmt"
	"strings"

	"github.com/kailas-cloud/georecon/internal/textnorm"
)

// AdminLevels is the number of administrative codes carried per entity.
const AdminLevels = 4

// Coordinates is an optional latitude/longitude pair.
type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Entity is one gazetteer record (immutable value object).
type Entity struct {
	id             string
	primaryName    string
	asciiName      string
	alternateNames []string
	entityType     Type
	countryCode    string
	adminCodes     [AdminLevels]string
	population     int64
	coords         *Coordinates
}

// Params holds the inputs of New.
type Params struct {
	ID             string
	PrimaryName    string
	ASCIIName      string
	AlternateNames []string
	Class          FeatureClass
	Code           string
	CountryCode    string
	AdminCodes     [AdminLevels]string
	Population     int64
	Coords         *Coordinates
}

// New validates and creates an Entity.
func New(p Params) (Entity, error) {
	id := strings.TrimSpace(p.ID)
	if id == "" {
		return Entity{}, fmt.Errorf("entity id is required")
	}
	if !p.Class.IsValid() {
		return Entity{}, fmt.Errorf("entity %s: invalid feature class %q", id, p.Class)
	}
	primary := strings.TrimSpace(p.PrimaryName)
	ascii := strings.TrimSpace(p.ASCIIName)
	if !searchable(primary, ascii) {
		return Entity{}, fmt.Errorf("entity %s: at least one searchable name is required", id)
	}
	if p.Population < 0 {
		return Entity{}, fmt.Errorf("entity %s: population must be non-negative", id)
	}
	if p.Coords != nil && !validCoordinates(*p.Coords) {
		return Entity{}, fmt.Errorf("entity %s: coordinates out of range", id)
	}

	var alts []string
	for _, a := range p.AlternateNames {
		if a = strings.TrimSpace(a); a != "" {
			alts = append(alts, a)
		}
	}

	e := Entity{
		id:             id,
		primaryName:    primary,
		asciiName:      ascii,
		alternateNames: alts,
		entityType:     NewType(p.Class, p.Code),
		countryCode:    strings.ToUpper(strings.TrimSpace(p.CountryCode)),
		population:     p.Population,
	}
	for i, c := range p.AdminCodes {
		e.adminCodes[i] = strings.TrimSpace(c)
	}
	if p.Coords != nil {
		c := *p.Coords
		e.coords = &c
	}
	return e, nil
}

func validCoordinates(c Coordinates) bool {
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// ID returns the stable identifier.
func (e *Entity) ID() string { return e.id }

// PrimaryName returns the canonical display name.
func (e *Entity) PrimaryName() string { return e.primaryName }

// ASCIIName returns the ASCII transliteration of the name.
func (e *Entity) ASCIIName() string { return e.asciiName }

// AlternateNames returns the aliases used for matching.
func (e *Entity) AlternateNames() []string { return e.alternateNames }

// Type returns the (class, code) type.
func (e *Entity) Type() Type { return e.entityType }

// CountryCode returns the ISO country code.
func (e *Entity) CountryCode() string { return e.countryCode }

// AdminCodes returns the administrative placement codes.
func (e *Entity) AdminCodes() [AdminLevels]string { return e.adminCodes }

// Population returns the population (0 when unknown).
func (e *Entity) Population() int64 { return e.population }

// Coordinates returns the location, nil when unknown.
func (e *Entity) Coordinates() *Coordinates { return e.coords }

// DisplayName returns the primary name, falling back to the ASCII name.
func (e *Entity) DisplayName() string {
	if e.primaryName != "" {
		return e.primaryName
	}
	return e.asciiName
}

// Names returns every indexed name: primary, ascii, then alternates.
// Empty names are omitted.
func (e *Entity) Names() []string {
	names := make([]string, 0, 2+len(e.alternateNames))
	if e.primaryName != "" {
		names = append(names, e.primaryName)
	}
	if e.asciiName != "" {
		names = append(names, e.asciiName)
	}
	return append(names, e.alternateNames...)
}

// searchable reports whether any of names yields at least one search token.
func searchable(names ...string) bool {
	for _, n := range names {
		if len(textnorm.Tokenize(n)) > 0 {
			return true
		}
	}
	return false
}
