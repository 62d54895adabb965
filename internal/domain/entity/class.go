package entity

import "strings"

// FeatureClass is the top-level GeoNames category of an entity.
type FeatureClass string

// GeoNames feature classes.
const (
	ClassAdministrative FeatureClass = "A"
	ClassHydrographic   FeatureClass = "H"
	ClassArea           FeatureClass = "L"
	ClassPopulated      FeatureClass = "P"
	ClassRoad           FeatureClass = "R"
	ClassSpot           FeatureClass = "S"
	ClassTerrain        FeatureClass = "T"
	ClassUndersea       FeatureClass = "U"
	ClassVegetation     FeatureClass = "V"
)

var classNames = map[FeatureClass]string{
	ClassAdministrative: "Country, state, region",
	ClassHydrographic:   "Stream, lake",
	ClassArea:           "Park, area",
	ClassPopulated:      "City, village",
	ClassRoad:           "Road, railroad",
	ClassSpot:           "Spot, building, farm",
	ClassTerrain:        "Mountain, hill, rock",
	ClassUndersea:       "Undersea",
	ClassVegetation:     "Forest, heath",
}

// Classes returns every feature class in declaration order.
func Classes() []FeatureClass {
	return []FeatureClass{
		ClassAdministrative, ClassHydrographic, ClassArea, ClassPopulated,
		ClassRoad, ClassSpot, ClassTerrain, ClassUndersea, ClassVegetation,
	}
}

// ParseClass normalizes and validates a feature class letter.
func ParseClass(s string) (FeatureClass, bool) {
	c := FeatureClass(strings.ToUpper(strings.TrimSpace(s)))
	_, ok := classNames[c]
	return c, ok
}

// IsValid reports whether the class belongs to the GeoNames enumeration.
func (c FeatureClass) IsValid() bool {
	_, ok := classNames[c]
	return ok
}

// Name returns the human-readable class label.
func (c FeatureClass) Name() string { return classNames[c] }
