package entity

import (
	"strconv"
	"strings"
)

// Loader column names.
const (
	ColID             = "id"
	ColName           = "name"
	ColASCIIName      = "asciiname"
	ColAlternateNames = "alternatenames"
	ColFeatureClass   = "featureClass"
	ColFeatureCode    = "featureCode"
	ColCountryCode    = "countryCode"
	ColAdmin1         = "admin1"
	ColAdmin2         = "admin2"
	ColAdmin3         = "admin3"
	ColAdmin4         = "admin4"
	ColPopulation     = "population"
	ColLatitude       = "lat"
	ColLongitude      = "lon"
)

// RequiredColumns must be present in every row.
var RequiredColumns = []string{ColID, ColName, ColFeatureClass}

// Columns is the full fixed column set in loader order.
var Columns = []string{
	ColID, ColName, ColASCIIName, ColAlternateNames, ColFeatureClass, ColFeatureCode,
	ColCountryCode, ColAdmin1, ColAdmin2, ColAdmin3, ColAdmin4, ColPopulation,
	ColLatitude, ColLongitude,
}

// Skip reasons reported by FromRow.
const (
	SkipMissingColumn     = "missing_column"
	SkipEmptyID           = "empty_id"
	SkipNoName            = "no_name"
	SkipDuplicateID       = "duplicate_id"
	SkipInvalidClass      = "invalid_feature_class"
	SkipInvalidPopulation = "invalid_population"
	SkipInvalidCoordinate = "invalid_coordinate"
)

// RawRow is one loader row keyed by column name.
type RawRow map[string]string

// FromRow converts a raw row into an Entity.
// On failure it returns the skip reason instead of an error.
func FromRow(row RawRow) (Entity, string) {
	for _, col := range RequiredColumns {
		if _, ok := row[col]; !ok {
			return Entity{}, SkipMissingColumn
		}
	}

	id := strings.TrimSpace(row[ColID])
	if id == "" {
		return Entity{}, SkipEmptyID
	}
	class, ok := ParseClass(row[ColFeatureClass])
	if !ok {
		return Entity{}, SkipInvalidClass
	}
	if !searchable(row[ColName], row[ColASCIIName]) {
		return Entity{}, SkipNoName
	}

	var pop int64
	if raw := strings.TrimSpace(row[ColPopulation]); raw != "" {
		v, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || v < 0 {
			return Entity{}, SkipInvalidPopulation
		}
		pop = v
	}

	coords, ok := parseCoords(row[ColLatitude], row[ColLongitude])
	if !ok {
		return Entity{}, SkipInvalidCoordinate
	}

	e, err := New(Params{
		ID:             id,
		PrimaryName:    row[ColName],
		ASCIIName:      row[ColASCIIName],
		AlternateNames: SplitAlternateNames(row[ColAlternateNames]),
		Class:          class,
		Code:           row[ColFeatureCode],
		CountryCode:    row[ColCountryCode],
		AdminCodes:     [AdminLevels]string{row[ColAdmin1], row[ColAdmin2], row[ColAdmin3], row[ColAdmin4]},
		Population:     pop,
		Coords:         coords,
	})
	if err != nil {
		return Entity{}, SkipInvalidCoordinate
	}
	return e, ""
}

// SplitAlternateNames splits the comma-separated GeoNames alternatenames column.
func SplitAlternateNames(raw string) []string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parseCoords returns nil coordinates when both values are empty.
func parseCoords(latRaw, lonRaw string) (*Coordinates, bool) {
	latRaw, lonRaw = strings.TrimSpace(latRaw), strings.TrimSpace(lonRaw)
	if latRaw == "" && lonRaw == "" {
		return nil, true
	}
	lat, err := strconv.ParseFloat(latRaw, 64)
	if err != nil {
		return nil, false
	}
	lon, err := strconv.ParseFloat(lonRaw, 64)
	if err != nil {
		return nil, false
	}
	c := Coordinates{Latitude: lat, Longitude: lon}
	if !validCoordinates(c) {
		return nil, false
	}
	return &c, true
}

// ToRow is the inverse of FromRow: FromRow(e.ToRow()) reproduces e.
func (e *Entity) ToRow() RawRow {
	row := RawRow{
		ColID:           e.id,
		ColName:         e.primaryName,
		ColFeatureClass: string(e.entityType.Class()),
	}
	set := func(col, v string) {
		if v != "" {
			row[col] = v
		}
	}
	set(ColASCIIName, e.asciiName)
	set(ColAlternateNames, strings.Join(e.alternateNames, ","))
	set(ColFeatureCode, e.entityType.Code())
	set(ColCountryCode, e.countryCode)
	set(ColAdmin1, e.adminCodes[0])
	set(ColAdmin2, e.adminCodes[1])
	set(ColAdmin3, e.adminCodes[2])
	set(ColAdmin4, e.adminCodes[3])
	if e.population > 0 {
		row[ColPopulation] = strconv.FormatInt(e.population, 10)
	}
	if e.coords != nil {
		row[ColLatitude] = strconv.FormatFloat(e.coords.Latitude, 'f', -1, 64)
		row[ColLongitude] = strconv.FormatFloat(e.coords.Longitude, 'f', -1, 64)
	}
	return row
}
