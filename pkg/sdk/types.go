package georecon

// Row is one gazetteer record keyed by column name: id, name, asciiname,
// alternatenames, featureClass, featureCode, countryCode, admin1..admin4,
// population, lat, lon.
type Row map[string]string

// Property is a (pid, values) pair attached to a query. Properties are
// accepted for compatibility and do not affect scoring.
type Property struct {
	PID    string
	Values []string
}

// Query is one reconciliation query.
type Query struct {
	Text       string
	Types      []string // type filter prefixes: "P", "P.PPL", "A.ADM1"
	Limit      int      // <= 0 takes the engine default
	Properties []Property
}

// Type is a (feature class, feature code) pair.
type Type struct {
	ID   string // "P.PPLC"
	Name string // "PPLC (City, village)"
}

// Candidate is one scored match.
type Candidate struct {
	ID         string
	Name       string
	Type       Type
	Score      int
	Match      bool
	Country    string
	Population int64
}

// Result answers one query. Err is set for per-query failures (invalid
// query, timeout) and leaves the other queries of the batch unaffected.
type Result struct {
	Candidates []Candidate
	Err        error
}

// Suggestion is one entity autocomplete entry.
type Suggestion struct {
	ID          string
	Name        string
	Description string
	Type        Type
}

// TypeSuggestion is one type autocomplete entry.
type TypeSuggestion struct {
	Type  Type
	Count int
}

// Coordinates is a WGS84 position.
type Coordinates struct {
	Lat float64
	Lon float64
}

// Entity is a full gazetteer record.
type Entity struct {
	ID             string
	Name           string
	ASCIIName      string
	AlternateNames []string
	Type           Type
	Country        string
	Admin          [4]string
	Population     int64
	Coordinates    *Coordinates
}
