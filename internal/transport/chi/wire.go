package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/kailas-cloud/georecon/internal/domain"
	dombatch "github.com/kailas-cloud/georecon/internal/domain/batch"
	"github.com/kailas-cloud/georecon/internal/domain/candidate"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/domain/query"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
)

// errMalformedEnvelope marks a batch that cannot be split into keyed queries.
var errMalformedEnvelope = errors.New("malformed queries envelope")

// wireQuery is one query of a reconcile batch as sent by clients.
type wireQuery struct {
	Query      *string         `json:"query"`
	Type       json.RawMessage `json:"type"`
	Limit      json.RawMessage `json:"limit"`
	Properties []wireProperty  `json:"properties"`
	TypeStrict string          `json:"type_strict"` // accepted; every entity has exactly one type
}

type wireProperty struct {
	PID string          `json:"pid"`
	V   json.RawMessage `json:"v"`
}

// TypeRef is an {id, name} pair as used in candidates and manifests.
type TypeRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// CandidateResponse is one scored candidate.
type CandidateResponse struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Type       []TypeRef `json:"type"`
	Score      int       `json:"score"`
	Match      bool      `json:"match"`
	Country    string    `json:"country,omitempty"`
	Population int64     `json:"population"`
}

// QueryResponse is the answer for one batch key.
type QueryResponse struct {
	Result []CandidateResponse `json:"result"`
	Error  *ErrorResponse      `json:"error,omitempty"`
}

// decodeBatch splits the queries JSON into keyed engine items. Envelope-level
// problems fail the whole request; field-level problems become per-key errors.
func decodeBatch(raw []byte, defaultLimit, maxLimit int) (map[string]reconcileuc.Item, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) > 0 && raw[0] == '"' {
		// some clients double-encode the queries object
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return nil, fmt.Errorf("%w: %w", errMalformedEnvelope, err)
		}
		raw = bytes.TrimSpace([]byte(inner))
	}
	if len(raw) == 0 || raw[0] != '{' {
		return nil, fmt.Errorf("%w: queries must be a JSON object", errMalformedEnvelope)
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, fmt.Errorf("%w: %w", errMalformedEnvelope, err)
	}

	items := make(map[string]reconcileuc.Item, len(envelope))
	for key, v := range envelope {
		v = bytes.TrimSpace(v)
		if len(v) == 0 || v[0] != '{' {
			return nil, fmt.Errorf("%w: query %q is not an object", errMalformedEnvelope, key)
		}
		items[key] = decodeItem(v, defaultLimit, maxLimit)
	}
	return items, nil
}

func decodeItem(raw json.RawMessage, defaultLimit, maxLimit int) reconcileuc.Item {
	var wq wireQuery
	if err := json.Unmarshal(raw, &wq); err != nil {
		return invalidItem("malformed query: %v", err)
	}
	if wq.Query == nil {
		return invalidItem("missing query field")
	}
	types, err := parseTypes(wq.Type)
	if err != nil {
		return invalidItem("%v", err)
	}
	limit, err := parseLimit(wq.Limit)
	if err != nil {
		return invalidItem("%v", err)
	}
	props := make([]query.Property, 0, len(wq.Properties))
	for _, p := range wq.Properties {
		props = append(props, query.Property{PID: p.PID, Values: propertyValues(p.V)})
	}

	q, err := query.NewWithLimits(*wq.Query, types, limit, props, defaultLimit, maxLimit)
	if err != nil {
		return reconcileuc.Item{Invalid: fmt.Errorf("%w: %w", domain.ErrInvalidQuery, err)}
	}
	return reconcileuc.Item{Query: q}
}

func invalidItem(format string, args ...any) reconcileuc.Item {
	return reconcileuc.Item{Invalid: fmt.Errorf("%w: %s", domain.ErrInvalidQuery, fmt.Sprintf(format, args...))}
}

// parseTypes accepts a string or an array of strings.
func parseTypes(raw json.RawMessage) ([]string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		if strings.TrimSpace(one) == "" {
			return nil, nil
		}
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, errors.New("type must be a string or an array of strings")
	}
	return many, nil
}

// parseLimit accepts a non-negative integer, as a number or a numeric string.
func parseLimit(raw json.RawMessage) (int, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return 0, nil
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return 0, errors.New("limit must be a number")
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return 0, errors.New("limit must be a number")
		}
		f = float64(n)
	}
	if f < 0 || f != math.Trunc(f) || f > math.MaxInt32 {
		return 0, errors.New("limit must be a non-negative integer")
	}
	return int(f), nil
}

// propertyValues flattens a property value: scalars, arrays and {id}/{name} objects.
func propertyValues(raw json.RawMessage) []string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	switch raw[0] {
	case '[':
		var arr []json.RawMessage
		if json.Unmarshal(raw, &arr) != nil {
			return nil
		}
		var out []string
		for _, v := range arr {
			out = append(out, propertyValues(v)...)
		}
		return out
	case '{':
		var obj struct {
			ID   string `json:"id"`
			Name string `json:"name"`
		}
		if json.Unmarshal(raw, &obj) != nil {
			return nil
		}
		if obj.ID != "" {
			return []string{obj.ID}
		}
		if obj.Name != "" {
			return []string{obj.Name}
		}
		return nil
	case '"':
		var s string
		if json.Unmarshal(raw, &s) != nil {
			return nil
		}
		return []string{s}
	default:
		return []string{string(raw)}
	}
}

func typeRef(t entity.Type) TypeRef {
	return TypeRef{ID: t.ID(), Name: t.Name()}
}

func candidateToWire(c *candidate.Candidate) CandidateResponse {
	return CandidateResponse{
		ID:         c.EntityID(),
		Name:       c.Name(),
		Type:       []TypeRef{typeRef(c.Type())},
		Score:      c.Score(),
		Match:      c.Match(),
		Country:    c.CountryCode(),
		Population: c.Population(),
	}
}

func batchResultToWire(r dombatch.Result) QueryResponse {
	cands := r.Candidates()
	out := QueryResponse{Result: make([]CandidateResponse, len(cands))}
	for i := range cands {
		out.Result[i] = candidateToWire(&cands[i])
	}
	if err := r.Err(); err != nil {
		out.Error = &ErrorResponse{Code: errorCode(err), Message: safeDomainMessage(err)}
	}
	return out
}
