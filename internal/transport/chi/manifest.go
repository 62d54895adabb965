package chi

import (
	"net/http"
	"strings"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

// ServiceInfo holds the manifest fields advertised to reconciliation clients.
type ServiceInfo struct {
	Name            string
	IdentifierSpace string
	SchemaSpace     string
	BaseURL         string   // empty derives it from the request
	DefaultTypes    []string // type ids; empty advertises every feature class
}

// Manifest is the reconciliation service manifest.
type Manifest struct {
	Versions        []string      `json:"versions"`
	Name            string        `json:"name"`
	IdentifierSpace string        `json:"identifierSpace"`
	SchemaSpace     string        `json:"schemaSpace"`
	DefaultTypes    []TypeRef     `json:"defaultTypes"`
	View            URLTemplate   `json:"view"`
	Preview         PreviewInfo   `json:"preview"`
	Suggest         SuggestInfo   `json:"suggest"`
	Types           []TypeSummary `json:"types"`
	BatchSize       int           `json:"batchSize"`
}

// URLTemplate is a URL with an {{id}} placeholder.
type URLTemplate struct {
	URL string `json:"url"`
}

// PreviewInfo describes the preview card endpoint.
type PreviewInfo struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

// SuggestService locates one suggest endpoint.
type SuggestService struct {
	ServiceURL  string `json:"service_url"`
	ServicePath string `json:"service_path"`
}

// SuggestInfo lists the suggest endpoints.
type SuggestInfo struct {
	Entity SuggestService `json:"entity"`
	Type   SuggestService `json:"type"`
}

// TypeSummary is a declared type with its entity count.
type TypeSummary struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

const (
	previewWidth  = 400
	previewHeight = 120
)

func (s *Server) manifest(r *http.Request) Manifest {
	base := s.baseURL(r)
	classes := s.suggest.Classes(r.Context())
	types := make([]TypeSummary, len(classes))
	for i, c := range classes {
		types[i] = TypeSummary{ID: string(c.Class), Name: c.Class.Name(), Count: c.Count}
	}

	return Manifest{
		Versions:        []string{"0.1", "0.2"},
		Name:            s.info.Name,
		IdentifierSpace: s.info.IdentifierSpace,
		SchemaSpace:     s.info.SchemaSpace,
		DefaultTypes:    s.defaultTypes(),
		View:            URLTemplate{URL: base + "/view/{{id}}"},
		Preview: PreviewInfo{
			URL:    base + "/preview/{{id}}",
			Width:  previewWidth,
			Height: previewHeight,
		},
		Suggest: SuggestInfo{
			Entity: SuggestService{ServiceURL: base, ServicePath: "/suggest/entity"},
			Type:   SuggestService{ServiceURL: base, ServicePath: "/suggest/type"},
		},
		Types:     types,
		BatchSize: s.reconcile.MaxBatchSize(),
	}
}

func (s *Server) defaultTypes() []TypeRef {
	if len(s.info.DefaultTypes) == 0 {
		out := make([]TypeRef, 0, len(entity.Classes()))
		for _, c := range entity.Classes() {
			out = append(out, TypeRef{ID: string(c), Name: c.Name()})
		}
		return out
	}
	out := make([]TypeRef, 0, len(s.info.DefaultTypes))
	for _, id := range s.info.DefaultTypes {
		t, err := entity.ParseType(id)
		if err != nil {
			continue
		}
		out = append(out, typeRef(t))
	}
	return out
}

func (s *Server) baseURL(r *http.Request) string {
	if s.info.BaseURL != "" {
		return strings.TrimSuffix(s.info.BaseURL, "/")
	}
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if fwd := r.Header.Get("X-Forwarded-Proto"); fwd != "" {
		scheme = fwd
	}
	return scheme + "://" + r.Host
}
