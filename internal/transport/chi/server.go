// Package chi exposes the reconciliation service over HTTP with a chi router.
package chi

import (
	"encoding/json"
	"errors"
	"html/template"
	"io"
	"mime"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/georecon/internal/domain"
	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/domain/query"
	healthuc "github.com/kailas-cloud/georecon/internal/usecase/health"
	reconcileuc "github.com/kailas-cloud/georecon/internal/usecase/reconcile"
	suggestuc "github.com/kailas-cloud/georecon/internal/usecase/suggest"
)

const maxBodyBytes = 16 << 20

// Limits bounds per-query candidate counts.
type Limits struct {
	DefaultLimit int
	MaxLimit     int
}

// Server serves the reconciliation API.
type Server struct {
	reconcile     *reconcileuc.Service
	suggest       *suggestuc.Service
	health        *healthuc.Service
	info          ServiceInfo
	limits        Limits
	gatherer      prometheus.Gatherer
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	reconcile *reconcileuc.Service,
	suggest *suggestuc.Service,
	health *healthuc.Service,
	info ServiceInfo,
	limits Limits,
	logger *zap.Logger,
) *Server {
	if limits.DefaultLimit <= 0 {
		limits.DefaultLimit = query.DefaultLimit
	}
	if limits.MaxLimit <= 0 {
		limits.MaxLimit = query.MaxLimit
	}
	s := &Server{
		reconcile: reconcile,
		suggest:   suggest,
		health:    health,
		info:      info,
		limits:    limits,
		gatherer:  prometheus.DefaultGatherer,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound),
		sentinelHandler(domain.ErrBatchTooLarge, http.StatusRequestEntityTooLarge),
		sentinelHandler(domain.ErrNotReady, http.StatusServiceUnavailable),
		sentinelHandler(domain.ErrTimeout, http.StatusGatewayTimeout),
	}
	return s
}

// WithGatherer serves /metrics from g instead of the default registry.
func (s *Server) WithGatherer(g prometheus.Gatherer) *Server {
	s.gatherer = g
	return s
}

// Routes mounts every endpoint on r.
func (s *Server) Routes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(requireValidCallback)
		r.Get("/", s.Reconcile)
		r.Post("/", s.Reconcile)
		r.Get("/reconcile", s.Reconcile)
		r.Post("/reconcile", s.Reconcile)
		r.Get("/suggest/entity", s.SuggestEntity)
		r.Get("/suggest/type", s.SuggestType)
		r.Get("/view/{id}", s.View)
	})
	r.Get("/preview/{id}", s.Preview)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Reconcile handles GET|POST /reconcile: the manifest without queries, a batch otherwise.
func (s *Server) Reconcile(w http.ResponseWriter, r *http.Request) {
	raw, present, err := readQueries(w, r)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	if !present {
		writeJSON(w, r, http.StatusOK, s.manifest(r))
		return
	}

	items, err := decodeBatch(raw, s.limits.DefaultLimit, s.limits.MaxLimit)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}

	results, err := s.reconcile.Reconcile(r.Context(), items)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := make(map[string]QueryResponse, len(results))
	for key, res := range results {
		resp[key] = batchResultToWire(res)
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// readQueries extracts the queries parameter from a JSON body, a form or the URL.
func readQueries(w http.ResponseWriter, r *http.Request) ([]byte, bool, error) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if r.Method == http.MethodPost && isJSON(r.Header.Get("Content-Type")) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, false, errors.New("invalid request body: " + err.Error())
		}
		if len(strings.TrimSpace(string(body))) == 0 {
			return nil, false, nil
		}
		var envelope struct {
			Queries json.RawMessage `json:"queries"`
		}
		if err := json.Unmarshal(body, &envelope); err != nil {
			return nil, false, errors.New("invalid request body: " + err.Error())
		}
		if len(envelope.Queries) == 0 {
			return nil, false, nil
		}
		return envelope.Queries, true, nil
	}

	if err := r.ParseForm(); err != nil {
		return nil, false, errors.New("invalid form: " + err.Error())
	}
	if _, ok := r.Form["queries"]; !ok {
		return nil, false, nil
	}
	return []byte(r.Form.Get("queries")), true, nil
}

func isJSON(contentType string) bool {
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/json"
}

// SuggestItem is one entry of a suggest response.
type SuggestItem struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SuggestResponse is the suggest envelope.
type SuggestResponse struct {
	Result []SuggestItem `json:"result"`
}

// SuggestEntity handles GET /suggest/entity.
func (s *Server) SuggestEntity(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	var types []string
	for _, t := range q["type"] {
		for _, part := range strings.Split(t, ",") {
			if part = strings.TrimSpace(part); part != "" {
				types = append(types, part)
			}
		}
	}

	items, err := s.suggest.Entities(r.Context(), q.Get("prefix"), types, limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := SuggestResponse{Result: make([]SuggestItem, len(items))}
	for i, it := range items {
		resp.Result[i] = SuggestItem{ID: it.ID, Name: it.Name, Description: it.Description}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

// SuggestType handles GET /suggest/type.
func (s *Server) SuggestType(w http.ResponseWriter, r *http.Request) {
	limit, ok := s.queryLimit(w, r)
	if !ok {
		return
	}
	items, err := s.suggest.Types(r.Context(), r.URL.Query().Get("prefix"), limit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	resp := SuggestResponse{Result: make([]SuggestItem, len(items))}
	for i, it := range items {
		resp.Result[i] = SuggestItem{
			ID:          it.Type.ID(),
			Name:        it.Type.Name(),
			Description: strconv.Itoa(it.Count) + " entities",
		}
	}
	writeJSON(w, r, http.StatusOK, resp)
}

func (s *Server) queryLimit(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		writeError(w, r, http.StatusBadRequest, CodeBadRequest, "limit must be a non-negative integer")
		return 0, false
	}
	return n, true
}

// EntityView is the JSON record served by /view/{id}.
type EntityView struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	ASCIIName      string   `json:"asciiName,omitempty"`
	AlternateNames []string `json:"alternateNames,omitempty"`
	Type           TypeRef  `json:"type"`
	Country        string   `json:"country,omitempty"`
	Admin          []string `json:"admin,omitempty"`
	Population     int64    `json:"population"`
	Latitude       *float64 `json:"lat,omitempty"`
	Longitude      *float64 `json:"lon,omitempty"`
	Description    string   `json:"description"`
}

func entityToView(e *entity.Entity) EntityView {
	v := EntityView{
		ID:             e.ID(),
		Name:           e.DisplayName(),
		ASCIIName:      e.ASCIIName(),
		AlternateNames: e.AlternateNames(),
		Type:           typeRef(e.Type()),
		Country:        e.CountryCode(),
		Population:     e.Population(),
		Description:    suggestuc.Describe(e),
	}
	admin := e.AdminCodes()
	last := -1
	for i, a := range admin {
		if a != "" {
			last = i
		}
	}
	if last >= 0 {
		v.Admin = admin[:last+1]
	}
	if c := e.Coordinates(); c != nil {
		lat, lon := c.Latitude, c.Longitude
		v.Latitude, v.Longitude = &lat, &lon
	}
	return v
}

// View handles GET /view/{id}.
func (s *Server) View(w http.ResponseWriter, r *http.Request) {
	e, err := s.suggest.Entity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, entityToView(&e))
}

var previewTemplate = template.Must(template.New("preview").Parse(`<!DOCTYPE html>
<html><head><meta charset="utf-8"><title>{{.Name}}</title></head>
<body style="margin:0;padding:8px;font-family:sans-serif;font-size:13px">
<div style="font-weight:bold;font-size:15px">{{.Name}}</div>
<div style="color:#555">{{.Description}}</div>
{{if .Latitude}}<div style="color:#777">{{.Latitude}}, {{.Longitude}}</div>{{end}}
{{if .AlternateNames}}<div style="color:#777;overflow:hidden;white-space:nowrap;text-overflow:ellipsis">also: {{range $i, $n := .AlternateNames}}{{if $i}}, {{end}}{{$n}}{{end}}</div>{{end}}
<div style="color:#999">id {{.ID}}</div>
</body></html>
`))

// Preview handles GET /preview/{id} with a small HTML card.
func (s *Server) Preview(w http.ResponseWriter, r *http.Request) {
	e, err := s.suggest.Entity(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	v := entityToView(&e)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := previewTemplate.Execute(w, v); err != nil {
		s.logger.Error("render preview", zap.Error(err))
	}
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status     string            `json:"status"`
	Checks     map[string]string `json:"checks"`
	Generation string            `json:"generation,omitempty"`
	Entities   int               `json:"entities"`
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, nil, httpStatus, HealthResponse{
		Status:     string(report.Status),
		Checks:     checks,
		Generation: report.Generation,
		Entities:   report.Entities,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}).ServeHTTP(w, r)
}
