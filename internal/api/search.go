package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/Aman-CERP/litsearch/internal/query"
	"github.com/Aman-CERP/litsearch/internal/search"
	"github.com/Aman-CERP/litsearch/internal/telemetry"
)

// maxBodyBytes bounds a search request body.
const maxBodyBytes = 1 << 20

// SearchRouter handles the search endpoints.
type SearchRouter struct {
	svc     *search.Service
	metrics *telemetry.QueryMetrics
	logger  *slog.Logger
}

// NewSearchRouter creates a SearchRouter. metrics may be nil.
func NewSearchRouter(svc *search.Service, metrics *telemetry.QueryMetrics, logger *slog.Logger) *SearchRouter {
	return &SearchRouter{svc: svc, metrics: metrics, logger: logger}
}

// Routes returns the router for /search.
func (r *SearchRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Post("/", r.Search)
	router.Get("/basic", r.Basic)
	router.Get("/exists", r.Exists)
	router.Get("/authors", r.Authors)

	return router
}

// Search handles POST /search with a query.Request body.
func (r *SearchRouter) Search(w http.ResponseWriter, req *http.Request) {
	var body query.Request
	dec := json.NewDecoder(http.MaxBytesReader(w, req.Body, maxBodyBytes))
	if err := dec.Decode(&body); err != nil {
		r.logger.Info("search_body_rejected", slog.String("error", err.Error()))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"}, r.logger)
		return
	}
	start := time.Now()
	results := r.svc.Search(req.Context(), &body)
	r.record(telemetry.OpSearch, describe(&body), results, start)
	r.writeResults(w, results)
}

// Basic handles GET /search/basic?q=.
func (r *SearchRouter) Basic(w http.ResponseWriter, req *http.Request) {
	start := time.Now()
	text := req.URL.Query().Get("q")
	results := r.svc.BasicSearch(req.Context(), text)
	r.record(telemetry.OpBasic, text, results, start)
	r.writeResults(w, results)
}

// Exists handles GET /search/exists?title=&lastName=. The body is a JSON
// boolean.
func (r *SearchRouter) Exists(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	start := time.Now()
	found := r.svc.SimilarExists(req.Context(), q.Get("title"), q.Get("lastName"))
	if r.metrics != nil {
		event := telemetry.QueryEvent{
			Operation: telemetry.OpExists,
			Query:     q.Get("title") + " " + q.Get("lastName"),
			Latency:   time.Since(start),
		}
		if found {
			event.Results = 1
		}
		r.metrics.Record(event)
	}
	writeJSON(w, http.StatusOK, found, r.logger)
}

// Authors handles GET /search/authors?firstName=&lastName=.
func (r *SearchRouter) Authors(w http.ResponseWriter, req *http.Request) {
	q := req.URL.Query()
	start := time.Now()
	results := r.svc.SearchAuthor(req.Context(), q.Get("firstName"), q.Get("lastName"))
	r.record(telemetry.OpAuthors, q.Get("firstName")+" "+q.Get("lastName"), results, start)
	r.writeResults(w, results)
}

// record counts hits and error markers separately.
func (r *SearchRouter) record(op telemetry.Operation, text string, results []search.Result, start time.Time) {
	if r.metrics == nil {
		return
	}
	event := telemetry.QueryEvent{Operation: op, Query: text, Latency: time.Since(start)}
	for _, res := range results {
		if res.IsError() {
			event.FailedNamespaces = append(event.FailedNamespaces, string(res.Namespace))
			continue
		}
		event.Results++
	}
	r.metrics.Record(event)
}

// describe flattens the free-text parts of a request for term counting.
func describe(req *query.Request) string {
	parts := []string{req.Text, req.Title, req.Topics}
	if req.Author != nil {
		parts = append(parts, req.Author.FirstName, req.Author.LastName)
	}
	for _, c := range req.Clauses {
		if c.Operator != query.OpRange {
			parts = append(parts, c.Value)
		}
	}
	return strings.Join(strings.Fields(strings.Join(parts, " ")), " ")
}

func (r *SearchRouter) writeResults(w http.ResponseWriter, results []search.Result) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := search.WriteJSON(w, results); err != nil {
		r.logger.Warn("response_write_failed", slog.String("error", err.Error()))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any, logger *slog.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("response_write_failed", slog.String("error", err.Error()))
	}
}
