// Package api exposes the threshold engine and stored tests over HTTP
package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"

	"lactest/internal/analysis"
	"lactest/internal/metrics"
	"lactest/internal/service"
	"lactest/internal/store"
)

// maxBodyBytes bounds request bodies; a stage test is a few hundred bytes
const maxBodyBytes = 1 << 20

// Handler holds the dependencies of the HTTP handlers
type Handler struct {
	analysis  *service.AnalysisService
	query     *service.QueryService
	startTime time.Time
}

// NewHandler creates a new handler
func NewHandler(analysisSvc *service.AnalysisService, query *service.QueryService) *Handler {
	return &Handler{
		analysis:  analysisSvc,
		query:     query,
		startTime: time.Now(),
	}
}

// AnalyzeHandler handles POST /api/analyze: stateless analysis of the
// submitted stages
func (h *Handler) AnalyzeHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/analyze"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	var req AnalyzeRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, ep, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}
	overrides, err := overridesFromJSON(req.Overrides)
	if err != nil {
		h.fail(w, r, ep, err.Error(), http.StatusBadRequest)
		return
	}

	res, err := h.analysis.AnalyzeStages(rawFromJSON(req.Stages), overrides)
	if err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}

	h.ok(w, r, ep, analysisResponse(res), http.StatusOK)
}

// ListTestsHandler handles GET /api/tests?limit=&offset=
func (h *Handler) ListTestsHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	limit := queryInt(r, "limit", service.TestListLimit)
	offset := queryInt(r, "offset", 0)

	summaries, total, err := h.query.ListTests(limit, offset)
	if err != nil {
		h.fail(w, r, ep, err.Error(), http.StatusInternalServerError)
		return
	}

	resp := TestListResponse{Total: total, Tests: make([]TestJSON, 0, len(summaries))}
	for _, s := range summaries {
		t := testJSON(s.Test)
		t.LT1 = storedThresholdJSON(s.LT1)
		t.LT2 = storedThresholdJSON(s.LT2)
		resp.Tests = append(resp.Tests, t)
	}
	h.ok(w, r, ep, resp, http.StatusOK)
}

// CreateTestHandler handles POST /api/tests
func (h *Handler) CreateTestHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	var req CreateTestRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.fail(w, r, ep, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	test := &store.StageTest{
		Athlete: req.Athlete,
		Sport:   req.Sport,
		Notes:   req.Notes,
		Source:  service.SourceAPI,
	}
	if req.TestedAt != nil {
		test.TestedAt = *req.TestedAt
	}

	id, err := h.analysis.ImportTest(test, rawFromJSON(req.Stages))
	if err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}
	h.ok(w, r, ep, map[string]string{"id": id}, http.StatusCreated)
}

// GetTestHandler handles GET /api/tests/{id}
func (h *Handler) GetTestHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests/{id}"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	detail, err := h.query.GetTestDetail(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}
	h.ok(w, r, ep, detailJSON(detail), http.StatusOK)
}

// DeleteTestHandler handles DELETE /api/tests/{id}
func (h *Handler) DeleteTestHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests/{id}"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	if err := h.analysis.DeleteTest(mux.Vars(r)["id"]); err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}
	metrics.RequestsTotal.WithLabelValues(ep, r.Method, "204").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// AnalyzeTestHandler handles POST /api/tests/{id}/analyze
func (h *Handler) AnalyzeTestHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests/{id}/analyze"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	res, err := h.analysis.AnalyzeTest(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}
	h.ok(w, r, ep, analysisResponse(res), http.StatusOK)
}

// CompareHandler handles GET /api/tests/{id}/methods
func (h *Handler) CompareHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests/{id}/methods"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	results, err := h.analysis.CompareMethods(mux.Vars(r)["id"])
	if err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}

	resp := make([]MethodJSON, 0, len(results))
	for _, m := range results {
		row := MethodJSON{Kind: string(m.Kind), Method: string(m.Method), OK: m.OK}
		if m.OK {
			th := thresholdJSON(m.Threshold)
			row.Threshold = &th
		}
		resp = append(resp, row)
	}
	h.ok(w, r, ep, resp, http.StatusOK)
}

// SetOverrideHandler handles PUT /api/tests/{id}/overrides/{kind}
func (h *Handler) SetOverrideHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests/{id}/overrides/{kind}"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	vars := mux.Vars(r)
	kind, err := parseKind(vars["kind"])
	if err != nil {
		h.fail(w, r, ep, err.Error(), http.StatusBadRequest)
		return
	}
	var body OverrideJSON
	if err := decodeJSON(w, r, &body); err != nil {
		h.fail(w, r, ep, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.analysis.SetOverride(vars["id"], string(kind), body.Lactate, body.Intensity); err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}
	h.ok(w, r, ep, body, http.StatusOK)
}

// ClearOverrideHandler handles DELETE /api/tests/{id}/overrides/{kind}
func (h *Handler) ClearOverrideHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/tests/{id}/overrides/{kind}"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	vars := mux.Vars(r)
	kind, err := parseKind(vars["kind"])
	if err != nil {
		h.fail(w, r, ep, err.Error(), http.StatusBadRequest)
		return
	}
	if err := h.analysis.ClearOverride(vars["id"], string(kind)); err != nil {
		h.fail(w, r, ep, err.Error(), statusFor(err))
		return
	}
	metrics.RequestsTotal.WithLabelValues(ep, r.Method, "204").Inc()
	w.WriteHeader(http.StatusNoContent)
}

// EstimateZonesHandler handles GET /api/zones/estimate?age=&gender=&max_hr=&fitness=
// Without parameters the athlete config is used.
func (h *Handler) EstimateZonesHandler(w http.ResponseWriter, r *http.Request) {
	const ep = "/api/zones/estimate"
	timer := prometheus.NewTimer(metrics.RequestDuration.WithLabelValues(ep, r.Method))
	defer timer.ObserveDuration()

	q := r.URL.Query()
	if len(q) == 0 {
		h.ok(w, r, ep, zonesJSON(h.analysis.EstimateZones(), ""), http.StatusOK)
		return
	}

	in := analysis.ZoneInput{MaxHR: queryInt(r, "max_hr", 0)}
	if age := queryInt(r, "age", 0); age > 0 {
		in.Athlete = &analysis.Athlete{
			Age:    age,
			Gender: analysis.Gender(strings.ToUpper(q.Get("gender"))),
		}
	}
	if level := q.Get("fitness"); level != "" {
		in.Fitness = &analysis.FitnessEstimate{Level: analysis.FitnessLevel(strings.ToUpper(level))}
	}
	h.ok(w, r, ep, zonesJSON(analysis.CalculateZones(in), ""), http.StatusOK)
}

// HealthHandler handles GET /health
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{
		"status": "healthy",
		"uptime": time.Since(h.startTime).Round(time.Second).String(),
	}
	h.respondJSON(w, status, http.StatusOK)
}

func (h *Handler) ok(w http.ResponseWriter, r *http.Request, ep string, data any, status int) {
	metrics.RequestsTotal.WithLabelValues(ep, r.Method, strconv.Itoa(status)).Inc()
	h.respondJSON(w, data, status)
}

func (h *Handler) fail(w http.ResponseWriter, r *http.Request, ep, message string, status int) {
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %s", r.Method, r.URL.Path, message)
	}
	metrics.RequestsTotal.WithLabelValues(ep, r.Method, strconv.Itoa(status)).Inc()
	h.respondError(w, message, status)
}

// respondJSON writes data as a JSON response
func (h *Handler) respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// respondError writes an error as a JSON response
func (h *Handler) respondError(w http.ResponseWriter, message string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

// statusFor maps domain errors onto HTTP status codes
func statusFor(err error) int {
	switch {
	case errors.Is(err, store.ErrTestNotFound), errors.Is(err, store.ErrOverrideNotFound):
		return http.StatusNotFound
	case errors.Is(err, analysis.ErrNoStages), errors.Is(err, analysis.ErrNoThreshold):
		return http.StatusUnprocessableEntity
	case errors.Is(err, service.ErrInvalidOverride):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

func parseKind(s string) (analysis.Kind, error) {
	switch k := analysis.Kind(strings.ToUpper(s)); k {
	case analysis.LT1, analysis.LT2:
		return k, nil
	}
	return "", fmt.Errorf("unknown threshold kind %q, want LT1 or LT2", s)
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			return n
		}
	}
	return def
}
