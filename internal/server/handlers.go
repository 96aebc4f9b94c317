package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/leapstack-labs/metalens/internal/executor"
	"github.com/leapstack-labs/metalens/internal/lineage"
	"github.com/leapstack-labs/metalens/internal/sqlscan"
)

// lineageResponse wraps a graph with the no-lineage flag so the UI can
// render the isolated node and its notice in one round-trip.
type lineageResponse struct {
	Graph     *lineage.Graph `json:"graph"`
	NoLineage bool           `json:"no_lineage"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCollections(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string][]string{"collections": s.collections.Collections()})
}

func (s *Server) handleLineage(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")
	opts := lineage.Options{Refresh: r.URL.Query().Get("refresh") == "true"}

	graph, err := s.service.Lineage(r.Context(), entity, opts)
	switch {
	case errors.Is(err, lineage.ErrEntityNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such entity: " + entity})
		return
	case err != nil && !errors.Is(err, lineage.ErrNoLineage):
		s.logger.Error("lineage build failed", "entity", entity, "error", err)
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
		return
	}

	// Cached graphs are shared, so refocusing works on a copy.
	if focus := r.URL.Query().Get("focus"); focus != "" {
		g := *graph
		g.Nodes = append([]lineage.Node(nil), graph.Nodes...)
		g.Refocus(focus)
		graph = &g
	}
	writeJSON(w, http.StatusOK, lineageResponse{Graph: graph, NoLineage: errors.Is(err, lineage.ErrNoLineage)})
}

func (s *Server) handleProcesses(w http.ResponseWriter, r *http.Request) {
	entity := chi.URLParam(r, "entity")

	graph, err := s.service.Lineage(r.Context(), entity, lineage.Options{})
	switch {
	case errors.Is(err, lineage.ErrEntityNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "no such entity: " + entity})
	case err != nil && !errors.Is(err, lineage.ErrNoLineage):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusOK, map[string]any{
			"processes": graph.RawProcesses,
			"metadata":  graph.Metadata,
		})
	}
}

// transformRequest is a pasted tabular result plus an optional focus
// label.
type transformRequest struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Focus   string   `json:"focus,omitempty"`
}

func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req transformRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}

	result := &executor.Result{Columns: req.Columns, Rows: req.Rows}
	if !lineage.DetectLineageResult(result.Columns) {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "result does not look like lineage data"})
		return
	}

	graph, err := lineage.TransformResult(result, req.Focus)
	if err != nil {
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, lineageResponse{Graph: graph})
}

type extractRequest struct {
	SQL string `json:"sql"`
}

func (s *Server) handleExtract(w http.ResponseWriter, r *http.Request) {
	var req extractRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body: " + err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"entities": sqlscan.Extract(req.SQL)})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
