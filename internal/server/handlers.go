// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/pdiddy/scholar-agent/internal/agent"
	"github.com/pdiddy/scholar-agent/internal/discovery"
	"github.com/pdiddy/scholar-agent/internal/index"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	successResponse(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	h := s.svc.Health(r.Context())
	if !h.Ready() {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]any{"status": "not ready", "health": h})
		return
	}
	successResponse(w, map[string]any{"status": "ready", "health": h})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	successResponse(w, s.svc.Health(r.Context()))
}

func (s *Server) handleSearchPapers(w http.ResponseWriter, r *http.Request) {
	var req discovery.PaperRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.SearchPapers(r.Context(), req)
	s.respond(w, r, res, err)
}

func (s *Server) handleSearchDatasets(w http.ResponseWriter, r *http.Request) {
	var req discovery.DatasetRequest
	if !decode(w, r, &req) {
		return
	}
	res, err := s.svc.SearchDatasets(r.Context(), req)
	s.respond(w, r, res, err)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		errorResponse(w, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

func (s *Server) respond(w http.ResponseWriter, r *http.Request, res *agent.Result, err error) {
	if err != nil {
		code := statusFor(err)
		if code >= http.StatusInternalServerError {
			s.log.Error("search failed", zap.String("path", r.URL.Path), zap.Error(err))
		}
		errorResponse(w, code, err.Error())
		return
	}
	successResponse(w, res.Report())
}

// statusFor maps agent and index errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, agent.ErrEmptyQuery), errors.Is(err, agent.ErrInvalidOptions):
		return http.StatusBadRequest
	case errors.Is(err, index.ErrNotInitialized):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
