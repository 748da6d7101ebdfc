package server

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"
)

const maxAnalyzeBody = 64 << 10

type analyzeRequest struct {
	Text string `json:"text"`
}

// handleAnalyze proxies an analysis request through the cache to the
// upstream API. Upstream failures map to 502; the error is logged with its
// cause and returned to the caller generically.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if s.analyzer == nil {
		writeError(w, http.StatusServiceUnavailable, "analysis backend not configured")
		return
	}

	var req analyzeRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxAnalyzeBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	analysis, err := s.analyzer.Analyze(r.Context(), req.Text)
	if err != nil {
		s.logger.Error("analysis failed", zap.Error(err))
		writeError(w, http.StatusBadGateway, "analysis upstream failed")
		return
	}
	writeJSON(w, http.StatusOK, analysis)
}

func (s *Server) handleCacheStats(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not configured")
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Stats())
}

func (s *Server) handleCacheClear(w http.ResponseWriter, _ *http.Request) {
	if s.cache == nil {
		writeError(w, http.StatusServiceUnavailable, "cache not configured")
		return
	}
	evicted := s.cache.Clear()
	s.logger.Info("analysis cache cleared", zap.Int("evicted", evicted))
	writeJSON(w, http.StatusOK, map[string]int{"evicted": evicted})
}
