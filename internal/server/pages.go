package server

import (
	"net/http"

	"go.uber.org/zap"

	"github.com/verbatlas/pagegen/internal/sitegen"
)

// handlePage serves the composed site page: TOC and verb-section fragments
// generated from the store, stitched into the base template.
func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	if s.verbs == nil || s.composer == nil {
		writeError(w, http.StatusServiceUnavailable, "page rendering not configured")
		return
	}

	records, err := s.verbs.List()
	if err != nil {
		s.logger.Error("verb list for page failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "verb store unavailable")
		return
	}

	page, err := s.composer.ComposeStandard(r.Context(), sitegen.TOC(records), sitegen.Sections(records))
	if err != nil {
		s.logger.Error("page composition failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "page composition failed")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(page))
}
