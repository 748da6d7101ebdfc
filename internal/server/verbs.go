package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/verbatlas/pagegen/internal/verbstore"
)

const maxVerbBody = 256 << 10

func (s *Server) handleVerbList(w http.ResponseWriter, _ *http.Request) {
	if s.verbs == nil {
		writeError(w, http.StatusServiceUnavailable, "verb store not configured")
		return
	}
	records, err := s.verbs.List()
	if err != nil {
		s.logger.Error("verb list failed", zap.Error(err))
		writeError(w, http.StatusInternalServerError, "verb store unavailable")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"verbs": records})
}

func (s *Server) handleVerbGet(w http.ResponseWriter, r *http.Request) {
	if s.verbs == nil {
		writeError(w, http.StatusServiceUnavailable, "verb store not configured")
		return
	}
	rec, err := s.verbs.Get(r.PathValue("infinitive"))
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// handleVerbCreate accepts a full record in the body; the infinitive is its
// key. Creating over an existing record behaves like PUT and reports 200.
func (s *Server) handleVerbCreate(w http.ResponseWriter, r *http.Request) {
	if s.verbs == nil {
		writeError(w, http.StatusServiceUnavailable, "verb store not configured")
		return
	}
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}
	if rec.Infinitive == "" {
		writeError(w, http.StatusBadRequest, "infinitive is required")
		return
	}
	created, err := s.verbs.Put(rec)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, rec)
}

func (s *Server) handleVerbPut(w http.ResponseWriter, r *http.Request) {
	if s.verbs == nil {
		writeError(w, http.StatusServiceUnavailable, "verb store not configured")
		return
	}
	rec, ok := decodeRecord(w, r)
	if !ok {
		return
	}

	infinitive := r.PathValue("infinitive")
	if rec.Infinitive == "" {
		rec.Infinitive = infinitive
	}
	if rec.Infinitive != infinitive {
		writeError(w, http.StatusBadRequest, "infinitive in body does not match URL")
		return
	}

	created, err := s.verbs.Put(rec)
	if err != nil {
		s.writeStoreError(w, err)
		return
	}
	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	writeJSON(w, status, rec)
}

func (s *Server) handleVerbDelete(w http.ResponseWriter, r *http.Request) {
	if s.verbs == nil {
		writeError(w, http.StatusServiceUnavailable, "verb store not configured")
		return
	}
	if err := s.verbs.Delete(r.PathValue("infinitive")); err != nil {
		s.writeStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func decodeRecord(w http.ResponseWriter, r *http.Request) (verbstore.Record, bool) {
	var rec verbstore.Record
	if err := json.NewDecoder(io.LimitReader(r.Body, maxVerbBody)).Decode(&rec); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return verbstore.Record{}, false
	}
	rec.Infinitive = strings.TrimSpace(rec.Infinitive)
	return rec, true
}

func (s *Server) writeStoreError(w http.ResponseWriter, err error) {
	if errors.Is(err, verbstore.ErrVerbNotFound) {
		writeError(w, http.StatusNotFound, "verb not found")
		return
	}
	s.logger.Error("verb store operation failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "verb store unavailable")
}
