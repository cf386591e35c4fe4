package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/banshee-data/gaze.report/internal/db"
)

const defaultRunLimit = 100

func (s *Server) requireRuns(w http.ResponseWriter) bool {
	if s.runs == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "run storage is not configured")
		return false
	}
	return true
}

func (s *Server) listRuns(w http.ResponseWriter, r *http.Request) {
	if !s.requireRuns(w) {
		return
	}
	limit := defaultRunLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			badRequest(w, fmt.Sprintf("invalid limit %q", v))
			return
		}
		limit = n
	}

	runs, err := s.runs.List(limit)
	if err != nil {
		internalServerError(w, fmt.Sprintf("failed to list runs: %v", err))
		return
	}
	if runs == nil {
		runs = []*db.Run{}
	}
	writeJSON(w, http.StatusOK, runs)
}

// writeRunError maps store errors to a status code.
func writeRunError(w http.ResponseWriter, id string, err error) {
	if errors.Is(err, db.ErrRunNotFound) {
		notFound(w, fmt.Sprintf("run %s not found", id))
		return
	}
	internalServerError(w, err.Error())
}

func (s *Server) getRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireRuns(w) {
		return
	}
	id := r.PathValue("id")
	run, err := s.runs.Get(id)
	if err != nil {
		writeRunError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (s *Server) deleteRun(w http.ResponseWriter, r *http.Request) {
	if !s.requireRuns(w) {
		return
	}
	id := r.PathValue("id")
	if err := s.runs.Delete(id); err != nil {
		writeRunError(w, id, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) runFixations(w http.ResponseWriter, r *http.Request) {
	if !s.requireRuns(w) {
		return
	}
	id := r.PathValue("id")
	fixations, err := s.runs.Fixations(id)
	if err != nil {
		writeRunError(w, id, err)
		return
	}
	writeJSON(w, http.StatusOK, fixations)
}
