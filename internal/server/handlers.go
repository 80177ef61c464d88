package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/claude/repcycle/internal/completion"
	"github.com/claude/repcycle/internal/difficulty"
	"github.com/claude/repcycle/internal/ingest/sheets"
	"github.com/claude/repcycle/internal/tracker"
)

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, userInfoFromContext(r))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	st, err := s.tracker.Status(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleCurrent(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracker.Current(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleSkip(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracker.Skip(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleComplete(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracker.Complete(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleFindNext(w http.ResponseWriter, r *http.Request) {
	offset, err := intParam(r, "offset", 0)
	if err != nil || offset < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "offset must be a non-negative integer"})
		return
	}
	v, err := s.tracker.FindNext(r.Context(), offset)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.tracker.Dashboard(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleReload(w http.ResponseWriter, r *http.Request) {
	result, err := s.tracker.Load(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	v, err := s.tracker.Retrain(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, v)
}

func (s *Server) handleJournal(w http.ResponseWriter, r *http.Request) {
	limit, err := intParam(r, "limit", 50)
	if err != nil || limit <= 0 {
		limit = 50
	}
	entries, err := s.tracker.Journal(r.Context(), limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

// writeError maps tracker and collaborator errors to status codes.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var (
		fetchErr *sheets.FetchError
		wbErr    *completion.WriteBackError
		rtErr    *difficulty.RetrainError
	)
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, tracker.ErrNotLoaded):
		status = http.StatusServiceUnavailable
	case errors.Is(err, completion.ErrInFlight), errors.Is(err, tracker.ErrGroupCompleted):
		status = http.StatusConflict
	case errors.Is(err, tracker.ErrRetrainDisabled):
		status = http.StatusNotImplemented
	case errors.As(err, &fetchErr), errors.As(err, &wbErr), errors.As(err, &rtErr):
		status = http.StatusBadGateway
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func intParam(r *http.Request, name string, def int) (int, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
