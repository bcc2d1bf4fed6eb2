package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bturcotte520/FlashCards/internal/logger"
)

type startSessionRequest struct {
	DeckIDs []string `json:"deck_ids"`
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	var req startSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleError(w, r, err)
		return
	}

	view, err := s.StudyService.StartSession(r.Context(), req.DeckIDs)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("session started: id=%s state=%s total=%d", view.ID, view.State, view.Total)
	writeJSON(w, r, http.StatusCreated, view)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	view, err := s.StudyService.GetSession(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleAnswerSession(w http.ResponseWriter, r *http.Request) {
	quality, err := decodeQuality(r)
	if err != nil {
		handleError(w, r, err)
		return
	}

	res, err := s.StudyService.AnswerSession(r.Context(), chi.URLParam(r, "id"), quality)
	if err != nil {
		handleError(w, r, err)
		return
	}
	w.Header().Set(persistedHeader, strconv.FormatBool(res.Persisted))
	writeJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleSessionHistory(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		handleError(w, r, err)
		return
	}
	sessions, err := s.StatsService.RecentSessions(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sessions)
}

func (s *Server) handleStatsSummary(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", 20)
	if err != nil {
		handleError(w, r, err)
		return
	}
	sum, err := s.StatsService.Summary(r.Context(), limit)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, sum)
}
