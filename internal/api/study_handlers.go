package api

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/importer"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/session"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

type progressResponse struct {
	models.ProgressRecord
	Due          bool   `json:"due"`
	IntervalText string `json:"intervalText"`
}

type reviewResponse struct {
	Progress     models.ProgressRecord `json:"progress"`
	Persisted    bool                  `json:"persisted"`
	IntervalText string                `json:"intervalText"`
}

func (s *Server) handleDueCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.StudyService.DueCards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeCards(w, r, cards)
}

func (s *Server) handleNewCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.StudyService.NewCards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeCards(w, r, cards)
}

func (s *Server) handleCardProgress(w http.ResponseWriter, r *http.Request) {
	rec, err := s.StudyService.Progress(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, progressResponse{
		ProgressRecord: *rec,
		Due:            srs.IsDue(*rec, s.now()),
		IntervalText:   srs.FormatInterval(rec.Interval),
	})
}

// writeReview answers 200 even when the record could not be stored, so the
// client still learns the new schedule; persisted tells it apart.
func writeReview(w http.ResponseWriter, r *http.Request, rec models.ProgressRecord, err error) {
	persisted := true
	if err != nil {
		if !stderrors.Is(err, session.ErrPersistenceFailed) {
			handleError(w, r, err)
			return
		}
		logger.FromContext(r.Context()).Warn("review not persisted: card_id=%s: %v", rec.CardID, err)
		persisted = false
	}
	w.Header().Set(persistedHeader, strconv.FormatBool(persisted))
	writeJSON(w, r, http.StatusOK, reviewResponse{
		Progress:     rec,
		Persisted:    persisted,
		IntervalText: srs.FormatInterval(rec.Interval),
	})
}

func (s *Server) handleReviewCard(w http.ResponseWriter, r *http.Request) {
	quality, err := decodeQuality(r)
	if err != nil {
		handleError(w, r, err)
		return
	}
	rec, err := s.StudyService.ReviewCard(r.Context(), chi.URLParam(r, "id"), quality)
	writeReview(w, r, rec, err)
}

func (s *Server) handleResetCard(w http.ResponseWriter, r *http.Request) {
	rec, err := s.StudyService.ResetCard(r.Context(), chi.URLParam(r, "id"))
	writeReview(w, r, rec, err)
}

func (s *Server) handleExportProgress(w http.ResponseWriter, r *http.Request) {
	format := importer.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := importer.ParseFormat(raw)
		if err != nil {
			handleError(w, r, errors.NewValidationError("format", err.Error()))
			return
		}
		format = f
	}

	if format == importer.FormatYAML {
		w.Header().Set("Content-Type", "application/yaml")
	} else {
		w.Header().Set("Content-Type", "application/json")
	}
	if _, err := importer.ExportProgress(r.Context(), s.Progress, w, format); err != nil {
		handleError(w, r, err)
	}
}

func (s *Server) handleImportProgress(w http.ResponseWriter, r *http.Request) {
	format := importer.FormatJSON
	if raw := r.URL.Query().Get("format"); raw != "" {
		f, err := importer.ParseFormat(raw)
		if err != nil {
			handleError(w, r, errors.NewValidationError("format", err.Error()))
			return
		}
		format = f
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.uploadLimit())
	res, err := importer.ImportProgress(r.Context(), s.Restorer, r.Body, format)
	if err != nil {
		handleError(w, r, bodyError(err))
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
