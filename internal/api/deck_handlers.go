package api

import (
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/importer"
	"github.com/bturcotte520/FlashCards/internal/logger"
	"github.com/bturcotte520/FlashCards/internal/models"
	"github.com/bturcotte520/FlashCards/internal/srs"
)

const defaultMaxUpload = 10 << 20

func (s *Server) handleGrades(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, srs.Grades)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.DeckService.ListDecks(r.Context())
	if err != nil {
		handleError(w, r, err)
		return
	}
	if decks == nil {
		decks = []models.DeckSummary{}
	}
	writeJSON(w, r, http.StatusOK, decks)
}

func (s *Server) handleCreateDeck(w http.ResponseWriter, r *http.Request) {
	var deck models.Deck
	if err := decodeJSON(r, &deck); err != nil {
		handleError(w, r, err)
		return
	}

	created, err := s.DeckService.CreateDeck(r.Context(), deck)
	if err != nil {
		handleError(w, r, err)
		return
	}
	logger.FromContext(r.Context()).Info("deck created: id=%s", created.ID)
	writeJSON(w, r, http.StatusCreated, created)
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	deck, err := s.DeckService.GetDeck(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, deck)
}

func (s *Server) handleDeckCards(w http.ResponseWriter, r *http.Request) {
	cards, err := s.DeckService.Cards(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeCards(w, r, cards)
}

func (s *Server) handleAddCards(w http.ResponseWriter, r *http.Request) {
	var cards []models.Card
	if err := decodeJSON(r, &cards); err != nil {
		handleError(w, r, err)
		return
	}

	added, err := s.DeckService.AddCards(r.Context(), chi.URLParam(r, "id"), cards)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, added)
}

type importResponse struct {
	*importer.Result
	Cards []models.Card `json:"cards"`
}

// handleImportDeck adds the cards of an uploaded .xlsx or .csv file (form
// field "file") to the deck.
func (s *Server) handleImportDeck(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContext(r.Context())
	deckID := chi.URLParam(r, "id")

	limit := s.uploadLimit()
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	if err := r.ParseMultipartForm(limit); err != nil {
		handleError(w, r, bodyError(err))
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		handleError(w, r, errors.NewValidationError("file", "is required"))
		return
	}
	defer file.Close()

	cfg := importer.DefaultConfig()
	if sheet := r.FormValue("sheet"); sheet != "" {
		cfg.SheetName = sheet
	}

	var (
		cards []models.Card
		res   *importer.Result
	)
	switch ext := strings.ToLower(filepath.Ext(header.Filename)); ext {
	case ".csv":
		cards, res, err = importer.ReadCSV(file, cfg)
	case ".xlsx", ".xlsm":
		cards, res, err = importer.ReadSpreadsheet(file, cfg)
	default:
		handleError(w, r, errors.NewValidationError("file", "must be .xlsx or .csv"))
		return
	}
	if err != nil {
		handleError(w, r, errors.NewBadRequestError(err.Error()))
		return
	}
	log.Info("parsed deck upload: file=%s rows=%d imported=%d skipped=%d", header.Filename, res.TotalProcessed, res.Imported, res.Skipped)

	if len(cards) == 0 {
		writeJSON(w, r, http.StatusOK, importResponse{Result: res, Cards: []models.Card{}})
		return
	}
	added, err := s.DeckService.AddCards(r.Context(), deckID, cards)
	if err != nil {
		handleError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusCreated, importResponse{Result: res, Cards: added})
}

func writeCards(w http.ResponseWriter, r *http.Request, cards []models.Card) {
	if cards == nil {
		cards = []models.Card{}
	}
	writeJSON(w, r, http.StatusOK, cards)
}
