package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Use(recoverer)
	r.Use(middleware.SetHeader("X-Content-Type-Options", "nosniff"))

	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.NoCache)
		if s.RequestTimeout > 0 {
			r.Use(middleware.Timeout(s.RequestTimeout))
		}

		r.Get("/grades", s.handleGrades)

		r.Get("/decks", s.handleListDecks)
		r.Post("/decks", s.handleCreateDeck)
		r.Route("/decks/{id}", func(r chi.Router) {
			r.Use(scopeLogger("deck_id"))
			r.Get("/", s.handleGetDeck)
			r.Get("/cards", s.handleDeckCards)
			r.Post("/cards", s.handleAddCards)
			r.Post("/import", s.handleImportDeck)
			r.Get("/due", s.handleDueCards)
			r.Get("/new", s.handleNewCards)
		})

		r.Route("/cards/{id}", func(r chi.Router) {
			r.Use(scopeLogger("card_id"))
			r.Get("/progress", s.handleCardProgress)
			r.Post("/review", s.handleReviewCard)
			r.Post("/reset", s.handleResetCard)
		})

		r.Post("/sessions", s.handleStartSession)
		r.Get("/sessions/history", s.handleSessionHistory)
		r.Route("/sessions/{id}", func(r chi.Router) {
			r.Use(scopeLogger("session_id"))
			r.Get("/", s.handleGetSession)
			r.Post("/answer", s.handleAnswerSession)
		})

		r.Get("/stats/summary", s.handleStatsSummary)

		r.Get("/progress/export", s.handleExportProgress)
		r.Post("/progress/import", s.handleImportProgress)
	})
	return r
}
