package api

import (
	"net/http"

	"github.com/bturcotte520/FlashCards/internal/db"
	"github.com/bturcotte520/FlashCards/internal/logger"
)

type readiness struct {
	Status            string   `json:"status"`
	Database          string   `json:"database"`
	PendingMigrations []string `json:"pending_migrations,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady answers 200 once the database is reachable and every schema
// migration has been applied.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.FromContext(ctx)

	res := readiness{Status: "ready", Database: "ok"}
	if s.DB == nil {
		res.Status, res.Database = "unavailable", "not configured"
		writeJSON(w, r, http.StatusServiceUnavailable, res)
		return
	}
	if err := s.DB.PingContext(ctx); err != nil {
		log.Warn("readiness: database ping failed: %v", err)
		res.Status, res.Database = "unavailable", "unreachable"
		writeJSON(w, r, http.StatusServiceUnavailable, res)
		return
	}

	pending, err := db.PendingMigrations(ctx, s.DB)
	if err != nil {
		log.Warn("readiness: cannot read migration state: %v", err)
		res.Status, res.Database = "unavailable", "schema unknown"
		writeJSON(w, r, http.StatusServiceUnavailable, res)
		return
	}
	if len(pending) > 0 {
		log.Warn("readiness: %d migrations pending", len(pending))
		res.Status, res.PendingMigrations = "migrating", pending
		writeJSON(w, r, http.StatusServiceUnavailable, res)
		return
	}
	writeJSON(w, r, http.StatusOK, res)
}
