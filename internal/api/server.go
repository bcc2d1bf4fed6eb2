package api

import (
	"database/sql"
	"time"

	"github.com/bturcotte520/FlashCards/internal/importer"
	"github.com/bturcotte520/FlashCards/internal/repository"
	"github.com/bturcotte520/FlashCards/internal/services"
)

type Server struct {
	DB             *sql.DB
	DeckService    services.DeckService
	StudyService   services.StudyService
	StatsService   services.StatsService
	Progress       repository.ProgressStore
	Restorer       importer.ProgressRestorer
	RequestTimeout time.Duration
	MaxUploadBytes int64
	Clock          func() time.Time
}

func (s *Server) now() time.Time {
	if s.Clock != nil {
		return s.Clock()
	}
	return time.Now()
}

func (s *Server) uploadLimit() int64 {
	if s.MaxUploadBytes > 0 {
		return s.MaxUploadBytes
	}
	return defaultMaxUpload
}
