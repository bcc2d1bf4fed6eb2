package api

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/logger"
)

const (
	requestIDHeader = "X-Request-ID"
	// persistedHeader is set by handlers that write progress.
	persistedHeader = "X-Progress-Persisted"
)

// requestLogger gives every request a logger tagged with its request id and
// logs the outcome once the route is known.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		requestID := r.Header.Get(requestIDHeader)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, requestID)

		log := logger.Default().WithFields(map[string]any{
			"request_id": requestID,
			"method":     r.Method,
		})
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r.WithContext(logger.NewContext(r.Context(), log)))

		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		fields := map[string]any{
			"status":      status,
			"duration_ms": time.Since(start).Milliseconds(),
		}
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			fields["route"] = rctx.RoutePattern()
			if id := rctx.URLParam("id"); id != "" {
				fields["id"] = id
			}
		} else {
			fields["path"] = r.URL.Path
		}
		persisted := ww.Header().Get(persistedHeader)
		if persisted != "" {
			fields["persisted"] = persisted
		}
		log = log.WithFields(fields)

		switch {
		case status >= 500:
			log.Error("request failed")
		case status >= 400:
			log.Warn("request rejected")
		case persisted == "false":
			log.Warn("request served without saving progress")
		default:
			log.Info("request completed")
		}
	})
}

// scopeLogger adds the {id} URL parameter to the request logger as key, so
// service logs name the deck, card or session they act on.
func scopeLogger(key string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			log := logger.FromContext(r.Context()).WithField(key, chi.URLParam(r, "id"))
			next.ServeHTTP(w, r.WithContext(logger.NewContext(r.Context(), log)))
		})
	}
}

// recoverer turns a panic into an INTERNAL_ERROR response.
func recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				if rec == http.ErrAbortHandler {
					panic(rec)
				}
				handleError(w, r, errors.NewInternalError(fmt.Errorf("panic: %v", rec)))
			}
		}()
		next.ServeHTTP(w, r)
	})
}
