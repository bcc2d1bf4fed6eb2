package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/logger"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.FromContext(r.Context()).Error("failed to encode response: %v", err)
	}
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.NewBadRequestError("invalid JSON body: " + err.Error())
	}
	return nil
}

type qualityRequest struct {
	Quality *int `json:"quality"`
}

func decodeQuality(r *http.Request) (int, error) {
	var req qualityRequest
	if err := decodeJSON(r, &req); err != nil {
		return 0, err
	}
	if req.Quality == nil {
		return 0, errors.NewValidationError("quality", "is required")
	}
	return *req.Quality, nil
}

// queryInt reads a positive integer query parameter, falling back to def.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n <= 0 {
		return 0, errors.NewValidationError(key, "must be a positive integer")
	}
	return n, nil
}
