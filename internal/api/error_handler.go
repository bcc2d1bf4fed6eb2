package api

import (
	stderrors "errors"
	"net/http"

	"github.com/bturcotte520/FlashCards/internal/errors"
	"github.com/bturcotte520/FlashCards/internal/logger"
)

type errorBody struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	RequestID string `json:"request_id,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// handleError writes err as a JSON error carrying the request id. Grading
// problems are logged at INFO since they are expected learner input.
func handleError(w http.ResponseWriter, r *http.Request, err error) {
	appErr := errors.FromError(err)
	log := logger.FromContext(r.Context()).WithField("code", appErr.Code)

	switch {
	case appErr.Status >= 500:
		log.Error("%v", appErr)
	case appErr.Code == errors.ErrCodeInvalidQuality, appErr.Code == errors.ErrCodeConflict:
		log.Info("%v", appErr)
	default:
		log.Warn("%v", appErr)
	}

	writeJSON(w, r, appErr.Status, errorResponse{Error: errorBody{
		Code:      appErr.Code,
		Message:   appErr.Message,
		RequestID: w.Header().Get(requestIDHeader),
	}})
}

// bodyError maps a failed read of an upload or import body.
func bodyError(err error) error {
	var tooLarge *http.MaxBytesError
	if stderrors.As(err, &tooLarge) {
		return errors.NewPayloadTooLargeError(tooLarge.Limit)
	}
	return errors.NewBadRequestError(err.Error())
}
