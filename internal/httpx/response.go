package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/printdesk/printdesk/internal/models"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// DomainError maps the domain error taxonomy to an HTTP response. Unknown
// errors (store unavailability and the like) surface as a fatal 500, never as
// a silently degraded result.
func DomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnauthorized):
		JSONError(w, http.StatusForbidden, models.ErrUnauthorized.Error(), detail(err, models.ErrUnauthorized))
	case errors.Is(err, models.ErrNotFound):
		JSONError(w, http.StatusNotFound, models.ErrNotFound.Error(), detail(err, models.ErrNotFound))
	case errors.Is(err, models.ErrInvalidTransition):
		JSONError(w, http.StatusConflict, models.ErrInvalidTransition.Error(), detail(err, models.ErrInvalidTransition))
	case errors.Is(err, models.ErrConflict):
		JSONError(w, http.StatusConflict, models.ErrConflict.Error(), detail(err, models.ErrConflict))
	case errors.Is(err, models.ErrValidation):
		JSONError(w, http.StatusBadRequest, models.ErrValidation.Error(), detail(err, models.ErrValidation))
	default:
		JSONError(w, http.StatusInternalServerError, "internal_error", nil)
	}
}

// detail exposes the wrapped message when it adds information beyond the code.
func detail(err, sentinel error) any {
	if err.Error() == sentinel.Error() {
		return nil
	}
	return err.Error()
}
