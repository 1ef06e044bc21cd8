package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"quiz-attempt-service/internal/domain"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeDomainError maps service errors onto status codes. Unknown errors are logged
// and reported without detail.
func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("request failed: %v", err)
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrScoreNotFound),
		errors.Is(err, domain.ErrPlayNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUserRequired):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrInvalidMode),
		errors.Is(err, domain.ErrQuestionIndex):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrPlayClosed),
		errors.Is(err, domain.ErrWrongMode),
		errors.Is(err, domain.ErrSelectionLocked),
		errors.Is(err, domain.ErrNavigationLocked),
		errors.Is(err, domain.ErrNotChecked),
		errors.Is(err, domain.ErrEmptySelection):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
