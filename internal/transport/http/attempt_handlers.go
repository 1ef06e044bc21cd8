package http

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// AttemptHandler exposes the request-scoped attempt operations.
type AttemptHandler struct {
	attempts *app.AttemptService
}

func NewAttemptHandler(attempts *app.AttemptService) *AttemptHandler {
	return &AttemptHandler{attempts: attempts}
}

type checkRequest struct {
	Selected []int `json:"selected"`
}

type submitRequest struct {
	Answers        []domain.AnswerSubmission `json:"answers"`
	TotalTimeSpent *int                      `json:"totalTimeSpent,omitempty"`
}

// CheckAnswer handles POST /v1/questions/{questionID}/check.
func (h *AttemptHandler) CheckAnswer(w http.ResponseWriter, r *http.Request) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	fb, err := h.attempts.CheckAnswer(r.Context(), chi.URLParam(r, "questionID"), req.Selected)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, fb)
}

// SubmitAttempt handles POST /v1/quizzes/{quizID}/attempts.
func (h *AttemptHandler) SubmitAttempt(w http.ResponseWriter, r *http.Request) {
	user := UserFromContext(r.Context())
	if user == "" {
		writeDomainError(w, domain.ErrUserRequired)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad json")
		return
	}
	res, err := h.attempts.SubmitAttempt(r.Context(), user, chi.URLParam(r, "quizID"), req.Answers, req.TotalTimeSpent)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

// QuizStats handles GET /v1/quizzes/{quizID}/stats.
func (h *AttemptHandler) QuizStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.attempts.QuizStats(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// GetScore handles GET /v1/scores/{scoreID}. Scores of other users read as not found.
func (h *AttemptHandler) GetScore(w http.ResponseWriter, r *http.Request) {
	userID := UserFromContext(r.Context())
	if userID == "" {
		writeDomainError(w, domain.ErrUserRequired)
		return
	}
	score, err := h.attempts.GetScore(r.Context(), chi.URLParam(r, "scoreID"))
	if err == nil && score.UserID != userID {
		err = domain.ErrScoreNotFound
	}
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, score)
}

// UserStats handles GET /v1/users/me/stats.
func (h *AttemptHandler) UserStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.attempts.UserStats(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
