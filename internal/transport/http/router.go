package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/ratelimit"
)

// RouterConfig carries the dependencies of the HTTP surface. Limiter may be nil to
// disable throttling.
type RouterConfig struct {
	Attempts       *app.AttemptService
	Plays          *app.PlayService
	Limiter        *ratelimit.Limiter
	Auth           *Authenticator
	AllowedOrigins []string
}

// NewRouter mounts the REST and websocket routes.
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Logger, middleware.Recoverer)
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   cfg.AllowedOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Authorization", "Content-Type", "X-User-ID"},
			ExposedHeaders:   []string{"X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}

	auth := cfg.Auth
	if auth == nil {
		auth = NewAuthenticator("")
	}
	attempts := NewAttemptHandler(cfg.Attempts)
	plays := NewPlayHandler(cfg.Plays)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(cfg.Limiter, ratelimit.ClassGeneral), auth.Middleware)
		r.Post("/v1/questions/{questionID}/check", attempts.CheckAnswer)
		r.Get("/v1/quizzes/{quizID}/stats", attempts.QuizStats)
		r.Get("/v1/scores/{scoreID}", attempts.GetScore)
		r.Get("/v1/users/me/stats", attempts.UserStats)
	})

	r.Group(func(r chi.Router) {
		r.Use(RateLimit(cfg.Limiter, ratelimit.ClassCreation), auth.Middleware)
		r.Post("/v1/quizzes/{quizID}/attempts", attempts.SubmitAttempt)
		r.Get("/ws/play", plays.ServeWS)
	})

	return r
}
