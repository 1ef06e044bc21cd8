package http

import (
	"net/http/httptest"
	"testing"
	"time"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
	"quiz-attempt-service/internal/ratelimit"
)

type testEnv struct {
	server   *httptest.Server
	attempts *app.AttemptService
	timers   chan func()
}

func newTestEnv(t *testing.T, limiter *ratelimit.Limiter, auth *Authenticator) *testEnv {
	t.Helper()
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(sampleQuizzes()), time.Minute)
	attempts := app.NewAttemptService(quizzes, memory.NewAttemptStore())
	timers := make(chan func(), 4)
	plays := app.NewPlayService(memory.NewPlayStore(), quizzes, attempts,
		app.WithAfterFunc(func(_ time.Duration, f func()) app.Timer {
			timers <- f
			return noopTimer{}
		}),
	)

	server := httptest.NewServer(NewRouter(RouterConfig{
		Attempts: attempts,
		Plays:    plays,
		Limiter:  limiter,
		Auth:     auth,
	}))
	t.Cleanup(server.Close)
	return &testEnv{server: server, attempts: attempts, timers: timers}
}

type noopTimer struct{}

func (noopTimer) Stop() bool { return true }

func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:           "quiz-1",
			PassingScore: 70,
			Questions: []domain.Question{
				{
					ID:             "q1",
					Prompt:         "What is 2 + 2?",
					Options:        []string{"3", "4", "5"},
					CorrectIndices: []int{1},
					Points:         1,
				},
				{
					ID:             "q2",
					Prompt:         "Pick the primes",
					Options:        []string{"2", "4", "3"},
					CorrectIndices: []int{0, 2},
					MultipleChoice: true,
					Points:         2,
				},
			},
		},
		"quiz-timed": {
			ID:        "quiz-timed",
			TimeLimit: 30,
			Questions: []domain.Question{
				{ID: "t1", Prompt: "Capital of France?", Options: []string{"Paris", "Rome"}, CorrectIndices: []int{0}},
				{ID: "t2", Prompt: "Capital of Italy?", Options: []string{"Paris", "Rome"}, CorrectIndices: []int{1}},
			},
		},
	}
}
