package memory

import (
	"context"
	"testing"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

func TestPlayStoreLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewPlayStore()
	quizzes := NewQuizRepository(NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": sampleQuiz()}), 0)
	plays := app.NewPlayService(store, quizzes, app.NewAttemptService(quizzes, NewAttemptStore()))

	play, err := plays.StartPlay(ctx, "quiz-1", "u1", domain.ModeStandard)
	if err != nil {
		t.Fatalf("start play: %v", err)
	}
	if _, ok := store.Get(play.ID()); !ok {
		t.Fatalf("expected play present")
	}

	store.Delete(play.ID())
	if _, ok := store.Get(play.ID()); ok {
		t.Fatalf("expected play removed")
	}
	if store.Len() != 0 {
		t.Fatalf("expected empty store, got %d", store.Len())
	}
}
