package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
	"quiz-attempt-service/internal/infra/memory"
)

func TestPlayStoreSetsAndClearsKeys(t *testing.T) {
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("run miniredis: %v", err)
	}
	defer mr.Close()

	store := NewPlayStore(newClient(mr), time.Minute)
	quizzes := memory.NewQuizRepository(memory.NewStaticQuizLoader(map[string]domain.Quiz{"quiz-1": sampleQuiz()}), 0)
	plays := app.NewPlayService(store, quizzes, app.NewAttemptService(quizzes, memory.NewAttemptStore()))

	play, err := plays.StartPlay(context.Background(), "quiz-1", "u1", domain.ModeOneByOne)
	if err != nil {
		t.Fatalf("start play: %v", err)
	}
	key := "quiz:play:" + play.ID()
	if !mr.Exists(key) {
		t.Fatalf("expected redis key to be set")
	}
	if got, _ := mr.Get(key); got != "u1" {
		t.Fatalf("expected owner in liveness key, got %q", got)
	}
	if ttl := mr.TTL(key); ttl != time.Minute {
		t.Fatalf("expected ttl 1m, got %v", ttl)
	}

	if err := plays.Abandon(context.Background(), play.ID(), "u1"); err != nil {
		t.Fatalf("abandon: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected redis key to be removed")
	}
	if _, ok := store.Get(play.ID()); ok {
		t.Fatalf("expected play removed locally")
	}
}
