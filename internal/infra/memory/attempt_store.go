package memory

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

// AttemptStore is an in-memory implementation of app.AttemptStore. Units of work are
// serialized and staged, so a failing unit leaves no trace.
type AttemptStore struct {
	mu          sync.Mutex
	scores      map[string]domain.Score
	percentages map[string][]float64
	quizzes     map[string]domain.QuizStats
	users       map[string]domain.UserStats
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		scores:      make(map[string]domain.Score),
		percentages: make(map[string][]float64),
		quizzes:     make(map[string]domain.QuizStats),
		users:       make(map[string]domain.UserStats),
	}
}

func (s *AttemptStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.AttemptTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx := &attemptTx{
		store:       s,
		scores:      make(map[string]domain.Score),
		percentages: make(map[string][]float64),
		quizzes:     make(map[string]domain.QuizStats),
		users:       make(map[string]domain.UserStats),
	}
	if err := fn(ctx, tx); err != nil {
		return err
	}
	tx.commitLocked()
	return nil
}

func (s *AttemptStore) GetScore(_ context.Context, scoreID string) (domain.Score, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	score, ok := s.scores[scoreID]
	if !ok {
		return domain.Score{}, domain.ErrScoreNotFound
	}
	return score, nil
}

func (s *AttemptStore) QuizStats(_ context.Context, quizID string) (domain.QuizStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.quizzes[quizID]
	if !ok {
		return domain.QuizStats{QuizID: quizID}, nil
	}
	return stats, nil
}

func (s *AttemptStore) UserStats(_ context.Context, userID string) (domain.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stats, ok := s.users[userID]
	if !ok {
		return domain.UserStats{UserID: userID}, nil
	}
	return stats, nil
}

// attemptTx stages writes on top of the committed state.
type attemptTx struct {
	store       *AttemptStore
	scores      map[string]domain.Score
	percentages map[string][]float64
	quizzes     map[string]domain.QuizStats
	users       map[string]domain.UserStats
}

func (tx *attemptTx) CreateScore(_ context.Context, score domain.Score) (string, error) {
	score.ID = uuid.NewString()
	tx.scores[score.ID] = score
	tx.percentages[score.QuizID] = append(tx.percentages[score.QuizID], score.Percentage)
	return score.ID, nil
}

func (tx *attemptTx) QuizPercentages(_ context.Context, quizID string) ([]float64, error) {
	committed := tx.store.percentages[quizID]
	out := make([]float64, 0, len(committed)+len(tx.percentages[quizID]))
	out = append(out, committed...)
	out = append(out, tx.percentages[quizID]...)
	return out, nil
}

func (tx *attemptTx) BumpQuiz(_ context.Context, quizID string, average float64) error {
	stats, ok := tx.quizzes[quizID]
	if !ok {
		stats = tx.store.quizzes[quizID]
		stats.QuizID = quizID
	}
	stats.PlayCount++
	stats.AverageScore = average
	tx.quizzes[quizID] = stats
	return nil
}

func (tx *attemptTx) AddUserTotals(_ context.Context, userID string, score int) error {
	stats, ok := tx.users[userID]
	if !ok {
		stats = tx.store.users[userID]
		stats.UserID = userID
	}
	stats.TotalScore += int64(score)
	stats.AttemptCount++
	tx.users[userID] = stats
	return nil
}

func (tx *attemptTx) commitLocked() {
	s := tx.store
	for id, score := range tx.scores {
		s.scores[id] = score
	}
	for quizID, values := range tx.percentages {
		s.percentages[quizID] = append(s.percentages[quizID], values...)
	}
	for quizID, stats := range tx.quizzes {
		s.quizzes[quizID] = stats
	}
	for userID, stats := range tx.users {
		s.users[userID] = stats
	}
}
