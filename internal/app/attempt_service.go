package app

import (
	"context"
	"fmt"
	"time"

	"quiz-attempt-service/internal/domain"
)

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	GetQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// AttemptStore persists scores and aggregates. Every finalized attempt runs inside
// WithinTx; if fn returns an error nothing from that unit of work is kept.
type AttemptStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx AttemptTx) error) error
	GetScore(ctx context.Context, scoreID string) (domain.Score, error)
	QuizStats(ctx context.Context, quizID string) (domain.QuizStats, error)
	UserStats(ctx context.Context, userID string) (domain.UserStats, error)
}

// AttemptTx is the set of writes available inside one unit of work.
type AttemptTx interface {
	// CreateScore appends the score record and returns its generated identifier.
	CreateScore(ctx context.Context, score domain.Score) (string, error)
	// QuizPercentages returns the percentage of every score recorded for the quiz,
	// including ones created earlier in the same unit of work.
	QuizPercentages(ctx context.Context, quizID string) ([]float64, error)
	// BumpQuiz increments the play count by one and stores the recomputed average.
	BumpQuiz(ctx context.Context, quizID string, average float64) error
	// AddUserTotals adds score to the user's lifetime total and increments the attempt count.
	AddUserTotals(ctx context.Context, userID string, score int) error
}

// AttemptService scores attempts and keeps quiz and user aggregates consistent.
type AttemptService struct {
	quizzes QuizRepository
	store   AttemptStore
	now     func() time.Time
}

func NewAttemptService(quizzes QuizRepository, store AttemptStore) *AttemptService {
	return &AttemptService{quizzes: quizzes, store: store, now: time.Now}
}

// CheckAnswer reveals correctness of one selection without touching persisted state.
func (s *AttemptService) CheckAnswer(ctx context.Context, questionID string, selected []int) (domain.Feedback, error) {
	q, err := s.quizzes.GetQuestion(ctx, questionID)
	if err != nil {
		return domain.Feedback{}, err
	}
	return CheckSelection(q, selected), nil
}

// SubmitAttempt scores answers against the quiz, persists one Score record and applies
// the aggregates in the same unit of work. Calling it twice records two attempts.
func (s *AttemptService) SubmitAttempt(ctx context.Context, userID, quizID string, answers []domain.AnswerSubmission, totalTimeSpent *int) (domain.AttemptResult, error) {
	if userID == "" {
		return domain.AttemptResult{}, domain.ErrUserRequired
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	return s.finalize(ctx, userID, quiz, answers, totalTimeSpent)
}

func (s *AttemptService) finalize(ctx context.Context, userID string, quiz domain.Quiz, answers []domain.AnswerSubmission, totalTimeSpent *int) (domain.AttemptResult, error) {
	out := ScoreAttempt(quiz, answers)
	if totalTimeSpent != nil {
		spent := *totalTimeSpent
		out.TimeSpent = &spent
	}

	score := domain.Score{
		UserID:       userID,
		QuizID:       quiz.ID,
		Score:        out.Score,
		MaxScore:     out.MaxScore,
		Percentage:   out.Percentage,
		CorrectCount: out.CorrectCount,
		TotalCount:   out.TotalCount,
		TimeSpent:    out.TimeSpent,
		Passed:       out.Passed,
		Results:      out.Results,
		CreatedAt:    s.now().UTC(),
	}

	err := s.store.WithinTx(ctx, func(ctx context.Context, tx AttemptTx) error {
		id, err := tx.CreateScore(ctx, score)
		if err != nil {
			return fmt.Errorf("create score: %w", err)
		}
		score.ID = id
		return applyAggregates(ctx, tx, score)
	})
	if err != nil {
		return domain.AttemptResult{}, err
	}

	return domain.AttemptResult{
		ScoreID:      score.ID,
		Score:        score.Score,
		MaxScore:     score.MaxScore,
		Percentage:   score.Percentage,
		CorrectCount: score.CorrectCount,
		TotalCount:   score.TotalCount,
		Passed:       score.Passed,
		Results:      score.Results,
	}, nil
}

// applyAggregates recomputes the quiz average over all of its scores and bumps the
// play count and user totals. Any failure is reported as ErrAggregateUpdate.
func applyAggregates(ctx context.Context, tx AttemptTx, score domain.Score) error {
	percentages, err := tx.QuizPercentages(ctx, score.QuizID)
	if err != nil {
		return fmt.Errorf("%w: load quiz history: %v", domain.ErrAggregateUpdate, err)
	}
	if err := tx.BumpQuiz(ctx, score.QuizID, Mean(percentages)); err != nil {
		return fmt.Errorf("%w: quiz %s: %v", domain.ErrAggregateUpdate, score.QuizID, err)
	}
	if err := tx.AddUserTotals(ctx, score.UserID, score.Score); err != nil {
		return fmt.Errorf("%w: user %s: %v", domain.ErrAggregateUpdate, score.UserID, err)
	}
	return nil
}

// GetScore returns a persisted score with its per-question results.
func (s *AttemptService) GetScore(ctx context.Context, scoreID string) (domain.Score, error) {
	return s.store.GetScore(ctx, scoreID)
}

// QuizStats returns the play count and average percentage of a quiz.
func (s *AttemptService) QuizStats(ctx context.Context, quizID string) (domain.QuizStats, error) {
	if _, err := s.quizzes.GetQuiz(ctx, quizID); err != nil {
		return domain.QuizStats{}, err
	}
	return s.store.QuizStats(ctx, quizID)
}

// UserStats returns the lifetime totals of a user.
func (s *AttemptService) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	if userID == "" {
		return domain.UserStats{}, domain.ErrUserRequired
	}
	return s.store.UserStats(ctx, userID)
}
