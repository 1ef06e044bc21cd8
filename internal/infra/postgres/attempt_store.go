package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"quiz-attempt-service/internal/app"
	"quiz-attempt-service/internal/domain"
)

type scoreRow struct {
	bun.BaseModel `bun:"table:scores,alias:s"`

	ID           string                  `bun:"id,pk"`
	UserID       string                  `bun:"user_id"`
	QuizID       string                  `bun:"quiz_id"`
	Score        int                     `bun:"score"`
	MaxScore     int                     `bun:"max_score"`
	Percentage   float64                 `bun:"percentage"`
	CorrectCount int                     `bun:"correct_count"`
	TotalCount   int                     `bun:"total_count"`
	TimeSpent    *int                    `bun:"time_spent"`
	Passed       bool                    `bun:"passed"`
	Results      []domain.QuestionResult `bun:"results,type:jsonb"`
	CreatedAt    time.Time               `bun:"created_at"`
}

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes,alias:q"`

	ID           string  `bun:"id,pk"`
	PlayCount    int     `bun:"play_count"`
	AverageScore float64 `bun:"average_score"`
}

type userStatsRow struct {
	bun.BaseModel `bun:"table:user_stats,alias:us"`

	UserID       string `bun:"user_id,pk"`
	TotalScore   int64  `bun:"total_score"`
	AttemptCount int    `bun:"attempt_count"`
}

// AttemptStore persists scores and aggregates with bun. Each unit of work is a
// database transaction that holds a row lock on the quiz, so the recomputed average
// always covers every committed score.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx app.AttemptTx) error) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &attemptTx{tx: tx})
	})
}

func (s *AttemptStore) GetScore(ctx context.Context, scoreID string) (domain.Score, error) {
	row := new(scoreRow)
	err := s.db.NewSelect().Model(row).Where("s.id = ?", scoreID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Score{}, domain.ErrScoreNotFound
	}
	if err != nil {
		return domain.Score{}, fmt.Errorf("get score: %w", err)
	}
	return row.toDomain(), nil
}

func (s *AttemptStore) QuizStats(ctx context.Context, quizID string) (domain.QuizStats, error) {
	row := new(quizRow)
	err := s.db.NewSelect().Model(row).Where("q.id = ?", quizID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.QuizStats{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.QuizStats{}, fmt.Errorf("quiz stats: %w", err)
	}
	return domain.QuizStats{QuizID: row.ID, PlayCount: row.PlayCount, AverageScore: row.AverageScore}, nil
}

func (s *AttemptStore) UserStats(ctx context.Context, userID string) (domain.UserStats, error) {
	row := new(userStatsRow)
	err := s.db.NewSelect().Model(row).Where("us.user_id = ?", userID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStats{UserID: userID}, nil
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("user stats: %w", err)
	}
	return domain.UserStats{UserID: row.UserID, TotalScore: row.TotalScore, AttemptCount: row.AttemptCount}, nil
}

type attemptTx struct {
	tx bun.Tx
}

func (t *attemptTx) CreateScore(ctx context.Context, score domain.Score) (string, error) {
	row := newScoreRow(score)
	row.ID = uuid.NewString()
	if _, err := t.tx.NewInsert().Model(row).Exec(ctx); err != nil {
		return "", err
	}
	return row.ID, nil
}

func (t *attemptTx) QuizPercentages(ctx context.Context, quizID string) ([]float64, error) {
	// serialize finalizations of the same quiz
	var id string
	err := t.tx.NewSelect().
		Model((*quizRow)(nil)).
		Column("id").
		Where("id = ?", quizID).
		For("UPDATE").
		Scan(ctx, &id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrQuizNotFound
	}
	if err != nil {
		return nil, err
	}

	var values []float64
	err = t.tx.NewSelect().
		Model((*scoreRow)(nil)).
		Column("percentage").
		Where("quiz_id = ?", quizID).
		Scan(ctx, &values)
	return values, err
}

func (t *attemptTx) BumpQuiz(ctx context.Context, quizID string, average float64) error {
	res, err := t.tx.NewUpdate().
		Model((*quizRow)(nil)).
		Set("play_count = play_count + 1").
		Set("average_score = ?", average).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return domain.ErrQuizNotFound
	}
	return nil
}

func (t *attemptTx) AddUserTotals(ctx context.Context, userID string, score int) error {
	row := &userStatsRow{UserID: userID, TotalScore: int64(score), AttemptCount: 1}
	_, err := t.tx.NewInsert().
		Model(row).
		On("CONFLICT (user_id) DO UPDATE").
		Set("total_score = us.total_score + EXCLUDED.total_score").
		Set("attempt_count = us.attempt_count + EXCLUDED.attempt_count").
		Exec(ctx)
	return err
}

func newScoreRow(s domain.Score) *scoreRow {
	return &scoreRow{
		ID:           s.ID,
		UserID:       s.UserID,
		QuizID:       s.QuizID,
		Score:        s.Score,
		MaxScore:     s.MaxScore,
		Percentage:   s.Percentage,
		CorrectCount: s.CorrectCount,
		TotalCount:   s.TotalCount,
		TimeSpent:    s.TimeSpent,
		Passed:       s.Passed,
		Results:      s.Results,
		CreatedAt:    s.CreatedAt,
	}
}

func (r *scoreRow) toDomain() domain.Score {
	return domain.Score{
		ID:           r.ID,
		UserID:       r.UserID,
		QuizID:       r.QuizID,
		Score:        r.Score,
		MaxScore:     r.MaxScore,
		Percentage:   r.Percentage,
		CorrectCount: r.CorrectCount,
		TotalCount:   r.TotalCount,
		TimeSpent:    r.TimeSpent,
		Passed:       r.Passed,
		Results:      r.Results,
		CreatedAt:    r.CreatedAt,
	}
}
