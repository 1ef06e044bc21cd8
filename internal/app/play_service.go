package app

import (
	"context"
	"log"
	"time"

	"github.com/google/uuid"

	"quiz-attempt-service/internal/domain"
)

// PlayRepository abstracts how in-progress plays are stored (in-memory, Redis, etc).
type PlayRepository interface {
	Put(play *Play)
	Get(playID string) (*Play, bool)
	Delete(playID string)
}

// PlayOption customizes a PlayService.
type PlayOption func(*PlayService)

// WithClock replaces time.Now, mainly for deterministic tests.
func WithClock(now func() time.Time) PlayOption {
	return func(s *PlayService) { s.now = now }
}

// WithAfterFunc replaces time.AfterFunc for scheduling countdown expiry.
func WithAfterFunc(after func(time.Duration, func()) Timer) PlayOption {
	return func(s *PlayService) { s.afterFunc = after }
}

// PlayService drives the standard and one-by-one attempt protocols. Both converge on
// the same finalization as AttemptService.SubmitAttempt.
type PlayService struct {
	plays     PlayRepository
	quizzes   QuizRepository
	attempts  *AttemptService
	now       func() time.Time
	afterFunc func(time.Duration, func()) Timer
}

func NewPlayService(plays PlayRepository, quizzes QuizRepository, attempts *AttemptService, opts ...PlayOption) *PlayService {
	s := &PlayService{
		plays:    plays,
		quizzes:  quizzes,
		attempts: attempts,
		now:      time.Now,
		afterFunc: func(d time.Duration, f func()) Timer {
			return time.AfterFunc(d, f)
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// StartPlay opens a play of the quiz in the given mode. Standard plays of timed
// quizzes start their countdown immediately.
func (s *PlayService) StartPlay(ctx context.Context, quizID, userID string, mode domain.PlayMode) (*Play, error) {
	if userID == "" {
		return nil, domain.ErrUserRequired
	}
	if !mode.Valid() {
		return nil, domain.ErrInvalidMode
	}
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	if len(quiz.Questions) == 0 {
		return nil, domain.ErrQuestionIndex
	}

	play := newPlay(uuid.NewString(), userID, quiz, mode, s.now)
	if mode == domain.ModeStandard && quiz.TimeLimit > 0 {
		limit := time.Duration(quiz.TimeLimit) * time.Second
		play.deadline = play.startedAt.Add(limit)
		play.timer = s.afterFunc(limit, func() { s.expire(play) })
	}
	s.plays.Put(play)
	return play, nil
}

// State returns the current snapshot of a play.
func (s *PlayService) State(_ context.Context, playID, userID string) (domain.PlayState, error) {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return domain.PlayState{}, err
	}
	return play.State(), nil
}

// Select records the selection for the question at index, replacing any earlier one.
func (s *PlayService) Select(_ context.Context, playID, userID string, index int, selected []int) (domain.PlayState, error) {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return domain.PlayState{}, err
	}
	play.mu.Lock()
	defer play.mu.Unlock()
	if err := play.selectLocked(index, selected); err != nil {
		return domain.PlayState{}, err
	}
	return play.stateLocked(), nil
}

// Navigate moves to another question. Only standard plays can navigate.
func (s *PlayService) Navigate(_ context.Context, playID, userID string, index int) (domain.PlayState, error) {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return domain.PlayState{}, err
	}
	play.mu.Lock()
	defer play.mu.Unlock()
	if err := play.navigateLocked(index); err != nil {
		return domain.PlayState{}, err
	}
	return play.stateLocked(), nil
}

// Check reveals correctness of the current question and locks its selection.
func (s *PlayService) Check(_ context.Context, playID, userID string) (domain.Feedback, error) {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return domain.Feedback{}, err
	}
	play.mu.Lock()
	defer play.mu.Unlock()
	return play.checkLocked()
}

// Advance moves a checked one-by-one play to the next question, or finalizes it after
// the last one. The result is non-nil only when the play finished.
func (s *PlayService) Advance(ctx context.Context, playID, userID string) (domain.PlayState, *domain.AttemptResult, error) {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return domain.PlayState{}, nil, err
	}
	play.mu.Lock()
	defer play.mu.Unlock()

	if play.mode != domain.ModeOneByOne {
		return domain.PlayState{}, nil, domain.ErrWrongMode
	}
	if play.closedLocked() {
		return domain.PlayState{}, nil, domain.ErrPlayClosed
	}
	if play.phase != domain.PhaseChecked {
		return domain.PlayState{}, nil, domain.ErrNotChecked
	}

	if play.current < len(play.quiz.Questions)-1 {
		play.current++
		play.phase = domain.PhasePresenting
		play.feedback = nil
		play.presentedAt = play.now()
		return play.stateLocked(), nil, nil
	}

	result, err := s.finalizeLocked(ctx, play)
	if err != nil {
		return domain.PlayState{}, nil, err
	}
	play.phase = domain.PhaseFinished
	s.plays.Delete(play.id)
	return play.stateLocked(), &result, nil
}

// Submit finalizes a standard play with whatever answers were recorded.
func (s *PlayService) Submit(ctx context.Context, playID, userID string) (domain.AttemptResult, error) {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	play.mu.Lock()
	defer play.mu.Unlock()

	if play.mode != domain.ModeStandard {
		return domain.AttemptResult{}, domain.ErrWrongMode
	}
	if play.closedLocked() {
		return domain.AttemptResult{}, domain.ErrPlayClosed
	}
	result, err := s.finalizeLocked(ctx, play)
	if err != nil {
		return domain.AttemptResult{}, err
	}
	play.stopTimerLocked()
	play.phase = domain.PhaseSubmitted
	s.plays.Delete(play.id)
	return result, nil
}

// Abandon discards an unfinished play without scoring it.
func (s *PlayService) Abandon(_ context.Context, playID, userID string) error {
	play, err := s.lookup(playID, userID)
	if err != nil {
		return err
	}
	play.mu.Lock()
	play.abandoned = true
	play.stopTimerLocked()
	play.mu.Unlock()
	s.plays.Delete(play.id)
	return nil
}

// expire runs when a standard play's countdown ends. The play stays in the store in
// its submitted phase, so later input fails with ErrPlayClosed until it is abandoned.
func (s *PlayService) expire(play *Play) {
	play.mu.Lock()
	defer play.mu.Unlock()
	if play.abandoned || play.phase == domain.PhaseSubmitted {
		return
	}
	play.phase = domain.PhaseSubmitted
	play.timer = nil

	result, err := s.finalizeLocked(context.Background(), play)
	if err != nil {
		log.Printf("auto-submit of play %s failed: %v", play.id, err)
		play.expiredErr = err
	} else {
		play.result = &result
	}
	close(play.expired)
}

func (s *PlayService) finalizeLocked(ctx context.Context, play *Play) (domain.AttemptResult, error) {
	elapsed := play.elapsedLocked()
	return s.attempts.finalize(ctx, play.userID, play.quiz, play.submissionsLocked(), &elapsed)
}

func (s *PlayService) lookup(playID, userID string) (*Play, error) {
	play, ok := s.plays.Get(playID)
	if !ok || play.userID != userID {
		return nil, domain.ErrPlayNotFound
	}
	return play, nil
}
