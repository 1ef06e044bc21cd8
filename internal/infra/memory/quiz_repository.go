package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"quiz-attempt-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuizRepository caches quiz and question snapshots with TTL to avoid repeated DB hits.
type QuizRepository struct {
	loader QuizLoader
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex

	mu        sync.RWMutex
	quizzes   map[string]cached[domain.Quiz]
	questions map[string]cached[domain.Question]
}

type cached[T any] struct {
	value     T
	expiresAt time.Time
}

func NewQuizRepository(loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		loader:    loader,
		ttl:       ttl,
		clock:     time.Now,
		rnd:       rand.New(rand.NewSource(time.Now().UnixNano())),
		quizzes:   make(map[string]cached[domain.Quiz]),
		questions: make(map[string]cached[domain.Question]),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := cacheGet(r, r.quizzes, quizID); ok {
		return quiz, nil
	}

	result, err, _ := r.sf.Do("quiz:"+quizID, func() (interface{}, error) {
		if quiz, ok := cacheGet(r, r.quizzes, quizID); ok {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}
		cachePut(r, r.quizzes, quizID, quiz)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	if q, ok := cacheGet(r, r.questions, questionID); ok {
		return q, nil
	}

	result, err, _ := r.sf.Do("question:"+questionID, func() (interface{}, error) {
		if q, ok := cacheGet(r, r.questions, questionID); ok {
			return q, nil
		}
		q, err := r.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}
		cachePut(r, r.questions, questionID, q)
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

func cacheGet[T any](r *QuizRepository, m map[string]cached[T], key string) (T, bool) {
	now := r.clock()
	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := m[key]
	if !ok || !entry.expiresAt.After(now) {
		var zero T
		return zero, false
	}
	return entry.value, true
}

func cachePut[T any](r *QuizRepository, m map[string]cached[T], key string, value T) {
	expiresAt := r.clock().Add(r.ttlWithJitter())
	r.mu.Lock()
	m[key] = cached[T]{value: value, expiresAt: expiresAt}
	r.mu.Unlock()
}

// StaticQuizLoader is a simple loader backed by an in-memory map (useful for tests/demos).
type StaticQuizLoader struct {
	quizzes map[string]domain.Quiz
}

func NewStaticQuizLoader(quizzes map[string]domain.Quiz) *StaticQuizLoader {
	return &StaticQuizLoader{quizzes: quizzes}
}

func (l *StaticQuizLoader) LoadQuiz(_ context.Context, quizID string) (domain.Quiz, error) {
	if quiz, ok := l.quizzes[quizID]; ok {
		return quiz, nil
	}
	return domain.Quiz{}, domain.ErrQuizNotFound
}

func (l *StaticQuizLoader) LoadQuestion(_ context.Context, questionID string) (domain.Question, error) {
	for _, quiz := range l.quizzes {
		for _, q := range quiz.Questions {
			if q.ID == questionID {
				return q, nil
			}
		}
	}
	return domain.Question{}, domain.ErrQuestionNotFound
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
