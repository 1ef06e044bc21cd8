package redis

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"quiz-attempt-service/internal/domain"
)

// QuizLoader fetches quiz content from a backing store (e.g., Postgres).
type QuizLoader interface {
	LoadQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	LoadQuestion(ctx context.Context, questionID string) (domain.Question, error)
}

// QuizRepository caches quiz snapshots in Redis and falls back to a loader on cache miss.
// Snapshots are stored as JSON:
//
//	SET quiz:{quizID}              {quiz}
//	SET quiz:question:{questionID} {question}
type QuizRepository struct {
	client *redis.Client
	loader QuizLoader
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
	rndMu  sync.Mutex
}

func NewQuizRepository(client *redis.Client, loader QuizLoader, ttl time.Duration) *QuizRepository {
	return &QuizRepository{
		client: client,
		loader: loader,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (r *QuizRepository) GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error) {
	key := quizKey(quizID)
	var quiz domain.Quiz
	if r.read(ctx, key, &quiz) {
		return quiz, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		var quiz domain.Quiz
		if r.read(ctx, key, &quiz) {
			return quiz, nil
		}
		quiz, err := r.loader.LoadQuiz(ctx, quizID)
		if err != nil {
			return domain.Quiz{}, err
		}

		ttl := r.ttlWithJitter()
		pipe := r.client.Pipeline()
		r.write(ctx, pipe, key, quiz, ttl)
		for _, q := range quiz.Questions {
			r.write(ctx, pipe, questionKey(q.ID), q, ttl)
		}
		_, _ = pipe.Exec(ctx)
		return quiz, nil
	})
	if err != nil {
		return domain.Quiz{}, err
	}
	return result.(domain.Quiz), nil
}

func (r *QuizRepository) GetQuestion(ctx context.Context, questionID string) (domain.Question, error) {
	key := questionKey(questionID)
	var q domain.Question
	if r.read(ctx, key, &q) {
		return q, nil
	}

	result, err, _ := r.sf.Do(key, func() (interface{}, error) {
		var q domain.Question
		if r.read(ctx, key, &q) {
			return q, nil
		}
		q, err := r.loader.LoadQuestion(ctx, questionID)
		if err != nil {
			return domain.Question{}, err
		}
		pipe := r.client.Pipeline()
		r.write(ctx, pipe, key, q, r.ttlWithJitter())
		_, _ = pipe.Exec(ctx)
		return q, nil
	})
	if err != nil {
		return domain.Question{}, err
	}
	return result.(domain.Question), nil
}

// read reports a cache hit. Redis errors and undecodable payloads count as misses.
func (r *QuizRepository) read(ctx context.Context, key string, dst interface{}) bool {
	raw, err := r.client.Get(ctx, key).Bytes()
	if err != nil {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func (r *QuizRepository) write(ctx context.Context, pipe redis.Pipeliner, key string, v interface{}, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	pipe.Set(ctx, key, raw, ttl)
}

func quizKey(quizID string) string {
	return "quiz:" + quizID
}

func questionKey(questionID string) string {
	return "quiz:question:" + questionID
}

func (r *QuizRepository) ttlWithJitter() time.Duration {
	if r.ttl <= 0 {
		return 0
	}
	jitterMax := int64(r.ttl) / 10
	r.rndMu.Lock()
	defer r.rndMu.Unlock()
	return r.ttl + time.Duration(r.rnd.Int63n(jitterMax+1))
}
