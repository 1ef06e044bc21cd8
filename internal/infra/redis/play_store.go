package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-attempt-service/internal/app"
)

// PlayStore is a Redis-aware implementation of app.PlayRepository.
// Notes:
//   - Plays hold a live countdown and a connection, so the play itself stays in a
//     local map on the instance that started it.
//   - Redis carries a liveness marker per play with a TTL, which lets other
//     instances and operators see open plays.
type PlayStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	plays  map[string]*app.Play
}

func NewPlayStore(client *redis.Client, ttl time.Duration) *PlayStore {
	return &PlayStore{
		client: client,
		ttl:    ttl,
		plays:  make(map[string]*app.Play),
	}
}

func (s *PlayStore) Put(play *app.Play) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays[play.ID()] = play
	// best-effort liveness marker
	_ = s.client.Set(context.Background(), s.key(play.ID()), play.UserID(), s.ttl).Err()
}

func (s *PlayStore) Get(playID string) (*app.Play, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	play, ok := s.plays[playID]
	return play, ok
}

func (s *PlayStore) Delete(playID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.plays[playID]; !ok {
		return
	}
	delete(s.plays, playID)
	_ = s.client.Del(context.Background(), s.key(playID)).Err()
}

func (s *PlayStore) key(playID string) string {
	return "quiz:play:" + playID
}
