package memory

import (
	"sync"

	"quiz-attempt-service/internal/app"
)

// PlayStore is an in-memory implementation of app.PlayRepository.
type PlayStore struct {
	mu    sync.RWMutex
	plays map[string]*app.Play
}

func NewPlayStore() *PlayStore {
	return &PlayStore{
		plays: make(map[string]*app.Play),
	}
}

func (s *PlayStore) Put(play *app.Play) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.plays[play.ID()] = play
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
	delete(s.plays, playID)
}

// Len reports how many plays are open.
func (s *PlayStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.plays)
}
