package handlers

import "sync"

// sessionStore keeps one in-memory game state per user. Sessions are
// transient; a server restart simply ends them.
type sessionStore[T any] struct {
	mu sync.Mutex
	m  map[int64]T
}

func newSessionStore[T any]() *sessionStore[T] {
	return &sessionStore[T]{m: make(map[int64]T)}
}

func (s *sessionStore[T]) Get(userID int64) (T, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.m[userID]
	return v, ok
}

func (s *sessionStore[T]) Set(userID int64, v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.m[userID] = v
}

func (s *sessionStore[T]) Delete(userID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.m, userID)
}
