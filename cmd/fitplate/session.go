package fitplate

import (
	"sync"

	"github.com/saadjs/fitplate/internal/analytics"
	"github.com/saadjs/fitplate/internal/logstore"
	"github.com/saadjs/fitplate/internal/service"
)

// session is one viewer's state: the viewed day, the pipeline writing through
// it and the analytics request in flight. Each user gets their own.
type session struct {
	days    *logstore.Store
	mutator *service.Mutator
	engine  *analytics.Engine
}

type sessions struct {
	build func() *session

	mu     sync.Mutex
	byUser map[string]*session
}

func newSessions(build func() *session) *sessions {
	return &sessions{build: build, byUser: make(map[string]*session)}
}

func (s *sessions) get(userID string) *session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.byUser[userID]; ok {
		return sess
	}
	sess := s.build()
	s.byUser[userID] = sess
	return sess
}

func (s *sessions) close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, sess := range s.byUser {
		sess.days.Close()
		delete(s.byUser, id)
	}
	return nil
}
