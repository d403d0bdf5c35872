package session

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// MemoryStore keeps sessions in a mutex-guarded map. Expiry is lazy: an
// expired entry is dropped when it is next looked up. The optional cleanup
// goroutine sweeps entries that are never looked up again, so the map does
// not grow without bound.
type MemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	clock    TimeProvider
	logger   *slog.Logger

	cleanupTicker *time.Ticker
	stopCleanup   chan struct{}
}

func NewMemoryStore(logger *slog.Logger) *MemoryStore {
	return &MemoryStore{
		sessions: make(map[string]*Session),
		clock:    &realTimeProvider{},
		logger:   logger,
	}
}

// SetTimeProvider replaces the clock, used by tests to advance time.
func (s *MemoryStore) SetTimeProvider(clock TimeProvider) {
	s.clock = clock
}

func (s *MemoryStore) Put(ctx context.Context, sess *Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sess.ID] = sess
	return nil
}

func (s *MemoryStore) Get(ctx context.Context, id string) (*Session, error) {
	s.mu.RLock()
	sess, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return nil, ErrNotFound
	}
	if s.clock.Now().After(sess.Expiry) {
		s.mu.Lock()
		delete(s.sessions, id)
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return sess, nil
}

func (s *MemoryStore) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions), nil
}

// StartCleanup launches the periodic sweep of expired sessions.
func (s *MemoryStore) StartCleanup(interval time.Duration) {
	s.stopCleanup = make(chan struct{})
	s.cleanupTicker = time.NewTicker(interval)

	go func() {
		for {
			select {
			case <-s.cleanupTicker.C:
				s.performCleanup()
			case <-s.stopCleanup:
				s.cleanupTicker.Stop()
				return
			}
		}
	}()
}

func (s *MemoryStore) StopCleanup() {
	if s.stopCleanup != nil {
		close(s.stopCleanup)
	}
}

func (s *MemoryStore) performCleanup() {
	now := s.clock.Now()
	s.mu.Lock()
	defer s.mu.Unlock()

	for id, sess := range s.sessions {
		if now.After(sess.Expiry) {
			delete(s.sessions, id)
			s.logger.Debug("Deleted expired session",
				slog.String("session_id", id))
		}
	}
}
