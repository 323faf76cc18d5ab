package session

import (
	"context"
	"ecodigest/app/config"
	"ecodigest/app/service/digest"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/samber/do"
)

var ErrNotFound = errors.New("session not found")

var _ do.Shutdownable = (*Service)(nil)

type entry struct {
	state      *digest.State
	createdAt  time.Time
	lastAccess time.Time
}

type Service struct {
	model           string
	idleTTL         time.Duration
	cleanupInterval time.Duration
	now             func() time.Time

	mu       sync.RWMutex
	sessions map[string]*entry
}

func New(di *do.Injector) (*Service, error) {
	cfg := do.MustInvoke[*config.Config](di)

	return NewService(cfg.LLM.Model, cfg.Session), nil
}

func NewService(model string, cfg config.Session) *Service {
	return &Service{
		model:           model,
		idleTTL:         cfg.IdleTTL,
		cleanupInterval: cfg.CleanupInterval,
		now:             time.Now,
		sessions:        make(map[string]*entry),
	}
}

func (s *Service) Create() (string, *digest.State) {
	id := uuid.NewString()
	now := s.now()
	state := digest.NewState(s.model)

	s.mu.Lock()
	s.sessions[id] = &entry{
		state:      state,
		createdAt:  now,
		lastAccess: now,
	}
	s.mu.Unlock()

	slog.Debug("Session created", slog.String("session_id", id))

	return id, state
}

// Get returns the state of a live session and marks it as used.
func (s *Service) Get(id string) (*digest.State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	e.lastAccess = s.now()

	return e.state, nil
}

// Touch marks a session as used. Unknown ids are ignored.
func (s *Service) Touch(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.sessions[id]; ok {
		e.lastAccess = s.now()
	}
}

func (s *Service) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)

	return nil
}

func (s *Service) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.sessions)
}

// RunCleanupLoop drops idle sessions until ctx is done.
func (s *Service) RunCleanupLoop(ctx context.Context) error {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if evicted := s.evictIdle(); evicted > 0 {
				slog.Info("Evicted idle sessions",
					slog.Int("count", evicted),
					slog.Int("remaining", s.Len()),
				)
			}
		}
	}
}

func (s *Service) evictIdle() int {
	deadline := s.now().Add(-s.idleTTL)

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for id, e := range s.sessions {
		if e.lastAccess.Before(deadline) && !e.state.Busy() {
			delete(s.sessions, id)
			evicted++
		}
	}

	return evicted
}

func (s *Service) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	slog.Debug("Dropping sessions", slog.Int("count", len(s.sessions)))
	clear(s.sessions)

	return nil
}
