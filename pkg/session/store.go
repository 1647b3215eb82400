package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/seoulstay/concierge/pkg/config"
)

// Store is the in-memory session map with TTL eviction and a hard size cap.
// All map mutation happens under one lock; capacity eviction runs inside the
// same critical section as creation so the bound is never exceeded.
type Store struct {
	mu       sync.Mutex
	sessions map[string]*Context
	cfg      config.SessionConfig

	cancel context.CancelFunc
	done   chan struct{}
}

// NewStore creates an empty session store.
func NewStore(cfg config.SessionConfig) *Store {
	return &Store{
		sessions: make(map[string]*Context),
		cfg:      cfg,
	}
}

// GetOrCreate returns the live context for sessionID, bumping its activity.
// An empty or unknown ID creates a fresh context (a new UUID when empty).
// A context idle past the TTL is discarded and replaced with a fresh one
// under the same ID.
func (s *Store) GetOrCreate(sessionID string) *Context {
	s.mu.Lock()
	defer s.mu.Unlock()

	if sessionID != "" {
		if ctx, ok := s.sessions[sessionID]; ok {
			if time.Since(ctx.LastActive()) <= s.cfg.TTL {
				ctx.Touch()
				return ctx
			}
			delete(s.sessions, sessionID)
		}
	}

	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if len(s.sessions) >= s.cfg.MaxSessions {
		s.evictOldestLocked()
	}

	ctx := newContext(sessionID, s.cfg.MaxCachedChunks)
	s.sessions[sessionID] = ctx
	return ctx
}

// Get returns the live context for sessionID without creating one.
func (s *Store) Get(sessionID string) (*Context, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ctx, ok := s.sessions[sessionID]
	if !ok || time.Since(ctx.LastActive()) > s.cfg.TTL {
		return nil, false
	}
	ctx.Touch()
	return ctx, true
}

// Len returns the number of stored sessions, expired or not.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// evictOldestLocked removes the least recently active session. Caller holds
// the lock.
func (s *Store) evictOldestLocked() {
	var oldestID string
	var oldestAt time.Time
	for id, ctx := range s.sessions {
		at := ctx.LastActive()
		if oldestID == "" || at.Before(oldestAt) {
			oldestID = id
			oldestAt = at
		}
	}
	if oldestID != "" {
		delete(s.sessions, oldestID)
		slog.Debug("Evicted oldest session at capacity", "session_id", oldestID)
	}
}

// Start launches the background TTL janitor.
func (s *Store) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.run(ctx)
	slog.Info("Session janitor started",
		"ttl", s.cfg.TTL, "interval", s.cfg.CleanupInterval, "max_sessions", s.cfg.MaxSessions)
}

// Stop signals the janitor to exit and waits for it.
func (s *Store) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Session janitor stopped")
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.evictExpired()
		}
	}
}

func (s *Store) evictExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()
	var evicted int
	for id, ctx := range s.sessions {
		if time.Since(ctx.LastActive()) > s.cfg.TTL {
			delete(s.sessions, id)
			evicted++
		}
	}
	if evicted > 0 {
		slog.Info("Evicted expired sessions", "count", evicted)
	}
}
