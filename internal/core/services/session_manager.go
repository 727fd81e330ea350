package services

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/comitanigiacomo/kanso-challenge-engine/internal/core/domain"
)

// Session bundles the services of one signed-in user.
type Session struct {
	Principal domain.Principal
	Challenge *ChallengeService
	Sync      *SyncService
	Stats     *StatsService

	cancel context.CancelFunc
}

// Close resets the state at once, stops the subscription and waits for the
// writer to flush.
func (s *Session) Close() {
	s.Sync.Close()
	s.cancel()
	s.Sync.Wait()
}

// SessionManager keeps one live Session per uid. Sessions outlive the request
// that opened them and end on logout or shutdown.
type SessionManager struct {
	baseCtx context.Context
	deps    SyncDeps
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*Session
	opening  singleflight.Group
}

func NewSessionManager(ctx context.Context, deps SyncDeps) *SessionManager {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &SessionManager{
		baseCtx:  context.WithoutCancel(ctx),
		deps:     deps,
		logger:   deps.Logger.With(zap.String("component", "sessions")),
		sessions: make(map[string]*Session),
	}
}

// Open returns the live session of principal, starting it on first use.
// Concurrent opens of the same uid share one start.
func (m *SessionManager) Open(principal domain.Principal) (*Session, error) {
	if principal.UID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if s, ok := m.Get(principal.UID); ok {
		return s, nil
	}

	v, err, _ := m.opening.Do(principal.UID, func() (any, error) {
		if s, ok := m.Get(principal.UID); ok {
			return s, nil
		}

		s, err := m.start(principal)
		if err != nil {
			return nil, err
		}

		m.mu.Lock()
		m.sessions[principal.UID] = s
		m.mu.Unlock()
		return s, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Session), nil
}

func (m *SessionManager) start(principal domain.Principal) (*Session, error) {
	ctx, cancel := context.WithCancel(m.baseCtx)

	syncer := NewSyncService(principal, m.deps)
	session := &Session{
		Principal: principal,
		Challenge: syncer.Challenge(),
		Sync:      syncer,
		Stats:     NewStatsService(syncer.Challenge(), m.deps.Calendar),
		cancel:    cancel,
	}

	if err := syncer.Start(ctx); err != nil {
		session.Close()
		return nil, fmt.Errorf("session: start %s: %w", principal.UID, err)
	}

	m.logger.Info("session opened", zap.String("uid", principal.UID))
	return session, nil
}

func (m *SessionManager) Get(uid string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[uid]
	return s, ok
}

// Close ends the session of uid. Closing an unknown uid is a no-op.
func (m *SessionManager) Close(uid string) {
	m.mu.Lock()
	s, ok := m.sessions[uid]
	delete(m.sessions, uid)
	m.mu.Unlock()

	if !ok {
		return
	}
	s.Close()
	m.logger.Info("session closed", zap.String("uid", uid))
}

func (m *SessionManager) CloseAll() {
	m.mu.Lock()
	sessions := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, s := range sessions {
		wg.Add(1)
		go func(s *Session) {
			defer wg.Done()
			s.Close()
		}(s)
	}
	wg.Wait()
	m.logger.Info("all sessions closed", zap.Int("count", len(sessions)))
}

func (m *SessionManager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
