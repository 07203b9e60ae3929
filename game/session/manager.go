package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
	"github.com/wricardo/mcp-training/chronoshards/game/service"
)

var (
	ErrSessionNotFound      = service.ErrSessionNotFound
	ErrSessionAlreadyExists = service.ErrSessionAlreadyExists
	ErrInvalidSessionID     = errors.New("invalid session ID")
)

// Option configures a Manager
type Option func(*Manager)

// WithSeedFunc sets the source of per-session random seeds
func WithSeedFunc(seed func() (int64, error)) Option {
	return func(m *Manager) {
		m.seed = seed
	}
}

// WithClock sets the clock used for creation and access times
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithLogger sets the logger
func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// Manager handles game session lifecycle. Session ids are matched ignoring
// case.
type Manager struct {
	sessions     map[string]*service.Session
	destinations engine.Destinations
	seed         func() (int64, error)
	now          func() time.Time
	logger       *zap.Logger
	mu           sync.RWMutex
}

// NewManager creates a new session manager whose games travel between
// destinations
func NewManager(destinations engine.Destinations, opts ...Option) *Manager {
	m := &Manager{
		sessions:     make(map[string]*service.Session),
		destinations: destinations,
		seed:         engine.NewSeed,
		now:          time.Now,
		logger:       zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create creates a new session with the given ID and rules. An empty id gets
// a generated UUID; a nil state starts a nameless game.
func (m *Manager) Create(id, configID string, rules *engine.Rules, state *engine.GameState) (*service.Session, error) {
	if id == "" {
		id = m.generateSessionID()
	}
	if strings.TrimSpace(id) != id || strings.ContainsAny(id, "/?#") {
		return nil, ErrInvalidSessionID
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.sessions[strings.ToLower(id)]; exists {
		return nil, ErrSessionAlreadyExists
	}

	return m.create(id, configID, rules, state)
}

// create builds and stores a session; the caller holds the write lock
func (m *Manager) create(id, configID string, rules *engine.Rules, state *engine.GameState) (*service.Session, error) {
	if rules == nil {
		rules = engine.DefaultRules()
	}
	if state == nil {
		state = engine.InitGameState(rules)
	}

	seed, err := m.seed()
	if err != nil {
		return nil, fmt.Errorf("failed to seed session: %w", err)
	}

	eng, err := engine.NewEngine(state, rules, m.destinations, engine.NewRand(seed))
	if err != nil {
		return nil, fmt.Errorf("failed to create engine: %w", err)
	}

	session := service.NewSession(id, configID, eng, m.now())
	m.sessions[strings.ToLower(id)] = session

	m.logger.Debug("session created", zap.String("session", id), zap.String("config", configID))
	return session, nil
}

// Get retrieves a session by ID (case-insensitive)
func (m *Manager) Get(id string) (*service.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	session, exists := m.sessions[strings.ToLower(id)]
	if !exists {
		return nil, ErrSessionNotFound
	}
	return session, nil
}

// GetOrCreate gets an existing session or creates a new one with a fresh state
func (m *Manager) GetOrCreate(id, configID string, rules *engine.Rules) (*service.Session, error) {
	if session, err := m.Get(id); err == nil {
		return session, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if session, exists := m.sessions[strings.ToLower(id)]; exists {
		return session, nil
	}
	return m.create(id, configID, rules, nil)
}

// List returns all active sessions
func (m *Manager) List() []*service.Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]*service.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		result = append(result, session)
	}

	return result
}

// Delete removes a session
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	lowerID := strings.ToLower(id)
	if _, exists := m.sessions[lowerID]; !exists {
		return ErrSessionNotFound
	}
	delete(m.sessions, lowerID)
	return nil
}

// UpdateLastAccessed updates the last accessed time for a session
func (m *Manager) UpdateLastAccessed(id string) error {
	session, err := m.Get(id)
	if err != nil {
		return err
	}
	session.Touch(m.now())
	return nil
}

// CleanupExpiredSessions removes sessions that haven't been accessed in the
// given duration. The default session is kept.
func (m *Manager) CleanupExpiredSessions(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0

	for id, session := range m.sessions {
		if id == service.DefaultSessionID {
			continue
		}
		if session.LastAccessedAt().Before(cutoff) {
			delete(m.sessions, id)
			removed++
		}
	}

	if removed > 0 {
		m.logger.Info("expired sessions removed", zap.Int("count", removed))
	}
	return removed
}

// Count returns the number of active sessions
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// generateSessionID generates a random UUID
func (m *Manager) generateSessionID() string {
	return uuid.NewString()
}
