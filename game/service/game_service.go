package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// DefaultSessionID is the session used by clients that never send an id
const DefaultSessionID = "default"

var (
	ErrSessionNotFound      = errors.New("session not found")
	ErrSessionAlreadyExists = errors.New("session already exists")
	ErrConfigNotFound       = errors.New("configuration not found")
)

// GameService defines all game-related operations. An empty session id
// selects the default session.
type GameService interface {
	// Session Management
	StartGame(ctx context.Context, name, configID string) (*SessionInfo, error)
	GetSession(ctx context.Context, sessionID string) (*SessionInfo, error)
	ListSessions(ctx context.Context) ([]*SessionInfo, error)
	DeleteSession(ctx context.Context, sessionID string) error

	// Game State
	GetState(ctx context.Context, sessionID string) (*engine.GameState, error)
	UpdateState(ctx context.Context, sessionID string, partial map[string]json.RawMessage) (*engine.GameState, error)
	GetTravelHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error)

	// Game Operations
	Travel(ctx context.Context, sessionID, icao string) (*TravelResult, error)
	BuyEnergy(ctx context.Context, sessionID string, credits int) (*engine.GameState, error)

	// Static data
	ListAirports(ctx context.Context) (json.RawMessage, error)
	ListConfigs(ctx context.Context) ([]*ConfigInfo, error)
}

// SessionManager defines session storage operations
type SessionManager interface {
	Create(id, configID string, rules *engine.Rules, state *engine.GameState) (*Session, error)
	Get(id string) (*Session, error)
	GetOrCreate(id, configID string, rules *engine.Rules) (*Session, error)
	List() []*Session
	Delete(id string) error
	UpdateLastAccessed(id string) error
}

// ConfigManager handles rule preset loading
type ConfigManager interface {
	LoadConfig(name string) (*engine.Rules, error)
	ListConfigs() ([]*ConfigInfo, error)
	GetDefault() *engine.Rules
}

// AirportCatalog serves the static airport list
type AirportCatalog interface {
	Has(icao string) bool
	JSON() []byte
	// Distance is the great-circle distance in km, false when either airport
	// is unknown or has no coordinates
	Distance(from, to string) (float64, bool)
}

// Session represents an active game session. Engine must only be used while
// the session is locked.
type Session struct {
	ID        string
	Engine    *engine.GameEngine
	ConfigID  string
	CreatedAt time.Time

	mu           sync.Mutex
	lastAccessed atomic.Int64
}

// NewSession returns a session created at now
func NewSession(id, configID string, eng *engine.GameEngine, now time.Time) *Session {
	s := &Session{
		ID:        id,
		Engine:    eng,
		ConfigID:  configID,
		CreatedAt: now,
	}
	s.Touch(now)
	return s
}

// Lock serializes operations on the session
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session
func (s *Session) Unlock() { s.mu.Unlock() }

// Touch records an access at t
func (s *Session) Touch(t time.Time) {
	s.lastAccessed.Store(t.UnixNano())
}

// LastAccessedAt returns the time of the last access
func (s *Session) LastAccessedAt() time.Time {
	return time.Unix(0, s.lastAccessed.Load())
}
