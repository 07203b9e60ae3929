package service

import (
	"time"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// SessionInfo provides information about a game session
type SessionInfo struct {
	ID             string            `json:"id"`
	ConfigID       string            `json:"config_id"`
	CreatedAt      time.Time         `json:"created_at"`
	LastAccessedAt time.Time         `json:"last_accessed_at"`
	Travels        int               `json:"travels"`
	GameState      *engine.GameState `json:"game_state"`
	Rules          *engine.Rules     `json:"rules"`
}

// TravelResult contains the outcome of a travel. Only events, state, win and
// lose are encoded.
type TravelResult struct {
	Events []engine.Event    `json:"events"`
	State  *engine.GameState `json:"state"`
	Win    bool              `json:"win"`
	Lose   bool              `json:"lose"`

	From         string  `json:"-"`
	To           string  `json:"-"`
	Cost         int     `json:"-"`
	Known        bool    `json:"-"`
	Completed    bool    `json:"-"`
	TravelNumber int     `json:"-"` // position in the travel history, 0 for unknown destinations
	Distance     float64 `json:"-"` // km between From and To
}

// HistoryOptions configures travel history retrieval
type HistoryOptions struct {
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
	Order string `json:"order"` // "asc" or "desc"
}

// HistoryResponse contains paginated travel history
type HistoryResponse struct {
	Travels      []engine.TravelRecord `json:"travels"`
	TotalTravels int                   `json:"total_travels"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
	HasNext      bool                  `json:"has_next"`
	HasPrevious  bool                  `json:"has_previous"`
}

// ConfigInfo provides information about a rule preset
type ConfigInfo struct {
	Filename        string `json:"filename"`
	ConfigID        string `json:"config_id"` // The identifier to use when starting a game
	Name            string `json:"name"`
	Description     string `json:"description"`
	HomeICAO        string `json:"home_icao"`
	StartingCredits int    `json:"starting_credits"`
	StartingEnergy  int    `json:"starting_energy"`
	StrictMerge     bool   `json:"strict_merge"`
}
