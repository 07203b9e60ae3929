package engine

import (
	"encoding/json"
	"fmt"
	"time"
)

// Engine provides the main interface for game operations on one session
type Engine interface {
	// Game state management
	GetState() *GameState
	Merge(partial map[string]json.RawMessage) error

	// Actions
	Travel(destination string) TravelOutcome
	BuyEnergy(credits int) error

	// Configuration
	GetRules() *Rules

	// History
	GetTravelHistory() []TravelRecord
	GetLastTravel() *TravelRecord
}

// GameEngine implements the Engine interface. It is not safe for concurrent
// use; callers serialize access per session.
type GameEngine struct {
	state        *GameState
	rules        *Rules
	rng          Rand
	destinations Destinations
	history      []TravelRecord
	now          func() time.Time
}

// NewEngine creates a game engine for state. Nil rules use DefaultRules.
func NewEngine(state *GameState, rules *Rules, destinations Destinations, rng Rand) (*GameEngine, error) {
	if rules == nil {
		rules = DefaultRules()
	}
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	if state == nil {
		return nil, fmt.Errorf("state cannot be nil")
	}
	if rng == nil {
		return nil, fmt.Errorf("random source cannot be nil")
	}

	return &GameEngine{
		state:        state,
		rules:        rules,
		rng:          rng,
		destinations: destinations,
		history:      []TravelRecord{},
		now:          time.Now,
	}, nil
}

// GetState returns the current game state
func (e *GameEngine) GetState() *GameState {
	return e.state
}

// Merge overwrites the named fields of the state, see GameState.Merge
func (e *GameEngine) Merge(partial map[string]json.RawMessage) error {
	return e.state.Merge(partial, e.rules)
}

// Travel resolves one travel and records it in the history when the
// destination is known
func (e *GameEngine) Travel(destination string) TravelOutcome {
	outcome := e.state.ResolveTravel(destination, e.destinations, e.rules, e.rng)
	if !outcome.Known {
		return outcome
	}

	e.history = append(e.history, TravelRecord{
		From:         outcome.From,
		To:           destination,
		Cost:         outcome.Cost,
		Completed:    outcome.Completed,
		Events:       outcome.Events,
		Energy:       e.state.Energy,
		Credits:      e.state.Credits,
		CountShards:  e.state.CountShards,
		Timestamp:    e.now().Unix(),
		TravelNumber: len(e.history) + 1,
	})
	return outcome
}

// BuyEnergy spends credits on energy
func (e *GameEngine) BuyEnergy(credits int) error {
	return e.state.BuyEnergy(credits, e.rules)
}

// GetRules returns the rule set of this game
func (e *GameEngine) GetRules() *Rules {
	return e.rules
}

// GetTravelHistory returns the complete travel history
func (e *GameEngine) GetTravelHistory() []TravelRecord {
	return e.history
}

// GetLastTravel returns the last recorded travel, or nil if none
func (e *GameEngine) GetLastTravel() *TravelRecord {
	if len(e.history) == 0 {
		return nil
	}
	return &e.history[len(e.history)-1]
}
