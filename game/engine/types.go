package engine

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventType tags the outcome of a travel resolution
type EventType string

const (
	EventNotEnoughEnergy EventType = "not_enough_energy"
	EventShard           EventType = "shard"
	EventBandit          EventType = "bandit"
	EventCredit          EventType = "credit"
	EventWin             EventType = "win"
	EventLose            EventType = "lose"

	// Game constants
	ShardCount      = 5
	DefaultHomeICAO = "EFHK"
	ICAOLength      = 4
	MaxHistoryLimit = 100
)

// Event is a single outcome of a travel. Only the field matching Type is
// meaningful: Required for not_enough_energy, Shard for shard, Amount for
// bandit and credit.
type Event struct {
	Type     EventType `json:"type"`
	Required int       `json:"required,omitempty"`
	Shard    int       `json:"shard,omitempty"`
	Amount   int       `json:"amount,omitempty"`
}

// MarshalJSON emits only the payload key that belongs to the event type, so a
// zero amount is still written for bandit and credit events.
func (e Event) MarshalJSON() ([]byte, error) {
	out := map[string]any{"type": e.Type}
	switch e.Type {
	case EventNotEnoughEnergy:
		out["required"] = e.Required
	case EventShard:
		out["shard"] = e.Shard
	case EventBandit, EventCredit:
		out["amount"] = e.Amount
	}
	return json.Marshal(out)
}

// Shards holds the five collectible flags. Index 0 is shard1.
type Shards [ShardCount]bool

// shardKey returns the wire name of shard n (1-based)
func shardKey(n int) string {
	return "shard" + strconv.Itoa(n)
}

// Count returns the number of collected shards
func (s Shards) Count() int {
	count := 0
	for _, collected := range s {
		if collected {
			count++
		}
	}
	return count
}

// Has reports whether shard n (1-based) is collected
func (s Shards) Has(n int) bool {
	if n < 1 || n > ShardCount {
		return false
	}
	return s[n-1]
}

// Collect marks shard n (1-based) as collected
func (s *Shards) Collect(n int) {
	if n < 1 || n > ShardCount {
		return
	}
	s[n-1] = true
}

// Remaining returns the 1-based numbers of shards not yet collected, ascending
func (s Shards) Remaining() []int {
	remaining := make([]int, 0, ShardCount)
	for i, collected := range s {
		if !collected {
			remaining = append(remaining, i+1)
		}
	}
	return remaining
}

// MarshalJSON writes the flags as {"shard1": bool, ..., "shard5": bool}
func (s Shards) MarshalJSON() ([]byte, error) {
	out := make(map[string]bool, ShardCount)
	for i, collected := range s {
		out[shardKey(i+1)] = collected
	}
	return json.Marshal(out)
}

// UnmarshalJSON replaces the whole flag set. Keys that are missing become
// false and keys other than shard1..shard5 are ignored. A JSON null leaves
// the flags unchanged.
func (s *Shards) UnmarshalJSON(data []byte) error {
	if string(bytes.TrimSpace(data)) == "null" {
		return nil
	}
	var in map[string]bool
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	var next Shards
	for key, collected := range in {
		if !strings.HasPrefix(key, "shard") {
			continue
		}
		n, err := strconv.Atoi(strings.TrimPrefix(key, "shard"))
		if err != nil || n < 1 || n > ShardCount {
			continue
		}
		next[n-1] = collected
	}
	*s = next
	return nil
}

// GameState is the state of one game session
type GameState struct {
	PlayerName      string `json:"playerName"`
	Credits         int    `json:"credits"`
	Energy          int    `json:"energy"`
	Shards          Shards `json:"shards"`
	CountShards     int    `json:"countShards"`
	CurrentLocation string `json:"currentLocation"`

	// Extra keeps keys a client merged in that the server does not model.
	// They are written back at the top level of the JSON object.
	Extra map[string]json.RawMessage `json:"-"`
}

// gameStateFields is GameState without its JSON methods
type gameStateFields GameState

var knownStateKeys = map[string]bool{
	"playerName":      true,
	"credits":         true,
	"energy":          true,
	"shards":          true,
	"countShards":     true,
	"currentLocation": true,
}

// MarshalJSON writes the modelled fields followed by any extra keys
func (gs GameState) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(gameStateFields(gs))
	if err != nil || len(gs.Extra) == 0 {
		return data, err
	}

	merged := make(map[string]json.RawMessage, len(knownStateKeys)+len(gs.Extra))
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for key, value := range gs.Extra {
		if !knownStateKeys[key] {
			merged[key] = value
		}
	}
	return json.Marshal(merged)
}

// UnmarshalJSON reads the modelled fields and collects the rest into Extra
func (gs *GameState) UnmarshalJSON(data []byte) error {
	var fields gameStateFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}

	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return err
	}
	for key, value := range all {
		if knownStateKeys[key] {
			continue
		}
		if fields.Extra == nil {
			fields.Extra = make(map[string]json.RawMessage)
		}
		fields.Extra[key] = value
	}

	*gs = GameState(fields)
	return nil
}

// Clone returns a deep copy of the state
func (gs *GameState) Clone() *GameState {
	if gs == nil {
		return nil
	}
	clone := *gs
	if gs.Extra != nil {
		clone.Extra = make(map[string]json.RawMessage, len(gs.Extra))
		for key, value := range gs.Extra {
			clone.Extra[key] = append(json.RawMessage(nil), value...)
		}
	}
	return &clone
}

// RecountShards recomputes the derived shard counter
func (gs *GameState) RecountShards() {
	gs.CountShards = gs.Shards.Count()
}

// ValidationError reports client input that was rejected without mutating state
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// TravelRecord is one entry of a session's journey log
type TravelRecord struct {
	From         string  `json:"from"`
	To           string  `json:"to"`
	Cost         int     `json:"cost"`
	Completed    bool    `json:"completed"`
	Events       []Event `json:"events"`
	Energy       int     `json:"energy"`
	Credits      int     `json:"credits"`
	CountShards  int     `json:"countShards"`
	Timestamp    int64   `json:"timestamp"`
	TravelNumber int     `json:"travel_number"`
}
