package engine

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"unicode"
)

// Rules holds the tunable numbers of a game. DefaultRules returns the classic set.
type Rules struct {
	Name            string  `json:"name"`
	Description     string  `json:"description"`
	HomeICAO        string  `json:"home_icao"`
	StartingCredits int     `json:"starting_credits"`
	StartingEnergy  int     `json:"starting_energy"`
	MinTravelCost   int     `json:"min_travel_cost"`
	MaxTravelCost   int     `json:"max_travel_cost"`
	ShardChance     float64 `json:"shard_chance"`
	BanditChance    float64 `json:"bandit_chance"`
	MinBanditLoss   int     `json:"min_bandit_loss"`
	MaxBanditLoss   int     `json:"max_bandit_loss"`
	MinCreditGain   int     `json:"min_credit_gain"`
	MaxCreditGain   int     `json:"max_credit_gain"`
	EnergyPerCredit int     `json:"energy_per_credit"`

	// StrictMerge turns on range checks for client-supplied state
	StrictMerge bool `json:"strict_merge"`
}

// DefaultRules returns the classic rule set
func DefaultRules() *Rules {
	return &Rules{
		Name:            "classic",
		Description:     "Collect five ChronoShards and fly back to Helsinki",
		HomeICAO:        DefaultHomeICAO,
		StartingCredits: 1000,
		StartingEnergy:  1000,
		MinTravelCost:   20,
		MaxTravelCost:   200,
		ShardChance:     0.5,
		BanditChance:    0.1,
		MinBanditLoss:   20,
		MaxBanditLoss:   150,
		MinCreditGain:   0,
		MaxCreditGain:   100,
		EnergyPerCredit: 2,
		StrictMerge:     false,
	}
}

// ValidateRules checks a rule set for consistency
func ValidateRules(rules *Rules) error {
	if rules == nil {
		return fmt.Errorf("rules validation: rules are required")
	}
	if rules.Name == "" {
		return fmt.Errorf("rules validation: name is required")
	}
	if !IsICAO(rules.HomeICAO) {
		return fmt.Errorf("rules validation: home_icao must be %d letters, got %q", ICAOLength, rules.HomeICAO)
	}
	if rules.StartingCredits < 0 {
		return fmt.Errorf("rules validation: starting_credits must not be negative, got %d", rules.StartingCredits)
	}
	if rules.StartingEnergy < rules.MinTravelCost {
		return fmt.Errorf("rules validation: starting_energy must cover min_travel_cost (%d), got %d",
			rules.MinTravelCost, rules.StartingEnergy)
	}
	if err := validateRange("travel_cost", rules.MinTravelCost, rules.MaxTravelCost); err != nil {
		return err
	}
	if rules.MinTravelCost == 0 {
		return fmt.Errorf("rules validation: min_travel_cost must be positive")
	}
	if err := validateRange("bandit_loss", rules.MinBanditLoss, rules.MaxBanditLoss); err != nil {
		return err
	}
	if err := validateRange("credit_gain", rules.MinCreditGain, rules.MaxCreditGain); err != nil {
		return err
	}
	if err := validateChance("shard_chance", rules.ShardChance); err != nil {
		return err
	}
	if err := validateChance("bandit_chance", rules.BanditChance); err != nil {
		return err
	}
	if rules.EnergyPerCredit < 1 {
		return fmt.Errorf("rules validation: energy_per_credit must be at least 1, got %d", rules.EnergyPerCredit)
	}
	return nil
}

func validateRange(name string, lo, hi int) error {
	if lo < 0 {
		return fmt.Errorf("rules validation: min_%s must not be negative, got %d", name, lo)
	}
	if hi < lo {
		return fmt.Errorf("rules validation: max_%s (%d) must not be below min_%s (%d)", name, hi, name, lo)
	}
	return nil
}

func validateChance(name string, p float64) error {
	if p < 0 || p > 1 {
		return fmt.Errorf("rules validation: %s must be between 0 and 1, got %v", name, p)
	}
	return nil
}

// LoadRules reads a rule set from a JSON file. Fields absent from the file
// keep their classic values.
func LoadRules(filename string) (*Rules, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, err
	}
	return ParseRules(data)
}

// ParseRules decodes and validates a rule set, starting from the classic values
func ParseRules(data []byte) (*Rules, error) {
	rules := DefaultRules()
	if err := json.Unmarshal(data, rules); err != nil {
		return nil, fmt.Errorf("failed to parse rules: %w", err)
	}
	rules.HomeICAO = strings.ToUpper(rules.HomeICAO)
	if err := ValidateRules(rules); err != nil {
		return nil, err
	}
	return rules, nil
}

// IsICAO reports whether code is a four letter airport identifier
func IsICAO(code string) bool {
	if len(code) != ICAOLength {
		return false
	}
	for _, r := range code {
		if r > unicode.MaxASCII || !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// ValidatePlayerName trims name and checks that it contains at least one
// ASCII letter. It returns the trimmed name.
func ValidatePlayerName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || !strings.ContainsFunc(trimmed, isASCIILetter) {
		return "", &ValidationError{Field: "name", Message: "Enter a valid name (letters required)."}
	}
	return trimmed, nil
}

func isASCIILetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// NewGameState returns a fresh state for a validated player name
func NewGameState(name string, rules *Rules) (*GameState, error) {
	playerName, err := ValidatePlayerName(name)
	if err != nil {
		return nil, err
	}
	state := InitGameState(rules)
	state.PlayerName = playerName
	return state, nil
}

// InitGameState returns the starting state for rules with no player name.
// Nil rules use DefaultRules.
func InitGameState(rules *Rules) *GameState {
	if rules == nil {
		rules = DefaultRules()
	}
	return &GameState{
		PlayerName:      "",
		Credits:         rules.StartingCredits,
		Energy:          rules.StartingEnergy,
		Shards:          Shards{},
		CountShards:     0,
		CurrentLocation: rules.HomeICAO,
	}
}
