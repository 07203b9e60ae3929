package engine

import (
	"encoding/json"
	"fmt"
)

// Merge overwrites every field of gs named in partial with the given value and
// then recomputes CountShards. Values are taken as-is: no range checks are made
// unless rules.StrictMerge is set. A value that does not decode into the field's
// type rejects the whole merge and gs is left untouched. Keys the state does not
// model are kept in Extra.
func (gs *GameState) Merge(partial map[string]json.RawMessage, rules *Rules) error {
	next := gs.Clone()

	for key, raw := range partial {
		var err error
		switch key {
		case "playerName":
			err = json.Unmarshal(raw, &next.PlayerName)
		case "credits":
			err = json.Unmarshal(raw, &next.Credits)
		case "energy":
			err = json.Unmarshal(raw, &next.Energy)
		case "shards":
			err = json.Unmarshal(raw, &next.Shards)
		case "currentLocation":
			err = json.Unmarshal(raw, &next.CurrentLocation)
		case "countShards":
			// derived, recomputed below
		default:
			if next.Extra == nil {
				next.Extra = make(map[string]json.RawMessage)
			}
			next.Extra[key] = append(json.RawMessage(nil), raw...)
		}
		if err != nil {
			return &ValidationError{Field: key, Message: fmt.Sprintf("invalid value: %v", err)}
		}
	}

	if rules != nil && rules.StrictMerge {
		if err := validateMergedState(next, rules); err != nil {
			return err
		}
	}

	next.RecountShards()
	*gs = *next
	return nil
}

// validateMergedState applies the optional hardening checks
func validateMergedState(gs *GameState, rules *Rules) error {
	if gs.Credits < 0 {
		return &ValidationError{Field: "credits", Message: "must not be negative"}
	}
	if gs.Energy < 0 {
		return &ValidationError{Field: "energy", Message: "must not be negative"}
	}
	if _, err := ValidatePlayerName(gs.PlayerName); err != nil {
		return &ValidationError{Field: "playerName", Message: "must contain at least one letter"}
	}
	if !IsICAO(gs.CurrentLocation) {
		return &ValidationError{Field: "currentLocation", Message: "must be a four letter ICAO code"}
	}
	return nil
}
