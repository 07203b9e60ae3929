package engine

// Destinations answers whether an airport identifier is known
type Destinations interface {
	Has(icao string) bool
}

// TravelOutcome is the result of resolving one travel
type TravelOutcome struct {
	Events []Event
	Win    bool
	Lose   bool

	// Known is false when the destination is not in the catalog
	Known bool
	// Completed is true when the flight happened (energy was sufficient)
	Completed bool
	Cost      int
	From      string
}

// ResolveTravel applies a travel to destination. An unknown destination is a
// no-op that returns no events. Otherwise the energy cost is drawn first; if
// the player cannot afford it nothing else changes. A completed flight moves
// the player and then rolls shard, bandit and credit outcomes before the win
// and lose checks.
func (gs *GameState) ResolveTravel(destination string, destinations Destinations, rules *Rules, rng Rand) TravelOutcome {
	outcome := TravelOutcome{
		Events: []Event{},
		From:   gs.CurrentLocation,
	}

	if destinations == nil || !destinations.Has(destination) {
		return outcome
	}
	outcome.Known = true

	cost := between(rng, rules.MinTravelCost, rules.MaxTravelCost)
	outcome.Cost = cost

	if gs.Energy < cost {
		outcome.Events = append(outcome.Events, Event{Type: EventNotEnoughEnergy, Required: cost})
		if gs.Credits <= 0 {
			outcome.Events = append(outcome.Events, Event{Type: EventLose})
			outcome.Lose = true
		}
		return outcome
	}

	gs.Energy = clampZero(gs.Energy - cost)
	gs.CurrentLocation = destination
	outcome.Completed = true

	// Shard roll only happens while shards remain
	if remaining := gs.Shards.Remaining(); len(remaining) > 0 && chance(rng, rules.ShardChance) {
		shard := remaining[rng.Intn(len(remaining))]
		gs.Shards.Collect(shard)
		gs.RecountShards()
		outcome.Events = append(outcome.Events, Event{Type: EventShard, Shard: shard})
	}

	if chance(rng, rules.BanditChance) {
		loss := between(rng, rules.MinBanditLoss, rules.MaxBanditLoss)
		gs.Credits = clampZero(gs.Credits - loss)
		outcome.Events = append(outcome.Events, Event{Type: EventBandit, Amount: loss})
	}

	if gain := between(rng, rules.MinCreditGain, rules.MaxCreditGain); gain > 0 {
		gs.Credits += gain
		outcome.Events = append(outcome.Events, Event{Type: EventCredit, Amount: gain})
	}

	if gs.CountShards >= ShardCount && destination == rules.HomeICAO {
		outcome.Events = append(outcome.Events, Event{Type: EventWin})
		outcome.Win = true
	} else if gs.CountShards < ShardCount && gs.Credits <= 0 && gs.Energy < rules.MinTravelCost {
		outcome.Events = append(outcome.Events, Event{Type: EventLose})
		outcome.Lose = true
	}

	return outcome
}

// BuyEnergy converts credits into energy at the rules' exchange rate
func (gs *GameState) BuyEnergy(credits int, rules *Rules) error {
	if credits <= 0 {
		return &ValidationError{Field: "credits", Message: "Please enter a valid number of credits."}
	}
	if credits > gs.Credits {
		return &ValidationError{Field: "credits", Message: "Not enough credits."}
	}
	gs.Credits -= credits
	gs.Energy += credits * rules.EnergyPerCredit
	return nil
}
