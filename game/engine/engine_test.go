package engine

import (
	"testing"
	"time"
)

func TestNewEngine(t *testing.T) {
	state := newTestState(t)

	engine, err := NewEngine(state, nil, testAirports(), NewRand(1))
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}
	if engine.GetRules().Name != "classic" {
		t.Errorf("Expected classic rules, got %s", engine.GetRules().Name)
	}
	if engine.GetState() != state {
		t.Error("Expected engine to hold the given state")
	}
	if len(engine.GetTravelHistory()) != 0 {
		t.Errorf("Expected empty history, got %d entries", len(engine.GetTravelHistory()))
	}
	if engine.GetLastTravel() != nil {
		t.Error("Expected no last travel")
	}

	if _, err := NewEngine(nil, nil, testAirports(), NewRand(1)); err == nil {
		t.Error("Expected error for nil state")
	}
	if _, err := NewEngine(state, nil, testAirports(), nil); err == nil {
		t.Error("Expected error for nil random source")
	}
	bad := DefaultRules()
	bad.ShardChance = 3
	if _, err := NewEngine(state, bad, testAirports(), NewRand(1)); err == nil {
		t.Error("Expected error for invalid rules")
	}
}

func TestEngineTravelRecordsHistory(t *testing.T) {
	rng := newScriptedRand(t,
		[]int{80, 0, 10, 0, 5},
		[]float64{0.0, 0.9, 0.9, 0.9},
	)
	engine, err := NewEngine(newTestState(t), nil, testAirports(), rng)
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}
	engine.now = func() time.Time { return time.Unix(1700000000, 0) }

	first := engine.Travel("EDDS")
	if !first.Completed {
		t.Fatal("Expected first travel to complete")
	}
	engine.Travel("NOPE")
	engine.Travel("EVRA")

	history := engine.GetTravelHistory()
	if len(history) != 2 {
		t.Fatalf("Expected 2 history entries, got %d", len(history))
	}

	entry := history[0]
	if entry.From != "EFHK" || entry.To != "EDDS" {
		t.Errorf("Expected EFHK -> EDDS, got %s -> %s", entry.From, entry.To)
	}
	if entry.Cost != 100 {
		t.Errorf("Expected cost 100, got %d", entry.Cost)
	}
	if entry.CountShards != 1 {
		t.Errorf("Expected 1 shard recorded, got %d", entry.CountShards)
	}
	if entry.Credits != 1010 {
		t.Errorf("Expected 1010 credits recorded, got %d", entry.Credits)
	}
	if entry.TravelNumber != 1 {
		t.Errorf("Expected travel number 1, got %d", entry.TravelNumber)
	}
	if entry.Timestamp != 1700000000 {
		t.Errorf("Expected timestamp 1700000000, got %d", entry.Timestamp)
	}

	last := engine.GetLastTravel()
	if last == nil || last.To != "EVRA" || last.TravelNumber != 2 {
		t.Errorf("Expected last travel to EVRA numbered 2, got %+v", last)
	}
	if last.From != "EDDS" {
		t.Errorf("Expected last travel from EDDS, got %s", last.From)
	}
}

func TestEngineFailedTravelIsRecorded(t *testing.T) {
	state := newTestState(t)
	state.Energy = 10
	engine, err := NewEngine(state, nil, testAirports(), newScriptedRand(t, []int{50}, nil))
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	engine.Travel("EDDS")

	last := engine.GetLastTravel()
	if last == nil {
		t.Fatal("Expected a history entry")
	}
	if last.Completed {
		t.Error("Expected travel to be marked incomplete")
	}
	if last.Energy != 10 {
		t.Errorf("Expected energy 10, got %d", last.Energy)
	}
}

func TestEngineMergeAndBuy(t *testing.T) {
	engine, err := NewEngine(newTestState(t), nil, testAirports(), NewRand(1))
	if err != nil {
		t.Fatalf("Failed to create new engine: %v", err)
	}

	if err := engine.Merge(partialOf(t, `{"shards": {"shard1": true, "shard2": true}}`)); err != nil {
		t.Fatalf("Unexpected merge error: %v", err)
	}
	if engine.GetState().CountShards != 2 {
		t.Errorf("Expected recounted shards 2, got %d", engine.GetState().CountShards)
	}

	if err := engine.Merge(partialOf(t, `{"energy": 5}`)); err != nil {
		t.Fatalf("Unexpected merge error: %v", err)
	}
	if engine.GetState().Energy != 5 {
		t.Errorf("Expected energy 5, got %d", engine.GetState().Energy)
	}

	if err := engine.BuyEnergy(10); err != nil {
		t.Fatalf("Unexpected buy error: %v", err)
	}
	if engine.GetState().Energy != 25 || engine.GetState().Credits != 990 {
		t.Errorf("Expected energy 25 and credits 990, got %d and %d",
			engine.GetState().Energy, engine.GetState().Credits)
	}
}
