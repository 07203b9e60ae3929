package engine

import "testing"

// scriptedRand replays fixed draws so travel outcomes are deterministic
type scriptedRand struct {
	t      *testing.T
	ints   []int
	floats []float64
}

func newScriptedRand(t *testing.T, ints []int, floats []float64) *scriptedRand {
	return &scriptedRand{t: t, ints: ints, floats: floats}
}

func (r *scriptedRand) Intn(n int) int {
	r.t.Helper()
	if len(r.ints) == 0 {
		r.t.Fatalf("unexpected Intn(%d) draw", n)
	}
	v := r.ints[0]
	r.ints = r.ints[1:]
	if v < 0 || v >= n {
		r.t.Fatalf("scripted Intn value %d out of range [0,%d)", v, n)
	}
	return v
}

func (r *scriptedRand) Float64() float64 {
	r.t.Helper()
	if len(r.floats) == 0 {
		r.t.Fatal("unexpected Float64 draw")
	}
	v := r.floats[0]
	r.floats = r.floats[1:]
	return v
}

// exhausted reports whether every scripted draw was consumed
func (r *scriptedRand) exhausted() bool {
	return len(r.ints) == 0 && len(r.floats) == 0
}

type airportSet map[string]bool

func (s airportSet) Has(icao string) bool {
	return s[icao]
}

func testAirports() airportSet {
	return airportSet{
		"EFHK": true,
		"EDDS": true,
		"EVRA": true,
		"EHAM": true,
		"LPFR": true,
	}
}

func newTestState(t *testing.T) *GameState {
	t.Helper()
	state, err := NewGameState("Ada", DefaultRules())
	if err != nil {
		t.Fatalf("Failed to create state: %v", err)
	}
	return state
}
