package engine

import (
	crand "crypto/rand"
	"encoding/binary"
	"fmt"
	"math/rand"
)

// Rand is the source of randomness used to resolve travels.
// *math/rand.Rand satisfies it.
type Rand interface {
	// Intn returns a value in [0, n). n is always positive.
	Intn(n int) int
	// Float64 returns a value in [0.0, 1.0).
	Float64() float64
}

// NewRand returns a pseudo-random source seeded with seed
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewSource(seed))
}

// NewSeed generates a seed using crypto/rand
func NewSeed() (int64, error) {
	var b [8]byte
	if _, err := crand.Read(b[:]); err != nil {
		return 0, fmt.Errorf("read random seed: %w", err)
	}
	return int64(binary.LittleEndian.Uint64(b[:])), nil
}

// between draws an integer uniformly from [lo, hi]
func between(rng Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.Intn(hi-lo+1)
}

// chance returns true with probability p
func chance(rng Rand, p float64) bool {
	return rng.Float64() < p
}

// clampZero keeps counters from going negative
func clampZero(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
