// Package engine provides the core rules of the ChronoShards game.
//
// The engine package implements:
//   - Game state and its JSON wire form
//   - Travel resolution (energy cost, shard award, bandits, credit income)
//   - Win and lose detection
//   - Merging client-supplied state
//   - Rule presets and their validation
//
// Core Types:
//
// GameState is the record of one player's game. ResolveTravel is the only
// place with decision logic; it draws its randomness from a Rand so tests and
// simulations can script or seed it. GameEngine bundles a state with its
// Rules, random source and travel history and implements the Engine interface.
//
// Usage:
//
//	state, err := engine.NewGameState("Ada", engine.DefaultRules())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	gameEngine, err := engine.NewEngine(state, nil, airports, engine.NewRand(42))
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	outcome := gameEngine.Travel("EDDS")
//
// Game Rules:
//
// Players start at Helsinki with 1000 credits and 1000 energy. Each flight
// costs 20 to 200 energy. Landing may award one of five ChronoShards, a bandit
// may take credits, and some credits are earned along the way. Collecting all
// five shards and landing back home wins; running out of credits with too
// little energy for any flight loses.
package engine
