// Package config provides rule preset management and process settings for
// the ChronoShards server.
//
// The config package handles:
//   - Loading rule presets from JSON files
//   - Default preset management
//   - Preset discovery and listing
//   - Environment settings parsed with caarlos0/env
//
// Preset Format:
//
// Presets are stored as JSON files in the configs directory, one per file.
// The file name without .json is the preset id. Fields left out of a file
// keep their classic values:
//
//	{"name": "hard", "shard_chance": 0.3, "bandit_chance": 0.25}
//
// Available Presets:
//   - classic: the original game numbers
//   - hard: scarcer shards, busier bandits and strict state merging
//
// When the configs directory does not exist the built-in classic preset is
// the only one on offer.
//
// Usage:
//
//	manager, err := config.NewManager("configs")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	rules, err := manager.LoadConfig("hard")
//	defaultRules := manager.GetDefault()
//	presets, err := manager.ListConfigs()
package config
