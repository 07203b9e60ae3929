// Package service provides the business logic layer for the ChronoShards game.
//
// The service package implements:
//   - Multi-session game management
//   - Starting games from rule presets
//   - State reads and merges
//   - Travel resolution and the travel log
//
// Core Interfaces:
//
// GameService is the main service interface providing high-level game operations.
// SessionManager handles session creation, retrieval, and lifecycle.
// ConfigManager manages rule preset loading.
//
// Architecture:
//
// The service layer sits between the transport layer (HTTP/WebSocket/MCP) and
// the game engine. Every operation on a session runs with that session locked,
// so concurrent requests for one player are serialized while different players
// proceed in parallel. States handed back to callers are copies.
//
// Usage:
//
//	sessionMgr := session.NewManager(airports)
//	configMgr, _ := config.NewManager("configs")
//	gameService := service.NewGameService(sessionMgr, configMgr, airports, logger)
//
//	info, err := gameService.StartGame(ctx, "Ada", "")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	result, err := gameService.Travel(ctx, info.ID, "EDDS")
//
// Sessions:
//
// An empty session id, or "default", selects a shared default session that
// is created on first use. StartGame always creates a new session.
package service
