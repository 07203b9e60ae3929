// Package mcp exposes the ChronoShards REST API as Model Context Protocol
// tools so AI agents can play the game.
//
// The Client is a thin proxy: every tool call becomes one REST request
// against the running server, and the JSON answer is rendered as text.
//
// MCP Tools:
//   - start_game: Start a game for a player name
//   - game_state: Current state of a session
//   - list_airports: Valid destinations with distance from home
//   - travel: Fly to an airport (with an intent explanation)
//   - buy_energy: Convert credits to energy
//   - update_state: Merge state fields
//   - travel_history: Paginated travel log
//   - get_session, list_sessions: Session inspection
//   - list_configs: Rule presets
//   - game_instructions: Full rules text
//
// Session tools take an optional session_id which is sent as the
// X-Session-ID header. Without it the server's default session is used.
//
// Transport Modes:
//
// The same MCPServer is served over stdio by the mcp command and over HTTP
// at /mcp by the serve command.
//
// Usage:
//
//	client := mcp.NewClient("http://localhost:8080")
//	server.ServeStdio(client.GetMCPServer())
package mcp
