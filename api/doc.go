// Package api provides the HTTP handlers for the ChronoShards game.
//
// Endpoints:
//
// Start surface:
//   - POST /api/start - Validate a player name and start a new game
//   - GET /api/configs - List rule presets
//   - GET /start - Start page
//
// Main surface:
//   - GET /api/main/airports - Airport catalog, passed through verbatim
//   - GET /api/main/state - Current game state
//   - POST /api/main/update - Merge a partial state
//   - POST /api/main/travel - Travel to an airport
//   - POST /api/main/buy-energy - Convert credits into energy
//   - GET /api/main/history - Paginated travel log
//   - GET /api/sessions, GET/DELETE /api/sessions/{id} - Session management
//   - GET /ws - Live updates for a session
//   - GET /main - Main page
//
// Both surfaces serve GET /healthz and fall back to static files.
//
// Sessions:
//
// Main surface requests pick their session from the X-Session-ID header,
// then the session query parameter, then the session_id cookie set by
// /api/start. Without any of these the shared default session is used.
//
// Request/Response Format:
//
//	POST /api/start       {"name": "Ada", "config_id": "hard"}
//	                      -> {"ok": true, "state": {...}, "session_id": "..."}
//	POST /api/main/update {"state": {"credits": 50}}
//	                      -> {"state": {...}}
//	POST /api/main/travel {"ICAO": "EDDS"}
//	                      -> {"events": [...], "state": {...}, "win": false, "lose": false}
//
// Error Handling:
//
// Errors are returned as {"error": "message"}; the start endpoint answers
// {"ok": false, "error": "message"}. Rejected input is 400, an unknown
// session is 404 and anything else is 500.
//
// Usage:
//
//	server := api.NewServer(gameService, hub, api.Options{Logger: logger})
//	http.ListenAndServe(":8080", server)
package api
