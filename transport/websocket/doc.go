// Package websocket pushes live game updates to browser clients.
//
// A central Hub owns every connection. Clients join a single session when
// they connect and only receive messages for that session. The hub map is
// owned by the goroutine running Hub.Run; everything else talks to it through
// channels, and broadcasting never blocks the caller.
//
// Outgoing messages:
//
//	{"session_id": "...", "event": "state_update", "state": {...}}
//	{"session_id": "...", "event": "travel", "data": {"events": [...], "win": false, "lose": false}}
//
// Incoming messages are read only to keep the connection alive.
//
// Usage:
//
//	hub := websocket.NewHub(logger)
//	go hub.Run(ctx)
//
//	router.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
//		hub.ServeWS(w, r, r.URL.Query().Get("session"))
//	})
package websocket
