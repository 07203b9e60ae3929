// Package session provides session management for the ChronoShards server.
//
// The session package implements:
//   - Thread-safe session storage and retrieval
//   - UUID session ID generation
//   - A per-session seeded random source for travel resolution
//   - Session cleanup and expiration
//
// Core Types:
//
// Manager stores service.Session values keyed by lower-cased id. Each session
// carries its own engine and mutex so different sessions never contend.
//
// Session Identifiers:
//
// Generated ids are UUIDv4 strings. Callers may also pick an id, which is how
// the "default" session used by id-less clients is created. Lookups ignore
// case.
//
// Usage:
//
//	manager := session.NewManager(airports, session.WithLogger(logger))
//
//	sess, err := manager.Create("", "classic", rules, state)
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	sess, err = manager.Get(sessionID)
//
// Cleanup:
//
// CleanupExpiredSessions drops sessions idle for longer than a given age.
// The default session is never removed this way.
package session
