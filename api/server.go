package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
	"github.com/wricardo/mcp-training/chronoshards/game/service"
	"github.com/wricardo/mcp-training/chronoshards/transport/websocket"
)

const (
	// SessionHeader selects a session on the main surface
	SessionHeader = "X-Session-ID"
	// SessionCookie is set by /api/start so browsers stay on their session
	SessionCookie = "session_id"
)

// Surface selects which routes a Server registers
type Surface int

const (
	SurfaceAll Surface = iota
	SurfaceStart
	SurfaceMain
)

// Options configures a Server
type Options struct {
	Logger        *zap.Logger
	Surface       Surface
	AllowedOrigin string
	StaticDir     string
}

// Server represents the REST API server
type Server struct {
	service service.GameService
	hub     *websocket.Hub
	router  *mux.Router
	logger  *zap.Logger
	opts    Options
}

// NewServer creates a new API server. hub may be nil, in which case no
// live updates are pushed and /ws is not served.
func NewServer(gameService service.GameService, hub *websocket.Hub, opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.AllowedOrigin == "" {
		opts.AllowedOrigin = "*"
	}
	if opts.StaticDir == "" {
		opts.StaticDir = "static"
	}

	s := &Server{
		service: gameService,
		hub:     hub,
		router:  mux.NewRouter(),
		logger:  opts.Logger,
		opts:    opts,
	}

	s.setupRoutes()
	return s
}

func (s *Server) serves(surface Surface) bool {
	return s.opts.Surface == SurfaceAll || s.opts.Surface == surface
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes() {
	s.router.Use(s.corsMiddleware)

	api := s.router.PathPrefix("/api").Subrouter()

	if s.serves(SurfaceStart) {
		api.HandleFunc("/start", s.handleStart).Methods("POST", "OPTIONS")
		api.HandleFunc("/configs", s.handleListConfigs).Methods("GET")
		s.router.HandleFunc("/start", s.staticPage("start.html")).Methods("GET")
	}

	if s.serves(SurfaceMain) {
		mainAPI := api.PathPrefix("/main").Subrouter()
		mainAPI.HandleFunc("/airports", s.handleAirports).Methods("GET")
		mainAPI.HandleFunc("/state", s.handleGetState).Methods("GET")
		mainAPI.HandleFunc("/update", s.handleUpdateState).Methods("POST", "OPTIONS")
		mainAPI.HandleFunc("/travel", s.handleTravel).Methods("POST", "OPTIONS")
		mainAPI.HandleFunc("/buy-energy", s.handleBuyEnergy).Methods("POST", "OPTIONS")
		mainAPI.HandleFunc("/history", s.handleGetHistory).Methods("GET")

		// Session management
		api.HandleFunc("/sessions", s.handleListSessions).Methods("GET")
		api.HandleFunc("/sessions/{id}", s.handleGetSession).Methods("GET")
		api.HandleFunc("/sessions/{id}", s.handleDeleteSession).Methods("DELETE", "OPTIONS")

		if s.hub != nil {
			s.router.HandleFunc("/ws", s.handleWebSocket)
		}
		s.router.HandleFunc("/main", s.staticPage("main.html")).Methods("GET")
	}

	s.router.HandleFunc("/healthz", s.handleHealth).Methods("GET")

	// Static files
	s.router.PathPrefix("/").Handler(http.FileServer(http.Dir(s.opts.StaticDir)))
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", s.opts.AllowedOrigin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+SessionHeader)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Response helpers
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

// statusFor maps a service error to an HTTP status
func statusFor(err error) int {
	var verr *engine.ValidationError
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		s.logger.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	}
	respondError(w, status, err.Error())
}

// sessionID picks the session a main-surface request targets. An explicit
// header or query id is used as given; a cookie that names a session that no
// longer exists falls back to the default session.
func (s *Server) sessionID(r *http.Request) string {
	if id := r.Header.Get(SessionHeader); id != "" {
		return id
	}
	if id := r.URL.Query().Get("session"); id != "" {
		return id
	}
	if cookie, err := r.Cookie(SessionCookie); err == nil && cookie.Value != "" {
		if _, err := s.service.GetSession(r.Context(), cookie.Value); err == nil {
			return cookie.Value
		}
	}
	return ""
}

// hubKey names the hub channel of a session. Session ids ignore case.
func hubKey(sessionID string) string {
	if sessionID == "" {
		return service.DefaultSessionID
	}
	return strings.ToLower(sessionID)
}

func (s *Server) broadcastState(sessionID string, state *engine.GameState) {
	if s.hub == nil || state == nil {
		return
	}
	s.hub.BroadcastToSession(hubKey(sessionID), state)
}

// Start surface

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name     string `json:"name"`
		ConfigID string `json:"config_id,omitempty"`
	}

	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondJSON(w, http.StatusBadRequest, map[string]interface{}{"ok": false, "error": "Invalid request body"})
			return
		}
	}

	info, err := s.service.StartGame(r.Context(), req.Name, req.ConfigID)
	if err != nil {
		status := statusFor(err)
		if status == http.StatusInternalServerError {
			s.logger.Error("start failed", zap.Error(err))
		}
		respondJSON(w, status, map[string]interface{}{"ok": false, "error": startError(err)})
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    info.ID,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"ok":         true,
		"state":      info.GameState,
		"session_id": info.ID,
	})
}

// startError returns the bare message for validation failures so the start
// page can show it as is
func startError(err error) string {
	var verr *engine.ValidationError
	if errors.As(err, &verr) && verr.Field == "name" {
		return verr.Message
	}
	return err.Error()
}

func (s *Server) handleListConfigs(w http.ResponseWriter, r *http.Request) {
	configs, err := s.service.ListConfigs(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, configs)
}

// Main surface

func (s *Server) handleAirports(w http.ResponseWriter, r *http.Request) {
	airports, err := s.service.ListAirports(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(airports)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	state, err := s.service.GetState(r.Context(), s.sessionID(r))
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

func (s *Server) handleUpdateState(w http.ResponseWriter, r *http.Request) {
	var req struct {
		State map[string]json.RawMessage `json:"state"`
	}

	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
			respondError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
	}

	sessionID := s.sessionID(r)

	if req.State == nil {
		state, err := s.service.GetState(r.Context(), sessionID)
		if err != nil {
			s.respondServiceError(w, r, err)
			return
		}
		respondJSON(w, http.StatusOK, map[string]interface{}{"state": state})
		return
	}

	state, err := s.service.UpdateState(r.Context(), sessionID, req.State)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

// handleTravel only rejects bodies that are not JSON. A missing or non-string
// ICAO is an unknown destination and resolves to the no-op result.
func (s *Server) handleTravel(w http.ResponseWriter, r *http.Request) {
	var body interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	var icao string
	if fields, ok := body.(map[string]interface{}); ok {
		icao, _ = fields["ICAO"].(string)
	}

	sessionID := s.sessionID(r)
	result, err := s.service.Travel(r.Context(), sessionID, icao)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	if result.Known {
		s.broadcastState(sessionID, result.State)
		if s.hub != nil {
			s.hub.BroadcastEvent(hubKey(sessionID), websocket.EventTravel, map[string]interface{}{
				"events": result.Events,
				"win":    result.Win,
				"lose":   result.Lose,
			})
		}
	}

	s.logger.Info("travel",
		zap.String("session", sessionID),
		zap.String("from", result.From),
		zap.String("to", icao),
		zap.Int("travel", result.TravelNumber),
		zap.Int("cost", result.Cost),
		zap.Float64("km", math.Round(result.Distance)),
		zap.Bool("completed", result.Completed),
		zap.String("events", eventSummary(result.Events)),
		zap.Int("energy", result.State.Energy),
		zap.Int("credits", result.State.Credits))

	respondJSON(w, http.StatusOK, result)
}

// eventSummary renders events compactly for the travel log line
func eventSummary(events []engine.Event) string {
	if len(events) == 0 {
		return "-"
	}
	parts := make([]string, 0, len(events))
	for _, ev := range events {
		switch ev.Type {
		case engine.EventNotEnoughEnergy:
			parts = append(parts, fmt.Sprintf("%s(%d)", ev.Type, ev.Required))
		case engine.EventShard:
			parts = append(parts, fmt.Sprintf("%s(%d)", ev.Type, ev.Shard))
		case engine.EventBandit, engine.EventCredit:
			parts = append(parts, fmt.Sprintf("%s(%d)", ev.Type, ev.Amount))
		default:
			parts = append(parts, string(ev.Type))
		}
	}
	return strings.Join(parts, ",")
}

func (s *Server) handleBuyEnergy(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Credits int `json:"credits"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Please enter a valid number of credits.")
		return
	}

	sessionID := s.sessionID(r)
	state, err := s.service.BuyEnergy(r.Context(), sessionID, req.Credits)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	s.broadcastState(sessionID, state)
	respondJSON(w, http.StatusOK, map[string]interface{}{"state": state})
}

func (s *Server) handleGetHistory(w http.ResponseWriter, r *http.Request) {
	opts := service.HistoryOptions{
		Page:  1,
		Limit: 20,
		Order: "desc",
	}

	query := r.URL.Query()
	if pageStr := query.Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			opts.Page = p
		}
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			opts.Limit = l
		}
	}

	if order := query.Get("order"); order == "asc" || order == "desc" {
		opts.Order = order
	}

	history, err := s.service.GetTravelHistory(r.Context(), s.sessionID(r), opts)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, history)
}

// Session Handlers

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	sessions, err := s.service.ListSessions(r.Context())
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	// Parse query parameters
	query := r.URL.Query()
	sortBy := query.Get("sort")    // "created", "accessed" (default)
	order := query.Get("order")    // "asc", "desc" (default: "desc")
	limitStr := query.Get("limit") // number of sessions to return

	if sortBy != "created" {
		sortBy = "accessed"
	}
	if order != "asc" {
		order = "desc"
	}

	sort.Slice(sessions, func(i, j int) bool {
		var ti, tj time.Time
		if sortBy == "created" {
			ti, tj = sessions[i].CreatedAt, sessions[j].CreatedAt
		} else {
			ti, tj = sessions[i].LastAccessedAt, sessions[j].LastAccessedAt
		}

		if order == "asc" {
			return ti.Before(tj)
		}
		return ti.After(tj)
	})

	total := len(sessions)
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l < len(sessions) {
			sessions = sessions[:l]
		}
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(sessions),
		"total":    total,
		"sessions": sessions,
		"sort":     sortBy,
		"order":    order,
	})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	session, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, session)
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["id"]

	if err := s.service.DeleteSession(r.Context(), sessionID); err != nil {
		s.respondServiceError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Session %s deleted", sessionID),
	})
}

// WebSocket Handler

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	sessionID := s.sessionID(r)

	// Verify session exists
	info, err := s.service.GetSession(r.Context(), sessionID)
	if err != nil {
		http.Error(w, "Invalid session", statusFor(err))
		return
	}

	s.hub.ServeWS(w, r, hubKey(info.ID))
}

func (s *Server) staticPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, filepath.Join(s.opts.StaticDir, name))
	}
}

// Health check
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
	})
}
