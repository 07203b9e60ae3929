package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// gameServiceImpl implements the GameService interface
type gameServiceImpl struct {
	sessions SessionManager
	configs  ConfigManager
	airports AirportCatalog
	logger   *zap.Logger
}

// NewGameService creates a new game service instance
func NewGameService(sessions SessionManager, configs ConfigManager, airports AirportCatalog, logger *zap.Logger) GameService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &gameServiceImpl{
		sessions: sessions,
		configs:  configs,
		airports: airports,
		logger:   logger,
	}
}

// StartGame validates the player name and registers a new session holding a
// fresh state for the chosen preset
func (s *gameServiceImpl) StartGame(ctx context.Context, name, configID string) (*SessionInfo, error) {
	configID, rules, err := s.resolveRules(configID)
	if err != nil {
		return nil, err
	}

	state, err := engine.NewGameState(name, rules)
	if err != nil {
		return nil, err
	}

	sess, err := s.sessions.Create("", configID, rules, state)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	s.logger.Info("game started",
		zap.String("session", sess.ID),
		zap.String("player", state.PlayerName),
		zap.String("config", configID))

	sess.Lock()
	defer sess.Unlock()
	return s.sessionInfo(sess), nil
}

// resolveRules loads a preset by id, or the default preset when id is empty.
// A preset whose home airport is not in the catalog cannot be played.
func (s *gameServiceImpl) resolveRules(configID string) (string, *engine.Rules, error) {
	if configID == "" {
		rules := s.configs.GetDefault()
		if err := s.checkHome(rules); err != nil {
			return "", nil, err
		}
		return rules.Name, rules, nil
	}

	rules, err := s.configs.LoadConfig(configID)
	if err != nil {
		if errors.Is(err, ErrConfigNotFound) {
			msg := fmt.Sprintf("config '%s' not found. Use /api/configs to list available configurations", configID)
			if available, listErr := s.configs.ListConfigs(); listErr == nil && len(available) > 0 {
				ids := make([]string, 0, len(available))
				for _, cfg := range available {
					ids = append(ids, cfg.ConfigID)
				}
				msg = fmt.Sprintf("config '%s' not found. Available configs: %v", configID, ids)
			}
			return "", nil, &engine.ValidationError{Field: "config_id", Message: msg}
		}
		return "", nil, fmt.Errorf("failed to load config %s: %w", configID, err)
	}
	if err := s.checkHome(rules); err != nil {
		return "", nil, err
	}
	return strings.TrimSuffix(configID, ".json"), rules, nil
}

func (s *gameServiceImpl) checkHome(rules *engine.Rules) error {
	if s.airports == nil || s.airports.Has(rules.HomeICAO) {
		return nil
	}
	return &engine.ValidationError{
		Field:   "config_id",
		Message: fmt.Sprintf("home airport %s of config '%s' is not in the airport catalog", rules.HomeICAO, rules.Name),
	}
}

// session looks up a session. The default session is created on first use.
func (s *gameServiceImpl) session(sessionID string) (*Session, error) {
	if sessionID == "" || strings.EqualFold(sessionID, DefaultSessionID) {
		rules := s.configs.GetDefault()
		return s.sessions.GetOrCreate(DefaultSessionID, rules.Name, rules)
	}

	sess, err := s.sessions.Get(sessionID)
	if err != nil {
		return nil, err
	}
	return sess, nil
}

// withSession runs fn with the session locked and marks it accessed
func (s *gameServiceImpl) withSession(sessionID string, fn func(sess *Session) error) error {
	sess, err := s.session(sessionID)
	if err != nil {
		return err
	}

	sess.Lock()
	defer sess.Unlock()

	if err := s.sessions.UpdateLastAccessed(sess.ID); err != nil && !errors.Is(err, ErrSessionNotFound) {
		return err
	}
	return fn(sess)
}

func (s *gameServiceImpl) sessionInfo(sess *Session) *SessionInfo {
	rules := *sess.Engine.GetRules()
	return &SessionInfo{
		ID:             sess.ID,
		ConfigID:       sess.ConfigID,
		CreatedAt:      sess.CreatedAt,
		LastAccessedAt: sess.LastAccessedAt(),
		Travels:        len(sess.Engine.GetTravelHistory()),
		GameState:      sess.Engine.GetState().Clone(),
		Rules:          &rules,
	}
}

// GetSession retrieves session information
func (s *gameServiceImpl) GetSession(ctx context.Context, sessionID string) (*SessionInfo, error) {
	var info *SessionInfo
	err := s.withSession(sessionID, func(sess *Session) error {
		info = s.sessionInfo(sess)
		return nil
	})
	return info, err
}

// ListSessions returns all active sessions
func (s *gameServiceImpl) ListSessions(ctx context.Context) ([]*SessionInfo, error) {
	sessions := s.sessions.List()
	result := make([]*SessionInfo, 0, len(sessions))

	for _, sess := range sessions {
		sess.Lock()
		result = append(result, s.sessionInfo(sess))
		sess.Unlock()
	}

	return result, nil
}

// DeleteSession removes a session. Deleting the default session resets it,
// which succeeds even before the default session has been used.
func (s *gameServiceImpl) DeleteSession(ctx context.Context, sessionID string) error {
	if sessionID == "" || strings.EqualFold(sessionID, DefaultSessionID) {
		sessionID = DefaultSessionID
		if err := s.sessions.Delete(sessionID); err != nil && !errors.Is(err, ErrSessionNotFound) {
			return err
		}
		s.logger.Info("default session reset")
		return nil
	}
	if err := s.sessions.Delete(sessionID); err != nil {
		return err
	}
	s.logger.Info("session deleted", zap.String("session", sessionID))
	return nil
}

// GetState returns a snapshot of the session's state
func (s *gameServiceImpl) GetState(ctx context.Context, sessionID string) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.withSession(sessionID, func(sess *Session) error {
		state = sess.Engine.GetState().Clone()
		return nil
	})
	return state, err
}

// UpdateState merges partial into the session's state and returns the result
func (s *gameServiceImpl) UpdateState(ctx context.Context, sessionID string, partial map[string]json.RawMessage) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.withSession(sessionID, func(sess *Session) error {
		if err := sess.Engine.Merge(partial); err != nil {
			return err
		}
		state = sess.Engine.GetState().Clone()
		return nil
	})
	return state, err
}

// Travel resolves a travel for the session
func (s *gameServiceImpl) Travel(ctx context.Context, sessionID, icao string) (*TravelResult, error) {
	var result *TravelResult
	var id string
	err := s.withSession(sessionID, func(sess *Session) error {
		id = sess.ID
		outcome := sess.Engine.Travel(icao)
		result = &TravelResult{
			Events:    outcome.Events,
			State:     sess.Engine.GetState().Clone(),
			Win:       outcome.Win,
			Lose:      outcome.Lose,
			From:      outcome.From,
			To:        icao,
			Cost:      outcome.Cost,
			Known:     outcome.Known,
			Completed: outcome.Completed,
		}
		if !outcome.Known {
			return nil
		}
		if last := sess.Engine.GetLastTravel(); last != nil {
			result.TravelNumber = last.TravelNumber
		}
		if s.airports != nil {
			result.Distance, _ = s.airports.Distance(outcome.From, icao)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if result.Win || result.Lose {
		s.logger.Info("game over",
			zap.String("session", id),
			zap.Bool("win", result.Win),
			zap.Int("credits", result.State.Credits),
			zap.Int("shards", result.State.CountShards))
	}
	return result, nil
}

// BuyEnergy converts credits into energy for the session
func (s *gameServiceImpl) BuyEnergy(ctx context.Context, sessionID string, credits int) (*engine.GameState, error) {
	var state *engine.GameState
	err := s.withSession(sessionID, func(sess *Session) error {
		if err := sess.Engine.BuyEnergy(credits); err != nil {
			return err
		}
		state = sess.Engine.GetState().Clone()
		return nil
	})
	return state, err
}

// GetTravelHistory returns one page of the session's travel log
func (s *gameServiceImpl) GetTravelHistory(ctx context.Context, sessionID string, opts HistoryOptions) (*HistoryResponse, error) {
	var history []engine.TravelRecord
	err := s.withSession(sessionID, func(sess *Session) error {
		all := sess.Engine.GetTravelHistory()
		history = make([]engine.TravelRecord, len(all))
		copy(history, all)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return paginate(history, opts), nil
}

func paginate(history []engine.TravelRecord, opts HistoryOptions) *HistoryResponse {
	total := len(history)

	// Apply defaults
	if opts.Page < 1 {
		opts.Page = 1
	}
	if opts.Limit <= 0 {
		opts.Limit = 20
	}
	if opts.Limit > engine.MaxHistoryLimit {
		opts.Limit = engine.MaxHistoryLimit
	}
	if opts.Order != "asc" {
		opts.Order = "desc"
	}

	totalPages := (total + opts.Limit - 1) / opts.Limit
	if totalPages == 0 {
		totalPages = 1
	}

	start := (opts.Page - 1) * opts.Limit
	end := start + opts.Limit
	if end > total {
		end = total
	}

	travels := []engine.TravelRecord{}
	if start < total {
		if opts.Order == "desc" {
			// Most recent first
			for i := total - 1 - start; i >= total-end; i-- {
				travels = append(travels, history[i])
			}
		} else {
			travels = append(travels, history[start:end]...)
		}
	}

	return &HistoryResponse{
		Travels:      travels,
		TotalTravels: total,
		Page:         opts.Page,
		PageSize:     opts.Limit,
		TotalPages:   totalPages,
		HasNext:      opts.Page < totalPages,
		HasPrevious:  opts.Page > 1,
	}
}

// ListAirports returns the static airport array
func (s *gameServiceImpl) ListAirports(ctx context.Context) (json.RawMessage, error) {
	if s.airports == nil {
		return json.RawMessage("[]"), nil
	}
	return json.RawMessage(s.airports.JSON()), nil
}

// ListConfigs returns the rule presets a game can be started with. Presets
// whose home airport is missing from the catalog are left out.
func (s *gameServiceImpl) ListConfigs(ctx context.Context) ([]*ConfigInfo, error) {
	configs, err := s.configs.ListConfigs()
	if err != nil || s.airports == nil {
		return configs, err
	}

	playable := make([]*ConfigInfo, 0, len(configs))
	for _, cfg := range configs {
		if !s.airports.Has(cfg.HomeICAO) {
			s.logger.Warn("skipping config with unknown home airport",
				zap.String("config", cfg.ConfigID),
				zap.String("home", cfg.HomeICAO))
			continue
		}
		playable = append(playable, cfg)
	}
	return playable, nil
}
