package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// Airport is the part of a catalog record the bot needs
type Airport struct {
	ICAO     string  `json:"ICAO"`
	Name     string  `json:"name"`
	Distance float64 `json:"distance"`
}

// TravelResponse is the answer of POST /api/main/travel
type TravelResponse struct {
	Events []engine.Event    `json:"events"`
	State  *engine.GameState `json:"state"`
	Win    bool              `json:"win"`
	Lose   bool              `json:"lose"`
}

type startResponse struct {
	OK        bool              `json:"ok"`
	Error     string            `json:"error"`
	State     *engine.GameState `json:"state"`
	SessionID string            `json:"session_id"`
}

type stateResponse struct {
	State *engine.GameState `json:"state"`
}

// Client plays one session over the REST API
type Client struct {
	baseURL   string
	sessionID string
	client    *http.Client
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SessionID returns the session the client plays
func (c *Client) SessionID() string {
	return c.sessionID
}

// Start begins a new game and remembers its session
func (c *Client) Start(ctx context.Context, name, configID string) (*engine.GameState, error) {
	var resp startResponse
	body := map[string]string{"name": name, "config_id": configID}
	if err := c.do(ctx, http.MethodPost, "/api/start", body, &resp); err != nil {
		return nil, fmt.Errorf("start game: %w", err)
	}
	if !resp.OK {
		return nil, fmt.Errorf("start game: %s", resp.Error)
	}
	c.sessionID = resp.SessionID
	return resp.State, nil
}

// Resume plays an existing session
func (c *Client) Resume(ctx context.Context, sessionID string) (*engine.GameState, error) {
	c.sessionID = sessionID
	return c.State(ctx)
}

func (c *Client) Airports(ctx context.Context) ([]Airport, error) {
	var airports []Airport
	if err := c.do(ctx, http.MethodGet, "/api/main/airports", nil, &airports); err != nil {
		return nil, fmt.Errorf("list airports: %w", err)
	}
	return airports, nil
}

func (c *Client) State(ctx context.Context) (*engine.GameState, error) {
	var resp stateResponse
	if err := c.do(ctx, http.MethodGet, "/api/main/state", nil, &resp); err != nil {
		return nil, fmt.Errorf("get state: %w", err)
	}
	return resp.State, nil
}

func (c *Client) Travel(ctx context.Context, icao string) (*TravelResponse, error) {
	var resp TravelResponse
	if err := c.do(ctx, http.MethodPost, "/api/main/travel", map[string]string{"ICAO": icao}, &resp); err != nil {
		return nil, fmt.Errorf("travel to %s: %w", icao, err)
	}
	return &resp, nil
}

func (c *Client) BuyEnergy(ctx context.Context, credits int) (*engine.GameState, error) {
	var resp stateResponse
	if err := c.do(ctx, http.MethodPost, "/api/main/buy-energy", map[string]int{"credits": credits}, &resp); err != nil {
		return nil, fmt.Errorf("buy energy: %w", err)
	}
	return resp.State, nil
}

func (c *Client) do(ctx context.Context, method, path string, body, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.sessionID != "" {
		req.Header.Set("X-Session-ID", c.sessionID)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	// The start endpoint reports rejected names as ok=false with status 400
	if resp.StatusCode >= 400 && path != "/api/start" {
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("%s (%d)", apiErr.Error, resp.StatusCode)
		}
		return fmt.Errorf("unexpected status %s", resp.Status)
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
