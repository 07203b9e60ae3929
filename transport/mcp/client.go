package mcp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
	"github.com/wricardo/mcp-training/chronoshards/game/service"
)

// sessionHeader matches the header the REST API reads the session from
const sessionHeader = "X-Session-ID"

// Client is a thin MCP client that proxies to the REST API
type Client struct {
	baseURL    string
	httpClient *http.Client
	mcpServer  *server.MCPServer
}

// NewClient creates a new MCP client that calls the REST API
func NewClient(baseURL string) *Client {
	c := &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}

	c.initMCPServer()
	return c
}

// initMCPServer initializes the MCP server with all tools
func (c *Client) initMCPServer() {
	c.mcpServer = server.NewMCPServer(
		"ChronoShards",
		"1.0.0",
		server.WithToolCapabilities(true),
		server.WithInstructions(`ChronoShards - MCP Interface

This is a thin client that proxies all requests to the REST API server.

GAME OBJECTIVE:
Fly between airports to collect all five time shards, then return to the home airport (EFHK) to win.

AVAILABLE TOOLS:
- start_game: Start a new game for a player name (returns a session_id)
- game_state: Get the current game state
- list_airports: List the airports you can travel to
- travel: Fly to an airport by ICAO code - requires intent explanation
- buy_energy: Convert credits into energy
- update_state: Overwrite state fields
- travel_history: View past travels
- get_session / list_sessions: Inspect sessions
- list_configs: List available rule presets
- game_instructions: Get the full rules

Pass the session_id from start_game to every other tool. Without it the shared default session is used.

NOTE: The 'intent' parameter on travel serves as rubber duck debugging - explain your reasoning!`),
	)

	c.registerTools()
}

func sessionProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Session ID returned by start_game (optional, defaults to the shared session)",
	}
}

// registerTools registers all MCP tools
func (c *Client) registerTools() {
	// Session management
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "start_game",
		Description: "Start a new game. The name must contain at least one letter.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Player name",
				},
				"config_id": map[string]interface{}{
					"type":        "string",
					"description": "Rule preset to use (optional, see list_configs)",
				},
			},
			Required: []string{"name"},
		},
	}, c.handleStartGame)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_sessions",
		Description: "List all active game sessions",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListSessions)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "get_session",
		Description: "Get details of a specific session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": map[string]interface{}{
					"type":        "string",
					"description": "Session ID to retrieve",
				},
			},
			Required: []string{"session_id"},
		},
	}, c.handleGetSession)

	// Game operations
	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_state",
		Description: "Get the current game state",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
			},
		},
	}, c.handleGameState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_airports",
		Description: "List the airports in the catalog with their distance from home",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListAirports)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "travel",
		Description: "Fly to an airport. Costs a random amount of energy and may award a shard, lose credits to bandits or earn credits.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"icao": map[string]interface{}{
					"type":        "string",
					"description": "Four letter ICAO code of the destination",
				},
				"intent": map[string]interface{}{
					"type":        "string",
					"description": "Brief explanation of the intent behind this flight (serves as a rubber duck to help explain your reasoning)",
				},
			},
			Required: []string{"icao"},
		},
	}, c.handleTravel)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "buy_energy",
		Description: "Convert credits into energy",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"credits": map[string]interface{}{
					"type":        "integer",
					"description": "Credits to spend",
				},
			},
			Required: []string{"credits"},
		},
	}, c.handleBuyEnergy)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "update_state",
		Description: "Overwrite state fields, for example {\"credits\": 50}. The shard count is always recomputed.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"state": map[string]interface{}{
					"type":        "object",
					"description": "Fields to overwrite",
				},
			},
			Required: []string{"state"},
		},
	}, c.handleUpdateState)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "travel_history",
		Description: "Get travel history for a session",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"session_id": sessionProperty(),
				"page": map[string]interface{}{
					"type":        "integer",
					"description": "Page number",
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Items per page",
				},
				"order": map[string]interface{}{
					"type":        "string",
					"enum":        []string{"asc", "desc"},
					"description": "Sort order (default desc)",
				},
			},
		},
	}, c.handleTravelHistory)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "list_configs",
		Description: "List available rule presets",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleListConfigs)

	c.mcpServer.AddTool(mcp.Tool{
		Name:        "game_instructions",
		Description: "Get comprehensive game instructions and rules",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}, c.handleGameInstructions)
}

// GetMCPServer returns the underlying MCP server for serving
func (c *Client) GetMCPServer() *server.MCPServer {
	return c.mcpServer
}

// apiCall sends a request to the REST API and decodes the response into
// result. A non-empty sessionID is sent in the session header.
func (c *Client) apiCall(ctx context.Context, method, path, sessionID string, body interface{}, result interface{}) error {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if sessionID != "" {
		req.Header.Set(sessionHeader, sessionID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp map[string]interface{}
		json.NewDecoder(resp.Body).Decode(&errResp)
		if msg, ok := errResp["error"].(string); ok && msg != "" {
			return fmt.Errorf("%s", msg)
		}
		return fmt.Errorf("API error: %d", resp.StatusCode)
	}

	if result != nil {
		return json.NewDecoder(resp.Body).Decode(result)
	}
	return nil
}

// Tool handlers

func (c *Client) handleStartGame(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	body := map[string]string{"name": request.GetString("name", "")}
	if configID := request.GetString("config_id", ""); configID != "" {
		body["config_id"] = configID
	}

	var response struct {
		SessionID string            `json:"session_id"`
		State     *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "POST", "/api/start", "", body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Game started. Session: %s\n\n%s", response.SessionID, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleListSessions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		Count    int                   `json:"count"`
		Sessions []service.SessionInfo `json:"sessions"`
	}
	if err := c.apiCall(ctx, "GET", "/api/sessions", "", nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Active Sessions (%d):\n\n", response.Count)
	for _, s := range response.Sessions {
		player := ""
		if s.GameState != nil {
			player = s.GameState.PlayerName
		}
		fmt.Fprintf(&b, "- %s (Player: %s, Config: %s, Travels: %d, Created: %s)\n",
			s.ID, player, s.ConfigID, s.Travels, s.CreatedAt.Format("15:04:05"))
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGetSession(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessionID := request.GetString("session_id", "")
	if sessionID == "" {
		return mcp.NewToolResultError("session_id is required"), nil
	}

	var session service.SessionInfo
	if err := c.apiCall(ctx, "GET", "/api/sessions/"+url.PathEscape(sessionID), "", nil, &session); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatSessionInfo(&session)), nil
}

func (c *Client) handleGameState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var response struct {
		State *engine.GameState `json:"state"`
	}
	if err := c.apiCall(ctx, "GET", "/api/main/state", request.GetString("session_id", ""), nil, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatGameState(response.State)), nil
}

func (c *Client) handleListAirports(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var airports []airportSummary
	if err := c.apiCall(ctx, "GET", "/api/main/airports", "", nil, &airports); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatAirports(airports)), nil
}

func (c *Client) handleTravel(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	icao := strings.TrimSpace(request.GetString("icao", ""))
	if icao == "" {
		return mcp.NewToolResultError("icao is required"), nil
	}

	// Intent parameter serves as rubber duck debugging - we don't need to process it further
	_ = request.GetString("intent", "")

	var result service.TravelResult
	body := map[string]string{"ICAO": icao}
	if err := c.apiCall(ctx, "POST", "/api/main/travel", request.GetString("session_id", ""), body, &result); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatTravelResult(icao, &result)), nil
}

func (c *Client) handleBuyEnergy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	credits := request.GetInt("credits", 0)

	var response struct {
		State *engine.GameState `json:"state"`
	}
	body := map[string]int{"credits": credits}
	if err := c.apiCall(ctx, "POST", "/api/main/buy-energy", request.GetString("session_id", ""), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	result := fmt.Sprintf("Bought energy with %d credits.\n\n%s", credits, formatGameState(response.State))
	return mcp.NewToolResultText(result), nil
}

func (c *Client) handleUpdateState(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	partial, ok := request.GetArguments()["state"].(map[string]interface{})
	if !ok {
		return mcp.NewToolResultError("state must be an object"), nil
	}

	var response struct {
		State *engine.GameState `json:"state"`
	}
	body := map[string]interface{}{"state": partial}
	if err := c.apiCall(ctx, "POST", "/api/main/update", request.GetString("session_id", ""), body, &response); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText("State updated.\n\n" + formatGameState(response.State)), nil
}

func (c *Client) handleTravelHistory(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	params := url.Values{}
	if page := request.GetInt("page", 0); page > 0 {
		params.Set("page", fmt.Sprint(page))
	}
	if limit := request.GetInt("limit", 0); limit > 0 {
		params.Set("limit", fmt.Sprint(limit))
	}
	if order := request.GetString("order", ""); order != "" {
		params.Set("order", order)
	}

	path := "/api/main/history"
	if len(params) > 0 {
		path += "?" + params.Encode()
	}

	var history service.HistoryResponse
	if err := c.apiCall(ctx, "GET", path, request.GetString("session_id", ""), nil, &history); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(formatHistory(&history)), nil
}

func (c *Client) handleListConfigs(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var configs []service.ConfigInfo
	if err := c.apiCall(ctx, "GET", "/api/configs", "", nil, &configs); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var b strings.Builder
	b.WriteString("Available Configurations:\n\n")
	for _, config := range configs {
		mode := "permissive"
		if config.StrictMerge {
			mode = "strict"
		}
		fmt.Fprintf(&b, "• %s (config_id: %s)\n  %s\n  Home: %s, Credits: %d, Energy: %d, State updates: %s\n\n",
			config.Name, config.ConfigID, config.Description,
			config.HomeICAO, config.StartingCredits, config.StartingEnergy, mode)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func (c *Client) handleGameInstructions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	instructions := `ChronoShards - Complete Instructions

GAME OBJECTIVE:
Five time shards are scattered across the airports. Collect all five and land at the home airport to win.

STARTING STATE:
• Credits: 1000
• Energy: 1000
• Location: EFHK (Helsinki-Vantaa, the home airport)
• Shards: none

EACH FLIGHT (travel tool):
1. An energy cost between 20 and 200 is rolled.
2. If your energy is below the cost the flight is cancelled: you stay where you are and keep your energy.
   If you also have no credits left, the game is lost.
3. Otherwise the cost is paid and you land at the destination.
4. 50% chance to find one of the shards you do not have yet.
5. 10% chance that bandits steal 20 to 150 credits.
6. You earn 0 to 100 credits.

WIN AND LOSE:
• Win: all five shards collected and the flight lands at the home airport.
• Lose: fewer than five shards, no credits left and less than 20 energy.

ENERGY:
• buy_energy converts credits into energy (1 credit = 2 energy with the classic rules).
• You cannot spend more credits than you have.

UNKNOWN AIRPORTS:
• Flying to an ICAO code that is not in the catalog does nothing: no events, no cost.
  Use list_airports to see valid destinations.

STRATEGY HINTS:
• Keep enough energy for the worst case flight (200) when you can.
• Credits are your safety net: they can always become energy.
• Once you hold five shards, fly straight home.

Good luck collecting the shards!`

	return mcp.NewToolResultText(instructions), nil
}

// Formatting helpers

type airportSummary struct {
	ICAO     string   `json:"ICAO"`
	Name     string   `json:"name"`
	Country  string   `json:"country"`
	Distance *float64 `json:"distance,omitempty"`
}

func formatAirports(airports []airportSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Airports (%d):\n\n", len(airports))
	for _, a := range airports {
		fmt.Fprintf(&b, "- %s  %s", a.ICAO, a.Name)
		if a.Country != "" {
			fmt.Fprintf(&b, " (%s)", a.Country)
		}
		if a.Distance != nil {
			fmt.Fprintf(&b, " - %.0f km from home", *a.Distance)
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatSessionInfo(session *service.SessionInfo) string {
	return fmt.Sprintf("Session: %s\nConfig: %s\nCreated: %s\nTravels: %d\n\n%s",
		session.ID, session.ConfigID,
		session.CreatedAt.Format("2006-01-02 15:04:05"),
		session.Travels,
		formatGameState(session.GameState))
}

func formatShards(shards engine.Shards) string {
	parts := make([]string, 0, engine.ShardCount)
	for n := 1; n <= engine.ShardCount; n++ {
		mark := "·"
		if shards.Has(n) {
			mark = "✓"
		}
		parts = append(parts, fmt.Sprintf("%d%s", n, mark))
	}
	return strings.Join(parts, " ")
}

func formatGameState(state *engine.GameState) string {
	if state == nil {
		return "No game state available"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Player: %s\n", state.PlayerName)
	fmt.Fprintf(&b, "Location: %s | Credits: %d | Energy: %d\n", state.CurrentLocation, state.Credits, state.Energy)
	fmt.Fprintf(&b, "Shards: %d/%d [%s]", state.CountShards, engine.ShardCount, formatShards(state.Shards))
	return b.String()
}

func formatEvent(ev engine.Event) string {
	switch ev.Type {
	case engine.EventNotEnoughEnergy:
		return fmt.Sprintf("⚡ Not enough energy: this flight needed %d", ev.Required)
	case engine.EventShard:
		return fmt.Sprintf("💎 Found shard %d", ev.Shard)
	case engine.EventBandit:
		return fmt.Sprintf("🏴 Bandits stole %d credits", ev.Amount)
	case engine.EventCredit:
		return fmt.Sprintf("💰 Earned %d credits", ev.Amount)
	case engine.EventWin:
		return "🎉 VICTORY! All shards brought home"
	case engine.EventLose:
		return "💀 GAME OVER"
	default:
		return string(ev.Type)
	}
}

func formatTravelResult(icao string, result *service.TravelResult) string {
	var b strings.Builder
	if len(result.Events) == 0 {
		fmt.Fprintf(&b, "Nothing happened: %s is not a known airport.\n", icao)
	} else {
		fmt.Fprintf(&b, "Travel to %s:\n", icao)
		for _, ev := range result.Events {
			b.WriteString("  " + formatEvent(ev) + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(formatGameState(result.State))
	return b.String()
}

func formatHistory(history *service.HistoryResponse) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Travel History (Page %d/%d) - Total: %d\n\n",
		history.Page, history.TotalPages, history.TotalTravels)

	for _, travel := range history.Travels {
		status := "✓"
		if !travel.Completed {
			status = "✗"
		}
		events := make([]string, 0, len(travel.Events))
		for _, ev := range travel.Events {
			events = append(events, string(ev.Type))
		}
		fmt.Fprintf(&b, "%d. %s -> %s %s [Cost: %d, Energy: %d, Credits: %d, Shards: %d] %s\n",
			travel.TravelNumber, travel.From, travel.To, status,
			travel.Cost, travel.Energy, travel.Credits, travel.CountShards,
			strings.Join(events, ","))
	}

	return b.String()
}
