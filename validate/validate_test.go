package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/wricardo/mcp-training/chronoshards/game/catalog"
	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

func writeConfig(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}
	return path
}

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()
	airports, err := catalog.Default(engine.DefaultHomeICAO)
	if err != nil {
		t.Fatalf("Failed to load catalog: %v", err)
	}
	return airports
}

func hasError(result ValidationResult, substr string) bool {
	for _, err := range result.Errors {
		if strings.Contains(err, substr) {
			return true
		}
	}
	return false
}

func TestValidateConfig_ValidConfig(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "test.json", `{
		"name": "test",
		"description": "Test rules",
		"home_icao": "EFHK",
		"starting_credits": 500,
		"starting_energy": 500,
		"min_travel_cost": 20,
		"max_travel_cost": 100,
		"shard_chance": 0.5
	}`)

	result := validateConfig(path, testCatalog(t))
	if !result.Valid {
		t.Errorf("Expected valid config, but got errors: %v", result.Errors)
	}
	if result.File != "test.json" {
		t.Errorf("Expected file name test.json, got %s", result.File)
	}
	if !hasError(result, "✓ Name: test") {
		t.Errorf("Expected name info line, got %v", result.Errors)
	}
}

func TestValidateConfig_InvalidJSON(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "bad.json", `{"name": "test", invalid json}`)

	result := validateConfig(path, nil)
	if result.Valid {
		t.Error("Expected invalid result for malformed JSON")
	}
	if !hasError(result, "Invalid JSON") {
		t.Errorf("Expected 'Invalid JSON' error, got %v", result.Errors)
	}
}

func TestValidateConfig_UnknownField(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "typo.json", `{"name": "test", "shard_chanse": 0.5}`)

	result := validateConfig(path, nil)
	if result.Valid {
		t.Error("Expected invalid result for unknown field")
	}
	if !hasError(result, "shard_chanse") {
		t.Errorf("Expected error naming the field, got %v", result.Errors)
	}
}

func TestValidateConfig_MissingFile(t *testing.T) {
	result := validateConfig("/non/existent/file.json", nil)
	if result.Valid {
		t.Error("Expected invalid result for missing file")
	}
	if !hasError(result, "Failed to read file") {
		t.Errorf("Expected read error, got %v", result.Errors)
	}
}

func TestValidateConfig_InvalidRanges(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "range.json", `{"name": "test", "min_travel_cost": 300, "max_travel_cost": 100}`)

	result := validateConfig(path, nil)
	if result.Valid {
		t.Error("Expected invalid result for inverted travel cost range")
	}
	if !hasError(result, "max_travel_cost") {
		t.Errorf("Expected travel cost error, got %v", result.Errors)
	}
}

func TestValidateConfig_HomeNotInCatalog(t *testing.T) {
	path := writeConfig(t, t.TempDir(), "home.json", `{"name": "test", "home_icao": "KJFK"}`)

	result := validateConfig(path, testCatalog(t))
	if result.Valid {
		t.Error("Expected invalid result for unknown home airport")
	}
	if !hasError(result, "KJFK") {
		t.Errorf("Expected error naming KJFK, got %v", result.Errors)
	}
}

func TestValidateWinnable_NoShards(t *testing.T) {
	rules := engine.DefaultRules()
	rules.ShardChance = 0

	result := validateWinnable(rules)
	if result.Valid {
		t.Error("Expected unwinnable rules with shard_chance 0")
	}
}

func TestValidateWinnable_Unaffordable(t *testing.T) {
	rules := engine.DefaultRules()
	rules.StartingCredits = 0
	rules.StartingEnergy = 100
	rules.MinTravelCost = 50
	rules.MaxTravelCost = 50
	rules.MinCreditGain = 0
	rules.MaxCreditGain = 0

	result := validateWinnable(rules)
	if result.Valid {
		t.Error("Expected unwinnable rules when the budget cannot cover five flights")
	}
	if !hasError(result, "cannot pay") {
		t.Errorf("Expected budget error, got %v", result.Errors)
	}
}

func TestValidateWinnable_Classic(t *testing.T) {
	result := validateWinnable(engine.DefaultRules())
	if !result.Valid {
		t.Errorf("Expected classic rules to be winnable, got %v", result.Errors)
	}
	if !hasError(result, "Expected flights to collect all shards: 10.0") {
		t.Errorf("Expected flight estimate, got %v", result.Errors)
	}
}

func TestValidateDir(t *testing.T) {
	dir := t.TempDir()
	writeConfig(t, dir, "good.json", `{"name": "good"}`)
	writeConfig(t, dir, "bad.json", `{"name": "bad", "shard_chance": 0}`)

	var out bytes.Buffer
	ok, err := validateDir(&out, dir, testCatalog(t))
	if err != nil {
		t.Fatalf("validateDir failed: %v", err)
	}
	if ok {
		t.Error("Expected validateDir to report an invalid file")
	}
	report := out.String()
	if !strings.Contains(report, "good.json") || !strings.Contains(report, "bad.json") {
		t.Errorf("Expected both files in report, got:\n%s", report)
	}
	if !strings.Contains(report, "Some configurations have errors") {
		t.Errorf("Expected failure summary, got:\n%s", report)
	}
}

func TestValidateDir_Empty(t *testing.T) {
	var out bytes.Buffer
	if _, err := validateDir(&out, t.TempDir(), nil); err == nil {
		t.Error("Expected error for a directory without configs")
	}
}

func TestValidateDir_ProjectConfigs(t *testing.T) {
	if _, err := os.Stat("../configs"); os.IsNotExist(err) {
		t.Skip("Skipping test - configs directory not found")
	}

	var out bytes.Buffer
	ok, err := validateDir(&out, "../configs", testCatalog(t))
	if err != nil {
		t.Fatalf("validateDir failed: %v", err)
	}
	if !ok {
		t.Errorf("Expected all project configs to be valid:\n%s", out.String())
	}
}
