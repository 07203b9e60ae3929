// Command validate checks the rule preset JSON files in a configs directory
// (../configs by default). It checks:
//   - JSON structure and that every field is a known rule
//   - Rule ranges (the same checks the server applies on load)
//   - That the home airport is in the airport catalog
//   - Winnability: shards can drop and the starting budget covers the
//     fewest flights that can win
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/chronoshards/game/catalog"
	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// ValidationResult captures the outcome of validating a single file.
// If Valid is true, Errors contains informational messages; otherwise it
// accumulates the validation errors that were found.
type ValidationResult struct {
	File   string
	Valid  bool
	Errors []string
}

func (r *ValidationResult) fail(format string, args ...interface{}) {
	r.Valid = false
	r.Errors = append(r.Errors, fmt.Sprintf(format, args...))
}

func (r *ValidationResult) info(format string, args ...interface{}) {
	r.Errors = append(r.Errors, "✓ "+fmt.Sprintf(format, args...))
}

// validateConfig loads and validates a single preset file against airports.
// A nil catalog skips the home airport check.
func validateConfig(filePath string, airports *catalog.Catalog) ValidationResult {
	result := ValidationResult{
		File:   filepath.Base(filePath),
		Valid:  true,
		Errors: []string{},
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		result.fail("Failed to read file: %v", err)
		return result
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	var probe engine.Rules
	if err := dec.Decode(&probe); err != nil {
		result.fail("Invalid JSON: %v", err)
		return result
	}

	rules, err := engine.ParseRules(data)
	if err != nil {
		result.fail("%v", err)
		return result
	}

	if airports != nil && !airports.Has(rules.HomeICAO) {
		result.fail("home_icao %s is not in the airport catalog", rules.HomeICAO)
	}

	winnable := validateWinnable(rules)
	if !winnable.Valid {
		result.Valid = false
	}
	result.Errors = append(result.Errors, winnable.Errors...)

	if result.Valid {
		result.info("Name: %s", rules.Name)
		result.info("Home: %s", rules.HomeICAO)
		result.info("Start: %d credits, %d energy", rules.StartingCredits, rules.StartingEnergy)
		result.info("Travel cost: %d-%d", rules.MinTravelCost, rules.MaxTravelCost)
		result.info("Bandits: %.0f%% for %d-%d credits", rules.BanditChance*100, rules.MinBanditLoss, rules.MaxBanditLoss)
	}

	return result
}

// validateWinnable checks that a game under rules can end in a win. The
// shortest win is ShardCount flights, the last one landing home with the
// final shard.
func validateWinnable(rules *engine.Rules) ValidationResult {
	result := ValidationResult{
		Valid:  true,
		Errors: []string{},
	}

	if rules.ShardChance <= 0 {
		result.fail("shard_chance is 0: shards can never be collected")
		return result
	}

	budget := rules.StartingEnergy + rules.StartingCredits*rules.EnergyPerCredit
	needed := engine.ShardCount * rules.MinTravelCost
	if rules.MaxCreditGain == 0 && budget < needed {
		result.fail("Starting budget of %d energy cannot pay for the %d flights needed to win (%d energy)",
			budget, engine.ShardCount, needed)
		return result
	}

	result.info("Energy budget: %d (fewest winning flights cost at least %d)", budget, needed)
	result.info("Expected flights to collect all shards: %.1f", float64(engine.ShardCount)/rules.ShardChance)
	return result
}

// validateDir validates every *.json file in dir and writes a report to w.
// It returns false if any file is invalid.
func validateDir(w io.Writer, dir string, airports *catalog.Catalog) (bool, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return false, fmt.Errorf("error finding config files: %w", err)
	}
	if len(files) == 0 {
		return false, fmt.Errorf("no config files found in %s", dir)
	}

	allValid := true
	for _, file := range files {
		result := validateConfig(file, airports)

		fmt.Fprintf(w, "\n%s %s\n", strings.Repeat("=", 20), result.File)

		if result.Valid {
			fmt.Fprintln(w, "✅ VALID")
			for _, info := range result.Errors {
				fmt.Fprintln(w, "  "+info)
			}
		} else {
			fmt.Fprintln(w, "❌ INVALID")
			allValid = false
			for _, err := range result.Errors {
				if !strings.HasPrefix(err, "✓") {
					fmt.Fprintln(w, "  ❌ "+err)
				}
			}
		}
	}

	fmt.Fprintf(w, "\n%s\n", strings.Repeat("=", 40))
	if allValid {
		fmt.Fprintln(w, "✅ All configurations are valid!")
	} else {
		fmt.Fprintln(w, "❌ Some configurations have errors")
	}
	return allValid, nil
}

// loadCatalog loads the airport file, or the embedded set when file is empty
func loadCatalog(file string) (*catalog.Catalog, error) {
	if file == "" {
		return catalog.Default(engine.DefaultHomeICAO)
	}
	return catalog.LoadFile(file, engine.DefaultHomeICAO)
}

func main() {
	cmd := &cli.Command{
		Name:      "validate",
		Usage:     "Validate rule presets",
		ArgsUsage: "[configs-dir]",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "airports", Usage: "Airport catalog JSON file (embedded set when empty)"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			dir := "../configs"
			if cmd.Args().Present() {
				dir = cmd.Args().First()
			}

			airports, err := loadCatalog(cmd.String("airports"))
			if err != nil {
				return err
			}

			ok, err := validateDir(os.Stdout, dir, airports)
			if err != nil {
				return err
			}
			if !ok {
				return cli.Exit("", 1)
			}
			return nil
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
