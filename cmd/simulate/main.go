// Command simulate plays many automated games against each rule preset in
// the configs directory and prints win, loss and stall rates. It is a quick
// way to check that a preset is neither trivial nor hopeless.
//
// The bot flies to random airports until it holds every shard, then flies
// home. It buys just enough energy for the most expensive flight whenever it
// runs low.
package main

import (
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v3"

	"github.com/wricardo/mcp-training/chronoshards/game/catalog"
	"github.com/wricardo/mcp-training/chronoshards/game/config"
	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// Outcome is how one simulated game ended
type Outcome int

const (
	Stalled Outcome = iota
	Won
	Lost
)

// GameResult summarizes one simulated game
type GameResult struct {
	Outcome Outcome
	Travels int
	Shards  int
	Credits int
}

// Summary aggregates the results of many games under one preset
type Summary struct {
	ConfigID   string
	Games      int
	Wins       int
	Losses     int
	Stalls     int
	winTravels int
}

// Add records one game
func (s *Summary) Add(r GameResult) {
	s.Games++
	switch r.Outcome {
	case Won:
		s.Wins++
		s.winTravels += r.Travels
	case Lost:
		s.Losses++
	default:
		s.Stalls++
	}
}

// WinRate is the share of games won
func (s *Summary) WinRate() float64 {
	if s.Games == 0 {
		return 0
	}
	return float64(s.Wins) / float64(s.Games)
}

// AvgWinTravels is the mean number of travels in a won game
func (s *Summary) AvgWinTravels() float64 {
	if s.Wins == 0 {
		return 0
	}
	return float64(s.winTravels) / float64(s.Wins)
}

func main() {
	cmd := &cli.Command{
		Name:  "simulate",
		Usage: "Play automated games against the rule presets",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config-dir", Value: "configs", Usage: "Directory containing rule presets"},
			&cli.IntFlag{Name: "games", Value: 1000, Usage: "Games per preset"},
			&cli.IntFlag{Name: "max-travels", Value: 500, Usage: "Travels before a game counts as stalled"},
			&cli.Int64Flag{Name: "seed", Value: 1, Usage: "Random seed"},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			return run(os.Stdout, cmd.String("config-dir"), cmd.Int("games"), cmd.Int("max-travels"), cmd.Int64("seed"))
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(w io.Writer, configDir string, games, maxTravels int, seed int64) error {
	manager, err := config.NewManager(configDir)
	if err != nil {
		return err
	}
	presets, err := manager.ListConfigs()
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CONFIG\tGAMES\tWINS\tLOSSES\tSTALLS\tWIN RATE\tAVG TRAVELS TO WIN")
	for _, preset := range presets {
		rules, err := manager.LoadConfig(preset.ConfigID)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\n", preset.ConfigID, err)
			continue
		}
		airports, err := catalog.Default(rules.HomeICAO)
		if err != nil {
			fmt.Fprintf(tw, "%s\terror: %v\n", preset.ConfigID, err)
			continue
		}

		s := Simulate(preset.ConfigID, rules, airports, games, maxTravels, seed)
		fmt.Fprintf(tw, "%s\t%d\t%d\t%d\t%d\t%.1f%%\t%.1f\n",
			s.ConfigID, s.Games, s.Wins, s.Losses, s.Stalls, s.WinRate()*100, s.AvgWinTravels())
	}
	return tw.Flush()
}

// Simulate plays games under rules with a deterministic random source
func Simulate(configID string, rules *engine.Rules, airports *catalog.Catalog, games, maxTravels int, seed int64) Summary {
	rng := engine.NewRand(seed)
	summary := Summary{ConfigID: configID}
	for i := 0; i < games; i++ {
		summary.Add(PlayGame(rules, airports, rng, maxTravels))
	}
	return summary
}

// PlayGame runs one game with the random-tour bot
func PlayGame(rules *engine.Rules, airports *catalog.Catalog, rng *rand.Rand, maxTravels int) GameResult {
	state := engine.InitGameState(rules)
	state.PlayerName = "bot"

	destinations := make([]string, 0, airports.Len())
	for _, airport := range airports.All() {
		if airport.ICAO != rules.HomeICAO {
			destinations = append(destinations, airport.ICAO)
		}
	}

	result := GameResult{Outcome: Stalled}
	for result.Travels < maxTravels {
		topUp(state, rules)

		target := rules.HomeICAO
		if state.CountShards < engine.ShardCount && len(destinations) > 0 {
			target = destinations[rng.Intn(len(destinations))]
		}

		outcome := state.ResolveTravel(target, airports, rules, rng)
		result.Travels++

		if outcome.Win {
			result.Outcome = Won
			break
		}
		if outcome.Lose {
			result.Outcome = Lost
			break
		}
		if !outcome.Completed && state.Credits <= 0 {
			// Cannot fly and cannot buy energy
			result.Outcome = Lost
			break
		}
	}

	result.Shards = state.CountShards
	result.Credits = state.Credits
	return result
}

// topUp buys enough energy to afford the most expensive flight
func topUp(state *engine.GameState, rules *engine.Rules) {
	missing := rules.MaxTravelCost - state.Energy
	if missing <= 0 || state.Credits <= 0 {
		return
	}
	credits := (missing + rules.EnergyPerCredit - 1) / rules.EnergyPerCredit
	if credits > state.Credits {
		credits = state.Credits
	}
	_ = state.BuyEnergy(credits, rules)
}
