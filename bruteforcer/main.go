// Command bruteforcer plays ChronoShards against a running server through
// the REST API. It starts (or resumes) a session, tours the airports
// nearest-first and flies home once all five shards are held, buying energy
// whenever it drops below a reserve.
package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

const sessionFile = ".session"

// PlayOptions tunes one run of the bot
type PlayOptions struct {
	MaxTravels int
	Reserve    int
	Delay      time.Duration
}

// PlayResult is how the run ended
type PlayResult struct {
	Travels int
	Win     bool
	Lose    bool
	State   *engine.GameState
}

// Play drives the session until a win, a loss, a dead end or MaxTravels
func Play(ctx context.Context, client *Client, strategy Strategy, state *engine.GameState, opts PlayOptions, logger *zap.Logger) (*PlayResult, error) {
	result := &PlayResult{State: state}

	for result.Travels < opts.MaxTravels {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		if state.Energy < opts.Reserve && state.Credits > 0 {
			credits := opts.Reserve - state.Energy
			if credits > state.Credits {
				credits = state.Credits
			}
			bought, err := client.BuyEnergy(ctx, credits)
			if err != nil {
				return result, err
			}
			logger.Debug("bought energy", zap.Int("credits", credits), zap.Int("energy", bought.Energy))
			state = bought
			result.State = state
		}

		target := strategy.Next(state)
		if target == "" {
			logger.Warn("no destination available")
			return result, nil
		}

		resp, err := client.Travel(ctx, target)
		if err != nil {
			return result, err
		}
		result.Travels++
		state = resp.State
		result.State = state

		logger.Debug("travel",
			zap.String("to", target),
			zap.Int("energy", state.Energy),
			zap.Int("credits", state.Credits),
			zap.Int("shards", state.CountShards))

		if resp.Win || resp.Lose {
			result.Win = resp.Win
			result.Lose = resp.Lose
			return result, nil
		}

		if opts.Delay > 0 {
			select {
			case <-ctx.Done():
				return result, ctx.Err()
			case <-time.After(opts.Delay):
			}
		}
	}
	return result, nil
}

func main() {
	cmd := &cli.Command{
		Name:  "bruteforcer",
		Usage: "Play a ChronoShards game over the REST API",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "url", Value: "http://localhost:8080", Usage: "Game server URL"},
			&cli.StringFlag{Name: "name", Value: "Bruteforcer", Usage: "Player name"},
			&cli.StringFlag{Name: "config", Usage: "Rule preset (server default when empty)"},
			&cli.StringFlag{Name: "continue", Usage: "Resume playing an existing session by ID"},
			&cli.IntFlag{Name: "max-travels", Value: 500, Usage: "Maximum travels"},
			&cli.IntFlag{Name: "reserve", Value: 260, Usage: "Buy energy below this level"},
			&cli.DurationFlag{Name: "delay", Usage: "Delay between travels"},
			&cli.BoolFlag{Name: "v", Usage: "Verbose output"},
		},
		Action: run,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	newLogger := zap.NewProduction
	if cmd.Bool("v") {
		newLogger = zap.NewDevelopment
	}
	logger, err := newLogger()
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck

	client := NewClient(cmd.String("url"))
	logger.Info("connecting to game server", zap.String("url", cmd.String("url")))

	savedSessionID := cmd.String("continue")
	if savedSessionID == "" {
		if data, err := os.ReadFile(sessionFile); err == nil {
			savedSessionID = string(bytes.TrimSpace(data))
		}
	}

	var state *engine.GameState
	if savedSessionID != "" {
		state, err = client.Resume(ctx, savedSessionID)
		if err != nil {
			logger.Warn("failed to resume session, starting a new one", zap.String("session", savedSessionID), zap.Error(err))
			state = nil
		}
	}
	if state == nil {
		state, err = client.Start(ctx, cmd.String("name"), cmd.String("config"))
		if err != nil {
			return err
		}
		if err := os.WriteFile(sessionFile, []byte(client.SessionID()), 0o644); err != nil {
			logger.Warn("failed to save session ID", zap.Error(err))
		}
	}
	logger.Info("playing session",
		zap.String("session", client.SessionID()),
		zap.String("location", state.CurrentLocation),
		zap.Int("shards", state.CountShards))

	airports, err := client.Airports(ctx)
	if err != nil {
		return err
	}
	strategy := NewTourStrategy(HomeOf(airports, state.CurrentLocation), airports)

	result, err := Play(ctx, client, strategy, state, PlayOptions{
		MaxTravels: cmd.Int("max-travels"),
		Reserve:    cmd.Int("reserve"),
		Delay:      cmd.Duration("delay"),
	}, logger)
	if err != nil {
		return err
	}

	fields := []zap.Field{
		zap.String("session", client.SessionID()),
		zap.Int("travels", result.Travels),
		zap.Int("shards", result.State.CountShards),
		zap.Int("credits", result.State.Credits),
	}
	switch {
	case result.Win:
		logger.Info("victory", fields...)
		_ = os.Remove(sessionFile)
		return nil
	case result.Lose:
		logger.Info("game lost", fields...)
		_ = os.Remove(sessionFile)
		return cli.Exit("", 1)
	default:
		logger.Info("stopped without a result", fields...)
		return cli.Exit("", 1)
	}
}
