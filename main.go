// Command chronoshards starts the ChronoShards game server.
//
// It supports three commands:
//  1. "serve" (default) runs one HTTP server with both game surfaces, the
//     WebSocket hub and an /mcp HTTP endpoint
//  2. "split" runs the start surface and the main surface on separate ports
//     in one process, sharing the same sessions
//  3. "mcp" runs an MCP stdio server and spins up an internal HTTP API if
//     none is available
//
// Every flag defaults to the matching environment variable (a .env file is
// loaded first), so the binary can be configured either way.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/wricardo/mcp-training/chronoshards/game/catalog"
	"github.com/wricardo/mcp-training/chronoshards/game/config"
	"github.com/wricardo/mcp-training/chronoshards/game/service"
	"github.com/wricardo/mcp-training/chronoshards/game/session"
)

// Version information
const (
	Version = "1.0.0"
	AppName = "ChronoShards Server"
)

func main() {
	// Missing .env is fine
	dotenvErr := godotenv.Load()

	settings, err := config.LoadSettings()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read environment: %v\n", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newCommand(settings)
	cmd.Before = func(ctx context.Context, cmd *cli.Command) (context.Context, error) {
		if dotenvErr != nil && !os.IsNotExist(dotenvErr) {
			fmt.Fprintf(os.Stderr, "Warning: Error loading .env file: %v\n", dotenvErr)
		}
		return ctx, nil
	}

	if err := cmd.Run(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

// newCommand builds the CLI. Flag defaults come from settings.
func newCommand(settings config.Settings) *cli.Command {
	return &cli.Command{
		Name:    "chronoshards",
		Usage:   AppName,
		Version: Version,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "host", Value: settings.Host, Usage: "HTTP server host"},
			&cli.IntFlag{Name: "port", Aliases: []string{"p"}, Value: settings.Port, Usage: "HTTP server port"},
			&cli.StringFlag{Name: "config-dir", Value: settings.ConfigDir, Usage: "Directory containing rule presets"},
			&cli.StringFlag{Name: "default-config", Value: settings.DefaultConfig, Usage: "Preset used when a game names none"},
			&cli.StringFlag{Name: "airports", Value: settings.AirportsFile, Usage: "Airport catalog JSON file (embedded set when empty)"},
			&cli.StringFlag{Name: "static-dir", Value: settings.StaticDir, Usage: "Directory with the browser pages"},
			&cli.StringFlag{Name: "allowed-origin", Value: settings.AllowedOrigin, Usage: "CORS allowed origin"},
			&cli.DurationFlag{Name: "session-ttl", Value: settings.SessionTTL, Usage: "Drop sessions idle for longer than this (0 keeps them)"},
			&cli.BoolFlag{Name: "debug", Value: settings.Debug, Usage: "Enable debug logging"},
		},
		Action: serveAction,
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "Run both surfaces, WebSocket and /mcp on one port",
				Flags:  ngrokFlags(settings),
				Action: serveAction,
			},
			{
				Name:  "split",
				Usage: "Run the start and main surfaces on separate ports",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "start-port", Value: settings.StartPort, Usage: "Start surface port"},
					&cli.IntFlag{Name: "main-port", Value: settings.MainPort, Usage: "Main surface port"},
				},
				Action: splitAction,
			},
			{
				Name:  "mcp",
				Usage: "Run an MCP stdio server",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-url", Usage: "Game API to proxy (probes --port on localhost, then starts one internally)"},
				},
				Action: mcpAction,
			},
		},
	}
}

func ngrokFlags(settings config.Settings) []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "ngrok", Value: settings.NgrokEnabled, Usage: "Enable ngrok tunnel"},
		&cli.StringFlag{Name: "ngrok-auth", Value: settings.NgrokAuthToken, Usage: "Ngrok auth token (or use NGROK_AUTHTOKEN env var)"},
		&cli.StringFlag{Name: "ngrok-domain", Value: settings.NgrokDomain, Usage: "Custom ngrok domain (optional)"},
	}
}

// options is the resolved flag set of one invocation
type options struct {
	Host          string
	Port          int
	StartPort     int
	MainPort      int
	ConfigDir     string
	DefaultConfig string
	AirportsFile  string
	StaticDir     string
	AllowedOrigin string
	SessionTTL    time.Duration
	Debug         bool

	NgrokEnabled   bool
	NgrokAuthToken string
	NgrokDomain    string

	APIURL string
}

func optionsFrom(cmd *cli.Command) options {
	opts := options{
		Host:           cmd.String("host"),
		Port:           cmd.Int("port"),
		StartPort:      cmd.Int("start-port"),
		MainPort:       cmd.Int("main-port"),
		ConfigDir:      cmd.String("config-dir"),
		DefaultConfig:  cmd.String("default-config"),
		AirportsFile:   cmd.String("airports"),
		StaticDir:      cmd.String("static-dir"),
		AllowedOrigin:  cmd.String("allowed-origin"),
		SessionTTL:     cmd.Duration("session-ttl"),
		Debug:          cmd.Bool("debug"),
		NgrokEnabled:   cmd.Bool("ngrok"),
		NgrokAuthToken: cmd.String("ngrok-auth"),
		NgrokDomain:    cmd.String("ngrok-domain"),
		APIURL:         cmd.String("api-url"),
	}
	if opts.NgrokAuthToken == "" {
		opts.NgrokAuthToken = os.Getenv("NGROK_AUTH_TOKEN")
	}
	return opts
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// app holds the services shared by every surface of one process
type app struct {
	opts     options
	logger   *zap.Logger
	airports *catalog.Catalog
	sessions *session.Manager
	service  service.GameService
}

// newApp wires the config manager, airport catalog, session manager and
// game service
func newApp(opts options, logger *zap.Logger) (*app, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	configManager, err := config.NewManager(opts.ConfigDir)
	if err != nil {
		return nil, fmt.Errorf("failed to create config manager: %w", err)
	}
	if opts.DefaultConfig != "" {
		if err := configManager.SetDefault(opts.DefaultConfig); err != nil {
			return nil, fmt.Errorf("failed to set default config %q: %w", opts.DefaultConfig, err)
		}
	}

	home := configManager.GetDefault().HomeICAO
	var airports *catalog.Catalog
	if opts.AirportsFile != "" {
		airports, err = catalog.LoadFile(opts.AirportsFile, home)
	} else {
		airports, err = catalog.Default(home)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load airports: %w", err)
	}

	sessions := session.NewManager(airports, session.WithLogger(logger.Named("session")))
	gameService := service.NewGameService(sessions, configManager, airports, logger.Named("service"))

	logger.Info("services initialized",
		zap.String("config_dir", configManager.Dir()),
		zap.String("default_config", configManager.GetDefault().Name),
		zap.String("home", airports.Home()),
		zap.Int("airports", airports.Len()),
	)

	return &app{
		opts:     opts,
		logger:   logger,
		airports: airports,
		sessions: sessions,
		service:  gameService,
	}, nil
}

// setup is shared by every command action
func setup(cmd *cli.Command) (*app, error) {
	opts := optionsFrom(cmd)
	logger, err := newLogger(opts.Debug)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	logger.Info("starting", zap.String("app", AppName), zap.String("version", Version), zap.String("command", cmd.Name))

	a, err := newApp(opts, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}
	return a, nil
}

// cleanupSessions removes sessions idle for longer than the TTL until ctx
// is done
func (a *app) cleanupSessions(ctx context.Context) {
	ttl := a.opts.SessionTTL
	if ttl <= 0 {
		return
	}
	interval := time.Hour
	if ttl < interval {
		interval = ttl
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := a.sessions.CleanupExpiredSessions(ttl); removed > 0 {
				a.logger.Info("cleaned up expired sessions", zap.Int("removed", removed))
			}
		}
	}
}
