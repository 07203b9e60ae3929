package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Settings is the process configuration read from the environment. The CLI
// uses these values as flag defaults.
type Settings struct {
	Host          string        `env:"HOST"            envDefault:"0.0.0.0"`
	Port          int           `env:"PORT"            envDefault:"8080"`
	StartPort     int           `env:"START_PORT"      envDefault:"5000"`
	MainPort      int           `env:"MAIN_PORT"       envDefault:"5001"`
	ConfigDir     string        `env:"CONFIG_DIR"      envDefault:"configs"`
	DefaultConfig string        `env:"DEFAULT_CONFIG"  envDefault:"classic"`
	AirportsFile  string        `env:"AIRPORTS_FILE"`
	StaticDir     string        `env:"STATIC_DIR"      envDefault:"static"`
	AllowedOrigin string        `env:"ALLOWED_ORIGIN"  envDefault:"*"`
	SessionTTL    time.Duration `env:"SESSION_TTL"     envDefault:"24h"`
	Debug         bool          `env:"DEBUG"`

	NgrokEnabled   bool   `env:"NGROK_ENABLED"`
	NgrokAuthToken string `env:"NGROK_AUTHTOKEN"`
	NgrokDomain    string `env:"NGROK_DOMAIN"`
}

// LoadSettings parses Settings from the environment
func LoadSettings() (Settings, error) {
	var s Settings
	if err := env.Parse(&s); err != nil {
		return Settings{}, fmt.Errorf("parse env: %w", err)
	}
	return s, nil
}
