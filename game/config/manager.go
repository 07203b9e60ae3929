package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
	"github.com/wricardo/mcp-training/chronoshards/game/service"
)

var (
	ErrConfigNotFound = service.ErrConfigNotFound
	ErrInvalidConfig  = errors.New("invalid configuration")
)

// builtinID names the rule set that is always available, even without a
// config directory
const builtinID = "classic"

// Manager handles rule preset loading and caching
type Manager struct {
	configDir    string
	defaultRules *engine.Rules
	configs      map[string]*engine.Rules
	mu           sync.RWMutex
}

// NewManager creates a new configuration manager. A missing config directory
// is not an error: only the built-in classic rules are offered then.
func NewManager(configDir string) (*Manager, error) {
	if configDir != "" {
		info, err := os.Stat(configDir)
		switch {
		case os.IsNotExist(err):
			configDir = ""
		case err != nil:
			return nil, fmt.Errorf("failed to stat config directory: %w", err)
		case !info.IsDir():
			return nil, fmt.Errorf("config path is not a directory: %s", configDir)
		}
	}

	m := &Manager{
		configDir: configDir,
		configs:   make(map[string]*engine.Rules),
	}

	if err := m.loadDefaultConfig(); err != nil {
		return nil, fmt.Errorf("failed to load default config: %w", err)
	}

	return m, nil
}

// Dir returns the directory presets are read from, empty when only the
// built-in rules are available
func (m *Manager) Dir() string {
	return m.configDir
}

// LoadConfig loads a rule preset by id (file name without .json)
func (m *Manager) LoadConfig(name string) (*engine.Rules, error) {
	name = strings.TrimSuffix(name, ".json")
	if name == "" || strings.ContainsAny(name, `/\`) {
		return nil, ErrConfigNotFound
	}

	m.mu.RLock()
	if rules, exists := m.configs[name]; exists {
		m.mu.RUnlock()
		return rules, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring write lock
	if rules, exists := m.configs[name]; exists {
		return rules, nil
	}

	if m.configDir == "" {
		if name == builtinID {
			rules := engine.DefaultRules()
			m.configs[name] = rules
			return rules, nil
		}
		return nil, ErrConfigNotFound
	}

	rules, err := engine.LoadRules(filepath.Join(m.configDir, name+".json"))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			if name == builtinID {
				rules = engine.DefaultRules()
				m.configs[name] = rules
				return rules, nil
			}
			return nil, ErrConfigNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	m.configs[name] = rules
	return rules, nil
}

// ListConfigs returns information about all available presets, sorted by id
func (m *Manager) ListConfigs() ([]*service.ConfigInfo, error) {
	ids := map[string]string{builtinID: ""}

	if m.configDir != "" {
		entries, err := os.ReadDir(m.configDir)
		if err != nil {
			return nil, fmt.Errorf("failed to read config directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			ids[strings.TrimSuffix(entry.Name(), ".json")] = entry.Name()
		}
	}

	configs := make([]*service.ConfigInfo, 0, len(ids))
	for id, filename := range ids {
		rules, err := m.LoadConfig(id)
		if err != nil {
			// Skip invalid presets
			continue
		}
		configs = append(configs, &service.ConfigInfo{
			Filename:        filename,
			ConfigID:        id,
			Name:            rules.Name,
			Description:     rules.Description,
			HomeICAO:        rules.HomeICAO,
			StartingCredits: rules.StartingCredits,
			StartingEnergy:  rules.StartingEnergy,
			StrictMerge:     rules.StrictMerge,
		})
	}

	sort.Slice(configs, func(i, j int) bool { return configs[i].ConfigID < configs[j].ConfigID })
	return configs, nil
}

// GetDefault returns the default rule set
func (m *Manager) GetDefault() *engine.Rules {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.defaultRules
}

// SetDefault sets the default rule set by id
func (m *Manager) SetDefault(name string) error {
	rules, err := m.LoadConfig(name)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.defaultRules = rules
	return nil
}

// loadDefaultConfig makes classic the default, falling back to the built-in
// rules when the classic file is invalid
func (m *Manager) loadDefaultConfig() error {
	rules, err := m.LoadConfig(builtinID)
	if err != nil {
		if !errors.Is(err, ErrInvalidConfig) {
			return err
		}
		rules = engine.DefaultRules()
	}
	m.defaultRules = rules
	return nil
}
