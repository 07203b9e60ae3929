package config

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePreset(t *testing.T, dir, name, body string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0644))
}

func TestNewManager_MissingDirUsesBuiltin(t *testing.T) {
	m, err := NewManager(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)

	assert.Equal(t, "", m.Dir())
	assert.Equal(t, "classic", m.GetDefault().Name)

	configs, err := m.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 1)
	assert.Equal(t, "classic", configs[0].ConfigID)
	assert.Equal(t, "", configs[0].Filename)

	_, err = m.LoadConfig("hard")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestNewManager_FileNotDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0644))

	_, err := NewManager(path)
	assert.Error(t, err)
}

func TestManager_LoadConfig(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "classic.json", `{"name":"classic","starting_credits":900}`)
	writePreset(t, dir, "hard.json", `{"name":"hard","bandit_chance":0.25,"strict_merge":true}`)
	writePreset(t, dir, "broken.json", `{"name":"broken","shard_chance":7}`)
	writePreset(t, dir, "garbage.json", `{`)

	m, err := NewManager(dir)
	require.NoError(t, err)
	assert.Equal(t, 900, m.GetDefault().StartingCredits)

	hard, err := m.LoadConfig("hard")
	require.NoError(t, err)
	assert.Equal(t, 0.25, hard.BanditChance)
	assert.True(t, hard.StrictMerge)

	again, err := m.LoadConfig("hard.json")
	require.NoError(t, err)
	assert.Same(t, hard, again, "presets are cached")

	_, err = m.LoadConfig("broken")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = m.LoadConfig("garbage")
	assert.ErrorIs(t, err, ErrInvalidConfig)
	_, err = m.LoadConfig("missing")
	assert.ErrorIs(t, err, ErrConfigNotFound)
	_, err = m.LoadConfig("../hard")
	assert.ErrorIs(t, err, ErrConfigNotFound)
}

func TestManager_ListConfigs(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "hard.json", `{"name":"hard","description":"tough","starting_credits":400}`)
	writePreset(t, dir, "broken.json", `{"name":""}`)
	writePreset(t, dir, "notes.txt", `ignore me`)
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub.json"), 0755))

	m, err := NewManager(dir)
	require.NoError(t, err)

	configs, err := m.ListConfigs()
	require.NoError(t, err)
	require.Len(t, configs, 2)

	assert.Equal(t, "classic", configs[0].ConfigID)
	assert.Equal(t, "", configs[0].Filename, "classic falls back to the built-in rules")
	assert.Equal(t, "hard", configs[1].ConfigID)
	assert.Equal(t, "hard.json", configs[1].Filename)
	assert.Equal(t, "tough", configs[1].Description)
	assert.Equal(t, 400, configs[1].StartingCredits)
}

func TestManager_SetDefault(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "hard.json", `{"name":"hard"}`)

	m, err := NewManager(dir)
	require.NoError(t, err)

	require.NoError(t, m.SetDefault("hard"))
	assert.Equal(t, "hard", m.GetDefault().Name)

	assert.Error(t, m.SetDefault("missing"))
	assert.Equal(t, "hard", m.GetDefault().Name)
}

func TestManager_ConcurrentLoads(t *testing.T) {
	dir := t.TempDir()
	writePreset(t, dir, "hard.json", `{"name":"hard"}`)

	m, err := NewManager(dir)
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.LoadConfig("hard"); err != nil {
				errs <- err
			}
		}()
	}
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Errorf("concurrent load failed: %v", err)
	}
}

func TestLoadSettings(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("SESSION_TTL", "2h")
	t.Setenv("NGROK_ENABLED", "true")

	s, err := LoadSettings()
	require.NoError(t, err)
	assert.Equal(t, 9090, s.Port)
	assert.Equal(t, 5000, s.StartPort)
	assert.Equal(t, 5001, s.MainPort)
	assert.Equal(t, 2*time.Hour, s.SessionTTL)
	assert.True(t, s.NgrokEnabled)
	assert.Equal(t, "*", s.AllowedOrigin)
	assert.Equal(t, "classic", s.DefaultConfig)

	t.Setenv("PORT", "not-a-port")
	_, err = LoadSettings()
	require.Error(t, err)
	assert.False(t, errors.Is(err, ErrConfigNotFound))
}
