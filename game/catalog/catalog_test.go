package catalog

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	c, err := Default("EFHK")
	require.NoError(t, err)

	assert.Equal(t, 11, c.Len())
	assert.Equal(t, "EFHK", c.Home())
	for _, icao := range []string{"EFHK", "EDDS", "EVRA", "ENZV", "EHAM", "EBBR", "LIPE", "LIRN", "ENGM", "ENTC", "LPFR"} {
		assert.True(t, c.Has(icao), icao)
	}
	assert.False(t, c.Has("efhk"), "lookups are exact")
	assert.False(t, c.Has("ZZZZ"))

	airport, ok := c.Lookup("EVRA")
	require.True(t, ok)
	assert.Equal(t, "Latvia", airport.Country)
	assert.True(t, airport.HasCoords)
}

func TestDefault_Distances(t *testing.T) {
	c, err := Default("EFHK")
	require.NoError(t, err)

	var records []map[string]any
	require.NoError(t, json.Unmarshal(c.JSON(), &records))
	require.Len(t, records, 11)

	byICAO := make(map[string]map[string]any)
	for _, r := range records {
		byICAO[r["ICAO"].(string)] = r
	}
	assert.Equal(t, float64(0), byICAO["EFHK"]["distance"])
	riga := byICAO["EVRA"]["distance"].(float64)
	assert.InDelta(t, 382, riga, 15)

	km, ok := c.Distance("EFHK", "EVRA")
	require.True(t, ok)
	assert.InDelta(t, riga, km, 1)

	_, ok = c.Distance("EFHK", "NOPE")
	assert.False(t, ok)
}

func TestLoad_PassesRecordsThrough(t *testing.T) {
	data := []byte(`[
		{"ICAO": "EFHK", "name": "Helsinki", "distance": 0, "runways": 3},
		{"ICAO": "EDDS", "name": "Stuttgart", "country": "Germany", "distance": 1520}
	]`)

	c, err := Load(data, "EFHK")
	require.NoError(t, err)

	assert.JSONEq(t, `[
		{"ICAO": "EFHK", "name": "Helsinki", "distance": 0, "runways": 3},
		{"ICAO": "EDDS", "name": "Stuttgart", "country": "Germany", "distance": 1520}
	]`, string(c.JSON()))

	airports := c.All()
	require.Len(t, airports, 2)
	assert.Equal(t, "EDDS", airports[1].ICAO)
	assert.False(t, airports[1].HasCoords)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name string
		data string
		home string
		want error
	}{
		{name: "not json", data: `{`, home: "EFHK"},
		{name: "empty", data: `[]`, home: "EFHK", want: ErrEmptyCatalog},
		{name: "short code", data: `[{"ICAO": "EFH"}]`, home: "EFHK"},
		{name: "digits", data: `[{"ICAO": "EF1K"}]`, home: "EFHK"},
		{name: "duplicate ignoring case", data: `[{"ICAO": "EFHK"}, {"ICAO": "efhk"}]`, home: "EFHK"},
		{name: "home missing", data: `[{"ICAO": "EDDS"}]`, home: "EFHK", want: ErrHomeMissing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.data), tt.home)
			require.Error(t, err)
			if tt.want != nil {
				assert.True(t, errors.Is(err, tt.want), "got %v", err)
			}
		})
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "airports.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"ICAO": "EHAM", "name": "Schiphol"}]`), 0644))

	c, err := LoadFile(path, "EHAM")
	require.NoError(t, err)
	assert.True(t, c.Has("EHAM"))

	_, err = LoadFile(filepath.Join(dir, "missing.json"), "EHAM")
	assert.Error(t, err)
}
