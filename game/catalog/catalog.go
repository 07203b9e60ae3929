package catalog

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

//go:embed data/airports.json
var defaultAirportsJSON []byte

const earthRadiusKm = 6371.0

var (
	// ErrEmptyCatalog is returned when an airport file holds no records
	ErrEmptyCatalog = errors.New("airport catalog is empty")
	// ErrHomeMissing is returned when the home airport is not in the catalog
	ErrHomeMissing = errors.New("home airport not in catalog")
)

// Airport is one catalog record. Only the identifier and a few descriptive
// fields are parsed; the record is served exactly as it was loaded, plus a
// computed distance when the source had none.
type Airport struct {
	ICAO      string
	Name      string
	Country   string
	Latitude  float64
	Longitude float64
	HasCoords bool

	raw json.RawMessage
}

type airportJSON struct {
	ICAO      string   `json:"ICAO"`
	Name      string   `json:"name"`
	Country   string   `json:"country"`
	Latitude  *float64 `json:"latitude_deg"`
	Longitude *float64 `json:"longitude_deg"`
}

// UnmarshalJSON parses the known fields and keeps the raw record
func (a *Airport) UnmarshalJSON(data []byte) error {
	var in airportJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*a = Airport{
		ICAO:    in.ICAO,
		Name:    in.Name,
		Country: in.Country,
		raw:     append(json.RawMessage(nil), data...),
	}
	if in.Latitude != nil && in.Longitude != nil {
		a.Latitude, a.Longitude, a.HasCoords = *in.Latitude, *in.Longitude, true
	}
	return nil
}

// MarshalJSON writes the record as loaded
func (a Airport) MarshalJSON() ([]byte, error) {
	if len(a.raw) == 0 {
		return json.Marshal(map[string]any{"ICAO": a.ICAO, "name": a.Name, "country": a.Country})
	}
	return a.raw, nil
}

// Catalog is the immutable set of airports a player can travel to. It is
// safe for concurrent use.
type Catalog struct {
	airports []Airport
	byICAO   map[string]int
	home     string
	encoded  []byte
}

// Default returns the embedded European airport set
func Default(home string) (*Catalog, error) {
	return Load(defaultAirportsJSON, home)
}

// LoadFile reads a JSON array of airport records from filename
func LoadFile(filename, home string) (*Catalog, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read airports file %s: %w", filename, err)
	}
	return Load(data, home)
}

// Load parses a JSON array of airport records. Every record needs a four
// letter ICAO code, codes must be unique ignoring case and home must be
// present.
func Load(data []byte, home string) (*Catalog, error) {
	var airports []Airport
	if err := json.Unmarshal(data, &airports); err != nil {
		return nil, fmt.Errorf("failed to parse airports: %w", err)
	}
	if len(airports) == 0 {
		return nil, ErrEmptyCatalog
	}

	c := &Catalog{
		airports: airports,
		byICAO:   make(map[string]int, len(airports)),
		home:     home,
	}
	seen := make(map[string]string, len(airports))
	for i, airport := range airports {
		if !engine.IsICAO(airport.ICAO) {
			return nil, fmt.Errorf("airport %d: invalid ICAO %q", i, airport.ICAO)
		}
		key := strings.ToUpper(airport.ICAO)
		if prev, ok := seen[key]; ok {
			return nil, fmt.Errorf("airport %d: duplicate ICAO %q (already have %q)", i, airport.ICAO, prev)
		}
		seen[key] = airport.ICAO
		c.byICAO[airport.ICAO] = i
	}

	homeIndex, ok := c.byICAO[home]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrHomeMissing, home)
	}
	if err := c.fillDistances(airports[homeIndex]); err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(c.airports)
	if err != nil {
		return nil, fmt.Errorf("failed to encode airports: %w", err)
	}
	c.encoded = encoded
	return c, nil
}

// fillDistances adds a "distance" key (km from home, rounded) to records
// that have coordinates but no distance of their own
func (c *Catalog) fillDistances(home Airport) error {
	if !home.HasCoords {
		return nil
	}
	for i := range c.airports {
		airport := &c.airports[i]
		if !airport.HasCoords {
			continue
		}
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(airport.raw, &fields); err != nil {
			return fmt.Errorf("airport %s: %w", airport.ICAO, err)
		}
		if _, ok := fields["distance"]; ok {
			continue
		}
		km := math.Round(haversine(home.Latitude, home.Longitude, airport.Latitude, airport.Longitude))
		fields["distance"] = json.RawMessage(fmt.Sprintf("%d", int(km)))
		raw, err := json.Marshal(fields)
		if err != nil {
			return fmt.Errorf("airport %s: %w", airport.ICAO, err)
		}
		airport.raw = raw
	}
	return nil
}

// All returns a copy of the airport list in load order
func (c *Catalog) All() []Airport {
	out := make([]Airport, len(c.airports))
	copy(out, c.airports)
	return out
}

// Len returns the number of airports
func (c *Catalog) Len() int {
	return len(c.airports)
}

// Home returns the home airport identifier
func (c *Catalog) Home() string {
	return c.home
}

// Lookup finds an airport by its exact ICAO code
func (c *Catalog) Lookup(icao string) (Airport, bool) {
	i, ok := c.byICAO[icao]
	if !ok {
		return Airport{}, false
	}
	return c.airports[i], true
}

// Has reports whether icao is a known destination. The match is exact.
func (c *Catalog) Has(icao string) bool {
	_, ok := c.byICAO[icao]
	return ok
}

// JSON returns the encoded airport array
func (c *Catalog) JSON() []byte {
	return c.encoded
}

// Distance returns the great-circle distance in km between two airports
func (c *Catalog) Distance(from, to string) (float64, bool) {
	a, ok := c.Lookup(from)
	if !ok || !a.HasCoords {
		return 0, false
	}
	b, ok := c.Lookup(to)
	if !ok || !b.HasCoords {
		return 0, false
	}
	return haversine(a.Latitude, a.Longitude, b.Latitude, b.Longitude), true
}

func haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	return earthRadiusKm * 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
