package main

import (
	"sort"

	"github.com/wricardo/mcp-training/chronoshards/game/engine"
)

// Strategy picks the next destination for a state. An empty string means
// no move is available.
type Strategy interface {
	Next(state *engine.GameState) string
}

// HomeOf returns the airport the catalog measures distances from, or
// fallback when no record is at distance zero
func HomeOf(airports []Airport, fallback string) string {
	for _, airport := range airports {
		if airport.Distance == 0 {
			return airport.ICAO
		}
	}
	return fallback
}

// TourStrategy tours the catalog nearest-first and heads home once every
// shard is held
type TourStrategy struct {
	home  string
	route []string
	next  int
}

// NewTourStrategy orders the non-home airports by distance from home
func NewTourStrategy(home string, airports []Airport) *TourStrategy {
	route := make([]Airport, 0, len(airports))
	for _, airport := range airports {
		if airport.ICAO != home {
			route = append(route, airport)
		}
	}
	sort.SliceStable(route, func(i, j int) bool { return route[i].Distance < route[j].Distance })

	s := &TourStrategy{home: home, route: make([]string, len(route))}
	for i, airport := range route {
		s.route[i] = airport.ICAO
	}
	return s
}

func (s *TourStrategy) Next(state *engine.GameState) string {
	if state.CountShards >= engine.ShardCount {
		return s.home
	}
	if len(s.route) == 0 {
		return ""
	}

	for range s.route {
		target := s.route[s.next]
		s.next = (s.next + 1) % len(s.route)
		if target != state.CurrentLocation {
			return target
		}
	}
	return ""
}

// Reset starts the tour over
func (s *TourStrategy) Reset() {
	s.next = 0
}
