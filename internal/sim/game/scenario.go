package game

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

type Scenario struct {
	Board    ScenarioBoard    `yaml:"board"`
	Entities []ScenarioEntity `yaml:"entities"`
}

type ScenarioBoard struct {
	Radius int           `yaml:"radius"`
	Hexes  []ScenarioHex `yaml:"hexes"`
}

type ScenarioHex struct {
	Q         int    `yaml:"q"`
	R         int    `yaml:"r"`
	Terrain   string `yaml:"terrain"`
	Level     int    `yaml:"level"`
	Depth     int    `yaml:"depth"`
	Minefield bool   `yaml:"minefield"`
	Hazard    bool   `yaml:"hazard"`
	Building  string `yaml:"building"`
	CF        int    `yaml:"cf"`
}

type ScenarioEntity struct {
	ID        string       `yaml:"id"`
	Owner     string       `yaml:"owner"`
	Profile   unit.Profile `yaml:"profile"`
	Status    []string     `yaml:"status"`
	Q         int          `yaml:"q"`
	R         int          `yaml:"r"`
	Facing    hex.Facing   `yaml:"facing"`
	Elevation int          `yaml:"elevation"`
	Velocity  int          `yaml:"velocity"`
	Vectors   []int        `yaml:"vectors"`
	Fuel      int          `yaml:"fuel"`
	Airborne  bool         `yaml:"airborne"`
	InSpace   bool         `yaml:"in_space"`
}

func LoadScenario(path string) (*State, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var sc Scenario
	if err := yaml.Unmarshal(raw, &sc); err != nil {
		return nil, fmt.Errorf("scenario: %w", err)
	}
	return sc.Build()
}

// Build validates the scenario and returns the game state it describes.
func (sc Scenario) Build() (*State, error) {
	if sc.Board.Radius <= 0 {
		return nil, fmt.Errorf("scenario: board.radius must be > 0")
	}
	s := New(sc.Board.Radius)
	for _, h := range sc.Board.Hexes {
		p := hex.Pos{Q: h.Q, R: h.R}
		if !s.InBounds(p) {
			return nil, fmt.Errorf("scenario: hex %s off board", p)
		}
		gh := Hex{Terrain: h.Terrain, Level: h.Level, Depth: h.Depth, Minefield: h.Minefield, Hazard: h.Hazard}
		if h.Building != "" {
			gh.Building = &move.Building{ID: h.Building, CF: h.CF}
		}
		s.SetHex(p, gh)
	}
	for _, se := range sc.Entities {
		st, err := unit.ParseStatus(se.Status)
		if err != nil {
			return nil, fmt.Errorf("scenario: entity %s: %w", se.ID, err)
		}
		if len(se.Vectors) > 6 {
			return nil, fmt.Errorf("scenario: entity %s: vectors has %d entries", se.ID, len(se.Vectors))
		}
		e := &unit.Entity{ID: se.ID, Owner: se.Owner, Profile: se.Profile}
		e.Profile.Status = st
		e.State = unit.State{
			Pos:       hex.Pos{Q: se.Q, R: se.R},
			Facing:    se.Facing,
			Elevation: se.Elevation,
			Velocity:  se.Velocity,
			Fuel:      se.Fuel,
			Airborne:  se.Airborne,
			InSpace:   se.InSpace,
		}
		copy(e.State.Vectors[:], se.Vectors)
		if err := s.AddEntity(e); err != nil {
			return nil, fmt.Errorf("scenario: %w", err)
		}
	}
	return s, nil
}
