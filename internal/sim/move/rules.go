package move

import (
	"fmt"

	"hexmove.ai/internal/sim/catalogs"
	"hexmove.ai/internal/sim/tuning"
	"hexmove.ai/internal/sim/unit"
)

type WaterMode int

const (
	WaterNone WaterMode = iota
	WaterShallow
	WaterWade
	WaterSurface
	WaterRequired
	WaterIgnore
)

var waterModes = map[string]WaterMode{
	"NONE":     WaterNone,
	"SHALLOW":  WaterShallow,
	"WADE":     WaterWade,
	"SURFACE":  WaterSurface,
	"REQUIRED": WaterRequired,
	"IGNORE":   WaterIgnore,
}

// Capability is the compiled capability row of one locomotion class.
type Capability struct {
	Steps       [numKinds]bool
	Water       WaterMode
	MaxClimb    int
	Flies       bool
	CanJump     bool
	TerrainCost map[string]int
}

// Rules is the compiled, enum-keyed rule set shared by client and authority.
type Rules struct {
	Tuning tuning.Tuning

	caps      map[unit.Class]Capability
	terrain   map[string]catalogs.TerrainDef
	maneuvers map[int]catalogs.ManeuverDef
	digest    string
}

func NewRules(cats *catalogs.Catalogs, tu tuning.Tuning) (*Rules, error) {
	r := &Rules{
		Tuning:    tu,
		caps:      make(map[unit.Class]Capability, len(cats.Locomotion.ByClass)),
		terrain:   cats.Terrain.ByID,
		maneuvers: cats.Maneuvers.ByID,
		digest:    cats.Digest() + ":" + tu.Digest(),
	}
	for name, def := range cats.Locomotion.ByClass {
		cls, err := unit.ParseClass(name)
		if err != nil {
			return nil, fmt.Errorf("locomotion: %w", err)
		}
		c := Capability{
			Water:       waterModes[def.Water],
			MaxClimb:    def.MaxClimb,
			Flies:       def.Flies,
			CanJump:     def.CanJump,
			TerrainCost: def.TerrainCost,
		}
		for _, s := range def.Steps {
			k, err := ParseKind(s)
			if err != nil {
				return nil, fmt.Errorf("locomotion %s: %w", name, err)
			}
			c.Steps[k] = true
		}
		r.caps[cls] = c
	}
	return r, nil
}

// DefaultRules compiles the embedded catalogs with default tuning.
func DefaultRules() *Rules {
	r, err := NewRules(catalogs.Default(), tuning.Defaults())
	if err != nil {
		panic(err)
	}
	return r
}

// Digest identifies the rule set; a client and authority with different
// digests cannot be expected to agree on a path.
func (r *Rules) Digest() string { return r.digest }

func (r *Rules) Capability(c unit.Class) Capability { return r.caps[c] }

func (r *Rules) Allows(c unit.Class, k StepKind) bool {
	if !k.Valid() {
		return false
	}
	return r.caps[c].Steps[k]
}

func (r *Rules) Maneuver(id int) (catalogs.ManeuverDef, bool) {
	m, ok := r.maneuvers[id]
	return m, ok
}

// terrainCost returns the extra MP to enter terrain for class c; -1 is impassable.
func (r *Rules) terrainCost(c unit.Class, terrain string) int {
	if v, ok := r.caps[c].TerrainCost[terrain]; ok {
		return v
	}
	if d, ok := r.terrain[terrain]; ok {
		return d.Cost
	}
	return 0
}

func (r *Rules) hazardous(h HexInfo) bool {
	if h.Hazard || h.Minefield {
		return true
	}
	return r.terrain[h.Terrain].Hazard
}

func (r *Rules) water(h HexInfo) bool {
	return r.terrain[h.Terrain].Water && h.Depth > 0
}
