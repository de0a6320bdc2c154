// Package unit describes what a unit can do (Profile) and where it is (State).
package unit

import (
	"fmt"
	"strings"

	"hexmove.ai/internal/sim/hex"
)

// Class is the locomotion class. Capability lookups are keyed by it.
type Class int

const (
	ClassUnknown Class = iota
	Biped
	Quad
	Tracked
	Wheeled
	Hover
	VTOL
	Naval
	Submarine
	Infantry
	AeroAtmospheric
	AeroSpheroid
	AeroSpace
)

var classNames = map[Class]string{
	Biped:           "BIPED",
	Quad:            "QUAD",
	Tracked:         "TRACKED",
	Wheeled:         "WHEELED",
	Hover:           "HOVER",
	VTOL:            "VTOL",
	Naval:           "NAVAL",
	Submarine:       "SUBMARINE",
	Infantry:        "INFANTRY",
	AeroAtmospheric: "AERO_ATMOSPHERIC",
	AeroSpheroid:    "AERO_SPHEROID",
	AeroSpace:       "AERO_SPACE",
}

// Classes lists every known class in declaration order.
func Classes() []Class {
	return []Class{Biped, Quad, Tracked, Wheeled, Hover, VTOL, Naval, Submarine, Infantry, AeroAtmospheric, AeroSpheroid, AeroSpace}
}

func (c Class) String() string {
	if s, ok := classNames[c]; ok {
		return s
	}
	return "UNKNOWN"
}

func ParseClass(s string) (Class, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for c, name := range classNames {
		if name == s {
			return c, nil
		}
	}
	return ClassUnknown, fmt.Errorf("unknown locomotion class %q", s)
}

func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Class) UnmarshalText(b []byte) error {
	v, err := ParseClass(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Aerospace reports whether the class moves by velocity and thrust.
func (c Class) Aerospace() bool {
	return c == AeroAtmospheric || c == AeroSpheroid || c == AeroSpace
}

// Mech reports whether the class is a legged mech.
func (c Class) Mech() bool { return c == Biped || c == Quad }

// Status flags.
type Status uint16

const (
	Prone Status = 1 << iota
	HullDown
	Immobile
	Stuck
	Shutdown
	PilotUnconscious
	OutOfControl
	CanUnstickByJump
)

var statusNames = []struct {
	s    Status
	name string
}{
	{Prone, "PRONE"},
	{HullDown, "HULL_DOWN"},
	{Immobile, "IMMOBILE"},
	{Stuck, "STUCK"},
	{Shutdown, "SHUTDOWN"},
	{PilotUnconscious, "PILOT_UNCONSCIOUS"},
	{OutOfControl, "OUT_OF_CONTROL"},
	{CanUnstickByJump, "CAN_UNSTICK_BY_JUMP"},
}

func (s Status) Has(f Status) bool { return s&f != 0 }

// Names lists the set flags in a fixed order.
func (s Status) Names() []string {
	var out []string
	for _, n := range statusNames {
		if s.Has(n.s) {
			out = append(out, n.name)
		}
	}
	return out
}

func ParseStatus(names []string) (Status, error) {
	var s Status
	for _, raw := range names {
		name := strings.ToUpper(strings.TrimSpace(raw))
		found := false
		for _, n := range statusNames {
			if n.name == name {
				s |= n.s
				found = true
				break
			}
		}
		if !found {
			return 0, fmt.Errorf("unknown status %q", raw)
		}
	}
	return s, nil
}

// Profile is the per-entity locomotion capability and budget.
type Profile struct {
	Class Class `yaml:"class" json:"class"`

	Walk  int `yaml:"walk" json:"walk"`
	Run   int `yaml:"run" json:"run"`
	Boost int `yaml:"boost" json:"boost,omitempty"` // MASC/supercharger sprint budget; 0 = none
	Jump  int `yaml:"jump" json:"jump,omitempty"`
	Swim  int `yaml:"swim" json:"swim,omitempty"`

	SafeThrust int `yaml:"safe_thrust" json:"safe_thrust,omitempty"`
	MaxThrust  int `yaml:"max_thrust" json:"max_thrust,omitempty"`

	Tonnage  int    `yaml:"tonnage" json:"tonnage"`
	Piloting int    `yaml:"piloting" json:"piloting"`
	Status   Status `yaml:"-" json:"status"`
}

// RunBudget is the highest non-boosted ground budget.
func (p Profile) RunBudget() int { return max(p.Walk, p.Run) }

// BoostBudget is the highest ground budget including boosted running.
func (p Profile) BoostBudget() int { return max(p.RunBudget(), p.Boost) }

// ThrustBudget is the highest aerospace thrust budget.
func (p Profile) ThrustBudget() int { return max(p.SafeThrust, p.MaxThrust) }

// State is the movement-relevant state of an entity at a point in time.
type State struct {
	Pos       hex.Pos    `json:"pos"`
	Facing    hex.Facing `json:"facing"`
	Elevation int        `json:"elevation"`

	Velocity     int         `json:"velocity,omitempty"`
	NextVelocity int         `json:"next_velocity,omitempty"`
	Vectors      hex.Vectors `json:"vectors,omitempty"`
	Fuel         int         `json:"fuel,omitempty"`
	AccelUsed    int         `json:"accel_used,omitempty"`
	DecelUsed    int         `json:"decel_used,omitempty"`
	Airborne     bool        `json:"airborne,omitempty"`
	InSpace      bool        `json:"in_space,omitempty"`
}

// Entity is a unit as the movement layer sees it.
type Entity struct {
	ID      string  `json:"id"`
	Owner   string  `json:"owner"`
	Profile Profile `json:"profile"`
	State   State   `json:"state"`
}

// InAtmosphere reports whether an aerospace unit is flying in atmosphere.
func (e *Entity) InAtmosphere() bool {
	return e.Profile.Class.Aerospace() && !e.State.InSpace
}

// CannotTurn reports whether rotation requests must be refused outright.
func (e *Entity) CannotTurn() bool {
	if e.Profile.Status.Has(OutOfControl) {
		return true
	}
	return e.Profile.Class == AeroSpheroid && e.InAtmosphere()
}

// Incapacitated reports a per-turn terminal condition that forces movement.
func (e *Entity) Incapacitated() bool {
	st := e.Profile.Status
	if st.Has(PilotUnconscious) || st.Has(OutOfControl) {
		return true
	}
	return e.Profile.Class.Aerospace() && e.State.Fuel <= 0
}
