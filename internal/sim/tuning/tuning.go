package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Tuning struct {
	ProtocolVersion string `yaml:"protocol_version"`

	StackingLimit  int   `yaml:"stacking_limit"`
	WaterDepthCost []int `yaml:"water_depth_cost"`

	TurnCost      int `yaml:"turn_cost"`
	ClimbCost     int `yaml:"climb_cost"`
	GetUpCost     int `yaml:"get_up_cost"`
	GoProneCost   int `yaml:"go_prone_cost"`
	HullDownCost  int `yaml:"hull_down_cost"`
	DigInCost     int `yaml:"dig_in_cost"`
	FortifyCost   int `yaml:"fortify_cost"`
	LayMineCost   int `yaml:"lay_mine_cost"`
	ClearMineCost int `yaml:"clear_minefield_cost"`
	LoadCost      int `yaml:"load_cost"`

	Aero AeroTuning `yaml:"aero"`
}

type AeroTuning struct {
	TurnThrust    int `yaml:"turn_thrust"`
	YawThrust     int `yaml:"yaw_thrust"`
	RollThrust    int `yaml:"roll_thrust"`
	EvadeThrust   int `yaml:"evade_thrust"`
	HoverThrust   int `yaml:"hover_thrust"`
	FuelPerThrust int `yaml:"fuel_per_thrust"`
	StallVelocity int `yaml:"stall_velocity"`
}

func Defaults() Tuning {
	return Tuning{
		ProtocolVersion: "1.0",
		StackingLimit:   1,
		WaterDepthCost:  []int{0, 1, 3},
		TurnCost:        1,
		ClimbCost:       1,
		GetUpCost:       2,
		GoProneCost:     1,
		HullDownCost:    2,
		DigInCost:       0,
		FortifyCost:     0,
		LayMineCost:     0,
		ClearMineCost:   0,
		LoadCost:        1,
		Aero: AeroTuning{
			TurnThrust:    1,
			YawThrust:     2,
			RollThrust:    1,
			EvadeThrust:   2,
			HoverThrust:   2,
			FuelPerThrust: 1,
			StallVelocity: 0,
		},
	}
}

func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

func (t Tuning) Validate() error {
	if t.StackingLimit < 1 {
		return fmt.Errorf("stacking_limit must be >= 1")
	}
	if len(t.WaterDepthCost) == 0 {
		return fmt.Errorf("water_depth_cost must not be empty")
	}
	if t.Aero.FuelPerThrust < 0 {
		return fmt.Errorf("aero.fuel_per_thrust must be >= 0")
	}
	return nil
}

// WaterCost returns the extra MP for wading into water of the given depth.
// Depths past the table reuse the last entry.
func (t Tuning) WaterCost(depth int) int {
	if depth <= 0 || len(t.WaterDepthCost) == 0 {
		return 0
	}
	if depth >= len(t.WaterDepthCost) {
		return t.WaterDepthCost[len(t.WaterDepthCost)-1]
	}
	return t.WaterDepthCost[depth]
}

// Digest identifies the effective tuning so client and authority can compare rule sets.
func (t Tuning) Digest() string {
	b, _ := yaml.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
