package move

import (
	"hexmove.ai/internal/sim/hex"
)

type MoveType string

const (
	MoveNone       MoveType = "NONE"
	MoveWalk       MoveType = "WALK"
	MoveRun        MoveType = "RUN"
	MoveBoost      MoveType = "BOOST"
	MoveJump       MoveType = "JUMP"
	MoveSwim       MoveType = "SWIM"
	MoveSafeThrust MoveType = "SAFE_THRUST"
	MoveOverThrust MoveType = "OVER_THRUST"
)

// Reason explains why a step is not legal. The empty reason means legal.
type Reason string

const (
	ReasonNone           Reason = ""
	ReasonOverBudget     Reason = "OVER_BUDGET"
	ReasonImpassable     Reason = "IMPASSABLE"
	ReasonWater          Reason = "WATER"
	ReasonTooSteep       Reason = "TOO_STEEP"
	ReasonStacking       Reason = "STACKING"
	ReasonOffBoard       Reason = "OFF_BOARD"
	ReasonNotCapable     Reason = "NOT_CAPABLE"
	ReasonProne          Reason = "PRONE"
	ReasonStuck          Reason = "STUCK"
	ReasonImmobile       Reason = "IMMOBILE"
	ReasonOutOfControl   Reason = "OUT_OF_CONTROL"
	ReasonBackwardAttack Reason = "BACKWARD_ATTACK"
	ReasonAfterTerminal  Reason = "AFTER_TERMINAL"
	ReasonNoFuel         Reason = "NO_FUEL"
	ReasonNoJump         Reason = "NO_JUMP"
	ReasonNotJumping     Reason = "NOT_JUMPING"
	ReasonJumping        Reason = "JUMPING"
	ReasonJumpAfterMove  Reason = "JUMP_AFTER_MOVE"
	ReasonVelocity       Reason = "VELOCITY"
	ReasonThrustLate     Reason = "THRUST_AFTER_MOVE"
	ReasonBadPayload     Reason = "BAD_PAYLOAD"
	ReasonNotAtEdge      Reason = "NOT_AT_EDGE"
	ReasonNoMinefield    Reason = "NO_MINEFIELD"
	ReasonElevation      Reason = "ELEVATION"
	ReasonState          Reason = "STATE"
	ReasonRepeat         Reason = "REPEAT"
	ReasonNoTarget       Reason = "NO_TARGET"
)

// Danger is a confirmation gate: the step is legal but needs the player to
// acknowledge the risk before commit.
type Danger string

const (
	DangerBoostedRun Danger = "BOOSTED_RUN"
	DangerHazard     Danger = "HAZARDOUS_TERRAIN"
	DangerHighG      Danger = "HIGH_G"
)

// Step is one atomic action plus the state it produces.
type Step struct {
	Kind    StepKind
	Payload Payload

	Pos       hex.Pos
	Facing    hex.Facing
	Elevation int

	MPCost       int
	CumulativeMP int
	MoveType     MoveType
	Legal        bool
	Reason       Reason
	Dangers      []Danger

	Hexes        int
	Fuel         int
	Velocity     int
	NextVelocity int
	Vectors      hex.Vectors
	AccelUsed    int
	DecelUsed    int

	Prone    bool
	HullDown bool
	Jumping  bool
	Airborne bool
	OffBoard bool
	Evading  bool
	Rolled   bool

	level      int
	backwards  bool
	terminal   bool
	maneuvered bool
	stuck      bool
	// route is the line a vector craft must fly, fixed at its first
	// translation.
	route      []hex.LineHex
	baseLegal  bool
	baseReason Reason
}

// Command returns the replayable part of the step.
func (s *Step) Command() Command {
	return Command{Kind: s.Kind, Payload: s.Payload.clone()}
}

// SameOutcome reports whether two steps recorded the same resulting state.
func (s *Step) SameOutcome(o *Step) bool {
	return s.Kind == o.Kind &&
		s.Pos == o.Pos &&
		s.Facing == o.Facing &&
		s.Elevation == o.Elevation &&
		s.MPCost == o.MPCost &&
		s.CumulativeMP == o.CumulativeMP &&
		s.Legal == o.Legal &&
		s.Reason == o.Reason &&
		s.Velocity == o.Velocity &&
		s.Vectors == o.Vectors &&
		s.Fuel == o.Fuel
}
