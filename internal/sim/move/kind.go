package move

import (
	"fmt"
	"strings"
)

// StepKind is the closed set of atomic movement actions.
type StepKind int

const (
	KindInvalid StepKind = iota
	Forward
	Backwards
	TurnLeft
	TurnRight
	LateralLeft
	LateralRight
	LateralLeftBackwards
	LateralRightBackwards
	ClimbUp
	ClimbDown
	StartJump
	Land
	TakeOff
	GoProne
	GetUp
	HullDown
	Load
	Unload
	LayMine
	ClearMinefield
	Searchlight
	DigIn
	Fortify
	ShakeOff
	Eject
	Flee
	Accelerate
	Decelerate
	AccelerateNext
	DecelerateNext
	Roll
	Yaw
	Evade
	Hover
	Maneuver
	Launch
	Recover
	Join
	Ram
	Charge
	DFA
	OffBoard
	Stall

	numKinds
)

var kindNames = [numKinds]string{
	KindInvalid:           "INVALID",
	Forward:               "FORWARD",
	Backwards:             "BACKWARDS",
	TurnLeft:              "TURN_LEFT",
	TurnRight:             "TURN_RIGHT",
	LateralLeft:           "LATERAL_LEFT",
	LateralRight:          "LATERAL_RIGHT",
	LateralLeftBackwards:  "LATERAL_LEFT_BACKWARDS",
	LateralRightBackwards: "LATERAL_RIGHT_BACKWARDS",
	ClimbUp:               "CLIMB_UP",
	ClimbDown:             "CLIMB_DOWN",
	StartJump:             "START_JUMP",
	Land:                  "LAND",
	TakeOff:               "TAKE_OFF",
	GoProne:               "GO_PRONE",
	GetUp:                 "GET_UP",
	HullDown:              "HULL_DOWN",
	Load:                  "LOAD",
	Unload:                "UNLOAD",
	LayMine:               "LAY_MINE",
	ClearMinefield:        "CLEAR_MINEFIELD",
	Searchlight:           "SEARCHLIGHT",
	DigIn:                 "DIG_IN",
	Fortify:               "FORTIFY",
	ShakeOff:              "SHAKE_OFF",
	Eject:                 "EJECT",
	Flee:                  "FLEE",
	Accelerate:            "ACCELERATE",
	Decelerate:            "DECELERATE",
	AccelerateNext:        "ACCELERATE_NEXT",
	DecelerateNext:        "DECELERATE_NEXT",
	Roll:                  "ROLL",
	Yaw:                   "YAW",
	Evade:                 "EVADE",
	Hover:                 "HOVER",
	Maneuver:              "MANEUVER",
	Launch:                "LAUNCH",
	Recover:               "RECOVER",
	Join:                  "JOIN",
	Ram:                   "RAM",
	Charge:                "CHARGE",
	DFA:                   "DFA",
	OffBoard:              "OFF_BOARD",
	Stall:                 "STALL",
}

func (k StepKind) Valid() bool { return k > KindInvalid && k < numKinds }

func (k StepKind) String() string {
	if k < 0 || k >= numKinds {
		return fmt.Sprintf("StepKind(%d)", int(k))
	}
	return kindNames[k]
}

func ParseKind(s string) (StepKind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for k := Forward; k < numKinds; k++ {
		if kindNames[k] == s {
			return k, nil
		}
	}
	return KindInvalid, fmt.Errorf("unknown step kind %q", s)
}

// AllKinds lists every valid kind in declaration order.
func AllKinds() []StepKind {
	out := make([]StepKind, 0, numKinds-1)
	for k := Forward; k < numKinds; k++ {
		out = append(out, k)
	}
	return out
}

// travel returns the direction of translation relative to facing, in
// clockwise sixths, for kinds that move the unit into another hex.
func (k StepKind) travel() (int, bool) {
	switch k {
	case Forward, Charge, DFA, Ram:
		return 0, true
	case LateralRight:
		return 1, true
	case LateralRightBackwards:
		return 2, true
	case Backwards:
		return 3, true
	case LateralLeftBackwards:
		return 4, true
	case LateralLeft:
		return 5, true
	}
	return 0, false
}

// Translates reports whether the kind moves the unit into an adjacent hex.
func (k StepKind) Translates() bool {
	_, ok := k.travel()
	return ok
}

// KindForTravel returns the translation kind for a bearing rel clockwise
// sixths from facing.
func KindForTravel(rel int) StepKind {
	switch ((rel % 6) + 6) % 6 {
	case 0:
		return Forward
	case 1:
		return LateralRight
	case 2:
		return LateralRightBackwards
	case 3:
		return Backwards
	case 4:
		return LateralLeftBackwards
	default:
		return LateralLeft
	}
}

func (k StepKind) backward() bool {
	return k == Backwards || k == LateralLeftBackwards || k == LateralRightBackwards
}

func (k StepKind) lateral() bool {
	switch k {
	case LateralLeft, LateralRight, LateralLeftBackwards, LateralRightBackwards:
		return true
	}
	return false
}

// Attack reports the collision maneuvers resolved by the attack interceptor.
func (k StepKind) Attack() bool { return k == Charge || k == DFA || k == Ram }

// Terminal kinds end the unit's movement; nothing may follow them.
func (k StepKind) Terminal() bool {
	switch k {
	case OffBoard, Flee, Eject, Charge, DFA, Ram, Recover, Join, Stall, DigIn, Fortify, ClearMinefield:
		return true
	}
	return false
}

// Turn reports rotation-only kinds.
func (k StepKind) Turn() bool { return k == TurnLeft || k == TurnRight || k == Yaw }

// Spatial reports kinds that change position, facing or elevation. Launch and
// recovery carry no displacement and are re-appended after vector expansion.
func (k StepKind) Spatial() bool {
	return k.Translates() || k.Turn() || k == ClimbUp || k == ClimbDown || k == OffBoard
}
