package move

import (
	"slices"

	"hexmove.ai/internal/sim/hex"
)

type TargetKind string

const (
	TargetUnit     TargetKind = "UNIT"
	TargetBuilding TargetKind = "BUILDING"
)

// TargetRef names the object a charge, DFA, ram, recovery or join is aimed at.
type TargetRef struct {
	Kind TargetKind `json:"kind"`
	ID   string     `json:"id"`
	Pos  hex.Pos    `json:"pos"`
}

// Payload is the per-kind extra data of a step. Equipment is -1 when unused.
type Payload struct {
	Target    *TargetRef `json:"target,omitempty"`
	Equipment int        `json:"equipment"`
	Units     []string   `json:"units,omitempty"`
	Maneuver  int        `json:"maneuver,omitempty"`
}

// NoPayload is the empty payload.
func NoPayload() Payload { return Payload{Equipment: -1} }

func WithTarget(t TargetRef) Payload {
	p := NoPayload()
	p.Target = &t
	return p
}

func WithEquipment(idx int) Payload { return Payload{Equipment: idx} }

func WithUnits(ids ...string) Payload {
	p := NoPayload()
	p.Units = append([]string(nil), ids...)
	return p
}

func WithManeuver(id int) Payload {
	p := NoPayload()
	p.Maneuver = id
	return p
}

func (p Payload) clone() Payload {
	out := p
	if p.Target != nil {
		t := *p.Target
		out.Target = &t
	}
	out.Units = slices.Clone(p.Units)
	return out
}

func (p Payload) Equal(o Payload) bool {
	if p.Equipment != o.Equipment || p.Maneuver != o.Maneuver || !slices.Equal(p.Units, o.Units) {
		return false
	}
	if (p.Target == nil) != (o.Target == nil) {
		return false
	}
	return p.Target == nil || *p.Target == *o.Target
}

// Command is the replayable part of a step: what was asked, not what resulted.
type Command struct {
	Kind    StepKind
	Payload Payload
}
