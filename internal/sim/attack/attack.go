// Package attack gates the collision maneuvers (charge, death from above and
// ram) that end a movement path on an occupied hex.
package attack

import (
	"errors"
	"fmt"
	"sort"

	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

var (
	ErrNoTarget   = errors.New("no target")
	ErrNoPending  = errors.New("no pending attack")
	ErrBadChoice  = errors.New("bad target choice")
	ErrInfeasible = errors.New("attack not feasible")
)

// Candidate is one thing in the target hex that can be attacked.
type Candidate struct {
	Ref      move.TargetRef
	Name     string
	Class    unit.Class
	Tonnage  int
	Velocity int
	Prone    bool
}

// Targets enumerates what stands in a hex. Implemented by the game state.
type Targets interface {
	TargetsAt(pos hex.Pos) []Candidate
}

// Attack is everything a resolver needs to price one collision.
type Attack struct {
	Kind     move.StepKind
	Attacker *unit.Entity
	Target   Candidate
	Hexes    int
	MoveType move.MoveType
	Velocity int
}

type Preview struct {
	Feasible         bool
	Reason           string
	TargetNumber     int
	ToHit            float64
	DamageToTarget   int
	DamageToAttacker int
}

// Resolver prices a collision. The damage model lives outside this package;
// BasicResolver is the built-in default.
type Resolver interface {
	Evaluate(a Attack) Preview
}

// Pending is what Begin and Choose hand back to the turn flow.
type Pending struct {
	Candidates []Candidate
	NeedChoice bool
	Chosen     int
	Preview    Preview
}

// Interceptor runs one attack decision at a time: enumerate, choose, preview
// and then accept or reject.
type Interceptor struct {
	Targets  Targets
	Resolver Resolver
	// Plan lays the path into dest before a candidate is previewed. Nil
	// means the cheapest path for the gear.
	Plan func(p *move.Path, dest hex.Pos, gear move.Gear)

	path  *move.Path
	dest  hex.Pos
	gear  move.Gear
	cands []Candidate
	// chosen is -1 until a target is picked.
	chosen  int
	preview Preview
}

func NewInterceptor(t Targets, r Resolver) *Interceptor {
	if r == nil {
		r = BasicResolver{}
	}
	return &Interceptor{Targets: t, Resolver: r, chosen: -1}
}

// Active reports whether a decision is waiting on Choose or Resolve.
func (i *Interceptor) Active() bool { return i.path != nil }

// Begin opens a decision for an attack gear aimed at dest. An empty hex
// leaves the path untouched and returns ErrNoTarget.
func (i *Interceptor) Begin(p *move.Path, dest hex.Pos, gear move.Gear) (Pending, error) {
	i.reset()
	if !gear.Attack() {
		return Pending{}, fmt.Errorf("gear %s is not an attack", gear)
	}
	cands := candidates(i.Targets, dest, p.Entity().ID)
	if len(cands) == 0 {
		return Pending{}, ErrNoTarget
	}
	i.path, i.dest, i.gear, i.cands = p, dest, gear, cands
	if len(cands) > 1 {
		return Pending{Candidates: cands, NeedChoice: true, Chosen: -1}, nil
	}
	return i.Choose(0)
}

// Choose picks a candidate and previews the attack along the tentative path.
// An infeasible attack empties the path and ends the decision.
func (i *Interceptor) Choose(idx int) (Pending, error) {
	if i.path == nil {
		return Pending{}, ErrNoPending
	}
	if idx < 0 || idx >= len(i.cands) {
		return Pending{Candidates: i.cands, NeedChoice: true, Chosen: -1}, fmt.Errorf("%w: %d of %d", ErrBadChoice, idx, len(i.cands))
	}
	p := i.path
	c := i.cands[idx]
	if i.Plan != nil {
		i.Plan(p, i.dest, i.gear)
	} else {
		p.FindPathTo(i.dest, i.gear)
	}

	pv := i.evaluate(p, c)
	out := Pending{Candidates: i.cands, Chosen: idx, Preview: pv}
	if !pv.Feasible {
		p.Clear()
		i.reset()
		return out, fmt.Errorf("%w: %s", ErrInfeasible, pv.Reason)
	}
	i.chosen, i.preview = idx, pv
	return out, nil
}

// Resolve applies the player's decision. Accepting attaches the target to
// the final step; rejecting empties the path.
func (i *Interceptor) Resolve(accept bool) error {
	if i.path == nil || i.chosen < 0 {
		return ErrNoPending
	}
	defer i.reset()
	if !accept {
		i.path.Clear()
		return nil
	}
	if !i.path.AttachTarget(i.cands[i.chosen].Ref) {
		i.path.Clear()
		return fmt.Errorf("%w: path no longer ends in an attack", ErrInfeasible)
	}
	return nil
}

// Cancel abandons the decision. A path already laid toward the target is
// reverted to empty.
func (i *Interceptor) Cancel() {
	if i.path != nil {
		i.path.Clear()
	}
	i.reset()
}

func (i *Interceptor) reset() {
	i.path = nil
	i.cands = nil
	i.chosen = -1
	i.preview = Preview{}
}

func (i *Interceptor) evaluate(p *move.Path, c Candidate) Preview {
	last := p.Last()
	if last == nil || !last.Kind.Attack() || last.Pos != i.dest {
		return Preview{Reason: "NO_PATH"}
	}
	if last.Kind == move.Ram && !c.Class.Aerospace() {
		return Preview{Reason: "NOT_AEROSPACE"}
	}
	trial := p.Clone()
	trial.AttachTarget(c.Ref)
	for _, s := range trial.Steps() {
		if !s.Legal {
			return Preview{Reason: string(s.Reason)}
		}
	}
	return i.Resolver.Evaluate(Attack{
		Kind:     last.Kind,
		Attacker: p.Entity(),
		Target:   c,
		Hexes:    last.Hexes,
		MoveType: last.MoveType,
		Velocity: last.Velocity,
	})
}

// candidates lists the hex's units by ID, then its building, never the mover.
func candidates(t Targets, pos hex.Pos, self string) []Candidate {
	if t == nil {
		return nil
	}
	var units, rest []Candidate
	for _, c := range t.TargetsAt(pos) {
		switch {
		case c.Ref.Kind == move.TargetUnit && c.Ref.ID == self:
		case c.Ref.Kind == move.TargetUnit:
			units = append(units, c)
		default:
			rest = append(rest, c)
		}
	}
	sort.Slice(units, func(a, b int) bool { return units[a].Ref.ID < units[b].Ref.ID })
	return append(units, rest...)
}
