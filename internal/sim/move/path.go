package move

import (
	"slices"

	"hexmove.ai/internal/sim/unit"
)

// Options are turn-wide movement modes fixed when the path is created.
type Options struct {
	Vector bool `json:"vector,omitempty"`
	Swim   bool `json:"swim,omitempty"`
}

// Path is one entity's ordered steps for the current turn. It is owned by a
// single turn flow and is not safe for concurrent use.
type Path struct {
	rules  *Rules
	board  Board
	entity *unit.Entity
	start  unit.State
	opts   Options

	steps  []Step
	locked int
}

// New returns an empty path for e starting from its current state.
func New(r *Rules, b Board, e *unit.Entity, opts Options) *Path {
	return newPath(r, b, e, e.State, opts)
}

func newPath(r *Rules, b Board, e *unit.Entity, start unit.State, opts Options) *Path {
	return &Path{rules: r, board: b, entity: e, start: start, opts: opts}
}

func (p *Path) Entity() *unit.Entity { return p.entity }
func (p *Path) Board() Board         { return p.board }
func (p *Path) Rules() *Rules        { return p.rules }
func (p *Path) Start() unit.State    { return p.start }
func (p *Path) Options() Options     { return p.opts }
func (p *Path) Len() int             { return len(p.steps) }
func (p *Path) Locked() int          { return p.locked }

// Steps returns the steps; callers must not modify them.
func (p *Path) Steps() []Step { return p.steps }

// Last returns the final step, or nil for an empty path.
func (p *Path) Last() *Step {
	if len(p.steps) == 0 {
		return nil
	}
	return &p.steps[len(p.steps)-1]
}

// AddStep appends a step. It never rejects: an illegal step is kept with
// Legal=false so the player can see it and back out.
func (p *Path) AddStep(k StepKind, pl Payload) *Step {
	p.push(Command{Kind: k, Payload: pl.clone()})
	p.applyEndRules()
	return p.Last()
}

func (p *Path) push(c Command) {
	p.restoreLast()
	prev := p.tail()
	p.steps = append(p.steps, p.advance(&prev, c))
}

// RemoveLastStep pops the final step. Popping the only step empties the path.
func (p *Path) RemoveLastStep() {
	if len(p.steps) == 0 {
		return
	}
	p.truncate(len(p.steps) - 1)
}

// Clear empties the path and its locked prefix.
func (p *Path) Clear() {
	p.steps = p.steps[:0]
	p.locked = 0
}

// Lock marks the current steps as the committed prefix that FindPathTo keeps.
func (p *Path) Lock() { p.locked = len(p.steps) }

// ReplaceTail drops every step from index from on and appends cmds.
func (p *Path) ReplaceTail(from int, cmds []Command) {
	if from < 0 {
		from = 0
	}
	if from < len(p.steps) {
		p.truncate(from)
	}
	for _, c := range cmds {
		p.push(Command{Kind: c.Kind, Payload: c.Payload.clone()})
	}
	p.applyEndRules()
}

func (p *Path) truncate(n int) {
	if n >= len(p.steps) {
		return
	}
	p.steps = p.steps[:n]
	if p.locked > n {
		p.locked = n
	}
	p.applyEndRules()
}

// ClipToPossible truncates the path in place to its longest possible prefix.
// Clipping can expose a new final step to end-of-path rules, so it repeats
// until nothing changes; a clipped path clips to itself.
func (p *Path) ClipToPossible() {
	for {
		n := p.possibleLen()
		if n == len(p.steps) {
			return
		}
		p.truncate(n)
	}
}

// Clipped returns a clipped copy, leaving p untouched.
func (p *Path) Clipped() *Path {
	c := p.Clone()
	c.ClipToPossible()
	return c
}

func (p *Path) possibleLen() int {
	for i := range p.steps {
		if !p.steps[i].Legal {
			return i
		}
	}
	return len(p.steps)
}

// Possible reports whether every step is legal and within budget.
func (p *Path) Possible() bool { return p.possibleLen() == len(p.steps) }

// EntirelyImpossible reports that committing would move nothing, so the
// commit control acts as "end turn without moving".
func (p *Path) EntirelyImpossible() bool { return p.Clipped().Len() == 0 }

func (p *Path) Clone() *Path {
	c := *p
	c.steps = make([]Step, len(p.steps))
	for i, s := range p.steps {
		s.Payload = s.Payload.clone()
		s.Dangers = slices.Clone(s.Dangers)
		c.steps[i] = s
	}
	return &c
}

// NeedsConfirmation lists the distinct confirmation gates the path triggers.
func (p *Path) NeedsConfirmation() []Danger {
	var out []Danger
	for _, s := range p.steps {
		for _, d := range s.Dangers {
			if !slices.Contains(out, d) {
				out = append(out, d)
			}
		}
	}
	return out
}

// Commands returns the replayable step list.
func (p *Path) Commands() []Command {
	out := make([]Command, len(p.steps))
	for i := range p.steps {
		out[i] = p.steps[i].Command()
	}
	return out
}

func (p *Path) TotalMP() int { return p.tail().CumulativeMP }
func (p *Path) Hexes() int   { return p.tail().Hexes }

// MoveType is the movement mode the whole path needs.
func (p *Path) MoveType() MoveType {
	if len(p.steps) == 0 {
		return MoveNone
	}
	return p.tail().MoveType
}

// Jumping reports whether the path is currently airborne in a jump.
func (p *Path) Jumping() bool { return p.tail().Jumping }

// Final returns the entity state the path ends in.
func (p *Path) Final() unit.State {
	s := p.tail()
	st := p.start
	st.Pos = s.Pos
	st.Facing = s.Facing
	st.Elevation = s.Elevation
	st.Velocity = s.Velocity
	st.NextVelocity = s.NextVelocity
	st.Vectors = s.Vectors
	st.Fuel = s.Fuel
	st.AccelUsed = s.AccelUsed
	st.DecelUsed = s.DecelUsed
	st.Airborne = s.Airborne
	return st
}

// AttachTarget sets the target of the final attack step.
func (p *Path) AttachTarget(t TargetRef) bool {
	s := p.Last()
	if s == nil || !s.Kind.Attack() {
		return false
	}
	s.Payload.Target = &t
	p.applyEndRules()
	return true
}

// tail is the last step, or the virtual origin step of an empty path.
func (p *Path) tail() Step {
	if len(p.steps) > 0 {
		return p.steps[len(p.steps)-1]
	}
	return p.origin()
}

func (p *Path) origin() Step {
	st := p.start
	status := p.entity.Profile.Status
	s := Step{
		Pos:          st.Pos,
		Facing:       st.Facing,
		Elevation:    st.Elevation,
		MoveType:     MoveNone,
		Legal:        true,
		Fuel:         st.Fuel,
		Velocity:     st.Velocity,
		NextVelocity: st.NextVelocity,
		Vectors:      st.Vectors,
		AccelUsed:    st.AccelUsed,
		DecelUsed:    st.DecelUsed,
		Prone:        status.Has(unit.Prone),
		HullDown:     status.Has(unit.HullDown),
		Airborne:     st.Airborne,
		stuck:        status.Has(unit.Stuck),
		level:        p.board.Hex(st.Pos).Level,
		baseLegal:    true,
	}
	if p.opts.Vector {
		s.Velocity = st.Vectors.Velocity()
	}
	return s
}
