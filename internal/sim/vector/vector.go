// Package vector turns an aerospace craft's velocity components into the
// per-hex step sequence a vector-moving craft actually flies.
package vector

import (
	"fmt"
	"slices"
	"strings"

	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
)

// SplitPolicy picks which of two split-line candidates the craft is treated
// as passing through.
type SplitPolicy func(b move.Board, left, right hex.Pos) hex.Pos

// LighterLeft prefers the candidate with less occupant tonnage; ties go left.
func LighterLeft(b move.Board, left, right hex.Pos) hex.Pos {
	if b.Hex(right).Tonnage() < b.Hex(left).Tonnage() {
		return right
	}
	return left
}

func AlwaysLeft(_ move.Board, left, _ hex.Pos) hex.Pos   { return left }
func AlwaysRight(_ move.Board, _, right hex.Pos) hex.Pos { return right }

// ParsePolicy maps a configured policy name to its function. Empty means
// LIGHTER_LEFT.
func ParsePolicy(name string) (SplitPolicy, error) {
	switch strings.ToUpper(strings.TrimSpace(name)) {
	case "", "LIGHTER_LEFT":
		return LighterLeft, nil
	case "LEFT":
		return AlwaysLeft, nil
	case "RIGHT":
		return AlwaysRight, nil
	}
	return nil, fmt.Errorf("unknown split policy %q", name)
}

type Input struct {
	Board    move.Board
	Start    hex.Pos
	Facing   hex.Facing
	Vectors  hex.Vectors
	Policy   SplitPolicy
	Trailing []move.Command
}

type Split struct {
	Index     int
	Left      hex.Pos
	Right     hex.Pos
	Chosen    hex.Pos
	LeftTons  int
	RightTons int
}

type Expansion struct {
	Commands []move.Command
	// Route holds the chosen hex of each transition, start excluded.
	Route []hex.Pos
	// Passed holds every hex the craft is considered to overfly, both split
	// candidates included.
	Passed   []hex.Pos
	Splits   []Split
	OffBoard bool
	// Ram is set when the route ends in a ram instead of a translation.
	Ram bool
	End hex.Pos
}

// Expand emits one translation step per hex of the straight line from the
// start to the displaced end. It is a pure function of its input.
func Expand(in Input) Expansion {
	policy := in.Policy
	if policy == nil {
		policy = LighterLeft
	}
	end := in.Start.Add(in.Vectors.Normalize().Displacement())
	x := Expansion{End: in.Start}

	cur := in.Start
	for i, lh := range hex.Line(in.Start, end)[1:] {
		next := lh.Pos
		if lh.Split {
			l, r := lh.Left, lh.Right
			switch lin, rin := in.Board.InBounds(l), in.Board.InBounds(r); {
			case lin && rin:
				next = policy(in.Board, l, r)
				x.Passed = append(x.Passed, l, r)
			case lin:
				next = l
				x.Passed = append(x.Passed, l)
			case rin:
				next = r
				x.Passed = append(x.Passed, r)
			default:
				next = l
			}
			if in.Board.InBounds(next) {
				x.Splits = append(x.Splits, Split{
					Index:     i,
					Left:      l,
					Right:     r,
					Chosen:    next,
					LeftTons:  in.Board.Hex(l).Tonnage(),
					RightTons: in.Board.Hex(r).Tonnage(),
				})
			}
		} else if in.Board.InBounds(next) {
			x.Passed = append(x.Passed, next)
		}
		if !in.Board.InBounds(next) {
			x.OffBoard = true
			break
		}
		bearing := hex.Direction(cur, next)
		x.Commands = append(x.Commands, move.Command{
			Kind:    move.KindForTravel(in.Facing.Rel(bearing)),
			Payload: move.NoPayload(),
		})
		x.Route = append(x.Route, next)
		cur = next
	}
	x.End = cur
	if x.OffBoard {
		x.Commands = append(x.Commands, move.Command{Kind: move.OffBoard, Payload: move.NoPayload()})
	}
	x.Commands = append(x.Commands, in.Trailing...)
	return x
}

// Apply re-expands p in place: the translation steps are dropped, the
// remaining commands replayed, and a fresh expansion from the resulting
// vectors appended. A ram carries over when its target hex is still on the
// new route and entered nose first; otherwise it is dropped.
func Apply(p *move.Path, policy SplitPolicy) Expansion {
	ram, x := reexpand(p, policy)
	if ram != nil {
		at, ok := x.End, len(x.Route) > 0
		if t := ram.Payload.Target; t != nil {
			at, ok = t.Pos, true
		}
		if ok {
			x = withRam(x, *ram, at)
		}
	}
	p.ReplaceTail(p.Len(), x.Commands)
	return x
}

// RamInto re-expands p with a ram into dest in place of the transition into
// it. When dest is off the route, or entered other than nose first, p ends
// as a plain expansion and the returned Expansion has Ram unset.
func RamInto(p *move.Path, policy SplitPolicy, dest hex.Pos) Expansion {
	_, x := reexpand(p, policy)
	x = withRam(x, move.Command{Kind: move.Ram, Payload: move.NoPayload()}, dest)
	p.ReplaceTail(p.Len(), x.Commands)
	return x
}

// reexpand strips p to its player commands and expands the vectors they
// leave. Any old ram is returned, not replayed.
func reexpand(p *move.Path, policy SplitPolicy) (*move.Command, Expansion) {
	var core, trailing []move.Command
	var ram *move.Command
	for _, c := range p.Commands() {
		c := c
		switch {
		case c.Kind == move.Launch || c.Kind == move.Recover:
			trailing = append(trailing, c)
		case c.Kind == move.Ram:
			ram = &c
		case c.Kind.Translates() || c.Kind == move.OffBoard:
		default:
			core = append(core, c)
		}
	}
	p.ReplaceTail(0, core)

	st := p.Final()
	return ram, Expand(Input{
		Board:    p.Board(),
		Start:    st.Pos,
		Facing:   st.Facing,
		Vectors:  st.Vectors,
		Policy:   policy,
		Trailing: trailing,
	})
}

// withRam replaces the transition into at with ram and cuts the route there.
// A ram travels nose first, so a transition flown on any other bearing
// cannot carry one.
func withRam(x Expansion, ram move.Command, at hex.Pos) Expansion {
	if x.OffBoard {
		return x
	}
	j := slices.Index(x.Route, at)
	if j < 0 || x.Commands[j].Kind != move.Forward {
		return x
	}
	x.Commands = append(slices.Clone(x.Commands[:j]), ram)
	x.Route = x.Route[:j+1]
	x.End = at
	x.Ram = true
	return x
}
