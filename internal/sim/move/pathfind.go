package move

import (
	"fmt"
	"strings"

	"hexmove.ai/internal/sim/hex"
)

// Gear is the player-selected movement mode that decides which step kind the
// pathfinder lays down.
type Gear int

const (
	GearWalk Gear = iota
	GearBackwards
	GearLateralLeft
	GearLateralRight
	GearJump
	GearSwim
	GearCharge
	GearDFA
	GearRam

	numGears
)

var gearNames = [numGears]string{"WALK", "BACKWARDS", "LATERAL_LEFT", "LATERAL_RIGHT", "JUMP", "SWIM", "CHARGE", "DFA", "RAM"}

func (g Gear) String() string {
	if g < 0 || g >= numGears {
		return fmt.Sprintf("Gear(%d)", int(g))
	}
	return gearNames[g]
}

func ParseGear(s string) (Gear, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for g := GearWalk; g < numGears; g++ {
		if gearNames[g] == s {
			return g, nil
		}
	}
	return GearWalk, fmt.Errorf("unknown gear %q", s)
}

// Attack reports the collision gears gated by the attack interceptor.
func (g Gear) Attack() bool { return g == GearCharge || g == GearDFA || g == GearRam }

// Kind is the translation step the gear lays down for each hex.
func (g Gear) Kind() StepKind {
	switch g {
	case GearBackwards:
		return Backwards
	case GearLateralLeft:
		return LateralLeft
	case GearLateralRight:
		return LateralRight
	}
	return Forward
}

// finalKind replaces the last translation of an attack gear.
func (g Gear) finalKind() StepKind {
	switch g {
	case GearCharge:
		return Charge
	case GearDFA:
		return DFA
	case GearRam:
		return Ram
	}
	return g.Kind()
}

func (g Gear) jumps() bool { return g == GearJump || g == GearDFA }

// FindPathTo rebuilds the tentative suffix after the locked prefix so the
// path ends at dest. It travels at most two straight legs, ordered so the
// first needs the fewer facing changes. The work is proportional to the
// distance, and calling it twice with the same arguments changes nothing.
func (p *Path) FindPathTo(dest hex.Pos, g Gear) {
	p.truncate(p.locked)

	var cmds []Command
	tail := p.tail()
	if g.jumps() && !tail.Jumping {
		cmds = append(cmds, Command{Kind: StartJump, Payload: NoPayload()})
	}

	facing := tail.Facing
	rel, _ := g.Kind().travel()
	legs := p.legs(tail.Pos, dest, facing, rel)
	canTurn := !p.entity.CannotTurn()
	for i, l := range legs {
		kind := g.Kind()
		if canTurn {
			need := l.dir.Turn(-rel)
			cmds = append(cmds, p.turnCommands(facing, need)...)
			facing = need
		} else {
			kind = KindForTravel(facing.Rel(l.dir))
		}
		for j := 0; j < l.n; j++ {
			k := kind
			if i == len(legs)-1 && j == l.n-1 && g.Attack() {
				k = g.finalKind()
			}
			cmds = append(cmds, Command{Kind: k, Payload: NoPayload()})
		}
	}
	p.ReplaceTail(len(p.steps), cmds)
}

type leg struct {
	dir hex.Facing
	n   int
}

// legs splits b-a into non-negative runs along two adjacent directions.
func (p *Path) legs(a, b hex.Pos, facing hex.Facing, rel int) []leg {
	d := b.Sub(a)
	if d == (hex.Pos{}) {
		return nil
	}
	for f := hex.N; f <= hex.NW; f++ {
		o1, o2 := hex.Offset(f), hex.Offset(f+1)
		det := o1.Q*o2.R - o1.R*o2.Q
		x := (d.Q*o2.R - d.R*o2.Q) / det
		y := (o1.Q*d.R - o1.R*d.Q) / det
		if x <= 0 || y < 0 {
			continue
		}
		first, second := leg{f, x}, leg{f.Right(), y}
		if y == 0 {
			return []leg{first}
		}
		n1, n2 := first.dir.Turn(-rel), second.dir.Turn(-rel)
		if p.turnsBetween(facing, n2)+p.turnsBetween(n2, n1) < p.turnsBetween(facing, n1)+p.turnsBetween(n1, n2) {
			first, second = second, first
		}
		return []leg{first, second}
	}
	return nil
}
