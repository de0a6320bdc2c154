package move

import (
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/unit"
)

type testBoard struct {
	radius int
	hexes  map[hex.Pos]HexInfo
}

func newTestBoard(radius int) *testBoard {
	return &testBoard{radius: radius, hexes: map[hex.Pos]HexInfo{}}
}

func (b *testBoard) InBounds(p hex.Pos) bool { return hex.Distance(hex.Pos{}, p) <= b.radius }

func (b *testBoard) Hex(p hex.Pos) HexInfo {
	h, ok := b.hexes[p]
	if !ok {
		h.Terrain = "CLEAR"
	}
	return h
}

func (b *testBoard) set(p hex.Pos, h HexInfo) {
	if h.Terrain == "" {
		h.Terrain = "CLEAR"
	}
	b.hexes[p] = h
}

func mech(walk, run, jump int) *unit.Entity {
	return &unit.Entity{
		ID:    "m1",
		Owner: "p1",
		Profile: unit.Profile{
			Class:   unit.Biped,
			Walk:    walk,
			Run:     run,
			Jump:    jump,
			Tonnage: 50,
		},
		State: unit.State{Facing: hex.N},
	}
}

func kinds(p *Path) []StepKind {
	out := make([]StepKind, 0, p.Len())
	for _, s := range p.Steps() {
		out = append(out, s.Kind)
	}
	return out
}

func sameKinds(a []StepKind, b ...StepKind) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
