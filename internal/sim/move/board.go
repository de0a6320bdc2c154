package move

import (
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/unit"
)

// Board answers per-hex terrain queries for the game-state collaborator.
type Board interface {
	InBounds(p hex.Pos) bool
	Hex(p hex.Pos) HexInfo
}

type HexInfo struct {
	Terrain   string
	Level     int
	Depth     int
	Minefield bool
	Hazard    bool
	Occupants []Occupant
	Building  *Building
}

type Occupant struct {
	ID      string
	Owner   string
	Class   unit.Class
	Tonnage int
}

type Building struct {
	ID string
	CF int
}

// Tonnage is the total occupant tonnage of the hex.
func (h HexInfo) Tonnage() int {
	t := 0
	for _, o := range h.Occupants {
		t += o.Tonnage
	}
	return t
}

// Others counts occupants other than id.
func (h HexInfo) Others(id string) int {
	n := 0
	for _, o := range h.Occupants {
		if o.ID != id {
			n++
		}
	}
	return n
}

// OnEdge reports whether p touches the board edge.
func OnEdge(b Board, p hex.Pos) bool {
	for f := hex.N; f <= hex.NW; f++ {
		if !b.InBounds(p.Neighbor(f)) {
			return true
		}
	}
	return false
}
