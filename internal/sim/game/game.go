// Package game holds the authoritative board and entities a movement path is
// validated against.
package game

import (
	"fmt"
	"sort"

	"hexmove.ai/internal/sim/attack"
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

// Hex is the static terrain of one board hex.
type Hex struct {
	Terrain   string
	Level     int
	Depth     int
	Minefield bool
	Hazard    bool
	Building  *move.Building
}

// State is a hexagonal board of the given radius around the origin plus the
// entities on it. It is not safe for concurrent use; the authority owns it
// from a single goroutine.
type State struct {
	Radius int

	hexes    map[hex.Pos]Hex
	entities map[string]*unit.Entity
	order    []string
	moved    map[string]bool
	round    int
}

func New(radius int) *State {
	return &State{
		Radius:   radius,
		hexes:    map[hex.Pos]Hex{},
		entities: map[string]*unit.Entity{},
		moved:    map[string]bool{},
		round:    1,
	}
}

func (s *State) SetHex(p hex.Pos, h Hex) {
	if h.Terrain == "" {
		h.Terrain = "CLEAR"
	}
	s.hexes[p] = h
}

// AddEntity places e on the board and appends it to the turn order.
func (s *State) AddEntity(e *unit.Entity) error {
	if e.ID == "" {
		return fmt.Errorf("entity without id")
	}
	if _, ok := s.entities[e.ID]; ok {
		return fmt.Errorf("duplicate entity %q", e.ID)
	}
	if !s.InBounds(e.State.Pos) {
		return fmt.Errorf("entity %s off board at %s", e.ID, e.State.Pos)
	}
	s.entities[e.ID] = e
	s.order = append(s.order, e.ID)
	return nil
}

func (s *State) Entity(id string) *unit.Entity { return s.entities[id] }

// Entities returns every entity in turn order.
func (s *State) Entities() []*unit.Entity {
	out := make([]*unit.Entity, 0, len(s.order))
	for _, id := range s.order {
		if e := s.entities[id]; e != nil {
			out = append(out, e)
		}
	}
	return out
}

// Hexes returns every non-default hex, ordered by (q, r).
func (s *State) Hexes() []hex.Pos {
	out := make([]hex.Pos, 0, len(s.hexes))
	for p := range s.hexes {
		out = append(out, p)
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Q != out[b].Q {
			return out[a].Q < out[b].Q
		}
		return out[a].R < out[b].R
	})
	return out
}

// Terrain returns the static hex at p without occupants.
func (s *State) Terrain(p hex.Pos) Hex {
	h, ok := s.hexes[p]
	if !ok {
		h.Terrain = "CLEAR"
	}
	return h
}

func (s *State) InBounds(p hex.Pos) bool { return hex.Distance(hex.Pos{}, p) <= s.Radius }

func (s *State) Hex(p hex.Pos) move.HexInfo {
	h, ok := s.hexes[p]
	if !ok {
		h.Terrain = "CLEAR"
	}
	info := move.HexInfo{
		Terrain:   h.Terrain,
		Level:     h.Level,
		Depth:     h.Depth,
		Minefield: h.Minefield,
		Hazard:    h.Hazard,
		Building:  h.Building,
	}
	for _, e := range s.Entities() {
		if e.State.Pos != p {
			continue
		}
		info.Occupants = append(info.Occupants, move.Occupant{
			ID:      e.ID,
			Owner:   e.Owner,
			Class:   e.Profile.Class,
			Tonnage: e.Profile.Tonnage,
		})
	}
	return info
}

// TargetsAt lists what a collision into p could hit: units by ID, then the
// building.
func (s *State) TargetsAt(p hex.Pos) []attack.Candidate {
	var out []attack.Candidate
	for _, e := range s.Entities() {
		if e.State.Pos != p {
			continue
		}
		out = append(out, attack.Candidate{
			Ref:      move.TargetRef{Kind: move.TargetUnit, ID: e.ID, Pos: p},
			Name:     e.ID,
			Class:    e.Profile.Class,
			Tonnage:  e.Profile.Tonnage,
			Velocity: e.State.Velocity,
			Prone:    e.Profile.Status.Has(unit.Prone),
		})
	}
	sort.Slice(out, func(a, b int) bool { return out[a].Ref.ID < out[b].Ref.ID })
	if b := s.hexes[p].Building; b != nil {
		out = append(out, attack.Candidate{
			Ref:  move.TargetRef{Kind: move.TargetBuilding, ID: b.ID, Pos: p},
			Name: b.ID,
		})
	}
	return out
}

// Apply moves an entity to the final state of an accepted path. An entity
// that left the board is removed.
func (s *State) Apply(id string, final unit.State, last *move.Step) {
	e := s.entities[id]
	if e == nil {
		return
	}
	e.State = final
	if last == nil {
		return
	}
	if last.Prone {
		e.Profile.Status |= unit.Prone
	} else {
		e.Profile.Status &^= unit.Prone
	}
	if last.HullDown {
		e.Profile.Status |= unit.HullDown
	} else {
		e.Profile.Status &^= unit.HullDown
	}
	if last.OffBoard {
		s.remove(id)
	}
}

func (s *State) remove(id string) {
	delete(s.entities, id)
	delete(s.moved, id)
	for i, o := range s.order {
		if o == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}
