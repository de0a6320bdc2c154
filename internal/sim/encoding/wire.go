package encoding

import (
	"fmt"

	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

func StepsToWire(cmds []move.Command) []protocol.StepWire {
	out := make([]protocol.StepWire, 0, len(cmds))
	for _, c := range cmds {
		s := protocol.StepWire{Kind: c.Kind.String(), Maneuver: c.Payload.Maneuver}
		if t := c.Payload.Target; t != nil {
			s.Target = &protocol.TargetWire{Kind: string(t.Kind), ID: t.ID, Q: t.Pos.Q, R: t.Pos.R}
		}
		if c.Payload.Equipment >= 0 {
			eq := c.Payload.Equipment
			s.Equipment = &eq
		}
		if len(c.Payload.Units) > 0 {
			s.Units = append([]string(nil), c.Payload.Units...)
		}
		out = append(out, s)
	}
	return out
}

func StepsFromWire(steps []protocol.StepWire) ([]move.Command, error) {
	out := make([]move.Command, 0, len(steps))
	for i, s := range steps {
		k, err := move.ParseKind(s.Kind)
		if err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
		pl := move.NoPayload()
		if s.Target != nil {
			kind := move.TargetKind(s.Target.Kind)
			if kind != move.TargetUnit && kind != move.TargetBuilding {
				return nil, fmt.Errorf("step %d: bad target kind %q", i, s.Target.Kind)
			}
			pl.Target = &move.TargetRef{Kind: kind, ID: s.Target.ID, Pos: hex.Pos{Q: s.Target.Q, R: s.Target.R}}
		}
		if s.Equipment != nil {
			if *s.Equipment < 0 {
				return nil, fmt.Errorf("step %d: negative equipment", i)
			}
			pl.Equipment = *s.Equipment
		}
		pl.Units = append([]string(nil), s.Units...)
		if len(pl.Units) == 0 {
			pl.Units = nil
		}
		pl.Maneuver = s.Maneuver
		out = append(out, move.Command{Kind: k, Payload: pl})
	}
	return out, nil
}

// Claim summarizes where a path ends and what it cost.
func Claim(final unit.State, mp int) protocol.ClaimWire {
	return protocol.ClaimWire{Q: final.Pos.Q, R: final.Pos.R, Facing: final.Facing.String(), MP: mp}
}

func ClaimOf(p *move.Path) protocol.ClaimWire { return Claim(p.Final(), p.TotalMP()) }

// MovePath builds the wire message for a committed path.
func MovePath(pathID string, p *move.Path, forced bool) protocol.MovePathMsg {
	return protocol.MovePathMsg{
		Type:            protocol.TypeMovePath,
		ProtocolVersion: protocol.Version,
		PathID:          pathID,
		EntityID:        p.Entity().ID,
		Vector:          p.Options().Vector,
		Swim:            p.Options().Swim,
		Forced:          forced,
		Steps:           StepsToWire(p.Commands()),
		Claim:           ClaimOf(p),
	}
}

func BoardToWire(s *game.State) protocol.BoardMsg {
	b := protocol.BoardMsg{Radius: s.Radius}
	for _, p := range s.Hexes() {
		h := s.Terrain(p)
		hw := protocol.HexWire{
			Q:         p.Q,
			R:         p.R,
			Terrain:   h.Terrain,
			Level:     h.Level,
			Depth:     h.Depth,
			Minefield: h.Minefield,
			Hazard:    h.Hazard,
		}
		if h.Building != nil {
			hw.Building = h.Building.ID
			hw.CF = h.Building.CF
		}
		b.Hexes = append(b.Hexes, hw)
	}
	return b
}

func EntityToWire(e *unit.Entity) protocol.EntityWire {
	p := e.Profile
	st := e.State
	return protocol.EntityWire{
		ID:    e.ID,
		Owner: e.Owner,
		Class: p.Class.String(),
		Profile: protocol.ProfileWire{
			Walk:       p.Walk,
			Run:        p.Run,
			Boost:      p.Boost,
			Jump:       p.Jump,
			Swim:       p.Swim,
			SafeThrust: p.SafeThrust,
			MaxThrust:  p.MaxThrust,
			Tonnage:    p.Tonnage,
			Piloting:   p.Piloting,
		},
		Status: p.Status.Names(),
		State: protocol.StateWire{
			Q:            st.Pos.Q,
			R:            st.Pos.R,
			Facing:       st.Facing.String(),
			Elevation:    st.Elevation,
			Velocity:     st.Velocity,
			NextVelocity: st.NextVelocity,
			Vectors:      st.Vectors,
			Fuel:         st.Fuel,
			AccelUsed:    st.AccelUsed,
			DecelUsed:    st.DecelUsed,
			Airborne:     st.Airborne,
			InSpace:      st.InSpace,
		},
	}
}

func EntityFromWire(w protocol.EntityWire) (*unit.Entity, error) {
	cls, err := unit.ParseClass(w.Class)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", w.ID, err)
	}
	status, err := unit.ParseStatus(w.Status)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", w.ID, err)
	}
	facing, err := hex.ParseFacing(w.State.Facing)
	if err != nil {
		return nil, fmt.Errorf("entity %s: %w", w.ID, err)
	}
	pw := w.Profile
	return &unit.Entity{
		ID:    w.ID,
		Owner: w.Owner,
		Profile: unit.Profile{
			Class:      cls,
			Walk:       pw.Walk,
			Run:        pw.Run,
			Boost:      pw.Boost,
			Jump:       pw.Jump,
			Swim:       pw.Swim,
			SafeThrust: pw.SafeThrust,
			MaxThrust:  pw.MaxThrust,
			Tonnage:    pw.Tonnage,
			Piloting:   pw.Piloting,
			Status:     status,
		},
		State: unit.State{
			Pos:          hex.Pos{Q: w.State.Q, R: w.State.R},
			Facing:       facing,
			Elevation:    w.State.Elevation,
			Velocity:     w.State.Velocity,
			NextVelocity: w.State.NextVelocity,
			Vectors:      w.State.Vectors,
			Fuel:         w.State.Fuel,
			AccelUsed:    w.State.AccelUsed,
			DecelUsed:    w.State.DecelUsed,
			Airborne:     w.State.Airborne,
			InSpace:      w.State.InSpace,
		},
	}, nil
}

// StateMsg snapshots the entities and round bookkeeping of s.
func StateMsg(s *game.State) protocol.StateMsg {
	m := protocol.StateMsg{
		Type:            protocol.TypeState,
		ProtocolVersion: protocol.Version,
		Round:           s.Round(),
		Active:          s.Active(),
		ActiveOwner:     s.ActiveOwner(),
		Moved:           s.Moved(),
	}
	for _, e := range s.Entities() {
		m.Entities = append(m.Entities, EntityToWire(e))
	}
	m.StateDigest = Digest(s)
	return m
}

// BuildState mirrors the authority's game state from a board and a state
// snapshot.
func BuildState(b protocol.BoardMsg, st protocol.StateMsg) (*game.State, error) {
	if b.Radius <= 0 {
		return nil, fmt.Errorf("board radius must be > 0")
	}
	s := game.New(b.Radius)
	for _, hw := range b.Hexes {
		p := hex.Pos{Q: hw.Q, R: hw.R}
		if !s.InBounds(p) {
			return nil, fmt.Errorf("hex %s off board", p)
		}
		h := game.Hex{Terrain: hw.Terrain, Level: hw.Level, Depth: hw.Depth, Minefield: hw.Minefield, Hazard: hw.Hazard}
		if hw.Building != "" {
			h.Building = &move.Building{ID: hw.Building, CF: hw.CF}
		}
		s.SetHex(p, h)
	}
	for _, ew := range st.Entities {
		e, err := EntityFromWire(ew)
		if err != nil {
			return nil, err
		}
		if err := s.AddEntity(e); err != nil {
			return nil, err
		}
	}
	s.SetProgress(st.Round, st.Moved)
	return s, nil
}
