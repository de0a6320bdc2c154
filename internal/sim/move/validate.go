package move

import (
	"slices"

	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/unit"
)

// advance computes the step produced by applying c after prev. Legality is
// decided from prev alone, so appending never revisits earlier steps; the
// end-of-path rules are layered on top by applyEndRules.
func (p *Path) advance(prev *Step, c Command) Step {
	prof := p.entity.Profile
	tu := p.rules.Tuning
	aero := prof.Class.Aerospace()

	s := *prev
	s.Kind = c.Kind
	s.Payload = c.Payload
	s.MPCost = 0
	s.Dangers = nil
	s.terminal = prev.terminal || c.Kind.Terminal()

	reason := ReasonNone
	fail := func(r Reason) {
		if reason == ReasonNone {
			reason = r
		}
	}

	if prev.terminal {
		fail(ReasonAfterTerminal)
	}
	if !p.rules.Allows(prof.Class, c.Kind) {
		fail(ReasonNotCapable)
	}
	if aero && !p.opts.Vector && (c.Kind.lateral() || c.Kind.backward()) {
		fail(ReasonNotCapable)
	}
	fail(p.statusGate(prev, c.Kind))

	switch c.Kind {
	case Forward, Backwards, LateralLeft, LateralRight, LateralLeftBackwards, LateralRightBackwards,
		Charge, DFA, Ram:
		rel, _ := c.Kind.travel()
		p.enter(&s, prev, prev.Facing.Turn(rel), fail)
		switch c.Kind {
		case Charge:
			if prev.Jumping {
				fail(ReasonJumping)
			}
			if prev.backwards {
				fail(ReasonBackwardAttack)
			}
		case DFA:
			if !prev.Jumping {
				fail(ReasonNotJumping)
			}
		}

	case TurnLeft, TurnRight, Yaw:
		d, n := -1, 1
		switch c.Kind {
		case TurnRight:
			d = 1
		case Yaw:
			d, n = 3, 3
		}
		s.Facing = prev.Facing.Turn(d)
		switch {
		case aero && c.Kind == Yaw:
			s.MPCost = tu.Aero.YawThrust
		case aero:
			s.MPCost = tu.Aero.TurnThrust
		case prev.Jumping:
		default:
			s.MPCost = tu.TurnCost * n
		}

	case ClimbUp:
		s.Elevation = prev.Elevation + 1
		s.MPCost = tu.ClimbCost
		if prof.Class == unit.Submarine && s.Elevation > 0 {
			fail(ReasonElevation)
		}
		if p.rules.Capability(prof.Class).Flies {
			s.Airborne = true
		}
	case ClimbDown:
		s.Elevation = prev.Elevation - 1
		s.MPCost = tu.ClimbCost
		switch {
		case p.rules.Capability(prof.Class).Flies:
			if s.Elevation < 0 {
				fail(ReasonElevation)
			}
			s.Airborne = s.Elevation > 0
		case prof.Class == unit.Submarine:
			if -s.Elevation > p.board.Hex(prev.Pos).Depth {
				fail(ReasonElevation)
			}
		}

	case StartJump:
		switch {
		case prof.Jump <= 0:
			fail(ReasonNoJump)
		case prev.Jumping:
			fail(ReasonRepeat)
		case prev.Hexes > 0:
			fail(ReasonJumpAfterMove)
		}
		s.Jumping = true
		s.Prone = false
		s.HullDown = false
		if prof.Status.Has(unit.CanUnstickByJump) {
			s.stuck = false
		}

	case Land:
		if !prev.Airborne && prev.Elevation <= 0 {
			fail(ReasonState)
		}
		s.Elevation = 0
		s.Airborne = false
	case TakeOff:
		if prev.Airborne || prev.Elevation > 0 {
			fail(ReasonState)
		}
		s.Airborne = true
		s.Elevation = 1
		s.MPCost = tu.ClimbCost

	case GoProne:
		if prev.Prone {
			fail(ReasonState)
		}
		if prev.Jumping {
			fail(ReasonJumping)
		}
		s.MPCost = tu.GoProneCost
		s.Prone = true
		s.HullDown = false
	case GetUp:
		if !prev.Prone {
			fail(ReasonState)
		}
		s.MPCost = tu.GetUpCost
		s.Prone = false
	case HullDown:
		if prev.HullDown {
			fail(ReasonState)
		}
		s.MPCost = tu.HullDownCost
		if prev.Prone {
			s.MPCost = 1
		}
		s.HullDown = true
		s.Prone = false

	case Load:
		if c.Payload.Target == nil {
			fail(ReasonBadPayload)
		}
		s.MPCost = tu.LoadCost
	case Unload:
		if len(c.Payload.Units) == 0 {
			fail(ReasonBadPayload)
		}
		s.MPCost = tu.LoadCost
	case LayMine:
		if c.Payload.Equipment < 0 {
			fail(ReasonBadPayload)
		}
		s.MPCost = tu.LayMineCost
	case ClearMinefield:
		if !p.board.Hex(prev.Pos).Minefield {
			fail(ReasonNoMinefield)
		}
		s.MPCost = tu.ClearMineCost
	case DigIn:
		s.MPCost = tu.DigInCost
	case Fortify:
		if prev.Hexes > 0 {
			fail(ReasonState)
		}
		s.MPCost = tu.FortifyCost
	case Searchlight, ShakeOff, Eject:

	case Flee, OffBoard:
		if !OnEdge(p.board, prev.Pos) {
			fail(ReasonNotAtEdge)
		}
		s.OffBoard = true

	case Accelerate, Decelerate:
		if prev.Hexes > 0 {
			fail(ReasonThrustLate)
		}
		n := 1
		if c.Kind == Decelerate {
			n = -1
			s.DecelUsed++
		} else {
			s.AccelUsed++
		}
		if p.opts.Vector {
			s.Vectors = prev.Vectors.Thrust(prev.Facing, n)
			s.Velocity = s.Vectors.Velocity()
		} else {
			s.Velocity = prev.Velocity + n
			if s.Velocity < 0 {
				s.Velocity = 0
				fail(ReasonVelocity)
			}
		}
		s.MPCost = 1
	case AccelerateNext, DecelerateNext:
		if c.Kind == AccelerateNext {
			s.NextVelocity = prev.NextVelocity + 1
		} else {
			s.NextVelocity = prev.NextVelocity - 1
		}
		if s.NextVelocity < 0 {
			s.NextVelocity = 0
			fail(ReasonVelocity)
		}
		s.MPCost = 1
	case Roll:
		s.Rolled = !prev.Rolled
		s.MPCost = tu.Aero.RollThrust
	case Evade:
		if prev.Evading {
			fail(ReasonRepeat)
		}
		s.Evading = true
		s.MPCost = tu.Aero.EvadeThrust
	case Hover:
		if !p.entity.InAtmosphere() {
			fail(ReasonNotCapable)
		}
		if p.opts.Vector && prev.Hexes > 0 {
			fail(ReasonThrustLate)
		}
		s.Velocity = 0
		s.Vectors = hex.Vectors{}
		s.MPCost = tu.Aero.HoverThrust
	case Maneuver:
		def, ok := p.rules.Maneuver(c.Payload.Maneuver)
		switch {
		case !ok:
			fail(ReasonBadPayload)
		case prev.maneuvered:
			fail(ReasonRepeat)
		case prev.Velocity < def.MinVelocity:
			fail(ReasonVelocity)
		}
		s.Facing = prev.Facing.Turn(def.Facing)
		s.MPCost = def.Thrust
		s.maneuvered = true
	case Launch:
		if len(c.Payload.Units) == 0 {
			fail(ReasonBadPayload)
		}
	case Recover, Join:
		if c.Payload.Target == nil {
			fail(ReasonBadPayload)
		}
	case Stall:
		if !p.entity.InAtmosphere() {
			fail(ReasonNotCapable)
		}
		if prev.Velocity > tu.Aero.StallVelocity {
			fail(ReasonVelocity)
		}
		s.Airborne = false
	}

	s.CumulativeMP = prev.CumulativeMP + s.MPCost
	mt, r, d := p.budget(&s)
	s.MoveType = mt
	fail(r)
	if d != "" {
		s.Dangers = append(s.Dangers, d)
	}
	if aero {
		s.Fuel = prev.Fuel - s.MPCost*tu.Aero.FuelPerThrust
		if s.Fuel < 0 {
			fail(ReasonNoFuel)
		}
	}

	s.Legal = reason == ReasonNone
	s.Reason = reason
	s.baseLegal, s.baseReason = s.Legal, s.Reason
	return s
}

// statusGate refuses kinds the entity's condition rules out.
func (p *Path) statusGate(prev *Step, k StepKind) Reason {
	prof := p.entity.Profile
	st := prof.Status
	if prof.Class.Aerospace() && (st.Has(unit.OutOfControl) || st.Has(unit.PilotUnconscious) || p.start.Fuel <= 0) {
		if k.Translates() || k == OffBoard || k == Stall {
			return ReasonNone
		}
		return ReasonOutOfControl
	}
	if st.Has(unit.Immobile) || st.Has(unit.Shutdown) || st.Has(unit.PilotUnconscious) {
		if k == Eject || k == Flee {
			return ReasonNone
		}
		return ReasonImmobile
	}
	if k.Turn() && p.entity.CannotTurn() {
		return ReasonOutOfControl
	}
	if prev.Prone {
		switch k {
		case GetUp, HullDown, Eject:
		case StartJump:
			if !p.rules.Capability(prof.Class).CanJump {
				return ReasonProne
			}
		default:
			return ReasonProne
		}
	}
	if prev.stuck {
		switch {
		case k == StartJump && !st.Has(unit.CanUnstickByJump):
			return ReasonStuck
		case k.Translates() && !prev.Jumping:
			return ReasonStuck
		}
	}
	return ReasonNone
}

// enter moves s one hex from prev in direction dir and prices the entry.
func (p *Path) enter(s *Step, prev *Step, dir hex.Facing, fail func(Reason)) {
	prof := p.entity.Profile
	capab := p.rules.Capability(prof.Class)
	to := prev.Pos.Neighbor(dir)

	s.Pos = to
	s.Hexes = prev.Hexes + 1
	if p.opts.Vector && prev.Hexes == 0 {
		s.route = VectorRoute(prev.Pos, prev.Vectors)
	}
	s.HullDown = false
	if s.Kind.backward() {
		s.backwards = true
	}
	if !p.board.InBounds(to) {
		fail(ReasonOffBoard)
		s.MPCost = 1
		return
	}
	h := p.board.Hex(to)
	s.level = h.Level

	switch {
	case prof.Class.Aerospace():
		switch {
		case p.opts.Vector:
			if !onRoute(s.route, prev.Hexes, to) {
				fail(ReasonVelocity)
			}
		case s.Hexes > s.Velocity:
			fail(ReasonVelocity)
		}
		return
	case prev.Jumping:
		s.MPCost = 1
		if h.Level-p.board.Hex(p.start.Pos).Level > prof.Jump {
			fail(ReasonTooSteep)
		}
		return
	case capab.Flies:
		s.MPCost = 1
		if s.Elevation <= 0 {
			fail(ReasonElevation)
		}
		return
	}

	tu := p.rules.Tuning
	water := p.rules.water(h)
	cost := 1
	if p.opts.Swim {
		if !water {
			fail(ReasonImpassable)
		}
	} else {
		if tc := p.rules.terrainCost(prof.Class, h.Terrain); tc < 0 {
			fail(ReasonImpassable)
		} else {
			cost += tc
		}
		switch capab.Water {
		case WaterNone:
			if water {
				fail(ReasonWater)
			}
		case WaterShallow:
			if water && h.Depth > 1 {
				fail(ReasonWater)
			} else if water {
				cost += tu.WaterCost(h.Depth)
			}
		case WaterWade:
			if water {
				cost += tu.WaterCost(h.Depth)
			}
		case WaterRequired:
			if !water {
				fail(ReasonImpassable)
			}
		}
		if capab.Water != WaterRequired {
			climb := abs(h.Level - prev.level)
			if climb > capab.MaxClimb {
				fail(ReasonTooSteep)
			}
			cost += climb
		}
	}
	if p.rules.hazardous(h) {
		s.Dangers = append(s.Dangers, DangerHazard)
	}
	if !s.Kind.Attack() && h.Others(p.entity.ID) >= tu.StackingLimit {
		fail(ReasonStacking)
	}
	s.MPCost = cost
}

// budget classifies the cumulative cost against the entity's allowances.
func (p *Path) budget(s *Step) (MoveType, Reason, Danger) {
	prof := p.entity.Profile
	cum := s.CumulativeMP
	switch {
	case prof.Class.Aerospace():
		switch {
		case cum == 0:
			return MoveNone, ReasonNone, ""
		case cum <= prof.SafeThrust:
			return MoveSafeThrust, ReasonNone, ""
		case cum <= prof.ThrustBudget():
			return MoveOverThrust, ReasonNone, DangerHighG
		}
		return MoveOverThrust, ReasonOverBudget, ""
	case s.Jumping:
		if cum > prof.Jump {
			return MoveJump, ReasonOverBudget, ""
		}
		return MoveJump, ReasonNone, ""
	case p.opts.Swim:
		if cum > prof.Swim {
			return MoveSwim, ReasonOverBudget, ""
		}
		return MoveSwim, ReasonNone, ""
	}
	switch {
	case cum == 0:
		return MoveNone, ReasonNone, ""
	case cum <= prof.Walk:
		return MoveWalk, ReasonNone, ""
	case s.backwards:
		return MoveWalk, ReasonOverBudget, ""
	case cum <= prof.RunBudget():
		return MoveRun, ReasonNone, ""
	case cum <= prof.BoostBudget():
		return MoveBoost, ReasonNone, DangerBoostedRun
	}
	return MoveRun, ReasonOverBudget, ""
}

func (p *Path) restoreLast() {
	if s := p.Last(); s != nil {
		s.Legal, s.Reason = s.baseLegal, s.baseReason
	}
}

// applyEndRules re-evaluates the rules that only bind the final step: an
// attack needs a target and a jump must land somewhere it can stand.
func (p *Path) applyEndRules() {
	s := p.Last()
	if s == nil {
		return
	}
	s.Legal, s.Reason = s.baseLegal, s.baseReason
	if !s.Legal {
		return
	}
	if r := p.endReason(s); r != ReasonNone {
		s.Legal, s.Reason = false, r
	}
}

func (p *Path) endReason(s *Step) Reason {
	if s.Kind.Attack() && s.Payload.Target == nil {
		return ReasonNoTarget
	}
	if !s.Jumping || s.Hexes == 0 || s.Kind == DFA || !p.board.InBounds(s.Pos) {
		return ReasonNone
	}
	prof := p.entity.Profile
	h := p.board.Hex(s.Pos)
	if h.Others(p.entity.ID) >= p.rules.Tuning.StackingLimit {
		return ReasonStacking
	}
	if p.rules.terrainCost(prof.Class, h.Terrain) < 0 {
		return ReasonImpassable
	}
	if p.rules.water(h) {
		switch p.rules.Capability(prof.Class).Water {
		case WaterNone:
			return ReasonWater
		case WaterShallow:
			if h.Depth > 1 {
				return ReasonWater
			}
		}
	}
	return ReasonNone
}

// VectorRoute is the line a craft at from flies with velocity v, start
// excluded.
func VectorRoute(from hex.Pos, v hex.Vectors) []hex.LineHex {
	return hex.Line(from, from.Add(v.Normalize().Displacement()))[1:]
}

// onRoute reports whether to is the i-th hex of route or, on a split, either
// candidate.
func onRoute(route []hex.LineHex, i int, to hex.Pos) bool {
	if i >= len(route) {
		return false
	}
	return slices.Contains(route[i].Candidates(), to)
}

// FliesFullVector reports whether a vector path covers its whole
// displacement. Leaving the board or ramming ends the flight early; every
// other vector path must reach the end of its route. Ground paths always
// pass.
func (p *Path) FliesFullVector() bool {
	if !p.opts.Vector {
		return true
	}
	s := p.tail()
	if s.OffBoard || s.Kind == Ram {
		return true
	}
	if s.Hexes == 0 {
		return s.Vectors.Normalize().Displacement() == (hex.Pos{})
	}
	return s.Hexes == len(s.route)
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
