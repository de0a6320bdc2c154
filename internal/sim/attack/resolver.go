package attack

import "hexmove.ai/internal/sim/move"

// BasicResolver estimates physical attacks with the tabletop formulas:
// piloting plus movement modifiers to hit, tonnage-scaled damage.
type BasicResolver struct{}

func (BasicResolver) Evaluate(a Attack) Preview {
	att := a.Attacker.Profile
	tn := att.Piloting + movementModifier(a.MoveType) + targetModifier(a.Target)

	var toTarget, toAttacker int
	switch a.Kind {
	case move.Charge:
		toTarget = ceilDiv(att.Tonnage*max(a.Hexes, 1), 10)
		toAttacker = ceilDiv(a.Target.Tonnage, 10)
	case move.DFA:
		toTarget = ceilDiv(att.Tonnage*3, 10)
		toAttacker = ceilDiv(att.Tonnage, 5)
	case move.Ram:
		// The attacker closes at no less than the hexes it flew this turn.
		rel := max(max(a.Velocity, a.Hexes)+a.Target.Velocity, 1)
		toTarget = ceilDiv(att.Tonnage*rel, 10)
		toAttacker = ceilDiv(a.Target.Tonnage*rel, 10)
	default:
		return Preview{Reason: "NOT_AN_ATTACK"}
	}
	if tn < 2 {
		tn = 2
	}
	pv := Preview{
		Feasible:         tn <= 12,
		TargetNumber:     tn,
		ToHit:            hitChance(tn),
		DamageToTarget:   toTarget,
		DamageToAttacker: toAttacker,
	}
	if !pv.Feasible {
		pv.Reason = "IMPOSSIBLE_ROLL"
	}
	return pv
}

func movementModifier(mt move.MoveType) int {
	switch mt {
	case move.MoveWalk:
		return 1
	case move.MoveRun, move.MoveBoost:
		return 2
	case move.MoveJump:
		return 3
	}
	return 0
}

func targetModifier(c Candidate) int {
	if c.Ref.Kind == move.TargetBuilding {
		return -4
	}
	mod := hexesModifier(c.Velocity)
	if c.Prone {
		mod -= 2
	}
	return mod
}

// hexesModifier is the defender's movement modifier by hexes moved.
func hexesModifier(hexes int) int {
	switch {
	case hexes <= 2:
		return 0
	case hexes <= 4:
		return 1
	case hexes <= 6:
		return 2
	case hexes <= 9:
		return 3
	case hexes <= 17:
		return 4
	case hexes <= 24:
		return 5
	}
	return 6
}

// hitChance is the probability that 2d6 rolls at least tn.
func hitChance(tn int) float64 {
	if tn <= 2 {
		return 1
	}
	if tn > 12 {
		return 0
	}
	n := 0
	for a := 1; a <= 6; a++ {
		for b := 1; b <= 6; b++ {
			if a+b >= tn {
				n++
			}
		}
	}
	return float64(n) / 36
}

func ceilDiv(a, b int) int { return (a + b - 1) / b }
