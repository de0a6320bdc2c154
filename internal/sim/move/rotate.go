package move

import "hexmove.ai/internal/sim/hex"

// RotateToFacing appends the fewest turn steps that bring the path to target
// without translating and returns how many were added. A half turn is one
// yaw when the class has it. Units that cannot turn get nothing.
func (p *Path) RotateToFacing(target hex.Facing) int {
	if p.entity.CannotTurn() {
		return 0
	}
	cmds := p.turnCommands(p.tail().Facing, target)
	for _, c := range cmds {
		p.push(c)
	}
	p.applyEndRules()
	return len(cmds)
}

func (p *Path) turnCommands(from, to hex.Facing) []Command {
	n, cw := from.TurnsTo(to)
	if n == 0 {
		return nil
	}
	if n == 3 && p.rules.Allows(p.entity.Profile.Class, Yaw) {
		return []Command{{Kind: Yaw, Payload: NoPayload()}}
	}
	k := TurnLeft
	if cw {
		k = TurnRight
	}
	out := make([]Command, n)
	for i := range out {
		out[i] = Command{Kind: k, Payload: NoPayload()}
	}
	return out
}

// turnsBetween is the step count turnCommands would emit.
func (p *Path) turnsBetween(from, to hex.Facing) int {
	n, _ := from.TurnsTo(to)
	if n == 3 && p.rules.Allows(p.entity.Profile.Class, Yaw) {
		return 1
	}
	return n
}
