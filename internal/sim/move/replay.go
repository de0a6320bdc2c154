package move

import (
	"errors"
	"fmt"

	"hexmove.ai/internal/sim/unit"
)

var ErrReplayMismatch = errors.New("replay mismatch")

// Replay rebuilds a path from its commands. The authority uses it to rule on
// a submitted path with its own board and rules.
func Replay(r *Rules, b Board, e *unit.Entity, start unit.State, opts Options, cmds []Command) *Path {
	p := newPath(r, b, e, start, opts)
	p.ReplaceTail(0, cmds)
	return p
}

// Verify replays p from its start and checks every step reproduces.
func (p *Path) Verify() error {
	return Compare(p, Replay(p.rules, p.board, p.entity, p.start, p.opts, p.Commands()))
}

// Compare reports the first step where a and b disagree.
func Compare(a, b *Path) error {
	if a.Len() != b.Len() {
		return fmt.Errorf("%w: %d steps vs %d", ErrReplayMismatch, a.Len(), b.Len())
	}
	for i := range a.steps {
		if !a.steps[i].SameOutcome(&b.steps[i]) {
			x, y := &a.steps[i], &b.steps[i]
			return fmt.Errorf("%w: step %d %s: %s f=%s mp=%d legal=%v vs %s f=%s mp=%d legal=%v",
				ErrReplayMismatch, i, x.Kind, x.Pos, x.Facing, x.CumulativeMP, x.Legal, y.Pos, y.Facing, y.CumulativeMP, y.Legal)
		}
	}
	return nil
}
