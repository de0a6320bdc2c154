package authority

import (
	"fmt"
	"slices"

	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/attack"
	"hexmove.ai/internal/sim/encoding"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/move"
)

// ruling is the outcome of replaying one submission against the state.
type ruling struct {
	code    string
	message string
	cmds    []move.Command
	path    *move.Path
}

func (r ruling) accepted() bool { return r.code == "" }

func reject(code, format string, args ...any) ruling {
	return ruling{code: code, message: fmt.Sprintf(format, args...)}
}

// rule replays msg with the authority's own rules and board. The client's
// claim must match the replay exactly; the authority never trusts it.
func rule(rules *move.Rules, s *game.State, player string, msg protocol.MovePathMsg) ruling {
	e := s.Entity(msg.EntityID)
	if e == nil {
		return reject(protocol.ErrUnknownEntity, "no entity %q", msg.EntityID)
	}
	if e.Owner != player || s.Active() != e.ID {
		return reject(protocol.ErrNotYourTurn, "active is %q", s.Active())
	}
	cmds, err := encoding.StepsFromWire(msg.Steps)
	if err != nil {
		return reject(protocol.ErrBadRequest, "%v", err)
	}
	if msg.Vector && !e.Profile.Class.Aerospace() {
		return reject(protocol.ErrBadRequest, "vector movement for %s", e.Profile.Class)
	}

	opts := move.Options{Vector: msg.Vector, Swim: msg.Swim}
	p := move.Replay(rules, s, e, e.State, opts, cmds)
	if !p.Possible() {
		bad := p.Steps()[p.Clipped().Len()]
		return ruling{
			code:    protocol.ErrIllegalPath,
			message: fmt.Sprintf("step %d %s: %s", p.Clipped().Len(), bad.Kind, bad.Reason),
			cmds:    cmds,
		}
	}
	if !p.FliesFullVector() {
		return ruling{
			code:    protocol.ErrIllegalPath,
			message: "vector path does not fly its full velocity",
			cmds:    cmds,
		}
	}
	if got := encoding.ClaimOf(p); got != msg.Claim {
		return ruling{
			code:    protocol.ErrReplayMismatch,
			message: fmt.Sprintf("claimed %+v, replay %+v", msg.Claim, got),
			cmds:    cmds,
		}
	}
	if last := p.Last(); last != nil && last.Payload.Target != nil && last.Kind.Attack() {
		t := last.Payload.Target
		ok := t.Pos == last.Pos && slices.ContainsFunc(s.TargetsAt(t.Pos), func(c attack.Candidate) bool { return c.Ref == *t })
		if !ok {
			return ruling{code: protocol.ErrInvalidTarget, message: fmt.Sprintf("no %s %q at %s", t.Kind, t.ID, t.Pos), cmds: cmds}
		}
	}
	return ruling{cmds: cmds, path: p}
}

// apply moves the entity to the path's final state and ends its turn.
func apply(s *game.State, id string, p *move.Path) {
	s.Apply(id, p.Final(), p.Last())
	s.EndTurn(id)
}
