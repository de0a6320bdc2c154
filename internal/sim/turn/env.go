package turn

import (
	"context"

	"hexmove.ai/internal/sim/attack"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

// Env is the controller's view of the game and network collaborators. Every
// field is optional; a nil function reads as "nothing".
type Env struct {
	EligibleFn func() []string
	ActiveFn   func() string
	EntityFn   func(id string) *unit.Entity
	BoardFn    func() move.Board
	TargetsFn  func() attack.Targets
	CommitFn   func(ctx context.Context, sub Submission) error
}

func (e Env) Eligible() []string {
	if e.EligibleFn == nil {
		return nil
	}
	return e.EligibleFn()
}

func (e Env) Active() string {
	if e.ActiveFn == nil {
		return ""
	}
	return e.ActiveFn()
}

func (e Env) Entity(id string) *unit.Entity {
	if e.EntityFn == nil {
		return nil
	}
	return e.EntityFn(id)
}

func (e Env) Board() move.Board {
	if e.BoardFn == nil {
		return nil
	}
	return e.BoardFn()
}

func (e Env) Targets() attack.Targets {
	if e.TargetsFn == nil {
		return nil
	}
	return e.TargetsFn()
}

func (e Env) Commit(ctx context.Context, sub Submission) error {
	if e.CommitFn == nil {
		return ErrNoCommitter
	}
	return e.CommitFn(ctx, sub)
}
