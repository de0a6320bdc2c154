// Package turn drives one player's movement turn: entity selection, path
// editing from pointer input, confirmation gates and the commit handoff.
package turn

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"github.com/rs/zerolog"

	"hexmove.ai/internal/logging"
	"hexmove.ai/internal/sim/attack"
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
	"hexmove.ai/internal/sim/vector"
)

var (
	ErrNotYourTurn = errors.New("not your turn")
	ErrNoCommitter = errors.New("no commit handler")
	ErrBadState    = errors.New("operation not valid in this state")
	ErrNotEligible = errors.New("entity not eligible")
)

type State int

const (
	Idle State = iota
	Selected
	Building
	PendingConfirm
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "IDLE"
	case Selected:
		return "SELECTED"
	case Building:
		return "BUILDING"
	case PendingConfirm:
		return "PENDING_CONFIRM"
	case Committed:
		return "COMMITTED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config carries the player's prompt preferences. A gate that is switched
// off is acknowledged implicitly.
type Config struct {
	ConfirmBoostedRun bool
	ConfirmHazard     bool
	ConfirmHighG      bool
	// AdvancedMovement flies aerospace units with vector movement.
	AdvancedMovement bool
	SplitPolicy      vector.SplitPolicy
	// DragLogEvery keeps one pointer-drag log line in N past the burst.
	DragLogEvery uint32
}

func DefaultConfig() Config {
	return Config{ConfirmBoostedRun: true, ConfirmHazard: true, ConfirmHighG: true, DragLogEvery: 50}
}

func (c Config) prompts(d move.Danger) bool {
	switch d {
	case move.DangerBoostedRun:
		return c.ConfirmBoostedRun
	case move.DangerHazard:
		return c.ConfirmHazard
	case move.DangerHighG:
		return c.ConfirmHighG
	}
	return true
}

// Submission is the finished path handed to the network collaborator.
type Submission struct {
	EntityID string
	Options  move.Options
	Start    unit.State
	Commands []move.Command
	Final    unit.State
	MP       int
	Forced   bool
}

type Controller struct {
	rules *move.Rules
	env   Env
	cfg   Config
	log   zerolog.Logger
	drag  zerolog.Logger

	state     State
	entityID  string
	gear      move.Gear
	path      *move.Path
	intercept *attack.Interceptor
	dangers   []move.Danger
	expansion vector.Expansion
}

func New(rules *move.Rules, env Env, cfg Config, log zerolog.Logger) *Controller {
	return &Controller{
		rules: rules,
		env:   env,
		cfg:   cfg,
		log:   log,
		drag:  logging.Sampled(log, max(cfg.DragLogEvery, 1)),
	}
}

func (c *Controller) State() State                  { return c.state }
func (c *Controller) Gear() move.Gear               { return c.gear }
func (c *Controller) EntityID() string              { return c.entityID }
func (c *Controller) PendingDangers() []move.Danger { return slices.Clone(c.dangers) }

// Expansion is the last vector expansion of the tentative path.
func (c *Controller) Expansion() vector.Expansion { return c.expansion }

// Tentative is the path being built; nil when nothing is selected. Callers
// must not mutate it.
func (c *Controller) Tentative() *move.Path { return c.path }

// EntirelyImpossible reports that committing now would move nothing; the
// commit control then reads "Done".
func (c *Controller) EntirelyImpossible() bool {
	return c.path == nil || c.path.EntirelyImpossible()
}

// StartPhase selects the first eligible entity.
func (c *Controller) StartPhase(ctx context.Context) error {
	c.reset()
	ids := c.env.Eligible()
	if len(ids) == 0 {
		c.log.Debug().Msg("movement phase: nothing eligible")
		return nil
	}
	return c.Select(ctx, ids[0])
}

// Select makes id the entity being moved and starts an empty path for it.
// An incapacitated entity gets its forced path committed immediately.
func (c *Controller) Select(ctx context.Context, id string) error {
	if c.env.Active() != id {
		return ErrNotYourTurn
	}
	if !slices.Contains(c.env.Eligible(), id) {
		return fmt.Errorf("%w: %s", ErrNotEligible, id)
	}
	e := c.env.Entity(id)
	if e == nil {
		return fmt.Errorf("%w: %s unknown", ErrNotEligible, id)
	}
	c.reset()
	c.entityID = id
	c.gear = move.GearWalk
	c.newPath()
	c.log.Debug().Str("entity", id).Str("class", e.Profile.Class.String()).Msg("selected")

	if e.Incapacitated() {
		return c.forced(ctx, e)
	}
	c.reexpand()
	c.settle()
	return nil
}

// Next abandons the current path and selects the following eligible entity.
// Turn order belongs to the authority: when that entity is not the active
// one, the active entity is reselected with an empty path instead.
func (c *Controller) Next(ctx context.Context) error {
	cur := c.entityID
	c.reset()
	ids := c.env.Eligible()
	if len(ids) == 0 {
		return nil
	}
	next := ids[(slices.Index(ids, cur)+1)%len(ids)]
	if active := c.env.Active(); next != active && slices.Contains(ids, active) {
		next = active
	}
	return c.Select(ctx, next)
}

// SetGear switches movement mode and discards the tentative path.
func (c *Controller) SetGear(g move.Gear) {
	if !c.editable() {
		return
	}
	c.gear = g
	c.newPath()
	c.reexpand()
	c.settle()
}

// PointerMove re-plans the tentative suffix toward dest.
func (c *Controller) PointerMove(dest hex.Pos) {
	if !c.editable() || c.path.Options().Vector {
		return
	}
	c.path.FindPathTo(dest, c.gear)
	c.drag.Debug().Str("entity", c.entityID).Stringer("dest", dest).Int("steps", c.path.Len()).Int("mp", c.path.TotalMP()).Msg("drag")
	c.settle()
}

// Click locks the path to dest. With an attack gear it opens the target
// decision instead; an empty hex yields attack.ErrNoTarget and leaves the
// path as it was.
func (c *Controller) Click(dest hex.Pos) (attack.Pending, error) {
	if !c.editable() {
		return attack.Pending{}, ErrNotYourTurn
	}
	if c.gear.Attack() {
		pend, err := c.intercept.Begin(c.path, dest, c.gear)
		c.afterAttack()
		if err != nil {
			c.log.Info().Err(err).Str("entity", c.entityID).Stringer("dest", dest).Msg("attack refused")
		}
		return pend, err
	}
	if !c.path.Options().Vector {
		c.path.FindPathTo(dest, c.gear)
		c.path.Lock()
	}
	c.settle()
	return attack.Pending{}, nil
}

func (c *Controller) ChooseTarget(idx int) (attack.Pending, error) {
	if !c.editable() {
		return attack.Pending{}, ErrNotYourTurn
	}
	pend, err := c.intercept.Choose(idx)
	c.afterAttack()
	return pend, err
}

func (c *Controller) ResolveAttack(accept bool) error {
	if !c.editable() {
		return ErrNotYourTurn
	}
	err := c.intercept.Resolve(accept)
	c.afterAttack()
	return err
}

// Rotate turns the unit in place toward f.
func (c *Controller) Rotate(f hex.Facing) int {
	if !c.editable() {
		return 0
	}
	n := c.path.RotateToFacing(f)
	c.reexpand()
	c.settle()
	return n
}

// AddStep appends an explicit action such as a thrust or a hull-down.
func (c *Controller) AddStep(k move.StepKind, pl move.Payload) {
	if !c.editable() {
		return
	}
	c.path.AddStep(k, pl)
	c.reexpand()
	c.settle()
}

// Undo removes the last player action. In vector mode the translation is
// derived, so the last non-translation command goes and the rest re-expands.
func (c *Controller) Undo() {
	if !c.editable() || c.path.Len() == 0 {
		return
	}
	if !c.path.Options().Vector {
		c.path.RemoveLastStep()
		c.settle()
		return
	}
	cmds := c.path.Commands()
	for i := len(cmds) - 1; i >= 0; i-- {
		k := cmds[i].Kind
		if k.Translates() || k == move.OffBoard {
			continue
		}
		c.path.ReplaceTail(0, slices.Delete(cmds, i, i+1))
		break
	}
	c.reexpand()
	c.settle()
}

// Cancel clears the path, returning Building to Selected.
func (c *Controller) Cancel() {
	if !c.editable() {
		return
	}
	c.intercept.Cancel()
	c.path.Clear()
	c.reexpand()
	c.settle()
}

// Commit clips the path and hands it off. When the clipped path trips a
// confirmation gate the controller waits in PendingConfirm and returns the
// dangers to acknowledge instead.
func (c *Controller) Commit(ctx context.Context) ([]move.Danger, error) {
	if !c.editable() {
		return nil, ErrNotYourTurn
	}
	if c.intercept.Active() {
		return nil, fmt.Errorf("%w: attack decision pending", ErrBadState)
	}
	clipped := c.committable()
	var gates []move.Danger
	for _, d := range clipped.NeedsConfirmation() {
		if c.cfg.prompts(d) {
			gates = append(gates, d)
		}
	}
	if len(gates) > 0 {
		c.dangers = gates
		c.state = PendingConfirm
		c.log.Debug().Str("entity", c.entityID).Strs("dangers", dangerNames(gates)).Msg("confirmation required")
		return gates, nil
	}
	return nil, c.handoff(ctx, clipped, false)
}

// Confirm answers a confirmation gate. Rejecting returns to editing.
func (c *Controller) Confirm(ctx context.Context, accept bool) error {
	if c.state != PendingConfirm {
		return ErrBadState
	}
	if c.env.Active() != c.entityID {
		return ErrNotYourTurn
	}
	c.dangers = nil
	if !accept {
		c.state = Building
		c.settle()
		return nil
	}
	return c.handoff(ctx, c.committable(), false)
}

// committable is the clipped path. A vector path is expanded again after
// clipping so that the craft still drifts its full velocity.
func (c *Controller) committable() *move.Path {
	p := c.path.Clipped()
	if !p.Options().Vector {
		return p
	}
	c.expansion = vector.Apply(p, c.cfg.SplitPolicy)
	return p.Clipped()
}

// forced builds the minimal path an incapacitated entity must take and
// commits it without player input.
func (c *Controller) forced(ctx context.Context, e *unit.Entity) error {
	p := c.path
	switch {
	case p.Options().Vector:
		c.expansion = vector.Apply(p, c.cfg.SplitPolicy)
	case e.Profile.Class.Aerospace():
		if e.State.Velocity <= c.rules.Tuning.Aero.StallVelocity && c.rules.Allows(e.Profile.Class, move.Stall) && e.InAtmosphere() {
			p.AddStep(move.Stall, move.NoPayload())
			break
		}
		for i := 0; i < e.State.Velocity; i++ {
			s := p.AddStep(move.Forward, move.NoPayload())
			if !p.Board().InBounds(s.Pos) {
				p.RemoveLastStep()
				p.AddStep(move.OffBoard, move.NoPayload())
				break
			}
		}
	}
	c.log.Info().Str("entity", e.ID).Int("steps", p.Len()).Msg("forced movement")
	return c.handoff(ctx, p.Clipped(), true)
}

func (c *Controller) handoff(ctx context.Context, p *move.Path, forced bool) error {
	sub := Submission{
		EntityID: c.entityID,
		Options:  p.Options(),
		Start:    p.Start(),
		Commands: p.Commands(),
		Final:    p.Final(),
		MP:       p.TotalMP(),
		Forced:   forced,
	}
	c.state = Committed
	c.path = nil
	err := c.env.Commit(ctx, sub)
	ev := c.log.Info()
	if err != nil {
		ev = c.log.Error().Err(err)
	}
	ev.Str("entity", sub.EntityID).Int("steps", len(sub.Commands)).Int("mp", sub.MP).Bool("forced", forced).Msg("commit")
	c.reset()
	if err != nil {
		return fmt.Errorf("commit %s: %w", sub.EntityID, err)
	}
	return nil
}

func (c *Controller) newPath() {
	e := c.env.Entity(c.entityID)
	opts := move.Options{
		Vector: c.cfg.AdvancedMovement && e.Profile.Class.Aerospace(),
		Swim:   c.gear == move.GearSwim,
	}
	c.path = move.New(c.rules, c.env.Board(), e, opts)
	c.intercept = attack.NewInterceptor(c.env.Targets(), nil)
	if opts.Vector {
		// A vector ram keeps the thrusts and can only end on the route.
		c.intercept.Plan = func(p *move.Path, dest hex.Pos, _ move.Gear) {
			c.expansion = vector.RamInto(p, c.cfg.SplitPolicy, dest)
		}
	}
	c.expansion = vector.Expansion{}
}

func (c *Controller) reexpand() {
	if c.path != nil && c.path.Options().Vector {
		c.expansion = vector.Apply(c.path, c.cfg.SplitPolicy)
	}
}

// afterAttack settles after an attack decision step. Once the decision is
// closed a vector path is expanded again, which keeps an accepted ram and
// restores the drift of a rejected one.
func (c *Controller) afterAttack() {
	if !c.intercept.Active() {
		c.reexpand()
	}
	c.settle()
}

// editable reports whether the path may be changed now. Turn ownership is
// the authority's; out-of-turn edits are ignored.
func (c *Controller) editable() bool {
	if c.path == nil || (c.state != Selected && c.state != Building) {
		return false
	}
	return c.env.Active() == c.entityID
}

func (c *Controller) settle() {
	if c.path == nil {
		c.state = Idle
		return
	}
	if c.path.Len() == 0 {
		c.state = Selected
	} else {
		c.state = Building
	}
}

func (c *Controller) reset() {
	c.state = Idle
	c.entityID = ""
	c.path = nil
	c.intercept = nil
	c.dangers = nil
	c.expansion = vector.Expansion{}
}

func dangerNames(ds []move.Danger) []string {
	out := make([]string, len(ds))
	for i, d := range ds {
		out[i] = string(d)
	}
	return out
}
