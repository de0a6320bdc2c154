package attack

import (
	"errors"
	"testing"

	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

type board struct{}

func (board) InBounds(p hex.Pos) bool  { return hex.Distance(hex.Pos{}, p) <= 10 }
func (board) Hex(hex.Pos) move.HexInfo { return move.HexInfo{Terrain: "CLEAR"} }

type targets map[hex.Pos][]Candidate

func (t targets) TargetsAt(p hex.Pos) []Candidate { return t[p] }

func unitAt(id string, p hex.Pos, cls unit.Class, tons int) Candidate {
	return Candidate{Ref: move.TargetRef{Kind: move.TargetUnit, ID: id, Pos: p}, Class: cls, Tonnage: tons}
}

func attacker() *unit.Entity {
	return &unit.Entity{
		ID:      "a",
		Profile: unit.Profile{Class: unit.Biped, Walk: 4, Run: 6, Jump: 3, Tonnage: 60, Piloting: 5},
		State:   unit.State{Facing: hex.N},
	}
}

func TestBegin_EmptyHexLeavesPathAlone(t *testing.T) {
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	p.AddStep(move.TurnRight, move.NoPayload())

	i := NewInterceptor(targets{}, nil)
	_, err := i.Begin(p, hex.Pos{Q: 0, R: 2}, move.GearCharge)
	if !errors.Is(err, ErrNoTarget) {
		t.Fatalf("err=%v want ErrNoTarget", err)
	}
	if p.Len() != 1 || p.Last().Kind != move.TurnRight {
		t.Fatalf("path changed: len=%d", p.Len())
	}
	if i.Active() {
		t.Fatalf("interceptor left active")
	}
}

func TestBegin_SelfIsNotACandidate(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 1}
	tg := targets{dest: {unitAt("a", dest, unit.Biped, 60)}}
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	if _, err := NewInterceptor(tg, nil).Begin(p, dest, move.GearCharge); !errors.Is(err, ErrNoTarget) {
		t.Fatalf("err=%v", err)
	}
}

func TestChargeAcceptAttachesTarget(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 3}
	tg := targets{dest: {unitAt("t1", dest, unit.Biped, 50)}}
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	i := NewInterceptor(tg, nil)

	pend, err := i.Begin(p, dest, move.GearCharge)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	if pend.NeedChoice || !pend.Preview.Feasible {
		t.Fatalf("pending=%+v", pend)
	}
	// 60 tons over 3 hexes, 50 tons back.
	if pend.Preview.DamageToTarget != 18 || pend.Preview.DamageToAttacker != 5 {
		t.Fatalf("damage=%d/%d", pend.Preview.DamageToTarget, pend.Preview.DamageToAttacker)
	}
	if err := i.Resolve(true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	last := p.Last()
	if last.Kind != move.Charge || last.Payload.Target == nil || last.Payload.Target.ID != "t1" || !p.Possible() {
		t.Fatalf("last=%+v possible=%v", last, p.Possible())
	}
}

func TestRejectEmptiesPath(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 2}
	tg := targets{dest: {unitAt("t1", dest, unit.Biped, 50)}}
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	i := NewInterceptor(tg, nil)
	if _, err := i.Begin(p, dest, move.GearCharge); err != nil {
		t.Fatalf("begin: %v", err)
	}
	if err := i.Resolve(false); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if p.Len() != 0 {
		t.Fatalf("path len=%d after reject", p.Len())
	}
	if err := i.Resolve(true); !errors.Is(err, ErrNoPending) {
		t.Fatalf("second resolve err=%v", err)
	}
}

func TestMultipleCandidatesNeedChoice(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 2}
	bld := Candidate{Ref: move.TargetRef{Kind: move.TargetBuilding, ID: "b1", Pos: dest}}
	tg := targets{dest: {bld, unitAt("z", dest, unit.Infantry, 3), unitAt("k", dest, unit.Tracked, 40)}}
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	i := NewInterceptor(tg, nil)

	pend, err := i.Begin(p, dest, move.GearCharge)
	if err != nil || !pend.NeedChoice {
		t.Fatalf("pending=%+v err=%v", pend, err)
	}
	ids := []string{pend.Candidates[0].Ref.ID, pend.Candidates[1].Ref.ID, pend.Candidates[2].Ref.ID}
	if ids[0] != "k" || ids[1] != "z" || ids[2] != "b1" {
		t.Fatalf("order=%v", ids)
	}
	if _, err := i.Choose(7); !errors.Is(err, ErrBadChoice) {
		t.Fatalf("err=%v", err)
	}
	if _, err := i.Choose(2); err != nil {
		t.Fatalf("choose building: %v", err)
	}
	if err := i.Resolve(true); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tgt := p.Last().Payload.Target; tgt == nil || tgt.Kind != move.TargetBuilding {
		t.Fatalf("target=%+v", tgt)
	}
}

func TestInfeasibleRevertsPath(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 8}
	tg := targets{dest: {unitAt("t1", dest, unit.Biped, 50)}}
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	i := NewInterceptor(tg, nil)

	pend, err := i.Begin(p, dest, move.GearCharge)
	if !errors.Is(err, ErrInfeasible) {
		t.Fatalf("err=%v", err)
	}
	if pend.Preview.Reason != string(move.ReasonOverBudget) || p.Len() != 0 || i.Active() {
		t.Fatalf("reason=%s len=%d active=%v", pend.Preview.Reason, p.Len(), i.Active())
	}
}

func TestRamNeedsAerospaceTarget(t *testing.T) {
	e := &unit.Entity{
		ID:      "f",
		Profile: unit.Profile{Class: unit.AeroSpace, SafeThrust: 5, MaxThrust: 8, Tonnage: 50},
		State:   unit.State{Facing: hex.N, Velocity: 4, Fuel: 20, InSpace: true},
	}
	dest := hex.Pos{Q: 0, R: 2}
	for _, c := range []struct {
		cls  unit.Class
		want error
	}{
		{unit.Tracked, ErrInfeasible},
		{unit.AeroSpace, nil},
	} {
		tg := targets{dest: {unitAt("t", dest, c.cls, 40)}}
		p := move.New(move.DefaultRules(), board{}, e, move.Options{})
		_, err := NewInterceptor(tg, nil).Begin(p, dest, move.GearRam)
		if !errors.Is(err, c.want) && !(c.want == nil && err == nil) {
			t.Fatalf("%s: err=%v", c.cls, err)
		}
	}
}

func TestCancelRevertsPath(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 2}
	cases := []struct {
		name  string
		cands []Candidate
	}{
		{"after preview", []Candidate{unitAt("t1", dest, unit.Biped, 50)}},
		{"awaiting choice", []Candidate{unitAt("t1", dest, unit.Biped, 50), unitAt("t2", dest, unit.Biped, 30)}},
	}
	for _, tc := range cases {
		p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
		p.AddStep(move.TurnRight, move.NoPayload())
		i := NewInterceptor(targets{dest: tc.cands}, nil)
		if _, err := i.Begin(p, dest, move.GearCharge); err != nil {
			t.Fatalf("%s: begin: %v", tc.name, err)
		}
		i.Cancel()
		if p.Len() != 0 || i.Active() {
			t.Fatalf("%s: len=%d active=%v", tc.name, p.Len(), i.Active())
		}
		if err := i.Resolve(true); !errors.Is(err, ErrNoPending) {
			t.Fatalf("%s: resolve after cancel err=%v", tc.name, err)
		}
	}
}

func TestPlanReplacesPathfinding(t *testing.T) {
	dest := hex.Pos{Q: 0, R: 2}
	tg := targets{dest: {unitAt("t1", dest, unit.Biped, 50)}}
	p := move.New(move.DefaultRules(), board{}, attacker(), move.Options{})
	i := NewInterceptor(tg, nil)
	var planned []hex.Pos
	i.Plan = func(p *move.Path, dest hex.Pos, _ move.Gear) {
		planned = append(planned, dest)
		p.AddStep(move.TurnRight, move.NoPayload())
	}

	pend, err := i.Begin(p, dest, move.GearCharge)
	if !errors.Is(err, ErrInfeasible) || pend.Preview.Reason != "NO_PATH" {
		t.Fatalf("pending=%+v err=%v", pend, err)
	}
	if len(planned) != 1 || planned[0] != dest || p.Len() != 0 {
		t.Fatalf("planned=%v len=%d", planned, p.Len())
	}
}

func TestRamDamageScalesWithClosingSpeed(t *testing.T) {
	att := &unit.Entity{ID: "f", Profile: unit.Profile{Class: unit.AeroSpace, Tonnage: 50, Piloting: 5}}
	cases := []struct {
		name       string
		velocity   int
		hexes      int
		targetVel  int
		toTarget   int
		toAttacker int
	}{
		{"at rest", 0, 0, 0, 5, 4},
		{"one hex", 1, 1, 0, 5, 4},
		{"flew further than velocity", 1, 4, 0, 20, 16},
		{"velocity beyond hexes", 3, 2, 0, 15, 12},
		{"closing target", 2, 2, 2, 20, 16},
	}
	for _, tc := range cases {
		pv := BasicResolver{}.Evaluate(Attack{
			Kind:     move.Ram,
			Attacker: att,
			Target:   Candidate{Class: unit.AeroSpace, Tonnage: 40, Velocity: tc.targetVel},
			Hexes:    tc.hexes,
			Velocity: tc.velocity,
		})
		if pv.DamageToTarget != tc.toTarget || pv.DamageToAttacker != tc.toAttacker {
			t.Fatalf("%s: damage=%d/%d want %d/%d", tc.name, pv.DamageToTarget, pv.DamageToAttacker, tc.toTarget, tc.toAttacker)
		}
	}
}

func TestHitChance(t *testing.T) {
	cases := map[int]float64{2: 1, 7: 21.0 / 36, 12: 1.0 / 36, 13: 0}
	for tn, want := range cases {
		if got := hitChance(tn); got != want {
			t.Fatalf("hitChance(%d)=%v want %v", tn, got, want)
		}
	}
}
