package authority

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"hexmove.ai/internal/logging"
	plog "hexmove.ai/internal/persistence/log"
	"hexmove.ai/internal/persistence/snapshot"
	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/encoding"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/unit"
)

type memSink struct{ entries []plog.Entry }

func (m *memSink) WriteEntry(e plog.Entry) error {
	m.entries = append(m.entries, e)
	return nil
}

func loadScenario(t *testing.T) *game.State {
	t.Helper()
	s, err := game.LoadScenario(filepath.Join("..", "..", "..", "configs", "scenario.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	return s
}

func newAuthority(t *testing.T, s *game.State, cfg Config, sinks Sinks) *Authority {
	t.Helper()
	a, err := New(move.DefaultRules(), nil, s, cfg, sinks, logging.Nop())
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	return a
}

// pathMsg builds the message a well-behaved client would send for kinds.
func pathMsg(s *game.State, id string, kinds ...move.StepKind) protocol.MovePathMsg {
	p := move.New(move.DefaultRules(), s, s.Entity(id), move.Options{})
	for _, k := range kinds {
		p.AddStep(k, move.NoPayload())
	}
	return encoding.MovePath("P-"+id, p, false)
}

func TestMovePath_Accepted(t *testing.T) {
	s := loadScenario(t)
	journal, audit := &memSink{}, &memSink{}
	a := newAuthority(t, s, Config{}, Sinks{Journal: journal, Audit: audit})

	msg := pathMsg(s, "hunchback", move.Forward, move.Forward)
	res := a.handleMovePath("red", msg)
	if !res.Accepted || res.StepsApplied != 2 || res.Final == nil || res.Final.R != -2 || res.Final.MP != 2 {
		t.Fatalf("res=%+v", res)
	}
	if got := s.Entity("hunchback").State.Pos; got != (hex.Pos{Q: 0, R: -2}) {
		t.Fatalf("pos=%s", got)
	}
	if s.Active() != "wasp" {
		t.Fatalf("active=%s", s.Active())
	}
	if res.StateDigest != encoding.Digest(s) {
		t.Fatalf("digest mismatch")
	}
	if len(journal.entries) != 1 || len(audit.entries) != 1 {
		t.Fatalf("journal=%d audit=%d", len(journal.entries), len(audit.entries))
	}
	e := journal.entries[0]
	if e.Seq != 1 || e.MP != 2 || e.AfterDigest != res.StateDigest || e.BeforeDigest == e.AfterDigest {
		t.Fatalf("entry=%+v", e)
	}
}

func TestMovePath_Rejections(t *testing.T) {
	cases := []struct {
		name   string
		player string
		msg    func(s *game.State) protocol.MovePathMsg
		code   string
	}{
		{"unknown entity", "red", func(s *game.State) protocol.MovePathMsg {
			m := pathMsg(s, "hunchback", move.Forward)
			m.EntityID = "ghost"
			return m
		}, protocol.ErrUnknownEntity},
		{"not active", "red", func(s *game.State) protocol.MovePathMsg {
			return pathMsg(s, "wasp", move.Forward)
		}, protocol.ErrNotYourTurn},
		{"not owner", "blue", func(s *game.State) protocol.MovePathMsg {
			return pathMsg(s, "hunchback", move.Forward)
		}, protocol.ErrNotYourTurn},
		{"unknown kind", "red", func(s *game.State) protocol.MovePathMsg {
			m := pathMsg(s, "hunchback", move.Forward)
			m.Steps[0].Kind = "TELEPORT"
			return m
		}, protocol.ErrBadRequest},
		{"vector mech", "red", func(s *game.State) protocol.MovePathMsg {
			m := pathMsg(s, "hunchback", move.Forward)
			m.Vector = true
			return m
		}, protocol.ErrBadRequest},
		{"claim mismatch", "red", func(s *game.State) protocol.MovePathMsg {
			m := pathMsg(s, "hunchback", move.Forward)
			m.Claim.MP = 5
			return m
		}, protocol.ErrReplayMismatch},
		{"over budget", "red", func(s *game.State) protocol.MovePathMsg {
			return pathMsg(s, "hunchback", move.Forward, move.Forward, move.Forward, move.Forward, move.Forward, move.Forward, move.Forward)
		}, protocol.ErrIllegalPath},
		{"missing target", "red", func(s *game.State) protocol.MovePathMsg {
			p := move.New(move.DefaultRules(), s, s.Entity("hunchback"), move.Options{})
			p.AddStep(move.Forward, move.NoPayload())
			p.AddStep(move.Charge, move.WithTarget(move.TargetRef{Kind: move.TargetUnit, ID: "ghost", Pos: hex.Pos{Q: 0, R: -2}}))
			return encoding.MovePath("P-charge", p, false)
		}, protocol.ErrInvalidTarget},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := loadScenario(t)
			journal, audit := &memSink{}, &memSink{}
			a := newAuthority(t, s, Config{}, Sinks{Journal: journal, Audit: audit})
			before := encoding.Digest(s)

			res := a.handleMovePath(tc.player, tc.msg(s))
			if res.Accepted || res.Code != tc.code {
				t.Fatalf("res=%+v want %s", res, tc.code)
			}
			if !protocol.IsKnownCode(res.Code) {
				t.Fatalf("unknown code %s", res.Code)
			}
			if encoding.Digest(s) != before || s.Active() != "hunchback" {
				t.Fatalf("state changed on rejection")
			}
			if len(journal.entries) != 0 || len(audit.entries) != 1 || audit.entries[0].Code != tc.code {
				t.Fatalf("journal=%d audit=%+v", len(journal.entries), audit.entries)
			}
		})
	}
}

func TestMovePath_EmptyPathEndsTurn(t *testing.T) {
	s := loadScenario(t)
	a := newAuthority(t, s, Config{}, Sinks{})
	start := s.Entity("hunchback").State

	res := a.handleMovePath("red", pathMsg(s, "hunchback"))
	if !res.Accepted || res.StepsApplied != 0 {
		t.Fatalf("res=%+v", res)
	}
	if s.Entity("hunchback").State != start || s.Active() != "wasp" {
		t.Fatalf("state=%+v active=%s", s.Entity("hunchback").State, s.Active())
	}
}

func TestMovePath_VectorFollowsVelocity(t *testing.T) {
	cases := []struct {
		name    string
		vectors hex.Vectors
		kinds   []move.StepKind
		code    string
	}{
		{"free flight at rest", hex.Vectors{}, []move.StepKind{move.Forward, move.Forward, move.LateralRight}, protocol.ErrIllegalPath},
		{"stops short", hex.Vectors{hex.N: 2}, []move.StepKind{move.Forward}, protocol.ErrIllegalPath},
		{"full velocity", hex.Vectors{hex.N: 2}, []move.StepKind{move.Forward, move.Forward}, ""},
		{"drift at rest", hex.Vectors{}, nil, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := game.New(8)
			err := s.AddEntity(&unit.Entity{
				ID:      "dart",
				Owner:   "red",
				Profile: unit.Profile{Class: unit.AeroSpace, SafeThrust: 3, MaxThrust: 5, Tonnage: 20},
				State:   unit.State{Vectors: tc.vectors, Fuel: 10, InSpace: true},
			})
			if err != nil {
				t.Fatalf("add: %v", err)
			}
			a := newAuthority(t, s, Config{}, Sinks{})

			p := move.New(move.DefaultRules(), s, s.Entity("dart"), move.Options{Vector: true})
			for _, k := range tc.kinds {
				p.AddStep(k, move.NoPayload())
			}
			res := a.handleMovePath("red", encoding.MovePath("P-dart", p, false))
			if res.Code != tc.code || res.Accepted != (tc.code == "") {
				t.Fatalf("res=%+v want %q", res, tc.code)
			}
		})
	}
}

// playRound moves every entity once in scenario turn order.
func playRound(t *testing.T, a *Authority, s *game.State) {
	t.Helper()
	moves := []struct {
		player string
		id     string
		kinds  []move.StepKind
	}{
		{"red", "hunchback", []move.StepKind{move.Forward, move.TurnRight, move.Forward}},
		{"red", "wasp", []move.StepKind{move.Forward}},
		{"blue", "bulldog", []move.StepKind{move.TurnLeft}},
		{"blue", "sparrowhawk", nil},
	}
	for _, m := range moves {
		if res := a.handleMovePath(m.player, pathMsg(s, m.id, m.kinds...)); !res.Accepted {
			t.Fatalf("%s: %+v", m.id, res)
		}
	}
}

func TestJournal_ReplaysToSameState(t *testing.T) {
	dir := t.TempDir()
	s := loadScenario(t)
	journal := plog.NewJournalLogger(dir)
	a := newAuthority(t, s, Config{GameID: "g", SnapshotDir: filepath.Join(dir, "snapshots"), SnapshotEveryRounds: 1}, Sinks{Journal: journal})

	// A rejection in between must not disturb the journal.
	a.handleMovePath("blue", pathMsg(s, "hunchback", move.Forward))
	playRound(t, a, s)
	if s.Round() != 2 {
		t.Fatalf("round=%d", s.Round())
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	entries, err := plog.ReadJournal(dir)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(entries) != 4 {
		t.Fatalf("entries=%d", len(entries))
	}
	fresh := loadScenario(t)
	n, err := ReplayJournal(move.DefaultRules(), fresh, entries)
	if err != nil || n != 4 {
		t.Fatalf("replay n=%d err=%v", n, err)
	}
	if encoding.Digest(fresh) != encoding.Digest(s) {
		t.Fatalf("replayed state differs")
	}

	// Tampering with a journal entry is caught.
	entries[1].AfterDigest = "bogus"
	if _, err := ReplayJournal(move.DefaultRules(), loadScenario(t), entries); err == nil {
		t.Fatalf("expected digest mismatch")
	}

	path, err := snapshot.Latest(filepath.Join(dir, "snapshots"))
	if err != nil || path == "" {
		t.Fatalf("latest=%q err=%v", path, err)
	}
	snap, err := snapshot.ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read snapshot: %v", err)
	}
	if snap.Header.Round != 2 || snap.Header.Seq != 5 {
		t.Fatalf("header=%+v", snap.Header)
	}
	restored, err := Restore(move.DefaultRules(), snap)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if encoding.Digest(restored) != encoding.Digest(s) {
		t.Fatalf("restored state differs")
	}
}

func TestRun_ConnectSubmitBroadcast(t *testing.T) {
	s := loadScenario(t)
	msg := pathMsg(s, "hunchback", move.Forward)
	a := newAuthority(t, s, Config{}, Sinks{})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	go func() { _ = a.Run(ctx) }()

	if _, err := a.Connect(ctx, "green", nil); err == nil {
		t.Fatalf("expected unknown player")
	}
	out := make(chan []byte, 4)
	jr, err := a.Connect(ctx, "blue", out)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	if jr.SessionID == "" || jr.Welcome.RulesDigest == "" || jr.Welcome.Board.Radius != 8 || jr.State.Active != "hunchback" {
		t.Fatalf("join=%+v", jr)
	}

	res, err := a.Submit(ctx, "red", msg)
	if err != nil || !res.Accepted {
		t.Fatalf("submit res=%+v err=%v", res, err)
	}
	select {
	case b := <-out:
		var st protocol.StateMsg
		if err := json.Unmarshal(b, &st); err != nil {
			t.Fatalf("state: %v", err)
		}
		if st.Active != "wasp" || st.StateDigest != res.StateDigest {
			t.Fatalf("state=%+v", st)
		}
	case <-ctx.Done():
		t.Fatalf("no broadcast")
	}

	a.Stop()
	<-a.Done()
	if a.Seq() != 1 {
		t.Fatalf("seq=%d", a.Seq())
	}
	if _, err := a.Submit(context.Background(), "red", msg); err != ErrStopped {
		t.Fatalf("submit after stop err=%v", err)
	}
}
