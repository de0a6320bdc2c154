package indexdb

import (
	"context"
	"path/filepath"
	"testing"

	plog "hexmove.ai/internal/persistence/log"
)

func TestSQLiteIndex_RulingsRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.sqlite")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	idx.RecordRules("movement", "abc123")
	_ = idx.WriteEntry(plog.Entry{Seq: 1, Round: 1, Player: "red", PathID: "P1", EntityID: "hunchback", Accepted: true, StepsApplied: 3, MP: 3, BeforeDigest: "d0", AfterDigest: "d1"})
	_ = idx.WriteEntry(plog.Entry{Seq: 2, Round: 1, Player: "red", PathID: "P2", EntityID: "hunchback", Code: "E_NOT_YOUR_TURN", BeforeDigest: "d1"})
	_ = idx.WriteEntry(plog.Entry{Seq: 3, Round: 1, Player: "blue", PathID: "P3", EntityID: "bulldog", Accepted: true, BeforeDigest: "d1"})
	if err := idx.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	idx, err = OpenSQLite(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	ctx := context.Background()
	got, err := idx.Rulings(ctx, "hunchback")
	if err != nil {
		t.Fatalf("rulings: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("rulings=%+v", got)
	}
	if !got[0].Accepted || got[0].MP != 3 || got[0].AfterDigest != "d1" {
		t.Fatalf("first=%+v", got[0])
	}
	if got[1].Accepted || got[1].Code != "E_NOT_YOUR_TURN" {
		t.Fatalf("second=%+v", got[1])
	}
	d, err := idx.RulesDigest(ctx, "movement")
	if err != nil || d != "abc123" {
		t.Fatalf("digest=%q err=%v", d, err)
	}
}

func TestSQLiteIndex_DropsWhenFull(t *testing.T) {
	s := &SQLiteIndex{ch: make(chan req, 1)}
	s.ch <- req{kind: reqRuling}

	_ = s.WriteEntry(plog.Entry{Seq: 2})
	s.RecordRules("movement", "x")

	st := s.Stats()
	if st.DropTotal != 2 {
		t.Fatalf("DropTotal=%d want=2", st.DropTotal)
	}
	if st.QueueDepth != 1 || st.QueueCapacity != 1 {
		t.Fatalf("queue stats mismatch: depth=%d cap=%d", st.QueueDepth, st.QueueCapacity)
	}
}

func TestSQLiteIndex_NilSafe(t *testing.T) {
	var s *SQLiteIndex
	if err := s.WriteEntry(plog.Entry{}); err != nil {
		t.Fatalf("nil write: %v", err)
	}
	s.RecordRules("x", "y")
	if st := s.Stats(); st.QueueCapacity != 0 {
		t.Fatalf("stats=%+v", st)
	}
}
