package snapshot

import (
	"path/filepath"
	"testing"

	"hexmove.ai/internal/protocol"
)

func TestSnapshot_WriteRead(t *testing.T) {
	path := filepath.Join(t.TempDir(), "snapshots", "r3.snap.zst")
	in := SnapshotV1{
		Header: Header{Version: Version, GameID: "g1", Round: 3, Seq: 11, RulesDigest: "rd", StateDigest: "sd"},
		Board:  protocol.BoardMsg{Radius: 4, Hexes: []protocol.HexWire{{Q: 1, R: 1, Terrain: "ROUGH"}}},
		State: protocol.StateMsg{
			Type:   protocol.TypeState,
			Round:  3,
			Active: "wasp",
			Moved:  []string{"hunchback"},
			Entities: []protocol.EntityWire{
				{ID: "wasp", Owner: "red", Class: "BIPED", State: protocol.StateWire{Q: 1, Facing: "NE", Vectors: [6]int{0, 2}}},
			},
		},
	}
	if err := WriteSnapshot(path, in); err != nil {
		t.Fatalf("write: %v", err)
	}

	h, err := ReadHeader(path)
	if err != nil {
		t.Fatalf("header: %v", err)
	}
	if h != in.Header {
		t.Fatalf("header=%+v", h)
	}

	out, err := ReadSnapshot(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if out.Board.Radius != 4 || len(out.Board.Hexes) != 1 || out.Board.Hexes[0].Terrain != "ROUGH" {
		t.Fatalf("board=%+v", out.Board)
	}
	if out.State.Active != "wasp" || len(out.State.Entities) != 1 || out.State.Entities[0].State.Vectors[1] != 2 {
		t.Fatalf("state=%+v", out.State)
	}
}

func TestSnapshot_RejectsOtherVersion(t *testing.T) {
	path := filepath.Join(t.TempDir(), "old.snap.zst")
	if err := WriteSnapshot(path, SnapshotV1{Header: Header{Version: 99}}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := ReadSnapshot(path); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestLatest(t *testing.T) {
	dir := t.TempDir()
	if p, err := Latest(dir); err != nil || p != "" {
		t.Fatalf("empty dir: %q %v", p, err)
	}
	for _, r := range []int{2, 10, 9} {
		if err := WriteSnapshot(PathForRound(dir, r), SnapshotV1{Header: Header{Version: Version, Round: r}}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	p, err := Latest(dir)
	if err != nil || p != PathForRound(dir, 10) {
		t.Fatalf("latest=%q err=%v", p, err)
	}
}
