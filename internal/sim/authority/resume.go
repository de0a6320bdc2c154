package authority

import (
	"fmt"

	plog "hexmove.ai/internal/persistence/log"
	"hexmove.ai/internal/persistence/snapshot"
	"hexmove.ai/internal/sim/encoding"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/move"
)

// Restore rebuilds the game state from a snapshot taken with the same rules.
func Restore(rules *move.Rules, snap snapshot.SnapshotV1) (*game.State, error) {
	if snap.Header.RulesDigest != rules.Digest() {
		return nil, fmt.Errorf("snapshot rules digest %s, running %s", snap.Header.RulesDigest, rules.Digest())
	}
	s, err := encoding.BuildState(snap.Board, snap.State)
	if err != nil {
		return nil, fmt.Errorf("snapshot state: %w", err)
	}
	if d := encoding.Digest(s); d != snap.Header.StateDigest {
		return nil, fmt.Errorf("snapshot digest %s, rebuilt %s", snap.Header.StateDigest, d)
	}
	return s, nil
}

// ReplayJournal re-applies accepted journal entries to s in order and checks
// every before/after digest. It returns how many entries were verified
// before the first failure.
func ReplayJournal(rules *move.Rules, s *game.State, entries []plog.Entry) (int, error) {
	for i, e := range entries {
		if !e.Accepted {
			continue
		}
		if d := encoding.Digest(s); d != e.BeforeDigest {
			return i, fmt.Errorf("seq %d: %w: state digest %s, journal %s", e.Seq, move.ErrReplayMismatch, d, e.BeforeDigest)
		}
		ent := s.Entity(e.EntityID)
		if ent == nil {
			return i, fmt.Errorf("seq %d: no entity %q", e.Seq, e.EntityID)
		}
		if s.Active() != e.EntityID {
			return i, fmt.Errorf("seq %d: %s moved out of turn (active %s)", e.Seq, e.EntityID, s.Active())
		}
		cmds, err := encoding.DecodeCommands(e.Commands)
		if err != nil {
			return i, fmt.Errorf("seq %d: %w", e.Seq, err)
		}
		p := move.Replay(rules, s, ent, ent.State, move.Options{Vector: e.Vector, Swim: e.Swim}, cmds)
		if !p.Possible() || !p.FliesFullVector() || p.Len() != e.StepsApplied || p.TotalMP() != e.MP {
			return i, fmt.Errorf("seq %d: %w: %d steps / %d mp, journal %d / %d",
				e.Seq, move.ErrReplayMismatch, p.Clipped().Len(), p.TotalMP(), e.StepsApplied, e.MP)
		}
		apply(s, e.EntityID, p)
		if d := encoding.Digest(s); d != e.AfterDigest {
			return i, fmt.Errorf("seq %d: %w: after digest %s, journal %s", e.Seq, move.ErrReplayMismatch, d, e.AfterDigest)
		}
	}
	return len(entries), nil
}
