package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"hexmove.ai/internal/config"
	plog "hexmove.ai/internal/persistence/log"
	"hexmove.ai/internal/persistence/snapshot"
	"hexmove.ai/internal/sim/authority"
	"hexmove.ai/internal/sim/catalogs"
	"hexmove.ai/internal/sim/encoding"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/tuning"
)

func main() {
	var (
		configDir = flag.String("configs", "./configs", "directory holding hexmove.yaml")
		dataDir   = flag.String("data", "", "game data dir with journal/ and audit/ (default: data.dir)")
		snapPath  = flag.String("snapshot", "", "start from this snapshot instead of the scenario")
		audit     = flag.Bool("audit", false, "also summarise rejected rulings from the audit log")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *dataDir == "" {
		*dataDir = cfg.Data.Dir
	}

	cats, err := catalogs.Load(cfg.Rules.ConfigDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "load catalogs:", err)
		os.Exit(1)
	}
	tune, err := tuning.Load(cfg.Rules.Tuning)
	if err != nil && !os.IsNotExist(err) {
		fmt.Fprintln(os.Stderr, "load tuning:", err)
		os.Exit(1)
	}
	rules, err := move.NewRules(cats, tune)
	if err != nil {
		fmt.Fprintln(os.Stderr, "rules:", err)
		os.Exit(1)
	}

	s, fromSeq, err := start(rules, cfg.Rules.Scenario, *snapPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	entries, err := plog.ReadJournal(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read journal:", err)
		os.Exit(1)
	}
	var tail []plog.Entry
	for _, e := range entries {
		if e.Seq > fromSeq {
			tail = append(tail, e)
		}
	}
	n, err := authority.ReplayJournal(rules, s, tail)
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay failed after %d entries: %v\n", n, err)
		os.Exit(1)
	}
	fmt.Printf("replay ok: entries=%d from_seq=%d round=%d active=%s digest=%s\n",
		n, fromSeq, s.Round(), s.Active(), encoding.Digest(s))

	if !*audit {
		return
	}
	rulings, err := plog.ReadAudit(*dataDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "read audit:", err)
		os.Exit(1)
	}
	for _, line := range summarize(rulings) {
		fmt.Println(line)
	}
}

// start returns the state replay begins from and the last seq it covers.
func start(rules *move.Rules, scenario, snapPath string) (*game.State, uint64, error) {
	if snapPath == "" {
		s, err := game.LoadScenario(scenario)
		if err != nil {
			return nil, 0, fmt.Errorf("load scenario: %w", err)
		}
		return s, 0, nil
	}
	snap, err := snapshot.ReadSnapshot(snapPath)
	if err != nil {
		return nil, 0, fmt.Errorf("read snapshot: %w", err)
	}
	fmt.Printf("snapshot v%d game=%s round=%d seq=%d entities=%d\n",
		snap.Header.Version, snap.Header.GameID, snap.Header.Round, snap.Header.Seq, len(snap.State.Entities))
	s, err := authority.Restore(rules, snap)
	if err != nil {
		return nil, 0, err
	}
	return s, snap.Header.Seq, nil
}

// summarize counts rulings per outcome code, accepted first.
func summarize(rulings []plog.Entry) []string {
	counts := map[string]int{}
	for _, e := range rulings {
		code := e.Code
		if e.Accepted {
			code = "ACCEPTED"
		}
		counts[code]++
	}
	codes := make([]string, 0, len(counts))
	for c := range counts {
		codes = append(codes, c)
	}
	sort.Slice(codes, func(i, j int) bool {
		if (codes[i] == "ACCEPTED") != (codes[j] == "ACCEPTED") {
			return codes[i] == "ACCEPTED"
		}
		return codes[i] < codes[j]
	})
	out := make([]string, 0, len(codes)+1)
	out = append(out, fmt.Sprintf("audit: rulings=%d", len(rulings)))
	for _, c := range codes {
		out = append(out, fmt.Sprintf("  %-20s %d", c, counts[c]))
	}
	return out
}
