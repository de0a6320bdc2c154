package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hexmove.ai/internal/config"
	"hexmove.ai/internal/logging"
	"hexmove.ai/internal/persistence/indexdb"
	plog "hexmove.ai/internal/persistence/log"
	"hexmove.ai/internal/persistence/snapshot"
	"hexmove.ai/internal/sim/authority"
	"hexmove.ai/internal/sim/catalogs"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/tuning"
	"hexmove.ai/internal/transport/ws"
)

func main() {
	var (
		configDir = flag.String("configs", "./configs", "directory holding hexmove.yaml")
		snapPath  = flag.String("snapshot", "", "snapshot to resume from (default: latest under <data>/snapshots)")
		disableDB = flag.Bool("disable_db", false, "disable the sqlite ruling index")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	logger := logging.New("server", logging.Options{Level: cfg.LogLevel, Console: cfg.LogConsole})

	cats, err := catalogs.Load(cfg.Rules.ConfigDir)
	if err != nil {
		logger.Fatal().Err(err).Msg("load catalogs")
	}
	tune, err := tuning.Load(cfg.Rules.Tuning)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Fatal().Err(err).Msg("load tuning")
		}
		logger.Warn().Str("path", cfg.Rules.Tuning).Msg("tuning file missing, using defaults")
	}
	rules, err := move.NewRules(cats, tune)
	if err != nil {
		logger.Fatal().Err(err).Msg("rules")
	}

	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		logger.Fatal().Err(err).Msg("data dir")
	}
	snapDir := filepath.Join(cfg.Data.Dir, "snapshots")

	state, startSeq, err := loadState(cfg, rules, snapDir, *snapPath, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("load state")
	}

	journal := plog.NewJournalLogger(cfg.Data.Dir)
	defer journal.Close()
	audit := plog.NewAuditLogger(cfg.Data.Dir)
	defer audit.Close()

	sinks := authority.Sinks{Journal: journal, Audit: audit}
	var idx *indexdb.SQLiteIndex
	if !*disableDB && cfg.Data.IndexDB != "" {
		idx, err = indexdb.OpenSQLite(cfg.Data.IndexDB)
		if err != nil {
			logger.Fatal().Err(err).Msg("open index db")
		}
		defer idx.Close()
		idx.RecordRules("movement", rules.Digest())
		idx.RecordRules("catalogs", cats.Digest())
		idx.RecordRules("tuning", tune.Digest())
		sinks.Index = idx
	}

	a, err := authority.New(rules, cats, state, authority.Config{
		GameID:              cfg.Server.GameID,
		Players:             cfg.Server.Players,
		SnapshotDir:         snapDir,
		SnapshotEveryRounds: cfg.Data.SnapshotEveryRounds,
		StartSeq:            startSeq,
	}, sinks, logger.With().Str("game", cfg.Server.GameID).Logger())
	if err != nil {
		logger.Fatal().Err(err).Msg("authority")
	}

	ctx, cancel := signalContext()
	defer cancel()

	go func() {
		if err := a.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error().Err(err).Msg("authority stopped")
		}
	}()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(200)
		_, _ = rw.Write([]byte("ok"))
	})
	mux.HandleFunc("/metrics", func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("Content-Type", "text/plain; version=0.0.4")
		writeIndexMetrics(rw, cfg.Server.GameID, idx)
	})
	mux.HandleFunc(cfg.Server.WSPath, ws.NewServer(a, logger).Handler())

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel2()
		_ = srv.Shutdown(ctx2)
	}()

	logger.Info().Str("addr", cfg.Server.Addr).Str("path", cfg.Server.WSPath).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatal().Err(err).Msg("ListenAndServe")
	}
	cancel()
	<-a.Done()
}

// loadState resumes from the newest snapshot plus the journal tail written
// after it, or starts the scenario fresh. The returned seq continues the
// ruling numbering.
func loadState(cfg config.Config, rules *move.Rules, snapDir, snapPath string, logger zerolog.Logger) (*game.State, uint64, error) {
	if !cfg.Data.Resume {
		s, err := game.LoadScenario(cfg.Rules.Scenario)
		return s, 0, err
	}

	path := snapPath
	if path == "" {
		p, err := snapshot.Latest(snapDir)
		if err != nil {
			return nil, 0, err
		}
		path = p
	}

	var (
		s   *game.State
		seq uint64
		err error
	)
	if path != "" {
		snap, err := snapshot.ReadSnapshot(path)
		if err != nil {
			return nil, 0, fmt.Errorf("read snapshot %s: %w", path, err)
		}
		if s, err = authority.Restore(rules, snap); err != nil {
			return nil, 0, fmt.Errorf("restore %s: %w", path, err)
		}
		seq = snap.Header.Seq
		logger.Info().Str("path", path).Int("round", snap.Header.Round).Uint64("seq", seq).Msg("loaded snapshot")
	} else {
		if s, err = game.LoadScenario(cfg.Rules.Scenario); err != nil {
			return nil, 0, err
		}
	}

	entries, err := plog.ReadJournal(cfg.Data.Dir)
	if err != nil {
		return nil, 0, fmt.Errorf("read journal: %w", err)
	}
	tail := entries[:0]
	for _, e := range entries {
		if e.Seq > seq {
			tail = append(tail, e)
		}
	}
	if _, err := authority.ReplayJournal(rules, s, tail); err != nil {
		return nil, 0, fmt.Errorf("replay journal: %w", err)
	}
	if len(tail) > 0 {
		seq = tail[len(tail)-1].Seq
		logger.Info().Int("entries", len(tail)).Uint64("seq", seq).Int("round", s.Round()).Msg("replayed journal")
	}

	// Rejections are audited but not journaled; keep numbering past them.
	if rulings, err := plog.ReadAudit(cfg.Data.Dir); err == nil && len(rulings) > 0 {
		seq = max(seq, rulings[len(rulings)-1].Seq)
	}
	return s, seq, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan os.Signal, 2)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-ch
		cancel()
	}()
	return ctx, cancel
}

func writeIndexMetrics(rw http.ResponseWriter, gameID string, idx *indexdb.SQLiteIndex) {
	if idx == nil {
		return
	}
	s := idx.Stats()
	fmt.Fprintf(rw, "# HELP hexmove_index_queue_depth Current ruling index queue depth.\n")
	fmt.Fprintf(rw, "# TYPE hexmove_index_queue_depth gauge\n")
	fmt.Fprintf(rw, "hexmove_index_queue_depth{game=%q} %d\n", gameID, s.QueueDepth)

	fmt.Fprintf(rw, "# HELP hexmove_index_queue_capacity Ruling index queue capacity.\n")
	fmt.Fprintf(rw, "# TYPE hexmove_index_queue_capacity gauge\n")
	fmt.Fprintf(rw, "hexmove_index_queue_capacity{game=%q} %d\n", gameID, s.QueueCapacity)

	fmt.Fprintf(rw, "# HELP hexmove_index_dropped_total Rulings dropped because the index queue was full.\n")
	fmt.Fprintf(rw, "# TYPE hexmove_index_dropped_total counter\n")
	fmt.Fprintf(rw, "hexmove_index_dropped_total{game=%q} %d\n", gameID, s.DropTotal)
}
