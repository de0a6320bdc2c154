package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"hexmove.ai/internal/config"
	"hexmove.ai/internal/logging"
	"hexmove.ai/internal/sim/catalogs"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/tuning"
	"hexmove.ai/internal/sim/turn"
	"hexmove.ai/internal/sim/vector"
	"hexmove.ai/internal/transport/ws"
)

func main() {
	var (
		configDir = flag.String("configs", "./configs", "directory holding hexmove.yaml")
		url       = flag.String("url", "", "ws url (overrides bot.url)")
		player    = flag.String("player", "", "player name (overrides bot.player)")
	)
	flag.Parse()

	cfg, err := config.Load(*configDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(2)
	}
	if *url != "" {
		cfg.Bot.URL = *url
	}
	if *player != "" {
		cfg.Bot.Player = *player
	}
	logger := logging.New("bot", logging.Options{Level: cfg.LogLevel, Console: cfg.LogConsole}).
		With().Str("player", cfg.Bot.Player).Logger()

	policy, err := vector.ParsePolicy(cfg.Turn.SplitPolicy)
	if err != nil {
		logger.Fatal().Err(err).Msg("split policy")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	c, err := ws.Dial(dialCtx, cfg.Bot.URL, cfg.Bot.Player, cfg.Bot.Token, logger)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Str("url", cfg.Bot.URL).Msg("dial")
	}
	defer c.Close()

	w := c.Welcome()
	logger.Info().Str("session", w.SessionID).Str("rules", w.RulesDigest).Int("radius", w.Board.Radius).Msg("WELCOME")

	rules, err := loadRules(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("rules")
	}
	if rules.Digest() != w.RulesDigest {
		logger.Warn().Str("local", rules.Digest()).Str("server", w.RulesDigest).Msg("rules differ from server; paths may be rejected")
	}

	ctl := turn.New(rules, c.Env(), turn.Config{
		ConfirmBoostedRun: cfg.Turn.ConfirmBoostedRun,
		ConfirmHazard:     cfg.Turn.ConfirmHazard,
		ConfirmHighG:      cfg.Turn.ConfirmHighG,
		AdvancedMovement:  cfg.Turn.AdvancedMovement,
		SplitPolicy:       policy,
		DragLogEvery:      cfg.Turn.DragLogEvery,
	}, logger)

	for {
		if c.Game().ActiveOwner() == cfg.Bot.Player {
			err := playTurn(ctx, ctl, c.Game(), logger)
			if err == nil {
				continue
			}
			logger.Error().Err(err).Msg("turn")
		}
		select {
		case <-ctx.Done():
			return
		case <-c.Done():
			logger.Info().Msg("connection closed")
			return
		case <-c.Updates():
		}
	}
}

func loadRules(cfg config.Config) (*move.Rules, error) {
	cats, err := catalogs.Load(cfg.Rules.ConfigDir)
	if err != nil {
		return nil, err
	}
	tune, err := tuning.Load(cfg.Rules.Tuning)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	return move.NewRules(cats, tune)
}

// playTurn walks the active entity toward the nearest enemy and commits.
// A rejected path is retried once as an empty one so the turn still ends.
func playTurn(ctx context.Context, ctl *turn.Controller, g *game.State, log zerolog.Logger) error {
	if err := ctl.StartPhase(ctx); err != nil {
		return err
	}
	if ctl.State() == turn.Idle {
		// Forced movement already went out.
		return nil
	}
	if dest, ok := approach(g, ctl.EntityID()); ok {
		ctl.PointerMove(dest)
	}
	err := commit(ctx, ctl)
	if err == nil || !errors.Is(err, ws.ErrRejected) {
		return err
	}
	log.Warn().Err(err).Str("entity", ctl.EntityID()).Msg("path rejected, standing still")
	if err := ctl.StartPhase(ctx); err != nil {
		return err
	}
	ctl.Cancel()
	return commit(ctx, ctl)
}

func commit(ctx context.Context, ctl *turn.Controller) error {
	dangers, err := ctl.Commit(ctx)
	if err != nil || len(dangers) == 0 {
		return err
	}
	return ctl.Confirm(ctx, true)
}

// approach picks the hex beside the nearest enemy, on the side facing id.
func approach(g *game.State, id string) (hex.Pos, bool) {
	self := g.Entity(id)
	if self == nil {
		return hex.Pos{}, false
	}
	from := self.State.Pos
	best, bestDist := hex.Pos{}, -1
	for _, e := range g.Entities() {
		if e.Owner == self.Owner {
			continue
		}
		if d := hex.Distance(from, e.State.Pos); bestDist < 0 || d < bestDist {
			best, bestDist = e.State.Pos, d
		}
	}
	if bestDist <= 1 {
		return hex.Pos{}, false
	}
	return best.Neighbor(hex.Direction(best, from)), true
}
