// Package authority rules on submitted movement paths. One goroutine owns
// the game state; sessions and submissions reach it through channels.
package authority

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	plog "hexmove.ai/internal/persistence/log"
	"hexmove.ai/internal/persistence/snapshot"
	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/catalogs"
	"hexmove.ai/internal/sim/encoding"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/move"
)

var (
	ErrStopped       = errors.New("authority stopped")
	ErrUnknownPlayer = errors.New("unknown player")
)

// EntrySink receives rulings. The journal, the audit log and the sqlite
// index all implement it.
type EntrySink interface {
	WriteEntry(plog.Entry) error
}

type Sinks struct {
	// Journal gets accepted paths only.
	Journal EntrySink
	Audit   EntrySink
	Index   EntrySink
}

type Config struct {
	GameID string
	// Players restricts who may join; empty admits any entity owner.
	Players             []string
	SnapshotDir         string
	SnapshotEveryRounds int
	// StartSeq continues journal numbering after a resume.
	StartSeq uint64
}

type JoinRequest struct {
	Player string
	// Out receives STATE broadcasts. Sends never block; a full channel
	// misses the update.
	Out  chan []byte
	Resp chan JoinResponse
}

type JoinResponse struct {
	SessionID string
	Welcome   protocol.WelcomeMsg
	State     protocol.StateMsg
	Err       error
}

type Submission struct {
	Player string
	Msg    protocol.MovePathMsg
	Resp   chan protocol.MoveResultMsg
}

type Authority struct {
	rules *move.Rules
	cats  *catalogs.Catalogs
	state *game.State
	cfg   Config
	sinks Sinks
	log   zerolog.Logger
	inst  instruments

	seq      uint64
	nextSess int
	sessions map[string]chan []byte

	join  chan JoinRequest
	leave chan string
	inbox chan Submission
	stop  chan struct{}
	done  chan struct{}
}

func New(rules *move.Rules, cats *catalogs.Catalogs, state *game.State, cfg Config, sinks Sinks, log zerolog.Logger) (*Authority, error) {
	inst, err := newInstruments()
	if err != nil {
		return nil, fmt.Errorf("authority metrics: %w", err)
	}
	if cats == nil {
		cats = catalogs.Default()
	}
	return &Authority{
		rules:    rules,
		cats:     cats,
		state:    state,
		cfg:      cfg,
		sinks:    sinks,
		log:      log,
		inst:     inst,
		seq:      cfg.StartSeq,
		sessions: map[string]chan []byte{},
		join:     make(chan JoinRequest, 16),
		leave:    make(chan string, 16),
		inbox:    make(chan Submission, 64),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

func (a *Authority) Inbox() chan<- Submission { return a.inbox }
func (a *Authority) Join() chan<- JoinRequest { return a.join }
func (a *Authority) Leave() chan<- string     { return a.leave }
func (a *Authority) Done() <-chan struct{}    { return a.done }
func (a *Authority) Stop()                    { close(a.stop) }

// State is the live game state. Only safe to read after Run has returned.
func (a *Authority) State() *game.State { return a.state }

// Seq is the number of the last ruling. Only safe after Run has returned.
func (a *Authority) Seq() uint64 { return a.seq }

func (a *Authority) Run(ctx context.Context) error {
	defer close(a.done)
	defer a.finalSnapshot()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-a.stop:
			return nil
		case req := <-a.join:
			a.handleJoin(req)
		case id := <-a.leave:
			if _, ok := a.sessions[id]; ok {
				delete(a.sessions, id)
				a.inst.sessions.Add(context.Background(), -1)
				a.log.Info().Str("session", id).Msg("leave")
			}
		case sub := <-a.inbox:
			res := a.handleMovePath(sub.Player, sub.Msg)
			if sub.Resp != nil {
				sub.Resp <- res
			}
		}
	}
}

// Submit hands a path to the loop and waits for the ruling.
func (a *Authority) Submit(ctx context.Context, player string, msg protocol.MovePathMsg) (protocol.MoveResultMsg, error) {
	resp := make(chan protocol.MoveResultMsg, 1)
	select {
	case a.inbox <- Submission{Player: player, Msg: msg, Resp: resp}:
	case <-a.done:
		return protocol.MoveResultMsg{}, ErrStopped
	case <-ctx.Done():
		return protocol.MoveResultMsg{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, nil
	case <-a.done:
		return protocol.MoveResultMsg{}, ErrStopped
	case <-ctx.Done():
		return protocol.MoveResultMsg{}, ctx.Err()
	}
}

// Connect registers a session and returns its handshake payload.
func (a *Authority) Connect(ctx context.Context, player string, out chan []byte) (JoinResponse, error) {
	resp := make(chan JoinResponse, 1)
	select {
	case a.join <- JoinRequest{Player: player, Out: out, Resp: resp}:
	case <-a.done:
		return JoinResponse{}, ErrStopped
	case <-ctx.Done():
		return JoinResponse{}, ctx.Err()
	}
	select {
	case r := <-resp:
		return r, r.Err
	case <-a.done:
		return JoinResponse{}, ErrStopped
	case <-ctx.Done():
		return JoinResponse{}, ctx.Err()
	}
}

func (a *Authority) handleJoin(req JoinRequest) {
	if !a.admits(req.Player) {
		req.Resp <- JoinResponse{Err: fmt.Errorf("%w: %q", ErrUnknownPlayer, req.Player)}
		return
	}
	a.nextSess++
	id := "S" + strconv.Itoa(a.nextSess)
	if req.Out != nil {
		a.sessions[id] = req.Out
	}
	a.inst.sessions.Add(context.Background(), 1)
	a.log.Info().Str("session", id).Str("player", req.Player).Msg("join")
	req.Resp <- JoinResponse{
		SessionID: id,
		Welcome:   a.welcome(id, req.Player),
		State:     encoding.StateMsg(a.state),
	}
}

func (a *Authority) admits(player string) bool {
	if player == "" {
		return false
	}
	if len(a.cfg.Players) > 0 {
		return slices.Contains(a.cfg.Players, player)
	}
	for _, e := range a.state.Entities() {
		if e.Owner == player {
			return true
		}
	}
	return false
}

func (a *Authority) welcome(sessionID, player string) protocol.WelcomeMsg {
	return protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sessionID,
		Player:          player,
		RulesDigest:     a.rules.Digest(),
		Catalogs: protocol.CatalogDigests{
			LocomotionDigest: a.cats.Locomotion.Digest,
			TerrainDigest:    a.cats.Terrain.Digest,
			ManeuversDigest:  a.cats.Maneuvers.Digest,
			TuningDigest:     a.rules.Tuning.Digest(),
		},
		Board: encoding.BoardToWire(a.state),
	}
}

func (a *Authority) handleMovePath(player string, msg protocol.MovePathMsg) protocol.MoveResultMsg {
	started := time.Now()
	before := encoding.Digest(a.state)
	round := a.state.Round()

	r := rule(a.rules, a.state, player, msg)
	res := protocol.MoveResultMsg{
		Type:            protocol.TypeMoveResult,
		ProtocolVersion: protocol.Version,
		PathID:          msg.PathID,
		EntityID:        msg.EntityID,
		Accepted:        r.accepted(),
		Code:            r.code,
		Message:         r.message,
	}

	a.seq++
	entry := plog.Entry{
		Seq:          a.seq,
		Time:         started.UTC().Format(time.RFC3339Nano),
		Round:        round,
		Player:       player,
		PathID:       msg.PathID,
		EntityID:     msg.EntityID,
		Vector:       msg.Vector,
		Swim:         msg.Swim,
		Forced:       msg.Forced,
		Commands:     encoding.EncodeCommands(r.cmds),
		Submitted:    len(msg.Steps),
		Accepted:     r.accepted(),
		Code:         r.code,
		Message:      r.message,
		BeforeDigest: before,
	}

	if r.accepted() {
		claim := encoding.ClaimOf(r.path)
		apply(a.state, msg.EntityID, r.path)
		res.StepsApplied = r.path.Len()
		res.Final = &claim
		res.StateDigest = encoding.Digest(a.state)
		entry.StepsApplied = res.StepsApplied
		entry.MP = r.path.TotalMP()
		entry.AfterDigest = res.StateDigest

		a.write("journal", a.sinks.Journal, entry)
		a.inst.accepted.Add(context.Background(), 1)
		a.inst.steps.Record(context.Background(), int64(res.StepsApplied))
		a.log.Info().Uint64("seq", a.seq).Str("player", player).Str("entity", msg.EntityID).
			Int("steps", res.StepsApplied).Int("mp", entry.MP).Bool("forced", msg.Forced).Msg("path accepted")
	} else {
		a.inst.rejected.Add(context.Background(), 1, metric.WithAttributes(attribute.String("code", r.code)))
		a.log.Warn().Uint64("seq", a.seq).Str("player", player).Str("entity", msg.EntityID).
			Str("code", r.code).Str("reason", r.message).Msg("path rejected")
	}
	a.write("audit", a.sinks.Audit, entry)
	a.write("index", a.sinks.Index, entry)
	a.inst.latency.Record(context.Background(), float64(time.Since(started).Microseconds())/1000)

	if r.accepted() {
		a.broadcast()
		if a.state.Round() != round {
			a.roundSnapshot()
		}
	}
	return res
}

func (a *Authority) write(name string, sink EntrySink, e plog.Entry) {
	if sink == nil {
		return
	}
	if err := sink.WriteEntry(e); err != nil {
		a.log.Error().Err(err).Str("sink", name).Uint64("seq", e.Seq).Msg("write ruling")
	}
}

func (a *Authority) broadcast() {
	st := encoding.StateMsg(a.state)
	b, err := json.Marshal(st)
	if err != nil {
		a.log.Error().Err(err).Msg("encode state")
		return
	}
	for id, out := range a.sessions {
		select {
		case out <- b:
		default:
			a.log.Warn().Str("session", id).Msg("state dropped: slow session")
		}
	}
}

// Snapshot captures everything needed to resume after the last ruling.
func (a *Authority) Snapshot() snapshot.SnapshotV1 {
	st := encoding.StateMsg(a.state)
	return snapshot.SnapshotV1{
		Header: snapshot.Header{
			Version:     snapshot.Version,
			GameID:      a.cfg.GameID,
			Round:       a.state.Round(),
			Seq:         a.seq,
			RulesDigest: a.rules.Digest(),
			StateDigest: st.StateDigest,
		},
		Board: encoding.BoardToWire(a.state),
		State: st,
	}
}

func (a *Authority) roundSnapshot() {
	n := a.cfg.SnapshotEveryRounds
	if a.cfg.SnapshotDir == "" || n <= 0 || (a.state.Round()-1)%n != 0 {
		return
	}
	a.writeSnapshot()
}

func (a *Authority) finalSnapshot() {
	if a.cfg.SnapshotDir == "" || a.cfg.SnapshotEveryRounds <= 0 {
		return
	}
	a.writeSnapshot()
}

func (a *Authority) writeSnapshot() {
	path := snapshot.PathForRound(a.cfg.SnapshotDir, a.state.Round())
	if err := snapshot.WriteSnapshot(path, a.Snapshot()); err != nil {
		a.log.Error().Err(err).Str("path", path).Msg("snapshot")
		return
	}
	a.log.Info().Str("path", path).Int("round", a.state.Round()).Uint64("seq", a.seq).Msg("snapshot")
}
