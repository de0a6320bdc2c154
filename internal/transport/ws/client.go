package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/attack"
	"hexmove.ai/internal/sim/encoding"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/turn"
	"hexmove.ai/internal/sim/unit"
)

var (
	ErrRejected = errors.New("path rejected")
	ErrClosed   = errors.New("connection closed")
)

// Client is a player's connection to the authority. It mirrors the game
// state from STATE broadcasts and commits paths for a turn.Controller.
type Client struct {
	conn    *websocket.Conn
	log     zerolog.Logger
	player  string
	welcome protocol.WelcomeMsg

	wmu sync.Mutex

	mu      sync.Mutex
	game    *game.State
	pending map[string]chan protocol.MoveResultMsg
	nextID  int
	err     error

	updates chan struct{}
	done    chan struct{}
}

// Dial connects, performs the HELLO/WELCOME handshake and starts reading.
func Dial(ctx context.Context, url, player, token string, log zerolog.Logger) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, err
	}
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		Player:          player,
	}
	if token != "" {
		hello.Auth = &protocol.HelloAuth{Token: token}
	}
	if err := writeJSON(conn, hello); err != nil {
		conn.Close()
		return nil, err
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var welcome protocol.WelcomeMsg
	if err := readTyped(conn, protocol.TypeWelcome, &welcome); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	var st protocol.StateMsg
	if err := readTyped(conn, protocol.TypeState, &st); err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	g, err := encoding.BuildState(welcome.Board, st)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("handshake: %w", err)
	}
	_ = conn.SetReadDeadline(time.Time{})

	c := &Client{
		conn:    conn,
		log:     log.With().Str("player", player).Str("session", welcome.SessionID).Logger(),
		player:  player,
		welcome: welcome,
		game:    g,
		pending: map[string]chan protocol.MoveResultMsg{},
		updates: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

func readTyped(conn *websocket.Conn, typ string, v any) error {
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return err
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil {
		return err
	}
	if base.Type != typ {
		return fmt.Errorf("expected %s, got %s", typ, base.Type)
	}
	return json.Unmarshal(msg, v)
}

func (c *Client) Welcome() protocol.WelcomeMsg { return c.welcome }
func (c *Client) Player() string               { return c.player }
func (c *Client) Done() <-chan struct{}        { return c.done }

// Updates signals after each STATE broadcast; signals coalesce.
func (c *Client) Updates() <-chan struct{} { return c.updates }

// Game is the latest mirrored state. Treat it as read-only; it is replaced
// wholesale on every broadcast.
func (c *Client) Game() *game.State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.game
}

func (c *Client) Close() error {
	err := c.conn.Close()
	<-c.done
	return err
}

func (c *Client) readLoop() {
	defer close(c.done)
	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			c.fail(err)
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeState:
			var st protocol.StateMsg
			if err := json.Unmarshal(msg, &st); err != nil {
				c.log.Warn().Err(err).Msg("bad STATE")
				continue
			}
			g, err := encoding.BuildState(c.welcome.Board, st)
			if err != nil {
				c.log.Warn().Err(err).Msg("bad STATE")
				continue
			}
			c.mu.Lock()
			c.game = g
			c.mu.Unlock()
			select {
			case c.updates <- struct{}{}:
			default:
			}
		case protocol.TypeMoveResult:
			var res protocol.MoveResultMsg
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			c.mu.Lock()
			ch := c.pending[res.PathID]
			delete(c.pending, res.PathID)
			c.mu.Unlock()
			if ch != nil {
				ch <- res
			}
		}
	}
}

func (c *Client) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err == nil {
		c.err = err
	}
	for id, ch := range c.pending {
		close(ch)
		delete(c.pending, id)
	}
}

// Send writes a MOVE_PATH and waits for its MOVE_RESULT.
func (c *Client) Send(ctx context.Context, msg protocol.MovePathMsg) (protocol.MoveResultMsg, error) {
	ch := make(chan protocol.MoveResultMsg, 1)
	c.mu.Lock()
	if c.err != nil {
		c.mu.Unlock()
		return protocol.MoveResultMsg{}, fmt.Errorf("%w: %v", ErrClosed, c.err)
	}
	c.pending[msg.PathID] = ch
	c.mu.Unlock()

	c.wmu.Lock()
	err := writeJSON(c.conn, msg)
	c.wmu.Unlock()
	if err != nil {
		c.mu.Lock()
		delete(c.pending, msg.PathID)
		c.mu.Unlock()
		return protocol.MoveResultMsg{}, err
	}

	select {
	case res, ok := <-ch:
		if !ok {
			return protocol.MoveResultMsg{}, ErrClosed
		}
		return res, nil
	case <-ctx.Done():
		c.mu.Lock()
		delete(c.pending, msg.PathID)
		c.mu.Unlock()
		return protocol.MoveResultMsg{}, ctx.Err()
	}
}

// Commit sends a controller submission; a rejection is an error.
func (c *Client) Commit(ctx context.Context, sub turn.Submission) error {
	c.mu.Lock()
	c.nextID++
	id := c.player + "-" + strconv.Itoa(c.nextID)
	c.mu.Unlock()

	msg := protocol.MovePathMsg{
		Type:            protocol.TypeMovePath,
		ProtocolVersion: protocol.Version,
		PathID:          id,
		EntityID:        sub.EntityID,
		Vector:          sub.Options.Vector,
		Swim:            sub.Options.Swim,
		Forced:          sub.Forced,
		Steps:           encoding.StepsToWire(sub.Commands),
		Claim:           encoding.Claim(sub.Final, sub.MP),
	}
	res, err := c.Send(ctx, msg)
	if err != nil {
		return err
	}
	if !res.Accepted {
		return fmt.Errorf("%w: %s: %s", ErrRejected, res.Code, res.Message)
	}
	c.log.Debug().Str("path", id).Int("steps", res.StepsApplied).Str("digest", res.StateDigest).Msg("path accepted")
	return nil
}

// Env wires a turn.Controller to the mirrored state and this connection.
func (c *Client) Env() turn.Env {
	return turn.Env{
		EligibleFn: func() []string { return c.Game().Eligible(c.player) },
		ActiveFn:   func() string { return c.Game().Active() },
		EntityFn:   func(id string) *unit.Entity { return c.Game().Entity(id) },
		BoardFn:    func() move.Board { return c.Game() },
		TargetsFn:  func() attack.Targets { return c.Game() },
		CommitFn:   c.Commit,
	}
}
