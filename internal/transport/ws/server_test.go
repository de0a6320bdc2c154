package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"hexmove.ai/internal/logging"
	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/authority"
	"hexmove.ai/internal/sim/game"
	"hexmove.ai/internal/sim/hex"
	"hexmove.ai/internal/sim/move"
	"hexmove.ai/internal/sim/turn"
)

func startServer(t *testing.T) (url string, a *authority.Authority) {
	t.Helper()
	s, err := game.LoadScenario(filepath.Join("..", "..", "..", "configs", "scenario.yaml"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	a, err = authority.New(move.DefaultRules(), nil, s, authority.Config{}, authority.Sinks{}, logging.Nop())
	if err != nil {
		t.Fatalf("authority: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	go func() { _ = a.Run(ctx) }()

	srv := httptest.NewServer(NewServer(a, logging.Nop()).Handler())
	t.Cleanup(func() {
		srv.Close()
		cancel()
		<-a.Done()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http"), a
}

func TestClient_ControllerCommit(t *testing.T) {
	url, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, "red", "", logging.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()
	if c.Welcome().RulesDigest != move.DefaultRules().Digest() {
		t.Fatalf("rules digest mismatch")
	}

	ctl := turn.New(move.DefaultRules(), c.Env(), turn.DefaultConfig(), logging.Nop())
	if err := ctl.StartPhase(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if ctl.EntityID() != "hunchback" {
		t.Fatalf("selected=%s", ctl.EntityID())
	}
	ctl.AddStep(move.Forward, move.NoPayload())
	ctl.AddStep(move.Forward, move.NoPayload())
	if _, err := ctl.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}

	g := c.Game()
	if g.Active() != "wasp" || g.Entity("hunchback").State.Pos != (hex.Pos{Q: 0, R: -2}) {
		t.Fatalf("mirror active=%s pos=%s", g.Active(), g.Entity("hunchback").State.Pos)
	}
}

func TestClient_RejectedCommit(t *testing.T) {
	url, _ := startServer(t)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	c, err := Dial(ctx, url, "blue", "", logging.Nop())
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer c.Close()

	sub := turn.Submission{
		EntityID: "hunchback",
		Commands: []move.Command{{Kind: move.Forward, Payload: move.NoPayload()}},
		Final:    c.Game().Entity("hunchback").State,
		MP:       1,
	}
	err = c.Commit(ctx, sub)
	if !errors.Is(err, ErrRejected) || !strings.Contains(err.Error(), protocol.ErrNotYourTurn) {
		t.Fatalf("err=%v", err)
	}
}

func TestServer_SchemaAndVersionErrors(t *testing.T) {
	url, _ := startServer(t)
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	send := func(v string) {
		t.Helper()
		if err := conn.WriteMessage(websocket.TextMessage, []byte(v)); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	next := func(typ string) []byte {
		t.Helper()
		_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				t.Fatalf("read: %v", err)
			}
			if base, _ := protocol.DecodeBase(msg); base.Type == typ {
				return msg
			}
		}
	}

	send(`{"type":"HELLO","protocol_version":"1.0","player":"red"}`)
	next(protocol.TypeWelcome)
	next(protocol.TypeState)

	cases := []struct {
		raw  string
		code string
	}{
		{`{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"X1","entity_id":"hunchback","steps":[{"kind":"forward"}],"claim":{"q":0,"r":-3,"facing":"N","mp":1}}`, protocol.ErrSchema},
		{`{"type":"MOVE_PATH","protocol_version":"0.9","path_id":"X2","entity_id":"hunchback","steps":[],"claim":{"q":0,"r":-4,"facing":"N","mp":0}}`, protocol.ErrVersion},
		{`{"type":"MOVE_PATH","protocol_version":"1.0","path_id":"X3","entity_id":"hunchback","steps":[{"kind":"FORWARD"}],"claim":{"q":0,"r":-3,"facing":"N","mp":2}}`, protocol.ErrReplayMismatch},
	}
	for _, tc := range cases {
		send(tc.raw)
		var res protocol.MoveResultMsg
		if err := json.Unmarshal(next(protocol.TypeMoveResult), &res); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if res.Accepted || res.Code != tc.code {
			t.Fatalf("raw=%s res=%+v", tc.raw, res)
		}
	}
}

func TestServer_RejectsUnknownPlayer(t *testing.T) {
	url, _ := startServer(t)
	_, err := Dial(context.Background(), url, "green", "", logging.Nop())
	if err == nil {
		t.Fatalf("expected handshake failure")
	}
}
