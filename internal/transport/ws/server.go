package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"hexmove.ai/internal/protocol"
	"hexmove.ai/internal/sim/authority"
)

type Server struct {
	auth *authority.Authority
	log  zerolog.Logger

	upgrader websocket.Upgrader
}

func NewServer(a *authority.Authority, logger zerolog.Logger) *Server {
	s := &Server{
		auth: a,
		log:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
	return s
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		sessionID, player, out := s.handshake(ctx, conn)
		if sessionID == "" {
			return
		}
		log := s.log.With().Str("session", sessionID).Str("player", player).Logger()

		// Writer goroutine.
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case b, ok := <-out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						cancel()
						return
					}
				}
			}
		}()

		// Reader loop.
		for {
			_ = conn.SetReadDeadline(time.Now().Add(120 * time.Second))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				cancel()
				break
			}
			res, ok := s.handleMessage(ctx, player, msg)
			if !ok {
				continue
			}
			b, err := json.Marshal(res)
			if err != nil {
				continue
			}
			select {
			case out <- b:
			case <-ctx.Done():
			}
		}

		// Cleanup.
		select {
		case s.auth.Leave() <- sessionID:
		case <-s.auth.Done():
		}
		log.Info().Msg("disconnected")
	}
}

// handleMessage turns one inbound frame into the MOVE_RESULT to send back.
// Frames that are not MOVE_PATH are ignored.
func (s *Server) handleMessage(ctx context.Context, player string, msg []byte) (protocol.MoveResultMsg, bool) {
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeMovePath {
		return protocol.MoveResultMsg{}, false
	}
	// Best effort: echo the path id even when the body is bad.
	var hdr struct {
		PathID string `json:"path_id"`
	}
	_ = json.Unmarshal(msg, &hdr)

	if base.ProtocolVersion != protocol.Version {
		return failure(hdr.PathID, protocol.ErrVersion, "unsupported protocol_version "+base.ProtocolVersion), true
	}
	if err := protocol.ValidateMovePath(msg); err != nil {
		return failure(hdr.PathID, protocol.ErrSchema, err.Error()), true
	}
	var mp protocol.MovePathMsg
	if err := json.Unmarshal(msg, &mp); err != nil {
		return failure(hdr.PathID, protocol.ErrProtoBadRequest, err.Error()), true
	}
	res, err := s.auth.Submit(ctx, player, mp)
	if err != nil {
		return failure(mp.PathID, protocol.ErrInternal, err.Error()), true
	}
	return res, true
}

func failure(pathID, code, message string) protocol.MoveResultMsg {
	return protocol.MoveResultMsg{
		Type:            protocol.TypeMoveResult,
		ProtocolVersion: protocol.Version,
		PathID:          pathID,
		Code:            code,
		Message:         message,
	}
}

func (s *Server) handshake(ctx context.Context, conn *websocket.Conn) (sessionID, player string, out chan []byte) {
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", "", nil
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return "", "", nil
	}
	if err := protocol.Validate(protocol.TypeHello, msg); err != nil {
		closeWith(conn, "bad HELLO")
		return "", "", nil
	}

	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		return "", "", nil
	}
	if hello.ProtocolVersion != protocol.Version && !slices.Contains(hello.SupportedVersions, protocol.Version) {
		closeWith(conn, "bad protocol_version")
		return "", "", nil
	}
	player = strings.TrimSpace(hello.Player)

	out = make(chan []byte, 16)
	resp, err := s.auth.Connect(ctx, player, out)
	if err != nil {
		s.log.Warn().Err(err).Str("player", player).Msg("join refused")
		closeWith(conn, "join refused")
		return "", "", nil
	}

	// Send welcome + state immediately.
	if err := writeJSON(conn, resp.Welcome); err != nil {
		return "", "", nil
	}
	if err := writeJSON(conn, resp.State); err != nil {
		return "", "", nil
	}
	s.log.Info().Str("session", resp.SessionID).Str("player", player).Msg("connected")
	return resp.SessionID, player, out
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, b)
}
