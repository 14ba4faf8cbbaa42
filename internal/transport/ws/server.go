package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/lobby"
	"github.com/andriy1717/mastercity/internal/sim/room"
)

const (
	readTimeout  = 60 * time.Second
	writeTimeout = 5 * time.Second
	pingEvery    = 25 * time.Second
)

var errHandshake = errors.New("ws: handshake failed")

type Server struct {
	mgr     *lobby.Manager
	cfg     lobby.Config
	digests protocol.CatalogDigests
	log     *log.Logger

	upgrader websocket.Upgrader
}

func NewServer(mgr *lobby.Manager, digests protocol.CatalogDigests, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		mgr:     mgr,
		cfg:     mgr.Config(),
		digests: digests,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  16 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
	}
}

// session is one connection. joined is only touched by the read loop and by
// cleanup after both pumps have stopped.
type session struct {
	id       string
	playerID string
	out      chan []byte
	limiter  *rate.Limiter
	joined   map[string]struct{}
}

func (s *Server) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := s.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sess, err := s.handshake(conn)
		if err != nil {
			return
		}
		s.log.Printf("ws: session %s player %s connected", sess.id, sess.playerID)

		g, ctx := errgroup.WithContext(r.Context())
		g.Go(func() error { return s.writeLoop(ctx, conn, sess) })
		g.Go(func() error {
			err := s.readLoop(conn, sess)
			// Unblock the writer once the peer is gone.
			_ = conn.Close()
			return err
		})
		err = g.Wait()

		for code := range sess.joined {
			s.mgr.Detach(code, sess.playerID, sess.out)
		}
		s.log.Printf("ws: session %s closed: %v", sess.id, err)
	}
}

func (s *Server) handshake(conn *websocket.Conn) (*session, error) {
	_ = conn.SetReadDeadline(time.Now().Add(time.Duration(s.cfg.HelloTimeoutMs) * time.Millisecond))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}

	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		closeWith(conn, "expected HELLO")
		return nil, errHandshake
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		closeWith(conn, "bad HELLO")
		return nil, errHandshake
	}
	if hello.ProtocolVersion != protocol.Version {
		closeWith(conn, "bad protocol_version")
		return nil, errHandshake
	}
	playerID := strings.TrimSpace(hello.PlayerID)
	if playerID == "" || len(playerID) > 64 {
		closeWith(conn, "bad player_id")
		return nil, errHandshake
	}

	sess := &session{
		id:       uuid.NewString(),
		playerID: playerID,
		out:      make(chan []byte, s.cfg.SessionBuffer),
		limiter:  rate.NewLimiter(rate.Limit(s.cfg.CommandsPerSecond), s.cfg.CommandBurst),
		joined:   map[string]struct{}{},
	}
	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       sess.id,
		PlayerID:        playerID,
		Catalogs:        s.digests,
	}
	if err := writeJSON(conn, welcome); err != nil {
		return nil, err
	}
	return sess, nil
}

func (s *Server) writeLoop(ctx context.Context, conn *websocket.Conn, sess *session) error {
	ping := time.NewTicker(pingEvery)
	defer ping.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeTimeout)); err != nil {
				return err
			}
		case b := <-sess.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}
		}
	}
}

func (s *Server) readLoop(conn *websocket.Conn, sess *session) error {
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readTimeout))
	})
	for {
		_ = conn.SetReadDeadline(time.Now().Add(readTimeout))
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		s.route(sess, msg)
	}
}

// route decodes one client frame and hands it to the owning room. Failures
// that happen before the room sees the command are answered here in the same
// shape the room uses.
func (s *Server) route(sess *session, msg []byte) {
	var cmd protocol.CommandMsg
	if err := json.Unmarshal(msg, &cmd); err != nil || cmd.Type == "" {
		s.reject(sess, "", protocol.ErrProtoBadRequest, "Malformed message.")
		return
	}
	if cmd.ProtocolVersion != protocol.Version {
		s.reject(sess, cmd.Ref, protocol.ErrProtoBadRequest, "Unsupported protocol version.")
		return
	}
	if !sess.limiter.Allow() {
		s.reject(sess, cmd.Ref, protocol.ErrRateLimit, "Slow down.")
		return
	}

	rc := room.Command{PlayerID: sess.playerID, Msg: cmd}
	switch cmd.Type {
	case protocol.CmdCreateRoom:
		r, err := s.mgr.Create(cmd.Code)
		if err != nil {
			s.reject(sess, cmd.Ref, lobby.CodeOf(err), errMessage(err))
			return
		}
		rc.Msg.Code = r.Code()
		rc.Out = sess.out
	case protocol.CmdJoinRoom:
		rc.Msg.Code = s.mgr.NormalizeCode(cmd.Code)
		rc.Out = sess.out
	default:
		rc.Msg.Code = s.targetRoom(sess, cmd.Code)
	}

	if err := s.mgr.Submit(rc.Msg.Code, rc); err != nil {
		if cmd.Type == protocol.CmdCreateRoom {
			// Nobody got seated, so the new room would sit empty.
			s.mgr.Remove(rc.Msg.Code)
		}
		s.reject(sess, cmd.Ref, lobby.CodeOf(err), errMessage(err))
		return
	}
	switch cmd.Type {
	case protocol.CmdCreateRoom, protocol.CmdJoinRoom:
		sess.joined[rc.Msg.Code] = struct{}{}
	case protocol.CmdLeaveRoom:
		delete(sess.joined, rc.Msg.Code)
	}
}

// targetRoom resolves the room a command is for. Clients in a single room
// may leave the code out.
func (s *Server) targetRoom(sess *session, code string) string {
	if code = s.mgr.NormalizeCode(code); code != "" {
		return code
	}
	if len(sess.joined) == 1 {
		for c := range sess.joined {
			return c
		}
	}
	return ""
}

func (s *Server) reject(sess *session, ref, code, message string) {
	if ref != "" {
		s.push(sess, protocol.Event{
			"type":             protocol.TypeActionResult,
			"protocol_version": protocol.Version,
			"ref":              ref,
			"ok":               false,
			"code":             code,
			"message":          message,
		})
	}
	s.push(sess, protocol.Event{
		"type":             protocol.EvToast,
		"protocol_version": protocol.Version,
		"text":             message,
		"code":             code,
	})
}

func (s *Server) push(sess *session, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case sess.out <- b:
	default:
		// Room updates supersede each other; a full buffer loses this notice.
	}
}

func errMessage(err error) string {
	var le *lobby.Error
	if errors.As(err, &le) {
		return le.Message
	}
	return "Internal error."
}

func closeWith(conn *websocket.Conn, reason string) {
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	return conn.WriteMessage(websocket.TextMessage, b)
}
