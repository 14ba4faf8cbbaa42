package ws

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/lobby"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

func newTestServer(t *testing.T, cfg lobby.Config) string {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tu := tuning.Defaults()
	logger := log.New(io.Discard, "", 0)
	mgr, err := lobby.NewManager(context.Background(), lobby.Options{
		Config:   cfg,
		Catalogs: cats,
		Tuning:   &tu,
		Logger:   logger,
		Seed:     7,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	digests := protocol.CatalogDigests{BuildingsDigest: cats.Buildings.Digest, CivsDigest: cats.Civs.Digest, TuningDigest: tu.Digest()}
	srv := httptest.NewServer(NewServer(mgr, digests, logger).Handler())
	t.Cleanup(func() {
		srv.Close()
		mgr.Close()
	})
	return "ws" + strings.TrimPrefix(srv.URL, "http")
}

func dial(t *testing.T, url, playerID string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	send(t, conn, protocol.HelloMsg{Type: protocol.TypeHello, ProtocolVersion: protocol.Version, PlayerID: playerID})
	var w protocol.WelcomeMsg
	readUntil(t, conn, func(b []byte) bool { return json.Unmarshal(b, &w) == nil && w.Type == protocol.TypeWelcome })
	if w.SessionID == "" || w.PlayerID != playerID || w.Catalogs.BuildingsDigest == "" {
		t.Fatalf("welcome=%+v", w)
	}
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, _ := json.Marshal(v)
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func readUntil(t *testing.T, conn *websocket.Conn, match func([]byte) bool) []byte {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	for {
		_, b, err := conn.ReadMessage()
		if err != nil {
			t.Fatalf("read: %v", err)
		}
		if match(b) {
			return b
		}
	}
}

type result struct {
	Type string `json:"type"`
	Ref  string `json:"ref"`
	OK   bool   `json:"ok"`
	Code string `json:"code"`
}

func resultFor(t *testing.T, conn *websocket.Conn, ref string) result {
	t.Helper()
	var res result
	readUntil(t, conn, func(b []byte) bool {
		res = result{}
		return json.Unmarshal(b, &res) == nil && res.Type == protocol.TypeActionResult && res.Ref == ref
	})
	return res
}

func TestHandshake_RejectsWrongFirstMessage(t *testing.T) {
	url := newTestServer(t, lobby.Config{})
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	send(t, conn, protocol.CommandMsg{Type: protocol.CmdChat, ProtocolVersion: protocol.Version})
	_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
	_, _, err = conn.ReadMessage()
	if !websocket.IsCloseError(err, websocket.ClosePolicyViolation) {
		t.Fatalf("expected policy close, got %v", err)
	}
}

func TestCreateAndJoinRoom(t *testing.T) {
	url := newTestServer(t, lobby.Config{})
	alice := dial(t, url, "alice")
	send(t, alice, protocol.CommandMsg{Type: protocol.CmdCreateRoom, ProtocolVersion: protocol.Version, Ref: "c1", Code: "duel"})
	if res := resultFor(t, alice, "c1"); !res.OK {
		t.Fatalf("create: %+v", res)
	}

	bob := dial(t, url, "bob")
	send(t, bob, protocol.CommandMsg{Type: protocol.CmdJoinRoom, ProtocolVersion: protocol.Version, Ref: "j1", Code: "DUEL"})
	if res := resultFor(t, bob, "j1"); !res.OK {
		t.Fatalf("join: %+v", res)
	}

	// Alice is only in one room, so the code may be left out.
	send(t, alice, protocol.CommandMsg{Type: protocol.CmdSetReady, ProtocolVersion: protocol.Version, Ref: "r1"})
	if res := resultFor(t, alice, "r1"); !res.OK {
		t.Fatalf("ready: %+v", res)
	}

	var upd protocol.RoomUpdateMsg
	readUntil(t, bob, func(b []byte) bool {
		upd = protocol.RoomUpdateMsg{}
		return json.Unmarshal(b, &upd) == nil && upd.Type == protocol.EvRoomUpdate && upd.Players["alice"].Ready
	})
	if upd.Room.Code != "DUEL" || upd.Room.Host != "alice" {
		t.Fatalf("room=%+v", upd.Room)
	}
}

func TestRoute_Errors(t *testing.T) {
	url := newTestServer(t, lobby.Config{CommandsPerSecond: 1, CommandBurst: 1})
	conn := dial(t, url, "carol")

	send(t, conn, protocol.CommandMsg{Type: protocol.CmdChat, ProtocolVersion: "0.1", Ref: "v"})
	if res := resultFor(t, conn, "v"); res.Code != protocol.ErrProtoBadRequest {
		t.Fatalf("version: %+v", res)
	}
	send(t, conn, protocol.CommandMsg{Type: protocol.CmdChat, ProtocolVersion: protocol.Version, Ref: "a", Message: "hi"})
	if res := resultFor(t, conn, "a"); res.Code != protocol.ErrNotFound {
		t.Fatalf("no room: %+v", res)
	}
	send(t, conn, protocol.CommandMsg{Type: protocol.CmdChat, ProtocolVersion: protocol.Version, Ref: "b", Message: "hi"})
	if res := resultFor(t, conn, "b"); res.Code != protocol.ErrRateLimit {
		t.Fatalf("flood: %+v", res)
	}
}
