package main

import (
	"encoding/json"
	"flag"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"time"

	"github.com/gorilla/websocket"

	"github.com/andriy1717/mastercity/internal/protocol"
)

const foodFloor = 10

var gatherables = []string{"wood", "rock", "metal", "food"}

type bot struct {
	conn   *websocket.Conn
	logger *log.Logger
	rng    *rand.Rand
	me     string

	refSeq  int
	pending string // ref of the in-flight performAction
	last    *protocol.RoomUpdateMsg
}

func main() {
	var (
		url    = flag.String("url", "ws://localhost:8080/v1/ws", "ws url")
		name   = flag.String("name", "bot", "player id")
		code   = flag.String("room", "", "room code to join (empty creates a new room)")
		civ    = flag.String("civ", "", "civilization (empty picks one)")
		ais    = flag.Int("ais", 1, "AI opponents to seat when creating a room")
		seed   = flag.Int64("seed", time.Now().UnixNano(), "move selection seed")
		create = flag.Bool("create", false, "create the room even when -room is set")
	)
	flag.Parse()

	logger := log.New(os.Stdout, "[bot] ", log.LstdFlags|log.Lmicroseconds)
	conn, _, err := websocket.DefaultDialer.Dial(*url, nil)
	if err != nil {
		logger.Fatalf("dial: %v", err)
	}
	defer conn.Close()

	b := &bot{conn: conn, logger: logger, rng: rand.New(rand.NewSource(*seed)), me: *name}
	hello := protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerID:        *name,
		Client:          "mastercity-bot",
	}
	if err := conn.WriteJSON(hello); err != nil {
		logger.Fatalf("send HELLO: %v", err)
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)
	go func() {
		<-stop
		_ = conn.Close()
	}()

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			return
		}
		base, err := protocol.DecodeBase(msg)
		if err != nil {
			continue
		}
		switch base.Type {
		case protocol.TypeWelcome:
			var w protocol.WelcomeMsg
			if err := json.Unmarshal(msg, &w); err != nil {
				continue
			}
			logger.Printf("WELCOME session=%s buildings=%s", w.SessionID, w.Catalogs.BuildingsDigest)
			if *code == "" || *create {
				presets := make([]protocol.PresetAI, *ais)
				b.send(protocol.CommandMsg{Type: protocol.CmdCreateRoom, Code: *code, Civ: *civ, PresetAIs: presets})
			} else {
				b.send(protocol.CommandMsg{Type: protocol.CmdJoinRoom, Code: *code, Civ: *civ})
			}
			ready := true
			b.send(protocol.CommandMsg{Type: protocol.CmdSetReady, Ready: &ready})

		case protocol.TypeActionResult:
			var res struct {
				Ref     string `json:"ref"`
				OK      bool   `json:"ok"`
				Code    string `json:"code"`
				Message string `json:"message"`
			}
			if err := json.Unmarshal(msg, &res); err != nil {
				continue
			}
			if !res.OK {
				logger.Printf("rejected %s: %s %s", res.Ref, res.Code, res.Message)
			}
			// The room pushes its update before the result, so replay it.
			if res.Ref == b.pending {
				b.pending = ""
				if !res.OK {
					// Retrying from a stale view would repeat the same move.
					b.last = nil
					b.send(protocol.CommandMsg{Type: protocol.CmdPerformAction, Action: protocol.ActEndTurn})
					continue
				}
				b.play()
			}

		case protocol.EvRoomUpdate:
			var upd protocol.RoomUpdateMsg
			if err := json.Unmarshal(msg, &upd); err != nil {
				continue
			}
			b.last = &upd
			b.play()

		case protocol.EvVisitorOffer:
			var v struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(msg, &v); err != nil {
				continue
			}
			decision := "reject"
			if b.rng.Intn(2) == 0 {
				decision = "accept"
			}
			b.send(protocol.CommandMsg{Type: protocol.CmdResolveVisit, VisitID: v.ID, Decision: decision})

		case protocol.EvTradeOffer:
			var o struct {
				ID string `json:"id"`
			}
			if err := json.Unmarshal(msg, &o); err != nil {
				continue
			}
			b.send(protocol.CommandMsg{Type: protocol.CmdRespondTrade, OfferID: o.ID, Response: "decline"})

		case protocol.EvToast:
			var t struct {
				Text string `json:"text"`
			}
			if json.Unmarshal(msg, &t) == nil {
				logger.Printf("toast: %s", t.Text)
			}

		case protocol.EvGameOver:
			var g struct {
				Winner string `json:"winner"`
			}
			_ = json.Unmarshal(msg, &g)
			logger.Printf("game over, winner=%s", g.Winner)
			return

		case protocol.EvKicked, protocol.EvRoomClosed:
			logger.Printf("%s", base.Type)
			return
		}
	}
}

func (b *bot) play() {
	upd := b.last
	if upd == nil || b.pending != "" || !upd.Room.Active || upd.Room.TurnOf != b.me {
		return
	}
	b.pending = b.send(chooseMove(upd, b.me, b.rng))
}

func (b *bot) send(m protocol.CommandMsg) string {
	b.refSeq++
	m.ProtocolVersion = protocol.Version
	m.Ref = "b" + strconv.Itoa(b.refSeq)
	if err := b.conn.WriteJSON(m); err != nil {
		b.logger.Printf("send %s: %v", m.Type, err)
	}
	return m.Ref
}

// chooseMove keeps food above a floor, builds the cheapest affordable
// visible building, and otherwise gathers at random.
func chooseMove(upd *protocol.RoomUpdateMsg, me string, rng *rand.Rand) protocol.CommandMsg {
	action := func(kind string, pl protocol.ActionPayload) protocol.CommandMsg {
		return protocol.CommandMsg{Type: protocol.CmdPerformAction, Action: kind, Payload: pl}
	}
	self, ok := upd.Players[me]
	if !ok || self.AP <= 0 {
		return action(protocol.ActEndTurn, protocol.ActionPayload{})
	}
	if self.Resources["food"] < foodFloor {
		return action(protocol.ActGather, protocol.ActionPayload{Type: "food"})
	}

	type option struct {
		name  string
		total int
	}
	var opts []option
	costs := upd.Buildings[self.Age]
	for _, name := range self.VisibleBuildings[self.Age] {
		if _, built := self.Structures[name]; built {
			continue
		}
		bv, ok := costs[name]
		if !ok {
			continue
		}
		total, affordable := 0, true
		for res, n := range bv.Cost {
			total += n
			if self.Resources[res] < n {
				affordable = false
			}
		}
		if affordable {
			opts = append(opts, option{name: name, total: total})
		}
	}
	if len(opts) > 0 {
		sort.Slice(opts, func(i, j int) bool {
			if opts[i].total != opts[j].total {
				return opts[i].total < opts[j].total
			}
			return opts[i].name < opts[j].name
		})
		return action(protocol.ActBuild, protocol.ActionPayload{Name: opts[0].name})
	}
	return action(protocol.ActGather, protocol.ActionPayload{Type: gatherables[rng.Intn(len(gatherables))]})
}
