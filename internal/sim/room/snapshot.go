package room

import (
	"math"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// send queues msg for a human player; autonomous players have no session.
func (r *Room) send(to string, msg any) {
	if p := r.players[to]; p != nil && p.IsAI {
		return
	}
	r.outbox = append(r.outbox, Envelope{To: to, Msg: msg, out: r.sessions[to]})
}

func (r *Room) emit(to, typ string, ev protocol.Event) {
	ev["type"] = typ
	ev["protocol_version"] = protocol.Version
	r.send(to, ev)
}

func (r *Room) toast(to, text string) {
	r.emit(to, protocol.EvToast, protocol.Event{"text": text})
}

func (r *Room) toastAll(text string) {
	for _, id := range r.humanIDs() {
		r.toast(id, text)
	}
}

func actionResult(ref string, res Result) protocol.Event {
	e := protocol.Event{
		"type":             protocol.TypeActionResult,
		"protocol_version": protocol.Version,
		"ref":              ref,
		"ok":               res.OK,
	}
	if res.Code != "" {
		e["code"] = res.Code
	}
	if res.Message != "" {
		e["message"] = res.Message
	}
	return e
}

func (r *Room) logEntry(text string) state.LogEntry {
	return state.LogEntry{Turn: r.totalTurns, Date: r.cal.DateString(), Text: text}
}

func (r *Room) logGame(text string) {
	r.gameLog = state.AppendCapped(r.gameLog, r.logEntry(text), state.LogCap)
}

func (r *Room) logPlayer(p *state.Player, text string) {
	p.Log(r.logEntry(text))
}

// broadcast pushes a fresh snapshot to every human seat.
func (r *Room) broadcast() {
	for _, id := range r.humanIDs() {
		r.send(id, r.snapshotFor(id))
	}
}

func (r *Room) snapshotFor(viewer string) protocol.RoomUpdateMsg {
	season := r.cal.Season()
	msg := protocol.RoomUpdateMsg{
		Type:            protocol.EvRoomUpdate,
		ProtocolVersion: protocol.Version,
		Room: protocol.RoomView{
			Code:           r.cfg.Code,
			TurnOf:         r.turnOf,
			Active:         r.active,
			Finished:       r.finished,
			Host:           r.host,
			Order:          append([]string(nil), r.order...),
			Season:         string(season),
			SeasonsElapsed: r.seasonsElapsed,
			Calendar:       r.cal.View(),
			GameLog:        logLines(state.Tail(r.gameLog, snapshotLogN)),
		},
		Players:       make(map[string]protocol.PlayerView, len(r.players)),
		Buildings:     map[string]map[string]protocol.BuildingView{},
		Prices:        protocol.Prices{SellRatio: r.tune.Bank.SellRatio, BuyPrice: r.tune.Bank.BuyPrice},
		VisitPending:  r.visitPendingFor(viewer),
		Chat:          r.latestChat(),
		SeasonSummary: r.summary,
	}

	msg.Room.SeasonalMultipliers = make(map[string]map[string]float64, len(r.seasonMults))
	for s, m := range r.seasonMults {
		row := make(map[string]float64, len(m))
		for res, v := range m {
			row[string(res)] = v
		}
		msg.Room.SeasonalMultipliers[string(s)] = row
	}

	for _, id := range r.order {
		p := r.players[id]
		msg.Players[id] = r.playerView(p, id == viewer)
	}

	for _, a := range r.cats.Buildings.Ages {
		msg.Ages = append(msg.Ages, string(a))
		row := map[string]protocol.BuildingView{}
		for _, name := range r.cats.Buildings.ByAge[a] {
			d := r.cats.Buildings.Defs[name]
			row[name] = protocol.BuildingView{Cost: bagMap(d.Cost), Desc: d.Desc}
		}
		msg.Buildings[string(a)] = row
	}
	return msg
}

func (r *Room) playerView(p *state.Player, self bool) protocol.PlayerView {
	v := protocol.PlayerView{
		Color:      p.Color,
		Civ:        p.Civ,
		IsAI:       p.IsAI,
		Ready:      p.Ready,
		Age:        string(p.Age),
		Resources:  bagMap(p.Resources),
		AP:         p.AP,
		BankedAP:   p.BankedAP,
		Structures: make(map[string]protocol.StructureView, len(p.Structures)),
		CoinIncome: r.econ.CoinIncome(p),
		Progress:   p.Progress,
		Yields:     map[string]int{},
	}
	for name, s := range p.Structures {
		v.Structures[name] = protocol.StructureView{Level: s.Level}
	}
	for _, res := range state.Gatherables {
		v.Yields[string(res)] = r.econ.SeasonalYield(p, res, r.seasonMult(res))
	}
	if !self {
		return v
	}
	soldiers := p.Soldiers
	limit := r.econ.SoldierCap(p)
	def := int(math.Round(r.econ.Defense(p) * 100))
	v.Soldiers = &soldiers
	v.SoldierCap = &limit
	v.DefensePct = &def
	v.WallTier = r.econ.WallTier(p)
	v.Raid = &protocol.RaidView{
		Active:              p.Raid.Active,
		Committed:           p.Raid.Committed,
		StartedSeason:       string(p.Raid.StartedSeason),
		ResolvesAfterSeason: string(p.Raid.ResolvesAfterSeason),
	}
	v.VisibleBuildings = map[string][]string{}
	for a, names := range p.VisibleList() {
		v.VisibleBuildings[string(a)] = names
	}
	v.PersonalLog = logLines(state.Tail(p.PersonalLog, snapshotLogN))
	return v
}

func (r *Room) visitPendingFor(id string) bool {
	for _, v := range r.visits {
		if v.To == id {
			return true
		}
	}
	return false
}

// latestChat is the newest chatShown lines, newest first.
func (r *Room) latestChat() []protocol.ChatLine {
	tail := state.Tail(r.chat, chatShown)
	out := make([]protocol.ChatLine, 0, len(tail))
	for i := len(tail) - 1; i >= 0; i-- {
		out = append(out, tail[i])
	}
	return out
}

func bagMap(b state.Bag) map[string]int {
	out := make(map[string]int, len(state.Resources))
	for _, res := range state.Resources {
		if n, ok := b[res]; ok {
			out[string(res)] = n
		}
	}
	return out
}

func logLines(entries []state.LogEntry) []protocol.LogLine {
	out := make([]protocol.LogLine, 0, len(entries))
	for _, e := range entries {
		out = append(out, protocol.LogLine{Turn: e.Turn, Date: e.Date, Text: e.Text})
	}
	return out
}
