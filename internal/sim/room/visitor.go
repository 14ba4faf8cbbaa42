package room

import (
	"fmt"
	"math"
	"time"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/ai"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// sendVisit dispatches a visitor that always presents itself as a trader.
func (r *Room) sendVisit(id string, msg protocol.CommandMsg) Result {
	p, res := r.requireTurn(id)
	if !res.OK {
		return res
	}
	to := r.players[msg.To]
	if to == nil || to.ID == id {
		return fail(protocol.ErrInvalidTarget, "Choose another player to visit.")
	}
	kind := state.VisitTrader
	if msg.Kind != "" {
		k, ok := state.ParseVisitKind(msg.Kind)
		if !ok {
			return fail(protocol.ErrBadRequest, "Visitor must be a trader, spy or robber.")
		}
		kind = k
	}
	if r.visitorThisSeason {
		return fail(protocol.ErrCooldown, "A visitor has already travelled this season.")
	}
	if p.AP < 1 {
		return noMoves()
	}
	if p.Resources[state.Coins] < r.tune.Visitor.Cost {
		return fail(protocol.ErrNoResource, fmt.Sprintf("A visitor costs %d coins.", r.tune.Visitor.Cost))
	}
	seq := r.turnSeq
	p.AP--
	p.Resources.Take(state.Coins, r.tune.Visitor.Cost)
	p.Stats.Spent.Add(state.Coins, r.tune.Visitor.Cost)
	p.VisitorsSent++
	r.visitorThisSeason = true

	v := &state.Visit{ID: r.newID("V"), From: id, To: to.ID, Kind: kind, DisguisedAs: state.VisitTrader, TS: r.nowMs()}
	r.visits[v.ID] = v
	r.emit(to.ID, protocol.EvVisitorOffer, protocol.Event{
		"id":          v.ID,
		"from":        v.From,
		"disguisedAs": string(v.DisguisedAs),
	})
	r.toast(id, fmt.Sprintf("Your envoy travels to %s.", to.ID))
	if to.IsAI {
		think := time.Duration(r.tune.Visitor.AIThinkMs) * time.Millisecond
		vid := v.ID
		r.q.Schedule(think, "ai-visit:"+vid, func() { r.aiDecideVisit(vid) })
	}
	r.afterAction(p, seq)
	return success()
}

// aiDecideVisit answers a visitor on behalf of an autonomous recipient and
// lets it resume its turn if the visit was blocking it.
func (r *Room) aiDecideVisit(vid string) {
	v := r.visits[vid]
	if v == nil {
		return
	}
	recv := r.players[v.To]
	if recv == nil || !recv.IsAI {
		return
	}
	r.apply(Command{
		PlayerID: v.To,
		Msg: protocol.CommandMsg{
			Type:     protocol.CmdResolveVisit,
			VisitID:  vid,
			Decision: ai.DecideVisit(r.rng),
		},
	})
	if r.active && !r.finished && r.turnOf == recv.ID && r.players[recv.ID] != nil {
		r.aiQueue = append(r.aiQueue, recv.ID)
	}
}

func (r *Room) outcome(to, kind, text string) {
	r.emit(to, protocol.EvVisitorOutcome, protocol.Event{"type": kind, "message": text})
}

func (r *Room) resolveVisit(id string, msg protocol.CommandMsg) Result {
	vid := msg.VisitID
	if vid == "" {
		vid = msg.ID
	}
	v := r.visits[vid]
	if v == nil {
		return fail(protocol.ErrNotFound, "No such visitor.")
	}
	if v.To != id {
		return fail(protocol.ErrNoPermission, "Not your visitor.")
	}
	if msg.Decision != "accept" && msg.Decision != "reject" {
		return fail(protocol.ErrBadRequest, "Decision must be accept or reject.")
	}
	delete(r.visits, v.ID)
	recv := r.players[v.To]
	sender := r.players[v.From]
	vt := r.tune.Visitor

	if msg.Decision == "accept" {
		recv.Resources.Add(state.Coins, vt.Reward)
		switch v.Kind {
		case state.VisitTrader:
			r.outcome(id, "trader", fmt.Sprintf("You welcomed %s's trader and gained %d coins.", v.From, vt.Reward))
			if sender != nil {
				sender.Resources.Add(state.Coins, vt.Reward)
				r.outcome(v.From, "trader", fmt.Sprintf("%s welcomed your trader. You gained %d coins.", id, vt.Reward))
			}
			r.logGame(fmt.Sprintf("%s accepted a trader from %s.", id, v.From))
		case state.VisitSpy:
			r.outcome(id, "trader", fmt.Sprintf("You welcomed %s's trader and gained %d coins.", v.From, vt.Reward))
			if sender != nil {
				r.outcome(v.From, "spy", r.spyReport(recv))
			}
			r.logGame(fmt.Sprintf("%s accepted a trader from %s.", id, v.From))
		case state.VisitRobber:
			stolen := recv.Resources.Take(state.Coins, vt.RobberSteal)
			r.outcome(id, "robber", fmt.Sprintf("The trader from %s was a robber in disguise and made off with %d coins.", v.From, stolen))
			if sender != nil {
				sender.Resources.Add(state.Coins, vt.Reward)
				r.outcome(v.From, "robber", fmt.Sprintf("Your robber deceived %s. You gained %d coins.", id, vt.Reward))
			}
			r.logGame(fmt.Sprintf("%s was deceived by %s's robber.", id, v.From))
		}
	} else {
		r.outcome(id, "trader", fmt.Sprintf("You turned away %s's trader.", v.From))
		if sender != nil {
			switch v.Kind {
			case state.VisitTrader:
				sender.Resources.Add(state.Coins, vt.Reward)
				r.outcome(v.From, "trader", fmt.Sprintf("%s rejected your trader. It returns with %d coins.", id, vt.Reward))
			default:
				r.outcome(v.From, string(v.Kind), fmt.Sprintf("%s turned your %s away, believing it a trader.", id, v.Kind))
			}
		}
	}
	recv.Progress = r.econ.Progress(recv)
	if sender != nil {
		sender.Progress = r.econ.Progress(sender)
	}
	r.broadcast()
	return success()
}

// spyReport reveals the target's defense and two of its stockpiles.
func (r *Room) spyReport(target *state.Player) string {
	picks := append([]state.Resource(nil), state.Gatherables...)
	r.rng.Shuffle(len(picks), func(i, j int) { picks[i], picks[j] = picks[j], picks[i] })
	def := int(math.Round(r.econ.Defense(target) * 100))
	return fmt.Sprintf("Your spy reports on %s: defense %d%%, %d %s, %d %s.",
		target.ID, def, target.Resources[picks[0]], picks[0], target.Resources[picks[1]], picks[1])
}
