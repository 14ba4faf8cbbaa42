package room

import (
	"fmt"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

func parseTerms(t protocol.TradeTerms) (state.Terms, bool) {
	res, ok := state.ParseResource(t.Type)
	if !ok {
		return state.Terms{}, false
	}
	amount := t.Amount
	if amount > state.MaxAmount {
		return state.Terms{}, false
	}
	if amount < 1 {
		amount = 1
	}
	return state.Terms{Type: res, Amount: amount}, true
}

func offerEvent(o *state.TradeOffer) protocol.Event {
	return protocol.Event{
		"id":   o.ID,
		"from": o.From,
		"to":   o.To,
		"give": o.Give,
		"want": o.Want,
		"ts":   o.TS,
	}
}

// openOffer spends the actor's move and records a new offer. There is no
// escrow: the sender only has to hold the goods now.
func (r *Room) openOffer(from *state.Player, to string, req *protocol.TradeOfferReq) Result {
	if to == from.ID || r.players[to] == nil {
		return fail(protocol.ErrInvalidTarget, "Invalid trade partner.")
	}
	if req == nil {
		return fail(protocol.ErrBadRequest, "Missing offer.")
	}
	give, ok1 := parseTerms(req.Give)
	want, ok2 := parseTerms(req.Want)
	if !ok1 || !ok2 {
		return fail(protocol.ErrBadRequest, fmt.Sprintf("Offers name a known resource and at most %d of it.", state.MaxAmount))
	}
	if from.AP < 1 {
		return noMoves()
	}
	if !from.Resources.Covers(give.Bag()) {
		return fail(protocol.ErrNoResource, "You don't have what you are offering.")
	}
	from.AP--
	o := &state.TradeOffer{ID: r.newID("T"), From: from.ID, To: to, Give: give, Want: want, TS: r.nowMs()}
	r.offers[o.ID] = o
	from.TradeOffersSent++
	r.emit(to, protocol.EvTradeOffer, offerEvent(o))
	r.toast(from.ID, fmt.Sprintf("Offer sent to %s.", to))
	return success()
}

func (r *Room) proposeTrade(id string, msg protocol.CommandMsg) Result {
	p, res := r.requireTurn(id)
	if !res.OK {
		return res
	}
	seq := r.turnSeq
	if res = r.openOffer(p, msg.To, msg.Offer); !res.OK {
		return res
	}
	r.afterAction(p, seq)
	return res
}

func (r *Room) respondTrade(id string, msg protocol.CommandMsg) Result {
	o := r.offers[msg.OfferID]
	if o == nil {
		return fail(protocol.ErrNotFound, "Offer no longer available.")
	}
	resp := msg.Response
	if resp == "" {
		resp = msg.Action
	}
	switch resp {
	case "decline":
		if id != o.To && id != o.From {
			return fail(protocol.ErrNoPermission, "Not your offer.")
		}
		delete(r.offers, o.ID)
		if id == o.From {
			r.toast(o.To, fmt.Sprintf("%s withdrew their offer.", o.From))
		} else {
			r.toast(o.From, fmt.Sprintf("%s declined your offer.", o.To))
		}
		r.broadcast()
		return success()

	case "accept":
		if id != o.To {
			return fail(protocol.ErrNoPermission, "Only the recipient can accept.")
		}
		return r.acceptOffer(o)

	case "counter":
		if id != o.To {
			return fail(protocol.ErrNoPermission, "Only the recipient can counter.")
		}
		actor := r.players[id]
		seq := r.turnSeq
		if res := r.openOffer(actor, o.From, msg.Counter); !res.OK {
			return res
		}
		delete(r.offers, o.ID)
		if r.turnOf == id {
			r.afterAction(actor, seq)
		} else {
			r.broadcast()
		}
		return success()
	}
	return fail(protocol.ErrBadRequest, "Response must be accept, decline or counter.")
}

// acceptOffer swaps both sides atomically or, when either side no longer
// holds its goods, turns into a decline.
func (r *Room) acceptOffer(o *state.TradeOffer) Result {
	delete(r.offers, o.ID)
	from, to := r.players[o.From], r.players[o.To]
	if from == nil || to == nil {
		r.broadcast()
		return fail(protocol.ErrInvalidTarget, "The other party has left.")
	}
	var short string
	switch {
	case !from.Resources.Covers(o.Give.Bag()):
		short = fmt.Sprintf("%s no longer has %d %s.", from.ID, o.Give.Amount, o.Give.Type)
	case !to.Resources.Covers(o.Want.Bag()):
		short = fmt.Sprintf("%s does not have %d %s.", to.ID, o.Want.Amount, o.Want.Type)
	}
	if short != "" {
		text := "Trade failed: " + short
		r.toast(from.ID, text)
		r.broadcast()
		return fail(protocol.ErrNoResource, text)
	}
	from.Resources.Take(o.Give.Type, o.Give.Amount)
	to.Resources.Add(o.Give.Type, o.Give.Amount)
	to.Resources.Take(o.Want.Type, o.Want.Amount)
	from.Resources.Add(o.Want.Type, o.Want.Amount)
	from.Stats.TradesCompleted++
	to.Stats.TradesCompleted++
	from.Progress = r.econ.Progress(from)
	to.Progress = r.econ.Progress(to)

	text := fmt.Sprintf("%s traded %d %s to %s for %d %s.", from.ID, o.Give.Amount, o.Give.Type, to.ID, o.Want.Amount, o.Want.Type)
	r.toast(from.ID, text)
	r.toast(to.ID, text)
	r.logGame(text)
	r.broadcast()
	return success()
}
