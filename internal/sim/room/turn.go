package room

import (
	"fmt"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

type seasonEvent struct {
	Triggered bool
	Chance    float64
}

var seasonEventText = map[state.Season]string{
	state.Spring: "Spring rains bless the fields: %+d food.",
	state.Summer: "A summer drought withers the crops: %+d food.",
	state.Autumn: "A bountiful autumn harvest: %+d food.",
	state.Winter: "A harsh winter spoils the stores: %+d food.",
}

// startIfReady activates the room once it has at least two players and
// every one of them is ready.
func (r *Room) startIfReady() {
	if r.active || r.finished || r.closed || len(r.order) < 2 {
		return
	}
	for _, id := range r.order {
		if !r.players[id].Ready {
			return
		}
	}
	r.active = true
	if r.startedAt == 0 {
		r.startedAt = r.nowMs()
	}
	r.turnOf = r.order[0]
	p := r.players[r.turnOf]
	p.AP = r.tune.Turn.APPerTurn
	p.BankedAP = 0
	r.turnSeq++
	r.logGame("The game has begun.")
	r.logger.Printf("room %s: started with %d players", r.cfg.Code, len(r.order))
	r.startOfTurn()
}

// endTurn banks the leftover moves and hands the turn on. Ending a turn that
// is not yours is a no-op.
func (r *Room) endTurn(id string) Result {
	if !r.active || r.finished {
		return fail(protocol.ErrInactive, "The game is not running.")
	}
	if r.turnOf != id {
		return fail(protocol.ErrNotYourTurn, "Not your turn.")
	}
	p := r.players[id]
	banked := p.BankedAP + p.AP
	if banked > r.tune.Turn.BankLimit {
		banked = r.tune.Turn.BankLimit
	}
	p.BankedAP = banked
	p.AP = 0
	r.starvationCheck(p)
	r.totalTurns++
	p.Stats.WealthHistory = append(p.Stats.WealthHistory, state.WealthPoint{Turn: r.totalTurns, Wealth: r.econ.Wealth(p.Resources)})
	if banked > 0 {
		r.toast(id, fmt.Sprintf("Turn ended. %d moves banked.", banked))
	}
	r.nextTurn()
	return success()
}

// nextTurn advances over the order; wrapping back to the first seat moves
// the calendar one month forward.
func (r *Room) nextTurn() {
	if len(r.order) == 0 {
		r.turnOf = ""
		return
	}
	idx := indexOf(r.order, r.turnOf)
	next := (idx + 1) % len(r.order)
	if next == 0 {
		r.cal.MonthIndex++
		r.cal.Day = 1 + r.rng.Intn(r.tune.Calendar.DayMax)
	}
	r.turnOf = r.order[next]
	p := r.players[r.turnOf]
	p.AP = r.tune.Turn.APPerTurn + p.BankedAP
	p.BankedAP = 0
	r.turnSeq++
	r.startOfTurn()
}

func (r *Room) startOfTurn() {
	if season := r.cal.Season(); season != r.lastSeason {
		r.nextSeason(season)
	}
	if r.finished || !r.active {
		return
	}
	p := r.players[r.turnOf]

	if r.firstTurnDone {
		p.Resources.Add(state.Coins, r.econ.CoinIncome(p))
	}
	r.firstTurnDone = true

	food, coins := r.econ.Upkeep(p)
	if got := p.Resources.Take(state.Food, food); got < food {
		r.toast(p.ID, "Your granaries cannot feed the whole army.")
	}
	if got := p.Resources.Take(state.Coins, coins); got < coins {
		r.toast(p.ID, "Your treasury cannot pay the whole army.")
	}
	r.seasonalEvent(p)
	p.Progress = r.econ.Progress(p)

	r.broadcast()
	r.summary = nil
	r.turnFlags()
	if p.IsAI {
		r.aiQueue = append(r.aiQueue, p.ID)
	}
}

// nextSeason runs season-end resolution for the season that just ended and
// resets the per-season markers.
func (r *Room) nextSeason(season state.Season) {
	prev := r.lastSeason
	r.lastSeason = season
	sum := &protocol.SeasonSummary{From: string(prev), To: string(season)}
	r.summary = sum

	r.seasonsElapsed++
	r.tribalRoll(sum)
	r.resolveMercenary(sum)
	r.resolveWars(season, sum)
	r.resetSeasonMarkers()
	r.logGame(fmt.Sprintf("%s gives way to %s.", prev, season))
}

func (r *Room) seasonalEvent(p *state.Player) {
	if r.event.Triggered || r.rng.Float64() >= r.event.Chance {
		return
	}
	r.event.Triggered = true
	season := r.cal.Season()
	delta := r.tune.Season.EventFood[string(season)]
	if delta >= 0 {
		p.Resources.Add(state.Food, delta)
	} else {
		delta = -p.Resources.Take(state.Food, -delta)
	}
	text := fmt.Sprintf(seasonEventText[season], delta)
	r.toast(p.ID, text)
	r.logPlayer(p, text)
}

// starvationCheck may cost soldiers when the granary is empty at turn end.
func (r *Room) starvationCheck(p *state.Player) {
	if p.Resources[state.Food] > 0 || p.Soldiers == 0 {
		return
	}
	if r.rng.Float64() >= r.tune.Starvation.Chance {
		return
	}
	span := r.tune.Starvation.Loss[string(p.Age)]
	if len(span) != 2 || span[1] < span[0] {
		return
	}
	n := span[0] + r.rng.Intn(span[1]-span[0]+1)
	if n > p.Soldiers {
		n = p.Soldiers
	}
	p.Soldiers -= n
	text := fmt.Sprintf("Famine! %d soldiers deserted your army.", n)
	r.toast(p.ID, text)
	r.logPlayer(p, text)
}

func (r *Room) turnFlags() {
	for _, id := range r.humanIDs() {
		r.emit(id, protocol.EvTurnFlag, protocol.Event{"yourTurn": r.active && r.turnOf == id})
	}
}

func indexOf(xs []string, v string) int {
	for i, x := range xs {
		if x == v {
			return i
		}
	}
	return -1
}
