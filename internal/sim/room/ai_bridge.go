package room

import (
	"math/rand"
	"sort"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/economy"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// aiGame exposes the room to the policy. It is only used on the room loop.
type aiGame struct{ r *Room }

func (g aiGame) Player(id string) *state.Player { return g.r.players[id] }
func (g aiGame) Players() []string { return append([]string(nil), g.r.order...) }
func (g aiGame) Economy() *economy.Model { return g.r.econ }
func (g aiGame) Rand() *rand.Rand { return g.r.rng }
func (g aiGame) SeasonsElapsed() int { return g.r.seasonsElapsed }
func (g aiGame) VisitorThisSeason() bool { return g.r.visitorThisSeason }
func (g aiGame) MonthIndex() int { return g.r.cal.MonthIndex }

func (g aiGame) IsTurn(id string) bool {
	return g.r.active && !g.r.finished && !g.r.closed && g.r.turnOf == id
}

func (g aiGame) IncomingOffers(id string) []state.TradeOffer {
	var out []state.TradeOffer
	for _, o := range g.r.offers {
		if o.To == id {
			out = append(out, *o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (g aiGame) Chatter(civ string) []string {
	return g.r.cats.Civs.Defs[civ].Chatter
}

func (g aiGame) Exec(id string, msg protocol.CommandMsg) bool {
	msg.ProtocolVersion = protocol.Version
	return g.r.apply(Command{PlayerID: id, Msg: msg}).OK
}

// driveAI runs queued autonomous turns. At most MaxAITurnsPerDrive turns run
// per call; the rest continue on the next tick so an all-AI table cannot
// starve the inbox.
func (r *Room) driveAI() {
	if r.driving {
		return
	}
	r.driving = true
	defer func() { r.driving = false }()

	budget := r.cfg.MaxAITurnsPerDrive
	for len(r.aiQueue) > 0 {
		if budget == 0 {
			if !r.aiScheduled {
				r.aiScheduled = true
				r.q.Schedule(0, "ai-continue", func() { r.aiScheduled = false })
			}
			return
		}
		id := r.aiQueue[0]
		r.aiQueue = r.aiQueue[1:]
		budget--
		r.runAITurn(id)
	}
}

func (r *Room) runAITurn(id string) {
	g := aiGame{r}
	p := r.players[id]
	if p == nil || !p.IsAI || !g.IsTurn(id) {
		return
	}
	seq := r.turnSeq
	sum := r.policy.TakeTurn(g, id)
	r.auditEvent(id, "AI_TURN", success(), map[string]any{
		"iterations": sum.Iterations,
		"actions":    sum.Actions,
		"aborted":    sum.Aborted,
	})
	// A pending visitor blocks the seat; the decision task requeues it.
	if g.IsTurn(id) && r.turnSeq == seq && !r.visitPendingFor(id) {
		r.endTurn(id)
	}
}
