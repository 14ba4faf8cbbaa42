// Package ai is the heuristic policy for autonomous seats. It reads state
// through Game and acts only through Game.Exec, the same resolver path a
// human command takes.
package ai

import (
	"math/rand"
	"sort"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/economy"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// Game is the room surface the policy needs.
type Game interface {
	Player(id string) *state.Player
	Players() []string
	IsTurn(id string) bool
	Economy() *economy.Model
	Rand() *rand.Rand
	SeasonsElapsed() int
	VisitorThisSeason() bool
	MonthIndex() int
	IncomingOffers(id string) []state.TradeOffer
	Chatter(civ string) []string
	Exec(id string, msg protocol.CommandMsg) bool
}

type Summary struct {
	Iterations int      `json:"iterations"`
	Actions    []string `json:"actions"`
	Aborted    bool     `json:"aborted,omitempty"`
}

type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

// DecideVisit is the coin flip an autonomous recipient makes for a visitor.
func DecideVisit(rng *rand.Rand) string {
	if rng.Float64() < 0.5 {
		return "accept"
	}
	return "reject"
}

type turn struct {
	g   Game
	m   *economy.Model
	rng *rand.Rand
	p   *state.Player
	s   *Summary
}

// TakeTurn plays one turn for id. It returns when the turn has passed, the
// moves ran out, the iteration cap was hit or no progress could be made.
func (e *Engine) TakeTurn(g Game, id string) Summary {
	var s Summary
	p := g.Player(id)
	if p == nil || !g.IsTurn(id) {
		return s
	}
	t := &turn{g: g, m: g.Economy(), rng: g.Rand(), p: p, s: &s}
	t.opening()

	for i := 0; i < t.m.T.AI.MaxIterations; i++ {
		if !g.IsTurn(id) || p.AP <= 0 {
			break
		}
		before := p.AP
		t.step()
		s.Iterations++
		if !g.IsTurn(id) {
			break
		}
		if p.AP == before {
			t.gather(t.randomGatherable())
			if g.IsTurn(id) && p.AP == before {
				s.Aborted = true
				break
			}
		}
	}
	return s
}

func (t *turn) exec(label string, msg protocol.CommandMsg) bool {
	if !t.g.Exec(t.p.ID, msg) {
		return false
	}
	t.s.Actions = append(t.s.Actions, label)
	return true
}

func (t *turn) act(action string, pl protocol.ActionPayload) bool {
	label := action
	if pl.Name != "" {
		label += ":" + pl.Name
	} else if pl.Type != "" {
		label += ":" + pl.Type
	}
	return t.exec(label, protocol.CommandMsg{Type: protocol.CmdPerformAction, Action: action, Payload: pl})
}

func (t *turn) gather(res state.Resource) bool {
	return t.act(protocol.ActGather, protocol.ActionPayload{Type: string(res)})
}

func (t *turn) randomGatherable() state.Resource {
	return state.Gatherables[t.rng.Intn(len(state.Gatherables))]
}

func (t *turn) randomOpponent() string {
	var others []string
	for _, id := range t.g.Players() {
		if id != t.p.ID {
			others = append(others, id)
		}
	}
	if len(others) == 0 {
		return ""
	}
	return others[t.rng.Intn(len(others))]
}

// opening runs the once-per-turn social moves: visitors, trade offers,
// answering incoming offers and a line of chatter. Moves that spend AP wait
// while food is under the floor.
func (t *turn) opening() {
	cfg := t.m.T.AI
	p := t.p
	fed := p.Resources[state.Food] >= cfg.FoodFloor[string(p.Age)]

	if fed && p.VisitorsSent < cfg.VisitorCap && !t.g.VisitorThisSeason() && p.Resources[state.Coins] >= t.m.T.Visitor.Cost {
		chance := cfg.VisitorChance
		if p.VisitorsSent == 0 && t.g.SeasonsElapsed() >= cfg.VisitorFirstSeasons {
			chance = cfg.VisitorFirstChance
		}
		if t.rng.Float64() < chance {
			if to := t.randomOpponent(); to != "" {
				t.exec("visit:"+to, protocol.CommandMsg{Type: protocol.CmdSendVisit, To: to, Kind: string(state.VisitTrader)})
			}
		}
	}

	if fed && t.g.IsTurn(p.ID) && p.AP > 1 && p.TradeOffersSent < cfg.TradeCap && t.rng.Float64() < cfg.TradeChance {
		perm := t.rng.Perm(len(state.Gatherables))
		give, want := state.Gatherables[perm[0]], state.Gatherables[perm[1]]
		amount := cfg.TradeMin + t.rng.Intn(cfg.TradeMax-cfg.TradeMin+1)
		if to := t.randomOpponent(); to != "" && p.Resources[give] >= amount {
			t.exec("offer:"+to, protocol.CommandMsg{
				Type: protocol.CmdProposeTrade,
				To:   to,
				Offer: &protocol.TradeOfferReq{
					Give: protocol.TradeTerms{Type: string(give), Amount: amount},
					Want: protocol.TradeTerms{Type: string(want), Amount: amount},
				},
			})
		}
	}

	accepted := false
	for _, o := range t.g.IncomingOffers(p.ID) {
		if !accepted && t.worthIt(o) {
			if t.exec("accept:"+o.ID, protocol.CommandMsg{Type: protocol.CmdRespondTrade, OfferID: o.ID, Response: "accept"}) {
				accepted = true
				continue
			}
		}
		t.exec("decline:"+o.ID, protocol.CommandMsg{Type: protocol.CmdRespondTrade, OfferID: o.ID, Response: "decline"})
	}

	if t.rng.Float64() < cfg.ChatChance {
		if lines := t.g.Chatter(p.Civ); len(lines) > 0 {
			t.exec("chat", protocol.CommandMsg{Type: protocol.CmdChat, Message: lines[t.rng.Intn(len(lines))]})
		}
	}
}

// value weighs coins at the bank sell ratio so offers compare like for like.
func (t *turn) value(x state.Terms) float64 {
	if x.Type == state.Coins {
		return float64(x.Amount * t.m.T.Bank.SellRatio)
	}
	return float64(x.Amount)
}

func (t *turn) worthIt(o state.TradeOffer) bool {
	from := t.g.Player(o.From)
	if from == nil || !from.Resources.Covers(o.Give.Bag()) || !t.p.Resources.Covers(o.Want.Bag()) {
		return false
	}
	return t.value(o.Give) >= t.m.T.AI.AcceptRatio*t.value(o.Want)
}

func (t *turn) step() {
	p, m := t.p, t.m
	age := string(p.Age)

	if m.AgeAdvanceEligible(p) {
		t.act(protocol.ActAdvance, protocol.ActionPayload{})
		age = string(p.Age)
	}

	floor := m.T.AI.FoodFloor[age]
	if p.Resources[state.Food] < floor {
		t.gather(state.Food)
		return
	}

	if p.TrainedByAge[p.Age] < m.T.AI.TrainTargets[age] {
		if t.trainStep(floor) {
			return
		}
	} else if p.WarsByAge[p.Age] < m.T.AI.WarMax[age] && t.canWar() {
		commit := p.Soldiers / 2
		if commit < m.T.Raid.MinCommit {
			commit = m.T.Raid.MinCommit
		}
		if t.act(protocol.ActRaid, protocol.ActionPayload{Commit: commit}) {
			return
		}
	}

	if t.buildCheapest(false) {
		return
	}
	if t.workTowardTarget() {
		return
	}
	t.gather(t.randomGatherable())
}

func (t *turn) canWar() bool {
	p, rt := t.p, t.m.T.Raid
	return !p.Raid.Active && p.Soldiers >= rt.MinCommit && t.g.MonthIndex()-p.LastWarMonth >= rt.CooldownMonths
}

// trainStep pursues the training quota: raise coins, train, or make room.
func (t *turn) trainStep(floor int) bool {
	p, m := t.p, t.m
	need := m.T.Army.TrainingRequires
	if need != "" && !p.Has(need) {
		if d, ok := m.B.Def(need); ok && d.Age == p.Age && p.Resources.Covers(d.Cost) {
			return t.act(protocol.ActBuild, protocol.ActionPayload{Name: need})
		}
		return false
	}
	b := m.T.Batch(string(p.Age))
	if m.SoldierCap(p)-p.Soldiers >= b.Size {
		if short := b.Coins - p.Resources[state.Coins]; short > 0 {
			return t.sellFor(short)
		}
		if p.Resources[state.Food]-b.Food >= floor {
			return t.act(protocol.ActTrain, protocol.ActionPayload{Batches: 1})
		}
		return false
	}
	return t.buildCheapest(true)
}

// buildCheapest builds the cheapest affordable missing building of the
// current age, optionally only those raising the army cap.
func (t *turn) buildCheapest(capOnly bool) bool {
	p, m := t.p, t.m
	best, bestCost := "", 0
	for _, name := range m.B.InAge(p.Age, false) {
		if p.Has(name) {
			continue
		}
		d := m.B.Defs[name]
		if capOnly && d.Effect.SoldierCap <= 0 {
			continue
		}
		if !p.Resources.Covers(d.Cost) {
			continue
		}
		if c := d.Cost.Sum(); best == "" || c < bestCost {
			best, bestCost = name, c
		}
	}
	if best == "" {
		return false
	}
	return t.act(protocol.ActBuild, protocol.ActionPayload{Name: best})
}

// target is the victory structure once it is in reach, otherwise the unbuilt
// current-age building closest to affordable.
func (t *turn) target() string {
	p, m := t.p, t.m
	final := state.Ages[len(state.Ages)-1]
	if m.VictoryUnlocked(p) && m.CountInAge(p, final, false) >= m.T.Age.RevealVictory {
		return m.B.Victory
	}
	best, bestGap := "", 0
	for _, name := range m.B.InAge(p.Age, false) {
		if p.Has(name) {
			continue
		}
		gap := p.Resources.Missing(m.B.Defs[name].Cost).Sum()
		if best == "" || gap < bestGap {
			best, bestGap = name, gap
		}
	}
	return best
}

func (t *turn) workTowardTarget() bool {
	name := t.target()
	if name == "" {
		return false
	}
	d := t.m.B.Defs[name]
	if t.p.Resources.Covers(d.Cost) {
		return t.act(protocol.ActBuild, protocol.ActionPayload{Name: name})
	}
	missing := t.p.Resources.Missing(d.Cost)
	var worst state.Resource
	for _, res := range state.Resources {
		if missing[res] > missing[worst] {
			worst = res
		}
	}
	if worst == "" {
		return false
	}
	if worst == state.Coins {
		return t.sellFor(missing[state.Coins])
	}
	return t.gather(worst)
}

// sellFor sells the largest gatherable surplus to raise coins.
func (t *turn) sellFor(coins int) bool {
	p, m := t.p, t.m
	if coins < m.T.AI.MinSellCoins {
		coins = m.T.AI.MinSellCoins
	}
	floor := m.T.AI.FoodFloor[string(p.Age)]
	type stock struct {
		res  state.Resource
		free int
	}
	var stocks []stock
	for _, res := range state.Gatherables {
		free := p.Resources[res]
		if res == state.Food {
			free -= floor
		}
		if free > 0 {
			stocks = append(stocks, stock{res, free})
		}
	}
	if len(stocks) == 0 {
		return false
	}
	sort.SliceStable(stocks, func(i, j int) bool { return stocks[i].free > stocks[j].free })
	best := stocks[0]
	amount := coins * m.T.Bank.SellRatio
	if amount > best.free {
		amount = best.free
	}
	if amount < m.T.Bank.SellRatio {
		return false
	}
	return t.act(protocol.ActTrade, protocol.ActionPayload{Mode: "sell", Type: string(best.res), Amount: amount})
}
