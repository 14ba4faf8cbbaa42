package room

import (
	"fmt"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// requireTurn checks the shared pre-conditions of every turn-scoped command.
func (r *Room) requireTurn(id string) (*state.Player, Result) {
	if !r.active || r.finished {
		return nil, fail(protocol.ErrInactive, "The game is not running.")
	}
	if r.turnOf != id {
		return nil, fail(protocol.ErrNotYourTurn, "Not your turn.")
	}
	return r.players[id], success()
}

// afterAction recomputes progress and ends the turn when the moves ran out
// and the action did not already hand the turn on.
func (r *Room) afterAction(p *state.Player, seq int) {
	if r.players[p.ID] == nil {
		return
	}
	p.Progress = r.econ.Progress(p)
	if r.active && !r.finished && r.turnOf == p.ID && r.turnSeq == seq && p.AP == 0 {
		r.toast(p.ID, "Your turn ended because you ran out of moves.")
		r.endTurn(p.ID)
		return
	}
	r.broadcast()
}

func (r *Room) performAction(id string, msg protocol.CommandMsg) Result {
	p, res := r.requireTurn(id)
	if !res.OK {
		return res
	}
	if r.visitPendingFor(id) {
		return fail(protocol.ErrBlocked, "Decide the visitor at your gate first.")
	}
	seq := r.turnSeq
	pl := msg.Payload
	switch msg.Action {
	case protocol.ActGather:
		res = r.gather(p, pl.Type)
	case protocol.ActBuild:
		res = r.build(p, pl.Name)
	case protocol.ActUpgrade:
		res = r.upgrade(p, pl.Name)
	case protocol.ActTrain:
		res = r.train(p, pl.Batches)
	case protocol.ActRaid:
		res = r.raid(p, pl.Commit)
	case protocol.ActTrade:
		res = r.bankTrade(p, pl.Mode, pl.Type, pl.Amount)
	case protocol.ActAdvance:
		res = r.advanceAge(p)
	case protocol.ActSkip, protocol.ActEndTurn:
		return r.endTurn(id)
	default:
		return fail(protocol.ErrBadRequest, "Unknown action.")
	}
	if !res.OK {
		return res
	}
	r.afterAction(p, seq)
	return res
}

func noMoves() Result { return fail(protocol.ErrNoMoves, "No moves left.") }

func (r *Room) gather(p *state.Player, typ string) Result {
	res, ok := state.ParseResource(typ)
	if !ok || !res.Gatherable() {
		return fail(protocol.ErrBadRequest, "Unknown resource.")
	}
	if p.AP < 1 {
		return noMoves()
	}
	n := r.econ.SeasonalYield(p, res, r.seasonMult(res))
	p.AP--
	p.Resources.Add(res, n)
	p.Stats.Gathered.Add(res, n)
	r.logPlayer(p, fmt.Sprintf("Gathered %d %s.", n, res))
	return success()
}

func (r *Room) build(p *state.Player, name string) Result {
	def, ok := r.cats.Buildings.Def(name)
	if !ok {
		return fail(protocol.ErrBadRequest, "Unknown building.")
	}
	if p.Has(name) {
		return fail(protocol.ErrConflict, "Already built.")
	}
	if name == r.cats.Buildings.Victory {
		if p.Age != def.Age || !r.econ.VictoryUnlocked(p) {
			return fail(protocol.ErrBlocked, fmt.Sprintf("The %s needs the final age and two buildings in every age.", name))
		}
	} else if def.Age != p.Age {
		return fail(protocol.ErrBlocked, "That building is not of your age.")
	}
	if p.AP < 1 {
		return noMoves()
	}
	if !p.Resources.Pay(def.Cost) {
		return fail(protocol.ErrNoResource, "Not enough resources.")
	}
	for res, n := range def.Cost {
		p.Stats.Spent.Add(res, n)
	}
	p.AP--
	p.Structures[name] = &state.Structure{Level: state.StructureMinLevel}
	p.Stats.BuildingsBuilt++
	if def.Effect.Soldiers > 0 {
		if headroom := r.econ.SoldierCap(p) - p.Soldiers; headroom > 0 {
			add := def.Effect.Soldiers
			if add > headroom {
				add = headroom
			}
			p.Soldiers += add
		}
	}
	r.econ.RevealOnBuild(p, name)
	r.logPlayer(p, fmt.Sprintf("Built %s.", name))
	r.logGame(fmt.Sprintf("%s built %s.", p.ID, name))
	if def.Effect.Win {
		r.victory(p)
	}
	return success()
}

func (r *Room) upgrade(p *state.Player, name string) Result {
	s := p.Structures[name]
	if s == nil {
		return fail(protocol.ErrInvalidTarget, "You don't own that building.")
	}
	if def, _ := r.cats.Buildings.Def(name); def.Age != p.Age {
		return fail(protocol.ErrBlocked, "Only buildings of your current age can be upgraded.")
	}
	if s.Level >= state.StructureMaxLevel {
		return fail(protocol.ErrConflict, "Already at max level.")
	}
	if p.AP < 1 {
		return noMoves()
	}
	p.AP--
	s.Level++
	p.Stats.BuildingsUpgraded++
	r.logPlayer(p, fmt.Sprintf("Upgraded %s to level %d.", name, s.Level))
	return success()
}

func (r *Room) train(p *state.Player, batches int) Result {
	if need := r.tune.Army.TrainingRequires; need != "" && !p.Has(need) {
		return fail(protocol.ErrBlocked, fmt.Sprintf("Build %s first.", need))
	}
	if batches == 0 {
		batches = 1
	}
	if batches < 0 {
		return fail(protocol.ErrBadRequest, "Batches must be at least 1.")
	}
	b := r.tune.Batch(string(p.Age))
	size := b.Size * batches
	cost := state.Bag{state.Food: b.Food * batches, state.Coins: b.Coins * batches}
	if r.econ.SoldierCap(p)-p.Soldiers < size {
		return fail(protocol.ErrBlocked, "Not enough room in your army.")
	}
	if p.AP < 1 {
		return noMoves()
	}
	if !p.Resources.Pay(cost) {
		return fail(protocol.ErrNoResource, "Not enough food or coins to train.")
	}
	p.Stats.Spent.Add(state.Food, cost[state.Food])
	p.Stats.Spent.Add(state.Coins, cost[state.Coins])
	p.AP--
	p.Soldiers += size
	p.TrainedByAge[p.Age] += size
	p.Stats.SoldiersRecruited += size
	r.logPlayer(p, fmt.Sprintf("Trained %d soldiers.", size))
	return success()
}

func (r *Room) raid(p *state.Player, commit int) Result {
	if p.Raid.Active {
		return fail(protocol.ErrConflict, "A raid is already underway.")
	}
	if r.cal.MonthIndex-p.LastWarMonth < r.tune.Raid.CooldownMonths {
		return fail(protocol.ErrCooldown, "Your people need time before another war.")
	}
	if commit < r.tune.Raid.MinCommit {
		return fail(protocol.ErrBadRequest, fmt.Sprintf("Commit at least %d soldiers.", r.tune.Raid.MinCommit))
	}
	if commit > p.Soldiers {
		return fail(protocol.ErrNoResource, "Not enough soldiers.")
	}
	if p.AP < 1 {
		return noMoves()
	}
	season := r.cal.Season()
	p.AP--
	p.Soldiers -= commit
	p.Raid = state.RaidState{
		Active:              true,
		Committed:           commit,
		StartedSeason:       season,
		ResolvesAfterSeason: state.NextSeason(season),
	}
	p.LastWarMonth = r.cal.MonthIndex
	p.WarsByAge[p.Age]++
	p.Stats.RaidsLaunched++
	r.emit(p.ID, protocol.EvRaidDispatch, protocol.Event{
		"committed":           commit,
		"resolvesAfterSeason": string(p.Raid.ResolvesAfterSeason),
		"chance":              r.econ.RaidChance(p, commit),
	})
	r.logPlayer(p, fmt.Sprintf("Sent %d soldiers to war.", commit))
	r.logGame(fmt.Sprintf("%s marched to war.", p.ID))
	return success()
}

// bankTrade converts with the market at fixed prices.
func (r *Room) bankTrade(p *state.Player, mode, typ string, amount int) Result {
	res, ok := state.ParseResource(typ)
	if !ok || !res.Gatherable() {
		return fail(protocol.ErrBadRequest, "Unknown resource.")
	}
	if amount < 1 {
		amount = 1
	}
	if amount > state.MaxAmount {
		return fail(protocol.ErrBadRequest, fmt.Sprintf("Trade at most %d at once.", state.MaxAmount))
	}
	switch mode {
	case "sell":
		coins := amount / r.tune.Bank.SellRatio
		if coins == 0 {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("Sell at least %d to earn a coin.", r.tune.Bank.SellRatio))
		}
		if p.AP < 1 {
			return noMoves()
		}
		if p.Resources[res] < amount {
			return fail(protocol.ErrNoResource, fmt.Sprintf("Not enough %s.", res))
		}
		p.AP--
		p.Resources.Take(res, amount)
		p.Resources.Add(state.Coins, coins)
		r.logPlayer(p, fmt.Sprintf("Sold %d %s for %d coins.", amount, res, coins))
	case "buy":
		if p.AP < 1 {
			return noMoves()
		}
		// Compare before multiplying so a huge amount cannot wrap the cost.
		if amount > p.Resources[state.Coins]/r.tune.Bank.BuyPrice {
			return fail(protocol.ErrNoResource, "Not enough coins.")
		}
		cost := amount * r.tune.Bank.BuyPrice
		p.AP--
		p.Resources.Take(state.Coins, cost)
		p.Resources.Add(res, amount)
		p.Stats.Spent.Add(state.Coins, cost)
		r.logPlayer(p, fmt.Sprintf("Bought %d %s for %d coins.", amount, res, cost))
	default:
		return fail(protocol.ErrBadRequest, "Trade mode must be sell or buy.")
	}
	return success()
}

func (r *Room) advanceAge(p *state.Player) Result {
	age, ok := r.econ.MaybeAdvanceAge(p, r.rng, r.totalTurns, r.nowMs())
	if !ok {
		return fail(protocol.ErrBlocked, "You are not ready to advance.")
	}
	text := fmt.Sprintf("Advanced to the %s Age.", age)
	r.toast(p.ID, text)
	r.logPlayer(p, text)
	r.logGame(fmt.Sprintf("%s entered the %s Age.", p.ID, age))
	return success()
}

func (r *Room) victory(p *state.Player) {
	p.Progress = 100
	r.finished = true
	r.active = false
	r.winner = p.ID
	r.endedAt = r.nowMs()
	r.turnSeq++
	r.logGame(fmt.Sprintf("%s completed the %s and won the game!", p.ID, r.cats.Buildings.Victory))
	rec := r.gameRecord()
	for _, id := range r.humanIDs() {
		r.emit(id, protocol.EvGameOver, protocol.Event{"winner": p.ID, "stats": rec})
	}
	if r.games != nil {
		_ = r.games.RecordGame(rec)
	}
	r.logger.Printf("room %s: %s won after %d turns", r.cfg.Code, p.ID, r.totalTurns)
}
