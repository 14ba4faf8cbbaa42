package room

import (
	"fmt"
	"math"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

type raidTier string

const (
	tierDefended   raidTier = "defended"
	tierBreached   raidTier = "breached"
	tierDevastated raidTier = "devastated"
)

// AttackRecord is one resolved attack of any kind.
type AttackRecord struct {
	Turn     int       `json:"turn"`
	Kind     string    `json:"kind"`
	Attacker string    `json:"attacker,omitempty"`
	Target   string    `json:"target,omitempty"`
	Outcome  string    `json:"outcome"`
	Loot     state.Bag `json:"loot,omitempty"`
	Lost     state.Bag `json:"lost,omitempty"`
	Ruined   []string  `json:"ruined,omitempty"`
	Soldiers int       `json:"soldiers,omitempty"`
}

func (r *Room) recordAttack(a AttackRecord) {
	a.Turn = r.totalTurns
	r.attacks = state.AppendCapped(r.attacks, a, state.LogCap)
}

// tribalTier grades a target's defense against the thresholds of its age.
func (r *Room) tribalTier(p *state.Player) raidTier {
	th := r.tune.Tribal.Thresholds[string(p.Age)]
	d := r.econ.Defense(p)
	switch {
	case d >= th.Safe:
		return tierDefended
	case d >= th.Loss:
		return tierBreached
	default:
		return tierDevastated
	}
}

// applyRaidLosses takes a share of one or two resources and half the coins,
// and on devastation collapses some current-age structures.
func (r *Room) applyRaidLosses(p *state.Player, tier raidTier) (state.Bag, []string) {
	lost := state.Bag{}
	if tier == tierDefended {
		return lost, nil
	}
	lo, hi := r.tune.Tribal.BreachMin, r.tune.Tribal.BreachMax
	if tier == tierDevastated {
		lo, hi = r.tune.Tribal.DevastateMin, r.tune.Tribal.DevastateMax
	}
	picks := append([]state.Resource(nil), state.Gatherables...)
	r.rng.Shuffle(len(picks), func(i, j int) { picks[i], picks[j] = picks[j], picks[i] })
	for _, res := range picks[:1+r.rng.Intn(2)] {
		pct := lo + r.rng.Float64()*(hi-lo)
		if n := p.Resources.Take(res, int(math.Floor(float64(p.Resources[res])*pct))); n > 0 {
			lost[res] = n
		}
	}
	if n := p.Resources.Take(state.Coins, int(math.Floor(float64(p.Resources[state.Coins])*r.tune.Tribal.CoinLoss))); n > 0 {
		lost[state.Coins] = n
	}

	var ruined []string
	if tier == tierDevastated {
		var standing []string
		for _, name := range r.cats.Buildings.InAge(p.Age, false) {
			if p.Has(name) && !r.econ.IsWall(name) {
				standing = append(standing, name)
			}
		}
		r.rng.Shuffle(len(standing), func(i, j int) { standing[i], standing[j] = standing[j], standing[i] })
		n := 1
		if r.tune.Tribal.MaxCollapse > 1 {
			n += r.rng.Intn(r.tune.Tribal.MaxCollapse)
		}
		if n > len(standing) {
			n = len(standing)
		}
		for _, name := range standing[:n] {
			delete(p.Structures, name)
			ruined = append(ruined, name)
		}
		// Losing housing disbands whoever no longer fits.
		if limit := r.econ.SoldierCap(p); p.Soldiers > limit {
			p.Soldiers = limit
		}
	}
	return lost, ruined
}

func describeBag(b state.Bag) string {
	s := ""
	for _, res := range state.Resources {
		if n := b[res]; n > 0 {
			if s != "" {
				s += ", "
			}
			s += fmt.Sprintf("%d %s", n, res)
		}
	}
	if s == "" {
		return "nothing"
	}
	return s
}

// tribalRoll is the room-wide barbarian attack, at most one per season.
func (r *Room) tribalRoll(sum *protocol.SeasonSummary) {
	if r.raidedThisSeason || r.pendingMerc != nil || len(r.order) == 0 {
		return
	}
	if r.seasonsElapsed < r.tune.Tribal.MinSeasons || r.rng.Float64() >= r.tune.Tribal.Chance {
		return
	}
	r.raidedThisSeason = true
	p := r.players[r.order[r.rng.Intn(len(r.order))]]
	tier := r.tribalTier(p)
	lost, ruined := r.applyRaidLosses(p, tier)
	p.Progress = r.econ.Progress(p)

	var text string
	switch tier {
	case tierDefended:
		text = fmt.Sprintf("Tribes attacked %s but the defenses held.", p.ID)
	case tierBreached:
		text = fmt.Sprintf("Tribes breached %s's defenses and carried off %s.", p.ID, describeBag(lost))
	default:
		text = fmt.Sprintf("Tribes devastated %s: lost %s, %d buildings collapsed.", p.ID, describeBag(lost), len(ruined))
	}
	sum.Events = append(sum.Events, text)
	r.toast(p.ID, text)
	r.logGame(text)
	r.recordAttack(AttackRecord{Kind: "tribal", Target: p.ID, Outcome: string(tier), Lost: lost, Ruined: ruined})
}

// triggerRaid hires mercenaries against a rival for the next season boundary.
func (r *Room) triggerRaid(id string, msg protocol.CommandMsg) Result {
	p, res := r.requireTurn(id)
	if !res.OK {
		return res
	}
	target := msg.TargetPlayerID
	if target == id || r.players[target] == nil {
		return fail(protocol.ErrInvalidTarget, "Choose another player to raid.")
	}
	if r.raidedThisSeason || r.pendingMerc != nil {
		return fail(protocol.ErrCooldown, "A raid has already been arranged this season.")
	}
	if r.mercHired[id] {
		return fail(protocol.ErrCooldown, "You already hired mercenaries this season.")
	}
	if p.Resources[state.Coins] < r.tune.Mercenary.Cost {
		return fail(protocol.ErrNoResource, fmt.Sprintf("Mercenaries cost %d coins.", r.tune.Mercenary.Cost))
	}
	p.Resources.Take(state.Coins, r.tune.Mercenary.Cost)
	p.Stats.Spent.Add(state.Coins, r.tune.Mercenary.Cost)
	r.mercHired[id] = true
	r.pendingMerc = &state.MercenaryRaid{Hirer: id, Target: target, Season: r.cal.Season()}
	r.toast(id, fmt.Sprintf("Mercenaries will strike %s when the season turns.", target))
	r.logPlayer(p, fmt.Sprintf("Hired mercenaries against %s.", target))
	r.broadcast()
	return success()
}

// resolveMercenary runs a pending hired raid. It always breaches at least.
func (r *Room) resolveMercenary(sum *protocol.SeasonSummary) {
	m := r.pendingMerc
	if m == nil {
		return
	}
	r.pendingMerc = nil
	target := r.players[m.Target]
	if target == nil {
		return
	}
	r.raidedThisSeason = true
	tier := r.tribalTier(target)
	if tier == tierDefended {
		tier = tierBreached
	}
	lost, ruined := r.applyRaidLosses(target, tier)
	target.Progress = r.econ.Progress(target)

	loot := state.Bag{}
	if hirer := r.players[m.Hirer]; hirer != nil {
		for res, n := range lost {
			share := n - int(math.Floor(float64(n)*r.tune.Mercenary.Cut))
			if share > 0 {
				hirer.Resources.Add(res, share)
				loot[res] = share
			}
		}
		hirer.Progress = r.econ.Progress(hirer)
		r.toast(hirer.ID, fmt.Sprintf("Your mercenaries raided %s and brought back %s.", target.ID, describeBag(loot)))
	}
	text := fmt.Sprintf("Mercenaries raided %s and took %s.", target.ID, describeBag(lost))
	r.toast(target.ID, text)
	r.logGame(text)
	sum.Events = append(sum.Events, text)
	r.recordAttack(AttackRecord{Kind: "mercenary", Attacker: m.Hirer, Target: target.ID, Outcome: string(tier), Loot: loot, Lost: lost, Ruined: ruined})
}

// resolveWars brings home every army due at this season boundary, in seat order.
func (r *Room) resolveWars(season state.Season, sum *protocol.SeasonSummary) {
	for _, id := range r.order {
		p := r.players[id]
		if !p.Raid.Active || p.Raid.ResolvesAfterSeason != season {
			continue
		}
		won, loot, casualties := r.resolveWar(p)
		outcome := "lost"
		if won {
			outcome = "won"
		}
		sum.Events = append(sum.Events, fmt.Sprintf("%s's army returned: %s.", id, outcome))
		r.recordAttack(AttackRecord{Kind: "war", Attacker: id, Outcome: outcome, Loot: loot, Soldiers: casualties})
	}
}

func (r *Room) resolveWar(p *state.Player) (bool, state.Bag, int) {
	rt := r.tune.Raid
	committed := p.Raid.Committed
	chance := r.econ.RaidChance(p, committed)
	won := r.rng.Float64() <= chance

	loot := state.Bag{}
	var casualties int
	if won {
		scale := float64(committed) / float64(rt.MinCommit)
		for _, res := range state.Resources {
			base := rt.Loot[string(res)]
			if base == 0 {
				continue
			}
			n := int(math.Round(float64(base) * (rt.LootMin + rt.LootSpread*r.rng.Float64()) * scale))
			if n > 0 {
				p.Resources.Add(res, n)
				loot[res] = n
			}
		}
		casualties = int(math.Round(float64(committed) * rt.WinCasualty * r.rng.Float64()))
		p.Stats.RaidsWon++
	} else {
		casualties = int(math.Round(float64(committed) * (rt.LossCasualtyMin + rt.LossCasualtySpread*r.rng.Float64())))
		if casualties < 1 {
			casualties = 1
		}
		p.Stats.RaidsLost++
	}
	if casualties > committed {
		casualties = committed
	}
	survivors := committed - casualties
	p.Soldiers += survivors
	if limit := r.econ.SoldierCap(p); p.Soldiers > limit {
		p.Soldiers = limit
	}
	p.Raid = state.RaidState{}
	p.Progress = r.econ.Progress(p)

	r.emit(p.ID, protocol.EvRaidReturn, protocol.Event{
		"success":    won,
		"loot":       bagMap(loot),
		"casualties": casualties,
		"survivors":  survivors,
	})
	if won {
		r.logPlayer(p, fmt.Sprintf("Your army returned victorious with %s.", describeBag(loot)))
	} else {
		r.logPlayer(p, fmt.Sprintf("Your army was beaten back and lost %d soldiers.", casualties))
	}
	return won, loot, casualties
}

// adminRaid forces an immediate attack on p.
func (r *Room) adminRaid(by string, p *state.Player) string {
	at := r.tune.Admin
	attack := at.RaidAttackMin + r.rng.Intn(at.RaidAttackMax-at.RaidAttackMin)
	d := p.Soldiers
	if d < 1 {
		d = 1
	}
	pDef := math.Min(at.RaidMaxDefend, float64(d)/float64(d+attack))
	rec := AttackRecord{Kind: "admin", Attacker: by, Target: p.ID}

	var text string
	if r.rng.Float64() < pDef {
		loss := int(math.Round(float64(p.Soldiers) * (at.DefendLossLo + r.rng.Float64()*(at.DefendLossHi-at.DefendLossLo))))
		p.Soldiers -= loss
		rec.Outcome, rec.Soldiers = string(tierDefended), loss
		text = fmt.Sprintf("Raiders (strength %d) struck %s and were repelled; %d soldiers fell.", attack, p.ID, loss)
	} else {
		lost := state.Bag{}
		for _, res := range state.Resources {
			if n := p.Resources.Take(res, int(math.Floor(float64(p.Resources[res])*at.RaidResourceLoss))); n > 0 {
				lost[res] = n
			}
		}
		loss := int(math.Round(float64(p.Soldiers) * (at.RaidSoldierLossLo + r.rng.Float64()*(at.RaidSoldierLossHi-at.RaidSoldierLossLo))))
		p.Soldiers -= loss
		rec.Outcome, rec.Lost, rec.Soldiers = string(tierBreached), lost, loss
		text = fmt.Sprintf("Raiders (strength %d) overran %s: lost %s and %d soldiers.", attack, p.ID, describeBag(lost), loss)
	}
	p.Progress = r.econ.Progress(p)
	r.recordAttack(rec)
	r.logGame(text)
	return text
}
