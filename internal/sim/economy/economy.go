// Package economy derives every per-player number the rules read (yields,
// army cap, defense, raid power, income, progress) from owned structures,
// the building catalog and the tuning table. Only MaybeAdvanceAge and the
// reveal helpers mutate their input.
package economy

import (
	"math"
	"math/rand"

	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/state"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

type Model struct {
	B *catalogs.BuildingCatalog
	T *tuning.Tuning
}

func New(b *catalogs.BuildingCatalog, t *tuning.Tuning) *Model {
	return &Model{B: b, T: t}
}

func (m *Model) civ(p *state.Player) tuning.CivTuning {
	c, _ := m.T.Civ(p.Civ)
	return c
}

// Yield is the unseasoned gather amount for res.
func (m *Model) Yield(p *state.Player, res state.Resource) int {
	if !res.Gatherable() {
		return 0
	}
	civ := m.civ(p)
	base := m.T.BaseYield[string(res)] + civ.FlatYieldBonus
	for name, s := range p.Structures {
		eff, ok := m.B.EffectOf(name)
		if !ok {
			continue
		}
		if y := eff.Yield[res]; y > 0 {
			base += y + (s.Level - 1)
		}
	}
	mult := civ.Multipliers[string(res)]
	if mult == 0 {
		mult = 1
	}
	v := int(math.Floor(float64(base) * mult))
	if v < 0 {
		return 0
	}
	return v
}

// SeasonalYield applies a season multiplier on top of Yield.
func (m *Model) SeasonalYield(p *state.Player, res state.Resource, mult float64) int {
	v := int(math.Floor(float64(m.Yield(p, res)) * mult))
	if v < 0 {
		return 0
	}
	return v
}

func (m *Model) SoldierCap(p *state.Player) int {
	c := m.T.Army.BaseCap
	for name, s := range p.Structures {
		if eff, ok := m.B.EffectOf(name); ok && eff.SoldierCap > 0 {
			c += eff.SoldierCap + (s.Level - 1)
		}
	}
	if c < m.T.Army.MinCap {
		c = m.T.Army.MinCap
	}
	return c
}

// Defense is in [0,1].
func (m *Model) Defense(p *state.Player) float64 {
	d := m.T.Defense
	v := d.Base + math.Min(d.MaxFromArmy, float64(p.Soldiers)*d.PerSoldier)
	for name, s := range p.Structures {
		if eff, ok := m.B.EffectOf(name); ok && eff.Defense > 0 {
			v += eff.Defense + d.PerLevel*float64(s.Level-1)
		}
	}
	return clamp(v, 0, 1)
}

// RaidPower is the structural strength of a raid of the given size.
// It is non-decreasing in committed and capped at Raid.MaxPower.
func (m *Model) RaidPower(p *state.Player, committed int) float64 {
	rt := m.T.Raid
	v := rt.BasePower
	for _, tier := range rt.Tiers {
		if committed >= tier.MinSoldiers {
			v = tier.Power
			break
		}
	}
	for name, s := range p.Structures {
		if eff, ok := m.B.EffectOf(name); ok && eff.RaidPower > 0 {
			v += eff.RaidPower + rt.PerLevel*float64(s.Level-1)
		}
	}
	return math.Min(v, rt.MaxPower)
}

// RaidChance is the success probability used at resolution.
func (m *Model) RaidChance(p *state.Player, committed int) float64 {
	return clamp(m.RaidPower(p, committed), m.T.Raid.MinChance, m.T.Raid.MaxChance)
}

func (m *Model) CoinIncome(p *state.Player) int {
	v := (p.Age.Index() + 1) * m.T.CoinsPerAge
	for name, s := range p.Structures {
		if eff, ok := m.B.EffectOf(name); ok && eff.Coins > 0 {
			v += eff.Coins + (s.Level - 1)
		}
	}
	v += m.civ(p).CoinDelta
	if v < 0 {
		return 0
	}
	return v
}

// Upkeep is the per-turn army drain.
func (m *Model) Upkeep(p *state.Player) (food, coins int) {
	if m.T.Army.FoodUpkeepPer > 0 {
		food = p.Soldiers / m.T.Army.FoodUpkeepPer
	}
	if m.T.Army.CoinUpkeepPer > 0 {
		coins = p.Soldiers / m.T.Army.CoinUpkeepPer
	}
	return food, coins
}

var wallRank = map[string]int{"wood": 1, "stone": 2, "steel": 3}

// WallTier is the strongest wall owned, or "" without walls.
func (m *Model) WallTier(p *state.Player) string {
	best := ""
	for name := range p.Structures {
		eff, ok := m.B.EffectOf(name)
		if !ok || eff.WallTier == "" {
			continue
		}
		if wallRank[eff.WallTier] > wallRank[best] {
			best = eff.WallTier
		}
	}
	return best
}

func (m *Model) IsWall(name string) bool {
	eff, ok := m.B.EffectOf(name)
	return ok && eff.WallTier != ""
}

// CountInAge counts owned structures of an age.
func (m *Model) CountInAge(p *state.Player, age state.Age, withVictory bool) int {
	n := 0
	for name := range p.Structures {
		d, ok := m.B.Def(name)
		if !ok || d.Age != age {
			continue
		}
		if !withVictory && name == m.B.Victory {
			continue
		}
		n++
	}
	return n
}

// VictoryUnlocked reports whether the victory structure may be built.
func (m *Model) VictoryUnlocked(p *state.Player) bool {
	if !p.Age.IsFinal() {
		return false
	}
	for _, a := range state.Ages {
		if m.CountInAge(p, a, false) < m.T.Age.VictoryPerAge {
			return false
		}
	}
	return true
}

func (m *Model) Progress(p *state.Player) int {
	if p.Has(m.B.Victory) {
		return 100
	}
	pt := m.T.Progress
	last := len(state.Ages) - 1
	ageReady := float64(p.Age.Index()) / float64(last)

	perAge := 0.0
	target := pt.PerAgeTarget
	if target <= 0 {
		target = 1
	}
	for _, a := range state.Ages {
		perAge += math.Min(1, float64(m.CountInAge(p, a, false))/float64(target))
	}
	perAge /= float64(len(state.Ages))

	resReady := 0.0
	vdef, _ := m.B.Def(m.B.Victory)
	n := 0
	for _, r := range state.Resources {
		need := vdef.Cost[r]
		if need <= 0 {
			continue
		}
		resReady += math.Min(1, float64(p.Resources[r])/float64(need))
		n++
	}
	if n > 0 {
		resReady /= float64(n)
	}

	combined := pt.AgeWeight*ageReady + pt.PerAgeWeight*perAge + pt.ResourceWeight*resReady
	v := int(math.Round(combined * float64(pt.Ceiling)))
	if v > pt.Ceiling {
		v = pt.Ceiling
	}
	if v < 0 {
		v = 0
	}
	return v
}

// Wealth scores a stockpile for statistics; coins weigh as the sell ratio.
func (m *Model) Wealth(b state.Bag) int {
	w := 0
	for _, r := range state.Gatherables {
		w += b[r]
	}
	return w + b[state.Coins]*m.T.Bank.SellRatio
}

// AgeAdvanceEligible applies the per-kind advancement rule. Human players
// need a count of current-age buildings; autonomous players must own every
// regular building of the age and meet their war and training quotas.
func (m *Model) AgeAdvanceEligible(p *state.Player) bool {
	if _, ok := p.Age.Next(); !ok {
		return false
	}
	age := string(p.Age)
	if !p.IsAI {
		return m.CountInAge(p, p.Age, false) >= m.T.Age.HumanBuildings[age]
	}
	for _, name := range m.B.InAge(p.Age, false) {
		if !p.Has(name) {
			return false
		}
	}
	return p.WarsByAge[p.Age] >= m.T.Age.AIWars[age] &&
		p.TrainedByAge[p.Age] >= m.T.Age.AITrained[age]
}

// MaybeAdvanceAge moves p to the next age when eligible and reveals a few
// random buildings of the new age.
func (m *Model) MaybeAdvanceAge(p *state.Player, rng *rand.Rand, turn int, at int64) (state.Age, bool) {
	if !m.AgeAdvanceEligible(p) {
		return p.Age, false
	}
	next, _ := p.Age.Next()
	p.Age = next
	m.RevealRandom(p, next, m.T.Age.Unlock, rng)
	p.Stats.AgeProgression = append(p.Stats.AgeProgression, state.AgeStep{Age: next, Turn: turn, At: at})
	return next, true
}

// RevealRandom reveals up to n hidden regular buildings of age.
func (m *Model) RevealRandom(p *state.Player, age state.Age, n int, rng *rand.Rand) {
	var hidden []string
	for _, name := range m.B.InAge(age, false) {
		if !p.Visible[age][name] {
			hidden = append(hidden, name)
		}
	}
	rng.Shuffle(len(hidden), func(i, j int) { hidden[i], hidden[j] = hidden[j], hidden[i] })
	if n > len(hidden) {
		n = len(hidden)
	}
	for _, name := range hidden[:n] {
		p.Reveal(age, name)
	}
}

// RevealOnBuild applies the reveal rules after name was built: the first
// building of an age reveals the rest of that age, and enough final-age
// buildings reveal the victory structure.
func (m *Model) RevealOnBuild(p *state.Player, name string) {
	d, ok := m.B.Def(name)
	if !ok {
		return
	}
	if m.CountInAge(p, d.Age, false) == 1 && name != m.B.Victory {
		for _, n := range m.B.InAge(d.Age, false) {
			p.Reveal(d.Age, n)
		}
	}
	final := state.Ages[len(state.Ages)-1]
	if m.CountInAge(p, final, false) >= m.T.Age.RevealVictory {
		p.Reveal(final, m.B.Victory)
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
