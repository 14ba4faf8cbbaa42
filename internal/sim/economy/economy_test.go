package economy

import (
	"math/rand"
	"testing"

	"pgregory.net/rapid"

	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/state"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

func newModel(t testing.TB) *Model {
	t.Helper()
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tu := tuning.Defaults()
	return New(&cats.Buildings, &tu)
}

func TestYield_CivAndBuildings(t *testing.T) {
	m := newModel(t)
	p := state.NewPlayer("p1", "Vikings", "blue", false, 10, 3)
	// 6 * 1.20
	if got := m.Yield(p, state.Food); got != 7 {
		t.Fatalf("vikings food yield=%d want 7", got)
	}
	p.Structures["Field"] = &state.Structure{Level: 3}
	// (6 + 4 + 2) * 1.20 = 14.4
	if got := m.Yield(p, state.Food); got != 14 {
		t.Fatalf("field L3 food yield=%d want 14", got)
	}
	s := state.NewPlayer("p2", "Slavs", "red", false, 10, 3)
	// (5 + 1) * 1.10 = 6.6
	if got := m.Yield(s, state.Wood); got != 6 {
		t.Fatalf("slavs wood yield=%d want 6", got)
	}
	if got := m.SeasonalYield(s, state.Wood, 1.5); got != 9 {
		t.Fatalf("seasonal wood=%d want 9", got)
	}
	if got := m.Yield(s, state.Coins); got != 0 {
		t.Fatalf("coins are not gatherable, got %d", got)
	}
}

func TestSoldierCapDefenseIncome(t *testing.T) {
	m := newModel(t)
	p := state.NewPlayer("p1", "Romans", "blue", false, 10, 3)
	if got := m.SoldierCap(p); got != 6 {
		t.Fatalf("base cap=%d want 6", got)
	}
	p.Structures["Barracks"] = &state.Structure{Level: 2}
	p.Structures["Hut"] = &state.Structure{Level: 1}
	if got := m.SoldierCap(p); got != 6+7+2 {
		t.Fatalf("cap=%d want 15", got)
	}
	// 0.05 + 3*0.0025 + (0.05 + 0.01)
	want := 0.05 + 0.0075 + 0.06
	if got := m.Defense(p); got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("defense=%v want %v", got, want)
	}
	p.Structures["Market"] = &state.Structure{Level: 1}
	// age 1 + market 2 + romans 1
	if got := m.CoinIncome(p); got != 4 {
		t.Fatalf("income=%d want 4", got)
	}
	f, c := m.Upkeep(&state.Player{Soldiers: 21})
	if f != 10 || c != 2 {
		t.Fatalf("upkeep=%d,%d want 10,2", f, c)
	}
}

func TestRaidChance_Tiers(t *testing.T) {
	m := newModel(t)
	p := state.NewPlayer("p1", "Romans", "blue", false, 10, 20)
	cases := []struct {
		commit int
		want   float64
	}{
		{3, 0.08}, {6, 0.30}, {10, 0.55}, {15, 0.70}, {40, 0.70},
	}
	for _, c := range cases {
		if got := m.RaidPower(p, c.commit); got != c.want {
			t.Fatalf("power(%d)=%v want %v", c.commit, got, c.want)
		}
	}
	p.Structures["DefenseGrid"] = &state.Structure{Level: 3}
	p.Structures["BallistaTower"] = &state.Structure{Level: 1}
	if got := m.RaidChance(p, 15); got != 0.90 {
		t.Fatalf("chance capped=%v want 0.90", got)
	}
}

func TestAgeAdvance_HumanVsAI(t *testing.T) {
	m := newModel(t)
	rng := rand.New(rand.NewSource(1))

	h := state.NewPlayer("h", "Romans", "blue", false, 10, 3)
	h.Structures["Hut"] = &state.Structure{Level: 1}
	if m.AgeAdvanceEligible(h) {
		t.Fatalf("one building should not advance")
	}
	h.Structures["Field"] = &state.Structure{Level: 1}
	if age, ok := m.MaybeAdvanceAge(h, rng, 4, 0); !ok || age != state.AgeStone {
		t.Fatalf("human should reach Stone, got %s %v", age, ok)
	}
	if n := len(h.Visible[state.AgeStone]); n != 2 {
		t.Fatalf("revealed %d stone buildings, want 2", n)
	}
	if len(h.Stats.AgeProgression) != 1 {
		t.Fatalf("age progression not recorded")
	}

	a := state.NewPlayer("a", "Romans", "gray", true, 10, 3)
	for _, n := range m.B.InAge(state.AgeWood, false) {
		a.Structures[n] = &state.Structure{Level: 1}
	}
	if m.AgeAdvanceEligible(a) {
		t.Fatalf("AI without wars/training should not advance")
	}
	a.WarsByAge[state.AgeWood] = 1
	a.TrainedByAge[state.AgeWood] = 2
	if !m.AgeAdvanceEligible(a) {
		t.Fatalf("AI meeting quotas should advance")
	}
	delete(a.Structures, "Palisade")
	if m.AgeAdvanceEligible(a) {
		t.Fatalf("AI missing a building should not advance")
	}
}

func TestRevealOnBuildAndVictory(t *testing.T) {
	m := newModel(t)
	p := state.NewPlayer("p", "Mongols", "blue", false, 10, 3)
	p.Structures["Quarry"] = &state.Structure{Level: 1}
	m.RevealOnBuild(p, "Quarry")
	if len(p.Visible[state.AgeStone]) != 6 {
		t.Fatalf("first stone building should reveal the age, got %v", p.Visible[state.AgeStone])
	}
	p.Age = state.AgeModern
	for _, n := range []string{"Factory", "Greenhouse", "Bank", "Fortress"} {
		p.Structures[n] = &state.Structure{Level: 1}
		m.RevealOnBuild(p, n)
	}
	if !p.Visible[state.AgeModern]["Monument"] {
		t.Fatalf("four modern buildings should reveal the victory structure")
	}
	if m.VictoryUnlocked(p) {
		t.Fatalf("victory needs two buildings in every age")
	}
	p.Structures["Hut"] = &state.Structure{Level: 1}
	p.Structures["Field"] = &state.Structure{Level: 1}
	p.Structures["Mill"] = &state.Structure{Level: 1}
	if !m.VictoryUnlocked(p) {
		t.Fatalf("victory should be unlocked")
	}
	if m.Progress(p) >= 100 {
		t.Fatalf("progress below victory must stay under 100")
	}
	p.Structures["Monument"] = &state.Structure{Level: 1}
	if m.Progress(p) != 100 {
		t.Fatalf("progress with victory=%d", m.Progress(p))
	}
}

func TestProperty_DerivedValuesBounded(t *testing.T) {
	m := newModel(t)
	names := make([]string, 0, len(m.B.Defs))
	for n := range m.B.Defs {
		names = append(names, n)
	}
	rapid.Check(t, func(rt *rapid.T) {
		civ := rapid.SampledFrom([]string{"Romans", "Vikings", "Mongols", "Slavs"}).Draw(rt, "civ")
		p := state.NewPlayer("p", civ, "blue", false, 10, rapid.IntRange(0, 200).Draw(rt, "soldiers"))
		p.Age = rapid.SampledFrom(state.Ages).Draw(rt, "age")
		for _, n := range rapid.SliceOfDistinct(rapid.SampledFrom(names), func(s string) string { return s }).Draw(rt, "owned") {
			p.Structures[n] = &state.Structure{Level: rapid.IntRange(1, 3).Draw(rt, "level")}
		}
		for _, r := range state.Gatherables {
			if m.Yield(p, r) < 0 {
				rt.Fatalf("negative yield for %s", r)
			}
		}
		if m.SoldierCap(p) < m.T.Army.MinCap {
			rt.Fatalf("cap below floor")
		}
		if d := m.Defense(p); d < 0 || d > 1 {
			rt.Fatalf("defense out of range: %v", d)
		}
		if pr := m.Progress(p); pr < 0 || pr > 100 {
			rt.Fatalf("progress out of range: %d", pr)
		}
		prev := 0.0
		for c := 1; c <= 30; c++ {
			ch := m.RaidChance(p, c)
			if ch < 0.05 || ch > 0.90 {
				rt.Fatalf("chance(%d)=%v out of bounds", c, ch)
			}
			if ch < prev {
				rt.Fatalf("chance not monotone at %d: %v < %v", c, ch, prev)
			}
			prev = ch
		}
	})
}

func TestProperty_BagPayNeverNegative(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		b := state.Bag{}
		for _, r := range state.Resources {
			b[r] = rapid.IntRange(0, 50).Draw(rt, string(r))
		}
		cost := state.Bag{}
		for _, r := range state.Resources {
			cost[r] = rapid.IntRange(0, 60).Draw(rt, "cost_"+string(r))
		}
		before := b.Clone()
		paid := b.Pay(cost)
		for _, r := range state.Resources {
			if b[r] < 0 {
				rt.Fatalf("negative %s after pay", r)
			}
			if !paid && b[r] != before[r] {
				rt.Fatalf("failed pay mutated %s", r)
			}
		}
	})
}
