package room

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// Calendar counts months from the room's random starting point. MonthIndex
// advances once per full pass over the turn order.
type Calendar struct {
	MonthIndex   int `json:"monthIndex"`
	StartingYear int `json:"startingYear"`
	Day          int `json:"day"`
}

func newCalendar(rng *rand.Rand, ct tuning.CalendarTuning) Calendar {
	return Calendar{
		MonthIndex:   rng.Intn(12),
		StartingYear: ct.YearMin + rng.Intn(ct.YearMax-ct.YearMin),
		Day:          1 + rng.Intn(ct.DayMax),
	}
}

func (c Calendar) Season() state.Season { return state.SeasonOfMonth(c.MonthIndex) }

func (c Calendar) HistoricalYear() int { return c.StartingYear + c.MonthIndex/12 }

func (c Calendar) DateString() string {
	return fmt.Sprintf("%d %s %d AD", c.Day, monthNames[c.MonthIndex%12], c.HistoricalYear())
}

func (c Calendar) View() protocol.CalendarView {
	return protocol.CalendarView{
		TotalMonths:    c.MonthIndex,
		Year:           c.MonthIndex/12 + 1,
		MonthInYear:    c.MonthIndex % 12,
		MonthName:      monthNames[c.MonthIndex%12],
		HistoricalYear: c.HistoricalYear(),
		Day:            c.Day,
		DateString:     c.DateString(),
	}
}

// Each season favours and starves particular resources most of the time.
var seasonThemes = map[state.Season]struct{ up, down []state.Resource }{
	state.Spring: {up: []state.Resource{state.Food, state.Wood}, down: []state.Resource{state.Metal}},
	state.Summer: {up: []state.Resource{state.Rock, state.Metal}, down: []state.Resource{state.Food}},
	state.Autumn: {up: []state.Resource{state.Food}, down: []state.Resource{state.Rock}},
	state.Winter: {up: []state.Resource{state.Metal}, down: []state.Resource{state.Food, state.Wood}},
}

// rollSeasonMultipliers builds one positive and one negative gather
// modifier per season on distinct resources.
func rollSeasonMultipliers(rng *rand.Rand, st tuning.SeasonTuning) map[state.Season]map[state.Resource]float64 {
	out := make(map[state.Season]map[state.Resource]float64, len(state.Seasons))
	for _, s := range state.Seasons {
		theme := seasonThemes[s]
		up := pickResource(rng, theme.up, st.ThemeChance, "")
		down := pickResource(rng, theme.down, st.ThemeChance, up)

		m := make(map[state.Resource]float64, len(state.Gatherables))
		for _, r := range state.Gatherables {
			m[r] = 1
		}
		m[up] = round2(1 + magnitude(rng, st))
		m[down] = round2(1 - magnitude(rng, st))
		out[s] = m
	}
	return out
}

func pickResource(rng *rand.Rand, themed []state.Resource, themeChance float64, exclude state.Resource) state.Resource {
	pool := themed
	if rng.Float64() >= themeChance {
		pool = state.Gatherables
	}
	candidates := without(pool, exclude)
	if len(candidates) == 0 {
		candidates = without(state.Gatherables, exclude)
	}
	return candidates[rng.Intn(len(candidates))]
}

func without(pool []state.Resource, exclude state.Resource) []state.Resource {
	out := make([]state.Resource, 0, len(pool))
	for _, r := range pool {
		if r != exclude {
			out = append(out, r)
		}
	}
	return out
}

func magnitude(rng *rand.Rand, st tuning.SeasonTuning) float64 {
	return st.BonusMin + rng.Float64()*(st.BonusMax-st.BonusMin)
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }

func (r *Room) seasonMult(res state.Resource) float64 {
	if m, ok := r.seasonMults[r.cal.Season()][res]; ok {
		return m
	}
	return 1
}

// resetCalendar re-rolls the calendar and the season table and clears all
// per-season markers.
func (r *Room) resetCalendar() {
	r.cal = newCalendar(r.rng, r.tune.Calendar)
	r.seasonMults = rollSeasonMultipliers(r.rng, r.tune.Season)
	r.lastSeason = r.cal.Season()
	r.seasonsElapsed = 0
	r.resetSeasonMarkers()
}

func (r *Room) resetSeasonMarkers() {
	r.event = seasonEvent{Chance: r.tune.Season.EventChanceMin + r.rng.Float64()*(r.tune.Season.EventChanceMax-r.tune.Season.EventChanceMin)}
	r.visitorThisSeason = false
	r.raidedThisSeason = false
	r.mercHired = map[string]bool{}
}
