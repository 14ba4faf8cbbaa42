package state

import "sort"

const (
	StructureMinLevel = 1
	StructureMaxLevel = 3

	// LogCap bounds personal and shared game logs.
	LogCap = 50

	// NeverWarred marks a player that has not launched a war yet.
	NeverWarred = -1 << 20
)

type Structure struct {
	Level int `json:"level"`
}

type RaidState struct {
	Active              bool   `json:"active"`
	Committed           int    `json:"committed,omitempty"`
	StartedSeason       Season `json:"startedSeason,omitempty"`
	ResolvesAfterSeason Season `json:"resolvesAfterSeason,omitempty"`
}

type LogEntry struct {
	Turn int    `json:"turn"`
	Date string `json:"date,omitempty"`
	Text string `json:"text"`
}

type AgeStep struct {
	Age  Age   `json:"age"`
	Turn int   `json:"turn"`
	At   int64 `json:"at"`
}

type WealthPoint struct {
	Turn   int `json:"turn"`
	Wealth int `json:"wealth"`
}

type Stats struct {
	Gathered          Bag           `json:"gathered"`
	Spent             Bag           `json:"spent"`
	BuildingsBuilt    int           `json:"buildingsBuilt"`
	BuildingsUpgraded int           `json:"buildingsUpgraded"`
	SoldiersRecruited int           `json:"soldiersRecruited"`
	RaidsLaunched     int           `json:"raidsLaunched"`
	RaidsWon          int           `json:"raidsWon"`
	RaidsLost         int           `json:"raidsLost"`
	TradesCompleted   int           `json:"tradesCompleted"`
	AgeProgression    []AgeStep     `json:"ageProgression"`
	WealthHistory     []WealthPoint `json:"wealthHistory"`
}

func NewStats() Stats {
	return Stats{Gathered: Bag{}, Spent: Bag{}}
}

type Player struct {
	ID    string `json:"id"`
	Civ   string `json:"civ"`
	Color string `json:"color"`
	IsAI  bool   `json:"isAI"`
	Ready bool   `json:"ready"`

	Age       Age `json:"age"`
	Resources Bag `json:"resources"`
	Soldiers  int `json:"soldiers"`
	AP        int `json:"ap"`
	BankedAP  int `json:"bankedAp"`
	Progress  int `json:"progress"`

	Structures map[string]*Structure   `json:"structures"`
	Visible    map[Age]map[string]bool `json:"-"`
	Raid       RaidState               `json:"raid"`

	LastWarMonth int         `json:"-"`
	TrainedByAge map[Age]int `json:"-"`
	WarsByAge    map[Age]int `json:"-"`

	// Per-game counters for autonomous players.
	VisitorsSent    int `json:"-"`
	TradeOffersSent int `json:"-"`

	PersonalLog []LogEntry `json:"-"`
	Stats       Stats      `json:"-"`
}

// NewPlayer returns a player at the first age with the given starting stock.
func NewPlayer(id, civ, color string, isAI bool, startEach, startSoldiers int) *Player {
	p := &Player{
		ID:           id,
		Civ:          civ,
		Color:        color,
		IsAI:         isAI,
		Ready:        isAI,
		Age:          Ages[0],
		Resources:    NewBag(startEach),
		Soldiers:     startSoldiers,
		Structures:   map[string]*Structure{},
		Visible:      map[Age]map[string]bool{},
		LastWarMonth: NeverWarred,
		TrainedByAge: map[Age]int{},
		WarsByAge:    map[Age]int{},
		Stats:        NewStats(),
	}
	for _, a := range Ages {
		p.Visible[a] = map[string]bool{}
	}
	return p
}

func (p *Player) Has(name string) bool {
	_, ok := p.Structures[name]
	return ok
}

func (p *Player) Level(name string) int {
	if s, ok := p.Structures[name]; ok {
		return s.Level
	}
	return 0
}

func (p *Player) Reveal(age Age, name string) {
	if p.Visible[age] == nil {
		p.Visible[age] = map[string]bool{}
	}
	p.Visible[age][name] = true
}

// VisibleList returns the revealed buildings per age, sorted by name.
func (p *Player) VisibleList() map[Age][]string {
	out := map[Age][]string{}
	for a, set := range p.Visible {
		names := make([]string, 0, len(set))
		for n := range set {
			names = append(names, n)
		}
		sort.Strings(names)
		out[a] = names
	}
	return out
}

// Log appends to the personal log, trimming the oldest entries past LogCap.
func (p *Player) Log(e LogEntry) {
	p.PersonalLog = AppendCapped(p.PersonalLog, e, LogCap)
}

func AppendCapped[T any](s []T, v T, capN int) []T {
	s = append(s, v)
	if len(s) > capN {
		s = append(s[:0:0], s[len(s)-capN:]...)
	}
	return s
}

// Tail returns up to n of the newest items of s, oldest first.
func Tail[T any](s []T, n int) []T {
	if len(s) <= n {
		return append([]T(nil), s...)
	}
	return append([]T(nil), s[len(s)-n:]...)
}
