package protocol

// roomUpdate (server -> client): one per viewer. Fields under "self only"
// are set for the viewer's own entry and omitted for everyone else.
type RoomUpdateMsg struct {
	Type            string                             `json:"type"`
	ProtocolVersion string                             `json:"protocol_version"`
	Room            RoomView                           `json:"room"`
	Players         map[string]PlayerView              `json:"players"`
	Buildings       map[string]map[string]BuildingView `json:"buildings"`
	Ages            []string                           `json:"ages"`
	Prices          Prices                             `json:"prices"`
	VisitPending    bool                               `json:"visitPending"`
	Chat            []ChatLine                         `json:"chat"`
	SeasonSummary   *SeasonSummary                     `json:"seasonSummary,omitempty"`
}

type RoomView struct {
	Code                string                        `json:"code"`
	TurnOf              string                        `json:"turnOf"`
	Active              bool                          `json:"active"`
	Finished            bool                          `json:"finished"`
	Host                string                        `json:"host"`
	Order               []string                      `json:"order"`
	Season              string                        `json:"season"`
	SeasonalMultipliers map[string]map[string]float64 `json:"seasonalMultipliers"`
	SeasonsElapsed      int                           `json:"seasonsElapsed"`
	Calendar            CalendarView                  `json:"calendar"`
	GameLog             []LogLine                     `json:"gameLog"`
}

type CalendarView struct {
	TotalMonths    int    `json:"totalMonths"`
	Year           int    `json:"year"`
	MonthInYear    int    `json:"monthInYear"`
	MonthName      string `json:"monthName"`
	HistoricalYear int    `json:"historicalYear"`
	Day            int    `json:"day"`
	DateString     string `json:"dateString"`
}

type PlayerView struct {
	Color      string                   `json:"color"`
	Civ        string                   `json:"civ"`
	IsAI       bool                     `json:"isAI"`
	Ready      bool                     `json:"ready"`
	Age        string                   `json:"age"`
	Resources  map[string]int           `json:"resources"`
	AP         int                      `json:"ap"`
	BankedAP   int                      `json:"bankedAp"`
	Structures map[string]StructureView `json:"structures"`
	CoinIncome int                      `json:"coinIncome"`
	Progress   int                      `json:"progress"`
	Yields     map[string]int           `json:"yields"`

	// self only
	Soldiers         *int                `json:"soldiers,omitempty"`
	SoldierCap       *int                `json:"soldierCap,omitempty"`
	DefensePct       *int                `json:"defensePct,omitempty"`
	WallTier         string              `json:"wallTier,omitempty"`
	Raid             *RaidView           `json:"raid,omitempty"`
	VisibleBuildings map[string][]string `json:"visibleBuildings,omitempty"`
	PersonalLog      []LogLine           `json:"personalLog,omitempty"`
}

type StructureView struct {
	Level int `json:"level"`
}

type RaidView struct {
	Active              bool   `json:"active"`
	Committed           int    `json:"committed"`
	StartedSeason       string `json:"startedSeason,omitempty"`
	ResolvesAfterSeason string `json:"resolvesAfterSeason,omitempty"`
}

type BuildingView struct {
	Cost map[string]int `json:"cost"`
	Desc string         `json:"desc"`
}

type Prices struct {
	SellRatio int `json:"sellRatio"`
	BuyPrice  int `json:"buyPrice"`
}

type LogLine struct {
	Turn int    `json:"turn"`
	Date string `json:"date,omitempty"`
	Text string `json:"text"`
}

type ChatLine struct {
	From string `json:"from"`
	Text string `json:"text"`
	TS   int64  `json:"ts"`
}

type SeasonSummary struct {
	From   string   `json:"from"`
	To     string   `json:"to"`
	Events []string `json:"events"`
}
