package tuning

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

const Version = 1

// Tuning is every number the simulation reads. Maps keyed by age use the
// age name ("Wood", "Stone", "Modern"); maps keyed by resource use the
// resource name ("wood", "rock", "metal", "food", "coins").
type Tuning struct {
	TuningVersion int `yaml:"tuning_version" json:"tuning_version"`

	MaxPlayers int `yaml:"max_players" json:"max_players"`

	Start    StartTuning    `yaml:"start" json:"start"`
	Turn     TurnTuning     `yaml:"turn" json:"turn"`
	Calendar CalendarTuning `yaml:"calendar" json:"calendar"`
	Season   SeasonTuning   `yaml:"season" json:"season"`

	BaseYield   map[string]int       `yaml:"base_yield" json:"base_yield"`
	CoinsPerAge int                  `yaml:"coins_per_age" json:"coins_per_age"`
	Civs        map[string]CivTuning `yaml:"civs" json:"civs"`

	Age        AgeTuning        `yaml:"age" json:"age"`
	Army       ArmyTuning       `yaml:"army" json:"army"`
	Defense    DefenseTuning    `yaml:"defense" json:"defense"`
	Raid       RaidTuning       `yaml:"raid" json:"raid"`
	Tribal     TribalTuning     `yaml:"tribal" json:"tribal"`
	Mercenary  MercenaryTuning  `yaml:"mercenary" json:"mercenary"`
	Visitor    VisitorTuning    `yaml:"visitor" json:"visitor"`
	Bank       BankTuning       `yaml:"bank" json:"bank"`
	Starvation StarvationTuning `yaml:"starvation" json:"starvation"`
	Progress   ProgressTuning   `yaml:"progress" json:"progress"`
	AI         AITuning         `yaml:"ai" json:"ai"`
	Admin      AdminTuning      `yaml:"admin" json:"admin"`
}

type StartTuning struct {
	Resources        int `yaml:"resources" json:"resources"`
	Soldiers         int `yaml:"soldiers" json:"soldiers"`
	VisibleBuildings int `yaml:"visible_buildings" json:"visible_buildings"`
}

type TurnTuning struct {
	APPerTurn int `yaml:"ap_per_turn" json:"ap_per_turn"`
	BankLimit int `yaml:"bank_limit" json:"bank_limit"`
}

type CalendarTuning struct {
	YearMin int `yaml:"year_min" json:"year_min"`
	YearMax int `yaml:"year_max" json:"year_max"`
	DayMax  int `yaml:"day_max" json:"day_max"`
}

type SeasonTuning struct {
	BonusMin       float64 `yaml:"bonus_min" json:"bonus_min"`
	BonusMax       float64 `yaml:"bonus_max" json:"bonus_max"`
	ThemeChance    float64 `yaml:"theme_chance" json:"theme_chance"`
	EventChanceMin float64 `yaml:"event_chance_min" json:"event_chance_min"`
	EventChanceMax float64 `yaml:"event_chance_max" json:"event_chance_max"`
	// EventFood is the food delta of the seasonal event, negative for losses.
	EventFood map[string]int `yaml:"event_food" json:"event_food"`
}

type CivTuning struct {
	Multipliers    map[string]float64 `yaml:"multipliers" json:"multipliers"`
	CoinDelta      int                `yaml:"coin_delta" json:"coin_delta"`
	FlatYieldBonus int                `yaml:"flat_yield_bonus" json:"flat_yield_bonus"`
}

type AgeTuning struct {
	Unlock         int            `yaml:"unlock" json:"unlock"`
	HumanBuildings map[string]int `yaml:"human_buildings" json:"human_buildings"`
	AIWars         map[string]int `yaml:"ai_wars" json:"ai_wars"`
	AITrained      map[string]int `yaml:"ai_trained" json:"ai_trained"`
	Victory        string         `yaml:"victory" json:"victory"`
	VictoryPerAge  int            `yaml:"victory_per_age" json:"victory_per_age"`
	RevealVictory  int            `yaml:"reveal_victory" json:"reveal_victory"`
}

type TrainBatch struct {
	Size  int `yaml:"size" json:"size"`
	Food  int `yaml:"food" json:"food"`
	Coins int `yaml:"coins" json:"coins"`
}

type ArmyTuning struct {
	BaseCap          int                   `yaml:"base_cap" json:"base_cap"`
	MinCap           int                   `yaml:"min_cap" json:"min_cap"`
	FoodUpkeepPer    int                   `yaml:"food_upkeep_per" json:"food_upkeep_per"`
	CoinUpkeepPer    int                   `yaml:"coin_upkeep_per" json:"coin_upkeep_per"`
	TrainingRequires string                `yaml:"training_requires" json:"training_requires"`
	Batches          map[string]TrainBatch `yaml:"batches" json:"batches"`
}

type DefenseTuning struct {
	Base        float64 `yaml:"base" json:"base"`
	PerSoldier  float64 `yaml:"per_soldier" json:"per_soldier"`
	MaxFromArmy float64 `yaml:"max_from_army" json:"max_from_army"`
	PerLevel    float64 `yaml:"per_level" json:"per_level"`
}

type PowerTier struct {
	MinSoldiers int     `yaml:"min_soldiers" json:"min_soldiers"`
	Power       float64 `yaml:"power" json:"power"`
}

type RaidTuning struct {
	MinCommit          int            `yaml:"min_commit" json:"min_commit"`
	CooldownMonths     int            `yaml:"cooldown_months" json:"cooldown_months"`
	Tiers              []PowerTier    `yaml:"tiers" json:"tiers"`
	BasePower          float64        `yaml:"base_power" json:"base_power"`
	PerLevel           float64        `yaml:"per_level" json:"per_level"`
	MaxPower           float64        `yaml:"max_power" json:"max_power"`
	MinChance          float64        `yaml:"min_chance" json:"min_chance"`
	MaxChance          float64        `yaml:"max_chance" json:"max_chance"`
	Loot               map[string]int `yaml:"loot" json:"loot"`
	LootMin            float64        `yaml:"loot_min" json:"loot_min"`
	LootSpread         float64        `yaml:"loot_spread" json:"loot_spread"`
	WinCasualty        float64        `yaml:"win_casualty" json:"win_casualty"`
	LossCasualtyMin    float64        `yaml:"loss_casualty_min" json:"loss_casualty_min"`
	LossCasualtySpread float64        `yaml:"loss_casualty_spread" json:"loss_casualty_spread"`
}

type TribalThreshold struct {
	Safe float64 `yaml:"safe" json:"safe"`
	Loss float64 `yaml:"loss" json:"loss"`
}

type TribalTuning struct {
	Chance       float64                    `yaml:"chance" json:"chance"`
	MinSeasons   int                        `yaml:"min_seasons" json:"min_seasons"`
	Thresholds   map[string]TribalThreshold `yaml:"thresholds" json:"thresholds"`
	BreachMin    float64                    `yaml:"breach_min" json:"breach_min"`
	BreachMax    float64                    `yaml:"breach_max" json:"breach_max"`
	DevastateMin float64                    `yaml:"devastate_min" json:"devastate_min"`
	DevastateMax float64                    `yaml:"devastate_max" json:"devastate_max"`
	CoinLoss     float64                    `yaml:"coin_loss" json:"coin_loss"`
	MaxCollapse  int                        `yaml:"max_collapse" json:"max_collapse"`
}

type MercenaryTuning struct {
	Cost int     `yaml:"cost" json:"cost"`
	Cut  float64 `yaml:"cut" json:"cut"`
}

type VisitorTuning struct {
	Cost        int `yaml:"cost" json:"cost"`
	Reward      int `yaml:"reward" json:"reward"`
	RobberSteal int `yaml:"robber_steal" json:"robber_steal"`
	AIThinkMs   int `yaml:"ai_think_ms" json:"ai_think_ms"`
}

type BankTuning struct {
	SellRatio int `yaml:"sell_ratio" json:"sell_ratio"`
	BuyPrice  int `yaml:"buy_price" json:"buy_price"`
}

type StarvationTuning struct {
	Chance float64          `yaml:"chance" json:"chance"`
	Loss   map[string][]int `yaml:"loss" json:"loss"`
}

type ProgressTuning struct {
	AgeWeight      float64 `yaml:"age_weight" json:"age_weight"`
	PerAgeWeight   float64 `yaml:"per_age_weight" json:"per_age_weight"`
	ResourceWeight float64 `yaml:"resource_weight" json:"resource_weight"`
	PerAgeTarget   int     `yaml:"per_age_target" json:"per_age_target"`
	Ceiling        int     `yaml:"ceiling" json:"ceiling"`
}

type AITuning struct {
	MaxIterations       int            `yaml:"max_iterations" json:"max_iterations"`
	TrainTargets        map[string]int `yaml:"train_targets" json:"train_targets"`
	WarMax              map[string]int `yaml:"war_max" json:"war_max"`
	FoodFloor           map[string]int `yaml:"food_floor" json:"food_floor"`
	VisitorCap          int            `yaml:"visitor_cap" json:"visitor_cap"`
	VisitorFirstChance  float64        `yaml:"visitor_first_chance" json:"visitor_first_chance"`
	VisitorFirstSeasons int            `yaml:"visitor_first_seasons" json:"visitor_first_seasons"`
	VisitorChance       float64        `yaml:"visitor_chance" json:"visitor_chance"`
	TradeChance         float64        `yaml:"trade_chance" json:"trade_chance"`
	TradeCap            int            `yaml:"trade_cap" json:"trade_cap"`
	TradeMin            int            `yaml:"trade_min" json:"trade_min"`
	TradeMax            int            `yaml:"trade_max" json:"trade_max"`
	AcceptRatio         float64        `yaml:"accept_ratio" json:"accept_ratio"`
	ChatChance          float64        `yaml:"chat_chance" json:"chat_chance"`
	MinSellCoins        int            `yaml:"min_sell" json:"min_sell"`
}

type AdminTuning struct {
	RaidAttackMin     int     `yaml:"raid_attack_min" json:"raid_attack_min"`
	RaidAttackMax     int     `yaml:"raid_attack_max" json:"raid_attack_max"`
	RaidMaxDefend     float64 `yaml:"raid_max_defend" json:"raid_max_defend"`
	RaidResourceLoss  float64 `yaml:"raid_resource_loss" json:"raid_resource_loss"`
	RaidSoldierLossLo float64 `yaml:"raid_soldier_loss_lo" json:"raid_soldier_loss_lo"`
	RaidSoldierLossHi float64 `yaml:"raid_soldier_loss_hi" json:"raid_soldier_loss_hi"`
	DefendLossLo      float64 `yaml:"defend_loss_lo" json:"defend_loss_lo"`
	DefendLossHi      float64 `yaml:"defend_loss_hi" json:"defend_loss_hi"`
}

// Load reads a tuning file on top of Defaults, so a partial file only
// overrides the keys it names.
func Load(path string) (Tuning, error) {
	t := Defaults()
	raw, err := os.ReadFile(path)
	if err != nil {
		return t, err
	}
	if err := yaml.Unmarshal(raw, &t); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	if err := t.Validate(); err != nil {
		return t, fmt.Errorf("tuning.yaml: %w", err)
	}
	return t, nil
}

// Digest is the sha256 of the canonical JSON form.
func (t Tuning) Digest() string {
	b, _ := json.Marshal(t)
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func (t Tuning) Validate() error {
	if t.TuningVersion != Version {
		return fmt.Errorf("unsupported tuning_version %d (want %d)", t.TuningVersion, Version)
	}
	if t.MaxPlayers < 2 {
		return fmt.Errorf("max_players must be >= 2")
	}
	if t.Turn.APPerTurn <= 0 {
		return fmt.Errorf("turn.ap_per_turn must be > 0")
	}
	if t.Turn.BankLimit < 0 {
		return fmt.Errorf("turn.bank_limit must be >= 0")
	}
	if t.Season.BonusMin < 0 || t.Season.BonusMax < t.Season.BonusMin {
		return fmt.Errorf("season bonus range [%v,%v] invalid", t.Season.BonusMin, t.Season.BonusMax)
	}
	if t.Calendar.YearMax < t.Calendar.YearMin || t.Calendar.DayMax <= 0 {
		return fmt.Errorf("calendar ranges invalid")
	}
	if t.Raid.MinCommit <= 0 {
		return fmt.Errorf("raid.min_commit must be > 0")
	}
	if t.Raid.MinChance > t.Raid.MaxChance {
		return fmt.Errorf("raid chance bounds invalid")
	}
	for i := 1; i < len(t.Raid.Tiers); i++ {
		if t.Raid.Tiers[i].MinSoldiers >= t.Raid.Tiers[i-1].MinSoldiers {
			return fmt.Errorf("raid.tiers must be sorted by min_soldiers descending")
		}
	}
	for _, age := range []string{"Wood", "Stone", "Modern"} {
		if _, ok := t.Army.Batches[age]; !ok {
			return fmt.Errorf("army.batches missing %s", age)
		}
		if _, ok := t.Tribal.Thresholds[age]; !ok {
			return fmt.Errorf("tribal.thresholds missing %s", age)
		}
	}
	if t.Bank.SellRatio <= 0 || t.Bank.BuyPrice <= 0 {
		return fmt.Errorf("bank prices must be > 0")
	}
	if len(t.Civs) == 0 {
		return fmt.Errorf("civs must not be empty")
	}
	if t.Age.Victory == "" {
		return fmt.Errorf("age.victory must name a building")
	}
	return nil
}

// Batch returns the training batch for an age.
func (t Tuning) Batch(age string) TrainBatch { return t.Army.Batches[age] }

func (t Tuning) Civ(name string) (CivTuning, bool) {
	c, ok := t.Civs[name]
	return c, ok
}
