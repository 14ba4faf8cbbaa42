package tuning

// Defaults mirrors configs/tuning.yaml so a server can start without it.
func Defaults() Tuning {
	return Tuning{
		TuningVersion: Version,
		MaxPlayers:    8,
		Start:         StartTuning{Resources: 10, Soldiers: 3, VisibleBuildings: 2},
		Turn:          TurnTuning{APPerTurn: 3, BankLimit: 6},
		Calendar:      CalendarTuning{YearMin: 50, YearMax: 1300, DayMax: 28},
		Season: SeasonTuning{
			BonusMin:       0.25,
			BonusMax:       0.75,
			ThemeChance:    0.70,
			EventChanceMin: 0.10,
			EventChanceMax: 0.20,
			EventFood:      map[string]int{"Spring": 6, "Summer": -5, "Autumn": 8, "Winter": -7},
		},
		BaseYield:   map[string]int{"wood": 5, "rock": 4, "metal": 2, "food": 6},
		CoinsPerAge: 1,
		Civs: map[string]CivTuning{
			"Vikings": {Multipliers: map[string]float64{"food": 1.20, "wood": 0.95}},
			"Romans":  {Multipliers: map[string]float64{"rock": 1.15, "metal": 0.90}, CoinDelta: 1},
			"Mongols": {Multipliers: map[string]float64{"metal": 1.10, "rock": 0.90}},
			"Slavs":   {Multipliers: map[string]float64{"wood": 1.10, "food": 1.10, "metal": 0.85}, CoinDelta: -1, FlatYieldBonus: 1},
		},
		Age: AgeTuning{
			Unlock:         2,
			HumanBuildings: map[string]int{"Wood": 2, "Stone": 3},
			AIWars:         map[string]int{"Wood": 1, "Stone": 1},
			AITrained:      map[string]int{"Wood": 2, "Stone": 4},
			Victory:        "Monument",
			VictoryPerAge:  2,
			RevealVictory:  4,
		},
		Army: ArmyTuning{
			BaseCap:          6,
			MinCap:           3,
			FoodUpkeepPer:    2,
			CoinUpkeepPer:    10,
			TrainingRequires: "Barracks",
			Batches: map[string]TrainBatch{
				"Wood":   {Size: 2, Food: 25, Coins: 5},
				"Stone":  {Size: 4, Food: 50, Coins: 10},
				"Modern": {Size: 8, Food: 100, Coins: 25},
			},
		},
		Defense: DefenseTuning{Base: 0.05, PerSoldier: 0.0025, MaxFromArmy: 0.5, PerLevel: 0.01},
		Raid: RaidTuning{
			MinCommit:      3,
			CooldownMonths: 6,
			Tiers: []PowerTier{
				{MinSoldiers: 15, Power: 0.70},
				{MinSoldiers: 10, Power: 0.55},
				{MinSoldiers: 6, Power: 0.30},
			},
			BasePower:          0.08,
			PerLevel:           0.01,
			MaxPower:           0.90,
			MinChance:          0.05,
			MaxChance:          0.90,
			Loot:               map[string]int{"wood": 8, "rock": 7, "metal": 4, "food": 9, "coins": 5},
			LootMin:            0.6,
			LootSpread:         0.6,
			WinCasualty:        0.12,
			LossCasualtyMin:    0.20,
			LossCasualtySpread: 0.20,
		},
		Tribal: TribalTuning{
			Chance:     0.20,
			MinSeasons: 2,
			Thresholds: map[string]TribalThreshold{
				"Wood":   {Safe: 0.20, Loss: 0.10},
				"Stone":  {Safe: 0.40, Loss: 0.20},
				"Modern": {Safe: 0.75, Loss: 0.40},
			},
			BreachMin:    0.15,
			BreachMax:    0.40,
			DevastateMin: 0.20,
			DevastateMax: 0.50,
			CoinLoss:     0.50,
			MaxCollapse:  2,
		},
		Mercenary: MercenaryTuning{Cost: 20, Cut: 0.30},
		Visitor:   VisitorTuning{Cost: 10, Reward: 20, RobberSteal: 10, AIThinkMs: 5000},
		Bank:      BankTuning{SellRatio: 3, BuyPrice: 2},
		Starvation: StarvationTuning{
			Chance: 0.5,
			Loss:   map[string][]int{"Wood": {1, 3}, "Stone": {3, 9}, "Modern": {9, 18}},
		},
		Progress: ProgressTuning{AgeWeight: 0.35, PerAgeWeight: 0.35, ResourceWeight: 0.30, PerAgeTarget: 2, Ceiling: 90},
		AI: AITuning{
			MaxIterations:       12,
			TrainTargets:        map[string]int{"Wood": 2, "Stone": 4, "Modern": 8},
			WarMax:              map[string]int{"Wood": 1, "Stone": 2, "Modern": 3},
			FoodFloor:           map[string]int{"Wood": 25, "Stone": 50, "Modern": 100},
			VisitorCap:          3,
			VisitorFirstChance:  0.25,
			VisitorFirstSeasons: 4,
			VisitorChance:       0.02,
			TradeChance:         0.06,
			TradeCap:            3,
			TradeMin:            10,
			TradeMax:            20,
			AcceptRatio:         3,
			ChatChance:          0.10,
			MinSellCoins:        4,
		},
		Admin: AdminTuning{
			RaidAttackMin:     20,
			RaidAttackMax:     50,
			RaidMaxDefend:     0.95,
			RaidResourceLoss:  0.30,
			RaidSoldierLossLo: 0.20,
			RaidSoldierLossHi: 0.40,
			DefendLossLo:      0.05,
			DefendLossHi:      0.15,
		},
	}
}
