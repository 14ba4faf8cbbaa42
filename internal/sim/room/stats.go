package room

import (
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// GameRecord summarises a finished game.
type GameRecord struct {
	Room       string                 `json:"room"`
	Winner     string                 `json:"winner"`
	Players    []PlayerRecord         `json:"players"`
	TotalTurns int                    `json:"totalTurns"`
	Months     int                    `json:"months"`
	StartedAt  int64                  `json:"startedAt"`
	EndedAt    int64                  `json:"endedAt"`
	DurationMs int64                  `json:"durationMs"`
	Attacks    []AttackRecord         `json:"attacks,omitempty"`
	Stats      map[string]state.Stats `json:"stats"`
}

type PlayerRecord struct {
	ID       string    `json:"id"`
	Civ      string    `json:"civ"`
	IsAI     bool      `json:"isAI"`
	Age      state.Age `json:"age"`
	Progress int       `json:"progress"`
	Wealth   int       `json:"wealth"`
}

func (r *Room) gameRecord() GameRecord {
	rec := GameRecord{
		Room:       r.cfg.Code,
		Winner:     r.winner,
		TotalTurns: r.totalTurns,
		Months:     r.cal.MonthIndex,
		StartedAt:  r.startedAt,
		EndedAt:    r.endedAt,
		Attacks:    append([]AttackRecord(nil), r.attacks...),
		Stats:      make(map[string]state.Stats, len(r.order)),
	}
	if rec.EndedAt > rec.StartedAt && rec.StartedAt > 0 {
		rec.DurationMs = rec.EndedAt - rec.StartedAt
	}
	for _, id := range r.order {
		p := r.players[id]
		rec.Players = append(rec.Players, PlayerRecord{
			ID:       id,
			Civ:      p.Civ,
			IsAI:     p.IsAI,
			Age:      p.Age,
			Progress: p.Progress,
			Wealth:   r.econ.Wealth(p.Resources),
		})
		rec.Stats[id] = p.Stats
	}
	return rec
}
