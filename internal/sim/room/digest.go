package room

import (
	"encoding/hex"
	"encoding/json"
	"sort"

	"lukechampine.com/blake3"

	"github.com/andriy1717/mastercity/internal/sim/state"
)

// digestState is the deterministic part of the room: no wall-clock times,
// no sessions, no chat.
type digestState struct {
	Code           string               `json:"code"`
	Order          []string             `json:"order"`
	Players        []*state.Player      `json:"players"`
	TurnOf         string               `json:"turnOf"`
	Active         bool                 `json:"active"`
	Finished       bool                 `json:"finished"`
	Month          int                  `json:"month"`
	Day            int                  `json:"day"`
	Year           int                  `json:"year"`
	SeasonsElapsed int                  `json:"seasonsElapsed"`
	Offers         []digestOffer        `json:"offers"`
	Visits         []string             `json:"visits"`
	Merc           *state.MercenaryRaid `json:"merc,omitempty"`
	Winner         string               `json:"winner,omitempty"`
}

type digestOffer struct {
	ID   string      `json:"id"`
	From string      `json:"from"`
	To   string      `json:"to"`
	Give state.Terms `json:"give"`
	Want state.Terms `json:"want"`
}

// StateDigest is a blake3 hash of the deterministic room state. Two rooms
// with the same seed fed the same commands have equal digests.
func (r *Room) StateDigest() string {
	ds := digestState{
		Code:           r.cfg.Code,
		Order:          r.order,
		TurnOf:         r.turnOf,
		Active:         r.active,
		Finished:       r.finished,
		Month:          r.cal.MonthIndex,
		Day:            r.cal.Day,
		Year:           r.cal.StartingYear,
		SeasonsElapsed: r.seasonsElapsed,
		Merc:           r.pendingMerc,
		Winner:         r.winner,
	}
	for _, id := range r.order {
		ds.Players = append(ds.Players, r.players[id])
	}
	for _, o := range r.offers {
		ds.Offers = append(ds.Offers, digestOffer{ID: o.ID, From: o.From, To: o.To, Give: o.Give, Want: o.Want})
	}
	sort.Slice(ds.Offers, func(i, j int) bool { return ds.Offers[i].ID < ds.Offers[j].ID })
	for id, v := range r.visits {
		ds.Visits = append(ds.Visits, id+":"+v.From+">"+v.To+":"+string(v.Kind))
	}
	sort.Strings(ds.Visits)

	b, err := json.Marshal(ds)
	if err != nil {
		return ""
	}
	sum := blake3.Sum256(b)
	return hex.EncodeToString(sum[:])
}
