package room

import (
	"fmt"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

// ensurePlayer returns the seat for id, seeding a new one on first join.
func (r *Room) ensurePlayer(id, color, civ string, isAI bool) *state.Player {
	if p := r.players[id]; p != nil {
		return p
	}
	civs := &r.cats.Civs
	name, ok := civs.NormalizeCiv(civ)
	if !ok {
		name = civs.Names[r.rng.Intn(len(civs.Names))]
	}
	fallback := civs.DefaultHumanColor
	if isAI {
		fallback = civs.DefaultAIColor
	}
	p := state.NewPlayer(id, name, civs.NormalizeColor(color, fallback), isAI,
		r.tune.Start.Resources, r.tune.Start.Soldiers)
	r.econ.RevealRandom(p, state.Ages[0], r.tune.Start.VisibleBuildings, r.rng)
	p.Progress = r.econ.Progress(p)

	r.players[id] = p
	r.order = append(r.order, id)
	if r.host == "" && !isAI {
		r.host = id
	}
	return p
}

func (r *Room) attach(id string, out chan []byte) {
	if out != nil {
		r.sessions[id] = out
	}
}

func (r *Room) join(cmd Command) Result {
	id := cmd.PlayerID
	if id == "" {
		return fail(protocol.ErrBadRequest, "Missing player id.")
	}
	if _, ok := r.players[id]; ok {
		r.attach(id, cmd.Out)
		r.broadcast()
		r.turnFlags()
		return success()
	}
	if len(r.order) >= r.tune.MaxPlayers {
		return fail(protocol.ErrRoomFull, "Room is full.")
	}
	p := r.ensurePlayer(id, cmd.Msg.Color, cmd.Msg.Civ, false)
	r.attach(id, cmd.Out)
	r.logGame(fmt.Sprintf("%s of the %s joined.", id, p.Civ))
	if cmd.Msg.Type == protocol.CmdCreateRoom {
		for _, preset := range cmd.Msg.PresetAIs {
			if res := r.addAI(id, preset.Color, preset.Civ); !res.OK {
				r.toast(id, res.Message)
				break
			}
		}
	}
	r.broadcast()
	r.startIfReady()
	return success()
}

func (r *Room) setReady(id string, msg protocol.CommandMsg) Result {
	p := r.players[id]
	ready := true
	if msg.Ready != nil {
		ready = *msg.Ready
	}
	if r.active && !ready {
		return fail(protocol.ErrConflict, "The game has already started.")
	}
	p.Ready = ready
	r.broadcast()
	r.startIfReady()
	return success()
}

// addAI seats a ready autonomous player named after a ruler of its civ.
func (r *Room) addAI(by, color, civ string) Result {
	if by != r.host {
		return fail(protocol.ErrNoPermission, "Only the host can add AI players.")
	}
	if len(r.order) >= r.tune.MaxPlayers {
		return fail(protocol.ErrRoomFull, "Room is full.")
	}
	civs := &r.cats.Civs
	name, ok := civs.NormalizeCiv(civ)
	if !ok {
		name = civs.Names[r.rng.Intn(len(civs.Names))]
	}
	rulers := civs.Defs[name].Rulers
	base := name
	if len(rulers) > 0 {
		base = rulers[r.rng.Intn(len(rulers))]
	}
	id := base
	for n := 2; r.players[id] != nil; n++ {
		id = fmt.Sprintf("%s %d", base, n)
	}
	r.ensurePlayer(id, color, name, true)
	r.logGame(fmt.Sprintf("%s of the %s takes a seat.", id, name))
	r.broadcast()
	r.startIfReady()
	return success()
}

// removePlayer drops a seat and everything addressed to or from it.
func (r *Room) removePlayer(id string) {
	if r.players[id] == nil {
		return
	}
	wasTurn := r.active && r.turnOf == id
	delete(r.players, id)
	delete(r.sessions, id)
	if i := indexOf(r.order, id); i >= 0 {
		r.order = append(r.order[:i], r.order[i+1:]...)
	}
	for oid, o := range r.offers {
		if o.From == id || o.To == id {
			delete(r.offers, oid)
		}
	}
	for vid, v := range r.visits {
		if v.From == id || v.To == id {
			delete(r.visits, vid)
		}
	}
	if m := r.pendingMerc; m != nil && (m.Hirer == id || m.Target == id) {
		r.pendingMerc = nil
	}
	r.aiQueue = removeID(r.aiQueue, id)
	r.logGame(fmt.Sprintf("%s left the room.", id))

	if r.host == id {
		r.host = ""
		if humans := r.humanIDs(); len(humans) > 0 {
			r.host = humans[0]
			r.toast(r.host, "You are now the host.")
		}
	}
	if len(r.humanIDs()) == 0 {
		r.closeRoom("no players left")
		return
	}
	if r.active && len(r.order) < 2 {
		r.active = false
		r.turnOf = ""
		r.turnSeq++
		r.toastAll("Not enough players to continue. Waiting for more to join.")
	} else if wasTurn {
		r.turnOf = r.order[0]
		p := r.players[r.turnOf]
		p.AP = r.tune.Turn.APPerTurn
		r.turnSeq++
		r.startOfTurn()
		return
	}
	r.broadcast()
}

func (r *Room) kick(by, target string) Result {
	if by != r.host {
		return fail(protocol.ErrNoPermission, "Only the host can kick players.")
	}
	if target == by {
		return fail(protocol.ErrInvalidTarget, "You cannot kick yourself.")
	}
	if r.players[target] == nil {
		return fail(protocol.ErrInvalidTarget, "No such player.")
	}
	r.emit(target, protocol.EvKicked, protocol.Event{"code": r.cfg.Code, "by": by})
	r.removePlayer(target)
	return success()
}

func (r *Room) leave(id string) Result {
	r.emit(id, protocol.EvToast, protocol.Event{"text": "You left the room."})
	r.removePlayer(id)
	return success()
}

// restart re-seeds every seat and returns the room to the lobby.
func (r *Room) restart(by string) Result {
	if by != r.host {
		return fail(protocol.ErrNoPermission, "Only the host can restart the game.")
	}
	for _, id := range r.order {
		old := r.players[id]
		p := state.NewPlayer(id, old.Civ, old.Color, old.IsAI, r.tune.Start.Resources, r.tune.Start.Soldiers)
		r.econ.RevealRandom(p, state.Ages[0], r.tune.Start.VisibleBuildings, r.rng)
		p.Progress = r.econ.Progress(p)
		r.players[id] = p
	}
	r.active = false
	r.finished = false
	r.turnOf = ""
	r.turnSeq++
	r.totalTurns = 0
	r.firstTurnDone = false
	r.offers = map[string]*state.TradeOffer{}
	r.visits = map[string]*state.Visit{}
	r.pendingMerc = nil
	r.gameLog = nil
	r.attacks = nil
	r.summary = nil
	r.aiQueue = nil
	r.winner = ""
	r.startedAt = 0
	r.endedAt = 0
	r.resetCalendar()
	r.logGame("The host restarted the game.")
	r.toastAll("The host restarted the game.")
	r.broadcast()
	return success()
}

func (r *Room) closeRoom(reason string) {
	if r.closed {
		return
	}
	for _, id := range r.humanIDs() {
		r.emit(id, protocol.EvRoomClosed, protocol.Event{"code": r.cfg.Code, "reason": reason})
	}
	r.closed = true
	r.active = false
	r.logger.Printf("room %s: closed (%s)", r.cfg.Code, reason)
}

func removeID(xs []string, v string) []string {
	out := xs[:0]
	for _, x := range xs {
		if x != v {
			out = append(out, x)
		}
	}
	return out
}
