package room

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/state"
)

const adminHelp = "Commands: /help, /add <n> <res|all> <player|me>, /remove <n> <res|all> <player|me>, " +
	"/raid <player|me>, /kick <player>, /restart, /close, /exit"

func (r *Room) chatMsg(id string, msg protocol.CommandMsg) Result {
	text := strings.TrimSpace(msg.Message)
	if text == "" {
		return fail(protocol.ErrBadRequest, "Empty message.")
	}
	if rs := []rune(text); len(rs) > chatMaxLen {
		text = string(rs[:chatMaxLen])
	}
	if r.cfg.AdminCommands && strings.HasPrefix(text, "/") {
		return r.adminCommand(id, text)
	}
	line := protocol.ChatLine{From: id, Text: text, TS: r.nowMs()}
	r.chat = state.AppendCapped(r.chat, line, chatCap)
	latest := r.latestChat()
	for _, h := range r.humanIDs() {
		r.emit(h, protocol.EvChatMessage, protocol.Event{"from": line.From, "text": line.Text, "ts": line.TS})
		r.emit(h, protocol.EvChatUpdate, protocol.Event{"messages": latest})
	}
	return success()
}

// resolvePlayer maps "me" to the caller and otherwise matches seat ids
// case-insensitively.
func (r *Room) resolvePlayer(caller, name string) *state.Player {
	if strings.EqualFold(name, "me") {
		return r.players[caller]
	}
	if p := r.players[name]; p != nil {
		return p
	}
	for _, id := range r.order {
		if strings.EqualFold(id, name) {
			return r.players[id]
		}
	}
	return nil
}

func (r *Room) adminCommand(id, text string) Result {
	fields := strings.Fields(text)
	cmd := strings.ToLower(fields[0])
	args := fields[1:]
	switch cmd {
	case "/help":
		r.toast(id, adminHelp)
		return success()

	case "/add", "/remove":
		if len(args) < 3 {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("Usage: %s <n> <res|all> <player|me>", cmd))
		}
		n, err := strconv.Atoi(args[0])
		if err != nil || n <= 0 || n > state.MaxAmount {
			return fail(protocol.ErrBadRequest, fmt.Sprintf("Amount must be between 1 and %d.", state.MaxAmount))
		}
		var kinds []state.Resource
		if strings.EqualFold(args[1], "all") {
			kinds = state.Resources
		} else {
			res, ok := state.ParseResource(strings.ToLower(args[1]))
			if !ok {
				return fail(protocol.ErrBadRequest, "Unknown resource.")
			}
			kinds = []state.Resource{res}
		}
		target := r.resolvePlayer(id, strings.Join(args[2:], " "))
		if target == nil {
			return fail(protocol.ErrInvalidTarget, "No such player.")
		}
		for _, res := range kinds {
			if cmd == "/add" {
				target.Resources.Add(res, n)
			} else {
				target.Resources.Take(res, n)
			}
		}
		target.Progress = r.econ.Progress(target)
		verb := "added"
		if cmd == "/remove" {
			verb = "removed"
		}
		r.logGame(fmt.Sprintf("[admin] %s %s %d %s for %s.", id, verb, n, args[1], target.ID))
		r.broadcast()
		return success()

	case "/raid":
		if len(args) < 1 {
			return fail(protocol.ErrBadRequest, "Usage: /raid <player|me>")
		}
		target := r.resolvePlayer(id, strings.Join(args, " "))
		if target == nil {
			return fail(protocol.ErrInvalidTarget, "No such player.")
		}
		text := r.adminRaid(id, target)
		r.toast(target.ID, text)
		if target.ID != id {
			r.toast(id, text)
		}
		r.broadcast()
		return success()

	case "/kick":
		if len(args) < 1 {
			return fail(protocol.ErrBadRequest, "Usage: /kick <player>")
		}
		target := r.resolvePlayer(id, strings.Join(args, " "))
		if target == nil {
			return fail(protocol.ErrInvalidTarget, "No such player.")
		}
		return r.kick(id, target.ID)

	case "/restart":
		return r.restart(id)

	case "/close":
		if id != r.host {
			return fail(protocol.ErrNoPermission, "Only the host can close the room.")
		}
		r.closeRoom("closed by host")
		return success()

	case "/exit":
		return r.leave(id)
	}
	return fail(protocol.ErrBadRequest, "Unknown command. Try /help.")
}
