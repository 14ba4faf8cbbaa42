package room

import (
	"github.com/andriy1717/mastercity/internal/protocol"
)

// apply runs one command through the resolver and answers the caller. AI
// seats use the same path.
func (r *Room) apply(cmd Command) Result {
	res := r.dispatch(cmd)
	if !res.OK && !protocol.IsKnownCode(res.Code) {
		res.Code = protocol.ErrInternal
	}
	r.audit(cmd, res)
	if cmd.Msg.Ref != "" {
		r.send(cmd.PlayerID, actionResult(cmd.Msg.Ref, res))
	}
	if !res.OK && res.Message != "" {
		r.toast(cmd.PlayerID, res.Message)
	}
	return res
}

func (r *Room) dispatch(cmd Command) Result {
	if r.closed {
		return fail(protocol.ErrNotFound, "This room is closed.")
	}
	id, m := cmd.PlayerID, cmd.Msg
	switch m.Type {
	case protocol.CmdCreateRoom, protocol.CmdJoinRoom:
		return r.join(cmd)
	}
	if r.players[id] == nil {
		return fail(protocol.ErrNotFound, "You are not in this room.")
	}
	switch m.Type {
	case protocol.CmdSetReady:
		return r.setReady(id, m)
	case protocol.CmdAddAIPlayer:
		return r.addAI(id, m.Color, m.Civ)
	case protocol.CmdPerformAction:
		return r.performAction(id, m)
	case protocol.CmdProposeTrade:
		return r.proposeTrade(id, m)
	case protocol.CmdRespondTrade:
		return r.respondTrade(id, m)
	case protocol.CmdSendVisit:
		return r.sendVisit(id, m)
	case protocol.CmdResolveVisit:
		return r.resolveVisit(id, m)
	case protocol.CmdTriggerRaid:
		return r.triggerRaid(id, m)
	case protocol.CmdKickPlayer:
		return r.kick(id, m.TargetPlayerID)
	case protocol.CmdRestartGame:
		return r.restart(id)
	case protocol.CmdLeaveRoom:
		return r.leave(id)
	case protocol.CmdChat:
		return r.chatMsg(id, m)
	}
	return fail(protocol.ErrBadRequest, "Unknown command.")
}
