package room

import (
	"github.com/andriy1717/mastercity/internal/protocol"
)

type AuditEntry struct {
	Room    string         `json:"room"`
	Turn    int            `json:"turn"`
	Month   int            `json:"month"`
	Actor   string         `json:"actor"`
	Action  string         `json:"action"` // command type, or AI_TURN
	OK      bool           `json:"ok"`
	Code    string         `json:"code,omitempty"`
	Reason  string         `json:"reason,omitempty"`
	Details map[string]any `json:"details,omitempty"`
	At      int64          `json:"at"`
}

func (r *Room) audit(cmd Command, res Result) {
	if r.auditLogger == nil {
		return
	}
	details := map[string]any{}
	m := cmd.Msg
	switch m.Type {
	case protocol.CmdPerformAction:
		details["action"] = m.Action
		details["payload"] = m.Payload
	case protocol.CmdProposeTrade:
		details["to"] = m.To
		details["offer"] = m.Offer
	case protocol.CmdRespondTrade:
		details["offerId"] = m.OfferID
		details["response"] = m.Response
	case protocol.CmdSendVisit:
		details["to"] = m.To
		details["kind"] = m.Kind
	case protocol.CmdResolveVisit:
		details["visitId"] = m.VisitID
		details["decision"] = m.Decision
	case protocol.CmdTriggerRaid, protocol.CmdKickPlayer:
		details["target"] = m.TargetPlayerID
	case protocol.CmdChat:
		details["message"] = m.Message
	}
	if len(details) == 0 {
		details = nil
	}
	r.auditEvent(cmd.PlayerID, m.Type, res, details)
}

func (r *Room) auditEvent(actor, action string, res Result, details map[string]any) {
	if r.auditLogger == nil {
		return
	}
	_ = r.auditLogger.WriteAudit(AuditEntry{
		Room:    r.cfg.Code,
		Turn:    r.totalTurns,
		Month:   r.cal.MonthIndex,
		Actor:   actor,
		Action:  action,
		OK:      res.OK,
		Code:    res.Code,
		Reason:  res.Message,
		Details: details,
		At:      r.nowMs(),
	})
}
