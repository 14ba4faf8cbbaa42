package protocol

import "encoding/json"

const Version = "1.0"

// Message types.
const (
	TypeHello        = "HELLO"
	TypeWelcome      = "WELCOME"
	TypeActionResult = "ACTION_RESULT"
)

// Commands (client -> server).
const (
	CmdCreateRoom    = "createRoom"
	CmdJoinRoom      = "joinRoom"
	CmdSetReady      = "setReady"
	CmdAddAIPlayer   = "addAiPlayer"
	CmdPerformAction = "performAction"
	CmdProposeTrade  = "proposeTrade"
	CmdRespondTrade  = "respondTrade"
	CmdSendVisit     = "sendVisit"
	CmdResolveVisit  = "resolveVisit"
	CmdTriggerRaid   = "triggerRaid"
	CmdKickPlayer    = "kickPlayer"
	CmdRestartGame   = "restartGame"
	CmdLeaveRoom     = "leaveRoom"
	CmdChat          = "chat"
)

// Events (server -> client).
const (
	EvRoomUpdate     = "roomUpdate"
	EvTurnFlag       = "turnFlag"
	EvToast          = "toast"
	EvGameOver       = "gameOver"
	EvVisitorOffer   = "visitorOffer"
	EvVisitorOutcome = "visitorOutcome"
	EvTradeOffer     = "tradeOffer"
	EvRaidDispatch   = "raidDispatch"
	EvRaidReturn     = "raidReturn"
	EvChatUpdate     = "chatUpdate"
	EvChatMessage    = "chatMessage"
	EvKicked         = "kicked"
	EvRoomClosed     = "roomClosed"
)

// performAction kinds.
const (
	ActGather  = "gather"
	ActBuild   = "build"
	ActUpgrade = "upgrade"
	ActTrain   = "train"
	ActRaid    = "raid"
	ActTrade   = "trade"
	ActAdvance = "advance"
	ActSkip    = "skip"
	ActEndTurn = "endTurn"
)

// BaseMessage lets us route unknown JSON messages by type.
type BaseMessage struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version,omitempty"`
}

func DecodeBase(b []byte) (BaseMessage, error) {
	var m BaseMessage
	err := json.Unmarshal(b, &m)
	return m, err
}

// Event is a loosely typed server message; "type" is always set.
type Event map[string]interface{}
