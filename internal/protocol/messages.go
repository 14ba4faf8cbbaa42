package protocol

// HELLO (client -> server)
type HelloMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	PlayerID        string `json:"player_id"`
	Client          string `json:"client,omitempty"`
}

// WELCOME (server -> client)
type WelcomeMsg struct {
	Type            string         `json:"type"`
	ProtocolVersion string         `json:"protocol_version"`
	SessionID       string         `json:"session_id"`
	PlayerID        string         `json:"player_id"`
	Catalogs        CatalogDigests `json:"catalogs"`
}

type CatalogDigests struct {
	BuildingsDigest string `json:"buildings_digest"`
	CivsDigest      string `json:"civs_digest"`
	TuningDigest    string `json:"tuning_digest"`
}

type PresetAI struct {
	Civ   string `json:"civ,omitempty"`
	Color string `json:"color,omitempty"`
}

type TradeTerms struct {
	Type   string `json:"type"`
	Amount int    `json:"amount"`
}

type TradeOfferReq struct {
	Give TradeTerms `json:"give"`
	Want TradeTerms `json:"want"`
}

type ActionPayload struct {
	// gather/trade: resource; build/upgrade: building name.
	Type    string `json:"type,omitempty"`
	Name    string `json:"name,omitempty"`
	Batches int    `json:"batches,omitempty"`
	Commit  int    `json:"commit,omitempty"`
	Mode    string `json:"mode,omitempty"` // trade: "sell" | "buy"
	Amount  int    `json:"amount,omitempty"`
}

// CommandMsg is every client command. Only the fields of the given Type are
// read; the acting player always comes from the session.
type CommandMsg struct {
	Type            string `json:"type"`
	ProtocolVersion string `json:"protocol_version"`
	Ref             string `json:"ref,omitempty"`
	Code            string `json:"code,omitempty"`

	// createRoom / joinRoom / addAiPlayer
	Color     string     `json:"color,omitempty"`
	Civ       string     `json:"civ,omitempty"`
	PresetAIs []PresetAI `json:"presetAIs,omitempty"`

	// setReady
	Ready *bool `json:"ready,omitempty"`

	// performAction
	Action  string        `json:"action,omitempty"`
	Payload ActionPayload `json:"payload,omitempty"`

	// proposeTrade / respondTrade
	To       string         `json:"to,omitempty"`
	Offer    *TradeOfferReq `json:"offer,omitempty"`
	OfferID  string         `json:"offerId,omitempty"`
	Response string         `json:"response,omitempty"` // accept | decline | counter
	Counter  *TradeOfferReq `json:"counter,omitempty"`

	// sendVisit / resolveVisit
	Kind     string `json:"kind,omitempty"`
	VisitID  string `json:"visitId,omitempty"`
	ID       string `json:"id,omitempty"`       // alias of visitId
	Decision string `json:"decision,omitempty"` // accept | reject

	// triggerRaid / kickPlayer
	TargetPlayerID string `json:"targetPlayerId,omitempty"`

	// chat
	Message string `json:"message,omitempty"`
}
