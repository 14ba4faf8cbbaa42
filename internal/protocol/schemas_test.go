package protocol_test

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/andriy1717/mastercity/internal/protocol"
)

func compile(t *testing.T, name string) *jsonschema.Schema {
	t.Helper()
	p := filepath.Join("..", "..", "schemas", name)
	s, err := jsonschema.Compile(p)
	if err != nil {
		t.Fatalf("compile %s: %v", name, err)
	}
	return s
}

// roundTrip turns a Go message into the generic form the validator expects.
func roundTrip(t *testing.T, v any) any {
	t.Helper()
	b, err := json.Marshal(v)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out any
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	return out
}

func TestSchemas_ValidateSamples(t *testing.T) {
	validate := func(s *jsonschema.Schema, v any) {
		t.Helper()
		if err := s.Validate(roundTrip(t, v)); err != nil {
			t.Fatalf("validate %T: %v", v, err)
		}
	}

	validate(compile(t, "hello.schema.json"), protocol.HelloMsg{
		Type:            protocol.TypeHello,
		ProtocolVersion: protocol.Version,
		PlayerID:        "alice",
		Client:          "bot",
	})
	validate(compile(t, "welcome.schema.json"), protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		SessionID:       "6f0c",
		PlayerID:        "alice",
		Catalogs:        protocol.CatalogDigests{BuildingsDigest: "deadbeef", CivsDigest: "deadbeef", TuningDigest: "deadbeef"},
	})

	cmd := compile(t, "command.schema.json")
	ready := true
	for _, m := range []protocol.CommandMsg{
		{Type: protocol.CmdCreateRoom, Code: "ABC123", Civ: "Romans", PresetAIs: []protocol.PresetAI{{Civ: "Egyptians"}}},
		{Type: protocol.CmdSetReady, Ready: &ready},
		{Type: protocol.CmdPerformAction, Action: protocol.ActTrade, Payload: protocol.ActionPayload{Type: "wood", Mode: "sell", Amount: 9}},
		{Type: protocol.CmdPerformAction, Action: protocol.ActBuild, Payload: protocol.ActionPayload{Name: "Hut"}},
		{Type: protocol.CmdProposeTrade, To: "bob", Offer: &protocol.TradeOfferReq{
			Give: protocol.TradeTerms{Type: "wood", Amount: 10},
			Want: protocol.TradeTerms{Type: "coins", Amount: 5},
		}},
		{Type: protocol.CmdRespondTrade, OfferID: "o1", Response: "accept"},
		{Type: protocol.CmdSendVisit, To: "bob", Kind: "spy"},
		{Type: protocol.CmdResolveVisit, VisitID: "v1", Decision: "reject"},
		{Type: protocol.CmdResolveVisit, ID: "V1", Decision: "accept"},
		{Type: protocol.CmdChat, Message: "/help"},
	} {
		m.ProtocolVersion = protocol.Version
		m.Ref = "r1"
		validate(cmd, m)
	}
}

func TestSchemas_RejectBadCommands(t *testing.T) {
	cmd := compile(t, "command.schema.json")
	for _, raw := range []string{
		`{"type":"dance","protocol_version":"1.0"}`,
		`{"type":"performAction","protocol_version":"1.0"}`,
		`{"type":"proposeTrade","protocol_version":"1.0","to":"bob","offer":{"give":{"type":"gold","amount":1},"want":{"type":"wood","amount":1}}}`,
		`{"type":"respondTrade","protocol_version":"1.0","offerId":"o1","response":"maybe"}`,
	} {
		var v any
		if err := json.Unmarshal([]byte(raw), &v); err != nil {
			t.Fatalf("unmarshal %s: %v", raw, err)
		}
		if err := cmd.Validate(v); err == nil {
			t.Fatalf("expected rejection: %s", raw)
		}
	}
}
