package catalogs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/andriy1717/mastercity/internal/sim/state"
)

func TestLoad_Configs(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if c.Buildings.Victory != "Monument" {
		t.Fatalf("victory=%q want Monument", c.Buildings.Victory)
	}
	for _, a := range state.Ages {
		if n := len(c.Buildings.InAge(a, false)); n != 6 {
			t.Fatalf("age %s has %d regular buildings, want 6", a, n)
		}
	}
	if got := len(c.Buildings.InAge(state.AgeModern, true)); got != 7 {
		t.Fatalf("modern with victory=%d want 7", got)
	}
	eff, ok := c.Buildings.EffectOf("Sawmill")
	if !ok || eff.Yield[state.Wood] != 3 {
		t.Fatalf("Sawmill effect=%+v ok=%v", eff, ok)
	}
	if eff, _ := c.Buildings.EffectOf("StoneWall"); eff.WallTier != "stone" || eff.Defense != 0.20 {
		t.Fatalf("StoneWall effect=%+v", eff)
	}
	if _, ok := c.Buildings.EffectOf("Castle"); ok {
		t.Fatalf("unknown building resolved")
	}
	if c.Buildings.Digest == "" || c.Civs.Digest == "" {
		t.Fatalf("missing digests")
	}
}

func TestCivCatalog_Normalize(t *testing.T) {
	c, err := Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	if n, ok := c.Civs.NormalizeCiv(" romans "); !ok || n != "Romans" {
		t.Fatalf("NormalizeCiv=%q,%v", n, ok)
	}
	if _, ok := c.Civs.NormalizeCiv("Aztecs"); ok {
		t.Fatalf("unknown civ accepted")
	}
	if got := c.Civs.NormalizeColor("RED", "gray"); got != "red" {
		t.Fatalf("color=%q", got)
	}
	if got := c.Civs.NormalizeColor("magenta", "gray"); got != "gray" {
		t.Fatalf("fallback color=%q", got)
	}
}

func TestLoadBuildings_RejectsSecondVictory(t *testing.T) {
	dir := t.TempDir()
	body := `{"ages":["Wood","Stone","Modern"],"buildings":[
	  {"name":"A","age":"Modern","cost":{},"effect":{"win":true}},
	  {"name":"B","age":"Modern","cost":{},"effect":{"win":true}}]}`
	p := filepath.Join(dir, "buildings.json")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	var bc BuildingCatalog
	if err := loadBuildings(p, &bc); err == nil {
		t.Fatalf("expected duplicate victory rejected")
	}
}
