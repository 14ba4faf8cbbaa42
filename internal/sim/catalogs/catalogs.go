package catalogs

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/andriy1717/mastercity/internal/sim/state"
)

type Catalogs struct {
	Buildings BuildingCatalog
	Civs      CivCatalog
}

type BuildingCatalog struct {
	Ages    []state.Age
	Defs    map[string]BuildingDef
	ByAge   map[state.Age][]string // sorted by name
	Victory string
	Digest  string
}

type BuildingDef struct {
	Name   string    `json:"name"`
	Age    state.Age `json:"age"`
	Cost   state.Bag `json:"cost"`
	Effect Effect    `json:"effect"`
	Desc   string    `json:"desc"`
}

type Effect struct {
	Yield      map[state.Resource]int `json:"yield,omitempty"`
	Coins      int                    `json:"coins,omitempty"`
	Soldiers   int                    `json:"soldiers,omitempty"`
	SoldierCap int                    `json:"soldier_cap,omitempty"`
	Defense    float64                `json:"defense,omitempty"`
	RaidPower  float64                `json:"raid_power,omitempty"`
	WallTier   string                 `json:"wall_tier,omitempty"`
	Win        bool                   `json:"win,omitempty"`
}

type CivCatalog struct {
	Colors            []string
	DefaultHumanColor string
	DefaultAIColor    string
	Names             []string // sorted
	Defs              map[string]CivDef
	Digest            string
}

type CivDef struct {
	Name    string   `json:"name"`
	Rulers  []string `json:"rulers"`
	Chatter []string `json:"chatter"`
}

func Load(configDir string) (*Catalogs, error) {
	var c Catalogs
	if err := loadBuildings(filepath.Join(configDir, "buildings.json"), &c.Buildings); err != nil {
		return nil, err
	}
	if err := loadCivs(filepath.Join(configDir, "civs.json"), &c.Civs); err != nil {
		return nil, err
	}
	return &c, nil
}

// EffectOf is the single lookup every rule uses to read a building's effect.
func (b *BuildingCatalog) EffectOf(name string) (Effect, bool) {
	d, ok := b.Defs[name]
	return d.Effect, ok
}

func (b *BuildingCatalog) Def(name string) (BuildingDef, bool) {
	d, ok := b.Defs[name]
	return d, ok
}

// InAge lists the buildings of an age, optionally without the victory structure.
func (b *BuildingCatalog) InAge(age state.Age, withVictory bool) []string {
	names := b.ByAge[age]
	if withVictory {
		return names
	}
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n != b.Victory {
			out = append(out, n)
		}
	}
	return out
}

// NormalizeCiv resolves a civ name case-insensitively.
func (c *CivCatalog) NormalizeCiv(name string) (string, bool) {
	name = strings.TrimSpace(name)
	for _, n := range c.Names {
		if strings.EqualFold(n, name) {
			return n, true
		}
	}
	return "", false
}

// NormalizeColor returns a palette color, or fallback when s is not in it.
func (c *CivCatalog) NormalizeColor(s, fallback string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	for _, col := range c.Colors {
		if col == s {
			return col
		}
	}
	return fallback
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func loadBuildings(path string, out *BuildingCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Ages      []state.Age   `json:"ages"`
		Buildings []BuildingDef `json:"buildings"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("buildings.json: %w", err)
	}
	if len(doc.Ages) != len(state.Ages) {
		return fmt.Errorf("buildings.json: expected %d ages, got %d", len(state.Ages), len(doc.Ages))
	}
	for i, a := range doc.Ages {
		if a != state.Ages[i] {
			return fmt.Errorf("buildings.json: age %d is %q, want %q", i, a, state.Ages[i])
		}
	}
	out.Ages = doc.Ages
	out.Defs = map[string]BuildingDef{}
	out.ByAge = map[state.Age][]string{}
	for _, d := range doc.Buildings {
		if d.Name == "" {
			return fmt.Errorf("buildings.json: empty name")
		}
		if _, dup := out.Defs[d.Name]; dup {
			return fmt.Errorf("buildings.json: duplicate building %s", d.Name)
		}
		if d.Age.Index() < 0 {
			return fmt.Errorf("buildings.json: %s has unknown age %q", d.Name, d.Age)
		}
		for r := range d.Cost {
			if _, ok := state.ParseResource(string(r)); !ok {
				return fmt.Errorf("buildings.json: %s cost has unknown resource %q", d.Name, r)
			}
		}
		for r := range d.Effect.Yield {
			if !r.Gatherable() {
				return fmt.Errorf("buildings.json: %s yields non-gatherable %q", d.Name, r)
			}
		}
		if d.Cost == nil {
			d.Cost = state.Bag{}
		}
		if d.Effect.Win {
			if out.Victory != "" {
				return fmt.Errorf("buildings.json: more than one victory building")
			}
			if !d.Age.IsFinal() {
				return fmt.Errorf("buildings.json: victory building %s must be in the final age", d.Name)
			}
			out.Victory = d.Name
		}
		out.Defs[d.Name] = d
		out.ByAge[d.Age] = append(out.ByAge[d.Age], d.Name)
	}
	if out.Victory == "" {
		return fmt.Errorf("buildings.json: missing victory building")
	}
	for a := range out.ByAge {
		sort.Strings(out.ByAge[a])
	}
	return nil
}

func loadCivs(path string, out *CivCatalog) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	out.Digest = sha256Hex(raw)

	var doc struct {
		Colors            []string `json:"colors"`
		DefaultHumanColor string   `json:"default_human_color"`
		DefaultAIColor    string   `json:"default_ai_color"`
		Civs              []CivDef `json:"civs"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil {
		return fmt.Errorf("civs.json: %w", err)
	}
	if len(doc.Colors) == 0 {
		return fmt.Errorf("civs.json: empty colors")
	}
	out.Colors = doc.Colors
	out.DefaultHumanColor = doc.DefaultHumanColor
	out.DefaultAIColor = doc.DefaultAIColor
	out.Defs = map[string]CivDef{}
	for _, c := range doc.Civs {
		if c.Name == "" {
			return fmt.Errorf("civs.json: empty civ name")
		}
		if len(c.Rulers) == 0 {
			return fmt.Errorf("civs.json: %s has no rulers", c.Name)
		}
		out.Defs[c.Name] = c
		out.Names = append(out.Names, c.Name)
	}
	if len(out.Names) == 0 {
		return fmt.Errorf("civs.json: no civs")
	}
	sort.Strings(out.Names)
	return nil
}
