package tuning

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_ConfigMatchesDefaults(t *testing.T) {
	got, err := Load("../../../configs/tuning.yaml")
	if err != nil {
		t.Fatalf("load tuning.yaml: %v", err)
	}
	if got.Digest() != Defaults().Digest() {
		t.Fatalf("configs/tuning.yaml drifted from Defaults()")
	}
}

func TestLoad_PartialOverridesKeepDefaults(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	body := "tuning_version: 1\nturn:\n  ap_per_turn: 5\n  bank_limit: 2\n"
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	got, err := Load(p)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Turn.APPerTurn != 5 || got.Turn.BankLimit != 2 {
		t.Fatalf("turn override not applied: %+v", got.Turn)
	}
	if got.Raid.MinCommit != 3 || got.Army.Batches["Stone"].Size != 4 {
		t.Fatalf("defaults lost: raid=%+v batches=%+v", got.Raid, got.Army.Batches)
	}
}

func TestLoad_RejectsBadVersion(t *testing.T) {
	dir := t.TempDir()
	p := filepath.Join(dir, "tuning.yaml")
	if err := os.WriteFile(p, []byte("tuning_version: 9\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(p); err == nil {
		t.Fatalf("expected version error")
	}
}

func TestValidate_TierOrder(t *testing.T) {
	tu := Defaults()
	tu.Raid.Tiers = []PowerTier{{MinSoldiers: 6, Power: 0.3}, {MinSoldiers: 10, Power: 0.55}}
	if err := tu.Validate(); err == nil {
		t.Fatalf("expected unsorted tiers rejected")
	}
	if err := Defaults().Validate(); err != nil {
		t.Fatalf("defaults invalid: %v", err)
	}
}
