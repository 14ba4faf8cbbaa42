package indexdb

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	_ "modernc.org/sqlite"

	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/room"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
)

func TestSQLiteIndex_AuditsAndGames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	_ = idx.WriteAudit(room.AuditEntry{Room: "ABC", Turn: 1, Actor: "alice", Action: "performAction", OK: true, At: 10})
	_ = idx.WriteAudit(room.AuditEntry{Room: "ABC", Turn: 1, Actor: "bob", Action: "performAction", Code: "E_NOT_YOUR_TURN", At: 11})
	_ = idx.RecordGame(room.GameRecord{Room: "OLD", Winner: "bob", TotalTurns: 30, StartedAt: 1, EndedAt: 50, DurationMs: 49})
	_ = idx.RecordGame(room.GameRecord{
		Room:       "ABC",
		Winner:     "alice",
		Players:    []room.PlayerRecord{{ID: "alice"}, {ID: "bob"}},
		TotalTurns: 42,
		StartedAt:  100,
		EndedAt:    200,
		DurationMs: 100,
	})
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	// Writes after Close are ignored.
	_ = idx.WriteAudit(room.AuditEntry{Room: "LATE"})

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()

	games, err := r.RecentGames(context.Background(), 10)
	if err != nil {
		t.Fatalf("RecentGames: %v", err)
	}
	if len(games) != 2 {
		t.Fatalf("games=%+v", games)
	}
	if g := games[0]; g.Room != "ABC" || g.Winner != "alice" || g.Players != 2 || g.TotalTurns != 42 {
		t.Fatalf("newest game=%+v", g)
	}

	audits, err := r.RoomAudits(context.Background(), "ABC", 0)
	if err != nil {
		t.Fatalf("RoomAudits: %v", err)
	}
	if len(audits) != 2 || !audits[0].OK || audits[1].Code != "E_NOT_YOUR_TURN" {
		t.Fatalf("audits=%+v", audits)
	}
}

func TestSQLiteIndex_DropsWhenQueueFull(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := openSQLite(path, 0)
	if err != nil {
		t.Fatalf("openSQLite: %v", err)
	}
	defer idx.Close()
	// An unbuffered queue only accepts a write while the loop is parked on
	// the receive, so a burst must drop some entries without blocking.
	for i := 0; i < 1000; i++ {
		_ = idx.WriteAudit(room.AuditEntry{Room: "X", Turn: i})
	}
	if idx.Dropped() == 0 {
		t.Fatalf("expected dropped writes")
	}
}

func TestSQLiteIndex_UpsertCatalogs(t *testing.T) {
	cats, err := catalogs.Load("../../../configs")
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	path := filepath.Join(t.TempDir(), "index.db")
	idx, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	tu := tuning.Defaults()
	if err := idx.UpsertCatalogs("../../../configs", cats, tu); err != nil {
		t.Fatalf("UpsertCatalogs: %v", err)
	}
	// Upserting twice keeps one row per name.
	if err := idx.UpsertCatalogs("../../../configs", cats, tu); err != nil {
		t.Fatalf("UpsertCatalogs again: %v", err)
	}
	if err := idx.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		t.Fatalf("sql.Open: %v", err)
	}
	defer db.Close()
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM catalogs`).Scan(&n); err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 3 {
		t.Fatalf("catalog rows=%d", n)
	}

	r, err := OpenReader(path)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer r.Close()
	d, err := r.CatalogDigest(context.Background(), "buildings")
	if err != nil {
		t.Fatalf("CatalogDigest: %v", err)
	}
	if d != cats.Buildings.Digest {
		t.Fatalf("digest=%q want %q", d, cats.Buildings.Digest)
	}
}
