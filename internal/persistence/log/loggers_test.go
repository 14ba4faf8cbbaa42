package log

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andriy1717/mastercity/internal/sim/room"
)

func TestAuditLogger_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	l := NewAuditLogger(dir)
	l.w.now = func() time.Time { return time.Date(2026, 3, 1, 14, 5, 0, 0, time.UTC) }

	for i := 0; i < 3; i++ {
		if err := l.WriteAudit(room.AuditEntry{Room: "ABC", Turn: i, Actor: "alice", Action: "performAction", OK: true}); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	path := filepath.Join(dir, "audit", "audit-2026-03-01-14.jsonl.zst")

	// Flushed frames are readable before Close.
	var got []room.AuditEntry
	read := func() {
		got = got[:0]
		err := ReadJSONL(path, func(line json.RawMessage) error {
			var e room.AuditEntry
			if err := json.Unmarshal(line, &e); err != nil {
				return err
			}
			got = append(got, e)
			return nil
		})
		if err != nil {
			t.Fatalf("read: %v", err)
		}
	}
	read()
	if len(got) != 3 {
		t.Fatalf("before close: %d entries", len(got))
	}
	if err := l.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	read()
	if len(got) != 3 || got[2].Turn != 2 || got[0].Room != "ABC" {
		t.Fatalf("entries=%+v", got)
	}
}

func TestWriter_RotatesHourly(t *testing.T) {
	dir := t.TempDir()
	w := NewJSONLZstdWriter(dir, "games")
	at := time.Date(2026, 3, 1, 9, 59, 0, 0, time.UTC)
	w.now = func() time.Time { return at }
	if err := w.Write(map[string]int{"n": 1}); err != nil {
		t.Fatalf("write: %v", err)
	}
	at = at.Add(2 * time.Minute)
	if err := w.Write(map[string]int{"n": 2}); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	for _, name := range []string{"games-2026-03-01-09.jsonl.zst", "games-2026-03-01-10.jsonl.zst"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			t.Fatalf("missing %s: %v", name, err)
		}
	}
}
