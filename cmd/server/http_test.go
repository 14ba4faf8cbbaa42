package main

import (
	"context"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/lobby"
	"github.com/andriy1717/mastercity/internal/sim/room"
	"github.com/andriy1717/mastercity/internal/sim/tuning"
	"github.com/andriy1717/mastercity/internal/transport/ws"
)

func findRepoRoot(t *testing.T) string {
	t.Helper()
	dir, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatalf("could not locate go.mod from %s", dir)
		}
		dir = parent
	}
}

func newTestAPI(t *testing.T, disableDB bool) (*api, *sinks) {
	t.Helper()
	root := findRepoRoot(t)
	cats, err := catalogs.Load(filepath.Join(root, "configs"))
	if err != nil {
		t.Fatalf("load catalogs: %v", err)
	}
	tu := tuning.Defaults()
	s, err := openSinks(t.TempDir(), disableDB)
	if err != nil {
		t.Fatalf("open sinks: %v", err)
	}
	logger := log.New(io.Discard, "", 0)
	mgr, err := lobby.NewManager(context.Background(), lobby.Options{
		Catalogs: cats,
		Tuning:   &tu,
		Logger:   logger,
		Audit:    s,
		Games:    s,
		Seed:     3,
	})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	t.Cleanup(func() {
		mgr.Close()
		_ = s.Close()
	})
	digests := protocol.CatalogDigests{BuildingsDigest: cats.Buildings.Digest, CivsDigest: cats.Civs.Digest, TuningDigest: tu.Digest()}
	return &api{
		mgr:     mgr,
		cats:    cats,
		digests: digests,
		games:   s.reader,
		ws:      ws.NewServer(mgr, digests, logger),
	}, s
}

func get(t *testing.T, h http.Handler, path string, out any) int {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	if out != nil && rec.Code == http.StatusOK {
		if err := json.Unmarshal(rec.Body.Bytes(), out); err != nil {
			t.Fatalf("%s: decode: %v", path, err)
		}
	}
	return rec.Code
}

func TestRouter_HealthAndCatalog(t *testing.T) {
	a, _ := newTestAPI(t, true)
	h := a.router()
	if code := get(t, h, "/healthz", nil); code != http.StatusOK {
		t.Fatalf("healthz=%d", code)
	}
	var cat catalogResponse
	if code := get(t, h, "/v1/catalog", &cat); code != http.StatusOK {
		t.Fatalf("catalog=%d", code)
	}
	if len(cat.Ages) == 0 || cat.Victory == "" || cat.Digests.TuningDigest == "" {
		t.Fatalf("catalog=%+v", cat)
	}
	if len(cat.Buildings[cat.Ages[0]]) == 0 {
		t.Fatalf("no buildings for %s", cat.Ages[0])
	}
	if code := get(t, h, "/v1/games", nil); code != http.StatusServiceUnavailable {
		t.Fatalf("games without index=%d", code)
	}
}

func TestRouter_RoomsAndGames(t *testing.T) {
	a, s := newTestAPI(t, false)
	h := a.router()
	if _, err := a.mgr.Create("hall"); err != nil {
		t.Fatalf("create: %v", err)
	}
	var rooms struct {
		Rooms []room.Info `json:"rooms"`
	}
	if code := get(t, h, "/v1/rooms", &rooms); code != http.StatusOK {
		t.Fatalf("rooms=%d", code)
	}
	if len(rooms.Rooms) != 1 || rooms.Rooms[0].Code != "HALL" {
		t.Fatalf("rooms=%+v", rooms)
	}

	_ = s.RecordGame(room.GameRecord{Room: "HALL", Winner: "alice", TotalTurns: 12, EndedAt: 99})
	var games struct {
		Games []struct {
			Room   string `json:"room"`
			Winner string `json:"winner"`
		} `json:"games"`
	}
	deadline := time.Now().Add(5 * time.Second)
	for len(games.Games) == 0 && time.Now().Before(deadline) {
		if code := get(t, h, "/v1/games?limit=5", &games); code != http.StatusOK {
			t.Fatalf("games=%d", code)
		}
		time.Sleep(50 * time.Millisecond)
	}
	if len(games.Games) != 1 || games.Games[0].Winner != "alice" {
		t.Fatalf("games=%+v", games)
	}
	if code := get(t, h, "/v1/rooms/hall/audit", nil); code != http.StatusOK {
		t.Fatalf("audit=%d", code)
	}
}
