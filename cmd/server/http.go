package main

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/andriy1717/mastercity/internal/persistence/indexdb"
	"github.com/andriy1717/mastercity/internal/protocol"
	"github.com/andriy1717/mastercity/internal/sim/catalogs"
	"github.com/andriy1717/mastercity/internal/sim/lobby"
	"github.com/andriy1717/mastercity/internal/transport/ws"
)

type api struct {
	mgr     *lobby.Manager
	cats    *catalogs.Catalogs
	digests protocol.CatalogDigests
	games   *indexdb.Reader // nil when the index is disabled
	ws      *ws.Server
}

type catalogBuilding struct {
	Name string         `json:"name"`
	Cost map[string]int `json:"cost"`
	Desc string         `json:"desc"`
}

type catalogResponse struct {
	Digests   protocol.CatalogDigests      `json:"digests"`
	Ages      []string                     `json:"ages"`
	Buildings map[string][]catalogBuilding `json:"buildings"`
	Victory   string                       `json:"victory"`
	Civs      []string                     `json:"civs"`
}

func (a *api) router() http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", func(rw http.ResponseWriter, _ *http.Request) {
		rw.WriteHeader(http.StatusOK)
		_, _ = rw.Write([]byte("ok"))
	}).Methods("GET")
	r.HandleFunc("/v1/rooms", a.handleRooms).Methods("GET")
	r.HandleFunc("/v1/rooms/{code}/audit", a.handleRoomAudit).Methods("GET")
	r.HandleFunc("/v1/catalog", a.handleCatalog).Methods("GET")
	r.HandleFunc("/v1/games", a.handleGames).Methods("GET")
	r.HandleFunc("/v1/ws", a.ws.Handler())
	return r
}

func (a *api) handleRooms(rw http.ResponseWriter, _ *http.Request) {
	writeJSON(rw, http.StatusOK, map[string]any{"rooms": a.mgr.Rooms()})
}

func (a *api) handleCatalog(rw http.ResponseWriter, _ *http.Request) {
	resp := catalogResponse{
		Digests:   a.digests,
		Buildings: map[string][]catalogBuilding{},
		Victory:   a.cats.Buildings.Victory,
		Civs:      a.cats.Civs.Names,
	}
	for _, age := range a.cats.Buildings.Ages {
		resp.Ages = append(resp.Ages, string(age))
		for _, name := range a.cats.Buildings.ByAge[age] {
			d := a.cats.Buildings.Defs[name]
			cost := map[string]int{}
			for res, n := range d.Cost {
				if n > 0 {
					cost[string(res)] = n
				}
			}
			resp.Buildings[string(age)] = append(resp.Buildings[string(age)], catalogBuilding{Name: name, Cost: cost, Desc: d.Desc})
		}
	}
	writeJSON(rw, http.StatusOK, resp)
}

func (a *api) handleGames(rw http.ResponseWriter, r *http.Request) {
	if a.games == nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]string{"error": "index disabled"})
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	games, err := a.games.RecentGames(r.Context(), limit)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if games == nil {
		games = []indexdb.GameSummary{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"games": games})
}

func (a *api) handleRoomAudit(rw http.ResponseWriter, r *http.Request) {
	if a.games == nil {
		writeJSON(rw, http.StatusServiceUnavailable, map[string]string{"error": "index disabled"})
		return
	}
	code := a.mgr.NormalizeCode(mux.Vars(r)["code"])
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	rows, err := a.games.RoomAudits(r.Context(), code, limit)
	if err != nil {
		writeJSON(rw, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if rows == nil {
		rows = []indexdb.AuditRow{}
	}
	writeJSON(rw, http.StatusOK, map[string]any{"room": code, "audits": rows})
}

func writeJSON(rw http.ResponseWriter, status int, v any) {
	rw.Header().Set("Content-Type", "application/json")
	rw.WriteHeader(status)
	_ = json.NewEncoder(rw).Encode(v)
}
