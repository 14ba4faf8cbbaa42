package indexdb

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// GameSummary is one row of the games table.
type GameSummary struct {
	ID         int64  `db:"id" json:"id"`
	Room       string `db:"room" json:"room"`
	Winner     string `db:"winner" json:"winner"`
	Players    int    `db:"players" json:"players"`
	TotalTurns int    `db:"total_turns" json:"totalTurns"`
	Months     int    `db:"months" json:"months"`
	StartedAt  int64  `db:"started_at" json:"startedAt"`
	EndedAt    int64  `db:"ended_at" json:"endedAt"`
	DurationMs int64  `db:"duration_ms" json:"durationMs"`
}

type AuditRow struct {
	Room   string `db:"room" json:"room"`
	Turn   int    `db:"turn" json:"turn"`
	Actor  string `db:"actor" json:"actor"`
	Action string `db:"action" json:"action"`
	OK     bool   `db:"ok" json:"ok"`
	Code   string `db:"code" json:"code,omitempty"`
	At     int64  `db:"at" json:"at"`
}

// Reader is the read side of the index, used by the HTTP API.
type Reader struct {
	db *sqlx.DB
}

func OpenReader(path string) (*Reader, error) {
	db, err := sqlx.Open("sqlite", path+"?_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open index: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("open index: %w", err)
	}
	return &Reader{db: db}, nil
}

func (r *Reader) Close() error { return r.db.Close() }

// RecentGames returns up to limit finished games, newest first.
func (r *Reader) RecentGames(ctx context.Context, limit int) ([]GameSummary, error) {
	if limit <= 0 || limit > 200 {
		limit = 20
	}
	var out []GameSummary
	err := r.db.SelectContext(ctx, &out,
		`SELECT id, room, winner, players, total_turns, months, started_at, ended_at, duration_ms
		 FROM games ORDER BY ended_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RoomAudits returns the audit trail of one room in write order.
func (r *Reader) RoomAudits(ctx context.Context, code string, limit int) ([]AuditRow, error) {
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	var out []AuditRow
	err := r.db.SelectContext(ctx, &out,
		`SELECT room, turn, actor, action, ok, COALESCE(code,'') AS code, at
		 FROM audits WHERE room = ? ORDER BY id LIMIT ?`, code, limit)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// CatalogDigest returns the stored digest for a catalog name, or "".
func (r *Reader) CatalogDigest(ctx context.Context, name string) (string, error) {
	var digest string
	err := r.db.GetContext(ctx, &digest, `SELECT digest FROM catalogs WHERE name = ?`, name)
	if err != nil {
		return "", err
	}
	return digest, nil
}
