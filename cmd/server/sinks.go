package main

import (
	"errors"
	"path/filepath"

	"github.com/andriy1717/mastercity/internal/persistence/indexdb"
	persistlog "github.com/andriy1717/mastercity/internal/persistence/log"
	"github.com/andriy1717/mastercity/internal/sim/room"
)

// sinks fans room diagnostics out to the JSONL logs and, when enabled, the
// sqlite index. Write errors never reach the rooms.
type sinks struct {
	audit  *persistlog.AuditLogger
	games  *persistlog.GameLogger
	index  *indexdb.SQLiteIndex
	reader *indexdb.Reader
}

func openSinks(dataDir string, disableDB bool) (*sinks, error) {
	s := &sinks{
		audit: persistlog.NewAuditLogger(dataDir),
		games: persistlog.NewGameLogger(dataDir),
	}
	if disableDB {
		return s, nil
	}
	path := filepath.Join(dataDir, "index.db")
	idx, err := indexdb.OpenSQLite(path)
	if err != nil {
		return nil, err
	}
	r, err := indexdb.OpenReader(path)
	if err != nil {
		_ = idx.Close()
		return nil, err
	}
	s.index, s.reader = idx, r
	return s, nil
}

func (s *sinks) WriteAudit(e room.AuditEntry) error {
	_ = s.audit.WriteAudit(e)
	if s.index != nil {
		_ = s.index.WriteAudit(e)
	}
	return nil
}

func (s *sinks) RecordGame(rec room.GameRecord) error {
	_ = s.games.RecordGame(rec)
	if s.index != nil {
		_ = s.index.RecordGame(rec)
	}
	return nil
}

func (s *sinks) Close() error {
	errs := []error{s.audit.Close(), s.games.Close()}
	if s.reader != nil {
		errs = append(errs, s.reader.Close())
	}
	if s.index != nil {
		errs = append(errs, s.index.Close())
	}
	return errors.Join(errs...)
}
