/*
Package store provides a SQLite-backed audit sink for the facility
engine.

PURPOSE:
  An external collaborator to the facility engine: it only archives
  events a Facility has already drained via TakeEvents, and caches the
  latest JSON snapshot for quick restarts. It holds no waterfall, no
  accrual, no state-machine logic of its own.

APPEND-ONLY ENFORCEMENT:
  The events table is insert-only: no UPDATE or DELETE statement
  touches it anywhere in this file. The facilities table (snapshot
  cache + config) is the one place an UPSERT is legitimate, since a
  snapshot is a point-in-time cache, not a ledger entry.

WAL MODE:
  Opened with WAL for concurrent readers while a single writer
  archives events.

SEE ALSO:
  - facility/events.go: the Event type archived here.
  - api/handlers.go: calls AppendEvents after every mutating operation.
*/
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/credit-facility/facility"
)

// Store is a SQLite-backed audit sink and snapshot cache.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (creating if necessary) a SQLite database at path and runs
// the schema migration. Use ":memory:" for an ephemeral database.
func New(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	const schema = `
	CREATE TABLE IF NOT EXISTS facilities (
		id          TEXT PRIMARY KEY,
		account_id  TEXT NOT NULL,
		customer_id TEXT NOT NULL,
		kind        TEXT NOT NULL,
		config_json TEXT NOT NULL,
		snapshot_json TEXT NOT NULL,
		created_at  TEXT NOT NULL,
		updated_at  TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS events (
		id          INTEGER PRIMARY KEY AUTOINCREMENT,
		facility_id TEXT NOT NULL,
		seq         INTEGER NOT NULL,
		kind        TEXT NOT NULL,
		occurred_at TEXT NOT NULL,
		payload_json TEXT NOT NULL,
		recorded_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ','now'))
	);

	CREATE INDEX IF NOT EXISTS idx_events_facility_seq ON events(facility_id, seq);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close releases the underlying database handle.
func (s *Store) Close() error { return s.db.Close() }

// UpsertFacility records (or refreshes) the config and latest snapshot
// for a facility. This is a cache, not a ledger entry, so UPSERT is
// appropriate here even though events never are.
func (s *Store) UpsertFacility(ctx context.Context, id, accountID, customerID, kind, configJSON, snapshotJSON, now string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO facilities (id, account_id, customer_id, kind, config_json, snapshot_json, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			snapshot_json = excluded.snapshot_json,
			updated_at = excluded.updated_at
	`, id, accountID, customerID, kind, configJSON, snapshotJSON, now, now)
	return err
}

// ListFacilityIDs returns every facility id the store has seen, ordered
// by the created_at value passed to the first UpsertFacility; ids with
// equal created_at come back in no defined order.
func (s *Store) ListFacilityIDs(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `SELECT id FROM facilities ORDER BY created_at ASC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// AppendEvents archives a batch of already-drained facility events.
// Each call assigns sequence numbers continuing from the highest seq
// already recorded for facilityID, so replaying the events table
// reconstructs TakeEvents() call order (see events.go's ORDERING
// guarantee).
func (s *Store) AppendEvents(ctx context.Context, facilityID string, events []facility.Event) error {
	if len(events) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var nextSeq int64
	row := tx.QueryRowContext(ctx, `SELECT COALESCE(MAX(seq), -1) + 1 FROM events WHERE facility_id = ?`, facilityID)
	if err := row.Scan(&nextSeq); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO events (facility_id, seq, kind, occurred_at, payload_json)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, e := range events {
		payload, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("store: marshal event: %w", err)
		}
		if _, err := stmt.ExecContext(ctx, facilityID, nextSeq+int64(i), string(e.Kind), e.At.String(), string(payload)); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// EventRecord is one archived event row, reconstituted for read access.
type EventRecord struct {
	Seq        int64
	Kind       string
	OccurredAt string
	PayloadJSON string
}

// Events returns every archived event for facilityID in recorded order.
func (s *Store) Events(ctx context.Context, facilityID string) ([]EventRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, kind, occurred_at, payload_json
		FROM events WHERE facility_id = ? ORDER BY seq ASC
	`, facilityID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventRecord
	for rows.Next() {
		var rec EventRecord
		if err := rows.Scan(&rec.Seq, &rec.Kind, &rec.OccurredAt, &rec.PayloadJSON); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
