// Package store persists records and dashboard declaration sets in sqlite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	engerrors "go-metric-engine/internal/errors"
	"go-metric-engine/internal/model"
	"go-metric-engine/pkg/utils"
)

// ErrNotFound is returned when a record or dashboard does not exist.
var ErrNotFound = errors.New("not found")

// Store is a sqlite-backed record and dashboard store. It is safe for concurrent use.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

const schema = `
CREATE TABLE IF NOT EXISTS records (
	id TEXT PRIMARY KEY,
	data TEXT NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS dashboards (
	name TEXT PRIMARY KEY,
	version TEXT,
	description TEXT,
	metrics INTEGER NOT NULL,
	spec BLOB NOT NULL,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);
`

// Open opens (creating if needed) the database at path and applies the schema.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, engerrors.StorageFailed("open", err)
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, engerrors.StorageFailed("migrate", err)
	}
	return &Store{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// SaveRecords upserts records keyed by their "id" field in one transaction.
func (s *Store) SaveRecords(ctx context.Context, records []model.Record) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, engerrors.StorageFailed("save_records", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO records (id, data, created_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET data = excluded.data`)
	if err != nil {
		return 0, engerrors.StorageFailed("save_records", err)
	}
	defer stmt.Close()

	now := s.now()
	for i, rec := range records {
		id := utils.Stringify(rec["id"])
		if id == "" {
			return 0, engerrors.StorageFailed("save_records", fmt.Errorf("record %d has no id", i))
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return 0, engerrors.StorageFailed("save_records", fmt.Errorf("record %s: %w", id, err))
		}
		if _, err := stmt.ExecContext(ctx, id, string(data), now); err != nil {
			return 0, engerrors.StorageFailed("save_records", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, engerrors.StorageFailed("save_records", err)
	}
	return len(records), nil
}

// ListRecords returns stored records oldest first. limit <= 0 returns all of them.
func (s *Store) ListRecords(ctx context.Context, limit int) ([]model.Record, error) {
	query := `SELECT data FROM records ORDER BY created_at, rowid`
	args := []interface{}{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, engerrors.StorageFailed("list_records", err)
	}
	defer rows.Close()

	var records []model.Record
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, engerrors.StorageFailed("list_records", err)
		}
		var rec model.Record
		if err := json.Unmarshal([]byte(data), &rec); err != nil {
			return nil, engerrors.StorageFailed("list_records", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, engerrors.StorageFailed("list_records", err)
	}
	return records, nil
}

func (s *Store) CountRecords(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM records`).Scan(&n); err != nil {
		return 0, engerrors.StorageFailed("count_records", err)
	}
	return n, nil
}

// DeleteRecord removes one record. Deleting an unknown id returns ErrNotFound.
func (s *Store) DeleteRecord(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM records WHERE id = ?`, id)
	if err != nil {
		return engerrors.StorageFailed("delete_record", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
