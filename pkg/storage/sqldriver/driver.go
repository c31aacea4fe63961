// Package sqldriver implements storage.Driver on top of database/sql. It is
// dialect-agnostic and is embedded by the sqlite and postgres drivers.
package sqldriver

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/papercomputeco/flagsnap/pkg/storage"
)

const schema = `CREATE TABLE IF NOT EXISTS snapshots (
	id            TEXT PRIMARY KEY,
	run_id        TEXT NOT NULL,
	captured_at   BIGINT NOT NULL,
	endpoint_host TEXT NOT NULL,
	digest        TEXT NOT NULL,
	flag_count    INTEGER NOT NULL,
	snapshot      TEXT NOT NULL
)`

const indexSchema = `CREATE INDEX IF NOT EXISTS snapshots_captured_at ON snapshots (captured_at)`

const selectColumns = `SELECT id, run_id, captured_at, endpoint_host, digest, flag_count, snapshot FROM snapshots`

// Placeholder rewrites "?" placeholders for a dialect.
type Placeholder func(query string) string

// Question leaves "?" placeholders untouched (sqlite, mysql).
func Question(query string) string {
	return query
}

// Dollar rewrites "?" placeholders to "$1", "$2", ... (postgres).
func Dollar(query string) string {
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Driver provides storage operations using a *sql.DB.
type Driver struct {
	DB          *sql.DB
	Placeholder Placeholder
}

// Migrate creates the snapshots table if it does not exist.
func (d *Driver) Migrate(ctx context.Context) error {
	if _, err := d.DB.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	if _, err := d.DB.ExecContext(ctx, indexSchema); err != nil {
		return fmt.Errorf("failed to create index: %w", err)
	}
	return nil
}

func (d *Driver) q(query string) string {
	if d.Placeholder == nil {
		return query
	}
	return d.Placeholder(query)
}

// Put stores a record. Returns false if the ID already exists.
func (d *Driver) Put(ctx context.Context, rec *storage.Record) (bool, error) {
	if rec == nil {
		return false, errors.New("cannot store nil record")
	}
	if rec.ID == "" {
		return false, errors.New("cannot store record without id")
	}

	var exists int
	err := d.DB.QueryRowContext(ctx, d.q(`SELECT COUNT(1) FROM snapshots WHERE id = ?`), rec.ID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check existence: %w", err)
	}
	if exists > 0 {
		return false, nil
	}

	_, err = d.DB.ExecContext(ctx,
		d.q(`INSERT INTO snapshots (id, run_id, captured_at, endpoint_host, digest, flag_count, snapshot) VALUES (?, ?, ?, ?, ?, ?, ?)`),
		rec.ID,
		rec.RunID,
		rec.CapturedAt.UnixNano(),
		rec.EndpointHost,
		rec.Digest,
		rec.FlagCount,
		string(rec.Snapshot),
	)
	if err != nil {
		return false, fmt.Errorf("failed to insert record: %w", err)
	}
	return true, nil
}

// Get retrieves a record by its ID.
func (d *Driver) Get(ctx context.Context, id string) (*storage.Record, error) {
	row := d.DB.QueryRowContext(ctx, d.q(selectColumns+` WHERE id = ?`), id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, storage.NotFoundError{ID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get record: %w", err)
	}
	return rec, nil
}

// List returns records newest first.
func (d *Driver) List(ctx context.Context, limit int) ([]*storage.Record, error) {
	query := selectColumns + ` ORDER BY captured_at DESC, id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := d.DB.QueryContext(ctx, d.q(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list records: %w", err)
	}
	defer rows.Close()

	var recs []*storage.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan record: %w", err)
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

// Latest returns the newest record.
func (d *Driver) Latest(ctx context.Context) (*storage.Record, error) {
	recs, err := d.List(ctx, 1)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, storage.NotFoundError{}
	}
	return recs[0], nil
}

// Close closes the underlying database.
func (d *Driver) Close() error {
	return d.DB.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(s scanner) (*storage.Record, error) {
	var (
		rec        storage.Record
		capturedAt int64
		snapshot   string
	)
	if err := s.Scan(
		&rec.ID,
		&rec.RunID,
		&capturedAt,
		&rec.EndpointHost,
		&rec.Digest,
		&rec.FlagCount,
		&snapshot,
	); err != nil {
		return nil, err
	}

	rec.CapturedAt = time.Unix(0, capturedAt).UTC()
	rec.Snapshot = []byte(snapshot)
	return &rec, nil
}
