// v0
// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"github.com/abhinavppwork/Intelligent-Waste-Monitoring-and-Analysis-System/internal/scan"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS scan_events (
	id            TEXT PRIMARY KEY,
	user_id       TEXT NOT NULL DEFAULT '',
	qr_code       TEXT NOT NULL,
	item_name     TEXT NOT NULL,
	category      TEXT NOT NULL,
	weight        REAL NOT NULL,
	unit          TEXT NOT NULL,
	ts_ms         INTEGER NOT NULL,
	impact_co2    REAL,
	impact_energy REAL
);
CREATE INDEX IF NOT EXISTS idx_scan_events_user_ts ON scan_events(user_id, ts_ms);
CREATE INDEX IF NOT EXISTS idx_scan_events_ts ON scan_events(ts_ms);
`

// SQLiteStore persists events in a single SQLite file.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// NewSQLiteStore opens path and creates the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir data dir: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	st := &SQLiteStore{db: db, now: time.Now}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return st, nil
}

// Append inserts e as one row.
func (s *SQLiteStore) Append(ctx context.Context, e scan.Event) (scan.Event, error) {
	e, err := prepare(e, s.now)
	if err != nil {
		return scan.Event{}, err
	}
	var co2, energy sql.NullFloat64
	if e.Impact != nil {
		co2 = sql.NullFloat64{Float64: e.Impact.CO2Saved, Valid: true}
		energy = sql.NullFloat64{Float64: e.Impact.EnergySaved, Valid: true}
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO scan_events
		(id, user_id, qr_code, item_name, category, weight, unit, ts_ms, impact_co2, impact_energy)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID,
		e.UserID,
		e.QRCode,
		e.ItemName,
		string(e.Category),
		e.Weight,
		string(e.Unit),
		e.Timestamp.UnixMilli(),
		co2,
		energy,
	)
	if err != nil {
		return scan.Event{}, Transient("append", err)
	}
	return e, nil
}

// Query selects the matching rows.
func (s *SQLiteStore) Query(ctx context.Context, f Filter) ([]scan.Event, error) {
	query := `SELECT id, user_id, qr_code, item_name, category, weight, unit, ts_ms, impact_co2, impact_energy
		FROM scan_events WHERE 1=1`
	var args []any
	if f.UserID != "" {
		query += ` AND user_id = ?`
		args = append(args, f.UserID)
	}
	if !f.Since.IsZero() {
		query += ` AND ts_ms >= ?`
		args = append(args, f.Since.UnixMilli())
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, Transient("query", err)
	}
	defer rows.Close()

	var out []scan.Event
	for rows.Next() {
		var (
			e        scan.Event
			category string
			unit     string
			tsMillis int64
			co2, kwh sql.NullFloat64
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.QRCode, &e.ItemName, &category, &e.Weight, &unit, &tsMillis, &co2, &kwh); err != nil {
			return nil, Transient("query", err)
		}
		e.Category = scan.Category(category)
		e.Unit = scan.Unit(unit)
		e.Timestamp = time.UnixMilli(tsMillis).UTC()
		if co2.Valid || kwh.Valid {
			e.Impact = &scan.Impact{CO2Saved: co2.Float64, EnergySaved: kwh.Float64}
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, Transient("query", err)
	}
	return out, nil
}

// Clear deletes every row.
func (s *SQLiteStore) Clear(ctx context.Context) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM scan_events`)
	if err != nil {
		return 0, Transient("clear", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, Transient("clear", err)
	}
	return n, nil
}

// Ping checks the database handle.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
