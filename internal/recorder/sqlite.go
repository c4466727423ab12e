package recorder

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// SQLiteRecorder persists run history to a SQLite database.
type SQLiteRecorder struct {
	db *sql.DB
	mu sync.Mutex
}

// NewSQLiteRecorder opens (or creates) the SQLite database and runs migrations.
func NewSQLiteRecorder(dbPath string) (*SQLiteRecorder, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	r := &SQLiteRecorder{db: db}
	if err := r.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	log.Infof("sqlite recorder opened: %s", dbPath)
	return r, nil
}

func (r *SQLiteRecorder) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS run_log (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			strategy    TEXT,
			legs        TEXT,
			granularity TEXT,
			outcome     TEXT,
			stage       TEXT,
			leg         TEXT,
			row_count   INTEGER,
			cache_hit   INTEGER,
			duration_ms REAL,
			error       TEXT
		)`,
		`CREATE INDEX IF NOT EXISTS idx_run_ts ON run_log(timestamp)`,

		`CREATE TABLE IF NOT EXISTS snapshots (
			id          INTEGER PRIMARY KEY AUTOINCREMENT,
			run_id      TEXT NOT NULL,
			timestamp   INTEGER NOT NULL,
			preset      TEXT,
			granularity TEXT,
			bar_time    INTEGER,
			close       REAL,
			avg_price   REAL,
			sma_20      REAL,
			upper_band  REAL,
			lower_band  REAL,
			day_high    REAL,
			day_low     REAL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshot_preset ON snapshots(preset, bar_time)`,
	}

	for _, s := range stmts {
		if _, err := r.db.Exec(s); err != nil {
			return fmt.Errorf("exec %q: %w", s[:40], err)
		}
	}
	return nil
}

func (r *SQLiteRecorder) RecordRun(evt *RunEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	at := evt.At
	if at.IsZero() {
		at = time.Now()
	}
	_, err := r.db.Exec(`INSERT INTO run_log
		(run_id, timestamp, strategy, legs, granularity, outcome, stage, leg, row_count, cache_hit, duration_ms, error)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.RunID, at.UnixMilli(), evt.Strategy, evt.Legs, evt.Granularity,
		evt.Outcome, evt.Stage, evt.Leg, evt.Rows, evt.CacheHit,
		float64(evt.Duration)/float64(time.Millisecond), evt.Error,
	)
	return err
}

func (r *SQLiteRecorder) RecordSnapshot(evt *SnapshotEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, err := r.db.Exec(`INSERT INTO snapshots
		(run_id, timestamp, preset, granularity, bar_time, close, avg_price, sma_20, upper_band, lower_band, day_high, day_low)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)`,
		evt.RunID, time.Now().Unix(), evt.Preset, evt.Granularity, evt.BarTime.Unix(),
		evt.Close, evt.AvgPrice, evt.SMA, evt.UpperBand, evt.LowerBand,
		evt.DayHigh, evt.DayLow,
	)
	return err
}

// RecentRuns returns up to limit runs, newest first.
func (r *SQLiteRecorder) RecentRuns(limit int) ([]RunEvent, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	rows, err := r.db.Query(`SELECT run_id, timestamp, strategy, legs, granularity, outcome,
		stage, leg, row_count, cache_hit, duration_ms, error
		FROM run_log ORDER BY timestamp DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunEvent
	for rows.Next() {
		var (
			e     RunEvent
			ms    int64
			durMS float64
		)
		if err := rows.Scan(&e.RunID, &ms, &e.Strategy, &e.Legs, &e.Granularity, &e.Outcome,
			&e.Stage, &e.Leg, &e.Rows, &e.CacheHit, &durMS, &e.Error); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		e.At = time.UnixMilli(ms)
		e.Duration = time.Duration(durMS * float64(time.Millisecond))
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *SQLiteRecorder) Close() error {
	log.Info("closing sqlite recorder")
	return r.db.Close()
}
