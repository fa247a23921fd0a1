package batch

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// Ledger is the conversion history, kept in SQLite. It powers the
// hash-based freshness check (more robust than mtimes when result trees
// get copied around) and the stats command.
type Ledger struct {
	mu sync.Mutex
	db *sql.DB
}

const ledgerSchema = `
CREATE TABLE IF NOT EXISTS conversions (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id       TEXT NOT NULL,
	input        TEXT NOT NULL,
	input_hash   TEXT NOT NULL,
	output       TEXT NOT NULL,
	regions      INTEGER NOT NULL DEFAULT 0,
	duration_ms  INTEGER NOT NULL DEFAULT 0,
	status       TEXT NOT NULL,
	error        TEXT NOT NULL DEFAULT '',
	converted_at INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_conversions_input ON conversions(input, id);
CREATE INDEX IF NOT EXISTS idx_conversions_run ON conversions(run_id);
`

// OpenLedger opens (creating if needed) the ledger database at path.
func OpenLedger(path string) (*Ledger, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open ledger: %w", err)
	}

	// Single writer; the runner serializes writes through the mutex.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA busy_timeout=5000;",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to configure ledger: %w", err)
		}
	}

	if _, err := db.Exec(ledgerSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize ledger schema: %w", err)
	}

	return &Ledger{db: db}, nil
}

// Close closes the underlying database.
func (l *Ledger) Close() error {
	return l.db.Close()
}

// ConversionRecord is one ledger row.
type ConversionRecord struct {
	RunID     string
	Input     string
	InputHash string
	Output    string
	Regions   int
	Duration  time.Duration
	Status    Status
	Error     string
}

// Record appends one conversion outcome.
func (l *Ledger) Record(rec ConversionRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	_, err := l.db.Exec(`
		INSERT INTO conversions (run_id, input, input_hash, output, regions, duration_ms, status, error, converted_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.RunID, rec.Input, rec.InputHash, rec.Output, rec.Regions,
		rec.Duration.Milliseconds(), string(rec.Status), rec.Error, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record conversion: %w", err)
	}
	return nil
}

// LastGoodHash returns the input hash of the most recent successful
// conversion of input, if any.
func (l *Ledger) LastGoodHash(input string) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var hash string
	err := l.db.QueryRow(`
		SELECT input_hash FROM conversions
		WHERE input = ? AND status = ?
		ORDER BY id DESC LIMIT 1`,
		input, string(StatusConverted)).Scan(&hash)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to query ledger: %w", err)
	}
	return hash, true, nil
}

// Summary aggregates the whole ledger.
type Summary struct {
	Conversions int64
	Failures    int64
	Regions     int64
	AvgDuration time.Duration
	LastRun     time.Time
}

// Summarize computes totals over all recorded conversions.
func (l *Ledger) Summarize() (Summary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	var s Summary
	var avgMs sql.NullFloat64
	var lastUnix sql.NullInt64
	err := l.db.QueryRow(`
		SELECT
			COUNT(CASE WHEN status = ? THEN 1 END),
			COUNT(CASE WHEN status = ? THEN 1 END),
			COALESCE(SUM(CASE WHEN status = ? THEN regions ELSE 0 END), 0),
			AVG(CASE WHEN status = ? THEN duration_ms END),
			MAX(converted_at)
		FROM conversions`,
		string(StatusConverted), string(StatusFailed),
		string(StatusConverted), string(StatusConverted)).
		Scan(&s.Conversions, &s.Failures, &s.Regions, &avgMs, &lastUnix)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to summarize ledger: %w", err)
	}
	if avgMs.Valid {
		s.AvgDuration = time.Duration(avgMs.Float64 * float64(time.Millisecond))
	}
	if lastUnix.Valid {
		s.LastRun = time.Unix(lastUnix.Int64, 0)
	}
	return s, nil
}

// RunSummary aggregates one batch run.
type RunSummary struct {
	RunID     string
	Converted int64
	Failed    int64
	Regions   int64
	StartedAt time.Time
}

// RecentRuns lists the most recent runs, newest first.
func (l *Ledger) RecentRuns(limit int) ([]RunSummary, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	rows, err := l.db.Query(`
		SELECT run_id,
			COUNT(CASE WHEN status = ? THEN 1 END),
			COUNT(CASE WHEN status = ? THEN 1 END),
			COALESCE(SUM(CASE WHEN status = ? THEN regions ELSE 0 END), 0),
			MIN(converted_at)
		FROM conversions
		GROUP BY run_id
		ORDER BY MAX(id) DESC
		LIMIT ?`,
		string(StatusConverted), string(StatusFailed), string(StatusConverted), limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunSummary
	for rows.Next() {
		var r RunSummary
		var startedUnix int64
		if err := rows.Scan(&r.RunID, &r.Converted, &r.Failed, &r.Regions, &startedUnix); err != nil {
			return nil, fmt.Errorf("failed to scan run row: %w", err)
		}
		r.StartedAt = time.Unix(startedUnix, 0)
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
