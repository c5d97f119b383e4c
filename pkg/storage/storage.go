package storage

import (
	"context"
	"database/sql"
	"time"

	_ "modernc.org/sqlite"
)

type DB struct {
	sql *sql.DB
}

func Open(path string) (*DB, error) {
	dsn := "file:" + path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, err
	}
	// Ensure schema exists for convenience.
	if _, err := db.Exec(`
CREATE TABLE IF NOT EXISTS scan_history (
  id                 INTEGER PRIMARY KEY,
  url                TEXT NOT NULL,
  classification     TEXT NOT NULL,
  confidence_percent INTEGER NOT NULL,
  risk_level         TEXT NOT NULL,
  source             TEXT NOT NULL DEFAULT 'manual',
  scanned_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
CREATE INDEX IF NOT EXISTS idx_history_time ON scan_history(scanned_at);
CREATE INDEX IF NOT EXISTS idx_history_class ON scan_history(classification);
CREATE TABLE IF NOT EXISTS block_records (
  tab_id             INTEGER PRIMARY KEY,
  original_url       TEXT NOT NULL,
  classification     TEXT NOT NULL,
  confidence_percent INTEGER NOT NULL,
  risk_level         TEXT NOT NULL,
  blocked_at         DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
    `); err != nil {
		return nil, err
	}
	return &DB{sql: db}, nil
}

func (d *DB) Close() error {
	if d == nil || d.sql == nil {
		return nil
	}
	return d.sql.Close()
}

// AddScan appends one row to the scan history.
func (d *DB) AddScan(ctx context.Context, rec ScanRecord) error {
	_, err := d.sql.ExecContext(ctx,
		`INSERT INTO scan_history(url, classification, confidence_percent, risk_level, source) VALUES(?,?,?,?,?)`,
		rec.URL, rec.Classification, rec.ConfidencePercent, rec.RiskLevel, rec.Source)
	return err
}

// ListHistory returns the most recent scans, newest first.
func (d *DB) ListHistory(ctx context.Context, limit int) ([]ScanRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.QueryContext(ctx,
		`SELECT url, classification, confidence_percent, risk_level, source, scanned_at FROM scan_history ORDER BY scanned_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []ScanRecord{}
	for rows.Next() {
		var r ScanRecord
		var scannedAtStr string
		if err := rows.Scan(&r.URL, &r.Classification, &r.ConfidencePercent, &r.RiskLevel, &r.Source, &scannedAtStr); err != nil {
			return nil, err
		}
		r.ScannedAt = parseSQLiteTime(scannedAtStr)
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return records, nil
}

// GetStats aggregates scan history counts per classification.
func (d *DB) GetStats(ctx context.Context) ([]ClassificationStats, error) {
	rows, err := d.sql.QueryContext(ctx,
		`SELECT classification, COUNT(*) FROM scan_history GROUP BY classification ORDER BY classification`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ClassificationStats
	for rows.Next() {
		var s ClassificationStats
		if err := rows.Scan(&s.Classification, &s.Count); err != nil {
			return nil, err
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}

// PutBlockRecord stores the block for a tab, replacing any previous record so
// the one-live-record-per-tab invariant holds.
func (d *DB) PutBlockRecord(ctx context.Context, rec BlockRecord) error {
	_, err := d.sql.ExecContext(ctx, `
INSERT INTO block_records(tab_id, original_url, classification, confidence_percent, risk_level, blocked_at)
VALUES(?,?,?,?,?,CURRENT_TIMESTAMP)
ON CONFLICT(tab_id) DO UPDATE SET
  original_url = excluded.original_url,
  classification = excluded.classification,
  confidence_percent = excluded.confidence_percent,
  risk_level = excluded.risk_level,
  blocked_at = CURRENT_TIMESTAMP`,
		rec.TabID, rec.OriginalURL, rec.Classification, rec.ConfidencePercent, rec.RiskLevel)
	return err
}

// GetBlockRecord returns the live block record for a tab, or nil.
func (d *DB) GetBlockRecord(ctx context.Context, tabID int64) (*BlockRecord, error) {
	row := d.sql.QueryRowContext(ctx,
		`SELECT tab_id, original_url, classification, confidence_percent, risk_level, blocked_at FROM block_records WHERE tab_id = ?`, tabID)

	var rec BlockRecord
	var blockedAtStr string
	if err := row.Scan(&rec.TabID, &rec.OriginalURL, &rec.Classification, &rec.ConfidencePercent, &rec.RiskLevel, &blockedAtStr); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	rec.BlockedAt = parseSQLiteTime(blockedAtStr)
	return &rec, nil
}

// DeleteBlockRecord removes the block record for a tab. Deleting a missing
// record is not an error.
func (d *DB) DeleteBlockRecord(ctx context.Context, tabID int64) error {
	_, err := d.sql.ExecContext(ctx, `DELETE FROM block_records WHERE tab_id = ?`, tabID)
	return err
}

// parseSQLiteTime handles both SQLite's CURRENT_TIMESTAMP format and RFC3339.
func parseSQLiteTime(s string) time.Time {
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t
	}
	return time.Time{}
}
