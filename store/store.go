// Package store persists accepted records in SQLite and exports them as CSV.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/use-agent/jobsift/models"
)

// Arrival order is the seq column; the UNIQUE constraint mirrors the
// record's identity key, so a re-merged listing is ignored and the earliest
// arrival wins.
const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	seq     INTEGER PRIMARY KEY AUTOINCREMENT,
	title   TEXT NOT NULL,
	company TEXT NOT NULL,
	url     TEXT NOT NULL,
	payload TEXT NOT NULL,
	UNIQUE(title, company, url)
);`

// Store is the SQLite-backed record set. It is safe for concurrent use.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and ensures the schema.
func Open(path string) (*Store, error) {
	// modernc sqlite uses DSN like: file:foo.db?_pragma=busy_timeout(5000)
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)", path)

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to open database", err)
	}

	db.SetMaxOpenConns(1) // sqlite wants a single writer
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to reach database", err)
	}

	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to ensure schema", err)
	}

	return &Store{db: db}, nil
}

// Merge folds a batch into the persisted set by identity key, preserving
// arrival order, and returns the new total. Re-merging a batch is a no-op,
// which is what makes per-page persistence safe to repeat.
func (s *Store) Merge(ctx context.Context, jobs []models.JobRecord) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to begin merge", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx,
		`INSERT OR IGNORE INTO jobs(title, company, url, payload) VALUES (?, ?, ?, ?);`)
	if err != nil {
		return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to prepare merge", err)
	}
	defer func() { _ = stmt.Close() }()

	for i := range jobs {
		payload, marshalErr := json.Marshal(&jobs[i])
		if marshalErr != nil {
			return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to encode record", marshalErr)
		}
		key := jobs[i].Key()
		if _, execErr := stmt.ExecContext(ctx, key.Title, key.Company, key.URL, string(payload)); execErr != nil {
			return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to merge record", execErr)
		}
	}

	var total int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&total); err != nil {
		return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to count records", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to commit merge", err)
	}
	return total, nil
}

// All returns every persisted record in arrival order.
func (s *Store) All(ctx context.Context) ([]models.JobRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT payload FROM jobs ORDER BY seq;`)
	if err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to read records", err)
	}
	defer func() { _ = rows.Close() }()

	var jobs []models.JobRecord
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to scan record", err)
		}
		var j models.JobRecord
		if err := json.Unmarshal([]byte(payload), &j); err != nil {
			return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to decode record", err)
		}
		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, models.NewScrapeError(models.ErrCodeStorage, "failed to read records", err)
	}
	return jobs, nil
}

// Count returns the number of persisted records.
func (s *Store) Count(ctx context.Context) (int, error) {
	var total int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM jobs;`).Scan(&total); err != nil {
		return 0, models.NewScrapeError(models.ErrCodeStorage, "failed to count records", err)
	}
	return total, nil
}

// Clear removes every persisted record.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM jobs;`); err != nil {
		return models.NewScrapeError(models.ErrCodeStorage, "failed to clear records", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
