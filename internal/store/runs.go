package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// StartRun records a new canonicalization run and returns it.
func (s *Store) StartRun(startedAt time.Time) (*Run, error) {
	r := &Run{ID: uuid.NewString(), StartedAt: startedAt}
	if _, err := s.db.Exec("INSERT INTO runs (id, started_at) VALUES (?, ?)", r.ID, r.StartedAt); err != nil {
		return nil, fmt.Errorf("start run: %w", err)
	}
	return r, nil
}

// FinishRun stores the counters of r and marks it finished.
func (s *Store) FinishRun(r *Run, finishedAt time.Time) error {
	r.FinishedAt = &finishedAt
	res, err := s.db.Exec(
		`UPDATE runs SET finished_at = ?, files = ?, annotations = ?, changed = ?, suppressed = ?, errors = ?
		 WHERE id = ?`,
		finishedAt, r.Files, r.Annotations, r.Changed, r.Suppressed, r.Errors, r.ID,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("finish run: unknown run %s", r.ID)
	}
	return nil
}

const runCols = "id, started_at, finished_at, files, annotations, changed, suppressed, errors"

func scanRun(scanner interface{ Scan(...any) error }) (*Run, error) {
	r := &Run{}
	var finished sql.NullTime
	if err := scanner.Scan(&r.ID, &r.StartedAt, &finished, &r.Files, &r.Annotations, &r.Changed, &r.Suppressed, &r.Errors); err != nil {
		return nil, err
	}
	if finished.Valid {
		t := finished.Time
		r.FinishedAt = &t
	}
	return r, nil
}

// RunByID returns the run with the given id, or nil.
func (s *Store) RunByID(id string) (*Run, error) {
	r, err := scanRun(s.db.QueryRow("SELECT "+runCols+" FROM runs WHERE id = ?", id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("run by id: %w", err)
	}
	return r, nil
}

// LatestRun returns the most recently finished run, or nil.
func (s *Store) LatestRun() (*Run, error) {
	r, err := scanRun(s.db.QueryRow(
		"SELECT " + runCols + " FROM runs WHERE finished_at IS NOT NULL ORDER BY finished_at DESC, rowid DESC LIMIT 1",
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("latest run: %w", err)
	}
	return r, nil
}

// Runs returns every run, oldest first.
func (s *Store) Runs() ([]*Run, error) {
	rows, err := s.db.Query("SELECT " + runCols + " FROM runs ORDER BY started_at, rowid")
	if err != nil {
		return nil, fmt.Errorf("runs: %w", err)
	}
	defer rows.Close()
	var runs []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// --- Metadata ---

// GetMetadata returns the value stored under key, or "" when unset.
func (s *Store) GetMetadata(key string) (string, error) {
	var v sql.NullString
	err := s.db.QueryRow("SELECT value FROM metadata WHERE key = ?", key).Scan(&v)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get metadata %q: %w", key, err)
	}
	return v.String, nil
}

// SetMetadata stores value under key, replacing any previous value.
func (s *Store) SetMetadata(key, value string) error {
	_, err := s.db.Exec(
		"INSERT INTO metadata (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set metadata %q: %w", key, err)
	}
	return nil
}
