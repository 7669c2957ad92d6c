package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite data access layer for canon's five tables.
type Store struct {
	db *sql.DB
}

// NewStore opens a SQLite database at dbPath with WAL mode enabled.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=30000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use in transactions.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Migrate creates all tables and indexes. Idempotent.
func (s *Store) Migrate() error {
	_, err := s.db.Exec(schemaDDL)
	if err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

const schemaDDL = `
-- Extraction tables

CREATE TABLE IF NOT EXISTS files (
  id              INTEGER PRIMARY KEY,
  path            TEXT NOT NULL UNIQUE,
  language        TEXT NOT NULL,
  package         TEXT,
  hash            TEXT,
  line_count      INTEGER,
  last_indexed    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS declarations (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  qualified_name  TEXT NOT NULL,
  name            TEXT NOT NULL,
  kind            TEXT NOT NULL,
  visibility      TEXT,
  modifiers       TEXT,
  type_expr       TEXT,
  params          TEXT,
  hidden          BOOLEAN DEFAULT FALSE,
  removed         BOOLEAN DEFAULT FALSE,
  line            INTEGER,
  parent_id       INTEGER REFERENCES declarations(id),
  signature_hash  TEXT
);

-- Canonicalization tables

CREATE TABLE IF NOT EXISTS runs (
  id              TEXT PRIMARY KEY,
  started_at      TIMESTAMP NOT NULL,
  finished_at     TIMESTAMP,
  files           INTEGER DEFAULT 0,
  annotations     INTEGER DEFAULT 0,
  changed         INTEGER DEFAULT 0,
  suppressed      INTEGER DEFAULT 0,
  errors          INTEGER DEFAULT 0
);

CREATE TABLE IF NOT EXISTS annotations (
  id              INTEGER PRIMARY KEY,
  file_id         INTEGER NOT NULL REFERENCES files(id),
  declaration_id  INTEGER NOT NULL REFERENCES declarations(id),
  owner           TEXT NOT NULL,
  site            TEXT NOT NULL,
  ordinal         INTEGER NOT NULL,
  name            TEXT NOT NULL,
  qualified_name  TEXT,
  source          TEXT NOT NULL,
  canonical       TEXT,
  run_id          TEXT REFERENCES runs(id),
  line            INTEGER,
  col             INTEGER
);

CREATE TABLE IF NOT EXISTS metadata (
  key             TEXT PRIMARY KEY,
  value           TEXT
);

-- Indexes

CREATE INDEX IF NOT EXISTS idx_files_language ON files(language);
CREATE INDEX IF NOT EXISTS idx_declarations_file ON declarations(file_id);
CREATE INDEX IF NOT EXISTS idx_declarations_name ON declarations(qualified_name);
CREATE INDEX IF NOT EXISTS idx_declarations_parent ON declarations(parent_id);
CREATE INDEX IF NOT EXISTS idx_annotations_file ON annotations(file_id);
CREATE INDEX IF NOT EXISTS idx_annotations_declaration ON annotations(declaration_id);
CREATE INDEX IF NOT EXISTS idx_annotations_name ON annotations(qualified_name);
CREATE INDEX IF NOT EXISTS idx_annotations_position ON annotations(file_id, line, col);
`

// DeleteFileData transactionally removes the declarations and annotations
// of a file. Deletes in reverse-dependency order to respect FK constraints.
func (s *Store) DeleteFileData(fileID int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.Query("SELECT id FROM declarations WHERE file_id = ?", fileID)
	if err != nil {
		return fmt.Errorf("query declarations: %w", err)
	}
	var declIDs []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("scan declaration id: %w", err)
		}
		declIDs = append(declIDs, id)
	}
	rows.Close()

	if len(declIDs) > 0 {
		placeholders := placeholderList(len(declIDs))
		if _, err := tx.Exec("DELETE FROM annotations WHERE declaration_id IN ("+placeholders+")", int64sToArgs(declIDs)...); err != nil {
			return fmt.Errorf("delete annotations for declarations: %w", err)
		}
	}

	for _, q := range []string{
		"DELETE FROM annotations WHERE file_id = ?",
		// Children first so parent_id references stay valid.
		"DELETE FROM declarations WHERE file_id = ? AND parent_id IS NOT NULL",
		"DELETE FROM declarations WHERE file_id = ?",
	} {
		if _, err := tx.Exec(q, fileID); err != nil {
			return fmt.Errorf("delete extraction data: %w", err)
		}
	}

	return tx.Commit()
}

// DeleteFile removes a file record together with its data.
func (s *Store) DeleteFile(fileID int64) error {
	if err := s.DeleteFileData(fileID); err != nil {
		return err
	}
	if _, err := s.db.Exec("DELETE FROM files WHERE id = ?", fileID); err != nil {
		return fmt.Errorf("delete file record: %w", err)
	}
	return nil
}
