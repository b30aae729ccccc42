// Package store implements the audit log backing the debug API's
// /api/history endpoint: a thin SQLite wrapper plus the frames table
// that records every encode/decode performed through the debug API. The
// CLI's encode/decode commands are not recorded.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	_ "modernc.org/sqlite"

	"github.com/teracodec-project/teracodec/internal/util"
)

var log = util.ComponentLogger("store")

// Store wraps a SQLite database connection with thread-safe write access.
type Store struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// Open creates or opens a SQLite database at dbPath and ensures the
// frames table exists.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store %s: %w", dbPath, err)
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writers
	db.SetMaxIdleConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		log.Warn().Err(err).Msg("failed to enable WAL mode")
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("store ping failed: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}

	log.Info().Str("path", dbPath).Msg("audit store opened")
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS frames (
			id           INTEGER PRIMARY KEY AUTOINCREMENT,
			direction    TEXT NOT NULL, -- "encode" or "decode"
			schema_name  TEXT NOT NULL,
			schema_version INTEGER NOT NULL,
			opcode       INTEGER,
			byte_length  INTEGER NOT NULL,
			warning_count INTEGER NOT NULL,
			error_message TEXT,
			occurred_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		)
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Frame is one row of the audit log.
type Frame struct {
	ID            int64
	Direction     string
	SchemaName    string
	SchemaVersion int
	Opcode        *int32
	ByteLength    int
	WarningCount  int
	ErrorMessage  string
	OccurredAt    string
}

// RecordFrame inserts one audit log row describing an encode or decode.
func (s *Store) RecordFrame(f Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errMsg any
	if f.ErrorMessage != "" {
		errMsg = f.ErrorMessage
	}
	var opcode any
	if f.Opcode != nil {
		opcode = *f.Opcode
	}

	_, err := s.db.Exec(
		`INSERT INTO frames (direction, schema_name, schema_version, opcode, byte_length, warning_count, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		f.Direction, f.SchemaName, f.SchemaVersion, opcode, f.ByteLength, f.WarningCount, errMsg,
	)
	return err
}

// RecentFrames returns up to limit most recent frames, newest first.
func (s *Store) RecentFrames(limit int) ([]Frame, error) {
	rows, err := s.db.Query(
		`SELECT id, direction, schema_name, schema_version, opcode, byte_length, warning_count, error_message, occurred_at
		 FROM frames ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Frame
	for rows.Next() {
		var f Frame
		var opcode sql.NullInt64
		var errMsg sql.NullString
		if err := rows.Scan(&f.ID, &f.Direction, &f.SchemaName, &f.SchemaVersion, &opcode, &f.ByteLength, &f.WarningCount, &errMsg, &f.OccurredAt); err != nil {
			return nil, err
		}
		if opcode.Valid {
			v := int32(opcode.Int64)
			f.Opcode = &v
		}
		f.ErrorMessage = errMsg.String
		out = append(out, f)
	}
	return out, rows.Err()
}
