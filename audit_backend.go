// audit_backend.go: Pluggable audit persistence backends
//
// Two backends exist: a SQLite database (preferred, WAL mode, queryable)
// and a JSONL file (fallback, append-only). Selection is automatic from the
// configured output path, with graceful degradation to JSONL when the
// database cannot be opened.
//
// Copyright (c) 2025 AGILira
// Series: an AGILira fragment
// SPDX-License-Identifier: MPL-2.0

package hestia

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver for the audit database
)

// auditBackend abstracts audit event persistence.
type auditBackend interface {
	Write(events []AuditEvent) error
	Flush() error
	Close() error
}

// createAuditBackend selects the backend for the given configuration:
//   - a path ending in .jsonl selects the JSONL backend
//   - any other path, or an empty one, selects SQLite
//   - a SQLite open failure falls back to JSONL next to the database
func createAuditBackend(config AuditConfig) (auditBackend, error) {
	if strings.HasSuffix(config.OutputFile, ".jsonl") {
		return newJSONLBackend(config.OutputFile)
	}

	dbPath := config.OutputFile
	if dbPath == "" {
		dbPath = defaultAuditDBPath()
	}

	backend, err := newSQLiteBackend(dbPath)
	if err == nil {
		return backend, nil
	}

	fallback := strings.TrimSuffix(dbPath, filepath.Ext(dbPath)) + ".jsonl"
	return newJSONLBackend(fallback)
}

// defaultAuditDBPath returns the system audit database location, degrading
// to the temp directory for unprivileged processes.
func defaultAuditDBPath() string {
	system := "/var/lib/hestia/audit.db"
	if err := os.MkdirAll(filepath.Dir(system), 0750); err == nil {
		return system
	}
	return filepath.Join(os.TempDir(), "hestia-audit.db")
}

// sqliteBackend persists audit events in a single SQLite database.
type sqliteBackend struct {
	db   *sql.DB
	stmt *sql.Stmt
	mu   sync.Mutex
}

const auditSchema = `
CREATE TABLE IF NOT EXISTS audit_events (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	timestamp_ns  INTEGER NOT NULL,
	level         TEXT NOT NULL,
	event         TEXT NOT NULL,
	component     TEXT NOT NULL,
	key           TEXT,
	old_value     TEXT,
	new_value     TEXT,
	origin        TEXT,
	process_id    INTEGER,
	process_name  TEXT,
	context       TEXT,
	checksum      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp_ns);
CREATE INDEX IF NOT EXISTS idx_audit_events_key ON audit_events(key);
`

func newSQLiteBackend(path string) (*sqliteBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("cannot create audit directory: %w", err)
	}

	// WAL keeps writers from blocking concurrent readers of the trail.
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL&_cache_size=1000"
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("cannot open audit database: %w", err)
	}

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot reach audit database: %w", err)
	}

	if _, err := db.Exec(auditSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot migrate audit schema: %w", err)
	}

	stmt, err := db.Prepare(`INSERT INTO audit_events
		(timestamp_ns, level, event, component, key, old_value, new_value,
		 origin, process_id, process_name, context, checksum)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("cannot prepare audit insert: %w", err)
	}

	return &sqliteBackend{db: db, stmt: stmt}, nil
}

// Write persists a batch of events in one transaction.
func (b *sqliteBackend) Write(events []AuditEvent) error {
	if len(events) == 0 {
		return nil
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	tx, err := b.db.Begin()
	if err != nil {
		return fmt.Errorf("cannot begin audit transaction: %w", err)
	}

	stmt := tx.Stmt(b.stmt)
	for i := range events {
		e := &events[i]
		var context []byte
		if e.Context != nil {
			context, _ = json.Marshal(e.Context)
		}
		if _, err := stmt.Exec(
			e.Timestamp.UnixNano(), e.Level.String(), e.Event, e.Component,
			e.Key, e.OldValue, e.NewValue, e.Origin,
			e.ProcessID, e.ProcessName, string(context), e.Checksum,
		); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("cannot insert audit event: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("cannot commit audit transaction: %w", err)
	}
	return nil
}

// Flush is a no-op: every Write commits its own transaction.
func (b *sqliteBackend) Flush() error { return nil }

func (b *sqliteBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.stmt != nil {
		_ = b.stmt.Close()
	}
	return b.db.Close()
}

// jsonlBackend appends audit events as one JSON document per line.
type jsonlBackend struct {
	file *os.File
	mu   sync.Mutex
}

func newJSONLBackend(path string) (*jsonlBackend, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("cannot create audit directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) // #nosec G304 -- path comes from audit configuration
	if err != nil {
		return nil, fmt.Errorf("cannot open audit file: %w", err)
	}
	return &jsonlBackend{file: file}, nil
}

func (b *jsonlBackend) Write(events []AuditEvent) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	for i := range events {
		line, err := json.Marshal(&events[i])
		if err != nil {
			return fmt.Errorf("cannot marshal audit event: %w", err)
		}
		line = append(line, '\n')
		if _, err := b.file.Write(line); err != nil {
			return fmt.Errorf("cannot append audit event: %w", err)
		}
	}
	return nil
}

func (b *jsonlBackend) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Sync()
}

func (b *jsonlBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.file.Close()
}
