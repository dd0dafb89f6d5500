// Package audit keeps a local history of every dispatched command in a
// SQLite database. One row is written per invocation, whatever its
// outcome, so the history meta-command can answer "what ran here".
package audit

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cnc-n3r4/Isaac-sub001/internal/consts"
	"github.com/cnc-n3r4/Isaac-sub001/internal/logger"
)

// schemaVersion is stored in PRAGMA user_version so future builds can
// detect and migrate older databases.
const schemaVersion = 1

// Record is one dispatched invocation.
type Record struct {
	ID        int64
	CreatedAt time.Time
	SessionID string
	Platform  string
	Input     string
	Strategy  string
	Tier      string
	Success   bool
	ExitCode  int
	// Corrected holds the substituted command when an automatic
	// correction ran. Empty when the input executed unchanged.
	Corrected string
	// Error holds the rejection or failure message, empty on success.
	Error string
}

// Log is an append-mostly invocation history.
type Log struct {
	db     *sql.DB
	dbPath string
	log    *logger.Logger
}

// Open opens or creates the history database at dbPath.
func Open(dbPath string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	l := &Log{
		db:     db,
		dbPath: dbPath,
		log:    logger.WithPrefix("audit"),
	}
	if err := l.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return l, nil
}

// Close closes the underlying database.
func (l *Log) Close() error {
	return l.db.Close()
}

// Path returns the database file location.
func (l *Log) Path() string {
	return l.dbPath
}

func (l *Log) migrate() error {
	var version int
	if err := l.db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return err
	}
	if version > schemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported %d", version, schemaVersion)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS invocations (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		created_at DATETIME NOT NULL,
		session_id TEXT NOT NULL,
		platform TEXT NOT NULL,
		input TEXT NOT NULL,
		strategy TEXT NOT NULL,
		tier TEXT NOT NULL,
		success BOOLEAN NOT NULL DEFAULT FALSE,
		exit_code INTEGER NOT NULL DEFAULT 0,
		corrected TEXT,
		error TEXT
	);

	CREATE INDEX IF NOT EXISTS idx_invocations_session ON invocations(session_id, created_at);
	`
	if _, err := l.db.Exec(schema); err != nil {
		return err
	}

	if version < schemaVersion {
		if _, err := l.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", schemaVersion)); err != nil {
			return err
		}
	}
	return nil
}

// Record appends one invocation row.
func (l *Log) Record(rec *Record) error {
	if rec == nil {
		return nil
	}
	createdAt := rec.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	result, err := l.db.Exec(`
		INSERT INTO invocations
		(created_at, session_id, platform, input, strategy, tier, success, exit_code, corrected, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, createdAt, rec.SessionID, rec.Platform, rec.Input, rec.Strategy, rec.Tier,
		rec.Success, rec.ExitCode, rec.Corrected, rec.Error)
	if err != nil {
		return fmt.Errorf("failed to record invocation: %w", err)
	}

	if id, err := result.LastInsertId(); err == nil {
		rec.ID = id
	}
	rec.CreatedAt = createdAt
	return nil
}

// Tail returns the most recent n invocations, newest first. A non-positive
// n falls back to the default history limit.
func (l *Log) Tail(n int) ([]Record, error) {
	if n <= 0 {
		n = consts.DefaultHistoryLimit
	}

	rows, err := l.db.Query(`
		SELECT id, created_at, session_id, platform, input, strategy, tier, success, exit_code, corrected, error
		FROM invocations
		ORDER BY id DESC
		LIMIT ?
	`, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var corrected, errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.SessionID, &rec.Platform,
			&rec.Input, &rec.Strategy, &rec.Tier, &rec.Success, &rec.ExitCode,
			&corrected, &errMsg); err != nil {
			return nil, err
		}
		if corrected.Valid {
			rec.Corrected = corrected.String
		}
		if errMsg.Valid {
			rec.Error = errMsg.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// SessionTail returns the most recent n invocations for one session,
// newest first.
func (l *Log) SessionTail(sessionID string, n int) ([]Record, error) {
	if n <= 0 {
		n = consts.DefaultHistoryLimit
	}

	rows, err := l.db.Query(`
		SELECT id, created_at, session_id, platform, input, strategy, tier, success, exit_code, corrected, error
		FROM invocations
		WHERE session_id = ?
		ORDER BY id DESC
		LIMIT ?
	`, sessionID, n)
	if err != nil {
		return nil, fmt.Errorf("failed to read session history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var corrected, errMsg sql.NullString
		if err := rows.Scan(&rec.ID, &rec.CreatedAt, &rec.SessionID, &rec.Platform,
			&rec.Input, &rec.Strategy, &rec.Tier, &rec.Success, &rec.ExitCode,
			&corrected, &errMsg); err != nil {
			return nil, err
		}
		if corrected.Valid {
			rec.Corrected = corrected.String
		}
		if errMsg.Valid {
			rec.Error = errMsg.String
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
