package database

import (
	"context"
	"fmt"
	"tichmi/internal/logger"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // embedded SQLite driver
)

// NewSQLXSQLiteDB opens the embedded store at the given file path. The
// handle is the single long-lived connection shared by every read and write;
// the engine serializes writes internally.
func NewSQLXSQLiteDB(path string) (*sqlx.DB, error) {
	db, err := sqlx.Connect("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded database at %s: %w", path, err)
	}

	// A single writer connection sidesteps SQLITE_BUSY between pooled conns.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping embedded database: %w", err)
	}

	return db, nil
}

// schemaStatements is the authoritative table set: the legacy todo demo
// table, quizzes and quiz results. The earlier courses/user_data variant is
// superseded and no longer created.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS todo (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		task TEXT,
		done BOOLEAN DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS quizzes (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		topic TEXT NOT NULL,
		cards TEXT NOT NULL,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
		updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS quiz_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		quiz_id INTEGER NOT NULL,
		score INTEGER NOT NULL,
		total_questions INTEGER NOT NULL,
		answers TEXT NOT NULL,
		completed_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL
	)`,
}

// EnsureSchema creates the tables if they are absent. It is safe to call on
// every startup. Failures are logged and swallowed so a schema hiccup never
// prevents the application from starting.
func EnsureSchema(ctx context.Context, db *sqlx.DB) {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			logger.Get().Warn("Schema creation statement failed; continuing startup",
				zap.Error(err))
		}
	}
}
