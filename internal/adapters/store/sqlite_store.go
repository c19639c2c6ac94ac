package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

var sqliteDialect = dialect{
	name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS replies (
			email_id TEXT PRIMARY KEY,
			sender TEXT NOT NULL DEFAULT '',
			subject TEXT NOT NULL DEFAULT '',
			received_at INTEGER NOT NULL DEFAULT 0,
			intent_label TEXT NOT NULL DEFAULT '',
			keywords TEXT NOT NULL DEFAULT '[]',
			sentiment TEXT NOT NULL DEFAULT '',
			priority TEXT NOT NULL DEFAULT '',
			reply_text TEXT NOT NULL DEFAULT '',
			generated_by TEXT NOT NULL DEFAULT '',
			status TEXT NOT NULL DEFAULT 'pending',
			processed_at INTEGER NOT NULL DEFAULT 0,
			expires_at INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_replies_expires_at ON replies(expires_at)`,
	},
	upsert: `
		INSERT INTO replies (email_id, sender, subject, received_at, intent_label, keywords, sentiment,
			priority, reply_text, generated_by, status, processed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(email_id) DO UPDATE SET
			sender = excluded.sender,
			subject = excluded.subject,
			received_at = excluded.received_at,
			intent_label = excluded.intent_label,
			keywords = excluded.keywords,
			sentiment = excluded.sentiment,
			priority = excluded.priority,
			reply_text = excluded.reply_text,
			generated_by = excluded.generated_by,
			status = CASE WHEN replies.expires_at > excluded.processed_at THEN replies.status ELSE excluded.status END,
			processed_at = excluded.processed_at,
			expires_at = excluded.expires_at`,
}

// SQLiteStore persists replies in a SQLite database file
type SQLiteStore struct {
	*sqlStore
}

// NewSQLiteStore opens (or creates) the database at dbPath
func NewSQLiteStore(dbPath string, logger *zap.Logger, cleanupFreq time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}
	// One writer avoids "database is locked" under the worker pool.
	db.SetMaxOpenConns(1)

	s, err := newSQLStore(db, sqliteDialect, logger, cleanupFreq)
	if err != nil {
		return nil, err
	}
	return &SQLiteStore{sqlStore: s}, nil
}
