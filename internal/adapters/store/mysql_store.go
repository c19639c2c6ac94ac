package store

import (
	"database/sql"
	"fmt"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"go.uber.org/zap"
)

var mysqlDialect = dialect{
	name: "mysql",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS replies (
			email_id VARCHAR(255) PRIMARY KEY,
			sender VARCHAR(512) NOT NULL DEFAULT '',
			subject TEXT NOT NULL,
			received_at BIGINT NOT NULL DEFAULT 0,
			intent_label VARCHAR(64) NOT NULL DEFAULT '',
			keywords TEXT NOT NULL,
			sentiment VARCHAR(16) NOT NULL DEFAULT '',
			priority VARCHAR(16) NOT NULL DEFAULT '',
			reply_text TEXT NOT NULL,
			generated_by VARCHAR(255) NOT NULL DEFAULT '',
			status VARCHAR(16) NOT NULL DEFAULT 'pending',
			processed_at BIGINT NOT NULL DEFAULT 0,
			expires_at BIGINT NOT NULL DEFAULT 0,
			INDEX idx_replies_expires_at (expires_at)
		)`,
	},
	upsert: `
		INSERT INTO replies (email_id, sender, subject, received_at, intent_label, keywords, sentiment,
			priority, reply_text, generated_by, status, processed_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			status = IF(expires_at > VALUES(processed_at), status, VALUES(status)),
			sender = VALUES(sender),
			subject = VALUES(subject),
			received_at = VALUES(received_at),
			intent_label = VALUES(intent_label),
			keywords = VALUES(keywords),
			sentiment = VALUES(sentiment),
			priority = VALUES(priority),
			reply_text = VALUES(reply_text),
			generated_by = VALUES(generated_by),
			processed_at = VALUES(processed_at),
			expires_at = VALUES(expires_at)`,
}

// MySQLStore persists replies in a MySQL database
type MySQLStore struct {
	*sqlStore
}

// NewMySQLStore connects to the database named by dsn
func NewMySQLStore(dsn string, logger *zap.Logger, cleanupFreq time.Duration) (*MySQLStore, error) {
	db, err := sql.Open("mysql", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to MySQL database: %w", err)
	}

	s, err := newSQLStore(db, mysqlDialect, logger, cleanupFreq)
	if err != nil {
		return nil, err
	}
	return &MySQLStore{sqlStore: s}, nil
}
