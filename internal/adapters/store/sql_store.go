package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// dialect holds the statements that differ between SQL backends
type dialect struct {
	name   string
	schema []string
	upsert string
}

// sqlStore implements core.ReplyStore over database/sql
type sqlStore struct {
	db          *sql.DB
	dialect     dialect
	logger      *zap.Logger
	cleanupFreq time.Duration
	stopCh      chan struct{}
	stopOnce    sync.Once
	now         func() time.Time
}

func newSQLStore(db *sql.DB, d dialect, logger *zap.Logger, cleanupFreq time.Duration) (*sqlStore, error) {
	for _, stmt := range d.schema {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to create %s schema: %w", d.name, err)
		}
	}

	s := &sqlStore{
		db:          db,
		dialect:     d,
		logger:      logger,
		cleanupFreq: cleanupFreq,
		stopCh:      make(chan struct{}),
		now:         time.Now,
	}

	go runCleanup(s, cleanupFreq, s.stopCh, logger)

	return s, nil
}

// Get retrieves a live entry
func (s *sqlStore) Get(ctx context.Context, emailID string) (*core.StoredReply, error) {
	var (
		entry                              core.StoredReply
		keywords, sentiment, priority      string
		status                             string
		receivedAt, processedAt, expiresAt int64
	)

	err := s.db.QueryRowContext(ctx, `
		SELECT email_id, sender, subject, received_at, intent_label, keywords, sentiment,
		       priority, reply_text, generated_by, status, processed_at, expires_at
		FROM replies
		WHERE email_id = ? AND expires_at > ?
	`, emailID, s.now().Unix()).Scan(
		&entry.EmailID, &entry.Sender, &entry.Subject, &receivedAt, &entry.IntentLabel,
		&keywords, &sentiment, &priority, &entry.ReplyText, &entry.GeneratedBy, &status,
		&processedAt, &expiresAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, core.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query reply: %w", err)
	}

	entry.Keywords = decodeKeywords(keywords)
	entry.Sentiment = core.Sentiment(sentiment)
	entry.Priority = core.Priority(priority)
	entry.Status = core.Status(status)
	entry.ReceivedAt = fromUnix(receivedAt)
	entry.ProcessedAt = fromUnix(processedAt)
	entry.ExpiresAt = fromUnix(expiresAt)
	return &entry, nil
}

// Upsert inserts or refreshes an entry. The status of an existing row is
// left untouched.
func (s *sqlStore) Upsert(ctx context.Context, entry *core.StoredReply) error {
	status := entry.Status
	if status == "" {
		status = core.StatusPending
	}

	_, err := s.db.ExecContext(ctx, s.dialect.upsert,
		entry.EmailID, entry.Sender, entry.Subject, unixTime(entry.ReceivedAt), entry.IntentLabel,
		encodeKeywords(entry.Keywords), string(entry.Sentiment), string(entry.Priority),
		entry.ReplyText, entry.GeneratedBy, string(status),
		unixTime(entry.ProcessedAt), unixTime(entry.ExpiresAt),
	)
	if err != nil {
		return fmt.Errorf("failed to upsert reply: %w", err)
	}
	return nil
}

// SetStatus updates the status of a live entry
func (s *sqlStore) SetStatus(ctx context.Context, emailID string, status core.Status) error {
	result, err := s.db.ExecContext(ctx, `
		UPDATE replies SET status = ?
		WHERE email_id = ? AND expires_at > ?
	`, string(status), emailID, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to update reply status: %w", err)
	}

	if n, err := result.RowsAffected(); err == nil && n == 0 {
		// MySQL reports zero for rows that already had the status.
		if _, err := s.Get(ctx, emailID); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an entry
func (s *sqlStore) Delete(ctx context.Context, emailID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM replies WHERE email_id = ?`, emailID); err != nil {
		return fmt.Errorf("failed to delete reply: %w", err)
	}
	return nil
}

// Cleanup removes expired entries
func (s *sqlStore) Cleanup(ctx context.Context) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM replies WHERE expires_at <= ?`, s.now().Unix())
	if err != nil {
		return fmt.Errorf("failed to clean up expired replies: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		s.logger.Warn("Failed to get rows affected during cleanup", zap.Error(err))
	} else {
		s.logger.Debug("Cleaned up expired replies", zap.Int64("expired_count", rowsAffected))
	}
	return nil
}

// Stop stops the background cleanup task and closes the database
func (s *sqlStore) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database", zap.String("dialect", s.dialect.name), zap.Error(err))
		}
	})
}
