package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// cleaner is implemented by every store with expiring entries
type cleaner interface {
	Cleanup(ctx context.Context) error
}

// runCleanup calls Cleanup every freq until stopCh is closed
func runCleanup(c cleaner, freq time.Duration, stopCh <-chan struct{}, logger *zap.Logger) {
	if freq <= 0 {
		return
	}
	ticker := time.NewTicker(freq)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := c.Cleanup(context.Background()); err != nil {
				logger.Error("Failed to clean up reply store", zap.Error(err))
			}
		case <-stopCh:
			return
		}
	}
}

// unixTime converts a timestamp to seconds, keeping the zero time as 0
func unixTime(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}

func fromUnix(sec int64) time.Time {
	if sec == 0 {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}

func encodeKeywords(keywords []string) string {
	if len(keywords) == 0 {
		return "[]"
	}
	data, err := json.Marshal(keywords)
	if err != nil {
		return "[]"
	}
	return string(data)
}

func decodeKeywords(raw string) []string {
	keywords := []string{}
	if raw == "" {
		return keywords
	}
	if err := json.Unmarshal([]byte(raw), &keywords); err != nil {
		return []string{}
	}
	return keywords
}

func copyEntry(entry *core.StoredReply) *core.StoredReply {
	cp := *entry
	cp.Keywords = append([]string(nil), entry.Keywords...)
	return &cp
}
