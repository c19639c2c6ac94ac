package source

import (
	"context"
	"fmt"

	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

// Options controls how a dataset is loaded
type Options struct {
	// Strict aborts the load on the first malformed row instead of
	// skipping it with a diagnostic.
	Strict bool
}

// Collection is an immutable, load-once set of email records. It is safe
// for concurrent use.
type Collection struct {
	records     []core.EmailRecord
	index       map[string]int
	diagnostics []core.RowError
}

// ListEmails returns a copy of all records in dataset order
func (c *Collection) ListEmails(ctx context.Context) ([]core.EmailRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]core.EmailRecord, len(c.records))
	copy(out, c.records)
	return out, nil
}

// GetEmail returns the record with the given id
func (c *Collection) GetEmail(ctx context.Context, id string) (core.EmailRecord, error) {
	i, ok := c.index[id]
	if !ok {
		return core.EmailRecord{}, fmt.Errorf("%w: %q", core.ErrNotFound, id)
	}
	return c.records[i], nil
}

// Diagnostics returns the rows rejected while loading
func (c *Collection) Diagnostics() []core.RowError {
	out := make([]core.RowError, len(c.diagnostics))
	copy(out, c.diagnostics)
	return out
}

// Len returns the number of loaded records
func (c *Collection) Len() int {
	return len(c.records)
}

// builder accumulates records and applies the malformed-row policy
type builder struct {
	name   string
	opts   Options
	logger *zap.Logger
	c      *Collection
}

func newBuilder(name string, opts Options, logger *zap.Logger) *builder {
	return &builder{
		name:   name,
		opts:   opts,
		logger: logger,
		c:      &Collection{index: make(map[string]int)},
	}
}

// add appends a record, rejecting duplicate ids
func (b *builder) add(line int, record core.EmailRecord) error {
	if _, dup := b.c.index[record.ID]; dup {
		return b.reject(core.RowError{Line: line, ID: record.ID, Reason: "duplicate id"})
	}
	b.c.index[record.ID] = len(b.c.records)
	b.c.records = append(b.c.records, record)
	return nil
}

// reject records a malformed row. In strict mode it returns an error that
// aborts the load.
func (b *builder) reject(rowErr core.RowError) error {
	if b.opts.Strict {
		return fmt.Errorf("%w: %s: %s", core.ErrDataUnavailable, b.name, rowErr)
	}
	b.logger.Warn("Skipping malformed row",
		zap.String("dataset", b.name),
		zap.Int("line", rowErr.Line),
		zap.String("id", rowErr.ID),
		zap.String("reason", rowErr.Reason))
	b.c.diagnostics = append(b.c.diagnostics, rowErr)
	return nil
}

func (b *builder) build() *Collection {
	b.logger.Info("Loaded email dataset",
		zap.String("dataset", b.name),
		zap.Int("records", len(b.c.records)),
		zap.Int("skipped", len(b.c.diagnostics)))
	return b.c
}
