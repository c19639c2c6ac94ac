package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
)

var requiredColumns = []string{"sender", "subject", "body"}

var timestampColumns = []string{"timestamp", "received_at", "date"}

var timestampLayouts = []string{
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
	time.RFC822Z,
	time.RFC822,
}

// recordNamespace seeds the name-based ids of rows without an id column
var recordNamespace = uuid.MustParse("6f1c3b1e-5a0e-4a43-9d5e-1b8f2c7d4e90")

// LoadCSV reads a CSV dataset with a header row. The sender, subject and
// body columns are required; id and timestamp are optional.
func LoadCSV(path string, opts Options, logger *zap.Logger) (*Collection, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDataUnavailable, err)
	}
	defer f.Close()

	return ReadCSV(f, path, opts, logger)
}

// ReadCSV loads a CSV dataset from r. name identifies the dataset in logs
// and errors.
func ReadCSV(r io.Reader, name string, opts Options, logger *zap.Logger) (*Collection, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: %s: empty file", core.ErrDataUnavailable, name)
		}
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDataUnavailable, name, err)
	}

	cols, err := mapColumns(header)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", core.ErrDataUnavailable, name, err)
	}

	b := newBuilder(name, opts, logger)
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrDataUnavailable, name, err)
		}
		line, _ := reader.FieldPos(0)

		record, rowErr := cols.parse(row, line)
		if rowErr != nil {
			if err := b.reject(*rowErr); err != nil {
				return nil, err
			}
			continue
		}
		if err := b.add(line, record); err != nil {
			return nil, err
		}
	}

	return b.build(), nil
}

// columns holds header positions; -1 marks an absent optional column
type columns struct {
	id, sender, subject, body, timestamp int
}

func mapColumns(header []string) (columns, error) {
	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, seen := pos[h]; !seen {
			pos[h] = i
		}
	}

	var missing []string
	for _, name := range requiredColumns {
		if _, ok := pos[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return columns{}, fmt.Errorf("missing required column(s): %s", strings.Join(missing, ", "))
	}

	cols := columns{
		id:        -1,
		sender:    pos["sender"],
		subject:   pos["subject"],
		body:      pos["body"],
		timestamp: -1,
	}
	if i, ok := pos["id"]; ok {
		cols.id = i
	}
	for _, name := range timestampColumns {
		if i, ok := pos[name]; ok {
			cols.timestamp = i
			break
		}
	}
	return cols, nil
}

func (c columns) parse(row []string, line int) (core.EmailRecord, *core.RowError) {
	id := strings.TrimSpace(cell(row, c.id))

	for _, required := range []struct {
		name string
		pos  int
	}{{"sender", c.sender}, {"subject", c.subject}, {"body", c.body}} {
		if required.pos >= len(row) {
			return core.EmailRecord{}, &core.RowError{Line: line, ID: id, Reason: "missing " + required.name + " field"}
		}
	}

	record := core.EmailRecord{
		ID:      id,
		Sender:  strings.TrimSpace(row[c.sender]),
		Subject: strings.TrimSpace(row[c.subject]),
		Body:    row[c.body],
	}

	if raw := strings.TrimSpace(cell(row, c.timestamp)); raw != "" {
		ts, err := parseTimestamp(raw)
		if err != nil {
			return core.EmailRecord{}, &core.RowError{Line: line, ID: id, Reason: fmt.Sprintf("invalid timestamp %q", raw)}
		}
		record.ReceivedAt = ts
	}

	if record.ID == "" {
		record.ID = derivedID(line, record)
	}
	return record, nil
}

func cell(row []string, i int) string {
	if i < 0 || i >= len(row) {
		return ""
	}
	return row[i]
}

func parseTimestamp(raw string) (time.Time, error) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

// derivedID returns a stable id for a row without one
func derivedID(line int, record core.EmailRecord) string {
	name := fmt.Sprintf("%d\x00%s\x00%s\x00%s", line, record.Sender, record.Subject, record.Body)
	return uuid.NewSHA1(recordNamespace, []byte(name)).String()
}
