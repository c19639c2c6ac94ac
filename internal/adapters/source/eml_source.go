package source

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/emersion/go-message"
	"github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"
	"github.com/mikey/reply-assistant/internal/core"
	"go.uber.org/zap"
	"golang.org/x/text/encoding/charmap"
)

func init() {
	// Charsets seen in support mailboxes that go-message does not ship
	charset.RegisterEncoding("windows-1252", charmap.Windows1252)
	charset.RegisterEncoding("iso-8859-1", charmap.ISO8859_1)
	charset.RegisterEncoding("iso-8859-15", charmap.ISO8859_15)
}

// LoadEMLDir loads every *.eml file of dir in lexical name order. Each file
// is one record, counted as line 1..n in diagnostics.
func LoadEMLDir(dir string, opts Options, logger *zap.Logger) (*Collection, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrDataUnavailable, err)
	}

	var names []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ".eml") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	b := newBuilder(dir, opts, logger)
	for i, name := range names {
		line := i + 1
		record, err := parseEMLFile(filepath.Join(dir, name))
		if err != nil {
			if rerr := b.reject(core.RowError{Line: line, ID: name, Reason: err.Error()}); rerr != nil {
				return nil, rerr
			}
			continue
		}
		if record.ID == "" {
			record.ID = strings.TrimSuffix(name, filepath.Ext(name))
		}
		if err := b.add(line, record); err != nil {
			return nil, err
		}
	}

	return b.build(), nil
}

func parseEMLFile(path string) (core.EmailRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return core.EmailRecord{}, err
	}
	defer f.Close()

	return ParseEML(f)
}

// ParseEML reads one RFC 5322 message. The body is the first text/plain
// part; a message without one yields an error.
func ParseEML(r io.Reader) (core.EmailRecord, error) {
	mr, err := mail.CreateReader(r)
	if err != nil && !message.IsUnknownCharset(err) {
		return core.EmailRecord{}, fmt.Errorf("failed to read message: %w", err)
	}
	defer mr.Close()

	header := mr.Header
	record := core.EmailRecord{}

	if id, err := header.MessageID(); err == nil && id != "" {
		record.ID = id
	}
	if subject, err := header.Subject(); err == nil {
		record.Subject = strings.TrimSpace(subject)
	} else {
		record.Subject = strings.TrimSpace(header.Get("Subject"))
	}
	if from, err := header.AddressList("From"); err == nil && len(from) > 0 {
		record.Sender = from[0].String()
		if from[0].Name == "" {
			record.Sender = from[0].Address
		}
	} else {
		record.Sender = strings.TrimSpace(header.Get("From"))
	}
	if date, err := header.Date(); err == nil {
		record.ReceivedAt = date
	}

	found := false
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil && (part == nil || !message.IsUnknownCharset(err)) {
			return core.EmailRecord{}, fmt.Errorf("failed to read part: %w", err)
		}
		h, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}
		contentType, _, _ := h.ContentType()
		if contentType != "" && !strings.HasPrefix(contentType, "text/plain") {
			continue
		}
		body, err := io.ReadAll(part.Body)
		if err != nil {
			return core.EmailRecord{}, fmt.Errorf("failed to read body: %w", err)
		}
		record.Body = string(body)
		found = true
		break
	}

	if !found {
		return core.EmailRecord{}, errors.New("missing text/plain body")
	}
	return record, nil
}
