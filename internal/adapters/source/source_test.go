package source

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mikey/reply-assistant/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const sampleCSV = `id,sender,subject,body,timestamp
1,jane@example.com,Refund please,I want a refund and to cancel my order,2024-05-01T10:00:00Z
2,"Bob <bob@example.com>",Pricing question,"What is the quote
for 10 units?",2024-05-01 11:30:00
3,amy@example.com,,,
`

func TestLoadCSV(t *testing.T) {
	path := writeFile(t, t.TempDir(), "emails.csv", sampleCSV)

	c, err := LoadCSV(path, Options{}, zap.NewNop())
	require.NoError(t, err)

	records, err := c.ListEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 3)

	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "Refund please", records[0].Subject)
	assert.Equal(t, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), records[0].ReceivedAt)

	assert.Equal(t, "Bob <bob@example.com>", records[1].Sender)
	assert.Equal(t, "What is the quote\nfor 10 units?", records[1].Body)
	assert.Equal(t, time.Date(2024, 5, 1, 11, 30, 0, 0, time.UTC), records[1].ReceivedAt)

	assert.Equal(t, "", records[2].Subject)
	assert.Equal(t, "", records[2].Body)
	assert.False(t, records[2].HasReceivedAt())
	assert.Empty(t, c.Diagnostics())
}

func TestListEmailsIsStable(t *testing.T) {
	path := writeFile(t, t.TempDir(), "emails.csv", sampleCSV)
	c, err := LoadCSV(path, Options{}, zap.NewNop())
	require.NoError(t, err)

	first, err := c.ListEmails(context.Background())
	require.NoError(t, err)
	first[0].Subject = "mutated"

	second, err := c.ListEmails(context.Background())
	require.NoError(t, err)
	third, err := c.ListEmails(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Refund please", second[0].Subject)
	assert.Equal(t, second, third)
}

func TestGetEmail(t *testing.T) {
	c, err := ReadCSV(strings.NewReader(sampleCSV), "inline", Options{}, zap.NewNop())
	require.NoError(t, err)

	record, err := c.GetEmail(context.Background(), "2")
	require.NoError(t, err)
	assert.Equal(t, "Pricing question", record.Subject)

	_, err = c.GetEmail(context.Background(), "nope")
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoadCSVMissingFile(t *testing.T) {
	_, err := LoadCSV(filepath.Join(t.TempDir(), "missing.csv"), Options{}, zap.NewNop())
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestReadCSVHeaderProblems(t *testing.T) {
	cases := map[string]string{
		"empty":          "",
		"missing column": "id,sender,subject\n1,a@b.com,hi\n",
		"broken quoting": "sender,subject,body\n\"a@b.com,hi,body\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := ReadCSV(strings.NewReader(content), name, Options{}, zap.NewNop())
			assert.ErrorIs(t, err, core.ErrDataUnavailable)
		})
	}
}

func TestReadCSVHeaderIsCaseInsensitiveAndIgnoresExtraColumns(t *testing.T) {
	content := "Priority,BODY,Subject,Sender,Received_At\nhigh,hello,Hi,a@b.com,2024-01-02\n"

	c, err := ReadCSV(strings.NewReader(content), "inline", Options{}, zap.NewNop())
	require.NoError(t, err)

	records, err := c.ListEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "hello", records[0].Body)
	assert.Equal(t, "a@b.com", records[0].Sender)
	assert.Equal(t, time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), records[0].ReceivedAt)
	assert.NotEmpty(t, records[0].ID)
}

const malformedCSV = `id,sender,subject,body,timestamp
1,a@example.com,Hello,Body one,2024-05-01
2,b@example.com,Short row
3,c@example.com,Bad date,Body three,yesterday
1,d@example.com,Duplicate,Body four,
5,e@example.com,Fine,Body five,
`

func TestReadCSVSkipsMalformedRows(t *testing.T) {
	c, err := ReadCSV(strings.NewReader(malformedCSV), "inline", Options{}, zap.NewNop())
	require.NoError(t, err)

	records, err := c.ListEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "1", records[0].ID)
	assert.Equal(t, "a@example.com", records[0].Sender)
	assert.Equal(t, "5", records[1].ID)

	diags := c.Diagnostics()
	require.Len(t, diags, 3)
	assert.Equal(t, core.RowError{Line: 3, ID: "2", Reason: "missing body field"}, diags[0])
	assert.Equal(t, 4, diags[1].Line)
	assert.Contains(t, diags[1].Reason, "invalid timestamp")
	assert.Equal(t, core.RowError{Line: 5, ID: "1", Reason: "duplicate id"}, diags[2])
}

func TestReadCSVStrictAbortsOnMalformedRow(t *testing.T) {
	_, err := ReadCSV(strings.NewReader(malformedCSV), "inline", Options{Strict: true}, zap.NewNop())
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
	assert.Contains(t, err.Error(), "line 3")
}

func TestDerivedIDsAreStable(t *testing.T) {
	content := "sender,subject,body\na@b.com,Hi,Hello\na@b.com,Hi,Hello\n"

	first, err := ReadCSV(strings.NewReader(content), "inline", Options{}, zap.NewNop())
	require.NoError(t, err)
	second, err := ReadCSV(strings.NewReader(content), "inline", Options{}, zap.NewNop())
	require.NoError(t, err)

	a, _ := first.ListEmails(context.Background())
	b, _ := second.ListEmails(context.Background())
	require.Len(t, a, 2)
	assert.Equal(t, a, b)
	// Identical rows on different lines still get distinct ids.
	assert.NotEqual(t, a[0].ID, a[1].ID)
}

const plainEML = "From: Jane Doe <jane@example.com>\r\n" +
	"To: support@example.com\r\n" +
	"Subject: Refund please\r\n" +
	"Message-Id: <abc123@example.com>\r\n" +
	"Date: Wed, 01 May 2024 10:00:00 +0000\r\n" +
	"\r\n" +
	"I want a refund.\r\n"

const multipartEML = "From: bob@example.com\r\n" +
	"Subject: Quote\r\n" +
	"MIME-Version: 1.0\r\n" +
	"Content-Type: multipart/alternative; boundary=XYZ\r\n" +
	"\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/html; charset=utf-8\r\n" +
	"\r\n" +
	"<p>html</p>\r\n" +
	"--XYZ\r\n" +
	"Content-Type: text/plain; charset=windows-1252\r\n" +
	"\r\n" +
	"Caf\xe9 pricing?\r\n" +
	"--XYZ--\r\n"

const htmlOnlyEML = "From: x@example.com\r\n" +
	"Subject: html\r\n" +
	"Content-Type: text/html\r\n" +
	"\r\n" +
	"<p>hi</p>\r\n"

func TestParseEML(t *testing.T) {
	record, err := ParseEML(strings.NewReader(plainEML))
	require.NoError(t, err)

	assert.Equal(t, "abc123@example.com", record.ID)
	assert.Equal(t, "Refund please", record.Subject)
	assert.Equal(t, "Jane Doe", record.SenderName())
	assert.Equal(t, "jane@example.com", record.SenderAddress())
	assert.Equal(t, "I want a refund.\r\n", record.Body)
	assert.True(t, record.ReceivedAt.Equal(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)))
}

func TestParseEMLMultipartPicksPlainText(t *testing.T) {
	record, err := ParseEML(strings.NewReader(multipartEML))
	require.NoError(t, err)

	assert.Equal(t, "bob@example.com", record.Sender)
	assert.Equal(t, "Café pricing?", strings.TrimSpace(record.Body))
}

func TestLoadEMLDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "b.eml", multipartEML)
	writeFile(t, dir, "a.eml", plainEML)
	writeFile(t, dir, "c.eml", htmlOnlyEML)
	writeFile(t, dir, "notes.txt", "ignored")

	c, err := LoadEMLDir(dir, Options{}, zap.NewNop())
	require.NoError(t, err)

	records, err := c.ListEmails(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "abc123@example.com", records[0].ID)
	assert.Equal(t, "b", records[1].ID)

	diags := c.Diagnostics()
	require.Len(t, diags, 1)
	assert.Equal(t, "c.eml", diags[0].ID)

	_, err = LoadEMLDir(dir, Options{Strict: true}, zap.NewNop())
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}

func TestLoadEMLDirMissing(t *testing.T) {
	_, err := LoadEMLDir(filepath.Join(t.TempDir(), "nope"), Options{}, zap.NewNop())
	assert.ErrorIs(t, err, core.ErrDataUnavailable)
}
