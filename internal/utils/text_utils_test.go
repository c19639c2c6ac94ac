package utils

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestNormalizeText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"Refund please!!", "refund please"},
		{"  What's   the\tQUOTE?\n", "what s the quote"},
		{"Café résumé", "cafe resume"},
		{"order #1234, ASAP.", "order 1234 asap"},
		{"---", ""},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, NormalizeText(tc.in), "input=%q", tc.in)
	}
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"i", "want", "a", "refund"}, Tokenize("I want a refund."))
	assert.Empty(t, Tokenize("  ...  "))
}

func TestTruncateText(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	assert.Equal(t, "short", tp.TruncateText("short", 100))
	assert.Equal(t, "unbounded", tp.TruncateText("unbounded", 0))

	out := tp.TruncateText("héllo world", 2)
	assert.True(t, strings.HasPrefix(out, "h\n"), "partial rune must be dropped, got %q", out)
	assert.True(t, utf8.ValidString(out))
}

func TestProcessTextSanitizes(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.ProcessText("ok\xffok", 0)
	assert.Equal(t, "okok", out)
}

func TestProcessTextKeepsTextAfterInvalidByte(t *testing.T) {
	tp := NewTextProcessor(zap.NewNop())

	out := tp.ProcessText("ab\xffcdefgh", 5)
	assert.True(t, strings.HasPrefix(out, "abcde\n"), "got %q", out)
	assert.True(t, utf8.ValidString(out))
}
