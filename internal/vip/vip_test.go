package vip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestIsPriority(t *testing.T) {
	c := NewChecker([]string{" BigCorp.com ", "@partner.io", ""}, zap.NewNop())

	cases := map[string]bool{
		"ceo@bigcorp.com":         true,
		"CEO@BIGCORP.COM":         true,
		"ops@eu.bigcorp.com":      true,
		"someone@partner.io":      true,
		"someone@notbigcorp.com":  false,
		"jane@example.com":        false,
		"not-an-address":          false,
		"trailing@":               false,
		"":                        false,
		"bigcorp.com@example.com": false,
	}
	for sender, want := range cases {
		assert.Equal(t, want, c.IsPriority(sender), sender)
	}
}

func TestEmptyCheckerMatchesNothing(t *testing.T) {
	c := NewChecker(nil, nil)

	assert.False(t, c.IsPriority("ceo@bigcorp.com"))
}
