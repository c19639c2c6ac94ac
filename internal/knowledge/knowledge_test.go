package knowledge

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mikey/reply-assistant/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func loadFixture(t *testing.T, files map[string]string) *Base {
	t.Helper()
	dir := t.TempDir()
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	}
	base, err := Load(dir, utils.NewTextProcessor(zap.NewNop()), zap.NewNop())
	require.NoError(t, err)
	return base
}

func TestRetrieveRanksByOverlap(t *testing.T) {
	base := loadFixture(t, map[string]string{
		"refunds.txt":  "Refunds are issued within 5 days of a cancel request.",
		"pricing.txt":  "Pricing: a quote is sent within one day.",
		"shipping.txt": "Every order ships from our warehouse.",
		"ignored.md":   "refund cancel quote",
	})
	assert.Equal(t, 3, base.Len())

	excerpts := base.Retrieve("I want refunds and to cancel my order", 3)

	require.Len(t, excerpts, 2)
	assert.Equal(t, "refunds.txt", excerpts[0].Source)
	assert.Equal(t, 2, excerpts[0].Score)
	assert.Equal(t, "shipping.txt", excerpts[1].Source)
	assert.Equal(t, 1, excerpts[1].Score)
}

func TestRetrieveTiesByNameAndLimit(t *testing.T) {
	base := loadFixture(t, map[string]string{
		"b.txt": "password reset",
		"a.txt": "password help",
		"c.txt": "password",
	})

	excerpts := base.Retrieve("Password!", 2)

	require.Len(t, excerpts, 2)
	assert.Equal(t, "a.txt", excerpts[0].Source)
	assert.Equal(t, "b.txt", excerpts[1].Source)
}

func TestRetrieveNothingForEmptyQuery(t *testing.T) {
	base := loadFixture(t, map[string]string{"a.txt": "anything"})

	assert.Empty(t, base.Retrieve("", 3))
	assert.Empty(t, base.Retrieve("anything", 0))
}

func TestLoadMissingDir(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope"), utils.NewTextProcessor(zap.NewNop()), zap.NewNop())
	assert.Error(t, err)
}
