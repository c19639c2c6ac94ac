package knowledge

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/mikey/reply-assistant/internal/core"
	"github.com/mikey/reply-assistant/internal/utils"
	"go.uber.org/zap"
)

// maxExcerptSize caps how much of a document goes into a prompt
const maxExcerptSize = 2000

type document struct {
	name   string
	text   string
	tokens map[string]struct{}
}

// Base is a read-only set of reference documents
type Base struct {
	docs   []document
	logger *zap.Logger
}

// Load reads every .txt file of dir
func Load(dir string, textProcessor *utils.TextProcessor, logger *zap.Logger) (*Base, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.txt"))
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge base: %w", err)
	}
	if _, err := os.Stat(dir); err != nil {
		return nil, fmt.Errorf("failed to open knowledge base: %w", err)
	}
	sort.Strings(paths)

	base := &Base{logger: logger}
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warn("Skipping unreadable knowledge base file", zap.String("path", path), zap.Error(err))
			continue
		}
		text := textProcessor.SanitizeUTF8(string(data))
		base.docs = append(base.docs, document{
			name:   filepath.Base(path),
			text:   textProcessor.TruncateText(strings.TrimSpace(text), maxExcerptSize),
			tokens: tokenSet(text),
		})
	}

	logger.Info("Loaded knowledge base", zap.String("path", dir), zap.Int("documents", len(base.docs)))
	return base, nil
}

// Len returns the number of documents
func (b *Base) Len() int {
	return len(b.docs)
}

// Retrieve returns up to k documents sharing the most distinct tokens with
// text. Documents without overlap are never returned; ties go to the
// lexically smaller file name.
func (b *Base) Retrieve(text string, k int) []core.Excerpt {
	query := tokenSet(text)
	if k <= 0 || len(query) == 0 {
		return nil
	}

	var matches []core.Excerpt
	for _, doc := range b.docs {
		score := 0
		for tok := range query {
			if _, ok := doc.tokens[tok]; ok {
				score++
			}
		}
		if score > 0 {
			matches = append(matches, core.Excerpt{Source: doc.name, Text: doc.text, Score: score})
		}
	}

	// docs are already in name order, so a stable sort keeps ties by name
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > k {
		matches = matches[:k]
	}
	return matches
}

func tokenSet(text string) map[string]struct{} {
	tokens := utils.Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, tok := range tokens {
		set[tok] = struct{}{}
	}
	return set
}
