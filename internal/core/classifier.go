package core

import (
	"regexp"
	"sort"
	"strings"

	"github.com/mikey/reply-assistant/internal/utils"
)

// DefaultFallbackLabel is used when no intent rule matches
const DefaultFallbackLabel = "other"

const (
	maxRequirementSentences = 3
	maxContactsPerKind      = 3
)

var (
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,}`)
	phonePattern = regexp.MustCompile(`(?:\+?\d[\s-]?)?(?:\(?\d{3}\)?[\s-]?)?\d{3}[\s-]?\d{4}`)
)

// IntentRule maps a keyword list to an intent label
type IntentRule struct {
	Label    string
	Keywords []string
}

// ClassifierConfig holds the classifier vocabulary. Rules are listed in
// priority order; the first rule wins a tie on match count.
type ClassifierConfig struct {
	Rules         []IntentRule
	FallbackLabel string
	PositiveWords []string
	NegativeWords []string
	UrgentWords   []string
	RequestCues   []string
}

type compiledRule struct {
	label    string
	keywords []string
}

// IntentClassifier assigns an intent label and keywords to email records
// using keyword heuristics. It holds no mutable state and is safe for
// concurrent use.
type IntentClassifier struct {
	rules    []compiledRule
	fallback string
	positive []string
	negative []string
	urgent   []string
	cues     []string
}

// NewIntentClassifier creates a classifier from its configuration
func NewIntentClassifier(cfg ClassifierConfig) *IntentClassifier {
	fallback := strings.TrimSpace(cfg.FallbackLabel)
	if fallback == "" {
		fallback = DefaultFallbackLabel
	}

	rules := make([]compiledRule, 0, len(cfg.Rules))
	for _, rule := range cfg.Rules {
		label := strings.TrimSpace(rule.Label)
		if label == "" {
			continue
		}
		rules = append(rules, compiledRule{
			label:    label,
			keywords: normalizePhrases(rule.Keywords),
		})
	}

	return &IntentClassifier{
		rules:    rules,
		fallback: fallback,
		positive: normalizePhrases(cfg.PositiveWords),
		negative: normalizePhrases(cfg.NegativeWords),
		urgent:   normalizePhrases(cfg.UrgentWords),
		cues:     normalizePhrases(cfg.RequestCues),
	}
}

// FallbackLabel returns the label assigned when nothing matches
func (c *IntentClassifier) FallbackLabel() string {
	return c.fallback
}

// Classify analyzes the subject and body of a record. The result depends
// only on those two fields.
func (c *IntentClassifier) Classify(record EmailRecord) ClassificationResult {
	text := paddedText(record.Subject + " " + record.Body)

	label, keywords := c.matchIntent(text)

	return ClassificationResult{
		IntentLabel:  label,
		Keywords:     keywords,
		Sentiment:    c.sentiment(text),
		Priority:     c.priority(text),
		Requirements: c.requirements(record.Body),
		Contacts:     extractContacts(record.Body),
	}
}

func (c *IntentClassifier) matchIntent(text string) (string, []string) {
	bestLabel := c.fallback
	var bestKeywords []string

	for _, rule := range c.rules {
		matched := matchPhrases(text, rule.keywords)
		// Strictly greater keeps the earlier rule on ties.
		if len(matched) > len(bestKeywords) {
			bestLabel = rule.label
			bestKeywords = matched
		}
	}

	if len(bestKeywords) == 0 {
		return c.fallback, []string{}
	}
	sort.Strings(bestKeywords)
	return bestLabel, bestKeywords
}

func (c *IntentClassifier) sentiment(text string) Sentiment {
	pos := len(matchPhrases(text, c.positive)) > 0
	neg := len(matchPhrases(text, c.negative)) > 0
	switch {
	case pos && !neg:
		return SentimentPositive
	case neg && !pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

func (c *IntentClassifier) priority(text string) Priority {
	if len(matchPhrases(text, c.urgent)) > 0 {
		return PriorityUrgent
	}
	return PriorityNormal
}

func (c *IntentClassifier) requirements(body string) string {
	if strings.TrimSpace(body) == "" || len(c.cues) == 0 {
		return ""
	}

	var picked []string
	for _, sentence := range splitSentences(body) {
		sentence = strings.Join(strings.Fields(sentence), " ")
		if sentence == "" {
			continue
		}
		if len(matchPhrases(paddedText(sentence), c.cues)) > 0 {
			picked = append(picked, sentence)
			if len(picked) == maxRequirementSentences {
				break
			}
		}
	}
	return strings.Join(picked, " ")
}

// splitSentences splits after '.', '!' or '?' followed by whitespace, so
// addresses and decimals stay intact.
func splitSentences(text string) []string {
	var out []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
			if i+1 == len(text) || isSpaceByte(text[i+1]) {
				out = append(out, text[start:i+1])
				start = i + 1
			}
		}
	}
	if start < len(text) {
		out = append(out, text[start:])
	}
	return out
}

func isSpaceByte(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func extractContacts(body string) []string {
	if body == "" {
		return nil
	}
	contacts := firstDistinct(emailPattern.FindAllString(body, -1), maxContactsPerKind)
	phones := make([]string, 0)
	for _, p := range phonePattern.FindAllString(body, -1) {
		phones = append(phones, strings.TrimSpace(p))
	}
	return append(contacts, firstDistinct(phones, maxContactsPerKind)...)
}

// firstDistinct returns up to n distinct values in sorted order
func firstDistinct(values []string, n int) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// paddedText normalizes text and pads it so phrases can be matched on
// token boundaries.
func paddedText(text string) string {
	return " " + utils.NormalizeText(text) + " "
}

// matchPhrases returns the distinct phrases present in a padded text
func matchPhrases(padded string, phrases []string) []string {
	var matched []string
	for _, phrase := range phrases {
		if strings.Contains(padded, " "+phrase+" ") {
			matched = append(matched, phrase)
		}
	}
	return matched
}

// normalizePhrases normalizes and de-duplicates a phrase list, keeping order
func normalizePhrases(phrases []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		n := utils.NormalizeText(p)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	return out
}
