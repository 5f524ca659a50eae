// Package relevance decides whether retrieved fragments can answer a query.
// The check is lexical and runs without a model call.
package relevance

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

const (
	DefaultThreshold        = 0.3
	DefaultMinKeyTermLength = 3
	minEntityLength         = 2
)

// Verdict is the outcome of a relevance check.
type Verdict struct {
	IsRelevant      bool
	Explanation     string
	Score           float64
	MissingTerms    []string
	MissingEntities []string
}

// Classifier scores queries by key-term coverage and named-entity presence.
type Classifier struct {
	threshold        float64
	minKeyTermLength int
}

// New returns a classifier. A negative threshold or a non-positive
// minKeyTermLength selects the default. A zero threshold accepts any query
// with at least one key term.
func New(threshold float64, minKeyTermLength int) *Classifier {
	if threshold < 0 {
		threshold = DefaultThreshold
	}
	if minKeyTermLength <= 0 {
		minKeyTermLength = DefaultMinKeyTermLength
	}
	return &Classifier{threshold: threshold, minKeyTermLength: minKeyTermLength}
}

// Check classifies query against fragments.
// A query is relevant when the share of its key terms found in the fragments
// reaches the threshold, or when any capitalized query token appears in them.
func (c *Classifier) Check(query string, fragments []domain.Fragment) Verdict {
	if len(fragments) == 0 {
		return Verdict{Explanation: "no documents found"}
	}

	var sb strings.Builder
	for _, f := range fragments {
		sb.WriteString(strings.ToLower(f.Content))
		sb.WriteByte('\n')
	}
	search := sb.String()

	var (
		keyTerms, missingTerms []string
		entities, missing      []string
		entityFound            bool
	)
	for _, raw := range strings.Fields(query) {
		tok := trimPunct(raw)
		if tok == "" {
			continue
		}
		lower := strings.ToLower(tok)
		if utf8.RuneCountInString(lower) > c.minKeyTermLength {
			keyTerms = append(keyTerms, lower)
			if !strings.Contains(search, lower) {
				missingTerms = append(missingTerms, lower)
			}
		}
		if isEntity(tok) {
			entities = append(entities, tok)
			if strings.Contains(search, lower) {
				entityFound = true
			} else {
				missing = append(missing, tok)
			}
		}
	}

	var score float64
	if len(keyTerms) > 0 {
		score = float64(len(keyTerms)-len(missingTerms)) / float64(len(keyTerms))
	}

	v := Verdict{
		IsRelevant:      (len(keyTerms) > 0 && score >= c.threshold) || entityFound,
		Score:           score,
		MissingTerms:    missingTerms,
		MissingEntities: missing,
	}
	if v.IsRelevant {
		v.Explanation = fmt.Sprintf("Relevance score: %.2f", score)
		return v
	}
	parts := []string{fmt.Sprintf("Relevance score: %.2f", score)}
	if len(missingTerms) > 0 {
		parts = append(parts, "Key terms not found: "+strings.Join(missingTerms, ", "))
	}
	if len(missing) > 0 {
		parts = append(parts, "Named entities not found: "+strings.Join(missing, ", "))
	}
	if len(keyTerms) == 0 && len(entities) == 0 {
		parts = append(parts, "no key terms or named entities in query")
	}
	v.Explanation = strings.Join(parts, ". ")
	return v
}

func trimPunct(s string) string {
	return strings.TrimFunc(s, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r)
	})
}

// questionWords open a question without naming anything.
var questionWords = map[string]struct{}{
	"who": {}, "what": {}, "when": {}, "where": {}, "which": {}, "why": {}, "how": {},
	"does": {}, "did": {}, "can": {}, "could": {}, "should": {}, "would": {}, "will": {},
	"are": {}, "was": {}, "were": {}, "has": {}, "have": {},
}

func isEntity(tok string) bool {
	r, _ := utf8.DecodeRuneInString(tok)
	if !unicode.IsUpper(r) || utf8.RuneCountInString(tok) <= minEntityLength {
		return false
	}
	_, skip := questionWords[strings.ToLower(tok)]
	return !skip
}
