// Package summarizer produces a short extractive overview of the indexed
// corpus, shown to the user after indexing.
package summarizer

import (
	"math"
	"regexp"
	"sort"
	"strings"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

var (
	sentencePattern = regexp.MustCompile(`[^.!?\n]+[.!?]`)
	tokenPattern    = regexp.MustCompile(`\p{L}+(?:['’]\p{L}+)*`)
)

// FrequencySummarizer picks the sentences whose terms are spread across the
// most fragments.
type FrequencySummarizer struct {
	stopwords map[string]struct{}
}

// NewFrequencySummarizer returns a summarizer with the English stopword list.
func NewFrequencySummarizer() *FrequencySummarizer {
	return &FrequencySummarizer{stopwords: defaultStopwords()}
}

type candidate struct {
	pos   int
	text  string
	terms map[string]struct{}
	score float64
}

// Summarize returns up to maxSentences sentences from fragments in their
// indexed order. A sentence repeated by chunk overlap is considered once.
func (s *FrequencySummarizer) Summarize(fragments []domain.Fragment, maxSentences int) (string, error) {
	if maxSentences <= 0 {
		maxSentences = 3
	}

	var (
		cands []candidate
		seen  = make(map[string]struct{})
		df    = make(map[string]int)
	)
	for _, f := range fragments {
		inFragment := make(map[string]struct{})
		for _, sent := range splitSentences(f.Content) {
			terms := s.terms(sent)
			for t := range terms {
				inFragment[t] = struct{}{}
			}
			if _, dup := seen[sent]; dup {
				continue
			}
			seen[sent] = struct{}{}
			cands = append(cands, candidate{pos: len(cands), text: sent, terms: terms})
		}
		for t := range inFragment {
			df[t]++
		}
	}
	if len(cands) == 0 {
		return "", nil
	}

	n := float64(len(fragments))
	for i := range cands {
		c := &cands[i]
		if len(c.terms) == 0 {
			continue
		}
		for t := range c.terms {
			c.score += float64(df[t]) / n
		}
		c.score /= math.Sqrt(float64(len(c.terms)))
	}

	sort.SliceStable(cands, func(i, j int) bool { return cands[i].score > cands[j].score })
	picked := cands[:min(maxSentences, len(cands))]
	sort.Slice(picked, func(i, j int) bool { return picked[i].pos < picked[j].pos })

	out := make([]string, len(picked))
	for i, c := range picked {
		out[i] = c.text
	}
	return strings.Join(out, " "), nil
}

// splitSentences returns the trimmed sentences of text; text without a
// terminator is a single sentence.
func splitSentences(text string) []string {
	raw := sentencePattern.FindAllString(text, -1)
	if len(raw) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, r := range raw {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *FrequencySummarizer) terms(sentence string) map[string]struct{} {
	out := make(map[string]struct{})
	for _, t := range tokenPattern.FindAllString(strings.ToLower(sentence), -1) {
		if _, stop := s.stopwords[t]; !stop {
			out[t] = struct{}{}
		}
	}
	return out
}

func defaultStopwords() map[string]struct{} {
	m := make(map[string]struct{}, len(stopwords))
	for _, w := range stopwords {
		m[w] = struct{}{}
	}
	return m
}

var stopwords = strings.Fields(`
	a an the and or but if then else for to of in on at by with as
	is are was were be been being it this that these those from up down
	over under again further than so such into about between through
	during before after above below out off own same too very can will
	just don should now
`)
