package chunker

import (
	"regexp"
	"strings"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

var sentenceRe = regexp.MustCompile(`(?m)(?U)([^.!?]+[.!?])`)

// SentenceChunker groups whole sentences into fragments. Consecutive
// fragments share overlap sentences.
type SentenceChunker struct {
	perChunk int
	overlap  int
}

// NewSentenceChunker returns a chunker emitting perChunk sentences per
// fragment. An overlap outside [0, perChunk) is treated as zero.
func NewSentenceChunker(perChunk, overlap int) *SentenceChunker {
	if perChunk <= 0 {
		perChunk = 5
	}
	if overlap < 0 || overlap >= perChunk {
		overlap = 0
	}
	return &SentenceChunker{perChunk: perChunk, overlap: overlap}
}

func (c *SentenceChunker) Chunk(doc domain.Document) ([]domain.Fragment, error) {
	sentences := splitSentences(doc.Content)
	if len(sentences) == 0 {
		return nil, nil
	}
	step := c.perChunk - c.overlap
	var texts []string
	for start := 0; ; start += step {
		end := min(start+c.perChunk, len(sentences))
		texts = append(texts, strings.Join(sentences[start:end], " "))
		if end == len(sentences) {
			break
		}
	}
	return fragmentsFor(doc, texts), nil
}

// splitSentences returns the trimmed sentences of text. Text without
// terminal punctuation is one sentence.
func splitSentences(text string) []string {
	raw := sentenceRe.FindAllString(text, -1)
	if len(raw) == 0 {
		if t := strings.TrimSpace(text); t != "" {
			return []string{t}
		}
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, s := range raw {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
