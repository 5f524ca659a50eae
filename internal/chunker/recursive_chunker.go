package chunker

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
)

var defaultSeparators = []string{"\n\n", "\n", " ", ""}

// RecursiveChunker splits text on the coarsest separator that keeps pieces
// under chunkSize characters, recursing into finer separators for pieces
// that are still too long, then merges neighbours back up to chunkSize with
// chunkOverlap characters carried between consecutive fragments.
type RecursiveChunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

func NewRecursiveChunker(chunkSize, chunkOverlap int) *RecursiveChunker {
	if chunkSize <= 0 {
		chunkSize = 1000
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 5
	}
	return &RecursiveChunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   defaultSeparators,
	}
}

func (c *RecursiveChunker) Chunk(document domain.Document) ([]domain.Fragment, error) {
	if strings.TrimSpace(document.Content) == "" {
		return nil, nil
	}
	return fragmentsFor(document, c.split(document.Content, c.separators)), nil
}

func (c *RecursiveChunker) split(text string, separators []string) []string {
	sep := separators[len(separators)-1]
	var finer []string
	for i, s := range separators {
		if s == "" || strings.Contains(text, s) {
			sep = s
			finer = separators[i+1:]
			break
		}
	}

	var pieces []string
	if sep == "" {
		pieces = splitRunes(text)
	} else {
		pieces = strings.Split(text, sep)
	}

	var out, short []string
	for _, p := range pieces {
		if p == "" {
			continue
		}
		if runeLen(p) < c.chunkSize {
			short = append(short, p)
			continue
		}
		if len(short) > 0 {
			out = append(out, c.merge(short, sep)...)
			short = nil
		}
		if len(finer) == 0 {
			out = append(out, p)
		} else {
			out = append(out, c.split(p, finer)...)
		}
	}
	if len(short) > 0 {
		out = append(out, c.merge(short, sep)...)
	}
	return out
}

// merge joins pieces with sep into windows of at most chunkSize characters.
// total tracks the joined length of the current window.
func (c *RecursiveChunker) merge(pieces []string, sep string) []string {
	sepLen := runeLen(sep)
	var out, window []string
	total := 0
	for _, p := range pieces {
		n := runeLen(p)
		if len(window) > 0 && total+sepLen+n > c.chunkSize {
			if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
				out = append(out, doc)
			}
			for len(window) > 0 && (total > c.chunkOverlap || total+sepLen+n > c.chunkSize) {
				total -= runeLen(window[0])
				if len(window) > 1 {
					total -= sepLen
				}
				window = window[1:]
			}
		}
		if len(window) > 0 {
			total += sepLen
		}
		window = append(window, p)
		total += n
	}
	if doc := strings.TrimSpace(strings.Join(window, sep)); doc != "" {
		out = append(out, doc)
	}
	return out
}

func fragmentsFor(document domain.Document, texts []string) []domain.Fragment {
	fragments := make([]domain.Fragment, 0, len(texts))
	for idx, text := range texts {
		fragments = append(fragments, domain.Fragment{
			ID:         document.ID + ":" + strconv.Itoa(idx),
			DocumentID: document.ID,
			Content:    text,
			Source:     document.Path,
			Page:       document.Page,
			Index:      idx,
		})
	}
	return fragments
}

func splitRunes(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
