// Package ingest loads source files into documents. Text files become one
// document each; PDF files become one document per page so fragments keep
// their page locator.
package ingest

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/tsawler/tabula"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
)

// ErrUnsupported marks a file whose extension the loader cannot read.
var ErrUnsupported = errors.New("unsupported file type")

// ErrNoDocuments is returned when the given paths yield no readable text.
var ErrNoDocuments = errors.New("no supported documents found")

var textExts = map[string]bool{".txt": true, ".md": true}

// Supported reports whether path has an extension the loader reads.
func Supported(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return textExts[ext] || ext == ".pdf" || ext == ".docx"
}

// Loader reads files concurrently.
type Loader struct {
	parallel int
	layout   bool
	log      *zap.Logger
}

// NewLoader returns a loader reading at most parallel files at once.
func NewLoader(parallel int, log *zap.Logger) *Loader {
	if parallel <= 0 {
		parallel = 4
	}
	return &Loader{parallel: parallel, log: logging.OrNop(log).Named("ingest")}
}

// WithLayout switches PDF loading to tabula's structure-aware chunker: one
// document per section-sized chunk, prefixed with its heading, instead of
// one document per page.
func (l *Loader) WithLayout(on bool) *Loader {
	l.layout = on
	return l
}

// Load expands globs and directories in paths and reads every supported
// file. Documents come back in path order, pages in page order. The first
// unreadable file aborts the load with a *domain.FileError.
func (l *Loader) Load(ctx context.Context, paths []string) ([]domain.Document, error) {
	files, err := expand(paths)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, ErrNoDocuments)
	}

	results := make([][]domain.Document, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(l.parallel)
	for i, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			docs, err := l.loadFile(f)
			if err != nil {
				return &domain.FileError{Path: f, Err: err}
			}
			results[i] = docs
			l.log.Debug("loaded file", zap.String("path", f), zap.Int("documents", len(docs)))
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []domain.Document
	for _, docs := range results {
		out = append(out, docs...)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %w", domain.ErrIngestion, ErrNoDocuments)
	}
	l.log.Info("loaded documents", zap.Int("files", len(files)), zap.Int("documents", len(out)))
	return out, nil
}

// expand resolves globs and walks directories. Explicit files are kept even
// when unsupported so the caller gets an error naming them; files found by
// walking are filtered by extension.
func expand(paths []string) ([]string, error) {
	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	for _, p := range paths {
		matches, err := filepath.Glob(p)
		if err != nil || matches == nil {
			matches = []string{p}
		}
		sort.Strings(matches)
		for _, m := range matches {
			info, err := os.Stat(m)
			if err != nil {
				return nil, &domain.FileError{Path: m, Err: err}
			}
			if !info.IsDir() {
				add(m)
				continue
			}
			err = filepath.WalkDir(m, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return err
				}
				if !d.IsDir() && Supported(path) {
					add(path)
				}
				return nil
			})
			if err != nil {
				return nil, &domain.FileError{Path: m, Err: err}
			}
		}
	}
	return out, nil
}

func (l *Loader) loadFile(path string) ([]domain.Document, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch {
	case textExts[ext]:
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(string(data)) == "" {
			return nil, nil
		}
		return []domain.Document{{ID: documentID(path), Path: path, Content: string(data)}}, nil
	case ext == ".pdf" && l.layout:
		return loadPDFLayout(path)
	case ext == ".pdf":
		return loadPDF(path)
	case ext == ".docx":
		text, _, err := tabula.Open(path).Text()
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(text) == "" {
			return nil, nil
		}
		return []domain.Document{{ID: documentID(path), Path: path, Content: text}}, nil
	default:
		return nil, fmt.Errorf("%w %q", ErrUnsupported, ext)
	}
}

func loadPDF(path string) ([]domain.Document, error) {
	ext := tabula.Open(path)
	n, err := ext.PageCount()
	_ = ext.Close()
	if err != nil {
		return nil, err
	}
	id := documentID(path)
	var docs []domain.Document
	for p := 1; p <= n; p++ {
		// Text is terminal and closes its reader, so each page gets its own extractor.
		text, _, err := tabula.Open(path).Pages(p).Text()
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", p, err)
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		page := p
		docs = append(docs, domain.Document{
			ID:      fmt.Sprintf("%s-p%d", id, p),
			Path:    path,
			Content: text,
			Page:    &page,
		})
	}
	return docs, nil
}

func loadPDFLayout(path string) ([]domain.Document, error) {
	coll, _, err := tabula.Open(path).ExcludeHeadersAndFooters().Chunks()
	if err != nil {
		return nil, err
	}
	id := documentID(path)
	var docs []domain.Document
	for i, c := range coll.Chunks {
		text := c.TextWithContext
		if text == "" {
			text = c.Text
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		doc := domain.Document{ID: fmt.Sprintf("%s-c%d", id, i), Path: path, Content: text}
		if p := c.Metadata.PageStart; p > 0 {
			doc.Page = &p
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

func documentID(path string) string {
	h := sha1.Sum([]byte(path))
	return hex.EncodeToString(h[:8])
}
