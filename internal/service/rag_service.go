// Package service is the caller-facing API of the orchestrator. It wires the
// fragment store, relevance classifier, workflow selector, pipeline executor
// and out-of-context responder into a single Answer call.
package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/fallback"
	"github.com/simiyu-dess/OnboardIQ/internal/fragstore"
	"github.com/simiyu-dess/OnboardIQ/internal/ingest"
	"github.com/simiyu-dess/OnboardIQ/internal/logging"
	"github.com/simiyu-dess/OnboardIQ/internal/pipeline"
	"github.com/simiyu-dess/OnboardIQ/internal/relevance"
	"github.com/simiyu-dess/OnboardIQ/internal/workflow"
)

// MaxReferences is how many retrieved fragments an Answer cites.
const MaxReferences = 3

// IndexReport describes a completed indexing call.
type IndexReport struct {
	Files     int
	Documents int
	Fragments int
	Summary   string
}

// Answer is the result of one query.
type Answer struct {
	RunID        string
	Text         string
	Workflow     workflow.Workflow
	OutOfContext bool
	// Degraded is set when the out-of-context reply fell back to the fixed apology.
	Degraded   bool
	Verdict    relevance.Verdict
	References []domain.Fragment
	Trace      []pipeline.StageRecord
}

// Deps are the collaborators of a RAGService. Loader, Chunker and
// Summarizer are needed only by IndexFiles.
type Deps struct {
	Store      *fragstore.Store
	Loader     *ingest.Loader
	Chunker    domain.Chunker
	Classifier *relevance.Classifier
	Selector   *workflow.Selector
	Executor   *pipeline.Executor
	Responder  *fallback.Responder
	Summarizer domain.Summarizer
	// SummarySentences bounds the corpus summary produced by IndexFiles.
	SummarySentences int
	Logger           *zap.Logger
}

// RAGService answers questions against the indexed collection.
type RAGService struct {
	store        *fragstore.Store
	loader       *ingest.Loader
	chunker      domain.Chunker
	classifier   *relevance.Classifier
	selector     *workflow.Selector
	executor     *pipeline.Executor
	responder    *fallback.Responder
	summarizer   domain.Summarizer
	summaryMax   int
	log          *zap.Logger
	closers      []func() error
	outOfContext atomic.Int64
}

// New assembles a service from deps.
func New(deps Deps) *RAGService {
	return &RAGService{
		store:      deps.Store,
		loader:     deps.Loader,
		chunker:    deps.Chunker,
		classifier: deps.Classifier,
		selector:   deps.Selector,
		executor:   deps.Executor,
		responder:  deps.Responder,
		summarizer: deps.Summarizer,
		summaryMax: deps.SummarySentences,
		log:        logging.OrNop(deps.Logger).Named("service"),
	}
}

// IndexDocuments stores pre-split fragments. With clearExisting the previous
// collection is destroyed first, even if storing then fails.
func (s *RAGService) IndexDocuments(ctx context.Context, fragments []domain.Fragment, clearExisting bool) (IndexReport, error) {
	n, err := s.store.Index(ctx, fragments, clearExisting)
	if err != nil {
		s.logIndexFailure(err, clearExisting)
		return IndexReport{}, err
	}
	return IndexReport{Fragments: n}, nil
}

// IndexFiles loads, splits and stores the files named by paths (globs and
// directories are expanded), then summarizes the corpus.
func (s *RAGService) IndexFiles(ctx context.Context, paths []string, clearExisting bool) (IndexReport, error) {
	if s.loader == nil || s.chunker == nil {
		return IndexReport{}, fmt.Errorf("%w: file ingestion is not configured", domain.ErrIngestion)
	}
	docs, err := s.loader.Load(ctx, paths)
	if err != nil {
		return IndexReport{}, err
	}

	files := make(map[string]struct{})
	var fragments []domain.Fragment
	for _, d := range docs {
		files[d.Path] = struct{}{}
		frags, err := s.chunker.Chunk(d)
		if err != nil {
			return IndexReport{}, &domain.FileError{Path: d.Path, Err: err}
		}
		fragments = append(fragments, frags...)
	}

	report, err := s.IndexDocuments(ctx, fragments, clearExisting)
	if err != nil {
		return IndexReport{}, err
	}
	report.Files = len(files)
	report.Documents = len(docs)
	if s.summarizer != nil {
		summary, err := s.summarizer.Summarize(fragments, s.summaryMax)
		if err != nil {
			s.log.Warn("corpus summary failed", zap.Error(err))
		}
		report.Summary = summary
	}
	s.log.Info("indexed files",
		zap.Int("files", report.Files),
		zap.Int("documents", report.Documents),
		zap.Int("fragments", report.Fragments))
	return report, nil
}

func (s *RAGService) logIndexFailure(err error, cleared bool) {
	if cleared && errors.Is(err, domain.ErrIngestion) {
		s.log.Error("indexing failed after the collection was cleared; it is now empty and must be re-indexed", zap.Error(err))
		return
	}
	s.log.Error("indexing failed", zap.Error(err))
}

// Retrieve returns the fragments most similar to query.
func (s *RAGService) Retrieve(ctx context.Context, query string) ([]domain.Fragment, error) {
	return s.store.Retrieve(ctx, query)
}

// Classify runs the relevance heuristic on already retrieved fragments.
func (s *RAGService) Classify(query string, fragments []domain.Fragment) relevance.Verdict {
	return s.classifier.Check(query, fragments)
}

// Answer retrieves context for query and either runs the selected reasoning
// pipeline or, when the context does not cover the query, replies through the
// out-of-context responder. The collection cannot change while it runs.
func (s *RAGService) Answer(ctx context.Context, query string) (Answer, error) {
	ans := Answer{RunID: uuid.NewString()}
	log := s.log.With(zap.String("run_id", ans.RunID))

	err := s.store.WithRetrieved(ctx, query, func(frags []domain.Fragment) error {
		ans.References = frags[:min(len(frags), MaxReferences)]
		ans.Verdict = s.classifier.Check(query, frags)

		if !ans.Verdict.IsRelevant {
			s.outOfContext.Add(1)
			log.Info("out-of-context query", zap.String("query", query), zap.String("explanation", ans.Verdict.Explanation))
			reply := s.responder.Respond(ctx, query, ans.Verdict.Explanation)
			ans.Text = reply.Text
			ans.OutOfContext = true
			ans.Degraded = reply.Degraded
			return nil
		}

		wf, keyword := s.selector.Match(query)
		ans.Workflow = wf
		spec := pipeline.Standard(query, frags)
		if wf == workflow.Analytical {
			spec = pipeline.Analytical(query, frags)
		}
		log.Info("running pipeline",
			zap.String("workflow", string(wf)),
			zap.String("keyword", keyword),
			zap.Float64("relevance", ans.Verdict.Score))

		res, err := s.executor.Run(ctx, spec)
		if err != nil {
			return fmt.Errorf("answer %q: %w", query, err)
		}
		ans.Text = res.Output
		ans.Trace = res.Trace
		return nil
	})
	if err != nil {
		log.Error("answer failed", zap.String("query", query), zap.Error(err))
		return Answer{}, err
	}
	return ans, nil
}

// DocumentCount returns the number of stored fragments.
func (s *RAGService) DocumentCount(ctx context.Context) (int, error) {
	return s.store.Count(ctx)
}

// ClearAll destroys the collection. Calling it on an empty store succeeds.
func (s *RAGService) ClearAll(ctx context.Context) error {
	return s.store.Clear(ctx)
}

// OutOfContextCount reports how many queries were answered out of context
// since the service started.
func (s *RAGService) OutOfContextCount() int64 {
	return s.outOfContext.Load()
}

// Close releases resources acquired by Build.
func (s *RAGService) Close() error {
	var errs []error
	for _, c := range s.closers {
		errs = append(errs, c())
	}
	return errors.Join(errs...)
}
