package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/simiyu-dess/OnboardIQ/internal/chunker"
	"github.com/simiyu-dess/OnboardIQ/internal/config"
	"github.com/simiyu-dess/OnboardIQ/internal/domain"
	"github.com/simiyu-dess/OnboardIQ/internal/embedding"
	"github.com/simiyu-dess/OnboardIQ/internal/fallback"
	"github.com/simiyu-dess/OnboardIQ/internal/fragstore"
	"github.com/simiyu-dess/OnboardIQ/internal/generation"
	"github.com/simiyu-dess/OnboardIQ/internal/ingest"
	"github.com/simiyu-dess/OnboardIQ/internal/pipeline"
	"github.com/simiyu-dess/OnboardIQ/internal/relevance"
	"github.com/simiyu-dess/OnboardIQ/internal/summarizer"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore/memory"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore/qdrant"
	"github.com/simiyu-dess/OnboardIQ/internal/vectorstore/sqlite"
	"github.com/simiyu-dess/OnboardIQ/internal/workflow"
)

// Build wires a service from configuration, creating the embedder, vector
// store and generator it names. Call Close on the result when done.
func Build(ctx context.Context, cfg *config.AppConfig, log *zap.Logger) (*RAGService, error) {
	emb, err := embedding.New(ctx, cfg.Embedder)
	if err != nil {
		return nil, fmt.Errorf("embedder: %w", err)
	}
	gen, err := generation.New(ctx, cfg.Generator)
	if err != nil {
		return nil, fmt.Errorf("generator: %w", err)
	}
	return BuildWith(cfg, emb, gen, log)
}

// BuildWith is Build with the embedder and generator supplied by the caller.
func BuildWith(cfg *config.AppConfig, emb domain.Embedder, gen domain.Generator, log *zap.Logger) (*RAGService, error) {
	store, closeStore, err := newStorage(cfg.VectorStore)
	if err != nil {
		return nil, fmt.Errorf("vector store: %w", err)
	}
	ch, err := chunker.New(cfg.Chunker)
	if err != nil {
		return nil, err
	}

	threshold := relevance.DefaultThreshold
	if cfg.Relevance.Threshold != nil {
		threshold = *cfg.Relevance.Threshold
	}

	svc := New(Deps{
		Store:            fragstore.New(emb, store, cfg.Retrieval.TopK, log),
		Loader:           ingest.NewLoader(cfg.Ingest.Parallel, log).WithLayout(cfg.Ingest.PDFLayout),
		Chunker:          ch,
		Classifier:       relevance.New(threshold, cfg.Relevance.MinKeyTermLength),
		Selector:         workflow.NewSelector(workflow.AnalyticalTable(cfg.Workflow.AnalyticalKeywords)),
		Executor:         pipeline.NewExecutor(gen, cfg.Pipeline.Temperature, log),
		Responder:        fallback.NewResponder(gen, cfg.Pipeline.Temperature, log),
		Summarizer:       summarizer.NewFrequencySummarizer(),
		SummarySentences: cfg.Summarizer.MaxSentences,
		Logger:           log,
	})
	if closeStore != nil {
		svc.closers = append(svc.closers, closeStore)
	}
	return svc, nil
}

func newStorage(cfg config.VectorStoreConfig) (vectorstore.Storage, func() error, error) {
	switch cfg.Type {
	case "memory":
		return memory.NewStorage(), nil, nil
	case "sqlite":
		dir := "./onboardiq_db"
		if cfg.SQLite != nil && cfg.SQLite.Dir != "" {
			dir = cfg.SQLite.Dir
		}
		s := sqlite.NewStorage(dir)
		return s, s.Close, nil
	case "qdrant":
		if cfg.Qdrant == nil || cfg.Qdrant.URL == "" {
			return nil, nil, fmt.Errorf("vector_store type qdrant requires qdrant.url")
		}
		return qdrant.NewStorage(qdrant.Config{
			URL:        cfg.Qdrant.URL,
			APIKey:     cfg.Qdrant.APIKey,
			Collection: cfg.Qdrant.Collection,
			Timeout:    time.Duration(cfg.Qdrant.TimeoutSecs) * time.Second,
		}), nil, nil
	default:
		return nil, nil, fmt.Errorf("unknown vector store type %q", cfg.Type)
	}
}
