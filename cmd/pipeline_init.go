package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/extract"
	"github.com/orebase/mining-intel/internal/fetcher"
	"github.com/orebase/mining-intel/internal/merge"
	"github.com/orebase/mining-intel/internal/ocr"
	"github.com/orebase/mining-intel/internal/patterns"
	"github.com/orebase/mining-intel/internal/pipeline"
	"github.com/orebase/mining-intel/internal/resilience"
	"github.com/orebase/mining-intel/internal/segment"
	"github.com/orebase/mining-intel/internal/store"
	anthropicpkg "github.com/orebase/mining-intel/pkg/anthropic"
)

// pipelineEnv holds the store and fully wired pipeline needed by the
// ingest/batch/serve commands.
type pipelineEnv struct {
	Store    store.Store
	Pipeline *pipeline.Pipeline
}

// Close releases resources held by the pipeline environment.
func (pe *pipelineEnv) Close() {
	if pe.Store != nil {
		_ = pe.Store.Close()
	}
}

func initStore(ctx context.Context) (store.Store, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		dsn := cfg.Store.DatabaseURL
		if dsn == "" {
			dsn = "mining-intel.db"
		}
		return store.NewSQLite(dsn)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, &store.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// initPipeline sets up the store, document fetcher, OCR provider, pattern
// library, and the Anthropic client, and builds the Pipeline. Callers should
// defer env.Close().
func initPipeline(ctx context.Context) (*pipelineEnv, error) {
	if cfg.Anthropic.Key == "" {
		return nil, eris.New("anthropic API key is required (MINTEL_ANTHROPIC_KEY)")
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}

	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	httpFetcher := fetcher.NewHTTPFetcher(fetcher.HTTPOptions{
		UserAgent:  cfg.Fetch.UserAgent,
		Timeout:    time.Duration(cfg.Fetch.TimeoutSecs) * time.Second,
		MaxRetries: cfg.Fetch.MaxRetries,
	})

	ocrProvider, err := ocr.NewProvider(ocr.Options{
		Provider:      cfg.OCR.Provider,
		PdfToTextPath: cfg.OCR.PdfToTextPath,
		MistralAPIKey: cfg.OCR.MistralKey,
		MistralModel:  cfg.OCR.MistralModel,
	})
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	lib := patterns.Default()
	if cfg.Segment.PatternsFile != "" {
		lib, err = patterns.Load(cfg.Segment.PatternsFile)
		if err != nil {
			_ = st.Close()
			return nil, eris.Wrap(err, "load pattern library")
		}
		zap.L().Info("pattern library loaded from file",
			zap.String("path", cfg.Segment.PatternsFile),
		)
	}
	selector := segment.NewSelector(lib, cfg.Segment.ChunkSize, cfg.Segment.Budget)

	anthropicClient := anthropicpkg.NewClient(cfg.Anthropic.Key)
	extractor := extract.New(anthropicClient, extract.Config{
		Model:       cfg.Anthropic.Model,
		MaxTokens:   cfg.Anthropic.MaxTokens,
		Temperature: cfg.Anthropic.Temperature,
		CallTimeout: time.Duration(cfg.Anthropic.CallTimeoutSecs) * time.Second,
		Retry:       resilience.DefaultRetryConfig(),
		Policy: extract.PassPolicy{
			TriggerFields: cfg.Extract.TriggerFields,
			MinTextLen:    cfg.Extract.MinPassTextLen,
			MaxPasses:     cfg.Extract.MaxPasses,
		},
	})

	mergeOpts := []merge.Option{}
	if cfg.Merge.CategoricalPolicy == "last" {
		mergeOpts = append(mergeOpts, merge.WithCategoricalPolicy(merge.LastNonNull))
	}
	merger := merge.New(mergeOpts...)

	p := pipeline.New(cfg, st, httpFetcher, ocrProvider, selector, extractor, merger)

	return &pipelineEnv{Store: st, Pipeline: p}, nil
}
