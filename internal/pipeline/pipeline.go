// Package pipeline orchestrates the document flow for one project: fetch,
// text extraction, relevance selection, LLM extraction, merge, and persist.
package pipeline

import (
	"context"
	"os"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/orebase/mining-intel/internal/config"
	"github.com/orebase/mining-intel/internal/extract"
	"github.com/orebase/mining-intel/internal/fetcher"
	"github.com/orebase/mining-intel/internal/merge"
	"github.com/orebase/mining-intel/internal/model"
	"github.com/orebase/mining-intel/internal/ocr"
	"github.com/orebase/mining-intel/internal/segment"
	"github.com/orebase/mining-intel/internal/store"
)

// Pipeline wires the stages of an ingest run together.
type Pipeline struct {
	cfg       *config.Config
	store     store.Store
	fetcher   fetcher.Fetcher
	ocr       ocr.Provider
	selector  *segment.Selector
	extractor *extract.Extractor
	merger    *merge.Merger
}

// New creates a Pipeline with all dependencies.
func New(
	cfg *config.Config,
	st store.Store,
	f fetcher.Fetcher,
	ocrProvider ocr.Provider,
	selector *segment.Selector,
	extractor *extract.Extractor,
	merger *merge.Merger,
) *Pipeline {
	return &Pipeline{
		cfg:       cfg,
		store:     st,
		fetcher:   f,
		ocr:       ocrProvider,
		selector:  selector,
		extractor: extractor,
		merger:    merger,
	}
}

// Run ingests every source document of a project, merges the per-document
// records, and writes the canonical record. Individual document failures are
// recorded as skips; the run fails only on infrastructure errors.
func (p *Pipeline) Run(ctx context.Context, project *model.Project) (*model.RunResult, error) {
	log := zap.L().With(zap.String("project", project.Name), zap.String("company", project.Company))
	log.Info("pipeline: starting ingest", zap.Int("documents", len(project.URLs)))
	start := time.Now()

	run, err := p.store.CreateRun(ctx, project.ID)
	if err != nil {
		return nil, eris.Wrap(err, "pipeline: create run")
	}
	if err := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning); err != nil {
		log.Warn("pipeline: failed to update run status", zap.Error(err))
	}

	fail := func(err error) (*model.RunResult, error) {
		if statusErr := p.store.UpdateRunStatus(ctx, run.ID, model.RunStatusFailed); statusErr != nil {
			log.Warn("pipeline: failed to mark run failed", zap.Error(statusErr))
		}
		return nil, err
	}

	tempDir := p.cfg.Fetch.TempDir
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	if err := os.MkdirAll(tempDir, 0o755); err != nil {
		return fail(eris.Wrapf(err, "pipeline: create temp dir %s", tempDir))
	}

	result := &model.RunResult{DocumentsTotal: len(project.URLs)}
	var records []*model.DocumentRecord

	for _, url := range project.URLs {
		rec, pages, err := p.processDocument(ctx, project, url, tempDir)

		doc, docErr := p.store.UpsertDocument(ctx, &model.Document{
			ProjectID: project.ID,
			URL:       url,
			Kind:      fetcher.GuessKindFromURL(url),
		})
		if docErr != nil {
			return fail(eris.Wrap(docErr, "pipeline: upsert document"))
		}

		if err != nil {
			log.Warn("pipeline: document skipped", zap.String("url", url), zap.Error(err))
			result.DocumentsSkipped++
			if statusErr := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocStatusSkipped, 0); statusErr != nil {
				log.Warn("pipeline: failed to update document status", zap.Error(statusErr))
			}
			continue
		}

		if ctx.Err() != nil {
			return fail(eris.Wrap(ctx.Err(), "pipeline: cancelled"))
		}

		result.DocumentsExtracted++
		if statusErr := p.store.UpdateDocumentStatus(ctx, doc.ID, model.DocStatusExtracted, pages); statusErr != nil {
			log.Warn("pipeline: failed to update document status", zap.Error(statusErr))
		}
		records = append(records, rec)
	}

	merged := p.merger.Merge(records)
	result.Merged = merged
	result.FieldsPopulated = model.FieldsPopulatedIn(merged)
	result.DurationMillis = time.Since(start).Milliseconds()

	if err := p.store.UpdateProjectRecord(ctx, project.ID, merged); err != nil {
		return fail(eris.Wrap(err, "pipeline: write canonical record"))
	}
	if err := p.store.CompleteRun(ctx, run.ID, result); err != nil {
		return fail(eris.Wrap(err, "pipeline: complete run"))
	}

	log.Info("pipeline: ingest complete",
		zap.Int("documents_extracted", result.DocumentsExtracted),
		zap.Int("documents_skipped", result.DocumentsSkipped),
		zap.Int("fields_populated", result.FieldsPopulated),
		zap.Int64("duration_ms", result.DurationMillis),
	)
	return result, nil
}

// processDocument turns one source URL into a DocumentRecord. Returns the
// record, the document's page count, and an error when the document could not
// be read at all.
func (p *Pipeline) processDocument(ctx context.Context, project *model.Project, url, tempDir string) (*model.DocumentRecord, int, error) {
	doc, err := p.fetcher.FetchDocument(ctx, url, tempDir)
	if err != nil {
		return nil, 0, eris.Wrapf(err, "fetch %s", url)
	}
	defer os.Remove(doc.Path) //nolint:errcheck

	var text string
	pages := 0
	switch doc.Kind {
	case "pdf":
		res, ocrErr := p.ocr.ExtractText(ctx, doc.Path)
		if ocrErr != nil {
			return nil, 0, eris.Wrapf(ocrErr, "ocr %s", url)
		}
		text = res.Text
		pages = res.Pages
	default:
		raw, readErr := os.ReadFile(doc.Path)
		if readErr != nil {
			return nil, 0, eris.Wrapf(readErr, "read %s", url)
		}
		text = ocr.StripHTML(string(raw))
	}

	// A document with no relevant text is not worth an LLM call.
	relevant := p.selector.Select(text)
	if relevant == "" || len(relevant) < p.cfg.Extract.MinRelevantTextLen {
		return nil, 0, eris.Errorf("insufficient relevant text in %s (%d chars)", url, len(relevant))
	}

	rec := p.extractor.Extract(ctx, relevant, extract.Context{
		ProjectName: project.Name,
		CompanyName: project.Company,
		SourceURL:   url,
	})
	return rec, pages, nil
}
