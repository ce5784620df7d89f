package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/orebase/mining-intel/internal/model"
)

// BatchResult summarizes a batch ingest across projects.
type BatchResult struct {
	Projects  int `json:"projects"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
}

// RunBatch ingests several projects concurrently, bounded by maxConcurrent.
// A failed project is counted and logged but does not abort the batch; the
// shared fetcher's rate limiters keep concurrent runs polite to the document
// hosts.
func (p *Pipeline) RunBatch(ctx context.Context, projects []model.Project, maxConcurrent int) (*BatchResult, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 4
	}

	result := &BatchResult{Projects: len(projects)}
	var mu sync.Mutex

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	for i := range projects {
		project := projects[i]
		g.Go(func() error {
			if gCtx.Err() != nil {
				return gCtx.Err()
			}
			_, err := p.Run(gCtx, &project)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.Failed++
				zap.L().Error("batch: project ingest failed",
					zap.String("project", project.Name),
					zap.Error(err),
				)
				return nil
			}
			result.Succeeded++
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return result, err
	}

	zap.L().Info("batch: complete",
		zap.Int("projects", result.Projects),
		zap.Int("succeeded", result.Succeeded),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}
