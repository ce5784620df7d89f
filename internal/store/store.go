// Package store persists projects, source documents, ingest runs, and the
// canonical merged records. Two implementations exist: PostgreSQL for shared
// deployments and SQLite for single-analyst use.
package store

import (
	"context"
	"strings"

	"github.com/orebase/mining-intel/internal/model"
)

// IsNotFound reports whether err is a missing-row error from either store
// backend. Both backends phrase these as "<entity> not found".
func IsNotFound(err error) bool {
	return err != nil && strings.Contains(err.Error(), "not found")
}

// ProjectFilter specifies criteria for listing projects.
type ProjectFilter struct {
	Company string `json:"company,omitempty"`
	Country string `json:"country,omitempty"`
	Limit   int    `json:"limit,omitempty"`
	Offset  int    `json:"offset,omitempty"`
}

// RunFilter specifies criteria for listing runs.
type RunFilter struct {
	Status    model.RunStatus `json:"status,omitempty"`
	ProjectID string          `json:"project_id,omitempty"`
	Limit     int             `json:"limit,omitempty"`
	Offset    int             `json:"offset,omitempty"`
}

// Store defines the persistence interface for the extraction pipeline.
type Store interface {
	// Projects
	UpsertProject(ctx context.Context, p *model.Project) (*model.Project, error)
	GetProject(ctx context.Context, id string) (*model.Project, error)
	FindProject(ctx context.Context, name, company string) (*model.Project, error)
	ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error)
	UpdateProjectRecord(ctx context.Context, projectID string, rec *model.MergedRecord) error

	// Documents
	UpsertDocument(ctx context.Context, d *model.Document) (*model.Document, error)
	ListDocuments(ctx context.Context, projectID string) ([]model.Document, error)
	UpdateDocumentStatus(ctx context.Context, docID, status string, pageCount int) error

	// Runs
	CreateRun(ctx context.Context, projectID string) (*model.Run, error)
	UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error
	CompleteRun(ctx context.Context, runID string, result *model.RunResult) error
	GetRun(ctx context.Context, runID string) (*model.Run, error)
	ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
