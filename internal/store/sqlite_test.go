package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orebase/mining-intel/internal/model"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	require.NoError(t, s.Migrate(context.Background()))
	return s
}

func seedProject(t *testing.T, s *SQLiteStore) *model.Project {
	t.Helper()
	p, err := s.UpsertProject(context.Background(), &model.Project{
		Name:    "Fourmile",
		Company: "Barrick Gold",
		Ticker:  "GOLD",
		Country: "USA",
		URLs:    []string{"https://a.example/r1.pdf"},
	})
	require.NoError(t, err)
	return p
}

func TestSQLiteUpsertProjectRoundTrip(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	assert.NotEmpty(t, p.ID)
	assert.Equal(t, "Fourmile", p.Name)
	assert.Equal(t, []string{"https://a.example/r1.pdf"}, p.URLs)

	got, err := s.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, got.ID)
	assert.Equal(t, "GOLD", got.Ticker)
	assert.Nil(t, got.Record)
}

func TestSQLiteUpsertProjectKeepsIDOnConflict(t *testing.T) {
	s := newTestStore(t)
	first := seedProject(t, s)

	second, err := s.UpsertProject(context.Background(), &model.Project{
		Name:    "Fourmile",
		Company: "Barrick Gold",
		Country: "United States",
		URLs:    []string{"https://a.example/r1.pdf", "https://a.example/r2.pdf"},
	})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "re-import keeps the project identity")
	assert.Equal(t, "United States", second.Country)
	assert.Len(t, second.URLs, 2)
}

func TestSQLiteUpdateProjectRecord(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	rec := &model.MergedRecord{
		SourceURLs:  []string{"https://a.example/r1.pdf"},
		NPV:         model.Float(1200),
		IRR:         model.Float(22.5),
		Location:    model.String("Nevada, USA"),
		Commodities: []string{"Gold"},
	}
	require.NoError(t, s.UpdateProjectRecord(context.Background(), p.ID, rec))

	got, err := s.GetProject(context.Background(), p.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Record)
	assert.Equal(t, 1200.0, *got.Record.NPV)
	assert.Equal(t, 22.5, *got.Record.IRR)
	assert.Nil(t, got.Record.Capex, "absent fields stay null through storage")
	assert.Equal(t, []string{"Gold"}, got.Record.Commodities)
}

func TestSQLiteUpdateProjectRecordNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateProjectRecord(context.Background(), "nope", &model.MergedRecord{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "project not found")
}

func TestSQLiteListProjects(t *testing.T) {
	s := newTestStore(t)
	seedProject(t, s)
	_, err := s.UpsertProject(context.Background(), &model.Project{
		Name: "Oyu Tolgoi", Company: "Rio Tinto", Country: "Mongolia",
	})
	require.NoError(t, err)

	all, err := s.ListProjects(context.Background(), ProjectFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	usa, err := s.ListProjects(context.Background(), ProjectFilter{Country: "USA"})
	require.NoError(t, err)
	require.Len(t, usa, 1)
	assert.Equal(t, "Fourmile", usa[0].Name)

	limited, err := s.ListProjects(context.Background(), ProjectFilter{Limit: 1})
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestSQLiteDocumentLifecycle(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)

	d, err := s.UpsertDocument(context.Background(), &model.Document{
		ProjectID: p.ID,
		URL:       "https://a.example/r1.pdf",
		Kind:      "pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, model.DocStatusPending, d.Status)

	// Same URL upserts to the same row.
	again, err := s.UpsertDocument(context.Background(), &model.Document{
		ProjectID: p.ID,
		URL:       "https://a.example/r1.pdf",
		Kind:      "html",
	})
	require.NoError(t, err)
	assert.Equal(t, d.ID, again.ID)
	assert.Equal(t, "html", again.Kind)

	require.NoError(t, s.UpdateDocumentStatus(context.Background(), d.ID, model.DocStatusExtracted, 240))

	docs, err := s.ListDocuments(context.Background(), p.ID)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, model.DocStatusExtracted, docs[0].Status)
	assert.Equal(t, 240, docs[0].PageCount)
	assert.False(t, docs[0].FetchedAt.IsZero())
}

func TestSQLiteRunLifecycle(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()

	run, err := s.CreateRun(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusQueued, run.Status)

	require.NoError(t, s.UpdateRunStatus(ctx, run.ID, model.RunStatusRunning))

	result := &model.RunResult{
		DocumentsTotal:     2,
		DocumentsExtracted: 1,
		DocumentsSkipped:   1,
		FieldsPopulated:    5,
		DurationMillis:     1234,
	}
	require.NoError(t, s.CompleteRun(ctx, run.ID, result))

	got, err := s.GetRun(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RunStatusCompleted, got.Status)
	require.NotNil(t, got.Result)
	assert.Equal(t, 2, got.Result.DocumentsTotal)
	assert.Equal(t, int64(1234), got.Result.DurationMillis)
}

func TestSQLiteListRunsFilter(t *testing.T) {
	s := newTestStore(t)
	p := seedProject(t, s)
	ctx := context.Background()

	r1, err := s.CreateRun(ctx, p.ID)
	require.NoError(t, err)
	_, err = s.CreateRun(ctx, p.ID)
	require.NoError(t, err)
	require.NoError(t, s.UpdateRunStatus(ctx, r1.ID, model.RunStatusFailed))

	failed, err := s.ListRuns(ctx, RunFilter{Status: model.RunStatusFailed})
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Equal(t, r1.ID, failed[0].ID)

	byProject, err := s.ListRuns(ctx, RunFilter{ProjectID: p.ID})
	require.NoError(t, err)
	assert.Len(t, byProject, 2)
}

func TestSQLiteRunNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.UpdateRunStatus(context.Background(), "missing", model.RunStatusRunning)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run not found")

	_, err = s.GetRun(context.Background(), "missing")
	require.Error(t, err)
}
