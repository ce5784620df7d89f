package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/orebase/mining-intel/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	company    TEXT NOT NULL DEFAULT '',
	ticker     TEXT NOT NULL DEFAULT '',
	country    TEXT NOT NULL DEFAULT '',
	urls       TEXT NOT NULL DEFAULT '[]',
	record     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now')),
	UNIQUE(name, company)
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	url        TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'pdf',
	status     TEXT NOT NULL DEFAULT 'pending',
	page_count INTEGER NOT NULL DEFAULT 0,
	fetched_at DATETIME,
	UNIQUE(project_id, url)
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	project_id TEXT NOT NULL REFERENCES projects(id),
	status     TEXT NOT NULL DEFAULT 'queued',
	result     TEXT,
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_projects_company ON projects(company);
CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);
CREATE INDEX IF NOT EXISTS idx_runs_project_id ON runs(project_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	urlsJSON, err := json.Marshal(p.URLs)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: marshal urls")
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, company, ticker, country, urls, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(name, company) DO UPDATE SET
			ticker = excluded.ticker,
			country = excluded.country,
			urls = excluded.urls,
			updated_at = excluded.updated_at`,
		id, p.Name, p.Company, p.Ticker, p.Country, string(urlsJSON), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert project %s", p.Name)
	}

	return s.FindProject(ctx, p.Name, p.Company)
}

func (s *SQLiteStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, company, ticker, country, urls, record, created_at, updated_at
		 FROM projects WHERE id = ?`, id)
	return scanProject(row)
}

func (s *SQLiteStore) FindProject(ctx context.Context, name, company string) (*model.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, company, ticker, country, urls, record, created_at, updated_at
		 FROM projects WHERE name = ? AND company = ?`, name, company)
	return scanProject(row)
}

func (s *SQLiteStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := `SELECT id, name, company, ticker, country, urls, record, created_at, updated_at
		 FROM projects WHERE 1=1`
	var args []any

	if filter.Company != "" {
		query += ` AND company = ?`
		args = append(args, filter.Company)
	}
	if filter.Country != "" {
		query += ` AND country = ?`
		args = append(args, filter.Country)
	}
	query += ` ORDER BY name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "sqlite: list projects iterate")
}

func (s *SQLiteStore) UpdateProjectRecord(ctx context.Context, projectID string, rec *model.MergedRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal record")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE projects SET record = ?, updated_at = ? WHERE id = ?`,
		string(recJSON), time.Now().UTC(), projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update project record %s", projectID)
	}
	return checkRowsAffected(res, "project", projectID)
}

func (s *SQLiteStore) UpsertDocument(ctx context.Context, d *model.Document) (*model.Document, error) {
	id := d.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := d.Status
	if status == "" {
		status = model.DocStatusPending
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO documents (id, project_id, url, kind, status, page_count)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(project_id, url) DO UPDATE SET kind = excluded.kind`,
		id, d.ProjectID, d.URL, d.Kind, status, d.PageCount,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: upsert document %s", d.URL)
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, url, kind, status, page_count, fetched_at
		 FROM documents WHERE project_id = ? AND url = ?`, d.ProjectID, d.URL)
	return scanDocument(row)
}

func (s *SQLiteStore) ListDocuments(ctx context.Context, projectID string) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, url, kind, status, page_count, fetched_at
		 FROM documents WHERE project_id = ? ORDER BY url`, projectID)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "sqlite: list documents iterate")
}

func (s *SQLiteStore) UpdateDocumentStatus(ctx context.Context, docID, status string, pageCount int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE documents SET status = ?, page_count = ?, fetched_at = ? WHERE id = ?`,
		status, pageCount, time.Now().UTC(), docID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update document status %s", docID)
	}
	return checkRowsAffected(res, "document", docID)
}

func (s *SQLiteStore) CreateRun(ctx context.Context, projectID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, project_id, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, projectID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: insert run for project %s", projectID)
	}

	return &model.Run{
		ID:        id,
		ProjectID: projectID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: update run status %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal result")
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET result = ?, status = ?, updated_at = ? WHERE id = ?`,
		string(resultJSON), string(model.RunStatusCompleted), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, status, result, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, project_id, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any

	if filter.Status != "" {
		query += ` AND status = ?`
		args = append(args, string(filter.Status))
	}
	if filter.ProjectID != "" {
		query += ` AND project_id = ?`
		args = append(args, filter.ProjectID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ?`
	args = append(args, limit)

	if filter.Offset > 0 {
		query += ` OFFSET ?`
		args = append(args, filter.Offset)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanProject(row scannable) (*model.Project, error) {
	var p model.Project
	var urlsJSON string
	var recordJSON sql.NullString

	err := row.Scan(&p.ID, &p.Name, &p.Company, &p.Ticker, &p.Country, &urlsJSON, &recordJSON, &p.CreatedAt, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("project not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan project")
	}

	if err := json.Unmarshal([]byte(urlsJSON), &p.URLs); err != nil {
		return nil, eris.Wrap(err, "unmarshal project urls")
	}
	if recordJSON.Valid {
		p.Record = &model.MergedRecord{}
		if err := json.Unmarshal([]byte(recordJSON.String), p.Record); err != nil {
			return nil, eris.Wrap(err, "unmarshal project record")
		}
	}
	return &p, nil
}

func scanDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var fetchedAt sql.NullTime

	err := row.Scan(&d.ID, &d.ProjectID, &d.URL, &d.Kind, &d.Status, &d.PageCount, &fetchedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan document")
	}
	if fetchedAt.Valid {
		d.FetchedAt = fetchedAt.Time
	}
	return &d, nil
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var resultJSON sql.NullString

	err := row.Scan(&r.ID, &r.ProjectID, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "scan run")
	}

	if resultJSON.Valid {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal([]byte(resultJSON.String), r.Result); err != nil {
			return nil, eris.Wrap(err, "unmarshal run result")
		}
	}
	return &r, nil
}
