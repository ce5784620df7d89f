package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/orebase/mining-intel/internal/db"
	"github.com/orebase/mining-intel/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot-path store operations.
var preparedStatements = map[string]string{
	"get_project":           `SELECT id, name, company, ticker, country, urls, record, created_at, updated_at FROM projects WHERE id = $1`,
	"find_project":          `SELECT id, name, company, ticker, country, urls, record, created_at, updated_at FROM projects WHERE name = $1 AND company = $2`,
	"update_project_record": `UPDATE projects SET record = $1, updated_at = $2 WHERE id = $3`,
	"list_documents":        `SELECT id, project_id, url, kind, status, page_count, fetched_at FROM documents WHERE project_id = $1 ORDER BY url`,
	"update_doc_status":     `UPDATE documents SET status = $1, page_count = $2, fetched_at = $3 WHERE id = $4`,
	"insert_run":            `INSERT INTO runs (id, project_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
	"update_run_status":     `UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
	"complete_run":          `UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
	"get_run":               `SELECT id, project_id, status, result, created_at, updated_at FROM runs WHERE id = $1`,
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// Pool returns the underlying database pool for bulk import helpers.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS projects (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	name       TEXT NOT NULL,
	company    TEXT NOT NULL DEFAULT '',
	ticker     TEXT NOT NULL DEFAULT '',
	country    TEXT NOT NULL DEFAULT '',
	urls       JSONB NOT NULL DEFAULT '[]',
	record     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	UNIQUE(name, company)
);

CREATE TABLE IF NOT EXISTS documents (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id TEXT NOT NULL REFERENCES projects(id),
	url        TEXT NOT NULL,
	kind       TEXT NOT NULL DEFAULT 'pdf',
	status     TEXT NOT NULL DEFAULT 'pending',
	page_count INTEGER NOT NULL DEFAULT 0,
	fetched_at TIMESTAMPTZ,
	UNIQUE(project_id, url)
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	project_id TEXT NOT NULL REFERENCES projects(id),
	status     TEXT NOT NULL DEFAULT 'queued',
	result     JSONB,
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_projects_company ON projects(company);
CREATE INDEX IF NOT EXISTS idx_projects_country ON projects(country);
CREATE INDEX IF NOT EXISTS idx_documents_project_id ON documents(project_id);
CREATE INDEX IF NOT EXISTS idx_runs_project_id ON runs(project_id);
CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
`

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) UpsertProject(ctx context.Context, p *model.Project) (*model.Project, error) {
	id := p.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	urlsJSON, err := json.Marshal(p.URLs)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: marshal urls")
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO projects (id, name, company, ticker, country, urls, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (name, company) DO UPDATE SET
			ticker = EXCLUDED.ticker,
			country = EXCLUDED.country,
			urls = EXCLUDED.urls,
			updated_at = EXCLUDED.updated_at`,
		id, p.Name, p.Company, p.Ticker, p.Country, urlsJSON, now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert project %s", p.Name)
	}

	return s.FindProject(ctx, p.Name, p.Company)
}

func (s *PostgresStore) GetProject(ctx context.Context, id string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, company, ticker, country, urls, record, created_at, updated_at FROM projects WHERE id = $1`, id)
	return scanPgProject(row)
}

func (s *PostgresStore) FindProject(ctx context.Context, name, company string) (*model.Project, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, company, ticker, country, urls, record, created_at, updated_at FROM projects WHERE name = $1 AND company = $2`,
		name, company)
	return scanPgProject(row)
}

func (s *PostgresStore) ListProjects(ctx context.Context, filter ProjectFilter) ([]model.Project, error) {
	query := `SELECT id, name, company, ticker, country, urls, record, created_at, updated_at FROM projects WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Company != "" {
		query += ` AND company = ` + arg(filter.Company)
	}
	if filter.Country != "" {
		query += ` AND country = ` + arg(filter.Country)
	}
	query += ` ORDER BY name`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list projects")
	}
	defer rows.Close()

	var projects []model.Project
	for rows.Next() {
		p, err := scanPgProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, *p)
	}
	return projects, eris.Wrap(rows.Err(), "postgres: list projects iterate")
}

func (s *PostgresStore) UpdateProjectRecord(ctx context.Context, projectID string, rec *model.MergedRecord) error {
	recJSON, err := json.Marshal(rec)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal record")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE projects SET record = $1, updated_at = $2 WHERE id = $3`,
		recJSON, time.Now().UTC(), projectID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update project record %s", projectID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("project not found: %s", projectID)
	}
	return nil
}

func (s *PostgresStore) UpsertDocument(ctx context.Context, d *model.Document) (*model.Document, error) {
	id := d.ID
	if id == "" {
		id = uuid.New().String()
	}
	status := d.Status
	if status == "" {
		status = model.DocStatusPending
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO documents (id, project_id, url, kind, status, page_count)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (project_id, url) DO UPDATE SET kind = EXCLUDED.kind`,
		id, d.ProjectID, d.URL, d.Kind, status, d.PageCount,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: upsert document %s", d.URL)
	}

	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, url, kind, status, page_count, fetched_at FROM documents WHERE project_id = $1 AND url = $2`,
		d.ProjectID, d.URL)
	return scanPgDocument(row)
}

func (s *PostgresStore) ListDocuments(ctx context.Context, projectID string) ([]model.Document, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, project_id, url, kind, status, page_count, fetched_at FROM documents WHERE project_id = $1 ORDER BY url`,
		projectID)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list documents")
	}
	defer rows.Close()

	var docs []model.Document
	for rows.Next() {
		d, err := scanPgDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, *d)
	}
	return docs, eris.Wrap(rows.Err(), "postgres: list documents iterate")
}

func (s *PostgresStore) UpdateDocumentStatus(ctx context.Context, docID, status string, pageCount int) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE documents SET status = $1, page_count = $2, fetched_at = $3 WHERE id = $4`,
		status, pageCount, time.Now().UTC(), docID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update document status %s", docID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("document not found: %s", docID)
	}
	return nil
}

func (s *PostgresStore) CreateRun(ctx context.Context, projectID string) (*model.Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO runs (id, project_id, status, created_at, updated_at) VALUES ($1, $2, $3, $4, $5)`,
		id, projectID, string(model.RunStatusQueued), now, now,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: insert run for project %s", projectID)
	}

	return &model.Run{
		ID:        id,
		ProjectID: projectID,
		Status:    model.RunStatusQueued,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) UpdateRunStatus(ctx context.Context, runID string, status model.RunStatus) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, updated_at = $2 WHERE id = $3`,
		string(status), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: update run status %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, result *model.RunResult) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal result")
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET result = $1, status = $2, updated_at = $3 WHERE id = $4`,
		resultJSON, string(model.RunStatusCompleted), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, project_id, status, result, created_at, updated_at FROM runs WHERE id = $1`, runID)

	var r model.Run
	var resultJSON []byte
	err := row.Scan(&r.ID, &r.ProjectID, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run %s: run not found", runID)
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan run")
	}
	if len(resultJSON) > 0 {
		r.Result = &model.RunResult{}
		if err := json.Unmarshal(resultJSON, r.Result); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal run result")
		}
	}
	return &r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, filter RunFilter) ([]model.Run, error) {
	query := `SELECT id, project_id, status, result, created_at, updated_at FROM runs WHERE 1=1`
	var args []any
	arg := func(v any) string {
		args = append(args, v)
		return placeholder(len(args))
	}

	if filter.Status != "" {
		query += ` AND status = ` + arg(string(filter.Status))
	}
	if filter.ProjectID != "" {
		query += ` AND project_id = ` + arg(filter.ProjectID)
	}
	query += ` ORDER BY created_at DESC`

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	query += ` LIMIT ` + arg(limit)
	if filter.Offset > 0 {
		query += ` OFFSET ` + arg(filter.Offset)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var r model.Run
		var resultJSON []byte
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Status, &resultJSON, &r.CreatedAt, &r.UpdatedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		if len(resultJSON) > 0 {
			r.Result = &model.RunResult{}
			if err := json.Unmarshal(resultJSON, r.Result); err != nil {
				return nil, eris.Wrap(err, "postgres: unmarshal run result")
			}
		}
		runs = append(runs, r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

// ImportProjects bulk-upserts imported project rows keyed on (name, company).
func (s *PostgresStore) ImportProjects(ctx context.Context, projects []model.Project) (int64, error) {
	rows := make([][]any, 0, len(projects))
	now := time.Now().UTC()
	for _, p := range projects {
		id := p.ID
		if id == "" {
			id = uuid.New().String()
		}
		urlsJSON, err := json.Marshal(p.URLs)
		if err != nil {
			return 0, eris.Wrap(err, "postgres: marshal urls")
		}
		rows = append(rows, []any{id, p.Name, p.Company, p.Ticker, p.Country, urlsJSON, now, now})
	}

	return db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "projects",
		Columns:      []string{"id", "name", "company", "ticker", "country", "urls", "created_at", "updated_at"},
		ConflictKeys: []string{"name", "company"},
		UpdateCols:   []string{"ticker", "country", "urls", "updated_at"},
	}, rows)
}

// helpers

func placeholder(n int) string {
	return fmt.Sprintf("$%d", n)
}

func scanPgProject(row scannable) (*model.Project, error) {
	var p model.Project
	var urlsJSON, recordJSON []byte

	err := row.Scan(&p.ID, &p.Name, &p.Company, &p.Ticker, &p.Country, &urlsJSON, &recordJSON, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("project not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan project")
	}

	if err := json.Unmarshal(urlsJSON, &p.URLs); err != nil {
		return nil, eris.Wrap(err, "postgres: unmarshal project urls")
	}
	if len(recordJSON) > 0 {
		p.Record = &model.MergedRecord{}
		if err := json.Unmarshal(recordJSON, p.Record); err != nil {
			return nil, eris.Wrap(err, "postgres: unmarshal project record")
		}
	}
	return &p, nil
}

func scanPgDocument(row scannable) (*model.Document, error) {
	var d model.Document
	var fetchedAt *time.Time

	err := row.Scan(&d.ID, &d.ProjectID, &d.URL, &d.Kind, &d.Status, &d.PageCount, &fetchedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.New("document not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "postgres: scan document")
	}
	if fetchedAt != nil {
		d.FetchedAt = *fetchedAt
	}
	return &d, nil
}
