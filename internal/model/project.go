package model

import "time"

// Project is one physical mining project tracked in the database. Its
// financial fields hold the current canonical MergedRecord values.
type Project struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Company   string        `json:"company"`
	Ticker    string        `json:"ticker,omitempty"`
	Country   string        `json:"country,omitempty"`
	URLs      []string      `json:"urls"` // source document URLs, discovery order
	Record    *MergedRecord `json:"record"`
	UpdatedAt time.Time     `json:"updated_at"`
	CreatedAt time.Time     `json:"created_at"`
}

// Document is one source filing attached to a project.
type Document struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	URL       string    `json:"url"`
	Kind      string    `json:"kind"` // "pdf" or "html"
	Status    string    `json:"status"`
	PageCount int       `json:"page_count,omitempty"`
	FetchedAt time.Time `json:"fetched_at,omitempty"`
}

// Document status values.
const (
	DocStatusPending   = "pending"
	DocStatusExtracted = "extracted"
	DocStatusSkipped   = "skipped"
)
