package model

import "time"

// RunStatus describes the lifecycle of an ingest run.
type RunStatus string

// Run lifecycle states.
const (
	RunStatusQueued    RunStatus = "queued"
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run tracks one ingest of a project's source documents.
type Run struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id"`
	Status    RunStatus  `json:"status"`
	Result    *RunResult `json:"result,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// RunResult summarizes a completed ingest run.
type RunResult struct {
	DocumentsTotal     int           `json:"documents_total"`
	DocumentsExtracted int           `json:"documents_extracted"`
	DocumentsSkipped   int           `json:"documents_skipped"`
	FieldsPopulated    int           `json:"fields_populated"`
	Merged             *MergedRecord `json:"merged,omitempty"`
	DurationMillis     int64         `json:"duration_ms"`
}

// FieldsPopulatedIn counts non-null fields in a merged record, used for the
// run summary and log lines.
func FieldsPopulatedIn(m *MergedRecord) int {
	if m == nil {
		return 0
	}
	n := 0
	for _, p := range []*float64{m.NPV, m.IRR, m.Capex, m.Opex, m.PaybackYears, m.DiscountRate, m.MineLife} {
		if p != nil {
			n++
		}
	}
	for _, s := range []*string{m.CompanyName, m.ProjectName, m.Location, m.Stage, m.Resource, m.Reserve, m.Description} {
		if s != nil {
			n++
		}
	}
	if len(m.Commodities) > 0 {
		n++
	}
	return n
}
