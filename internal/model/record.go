package model

// DocumentRecord is the structured output of extracting a single source
// document. Every field is optional: a nil pointer (or nil slice) means the
// document did not establish a value, which is an expected state rather than
// an error. JSON encoding deliberately emits explicit nulls so downstream
// consumers see a uniform shape.
type DocumentRecord struct {
	SourceURL string `json:"source_url"`

	CompanyName *string `json:"company_name"`
	ProjectName *string `json:"project_name"`

	// Financial metrics. Currency values are normalized to millions USD,
	// rates to bare percentages.
	NPV          *float64 `json:"npv"`
	IRR          *float64 `json:"irr"`
	Capex        *float64 `json:"capex"`
	Opex         *float64 `json:"opex"`
	PaybackYears *float64 `json:"payback_years"`
	DiscountRate *float64 `json:"discount_rate"`
	MineLife     *float64 `json:"mine_life"`

	Location    *string  `json:"location"`
	Stage       *string  `json:"stage"`
	Commodities []string `json:"commodities"`
	Resource    *string  `json:"resource"`
	Reserve     *string  `json:"reserve"`
	Description *string  `json:"description"`
}

// IsEmpty reports whether no field was established by extraction.
func (r *DocumentRecord) IsEmpty() bool {
	return r.CompanyName == nil && r.ProjectName == nil &&
		r.NPV == nil && r.IRR == nil && r.Capex == nil &&
		r.Opex == nil && r.PaybackYears == nil && r.DiscountRate == nil &&
		r.MineLife == nil && r.Location == nil && r.Stage == nil &&
		len(r.Commodities) == 0 && r.Resource == nil && r.Reserve == nil &&
		r.Description == nil
}

// MergedRecord is the canonical record for one project after combining the
// DocumentRecords of all its source documents. Same shape as DocumentRecord
// but tagged with every contributing source instead of a single one.
type MergedRecord struct {
	SourceURLs []string `json:"source_urls"`

	CompanyName *string `json:"company_name"`
	ProjectName *string `json:"project_name"`

	NPV          *float64 `json:"npv"`
	IRR          *float64 `json:"irr"`
	Capex        *float64 `json:"capex"`
	Opex         *float64 `json:"opex"`
	PaybackYears *float64 `json:"payback_years"`
	DiscountRate *float64 `json:"discount_rate"`
	MineLife     *float64 `json:"mine_life"`

	Location    *string  `json:"location"`
	Stage       *string  `json:"stage"`
	Commodities []string `json:"commodities"`
	Resource    *string  `json:"resource"`
	Reserve     *string  `json:"reserve"`
	Description *string  `json:"description"`
}

// Float returns a pointer to v. Convenience for building records in tests
// and seed data.
func Float(v float64) *float64 { return &v }

// String returns a pointer to s.
func String(s string) *string { return &s }
