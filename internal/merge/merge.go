// Package merge combines per-document extraction records into one canonical
// record per project. Each field class has its own reducer: numeric metrics
// take the maximum, categorical fields take a precedence pick, commodities
// form a normalized set union, and free-text fields keep the longest string.
package merge

import (
	"strings"

	"github.com/orebase/mining-intel/internal/model"
)

// CategoricalPolicy selects which document wins for single-valued categorical
// fields when several documents disagree.
type CategoricalPolicy int

const (
	// FirstNonNull keeps the value from the earliest document that has one.
	FirstNonNull CategoricalPolicy = iota
	// LastNonNull lets later documents override earlier ones.
	LastNonNull
)

// Merger folds DocumentRecords into a MergedRecord.
type Merger struct {
	categorical CategoricalPolicy
}

// Option configures a Merger.
type Option func(*Merger)

// WithCategoricalPolicy overrides the default FirstNonNull precedence.
func WithCategoricalPolicy(p CategoricalPolicy) Option {
	return func(m *Merger) { m.categorical = p }
}

// New creates a Merger with FirstNonNull categorical precedence by default.
func New(opts ...Option) *Merger {
	m := &Merger{categorical: FirstNonNull}
	for _, o := range opts {
		o(m)
	}
	return m
}

// Merge reduces records in order into one canonical record. Empty input
// yields an empty record; the result's SourceURLs lists every distinct
// contributing source in document order.
func (m *Merger) Merge(records []*model.DocumentRecord) *model.MergedRecord {
	out := &model.MergedRecord{}
	for _, rec := range records {
		if rec == nil {
			continue
		}
		m.fold(out, rec)
	}
	return out
}

func (m *Merger) fold(out *model.MergedRecord, rec *model.DocumentRecord) {
	if rec.SourceURL != "" && !contains(out.SourceURLs, rec.SourceURL) {
		out.SourceURLs = append(out.SourceURLs, rec.SourceURL)
	}

	// Headline economics: a document reporting a larger figure is assumed to
	// be the more recent or more complete study.
	out.NPV = maxFloat(out.NPV, rec.NPV)
	out.IRR = maxFloat(out.IRR, rec.IRR)
	out.Capex = maxFloat(out.Capex, rec.Capex)
	out.MineLife = maxFloat(out.MineLife, rec.MineLife)

	out.CompanyName = m.pickString(out.CompanyName, rec.CompanyName)
	out.ProjectName = m.pickString(out.ProjectName, rec.ProjectName)
	out.Location = m.pickString(out.Location, rec.Location)
	out.Stage = m.pickString(out.Stage, rec.Stage)
	out.Opex = m.pickFloat(out.Opex, rec.Opex)
	out.PaybackYears = m.pickFloat(out.PaybackYears, rec.PaybackYears)
	out.DiscountRate = m.pickFloat(out.DiscountRate, rec.DiscountRate)

	out.Commodities = model.NormalizeCommodities(append(out.Commodities, rec.Commodities...))

	out.Resource = longestString(out.Resource, rec.Resource)
	out.Reserve = longestString(out.Reserve, rec.Reserve)
	out.Description = longestString(out.Description, rec.Description)
}

// maxFloat keeps the larger of two optional values; nil never wins over a
// value.
func maxFloat(a, b *float64) *float64 {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case *b > *a:
		return b
	default:
		return a
	}
}

func (m *Merger) pickString(a, b *string) *string {
	if m.categorical == LastNonNull {
		if b != nil {
			return b
		}
		return a
	}
	if a != nil {
		return a
	}
	return b
}

func (m *Merger) pickFloat(a, b *float64) *float64 {
	if m.categorical == LastNonNull {
		if b != nil {
			return b
		}
		return a
	}
	if a != nil {
		return a
	}
	return b
}

// longestString keeps the more detailed of two optional strings, measured by
// length. Ties keep the incumbent.
func longestString(a, b *string) *string {
	switch {
	case a == nil:
		return b
	case b == nil:
		return a
	case len(strings.TrimSpace(*b)) > len(strings.TrimSpace(*a)):
		return b
	default:
		return a
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
