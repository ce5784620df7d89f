package merge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/orebase/mining-intel/internal/model"
)

func TestMergeEmptyInput(t *testing.T) {
	out := New().Merge(nil)
	require.NotNil(t, out)
	assert.Nil(t, out.NPV)
	assert.Empty(t, out.SourceURLs)
	assert.Empty(t, out.Commodities)
}

func TestMergeNumericTakesMax(t *testing.T) {
	a := &model.DocumentRecord{SourceURL: "a", NPV: model.Float(900), IRR: model.Float(25), MineLife: model.Float(10)}
	b := &model.DocumentRecord{SourceURL: "b", NPV: model.Float(1200), IRR: model.Float(18), Capex: model.Float(450)}

	out := New().Merge([]*model.DocumentRecord{a, b})

	assert.Equal(t, 1200.0, *out.NPV)
	assert.Equal(t, 25.0, *out.IRR)
	assert.Equal(t, 450.0, *out.Capex, "nil never beats a value")
	assert.Equal(t, 10.0, *out.MineLife)
}

func TestMergeNumericMaxIsCommutative(t *testing.T) {
	a := &model.DocumentRecord{SourceURL: "a", NPV: model.Float(900)}
	b := &model.DocumentRecord{SourceURL: "b", NPV: model.Float(1200)}

	ab := New().Merge([]*model.DocumentRecord{a, b})
	ba := New().Merge([]*model.DocumentRecord{b, a})
	assert.Equal(t, *ab.NPV, *ba.NPV)
}

func TestMergeCategoricalFirstNonNull(t *testing.T) {
	a := &model.DocumentRecord{SourceURL: "a", Location: model.String("Nevada, USA"), Stage: model.String("PEA")}
	b := &model.DocumentRecord{SourceURL: "b", Location: model.String("NV"), Stage: model.String("Feasibility")}
	c := &model.DocumentRecord{SourceURL: "c", DiscountRate: model.Float(5)}

	out := New().Merge([]*model.DocumentRecord{a, b, c})

	assert.Equal(t, "Nevada, USA", *out.Location)
	assert.Equal(t, "PEA", *out.Stage)
	assert.Equal(t, 5.0, *out.DiscountRate, "later document fills a gap")

	// First-wins is order-dependent: reversing the input flips the winner.
	reversed := New().Merge([]*model.DocumentRecord{b, a, c})
	assert.Equal(t, "NV", *reversed.Location)
	assert.Equal(t, "Feasibility", *reversed.Stage)
}

func TestMergeCategoricalLastNonNull(t *testing.T) {
	a := &model.DocumentRecord{SourceURL: "a", Stage: model.String("PEA")}
	b := &model.DocumentRecord{SourceURL: "b", Stage: model.String("Feasibility")}
	c := &model.DocumentRecord{SourceURL: "c"}

	out := New(WithCategoricalPolicy(LastNonNull)).Merge([]*model.DocumentRecord{a, b, c})

	assert.Equal(t, "Feasibility", *out.Stage, "a trailing null does not clear the value")
}

func TestMergeCommoditiesUnionCaseInsensitive(t *testing.T) {
	a := &model.DocumentRecord{SourceURL: "a", Commodities: []string{"gold", "Copper"}}
	b := &model.DocumentRecord{SourceURL: "b", Commodities: []string{"GOLD", "silver"}}

	out := New().Merge([]*model.DocumentRecord{a, b})

	assert.Equal(t, []string{"Gold", "Copper", "Silver"}, out.Commodities)
}

func TestMergeLongestString(t *testing.T) {
	a := &model.DocumentRecord{SourceURL: "a", Resource: model.String("12 Mt"), Description: model.String("Gold mine.")}
	b := &model.DocumentRecord{SourceURL: "b", Resource: model.String("12.5 Mt @ 1.8 g/t Au")}

	out := New().Merge([]*model.DocumentRecord{a, b})

	assert.Equal(t, "12.5 Mt @ 1.8 g/t Au", *out.Resource)
	assert.Equal(t, "Gold mine.", *out.Description)
}

func TestMergeSourceURLsDistinctInOrder(t *testing.T) {
	recs := []*model.DocumentRecord{
		{SourceURL: "a"},
		{SourceURL: "b"},
		{SourceURL: "a"},
		{SourceURL: ""},
	}
	out := New().Merge(recs)
	assert.Equal(t, []string{"a", "b"}, out.SourceURLs)
}

func TestMergeIsIdempotent(t *testing.T) {
	rec := &model.DocumentRecord{
		SourceURL:   "a",
		NPV:         model.Float(1200),
		Location:    model.String("Nevada, USA"),
		Commodities: []string{"Gold"},
		Description: model.String("A gold project."),
	}

	once := New().Merge([]*model.DocumentRecord{rec})
	twice := New().Merge([]*model.DocumentRecord{rec, rec})
	assert.Equal(t, once.NPV, twice.NPV)
	assert.Equal(t, once.Location, twice.Location)
	assert.Equal(t, once.Commodities, twice.Commodities)
	assert.Equal(t, once.Description, twice.Description)
	assert.Equal(t, []string{"a"}, twice.SourceURLs)
}

func TestMergeNeverNullifies(t *testing.T) {
	full := &model.DocumentRecord{
		SourceURL: "a",
		NPV:       model.Float(1200),
		IRR:       model.Float(22.5),
		Location:  model.String("Nevada, USA"),
		Resource:  model.String("12.5 Mt @ 1.8 g/t Au"),
	}
	empty := &model.DocumentRecord{SourceURL: "b"}

	out := New().Merge([]*model.DocumentRecord{full, empty})

	assert.Equal(t, 1200.0, *out.NPV)
	assert.Equal(t, 22.5, *out.IRR)
	assert.Equal(t, "Nevada, USA", *out.Location)
	assert.Equal(t, "12.5 Mt @ 1.8 g/t Au", *out.Resource)
}

func TestMergeSkipsNilRecords(t *testing.T) {
	out := New().Merge([]*model.DocumentRecord{nil, {SourceURL: "a", NPV: model.Float(10)}, nil})
	assert.Equal(t, 10.0, *out.NPV)
	assert.Equal(t, []string{"a"}, out.SourceURLs)
}
