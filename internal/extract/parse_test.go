package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONObjectExtraction(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
		found bool
	}{
		{"bare object", `{"npv": 300}`, `{"npv": 300}`, true},
		{"prose wrapped", `Here is the data: {"npv": 300} as requested.`, `{"npv": 300}`, true},
		{"markdown fence", "```json\n{\"irr\": 22.5}\n```", `{"irr": 22.5}`, true},
		{"nested object", `{"a": {"b": 1}}`, `{"a": {"b": 1}}`, true},
		{"brace in string", `{"description": "open-pit {heap leach} mine"}`, `{"description": "open-pit {heap leach} mine"}`, true},
		{"escaped quote in string", `{"location": "Val-d'Or, \"Quebec\""}`, `{"location": "Val-d'Or, \"Quebec\""}`, true},
		{"no object", "no json here", "", false},
		{"unterminated", `{"npv": 300`, "", false},
		{"empty", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := jsonObject(tt.input)
			assert.Equal(t, tt.found, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseRecordFullResponse(t *testing.T) {
	resp := `{
		"company_name": "Barrick Gold",
		"project_name": "Fourmile",
		"npv": 1200,
		"irr": 22.5,
		"capex": 450,
		"opex": 38.2,
		"payback_years": 2.8,
		"discount_rate": 5,
		"mine_life": 14,
		"location": "Nevada, USA",
		"stage": "Feasibility",
		"commodities": ["gold", "Silver", "GOLD"],
		"resource": "12.5 Mt @ 1.8 g/t Au",
		"reserve": "8.1 Mt @ 2.1 g/t Au",
		"description": "High-grade underground gold project."
	}`

	rec, err := ParseRecord(resp, "https://example.com/report.pdf")
	require.NoError(t, err)

	assert.Equal(t, "https://example.com/report.pdf", rec.SourceURL)
	assert.Equal(t, "Barrick Gold", *rec.CompanyName)
	assert.Equal(t, "Fourmile", *rec.ProjectName)
	assert.Equal(t, 1200.0, *rec.NPV)
	assert.Equal(t, 22.5, *rec.IRR)
	assert.Equal(t, 450.0, *rec.Capex)
	assert.Equal(t, 38.2, *rec.Opex)
	assert.Equal(t, 2.8, *rec.PaybackYears)
	assert.Equal(t, 5.0, *rec.DiscountRate)
	assert.Equal(t, 14.0, *rec.MineLife)
	assert.Equal(t, "Nevada, USA", *rec.Location)
	assert.Equal(t, "Feasibility", *rec.Stage)
	assert.Equal(t, []string{"Gold", "Silver"}, rec.Commodities)
	assert.Equal(t, "12.5 Mt @ 1.8 g/t Au", *rec.Resource)
	assert.Equal(t, "High-grade underground gold project.", *rec.Description)
}

func TestParseRecordProseWrapped(t *testing.T) {
	rec, err := ParseRecord(`Based on the document, here is the extraction: {"npv": 300} Hope that helps!`, "u")
	require.NoError(t, err)
	require.NotNil(t, rec.NPV)
	assert.Equal(t, 300.0, *rec.NPV)
	assert.Nil(t, rec.IRR)
}

func TestParseRecordNullsAndMissingKeys(t *testing.T) {
	rec, err := ParseRecord(`{"npv": null, "location": "null", "stage": "N/A", "description": "  "}`, "u")
	require.NoError(t, err)
	assert.Nil(t, rec.NPV)
	assert.Nil(t, rec.Location)
	assert.Nil(t, rec.Stage)
	assert.Nil(t, rec.Description)
	assert.True(t, rec.IsEmpty())
}

func TestParseRecordStringNumbers(t *testing.T) {
	rec, err := ParseRecord(`{"npv": "$1,200", "irr": "22.5%", "capex": "not stated"}`, "u")
	require.NoError(t, err)
	require.NotNil(t, rec.NPV)
	assert.Equal(t, 1200.0, *rec.NPV)
	require.NotNil(t, rec.IRR)
	assert.Equal(t, 22.5, *rec.IRR)
	assert.Nil(t, rec.Capex)
}

func TestParseRecordScalarCommodity(t *testing.T) {
	rec, err := ParseRecord(`{"commodity": "gold, copper"}`, "u")
	require.NoError(t, err)
	assert.Equal(t, []string{"Gold", "Copper"}, rec.Commodities)
}

func TestParseRecordErrors(t *testing.T) {
	_, err := ParseRecord("the document contains no financial data", "u")
	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Contains(t, perr.Reason, "no JSON object")

	_, err = ParseRecord(`{"npv": }`, "u")
	require.ErrorAs(t, err, &perr)
}
