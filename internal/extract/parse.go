package extract

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/orebase/mining-intel/internal/model"
)

// ParseError reports why a model response could not be decoded into a record.
type ParseError struct {
	Reason  string
	Snippet string
}

func (e *ParseError) Error() string {
	if e.Snippet == "" {
		return fmt.Sprintf("extract: parse response: %s", e.Reason)
	}
	return fmt.Sprintf("extract: parse response: %s: %q", e.Reason, e.Snippet)
}

// jsonObject returns the first balanced top-level JSON object inside text.
// Models often wrap their answer in prose or markdown fences, so the scanner
// finds the first '{' and walks forward tracking brace depth, skipping braces
// that occur inside JSON strings.
func jsonObject(text string) (string, bool) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", false
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], true
			}
		}
	}
	return "", false
}

// ParseRecord decodes the first JSON object in a model response into a
// DocumentRecord, coercing each field leniently. Unknown keys are ignored;
// unparseable individual values are dropped rather than failing the document.
func ParseRecord(text, sourceURL string) (*model.DocumentRecord, error) {
	obj, ok := jsonObject(text)
	if !ok {
		return nil, &ParseError{Reason: "no JSON object found", Snippet: snippet(text)}
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(obj), &raw); err != nil {
		return nil, &ParseError{Reason: err.Error(), Snippet: snippet(obj)}
	}

	rec := &model.DocumentRecord{SourceURL: sourceURL}
	rec.CompanyName = stringField(raw, "company_name", "company")
	rec.ProjectName = stringField(raw, "project_name", "project")
	rec.NPV = numberField(raw, "npv")
	rec.IRR = numberField(raw, "irr")
	rec.Capex = numberField(raw, "capex")
	rec.Opex = numberField(raw, "opex")
	rec.PaybackYears = numberField(raw, "payback_years", "payback")
	rec.DiscountRate = numberField(raw, "discount_rate")
	rec.MineLife = numberField(raw, "mine_life")
	rec.Location = stringField(raw, "location")
	rec.Stage = stringField(raw, "stage")
	rec.Commodities = commodityField(raw)
	rec.Resource = stringField(raw, "resource")
	rec.Reserve = stringField(raw, "reserve")
	rec.Description = stringField(raw, "description")
	return rec, nil
}

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 120 {
		return s[:120] + "..."
	}
	return s
}

// numberField coerces the first present key into a float. Models sometimes
// return numerics as strings with currency or percent decoration; strip it.
func numberField(raw map[string]any, keys ...string) *float64 {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch n := v.(type) {
		case float64:
			return model.Float(n)
		case string:
			s := strings.TrimSpace(n)
			s = strings.Trim(s, "$%")
			s = strings.ReplaceAll(s, ",", "")
			if s == "" {
				continue
			}
			f, err := strconv.ParseFloat(s, 64)
			if err != nil {
				continue
			}
			return model.Float(f)
		}
	}
	return nil
}

func stringField(raw map[string]any, keys ...string) *string {
	for _, key := range keys {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		s, ok := v.(string)
		if !ok {
			continue
		}
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "n/a") {
			continue
		}
		return model.String(s)
	}
	return nil
}

// commodityField accepts either a JSON array of strings or a single string
// (older model outputs used a scalar "commodity" key).
func commodityField(raw map[string]any) []string {
	var out []string
	for _, key := range []string{"commodities", "commodity"} {
		v, ok := raw[key]
		if !ok || v == nil {
			continue
		}
		switch c := v.(type) {
		case []any:
			for _, item := range c {
				if s, ok := item.(string); ok {
					out = append(out, s)
				}
			}
		case string:
			// Tolerate comma-joined scalars like "Gold, Silver".
			for _, part := range strings.Split(c, ",") {
				out = append(out, part)
			}
		}
		if len(out) > 0 {
			break
		}
	}
	return model.NormalizeCommodities(out)
}
