package model

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var commodityCaser = cases.Title(language.English)

// NormalizeCommodities trims, title-cases, and de-duplicates commodity names
// while preserving first-seen order. LLM output and merged sets both pass
// through here so "gold", "Gold", and "GOLD" collapse to one entry.
func NormalizeCommodities(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, c := range in {
		c = strings.TrimSpace(c)
		if c == "" {
			continue
		}
		c = commodityCaser.String(strings.ToLower(c))
		if seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
