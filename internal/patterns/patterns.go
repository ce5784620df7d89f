// Package patterns holds the named detectors used to score document chunks
// for topical relevance. The library is a heuristic for the segmenter only:
// a document matching zero patterns is still processed, never discarded.
package patterns

import (
	"os"
	"regexp"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"
)

// Pattern is one named detector. Matchers are compiled once at load and are
// pure: they hold no state and perform no I/O.
type Pattern struct {
	Name    string
	matcher *regexp.Regexp
}

// Match reports whether the pattern matches anywhere in text.
func (p Pattern) Match(text string) bool {
	return p.matcher.MatchString(text)
}

// Library is an immutable ordered set of patterns.
type Library struct {
	patterns []Pattern
}

// Len returns the number of patterns, which bounds any chunk score.
func (l *Library) Len() int { return len(l.patterns) }

// Patterns returns the detectors in definition order.
func (l *Library) Patterns() []Pattern { return l.patterns }

// Score counts the distinct patterns matching text. Presence per pattern,
// not match count, so the result is in [0, Len()].
func (l *Library) Score(text string) int {
	score := 0
	for _, p := range l.patterns {
		if p.Match(text) {
			score++
		}
	}
	return score
}

// defaultPatterns are the topics that mark information-dense sections of a
// technical report: project economics, headline metrics, resource and
// reserve statements, and locating/classifying context.
var defaultPatterns = []struct{ name, expr string }{
	{"economics", `(?i)economic\s+analysis|financial\s+analysis|project\s+economics|economic\s+evaluation`},
	{"summary", `(?i)executive\s+summary|summary\s+of\s+results|highlights|key\s+findings`},
	{"npv", `(?i)net\s+present\s+value|npv|post-tax\s+npv|after-tax\s+npv|pre-tax\s+npv`},
	{"irr", `(?i)internal\s+rate\s+of\s+return|irr`},
	{"capex", `(?i)capital\s+cost|initial\s+capital|capex|capital\s+expenditure`},
	{"resources", `(?i)mineral\s+resource|resource\s+estimate|measured.*indicated.*inferred`},
	{"reserves", `(?i)mineral\s+reserve|reserve\s+estimate|proven.*probable`},
	{"location", `(?i)location|jurisdiction|property\s+location|geographic\s+setting`},
	{"commodity", `(?i)commodity|metal|mineral|deposit\s+type`},
}

// Default returns the compiled-in pattern library.
func Default() *Library {
	lib := &Library{patterns: make([]Pattern, 0, len(defaultPatterns))}
	for _, d := range defaultPatterns {
		lib.patterns = append(lib.patterns, Pattern{
			Name:    d.name,
			matcher: regexp.MustCompile(d.expr),
		})
	}
	return lib
}

// fileEntry is one pattern in a YAML library file.
type fileEntry struct {
	Name  string `yaml:"name"`
	Regex string `yaml:"regex"`
}

// Load reads a pattern library from a YAML file: a list of {name, regex}
// pairs. Expressions are compiled eagerly so a bad file fails at startup,
// not mid-pipeline.
func Load(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "patterns: read %s", path)
	}

	var entries []fileEntry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, eris.Wrapf(err, "patterns: parse %s", path)
	}
	if len(entries) == 0 {
		return nil, eris.Errorf("patterns: %s defines no patterns", path)
	}

	lib := &Library{patterns: make([]Pattern, 0, len(entries))}
	for _, e := range entries {
		if e.Name == "" {
			return nil, eris.Errorf("patterns: entry with empty name in %s", path)
		}
		re, err := regexp.Compile(e.Regex)
		if err != nil {
			return nil, eris.Wrapf(err, "patterns: compile %q", e.Name)
		}
		lib.patterns = append(lib.patterns, Pattern{Name: e.Name, matcher: re})
	}
	return lib, nil
}
