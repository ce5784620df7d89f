package patterns

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultLibrary(t *testing.T) {
	lib := Default()
	assert.Equal(t, 9, lib.Len())

	names := make(map[string]bool)
	for _, p := range lib.Patterns() {
		names[p.Name] = true
	}
	for _, want := range []string{"economics", "npv", "irr", "capex", "resources", "reserves", "location", "commodity", "summary"} {
		assert.True(t, names[want], "missing pattern %q", want)
	}
}

func TestScoreCountsDistinctPatterns(t *testing.T) {
	lib := Default()

	text := "The after-tax NPV of the project is $500M with an IRR of 22%. NPV NPV NPV."
	score := lib.Score(text)
	// npv and irr match; repeated NPV mentions do not inflate the score.
	// "project" alone matches nothing else in the default set.
	assert.GreaterOrEqual(t, score, 2)
	assert.LessOrEqual(t, score, lib.Len())

	assert.Equal(t, 0, lib.Score("nothing relevant here"))
	assert.Equal(t, 0, lib.Score(""))
}

func TestScoreBounded(t *testing.T) {
	lib := Default()
	everything := `Executive Summary: economic analysis shows net present value,
internal rate of return, capital cost, mineral resource estimate,
mineral reserve estimate, property location, commodity: gold`
	assert.Equal(t, lib.Len(), lib.Score(everything))
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "patterns.yaml")
	content := `
- name: grade
  regex: (?i)head\s+grade|average\s+grade
- name: aisc
  regex: (?i)all-in\s+sustaining\s+cost|aisc
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	lib, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2, lib.Len())
	assert.Equal(t, 1, lib.Score("AISC of $950/oz"))
	assert.Equal(t, 2, lib.Score("head grade 1.2 g/t, AISC $950/oz"))
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "nope.yaml"))
		assert.Error(t, err)
	})

	t.Run("bad regex", func(t *testing.T) {
		path := filepath.Join(dir, "bad.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- name: broken\n  regex: '('\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("empty list", func(t *testing.T) {
		path := filepath.Join(dir, "empty.yaml")
		require.NoError(t, os.WriteFile(path, []byte("[]\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("empty name", func(t *testing.T) {
		path := filepath.Join(dir, "noname.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- name: ''\n  regex: abc\n"), 0o644))
		_, err := Load(path)
		assert.Error(t, err)
	})
}
