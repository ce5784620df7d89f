// Package segment narrows a document's full text to its most
// information-dense windows before extraction. Selection is deterministic:
// same text, same patterns, same output.
package segment

import (
	"sort"
	"strings"

	"github.com/orebase/mining-intel/internal/patterns"
)

// Chunk is one fixed-size contiguous window of a document, scored by the
// number of distinct patterns matching it.
type Chunk struct {
	Text  string
	Index int
	Score int
}

// Selector picks budget-constrained relevant text from full documents.
type Selector struct {
	lib       *patterns.Library
	chunkSize int
	budget    int
}

// Default sizing: 5000-char windows, 30KB total sent to the model.
const (
	DefaultChunkSize = 5000
	DefaultBudget    = 30000
)

// NewSelector creates a Selector over the given pattern library. Non-positive
// sizes fall back to the defaults.
func NewSelector(lib *patterns.Library, chunkSize, budget int) *Selector {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if budget <= 0 {
		budget = DefaultBudget
	}
	return &Selector{lib: lib, chunkSize: chunkSize, budget: budget}
}

// Split partitions fullText into contiguous chunks of the selector's chunk
// size and scores each one. The final chunk may be shorter; trailing content
// is never dropped.
func (s *Selector) Split(fullText string) []Chunk {
	if fullText == "" {
		return nil
	}
	chunks := make([]Chunk, 0, len(fullText)/s.chunkSize+1)
	for i, idx := 0, 0; i < len(fullText); i, idx = i+s.chunkSize, idx+1 {
		end := i + s.chunkSize
		if end > len(fullText) {
			end = len(fullText)
		}
		text := fullText[i:end]
		chunks = append(chunks, Chunk{
			Text:  text,
			Index: idx,
			Score: s.lib.Score(text),
		})
	}
	return chunks
}

// Select returns the bounded text for a document: chunks ranked by score
// (ties kept in document order), accepted greedily while they fit whole
// within the budget, and joined in selection order with paragraph breaks.
//
// If no chunk scores above zero the leading prefix of the document is
// returned instead, so a non-empty document always yields non-empty input
// for extraction.
func (s *Selector) Select(fullText string) string {
	if fullText == "" {
		return ""
	}

	chunks := s.Split(fullText)

	ranked := make([]Chunk, len(chunks))
	copy(ranked, chunks)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	var picked []string
	total := 0
	for _, c := range ranked {
		if c.Score == 0 {
			break // ranked is sorted; everything after scores zero too
		}
		if total+len(c.Text) > s.budget {
			break // never split a chunk to partially fit
		}
		picked = append(picked, c.Text)
		total += len(c.Text)
	}

	if len(picked) == 0 {
		if len(fullText) > s.budget {
			return fullText[:s.budget]
		}
		return fullText
	}

	return strings.Join(picked, "\n\n")
}
