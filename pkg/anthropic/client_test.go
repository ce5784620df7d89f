package anthropic

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestTokenUsageAdd(t *testing.T) {
	u := TokenUsage{InputTokens: 100, OutputTokens: 50}
	u.Add(TokenUsage{InputTokens: 25, OutputTokens: 10})

	assert.Equal(t, int64(125), u.InputTokens)
	assert.Equal(t, int64(60), u.OutputTokens)
}

func TestEstimateCost(t *testing.T) {
	u := TokenUsage{InputTokens: 1_000_000, OutputTokens: 1_000_000}

	assert.InDelta(t, 18.0, u.EstimateCost("claude-sonnet-4-5-20250929"), 0.001)
	assert.InDelta(t, 4.80, u.EstimateCost("claude-haiku-4-5-20251001"), 0.001)
	assert.Equal(t, 0.0, u.EstimateCost("unknown-model"))
}

func TestEstimateCostZeroUsage(t *testing.T) {
	var u TokenUsage
	assert.Equal(t, 0.0, u.EstimateCost("claude-sonnet-4-5-20250929"))
}
