package prompts

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gtoxlili/echoSage/entity"
)

func TestBuildSynthesisPrompt(t *testing.T) {
	got, ok := BuildSynthesisPrompt("Tell me about PEPE", entity.IntentTokenAnalysis, "PEPE")
	assert.True(t, ok)
	assert.Contains(t, got, "The Solana token 'PEPE' is not in my knowledge base")

	_, ok = BuildSynthesisPrompt("hi", entity.IntentRiskAssessment, "moderate")
	assert.False(t, ok)
}

func TestPortfolioHoldingsBlock(t *testing.T) {
	without := Portfolio("q", []string{"50% SOL"}, nil, 0)
	assert.NotContains(t, without, "Current Holdings")

	with := Portfolio("q", []string{"50% SOL"}, map[string]float64{"USDC": 40, "SOL": 60}, 1.6)
	assert.Contains(t, with, "Current Holdings: SOL 60.00%, USDC 40.00%")
	assert.Contains(t, with, "Weighted Volatility Score: 1.60")
}

func TestTokenUnknownFields(t *testing.T) {
	got := Token("q", "SOL", []string{"blue_chip"}, nil, nil)
	assert.Contains(t, got, "Category: blue_chip")
	assert.Contains(t, got, "Volatility: Unknown")
}

func TestFallbacks(t *testing.T) {
	assert.Equal(t, "Query: 'q'\nProvide general trading signal analysis for euphoria.", Signal("q", "euphoria", nil))
	assert.Contains(t, SynthesizedFAQ("q", ""), "Information not available")
	assert.Contains(t, Finalize(Generic("q")), "disclaimers about trading risks")
}
