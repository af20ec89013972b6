package knowledge

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/metrics"
)

func newSeededService(t *testing.T) *QueryService {
	t.Helper()
	store := NewStore()
	require.NoError(t, Seed(store))
	return NewQueryService(store, zerolog.Nop(), metrics.New(prometheus.NewRegistry()))
}

func TestTokenQueriesNormalizeCase(t *testing.T) {
	q := newSeededService(t)

	assert.Equal(t, []string{"blue_chip"}, q.TokenCategory("sol"))
	assert.Equal(t, []string{"high"}, q.TokenVolatility(`"Sol"`))
	assert.Equal(t, []string{"micro_cap"}, q.MarketCapTier("bonk"))
	assert.Nil(t, q.TokenCategory("DOGE"))
}

func TestLowerCasedQueries(t *testing.T) {
	q := newSeededService(t)

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"protocol", q.ProtocolToken("Raydium"), []string{"RAY"}},
		{"signal", q.TradingSignal("OVERSOLD"), []string{"BUY"}},
		{"risk", q.RiskAllocation("Conservative"), []string{"70% SOL/USDC, 30% stablecoins"}},
		{"strategy", q.MarketStrategy("Bear_Market"), []string{"increase stables, DCA blue chips"}},
		{"metric", q.MetricAnalysis("rising_tvl"), []string{"protocol growth, bullish"}},
		{"mistake", q.TradingMistakeWarning(`"FOMO_buying"`), []string{"wait for retracements, use DCA"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestPortfolioFAQIsExactMatch(t *testing.T) {
	q := newSeededService(t)

	answer, ok := q.PortfolioFAQ("When to rebalance?")
	require.True(t, ok)
	assert.Equal(t, "Monthly or when allocation drifts >10% from target", answer)

	_, ok = q.PortfolioFAQ("How to rebalance?")
	assert.False(t, ok)
	_, ok = q.PortfolioFAQ("when to rebalance?")
	assert.False(t, ok)
	_, ok = q.PortfolioFAQ("When to rebalance")
	assert.False(t, ok)
}

func TestLearnNormalizesKey(t *testing.T) {
	q := newSeededService(t)

	require.NoError(t, q.Learn(entity.TokenCategory, "pepe", entity.Unknown))
	require.NoError(t, q.Learn(entity.TokenCategory, "PEPE", entity.Unknown))
	assert.Equal(t, []string{entity.Unknown}, q.TokenCategory("Pepe"))

	require.NoError(t, q.Learn(entity.PortfolioFAQ, "Is PEPE a good buy?", "Probably not."))
	answer, ok := q.PortfolioFAQ("Is PEPE a good buy?")
	require.True(t, ok)
	assert.Equal(t, "Probably not.", answer)
}

func TestLearnSurfacesStoreErrors(t *testing.T) {
	q := NewQueryService(NewStore(WithMaxFacts(1)), zerolog.Nop(), nil)
	require.NoError(t, q.Learn(entity.Protocol, "drift", "DRIFT"))
	assert.ErrorIs(t, q.Learn(entity.Protocol, "kamino", "KMNO"), ErrStoreFull)
}

func TestPortfolioRisk(t *testing.T) {
	q := newSeededService(t)

	// SOL=high(2), USDC=low(1), BONK=extreme(4), DOGE 无记录
	holdings := map[string]float64{"SOL": 50, "USDC": 25, "BONK": 15, "DOGE": 10}
	assert.InDelta(t, 0.5*2+0.25*1+0.15*4, q.PortfolioRisk(holdings), 1e-9)

	assert.Zero(t, q.PortfolioRisk(map[string]float64{}))
	assert.Zero(t, q.PortfolioRisk(map[string]float64{"SOL": 0}))
}

func TestPortfolioRiskUnrecognizedLevel(t *testing.T) {
	q := newSeededService(t)
	require.NoError(t, q.Learn(entity.Volatility, "NEW", "medium"))

	assert.InDelta(t, 2.0, q.PortfolioRisk(map[string]float64{"NEW": 10}), 1e-9)
}
