package trade

import (
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/knowledge"
)

func newEngine(t *testing.T) (*Engine, *knowledge.QueryService) {
	t.Helper()
	store := knowledge.NewStore()
	require.NoError(t, knowledge.Seed(store))
	q := knowledge.NewQueryService(store, zerolog.Nop(), nil)
	return NewEngine(q), q
}

func TestComputeSignalTakeProfitScenario(t *testing.T) {
	e, _ := newEngine(t)

	got := e.ComputeSignal("SOL", 180.5, 150, []float64{140, 150, 160, 170, 180}, 25)

	assert.Equal(t, entity.Sell, got.Signal)
	assert.Equal(t, 20.0, got.Percent)
	assert.Equal(t, entity.Analysis{
		UnrealizedPNL:        20.33,
		PriceVsHistoricalAvg: 12.81,
		Volatility:           "high",
		MarketCap:            "large_cap",
		Category:             "blue_chip",
	}, got.Analysis)
}

func TestComputeSignalRulePrecedence(t *testing.T) {
	e, _ := newEngine(t)

	// pnl = -20 触发规则 1；相对均价 +14.29 本会触发规则 4
	got := e.ComputeSignal("SOL", 80, 100, []float64{70}, 30)

	assert.Equal(t, entity.Buy, got.Signal)
	assert.Equal(t, 15.0, got.Percent)
	assert.Equal(t, -20.0, got.Analysis.UnrealizedPNL)
	assert.Greater(t, got.Analysis.PriceVsHistoricalAvg, 10.0)
}

func TestComputeSignalRules(t *testing.T) {
	e, _ := newEngine(t)

	tests := []struct {
		name        string
		token       string
		current     float64
		entry       float64
		history     []float64
		holdings    float64
		wantSignal  entity.SignalEnum
		wantPercent float64
	}{
		{"dca capped by headroom", "SOL", 85, 100, nil, 45, entity.Buy, 5},
		{"dca capped at 15", "SOL", 85, 100, nil, 10, entity.Buy, 15},
		{"no dca when overweight", "SOL", 85, 100, nil, 50, entity.Hold, 0},
		{"take profit capped at 25", "SOL", 120, 100, nil, 60, entity.Sell, 25},
		{"no take profit at 5 percent holdings", "SOL", 120, 100, nil, 5, entity.Hold, 0},
		{"below average blue chip", "SOL", 90, 90, []float64{100}, 10, entity.Buy, 10},
		{"below average meme skipped", "BONK", 90, 90, []float64{100}, 10, entity.Hold, 0},
		{"below average unknown category skipped", "DOGE", 90, 90, []float64{100}, 10, entity.Hold, 0},
		{"above average", "BONK", 120, 120, []float64{100}, 10, entity.Sell, 15},
		{"just under thresholds", "SOL", 115, 115, []float64{104.55}, 5, entity.Hold, 0},
		{"empty history uses current price", "SOL", 100, 100, nil, 10, entity.Hold, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.ComputeSignal(tt.token, tt.current, tt.entry, tt.history, tt.holdings)
			assert.Equal(t, tt.wantSignal, got.Signal)
			assert.InDelta(t, tt.wantPercent, got.Percent, 1e-9)
		})
	}
}

func TestComputeSignalUnknownToken(t *testing.T) {
	e, _ := newEngine(t)

	got := e.ComputeSignal("NOPE", 10, 10, nil, 0)

	assert.Equal(t, entity.Hold, got.Signal)
	assert.Equal(t, entity.Unknown, got.Analysis.Volatility)
	assert.Equal(t, entity.Unknown, got.Analysis.MarketCap)
	assert.Equal(t, entity.Unknown, got.Analysis.Category)
	assert.Zero(t, got.Analysis.PriceVsHistoricalAvg)
}

func TestComputeSignalZeroEntryPrice(t *testing.T) {
	e, _ := newEngine(t)

	got := e.ComputeSignal("SOL", 10, 0, []float64{0, 0}, 20)

	assert.Equal(t, entity.Hold, got.Signal)
	assert.Zero(t, got.Analysis.UnrealizedPNL)
	assert.Zero(t, got.Analysis.PriceVsHistoricalAvg)
}

func TestComputeSignalUsesLearnedFacts(t *testing.T) {
	e, q := newEngine(t)
	require.NoError(t, q.Learn(entity.TokenCategory, "pepe", "meme"))

	got := e.ComputeSignal("PEPE", 90, 90, []float64{100}, 10)

	assert.Equal(t, entity.Hold, got.Signal)
	assert.Equal(t, "meme", got.Analysis.Category)
}
