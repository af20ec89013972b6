package trade

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/metrics"
)

func TestExecutorDefaultsToken(t *testing.T) {
	e, q := newEngine(t)
	ex := NewExecutor(e, q, zerolog.Nop(), metrics.New(prometheus.NewRegistry()))

	report := ex.Evaluate(entity.PriceRequest{
		CurrentPrice:     180.5,
		EntryPrice:       150,
		HistoricalPrices: []float64{140, 150, 160, 170, 180},
		CurrentHoldings:  25,
	})

	assert.Equal(t, "SOL", report.Token)
	assert.Equal(t, entity.Sell, report.Signal)
	assert.Equal(t, 20.0, report.Percent)
	assert.Equal(t, "blue_chip", report.Analysis.Category)
}

func TestExecutorAttachesCondition(t *testing.T) {
	e, q := newEngine(t)
	ex := NewExecutor(e, q, zerolog.Nop(), nil)

	report := ex.Evaluate(entity.PriceRequest{
		Token:            "ray",
		CurrentPrice:     100.1,
		EntryPrice:       100,
		HistoricalPrices: []float64{100, 99.9, 100.2},
		CurrentHoldings:  10,
	})

	assert.Equal(t, "RAY", report.Token)
	assert.Equal(t, entity.Hold, report.Signal)
	assert.Equal(t, "sideways", report.Condition)
	assert.Equal(t, "HOLD", report.ConditionSignal)
}
