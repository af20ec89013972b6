package trade

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/metrics"
)

// ConditionAdvisor 给出市场状态对应的信号建议
type ConditionAdvisor interface {
	TradingSignal(condition string) []string
}

// Executor 处理结构化的 PriceRequest，不经过自然语言链路
type Executor struct {
	engine  *Engine
	advisor ConditionAdvisor
	log     zerolog.Logger
	metrics *metrics.Recorder
}

func NewExecutor(engine *Engine, advisor ConditionAdvisor, log zerolog.Logger, rec *metrics.Recorder) *Executor {
	return &Executor{
		engine:  engine,
		advisor: advisor,
		log:     log.With().Str("component", "executor").Logger(),
		metrics: rec,
	}
}

// Evaluate 补齐缺省字段后运行规则引擎，并附上市场状态
func (te *Executor) Evaluate(req entity.PriceRequest) entity.SignalReport {
	token := strings.ToUpper(strings.TrimSpace(req.Token))
	if token == "" {
		token = config.DefaultToken
	}

	result := te.engine.ComputeSignal(token, req.CurrentPrice, req.EntryPrice, req.HistoricalPrices, req.CurrentHoldings)
	te.metrics.RecordSignal(string(result.Signal))

	report := entity.SignalReport{Token: token, SignalResult: result}
	series := append(append([]float64(nil), req.HistoricalPrices...), req.CurrentPrice)
	if condition := DetectCondition(series); condition != "" {
		report.Condition = condition
		report.ConditionSignal = lo.FirstOrEmpty(te.advisor.TradingSignal(condition))
	}

	te.log.Info().
		Str("token", token).
		Str("signal", string(result.Signal)).
		Float64("percent", result.Percent).
		Float64("unrealized_pnl", result.Analysis.UnrealizedPNL).
		Str("condition", report.Condition).
		Msg("signal generated")
	return report
}
