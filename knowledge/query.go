package knowledge

import (
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/metrics"
)

// volatilityScore 用于组合风险加权，未识别的等级按 2 计
var volatilityScore = map[string]float64{
	"low":       1,
	"high":      2,
	"very_high": 3,
	"extreme":   4,
}

// QueryService 是 Store 之上的类型化查询接口，负责 key 的规范化
type QueryService struct {
	store   *Store
	log     zerolog.Logger
	metrics *metrics.Recorder
}

func NewQueryService(store *Store, log zerolog.Logger, rec *metrics.Recorder) *QueryService {
	return &QueryService{
		store:   store,
		log:     log.With().Str("component", "knowledge").Logger(),
		metrics: rec,
	}
}

func (q *QueryService) Store() *Store {
	return q.store
}

// normalizeKey: token 大写，FAQ 原样，其余小写；两端的引号一律去掉
func normalizeKey(predicate, key string) string {
	switch predicate {
	case entity.PortfolioFAQ:
		return key
	case entity.TokenCategory, entity.MarketCap, entity.Volatility:
		return strings.ToUpper(strings.Trim(key, `"`))
	default:
		return strings.ToLower(strings.Trim(key, `"`))
	}
}

func (q *QueryService) lookup(predicate, key string) []string {
	norm := normalizeKey(predicate, key)
	results := q.store.Match(predicate, norm)
	q.metrics.RecordLookup(predicate, len(results) > 0)
	q.log.Debug().
		Str("predicate", predicate).
		Str("key", norm).
		Strs("results", results).
		Msg("knowledge lookup")
	return results
}

func (q *QueryService) TokenCategory(token string) []string {
	return q.lookup(entity.TokenCategory, token)
}

func (q *QueryService) TokenVolatility(token string) []string {
	return q.lookup(entity.Volatility, token)
}

func (q *QueryService) MarketCapTier(token string) []string {
	return q.lookup(entity.MarketCap, token)
}

func (q *QueryService) ProtocolToken(protocol string) []string {
	return q.lookup(entity.Protocol, protocol)
}

func (q *QueryService) TradingSignal(condition string) []string {
	return q.lookup(entity.SignalCondition, condition)
}

func (q *QueryService) RiskAllocation(level string) []string {
	return q.lookup(entity.RiskAllocation, level)
}

func (q *QueryService) MarketStrategy(condition string) []string {
	return q.lookup(entity.MarketStrategy, condition)
}

func (q *QueryService) MetricAnalysis(metric string) []string {
	return q.lookup(entity.MetricAnalysis, metric)
}

func (q *QueryService) TradingMistakeWarning(mistake string) []string {
	return q.lookup(entity.TradingMistake, mistake)
}

// PortfolioFAQ 只做精确匹配，返回第一条答案
func (q *QueryService) PortfolioFAQ(question string) (string, bool) {
	return lo.First(q.lookup(entity.PortfolioFAQ, question))
}

// Learn 以规范化后的 key 写入一条事实
func (q *QueryService) Learn(predicate, key, value string) error {
	fact := entity.Fact{
		Predicate: predicate,
		Args:      []string{normalizeKey(predicate, key)},
		Value:     value,
	}
	if err := q.store.Add(fact); err != nil {
		return err
	}
	q.log.Info().Str("fact", fact.String()).Msg("knowledge graph updated")
	return nil
}

// PortfolioRisk 按持仓权重对波动率等级加权求和；没有波动率记录的 token 不计分
func (q *QueryService) PortfolioRisk(holdings map[string]float64) float64 {
	total := lo.Sum(lo.Values(holdings))
	if total <= 0 {
		return 0
	}

	risk := 0.0
	for token, value := range holdings {
		level, ok := lo.First(q.TokenVolatility(token))
		if !ok {
			continue
		}
		score, known := volatilityScore[level]
		if !known {
			score = 2
		}
		risk += value / total * score
	}
	return risk
}
