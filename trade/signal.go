package trade

import (
	"github.com/samber/lo"

	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/utils"
)

// TokenProfile 是规则引擎需要的定性查询
type TokenProfile interface {
	TokenVolatility(token string) []string
	MarketCapTier(token string) []string
	TokenCategory(token string) []string
}

// Engine 把价格历史与持仓占比映射为 BUY/SELL/HOLD。
// 除了读取知识库快照外没有副作用，可并发调用。
type Engine struct {
	profile TokenProfile
}

func NewEngine(profile TokenProfile) *Engine {
	return &Engine{profile: profile}
}

// ComputeSignal 按顺序匹配规则，只采用第一条命中的规则
func (e *Engine) ComputeSignal(
	token string,
	currentPrice, entryPrice float64,
	historicalPrices []float64,
	holdingsPercent float64,
) entity.SignalResult {
	unrealizedPnl := 0.0
	if entryPrice > 0 {
		unrealizedPnl = (currentPrice - entryPrice) / entryPrice * 100
	}

	avgHistorical := currentPrice
	if len(historicalPrices) > 0 {
		avgHistorical = utils.Avg(historicalPrices)
	}
	priceVsAvg := 0.0
	if avgHistorical != 0 {
		priceVsAvg = (currentPrice - avgHistorical) / avgHistorical * 100
	}

	volatility := e.profile.TokenVolatility(token)
	marketCap := e.profile.MarketCapTier(token)
	category := e.profile.TokenCategory(token)

	signal, percent := entity.Hold, 0.0
	switch {
	// 浮亏且未超配：定投补仓
	case unrealizedPnl < -10 && holdingsPercent < 50:
		signal, percent = entity.Buy, min(15, 50-holdingsPercent)
	// 大幅浮盈：分批止盈
	case unrealizedPnl > 15 && holdingsPercent > 5:
		signal, percent = entity.Sell, min(25, holdingsPercent-5)
	// 低于历史均价，meme 币除外
	case priceVsAvg < -5 && len(category) > 0 && !lo.Contains(category, "meme"):
		signal, percent = entity.Buy, 10
	case priceVsAvg > 10:
		signal, percent = entity.Sell, 15
	}

	return entity.SignalResult{
		Signal:  signal,
		Percent: percent,
		Analysis: entity.Analysis{
			UnrealizedPNL:        utils.Round2(unrealizedPnl),
			PriceVsHistoricalAvg: utils.Round2(priceVsAvg),
			Volatility:           firstOrUnknown(volatility),
			MarketCap:            firstOrUnknown(marketCap),
			Category:             firstOrUnknown(category),
		},
	}
}

func firstOrUnknown(values []string) string {
	return lo.FirstOr(values, entity.Unknown)
}
