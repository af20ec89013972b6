package knowledge

import (
	"fmt"

	"github.com/gtoxlili/echoSage/entity"
)

// seedFacts 是 Solana 生态的初始知识
var seedFacts = []entity.Fact{
	// token -> 分类
	{Predicate: entity.TokenCategory, Args: []string{"SOL"}, Value: "blue_chip"},
	{Predicate: entity.TokenCategory, Args: []string{"USDC"}, Value: "blue_chip"},
	{Predicate: entity.TokenCategory, Args: []string{"USDT"}, Value: "blue_chip"},
	{Predicate: entity.TokenCategory, Args: []string{"RAY"}, Value: "defi"},
	{Predicate: entity.TokenCategory, Args: []string{"SRM"}, Value: "defi"},
	{Predicate: entity.TokenCategory, Args: []string{"ORCA"}, Value: "defi"},
	{Predicate: entity.TokenCategory, Args: []string{"JUP"}, Value: "defi"},
	{Predicate: entity.TokenCategory, Args: []string{"WIF"}, Value: "meme"},
	{Predicate: entity.TokenCategory, Args: []string{"BONK"}, Value: "meme"},
	{Predicate: entity.TokenCategory, Args: []string{"ATLAS"}, Value: "gaming"},
	{Predicate: entity.TokenCategory, Args: []string{"POLIS"}, Value: "gaming"},

	// token -> 市值层级
	{Predicate: entity.MarketCap, Args: []string{"SOL"}, Value: "large_cap"},
	{Predicate: entity.MarketCap, Args: []string{"USDC"}, Value: "large_cap"},
	{Predicate: entity.MarketCap, Args: []string{"RAY"}, Value: "mid_cap"},
	{Predicate: entity.MarketCap, Args: []string{"ORCA"}, Value: "mid_cap"},
	{Predicate: entity.MarketCap, Args: []string{"JUP"}, Value: "mid_cap"},
	{Predicate: entity.MarketCap, Args: []string{"WIF"}, Value: "small_cap"},
	{Predicate: entity.MarketCap, Args: []string{"BONK"}, Value: "micro_cap"},

	// token -> 波动率
	{Predicate: entity.Volatility, Args: []string{"SOL"}, Value: "high"},
	{Predicate: entity.Volatility, Args: []string{"USDC"}, Value: "low"},
	{Predicate: entity.Volatility, Args: []string{"USDT"}, Value: "low"},
	{Predicate: entity.Volatility, Args: []string{"RAY"}, Value: "very_high"},
	{Predicate: entity.Volatility, Args: []string{"ORCA"}, Value: "very_high"},
	{Predicate: entity.Volatility, Args: []string{"JUP"}, Value: "very_high"},
	{Predicate: entity.Volatility, Args: []string{"WIF"}, Value: "extreme"},
	{Predicate: entity.Volatility, Args: []string{"BONK"}, Value: "extreme"},

	// DeFi 协议 -> token
	{Predicate: entity.Protocol, Args: []string{"raydium"}, Value: "RAY"},
	{Predicate: entity.Protocol, Args: []string{"orca"}, Value: "ORCA"},
	{Predicate: entity.Protocol, Args: []string{"jupiter"}, Value: "JUP"},
	{Predicate: entity.Protocol, Args: []string{"serum"}, Value: "SRM"},
	{Predicate: entity.Protocol, Args: []string{"marinade"}, Value: "MNDE"},

	{Predicate: entity.SignalCondition, Args: []string{"oversold"}, Value: "BUY"},
	{Predicate: entity.SignalCondition, Args: []string{"overbought"}, Value: "SELL"},
	{Predicate: entity.SignalCondition, Args: []string{"accumulation_zone"}, Value: "DCA"},
	{Predicate: entity.SignalCondition, Args: []string{"profit_taking"}, Value: "SELL"},
	{Predicate: entity.SignalCondition, Args: []string{"sideways"}, Value: "HOLD"},

	{Predicate: entity.RiskAllocation, Args: []string{"conservative"}, Value: "70% SOL/USDC, 30% stablecoins"},
	{Predicate: entity.RiskAllocation, Args: []string{"moderate"}, Value: "50% SOL, 30% DeFi tokens, 20% stables"},
	{Predicate: entity.RiskAllocation, Args: []string{"aggressive"}, Value: "40% SOL, 40% DeFi, 15% memes, 5% stables"},

	{Predicate: entity.MarketStrategy, Args: []string{"bull_market"}, Value: "accumulate growth tokens, reduce stables"},
	{Predicate: entity.MarketStrategy, Args: []string{"bear_market"}, Value: "increase stables, DCA blue chips"},
	{Predicate: entity.MarketStrategy, Args: []string{"sideways"}, Value: "range trade, collect yield"},

	{Predicate: entity.MetricAnalysis, Args: []string{"high_volume"}, Value: "strong momentum signal"},
	{Predicate: entity.MetricAnalysis, Args: []string{"low_volume"}, Value: "weak conviction, avoid"},
	{Predicate: entity.MetricAnalysis, Args: []string{"rising_tvl"}, Value: "protocol growth, bullish"},
	{Predicate: entity.MetricAnalysis, Args: []string{"falling_tvl"}, Value: "capital flight, bearish"},

	{Predicate: entity.TradingMistake, Args: []string{"ape_into_memes"}, Value: "limit meme allocation to 5-10% max"},
	{Predicate: entity.TradingMistake, Args: []string{"fomo_buying"}, Value: "wait for retracements, use DCA"},
	{Predicate: entity.TradingMistake, Args: []string{"panic_selling"}, Value: "stick to plan, zoom out timeframe"},
	{Predicate: entity.TradingMistake, Args: []string{"overleverage"}, Value: "never risk more than you can lose"},

	// FAQ 按问题原文精确匹配
	{Predicate: entity.PortfolioFAQ, Args: []string{"How to analyze Solana portfolio?"}, Value: "Check token allocation, risk distribution, and correlation"},
	{Predicate: entity.PortfolioFAQ, Args: []string{"When to rebalance?"}, Value: "Monthly or when allocation drifts >10% from target"},
	{Predicate: entity.PortfolioFAQ, Args: []string{"Best Solana DeFi tokens?"}, Value: "RAY, ORCA, JUP for established protocols"},
	{Predicate: entity.PortfolioFAQ, Args: []string{"How much SOL to hold?"}, Value: "30-50% for most Solana portfolios"},
}

// Seed 写入初始知识，可重复调用
func Seed(s *Store) error {
	for _, f := range seedFacts {
		if err := s.Add(f); err != nil {
			return fmt.Errorf("failed to seed %s: %w", f, err)
		}
	}
	return nil
}
