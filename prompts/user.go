package prompts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/samber/lo"
)

const disclaimer = "\nFormat response as professional Solana trading analysis. Include appropriate disclaimers about trading risks."

const genericTemplate = `Query: '{query}'
Provide general Solana portfolio analysis guidance.`

const portfolioTemplate = `Query: '{query}'
Recommended Portfolio Allocation: {allocation}
{holdings_block}Provide comprehensive Solana portfolio analysis and recommendations.`

const holdingsTemplate = `Current Holdings: {weights}
Weighted Volatility Score: {risk} (1 = low, 4 = extreme)
`

const tokenTemplate = `Query: '{query}'
Token: {data}
Category: {category}
Volatility: {volatility}
Market Cap: {market_cap}
Provide detailed token analysis and trading recommendations.`

const synthesizedTokenTemplate = `Query: '{query}'
Token: {data}
Analysis: {analysis}
Provide token analysis based on available information.`

const signalTemplate = `Query: '{query}'
Market Condition: {data}
Recommended Signal: {signals}
Explain the trading signal and reasoning.`

const riskTemplate = `Query: '{query}'
Risk Level: {data}
Recommended Allocation: {allocation}
Provide risk assessment and portfolio allocation guidance.`

const strategyTemplate = `Query: '{query}'
Market Condition: {data}
Recommended Strategy: {strategy}
Explain how to position the portfolio for this market condition.`

const protocolTemplate = `Query: '{query}'
Protocol: {data}
Associated Token: {tokens}
Provide protocol information and investment analysis.`

const synthesizedProtocolTemplate = `Query: '{query}'
Protocol: {data}
Information: {info}
Provide protocol analysis based on available information.`

const mistakeTemplate = `Query: '{query}'
Trading Mistake: {data}
Warning: {warnings}
Provide detailed explanation of this trading mistake and how to avoid it.`

const faqTemplate = `Query: '{query}'
Answer: {answer}
Provide comprehensive explanation with Solana-specific context.`

const synthesizedFAQTemplate = `Query: '{query}'
Answer: {answer}
Provide helpful Solana portfolio guidance.`

// Fallback 模板：意图已识别但知识库没有数据
const (
	signalFallback   = "Query: '{query}'\nProvide general trading signal analysis for {data}."
	riskFallback     = "Query: '{query}'\nProvide risk assessment guidance for {data} risk profile."
	strategyFallback = "Query: '{query}'\nProvide general trading strategy guidance for a {data} market."
	mistakeFallback  = "Query: '{query}'\nProvide guidance about avoiding the trading mistake: {data}."
)

func joinOr(values []string, fallback string) string {
	if len(values) == 0 {
		return fallback
	}
	return strings.Join(values, ", ")
}

func render(tmpl string, pairs ...string) string {
	return strings.NewReplacer(pairs...).Replace(tmpl)
}

// Finalize 在上下文末尾追加输出格式要求
func Finalize(context string) string {
	return context + disclaimer
}

func Generic(query string) string {
	return render(genericTemplate, "{query}", query)
}

// formatWeights 按权重从大到小输出 "SOL 60.00%, USDC 40.00%"
func formatWeights(weights map[string]float64) string {
	tokens := lo.Keys(weights)
	sort.Slice(tokens, func(i, j int) bool {
		if weights[tokens[i]] == weights[tokens[j]] {
			return tokens[i] < tokens[j]
		}
		return weights[tokens[i]] > weights[tokens[j]]
	})
	return strings.Join(lo.Map(tokens, func(token string, _ int) string {
		return fmt.Sprintf("%s %.2f%%", token, weights[token])
	}), ", ")
}

// Portfolio 在持仓为空时省略持仓段落
func Portfolio(query string, allocation []string, weights map[string]float64, risk float64) string {
	holdingsBlock := ""
	if len(weights) > 0 {
		holdingsBlock = render(holdingsTemplate,
			"{weights}", formatWeights(weights),
			"{risk}", fmt.Sprintf("%.2f", risk),
		)
	}
	return render(portfolioTemplate,
		"{query}", query,
		"{allocation}", strings.Join(allocation, ", "),
		"{holdings_block}", holdingsBlock,
	)
}

func Token(query, token string, category, volatility, marketCap []string) string {
	return render(tokenTemplate,
		"{query}", query,
		"{data}", token,
		"{category}", joinOr(category, "Unknown"),
		"{volatility}", joinOr(volatility, "Unknown"),
		"{market_cap}", joinOr(marketCap, "Unknown"),
	)
}

func SynthesizedToken(query, token, analysis string) string {
	return render(synthesizedTokenTemplate,
		"{query}", query,
		"{data}", token,
		"{analysis}", lo.CoalesceOrEmpty(analysis, "Token not found in database"),
	)
}

func Signal(query, condition string, signals []string) string {
	if len(signals) == 0 {
		return render(signalFallback, "{query}", query, "{data}", condition)
	}
	return render(signalTemplate, "{query}", query, "{data}", condition, "{signals}", strings.Join(signals, ", "))
}

func Risk(query, level string, allocation []string) string {
	if len(allocation) == 0 {
		return render(riskFallback, "{query}", query, "{data}", level)
	}
	return render(riskTemplate, "{query}", query, "{data}", level, "{allocation}", strings.Join(allocation, ", "))
}

func Strategy(query, condition string, strategy []string) string {
	if len(strategy) == 0 {
		return render(strategyFallback, "{query}", query, "{data}", condition)
	}
	return render(strategyTemplate, "{query}", query, "{data}", condition, "{strategy}", strings.Join(strategy, ", "))
}

func Protocol(query, protocol string, tokens []string) string {
	return render(protocolTemplate, "{query}", query, "{data}", protocol, "{tokens}", strings.Join(tokens, ", "))
}

func SynthesizedProtocol(query, protocol, info string) string {
	return render(synthesizedProtocolTemplate,
		"{query}", query,
		"{data}", protocol,
		"{info}", lo.CoalesceOrEmpty(info, "Protocol not found in database"),
	)
}

func Mistake(query, mistake string, warnings []string) string {
	if len(warnings) == 0 {
		return render(mistakeFallback, "{query}", query, "{data}", mistake)
	}
	return render(mistakeTemplate, "{query}", query, "{data}", mistake, "{warnings}", strings.Join(warnings, ", "))
}

func FAQ(query, answer string) string {
	return render(faqTemplate, "{query}", query, "{answer}", answer)
}

func SynthesizedFAQ(query, answer string) string {
	return render(synthesizedFAQTemplate,
		"{query}", query,
		"{answer}", lo.CoalesceOrEmpty(answer, "Information not available"),
	)
}
