package prompts

import (
	"strings"

	"github.com/gtoxlili/echoSage/entity"
)

const classifyTemplate = `Given the Solana trading/portfolio query: '{query}'
Classify the intent as one of: 'portfolio_analysis', 'token_analysis', 'trading_signal', 'risk_assessment', 'market_condition', 'protocol_info', 'mistake_warning', 'faq', or 'unknown'.
Extract the most relevant data (e.g., SOL, RAY, portfolio, conservative, bull_market, raydium) from the query.
Return *only* the result in JSON format like this, with no additional text:
{
  "intent": "<classified_intent>",
  "data": "<extracted_data>"
}`

// synthesisTemplates 只覆盖允许自扩展的意图
var synthesisTemplates = map[entity.IntentEnum]string{
	entity.IntentTokenAnalysis: `Query: '{query}'
The Solana token '{data}' is not in my knowledge base. Provide analysis of this token including category, risk level, and key characteristics.
Return *only* the analysis, no additional text.`,

	entity.IntentProtocolInfo: `Query: '{query}'
The DeFi protocol '{data}' is not in my knowledge base. Provide information about this protocol and its token.
Return *only* the protocol information, no additional text.`,

	entity.IntentFAQ: `Query: '{query}'
This is a new Solana portfolio question not in my knowledge base. Provide a helpful, concise answer.
Return *only* the answer, no additional text.`,
}

func BuildClassifyPrompt(query string) string {
	return strings.NewReplacer("{query}", query).Replace(classifyTemplate)
}

// BuildSynthesisPrompt 对不支持的意图返回 false
func BuildSynthesisPrompt(query string, intent entity.IntentEnum, datum string) (string, bool) {
	tmpl, ok := synthesisTemplates[intent]
	if !ok {
		return "", false
	}
	return strings.NewReplacer("{query}", query, "{data}", datum).Replace(tmpl), true
}

// SystemPrompt 约束所有生成请求的角色
const SystemPrompt = `You are echoSage, a Solana portfolio analysis assistant. You answer with concise, factual analysis grounded in the context you are given. You never promise returns and you always remind the user that crypto trading carries risk.`
