package entity

import (
	"strings"
	"time"
)

// Predicate 是知识库中封闭的关系词表
type Predicate = string

const (
	TokenCategory   Predicate = "token_category"
	MarketCap       Predicate = "market_cap"
	Volatility      Predicate = "volatility"
	Protocol        Predicate = "protocol"
	SignalCondition Predicate = "signal_condition"
	RiskAllocation  Predicate = "risk_allocation"
	MarketStrategy  Predicate = "market_strategy"
	MetricAnalysis  Predicate = "metric_analysis"
	TradingMistake  Predicate = "trading_mistake"
	PortfolioFAQ    Predicate = "portfolio_faq"
)

// Fact 是 predicate(args...) = value 形式的一条事实
type Fact struct {
	Predicate Predicate `json:"predicate"`
	Args      []string  `json:"args"`
	Value     string    `json:"value"`
}

func (f Fact) String() string {
	return f.Predicate + "(" + strings.Join(f.Args, ", ") + ") = " + f.Value
}

type IntentEnum string

const (
	IntentPortfolioAnalysis IntentEnum = "portfolio_analysis"
	IntentTokenAnalysis     IntentEnum = "token_analysis"
	IntentTradingSignal     IntentEnum = "trading_signal"
	IntentRiskAssessment    IntentEnum = "risk_assessment"
	IntentMarketCondition   IntentEnum = "market_condition"
	IntentProtocolInfo      IntentEnum = "protocol_info"
	IntentMistakeWarning    IntentEnum = "mistake_warning"
	IntentFAQ               IntentEnum = "faq"
	IntentUnknown           IntentEnum = "unknown"
)

// Intent 是分类器的输出，Data 可能为空
type Intent struct {
	Intent IntentEnum `json:"intent"`
	Data   *string    `json:"data"`
}

// Datum 返回提取出的数据，缺失时为空串
func (i Intent) Datum() string {
	if i.Data == nil {
		return ""
	}
	return *i.Data
}

func UnknownIntent() Intent {
	return Intent{Intent: IntentUnknown}
}

type Answer struct {
	SelectedQuestion string `json:"selected_question"`
	HumanizedAnswer  string `json:"humanized_answer"`
}

type EnvelopeType string

const (
	EnvelopeMessage EnvelopeType = "message"
	EnvelopeAck     EnvelopeType = "ack"
)

// Envelope 是 chat 通道上的一帧。
// ack 帧的 MsgID 指向被确认的请求；回复帧的 MsgID 与请求的 correlation id 相同。
type Envelope struct {
	Type      EnvelopeType `json:"type"`
	MsgID     string       `json:"msg_id"`
	Sender    string       `json:"sender"`
	Target    string       `json:"target,omitempty"`
	Text      string       `json:"text,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
}
