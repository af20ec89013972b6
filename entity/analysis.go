package entity

import (
	json "github.com/bytedance/sonic"
)

type SignalEnum string

const (
	Buy  SignalEnum = "BUY"
	Sell SignalEnum = "SELL"
	Hold SignalEnum = "HOLD"
)

// Unknown 是所有定性查询缺失时的占位值
const Unknown = "unknown"

// Analysis 是信号背后的量化与定性依据
type Analysis struct {
	UnrealizedPNL        float64 `json:"unrealized_pnl"`
	PriceVsHistoricalAvg float64 `json:"price_vs_historical_avg"`
	Volatility           string  `json:"volatility"`
	MarketCap            string  `json:"market_cap"`
	Category             string  `json:"category"`
}

// SignalResult 每次调用都新建，不做持久化
type SignalResult struct {
	Signal   SignalEnum `json:"signal"`
	Percent  float64    `json:"percent"`
	Analysis Analysis   `json:"analysis"`
}

func (r SignalResult) String() string {
	display, _ := json.MarshalIndent(r, "", "  ")
	return string(display)
}

// PriceRequest 对应 agent 之间传递的价格请求
type PriceRequest struct {
	Token            string    `json:"token"`
	CurrentPrice     float64   `json:"current_price" validate:"gt=0"`
	EntryPrice       float64   `json:"entry_price" validate:"gte=0"`
	HistoricalPrices []float64 `json:"historical_prices" validate:"dive,gte=0"`
	CurrentHoldings  float64   `json:"current_holdings" validate:"gte=0,lte=100"`
}

// SignalReport 在规则引擎输出之外附带检测到的市场状态
type SignalReport struct {
	Token string `json:"token"`
	SignalResult
	Condition       string `json:"market_condition,omitempty"`
	ConditionSignal string `json:"condition_signal,omitempty"`
}
