package config

import "time"

const (
	// PollInterval 是 correlation client 轮询收件箱的间隔
	PollInterval   = 500 * time.Millisecond
	RequestTimeout = 30 * time.Second

	ClassifyMaxTokens = 200
	AnswerMaxTokens   = 300

	LLMTemperature = 0.2

	DefaultModel   = "asi1-mini"
	DefaultBaseURL = "https://api.asi1.ai/v1"

	// DefaultRiskLevel 用于 portfolio_analysis 意图
	DefaultRiskLevel = "moderate"
	DefaultToken     = "SOL"
)
