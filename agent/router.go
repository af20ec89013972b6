package agent

import (
	"context"
	"fmt"
	"strings"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/prompts"
)

// buildContext 按意图组装给生成器的上下文，缺少可用数据时一律退回通用上下文
func (o *Orchestrator) buildContext(ctx context.Context, query string, intent entity.Intent) (string, error) {
	datum := strings.TrimSpace(intent.Datum())
	kb := o.knowledge

	switch intent.Intent {
	case entity.IntentPortfolioAnalysis:
		allocation := kb.RiskAllocation(config.DefaultRiskLevel)
		var weights map[string]float64
		risk := 0.0
		if o.book != nil {
			weights = o.book.Weights()
			risk = kb.PortfolioRisk(o.book.All())
		}
		if len(allocation) == 0 && len(weights) == 0 {
			break
		}
		return prompts.Portfolio(query, allocation, weights, risk), nil

	case entity.IntentTokenAnalysis:
		if datum == "" {
			break
		}
		token := strings.ToUpper(strings.Trim(datum, `"`))
		category, volatility, marketCap := kb.TokenCategory(token), kb.TokenVolatility(token), kb.MarketCapTier(token)
		// 任一维度有记录即视为已知 token
		if len(category)+len(volatility)+len(marketCap) > 0 {
			return prompts.Token(query, token, category, volatility, marketCap), nil
		}
		analysis, err := o.synthesize(ctx, query, intent.Intent, token)
		if err != nil {
			return "", err
		}
		if analysis != "" {
			return prompts.SynthesizedToken(query, token, analysis), nil
		}

	case entity.IntentTradingSignal:
		if datum == "" {
			break
		}
		return prompts.Signal(query, datum, kb.TradingSignal(datum)), nil

	case entity.IntentRiskAssessment:
		level := datum
		if level == "" {
			level = config.DefaultRiskLevel
		}
		return prompts.Risk(query, level, kb.RiskAllocation(level)), nil

	case entity.IntentMarketCondition:
		if datum == "" {
			break
		}
		return prompts.Strategy(query, datum, kb.MarketStrategy(datum)), nil

	case entity.IntentProtocolInfo:
		if datum == "" {
			break
		}
		if tokens := kb.ProtocolToken(datum); len(tokens) > 0 {
			return prompts.Protocol(query, datum, tokens), nil
		}
		info, err := o.synthesize(ctx, query, intent.Intent, datum)
		if err != nil {
			return "", err
		}
		if info != "" {
			return prompts.SynthesizedProtocol(query, datum, info), nil
		}

	case entity.IntentMistakeWarning:
		if datum == "" {
			break
		}
		return prompts.Mistake(query, datum, kb.TradingMistakeWarning(datum)), nil

	case entity.IntentFAQ:
		if answer, ok := kb.PortfolioFAQ(query); ok {
			return prompts.FAQ(query, answer), nil
		}
		answer, err := o.synthesize(ctx, query, intent.Intent, datum)
		if err != nil {
			return "", err
		}
		if answer != "" {
			return prompts.SynthesizedFAQ(query, answer), nil
		}
	}

	return prompts.Generic(query), nil
}

// synthesize 调用合成器并在拿到非空结果后回写知识库。
// 相同 (intent, datum, query) 的并发调用只会触发一次合成；共享的调用脱离单个调用方的取消，
// 只受 synthesisTimeout 约束，调用方取消时只放弃自己的等待。
func (o *Orchestrator) synthesize(ctx context.Context, query string, intent entity.IntentEnum, datum string) (string, error) {
	key := strings.Join([]string{string(intent), datum, query}, "\x00")
	ch := o.flights.DoChan(key, func() (any, error) {
		flightCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), o.synthesisTimeout)
		defer cancel()

		text, err := o.synthesizer.Synthesize(flightCtx, query, intent, datum)
		if err != nil {
			o.metrics.RecordSynthesis(string(intent), "error")
			return "", err
		}
		text = strings.TrimSpace(text)
		if text == "" {
			o.metrics.RecordSynthesis(string(intent), "empty")
			o.log.Info().Str("intent", string(intent)).Str("data", datum).Msg("synthesizer returned no knowledge")
			return "", nil
		}
		o.metrics.RecordSynthesis(string(intent), "ok")
		o.writeBack(query, intent, datum, text)
		return text, nil
	})

	select {
	case <-ctx.Done():
		return "", fmt.Errorf("failed to synthesize knowledge: %w", ctx.Err())
	case res := <-ch:
		if res.Err != nil {
			return "", fmt.Errorf("failed to synthesize knowledge: %w", res.Err)
		}
		if res.Shared {
			o.log.Debug().Str("intent", string(intent)).Str("data", datum).Msg("synthesis result shared")
		}
		return res.Val.(string), nil
	}
}

func (o *Orchestrator) writeBack(query string, intent entity.IntentEnum, datum, synthesized string) {
	switch intent {
	case entity.IntentTokenAnalysis:
		o.learn(entity.TokenCategory, datum, entity.Unknown)
	case entity.IntentProtocolInfo:
		o.learn(entity.Protocol, datum, entity.Unknown)
	case entity.IntentFAQ:
		o.learn(entity.PortfolioFAQ, query, synthesized)
	}
}

// learn 的失败只记日志和指标，不影响本次回答
func (o *Orchestrator) learn(predicate, key, value string) {
	if err := o.knowledge.Learn(predicate, key, value); err != nil {
		o.metrics.RecordLearned(predicate, "failed")
		o.log.Warn().Err(err).Str("predicate", predicate).Str("key", key).Msg("failed to extend knowledge")
		return
	}
	o.metrics.RecordLearned(predicate, "stored")

	if o.snapshotPath == "" {
		return
	}
	o.saveMu.Lock()
	defer o.saveMu.Unlock()
	if err := o.knowledge.Store().Save(o.snapshotPath); err != nil {
		o.metrics.RecordLearned(predicate, "autosave_failed")
		o.log.Warn().Err(err).Str("path", o.snapshotPath).Msg("failed to autosave knowledge")
	}
}
