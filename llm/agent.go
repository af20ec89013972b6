package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/shared"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/prompts"
	"github.com/gtoxlili/echoSage/utils"
)

var errMissingField = errors.New("classification is missing a field")

var knownIntents = []entity.IntentEnum{
	entity.IntentPortfolioAnalysis,
	entity.IntentTokenAnalysis,
	entity.IntentTradingSignal,
	entity.IntentRiskAssessment,
	entity.IntentMarketCondition,
	entity.IntentProtocolInfo,
	entity.IntentMistakeWarning,
	entity.IntentFAQ,
	entity.IntentUnknown,
}

// Agent 同时承担意图分类、知识合成和最终回答的生成
type Agent struct {
	client      openai.Client
	model       string
	temperature float64
	log         zerolog.Logger
}

func NewAgent(cfg config.LLMConfig, log zerolog.Logger) *Agent {
	return &Agent{
		client:      resolveClient(cfg),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		log:         log.With().Str("component", "llm").Str("model", cfg.Model).Logger(),
	}
}

func (a *Agent) complete(ctx context.Context, prompt string, maxTokens int, jsonMode bool) (*openai.ChatCompletion, error) {
	param := openai.ChatCompletionNewParams{
		Model: a.model,
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(prompts.SystemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(a.temperature),
		MaxTokens:   openai.Int(int64(maxTokens)),
	}
	if jsonMode {
		param.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: lo.ToPtr(shared.NewResponseFormatJSONObjectParam()),
		}
	}
	return a.client.Chat.Completions.New(ctx, param)
}

// Classify 调用失败时返回错误；模型输出无法解析时降级为 unknown 意图
func (a *Agent) Classify(ctx context.Context, text string) (entity.Intent, error) {
	completion, err := a.complete(ctx, prompts.BuildClassifyPrompt(text), config.ClassifyMaxTokens, true)
	if err != nil {
		return lo.Empty[entity.Intent](), fmt.Errorf("failed to get classification: %w", err)
	}

	intent, err := parseClassification(completion)
	if err != nil {
		a.log.Warn().Err(err).Str("query", text).Msg("malformed classification, falling back to unknown")
		return entity.UnknownIntent(), nil
	}
	if !lo.Contains(knownIntents, intent.Intent) {
		a.log.Warn().Str("query", text).Str("intent", string(intent.Intent)).Msg("unrecognized intent, falling back to unknown")
		return entity.UnknownIntent(), nil
	}

	a.log.Debug().Str("intent", string(intent.Intent)).Str("data", intent.Datum()).Msg("query classified")
	return intent, nil
}

// parseClassification 要求 intent 和 data 两个字段都出现；data 可以是 null
func parseClassification(completion *openai.ChatCompletion) (entity.Intent, error) {
	raw, err := utils.ParseResult[map[string]any](completion)
	if err != nil {
		return lo.Empty[entity.Intent](), err
	}

	name, ok := raw["intent"].(string)
	if !ok {
		return lo.Empty[entity.Intent](), fmt.Errorf("%w: intent", errMissingField)
	}
	data, ok := raw["data"]
	if !ok {
		return lo.Empty[entity.Intent](), fmt.Errorf("%w: data", errMissingField)
	}

	intent := entity.Intent{Intent: entity.IntentEnum(strings.ToLower(strings.TrimSpace(name)))}
	switch v := data.(type) {
	case nil:
	case string:
		if strings.TrimSpace(v) != "" {
			intent.Data = &v
		}
	default:
		intent.Data = lo.ToPtr(fmt.Sprint(v))
	}
	return intent, nil
}

// Synthesize 为知识库未命中的查询生成补充知识，不支持的意图返回空串
func (a *Agent) Synthesize(ctx context.Context, query string, intent entity.IntentEnum, datum string) (string, error) {
	prompt, ok := prompts.BuildSynthesisPrompt(query, intent, datum)
	if !ok {
		return "", nil
	}
	return a.Generate(ctx, prompt, config.AnswerMaxTokens)
}

func (a *Agent) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	completion, err := a.complete(ctx, prompt, maxTokens, false)
	if err != nil {
		return "", fmt.Errorf("failed to get completion: %w", err)
	}
	content, err := utils.CompletionContent(completion)
	if err != nil {
		return "", fmt.Errorf("failed to read completion: %w", err)
	}
	return strings.TrimSpace(content), nil
}
