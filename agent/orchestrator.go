package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"golang.org/x/sync/singleflight"

	"github.com/gtoxlili/echoSage/config"
	"github.com/gtoxlili/echoSage/entity"
	"github.com/gtoxlili/echoSage/knowledge"
	"github.com/gtoxlili/echoSage/metrics"
	"github.com/gtoxlili/echoSage/prompts"
	"github.com/gtoxlili/echoSage/trade"
)

type Classifier interface {
	Classify(ctx context.Context, text string) (entity.Intent, error)
}

// Synthesizer 返回空串表示没有可用知识，error 只用于调用失败
type Synthesizer interface {
	Synthesize(ctx context.Context, query string, intent entity.IntentEnum, datum string) (string, error)
}

type Generator interface {
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)
}

// Orchestrator 串起 分类 -> 查知识库 -> 未命中时合成并回写 -> 生成回答。
// 调用之间不保留会话状态。
type Orchestrator struct {
	classifier  Classifier
	synthesizer Synthesizer
	generator   Generator
	knowledge   *knowledge.QueryService

	book             *trade.Book
	snapshotPath     string
	synthesisTimeout time.Duration
	saveMu           sync.Mutex

	// flights 合并同一时刻对同一缺失知识的合成请求
	flights singleflight.Group
	log     zerolog.Logger
	metrics *metrics.Recorder
}

type Option func(*Orchestrator)

// WithBook 让 portfolio_analysis 带上当前持仓权重和风险分
func WithBook(book *trade.Book) Option {
	return func(o *Orchestrator) {
		o.book = book
	}
}

// WithAutosave 每次学到新事实后把知识库写到 path
func WithAutosave(path string) Option {
	return func(o *Orchestrator) {
		o.snapshotPath = path
	}
}

// WithSynthesisTimeout 限制一次共享合成调用的总时长，<= 0 时保持默认值
func WithSynthesisTimeout(d time.Duration) Option {
	return func(o *Orchestrator) {
		if d > 0 {
			o.synthesisTimeout = d
		}
	}
}

func WithMetrics(rec *metrics.Recorder) Option {
	return func(o *Orchestrator) {
		o.metrics = rec
	}
}

func NewOrchestrator(
	classifier Classifier,
	synthesizer Synthesizer,
	generator Generator,
	kb *knowledge.QueryService,
	log zerolog.Logger,
	opts ...Option,
) *Orchestrator {
	o := &Orchestrator{
		classifier:  classifier,
		synthesizer: synthesizer,
		generator:   generator,
		knowledge:   kb,
		log:         log.With().Str("component", "orchestrator").Logger(),

		synthesisTimeout: config.RequestTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) Answer(ctx context.Context, query string) (entity.Answer, error) {
	start := time.Now()
	defer func() {
		o.metrics.RecordLatency("answer", time.Since(start).Seconds())
	}()

	intent, err := o.classifier.Classify(ctx, query)
	if err != nil {
		return lo.Empty[entity.Answer](), fmt.Errorf("failed to classify query: %w", err)
	}
	o.metrics.RecordIntent(string(intent.Intent))
	o.log.Info().
		Str("query", query).
		Str("intent", string(intent.Intent)).
		Str("data", intent.Datum()).
		Msg("query classified")

	promptContext, err := o.buildContext(ctx, query, intent)
	if err != nil {
		return lo.Empty[entity.Answer](), err
	}

	humanized, err := o.generator.Generate(ctx, prompts.Finalize(promptContext), config.AnswerMaxTokens)
	if err != nil {
		return lo.Empty[entity.Answer](), fmt.Errorf("failed to generate answer: %w", err)
	}

	return entity.Answer{
		SelectedQuestion: query,
		HumanizedAnswer:  humanized,
	}, nil
}
