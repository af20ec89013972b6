package trade

import (
	"errors"
	"maps"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"github.com/samber/lo"
)

var ErrNegativeHolding = errors.New("holding value must not be negative")

// Book 记录每个 token 的持仓市值，key 统一为大写 symbol
type Book struct {
	mu       sync.RWMutex
	holdings map[string]float64
	log      zerolog.Logger
}

func NewBook(log zerolog.Logger) *Book {
	return &Book{
		holdings: make(map[string]float64),
		log:      log,
	}
}

// Set 覆盖一个 token 的持仓市值
func (b *Book) Set(token string, value float64) error {
	if value < 0 {
		return ErrNegativeHolding
	}
	token = strings.ToUpper(token)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.holdings[token] = value
	b.log.Debug().Str("token", token).Float64("value", value).Msg("holding updated")
	return nil
}

func (b *Book) Remove(token string) {
	token = strings.ToUpper(token)

	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.holdings[token]; ok {
		delete(b.holdings, token)
		b.log.Debug().Str("token", token).Msg("holding removed")
	}
}

func (b *Book) Get(token string) (float64, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	value, ok := b.holdings[strings.ToUpper(token)]
	return value, ok
}

// All 返回副本以保证线程安全
func (b *Book) All() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return maps.Clone(b.holdings)
}

func (b *Book) Total() float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return lo.Sum(lo.Values(b.holdings))
}

// Percent 返回 token 占组合总值的百分比 (0-100)，总值为 0 时返回 0
func (b *Book) Percent(token string) float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := lo.Sum(lo.Values(b.holdings))
	if total <= 0 {
		return 0
	}
	return b.holdings[strings.ToUpper(token)] / total * 100
}

// Weights 返回所有 token 的百分比权重
func (b *Book) Weights() map[string]float64 {
	b.mu.RLock()
	defer b.mu.RUnlock()

	total := lo.Sum(lo.Values(b.holdings))
	return lo.MapValues(b.holdings, func(value float64, _ string) float64 {
		if total <= 0 {
			return 0
		}
		return value / total * 100
	})
}
