package knowledge

import (
	"errors"
	"strings"
	"sync"

	"github.com/gtoxlili/echoSage/entity"
)

var (
	ErrEmptyPredicate = errors.New("knowledge: empty predicate")
	ErrStoreFull      = errors.New("knowledge: fact limit reached")
)

// keySep 不会出现在 symbol 或问题文本里
const keySep = "\x1f"

// Store 是进程内的事实集合，按 (predicate, args) 建索引。
// 同一条事实只保存一次；没有删除操作。
type Store struct {
	mu sync.RWMutex
	// facts 保持插入顺序，用于快照
	facts []entity.Fact
	// index 的 key 是 predicate + 绑定参数，value 按插入顺序排列
	index    map[string][]string
	seen     map[string]struct{}
	maxFacts int
}

type Option func(*Store)

// WithMaxFacts 限制事实数量，<= 0 表示不限制
func WithMaxFacts(n int) Option {
	return func(s *Store) {
		s.maxFacts = n
	}
}

func NewStore(opts ...Option) *Store {
	s := &Store{
		index: make(map[string][]string),
		seen:  make(map[string]struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func indexKey(predicate string, args []string) string {
	var b strings.Builder
	b.WriteString(predicate)
	for _, arg := range args {
		b.WriteString(keySep)
		b.WriteString(arg)
	}
	return b.String()
}

func canonFact(f entity.Fact) string {
	return indexKey(f.Predicate, f.Args) + keySep + keySep + f.Value
}

// Add 插入一条事实，重复插入是空操作。参数个数不做校验。
func (s *Store) Add(f entity.Fact) error {
	if f.Predicate == "" {
		return ErrEmptyPredicate
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	canon := canonFact(f)
	if _, ok := s.seen[canon]; ok {
		return nil
	}
	if s.maxFacts > 0 && len(s.facts) >= s.maxFacts {
		return ErrStoreFull
	}

	f.Args = append([]string(nil), f.Args...)
	s.seen[canon] = struct{}{}
	s.facts = append(s.facts, f)
	key := indexKey(f.Predicate, f.Args)
	s.index[key] = append(s.index[key], f.Value)
	return nil
}

// Match 返回绑定到 (predicate, args) 的全部取值，顺序与插入顺序一致。
// 调用方负责大小写规范化。
func (s *Store) Match(predicate string, args ...string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	values := s.index[indexKey(predicate, args)]
	if len(values) == 0 {
		return nil
	}
	return append([]string(nil), values...)
}

// Facts 返回按插入顺序排列的副本
func (s *Store) Facts() []entity.Fact {
	s.mu.RLock()
	defer s.mu.RUnlock()

	clone := make([]entity.Fact, len(s.facts))
	for i, f := range s.facts {
		f.Args = append([]string(nil), f.Args...)
		clone[i] = f
	}
	return clone
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.facts)
}
