package knowledge

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gtoxlili/echoSage/entity"
)

func TestStoreAddIsIdempotent(t *testing.T) {
	s := NewStore()
	fact := entity.Fact{Predicate: entity.Volatility, Args: []string{"SOL"}, Value: "high"}

	require.NoError(t, s.Add(fact))
	before := s.Match(entity.Volatility, "SOL")

	require.NoError(t, s.Add(fact))
	after := s.Match(entity.Volatility, "SOL")

	assert.Equal(t, before, after)
	assert.Equal(t, []string{"high"}, after)
	assert.Equal(t, 1, s.Len())
}

func TestStoreMatchKeepsInsertionOrderAndDuplicates(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(entity.Fact{Predicate: entity.Volatility, Args: []string{"XYZ"}, Value: "high"}))
	require.NoError(t, s.Add(entity.Fact{Predicate: entity.Volatility, Args: []string{"XYZ"}, Value: "low"}))
	require.NoError(t, s.Add(entity.Fact{Predicate: entity.Volatility, Args: []string{"ABC"}, Value: "extreme"}))

	assert.Equal(t, []string{"high", "low"}, s.Match(entity.Volatility, "XYZ"))
	assert.Equal(t, []string{"extreme"}, s.Match(entity.Volatility, "ABC"))
}

func TestStoreMatchIsCaseSensitive(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(entity.Fact{Predicate: entity.Volatility, Args: []string{"SOL"}, Value: "high"}))

	assert.Nil(t, s.Match(entity.Volatility, "sol"))
	assert.Nil(t, s.Match(entity.MarketCap, "SOL"))
}

func TestStoreMatchReturnsCopy(t *testing.T) {
	s := NewStore()
	require.NoError(t, s.Add(entity.Fact{Predicate: entity.Protocol, Args: []string{"orca"}, Value: "ORCA"}))

	got := s.Match(entity.Protocol, "orca")
	got[0] = "MUTATED"

	assert.Equal(t, []string{"ORCA"}, s.Match(entity.Protocol, "orca"))
}

func TestStoreRejectsEmptyPredicate(t *testing.T) {
	s := NewStore()
	err := s.Add(entity.Fact{Args: []string{"SOL"}, Value: "high"})
	assert.ErrorIs(t, err, ErrEmptyPredicate)
	assert.Zero(t, s.Len())
}

func TestStoreMaxFacts(t *testing.T) {
	s := NewStore(WithMaxFacts(1))
	first := entity.Fact{Predicate: entity.Volatility, Args: []string{"SOL"}, Value: "high"}

	require.NoError(t, s.Add(first))
	// 已存在的事实不受上限影响
	require.NoError(t, s.Add(first))

	err := s.Add(entity.Fact{Predicate: entity.Volatility, Args: []string{"RAY"}, Value: "very_high"})
	assert.ErrorIs(t, err, ErrStoreFull)
	assert.Nil(t, s.Match(entity.Volatility, "RAY"))
}

func TestStoreConcurrentAddDoesNotDuplicate(t *testing.T) {
	s := NewStore()
	fact := entity.Fact{Predicate: entity.TokenCategory, Args: []string{"NEW"}, Value: entity.Unknown}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = s.Add(fact)
			_ = s.Add(entity.Fact{Predicate: entity.MetricAnalysis, Args: []string{fmt.Sprintf("m%d", i)}, Value: "v"})
			_ = s.Match(entity.TokenCategory, "NEW")
		}(i)
	}
	wg.Wait()

	assert.Equal(t, []string{entity.Unknown}, s.Match(entity.TokenCategory, "NEW"))
	assert.Equal(t, 33, s.Len())
}

func TestSeedIsRepeatable(t *testing.T) {
	s := NewStore()
	require.NoError(t, Seed(s))
	n := s.Len()
	require.NoError(t, Seed(s))

	assert.Equal(t, n, s.Len())
	assert.Equal(t, []string{"blue_chip"}, s.Match(entity.TokenCategory, "SOL"))
	assert.Equal(t, []string{"RAY"}, s.Match(entity.Protocol, "raydium"))
}
