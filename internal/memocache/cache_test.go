package memocache_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/duggerlink/dlt/internal/memocache"
)

const (
	testCacheTimeToLiveConstant      = 30 * time.Second
	testCacheHitCaseNameConstant     = "hit_inside_window"
	testCacheMissCaseNameConstant    = "miss_after_window"
	testCacheExactTTLCaseNameConstant = "miss_at_exact_window_boundary"
)

type manualClock struct {
	currentTime time.Time
}

func (clock *manualClock) Now() time.Time {
	return clock.currentTime
}

func (clock *manualClock) Advance(elapsedDuration time.Duration) {
	clock.currentTime = clock.currentTime.Add(elapsedDuration)
}

func TestExpiringCacheWindowBehavior(testInstance *testing.T) {
	testCases := []struct {
		name                string
		elapsedBetweenCalls time.Duration
		expectedInvocations int
	}{
		{
			name:                testCacheHitCaseNameConstant,
			elapsedBetweenCalls: testCacheTimeToLiveConstant - time.Second,
			expectedInvocations: 1,
		},
		{
			name:                testCacheMissCaseNameConstant,
			elapsedBetweenCalls: testCacheTimeToLiveConstant + time.Second,
			expectedInvocations: 2,
		},
		{
			name:                testCacheExactTTLCaseNameConstant,
			elapsedBetweenCalls: testCacheTimeToLiveConstant,
			expectedInvocations: 2,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			clock := &manualClock{currentTime: time.Unix(1700000000, 0)}
			cache := memocache.NewExpiringCache[string](testCacheTimeToLiveConstant, clock.Now)

			invocationCount := 0
			produce := func() (string, error) {
				invocationCount++
				return "produced", nil
			}

			firstValue, firstError := cache.Do(memocache.CallKey("status"), produce)
			require.NoError(testInstance, firstError)
			require.Equal(testInstance, "produced", firstValue)

			clock.Advance(testCase.elapsedBetweenCalls)

			secondValue, secondError := cache.Do(memocache.CallKey("status"), produce)
			require.NoError(testInstance, secondError)
			require.Equal(testInstance, "produced", secondValue)
			require.Equal(testInstance, testCase.expectedInvocations, invocationCount)
		})
	}
}

func TestExpiringCacheDistinguishesArgumentTuples(testInstance *testing.T) {
	clock := &manualClock{currentTime: time.Unix(1700000000, 0)}
	cache := memocache.NewExpiringCache[int](testCacheTimeToLiveConstant, clock.Now)

	invocationCount := 0
	produce := func() (int, error) {
		invocationCount++
		return invocationCount, nil
	}

	firstValue, firstError := cache.Do(memocache.CallKey("changed", true), produce)
	require.NoError(testInstance, firstError)
	require.Equal(testInstance, 1, firstValue)

	cachedValue, cachedError := cache.Do(memocache.CallKey("changed", true), produce)
	require.NoError(testInstance, cachedError)
	require.Equal(testInstance, 1, cachedValue)

	differentValue, differentError := cache.Do(memocache.CallKey("changed", false), produce)
	require.NoError(testInstance, differentError)
	require.Equal(testInstance, 2, differentValue)
}

func TestCallKeyTreatsPositionalAndNamedArgumentsAsDistinct(testInstance *testing.T) {
	positionalKey := memocache.CallKey("changed", true)
	namedKey := memocache.CallKeyWithNamed([]any{"changed"}, map[string]any{"staged": true})

	require.NotEqual(testInstance, positionalKey, namedKey)
}

func TestCallKeyWithNamedSortsNamedArguments(testInstance *testing.T) {
	firstRendering := memocache.CallKeyWithNamed(nil, map[string]any{"b": 2, "a": 1})
	secondRendering := memocache.CallKeyWithNamed(nil, map[string]any{"a": 1, "b": 2})

	require.Equal(testInstance, firstRendering, secondRendering)
}

func TestExpiringCacheDoesNotCacheProducerFailures(testInstance *testing.T) {
	clock := &manualClock{currentTime: time.Unix(1700000000, 0)}
	cache := memocache.NewExpiringCache[string](testCacheTimeToLiveConstant, clock.Now)

	invocationCount := 0
	failingProduce := func() (string, error) {
		invocationCount++
		return "", errors.New("producer failure")
	}

	_, firstError := cache.Do(memocache.CallKey("branch"), failingProduce)
	require.Error(testInstance, firstError)

	_, secondError := cache.Do(memocache.CallKey("branch"), failingProduce)
	require.Error(testInstance, secondError)
	require.Equal(testInstance, 2, invocationCount)
	require.Equal(testInstance, 0, cache.Stats().EntryCount)
}

func TestExpiringCacheClearAndStats(testInstance *testing.T) {
	clock := &manualClock{currentTime: time.Unix(1700000000, 0)}
	cache := memocache.NewExpiringCache[string](testCacheTimeToLiveConstant, clock.Now)

	produce := func() (string, error) { return "value", nil }

	_, firstError := cache.Do(memocache.CallKey("branch"), produce)
	require.NoError(testInstance, firstError)
	_, secondError := cache.Do(memocache.CallKey("hash"), produce)
	require.NoError(testInstance, secondError)

	statistics := cache.Stats()
	require.Equal(testInstance, 2, statistics.EntryCount)
	require.Equal(testInstance, testCacheTimeToLiveConstant, statistics.TimeToLive)
	require.Equal(testInstance, []string{memocache.CallKey("branch"), memocache.CallKey("hash")}, statistics.Keys)

	cache.Clear()
	require.Equal(testInstance, 0, cache.Stats().EntryCount)
}
