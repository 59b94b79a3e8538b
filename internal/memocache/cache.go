package memocache

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	positionalSegmentTemplateConstant = "(%s)"
	namedSegmentTemplateConstant      = "[%s]"
	namedArgumentTemplateConstant     = "%s=%v"
	argumentJoinSeparatorConstant     = ", "
	callKeyTemplateConstant           = "%s%s"
)

// Producer computes a fresh value when the cache has no valid entry.
type Producer[ValueType any] func() (ValueType, error)

// Statistics reports the observable cache state for diagnostics and testing.
type Statistics struct {
	EntryCount int
	TimeToLive time.Duration
	Keys       []string
}

type cacheEntry[ValueType any] struct {
	value      ValueType
	computedAt time.Time
}

// ExpiringCache memoizes produced values under string call keys for a bounded time window.
type ExpiringCache[ValueType any] struct {
	timeToLive time.Duration
	clock      func() time.Time
	mutex      sync.Mutex
	entries    map[string]cacheEntry[ValueType]
}

// NewExpiringCache constructs a cache with the provided time-to-live and clock.
// A nil clock defaults to time.Now.
func NewExpiringCache[ValueType any](timeToLive time.Duration, clock func() time.Time) *ExpiringCache[ValueType] {
	if clock == nil {
		clock = time.Now
	}
	return &ExpiringCache[ValueType]{
		timeToLive: timeToLive,
		clock:      clock,
		entries:    map[string]cacheEntry[ValueType]{},
	}
}

// Do returns the cached value for the call key when its entry is younger than
// the time-to-live, and otherwise invokes the producer and stores the fresh
// value with its own timestamp. Producer failures are returned without being
// cached. The mutex is released while the producer runs so producers may
// consult the cache under other keys; concurrent callers missing on the same
// key may each invoke the producer once.
func (cache *ExpiringCache[ValueType]) Do(callKey string, produce Producer[ValueType]) (ValueType, error) {
	cache.mutex.Lock()
	currentTime := cache.clock()
	existingEntry, entryExists := cache.entries[callKey]
	if entryExists && currentTime.Sub(existingEntry.computedAt) < cache.timeToLive {
		cache.mutex.Unlock()
		return existingEntry.value, nil
	}
	cache.mutex.Unlock()

	producedValue, productionError := produce()
	if productionError != nil {
		return producedValue, productionError
	}

	cache.mutex.Lock()
	cache.entries[callKey] = cacheEntry[ValueType]{value: producedValue, computedAt: currentTime}
	cache.mutex.Unlock()
	return producedValue, nil
}

// Clear removes all entries.
func (cache *ExpiringCache[ValueType]) Clear() {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()
	cache.entries = map[string]cacheEntry[ValueType]{}
}

// Stats reports the current entry count, configured time-to-live, and sorted key set.
func (cache *ExpiringCache[ValueType]) Stats() Statistics {
	cache.mutex.Lock()
	defer cache.mutex.Unlock()

	cacheKeys := make([]string, 0, len(cache.entries))
	for cacheKey := range cache.entries {
		cacheKeys = append(cacheKeys, cacheKey)
	}
	sort.Strings(cacheKeys)

	return Statistics{
		EntryCount: len(cache.entries),
		TimeToLive: cache.timeToLive,
		Keys:       cacheKeys,
	}
}

// CallKey derives a stable cache key from positional arguments.
func CallKey(positionalArguments ...any) string {
	return CallKeyWithNamed(positionalArguments, nil)
}

// CallKeyWithNamed derives a stable cache key from positional and named
// arguments. The positional segment preserves order and the named segment is
// sorted by name, so the same value rendered positionally and by name yields
// two distinct keys.
func CallKeyWithNamed(positionalArguments []any, namedArguments map[string]any) string {
	renderedPositional := make([]string, 0, len(positionalArguments))
	for _, positionalArgument := range positionalArguments {
		renderedPositional = append(renderedPositional, fmt.Sprintf("%v", positionalArgument))
	}

	namedArgumentNames := make([]string, 0, len(namedArguments))
	for namedArgumentName := range namedArguments {
		namedArgumentNames = append(namedArgumentNames, namedArgumentName)
	}
	sort.Strings(namedArgumentNames)

	renderedNamed := make([]string, 0, len(namedArgumentNames))
	for _, namedArgumentName := range namedArgumentNames {
		renderedNamed = append(renderedNamed, fmt.Sprintf(namedArgumentTemplateConstant, namedArgumentName, namedArguments[namedArgumentName]))
	}

	positionalSegment := fmt.Sprintf(positionalSegmentTemplateConstant, strings.Join(renderedPositional, argumentJoinSeparatorConstant))
	namedSegment := fmt.Sprintf(namedSegmentTemplateConstant, strings.Join(renderedNamed, argumentJoinSeparatorConstant))
	return fmt.Sprintf(callKeyTemplateConstant, positionalSegment, namedSegment)
}
