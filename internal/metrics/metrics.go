package metrics

import (
	"sync"
	"time"
)

type Metrics struct {
	mu sync.RWMutex

	// Counters
	FeedsFetched       int64
	FeedFailures       int64
	ItemsCollected     int64
	DuplicatesFiltered int64
	CacheHits          int64
	CacheMisses        int64
	AggregationsServed int64

	// Timings
	LastAggregationTime    time.Duration
	AverageAggregationTime time.Duration
	TotalAggregationTime   time.Duration
	AggregationCount       int64

	// Status
	LastRunTime   time.Time
	LastErrorTime time.Time
	LastError     string
	IsHealthy     bool
}

var Global = &Metrics{IsHealthy: true}

func (m *Metrics) IncrementFeedsFetched() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedsFetched++
}

func (m *Metrics) IncrementFeedFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FeedFailures++
}

func (m *Metrics) AddItemsCollected(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ItemsCollected += int64(n)
}

func (m *Metrics) IncrementDuplicatesFiltered() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DuplicatesFiltered++
}

func (m *Metrics) IncrementCacheHits() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheHits++
}

func (m *Metrics) IncrementCacheMisses() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CacheMisses++
}

func (m *Metrics) IncrementAggregationsServed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AggregationsServed++
}

func (m *Metrics) RecordAggregationTime(duration time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.LastAggregationTime = duration
	m.TotalAggregationTime += duration
	m.AggregationCount++

	if m.AggregationCount > 0 {
		m.AverageAggregationTime = m.TotalAggregationTime / time.Duration(m.AggregationCount)
	}
}

func (m *Metrics) SetLastRun() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastRunTime = time.Now()
	m.IsHealthy = true
}

func (m *Metrics) SetError(err string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LastError = err
	m.LastErrorTime = time.Now()
	m.IsHealthy = false
}

func (m *Metrics) GetStats() map[string]interface{} {
	m.mu.RLock()
	defer m.mu.RUnlock()

	return map[string]interface{}{
		"feeds_fetched":               m.FeedsFetched,
		"feed_failures":               m.FeedFailures,
		"items_collected":             m.ItemsCollected,
		"duplicates_filtered":         m.DuplicatesFiltered,
		"cache_hits":                  m.CacheHits,
		"cache_misses":                m.CacheMisses,
		"aggregations_served":         m.AggregationsServed,
		"last_aggregation_time_ms":    m.LastAggregationTime.Milliseconds(),
		"average_aggregation_time_ms": m.AverageAggregationTime.Milliseconds(),
		"last_run_time":               m.LastRunTime.Format(time.RFC3339),
		"last_error_time":             m.LastErrorTime.Format(time.RFC3339),
		"last_error":                  m.LastError,
		"is_healthy":                  m.IsHealthy,
	}
}
