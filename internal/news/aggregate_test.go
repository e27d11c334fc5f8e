package news_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"livenewsmap/internal/cache"
	"livenewsmap/internal/classify"
	"livenewsmap/internal/feed"
	"livenewsmap/internal/news"
	"livenewsmap/internal/region"
)

type stubStore struct {
	regions map[string]*region.Region
}

func (s *stubStore) Get(ctx context.Context, id string) (*region.Region, error) {
	r, ok := s.regions[id]
	if !ok {
		return nil, region.ErrNotFound
	}
	return r, nil
}

func (s *stubStore) List(ctx context.Context) ([]region.Region, error) {
	var out []region.Region
	for _, r := range s.regions {
		out = append(out, *r)
	}
	return out, nil
}

type stubFetcher struct {
	mu    sync.Mutex
	calls int
	items map[string][]feed.Item
	fails map[string]error
}

func (f *stubFetcher) Fetch(ctx context.Context, url string) ([]feed.Item, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()

	if err, ok := f.fails[url]; ok {
		return nil, err
	}
	return f.items[url], nil
}

func (f *stubFetcher) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.now
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.now = f.now.Add(d)
}

func ptrTime(t time.Time) *time.Time { return &t }

func newTestAggregator(store *stubStore, fetcher *stubFetcher, results news.ResultCache) *news.Aggregator {
	return news.NewAggregator(news.AggregatorOptions{
		Regions:      store,
		Fetcher:      fetcher,
		Classifier:   classify.New(classify.DefaultLexicon()),
		Cache:        results,
		Concurrency:  4,
		DefaultLimit: 30,
		MaxLimit:     100,
	})
}

func tokyoFixture() (*stubStore, *stubFetcher) {
	base := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	store := &stubStore{regions: map[string]*region.Region{
		"tokyo": {
			ID:   "tokyo",
			Name: "Tokyo",
			Feeds: []region.FeedSource{
				{URL: "https://a.example/rss"},
				{URL: "https://b.example/rss"},
			},
		},
	}}
	fetcher := &stubFetcher{
		items: map[string][]feed.Item{
			"https://a.example/rss": {
				{Title: "Flood warning for the bay area", Link: "https://a.example/1", PublishedAt: ptrTime(base)},
				{Title: "Typhoon storm approaching", Link: "https://a.example/2", PublishedAt: ptrTime(base.Add(-time.Hour))},
			},
		},
		fails: map[string]error{
			"https://b.example/rss": errors.New("dial tcp: i/o timeout"),
		},
	}
	return store, fetcher
}

func TestAggregateFaultIsolation(t *testing.T) {
	store, fetcher := tokyoFixture()
	clock := &fakeClock{now: time.Now()}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	payload, err := agg.Aggregate(context.Background(), "tokyo", 30, false)
	require.NoError(t, err, "one unreachable feed must not fail the aggregation")
	require.Equal(t, 2, payload.Count)
	require.Len(t, payload.Items, 2)
	for _, it := range payload.Items {
		require.Contains(t, it.Link, "a.example")
	}
	require.Equal(t, "climate", payload.DominantCategory)
}

func TestAggregateRegionNotFound(t *testing.T) {
	store, fetcher := tokyoFixture()
	clock := &fakeClock{now: time.Now()}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	_, err := agg.Aggregate(context.Background(), "atlantis", 30, false)
	require.ErrorIs(t, err, region.ErrNotFound)
	require.Equal(t, 0, fetcher.callCount(), "no feed fetch for an unknown region")
}

func TestAggregateLimitInvariant(t *testing.T) {
	base := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	items := make([]feed.Item, 0, 5)
	for i := 0; i < 5; i++ {
		items = append(items, feed.Item{
			Title:       "Item",
			Link:        "https://a.example/" + string(rune('a'+i)),
			PublishedAt: ptrTime(base.Add(time.Duration(i) * time.Minute)),
		})
	}
	store := &stubStore{regions: map[string]*region.Region{
		"r": {ID: "r", Feeds: []region.FeedSource{{URL: "https://a.example/rss"}}},
	}}
	fetcher := &stubFetcher{items: map[string][]feed.Item{"https://a.example/rss": items}}
	clock := &fakeClock{now: time.Now()}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	payload, err := agg.Aggregate(context.Background(), "r", 3, false)
	require.NoError(t, err)
	require.Equal(t, 3, payload.Count)
	require.Len(t, payload.Items, 3)

	// Limit above the distinct-item count returns everything.
	payload, err = agg.Aggregate(context.Background(), "r", 50, false)
	require.NoError(t, err)
	require.Equal(t, 5, payload.Count)

	// Unspecified falls back to the default.
	payload, err = agg.Aggregate(context.Background(), "r", news.LimitUnspecified, false)
	require.NoError(t, err)
	require.Equal(t, 5, payload.Count)

	// An explicit zero is a supplied value and clamps to 1, not the default.
	payload, err = agg.Aggregate(context.Background(), "r", 0, false)
	require.NoError(t, err)
	require.Equal(t, 1, payload.Count)

	// An explicit negative limit clamps to 1 as well.
	payload, err = agg.Aggregate(context.Background(), "r", -5, false)
	require.NoError(t, err)
	require.Equal(t, 1, payload.Count)
}

func TestAggregateDominantReflectsTruncatedSet(t *testing.T) {
	base := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	store := &stubStore{regions: map[string]*region.Region{
		"r": {ID: "r", Feeds: []region.FeedSource{{URL: "https://a.example/rss"}}},
	}}
	fetcher := &stubFetcher{items: map[string][]feed.Item{"https://a.example/rss": {
		{Title: "Airstrike hits supply depot", Link: "https://a.example/1", PublishedAt: ptrTime(base)},
		{Title: "Missile attack on border town", Link: "https://a.example/2", PublishedAt: ptrTime(base.Add(-30 * time.Minute))},
		{Title: "Flood waters keep rising", Link: "https://a.example/3", PublishedAt: ptrTime(base.Add(-2 * time.Hour))},
		{Title: "Storm front stalls over the coast", Link: "https://a.example/4", PublishedAt: ptrTime(base.Add(-3 * time.Hour))},
		{Title: "Drought declared in the valley", Link: "https://a.example/5", PublishedAt: ptrTime(base.Add(-4 * time.Hour))},
	}}}
	clock := &fakeClock{now: time.Now()}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	// Over the full set climate wins 3-2, but only the two newest items
	// survive the limit and both are war.
	full, err := agg.Aggregate(context.Background(), "r", 5, false)
	require.NoError(t, err)
	require.Equal(t, "climate", full.DominantCategory)

	truncated, err := agg.Aggregate(context.Background(), "r", 2, false)
	require.NoError(t, err)
	require.Equal(t, 2, truncated.Count)
	require.Equal(t, "war", truncated.DominantCategory)
	for _, it := range truncated.Items {
		require.Equal(t, "war", it.Category)
	}
}

func TestAggregateSortsNewestFirstNilDatesLast(t *testing.T) {
	base := time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)
	store := &stubStore{regions: map[string]*region.Region{
		"r": {ID: "r", Feeds: []region.FeedSource{{URL: "https://a.example/rss"}}},
	}}
	fetcher := &stubFetcher{items: map[string][]feed.Item{"https://a.example/rss": {
		{Title: "undated", Link: "https://a.example/0"},
		{Title: "old", Link: "https://a.example/1", PublishedAt: ptrTime(base.Add(-48 * time.Hour))},
		{Title: "new", Link: "https://a.example/2", PublishedAt: ptrTime(base)},
	}}}
	clock := &fakeClock{now: time.Now()}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	payload, err := agg.Aggregate(context.Background(), "r", 30, false)
	require.NoError(t, err)
	require.Equal(t, []string{"new", "old", "undated"}, []string{
		payload.Items[0].Title, payload.Items[1].Title, payload.Items[2].Title,
	})

	for i := 1; i < len(payload.Items); i++ {
		prev, cur := payload.Items[i-1].PublishedAt, payload.Items[i].PublishedAt
		if cur == nil {
			continue
		}
		require.NotNil(t, prev)
		require.False(t, prev.Before(*cur), "items must be ordered newest first")
	}
}

func TestAggregateServesCachedPayloadWithinTTL(t *testing.T) {
	store, fetcher := tokyoFixture()
	clock := &fakeClock{now: time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	first, err := agg.Aggregate(context.Background(), "tokyo", 30, false)
	require.NoError(t, err)
	callsAfterFirst := fetcher.callCount()

	clock.Advance(60 * time.Second)
	second, err := agg.Aggregate(context.Background(), "tokyo", 30, false)
	require.NoError(t, err)
	require.Same(t, first, second, "within the TTL the cached payload is returned")
	require.Equal(t, callsAfterFirst, fetcher.callCount())

	clock.Advance(121 * time.Second)
	third, err := agg.Aggregate(context.Background(), "tokyo", 30, false)
	require.NoError(t, err)
	require.NotSame(t, first, third, "past the TTL a fresh aggregation runs")
	require.Greater(t, fetcher.callCount(), callsAfterFirst)
}

func TestAggregateForceBypassesAndSkipsWrite(t *testing.T) {
	store, fetcher := tokyoFixture()
	clock := &fakeClock{now: time.Date(2025, 4, 10, 9, 0, 0, 0, time.UTC)}
	results := cache.NewWithClock(180*time.Second, clock.Now)
	agg := newTestAggregator(store, fetcher, results)

	forced, err := agg.Aggregate(context.Background(), "tokyo", 30, true)
	require.NoError(t, err)
	require.Equal(t, 0, results.Len(), "forced results are not written back")

	// A forced call never reuses an existing entry either.
	cached, err := agg.Aggregate(context.Background(), "tokyo", 30, false)
	require.NoError(t, err)
	require.NotSame(t, forced, cached)
	require.Equal(t, 1, results.Len())

	callsBefore := fetcher.callCount()
	again, err := agg.Aggregate(context.Background(), "tokyo", 30, true)
	require.NoError(t, err)
	require.NotSame(t, cached, again)
	require.Greater(t, fetcher.callCount(), callsBefore, "every forced call hits upstream")
}

func TestAggregateCacheKeyedByLimit(t *testing.T) {
	store, fetcher := tokyoFixture()
	clock := &fakeClock{now: time.Now()}
	agg := newTestAggregator(store, fetcher, cache.NewWithClock(180*time.Second, clock.Now))

	one, err := agg.Aggregate(context.Background(), "tokyo", 1, false)
	require.NoError(t, err)
	require.Equal(t, 1, one.Count)

	two, err := agg.Aggregate(context.Background(), "tokyo", 2, false)
	require.NoError(t, err)
	require.Equal(t, 2, two.Count, "a different limit must not reuse the truncated entry")
}
