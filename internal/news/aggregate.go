// Package news assembles the per-region aggregation payload: fetch all of a
// region's feeds, merge and dedupe, classify, sort, truncate, cache.
package news

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"livenewsmap/internal/cache"
	"livenewsmap/internal/classify"
	"livenewsmap/internal/feed"
	"livenewsmap/internal/metrics"
	"livenewsmap/internal/region"
)

// LimitUnspecified is the limit value for callers that did not supply one.
// Any other value, including zero and negatives, is clamped into [1, max].
const LimitUnspecified = -1

// Item is a feed item plus its derived category. The category is recomputed
// on every aggregation, never stored.
type Item struct {
	feed.Item
	Category string `json:"category"`
}

// Payload is the cached unit. Items are sorted by publish date descending;
// Count always equals len(Items).
type Payload struct {
	RegionID         string `json:"regionId"`
	DominantCategory string `json:"dominantCategory"`
	Count            int    `json:"count"`
	Items            []Item `json:"items"`
}

// FeedFetcher retrieves one feed URL. Implemented by feed.Fetcher.
type FeedFetcher interface {
	Fetch(ctx context.Context, url string) ([]feed.Item, error)
}

// ResultCache stores payloads per key. Implemented by cache.Cache.
type ResultCache interface {
	Get(key cache.Key) (any, bool)
	Set(key cache.Key, value any)
}

type Aggregator struct {
	regions     region.Store
	fetcher     FeedFetcher
	classifier  *classify.Classifier
	cache       ResultCache
	log         *slog.Logger
	concurrency int

	defaultLimit int
	maxLimit     int

	gens generations
}

type AggregatorOptions struct {
	Regions     region.Store
	Fetcher     FeedFetcher
	Classifier  *classify.Classifier
	Cache       ResultCache
	Log         *slog.Logger
	Concurrency int
	// DefaultLimit is used when the caller passes LimitUnspecified; MaxLimit
	// caps every supplied value.
	DefaultLimit int
	MaxLimit     int
}

func NewAggregator(opts AggregatorOptions) *Aggregator {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 8
	}
	if opts.DefaultLimit <= 0 {
		opts.DefaultLimit = 30
	}
	if opts.MaxLimit <= 0 {
		opts.MaxLimit = 100
	}
	if opts.Log == nil {
		opts.Log = slog.Default()
	}
	return &Aggregator{
		regions:      opts.Regions,
		fetcher:      opts.Fetcher,
		classifier:   opts.Classifier,
		cache:        opts.Cache,
		log:          opts.Log,
		concurrency:  opts.Concurrency,
		defaultLimit: opts.DefaultLimit,
		maxLimit:     opts.MaxLimit,
	}
}

// Aggregate builds the news payload for a region. A force refresh bypasses
// the cache read and skips the cache write, so every forced call re-executes
// the full pipeline. Individual feed failures degrade to empty lists; only an
// unknown region or a failing region lookup is an error.
func (a *Aggregator) Aggregate(ctx context.Context, regionID string, limit int, force bool) (*Payload, error) {
	limit = a.clampLimit(limit)
	key := cache.Key{RegionID: regionID, Limit: limit}

	if !force {
		if v, ok := a.cache.Get(key); ok {
			if payload, ok := v.(*Payload); ok {
				metrics.Global.IncrementCacheHits()
				return payload, nil
			}
		}
		metrics.Global.IncrementCacheMisses()
	}

	reg, err := a.regions.Get(ctx, regionID)
	if err != nil {
		if errors.Is(err, region.ErrNotFound) {
			return nil, err
		}
		metrics.Global.SetError(err.Error())
		return nil, fmt.Errorf("resolve region %q: %w", regionID, err)
	}

	gen := a.gens.begin(key)
	start := time.Now()

	results := a.fetchAll(ctx, reg.Feeds)
	lists := make([][]feed.Item, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			a.log.Warn("feed fetch failed", "region", regionID, "url", res.URL, "err", res.Err)
			metrics.Global.IncrementFeedFailures()
			continue
		}
		metrics.Global.IncrementFeedsFetched()
		metrics.Global.AddItemsCollected(len(res.Items))
		lists = append(lists, res.Items)
	}

	merged := Merge(lists)

	items := make([]Item, 0, len(merged))
	for _, it := range merged {
		category := a.classifier.Classify(it.Title + " " + it.Summary)
		items = append(items, Item{Item: it, Category: category})
	}

	sortByRecency(items)
	if len(items) > limit {
		items = items[:limit]
	}

	// Dominant category is computed over the truncated set so it matches the
	// payload contents.
	labels := make([]string, len(items))
	for i, it := range items {
		labels[i] = it.Category
	}

	payload := &Payload{
		RegionID:         regionID,
		DominantCategory: a.classifier.Dominant(labels),
		Count:            len(items),
		Items:            items,
	}

	// A run superseded by a newer aggregation for the same key must not
	// overwrite the newer result with its late one.
	if !force && a.gens.current(key) == gen {
		a.cache.Set(key, payload)
	}

	metrics.Global.RecordAggregationTime(time.Since(start))
	metrics.Global.IncrementAggregationsServed()
	metrics.Global.SetLastRun()

	return payload, nil
}

// clampLimit keeps a supplied limit in [1, max], including an explicit zero or
// negative. Only the unspecified sentinel gets the default.
func (a *Aggregator) clampLimit(limit int) int {
	if limit == LimitUnspecified {
		return a.defaultLimit
	}
	if limit < 1 {
		return 1
	}
	if limit > a.maxLimit {
		return a.maxLimit
	}
	return limit
}

// fetchAll retrieves every feed with a bounded fan-out. Each fetch resolves
// independently; one slow or broken feed never delays or cancels siblings.
func (a *Aggregator) fetchAll(ctx context.Context, sources []region.FeedSource) []feed.Result {
	results := make([]feed.Result, len(sources))
	sem := make(chan struct{}, a.concurrency)
	var wg sync.WaitGroup

	for i, src := range sources {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			items, err := a.fetcher.Fetch(ctx, url)
			results[i] = feed.Result{URL: url, Items: items, Err: err}
		}(i, src.URL)
	}
	wg.Wait()

	return results
}

// sortByRecency orders items newest first. Items without a date sort last.
func sortByRecency(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		ti, tj := items[i].PublishedAt, items[j].PublishedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}
