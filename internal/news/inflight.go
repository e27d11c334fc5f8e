package news

import (
	"sync"

	"livenewsmap/internal/cache"
)

// generations tracks the most recent aggregation started per cache key. A run
// whose generation is no longer current has been superseded and must suppress
// its cache write; the underlying fetches are not aborted.
type generations struct {
	mu  sync.Mutex
	seq map[cache.Key]uint64
}

func (g *generations) begin(key cache.Key) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.seq == nil {
		g.seq = make(map[cache.Key]uint64)
	}
	g.seq[key]++
	return g.seq[key]
}

func (g *generations) current(key cache.Key) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.seq[key]
}
