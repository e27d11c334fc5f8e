package news

import (
	"fmt"
	"strings"

	"livenewsmap/internal/feed"
	"livenewsmap/internal/metrics"
)

// DedupeKey is the identity key used when merging feeds. Link-based when the
// item has a link; otherwise normalized title plus timestamp. Two linkless
// items with the same title and date collapse even across sources; accepted
// approximation.
func DedupeKey(it feed.Item) string {
	if link := strings.ToLower(strings.TrimSpace(it.Link)); link != "" {
		return "l:" + link
	}

	title := strings.ToLower(strings.TrimSpace(it.Title))
	var ts int64
	if it.PublishedAt != nil {
		ts = it.PublishedAt.Unix()
	}
	return fmt.Sprintf("t:%s|d:%d", title, ts)
}

// Merge flattens per-feed item lists into one, dropping duplicates. First
// occurrence wins; later duplicates are discarded without field merging.
func Merge(lists [][]feed.Item) []feed.Item {
	seen := make(map[string]struct{})
	var out []feed.Item

	for _, list := range lists {
		for _, it := range list {
			key := DedupeKey(it)
			if _, dup := seen[key]; dup {
				metrics.Global.IncrementDuplicatesFiltered()
				continue
			}
			seen[key] = struct{}{}
			out = append(out, it)
		}
	}
	return out
}
