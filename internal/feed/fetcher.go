// Package feed retrieves one syndication URL and normalizes its entries.
package feed

import (
	"context"
	"fmt"
	"html"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/mmcdole/gofeed"

	"livenewsmap/internal/retry"
)

// Item is a single normalized feed entry. Fields are best-effort: missing data
// resolves to an empty string or nil date, never an error.
type Item struct {
	Title       string     `json:"title"`
	Summary     string     `json:"summary"`
	Link        string     `json:"link"`
	PublishedAt *time.Time `json:"publishedAt"`
	Image       string     `json:"image"`
	SourceName  string     `json:"sourceName"`
}

// Result pairs one feed URL with either its items or the failure reason.
type Result struct {
	URL   string
	Items []Item
	Err   error
}

type Fetcher struct {
	parser  *gofeed.Parser
	timeout time.Duration
	retry   retry.Config
}

func NewFetcher(timeout time.Duration, retryCfg retry.Config) *Fetcher {
	parser := gofeed.NewParser()
	parser.Client = &http.Client{Timeout: timeout}
	return &Fetcher{parser: parser, timeout: timeout, retry: retryCfg}
}

// Fetch downloads and parses a single feed. Any transport or parse error is
// returned as-is; callers decide whether it fails the batch (the aggregator
// treats it as an empty list).
func (f *Fetcher) Fetch(ctx context.Context, url string) ([]Item, error) {
	var parsed *gofeed.Feed
	err := retry.Do(ctx, f.retry, func() error {
		fetchCtx, cancel := context.WithTimeout(ctx, f.timeout)
		defer cancel()

		var parseErr error
		parsed, parseErr = f.parser.ParseURLWithContext(url, fetchCtx)
		return parseErr
	})
	if err != nil {
		return nil, fmt.Errorf("fetch feed %s: %w", url, err)
	}

	sourceName := cleanText(parsed.Title)
	items := make([]Item, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if entry == nil {
			continue
		}
		item := normalize(entry, sourceName)
		if item.Title == "" && item.Link == "" {
			continue // not displayable
		}
		items = append(items, item)
	}
	return items, nil
}

func normalize(entry *gofeed.Item, sourceName string) Item {
	summary := entry.Description
	if summary == "" {
		summary = entry.Content
	}

	return Item{
		Title:       cleanText(entry.Title),
		Summary:     cleanText(summary),
		Link:        strings.TrimSpace(entry.Link),
		PublishedAt: publishedAt(entry),
		Image:       resolveImage(entry),
		SourceName:  sourceName,
	}
}

// publishedAt returns the entry's own timestamp or nil. Never the current
// time; a fabricated date would corrupt the recency sort.
func publishedAt(entry *gofeed.Item) *time.Time {
	if entry.PublishedParsed != nil {
		t := *entry.PublishedParsed
		return &t
	}
	if entry.UpdatedParsed != nil {
		t := *entry.UpdatedParsed
		return &t
	}
	return nil
}

// resolveImage tries, in order: an enclosure URL, a media:content URL, the
// first img tag inside the entry's HTML content or description.
func resolveImage(entry *gofeed.Item) string {
	for _, enc := range entry.Enclosures {
		if enc != nil && enc.URL != "" {
			return enc.URL
		}
	}

	if media, ok := entry.Extensions["media"]; ok {
		for _, content := range media["content"] {
			if u := content.Attrs["url"]; u != "" {
				return u
			}
		}
	}

	if src := firstImageSrc(entry.Content); src != "" {
		return src
	}
	return firstImageSrc(entry.Description)
}

var (
	tagPattern   = regexp.MustCompile(`<[^>]*>`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// cleanText strips markup tags, decodes entities, and collapses whitespace.
func cleanText(input string) string {
	if input == "" {
		return ""
	}
	s := tagPattern.ReplaceAllString(input, " ")
	s = html.UnescapeString(s)
	s = spacePattern.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
