// Package region holds the geographic regions and their feed source lists.
package region

import (
	"context"
	"errors"
)

var ErrNotFound = errors.New("region not found")

// FeedSource is one syndication URL with an informational category hint. The
// hint is not authoritative; items are classified from their own text.
type FeedSource struct {
	URL      string `yaml:"url" json:"url"`
	Category string `yaml:"category,omitempty" json:"category,omitempty"`
}

type Region struct {
	ID    string       `yaml:"id" json:"id"`
	Name  string       `yaml:"name" json:"name"`
	Lat   float64      `yaml:"lat" json:"lat"`
	Lng   float64      `yaml:"lng" json:"lng"`
	Feeds []FeedSource `yaml:"feeds" json:"feeds"`
}

// Store resolves region identifiers. Get returns ErrNotFound for unknown ids.
type Store interface {
	Get(ctx context.Context, id string) (*Region, error)
	List(ctx context.Context) ([]Region, error)
}
