// Package classify assigns topic categories to news text with a keyword
// lexicon. It is a frequency heuristic, not a model: deterministic and cheap
// for short title+summary texts.
package classify

import (
	"strings"
)

// Fallback is returned when no keyword matches or there is nothing to tally.
const Fallback = "others"

// Categories is the canonical label order. Ties always resolve to the
// earliest entry, so results do not depend on map iteration or input order.
var Categories = []string{
	"war", "politics", "economy", "society", "culture", "climate", "peace", "demise", Fallback,
}

// Lexicon maps a category to its keyword phrases. It is data, not algorithm:
// swap or extend without touching the scorer.
type Lexicon map[string][]string

type Classifier struct {
	keywords map[string][]string
}

// New builds a classifier from a lexicon. Keywords are matched lowercased;
// categories absent from Categories are ignored.
func New(lex Lexicon) *Classifier {
	keywords := make(map[string][]string, len(lex))
	for _, category := range Categories {
		phrases := lex[category]
		if len(phrases) == 0 {
			continue
		}
		lowered := make([]string, 0, len(phrases))
		for _, p := range phrases {
			p = strings.ToLower(strings.TrimSpace(p))
			if p != "" {
				lowered = append(lowered, p)
			}
		}
		keywords[category] = lowered
	}
	return &Classifier{keywords: keywords}
}

// Classify returns the best category for the text. Each keyword phrase found
// as a substring adds one point to its category; the highest total wins, ties
// go to the first category in canonical order, and an all-zero score falls
// back to "others".
func (c *Classifier) Classify(text string) string {
	t := strings.ToLower(text)

	best := Fallback
	bestScore := 0
	for _, category := range Categories {
		score := 0
		for _, phrase := range c.keywords[category] {
			if strings.Contains(t, phrase) {
				score++
			}
		}
		if score > bestScore {
			best = category
			bestScore = score
		}
	}
	return best
}

// Dominant returns the most frequent label in an already-classified set. Ties
// resolve in canonical order; an empty set yields the fallback.
func (c *Classifier) Dominant(labels []string) string {
	if len(labels) == 0 {
		return Fallback
	}

	counts := make(map[string]int, len(Categories))
	for _, label := range labels {
		counts[label]++
	}

	best := Fallback
	bestCount := 0
	for _, category := range Categories {
		if counts[category] > bestCount {
			best = category
			bestCount = counts[category]
		}
	}
	return best
}
