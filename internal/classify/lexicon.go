package classify

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DefaultLexicon is the built-in keyword table. "others" has no keywords on
// purpose: it only wins as the fallback.
func DefaultLexicon() Lexicon {
	return Lexicon{
		"war": {
			"war", "attack", "missile", "shelling", "airstrike", "drone", "bomb",
			"frontline", "troop", "ceasefire", "fighter jet", "invasion", "artillery",
			"clash", "strike",
		},
		"politics": {
			"election", "parliament", "senate", "cabinet", "minister", "policy",
			"vote", "campaign", "coalition", "bill", "mp", "mla", "president", "pm",
			"governor", "assembly",
		},
		"economy": {
			"inflation", "gdp", "market", "stocks", "unemployment", "trade",
			"imports", "exports", "budget", "deficit", "currency", "interest rate",
			"economy", "economic",
		},
		"society": {
			"protest", "education", "healthcare", "crime", "community", "social",
			"welfare", "migration", "school", "university", "hospital", "poverty",
		},
		"culture": {
			"festival", "music", "film", "art", "literature", "heritage", "museum",
			"theatre", "sport", "celebration", "cultural",
		},
		"climate": {
			"climate", "flood", "heatwave", "drought", "cyclone", "hurricane",
			"storm", "wildfire", "rainfall", "monsoon", "earthquake", "tsunami",
			"weather",
		},
		"peace": {
			"ceasefire", "peace talk", "agreement", "truce", "deal", "accord",
		},
		"demise": {
			"dies", "death", "passed away", "obituary", "killed", "dead", "fatal",
			"mourns", "condolence",
		},
	}
}

// LoadLexicon reads a category -> phrases table from a YAML file.
// categories:
//
//	war:
//	  - invasion
//	  - airstrike
func LoadLexicon(path string) (Lexicon, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg struct {
		Categories Lexicon `yaml:"categories"`
	}
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode lexicon config: %w", err)
	}
	if len(cfg.Categories) == 0 {
		return nil, fmt.Errorf("lexicon config %s has no categories", path)
	}
	return cfg.Categories, nil
}
