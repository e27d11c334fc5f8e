package region

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// regionsFile is the YAML config structure:
//
//	regions:
//	  - id: tokyo
//	    name: Tokyo
//	    lat: 35.68
//	    lng: 139.69
//	    feeds:
//	      - url: https://...
//	        category: politics
type regionsFile struct {
	Regions []Region `yaml:"regions"`
}

// FileStore serves regions from a YAML file loaded once at startup.
type FileStore struct {
	byID  map[string]Region
	order []string
}

// LoadFile reads the regions list from a YAML file.
func LoadFile(path string) (*FileStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg regionsFile
	dec := yaml.NewDecoder(f)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("decode regions config: %w", err)
	}

	s := &FileStore{byID: make(map[string]Region, len(cfg.Regions))}
	for _, r := range cfg.Regions {
		if r.ID == "" {
			return nil, fmt.Errorf("region %q has no id", r.Name)
		}
		if _, dup := s.byID[r.ID]; dup {
			return nil, fmt.Errorf("duplicate region id %q", r.ID)
		}
		s.byID[r.ID] = r
		s.order = append(s.order, r.ID)
	}
	return s, nil
}

func (s *FileStore) Get(ctx context.Context, id string) (*Region, error) {
	r, ok := s.byID[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &r, nil
}

func (s *FileStore) List(ctx context.Context) ([]Region, error) {
	out := make([]Region, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.byID[id])
	}
	return out, nil
}
