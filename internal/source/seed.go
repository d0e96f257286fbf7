package source

import (
	"context"
	_ "embed"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/mountisa-community/directory-cli/internal/model"
)

//go:embed seed.yaml
var seedYAML []byte

// seedEntry is one curated listing in seed.yaml.
type seedEntry struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
	Phone       string `yaml:"phone"`
	Email       string `yaml:"email"`
	Website     string `yaml:"website"`
	Address     string `yaml:"address"`
	Suburb      string `yaml:"suburb"`
	Postcode    string `yaml:"postcode"`
	State       string `yaml:"state"`
	Category    string `yaml:"category"`
}

// SeedSource serves the hand-curated listing file embedded in the binary.
// It bootstraps an empty directory and backstops services the scraped
// sources miss.
type SeedSource struct {
	entries []seedEntry
}

// NewSeed parses the embedded seed file.
func NewSeed() (*SeedSource, error) {
	var entries []seedEntry
	if err := yaml.Unmarshal(seedYAML, &entries); err != nil {
		return nil, eris.Wrap(err, "source: parse seed file")
	}
	return &SeedSource{entries: entries}, nil
}

func (s *SeedSource) Name() string { return "curated_seed" }

func (s *SeedSource) Discover(ctx context.Context) ([]model.RawRecord, error) {
	raws := make([]model.RawRecord, 0, len(s.entries))
	for _, e := range s.entries {
		raws = append(raws, model.RawRecord{
			Name:        optional(e.Name),
			Description: optional(e.Description),
			Phone:       optional(e.Phone),
			Email:       optional(e.Email),
			Website:     optional(e.Website),
			Address:     optional(e.Address),
			Suburb:      optional(e.Suburb),
			Postcode:    optional(e.Postcode),
			State:       optional(e.State),
			Category:    optional(e.Category),
			Method:      optional("curated"),
		})
	}
	return raws, nil
}

// optional maps "" to absent.
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
