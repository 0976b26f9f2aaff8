package catalog

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// yamlCatalog mirrors the on-disk catalog file layout.
type yamlCatalog struct {
	Tiers map[string]yamlTier `yaml:"tiers"`
}

type yamlTier struct {
	Rank     int                  `yaml:"rank"`
	Features []string             `yaml:"features"`
	Quotas   map[string]yamlQuota `yaml:"quotas"`
}

type yamlQuota struct {
	Limit  yamlLimit `yaml:"limit"`
	Window string    `yaml:"window"`
}

// yamlLimit accepts either a non-negative integer or the string "unlimited".
type yamlLimit int64

func (l *yamlLimit) UnmarshalYAML(node *yaml.Node) error {
	if strings.EqualFold(node.Value, "unlimited") {
		*l = yamlLimit(Unlimited)
		return nil
	}

	var v int64
	if err := node.Decode(&v); err != nil {
		return fmt.Errorf("limit must be a non-negative integer or \"unlimited\", got %q", node.Value)
	}
	if v < 0 {
		return fmt.Errorf("limit must be a non-negative integer or \"unlimited\", got %d", v)
	}
	*l = yamlLimit(v)
	return nil
}

// Parse reads a YAML catalog definition and builds a validated Catalog.
func Parse(r io.Reader) (*Catalog, error) {
	var raw yamlCatalog

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		return nil, errors.Join(ErrFailedToParseCatalog, err)
	}

	defs := make(map[Tier]TierDef, len(raw.Tiers))
	for name, t := range raw.Tiers {
		def := TierDef{
			Rank:     t.Rank,
			Features: make([]Feature, 0, len(t.Features)),
			Quotas:   make(map[Feature]Quota, len(t.Quotas)),
		}
		for _, f := range t.Features {
			def.Features = append(def.Features, Feature(f))
		}
		for f, q := range t.Quotas {
			def.Quotas[Feature(f)] = Quota{
				Limit:  int64(q.Limit),
				Window: Window(q.Window),
			}
		}
		defs[Tier(name)] = def
	}

	return New(defs)
}

// LoadFile parses a catalog from a YAML file on disk.
func LoadFile(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	defer f.Close()

	cat, err := Parse(f)
	if err != nil {
		return nil, errors.Join(ErrFailedToLoadCatalog, err)
	}
	return cat, nil
}
