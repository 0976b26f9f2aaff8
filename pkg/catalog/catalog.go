package catalog

import (
	"errors"
	"fmt"
	"maps"
	"slices"
	"sort"
)

// Catalog is the immutable tier/feature/limit table the engine decides against.
// It is loaded once at process start and is safe for unbounded concurrent reads.
type Catalog struct {
	tiers   map[Tier]TierDef
	windows map[Feature]Window // window per quota-bound feature, consistent across tiers
	boolean map[Feature]struct{}
}

// New builds a Catalog from tier definitions and validates them.
// Any inconsistency is a configuration error: the caller is expected to treat
// it as fatal at startup.
func New(defs map[Tier]TierDef) (*Catalog, error) {
	if len(defs) == 0 {
		return nil, errors.Join(ErrInvalidCatalog, errors.New("no tiers defined"))
	}

	c := &Catalog{
		tiers:   make(map[Tier]TierDef, len(defs)),
		windows: make(map[Feature]Window),
		boolean: make(map[Feature]struct{}),
	}

	seenRanks := make(map[int]Tier, len(defs))
	for name, def := range defs {
		if name == "" {
			return nil, errors.Join(ErrInvalidCatalog, errors.New("tier with empty name"))
		}
		if def.Rank < 0 {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("tier %q has negative rank %d", name, def.Rank))
		}
		if other, dup := seenRanks[def.Rank]; dup {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("tiers %q and %q share rank %d", other, name, def.Rank))
		}
		seenRanks[def.Rank] = name

		for _, f := range def.Features {
			c.boolean[f] = struct{}{}
		}
		for f, q := range def.Quotas {
			if !q.Window.Valid() {
				return nil, errors.Join(ErrInvalidCatalog,
					fmt.Errorf("tier %q feature %q has invalid window %q", name, f, q.Window))
			}
			if q.Limit < Unlimited {
				return nil, errors.Join(ErrInvalidCatalog,
					fmt.Errorf("tier %q feature %q has invalid limit %d", name, f, q.Limit))
			}
			if w, ok := c.windows[f]; ok && w != q.Window {
				return nil, errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %q declared with windows %q and %q", f, w, q.Window))
			}
			c.windows[f] = q.Window
		}

		c.tiers[name] = TierDef{
			Rank:     def.Rank,
			Features: slices.Clone(def.Features),
			Quotas:   maps.Clone(def.Quotas),
		}
	}

	for f := range c.boolean {
		if _, quota := c.windows[f]; quota {
			return nil, errors.Join(ErrInvalidCatalog,
				fmt.Errorf("feature %q declared both boolean and quota-bound", f))
		}
	}

	if err := c.checkMonotonicity(); err != nil {
		return nil, err
	}

	return c, nil
}

// checkMonotonicity verifies that a higher-ranked tier never grants a lower
// quota limit than a lower-ranked tier for the same feature. Unlimited counts
// as higher than every numeric limit.
func (c *Catalog) checkMonotonicity() error {
	ordered := c.TiersByRank()

	for f := range c.windows {
		floor := int64(0)
		unlimited := false
		for _, t := range ordered {
			q, ok := c.tiers[t].Quotas[f]
			if !ok {
				continue
			}
			if q.Limit == Unlimited {
				unlimited = true
				continue
			}
			if unlimited {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %q: tier %q caps at %d below a lower tier's unlimited quota", f, t, q.Limit))
			}
			if q.Limit < floor {
				return errors.Join(ErrInvalidCatalog,
					fmt.Errorf("feature %q: tier %q limit %d is below a lower tier's limit %d", f, t, q.Limit, floor))
			}
			floor = q.Limit
		}
	}
	return nil
}

// IsKnownTier reports whether the tier exists in the catalog.
func (c *Catalog) IsKnownTier(t Tier) bool {
	_, ok := c.tiers[t]
	return ok
}

// RankOf returns the privilege rank of a tier.
func (c *Catalog) RankOf(t Tier) (int, error) {
	def, ok := c.tiers[t]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	return def.Rank, nil
}

// Meets reports whether tier t meets or exceeds the required tier.
// Equal tiers satisfy their own requirement.
func (c *Catalog) Meets(t, required Tier) (bool, error) {
	have, err := c.RankOf(t)
	if err != nil {
		return false, err
	}
	want, err := c.RankOf(required)
	if err != nil {
		return false, err
	}
	return have >= want, nil
}

// HasFeature reports whether a boolean feature is enabled for the tier.
// Passing a quota-bound feature is a misuse and yields ErrNotBooleanFeature.
func (c *Catalog) HasFeature(t Tier, f Feature) (bool, error) {
	def, ok := c.tiers[t]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	if _, quota := c.windows[f]; quota {
		return false, fmt.Errorf("%w: %q", ErrNotBooleanFeature, f)
	}
	if _, known := c.boolean[f]; !known {
		return false, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	return slices.Contains(def.Features, f), nil
}

// LimitOf returns the quota limit of a quota-bound feature for the tier.
// A tier that does not declare the feature gets a zero limit: the feature
// exists but the tier is not entitled to any usage of it.
func (c *Catalog) LimitOf(t Tier, f Feature) (limit int64, unlimited bool, err error) {
	def, ok := c.tiers[t]
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownTier, t)
	}
	if _, known := c.windows[f]; !known {
		if _, isBool := c.boolean[f]; isBool {
			return 0, false, fmt.Errorf("%w: %q", ErrNotQuotaFeature, f)
		}
		return 0, false, fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	q, ok := def.Quotas[f]
	if !ok {
		return 0, false, nil
	}
	return q.Limit, q.Limit == Unlimited, nil
}

// WindowOf returns the reset window of a quota-bound feature.
func (c *Catalog) WindowOf(f Feature) (Window, error) {
	w, ok := c.windows[f]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, f)
	}
	return w, nil
}

// Kind classifies a feature name. Callers use it to route Check/Commit logic.
func (c *Catalog) Kind(f Feature) FeatureKind {
	if _, ok := c.windows[f]; ok {
		return FeatureKindQuota
	}
	if _, ok := c.boolean[f]; ok {
		return FeatureKindBoolean
	}
	return FeatureKindUnknown
}

// QuotaFeatures returns all quota-bound feature names declared by any tier.
func (c *Catalog) QuotaFeatures() []Feature {
	out := make([]Feature, 0, len(c.windows))
	for f := range c.windows {
		out = append(out, f)
	}
	slices.Sort(out)
	return out
}

// TiersByRank returns all tier names ordered from lowest to highest rank.
func (c *Catalog) TiersByRank() []Tier {
	out := make([]Tier, 0, len(c.tiers))
	for t := range c.tiers {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		return c.tiers[out[i]].Rank < c.tiers[out[j]].Rank
	})
	return out
}
