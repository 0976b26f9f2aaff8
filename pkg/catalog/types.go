package catalog

// Tier is a named subscription level.
type Tier string

// Tiers shipped with the default catalog. The catalog itself is data-driven,
// so deployments may define additional tiers in their config file.
const (
	TierFree         Tier = "free"
	TierPremium      Tier = "premium"
	TierProfessional Tier = "professional"
)

// Feature is a gated capability name.
type Feature string

// Boolean features known to the application.
const (
	FeatureComments       Feature = "comments"
	FeatureFavorites      Feature = "favorites"
	FeatureCustomBranding Feature = "custom_branding"
	FeatureVerifiedBadge  Feature = "verified_badge"
)

// Quota-bound features known to the application.
const (
	FeatureActivitiesPerMonth Feature = "activitiesPerMonth"
	FeaturePostsPerDay        Feature = "postsPerDay"
)

// Unlimited indicates no cap for a quota-bound feature (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Window is the reset granularity of a quota window.
type Window string

const (
	// WindowDaily resets at the start of each calendar day in UTC.
	WindowDaily Window = "daily"
	// WindowMonthly resets on the first day of each calendar month in UTC.
	WindowMonthly Window = "monthly"
	// WindowLifetime never resets.
	WindowLifetime Window = "lifetime"
)

// Valid reports whether w is one of the supported window granularities.
func (w Window) Valid() bool {
	switch w {
	case WindowDaily, WindowMonthly, WindowLifetime:
		return true
	}
	return false
}

// FeatureKind classifies a feature name within a catalog.
type FeatureKind int

const (
	// FeatureKindUnknown means the feature is not declared by any tier.
	FeatureKindUnknown FeatureKind = iota
	// FeatureKindBoolean means the feature is on/off per tier.
	FeatureKindBoolean
	// FeatureKindQuota means the feature has a numeric limit per tier per window.
	FeatureKindQuota
)

// Quota describes a quota-bound feature entitlement within a tier.
type Quota struct {
	Limit  int64 // Unlimited (-1) means no cap
	Window Window
}

// TierDef describes one tier in the catalog configuration.
type TierDef struct {
	Rank     int               // higher rank = more privileged; must be unique per catalog
	Features []Feature         // boolean features enabled for this tier
	Quotas   map[Feature]Quota // quota-bound feature limits
}
