package entitlement

import (
	"time"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// Reason explains a denial. Empty on allowed decisions.
type Reason string

const (
	// ReasonTierInsufficient means the user's tier does not enable the feature.
	ReasonTierInsufficient Reason = "tier_insufficient"
	// ReasonQuotaExceeded means the quota for the current window is used up.
	ReasonQuotaExceeded Reason = "quota_exceeded"
	// ReasonUnknownFeature means the feature (or the user's stored tier) is
	// not in the catalog. Logged as a caller bug signal.
	ReasonUnknownFeature Reason = "unknown_feature"
	// ReasonStoreUnavailable means the usage backend could not be reached.
	// The engine fails closed: an outage never grants quota.
	ReasonStoreUnavailable Reason = "store_unavailable"
)

// Decision is the evaluator's output. It is constructed fresh per call and
// never persisted. Denials are ordinary results, not errors: the calling
// layer uses Reason and ResetsAt to render "upgrade required" versus "quota
// exhausted, resets on date X" without the engine producing any UI text.
type Decision struct {
	Allowed bool   `json:"allowed"`
	Reason  Reason `json:"reason,omitempty"`

	// Remaining is the quota left after this decision. catalog.Unlimited
	// for unlimited quotas and for boolean features, where it carries no
	// meaning.
	Remaining int64 `json:"remaining"`

	// ResetsAt is when the current quota window elapses. Zero for boolean
	// features and lifetime windows.
	ResetsAt time.Time `json:"resets_at,omitzero"`
}

func allow(remaining int64, resetsAt time.Time) Decision {
	return Decision{Allowed: true, Remaining: remaining, ResetsAt: resetsAt}
}

func deny(reason Reason, remaining int64, resetsAt time.Time) Decision {
	return Decision{Reason: reason, Remaining: remaining, ResetsAt: resetsAt}
}

// UsageInfo reports current usage for one quota-bound feature, for
// "you have N of M left" displays.
type UsageInfo struct {
	Feature  catalog.Feature `json:"feature"`
	Window   catalog.Window  `json:"window"`
	Used     int64           `json:"used"`
	Limit    int64           `json:"limit"` // catalog.Unlimited for no cap
	ResetsAt time.Time       `json:"resets_at,omitzero"`
}
