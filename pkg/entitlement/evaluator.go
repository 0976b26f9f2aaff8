package entitlement

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
	"github.com/dogtribe/entitlement/pkg/usage"
)

// TierResolver returns the current tier for a user. Wire tier.Manager.Resolve
// here, or ContextTierResolver for callers that resolved the tier upstream.
type TierResolver func(ctx context.Context, userID uuid.UUID) (catalog.Tier, error)

// Evaluator is the decision component: it combines catalog lookups with usage
// counter reads to answer "is this action allowed right now".
//
// Check never mutates state; Commit is the sole mutating entry point. Callers
// that only render "you have N of M left" use Check, callers about to perform
// the gated action use Commit — and perform the action only after Commit
// allows it. Quota consumed by a successful Commit is not rolled back if the
// caller's request is cancelled afterwards; enforcement availability is
// favored over exactness.
type Evaluator struct {
	catalog *catalog.Catalog
	usage   usage.Store
	tiers   TierResolver
	log     *slog.Logger
	now     func() time.Time
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger supplies a structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) Option {
	return func(e *Evaluator) {
		if log != nil {
			e.log = log
		}
	}
}

// WithClock overrides the time source. Intended for tests that pin windows.
func WithClock(now func() time.Time) Option {
	return func(e *Evaluator) {
		if now != nil {
			e.now = now
		}
	}
}

// New creates an Evaluator.
// Panics if any required dependency is nil to fail fast during initialization.
func New(cat *catalog.Catalog, usageStore usage.Store, tiers TierResolver, opts ...Option) *Evaluator {
	if cat == nil {
		panic("entitlement: catalog is required")
	}
	if usageStore == nil {
		panic("entitlement: usage store is required")
	}
	if tiers == nil {
		panic("entitlement: tier resolver is required")
	}

	e := &Evaluator{
		catalog: cat,
		usage:   usageStore,
		tiers:   tiers,
		log:     slog.New(slog.DiscardHandler),
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Check evaluates whether the user may perform the feature-gated action right
// now. It is read-only and idempotent: repeated calls with no intervening
// Commit yield the same decision and never consume quota.
func (e *Evaluator) Check(ctx context.Context, userID uuid.UUID, f catalog.Feature) Decision {
	t, d, ok := e.resolveTier(ctx, userID, f)
	if !ok {
		return d
	}

	switch e.catalog.Kind(f) {
	case catalog.FeatureKindBoolean:
		return e.checkBoolean(ctx, t, userID, f)

	case catalog.FeatureKindQuota:
		limit, unlimited, w, d, ok := e.resolveQuota(ctx, t, userID, f)
		if !ok {
			return d
		}
		if unlimited {
			return allow(catalog.Unlimited, time.Time{})
		}

		now := e.now()
		snap, err := e.usage.Peek(ctx, usage.Key{UserID: userID, Feature: f})
		if err != nil {
			e.log.ErrorContext(ctx, "usage peek failed",
				"user_id", userID, "feature", f, "error", err)
			return deny(ReasonStoreUnavailable, 0, time.Time{})
		}

		count := snap.Count
		if usage.Expired(snap.WindowStart, now, w) {
			count = 0
		}
		resetsAt, _ := usage.NextReset(now, w)

		remaining := limit - count
		if remaining <= 0 {
			return deny(ReasonQuotaExceeded, 0, resetsAt)
		}
		return allow(remaining, resetsAt)

	default:
		return e.denyUnknownFeature(ctx, userID, f)
	}
}

// Commit consumes one unit of quota for the feature, or for boolean features
// behaves exactly like Check since there is no state to mutate. The gated
// action must be attempted only after Commit allows it, never the reverse.
func (e *Evaluator) Commit(ctx context.Context, userID uuid.UUID, f catalog.Feature) Decision {
	t, d, ok := e.resolveTier(ctx, userID, f)
	if !ok {
		return d
	}

	switch e.catalog.Kind(f) {
	case catalog.FeatureKindBoolean:
		return e.checkBoolean(ctx, t, userID, f)

	case catalog.FeatureKindQuota:
		limit, unlimited, w, d, ok := e.resolveQuota(ctx, t, userID, f)
		if !ok {
			return d
		}

		now := e.now()
		ok, count, err := e.usage.TryIncrement(ctx,
			usage.Key{UserID: userID, Feature: f}, limit, w, now)
		if err != nil {
			e.log.ErrorContext(ctx, "usage increment failed",
				"user_id", userID, "feature", f, "error", err)
			return deny(ReasonStoreUnavailable, 0, time.Time{})
		}

		resetsAt, _ := usage.NextReset(now, w)
		if !ok {
			return deny(ReasonQuotaExceeded, 0, resetsAt)
		}
		if unlimited {
			return allow(catalog.Unlimited, time.Time{})
		}
		return allow(max(limit-count, 0), resetsAt)

	default:
		return e.denyUnknownFeature(ctx, userID, f)
	}
}

// MeetsTier reports whether the user's tier meets or exceeds the required
// tier. Equal tiers satisfy their own requirement.
func (e *Evaluator) MeetsTier(ctx context.Context, userID uuid.UUID, required catalog.Tier) Decision {
	t, d, ok := e.resolveTier(ctx, userID, "")
	if !ok {
		return d
	}

	meets, err := e.catalog.Meets(t, required)
	if err != nil {
		e.log.WarnContext(ctx, "tier comparison against unknown tier",
			"user_id", userID, "required", required, "error", err)
		return deny(ReasonUnknownFeature, 0, time.Time{})
	}
	if !meets {
		return deny(ReasonTierInsufficient, 0, time.Time{})
	}
	return allow(catalog.Unlimited, time.Time{})
}

// Usage reports current usage for every quota-bound feature the catalog
// declares, evaluated against the user's tier. Read-only; window expiry is
// applied the same way Check applies it.
func (e *Evaluator) Usage(ctx context.Context, userID uuid.UUID) ([]UsageInfo, error) {
	t, err := e.tiers(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := e.now()
	features := e.catalog.QuotaFeatures()
	out := make([]UsageInfo, 0, len(features))

	for _, f := range features {
		limit, _, err := e.catalog.LimitOf(t, f)
		if err != nil {
			return nil, err
		}
		w, err := e.catalog.WindowOf(f)
		if err != nil {
			return nil, err
		}

		snap, err := e.usage.Peek(ctx, usage.Key{UserID: userID, Feature: f})
		if err != nil {
			return nil, err
		}
		count := snap.Count
		if usage.Expired(snap.WindowStart, now, w) {
			count = 0
		}
		resetsAt, _ := usage.NextReset(now, w)

		out = append(out, UsageInfo{
			Feature:  f,
			Window:   w,
			Used:     count,
			Limit:    limit,
			ResetsAt: resetsAt,
		})
	}
	return out, nil
}

// resolveTier resolves the user's tier and maps failures to decisions.
// Returns ok=false with the denial to use when resolution failed.
func (e *Evaluator) resolveTier(ctx context.Context, userID uuid.UUID, f catalog.Feature) (catalog.Tier, Decision, bool) {
	t, err := e.tiers(ctx, userID)
	if err != nil {
		e.log.ErrorContext(ctx, "tier resolution failed",
			"user_id", userID, "feature", f, "error", err)
		return "", deny(ReasonStoreUnavailable, 0, time.Time{}), false
	}
	if !e.catalog.IsKnownTier(t) {
		// Catalog drift: the stored tier no longer exists. Denied, never a crash.
		e.log.WarnContext(ctx, "user has unknown tier",
			"user_id", userID, "tier", t)
		return "", deny(ReasonUnknownFeature, 0, time.Time{}), false
	}
	return t, Decision{}, true
}

func (e *Evaluator) checkBoolean(ctx context.Context, t catalog.Tier, userID uuid.UUID, f catalog.Feature) Decision {
	on, err := e.catalog.HasFeature(t, f)
	if err != nil {
		return e.denyUnknownFeature(ctx, userID, f)
	}
	if !on {
		return deny(ReasonTierInsufficient, 0, time.Time{})
	}
	return allow(catalog.Unlimited, time.Time{})
}

// resolveQuota looks up the quota limit and window for a known quota feature.
func (e *Evaluator) resolveQuota(ctx context.Context, t catalog.Tier, userID uuid.UUID, f catalog.Feature) (limit int64, unlimited bool, w catalog.Window, d Decision, ok bool) {
	limit, unlimited, err := e.catalog.LimitOf(t, f)
	if err != nil {
		return 0, false, "", e.denyUnknownFeature(ctx, userID, f), false
	}
	w, err = e.catalog.WindowOf(f)
	if err != nil {
		return 0, false, "", e.denyUnknownFeature(ctx, userID, f), false
	}
	return limit, unlimited, w, Decision{}, true
}

func (e *Evaluator) denyUnknownFeature(ctx context.Context, userID uuid.UUID, f catalog.Feature) Decision {
	e.log.WarnContext(ctx, "check for unknown feature",
		"user_id", userID, "feature", f)
	return deny(ReasonUnknownFeature, 0, time.Time{})
}
