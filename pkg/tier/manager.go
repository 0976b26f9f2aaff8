package tier

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
	"github.com/dogtribe/entitlement/pkg/usage"
)

// Manager applies tier-change events coming from the external
// payment/subscription webhook handler and owns the lifecycle of a user's
// engine-side data. It is the only component permitted to persist a user's
// current tier.
type Manager struct {
	catalog *catalog.Catalog
	tiers   Store
	usage   usage.Store
	log     *slog.Logger

	// defaultTier, when set, is returned by Resolve for users without an
	// assignment (e.g. signups that never touched the billing flow).
	defaultTier    catalog.Tier
	hasDefaultTier bool
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger supplies a structured logger. Nil loggers are ignored.
func WithLogger(log *slog.Logger) ManagerOption {
	return func(m *Manager) {
		if log != nil {
			m.log = log
		}
	}
}

// WithDefaultTier makes Resolve fall back to the given tier for users without
// a stored assignment. The tier must exist in the catalog; panics otherwise
// to fail fast during initialization.
func WithDefaultTier(t catalog.Tier) ManagerOption {
	return func(m *Manager) {
		if !m.catalog.IsKnownTier(t) {
			panic(fmt.Sprintf("tier: default tier %q is not in the catalog", t))
		}
		m.defaultTier = t
		m.hasDefaultTier = true
	}
}

// NewManager creates a Manager.
// Panics if any required dependency is nil to fail fast during initialization.
func NewManager(cat *catalog.Catalog, tiers Store, usageStore usage.Store, opts ...ManagerOption) *Manager {
	if cat == nil {
		panic("tier: catalog is required")
	}
	if tiers == nil {
		panic("tier: store is required")
	}
	if usageStore == nil {
		panic("tier: usage store is required")
	}

	m := &Manager{
		catalog: cat,
		tiers:   tiers,
		usage:   usageStore,
		log:     slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// ApplyTierChange updates the stored tier assignment for the user.
//
// Existing usage counters are deliberately left untouched: an upgrade takes
// effect for future checks against the new tier's limits, and a downgrade
// that leaves the user over the new limit simply denies further commits until
// the window resets. Nothing already granted is revoked.
func (m *Manager) ApplyTierChange(ctx context.Context, userID uuid.UUID, newTier catalog.Tier, effectiveAt time.Time) error {
	if !m.catalog.IsKnownTier(newTier) {
		return fmt.Errorf("%w: %q", ErrUnknownTier, newTier)
	}

	if err := m.tiers.Set(ctx, Assignment{
		UserID:      userID,
		Tier:        newTier,
		EffectiveAt: effectiveAt.UTC(),
	}); err != nil {
		return err
	}

	m.log.InfoContext(ctx, "tier change applied",
		"user_id", userID, "tier", newTier, "effective_at", effectiveAt.UTC())
	return nil
}

// PurgeUser deletes the user's tier assignment and all usage counters.
// Invoked by the external account-deletion flow.
func (m *Manager) PurgeUser(ctx context.Context, userID uuid.UUID) error {
	var errs []error

	if err := m.usage.Purge(ctx, userID, m.catalog.QuotaFeatures()); err != nil {
		errs = append(errs, err)
	}
	if err := m.tiers.Delete(ctx, userID); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrFailedToPurgeUser}, errs...)...)
	}

	m.log.InfoContext(ctx, "user purged", "user_id", userID)
	return nil
}

// Resolve returns the user's current tier, falling back to the configured
// default tier when no assignment exists.
func (m *Manager) Resolve(ctx context.Context, userID uuid.UUID) (catalog.Tier, error) {
	a, err := m.tiers.Get(ctx, userID)
	if errors.Is(err, ErrTierNotFound) && m.hasDefaultTier {
		return m.defaultTier, nil
	}
	if err != nil {
		return "", err
	}
	return a.Tier, nil
}

// CanDowngrade reports whether the user's open-window usage already exceeds
// the target tier's limits. It is advisory only: ApplyTierChange never
// refuses a downgrade, this exists so the calling layer can warn the user
// that further actions will be denied until their windows reset.
func (m *Manager) CanDowngrade(ctx context.Context, userID uuid.UUID, target catalog.Tier) error {
	if !m.catalog.IsKnownTier(target) {
		return fmt.Errorf("%w: %q", ErrUnknownTier, target)
	}

	now := time.Now()
	for _, f := range m.catalog.QuotaFeatures() {
		limit, unlimited, err := m.catalog.LimitOf(target, f)
		if err != nil {
			return err
		}
		if unlimited {
			continue
		}

		snap, err := m.usage.Peek(ctx, usage.Key{UserID: userID, Feature: f})
		if err != nil {
			return err
		}

		w, err := m.catalog.WindowOf(f)
		if err != nil {
			return err
		}
		count := snap.Count
		if usage.Expired(snap.WindowStart, now, w) {
			count = 0
		}

		if count > limit {
			return fmt.Errorf("%w: feature %q used %d times, target tier allows %d",
				ErrDowngradeNotPossible, f, count, limit)
		}
	}
	return nil
}
