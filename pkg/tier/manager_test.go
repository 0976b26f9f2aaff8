package tier_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dogtribe/entitlement/pkg/catalog"
	"github.com/dogtribe/entitlement/pkg/tier"
	"github.com/dogtribe/entitlement/pkg/usage"
)

func testCatalog(t *testing.T) *catalog.Catalog {
	t.Helper()

	cat, err := catalog.New(map[catalog.Tier]catalog.TierDef{
		catalog.TierFree: {
			Rank: 0,
			Quotas: map[catalog.Feature]catalog.Quota{
				catalog.FeatureActivitiesPerMonth: {Limit: 1, Window: catalog.WindowMonthly},
				catalog.FeaturePostsPerDay:        {Limit: 3, Window: catalog.WindowDaily},
			},
		},
		catalog.TierPremium: {
			Rank:     1,
			Features: []catalog.Feature{catalog.FeatureFavorites},
			Quotas: map[catalog.Feature]catalog.Quota{
				catalog.FeatureActivitiesPerMonth: {Limit: 10, Window: catalog.WindowMonthly},
				catalog.FeaturePostsPerDay:        {Limit: 20, Window: catalog.WindowDaily},
			},
		},
	})
	require.NoError(t, err)
	return cat
}

func newTestManager(t *testing.T) (*tier.Manager, *usage.MemoryStore) {
	t.Helper()

	usageStore := usage.NewMemoryStore(usage.WithReapInterval(0))
	t.Cleanup(usageStore.Close)

	m := tier.NewManager(testCatalog(t), tier.NewMemoryStore(), usageStore,
		tier.WithDefaultTier(catalog.TierFree))
	return m, usageStore
}

func TestManager_ApplyTierChange(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("assigns the new tier", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		userID := uuid.New()

		require.NoError(t, m.ApplyTierChange(ctx, userID, catalog.TierPremium, time.Now()))

		got, err := m.Resolve(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, catalog.TierPremium, got)
	})

	t.Run("rejects tiers not in the catalog", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		err := m.ApplyTierChange(ctx, uuid.New(), "platinum", time.Now())
		assert.ErrorIs(t, err, tier.ErrUnknownTier)
	})

	t.Run("keeps existing counters on downgrade", func(t *testing.T) {
		t.Parallel()

		m, usageStore := newTestManager(t)
		userID := uuid.New()
		now := time.Now().UTC()
		key := usage.Key{UserID: userID, Feature: catalog.FeaturePostsPerDay}

		require.NoError(t, m.ApplyTierChange(ctx, userID, catalog.TierPremium, now))
		for range 5 {
			ok, _, err := usageStore.TryIncrement(ctx, key, 20, catalog.WindowDaily, now)
			require.NoError(t, err)
			require.True(t, ok)
		}

		require.NoError(t, m.ApplyTierChange(ctx, userID, catalog.TierFree, now))

		snap, err := usageStore.Peek(ctx, key)
		require.NoError(t, err)
		assert.EqualValues(t, 5, snap.Count)
	})
}

func TestManager_Resolve(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("falls back to the default tier", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		got, err := m.Resolve(ctx, uuid.New())
		require.NoError(t, err)
		assert.Equal(t, catalog.TierFree, got)
	})

	t.Run("without default the missing assignment surfaces", func(t *testing.T) {
		t.Parallel()

		usageStore := usage.NewMemoryStore(usage.WithReapInterval(0))
		t.Cleanup(usageStore.Close)
		m := tier.NewManager(testCatalog(t), tier.NewMemoryStore(), usageStore)

		_, err := m.Resolve(ctx, uuid.New())
		assert.ErrorIs(t, err, tier.ErrTierNotFound)
	})
}

func TestManager_PurgeUser(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	m, usageStore := newTestManager(t)
	userID := uuid.New()
	now := time.Now().UTC()

	require.NoError(t, m.ApplyTierChange(ctx, userID, catalog.TierPremium, now))
	key := usage.Key{UserID: userID, Feature: catalog.FeaturePostsPerDay}
	_, _, err := usageStore.TryIncrement(ctx, key, 20, catalog.WindowDaily, now)
	require.NoError(t, err)

	require.NoError(t, m.PurgeUser(ctx, userID))

	snap, err := usageStore.Peek(ctx, key)
	require.NoError(t, err)
	assert.Zero(t, snap.Count)

	// The default tier applies again, as for any fresh user.
	got, err := m.Resolve(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, catalog.TierFree, got)
}

func TestManager_CanDowngrade(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	now := time.Now().UTC()

	t.Run("allowed when usage fits the target", func(t *testing.T) {
		t.Parallel()

		m, usageStore := newTestManager(t)
		userID := uuid.New()
		key := usage.Key{UserID: userID, Feature: catalog.FeaturePostsPerDay}

		for range 2 {
			_, _, err := usageStore.TryIncrement(ctx, key, 20, catalog.WindowDaily, now)
			require.NoError(t, err)
		}

		assert.NoError(t, m.CanDowngrade(ctx, userID, catalog.TierFree))
	})

	t.Run("flagged when usage exceeds the target", func(t *testing.T) {
		t.Parallel()

		m, usageStore := newTestManager(t)
		userID := uuid.New()
		key := usage.Key{UserID: userID, Feature: catalog.FeaturePostsPerDay}

		for range 5 {
			_, _, err := usageStore.TryIncrement(ctx, key, 20, catalog.WindowDaily, now)
			require.NoError(t, err)
		}

		assert.ErrorIs(t, m.CanDowngrade(ctx, userID, catalog.TierFree), tier.ErrDowngradeNotPossible)
	})

	t.Run("unknown target tier", func(t *testing.T) {
		t.Parallel()

		m, _ := newTestManager(t)
		assert.ErrorIs(t, m.CanDowngrade(ctx, uuid.New(), "platinum"), tier.ErrUnknownTier)
	})
}
