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
)

func TestMemoryStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		store := tier.NewMemoryStore()
		userID := uuid.New()
		effectiveAt := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)

		require.NoError(t, store.Set(ctx, tier.Assignment{
			UserID:      userID,
			Tier:        catalog.TierPremium,
			EffectiveAt: effectiveAt,
		}))

		a, err := store.Get(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, catalog.TierPremium, a.Tier)
		assert.Equal(t, effectiveAt, a.EffectiveAt)
	})

	t.Run("missing assignment", func(t *testing.T) {
		t.Parallel()

		store := tier.NewMemoryStore()
		_, err := store.Get(ctx, uuid.New())
		assert.ErrorIs(t, err, tier.ErrTierNotFound)
	})

	t.Run("delete is idempotent", func(t *testing.T) {
		t.Parallel()

		store := tier.NewMemoryStore()
		userID := uuid.New()

		require.NoError(t, store.Set(ctx, tier.Assignment{UserID: userID, Tier: catalog.TierFree}))
		require.NoError(t, store.Delete(ctx, userID))
		require.NoError(t, store.Delete(ctx, userID))

		_, err := store.Get(ctx, userID)
		assert.ErrorIs(t, err, tier.ErrTierNotFound)
	})
}
