package catalog_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

func TestParse(t *testing.T) {
	t.Parallel()

	t.Run("valid document", func(t *testing.T) {
		t.Parallel()

		cat, err := catalog.Parse(strings.NewReader(`
tiers:
  basic:
    rank: 0
    features: [comments]
    quotas:
      postsPerDay: {limit: 3, window: daily}
  plus:
    rank: 1
    features: [comments, favorites]
    quotas:
      postsPerDay: {limit: unlimited, window: daily}
`))
		require.NoError(t, err)

		limit, unlimited, err := cat.LimitOf("basic", "postsPerDay")
		require.NoError(t, err)
		assert.False(t, unlimited)
		assert.EqualValues(t, 3, limit)

		_, unlimited, err = cat.LimitOf("plus", "postsPerDay")
		require.NoError(t, err)
		assert.True(t, unlimited)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse(strings.NewReader("tiers: ["))
		assert.ErrorIs(t, err, catalog.ErrFailedToParseCatalog)
	})

	t.Run("unknown fields rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse(strings.NewReader(`
tiers:
  basic:
    rank: 0
    price: 999
`))
		assert.ErrorIs(t, err, catalog.ErrFailedToParseCatalog)
	})

	t.Run("negative limit rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse(strings.NewReader(`
tiers:
  basic:
    rank: 0
    quotas:
      postsPerDay: {limit: -5, window: daily}
`))
		assert.ErrorIs(t, err, catalog.ErrFailedToParseCatalog)
	})

	t.Run("non-numeric limit rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse(strings.NewReader(`
tiers:
  basic:
    rank: 0
    quotas:
      postsPerDay: {limit: lots, window: daily}
`))
		assert.ErrorIs(t, err, catalog.ErrFailedToParseCatalog)
	})

	t.Run("invalid window rejected", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.Parse(strings.NewReader(`
tiers:
  basic:
    rank: 0
    quotas:
      postsPerDay: {limit: 3, window: weekly}
`))
		assert.ErrorIs(t, err, catalog.ErrInvalidCatalog)
	})
}

func TestLoadFile(t *testing.T) {
	t.Parallel()

	t.Run("missing file", func(t *testing.T) {
		t.Parallel()

		_, err := catalog.LoadFile("testdata/nope.yaml")
		assert.ErrorIs(t, err, catalog.ErrFailedToLoadCatalog)
	})

	// The shipped catalog must load, and its quota table must be monotonic:
	// loading runs the same validation that rejects a higher tier granting
	// less than a lower one.
	t.Run("shipped catalog", func(t *testing.T) {
		t.Parallel()

		cat, err := catalog.LoadFile("testdata/catalog.yaml")
		require.NoError(t, err)

		assert.Equal(t, []catalog.Tier{
			catalog.TierFree, catalog.TierPremium, catalog.TierProfessional,
		}, cat.TiersByRank())

		limit, unlimited, err := cat.LimitOf(catalog.TierFree, catalog.FeatureActivitiesPerMonth)
		require.NoError(t, err)
		assert.False(t, unlimited)
		assert.EqualValues(t, 1, limit)

		on, err := cat.HasFeature(catalog.TierPremium, catalog.FeatureVerifiedBadge)
		require.NoError(t, err)
		assert.False(t, on)

		on, err = cat.HasFeature(catalog.TierProfessional, catalog.FeatureVerifiedBadge)
		require.NoError(t, err)
		assert.True(t, on)
	})
}
