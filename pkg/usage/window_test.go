package usage_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dogtribe/entitlement/pkg/catalog"
	"github.com/dogtribe/entitlement/pkg/usage"
)

func TestWindowStart(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 8, 15, 13, 45, 12, 0, time.UTC)

	t.Run("daily", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			usage.WindowStart(now, catalog.WindowDaily))
	})

	t.Run("monthly", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t,
			time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC),
			usage.WindowStart(now, catalog.WindowMonthly))
	})

	t.Run("lifetime has no start", func(t *testing.T) {
		t.Parallel()

		assert.True(t, usage.WindowStart(now, catalog.WindowLifetime).IsZero())
	})

	t.Run("anchored in UTC regardless of input zone", func(t *testing.T) {
		t.Parallel()

		// 23:30 on Aug 14 in UTC-5 is already Aug 15 in UTC.
		est := time.FixedZone("EST", -5*3600)
		local := time.Date(2026, 8, 14, 23, 30, 0, 0, est)

		assert.Equal(t,
			time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC),
			usage.WindowStart(local, catalog.WindowDaily))
	})
}

func TestNextReset(t *testing.T) {
	t.Parallel()

	t.Run("daily", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 8, 15, 13, 45, 0, 0, time.UTC)
		resetAt, ok := usage.NextReset(now, catalog.WindowDaily)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2026, 8, 16, 0, 0, 0, 0, time.UTC), resetAt)
	})

	t.Run("monthly across year boundary", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2026, 12, 20, 8, 0, 0, 0, time.UTC)
		resetAt, ok := usage.NextReset(now, catalog.WindowMonthly)
		assert.True(t, ok)
		assert.Equal(t, time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC), resetAt)
	})

	t.Run("lifetime never resets", func(t *testing.T) {
		t.Parallel()

		_, ok := usage.NextReset(time.Now(), catalog.WindowLifetime)
		assert.False(t, ok)
	})
}

func TestExpired(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	t.Run("same window", func(t *testing.T) {
		t.Parallel()

		now := start.Add(23 * time.Hour)
		assert.False(t, usage.Expired(start, now, catalog.WindowDaily))
	})

	t.Run("next day", func(t *testing.T) {
		t.Parallel()

		now := start.AddDate(0, 0, 1)
		assert.True(t, usage.Expired(start, now, catalog.WindowDaily))
	})

	t.Run("monthly window spans the whole month", func(t *testing.T) {
		t.Parallel()

		monthStart := time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)
		assert.False(t, usage.Expired(monthStart, time.Date(2026, 8, 31, 23, 59, 59, 0, time.UTC), catalog.WindowMonthly))
		assert.True(t, usage.Expired(monthStart, time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC), catalog.WindowMonthly))
	})

	t.Run("lifetime never expires", func(t *testing.T) {
		t.Parallel()

		ancient := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
		assert.False(t, usage.Expired(ancient, time.Now(), catalog.WindowLifetime))
	})
}
