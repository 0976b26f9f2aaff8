package usage

import (
	"time"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// WindowStart returns the start of the quota window that contains now.
// Calendar windows are anchored in UTC to avoid client-timezone ambiguity.
// Lifetime windows have no start: the zero time is returned and stored
// window starts are ignored for expiry purposes.
func WindowStart(now time.Time, w catalog.Window) time.Time {
	now = now.UTC()
	switch w {
	case catalog.WindowDaily:
		return time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	case catalog.WindowMonthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	default:
		return time.Time{}
	}
}

// NextReset returns when the window containing now elapses.
// ok is false for lifetime windows, which never reset.
func NextReset(now time.Time, w catalog.Window) (resetAt time.Time, ok bool) {
	switch w {
	case catalog.WindowDaily:
		return WindowStart(now, w).AddDate(0, 0, 1), true
	case catalog.WindowMonthly:
		return WindowStart(now, w).AddDate(0, 1, 0), true
	default:
		return time.Time{}, false
	}
}

// Expired reports whether a counter stored with the given window start has
// fallen out of the window that contains now.
func Expired(windowStart, now time.Time, w catalog.Window) bool {
	if w == catalog.WindowLifetime {
		return false
	}
	return windowStart.Before(WindowStart(now, w))
}
