package tier

import "errors"

var (
	ErrTierNotFound         = errors.New("no tier assignment for user")
	ErrUnknownTier          = errors.New("unknown subscription tier")
	ErrDowngradeNotPossible = errors.New("tier downgrade not possible with current usage")
	ErrStoreUnavailable     = errors.New("tier store unavailable")
	ErrFailedToPurgeUser    = errors.New("failed to purge user data")

	ErrFailedToApplyMigrations = errors.New("failed to apply tier store migrations")
)
