package usage

import "errors"

var (
	// ErrStoreUnavailable indicates the storage backend could not complete the
	// operation. TryIncrement fails closed in that case: an outage must never
	// be interpreted as unlimited quota.
	ErrStoreUnavailable = errors.New("usage store unavailable")

	ErrInvalidLimit  = errors.New("invalid quota limit")
	ErrInvalidWindow = errors.New("invalid quota window")
)
