package catalog

import "errors"

var (
	ErrUnknownTier          = errors.New("unknown subscription tier")
	ErrUnknownFeature       = errors.New("unknown feature")
	ErrNotBooleanFeature    = errors.New("feature is quota-bound, not boolean")
	ErrNotQuotaFeature      = errors.New("feature is boolean, not quota-bound")
	ErrInvalidCatalog       = errors.New("invalid catalog configuration")
	ErrFailedToLoadCatalog  = errors.New("failed to load catalog")
	ErrFailedToParseCatalog = errors.New("failed to parse catalog file")
)
