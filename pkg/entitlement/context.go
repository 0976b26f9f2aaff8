package entitlement

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// ErrTierNotInContext is returned by ContextTierResolver when no tier was
// stored in the request context.
var ErrTierNotInContext = errors.New("tier not found in context")

type tierCtxKey struct{}

// SetTierToContext stores the user's tier in the context for downstream access.
func SetTierToContext(ctx context.Context, t catalog.Tier) context.Context {
	return context.WithValue(ctx, tierCtxKey{}, t)
}

// TierFromContext retrieves the tier from the context, if present.
func TierFromContext(ctx context.Context) (catalog.Tier, bool) {
	t, ok := ctx.Value(tierCtxKey{}).(catalog.Tier)
	return t, ok
}

// ContextTierResolver is a TierResolver for callers whose middleware already
// resolved the tier and stored it in the request context.
func ContextTierResolver(ctx context.Context, _ uuid.UUID) (catalog.Tier, error) {
	t, ok := TierFromContext(ctx)
	if !ok {
		return "", ErrTierNotInContext
	}
	return t, nil
}
