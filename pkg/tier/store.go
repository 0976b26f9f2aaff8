package tier

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// Assignment is a user's current tier with its effective timestamp.
type Assignment struct {
	UserID      uuid.UUID
	Tier        catalog.Tier
	EffectiveAt time.Time
	UpdatedAt   time.Time
}

// Store persists user tier assignments. The engine owns only this slice of
// the user record; the rest of the user lives elsewhere.
type Store interface {
	// Get retrieves the user's assignment.
	// Returns ErrTierNotFound if the user has never been assigned a tier.
	Get(ctx context.Context, userID uuid.UUID) (Assignment, error)

	// Set creates or replaces the user's assignment.
	Set(ctx context.Context, a Assignment) error

	// Delete removes the user's assignment. Deleting a missing assignment
	// is not an error.
	Delete(ctx context.Context, userID uuid.UUID) error
}
