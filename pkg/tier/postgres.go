package tier

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// PostgresStore implements Store on a Postgres table, the durable backend for
// production deployments. Run Migrate once at startup to create the schema.
type PostgresStore struct {
	pool *pgxpool.Pool
}

// NewPostgresStore creates a Postgres-backed tier store.
// Panics if pool is nil to fail fast during initialization.
func NewPostgresStore(pool *pgxpool.Pool) *PostgresStore {
	if pool == nil {
		panic("tier: pgx pool is required")
	}
	return &PostgresStore{pool: pool}
}

func (ps *PostgresStore) Get(ctx context.Context, userID uuid.UUID) (Assignment, error) {
	const q = `SELECT tier, effective_at, updated_at FROM user_tiers WHERE user_id = $1`

	var (
		t                      string
		effectiveAt, updatedAt time.Time
	)
	err := ps.pool.QueryRow(ctx, q, userID).Scan(&t, &effectiveAt, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Assignment{}, fmt.Errorf("%w: %s", ErrTierNotFound, userID)
	}
	if err != nil {
		return Assignment{}, errors.Join(ErrStoreUnavailable, err)
	}

	return Assignment{
		UserID:      userID,
		Tier:        catalog.Tier(t),
		EffectiveAt: effectiveAt,
		UpdatedAt:   updatedAt,
	}, nil
}

func (ps *PostgresStore) Set(ctx context.Context, a Assignment) error {
	const q = `
		INSERT INTO user_tiers (user_id, tier, effective_at, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (user_id) DO UPDATE
		SET tier = EXCLUDED.tier,
		    effective_at = EXCLUDED.effective_at,
		    updated_at = now()`

	if _, err := ps.pool.Exec(ctx, q, a.UserID, string(a.Tier), a.EffectiveAt); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}

func (ps *PostgresStore) Delete(ctx context.Context, userID uuid.UUID) error {
	const q = `DELETE FROM user_tiers WHERE user_id = $1`

	if _, err := ps.pool.Exec(ctx, q, userID); err != nil {
		return errors.Join(ErrStoreUnavailable, err)
	}
	return nil
}
