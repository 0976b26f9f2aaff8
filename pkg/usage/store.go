package usage

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dogtribe/entitlement/pkg/catalog"
)

// Key identifies one user's counter for one quota-bound feature.
type Key struct {
	UserID  uuid.UUID
	Feature catalog.Feature
}

// String renders the key in the canonical "userID:feature" form used by
// keyed backends.
func (k Key) String() string {
	return fmt.Sprintf("%s:%s", k.UserID, k.Feature)
}

// Snapshot is the raw stored state of a counter. It may belong to an already
// elapsed window: Peek never applies expiry, callers must check with Expired.
type Snapshot struct {
	Count       int64
	WindowStart time.Time
}

// Store holds windowed usage counters. Implementations must make TryIncrement
// linearizable per key: two callers racing for the last unit of quota must
// not both succeed. Operations on different keys must not contend.
type Store interface {
	// Peek returns the stored counter state without mutating it. A missing
	// counter yields a zero Snapshot and no error.
	Peek(ctx context.Context, key Key) (Snapshot, error)

	// TryIncrement atomically consumes one unit of quota. If the stored
	// window has elapsed for now, a fresh window with count 0 is started
	// before the increment is applied. The increment succeeds when the new
	// count stays within limit, or always when limit is catalog.Unlimited;
	// on denial the state is left unchanged and count reports the
	// pre-increment value.
	//
	// A non-nil error means the backend failed; ok is false in that case so
	// callers fail closed.
	TryIncrement(ctx context.Context, key Key, limit int64, window catalog.Window, now time.Time) (ok bool, count int64, err error)

	// Purge deletes all counters of the user for the given features.
	// Invoked on account deletion.
	Purge(ctx context.Context, userID uuid.UUID, features []catalog.Feature) error
}
