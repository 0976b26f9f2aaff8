// Package usage holds per-user, per-feature quota counters with calendar
// window semantics.
//
// Every counter belongs to a (user, feature) key and a window: daily and
// monthly windows are anchored to the UTC calendar, lifetime windows never
// reset. Expiry is computed lazily on access rather than swept proactively;
// the background reapers in the backends only reclaim memory and are not
// required for correctness.
//
// All mutation goes through Store.TryIncrement, the single place that must be
// linearizable per key: when concurrent callers race for the last unit of
// quota, exactly one wins. The MemoryStore serializes with a per-key mutex,
// the RedisStore with a Lua script executed atomically by the server.
//
// Backend failures surface as errors joined with ErrStoreUnavailable and
// TryIncrement reports ok=false, so an outage denies rather than grants.
package usage
