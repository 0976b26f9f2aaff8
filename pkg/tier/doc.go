// Package tier persists user tier assignments and applies tier-change events.
//
// The engine does not own the full user record, only the user → tier mapping
// needed for entitlement decisions. The external billing webhook handler
// feeds confirmed transitions into Manager.ApplyTierChange, and the external
// account-deletion flow calls Manager.PurgeUser. Tier changes never rewrite
// existing usage counters: open windows keep their counts and are simply
// evaluated against the new tier's limits from then on.
//
// Two Store backends are provided: MemoryStore for tests and single-node
// setups, PostgresStore (with embedded goose migrations) for durable
// deployments.
package tier
