// Package httpapi exposes the entitlement engine as a narrow internal HTTP
// service for distributed deployments. In-process callers should use
// entitlement.Evaluator and tier.Manager directly instead.
//
// Routes:
//
//	POST   /v1/check                 read-only decision
//	POST   /v1/commit                decision + quota increment
//	POST   /v1/tier-changes          apply a confirmed tier transition
//	GET    /v1/users/{userID}/usage  quota usage for dashboards
//	DELETE /v1/users/{userID}        purge all engine data for a user
package httpapi
