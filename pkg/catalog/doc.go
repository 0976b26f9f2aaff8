// Package catalog holds the static tier/feature/limit table the entitlement
// engine decides against.
//
// A Catalog maps each subscription tier to a privilege rank, a set of boolean
// features, and per-feature quota limits with a reset window (daily, monthly,
// or lifetime). It is pure data: loaded and validated once at process start,
// immutable afterwards, and safe for unlimited concurrent readers.
//
// Catalogs are typically loaded from a YAML file:
//
//	tiers:
//	  free:
//	    rank: 0
//	    features: [comments]
//	    quotas:
//	      activitiesPerMonth: {limit: 1, window: monthly}
//	  premium:
//	    rank: 1
//	    features: [comments, favorites]
//	    quotas:
//	      activitiesPerMonth: {limit: unlimited, window: monthly}
//
//	cat, err := catalog.LoadFile("catalog.yaml")
//
// Validation rejects duplicate ranks, features declared both boolean and
// quota-bound, inconsistent windows for the same feature, and quota tables
// where a higher tier grants less than a lower one. Configuration errors are
// meant to be fatal at startup; unknown tiers or features at request time are
// ordinary lookup errors that the evaluator turns into denials.
package catalog
