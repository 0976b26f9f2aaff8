// Package entitlement decides whether a subscription tier permits a user
// action and whether a periodic quota is exhausted.
//
// The Evaluator is a pure decision service: given (user, feature) it returns
// an allow/deny Decision, and on Commit for quota-bound features performs the
// usage increment. Denials are values carrying a reason code, never errors —
// "over quota" is an expected outcome, not a failure.
//
// The Check/Commit split is deliberate. Check is read-only and idempotent, so
// "can I?" displays never silently consume quota; Commit is the single
// mutating entry point and must precede the gated action. All storage
// failures fail closed.
//
//	eval := entitlement.New(cat, usageStore, manager.Resolve)
//
//	if d := eval.Commit(ctx, userID, catalog.FeatureActivitiesPerMonth); d.Allowed {
//	    // create the activity
//	}
package entitlement
