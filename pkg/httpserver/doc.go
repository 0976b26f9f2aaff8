// Package httpserver wraps net/http with graceful shutdown, env-driven
// configuration, and slog logging. It hosts the engine's internal API in
// cmd/entitlementd.
//
// Run blocks until the context is cancelled or an interrupt/TERM signal
// arrives, then drains in-flight requests within the configured shutdown
// deadline. Startup errors are wrapped with ErrStart and shutdown errors with
// ErrShutdown for errors.Is inspection.
package httpserver
