// Package helm provides Helm SDK integration for deploying the Gatus chart.
//
// # Overview
//
// The Manager handles the lifecycle of the Gatus release using the Helm SDK:
//
//   - Chart discovery from a classic HTTP chart repository
//   - Atomic upgrade-or-install of the release with the generated values
//   - Chart caching to avoid repeated downloads
//
// The Invoker wraps a Deployer with namespace assurance, a per-attempt
// timeout, and exponential backoff for retryable failures. Failures are
// classified as retryable (network errors, timeouts, resource conflicts)
// or fatal (bad chart reference, malformed values, permission denied);
// fatal failures surface immediately without retries.
//
// # Atomicity
//
// Install and upgrade run with atomic semantics: a failed deploy rolls the
// release back to its previous state, so the cluster never holds a
// half-applied configuration.
//
// # Thread Safety
//
// The Manager uses internal locking for chart cache access and is safe
// for concurrent use from multiple goroutines.
package helm
