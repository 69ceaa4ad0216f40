// Package reconciler owns the reconciliation loop: watch notifications in,
// Helm deploys out.
//
// # Cycle
//
// A cycle is relist, build, compare, and, only when the document changed,
// deploy. The loop runs at most one cycle at a time. Watch notifications
// arriving mid-cycle collapse into a single-slot dirty flag and trigger one
// follow-up pass, never one pass per event, so two Helm invocations can
// never race against the same release.
//
// # Debounce
//
// Notifications are debounced for a configured window before a cycle
// starts, absorbing event bursts (bulk applies, initial informer sync)
// into one pass. The window runs on an injected clock so tests control
// time.
//
// # State
//
// The last successfully applied document lives in the loop and is touched
// only by the loop's own goroutine. Failed cycles leave it unchanged; the
// next differing event naturally retries the same document.
//
// # Shutdown
//
// Cancelling the run context stops the loop from accepting new cycles. An
// in-flight deploy is allowed to finish or hit its own timeout rather than
// being killed, so the release is never left half-applied.
package reconciler
