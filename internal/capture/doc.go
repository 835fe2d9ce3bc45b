// Package capture implements the photo capture session orchestrator: an
// explicit state machine sequencing Acquire → (optional) Rectify → (optional)
// Annotate → Persist for one user interaction, with cancellation reachable
// from every non-terminal state.
//
// # State Machine
//
//	Idle → Acquiring → Acquired → Persisting → Committed
//	                      ↕ ↕
//	             Rectifying Annotating
//
// Rectifying and Annotating are optional detours from the Acquired decision
// point: both return to Acquired, either or both may be applied, in either
// order, and both are skippable. Cancelled is a terminal state reachable from
// every non-terminal state; it discards all intermediate images without
// committing anything.
//
// # Invariants
//
//   - The hardware arbiter's release-audio-for-camera step completes strictly
//     before the acquisition UI is invoked.
//   - At most one final artifact is committed per session. Duplicate save
//     triggers are suppressed both by the Persisting state and by a time
//     gate.
//   - A persistence failure returns the session to the decision point with
//     the current image retained, so the user can retry without redoing
//     capture or edits.
//
// Session methods are safe for concurrent use, but the design assumes a
// single interactive caller: hardware callbacks marshal their results into
// method calls rather than mutating state directly. Observer callbacks are
// invoked outside the session's lock.
package capture
