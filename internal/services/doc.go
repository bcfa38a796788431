// Package services defines shared utilities consumed by the sync phases and
// their external collaborators.
//
// Key responsibilities:
//   - Context helpers that stamp run IDs and phase names for logging.
//   - Structured error markers plus the Wrap helper that classify failures
//     into fatal (session establishment, configuration) and recoverable
//     (remote IO, local filesystem, notification delivery) groups.
//
// Use these helpers when wiring new phase logic so error handling and
// observability stay uniform across a run.
package services
