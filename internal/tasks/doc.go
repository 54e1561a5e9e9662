// Package tasks drives GitLab projects through export and download with real-time progress reporting.
//
// # Core Operations
//
// [ExportEngine] exposes three operations over an in-memory [models.Progress]:
//
//  1. [ExportEngine.Discover] : reconcile the remote project list with the store
//     - Unknown projects are appended with a fresh export status and download status "none"
//     - Known projects only get their export status refreshed
//     - Projects rejected by the group filter are left untouched
//
//  2. [ExportEngine.Run] : per-project state machine, in store order
//     - Already downloaded projects are skipped without remote calls
//     - An export is requested unless the last observed status is terminal
//     - The status is polled with a [retry.Policy] until terminal
//     - A poll timeout skips the project; any other error aborts the batch
//     - The archive is written atomically and the record is finalized
//
//  3. [ExportEngine.Verify] : re-check downloaded archives on disk
//     - Records whose archive is missing or whose checksum differs go back to download status "none"
//
// None of the operations persist anything. The caller owns loading and saving
// the store, and saves it on every exit path.
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
// The [ProgressUpdate] struct contains phase, step counters, a message and the affected record.
// Updates use select with default to prevent blocking.
package tasks
