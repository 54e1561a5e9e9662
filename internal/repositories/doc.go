// Package repositories implements file persistence for the export progress store.
//
// The whole state is one YAML document holding the ordered list of project records.
// Saves go through a temporary file in the same directory followed by a rename,
// so a crash mid-write leaves either the previous document or the new one.
//
// Key Implementations:
//   - [ProgressRepository] : load/save of [models.Progress]
//   - [PIDGuard] : lock file next to the progress file that keeps two runs from sharing one store
package repositories
