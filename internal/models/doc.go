// Package models defines the domain entities persisted by glx.
//
// The package contains three groups of types:
//
//  1. Status enumerations mirroring the remote export job and the local download
//     - [ExportStatus] : last observed state of the GitLab export job
//     - [DownloadStatus] : whether the archive for the current export cycle was written locally
//
//  2. Persistent entities
//     - [Project] : one record per remote project known to the tool
//     - [Progress] : the ordered, ID-keyed list of records; the only persisted state
//
//  3. Selection
//     - [GroupFilter] : include/exclude scoping by namespace name
//
// [Progress] has three mutation points: discovery (adds and refreshes records),
// the export orchestrator (advances a record and marks it downloaded) and
// [Progress.ResetDownloadStatus]. Records are never removed.
package models
