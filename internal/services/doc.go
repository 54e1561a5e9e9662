// Package services defines the [ExportService] interface for remote project export providers and implements it for GitLab.
//
// # Service Interface
//
// The export orchestrator only needs four remote operations: list projects,
// read the export status of a project, schedule an export and fetch the
// finished archive. [ExportService] captures exactly those so the engine can
// be driven by a fake in tests.
//
// # GitLab Implementation
//
// [GitLabService] wraps the official GitLab SDK (gitlab.com/gitlab-org/api/client-go).
// Every request carries the caller's context. The SDK is handed:
//   - an [http.Client] whose timeout bounds each call, archive downloads included
//   - a [rate.Limiter] that paces API calls (unlimited when the configured rate is 0)
//
// # Error Handling
//
// Services use typed errors from the shared package:
//   - [shared.ErrAPIRequest] : request failed or returned an unexpected status
//   - [shared.ErrProjectNotFound] : project ID does not exist or is not visible to the token
//   - [shared.ErrMissingCredentials] : endpoint or token not supplied
//
// # Archive Filenames
//
// The archive name is taken from the Content-Disposition header of the
// download response. [Archive.FilenameToken] holds the raw value following
// "filename=" with its opening quote removed; the orchestrator is responsible
// for cutting it down to a plain file name.
package services
