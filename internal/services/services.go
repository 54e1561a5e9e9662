package services

import (
	"context"
	"io"

	"github.com/desertthunder/glx/internal/models"
)

// ExportService defines the remote operations needed to export and download projects.
type ExportService interface {
	// ListProjects returns every project visible to the token, across all pages.
	ListProjects(ctx context.Context) ([]RemoteProject, error)

	// ExportStatus returns the current export job status of a project.
	ExportStatus(ctx context.Context, projectID int64) (models.ExportStatus, error)

	// ScheduleExport asks the remote to start generating a new export archive.
	ScheduleExport(ctx context.Context, projectID int64) error

	// DownloadExport fetches the finished archive. The caller closes [Archive.Body].
	DownloadExport(ctx context.Context, projectID int64) (*Archive, error)

	// Name returns the name of the service (e.g., "GitLab")
	Name() string
}

// RemoteProject is one entry of the remote project listing.
type RemoteProject struct {
	ID        int64
	Name      string
	Namespace string
}

// Archive is a downloaded export.
type Archive struct {
	FilenameToken string
	Body          io.ReadCloser
	Size          int64 // -1 when unknown
}
