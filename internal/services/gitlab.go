package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
	gogitlab "gitlab.com/gitlab-org/api/client-go"
	"golang.org/x/time/rate"
)

const projectsPerPage = 100

// GitLabOptions configures [NewGitLabService].
type GitLabOptions struct {
	Endpoint   string
	Token      string
	Timeout    time.Duration // per request; 0 means no timeout
	RateLimit  float64       // requests per second; 0 disables pacing
	HTTPClient *http.Client  // overrides Timeout when set
	Logger     *log.Logger
}

// GitLabService implements [ExportService] on top of the GitLab SDK.
type GitLabService struct {
	client *gogitlab.Client
	logger *log.Logger
}

// NewGitLabService creates a client for the GitLab API at opts.Endpoint.
func NewGitLabService(opts GitLabOptions) (*GitLabService, error) {
	if opts.Endpoint == "" || opts.Token == "" {
		return nil, fmt.Errorf("%w: endpoint and token are required", shared.ErrMissingCredentials)
	}

	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: opts.Timeout}
	}

	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := max(1, int(opts.RateLimit))

	client, err := gogitlab.NewClient(opts.Token,
		gogitlab.WithBaseURL(opts.Endpoint),
		gogitlab.WithHTTPClient(httpClient),
		gogitlab.WithCustomLimiter(rate.NewLimiter(limit, burst)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create GitLab client: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &GitLabService{client: client, logger: logger}, nil
}

func (s *GitLabService) Name() string {
	return "GitLab"
}

// ListProjects walks every page of the project listing.
func (s *GitLabService) ListProjects(ctx context.Context) ([]RemoteProject, error) {
	opts := &gogitlab.ListProjectsOptions{
		ListOptions: gogitlab.ListOptions{PerPage: projectsPerPage, Page: 1},
	}

	var projects []RemoteProject
	for {
		page, resp, err := s.client.Projects.ListProjects(opts, gogitlab.WithContext(ctx))
		if err != nil {
			return nil, apiError("list projects", resp, err)
		}

		for _, p := range page {
			project := RemoteProject{ID: int64(p.ID), Name: p.Name}
			if p.Namespace != nil {
				project.Namespace = p.Namespace.Name
			}
			projects = append(projects, project)
		}

		s.logger.Debug("listed projects", "page", opts.Page, "count", len(page))

		if resp == nil || resp.NextPage == 0 {
			break
		}
		opts.Page = resp.NextPage
	}

	return projects, nil
}

// ExportStatus reads the export job status of a project.
func (s *GitLabService) ExportStatus(ctx context.Context, projectID int64) (models.ExportStatus, error) {
	status, resp, err := s.client.ProjectImportExport.ExportStatus(projectID, gogitlab.WithContext(ctx))
	if err != nil {
		return "", apiError(fmt.Sprintf("export status of project %d", projectID), resp, err)
	}

	if status == nil || status.ExportStatus == "" {
		return models.ExportNone, nil
	}
	return models.ExportStatus(status.ExportStatus), nil
}

// ScheduleExport starts a new export job.
func (s *GitLabService) ScheduleExport(ctx context.Context, projectID int64) error {
	resp, err := s.client.ProjectImportExport.ScheduleExport(projectID, &gogitlab.ScheduleExportOptions{}, gogitlab.WithContext(ctx))
	if err != nil {
		return apiError(fmt.Sprintf("schedule export of project %d", projectID), resp, err)
	}
	return nil
}

// DownloadExport fetches the archive of the finished export.
//
// The SDK reads the full payload before returning, so the archive is held in memory.
func (s *GitLabService) DownloadExport(ctx context.Context, projectID int64) (*Archive, error) {
	data, resp, err := s.client.ProjectImportExport.ExportDownload(projectID, gogitlab.WithContext(ctx))
	if err != nil {
		return nil, apiError(fmt.Sprintf("download export of project %d", projectID), resp, err)
	}

	var disposition string
	if resp != nil && resp.Response != nil {
		disposition = resp.Header.Get("Content-Disposition")
	}

	s.logger.Debug("downloaded export", "project", projectID, "bytes", len(data))

	return &Archive{
		FilenameToken: FilenameToken(disposition),
		Body:          io.NopCloser(bytes.NewReader(data)),
		Size:          int64(len(data)),
	}, nil
}

// FilenameToken returns the text after the first "filename=" in a
// Content-Disposition header, with an opening double quote removed.
//
// Trailing parameters are kept: `attachment; filename="a.tar.gz"; x=y`
// yields `a.tar.gz"; x=y`.
func FilenameToken(disposition string) string {
	_, after, found := strings.Cut(disposition, "filename=")
	if !found {
		return ""
	}
	return strings.TrimPrefix(after, `"`)
}

func apiError(op string, resp *gogitlab.Response, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if resp != nil && resp.Response != nil && resp.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %s: %v", shared.ErrProjectNotFound, op, err)
	}
	return fmt.Errorf("%w: failed to %s: %v", shared.ErrAPIRequest, op, err)
}
