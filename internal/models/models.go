package models

import (
	"errors"
	"fmt"
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// ExportStatus is the remote export job state as reported by GitLab.
//
// Values other than the declared constants are kept verbatim and are never terminal.
type ExportStatus string

const (
	ExportNone         ExportStatus = "none"
	ExportQueued       ExportStatus = "queued"
	ExportStarted      ExportStatus = "started"
	ExportFinished     ExportStatus = "finished"
	ExportRegenerating ExportStatus = "regeneration_in_progress"
)

// Terminal reports whether further polling cannot change the outcome for this export cycle.
func (s ExportStatus) Terminal() bool {
	return s == ExportFinished || s == ExportRegenerating
}

func (s ExportStatus) String() string {
	if s == "" {
		return string(ExportNone)
	}
	return string(s)
}

// DownloadStatus is local-only: whether the archive of the current export cycle has been written.
type DownloadStatus string

const (
	DownloadNone     DownloadStatus = "none"
	DownloadFinished DownloadStatus = "finished"
)

var (
	ErrDuplicateProject = errors.New("duplicate project id")
	ErrInvalidProject   = errors.New("invalid project")
	ErrInvalidPattern   = errors.New("invalid group pattern")
)

// Project is the persisted record for one remote project.
type Project struct {
	ID             int64          `yaml:"id" json:"id"`
	Name           string         `yaml:"name" json:"name"`
	GroupName      string         `yaml:"group_name" json:"group_name"`
	ExportStatus   ExportStatus   `yaml:"export_status" json:"export_status"`
	DownloadStatus DownloadStatus `yaml:"download_status" json:"download_status"`

	Archive      string     `yaml:"archive,omitempty" json:"archive,omitempty"`             // file name under the output directory
	Checksum     string     `yaml:"sha256,omitempty" json:"sha256,omitempty"`               // hex sha256 of the written archive
	DownloadedAt *time.Time `yaml:"downloaded_at,omitempty" json:"downloaded_at,omitempty"` // UTC
}

// NewProject creates a record for a freshly discovered project.
func NewProject(id int64, name, group string, status ExportStatus) *Project {
	return &Project{
		ID:             id,
		Name:           name,
		GroupName:      group,
		ExportStatus:   status,
		DownloadStatus: DownloadNone,
	}
}

// Validate checks the record's identity fields.
func (p *Project) Validate() error {
	if p.ID <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d", ErrInvalidProject, p.ID)
	}
	return nil
}

// Downloaded reports whether the record is at the final state of the export/download cycle.
func (p *Project) Downloaded() bool {
	return p.DownloadStatus == DownloadFinished
}

// MarkDownloaded finalizes the record after a successful archive write.
func (p *Project) MarkDownloaded(archive, checksum string, at time.Time) {
	at = at.UTC()
	p.DownloadStatus = DownloadFinished
	p.Archive = archive
	p.Checksum = checksum
	p.DownloadedAt = &at
}

// ClearDownload returns the record to [DownloadNone] without touching the export status.
func (p *Project) ClearDownload() {
	p.DownloadStatus = DownloadNone
	p.Archive = ""
	p.Checksum = ""
	p.DownloadedAt = nil
}

// Progress is the whole persisted state: the ordered list of project records, keyed by ID.
type Progress struct {
	Projects []*Project `yaml:"projects" json:"projects"`
}

// NewProgress returns an empty state.
func NewProgress() *Progress {
	return &Progress{Projects: []*Project{}}
}

// Find returns the record with the given ID, or nil.
func (p *Progress) Find(id int64) *Project {
	for _, project := range p.Projects {
		if project.ID == id {
			return project
		}
	}
	return nil
}

// Add appends a record in discovery order.
func (p *Progress) Add(project *Project) error {
	if err := project.Validate(); err != nil {
		return err
	}
	if p.Find(project.ID) != nil {
		return fmt.Errorf("%w: %d", ErrDuplicateProject, project.ID)
	}
	p.Projects = append(p.Projects, project)
	return nil
}

// Validate checks every record and the uniqueness of IDs.
func (p *Progress) Validate() error {
	seen := make(map[int64]struct{}, len(p.Projects))
	for i, project := range p.Projects {
		if project == nil {
			return fmt.Errorf("%w: empty entry at index %d", ErrInvalidProject, i)
		}
		if err := project.Validate(); err != nil {
			return err
		}
		if _, ok := seen[project.ID]; ok {
			return fmt.Errorf("%w: %d", ErrDuplicateProject, project.ID)
		}
		seen[project.ID] = struct{}{}
	}
	return nil
}

// ResetDownloadStatus sets every record's download status to none and leaves export statuses untouched.
//
// Returns the number of records that were previously downloaded.
func (p *Progress) ResetDownloadStatus() int {
	changed := 0
	for _, project := range p.Projects {
		if project.Downloaded() {
			changed++
		}
		project.ClearDownload()
	}
	return changed
}

// Summary counts records by download state.
type Summary struct {
	Total      int `json:"total"`
	Downloaded int `json:"downloaded"`
	Pending    int `json:"pending"`
}

func (p *Progress) Summary() Summary {
	s := Summary{Total: len(p.Projects)}
	for _, project := range p.Projects {
		if project.Downloaded() {
			s.Downloaded++
		}
	}
	s.Pending = s.Total - s.Downloaded
	return s
}

// GroupFilter scopes discovery and export by namespace name.
//
// Include keeps only projects of matching groups; Exclude drops projects of
// matching groups. Both take glob patterns ("team-*", "{api,web}"), so a plain
// name matches only itself. Empty fields disable the corresponding check.
type GroupFilter struct {
	Include string
	Exclude string
}

// Validate rejects malformed patterns.
func (f GroupFilter) Validate() error {
	for _, pattern := range []string{f.Include, f.Exclude} {
		if pattern != "" && !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("%w: %q", ErrInvalidPattern, pattern)
		}
	}
	return nil
}

// Allows reports whether a project in group passes the filter.
func (f GroupFilter) Allows(group string) bool {
	if f.Include != "" && !matchGroup(f.Include, group) {
		return false
	}
	if f.Exclude != "" && matchGroup(f.Exclude, group) {
		return false
	}
	return true
}

// Active reports whether any scoping is configured.
func (f GroupFilter) Active() bool {
	return f.Include != "" || f.Exclude != ""
}

func matchGroup(pattern, group string) bool {
	matched, err := doublestar.Match(pattern, group)
	if err != nil {
		return pattern == group
	}
	return matched
}
