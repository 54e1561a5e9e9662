package repositories

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
	"gopkg.in/yaml.v3"
)

// ProgressRepository reads and writes the progress document at a fixed path.
type ProgressRepository struct {
	path string
}

// NewProgressRepository creates a repository for the progress file at path.
func NewProgressRepository(path string) *ProgressRepository {
	return &ProgressRepository{path: path}
}

// Path returns the location of the progress document.
func (r *ProgressRepository) Path() string {
	return r.path
}

// Exists reports whether a progress document has been written.
func (r *ProgressRepository) Exists() bool {
	_, err := os.Stat(r.path)
	return err == nil
}

// Load reads the progress document.
//
// A missing or empty file yields an empty state. Documents written with symbol
// keys (":projects:", ":id:") are read as well and saved back in the plain
// layout. Malformed YAML, unknown top-level keys, records with a non-positive ID
// and duplicate IDs are reported as [shared.ErrInvalidProgress].
func (r *ProgressRepository) Load() (*models.Progress, error) {
	data, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return models.NewProgress(), nil
		}
		return nil, fmt.Errorf("failed to read progress file: %w", err)
	}

	if len(bytes.TrimSpace(data)) == 0 {
		return models.NewProgress(), nil
	}

	progress, err := decodeProgress(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidProgress, r.path, err)
	}

	if err := progress.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", shared.ErrInvalidProgress, r.path, err)
	}

	for _, project := range progress.Projects {
		if project.ExportStatus == "" {
			project.ExportStatus = models.ExportNone
		}
		if project.DownloadStatus == "" {
			project.DownloadStatus = models.DownloadNone
		}
	}

	return progress, nil
}

const (
	projectsKey       = "projects"
	symbolProjectsKey = ":projects"
)

// symbolProject is a record in the symbol-keyed layout.
type symbolProject struct {
	ID             int64                 `yaml:":id"`
	Name           string                `yaml:":name"`
	GroupName      string                `yaml:":group_name"`
	ExportStatus   models.ExportStatus   `yaml:":export_status"`
	DownloadStatus models.DownloadStatus `yaml:":download_status"`
}

type symbolProgress struct {
	Projects []symbolProject `yaml:":projects"`
}

func (s symbolProgress) progress() *models.Progress {
	progress := models.NewProgress()
	for _, p := range s.Projects {
		progress.Projects = append(progress.Projects, &models.Project{
			ID:             p.ID,
			Name:           p.Name,
			GroupName:      p.GroupName,
			ExportStatus:   p.ExportStatus,
			DownloadStatus: p.DownloadStatus,
		})
	}
	return progress
}

// decodeProgress picks the layout from the top-level keys.
//
// Anything but a single known projects key is rejected so that a document this
// version does not understand is never replaced by an empty state.
func decodeProgress(data []byte) (*models.Progress, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, err
	}
	if len(root.Content) == 0 || root.Content[0].Tag == "!!null" {
		return models.NewProgress(), nil
	}

	doc := root.Content[0]
	if doc.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("line %d: expected a mapping with a %q key", doc.Line, projectsKey)
	}

	layout := ""
	for i := 0; i < len(doc.Content); i += 2 {
		key := doc.Content[i]
		switch key.Value {
		case projectsKey, symbolProjectsKey:
			if layout != "" {
				return nil, fmt.Errorf("line %d: both %q and %q are present", key.Line, projectsKey, symbolProjectsKey)
			}
			layout = key.Value
		default:
			return nil, fmt.Errorf("line %d: unknown key %q", key.Line, key.Value)
		}
	}

	switch layout {
	case symbolProjectsKey:
		var symbols symbolProgress
		if err := doc.Decode(&symbols); err != nil {
			return nil, err
		}
		return symbols.progress(), nil
	case projectsKey:
		var progress models.Progress
		if err := doc.Decode(&progress); err != nil {
			return nil, err
		}
		if progress.Projects == nil {
			progress.Projects = []*models.Project{}
		}
		return &progress, nil
	default:
		return models.NewProgress(), nil
	}
}

// Save writes the full state, replacing the previous document atomically.
func (r *ProgressRepository) Save(progress *models.Progress) error {
	if progress == nil {
		progress = models.NewProgress()
	}

	data, err := yaml.Marshal(progress)
	if err != nil {
		return fmt.Errorf("failed to encode progress: %w", err)
	}

	if err := WriteFileAtomic(r.path, bytes.NewReader(data), 0644); err != nil {
		return fmt.Errorf("failed to save progress: %w", err)
	}
	return nil
}
