package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/retry"
	"github.com/desertthunder/glx/internal/services"
)

// Defaults matching the remote export job's typical completion time.
const (
	DefaultPollAttempts = 180
	DefaultPollInterval = 5 * time.Second
)

// FilenameDelimiter ends the file name inside the remote filename token.
const FilenameDelimiter = `";`

// EngineOpts configures an [ExportEngine].
type EngineOpts struct {
	OutputDir   string             // Download destination (default: current directory)
	Filter      models.GroupFilter // Group scoping for discovery and export
	Poll        retry.Policy       // Export status polling (default: 180 × 5s)
	ResyncNames bool               // Refresh name and group of known records during discovery
	Logger      *log.Logger
	Now         func() time.Time
}

// ExportEngine runs discovery, export and verification against a single [services.ExportService].
type ExportEngine struct {
	svc    services.ExportService
	opts   EngineOpts
	logger *log.Logger
}

// NewExportEngine creates an engine with defaults filled in for zero-valued options.
func NewExportEngine(svc services.ExportService, opts EngineOpts) *ExportEngine {
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.Poll.MaxAttempts == 0 {
		opts.Poll = retry.Fixed(DefaultPollAttempts, DefaultPollInterval)
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}

	return &ExportEngine{svc: svc, opts: opts, logger: logger}
}

// OutputDir returns the directory archives are written to.
func (e *ExportEngine) OutputDir() string {
	return e.opts.OutputDir
}

// sendProgress delivers a progress update, waiting for the consumer until ctx is done.
//
// Every transition reaches the consumer, so callers must keep draining the
// channel while the engine runs. A nil channel disables reporting.
func (e *ExportEngine) sendProgress(ctx context.Context, progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	case <-ctx.Done():
	}
}
