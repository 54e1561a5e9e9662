package main

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/repositories"
	"github.com/desertthunder/glx/internal/retry"
	"github.com/desertthunder/glx/internal/services"
	"github.com/desertthunder/glx/internal/shared"
	"github.com/desertthunder/glx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.ExportService
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.ExportService // Built from the config when nil
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the logger used by subsequent actions.
func (r *Runner) SetLogger(logger *log.Logger) {
	if level := r.logger.GetLevel(); logger.GetLevel() != level {
		shared.SetLogLevel(logger, level)
	}
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		runCommand, resetCommand, statusCommand, verifyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig resolves the configuration for an action.
//
// A --config path given explicitly must exist; the default path is optional and
// falls back to the runner's current config. Environment variables and flags are
// applied on top, in that order.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			config, err := shared.LoadConfig(path)
			if err != nil {
				return fmt.Errorf("%w: %v", shared.ErrInvalidConfig, err)
			}
			r.config = config
			r.configPath = path
		} else if cmd.IsSet("config") {
			return fmt.Errorf("%w: %s", shared.ErrMissingConfig, path)
		} else {
			r.logger.Debug("config file not found, using defaults", "path", path)
		}
	}

	r.config.ApplyEnv()
	if dir := cmd.String("output"); dir != "" {
		r.config.Export.OutputDir = dir
	}
	if progress := cmd.String("progress"); progress != "" {
		r.config.Export.ProgressFile = progress
	}

	level, err := shared.ParseLogLevel(r.config.Log.Level)
	if err != nil {
		return err
	}
	shared.SetLogLevel(r.logger, level)

	if r.config.Log.File != "" {
		fileLogger, err := shared.NewFileLogger(r.config.Log.File)
		if err != nil {
			return err
		}
		r.SetLogger(fileLogger)
	}

	return nil
}

// exportService returns the injected service or connects to the configured GitLab instance.
func (r *Runner) exportService() (services.ExportService, error) {
	if r.service != nil {
		return r.service, nil
	}

	svc, err := services.NewGitLabService(services.GitLabOptions{
		Endpoint:  r.config.GitLab.APIEndpoint,
		Token:     r.config.GitLab.AccessToken,
		Timeout:   r.config.GitLab.Timeout.Duration,
		RateLimit: r.config.GitLab.RateLimit,
		Logger:    r.logger,
	})
	if err != nil {
		return nil, err
	}
	r.service = svc
	return svc, nil
}

// openStore locks the progress file for this process.
//
// The returned release func is always safe to call.
func (r *Runner) openStore() (*repositories.ProgressRepository, func(), error) {
	path := r.config.Export.ProgressFile
	if path == "" {
		return nil, func() {}, fmt.Errorf("%w: export.progress_file is not set", shared.ErrInvalidConfig)
	}

	guard := repositories.NewPIDGuard(path)
	if err := guard.Acquire(); err != nil {
		return nil, func() {}, err
	}
	r.logger.Debug("progress file locked", "lock", guard.Path())

	return repositories.NewProgressRepository(path), guard.Release, nil
}

// groupFilter reads --group and --exclude-group.
func groupFilter(cmd *cli.Command) (models.GroupFilter, error) {
	filter := models.GroupFilter{
		Include: cmd.String("group"),
		Exclude: cmd.String("exclude-group"),
	}
	if err := filter.Validate(); err != nil {
		return filter, fmt.Errorf("%w: %v", shared.ErrInvalidFlag, err)
	}
	return filter, nil
}

func (r *Runner) newEngine(svc services.ExportService, filter models.GroupFilter, logger *log.Logger) *tasks.ExportEngine {
	return tasks.NewExportEngine(svc, tasks.EngineOpts{
		OutputDir:   r.config.Export.OutputDir,
		Filter:      filter,
		Poll:        retry.Fixed(r.config.Export.PollAttempts, r.config.Export.PollInterval.Duration),
		ResyncNames: r.config.Discovery.ResyncNames,
		Logger:      logger,
	})
}

// printUpdates writes progress updates to the output until the channel is closed.
//
// The returned channel is closed once the last update has been written.
func (r *Runner) printUpdates(progressCh <-chan tasks.ProgressUpdate) <-chan struct{} {
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.Discovering:
				if update.Step == 0 {
					r.writePlain("🔍 %s\n", update.Message)
				} else {
					r.writePlain("   %s\n", update.Message)
				}
			case tasks.Exporting:
				r.writePlain("\n📦 %s\n", update.Message)
			case tasks.Downloading:
				r.writePlain("📥 %s\n", update.Message)
			default:
				r.writePlain("%s\n", update.Message)
			}
		}
	}()
	return done
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
