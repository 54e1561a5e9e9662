package main

import (
	"context"
	"errors"

	"github.com/desertthunder/glx/internal/formatter"
	"github.com/desertthunder/glx/internal/models"
	"github.com/desertthunder/glx/internal/shared"
	"github.com/desertthunder/glx/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Export discovers every visible project, then exports and downloads the pending ones.
//
// The progress file is written back exactly once, on every exit path, so an
// interrupted run resumes where it stopped. With --reset only the download
// statuses are reset.
func (r *Runner) Export(ctx context.Context, cmd *cli.Command) (err error) {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if cmd.Bool("reset") {
		return r.resetStore()
	}
	if err := r.config.Validate(); err != nil {
		return err
	}
	filter, err := groupFilter(cmd)
	if err != nil {
		return err
	}

	svc, err := r.exportService()
	if err != nil {
		return err
	}

	repo, release, err := r.openStore()
	defer release()
	if err != nil {
		return err
	}

	state, err := repo.Load()
	if err != nil {
		return err
	}
	defer func() {
		if saveErr := repo.Save(state); saveErr != nil {
			err = errors.Join(err, saveErr)
			return
		}
		r.logger.Debug("progress saved", "path", repo.Path(), "projects", len(state.Projects))
	}()

	logger := shared.WithLogger(r.logger, "run", shared.GenerateID())
	logger.Info("starting export",
		"endpoint", r.config.GitLab.APIEndpoint,
		"output", r.config.Export.OutputDir,
		"progress", repo.Path(),
		"known", len(state.Projects),
	)
	if filter.Active() {
		logger.Info("group filter", "include", filter.Include, "exclude", filter.Exclude)
	}

	if cmd.Bool("tui") {
		if r.interactive() {
			result, err := r.runTUI(ctx, svc, filter, state)
			r.printExportSummary(state, nil, result, err)
			return err
		}
		logger.Warn("output is not a terminal, ignoring --tui")
	}

	engine := r.newEngine(svc, filter, logger)
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := r.printUpdates(progressCh)

	discovery, err := engine.Discover(ctx, progressCh, state)
	var result *tasks.RunResult
	if err == nil {
		result, err = engine.Run(ctx, progressCh, state)
	}
	close(progressCh)
	<-done

	r.printExportSummary(state, discovery, result, err)
	if err != nil {
		logger.Error("export stopped", "err", err)
		return err
	}

	logger.Info("export complete", "downloaded", len(result.Downloaded), "timed_out", len(result.TimedOut))
	return nil
}

// printExportSummary ends every run with the summary line, even when discovery
// or the run stopped early.
func (r *Runner) printExportSummary(state *models.Progress, discovery *tasks.DiscoveryResult, result *tasks.RunResult, err error) {
	r.writePlain("\n")
	switch {
	case errors.Is(err, context.Canceled):
		r.writePlainHeader("Export Interrupted")
	case err != nil:
		r.writePlainHeader("Export Failed")
	default:
		r.writePlainHeader("Export Complete!")
	}

	if discovery != nil {
		r.writePlain("Discovered: %d projects (%d new, %d filtered)\n", discovery.Remote, discovery.Added, discovery.Filtered)
	}
	if result != nil {
		r.writePlain("Downloaded: %d\n", len(result.Downloaded))
		r.writePlain("Already downloaded: %d\n", result.AlreadyDone)
		if result.Filtered > 0 {
			r.writePlain("Filtered: %d\n", result.Filtered)
		}

		if len(result.TimedOut) > 0 {
			r.writePlain("\nExport timed out for %d projects:\n", len(result.TimedOut))
			for _, id := range result.TimedOut {
				if project := state.Find(id); project != nil {
					r.writePlain("  - %s (ID: %d, status: %s)\n", project.Name, id, project.ExportStatus)
				}
			}
		}
	}
	if err != nil {
		r.writePlain("\nError: %v\n", err)
	}

	r.writePlainln("%s", formatter.SummaryLine(state.Summary()))
}

// Reset sets every download status to none without touching export statuses.
func (r *Runner) Reset(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	return r.resetStore()
}

func (r *Runner) resetStore() error {
	repo, release, err := r.openStore()
	defer release()
	if err != nil {
		return err
	}

	state, err := repo.Load()
	if err != nil {
		return err
	}

	changed := state.ResetDownloadStatus()
	if err := repo.Save(state); err != nil {
		return err
	}

	r.logger.Info("download statuses reset", "path", repo.Path(), "changed", changed)
	r.writePlain("All download statuses have been reset to %q (%d of %d projects changed).\n",
		string(models.DownloadNone), changed, len(state.Projects))
	return nil
}
